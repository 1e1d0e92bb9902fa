package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/omnikeys/internal/compiler"
	"github.com/roach88/omnikeys/internal/config"
	"github.com/roach88/omnikeys/internal/ir"
)

// Option configures a scenario run.
type Option func(*Harness)

// WithLogger routes per-event debug logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// Harness plays one scenario against one production set.
type Harness struct {
	sim    *Simulator
	logger *slog.Logger
}

// Run compiles the scenario's config and plays its events.
func Run(s *Scenario, opts ...Option) (*Result, error) {
	set, err := Compile(s)
	if err != nil {
		return nil, err
	}
	return Execute(set, s, opts...)
}

// Compile loads and compiles the scenario's config.
func Compile(s *Scenario) (*ir.ProductionSet, error) {
	var (
		cfg *ir.Config
		err error
	)
	if s.Config != "" {
		cfg, err = config.Load(s.Config)
	} else {
		format := config.FormatTOML
		if s.Format != "" {
			if format, err = config.ParseFormat(s.Format); err != nil {
				return nil, err
			}
		}
		cfg, err = config.LoadBytes([]byte(s.Inline), format, s.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	set, err := compiler.CompileConfig(cfg, compiler.WithTimeout(s.TimeoutMS))
	if err != nil {
		return nil, fmt.Errorf("failed to compile config: %w", err)
	}
	return set, nil
}

// Execute plays the scenario's events against set and evaluates its
// assertions. The returned result fails when an assertion fails; the error is
// reserved for scenarios that cannot be played.
func Execute(set *ir.ProductionSet, s *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		sim:    NewSimulator(set),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	if s.App != "" {
		h.sim.SetApp(s.App)
	}
	for i, e := range s.Events {
		if err := h.play(e); err != nil {
			return nil, fmt.Errorf("events[%d]: %w", i, err)
		}
	}

	result := NewResult()
	result.Trace = h.sim.Trace()
	result.Emitted = append(result.Emitted, h.sim.Emitted()...)
	for _, k := range h.sim.Passed() {
		result.Passed = append(result.Passed, string(k))
	}
	for name, v := range h.sim.Vars() {
		result.Variables[string(name)] = ir.FormatValue(v)
	}

	for _, msg := range EvaluateAssertions(result, s.Assertions) {
		result.AddError(msg)
	}

	h.logger.Info("scenario finished",
		"scenario", s.Name,
		"events", len(result.Trace),
		"emitted", len(result.Emitted),
		"pass", result.Pass,
	)
	return result, nil
}

func (h *Harness) play(e Event) error {
	switch {
	case e.Tap != "":
		mods := make([]ir.Modifier, len(e.Modifiers))
		for i, m := range e.Modifiers {
			mod, ok := ir.ModifierForKey(ir.KeyCode(m))
			if !ok {
				return fmt.Errorf("%q is not a physical modifier key", m)
			}
			mods[i] = mod
		}
		h.sim.Tap(ir.KeyCode(e.Tap), mods...)
	case e.Press != "":
		h.sim.Press(ir.KeyCode(e.Press))
	case e.Release != "":
		h.sim.Release(ir.KeyCode(e.Release))
	case e.Wait > 0:
		h.sim.Wait(e.Wait)
	case e.App != "":
		h.sim.SetApp(e.App)
	default:
		return fmt.Errorf("empty event")
	}
	h.logger.Debug("event played", "event", fmt.Sprintf("%+v", e), "vars", len(h.sim.Vars()))
	return nil
}
