// Package compiler lowers hotkey rules into a flat, ordered production set for a
// first-match, stateless remapping engine.
//
// Compilation runs in two pure stages. Analyze builds whole-configuration
// metadata (leaders, sequence groups, tries) and reports every structural error.
// Lowering then turns each group and chord into productions using that metadata
// read-only. Compile either returns a complete production set or an Errors list,
// never both.
package compiler

import (
	"github.com/roach88/omnikeys/internal/ir"
)

const (
	// DefaultTimeoutMS is how long a partially entered sequence stays live.
	DefaultTimeoutMS = 1000

	// DefaultNamespace prefixes every target variable name.
	DefaultNamespace = "omni"

	// IdleState is the state value of a group with no live sequence.
	IdleState ir.IRString = "idle"
)

type options struct {
	timeoutMS int
	namespace string
}

// Option configures a compile pass.
type Option func(*options)

// WithTimeout sets the sequence timeout in milliseconds. Non-positive values keep
// the default.
func WithTimeout(ms int) Option {
	return func(o *options) {
		if ms > 0 {
			o.timeoutMS = ms
		}
	}
}

// WithNamespace sets the target variable prefix.
func WithNamespace(ns string) Option {
	return func(o *options) {
		if ns != "" {
			o.namespace = ns
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{timeoutMS: DefaultTimeoutMS, namespace: DefaultNamespace}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Compile lowers rules into a production set.
// Safe for concurrent use: every call builds its own metadata.
func Compile(rules []ir.Rule, description string, opts ...Option) (*ir.ProductionSet, error) {
	a, errs := Analyze(rules, opts...)
	if len(errs) > 0 {
		return nil, errs.err()
	}

	var prods []ir.Production
	for _, g := range a.Groups {
		prods = append(prods, lowerGroup(a, g)...)
	}
	for _, c := range a.Chords {
		prods = append(prods, lowerChord(a, c))
	}
	sortProductions(prods)

	return &ir.ProductionSet{Description: description, Productions: prods}, nil
}

// CompileConfig compiles a loaded configuration. The config timeout and namespace
// apply unless an option overrides them.
func CompileConfig(cfg *ir.Config, opts ...Option) (*ir.ProductionSet, error) {
	all := append([]Option{WithTimeout(cfg.TimeoutMS), WithNamespace(cfg.Namespace)}, opts...)
	return Compile(cfg.Rules, cfg.Description, all...)
}

// actionEffects lowers an action to its output effects.
func actionEffects(action ir.Action) []ir.Effect {
	switch act := action.(type) {
	case ir.Emit:
		return []ir.Effect{ir.EmitChord(act.Chord)}
	case ir.Shell:
		return []ir.Effect{ir.RunShell(act.Command)}
	default:
		// checkShape rejects every other variant.
		panic("compiler: unhandled action variant")
	}
}

// scopeOf returns nil for an absent or empty scope.
func scopeOf(w *ir.When) *ir.When {
	if w == nil || len(w.Applications) == 0 {
		return nil
	}
	return w
}
