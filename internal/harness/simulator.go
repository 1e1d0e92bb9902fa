package harness

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/roach88/omnikeys/internal/ir"
)

// AloneTimeoutMS is how long a key may be held and still count as tapped alone.
const AloneTimeoutMS = 1000

// Simulator executes a production set the way the target engine does: on each
// key-down the first matching production in order wins, unmatched keys pass
// through, delayed actions are cancelled by the next key-down and invoked when
// the clock passes their deadline.
type Simulator struct {
	prods []ir.Production
	vars  map[ir.VarName]ir.IRValue
	held  map[ir.KeyCode]*heldKey
	order []ir.KeyCode // held keys in press order

	pending []pendingDelay
	clock   *Clock
	app     string

	patterns map[string]*regexp.Regexp

	trace   []TraceEvent
	emitted []string
	passed  []ir.KeyCode
}

type heldKey struct {
	prod   *ir.Production // nil when the key passed through
	downAt int64
	alone  bool
}

type pendingDelay struct {
	due     int64
	delayed *ir.Delayed
}

// NewSimulator returns a simulator at time zero with every variable unset.
func NewSimulator(set *ir.ProductionSet) *Simulator {
	return &Simulator{
		prods:    set.Productions,
		vars:     make(map[ir.VarName]ir.IRValue),
		held:     make(map[ir.KeyCode]*heldKey),
		clock:    NewClock(),
		patterns: make(map[string]*regexp.Regexp),
	}
}

// SetApp changes the frontmost application.
func (s *Simulator) SetApp(app string) {
	s.app = app
	s.record(EventApp, app)
}

// Tap presses and releases key while holding mods.
func (s *Simulator) Tap(key ir.KeyCode, mods ...ir.Modifier) {
	for _, m := range mods {
		s.Press(ir.KeyCode(m))
	}
	s.Press(key)
	s.Release(key)
	for _, m := range slices.Backward(mods) {
		s.Release(ir.KeyCode(m))
	}
}

// Press delivers a key-down event.
func (s *Simulator) Press(key ir.KeyCode) {
	s.record(EventPress, string(key))

	if _, down := s.held[key]; down {
		// Auto-repeat is not modelled; a second press of a held key is ignored.
		return
	}

	for _, p := range s.pending {
		s.run(p.delayed.OnCanceled)
	}
	s.pending = nil

	for _, h := range s.held {
		h.alone = false
	}

	mods := s.heldModifiers()
	h := &heldKey{downAt: s.clock.Now(), alone: true}
	s.held[key] = h
	s.order = append(s.order, key)

	p := s.match(key, mods)
	if p == nil {
		s.passed = append(s.passed, key)
		s.record(EventPass, string(key))
		return
	}

	h.prod = p
	s.run(p.Effects)
	if p.Delayed != nil {
		s.pending = append(s.pending, pendingDelay{due: s.clock.Now() + int64(p.Delayed.DelayMS), delayed: p.Delayed})
	}
}

// Release delivers a key-up event.
func (s *Simulator) Release(key ir.KeyCode) {
	s.record(EventRelease, string(key))

	h, down := s.held[key]
	if !down {
		return
	}
	delete(s.held, key)
	s.order = slices.DeleteFunc(s.order, func(k ir.KeyCode) bool { return k == key })

	if h.prod == nil {
		return
	}
	s.run(h.prod.AfterKeyUp)
	if h.alone && s.clock.Now()-h.downAt < AloneTimeoutMS {
		s.run(h.prod.IfAlone)
	}
}

// Wait advances the clock by ms, invoking every delayed action that falls due.
func (s *Simulator) Wait(ms int) {
	s.record(EventWait, fmt.Sprintf("%d", ms))
	deadline := s.clock.Now() + int64(ms)

	for {
		i := s.nextDue(deadline)
		if i < 0 {
			break
		}
		p := s.pending[i]
		s.pending = slices.Delete(s.pending, i, i+1)
		s.clock.AdvanceTo(p.due)
		s.record(EventTimeout, fmt.Sprintf("%dms", p.delayed.DelayMS))
		s.run(p.delayed.OnInvoked)
	}
	s.clock.AdvanceTo(deadline)
}

func (s *Simulator) nextDue(deadline int64) int {
	best := -1
	for i, p := range s.pending {
		if p.due <= deadline && (best < 0 || p.due < s.pending[best].due) {
			best = i
		}
	}
	return best
}

// Var returns a variable's value, nil when unset.
func (s *Simulator) Var(name ir.VarName) ir.IRValue {
	return s.vars[name]
}

// Vars returns a copy of every variable that has been set.
func (s *Simulator) Vars() map[ir.VarName]ir.IRValue {
	out := make(map[ir.VarName]ir.IRValue, len(s.vars))
	for k, v := range s.vars {
		out[k] = v
	}
	return out
}

// Emitted returns every action output so far ("command+1", "shell open -a Terminal").
func (s *Simulator) Emitted() []string {
	return slices.Clone(s.emitted)
}

// Passed returns the keys that matched no production.
func (s *Simulator) Passed() []ir.KeyCode {
	return slices.Clone(s.passed)
}

// Trace returns the event log.
func (s *Simulator) Trace() []TraceEvent {
	return slices.Clone(s.trace)
}

// Idle reports whether every sequence state variable is idle or unset.
func (s *Simulator) Idle() bool {
	for name, v := range s.vars {
		if !isStateVariable(name) {
			continue
		}
		if str, ok := v.(ir.IRString); ok && str != "idle" {
			return false
		}
	}
	return true
}

func isStateVariable(name ir.VarName) bool {
	return strings.Contains(string(name), ".seq.")
}

// heldModifiers returns the modifiers of every physically held modifier key.
func (s *Simulator) heldModifiers() ir.ModifierSet {
	var mods []ir.Modifier
	for _, k := range s.order {
		if m, ok := ir.ModifierForKey(k); ok {
			mods = append(mods, m)
		}
	}
	return ir.NewModifierSet(mods...)
}

// match returns the first production accepting the key-down, or nil.
func (s *Simulator) match(key ir.KeyCode, held ir.ModifierSet) *ir.Production {
	for i := range s.prods {
		p := &s.prods[i]
		if !p.Trigger.Any && p.Trigger.Key != key {
			continue
		}
		if !p.Trigger.Mandatory.SatisfiedBy(held) {
			continue
		}
		if !p.Trigger.AnyOptional && !onlyMandatory(held, p.Trigger.Mandatory) {
			continue
		}
		if !s.conditionsHold(p.Conditions) {
			continue
		}
		if !s.inScope(p.Scope) {
			continue
		}
		return p
	}
	return nil
}

// onlyMandatory reports whether every held modifier is accounted for by a
// mandatory one.
func onlyMandatory(held, mandatory ir.ModifierSet) bool {
	for _, h := range held {
		if !slices.ContainsFunc(mandatory, h.Satisfies) {
			return false
		}
	}
	return true
}

func (s *Simulator) conditionsHold(conds []ir.Condition) bool {
	for _, c := range conds {
		if s.vars[c.Variable] != c.Value {
			return false
		}
	}
	return true
}

func (s *Simulator) inScope(w *ir.When) bool {
	if w == nil || len(w.Applications) == 0 {
		return true
	}
	for _, pattern := range w.Applications {
		re, ok := s.patterns[pattern]
		if !ok {
			// Loaded configs reject invalid patterns; a hand-built set's never match.
			re, _ = regexp.Compile(pattern)
			s.patterns[pattern] = re
		}
		if re != nil && re.MatchString(s.app) {
			return true
		}
	}
	return false
}

func (s *Simulator) run(effects []ir.Effect) {
	for _, e := range effects {
		switch {
		case e.Set != nil:
			s.vars[e.Set.Variable] = e.Set.Value
			s.record(EventSet, fmt.Sprintf("%s=%s", e.Set.Variable, ir.FormatValue(e.Set.Value)))
		case e.Emit != nil:
			out := e.Emit.String()
			s.emitted = append(s.emitted, out)
			s.record(EventEmit, out)
		case e.Shell != "":
			out := "shell " + e.Shell
			s.emitted = append(s.emitted, out)
			s.record(EventShell, e.Shell)
		}
	}
}

func (s *Simulator) record(kind, detail string) {
	s.trace = append(s.trace, TraceEvent{
		Seq:    s.clock.Next(),
		At:     s.clock.Now(),
		Type:   kind,
		Detail: detail,
	})
}
