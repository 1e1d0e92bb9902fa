// Package karabiner renders a production set as Karabiner-Elements
// complex-modifications JSON and validates it against an embedded schema.
//
// Each production becomes one basic manipulator, in production order, so the
// engine's first-match evaluation sees them exactly as the compiler ranked them.
package karabiner

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/omnikeys/internal/ir"
)

const (
	// DelayParameter holds a manipulator's delayed-action timeout.
	DelayParameter = "basic.to_delayed_action_delay_milliseconds"

	anyKeyCode  = "key_code"
	anyModifier = "any"
)

// Emit converts a production set into a rule.
func Emit(set *ir.ProductionSet) (*Rule, error) {
	rule := &Rule{
		Description:  set.Description,
		Manipulators: make([]Manipulator, 0, len(set.Productions)),
	}
	for i, p := range set.Productions {
		m, err := manipulator(p)
		if err != nil {
			return nil, fmt.Errorf("production %d: %w", i, err)
		}
		rule.Manipulators = append(rule.Manipulators, m)
	}
	return rule, nil
}

// EmitAsset wraps one rule per production set in an importable asset.
func EmitAsset(title string, sets ...*ir.ProductionSet) (*Asset, error) {
	asset := &Asset{Title: title, Rules: make([]Rule, 0, len(sets))}
	for _, set := range sets {
		r, err := Emit(set)
		if err != nil {
			return nil, err
		}
		asset.Rules = append(asset.Rules, *r)
	}
	return asset, nil
}

// Marshal writes v as indented JSON without HTML escaping, so shell commands
// keep their & and > characters.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func manipulator(p ir.Production) (Manipulator, error) {
	from, err := fromEvent(p.Trigger)
	if err != nil {
		return Manipulator{}, err
	}

	m := Manipulator{Type: "basic", From: from}

	if m.To, err = toEvents(p.Effects); err != nil {
		return Manipulator{}, fmt.Errorf("to: %w", err)
	}
	if m.ToAfterKeyUp, err = toEvents(p.AfterKeyUp); err != nil {
		return Manipulator{}, fmt.Errorf("to_after_key_up: %w", err)
	}
	if m.ToIfAlone, err = toEvents(p.IfAlone); err != nil {
		return Manipulator{}, fmt.Errorf("to_if_alone: %w", err)
	}

	if d := p.Delayed; d != nil {
		if d.DelayMS <= 0 {
			return Manipulator{}, fmt.Errorf("delayed action needs a positive delay, got %d", d.DelayMS)
		}
		action := &DelayedAction{}
		if action.ToIfInvoked, err = toEvents(d.OnInvoked); err != nil {
			return Manipulator{}, fmt.Errorf("to_if_invoked: %w", err)
		}
		if action.ToIfCanceled, err = toEvents(d.OnCanceled); err != nil {
			return Manipulator{}, fmt.Errorf("to_if_canceled: %w", err)
		}
		m.ToDelayedAction = action
		m.Parameters = map[string]int{DelayParameter: d.DelayMS}
	}

	for _, c := range p.Conditions {
		v, err := jsonValue(c.Value)
		if err != nil {
			return Manipulator{}, fmt.Errorf("condition %s: %w", c.Variable, err)
		}
		m.Conditions = append(m.Conditions, Condition{Type: ConditionVariable, Name: string(c.Variable), Value: v})
	}
	if p.Scope != nil && len(p.Scope.Applications) > 0 {
		m.Conditions = append(m.Conditions, Condition{
			Type:              ConditionApplication,
			BundleIdentifiers: append([]string(nil), p.Scope.Applications...),
		})
	}
	return m, nil
}

func fromEvent(t ir.Trigger) (From, error) {
	var from From
	switch {
	case t.Any && t.Key != "":
		return From{}, fmt.Errorf("trigger sets both any and key %q", t.Key)
	case t.Any:
		from.Any = anyKeyCode
	case t.Key != "":
		from.KeyCode = string(t.Key)
	default:
		return From{}, fmt.Errorf("trigger has no key")
	}

	mods, err := modifierNames(t.Mandatory)
	if err != nil {
		return From{}, err
	}
	if len(mods) > 0 || t.AnyOptional {
		from.Modifiers = &FromModifiers{Mandatory: mods}
		if t.AnyOptional {
			from.Modifiers.Optional = []string{anyModifier}
		}
	}
	return from, nil
}

func toEvents(effects []ir.Effect) ([]ToEvent, error) {
	if len(effects) == 0 {
		return nil, nil
	}
	out := make([]ToEvent, 0, len(effects))
	for _, e := range effects {
		switch {
		case e.Set != nil:
			v, err := jsonValue(e.Set.Value)
			if err != nil {
				return nil, fmt.Errorf("set %s: %w", e.Set.Variable, err)
			}
			out = append(out, ToEvent{SetVariable: &Variable{Name: string(e.Set.Variable), Value: v}})
		case e.Emit != nil:
			if e.Emit.Key == "" {
				return nil, fmt.Errorf("emit has no key")
			}
			mods, err := modifierNames(e.Emit.Modifiers)
			if err != nil {
				return nil, err
			}
			out = append(out, ToEvent{KeyCode: string(e.Emit.Key), Modifiers: mods})
		case e.Shell != "":
			out = append(out, ToEvent{ShellCommand: e.Shell})
		default:
			return nil, fmt.Errorf("empty effect")
		}
	}
	return out, nil
}

func modifierNames(set ir.ModifierSet) ([]string, error) {
	for _, m := range set {
		if !m.Valid() {
			return nil, fmt.Errorf("unknown modifier %q", m)
		}
	}
	names := set.Strings()
	if len(names) == 0 {
		return nil, nil
	}
	return names, nil
}

func jsonValue(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRBool:
		return bool(val), nil
	default:
		return nil, fmt.Errorf("unsupported value %T", v)
	}
}
