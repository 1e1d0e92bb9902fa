package ir

import (
	"fmt"
	"strings"
)

// VarName names a persistent variable in the target engine.
// The compiler targets these names but never reads or writes them itself.
type VarName string

// Tier orders productions for a first-match target engine.
// Lower tiers are emitted first. State-gated tiers precede the unconditioned
// entry productions so a live sequence always sees its keys first.
type Tier int

const (
	TierTransition  Tier = iota + 1 // sequence intermediate and final transitions
	TierPassthrough                 // modifier keys passed through mid-sequence
	TierCancel                      // wrong-key cancellation
	TierHold                        // chords gated on a held leader
	TierRoot                        // leader hold/tap and anchored sequence entry
	TierChord                       // plain chords
)

var tierNames = map[Tier]string{
	TierTransition:  "transition",
	TierPassthrough: "passthrough",
	TierCancel:      "cancel",
	TierHold:        "hold",
	TierRoot:        "root",
	TierChord:       "chord",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// Trigger is the key event a production fires on.
type Trigger struct {
	// Key is the triggering key; empty when Any is set.
	Key KeyCode `json:"key_code,omitempty"`

	// Any matches every key press.
	Any bool `json:"any,omitempty"`

	// Mandatory modifiers must be held.
	Mandatory ModifierSet `json:"mandatory,omitempty"`

	// AnyOptional tolerates other held modifiers.
	AnyOptional bool `json:"any_optional,omitempty"`
}

// Condition requires a variable to hold a value.
type Condition struct {
	Variable VarName `json:"name"`
	Value    IRValue `json:"value"`
}

// Assignment sets a variable.
type Assignment struct {
	Variable VarName `json:"name"`
	Value    IRValue `json:"value"`
}

// Effect is one ordered step of a production's output. Exactly one field is set.
type Effect struct {
	Set   *Assignment `json:"set_variable,omitempty"`
	Emit  *KeyChord   `json:"emit,omitempty"`
	Shell string      `json:"shell_command,omitempty"`
}

// SetVar returns an assignment effect.
func SetVar(name VarName, value IRValue) Effect {
	return Effect{Set: &Assignment{Variable: name, Value: value}}
}

// EmitChord returns a key emission effect.
func EmitChord(chord KeyChord) Effect {
	c := KeyChord{Key: chord.Key, Modifiers: chord.Modifiers.Normalize()}
	return Effect{Emit: &c}
}

// RunShell returns a shell command effect.
func RunShell(command string) Effect {
	return Effect{Shell: command}
}

// Delayed is an effect scheduled after a quiet period. OnInvoked runs if no other
// key arrives within DelayMS; OnCanceled runs if one does.
type Delayed struct {
	DelayMS    int      `json:"delay_ms"`
	OnInvoked  []Effect `json:"on_invoked,omitempty"`
	OnCanceled []Effect `json:"on_canceled,omitempty"`
}

// Production is one self-contained condition/effect rule for the target engine.
type Production struct {
	Tier       Tier        `json:"tier"`
	Trigger    Trigger     `json:"trigger"`
	Conditions []Condition `json:"conditions,omitempty"`
	Effects    []Effect    `json:"effects,omitempty"`

	// AfterKeyUp runs when the trigger key is released.
	AfterKeyUp []Effect `json:"after_key_up,omitempty"`

	// IfAlone runs when the trigger key is tapped with no other key in between.
	IfAlone []Effect `json:"if_alone,omitempty"`

	Delayed *Delayed `json:"delayed,omitempty"`
	Scope   *When    `json:"scope,omitempty"`
}

// ProductionSet is the complete compiler output.
type ProductionSet struct {
	Description string       `json:"description"`
	Productions []Production `json:"productions"`
}

// String renders the trigger as "mods+key", with "*" for any key and a
// trailing "+*" when extra modifiers are tolerated.
func (t Trigger) String() string {
	parts := t.Mandatory.Strings()
	if t.Any {
		parts = append(parts, "*")
	} else {
		parts = append(parts, string(t.Key))
	}
	s := strings.Join(parts, "+")
	if t.AnyOptional {
		s += "+*"
	}
	return s
}

func (c Condition) String() string {
	return fmt.Sprintf("%s==%s", c.Variable, FormatValue(c.Value))
}

func (e Effect) String() string {
	switch {
	case e.Set != nil:
		return fmt.Sprintf("%s=%s", e.Set.Variable, FormatValue(e.Set.Value))
	case e.Emit != nil:
		return "emit " + e.Emit.String()
	case e.Shell != "":
		return "shell " + e.Shell
	}
	return "noop"
}

// String summarises the production on one line:
// "tier trigger [conditions] -> effects".
func (p Production) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-11s %s", p.Tier, p.Trigger)
	if len(p.Conditions) > 0 {
		conds := make([]string, len(p.Conditions))
		for i, c := range p.Conditions {
			conds[i] = c.String()
		}
		fmt.Fprintf(&b, " [%s]", strings.Join(conds, " "))
	}
	b.WriteString(" -> ")
	b.WriteString(joinEffects(p.Effects))
	if len(p.AfterKeyUp) > 0 {
		b.WriteString(" up: " + joinEffects(p.AfterKeyUp))
	}
	if len(p.IfAlone) > 0 {
		b.WriteString(" alone: " + joinEffects(p.IfAlone))
	}
	if p.Delayed != nil {
		fmt.Fprintf(&b, " after %dms: %s", p.Delayed.DelayMS, joinEffects(p.Delayed.OnInvoked))
	}
	if p.Scope != nil && len(p.Scope.Applications) > 0 {
		b.WriteString(" in " + strings.Join(p.Scope.Applications, "|"))
	}
	return b.String()
}

func joinEffects(effects []Effect) string {
	if len(effects) == 0 {
		return "-"
	}
	parts := make([]string, len(effects))
	for i, e := range effects {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
