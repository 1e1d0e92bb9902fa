package ir

import (
	"slices"
	"strings"
)

// KeyCode is a platform-agnostic key token (e.g. "f18", "w", "left_arrow").
type KeyCode string

// Chord is one trigger step: keys pressed simultaneously plus required modifiers.
type Chord struct {
	Keys      []KeyCode   `json:"keys"`
	Modifiers ModifierSet `json:"modifiers,omitempty"`
}

// ID returns the step identity: sorted modifier tokens followed by sorted keys,
// joined with "+". Two steps share an identity iff they have the same keys and
// the same modifier set.
func (c Chord) ID() string {
	parts := c.Modifiers.Strings()
	keys := make([]string, len(c.Keys))
	for i, k := range c.Keys {
		keys[i] = string(k)
	}
	slices.Sort(keys)
	parts = append(parts, keys...)
	return strings.Join(parts, "+")
}

// IsSingleKey reports whether the step presses exactly one key.
func (c Chord) IsSingleKey() bool {
	return len(c.Keys) == 1
}

// IsBare reports whether the step is a single key with no modifiers.
func (c Chord) IsBare() bool {
	return c.IsSingleKey() && len(c.Modifiers) == 0
}

// Hotkey is a rule trigger: one step is a chord, two or more a sequence.
type Hotkey struct {
	Steps []Chord `json:"steps"`
}

// IsSequence reports whether the hotkey has more than one step.
func (h Hotkey) IsSequence() bool {
	return len(h.Steps) > 1
}

// String renders the hotkey in trigger-expression form ("f18>w>v").
func (h Hotkey) String() string {
	ids := make([]string, len(h.Steps))
	for i, s := range h.Steps {
		ids[i] = s.ID()
	}
	return strings.Join(ids, ">")
}

// KeyChord is an emitted key with its modifiers.
type KeyChord struct {
	Key       KeyCode     `json:"key_code"`
	Modifiers ModifierSet `json:"modifiers,omitempty"`
}

// String renders the chord in emit-expression form ("command+shift+1").
func (k KeyChord) String() string {
	parts := append(k.Modifiers.Strings(), string(k.Key))
	return strings.Join(parts, "+")
}

// Action is the closed set of things a rule can do when triggered.
// Only Emit and Shell implement it.
type Action interface {
	action() // Sealed
	String() string
}

// Emit sends a key chord.
type Emit struct {
	Chord KeyChord `json:"chord"`
}

func (Emit) action() {}

func (e Emit) String() string {
	return "emit " + e.Chord.String()
}

// Shell runs a shell command through the target engine.
type Shell struct {
	Command string `json:"command"`
}

func (Shell) action() {}

func (s Shell) String() string {
	return "shell " + s.Command
}

// When gates a rule on the frontmost application.
// Applications are bundle identifier patterns; nil means any application.
type When struct {
	Applications []string `json:"applications,omitempty"`
}

// Key returns a canonical scope key, "*" for an absent or empty scope.
func (w *When) Key() string {
	if w == nil || len(w.Applications) == 0 {
		return "*"
	}
	return strings.Join(w.Applications, "|")
}

// Rule maps a trigger to an action, optionally gated by When.
type Rule struct {
	Trigger Hotkey `json:"trigger"`
	Action  Action `json:"-"`
	When    *When  `json:"when,omitempty"`

	// Source describes where the rule came from, for diagnostics.
	Source string `json:"source,omitempty"`
}

// Describe returns Source when set, otherwise the trigger expression.
func (r Rule) Describe() string {
	if r.Source != "" {
		return r.Source
	}
	return r.Trigger.String()
}

// Config is the frontend output: all rules plus top-level settings.
type Config struct {
	Description string `json:"description"`
	Rules       []Rule `json:"rules"`

	// TimeoutMS overrides the sequence timeout when non-zero.
	TimeoutMS int `json:"timeout_ms,omitempty"`

	// Namespace overrides the target variable prefix when set.
	Namespace string `json:"namespace,omitempty"`
}
