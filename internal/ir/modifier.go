package ir

import (
	"slices"
	"strings"
)

// Modifier is a platform-agnostic modifier token.
// Unsided tokens (command) are distinct from sided ones (left_command).
type Modifier string

const (
	ModCommand  Modifier = "command"
	ModControl  Modifier = "control"
	ModOption   Modifier = "option"
	ModShift    Modifier = "shift"
	ModFn       Modifier = "fn"
	ModCapsLock Modifier = "caps_lock"

	ModLeftCommand Modifier = "left_command"
	ModLeftControl Modifier = "left_control"
	ModLeftOption  Modifier = "left_option"
	ModLeftShift   Modifier = "left_shift"

	ModRightCommand Modifier = "right_command"
	ModRightControl Modifier = "right_control"
	ModRightOption  Modifier = "right_option"
	ModRightShift   Modifier = "right_shift"
)

// ValidModifiers is the closed modifier enumeration.
var ValidModifiers = map[Modifier]bool{
	ModCommand:      true,
	ModControl:      true,
	ModOption:       true,
	ModShift:        true,
	ModFn:           true,
	ModCapsLock:     true,
	ModLeftCommand:  true,
	ModLeftControl:  true,
	ModLeftOption:   true,
	ModLeftShift:    true,
	ModRightCommand: true,
	ModRightControl: true,
	ModRightOption:  true,
	ModRightShift:   true,
}

// Valid reports whether m is part of the modifier enumeration.
func (m Modifier) Valid() bool {
	return ValidModifiers[m]
}

// Sided returns the left and right variants of an unsided family modifier.
// Sided modifiers, fn and caps_lock return themselves only.
func (m Modifier) Sided() []Modifier {
	switch m {
	case ModCommand:
		return []Modifier{ModLeftCommand, ModRightCommand}
	case ModControl:
		return []Modifier{ModLeftControl, ModRightControl}
	case ModOption:
		return []Modifier{ModLeftOption, ModRightOption}
	case ModShift:
		return []Modifier{ModLeftShift, ModRightShift}
	default:
		return []Modifier{m}
	}
}

// Family returns the unsided family of a sided modifier (left_shift -> shift).
func (m Modifier) Family() Modifier {
	s := string(m)
	s = strings.TrimPrefix(s, "left_")
	s = strings.TrimPrefix(s, "right_")
	return Modifier(s)
}

// Satisfies reports whether a physically held modifier satisfies the required one.
// An unsided requirement accepts either side; a sided requirement only itself.
func (m Modifier) Satisfies(required Modifier) bool {
	if m == required {
		return true
	}
	return required.Family() == required && m.Family() == required
}

// KeyCodes returns the physical key codes that produce this modifier.
func (m Modifier) KeyCodes() []KeyCode {
	sided := m.Sided()
	keys := make([]KeyCode, len(sided))
	for i, s := range sided {
		keys[i] = KeyCode(s)
	}
	return keys
}

// ModifierForKey returns the modifier produced by pressing key, if any.
func ModifierForKey(key KeyCode) (Modifier, bool) {
	m := Modifier(key)
	if !m.Valid() {
		return "", false
	}
	if m.Family() == m && len(m.Sided()) > 1 {
		// Unsided names are not physical keys.
		return "", false
	}
	return m, true
}

// ModifierSet is a deduplicated set of modifiers in canonical (sorted) order.
type ModifierSet []Modifier

// NewModifierSet builds a canonical set from mods, dropping duplicates.
func NewModifierSet(mods ...Modifier) ModifierSet {
	if len(mods) == 0 {
		return nil
	}
	set := slices.Clone(mods)
	slices.Sort(set)
	return ModifierSet(slices.Compact(set))
}

// Normalize returns the canonical form of s.
func (s ModifierSet) Normalize() ModifierSet {
	return NewModifierSet(s...)
}

// Contains reports whether m is in the set.
func (s ModifierSet) Contains(m Modifier) bool {
	return slices.Contains(s, m)
}

// Equal reports whether both sets hold the same modifiers.
func (s ModifierSet) Equal(other ModifierSet) bool {
	return slices.Equal(s.Normalize(), other.Normalize())
}

// Strings returns the set as canonical sorted strings.
func (s ModifierSet) Strings() []string {
	norm := s.Normalize()
	out := make([]string, len(norm))
	for i, m := range norm {
		out[i] = string(m)
	}
	return out
}

// SatisfiedBy reports whether the held modifiers satisfy every modifier in s.
func (s ModifierSet) SatisfiedBy(held ModifierSet) bool {
	for _, required := range s {
		ok := false
		for _, h := range held {
			if h.Satisfies(required) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
