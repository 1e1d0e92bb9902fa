package dsl

import "github.com/roach88/omnikeys/internal/ir"

// modifierNames maps every accepted spelling to its canonical modifier.
var modifierNames = map[string]ir.Modifier{
	"command": ir.ModCommand,
	"cmd":     ir.ModCommand,
	"control": ir.ModControl,
	"ctrl":    ir.ModControl,
	"option":  ir.ModOption,
	"opt":     ir.ModOption,
	"alt":     ir.ModOption,
	"shift":   ir.ModShift,
	"fn":      ir.ModFn,

	"caps_lock": ir.ModCapsLock,
	"caps":      ir.ModCapsLock,

	"left_command": ir.ModLeftCommand,
	"left_cmd":     ir.ModLeftCommand,
	"lcmd":         ir.ModLeftCommand,
	"left_control": ir.ModLeftControl,
	"left_ctrl":    ir.ModLeftControl,
	"lctrl":        ir.ModLeftControl,
	"left_option":  ir.ModLeftOption,
	"left_opt":     ir.ModLeftOption,
	"left_alt":     ir.ModLeftOption,
	"lopt":         ir.ModLeftOption,
	"lalt":         ir.ModLeftOption,
	"left_shift":   ir.ModLeftShift,
	"lshift":       ir.ModLeftShift,

	"right_command": ir.ModRightCommand,
	"right_cmd":     ir.ModRightCommand,
	"rcmd":          ir.ModRightCommand,
	"right_control": ir.ModRightControl,
	"right_ctrl":    ir.ModRightControl,
	"rctrl":         ir.ModRightControl,
	"right_option":  ir.ModRightOption,
	"right_opt":     ir.ModRightOption,
	"right_alt":     ir.ModRightOption,
	"ropt":          ir.ModRightOption,
	"ralt":          ir.ModRightOption,
	"right_shift":   ir.ModRightShift,
	"rshift":        ir.ModRightShift,
}

func builtinModifier(tok string) (ir.Modifier, bool) {
	m, ok := modifierNames[tok]
	return m, ok
}

// IsModifierName reports whether tok names a built-in modifier.
func IsModifierName(tok string) bool {
	_, ok := builtinModifier(normalizeToken(tok))
	return ok
}
