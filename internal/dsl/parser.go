// Package dsl parses trigger and emit expressions into IR values.
//
// Trigger grammar:
//
//	hotkey := step { ">" step }
//	step   := token { "+" token }
//
// The last token of a step is always a key. Earlier tokens are modifiers when they
// name one (directly or through a modifier alias), otherwise they are keys pressed
// simultaneously. Emit expressions are a single step whose earlier tokens must all
// be modifiers.
package dsl

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/omnikeys/internal/ir"
)

const (
	stepSeparator  = ">"
	tokenSeparator = "+"
)

// keyTokenPattern matches target key codes ("f18", "left_arrow", "1").
var keyTokenPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Aliases are user-defined token substitutions.
type Aliases struct {
	// Keys maps an alias to a key token (leader_key -> f18).
	Keys map[string]string

	// Mods maps an alias to a "+"-joined modifier expression (hyper -> command+control+option+shift).
	Mods map[string]string
}

// Parser turns expressions into IR values using a fixed alias table.
type Parser struct {
	keys map[string]string
	mods map[string]ir.ModifierSet
}

// NewParser validates the alias table and returns a parser using it.
func NewParser(aliases Aliases) (*Parser, error) {
	p := &Parser{
		keys: make(map[string]string, len(aliases.Keys)),
		mods: make(map[string]ir.ModifierSet, len(aliases.Mods)),
	}

	for name, expr := range aliases.Mods {
		alias := normalizeToken(name)
		var set []ir.Modifier
		for _, raw := range strings.Split(expr, tokenSeparator) {
			tok := normalizeToken(raw)
			m, ok := builtinModifier(tok)
			if !ok {
				return nil, &ParseError{Expr: expr, Token: tok, Message: fmt.Sprintf("modifier alias %q: not a modifier", name)}
			}
			set = append(set, m)
		}
		p.mods[alias] = ir.NewModifierSet(set...)
	}

	for name, key := range aliases.Keys {
		alias := normalizeToken(name)
		if _, clash := p.mods[alias]; clash {
			return nil, &ParseError{Expr: name, Token: alias, Message: "alias defined as both key and modifier"}
		}
		tok := normalizeToken(key)
		if !keyTokenPattern.MatchString(tok) {
			return nil, &ParseError{Expr: key, Token: tok, Message: fmt.Sprintf("key alias %q: invalid key token", name)}
		}
		p.keys[alias] = tok
	}

	return p, nil
}

// ParseHotkey parses a trigger expression ("leader>w>v", "right_command+h").
func (p *Parser) ParseHotkey(expr string) (ir.Hotkey, error) {
	if strings.TrimSpace(expr) == "" {
		return ir.Hotkey{}, &ParseError{Expr: expr, Message: "trigger is empty"}
	}

	var hk ir.Hotkey
	for _, raw := range strings.Split(expr, stepSeparator) {
		step, err := p.parseStep(expr, raw, true)
		if err != nil {
			return ir.Hotkey{}, err
		}
		hk.Steps = append(hk.Steps, step)
	}
	return hk, nil
}

// ParseKeyChord parses an emit expression ("cmd+shift+1").
func (p *Parser) ParseKeyChord(expr string) (ir.KeyChord, error) {
	if strings.TrimSpace(expr) == "" {
		return ir.KeyChord{}, &ParseError{Expr: expr, Message: "emit is empty"}
	}
	if strings.Contains(expr, stepSeparator) {
		return ir.KeyChord{}, &ParseError{Expr: expr, Message: "emit cannot be a sequence"}
	}

	step, err := p.parseStep(expr, expr, false)
	if err != nil {
		return ir.KeyChord{}, err
	}
	return ir.KeyChord{Key: step.Keys[0], Modifiers: step.Modifiers}, nil
}

// ParseRule parses a trigger/emit pair into a rule.
func (p *Parser) ParseRule(trigger, emit string) (ir.Rule, error) {
	hk, err := p.ParseHotkey(trigger)
	if err != nil {
		return ir.Rule{}, err
	}
	chord, err := p.ParseKeyChord(emit)
	if err != nil {
		return ir.Rule{}, err
	}
	return ir.Rule{Trigger: hk, Action: ir.Emit{Chord: chord}}, nil
}

// ParseShellRule parses a trigger bound to a shell command.
func (p *Parser) ParseShellRule(trigger, command string) (ir.Rule, error) {
	hk, err := p.ParseHotkey(trigger)
	if err != nil {
		return ir.Rule{}, err
	}
	if strings.TrimSpace(command) == "" {
		return ir.Rule{}, &ParseError{Expr: command, Message: "shell command is empty"}
	}
	return ir.Rule{Trigger: hk, Action: ir.Shell{Command: command}}, nil
}

// parseStep parses one "+"-joined step. When allowKeys is false every token but
// the last must be a modifier.
func (p *Parser) parseStep(expr, raw string, allowKeys bool) (ir.Chord, error) {
	tokens := strings.Split(raw, tokenSeparator)
	var chord ir.Chord
	var mods []ir.Modifier

	for i, rawTok := range tokens {
		tok := normalizeToken(rawTok)
		if tok == "" {
			return ir.Chord{}, &ParseError{Expr: expr, Message: "empty token"}
		}

		if i < len(tokens)-1 {
			if set, ok := p.mods[tok]; ok {
				mods = append(mods, set...)
				continue
			}
			if m, ok := builtinModifier(tok); ok {
				mods = append(mods, m)
				continue
			}
			if !allowKeys {
				return ir.Chord{}, &ParseError{Expr: expr, Token: tok, Message: "expected a modifier"}
			}
		}

		key, err := p.resolveKey(expr, tok)
		if err != nil {
			return ir.Chord{}, err
		}
		if slices.Contains(chord.Keys, key) {
			return ir.Chord{}, &ParseError{Expr: expr, Token: tok, Message: "duplicate key in step"}
		}
		chord.Keys = append(chord.Keys, key)
	}

	chord.Modifiers = ir.NewModifierSet(mods...)
	return chord, nil
}

func (p *Parser) resolveKey(expr, tok string) (ir.KeyCode, error) {
	if key, ok := p.keys[tok]; ok {
		return ir.KeyCode(key), nil
	}
	if _, ok := p.mods[tok]; ok {
		return "", &ParseError{Expr: expr, Token: tok, Message: "step must end with a key, got modifier alias"}
	}
	if m, ok := builtinModifier(tok); ok {
		if _, physical := ir.ModifierForKey(ir.KeyCode(m)); !physical {
			return "", &ParseError{Expr: expr, Token: tok, Message: "step must end with a key, got modifier"}
		}
		return ir.KeyCode(m), nil
	}
	if !keyTokenPattern.MatchString(tok) {
		return "", &ParseError{Expr: expr, Token: tok, Message: "invalid key token"}
	}
	return ir.KeyCode(tok), nil
}

// normalizeToken NFC-normalizes, case-folds and trims a token.
func normalizeToken(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// ParseError reports a malformed expression.
type ParseError struct {
	Expr    string
	Token   string
	Message string
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("parse %q: %s (token %q)", e.Expr, e.Message, e.Token)
	}
	return fmt.Sprintf("parse %q: %s", e.Expr, e.Message)
}
