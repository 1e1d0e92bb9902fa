package config

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

var topLevelFields = map[string]bool{
	"version":      true,
	"description":  true,
	"timeout_ms":   true,
	"namespace":    true,
	"applications": true,
	"alias":        true,
	"rule":         true,
	"when":         true,
}

// decodeCUE evaluates CUE source and decodes it into the file schema. Rule
// positions come from the evaluated value so rule errors point at the source.
func decodeCUE(data []byte, name string) (*File, locator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, nil, fromCUE(err, name)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, nil, fromCUE(err, name)
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, nil, fromCUE(err, name)
	}
	for iter.Next() {
		label := iter.Selector().String()
		if !topLevelFields[label] {
			le := &LoadError{Code: CodeUnknownField, File: name, Message: "unknown key: " + label}
			return nil, nil, le.at(iter.Value().Pos())
		}
	}

	var f File
	if err := v.Decode(&f); err != nil {
		return nil, nil, fromCUE(err, name)
	}

	locate := func(when, rule int) (int, int) {
		var path cue.Path
		if when < 0 {
			path = cue.MakePath(cue.Str("rule"), cue.Index(rule))
		} else {
			path = cue.MakePath(cue.Str("when"), cue.Index(when), cue.Str("rule"), cue.Index(rule))
		}
		pos := v.LookupPath(path).Pos()
		if !pos.IsValid() {
			return 0, 0
		}
		return pos.Line(), pos.Column()
	}

	return &f, locate, nil
}
