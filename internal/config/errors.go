package config

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Config error codes (E300-E399)
const (
	CodeReadFailed         = "E301" // file could not be read
	CodeDecodeFailed       = "E302" // malformed TOML/YAML/CUE
	CodeUnknownField       = "E303" // key not part of the schema
	CodeInvalidRule        = "E304" // rule trigger/emit rejected
	CodeInvalidAlias       = "E305" // alias table rejected
	CodeUnsupportedVersion = "E306" // schema version newer than supported
	CodeUnknownFormat      = "E307" // extension not recognized
	CodeInvalidScope       = "E308" // when block without applications
	CodeInvalidPattern     = "E309" // application pattern is not a valid regexp
)

// LoadError is a config failure with an optional source position.
type LoadError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

func (e *LoadError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Column, e.Code, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("%s:%d: %s: %s", e.File, e.Line, e.Code, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// at attaches a CUE position when one is known.
func (e *LoadError) at(pos token.Pos) *LoadError {
	if pos.IsValid() {
		e.File = pos.Filename()
		e.Line = pos.Line()
		e.Column = pos.Column()
	}
	return e
}

// fromCUE converts the first CUE error to a LoadError with its position.
func fromCUE(err error, file string) *LoadError {
	le := &LoadError{Code: CodeDecodeFailed, Message: err.Error(), File: file}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return le
	}
	first := errs[0]
	le.Message = first.Error()
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.at(positions[0])
	}
	return le
}

// LoadErrors returns every LoadError carried by err.
func LoadErrors(err error) []*LoadError {
	var out []*LoadError
	var le *LoadError
	if errors.As(err, &le) {
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				out = append(out, LoadErrors(e)...)
			}
			return out
		}
		return []*LoadError{le}
	}
	return nil
}
