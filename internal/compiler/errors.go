package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// Compile error codes (E200-E299)
const (
	CodeAmbiguousPrefix    = "E201" // one sequence path is a strict prefix of another
	CodeConflictingMapping = "E202" // same transition bound to different actions
	CodeUnresolvedLeader   = "E203" // two-key chord without a known leader
	CodeUnsupportedTrigger = "E204" // trigger or action shape not supported
	CodeEmptyTrigger       = "E205" // rule has no steps
	CodeEmptyStep          = "E206" // step has no keys
)

// Sentinel kinds; match with errors.Is.
var (
	ErrAmbiguousPrefix    = errors.New("ambiguous prefix")
	ErrConflictingMapping = errors.New("conflicting mapping")
	ErrUnresolvedLeader   = errors.New("unresolved leader")
	ErrUnsupportedTrigger = errors.New("unsupported trigger")
	ErrEmptyTrigger       = errors.New("empty trigger")
	ErrEmptyStep          = errors.New("empty step")
)

var kindCodes = map[error]string{
	ErrAmbiguousPrefix:    CodeAmbiguousPrefix,
	ErrConflictingMapping: CodeConflictingMapping,
	ErrUnresolvedLeader:   CodeUnresolvedLeader,
	ErrUnsupportedTrigger: CodeUnsupportedTrigger,
	ErrEmptyTrigger:       CodeEmptyTrigger,
	ErrEmptyStep:          CodeEmptyStep,
}

// CompileError is a single validation failure tied to a rule.
type CompileError struct {
	Code    string `json:"code"`
	Kind    error  `json:"-"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func newError(kind error, rule, format string, args ...any) *CompileError {
	return &CompileError{
		Code:    kindCodes[kind],
		Kind:    kind,
		Rule:    rule,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("[%s] %s: %s: %s", e.Code, e.Rule, e.Kind, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Kind, e.Message)
}

// Unwrap returns the sentinel kind.
func (e *CompileError) Unwrap() error {
	return e.Kind
}

// Errors collects every failure found in one compile pass.
type Errors []*CompileError

// Error implements the error interface.
func (errs Errors) Error() string {
	switch len(errs) {
	case 0:
		return "no errors"
	case 1:
		return errs[0].Error()
	}
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.Error()
	}
	return fmt.Sprintf("%d errors:\n  %s", len(errs), strings.Join(lines, "\n  "))
}

// Unwrap exposes each error to errors.Is and errors.As.
func (errs Errors) Unwrap() []error {
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return out
}

// Has reports whether any collected error is of the given kind.
func (errs Errors) Has(kind error) bool {
	for _, e := range errs {
		if errors.Is(e, kind) {
			return true
		}
	}
	return false
}

// err returns nil for an empty list so callers can return it directly.
func (errs Errors) err() error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}
