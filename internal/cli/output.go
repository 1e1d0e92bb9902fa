package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/omnikeys/internal/compiler"
	"github.com/roach88/omnikeys/internal/config"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Config rejected or scenario failed
	ExitCommandError = 2 // Command error (unreadable input, bad flags, database unavailable)
)

// CLI error codes (E001-E099). Config (E3xx) and compile (E2xx) codes pass
// through unchanged.
const (
	ErrCodeGeneric        = "E001"
	ErrCodeNoInput        = "E002" // no config path and stdin is a terminal
	ErrCodeReadFailed     = "E003"
	ErrCodeNotFound       = "E005"
	ErrCodeRenderFailed   = "E006" // emitter or schema validation rejected output
	ErrCodeWriteFailed    = "E007"
	ErrCodeHistory        = "E008" // build history database failure
	ErrCodeScenarioFailed = "E009"
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // verbose and diagnostic output; falls back to Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope every command writes in json format.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Diagnostic is one config or compile problem, tied to a rule or a position
// when one is known.
type Diagnostic struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Rule    string `json:"rule,omitempty"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// String renders the diagnostic for text output.
func (d Diagnostic) String() string {
	loc := ""
	switch {
	case d.Line > 0 && d.Column > 0:
		loc = fmt.Sprintf("%s:%d:%d: ", d.File, d.Line, d.Column)
	case d.Line > 0:
		loc = fmt.Sprintf("%s:%d: ", d.File, d.Line)
	case d.File != "":
		loc = d.File + ": "
	}
	if d.Rule != "" {
		return fmt.Sprintf("%s%s: %s: %s", loc, d.Code, d.Rule, d.Message)
	}
	return fmt.Sprintf("%s%s: %s", loc, d.Code, d.Message)
}

// Diagnostics flattens config and compile errors into diagnostics. Any other
// error becomes a single generic diagnostic.
func Diagnostics(err error) []Diagnostic {
	if err == nil {
		return nil
	}
	if les := config.LoadErrors(err); len(les) > 0 {
		out := make([]Diagnostic, len(les))
		for i, le := range les {
			out[i] = Diagnostic{Code: le.Code, Message: le.Message, File: le.File, Line: le.Line, Column: le.Column}
		}
		return out
	}
	var ces compiler.Errors
	if errors.As(err, &ces) {
		out := make([]Diagnostic, len(ces))
		for i, ce := range ces {
			out[i] = Diagnostic{Code: ce.Code, Message: ce.Message, Rule: ce.Rule}
		}
		return out
	}
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		return []Diagnostic{{Code: ce.Code, Message: ce.Message, Rule: ce.Rule}}
	}
	return []Diagnostic{{Code: ErrCodeGeneric, Message: err.Error()}}
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Diagnostics reports a rejected config. The JSON envelope carries the first
// diagnostic as its error and all of them in data.
func (f *OutputFormatter) Diagnostics(headline string, diags []Diagnostic) error {
	if len(diags) == 0 {
		return nil
	}
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Data:   diags,
			Error:  &CLIError{Code: diags[0].Code, Message: diags[0].Message},
		})
	}

	fmt.Fprintf(f.Writer, "✗ %s\n\n", headline)
	for _, d := range diags {
		fmt.Fprintf(f.Writer, "  %s\n", d)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled. It writes to
// ErrWriter so JSON on Writer stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
