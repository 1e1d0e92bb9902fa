package harness

import (
	"fmt"
	"strings"
)

// Trace event types.
const (
	EventPress   = "press"
	EventRelease = "release"
	EventWait    = "wait"
	EventApp     = "app"
	EventPass    = "pass"
	EventSet     = "set"
	EventEmit    = "emit"
	EventShell   = "shell"
	EventTimeout = "timeout"
)

// TraceEvent is one entry of the simulator log.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	At     int64  `json:"at_ms"`
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

// String renders the event as "t=<ms> <type> <detail>".
func (e TraceEvent) String() string {
	return fmt.Sprintf("t=%d %s %s", e.At, e.Type, e.Detail)
}

// FormatTrace renders one event per line.
func FormatTrace(trace []TraceEvent) string {
	var b strings.Builder
	for _, e := range trace {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	Trace []TraceEvent `json:"trace"`

	// Emitted lists action outputs in order.
	Emitted []string `json:"emitted"`

	// Passed lists keys that matched no production.
	Passed []string `json:"passed"`

	// Variables holds the final value of every variable that was set.
	Variables map[string]string `json:"variables"`

	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Trace:     []TraceEvent{},
		Emitted:   []string{},
		Passed:    []string{},
		Variables: make(map[string]string),
	}
}

// AddError records an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
