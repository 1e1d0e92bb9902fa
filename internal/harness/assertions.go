package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails. It carries the trace so
// the failure can be read against the key events that produced it.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", event.Seq, event)
		}
	}
	return buf.String()
}

func assertList(kind string, actual []string, a Assertion, trace []TraceEvent) error {
	if slices.Equal(actual, a.Values) || (len(actual) == 0 && len(a.Values) == 0) {
		return nil
	}
	return &AssertionError{
		Type:     kind,
		Expected: formatList(a.Values),
		Actual:   formatList(actual),
		Trace:    trace,
	}
}

func assertEmittedCount(result *Result, a Assertion) error {
	if len(result.Emitted) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertEmittedCount,
		Expected: fmt.Sprintf("%d outputs", a.Count),
		Actual:   fmt.Sprintf("%d outputs %s", len(result.Emitted), formatList(result.Emitted)),
		Trace:    result.Trace,
	}
}

func assertVariable(result *Result, a Assertion) error {
	actual, ok := result.Variables[a.Variable]
	if !ok {
		actual = "<unset>"
	}
	if actual == a.Value {
		return nil
	}
	return &AssertionError{
		Type:     AssertVariable,
		Expected: fmt.Sprintf("%s = %s", a.Variable, a.Value),
		Actual:   fmt.Sprintf("%s = %s", a.Variable, actual),
		Trace:    result.Trace,
	}
}

func assertIdle(result *Result) error {
	var busy []string
	for name, value := range result.Variables {
		if strings.Contains(name, ".seq.") && value != "idle" {
			busy = append(busy, name+"="+value)
		}
	}
	if len(busy) == 0 {
		return nil
	}
	slices.Sort(busy)
	return &AssertionError{
		Type:     AssertIdle,
		Expected: "every sequence state idle",
		Actual:   strings.Join(busy, ", "),
		Trace:    result.Trace,
	}
}

func formatList(values []string) string {
	return "[" + strings.Join(values, ", ") + "]"
}

// EvaluateAssertions checks every assertion against the result and returns the
// failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertEmitted:
			err = assertList(AssertEmitted, result.Emitted, a, result.Trace)
		case AssertEmittedCount:
			err = assertEmittedCount(result, a)
		case AssertPassed:
			err = assertList(AssertPassed, result.Passed, a, result.Trace)
		case AssertVariable:
			err = assertVariable(result, a)
		case AssertIdle:
			err = assertIdle(result)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}
