package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *Result {
	r := NewResult()
	r.Trace = []TraceEvent{
		{Seq: 1, Type: EventPress, Detail: "f18"},
		{Seq: 2, Type: EventSet, Detail: "omni.seq.f18=seq:f18"},
	}
	r.Emitted = []string{"command+1", "shell true"}
	r.Passed = []string{"q"}
	r.Variables = map[string]string{
		"omni.seq.f18":  "seq:f18",
		"omni.hold.f18": "0",
		"omni.seq.f19":  "idle",
	}
	return r
}

func TestEvaluateAssertionsPass(t *testing.T) {
	errs := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertEmitted, Values: []string{"command+1", "shell true"}},
		{Type: AssertEmittedCount, Count: 2},
		{Type: AssertPassed, Values: []string{"q"}},
		{Type: AssertVariable, Variable: "omni.hold.f18", Value: "0"},
		{Type: AssertVariable, Variable: "omni.seq.f20", Value: "<unset>"},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertionsFailures(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{"emitted order", Assertion{Type: AssertEmitted, Values: []string{"shell true", "command+1"}}, "Actual: [command+1, shell true]"},
		{"emitted count", Assertion{Type: AssertEmittedCount, Count: 1}, "Actual: 2 outputs"},
		{"passed", Assertion{Type: AssertPassed}, "Expected: []"},
		{"variable", Assertion{Type: AssertVariable, Variable: "omni.seq.f18", Value: "idle"}, "Actual: omni.seq.f18 = seq:f18"},
		{"idle", Assertion{Type: AssertIdle}, "Actual: omni.seq.f18=seq:f18"},
		{"unknown", Assertion{Type: "bogus"}, `unknown assertion type "bogus"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion})
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.want)
		})
	}
}

func TestAssertionErrorIncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertIdle,
		Expected: "every sequence state idle",
		Actual:   "omni.seq.f18=seq:f18",
		Trace:    sampleResult().Trace,
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: idle")
	assert.Contains(t, msg, "[1] t=0 press f18")
	assert.Contains(t, msg, "[2] t=0 set omni.seq.f18=seq:f18")
}

func TestEmptyListsCompareEqual(t *testing.T) {
	r := NewResult()
	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertEmitted},
		{Type: AssertPassed, Values: []string{}},
		{Type: AssertIdle},
	})
	assert.Empty(t, errs)
}
