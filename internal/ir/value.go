package ir

import (
	"fmt"
	"strconv"
)

// IRValue is a sealed interface for target variable values.
// Only IRString, IRInt and IRBool implement it.
// NO floats - the target engine compares values exactly.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRString represents a string value (automaton states).
type IRString string

func (IRString) irValue() {}

// IRInt represents an integer value (hold flags).
type IRInt int64

func (IRInt) irValue() {}

// IRBool represents a boolean value.
type IRBool bool

func (IRBool) irValue() {}

// FormatValue renders v the way it appears in traces and CLI output.
func FormatValue(v IRValue) string {
	switch val := v.(type) {
	case nil:
		return "<unset>"
	case IRString:
		return string(val)
	case IRInt:
		return strconv.FormatInt(int64(val), 10)
	case IRBool:
		return strconv.FormatBool(bool(val))
	default:
		return fmt.Sprintf("%v", val)
	}
}

// ValueFromAny converts a decoded YAML/JSON scalar into an IRValue.
func ValueFromAny(v any) (IRValue, error) {
	switch val := v.(type) {
	case string:
		return IRString(val), nil
	case int:
		return IRInt(val), nil
	case int64:
		return IRInt(val), nil
	case bool:
		return IRBool(val), nil
	case IRValue:
		return val, nil
	case float64, float32:
		return nil, fmt.Errorf("floats are forbidden: %v", val)
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}
