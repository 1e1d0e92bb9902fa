package karabiner

import "encoding/json"

// Asset is an importable complex-modifications file.
type Asset struct {
	Title string `json:"title"`
	Rules []Rule `json:"rules"`
}

// Rule is one entry of a complex-modifications rule list.
type Rule struct {
	Description  string        `json:"description"`
	Manipulators []Manipulator `json:"manipulators"`
}

// Manipulator is a basic manipulator.
type Manipulator struct {
	Type            string         `json:"type"`
	From            From           `json:"from"`
	To              []ToEvent      `json:"to,omitempty"`
	ToAfterKeyUp    []ToEvent      `json:"to_after_key_up,omitempty"`
	ToIfAlone       []ToEvent      `json:"to_if_alone,omitempty"`
	ToDelayedAction *DelayedAction `json:"to_delayed_action,omitempty"`
	Conditions      []Condition    `json:"conditions,omitempty"`
	Parameters      map[string]int `json:"parameters,omitempty"`
}

// From is the event a manipulator matches.
type From struct {
	KeyCode   string         `json:"key_code,omitempty"`
	Any       string         `json:"any,omitempty"`
	Modifiers *FromModifiers `json:"modifiers,omitempty"`
}

type FromModifiers struct {
	Mandatory []string `json:"mandatory,omitempty"`
	Optional  []string `json:"optional,omitempty"`
}

// ToEvent is one output event.
type ToEvent struct {
	KeyCode      string    `json:"key_code,omitempty"`
	Modifiers    []string  `json:"modifiers,omitempty"`
	ShellCommand string    `json:"shell_command,omitempty"`
	SetVariable  *Variable `json:"set_variable,omitempty"`
}

type Variable struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type DelayedAction struct {
	ToIfInvoked  []ToEvent `json:"to_if_invoked,omitempty"`
	ToIfCanceled []ToEvent `json:"to_if_canceled,omitempty"`
}

// Condition types.
const (
	ConditionVariable    = "variable_if"
	ConditionApplication = "frontmost_application_if"
)

// Condition gates a manipulator. Variable conditions use Name and Value;
// application conditions use BundleIdentifiers.
type Condition struct {
	Type              string
	Name              string
	Value             any
	BundleIdentifiers []string
}

// MarshalJSON writes only the fields of the condition's type. A variable
// value of 0 or false must still be written.
func (c Condition) MarshalJSON() ([]byte, error) {
	if c.Type == ConditionApplication {
		return json.Marshal(struct {
			Type              string   `json:"type"`
			BundleIdentifiers []string `json:"bundle_identifiers"`
		}{c.Type, c.BundleIdentifiers})
	}
	return json.Marshal(struct {
		Type  string `json:"type"`
		Name  string `json:"name"`
		Value any    `json:"value"`
	}{c.Type, c.Name, c.Value})
}

// UnmarshalJSON reads either condition shape.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type              string   `json:"type"`
		Name              string   `json:"name"`
		Value             any      `json:"value"`
		BundleIdentifiers []string `json:"bundle_identifiers"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Condition{Type: raw.Type, Name: raw.Name, Value: raw.Value, BundleIdentifiers: raw.BundleIdentifiers}
	return nil
}
