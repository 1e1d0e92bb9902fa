package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/omnikeys/internal/config"
	"github.com/roach88/omnikeys/internal/ir"
)

// Scenario is a scripted keyboard session against a compiled config.
type Scenario struct {
	// Name identifies the scenario and names its golden trace.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Config is a config file path, relative to the scenario file.
	Config string `yaml:"config,omitempty"`

	// Inline is config source embedded in the scenario. Exactly one of Config
	// and Inline is set.
	Inline string `yaml:"inline,omitempty"`

	// Format of Inline; toml when empty.
	Format string `yaml:"format,omitempty"`

	// App is the frontmost application bundle identifier at the start.
	App string `yaml:"app,omitempty"`

	// TimeoutMS overrides the config's sequence timeout.
	TimeoutMS int `yaml:"timeout_ms,omitempty"`

	Events []Event `yaml:"events"`

	// Assertions are checked after the last event.
	Assertions []Assertion `yaml:"assertions"`
}

// Event is one scripted input. Exactly one of Tap, Press, Release, Wait and App
// is set. Modifiers only applies to Tap: the modifier keys are pressed before
// the key and released after it.
type Event struct {
	Tap       string   `yaml:"tap,omitempty"`
	Press     string   `yaml:"press,omitempty"`
	Release   string   `yaml:"release,omitempty"`
	Wait      int      `yaml:"wait,omitempty"`
	App       string   `yaml:"app,omitempty"`
	Modifiers []string `yaml:"modifiers,omitempty"`
}

// Assertion checks the simulator state after the scenario.
type Assertion struct {
	// Type is one of emitted, emitted_count, passed, variable, idle.
	Type string `yaml:"type"`

	// Values is the exact expected list (emitted, passed).
	Values []string `yaml:"values,omitempty"`

	// Count is the expected number of outputs (emitted_count).
	Count int `yaml:"count,omitempty"`

	// Variable and Value check one variable; "<unset>" matches a variable that
	// was never set.
	Variable string `yaml:"variable,omitempty"`
	Value    string `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertEmitted      = "emitted"
	AssertEmittedCount = "emitted_count"
	AssertPassed       = "passed"
	AssertVariable     = "variable"
	AssertIdle         = "idle"
)

// LoadScenario reads a scenario file, resolving Config relative to the
// file's directory. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario decodes scenario YAML. A relative Config path is joined to
// basePath.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if s.Config != "" && !filepath.IsAbs(s.Config) && basePath != "" {
		s.Config = filepath.Join(basePath, s.Config)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Config == "" && s.Inline == "":
		return fmt.Errorf("one of config or inline is required")
	case s.Config != "" && s.Inline != "":
		return fmt.Errorf("config and inline are mutually exclusive")
	}
	if s.Config != "" {
		if _, err := os.Stat(s.Config); os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %s", s.Config)
		}
	}
	if s.Format != "" {
		if _, err := config.ParseFormat(s.Format); err != nil {
			return err
		}
	}
	if s.TimeoutMS < 0 {
		return fmt.Errorf("timeout_ms must be positive")
	}

	if len(s.Events) == 0 {
		return fmt.Errorf("events list is required and must be non-empty")
	}
	for i, e := range s.Events {
		if err := validateEvent(i, &e); err != nil {
			return err
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateEvent(index int, e *Event) error {
	set := 0
	for _, present := range []bool{e.Tap != "", e.Press != "", e.Release != "", e.Wait != 0, e.App != ""} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("events[%d]: exactly one of tap, press, release, wait, app is required", index)
	}
	if e.Wait < 0 {
		return fmt.Errorf("events[%d]: wait must be positive", index)
	}
	if len(e.Modifiers) > 0 && e.Tap == "" {
		return fmt.Errorf("events[%d]: modifiers only apply to tap", index)
	}
	for _, m := range e.Modifiers {
		if _, ok := ir.ModifierForKey(ir.KeyCode(m)); !ok {
			return fmt.Errorf("events[%d]: %q is not a physical modifier key", index, m)
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertEmitted, AssertPassed, AssertIdle:
	case AssertEmittedCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for emitted_count", index)
		}
	case AssertVariable:
		if a.Variable == "" {
			return fmt.Errorf("assertions[%d]: variable is required for variable", index)
		}
		if a.Value == "" {
			return fmt.Errorf("assertions[%d]: value is required for variable", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// LoadScenarios loads every *.yaml and *.yml scenario in dir, in file name
// order. A directory without scenarios is an error.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files in %s", dir)
	}
	slices.Sort(paths)

	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		out = append(out, s)
	}
	return out, nil
}
