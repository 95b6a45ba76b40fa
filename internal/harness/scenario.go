package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one build scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Fixture seeds the project directory. Empty or "lit".
	Fixture string `yaml:"fixture,omitempty"`

	// Files are written over the fixture before the first step.
	// Keys are slash-separated paths relative to the project root.
	Files map[string]string `yaml:"files,omitempty"`

	Steps []Step `yaml:"steps"`

	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step changes files and optionally builds.
type Step struct {
	Write  map[string]string `yaml:"write,omitempty"`
	Remove []string          `yaml:"remove,omitempty"`

	// Build is the build id to build with. Empty means no build.
	Build string `yaml:"build,omitempty"`

	// Expect maps build-files to their expected status.
	Expect map[string]string `yaml:"expect,omitempty"`

	// Removed lists the orphaned types the build must remove, in any
	// order, across all assets.
	Removed []string `yaml:"removed,omitempty"`

	// Retired lists the types the build must retire.
	Retired []string `yaml:"retired,omitempty"`
}

// Assertion checks the state after the last step.
type Assertion struct {
	Type string `yaml:"type"`

	// Name is the type full name (has_type, no_type).
	Name string `yaml:"name,omitempty"`

	// Count and BuildID constrain the markers (markers). A nil Count
	// accepts any number.
	Count   *int   `yaml:"count,omitempty"`
	BuildID string `yaml:"build_id,omitempty"`

	// Severity, File and Contains select a message (message).
	Severity string `yaml:"severity,omitempty"`
	File     string `yaml:"file,omitempty"`
	Contains string `yaml:"contains,omitempty"`
}

// Assertion type constants.
const (
	AssertHasType = "has_type"
	AssertNoType  = "no_type"
	AssertMarkers = "markers"
	AssertMessage = "message"
)

// FixtureLit names the lit project fixture.
const FixtureLit = "lit"

var validStatuses = map[string]bool{"built": true, "skipped": true, "failed": true, "ignored": true}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Fixture != "" && s.Fixture != FixtureLit {
		return fmt.Errorf("unknown fixture %q", s.Fixture)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	builds := map[string]bool{}
	for i, step := range s.Steps {
		if step.Build == "" {
			if len(step.Expect) > 0 || len(step.Removed) > 0 || len(step.Retired) > 0 {
				return fmt.Errorf("steps[%d]: expectations need a build", i)
			}
			if len(step.Write) == 0 && len(step.Remove) == 0 {
				return fmt.Errorf("steps[%d]: step does nothing", i)
			}
			continue
		}
		if builds[step.Build] {
			return fmt.Errorf("steps[%d]: build id %q used twice", i, step.Build)
		}
		builds[step.Build] = true
		for file, status := range step.Expect {
			if !validStatuses[status] {
				return fmt.Errorf("steps[%d].expect[%s]: unknown status %q", i, file, status)
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertHasType, AssertNoType:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for %s", index, a.Type)
		}
	case AssertMarkers:
		if a.Count != nil && *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for markers", index)
		}
	case AssertMessage:
		switch a.Severity {
		case "error", "warning", "info", "none":
		default:
			return fmt.Errorf("assertions[%d]: severity must be error, warning, info or none for message", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
