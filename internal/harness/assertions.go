package harness

import (
	"fmt"
	"strings"
)

// AssertionError describes a failed assertion.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

func evaluate(res *Result, a Assertion) error {
	switch a.Type {
	case AssertHasType:
		if !res.Module.HasType(a.Name) {
			return &AssertionError{Type: a.Type, Expected: a.Name, Actual: "no such type"}
		}
	case AssertNoType:
		if res.Module.HasType(a.Name) {
			return &AssertionError{Type: a.Type, Expected: "no type " + a.Name, Actual: "type present"}
		}
	case AssertMarkers:
		return assertMarkers(res, a)
	case AssertMessage:
		return assertMessage(res, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func assertMarkers(res *Result, a Assertion) error {
	if a.Count != nil && len(res.Markers) != *a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d markers", *a.Count),
			Actual:   fmt.Sprintf("%d markers", len(res.Markers)),
		}
	}
	if a.BuildID == "" {
		return nil
	}
	for _, m := range res.Markers {
		if m.BuildID != a.BuildID {
			return &AssertionError{
				Type:     a.Type,
				Expected: "every marker from build " + a.BuildID,
				Actual:   fmt.Sprintf("%s on %s from build %s", m.TypeName, m.BuildFile, m.BuildID),
			}
		}
	}
	return nil
}

func assertMessage(res *Result, a Assertion) error {
	for _, m := range res.Messages() {
		if m.Severity.String() != a.Severity {
			continue
		}
		if a.File != "" && m.File != a.File {
			continue
		}
		if a.Contains != "" && !strings.Contains(m.Text, a.Contains) {
			continue
		}
		return nil
	}
	want := a.Severity + " message"
	if a.File != "" {
		want += " for " + a.File
	}
	if a.Contains != "" {
		want += fmt.Sprintf(" containing %q", a.Contains)
	}
	return &AssertionError{Type: a.Type, Expected: want, Actual: fmt.Sprintf("%d messages, none matching", len(res.Messages()))}
}
