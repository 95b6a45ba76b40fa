package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/contentpipe/internal/ir"
)

// snapshot converts a result to the map its golden form is marshalled
// from. ir.MarshalCanonical only takes plain maps, slices and scalars.
func snapshot(name string, res *Result) map[string]any {
	steps := make([]any, len(res.Steps))
	for i, s := range res.Steps {
		assets := make([]any, len(s.Assets))
		for j, a := range s.Assets {
			am := map[string]any{"file": a.BuildFile, "status": string(a.Status)}
			if len(a.Types) > 0 {
				am["types"] = anyStrings(a.Types)
			}
			if len(a.Removed) > 0 {
				am["removed"] = anyStrings(a.Removed)
			}
			assets[j] = am
		}
		sm := map[string]any{"build_id": s.BuildID, "assets": assets}
		if len(s.Messages) > 0 {
			msgs := make([]any, len(s.Messages))
			for j, m := range s.Messages {
				msgs[j] = map[string]any{"file": m.File, "severity": m.Severity.String()}
			}
			sm["messages"] = msgs
		}
		if len(s.Retired) > 0 {
			sm["retired"] = anyStrings(s.Retired)
		}
		if len(s.Purged) > 0 {
			purged := make([]string, len(s.Purged))
			for j, m := range s.Purged {
				purged[j] = m.TypeName
			}
			sm["purged"] = anyStrings(purged)
		}
		steps[i] = sm
	}

	markers := make([]any, len(res.Markers))
	for i, m := range res.Markers {
		markers[i] = map[string]any{"build_id": m.BuildID, "file": m.BuildFile, "type": m.TypeName}
	}

	return map[string]any{
		"scenario": name,
		"steps":    steps,
		"markers":  markers,
	}
}

func anyStrings(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// RunWithGolden runs scenario in a temp directory, fails t on unmet
// expectations and compares the snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	res, err := Run(context.Background(), scenario, t.TempDir())
	if err != nil {
		return nil, err
	}
	for _, e := range res.Errors {
		t.Error(e)
	}
	if err := AssertGolden(t, scenario.Name, res); err != nil {
		return res, err
	}
	return res, nil
}

// AssertGolden compares an existing result against the golden file for
// name.
func AssertGolden(t *testing.T, name string, res *Result) error {
	t.Helper()

	data, err := ir.MarshalCanonical(snapshot(name, res))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
