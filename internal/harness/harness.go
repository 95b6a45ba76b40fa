package harness

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/roach88/contentpipe/internal/buildcache"
	"github.com/roach88/contentpipe/internal/logging"
	"github.com/roach88/contentpipe/internal/pipeline"
	"github.com/roach88/contentpipe/internal/project"
	"github.com/roach88/contentpipe/internal/testutil"
)

// Harness runs scenarios with a deterministic clock.
type Harness struct {
	clock  *testutil.StepClock
	logger *log.Logger
}

// New creates a harness. A nil logger discards.
func New(logger *log.Logger) *Harness {
	return &Harness{clock: testutil.NewStepClock(), logger: logging.OrDiscard(logger)}
}

// Run executes s in dir, which should be empty, and returns the result.
// The returned error is reserved for failures of the harness itself;
// unmet expectations are recorded in the result.
func Run(ctx context.Context, s *Scenario, dir string) (*Result, error) {
	return New(nil).Run(ctx, s, dir)
}

// Run executes s in dir.
func (h *Harness) Run(ctx context.Context, s *Scenario, dir string) (*Result, error) {
	h.clock.Reset()
	res := NewResult()

	files := map[string]string{}
	if s.Fixture == FixtureLit {
		files = testutil.LitFiles()
	}
	maps.Copy(files, s.Files)
	if err := writeFiles(dir, files); err != nil {
		return nil, err
	}

	for i, step := range s.Steps {
		if err := writeFiles(dir, step.Write); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		for _, name := range step.Remove {
			if err := os.Remove(filepath.Join(dir, filepath.FromSlash(name))); err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("steps[%d]: %w", i, err)
			}
		}
		if step.Build == "" {
			continue
		}

		sr, err := h.build(ctx, dir, step.Build)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		res.Steps = append(res.Steps, *sr)
		checkStep(res, i, step, sr)
	}

	p, err := project.Load(dir)
	if err != nil {
		return nil, err
	}
	if res.Module, err = pipeline.OpenModule(ctx, p); err != nil {
		return nil, err
	}
	ledger, err := buildcache.New(res.Module, "", h.logger)
	if err != nil {
		return nil, err
	}
	res.Markers = ledger.Markers()

	for i, a := range s.Assertions {
		if err := evaluate(res, a); err != nil {
			res.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return res, nil
}

func (h *Harness) build(ctx context.Context, dir, buildID string) (*StepResult, error) {
	p, err := project.Load(dir)
	if err != nil {
		return nil, err
	}
	b, err := pipeline.New(
		pipeline.WithBuildID(buildID),
		pipeline.WithClock(h.clock.Now),
		pipeline.WithLogger(h.logger),
	)
	if err != nil {
		return nil, err
	}
	r, err := b.Build(ctx, p)
	if err != nil {
		return nil, err
	}
	return &StepResult{
		BuildID:  r.BuildID,
		Assets:   r.Assets,
		Messages: r.Messages,
		Retired:  r.Retired,
		Purged:   r.Purged,
	}, nil
}

// checkStep compares a step's build against its expectations.
func checkStep(res *Result, i int, step Step, sr *StepResult) {
	statuses := map[string]string{}
	var removed []string
	for _, a := range sr.Assets {
		statuses[a.BuildFile] = string(a.Status)
		removed = append(removed, a.Removed...)
	}
	for _, file := range slices.Sorted(maps.Keys(step.Expect)) {
		want := step.Expect[file]
		got, ok := statuses[file]
		if !ok {
			got = "absent"
		}
		if got != want {
			res.AddError(fmt.Sprintf("steps[%d] (%s): %s: expected %s, got %s", i, step.Build, file, want, got))
		}
	}
	if step.Removed != nil && !sameSet(step.Removed, removed) {
		res.AddError(fmt.Sprintf("steps[%d] (%s): removed %v, expected %v", i, step.Build, removed, step.Removed))
	}
	if step.Retired != nil && !sameSet(step.Retired, sr.Retired) {
		res.AddError(fmt.Sprintf("steps[%d] (%s): retired %v, expected %v", i, step.Build, sr.Retired, step.Retired))
	}
}

func sameSet(a, b []string) bool {
	a, b = slices.Clone(a), slices.Clone(b)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}

func writeFiles(root string, files map[string]string) error {
	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return err
		}
	}
	return nil
}
