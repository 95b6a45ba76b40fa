package harness

import (
	"github.com/roach88/contentpipe/internal/buildcache"
	"github.com/roach88/contentpipe/internal/module"
	"github.com/roach88/contentpipe/internal/pipeline"
)

// StepResult is what one building step produced.
type StepResult struct {
	BuildID  string
	Assets   []pipeline.AssetResult
	Messages []pipeline.Message
	Retired  []string
	Purged   []buildcache.Marker
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool

	Steps []StepResult

	// Errors lists the failed expectations and assertions.
	Errors []string

	// Markers and Module are the ledger and host module after the last
	// step.
	Markers []buildcache.Marker
	Module  *module.Module
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Messages returns the messages of every step in order.
func (r *Result) Messages() []pipeline.Message {
	var all []pipeline.Message
	for _, s := range r.Steps {
		all = append(all, s.Messages...)
	}
	return all
}
