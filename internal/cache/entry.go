package cache

import "time"

// Entry records the last successful build of one build-file.
type Entry struct {
	// Hash covers the source content, its dependencies, the processor
	// parameters and the pipeline version.
	Hash string `json:"hash"`

	// BuildFile is the project-relative build-file path.
	BuildFile string `json:"build_file"`

	// BuildID is the build that produced the cached result.
	BuildID string `json:"build_id"`

	// Types lists the full names of the generated types.
	Types []string `json:"types"`

	// Output is the content file written for the asset, relative to the
	// output directory.
	Output string `json:"output"`

	Timestamp time.Time `json:"timestamp"`
}
