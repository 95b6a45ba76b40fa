package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// BuildIDGenerator produces build ids. Implemented by UUIDv7Generator in
// production and by fixed generators in tests.
type BuildIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 build ids in their
// hyphenated textual form.
type UUIDv7Generator struct{}

// Generate panics if the random source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Clock returns the current time. Tests pin it.
type Clock func() time.Time
