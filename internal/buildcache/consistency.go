package buildcache

// State classifies the build ids recorded for one build-file.
type State int

const (
	// Unknown means the build-file had no markers when the ledger loaded.
	Unknown State = iota
	// Consistent means every marker carried the same build id.
	Consistent
	// Inconsistent means at least two build ids were seen.
	Inconsistent
)

func (s State) String() string {
	switch s {
	case Consistent:
		return "consistent"
	case Inconsistent:
		return "inconsistent"
	default:
		return "unknown"
	}
}

// Consistency is the load-time build id state of a build-file. BuildID is
// set only when State is Consistent.
type Consistency struct {
	State   State
	BuildID string
}

// Consistency reports the state derived when the ledger was bootstrapped.
// Later upserts do not change it: it describes the previous build.
func (l *Ledger) Consistency(buildFile string) Consistency {
	return l.state[buildFile]
}

// PreviousBuildID returns the single build id of buildFile's markers at
// load time, and false when there was none or they disagreed.
func (l *Ledger) PreviousBuildID(buildFile string) (string, bool) {
	c := l.state[buildFile]
	return c.BuildID, c.State == Consistent
}
