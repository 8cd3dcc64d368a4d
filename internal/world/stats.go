package world

// Stats describes the most recent step. Recoverable conditions are counted
// here rather than returned as errors.
type Stats struct {
	Step          uint64
	Bodies        int
	Active        int
	Sleeping      int
	Islands       int
	ActiveIslands int
	Contacts      int
	Joints        int

	// Degenerate counts contacts and joints skipped by the solver.
	Degenerate int
	// MissingBodies counts joints dropped because a body was removed.
	MissingBodies int
	// Swept counts bodies clamped by the continuous collision guard.
	Swept int
	// Clamped counts bodies whose velocity was non-finite or above
	// MaxSpeed.
	Clamped int
	// Slept counts islands put to sleep at the end of the step.
	Slept int

	MaxPenetration float64
}
