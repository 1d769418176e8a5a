// Package telemetry provides run statistics, bookmarking, CSV output and snapshots.
package telemetry

// Outcome is what happened to a cone's move proposal in one step.
type Outcome uint8

const (
	OutcomeStayed    Outcome = iota // no axis fired, or the cone is frozen
	OutcomeDiscarded                // candidate left the interior
	OutcomeAccepted
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStayed:
		return "stayed"
	case OutcomeDiscarded:
		return "discarded"
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejected:
		return "rejected"
	}
	return "unknown"
}

// Proposed reports whether the outcome followed an evaluated candidate.
func (o Outcome) Proposed() bool {
	return o == OutcomeAccepted || o == OutcomeRejected
}
