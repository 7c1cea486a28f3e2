package sessions

import "time"

// Phase represents the lifecycle of an export session.
type Phase string

const (
	PhasePreparing  Phase = "preparing"
	PhaseEncoding   Phase = "encoding"
	PhaseFinalizing Phase = "finalizing"
	PhaseCompleted  Phase = "completed"
	PhaseFailed     Phase = "failed"
)

var allPhases = []Phase{
	PhasePreparing,
	PhaseEncoding,
	PhaseFinalizing,
	PhaseCompleted,
	PhaseFailed,
}

var phaseSet = func() map[Phase]struct{} {
	set := make(map[Phase]struct{}, len(allPhases))
	for _, phase := range allPhases {
		set[phase] = struct{}{}
	}
	return set
}()

// Valid reports whether the phase is one of the known lifecycle values.
func (p Phase) Valid() bool {
	_, ok := phaseSet[p]
	return ok
}

// Terminal reports whether a session in this phase is finished.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// Session is one recorded export run.
type Session struct {
	ID              string
	TimelinePath    string
	Strategy        string
	Phase           Phase
	ProgressPercent float64
	ProgressMessage string
	OutputPath      string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}
