package raymarch

import "fmt"

// StageState is the lifecycle of one stage (CPU script or GPU shader).
//
//	Idle -> Compiling -> Healthy | Faulted
//	Healthy -> Faulted
//
// Faulted is left only by setting new code, which returns to Compiling.
type StageState int

const (
	StageIdle StageState = iota
	StageCompiling
	StageHealthy
	StageFaulted
)

func (s StageState) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageCompiling:
		return "compiling"
	case StageHealthy:
		return "healthy"
	case StageFaulted:
		return "faulted"
	default:
		return fmt.Sprintf("StageState(%d)", int(s))
	}
}
