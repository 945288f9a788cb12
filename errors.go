package plsbb

import "errors"

// Sentinel errors, in the teacher's ilp.go style (INITIAL_RELAXATION_NOT_FEASIBLE,
// NO_INTEGER_FEASIBLE_SOLUTION), adapted to this domain's error kinds
// (spec.md §7).
var (
	// ErrInvalidProblem is returned when the problem tag, breakpoint
	// shapes, or jump_at_zero usage is structurally invalid. Fatal and
	// caller-visible: the caller made a mistake building the Problem.
	ErrInvalidProblem = errors.New("plsbb: invalid problem definition")

	// ErrInfeasibleRoot is returned when the root LP relaxation has no
	// feasible solution. Callers that generate random instances should
	// treat this as "discard and regenerate", per spec.md §7.
	ErrInfeasibleRoot = errors.New("plsbb: root relaxation is infeasible")

	// ErrResourceExhaustion is returned when the watchdog (C8) aborts
	// the solve due to memory pressure.
	ErrResourceExhaustion = errors.New("plsbb: aborted by resource watchdog")
)

// TerminationReason records why Solve stopped looping, independent of
// whether an error was also returned (Timeout is not an error: spec.md
// §7 says its bounds are returned as-is).
type TerminationReason int

const (
	TerminationOptimal TerminationReason = iota
	TerminationTimeout
	TerminationInfeasible
	TerminationResourceExhaustion
)

func (t TerminationReason) String() string {
	switch t {
	case TerminationOptimal:
		return "optimal"
	case TerminationTimeout:
		return "timeout"
	case TerminationInfeasible:
		return "infeasible"
	case TerminationResourceExhaustion:
		return "resource_exhaustion"
	default:
		return "unknown"
	}
}
