package models

import "fmt"

// Phase represents a feature's position in the spec-driven workflow.
type Phase string

const (
	PhaseNew       Phase = "new"
	PhaseSpec      Phase = "spec"
	PhasePlan      Phase = "plan"
	PhaseTasks     Phase = "tasks"
	PhaseImplement Phase = "implement"
	PhaseReview    Phase = "review"
	PhaseComplete  Phase = "complete"
)

// OrderedPhases lists all phases in their natural progression order.
// A feature moves through this list one step at a time and never backward.
var OrderedPhases = []Phase{
	PhaseNew,
	PhaseSpec,
	PhasePlan,
	PhaseTasks,
	PhaseImplement,
	PhaseReview,
	PhaseComplete,
}

// PhaseIndex returns the position of p in the progression order,
// or -1 when p is not a known phase.
func PhaseIndex(p Phase) int {
	for i, phase := range OrderedPhases {
		if phase == p {
			return i
		}
	}
	return -1
}

// IsValidPhase reports whether p is one of the known workflow phases.
func IsValidPhase(p Phase) bool {
	return PhaseIndex(p) >= 0
}

// CanAdvance reports whether a feature may move from one phase to another.
// Staying on the current phase is allowed; the only other permitted move
// is to the immediate next phase. Skipping ahead and moving backward are
// both rejected, as is any unknown phase on either side.
func CanAdvance(from, to Phase) bool {
	fromIdx := PhaseIndex(from)
	toIdx := PhaseIndex(to)
	if fromIdx < 0 || toIdx < 0 {
		return false
	}
	return toIdx == fromIdx || toIdx == fromIdx+1
}

// NextPhase returns the phase after p in the progression order.
// The second return value is false when p is the final phase or unknown.
func NextPhase(p Phase) (Phase, bool) {
	idx := PhaseIndex(p)
	if idx < 0 || idx >= len(OrderedPhases)-1 {
		return "", false
	}
	return OrderedPhases[idx+1], true
}

// ParsePhase converts a string into a Phase, rejecting unknown values.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if !IsValidPhase(p) {
		return "", fmt.Errorf("unknown phase %q (valid: new, spec, plan, tasks, implement, review, complete)", s)
	}
	return p, nil
}
