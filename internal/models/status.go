package models

// ReviewStatus is the tri-state lifecycle shared by every approvable entity.
type ReviewStatus string

const (
	StatusPending  ReviewStatus = "PENDING"
	StatusApproved ReviewStatus = "APPROVED"
	StatusRejected ReviewStatus = "REJECTED"
)

// Valid reports whether the status is a known value.
func (s ReviewStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether the status can no longer change.
func (s ReviewStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransition enforces the single transition rule: only a pending entity
// may move, and only to a terminal state.
func (s ReviewStatus) CanTransition(to ReviewStatus) bool {
	return s == StatusPending && to.Terminal()
}

// Decision names a moderation outcome supplied by a reviewer.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// Status maps the decision onto the resulting review status.
func (d Decision) Status() ReviewStatus {
	if d == DecisionApprove {
		return StatusApproved
	}
	return StatusRejected
}

// Valid reports whether the decision is a known value.
func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}
