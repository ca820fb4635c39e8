package invoice

import "fmt"

// NotFoundError reports an unknown invoice id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("invoice %s not found", e.ID)
}

// InvalidTransitionError reports an action that is never eligible from the
// invoice's current status (e.g. VALIDATE from PAID). Distinct from
// GuardViolationError so callers can render "wrong state" differently from
// "guard violation".
type InvalidTransitionError struct {
	Status Status
	Action Action
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("action %s is not allowed from status %s", e.Action, e.Status)
}

// GuardViolationError reports an action that is statically eligible but
// blocked by a domain guard, e.g. validating a zero-amount invoice. Maps
// to a precondition-failed class, never a plain bad request.
type GuardViolationError struct {
	Action Action
	Reason string
}

func (e *GuardViolationError) Error() string {
	return fmt.Sprintf("action %s blocked by guard: %s", e.Action, e.Reason)
}

// StatusConflictError reports a conditional write that lost a race: the
// invoice exists but its status is no longer the one the transition was
// computed against. Callers should re-fetch and re-evaluate.
type StatusConflictError struct {
	ID       string
	Expected Status
}

func (e *StatusConflictError) Error() string {
	return fmt.Sprintf("invoice %s is no longer in status %s", e.ID, e.Expected)
}
