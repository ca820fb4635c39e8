package invoice

// The lifecycle is a linear happy path with two terminal escapes:
//
//	DRAFT → VALIDATED → TRANSMITTED → PAID
//	DRAFT, VALIDATED → REJECTED
//
// PAID and REJECTED are terminal. Eligibility is a pure lookup table;
// business guards are layered on top as a separate predicate so the two
// failure kinds stay distinguishable.
var eligibleActions = map[Status][]Action{
	StatusDraft:       {ActionValidate, ActionReject},
	StatusValidated:   {ActionTransmit, ActionReject},
	StatusTransmitted: {ActionMarkPaid},
	StatusPaid:        {},
	StatusRejected:    {},
}

var actionTarget = map[Action]Status{
	ActionValidate: StatusValidated,
	ActionTransmit: StatusTransmitted,
	ActionMarkPaid: StatusPaid,
	ActionReject:   StatusRejected,
}

// StaticallyEligible reports whether action appears in the transition
// table for status, ignoring guards.
func StaticallyEligible(status Status, action Action) bool {
	for _, a := range eligibleActions[status] {
		if a == action {
			return true
		}
	}
	return false
}

// guardReason returns a non-empty reason when a domain guard blocks the
// action for the given invoice summary. Pure; re-evaluated on every query.
func guardReason(action Action, summary Summary) string {
	if action == ActionValidate {
		if len(summary.Acts) == 0 {
			return "invoice has no acts"
		}
		if summary.TotalAmount == 0 {
			return "invoice total amount is zero"
		}
	}
	return ""
}

// AvailableActions returns the actions currently permitted for status, in
// table order. When a summary is supplied, guarded actions are filtered
// out: an invoice with no billable content can be rejected but never
// validated.
func AvailableActions(status Status, summary *Summary) []Action {
	eligible := eligibleActions[status]
	out := make([]Action, 0, len(eligible))
	for _, a := range eligible {
		if summary != nil && guardReason(a, *summary) != "" {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Resolve validates a single transition and returns the target status.
// A never-eligible action yields InvalidTransitionError; an eligible but
// guarded one yields GuardViolationError.
func Resolve(status Status, action Action, summary Summary) (Status, error) {
	if !StaticallyEligible(status, action) {
		return "", &InvalidTransitionError{Status: status, Action: action}
	}
	if reason := guardReason(action, summary); reason != "" {
		return "", &GuardViolationError{Action: action, Reason: reason}
	}
	return actionTarget[action], nil
}
