package invoice

import (
	"time"

	"github.com/basevitale/billing/rules"
)

// Status is the lifecycle state of an invoice.
type Status string

const (
	StatusDraft       Status = "DRAFT"
	StatusValidated   Status = "VALIDATED"
	StatusTransmitted Status = "TRANSMITTED"
	StatusPaid        Status = "PAID"
	StatusRejected    Status = "REJECTED"
)

// Action is a lifecycle transition request.
type Action string

const (
	ActionValidate Action = "VALIDATE"
	ActionTransmit Action = "TRANSMIT"
	ActionMarkPaid Action = "MARK_PAID"
	ActionReject   Action = "REJECT"
)

// ParseAction validates an action string from the outside world.
func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionValidate, ActionTransmit, ActionMarkPaid, ActionReject:
		return Action(s), true
	default:
		return "", false
	}
}

// Breakdown is the frozen financial detail of a crystallized simulation.
type Breakdown struct {
	Lines         []rules.BreakdownLine `json:"lines"`
	AMO           float64               `json:"amo"`
	AMC           float64               `json:"amc"`
	AmountPatient float64               `json:"amount_patient"`
}

// Invoice is the persisted billing record. RulesVersion freezes which rule
// set produced the total at creation time and is never recomputed.
type Invoice struct {
	ID           string    `json:"id"`
	PatientID    *string   `json:"patientId,omitempty"`
	Acts         []string  `json:"acts"`
	TotalAmount  float64   `json:"totalAmount"`
	Breakdown    Breakdown `json:"breakdown"`
	Status       Status    `json:"status"`
	RulesVersion string    `json:"rulesVersion"`
	FSEToken     *string   `json:"fseToken,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Summary carries the fields the lifecycle guards look at.
type Summary struct {
	Acts        []string
	TotalAmount float64
}

// Summary extracts the guard view of the invoice.
func (inv *Invoice) Summary() Summary {
	return Summary{Acts: inv.Acts, TotalAmount: inv.TotalAmount}
}
