package rules

import "time"

// RuleType discriminates the two kinds of declarative rules.
type RuleType string

const (
	// RuleLine adds a priced line to the invoice when its trigger act is
	// present and all conditions hold.
	RuleLine RuleType = "line"
	// RuleModifier alters the final patient-due computation without adding
	// a line.
	RuleModifier RuleType = "modifier"
)

// Effect is the action carried by a modifier rule.
type Effect string

// EffectPatientPaysZero forces the patient-due amount to zero (tiers payant).
const EffectPatientPaysZero Effect = "patient_pays_zero"

// Operator is a comparison operator usable in rule conditions.
type Operator string

const (
	OpEqual              Operator = "equal"
	OpNotEqual           Operator = "notEqual"
	OpLessThan           Operator = "lessThan"
	OpLessThanOrEqual    Operator = "lessThanOrEqual"
	OpGreaterThan        Operator = "greaterThan"
	OpGreaterThanOrEqual Operator = "greaterThanOrEqual"
)

// Condition compares a fact extracted from the billing context against a
// literal value. Ordering operators require both operands to be numeric;
// anything else evaluates to false rather than erroring.
type Condition struct {
	Fact     string   `json:"fact"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// Rule is a single declarative pricing unit. The zero values of the
// kind-specific fields are meaningless for the other kind and omitted from
// JSON.
type Rule struct {
	ID         string      `json:"id"`
	Type       RuleType    `json:"type"`
	Trigger    string      `json:"trigger,omitempty"`
	Price      float64     `json:"price,omitempty"`
	PayerShare float64     `json:"part_secu,omitempty"`
	Conditions []Condition `json:"conditions"`
	Label      string      `json:"label,omitempty"`
	DisplayID  string      `json:"ruleId,omitempty"`
	Effect     Effect      `json:"effect,omitempty"`
}

// RuleSet is a versioned, ordered collection of rules. The version tag is
// frozen onto every invoice the set prices, for audit.
type RuleSet struct {
	Version   string    `json:"version"`
	Rules     []Rule    `json:"rules"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// PatientFacts carries the optional patient attributes the rule conditions
// can reference. Nil fields mean "fact absent".
type PatientFacts struct {
	Age      *int     `json:"age,omitempty"`
	Coverage *float64 `json:"coverage,omitempty"`
}

// Context is the validated input the engine evaluates rules against.
// Construction and validation happen in the billing package; the engine
// assumes a well-formed context.
type Context struct {
	Acts    []string      `json:"acts"`
	Patient *PatientFacts `json:"patient,omitempty"`
}

// BreakdownLine is one fired line rule in a simulation result.
type BreakdownLine struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
	RuleID string  `json:"ruleId,omitempty"`
}

// Result is the financial outcome of a single engine run. All money fields
// are rounded to two decimals once, after the full rule pass.
type Result struct {
	Total           float64         `json:"total"`
	AMO             float64         `json:"amo"`
	AMC             float64         `json:"amc"`
	AmountPatient   float64         `json:"amount_patient"`
	Breakdown       []BreakdownLine `json:"breakdown"`
	ModifierApplied bool            `json:"modifier_applied"`
}
