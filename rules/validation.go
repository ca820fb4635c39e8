package rules

import "fmt"

const maxRulesPerSet = 1000

var validOperators = map[Operator]bool{
	OpEqual:              true,
	OpNotEqual:           true,
	OpLessThan:           true,
	OpLessThanOrEqual:    true,
	OpGreaterThan:        true,
	OpGreaterThanOrEqual: true,
}

// ValidateRules checks a rule list before it becomes the active set. A
// payload that fails here is rejected as a whole; the store keeps serving
// its previous snapshot.
func ValidateRules(ruleList []Rule) error {
	if len(ruleList) == 0 {
		return fmt.Errorf("rule set cannot be empty, must contain at least one rule")
	}
	if len(ruleList) > maxRulesPerSet {
		return fmt.Errorf("rule set contains %d rules, maximum allowed is %d", len(ruleList), maxRulesPerSet)
	}

	seen := make(map[string]bool, len(ruleList))
	for i, r := range ruleList {
		if err := ValidateRule(r); err != nil {
			return fmt.Errorf("rule %d (%q): %w", i, r.ID, err)
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate rule ID %q", r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}

// ValidateRule checks a single rule's structural invariants.
func ValidateRule(r Rule) error {
	if r.ID == "" {
		return fmt.Errorf("rule ID cannot be empty")
	}

	switch r.Type {
	case RuleLine:
		if r.Trigger == "" {
			return fmt.Errorf("line rule must declare a trigger act code")
		}
		if r.Price < 0 {
			return fmt.Errorf("price %v is negative", r.Price)
		}
		if r.PayerShare < 0 || r.PayerShare > 1 {
			return fmt.Errorf("part_secu %v is outside [0,1]", r.PayerShare)
		}
		if r.Label == "" {
			return fmt.Errorf("line rule must carry a display label")
		}
	case RuleModifier:
		if r.Effect != EffectPatientPaysZero {
			return fmt.Errorf("unknown modifier effect %q", r.Effect)
		}
	default:
		return fmt.Errorf("unknown rule type %q (must be %q or %q)", r.Type, RuleLine, RuleModifier)
	}

	for j, c := range r.Conditions {
		if c.Fact == "" {
			return fmt.Errorf("condition %d has empty fact path", j)
		}
		if !validOperators[c.Operator] {
			return fmt.Errorf("condition %d has unknown operator %q", j, c.Operator)
		}
	}
	return nil
}
