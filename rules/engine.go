package rules

import "math"

// Run folds an ordered rule list and a billing context into a financial
// result. It is pure and side-effect free: safe for any number of
// concurrent callers.
//
// Line rules fire when their trigger act is present in the context AND all
// their conditions hold; each fire accumulates the price, the payer (AMO)
// share and the complementary (AMC) share, and appends a breakdown line in
// rule order. Modifier rules fire on conditions alone; the
// patient_pays_zero effect is a latch that can only be set.
//
// Money is rounded to two decimals once after the full pass, so per-line
// rounding error never compounds. An empty or fully non-matching rule set
// is a valid zero result, not an error.
func Run(ctx Context, ruleList []Rule) Result {
	var total, amo, amc float64
	breakdown := []BreakdownLine{}
	patientPaysZero := false

	for _, r := range ruleList {
		switch r.Type {
		case RuleLine:
			if !containsAct(ctx.Acts, r.Trigger) {
				continue
			}
			if !allConditionsMatch(ctx, r.Conditions) {
				continue
			}
			total += r.Price
			amo += r.Price * r.PayerShare
			amc += r.Price * (1 - r.PayerShare)
			breakdown = append(breakdown, BreakdownLine{
				Label:  r.Label,
				Amount: r.Price,
				RuleID: r.DisplayID,
			})
		case RuleModifier:
			if !allConditionsMatch(ctx, r.Conditions) {
				continue
			}
			if r.Effect == EffectPatientPaysZero {
				patientPaysZero = true
			}
		}
	}

	amountPatient := round2(total - amo)
	if patientPaysZero {
		amountPatient = 0
	}

	return Result{
		Total:           round2(total),
		AMO:             round2(amo),
		AMC:             round2(amc),
		AmountPatient:   amountPatient,
		Breakdown:       breakdown,
		ModifierApplied: patientPaysZero,
	}
}

func containsAct(acts []string, code string) bool {
	for _, a := range acts {
		if a == code {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
