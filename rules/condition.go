package rules

// The fact namespace is closed: conditions can only reference the paths
// below. Resolving anything else yields "fact absent", which is a normal
// outcome, not an error.
const (
	FactActs            = "acts"
	FactPatientAge      = "patient.age"
	FactPatientCoverage = "patient.coverage"
)

// resolveFact walks the dotted path through the context. The second return
// value is false when any segment is missing, mirroring an undefined
// lookup.
func resolveFact(ctx Context, path string) (any, bool) {
	switch path {
	case FactActs:
		return ctx.Acts, true
	case FactPatientAge:
		if ctx.Patient == nil || ctx.Patient.Age == nil {
			return nil, false
		}
		return *ctx.Patient.Age, true
	case FactPatientCoverage:
		if ctx.Patient == nil || ctx.Patient.Coverage == nil {
			return nil, false
		}
		return *ctx.Patient.Coverage, true
	default:
		return nil, false
	}
}

// asNumber normalizes the numeric types a fact or a JSON literal can carry.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// valuesEqual implements strict equality: numbers compare numerically,
// other values only compare equal to a value of the same type. Slices and
// absent facts never compare equal.
func valuesEqual(a, b any) bool {
	if an, aok := asNumber(a); aok {
		bn, bok := asNumber(b)
		return bok && an == bn
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		return false
	}
}

// EvaluateCondition evaluates one condition against the context. Ordering
// operators are valid only when both operands are numeric; every other
// combination, including a missing fact or an unknown operator, evaluates
// to false.
func EvaluateCondition(ctx Context, cond Condition) bool {
	actual, present := resolveFact(ctx, cond.Fact)

	switch cond.Operator {
	case OpEqual:
		return present && valuesEqual(actual, cond.Value)
	case OpNotEqual:
		return !(present && valuesEqual(actual, cond.Value))
	case OpLessThan, OpLessThanOrEqual, OpGreaterThan, OpGreaterThanOrEqual:
		if !present {
			return false
		}
		a, aok := asNumber(actual)
		b, bok := asNumber(cond.Value)
		if !aok || !bok {
			return false
		}
		switch cond.Operator {
		case OpLessThan:
			return a < b
		case OpLessThanOrEqual:
			return a <= b
		case OpGreaterThan:
			return a > b
		default:
			return a >= b
		}
	default:
		return false
	}
}

// allConditionsMatch is a logical AND over the rule's condition list. An
// empty list matches.
func allConditionsMatch(ctx Context, conds []Condition) bool {
	for _, c := range conds {
		if !EvaluateCondition(ctx, c) {
			return false
		}
	}
	return true
}
