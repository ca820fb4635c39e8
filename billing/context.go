package billing

import (
	"context"
	"fmt"

	"github.com/basevitale/billing/rules"
)

const (
	maxActs = 500
	maxAge  = 120
)

// SimulateInput is the raw caller input before patient resolution. Nil
// optional fields mean "not supplied".
type SimulateInput struct {
	Acts       []string
	PatientID  *string
	PatientAge *int
}

// BuildContext validates the input and assembles the engine context,
// failing with a typed error before the engine ever runs.
//
// When both a resolvable patientId and a direct patientAge are supplied,
// the resolved patient context wins: patient identity is authoritative
// over a raw override.
func BuildContext(ctx context.Context, dir PatientDirectory, in SimulateInput) (rules.Context, error) {
	if len(in.Acts) > maxActs {
		return rules.Context{}, &ValidationError{
			Field:   "acts",
			Message: fmt.Sprintf("act list has %d entries, maximum allowed is %d", len(in.Acts), maxActs),
		}
	}

	if in.PatientAge != nil {
		if *in.PatientAge < 0 {
			return rules.Context{}, &ValidationError{Field: "patientAge", Message: "patientAge cannot be negative"}
		}
		if *in.PatientAge > maxAge {
			return rules.Context{}, &ValidationError{
				Field:   "patientAge",
				Message: fmt.Sprintf("patientAge cannot exceed %d", maxAge),
			}
		}
	}

	out := rules.Context{Acts: append([]string(nil), in.Acts...)}

	if in.PatientID != nil {
		pc, err := dir.Resolve(ctx, *in.PatientID)
		if err != nil {
			return rules.Context{}, fmt.Errorf("patient lookup failed: %w", err)
		}
		if pc == nil {
			return rules.Context{}, &MissingContextError{
				Field:   "patient",
				Message: fmt.Sprintf("unknown patient identifier %q", *in.PatientID),
			}
		}
		age, coverage := pc.Age, pc.Coverage
		out.Patient = &rules.PatientFacts{Age: &age, Coverage: &coverage}
		return out, nil
	}

	if in.PatientAge != nil {
		age := *in.PatientAge
		out.Patient = &rules.PatientFacts{Age: &age}
	}
	return out, nil
}
