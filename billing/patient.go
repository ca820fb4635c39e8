package billing

import (
	"context"
	"sync"
)

// PatientContext is the small fact set the rule engine consumes for a
// resolved patient.
type PatientContext struct {
	Age      int     `json:"age"`
	Coverage float64 `json:"coverage"` // 0–1, 1 means full CMU/C2S coverage
	Label    string  `json:"label,omitempty"`
}

// PatientSummary is a directory listing entry (demo UI).
type PatientSummary struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Age      int     `json:"age"`
	Coverage float64 `json:"coverage"`
}

// PatientDirectory resolves opaque patient identifiers to billing facts.
// Pure lookup, no mutation. Resolve returns (nil, nil) for an unknown id.
type PatientDirectory interface {
	Resolve(ctx context.Context, patientID string) (*PatientContext, error)
	List(ctx context.Context) ([]PatientSummary, error)
}

// InMemoryPatientDirectory is a fixed directory used in tests and when the
// server runs without a database.
type InMemoryPatientDirectory struct {
	mu       sync.RWMutex
	patients map[string]PatientContext
}

// NewInMemoryPatientDirectory creates a directory pre-seeded with the demo
// patients: an adult, a child under six, and a fully covered CMU/C2S
// patient.
func NewInMemoryPatientDirectory() *InMemoryPatientDirectory {
	return &InMemoryPatientDirectory{
		patients: map[string]PatientContext{
			"patient_a": {Age: 35, Coverage: 0, Label: "Patient A (Adulte)"},
			"patient_b": {Age: 4, Coverage: 0, Label: "Patient B (Enfant)"},
			"patient_c": {Age: 52, Coverage: 1, Label: "Patient C (CMU/C2S)"},
		},
	}
}

// Add registers or replaces a patient entry.
func (d *InMemoryPatientDirectory) Add(id string, pc PatientContext) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.patients[id] = pc
}

// Resolve returns the patient's billing facts, or (nil, nil) when unknown.
func (d *InMemoryPatientDirectory) Resolve(ctx context.Context, patientID string) (*PatientContext, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	pc, ok := d.patients[patientID]
	if !ok {
		return nil, nil
	}
	return &pc, nil
}

// List returns all known patients in no particular order.
func (d *InMemoryPatientDirectory) List(ctx context.Context) ([]PatientSummary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]PatientSummary, 0, len(d.patients))
	for id, pc := range d.patients {
		out = append(out, PatientSummary{ID: id, Label: pc.Label, Age: pc.Age, Coverage: pc.Coverage})
	}
	return out, nil
}
