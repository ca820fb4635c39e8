package invoice

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/basevitale/billing/rules"
)

// CreateParams is the data crystallized into a new DRAFT invoice.
type CreateParams struct {
	PatientID    *string
	Acts         []string
	TotalAmount  float64
	Breakdown    Breakdown
	RulesVersion string
}

// Patch is the write side of a lifecycle transition.
type Patch struct {
	Status   Status
	FSEToken *string // set on transmission, left untouched when nil
}

// Repository owns invoice persistence. Get returns (nil, nil) for an
// unknown id; UpdateStatus is a conditional write keyed on the expected
// current status so two racing transitions cannot both succeed.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Invoice, error)
	Get(ctx context.Context, id string) (*Invoice, error)
	UpdateStatus(ctx context.Context, id string, expected Status, patch Patch) (*Invoice, error)
}

// InMemoryRepository implements Repository with a mutex-guarded map. Used
// in tests and when the server runs without a database.
type InMemoryRepository struct {
	mu       sync.RWMutex
	invoices map[string]*Invoice
}

// NewInMemoryRepository creates an empty in-memory invoice repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{invoices: make(map[string]*Invoice)}
}

// Create stores a new DRAFT invoice and returns a snapshot of it.
func (r *InMemoryRepository) Create(ctx context.Context, params CreateParams) (*Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	inv := &Invoice{
		ID:           uuid.NewString(),
		PatientID:    params.PatientID,
		Acts:         append([]string(nil), params.Acts...),
		TotalAmount:  params.TotalAmount,
		Breakdown:    params.Breakdown,
		Status:       StatusDraft,
		RulesVersion: params.RulesVersion,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.invoices[inv.ID] = inv
	return copyInvoice(inv), nil
}

// Get returns a snapshot of the invoice, or (nil, nil) when absent.
func (r *InMemoryRepository) Get(ctx context.Context, id string) (*Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.invoices[id]
	if !ok {
		return nil, nil
	}
	return copyInvoice(inv), nil
}

// UpdateStatus applies the patch only if the stored status still matches
// expected, failing with StatusConflictError otherwise.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id string, expected Status, patch Patch) (*Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv, ok := r.invoices[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	if inv.Status != expected {
		return nil, &StatusConflictError{ID: id, Expected: expected}
	}

	inv.Status = patch.Status
	if patch.FSEToken != nil {
		inv.FSEToken = patch.FSEToken
	}
	inv.UpdatedAt = time.Now()
	return copyInvoice(inv), nil
}

func copyInvoice(inv *Invoice) *Invoice {
	out := *inv
	out.Acts = append([]string(nil), inv.Acts...)
	out.Breakdown.Lines = append([]rules.BreakdownLine(nil), inv.Breakdown.Lines...)
	return &out
}
