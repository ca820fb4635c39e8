package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/basevitale/billing/invoice"
	"github.com/basevitale/billing/rules"
)

// SimulationResult is the simulate response: the engine result plus the
// rule set version that produced it and an optional human hint.
type SimulationResult struct {
	rules.Result
	RulesVersion string `json:"rulesVersion"`
	Message      string `json:"message,omitempty"`
}

// LifecycleView is the read side of the invoice FSM.
type LifecycleView struct {
	Status           invoice.Status   `json:"status"`
	AvailableActions []invoice.Action `json:"availableActions"`
}

// Service wires the rule store, the patient directory and the invoice
// repository into the billing operations exposed to transport layers.
type Service struct {
	store    *rules.Store
	patients PatientDirectory
	invoices invoice.Repository
	log      zerolog.Logger
}

// NewService creates the billing service.
func NewService(store *rules.Store, patients PatientDirectory, invoices invoice.Repository, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		patients: patients,
		invoices: invoices,
		log:      log.With().Str("component", "billing.Service").Logger(),
	}
}

// Simulate validates the input, resolves the patient context and runs the
// active rule set. Side-effect free; an unknown act prices to zero rather
// than failing.
func (s *Service) Simulate(ctx context.Context, in SimulateInput) (*SimulationResult, error) {
	bctx, err := BuildContext(ctx, s.patients, in)
	if err != nil {
		return nil, err
	}

	snapshot := s.store.Snapshot()
	result := rules.Run(bctx, snapshot.Rules)

	out := &SimulationResult{Result: result, RulesVersion: snapshot.Version}
	if result.ModifierApplied {
		out.Message = "Tiers payant (CMU/C2S) : aucun reste à charge patient"
	}
	return out, nil
}

// CreateInvoice crystallizes a simulation into a DRAFT invoice, freezing
// the rule set version that priced it. The version is never recomputed,
// even after later reloads.
func (s *Service) CreateInvoice(ctx context.Context, in SimulateInput) (*invoice.Invoice, error) {
	bctx, err := BuildContext(ctx, s.patients, in)
	if err != nil {
		return nil, err
	}

	snapshot := s.store.Snapshot()
	result := rules.Run(bctx, snapshot.Rules)

	inv, err := s.invoices.Create(ctx, invoice.CreateParams{
		PatientID:   in.PatientID,
		Acts:        in.Acts,
		TotalAmount: result.Total,
		Breakdown: invoice.Breakdown{
			Lines:         result.Breakdown,
			AMO:           result.AMO,
			AMC:           result.AMC,
			AmountPatient: result.AmountPatient,
		},
		RulesVersion: snapshot.Version,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	s.log.Info().Str("invoice", inv.ID).Float64("total", inv.TotalAmount).
		Str("rulesVersion", inv.RulesVersion).Msg("invoice created")
	return inv, nil
}

// GetInvoice loads an invoice snapshot.
func (s *Service) GetInvoice(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.invoices.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, &invoice.NotFoundError{ID: id}
	}
	return inv, nil
}

// GetInvoiceLifecycle returns the invoice status and the actions currently
// permitted, with guards applied.
func (s *Service) GetInvoiceLifecycle(ctx context.Context, id string) (*LifecycleView, error) {
	inv, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := inv.Summary()
	return &LifecycleView{
		Status:           inv.Status,
		AvailableActions: invoice.AvailableActions(inv.Status, &summary),
	}, nil
}

// TransitionInvoice validates and applies a single lifecycle transition
// via a conditional write keyed on the status the decision was made
// against, so two racing transitions cannot both succeed.
func (s *Service) TransitionInvoice(ctx context.Context, id string, action invoice.Action) (*invoice.Invoice, error) {
	inv, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	target, err := invoice.Resolve(inv.Status, action, inv.Summary())
	if err != nil {
		s.log.Warn().Str("invoice", id).Str("action", string(action)).
			Str("status", string(inv.Status)).Err(err).Msg("transition refused")
		return nil, err
	}

	patch := invoice.Patch{Status: target}
	if action == invoice.ActionTransmit {
		token := uuid.NewString()
		patch.FSEToken = &token
	}

	updated, err := s.invoices.UpdateStatus(ctx, id, inv.Status, patch)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("invoice", id).Str("from", string(inv.Status)).
		Str("to", string(updated.Status)).Msg("invoice transitioned")
	return updated, nil
}

// ReloadRules swaps in the latest stored rule set, seeding the bundled
// default when storage is empty or unreachable. Never fails.
func (s *Service) ReloadRules(ctx context.Context) rules.ReloadStatus {
	return s.store.Reload(ctx)
}

// RulesInfo reports the active rule set without touching storage.
func (s *Service) RulesInfo() rules.ReloadStatus {
	snapshot := s.store.Snapshot()
	return rules.ReloadStatus{Version: snapshot.Version, RuleCount: len(snapshot.Rules)}
}

// ListPatients exposes the demo patient directory.
func (s *Service) ListPatients(ctx context.Context) ([]PatientSummary, error) {
	return s.patients.List(ctx)
}
