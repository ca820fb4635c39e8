package invoice

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresRepository implements Repository backed by the invoices table.
// The breakdown is stored as a JSONB snapshot so it survives rule set
// changes byte for byte.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a PostgreSQL-backed invoice repository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const invoiceColumns = `id, patient_id, acts, total_amount, breakdown, status, rules_version, fse_token, created_at, updated_at`

// Create inserts a new DRAFT invoice and returns the stored row.
func (r *PostgresRepository) Create(ctx context.Context, params CreateParams) (*Invoice, error) {
	breakdown, err := json.Marshal(params.Breakdown)
	if err != nil {
		return nil, fmt.Errorf("failed to encode breakdown: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO invoices (id, patient_id, acts, total_amount, breakdown, status, rules_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING `+invoiceColumns,
		uuid.NewString(), params.PatientID, pq.Array(params.Acts),
		params.TotalAmount, breakdown, StatusDraft, params.RulesVersion)

	inv, err := scanInvoice(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert invoice: %w", err)
	}
	return inv, nil
}

// Get returns the invoice, or (nil, nil) when the id is unknown.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Invoice, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE id = $1
	`, id)

	inv, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return inv, nil
}

// UpdateStatus performs the conditional write: the row is touched only if
// its status still matches expected. A zero-row update is disambiguated
// into not-found versus lost-race.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, expected Status, patch Patch) (*Invoice, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE invoices
		SET status = $1, fse_token = COALESCE($2, fse_token), updated_at = NOW()
		WHERE id = $3 AND status = $4
		RETURNING `+invoiceColumns,
		patch.Status, patch.FSEToken, id, expected)

	inv, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		var exists bool
		if cerr := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM invoices WHERE id = $1)`, id).Scan(&exists); cerr != nil {
			return nil, fmt.Errorf("failed to check invoice existence: %w", cerr)
		}
		if !exists {
			return nil, &NotFoundError{ID: id}
		}
		return nil, &StatusConflictError{ID: id, Expected: expected}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update invoice status: %w", err)
	}
	return inv, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*Invoice, error) {
	var inv Invoice
	var breakdown []byte

	err := row.Scan(
		&inv.ID,
		&inv.PatientID,
		pq.Array(&inv.Acts),
		&inv.TotalAmount,
		&breakdown,
		&inv.Status,
		&inv.RulesVersion,
		&inv.FSEToken,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(breakdown, &inv.Breakdown); err != nil {
		return nil, fmt.Errorf("failed to decode breakdown for invoice %s: %w", inv.ID, err)
	}
	return &inv, nil
}
