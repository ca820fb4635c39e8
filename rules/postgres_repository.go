package rules

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresRepository implements Repository backed by the billing_rules
// table. The rule payload is stored as a JSONB document array, so rule
// changes never require a schema migration.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a PostgreSQL-backed rule repository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// LoadLatest returns the most recently updated rule set row, or nil when
// the table is empty.
func (r *PostgresRepository) LoadLatest(ctx context.Context) (*RuleSet, error) {
	var rs RuleSet
	var payload []byte

	err := r.db.QueryRowContext(ctx, `
		SELECT version, payload, updated_at
		FROM billing_rules
		ORDER BY updated_at DESC
		LIMIT 1
	`).Scan(&rs.Version, &payload, &rs.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest rule set: %w", err)
	}

	if err := json.Unmarshal(payload, &rs.Rules); err != nil {
		return nil, fmt.Errorf("failed to decode rule payload for version %s: %w", rs.Version, err)
	}
	return &rs, nil
}

// Upsert writes the rule list under version, replacing any existing
// payload for that version.
func (r *PostgresRepository) Upsert(ctx context.Context, version string, ruleList []Rule) error {
	payload, err := json.Marshal(ruleList)
	if err != nil {
		return fmt.Errorf("failed to encode rule payload: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO billing_rules (version, payload, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (version)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()
	`, version, payload)

	if err != nil {
		return fmt.Errorf("failed to upsert rule set %s: %w", version, err)
	}
	return nil
}
