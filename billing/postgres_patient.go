package billing

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresPatientDirectory implements PatientDirectory over the patients
// table.
type PostgresPatientDirectory struct {
	db *sql.DB
}

// NewPostgresPatientDirectory creates a PostgreSQL-backed patient
// directory.
func NewPostgresPatientDirectory(db *sql.DB) *PostgresPatientDirectory {
	return &PostgresPatientDirectory{db: db}
}

// Resolve returns the patient's billing facts, or (nil, nil) when the id
// is unknown.
func (d *PostgresPatientDirectory) Resolve(ctx context.Context, patientID string) (*PatientContext, error) {
	var pc PatientContext
	err := d.db.QueryRowContext(ctx, `
		SELECT age, coverage, label
		FROM patients
		WHERE id = $1
	`, patientID).Scan(&pc.Age, &pc.Coverage, &pc.Label)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve patient %s: %w", patientID, err)
	}
	return &pc, nil
}

// List returns all patients ordered by id.
func (d *PostgresPatientDirectory) List(ctx context.Context) ([]PatientSummary, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, age, coverage, label
		FROM patients
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer rows.Close()

	var out []PatientSummary
	for rows.Next() {
		var p PatientSummary
		if err := rows.Scan(&p.ID, &p.Age, &p.Coverage, &p.Label); err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating patients: %w", err)
	}
	return out, nil
}
