//go:build integration
// +build integration

package invoice_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/basevitale/billing/invoice"
	"github.com/basevitale/billing/rules"

	_ "github.com/lib/pq"
)

// setupTestDB creates a PostgreSQL container with the patients and invoices
// schema applied.
func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "billing_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithStartupTimeout(60 * time.Second),
	}

	postgresContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgresContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	connStr := fmt.Sprintf("host=%s port=%s user=test password=test dbname=billing_test sslmode=disable", host, port.Port())

	var db *sql.DB
	for i := 0; i < 30; i++ {
		db, err = sql.Open("postgres", connStr)
		if err == nil {
			err = db.Ping()
			if err == nil {
				break
			}
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	for _, file := range []string{"000002_create_patients.up.sql", "000003_create_invoices.up.sql"} {
		migrationSQL, err := os.ReadFile(filepath.Join("..", "migrations", file))
		if err != nil {
			t.Fatalf("Failed to read migration file %s: %v", file, err)
		}
		if _, err := db.Exec(string(migrationSQL)); err != nil {
			t.Fatalf("Failed to run migration %s: %v", file, err)
		}
	}

	cleanup := func() {
		db.Close()
		postgresContainer.Terminate(ctx)
	}

	return db, cleanup
}

func testParams() invoice.CreateParams {
	patientID := "patient_a"
	return invoice.CreateParams{
		PatientID:   &patientID,
		Acts:        []string{"C"},
		TotalAmount: 26.5,
		Breakdown: invoice.Breakdown{
			Lines:         []rules.BreakdownLine{{Label: "Consultation médecine générale", Amount: 26.5}},
			AMO:           18.55,
			AMC:           7.95,
			AmountPatient: 7.95,
		},
		RulesVersion: rules.DefaultVersion,
	}
}

func TestPostgresRepository_CreateAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := invoice.NewPostgresRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, testParams())
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if created.ID == "" || created.Status != invoice.StatusDraft {
		t.Fatalf("created = %+v, want DRAFT with id", created)
	}

	got, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.TotalAmount != 26.5 {
		t.Errorf("TotalAmount = %v, want 26.5", got.TotalAmount)
	}
	if len(got.Acts) != 1 || got.Acts[0] != "C" {
		t.Errorf("Acts = %v, want [C]", got.Acts)
	}
	if len(got.Breakdown.Lines) != 1 || got.Breakdown.Lines[0].Amount != 26.5 {
		t.Errorf("Breakdown = %+v, breakdown should round-trip through JSONB", got.Breakdown)
	}
	if got.PatientID == nil || *got.PatientID != "patient_a" {
		t.Errorf("PatientID = %v, want patient_a", got.PatientID)
	}

	missing, err := repo.Get(ctx, "no-such-id")
	if err != nil || missing != nil {
		t.Errorf("Get(unknown) = (%v, %v), want (nil, nil)", missing, err)
	}
}

func TestPostgresRepository_ConditionalUpdate(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := invoice.NewPostgresRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, testParams())
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	updated, err := repo.UpdateStatus(ctx, created.ID, invoice.StatusDraft, invoice.Patch{Status: invoice.StatusValidated})
	if err != nil {
		t.Fatalf("UpdateStatus() failed: %v", err)
	}
	if updated.Status != invoice.StatusValidated {
		t.Errorf("Status = %s, want VALIDATED", updated.Status)
	}

	// Stale expectation loses with a conflict, not a not-found.
	_, err = repo.UpdateStatus(ctx, created.ID, invoice.StatusDraft, invoice.Patch{Status: invoice.StatusRejected})
	var conflict *invoice.StatusConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("stale update error = %T (%v), want *StatusConflictError", err, err)
	}

	_, err = repo.UpdateStatus(ctx, "no-such-id", invoice.StatusDraft, invoice.Patch{Status: invoice.StatusValidated})
	var notFound *invoice.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("unknown id error = %T (%v), want *NotFoundError", err, err)
	}
}

func TestPostgresRepository_FSETokenLifecycle(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := invoice.NewPostgresRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, testParams())
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if _, err := repo.UpdateStatus(ctx, created.ID, invoice.StatusDraft, invoice.Patch{Status: invoice.StatusValidated}); err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	token := "fse-integration-token"
	transmitted, err := repo.UpdateStatus(ctx, created.ID, invoice.StatusValidated,
		invoice.Patch{Status: invoice.StatusTransmitted, FSEToken: &token})
	if err != nil {
		t.Fatalf("transmit failed: %v", err)
	}
	if transmitted.FSEToken == nil || *transmitted.FSEToken != token {
		t.Fatalf("FSEToken = %v, want %s", transmitted.FSEToken, token)
	}

	paid, err := repo.UpdateStatus(ctx, created.ID, invoice.StatusTransmitted, invoice.Patch{Status: invoice.StatusPaid})
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if paid.FSEToken == nil || *paid.FSEToken != token {
		t.Errorf("FSEToken after MARK_PAID = %v, want %s preserved", paid.FSEToken, token)
	}
}
