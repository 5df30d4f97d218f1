package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema: documents, claims, illnesses",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS documents (
					id TEXT PRIMARY KEY,
					source_type TEXT NOT NULL,
					thread_id TEXT,
					subject TEXT,
					snippet TEXT,
					ocr_text TEXT,
					filename TEXT,
					sender_name TEXT,
					sender_email TEXT,
					classification TEXT,
					date DATETIME,
					calendar_start DATETIME,
					calendar_end DATETIME,
					calendar_summary TEXT,
					calendar_location TEXT,
					detected_amounts TEXT,
					payment_override TEXT,
					medical_keywords TEXT,
					archived_at DATETIME,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_documents_source_type ON documents(source_type)`,
				`CREATE INDEX idx_documents_classification ON documents(classification)`,
				`CREATE INDEX idx_documents_date ON documents(date)`,

				`CREATE TABLE IF NOT EXISTS claims (
					id TEXT PRIMARY KEY,
					claim_amount REAL NOT NULL,
					claim_currency TEXT NOT NULL,
					treatment_date DATETIME,
					submission_date DATETIME,
					line_items TEXT
				)`,
				`CREATE INDEX idx_claims_treatment_date ON claims(treatment_date)`,

				`CREATE TABLE IF NOT EXISTS illnesses (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					accounts TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Assignments with pair uniqueness",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS assignments (
					id TEXT PRIMARY KEY,
					document_id TEXT NOT NULL,
					claim_id TEXT NOT NULL,
					match_score REAL NOT NULL,
					match_reason_type TEXT NOT NULL,
					match_reason TEXT,
					amount_match TEXT,
					date_match TEXT,
					status TEXT NOT NULL,
					review_notes TEXT,
					confirmed_illness_id TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					confirmed_at DATETIME,
					rejected_at DATETIME,
					UNIQUE(document_id, claim_id)
				)`,
				`CREATE INDEX idx_assignments_document ON assignments(document_id)`,
				`CREATE INDEX idx_assignments_claim ON assignments(claim_id)`,
				`CREATE INDEX idx_assignments_status ON assignments(status)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Draft claims",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS draft_claims (
					id TEXT PRIMARY KEY,
					status TEXT NOT NULL,
					primary_document_id TEXT NOT NULL,
					document_ids TEXT,
					payment_snapshot TEXT NOT NULL,
					payment_proof_document_ids TEXT,
					payment_proof_text TEXT,
					illness_id TEXT,
					doctor_notes TEXT,
					treatment_date DATETIME,
					treatment_date_source TEXT,
					calendar_document_ids TEXT,
					generated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					accepted_at DATETIME,
					rejected_at DATETIME
				)`,
				`CREATE INDEX idx_draft_claims_status ON draft_claims(status)`,
				`CREATE INDEX idx_draft_claims_primary_document ON draft_claims(primary_document_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Description, err)
		}

		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set schema version %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		slog.Info("applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	return nil
}

// SchemaVersion reports the database's current schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
