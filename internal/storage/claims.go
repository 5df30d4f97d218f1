package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/common"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/model"
)

// SaveClaims upserts claims in a single transaction.
func (s *SQLiteStorage) SaveClaims(ctx context.Context, claims []model.Claim) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO claims (id, claim_amount, claim_currency, treatment_date, submission_date, line_items)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			claim_amount = excluded.claim_amount,
			claim_currency = excluded.claim_currency,
			treatment_date = excluded.treatment_date,
			submission_date = excluded.submission_date,
			line_items = excluded.line_items
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare claim insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, claim := range claims {
		if err := validateString(claim.ID, "claim id"); err != nil {
			return err
		}
		lineItemsJSON, err := marshalNullable(claim.LineItems)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			claim.ID, claim.ClaimAmount, claim.ClaimCurrency,
			claim.TreatmentDate, claim.SubmissionDate, lineItemsJSON,
		); err != nil {
			return fmt.Errorf("failed to save claim %s: %w", claim.ID, err)
		}
	}

	return tx.Commit()
}

// GetAllClaims returns every claim.
func (s *SQLiteStorage) GetAllClaims(ctx context.Context) ([]model.Claim, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, claim_amount, claim_currency, treatment_date, submission_date, line_items
		FROM claims ORDER BY treatment_date, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query claims: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var claims []model.Claim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, *claim)
	}
	return claims, rows.Err()
}

// GetClaimByID returns one claim or common.ErrNotFound.
func (s *SQLiteStorage) GetClaimByID(ctx context.Context, id string) (*model.Claim, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, claim_amount, claim_currency, treatment_date, submission_date, line_items
		FROM claims WHERE id = ?`, id)
	claim, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("claim %s: %w", id, common.ErrNotFound)
	}
	return claim, err
}

func scanClaim(row rowScanner) (*model.Claim, error) {
	var claim model.Claim
	var lineItemsJSON sql.NullString

	if err := row.Scan(
		&claim.ID, &claim.ClaimAmount, &claim.ClaimCurrency,
		&claim.TreatmentDate, &claim.SubmissionDate, &lineItemsJSON,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan claim: %w", err)
	}

	if err := unmarshalNullable(lineItemsJSON, &claim.LineItems); err != nil {
		return nil, err
	}
	return &claim, nil
}
