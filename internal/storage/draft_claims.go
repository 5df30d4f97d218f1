package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/common"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/model"
)

const draftClaimColumns = `id, status, primary_document_id, document_ids,
	payment_snapshot, payment_proof_document_ids, payment_proof_text,
	illness_id, doctor_notes, treatment_date, treatment_date_source,
	calendar_document_ids, generated_at, updated_at, accepted_at, rejected_at`

// SaveDraftClaim inserts a new draft claim.
func (s *SQLiteStorage) SaveDraftClaim(ctx context.Context, draft *model.DraftClaim) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if draft == nil {
		return fmt.Errorf("draft claim cannot be nil")
	}
	if err := draft.Validate(); err != nil {
		return fmt.Errorf("invalid draft claim: %w", err)
	}

	docIDsJSON, proofIDsJSON, calIDsJSON, snapshotJSON, err := marshalDraftColumns(draft)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO draft_claims (
			id, status, primary_document_id, document_ids,
			payment_snapshot, payment_proof_document_ids, payment_proof_text,
			illness_id, doctor_notes, treatment_date, treatment_date_source,
			calendar_document_ids, generated_at, updated_at, accepted_at, rejected_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		draft.ID, string(draft.Status), draft.PrimaryDocumentID, docIDsJSON,
		snapshotJSON, proofIDsJSON, draft.PaymentProofText,
		draft.IllnessID, draft.DoctorNotes, draft.TreatmentDate, string(draft.TreatmentDateSource),
		calIDsJSON, draft.GeneratedAt, draft.UpdatedAt, draft.AcceptedAt, draft.RejectedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("draft claim %s: %w", draft.ID, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to save draft claim: %w", err)
	}

	slog.Debug("saved draft claim",
		"draft_claim_id", draft.ID,
		"primary_document_id", draft.PrimaryDocumentID)
	return nil
}

// UpdateDraftClaim replaces an existing draft claim.
func (s *SQLiteStorage) UpdateDraftClaim(ctx context.Context, draft *model.DraftClaim) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if draft == nil {
		return fmt.Errorf("draft claim cannot be nil")
	}
	if err := draft.Validate(); err != nil {
		return fmt.Errorf("invalid draft claim: %w", err)
	}

	docIDsJSON, proofIDsJSON, calIDsJSON, snapshotJSON, err := marshalDraftColumns(draft)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE draft_claims SET
			status = ?, document_ids = ?, payment_snapshot = ?,
			payment_proof_document_ids = ?, payment_proof_text = ?,
			illness_id = ?, doctor_notes = ?, treatment_date = ?,
			treatment_date_source = ?, calendar_document_ids = ?,
			updated_at = ?, accepted_at = ?, rejected_at = ?
		WHERE id = ?`,
		string(draft.Status), docIDsJSON, snapshotJSON,
		proofIDsJSON, draft.PaymentProofText,
		draft.IllnessID, draft.DoctorNotes, draft.TreatmentDate,
		string(draft.TreatmentDateSource), calIDsJSON,
		draft.UpdatedAt, draft.AcceptedAt, draft.RejectedAt,
		draft.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update draft claim: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("draft claim %s: %w", draft.ID, common.ErrNotFound)
	}
	return nil
}

// GetAllDraftClaims returns every draft claim.
func (s *SQLiteStorage) GetAllDraftClaims(ctx context.Context) ([]model.DraftClaim, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+draftClaimColumns+` FROM draft_claims ORDER BY generated_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query draft claims: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var drafts []model.DraftClaim
	for rows.Next() {
		draft, err := scanDraftClaim(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, *draft)
	}
	return drafts, rows.Err()
}

// GetDraftClaimByID returns one draft claim or common.ErrNotFound.
func (s *SQLiteStorage) GetDraftClaimByID(ctx context.Context, id string) (*model.DraftClaim, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+draftClaimColumns+` FROM draft_claims WHERE id = ?`, id)
	draft, err := scanDraftClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("draft claim %s: %w", id, common.ErrNotFound)
	}
	return draft, err
}

func marshalDraftColumns(draft *model.DraftClaim) (docIDs, proofIDs, calIDs, snapshot *string, err error) {
	if docIDs, err = marshalNullable(draft.DocumentIDs); err != nil {
		return nil, nil, nil, nil, err
	}
	if proofIDs, err = marshalNullable(draft.PaymentProofDocumentIDs); err != nil {
		return nil, nil, nil, nil, err
	}
	if calIDs, err = marshalNullable(draft.CalendarDocumentIDs); err != nil {
		return nil, nil, nil, nil, err
	}

	// The payment snapshot is always persisted, even when zero-valued.
	data, jsonErr := json.Marshal(draft.Payment)
	if jsonErr != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal payment snapshot: %w", jsonErr)
	}
	str := string(data)
	snapshot = &str
	return docIDs, proofIDs, calIDs, snapshot, nil
}

func scanDraftClaim(row rowScanner) (*model.DraftClaim, error) {
	var d model.DraftClaim
	var status string
	var docIDsJSON, proofIDsJSON, calIDsJSON, snapshotJSON sql.NullString
	var proofText, illnessID, doctorNotes, dateSource sql.NullString

	if err := row.Scan(
		&d.ID, &status, &d.PrimaryDocumentID, &docIDsJSON,
		&snapshotJSON, &proofIDsJSON, &proofText,
		&illnessID, &doctorNotes, &d.TreatmentDate, &dateSource,
		&calIDsJSON, &d.GeneratedAt, &d.UpdatedAt, &d.AcceptedAt, &d.RejectedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan draft claim: %w", err)
	}

	d.Status = model.DraftClaimStatus(status)
	d.PaymentProofText = proofText.String
	d.IllnessID = illnessID.String
	d.DoctorNotes = doctorNotes.String
	d.TreatmentDateSource = model.TreatmentDateSource(dateSource.String)

	if err := unmarshalNullable(docIDsJSON, &d.DocumentIDs); err != nil {
		return nil, err
	}
	if err := unmarshalNullable(proofIDsJSON, &d.PaymentProofDocumentIDs); err != nil {
		return nil, err
	}
	if err := unmarshalNullable(calIDsJSON, &d.CalendarDocumentIDs); err != nil {
		return nil, err
	}
	if err := unmarshalNullable(snapshotJSON, &d.Payment); err != nil {
		return nil, err
	}

	return &d, nil
}
