package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/common"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/model"
)

const assignmentColumns = `id, document_id, claim_id, match_score, match_reason_type,
	match_reason, amount_match, date_match, status, review_notes,
	confirmed_illness_id, created_at, updated_at, confirmed_at, rejected_at`

// SaveAssignment inserts a new assignment. The UNIQUE(document_id, claim_id)
// index is the backstop for concurrent rematch passes; a violation surfaces
// as common.ErrDuplicateEntry.
func (s *SQLiteStorage) SaveAssignment(ctx context.Context, assignment *model.Assignment) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if assignment == nil {
		return fmt.Errorf("assignment cannot be nil")
	}
	if err := assignment.Validate(); err != nil {
		return fmt.Errorf("invalid assignment: %w", err)
	}

	amountJSON, err := marshalNullable(assignment.AmountMatch)
	if err != nil {
		return err
	}
	dateJSON, err := marshalNullable(assignment.DateMatch)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assignments (
			id, document_id, claim_id, match_score, match_reason_type,
			match_reason, amount_match, date_match, status, review_notes,
			confirmed_illness_id, created_at, updated_at, confirmed_at, rejected_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		assignment.ID, assignment.DocumentID, assignment.ClaimID,
		assignment.MatchScore, string(assignment.MatchReasonType),
		assignment.MatchReason, amountJSON, dateJSON, string(assignment.Status),
		assignment.ReviewNotes, assignment.ConfirmedIllnessID,
		assignment.CreatedAt, assignment.UpdatedAt,
		assignment.ConfirmedAt, assignment.RejectedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("assignment for document %s and claim %s: %w",
				assignment.DocumentID, assignment.ClaimID, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to save assignment: %w", err)
	}

	slog.Debug("saved assignment",
		"assignment_id", assignment.ID,
		"document_id", assignment.DocumentID,
		"claim_id", assignment.ClaimID,
		"score", assignment.MatchScore)
	return nil
}

// UpdateAssignment replaces an existing assignment's review state.
func (s *SQLiteStorage) UpdateAssignment(ctx context.Context, assignment *model.Assignment) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if assignment == nil {
		return fmt.Errorf("assignment cannot be nil")
	}
	if err := assignment.Validate(); err != nil {
		return fmt.Errorf("invalid assignment: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE assignments SET
			match_score = ?, match_reason_type = ?, match_reason = ?,
			status = ?, review_notes = ?, confirmed_illness_id = ?,
			updated_at = ?, confirmed_at = ?, rejected_at = ?
		WHERE id = ?`,
		assignment.MatchScore, string(assignment.MatchReasonType), assignment.MatchReason,
		string(assignment.Status), assignment.ReviewNotes, assignment.ConfirmedIllnessID,
		assignment.UpdatedAt, assignment.ConfirmedAt, assignment.RejectedAt,
		assignment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("assignment %s: %w", assignment.ID, common.ErrNotFound)
	}
	return nil
}

// GetAllAssignments returns every assignment.
func (s *SQLiteStorage) GetAllAssignments(ctx context.Context) ([]model.Assignment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryAssignments(ctx,
		`SELECT `+assignmentColumns+` FROM assignments ORDER BY created_at, id`)
}

// GetAssignmentByID returns one assignment or common.ErrNotFound.
func (s *SQLiteStorage) GetAssignmentByID(ctx context.Context, id string) (*model.Assignment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE id = ?`, id)
	assignment, err := scanAssignment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("assignment %s: %w", id, common.ErrNotFound)
	}
	return assignment, err
}

// GetAssignmentByPair returns the assignment for a (document, claim) pair or
// common.ErrNotFound.
func (s *SQLiteStorage) GetAssignmentByPair(ctx context.Context, documentID, claimID string) (*model.Assignment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE document_id = ? AND claim_id = ?`,
		documentID, claimID)
	assignment, err := scanAssignment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("assignment for document %s and claim %s: %w",
			documentID, claimID, common.ErrNotFound)
	}
	return assignment, err
}

// GetAssignmentsForDocument returns all assignments referencing a document.
func (s *SQLiteStorage) GetAssignmentsForDocument(ctx context.Context, documentID string) ([]model.Assignment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryAssignments(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE document_id = ? ORDER BY match_score DESC`,
		documentID)
}

// ClearCandidateAssignments removes a document's candidate assignments,
// leaving confirmed and rejected rows untouched.
func (s *SQLiteStorage) ClearCandidateAssignments(ctx context.Context, documentID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM assignments WHERE document_id = ? AND status = ?`,
		documentID, string(model.AssignmentCandidate))
	if err != nil {
		return fmt.Errorf("failed to clear candidate assignments: %w", err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected > 0 {
		slog.Debug("cleared candidate assignments",
			"document_id", documentID,
			"count", affected)
	}
	return nil
}

func (s *SQLiteStorage) queryAssignments(ctx context.Context, query string, args ...any) ([]model.Assignment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var assignments []model.Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, *assignment)
	}
	return assignments, rows.Err()
}

func scanAssignment(row rowScanner) (*model.Assignment, error) {
	var a model.Assignment
	var reasonType, status string
	var matchReason, reviewNotes, confirmedIllnessID sql.NullString
	var amountJSON, dateJSON sql.NullString

	if err := row.Scan(
		&a.ID, &a.DocumentID, &a.ClaimID, &a.MatchScore, &reasonType,
		&matchReason, &amountJSON, &dateJSON, &status, &reviewNotes,
		&confirmedIllnessID, &a.CreatedAt, &a.UpdatedAt, &a.ConfirmedAt, &a.RejectedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan assignment: %w", err)
	}

	a.MatchReasonType = model.MatchReasonType(reasonType)
	a.Status = model.AssignmentStatus(status)
	a.MatchReason = matchReason.String
	a.ReviewNotes = reviewNotes.String
	a.ConfirmedIllnessID = confirmedIllnessID.String

	if amountJSON.Valid {
		var details model.AmountMatchDetails
		if err := unmarshalNullable(amountJSON, &details); err != nil {
			return nil, err
		}
		a.AmountMatch = &details
	}
	if dateJSON.Valid {
		var details model.DateMatchDetails
		if err := unmarshalNullable(dateJSON, &details); err != nil {
			return nil, err
		}
		a.DateMatch = &details
	}

	return &a, nil
}

// isUniqueViolation detects SQLite unique constraint errors without binding
// to driver-specific error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
