package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/common"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/model"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/service"
)

// Config holds configuration options for the matching engine.
type Config struct {
	Scoring ScoringConfig
	// TopMatches caps how many candidate assignments one document can get.
	TopMatches int
	// ClearCandidates removes a document's existing candidate assignments
	// before a rematch. Confirmed and rejected rows are never touched.
	ClearCandidates bool
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Scoring:         DefaultScoringConfig(),
		TopMatches:      5,
		ClearCandidates: true,
	}
}

// MatchEngine orchestrates the scorer across the document-claim space and
// owns assignment review transitions. It is stateless between calls; all
// state lives in storage.
type MatchEngine struct {
	storage service.Storage
	scorer  *Scorer
	cfg     Config
}

// New creates a matching engine with default configuration.
func New(storage service.Storage) *MatchEngine {
	return NewWithConfig(storage, DefaultConfig())
}

// NewWithConfig creates a matching engine with custom configuration.
func NewWithConfig(storage service.Storage, cfg Config) *MatchEngine {
	if cfg.TopMatches <= 0 {
		cfg.TopMatches = DefaultConfig().TopMatches
	}
	return &MatchEngine{
		storage: storage,
		scorer:  NewScorer(cfg.Scoring),
		cfg:     cfg,
	}
}

type scoredClaim struct {
	result *MatchResult
	claim  model.Claim
}

// MatchDocument scores one document against every claim and persists the
// top matches as candidate assignments. Re-running with no intervening state
// change returns the same assignments: already-reviewed pairs are returned
// unchanged, never rescored.
func (e *MatchEngine) MatchDocument(ctx context.Context, doc model.Document) ([]model.Assignment, error) {
	if !e.eligible(doc) {
		slog.Debug("document not eligible for matching", "document_id", doc.ID, "source_type", doc.SourceType)
		return nil, nil
	}

	claims, err := e.storage.GetAllClaims(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load claims: %w", err)
	}

	var matches []scoredClaim
	for _, claim := range claims {
		if result := e.scorer.Score(doc, claim); result != nil {
			matches = append(matches, scoredClaim{result: result, claim: claim})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].result.Score > matches[j].result.Score
	})
	if len(matches) > e.cfg.TopMatches {
		matches = matches[:e.cfg.TopMatches]
	}

	if e.cfg.ClearCandidates {
		if err := e.storage.ClearCandidateAssignments(ctx, doc.ID); err != nil {
			return nil, fmt.Errorf("failed to clear candidate assignments: %w", err)
		}
	}

	assignments := make([]model.Assignment, 0, len(matches))
	for _, match := range matches {
		existing, err := e.storage.GetAssignmentByPair(ctx, doc.ID, match.claim.ID)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up assignment pair: %w", err)
		}
		if existing != nil {
			// Idempotent rematch: the pair already exists (possibly
			// reviewed); keep it as is.
			assignments = append(assignments, *existing)
			continue
		}

		assignment := newAssignment(doc, match.claim, match.result)
		if err := e.storage.SaveAssignment(ctx, &assignment); err != nil {
			return nil, fmt.Errorf("failed to save assignment: %w", err)
		}
		assignments = append(assignments, assignment)
	}

	slog.Info("matched document",
		"document_id", doc.ID,
		"claims_scored", len(claims),
		"assignments", len(assignments))
	return assignments, nil
}

// MatchDocumentByID resolves a document and matches it.
func (e *MatchEngine) MatchDocumentByID(ctx context.Context, id string) ([]model.Assignment, error) {
	doc, err := e.storage.GetDocumentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", id, err)
	}
	return e.MatchDocument(ctx, *doc)
}

// MatchAllDocuments runs a matching pass over every candidate document. A
// storage failure on any document aborts the whole pass.
func (e *MatchEngine) MatchAllDocuments(ctx context.Context) ([]model.Assignment, error) {
	docs, err := e.storage.GetAllDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	return e.matchDocuments(ctx, docs)
}

// MatchDocumentsByIDs runs a matching pass over the given documents,
// deduplicated by id.
func (e *MatchEngine) MatchDocumentsByIDs(ctx context.Context, ids []string) ([]model.Assignment, error) {
	seen := make(map[string]bool, len(ids))
	docs := make([]model.Document, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		doc, err := e.storage.GetDocumentByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load document %s: %w", id, err)
		}
		docs = append(docs, *doc)
	}
	return e.matchDocuments(ctx, docs)
}

func (e *MatchEngine) matchDocuments(ctx context.Context, docs []model.Document) ([]model.Assignment, error) {
	var all []model.Assignment
	for _, doc := range docs {
		if !e.candidateDocument(doc) {
			continue
		}
		assignments, err := e.MatchDocument(ctx, doc)
		if err != nil {
			return nil, err
		}
		all = append(all, assignments...)
	}
	return all, nil
}

// eligible reports whether a document can be matched at all: it either
// carries detected amounts or is a calendar event with a usable date.
func (e *MatchEngine) eligible(doc model.Document) bool {
	if len(doc.DetectedAmounts) > 0 {
		return true
	}
	return doc.SourceType == model.SourceCalendar && doc.EffectiveDate() != nil
}

// candidateDocument filters batch input to bill-classified documents with
// amounts and dated calendar events.
func (e *MatchEngine) candidateDocument(doc model.Document) bool {
	if doc.IsBill() && len(doc.DetectedAmounts) > 0 {
		return true
	}
	return doc.SourceType == model.SourceCalendar && doc.EffectiveDate() != nil
}

func newAssignment(doc model.Document, claim model.Claim, result *MatchResult) model.Assignment {
	reasonType := model.ReasonApproximateAmount
	descriptions := make([]string, 0, len(result.Reasons))
	for i, reason := range result.Reasons {
		if i == 0 {
			reasonType = reason.Type
		}
		descriptions = append(descriptions, reason.Description)
	}

	now := time.Now().UTC()
	return model.Assignment{
		ID:              uuid.NewString(),
		DocumentID:      doc.ID,
		ClaimID:         claim.ID,
		MatchScore:      result.Score,
		MatchReasonType: reasonType,
		MatchReason:     strings.Join(descriptions, "; "),
		AmountMatch:     result.AmountMatch,
		DateMatch:       result.DateMatch,
		Status:          model.AssignmentCandidate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// ConfirmAssignment marks a candidate assignment as confirmed against an
// illness and merges the matched document's sender contact into the illness's
// provider accounts.
func (e *MatchEngine) ConfirmAssignment(ctx context.Context, id, illnessID, notes string) (*model.Assignment, error) {
	assignment, err := e.storage.GetAssignmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignment %s: %w", id, err)
	}

	if illnessID == "" {
		return nil, common.ValidationError("an illness is required to confirm an assignment")
	}
	illness, err := e.storage.GetIllnessByID(ctx, illnessID)
	if err != nil {
		return nil, fmt.Errorf("failed to load illness %s: %w", illnessID, err)
	}

	switch assignment.Status {
	case model.AssignmentCandidate:
	case model.AssignmentConfirmed:
		return nil, fmt.Errorf("%w: assignment %s is already confirmed", common.ErrIllegalTransition, id)
	case model.AssignmentRejected:
		return nil, fmt.Errorf("%w: assignment %s was rejected", common.ErrIllegalTransition, id)
	default:
		return nil, fmt.Errorf("%w: unknown assignment status %q", common.ErrIllegalTransition, assignment.Status)
	}

	now := time.Now().UTC()
	assignment.Status = model.AssignmentConfirmed
	assignment.ConfirmedIllnessID = illness.ID
	assignment.ReviewNotes = notes
	assignment.ConfirmedAt = &now
	assignment.UpdatedAt = now

	if err := e.storage.UpdateAssignment(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}

	if err := e.mergeDocumentContacts(ctx, assignment.DocumentID, illness.ID); err != nil {
		// The confirmation itself succeeded; contact extraction is a
		// side effect.
		slog.Warn("failed to merge document contacts into illness",
			"assignment_id", id,
			"illness_id", illness.ID,
			"error", err)
	}

	slog.Info("confirmed assignment", "assignment_id", id, "illness_id", illness.ID)
	return assignment, nil
}

// RejectAssignment marks a candidate assignment as rejected with review
// notes. No side effects.
func (e *MatchEngine) RejectAssignment(ctx context.Context, id, notes string) (*model.Assignment, error) {
	assignment, err := e.storage.GetAssignmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignment %s: %w", id, err)
	}

	switch assignment.Status {
	case model.AssignmentCandidate:
	case model.AssignmentConfirmed, model.AssignmentRejected:
		return nil, fmt.Errorf("%w: assignment %s is already %s", common.ErrIllegalTransition, id, assignment.Status)
	default:
		return nil, fmt.Errorf("%w: unknown assignment status %q", common.ErrIllegalTransition, assignment.Status)
	}

	now := time.Now().UTC()
	assignment.Status = model.AssignmentRejected
	assignment.ReviewNotes = notes
	assignment.RejectedAt = &now
	assignment.UpdatedAt = now

	if err := e.storage.UpdateAssignment(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}

	slog.Info("rejected assignment", "assignment_id", id)
	return assignment, nil
}

// mergeDocumentContacts extracts the document's sender as a provider account
// and merges it into the illness, deduplicated by email.
func (e *MatchEngine) mergeDocumentContacts(ctx context.Context, documentID, illnessID string) error {
	doc, err := e.storage.GetDocumentByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to load document %s: %w", documentID, err)
	}
	if doc.SenderEmail == "" {
		return nil
	}

	accounts := []model.ProviderAccount{{Name: doc.SenderName, Email: doc.SenderEmail}}
	if _, err := e.storage.MergeIllnessAccounts(ctx, illnessID, accounts); err != nil {
		return fmt.Errorf("failed to merge illness accounts: %w", err)
	}
	return nil
}
