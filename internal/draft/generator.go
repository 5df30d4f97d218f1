// Package draft generates draft claims from unattached payment documents and
// drives them through the accept/reject workflow.
package draft

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/common"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/model"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/payment"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/service"
)

// Range selects how far back document generation looks.
type Range string

// Generation range constants.
const (
	RangeForever   Range = "forever"
	RangeLastMonth Range = "last_month"
	RangeLastWeek  Range = "last_week"
)

// ParseRange converts a user-supplied range string.
func ParseRange(s string) (Range, error) {
	switch Range(s) {
	case RangeForever, RangeLastMonth, RangeLastWeek:
		return Range(s), nil
	default:
		return "", common.ValidationError("unknown generation range %q (want forever, last_month, or last_week)", s)
	}
}

// cutoff returns the earliest acceptable document date, or nil for an
// unbounded range.
func (r Range) cutoff(now time.Time) *time.Time {
	var t time.Time
	switch r {
	case RangeLastMonth:
		t = now.AddDate(0, 0, -30)
	case RangeLastWeek:
		t = now.AddDate(0, 0, -7)
	default:
		return nil
	}
	return &t
}

// Generator creates pending draft claims from eligible unattached documents.
type Generator struct {
	storage service.Storage
	proofs  *payment.ProofResolver
}

// NewGenerator creates a draft claim generator.
func NewGenerator(storage service.Storage, proofs *payment.ProofResolver) *Generator {
	return &Generator{storage: storage, proofs: proofs}
}

// Generate creates a pending draft claim for every eligible document within
// the range. A document already referenced by an assignment or an existing
// draft claim is never selected again. Pre-existing drafts are not mutated.
func (g *Generator) Generate(ctx context.Context, rng Range, now time.Time) ([]model.DraftClaim, error) {
	documents, err := g.storage.GetAllDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	assignments, err := g.storage.GetAllAssignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}
	drafts, err := g.storage.GetAllDraftClaims(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load draft claims: %w", err)
	}

	claimed := make(map[string]bool)
	for _, a := range assignments {
		claimed[a.DocumentID] = true
	}
	for _, d := range drafts {
		for _, id := range d.DocumentIDs {
			claimed[id] = true
		}
	}

	cutoff := rng.cutoff(now)

	var created []model.DraftClaim
	for _, doc := range documents {
		if !eligibleForGeneration(doc, claimed, cutoff) {
			continue
		}

		signal := payment.PrimarySignal(doc)
		if signal == nil {
			continue
		}

		proofDocs := g.proofs.Resolve(documents, doc, *signal)
		proofIDs := make([]string, 0, len(proofDocs))
		for _, p := range proofDocs {
			proofIDs = append(proofIDs, p.ID)
		}

		draft := model.DraftClaim{
			ID:                      uuid.NewString(),
			Status:                  model.DraftPending,
			PrimaryDocumentID:       doc.ID,
			DocumentIDs:             dedupe(append([]string{doc.ID}, proofIDs...)),
			Payment:                 *signal,
			PaymentProofDocumentIDs: proofIDs,
			GeneratedAt:             now,
			UpdatedAt:               now,
		}
		if err := g.storage.SaveDraftClaim(ctx, &draft); err != nil {
			return nil, fmt.Errorf("failed to save draft claim for document %s: %w", doc.ID, err)
		}

		// Documents pulled into this draft are off limits for the rest
		// of the pass.
		for _, id := range draft.DocumentIDs {
			claimed[id] = true
		}
		created = append(created, draft)
	}

	slog.Info("generated draft claims",
		"range", string(rng),
		"documents", len(documents),
		"created", len(created))
	return created, nil
}

// eligibleForGeneration applies the generation filter: unarchived bill-like
// attachments with a payment signal, unattached to any assignment or draft,
// within the requested date range.
func eligibleForGeneration(doc model.Document, claimed map[string]bool, cutoff *time.Time) bool {
	if doc.SourceType != model.SourceAttachment || doc.IsArchived() {
		return false
	}
	if !doc.IsBill() {
		return false
	}
	if !payment.HasSignal(doc) {
		return false
	}
	if claimed[doc.ID] {
		return false
	}
	if cutoff != nil {
		date := doc.EffectiveDate()
		// A document with no date never matches a bounded range.
		if date == nil || date.Before(*cutoff) {
			return false
		}
	}
	return true
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
