package draft

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/common"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/model"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/service"
)

// manualDateLayout is the accepted format for manually entered treatment
// dates.
const manualDateLayout = "2006-01-02"

// AcceptInput carries everything a reviewer supplies when accepting a draft
// claim. TreatmentDate (manual) takes precedence over CalendarDocumentIDs
// when both are set.
type AcceptInput struct {
	IllnessID               string
	DoctorNotes             string
	TreatmentDate           string
	PaymentProofText        string
	CalendarDocumentIDs     []string
	PaymentProofDocumentIDs []string
}

// Lifecycle drives draft claims through pending/accepted/rejected.
type Lifecycle struct {
	storage service.Storage
}

// NewLifecycle creates a draft claim lifecycle service.
func NewLifecycle(storage service.Storage) *Lifecycle {
	return &Lifecycle{storage: storage}
}

// Accept validates the reviewer's input and moves a pending draft claim to
// accepted. All validation happens before any persistence call; a validation
// failure leaves the draft untouched.
func (l *Lifecycle) Accept(ctx context.Context, id string, input AcceptInput) (*model.DraftClaim, error) {
	draft, err := l.storage.GetDraftClaimByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load draft claim %s: %w", id, err)
	}

	switch draft.Status {
	case model.DraftPending:
	case model.DraftAccepted:
		return nil, fmt.Errorf("%w: draft claim %s is already accepted", common.ErrIllegalTransition, id)
	case model.DraftRejected:
		return nil, fmt.Errorf("%w: draft claim %s was rejected; reopen it first", common.ErrIllegalTransition, id)
	default:
		return nil, fmt.Errorf("%w: unknown draft claim status %q", common.ErrIllegalTransition, draft.Status)
	}

	if input.IllnessID == "" {
		return nil, common.ValidationError("an illness is required to accept a draft claim")
	}
	illness, err := l.storage.GetIllnessByID(ctx, input.IllnessID)
	if err != nil {
		return nil, fmt.Errorf("failed to load illness %s: %w", input.IllnessID, err)
	}

	notes := strings.TrimSpace(input.DoctorNotes)
	if notes == "" {
		return nil, common.ValidationError("doctor notes must not be empty")
	}

	treatmentDate, source, err := l.resolveTreatmentDate(ctx, input)
	if err != nil {
		return nil, err
	}

	proofIDs := dedupe(append(append([]string{}, draft.PaymentProofDocumentIDs...), input.PaymentProofDocumentIDs...))
	proofText := strings.TrimSpace(input.PaymentProofText)
	if proofText == "" {
		proofText = draft.PaymentProofText
	}
	if len(proofIDs) == 0 && proofText == "" {
		return nil, common.ErrMissingPaymentProof
	}

	now := time.Now().UTC()
	draft.Status = model.DraftAccepted
	draft.IllnessID = illness.ID
	draft.DoctorNotes = notes
	draft.TreatmentDate = treatmentDate
	draft.TreatmentDateSource = source
	draft.PaymentProofDocumentIDs = proofIDs
	draft.PaymentProofText = proofText
	draft.CalendarDocumentIDs = dedupe(input.CalendarDocumentIDs)
	draft.DocumentIDs = dedupe(append(draft.DocumentIDs, input.CalendarDocumentIDs...))
	draft.AcceptedAt = &now
	draft.UpdatedAt = now

	if err := l.storage.UpdateDraftClaim(ctx, draft); err != nil {
		return nil, fmt.Errorf("failed to update draft claim: %w", err)
	}

	slog.Info("accepted draft claim",
		"draft_claim_id", id,
		"illness_id", illness.ID,
		"treatment_date_source", string(source))
	return draft, nil
}

// resolveTreatmentDate resolves the treatment date from the manual date
// string or the selected calendar documents. Manual wins when both are
// supplied.
func (l *Lifecycle) resolveTreatmentDate(ctx context.Context, input AcceptInput) (*time.Time, model.TreatmentDateSource, error) {
	if manual := strings.TrimSpace(input.TreatmentDate); manual != "" {
		parsed, err := time.Parse(manualDateLayout, manual)
		if err != nil {
			return nil, "", common.ValidationError("invalid treatment date %q (want YYYY-MM-DD)", manual)
		}
		return &parsed, model.TreatmentDateManual, nil
	}

	if len(input.CalendarDocumentIDs) == 0 {
		return nil, "", common.ValidationError("a treatment date is required: supply a date or calendar documents")
	}

	var earliest *time.Time
	for _, docID := range input.CalendarDocumentIDs {
		doc, err := l.storage.GetDocumentByID(ctx, docID)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load calendar document %s: %w", docID, err)
		}
		if doc.SourceType != model.SourceCalendar {
			return nil, "", common.ValidationError("document %s is not a calendar document", docID)
		}
		date := doc.EffectiveDate()
		if date == nil {
			continue
		}
		if earliest == nil || date.Before(*earliest) {
			earliest = date
		}
	}
	if earliest == nil {
		return nil, "", common.ValidationError("none of the selected calendar documents has a date")
	}
	return earliest, model.TreatmentDateCalendar, nil
}

// Reject moves a draft claim to rejected. Rejection is unconditional.
func (l *Lifecycle) Reject(ctx context.Context, id string) (*model.DraftClaim, error) {
	draft, err := l.storage.GetDraftClaimByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load draft claim %s: %w", id, err)
	}

	now := time.Now().UTC()
	draft.Status = model.DraftRejected
	draft.RejectedAt = &now
	draft.UpdatedAt = now

	if err := l.storage.UpdateDraftClaim(ctx, draft); err != nil {
		return nil, fmt.Errorf("failed to update draft claim: %w", err)
	}

	slog.Info("rejected draft claim", "draft_claim_id", id)
	return draft, nil
}

// MarkPending reopens a terminal draft claim. Previously entered acceptance
// fields are kept so the reviewer can correct and re-accept.
func (l *Lifecycle) MarkPending(ctx context.Context, id string) (*model.DraftClaim, error) {
	draft, err := l.storage.GetDraftClaimByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load draft claim %s: %w", id, err)
	}

	now := time.Now().UTC()
	draft.Status = model.DraftPending
	draft.AcceptedAt = nil
	draft.RejectedAt = nil
	draft.UpdatedAt = now

	if err := l.storage.UpdateDraftClaim(ctx, draft); err != nil {
		return nil, fmt.Errorf("failed to update draft claim: %w", err)
	}

	slog.Info("reopened draft claim", "draft_claim_id", id)
	return draft, nil
}
