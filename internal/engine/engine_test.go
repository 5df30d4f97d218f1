package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/common"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/model"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/testutil"
)

func billDocument(id string, amount float64, date time.Time) model.Document {
	return model.Document{
		ID:             id,
		SourceType:     model.SourceAttachment,
		Classification: model.ClassificationMedicalBill,
		Date:           datePtr(date),
		SenderName:     "Clinic Billing",
		SenderEmail:    "billing@clinic.example",
		DetectedAmounts: []model.DetectedAmount{
			{Value: amount, Currency: "EUR", Confidence: 90},
		},
	}
}

func eurClaim(id string, amount float64, treatment time.Time) model.Claim {
	return model.Claim{
		ID:            id,
		ClaimAmount:   amount,
		ClaimCurrency: "EUR",
		TreatmentDate: datePtr(treatment),
	}
}

func setupEngine(t *testing.T) (*MatchEngine, *testutil.MemoryStorage) {
	t.Helper()
	store := testutil.NewMemoryStorage()
	return New(store), store
}

func TestMatchDocument_CreatesCandidateAssignment(t *testing.T) {
	ctx := context.Background()
	eng, store := setupEngine(t)

	doc := billDocument("doc-1", 120.00, baseDate)
	require.NoError(t, store.SaveDocuments(ctx, []model.Document{doc}))
	require.NoError(t, store.SaveClaims(ctx, []model.Claim{
		eurClaim("claim-1", 120.00, baseDate.AddDate(0, 0, 10)),
	}))

	assignments, err := eng.MatchDocument(ctx, doc)
	require.NoError(t, err)
	require.Len(t, assignments, 1)

	a := assignments[0]
	assert.Equal(t, "doc-1", a.DocumentID)
	assert.Equal(t, "claim-1", a.ClaimID)
	assert.Equal(t, model.AssignmentCandidate, a.Status)
	assert.Equal(t, model.ReasonExactAmount, a.MatchReasonType)
	assert.GreaterOrEqual(t, a.MatchScore, 50.0)
	assert.NotEmpty(t, a.MatchReason)
	assert.NotNil(t, a.AmountMatch)
}

func TestMatchDocument_Idempotent(t *testing.T) {
	ctx := context.Background()
	eng, store := setupEngine(t)

	doc := billDocument("doc-1", 120.00, baseDate)
	require.NoError(t, store.SaveDocuments(ctx, []model.Document{doc}))
	require.NoError(t, store.SaveClaims(ctx, []model.Claim{
		eurClaim("claim-1", 120.00, baseDate.AddDate(0, 0, 10)),
		eurClaim("claim-2", 121.00, baseDate.AddDate(0, 0, 12)),
	}))

	first, err := eng.MatchDocument(ctx, doc)
	require.NoError(t, err)
	second, err := eng.MatchDocument(ctx, doc)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	// Clear-and-recreate produces fresh candidate rows, but the pair set
	// and scores are identical.
	firstPairs := make(map[string]float64, len(first))
	for _, a := range first {
		firstPairs[a.DocumentID+"/"+a.ClaimID] = a.MatchScore
	}
	for _, a := range second {
		score, ok := firstPairs[a.DocumentID+"/"+a.ClaimID]
		require.True(t, ok)
		assert.InDelta(t, score, a.MatchScore, 0.001)
	}

	all, err := store.GetAllAssignments(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(first))
}

func TestMatchDocument_PreservesReviewedAssignments(t *testing.T) {
	ctx := context.Background()
	eng, store := setupEngine(t)

	doc := billDocument("doc-1", 120.00, baseDate)
	require.NoError(t, store.SaveDocuments(ctx, []model.Document{doc}))
	require.NoError(t, store.SaveClaims(ctx, []model.Claim{
		eurClaim("claim-1", 120.00, baseDate.AddDate(0, 0, 10)),
	}))
	require.NoError(t, store.SaveIllness(ctx, &model.Illness{ID: "ill-1", Name: "Back pain"}))

	first, err := eng.MatchDocument(ctx, doc)
	require.NoError(t, err)
	require.Len(t, first, 1)

	confirmed, err := eng.ConfirmAssignment(ctx, first[0].ID, "ill-1", "verified")
	require.NoError(t, err)

	// A rematch must return the confirmed row untouched, not rescore it.
	second, err := eng.MatchDocument(ctx, doc)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, confirmed.ID, second[0].ID)
	assert.Equal(t, model.AssignmentConfirmed, second[0].Status)
}

func TestMatchDocument_TopMatchesCap(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStorage()
	cfg := DefaultConfig()
	cfg.TopMatches = 2
	eng := NewWithConfig(store, cfg)

	doc := billDocument("doc-1", 120.00, baseDate)
	require.NoError(t, store.SaveDocuments(ctx, []model.Document{doc}))
	claims := []model.Claim{
		eurClaim("claim-1", 120.00, baseDate.AddDate(0, 0, 1)),
		eurClaim("claim-2", 120.00, baseDate.AddDate(0, 0, 5)),
		eurClaim("claim-3", 120.00, baseDate.AddDate(0, 0, 20)),
	}
	require.NoError(t, store.SaveClaims(ctx, claims))

	assignments, err := eng.MatchDocument(ctx, doc)
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	// Sorted descending by score: the closest date wins.
	assert.Equal(t, "claim-1", assignments[0].ClaimID)
	assert.GreaterOrEqual(t, assignments[0].MatchScore, assignments[1].MatchScore)
}

func TestMatchDocument_IneligibleDocument(t *testing.T) {
	ctx := context.Background()
	eng, store := setupEngine(t)

	doc := model.Document{
		ID:             "doc-1",
		SourceType:     model.SourceEmail,
		Classification: model.ClassificationUnknown,
	}
	require.NoError(t, store.SaveDocuments(ctx, []model.Document{doc}))

	assignments, err := eng.MatchDocument(ctx, doc)
	require.NoError(t, err)
	assert.Empty(t, assignments)
}

func TestMatchDocumentsByIDs_DedupesInput(t *testing.T) {
	ctx := context.Background()
	eng, store := setupEngine(t)

	doc := billDocument("doc-1", 120.00, baseDate)
	require.NoError(t, store.SaveDocuments(ctx, []model.Document{doc}))
	require.NoError(t, store.SaveClaims(ctx, []model.Claim{
		eurClaim("claim-1", 120.00, baseDate.AddDate(0, 0, 10)),
	}))

	assignments, err := eng.MatchDocumentsByIDs(ctx, []string{"doc-1", "doc-1", "doc-1"})
	require.NoError(t, err)
	assert.Len(t, assignments, 1)
}

func TestMatchAllDocuments_FiltersCandidates(t *testing.T) {
	ctx := context.Background()
	eng, store := setupEngine(t)

	bill := billDocument("bill", 120.00, baseDate)
	email := model.Document{
		ID:             "email",
		SourceType:     model.SourceEmail,
		Classification: model.ClassificationUnknown,
		DetectedAmounts: []model.DetectedAmount{
			{Value: 120.00, Currency: "EUR", Confidence: 40},
		},
		Date: datePtr(baseDate),
	}
	calendar := model.Document{
		ID:            "calendar",
		SourceType:    model.SourceCalendar,
		CalendarStart: datePtr(baseDate.AddDate(0, 0, 10)),
	}
	require.NoError(t, store.SaveDocuments(ctx, []model.Document{bill, email, calendar}))
	require.NoError(t, store.SaveClaims(ctx, []model.Claim{
		eurClaim("claim-1", 120.00, baseDate.AddDate(0, 0, 10)),
	}))

	assignments, err := eng.MatchAllDocuments(ctx)
	require.NoError(t, err)

	matchedDocs := make(map[string]bool)
	for _, a := range assignments {
		matchedDocs[a.DocumentID] = true
	}
	assert.True(t, matchedDocs["bill"])
	assert.True(t, matchedDocs["calendar"])
	// Unclassified emails are not batch candidates even with amounts.
	assert.False(t, matchedDocs["email"])
}

func TestConfirmAssignment(t *testing.T) {
	ctx := context.Background()
	eng, store := setupEngine(t)

	doc := billDocument("doc-1", 120.00, baseDate)
	require.NoError(t, store.SaveDocuments(ctx, []model.Document{doc}))
	require.NoError(t, store.SaveClaims(ctx, []model.Claim{
		eurClaim("claim-1", 120.00, baseDate.AddDate(0, 0, 10)),
	}))
	require.NoError(t, store.SaveIllness(ctx, &model.Illness{ID: "ill-1", Name: "Back pain"}))

	assignments, err := eng.MatchDocument(ctx, doc)
	require.NoError(t, err)
	require.Len(t, assignments, 1)

	t.Run("requires existing illness", func(t *testing.T) {
		_, err := eng.ConfirmAssignment(ctx, assignments[0].ID, "missing-illness", "")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("requires illness id", func(t *testing.T) {
		_, err := eng.ConfirmAssignment(ctx, assignments[0].ID, "", "")
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("confirms and merges sender contact", func(t *testing.T) {
		confirmed, err := eng.ConfirmAssignment(ctx, assignments[0].ID, "ill-1", "looks right")
		require.NoError(t, err)
		assert.Equal(t, model.AssignmentConfirmed, confirmed.Status)
		assert.Equal(t, "ill-1", confirmed.ConfirmedIllnessID)
		assert.NotNil(t, confirmed.ConfirmedAt)

		illness, err := store.GetIllnessByID(ctx, "ill-1")
		require.NoError(t, err)
		require.Len(t, illness.Accounts, 1)
		assert.Equal(t, "billing@clinic.example", illness.Accounts[0].Email)
	})

	t.Run("confirming twice is an illegal transition", func(t *testing.T) {
		_, err := eng.ConfirmAssignment(ctx, assignments[0].ID, "ill-1", "")
		assert.ErrorIs(t, err, common.ErrIllegalTransition)
	})
}

func TestRejectAssignment(t *testing.T) {
	ctx := context.Background()
	eng, store := setupEngine(t)

	doc := billDocument("doc-1", 120.00, baseDate)
	require.NoError(t, store.SaveDocuments(ctx, []model.Document{doc}))
	require.NoError(t, store.SaveClaims(ctx, []model.Claim{
		eurClaim("claim-1", 120.00, baseDate.AddDate(0, 0, 10)),
	}))

	assignments, err := eng.MatchDocument(ctx, doc)
	require.NoError(t, err)
	require.Len(t, assignments, 1)

	rejected, err := eng.RejectAssignment(ctx, assignments[0].ID, "wrong clinic")
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentRejected, rejected.Status)
	assert.Equal(t, "wrong clinic", rejected.ReviewNotes)
	assert.NotNil(t, rejected.RejectedAt)

	_, err = eng.RejectAssignment(ctx, assignments[0].ID, "again")
	assert.ErrorIs(t, err, common.ErrIllegalTransition)
}

func TestRejectAssignment_NotFound(t *testing.T) {
	ctx := context.Background()
	eng, _ := setupEngine(t)

	_, err := eng.RejectAssignment(ctx, "missing", "")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
