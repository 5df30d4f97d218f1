package draft

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

func pendingDraft(id string) *model.DraftClaim {
	return &model.DraftClaim{
		ID:                id,
		Status:            model.DraftPending,
		PrimaryDocumentID: "bill-1",
		DocumentIDs:       []string{"bill-1"},
		Payment: model.PaymentSnapshot{
			Amount:   120.00,
			Currency: "EUR",
			Source:   model.PaymentSourceDetected,
		},
		PaymentProofDocumentIDs: []string{"receipt-1"},
		GeneratedAt:             now,
		UpdatedAt:               now,
	}
}

func calendarDoc(id string, start time.Time) model.Document {
	return model.Document{
		ID:            id,
		SourceType:    model.SourceCalendar,
		CalendarStart: datePtr(start),
	}
}

func setupLifecycle(t *testing.T) (*Lifecycle, *testutil.MemoryStorage) {
	t.Helper()
	ctx := context.Background()
	store := testutil.NewMemoryStorage()
	require.NoError(t, store.SaveIllness(ctx, &model.Illness{ID: "ill-1", Name: "Knee injury"}))
	require.NoError(t, store.SaveDraftClaim(ctx, pendingDraft("draft-1")))
	return NewLifecycle(store), store
}

func TestAccept_WithManualDate(t *testing.T) {
	ctx := context.Background()
	lc, store := setupLifecycle(t)

	accepted, err := lc.Accept(ctx, "draft-1", AcceptInput{
		IllnessID:     "ill-1",
		DoctorNotes:   "MRI confirmed meniscus tear",
		TreatmentDate: "2024-04-20",
	})
	require.NoError(t, err)

	assert.Equal(t, model.DraftAccepted, accepted.Status)
	assert.Equal(t, model.TreatmentDateManual, accepted.TreatmentDateSource)
	require.NotNil(t, accepted.TreatmentDate)
	assert.Equal(t, time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC), *accepted.TreatmentDate)
	assert.NotNil(t, accepted.AcceptedAt)

	stored, err := store.GetDraftClaimByID(ctx, "draft-1")
	require.NoError(t, err)
	assert.Equal(t, model.DraftAccepted, stored.Status)
}

func TestAccept_WithCalendarDocuments(t *testing.T) {
	ctx := context.Background()
	lc, store := setupLifecycle(t)

	day5 := time.Date(2024, 4, 5, 9, 0, 0, 0, time.UTC)
	day9 := time.Date(2024, 4, 9, 14, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveDocuments(ctx, []model.Document{
		calendarDoc("cal-5", day5),
		calendarDoc("cal-9", day9),
	}))

	accepted, err := lc.Accept(ctx, "draft-1", AcceptInput{
		IllnessID:           "ill-1",
		DoctorNotes:         "two sessions",
		CalendarDocumentIDs: []string{"cal-9", "cal-5"},
	})
	require.NoError(t, err)

	assert.Equal(t, model.TreatmentDateCalendar, accepted.TreatmentDateSource)
	require.NotNil(t, accepted.TreatmentDate)
	assert.True(t, accepted.TreatmentDate.Equal(day5), "earliest calendar start wins")

	// Calendar documents join the draft's document list.
	assert.ElementsMatch(t, []string{"bill-1", "cal-5", "cal-9"}, accepted.DocumentIDs)
	assert.ElementsMatch(t, []string{"cal-5", "cal-9"}, accepted.CalendarDocumentIDs)
}

func TestAccept_ManualDateTakesPrecedence(t *testing.T) {
	ctx := context.Background()
	lc, store := setupLifecycle(t)

	require.NoError(t, store.SaveDocuments(ctx, []model.Document{
		calendarDoc("cal-1", time.Date(2024, 4, 5, 0, 0, 0, 0, time.UTC)),
	}))

	accepted, err := lc.Accept(ctx, "draft-1", AcceptInput{
		IllnessID:           "ill-1",
		DoctorNotes:         "notes",
		TreatmentDate:       "2024-04-22",
		CalendarDocumentIDs: []string{"cal-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.TreatmentDateManual, accepted.TreatmentDateSource)
	assert.Equal(t, time.Date(2024, 4, 22, 0, 0, 0, 0, time.UTC), *accepted.TreatmentDate)
}

func TestAccept_ValidationFailures(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		setup   func(t *testing.T, store *testutil.MemoryStorage)
		input   AcceptInput
		wantErr error
	}{
		{
			name:    "missing illness id",
			input:   AcceptInput{DoctorNotes: "notes", TreatmentDate: "2024-04-20"},
			wantErr: common.ErrValidation,
		},
		{
			name:    "unknown illness",
			input:   AcceptInput{IllnessID: "nope", DoctorNotes: "notes", TreatmentDate: "2024-04-20"},
			wantErr: common.ErrNotFound,
		},
		{
			name:    "blank doctor notes",
			input:   AcceptInput{IllnessID: "ill-1", DoctorNotes: "   ", TreatmentDate: "2024-04-20"},
			wantErr: common.ErrValidation,
		},
		{
			name:    "unparseable manual date",
			input:   AcceptInput{IllnessID: "ill-1", DoctorNotes: "notes", TreatmentDate: "20.04.2024"},
			wantErr: common.ErrValidation,
		},
		{
			name:    "no treatment date source",
			input:   AcceptInput{IllnessID: "ill-1", DoctorNotes: "notes"},
			wantErr: common.ErrValidation,
		},
		{
			name: "calendar id resolves to an attachment",
			setup: func(t *testing.T, store *testutil.MemoryStorage) {
				t.Helper()
				require.NoError(t, store.SaveDocuments(ctx, []model.Document{{
					ID:         "not-calendar",
					SourceType: model.SourceAttachment,
					Date:       datePtr(now),
				}}))
			},
			input:   AcceptInput{IllnessID: "ill-1", DoctorNotes: "notes", CalendarDocumentIDs: []string{"not-calendar"}},
			wantErr: common.ErrValidation,
		},
		{
			name: "calendar documents without dates",
			setup: func(t *testing.T, store *testutil.MemoryStorage) {
				t.Helper()
				require.NoError(t, store.SaveDocuments(ctx, []model.Document{{
					ID:         "cal-undated",
					SourceType: model.SourceCalendar,
				}}))
			},
			input:   AcceptInput{IllnessID: "ill-1", DoctorNotes: "notes", CalendarDocumentIDs: []string{"cal-undated"}},
			wantErr: common.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc, store := setupLifecycle(t)
			if tt.setup != nil {
				tt.setup(t, store)
			}

			_, err := lc.Accept(ctx, "draft-1", tt.input)
			assert.ErrorIs(t, err, tt.wantErr)

			// The draft is left untouched on every validation failure.
			stored, getErr := store.GetDraftClaimByID(ctx, "draft-1")
			require.NoError(t, getErr)
			assert.Equal(t, model.DraftPending, stored.Status)
			assert.Nil(t, stored.AcceptedAt)
		})
	}
}

func TestAccept_RequiresPaymentProof(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStorage()
	require.NoError(t, store.SaveIllness(ctx, &model.Illness{ID: "ill-1", Name: "Knee injury"}))

	draft := pendingDraft("draft-1")
	draft.PaymentProofDocumentIDs = nil
	require.NoError(t, store.SaveDraftClaim(ctx, draft))
	lc := NewLifecycle(store)

	_, err := lc.Accept(ctx, "draft-1", AcceptInput{
		IllnessID:     "ill-1",
		DoctorNotes:   "notes",
		TreatmentDate: "2024-04-20",
	})
	assert.ErrorIs(t, err, common.ErrMissingPaymentProof)

	// Proof text supplied at accept time satisfies the requirement.
	accepted, err := lc.Accept(ctx, "draft-1", AcceptInput{
		IllnessID:        "ill-1",
		DoctorNotes:      "notes",
		TreatmentDate:    "2024-04-20",
		PaymentProofText: "paid by bank transfer on 2024-04-21",
	})
	require.NoError(t, err)
	assert.Equal(t, model.DraftAccepted, accepted.Status)
}

func TestAccept_IllegalFromTerminalStates(t *testing.T) {
	ctx := context.Background()
	lc, _ := setupLifecycle(t)

	_, err := lc.Accept(ctx, "draft-1", AcceptInput{
		IllnessID:     "ill-1",
		DoctorNotes:   "notes",
		TreatmentDate: "2024-04-20",
	})
	require.NoError(t, err)

	_, err = lc.Accept(ctx, "draft-1", AcceptInput{
		IllnessID:     "ill-1",
		DoctorNotes:   "notes",
		TreatmentDate: "2024-04-20",
	})
	assert.ErrorIs(t, err, common.ErrIllegalTransition)
}

func TestRejectAndReopen(t *testing.T) {
	ctx := context.Background()
	lc, _ := setupLifecycle(t)

	rejected, err := lc.Reject(ctx, "draft-1")
	require.NoError(t, err)
	assert.Equal(t, model.DraftRejected, rejected.Status)
	assert.NotNil(t, rejected.RejectedAt)

	reopened, err := lc.MarkPending(ctx, "draft-1")
	require.NoError(t, err)
	assert.Equal(t, model.DraftPending, reopened.Status)
	assert.Nil(t, reopened.RejectedAt)
	assert.Nil(t, reopened.AcceptedAt)
}

func TestReopenKeepsAcceptanceFields(t *testing.T) {
	ctx := context.Background()
	lc, _ := setupLifecycle(t)

	accepted, err := lc.Accept(ctx, "draft-1", AcceptInput{
		IllnessID:     "ill-1",
		DoctorNotes:   "initial notes",
		TreatmentDate: "2024-04-20",
	})
	require.NoError(t, err)
	require.Equal(t, model.DraftAccepted, accepted.Status)

	reopened, err := lc.MarkPending(ctx, "draft-1")
	require.NoError(t, err)
	assert.Equal(t, model.DraftPending, reopened.Status)
	// Acceptance fields survive so the reviewer can correct and re-accept.
	assert.Equal(t, "ill-1", reopened.IllnessID)
	assert.Equal(t, "initial notes", reopened.DoctorNotes)
	require.NotNil(t, reopened.TreatmentDate)

	// And re-accepting works.
	again, err := lc.Accept(ctx, "draft-1", AcceptInput{
		IllnessID:     "ill-1",
		DoctorNotes:   "corrected notes",
		TreatmentDate: "2024-04-21",
	})
	require.NoError(t, err)
	assert.Equal(t, model.DraftAccepted, again.Status)
	assert.Equal(t, "corrected notes", again.DoctorNotes)
}

func TestLifecycle_NotFound(t *testing.T) {
	ctx := context.Background()
	lc := NewLifecycle(testutil.NewMemoryStorage())

	_, err := lc.Accept(ctx, "missing", AcceptInput{})
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = lc.Reject(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = lc.MarkPending(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
