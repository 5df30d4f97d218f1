package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/model"
)

func TestHasSignal(t *testing.T) {
	tests := []struct {
		name string
		doc  model.Document
		want bool
	}{
		{
			name: "no amounts no override",
			doc:  model.Document{ID: "doc-1"},
			want: false,
		},
		{
			name: "detected amount only",
			doc: model.Document{
				ID:              "doc-2",
				DetectedAmounts: []model.DetectedAmount{{Value: 42.50, Currency: "EUR", Confidence: 60}},
			},
			want: true,
		},
		{
			name: "override only",
			doc: model.Document{
				ID:              "doc-3",
				PaymentOverride: &model.PaymentOverride{Amount: 10, Currency: "EUR"},
			},
			want: true,
		},
		{
			name: "both",
			doc: model.Document{
				ID:              "doc-4",
				DetectedAmounts: []model.DetectedAmount{{Value: 42.50, Currency: "EUR"}},
				PaymentOverride: &model.PaymentOverride{Amount: 10, Currency: "EUR"},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasSignal(tt.doc))
		})
	}
}

func TestPrimarySignal_OverrideIsAuthoritative(t *testing.T) {
	updated := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := model.Document{
		ID: "doc-1",
		DetectedAmounts: []model.DetectedAmount{
			{Value: 75.00, Currency: "GBP", Confidence: 95},
		},
		PaymentOverride: &model.PaymentOverride{
			Amount:    80.00,
			Currency:  "GBP",
			Note:      "corrected by reviewer",
			UpdatedAt: updated,
		},
	}

	sig := PrimarySignal(doc)
	require.NotNil(t, sig)
	assert.Equal(t, model.PaymentSourceOverride, sig.Source)
	assert.InDelta(t, 80.00, sig.Amount, 0.001)
	assert.Equal(t, 100, sig.Confidence)
	assert.Equal(t, "corrected by reviewer", sig.OverrideNote)
	require.NotNil(t, sig.OverrideUpdatedAt)
	assert.True(t, sig.OverrideUpdatedAt.Equal(updated))

	// The override is the only signal while it exists.
	assert.Len(t, Signals(doc), 1)
}

func TestPrimarySignal_DetectedAmounts(t *testing.T) {
	tests := []struct {
		name       string
		amounts    []model.DetectedAmount
		wantAmount float64
	}{
		{
			name: "highest confidence wins",
			amounts: []model.DetectedAmount{
				{Value: 120.00, Currency: "EUR", Confidence: 90},
				{Value: 500.00, Currency: "EUR", Confidence: 40},
			},
			wantAmount: 120.00,
		},
		{
			name: "confidence tie broken by highest amount",
			amounts: []model.DetectedAmount{
				{Value: 35.00, Currency: "EUR", Confidence: 70},
				{Value: 135.00, Currency: "EUR", Confidence: 70},
			},
			wantAmount: 135.00,
		},
		{
			name: "single amount",
			amounts: []model.DetectedAmount{
				{Value: 12.00, Currency: "EUR", Confidence: 10},
			},
			wantAmount: 12.00,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := PrimarySignal(model.Document{ID: "doc", DetectedAmounts: tt.amounts})
			require.NotNil(t, sig)
			assert.Equal(t, model.PaymentSourceDetected, sig.Source)
			assert.InDelta(t, tt.wantAmount, sig.Amount, 0.001)
		})
	}
}

func TestPrimarySignal_NoSignal(t *testing.T) {
	assert.Nil(t, PrimarySignal(model.Document{ID: "empty"}))
}
