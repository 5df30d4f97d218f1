package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssignmentValidate(t *testing.T) {
	valid := Assignment{
		ID:         "asg-1",
		DocumentID: "doc-1",
		ClaimID:    "claim-1",
		MatchScore: 75,
		Status:     AssignmentCandidate,
	}

	tests := []struct {
		mutate  func(*Assignment)
		name    string
		wantErr string
	}{
		{name: "valid", mutate: func(_ *Assignment) {}},
		{name: "missing id", mutate: func(a *Assignment) { a.ID = "" }, wantErr: "id is required"},
		{name: "missing document", mutate: func(a *Assignment) { a.DocumentID = "" }, wantErr: "document id"},
		{name: "missing claim", mutate: func(a *Assignment) { a.ClaimID = "" }, wantErr: "claim id"},
		{name: "score above cap", mutate: func(a *Assignment) { a.MatchScore = 101 }, wantErr: "between 0 and 100"},
		{name: "negative score", mutate: func(a *Assignment) { a.MatchScore = -1 }, wantErr: "between 0 and 100"},
		{name: "bad status", mutate: func(a *Assignment) { a.Status = "maybe" }, wantErr: "invalid assignment status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid
			tt.mutate(&a)
			err := a.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestDraftClaimValidate(t *testing.T) {
	valid := DraftClaim{
		ID:                "draft-1",
		Status:            DraftPending,
		PrimaryDocumentID: "doc-1",
	}

	tests := []struct {
		mutate  func(*DraftClaim)
		name    string
		wantErr string
	}{
		{name: "valid", mutate: func(_ *DraftClaim) {}},
		{name: "missing id", mutate: func(d *DraftClaim) { d.ID = "" }, wantErr: "id is required"},
		{name: "missing primary document", mutate: func(d *DraftClaim) { d.PrimaryDocumentID = "" }, wantErr: "primary document"},
		{name: "bad status", mutate: func(d *DraftClaim) { d.Status = "limbo" }, wantErr: "invalid draft claim status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			tt.mutate(&d)
			err := d.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestDraftClaimHasPaymentProof(t *testing.T) {
	var d DraftClaim
	assert.False(t, d.HasPaymentProof())

	d.PaymentProofText = "bank transfer"
	assert.True(t, d.HasPaymentProof())

	d.PaymentProofText = ""
	d.PaymentProofDocumentIDs = []string{"doc-9"}
	assert.True(t, d.HasPaymentProof())
}
