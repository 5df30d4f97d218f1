package model

import (
	"fmt"
	"time"
)

// DraftClaimStatus tracks a draft claim through the accept/reject workflow.
type DraftClaimStatus string

// Draft claim status constants.
const (
	DraftPending  DraftClaimStatus = "pending"
	DraftAccepted DraftClaimStatus = "accepted"
	DraftRejected DraftClaimStatus = "rejected"
)

// TreatmentDateSource records how a draft claim's treatment date was resolved.
type TreatmentDateSource string

// Treatment date source constants.
const (
	TreatmentDateManual   TreatmentDateSource = "manual"
	TreatmentDateCalendar TreatmentDateSource = "calendar"
)

// PaymentSource identifies which document field a payment signal came from.
type PaymentSource string

// Payment source constants.
const (
	PaymentSourceDetected PaymentSource = "detected"
	PaymentSourceOverride PaymentSource = "override"
)

// PaymentSnapshot captures a document's payment signal at draft generation
// time. It is immutable: later edits to the source document do not flow back.
type PaymentSnapshot struct {
	OverrideUpdatedAt *time.Time    `json:"override_updated_at,omitempty"`
	Currency          string        `json:"currency"`
	Source            PaymentSource `json:"source"`
	RawText           string        `json:"raw_text,omitempty"`
	Context           string        `json:"context,omitempty"`
	OverrideNote      string        `json:"override_note,omitempty"`
	Amount            float64       `json:"amount"`
	Confidence        int           `json:"confidence"`
}

// DraftClaim is a provisional claim built from an unattached payment document.
type DraftClaim struct {
	GeneratedAt             time.Time
	UpdatedAt               time.Time
	AcceptedAt              *time.Time
	RejectedAt              *time.Time
	TreatmentDate           *time.Time
	ID                      string
	Status                  DraftClaimStatus
	PrimaryDocumentID       string
	IllnessID               string
	DoctorNotes             string
	TreatmentDateSource     TreatmentDateSource
	PaymentProofText        string
	DocumentIDs             []string
	PaymentProofDocumentIDs []string
	CalendarDocumentIDs     []string
	Payment                 PaymentSnapshot
}

// Validate ensures the draft claim has valid data.
func (d *DraftClaim) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("draft claim id is required")
	}
	if d.PrimaryDocumentID == "" {
		return fmt.Errorf("primary document id is required")
	}
	switch d.Status {
	case DraftPending, DraftAccepted, DraftRejected:
	default:
		return fmt.Errorf("invalid draft claim status: %q", d.Status)
	}
	return nil
}

// HasPaymentProof reports whether any proof-of-payment evidence is attached.
func (d *DraftClaim) HasPaymentProof() bool {
	return len(d.PaymentProofDocumentIDs) > 0 || d.PaymentProofText != ""
}
