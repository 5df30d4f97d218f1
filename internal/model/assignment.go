package model

import (
	"fmt"
	"time"
)

// AssignmentStatus tracks a document-claim assignment through human review.
type AssignmentStatus string

// Assignment status constants.
const (
	AssignmentCandidate AssignmentStatus = "candidate"
	AssignmentConfirmed AssignmentStatus = "confirmed"
	AssignmentRejected  AssignmentStatus = "rejected"
)

// MatchReasonType categorizes why a document was matched to a claim.
type MatchReasonType string

// Match reason constants, ordered by how strong a signal they are.
const (
	ReasonExactAmount       MatchReasonType = "exact_amount"
	ReasonApproximateAmount MatchReasonType = "approximate_amount"
	ReasonLineItemAmount    MatchReasonType = "line_item_amount"
	ReasonDateProximity     MatchReasonType = "date_proximity"
	ReasonKeywordMatch      MatchReasonType = "keyword_match"
	ReasonCalendarKeyword   MatchReasonType = "calendar_keyword"
)

// AmountMatchDetails is a snapshot of the amount comparison that contributed
// to a match score.
type AmountMatchDetails struct {
	Currency       string  `json:"currency"`
	DocumentAmount float64 `json:"document_amount"`
	ClaimAmount    float64 `json:"claim_amount"`
	DifferencePct  float64 `json:"difference_pct"`
	LineItemMatch  bool    `json:"line_item_match,omitempty"`
}

// DateMatchDetails is a snapshot of the date comparison that contributed to a
// match score.
type DateMatchDetails struct {
	DocumentDate time.Time `json:"document_date"`
	ClaimDate    time.Time `json:"claim_date"`
	DistanceDays int       `json:"distance_days"`
}

// Assignment links a document to a claim with a match score, awaiting human
// review. At most one assignment exists per (document, claim) pair.
type Assignment struct {
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ConfirmedAt       *time.Time
	RejectedAt        *time.Time
	AmountMatch       *AmountMatchDetails
	DateMatch         *DateMatchDetails
	ID                string
	DocumentID        string
	ClaimID           string
	MatchReasonType   MatchReasonType
	MatchReason       string
	Status            AssignmentStatus
	ReviewNotes       string
	ConfirmedIllnessID string
	MatchScore        float64
}

// Validate ensures the assignment has valid data.
func (a *Assignment) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("assignment id is required")
	}
	if a.DocumentID == "" {
		return fmt.Errorf("document id is required")
	}
	if a.ClaimID == "" {
		return fmt.Errorf("claim id is required")
	}
	if a.MatchScore < 0 || a.MatchScore > 100 {
		return fmt.Errorf("match score must be between 0 and 100, got %.2f", a.MatchScore)
	}
	switch a.Status {
	case AssignmentCandidate, AssignmentConfirmed, AssignmentRejected:
	default:
		return fmt.Errorf("invalid assignment status: %q", a.Status)
	}
	return nil
}
