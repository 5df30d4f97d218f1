package model

import "time"

// ClaimLineItem is one billed position on an insurer claim.
type ClaimLineItem struct {
	TreatmentDate *time.Time `json:"treatment_date,omitempty"`
	Description   string     `json:"description"`
	Currency      string     `json:"currency"`
	Amount        float64    `json:"amount"`
}

// Claim represents an insurer claim record scraped from the insurer portal.
type Claim struct {
	TreatmentDate  *time.Time
	SubmissionDate *time.Time
	ID             string
	ClaimCurrency  string
	LineItems      []ClaimLineItem
	ClaimAmount    float64
}
