// Package model defines the core domain models used throughout the application.
package model

import "time"

// DocumentSource identifies where a document was ingested from.
type DocumentSource string

// Document source constants.
const (
	SourceEmail      DocumentSource = "email"
	SourceAttachment DocumentSource = "attachment"
	SourceCalendar   DocumentSource = "calendar"
)

// Document classification tags. Classification is a free tag; these are the
// values the matching and generation paths care about.
const (
	ClassificationMedicalBill = "medical_bill"
	ClassificationReceipt     = "receipt"
	ClassificationAppointment = "appointment"
	ClassificationUnknown     = "unknown"
)

// DetectedAmount is a single monetary amount extracted from a document.
type DetectedAmount struct {
	Value      float64 `json:"value"`
	Currency   string  `json:"currency"`
	RawText    string  `json:"raw_text,omitempty"`
	Context    string  `json:"context,omitempty"`
	Confidence int     `json:"confidence"` // 0-100
}

// PaymentOverride is a manually entered payment amount. While present it is
// authoritative and detected amounts are ignored.
type PaymentOverride struct {
	UpdatedAt time.Time `json:"updated_at"`
	Currency  string    `json:"currency"`
	Note      string    `json:"note,omitempty"`
	Amount    float64   `json:"amount"`
}

// Document represents an ingested email, attachment, or calendar event.
type Document struct {
	Date             *time.Time
	CalendarStart    *time.Time
	CalendarEnd      *time.Time
	ArchivedAt       *time.Time
	PaymentOverride  *PaymentOverride
	ID               string
	SourceType       DocumentSource
	ThreadID         string
	Subject          string
	Snippet          string
	OCRText          string
	Filename         string
	SenderName       string
	SenderEmail      string
	Classification   string
	CalendarSummary  string
	CalendarLocation string
	DetectedAmounts  []DetectedAmount
	MedicalKeywords  []string
	CreatedAt        time.Time
}

// IsArchived reports whether the document has been archived. Archived
// documents are never proof or generation candidates.
func (d *Document) IsArchived() bool {
	return d.ArchivedAt != nil
}

// EffectiveDate returns the document's date, falling back to the calendar
// start for calendar events. Nil when the document carries no usable date.
func (d *Document) EffectiveDate() *time.Time {
	if d.Date != nil {
		return d.Date
	}
	return d.CalendarStart
}

// IsBill reports whether the document's classification is bill-like.
func (d *Document) IsBill() bool {
	return d.Classification == ClassificationMedicalBill || d.Classification == ClassificationReceipt
}
