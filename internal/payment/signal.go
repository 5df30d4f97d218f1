// Package payment resolves a document's payment signal and ranks candidate
// proof-of-payment documents. Everything here is pure: no storage access, no
// side effects.
package payment

import (
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/model"
)

// overrideConfidence is the confidence assigned to manual overrides. A human
// typed the number in, so it outranks any OCR detection.
const overrideConfidence = 100

// HasSignal reports whether the document carries any payment signal: a manual
// override or at least one detected amount.
func HasSignal(doc model.Document) bool {
	return doc.PaymentOverride != nil || len(doc.DetectedAmounts) > 0
}

// Signals returns every payment signal the document carries. While an
// override exists it is the sole signal; detected amounts are ignored
// entirely.
func Signals(doc model.Document) []model.PaymentSnapshot {
	if ov := doc.PaymentOverride; ov != nil {
		updatedAt := ov.UpdatedAt
		return []model.PaymentSnapshot{{
			Amount:            ov.Amount,
			Currency:          ov.Currency,
			Source:            model.PaymentSourceOverride,
			Confidence:        overrideConfidence,
			OverrideNote:      ov.Note,
			OverrideUpdatedAt: &updatedAt,
		}}
	}

	signals := make([]model.PaymentSnapshot, 0, len(doc.DetectedAmounts))
	for _, amt := range doc.DetectedAmounts {
		signals = append(signals, model.PaymentSnapshot{
			Amount:     amt.Value,
			Currency:   amt.Currency,
			Source:     model.PaymentSourceDetected,
			RawText:    amt.RawText,
			Context:    amt.Context,
			Confidence: amt.Confidence,
		})
	}
	return signals
}

// PrimarySignal picks the document's authoritative payment signal: highest
// confidence wins, ties broken by highest amount. Returns nil when the
// document has no signal at all.
func PrimarySignal(doc model.Document) *model.PaymentSnapshot {
	signals := Signals(doc)
	if len(signals) == 0 {
		return nil
	}

	best := signals[0]
	for _, sig := range signals[1:] {
		if sig.Confidence > best.Confidence {
			best = sig
			continue
		}
		if sig.Confidence == best.Confidence && sig.Amount > best.Amount {
			best = sig
		}
	}
	return &best
}
