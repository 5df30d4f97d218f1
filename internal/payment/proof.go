package payment

import (
	"math"
	"sort"
	"strings"

	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/model"
)

// Proof score weights. Amount agreement dominates; everything else is a
// tiebreaker on top of it.
const (
	proofScoreAmountMatch = 4
	proofScoreReceipt     = 2
	proofScoreKeywords    = 2
	proofScoreSameThread  = 1
	proofScoreDateWindow  = 1
)

// amountEpsilon absorbs float noise when comparing a candidate's detected
// amounts against the payment snapshot.
const amountEpsilon = 0.005

// defaultProofKeywords is the fixed proof-of-payment vocabulary. Matching is
// case-insensitive substring search across the candidate's text surfaces.
var defaultProofKeywords = []string{
	"proof of payment",
	"payment confirmation",
	"payment receipt",
	"payment received",
	"bank transfer",
	"wire transfer",
	"transaction",
	"remittance",
	"paid in full",
}

// ProofConfig tunes proof-of-payment candidate selection.
type ProofConfig struct {
	Keywords       []string
	MaxDocuments   int
	DateWindowDays int
}

// DefaultProofConfig returns the default proof selection configuration.
func DefaultProofConfig() ProofConfig {
	return ProofConfig{
		Keywords:       defaultProofKeywords,
		MaxDocuments:   3,
		DateWindowDays: 7,
	}
}

// ProofResolver ranks documents as candidate proof-of-payment evidence for a
// draft claim's payment snapshot.
type ProofResolver struct {
	cfg ProofConfig
}

// NewProofResolver creates a proof resolver with the given configuration.
func NewProofResolver(cfg ProofConfig) *ProofResolver {
	if cfg.MaxDocuments <= 0 {
		cfg.MaxDocuments = DefaultProofConfig().MaxDocuments
	}
	if len(cfg.Keywords) == 0 {
		cfg.Keywords = defaultProofKeywords
	}
	return &ProofResolver{cfg: cfg}
}

type proofCandidate struct {
	doc         model.Document
	score       int
	amountMatch bool
}

// Resolve returns the best proof-of-payment documents for the primary
// document's payment snapshot, ranked by score and capped to the configured
// limit. An amount-matching candidate anywhere in the pool disqualifies all
// non-matching candidates.
func (r *ProofResolver) Resolve(pool []model.Document, primary model.Document, snapshot model.PaymentSnapshot) []model.Document {
	var candidates []proofCandidate
	anyAmountMatch := false

	for _, doc := range pool {
		if doc.ID == primary.ID || doc.IsArchived() || doc.SourceType == model.SourceCalendar {
			continue
		}

		isReceipt := doc.Classification == model.ClassificationReceipt
		hasKeywords := r.hasProofKeywords(doc)
		if !isReceipt && !hasKeywords {
			continue
		}

		cand := proofCandidate{doc: doc}
		if matchesSnapshotAmount(doc, snapshot) {
			cand.amountMatch = true
			anyAmountMatch = true
			cand.score += proofScoreAmountMatch
		}
		if isReceipt {
			cand.score += proofScoreReceipt
		}
		if hasKeywords {
			cand.score += proofScoreKeywords
		}
		if primary.ThreadID != "" && doc.ThreadID == primary.ThreadID {
			cand.score += proofScoreSameThread
		}
		if r.withinDateWindow(doc, primary) {
			cand.score += proofScoreDateWindow
		}

		if cand.score > 0 {
			candidates = append(candidates, cand)
		}
	}

	if anyAmountMatch {
		filtered := candidates[:0]
		for _, cand := range candidates {
			if cand.amountMatch {
				filtered = append(filtered, cand)
			}
		}
		candidates = filtered
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	limit := r.cfg.MaxDocuments
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	result := make([]model.Document, 0, len(candidates))
	for _, cand := range candidates {
		result = append(result, cand.doc)
	}
	return result
}

// hasProofKeywords checks the proof vocabulary against every text surface the
// document exposes.
func (r *ProofResolver) hasProofKeywords(doc model.Document) bool {
	haystack := strings.ToLower(strings.Join([]string{
		doc.Subject, doc.Snippet, doc.OCRText, doc.Filename, doc.SenderName, doc.SenderEmail,
	}, "\n"))
	for _, kw := range r.cfg.Keywords {
		if strings.Contains(haystack, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func (r *ProofResolver) withinDateWindow(doc, primary model.Document) bool {
	docDate := doc.EffectiveDate()
	primaryDate := primary.EffectiveDate()
	if docDate == nil || primaryDate == nil {
		return false
	}
	days := math.Abs(docDate.Sub(*primaryDate).Hours() / 24)
	return days <= float64(r.cfg.DateWindowDays)
}

// matchesSnapshotAmount reports whether any of the document's detected
// amounts equals the snapshot amount in the same currency.
func matchesSnapshotAmount(doc model.Document, snapshot model.PaymentSnapshot) bool {
	for _, amt := range doc.DetectedAmounts {
		if amt.Currency != snapshot.Currency {
			continue
		}
		if math.Abs(amt.Value-snapshot.Amount) < amountEpsilon {
			return true
		}
	}
	return false
}
