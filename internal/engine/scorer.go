// Package engine implements the document-claim matching engine: a pure match
// scorer and the assignment orchestration around it.
package engine

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/model"
)

// ScoringConfig holds every tunable threshold the scorer uses. The algorithm
// structure never depends on the concrete values.
type ScoringConfig struct {
	// Amount tolerances, as a percentage of the claim amount.
	ExactAmountTolerancePct  float64
	ApproxAmountTolerancePct float64

	// Score contributions.
	ExactAmountScore     float64
	ApproxAmountScore    float64
	DateBonus            float64
	DatePenalty          float64
	MissingDatePenalty   float64
	KeywordBonus         float64
	CalendarDayZeroBonus float64

	// Date windows, in days.
	DateWindowDays           int
	DatePenaltyThresholdDays int
	MaxDateMismatchDays      int

	// Acceptance gate.
	MinCandidateScore float64
}

// DefaultScoringConfig returns the default scoring thresholds.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		ExactAmountTolerancePct:  1.0,
		ApproxAmountTolerancePct: 10.0,
		ExactAmountScore:         50,
		ApproxAmountScore:        25,
		DateBonus:                20,
		DatePenalty:              -10,
		MissingDatePenalty:       -5,
		KeywordBonus:             10,
		CalendarDayZeroBonus:     10,
		DateWindowDays:           45,
		DatePenaltyThresholdDays: 90,
		MaxDateMismatchDays:      120,
		MinCandidateScore:        50,
	}
}

// MatchReason is one itemized contribution to a match score.
type MatchReason struct {
	Type        model.MatchReasonType
	Description string
}

// MatchResult is a scored document-claim pairing. Score is always within
// [0, 100].
type MatchResult struct {
	AmountMatch *model.AmountMatchDetails
	DateMatch   *model.DateMatchDetails
	Reasons     []MatchReason
	Score       float64
}

// Scorer scores one document against one claim. It is a pure function over
// its inputs and holds no state beyond configuration.
type Scorer struct {
	cfg ScoringConfig
}

// NewScorer creates a scorer with the given thresholds.
func NewScorer(cfg ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score evaluates a document against a claim. It returns nil when the pair is
// no match: either the date distance exceeds the rejection threshold or the
// accumulated score stays below the minimum candidate score.
func (s *Scorer) Score(doc model.Document, claim model.Claim) *MatchResult {
	result := &MatchResult{}
	total := 0.0

	total += s.scoreAmounts(doc, claim, result)

	dateScore, rejected := s.scoreDates(doc, claim, result)
	if rejected {
		return nil
	}
	total += dateScore

	total += s.scoreKeywords(doc, claim, result)

	if total < s.cfg.MinCandidateScore {
		return nil
	}
	result.Score = math.Min(total, 100)
	return result
}

// scoreAmounts compares the document's detected amounts against the claim
// total and each line item. Amounts in a different currency are never
// comparable.
func (s *Scorer) scoreAmounts(doc model.Document, claim model.Claim, result *MatchResult) float64 {
	bestAmount, bestDiff := closestAmount(doc.DetectedAmounts, claim.ClaimAmount, claim.ClaimCurrency)

	score := 0.0
	if bestDiff <= s.cfg.ExactAmountTolerancePct {
		score += s.cfg.ExactAmountScore
		result.Reasons = append(result.Reasons, MatchReason{
			Type:        model.ReasonExactAmount,
			Description: fmt.Sprintf("document amount %.2f %s matches claim amount %.2f within %.1f%%", bestAmount, claim.ClaimCurrency, claim.ClaimAmount, s.cfg.ExactAmountTolerancePct),
		})
	} else if bestDiff <= s.cfg.ApproxAmountTolerancePct {
		score += s.cfg.ApproxAmountScore
		result.Reasons = append(result.Reasons, MatchReason{
			Type:        model.ReasonApproximateAmount,
			Description: fmt.Sprintf("document amount %.2f %s is within %.1f%% of claim amount %.2f", bestAmount, claim.ClaimCurrency, s.cfg.ApproxAmountTolerancePct, claim.ClaimAmount),
		})
	}

	if !math.IsInf(bestDiff, 1) {
		result.AmountMatch = &model.AmountMatchDetails{
			Currency:       claim.ClaimCurrency,
			DocumentAmount: bestAmount,
			ClaimAmount:    claim.ClaimAmount,
			DifferencePct:  bestDiff,
		}
	}

	// An exact line-item match adds half the exact score, counted once no
	// matter how many line items match.
	for _, item := range claim.LineItems {
		itemAmount, itemDiff := closestAmount(doc.DetectedAmounts, item.Amount, item.Currency)
		if itemDiff <= s.cfg.ExactAmountTolerancePct {
			score += s.cfg.ExactAmountScore / 2
			result.Reasons = append(result.Reasons, MatchReason{
				Type:        model.ReasonLineItemAmount,
				Description: fmt.Sprintf("document amount %.2f %s matches line item %q", itemAmount, item.Currency, item.Description),
			})
			if result.AmountMatch != nil {
				result.AmountMatch.LineItemMatch = true
			}
			break
		}
	}

	return score
}

// scoreDates computes the day distance between the document's date and the
// claim's nearest treatment date. A distance beyond the maximum mismatch
// threshold rejects the pair outright, regardless of amount score.
func (s *Scorer) scoreDates(doc model.Document, claim model.Claim, result *MatchResult) (score float64, rejected bool) {
	docDate := doc.EffectiveDate()
	claimDate, distance := nearestClaimDate(claim, docDate)
	if docDate == nil || claimDate == nil {
		// Date relevance is unverifiable.
		return s.cfg.MissingDatePenalty, false
	}

	result.DateMatch = &model.DateMatchDetails{
		DocumentDate: *docDate,
		ClaimDate:    *claimDate,
		DistanceDays: distance,
	}

	switch {
	case distance > s.cfg.MaxDateMismatchDays:
		return 0, true
	case distance > s.cfg.DatePenaltyThresholdDays:
		return s.cfg.DatePenalty, false
	case distance <= s.cfg.DateWindowDays:
		// Calendar events carry no amounts, so date proximity is their
		// primary signal and earns the exact-amount magnitude.
		maxBonus := s.cfg.DateBonus
		isCalendar := doc.SourceType == model.SourceCalendar
		if isCalendar {
			maxBonus = s.cfg.ExactAmountScore
		}
		bonus := maxBonus * (1 - float64(distance)/float64(s.cfg.DateWindowDays))
		if isCalendar && distance == 0 {
			bonus += s.cfg.CalendarDayZeroBonus
		}
		result.Reasons = append(result.Reasons, MatchReason{
			Type:        model.ReasonDateProximity,
			Description: fmt.Sprintf("document date is %d days from treatment date", distance),
		})
		return bonus, false
	default:
		// Between the proximity window and the penalty threshold:
		// neither bonus nor penalty.
		return 0, false
	}
}

// scoreKeywords awards a bonus once if any of the document's medical keywords
// appears in the claim's line-item descriptions. Calendar keyword matches
// score double since they also verify the appointment itself.
func (s *Scorer) scoreKeywords(doc model.Document, claim model.Claim, result *MatchResult) float64 {
	haystack := lineItemText(claim)
	if haystack == "" {
		return 0
	}

	isCalendar := doc.SourceType == model.SourceCalendar
	keywords := doc.MedicalKeywords
	if isCalendar {
		keywords = append(append([]string{}, keywords...), calendarTerms(doc)...)
	}

	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || !strings.Contains(haystack, kw) {
			continue
		}
		if isCalendar {
			result.Reasons = append(result.Reasons, MatchReason{
				Type:        model.ReasonCalendarKeyword,
				Description: fmt.Sprintf("calendar term %q appears in claim line items", kw),
			})
			return s.cfg.KeywordBonus * 2
		}
		result.Reasons = append(result.Reasons, MatchReason{
			Type:        model.ReasonKeywordMatch,
			Description: fmt.Sprintf("medical keyword %q appears in claim line items", kw),
		})
		return s.cfg.KeywordBonus
	}
	return 0
}

// closestAmount returns the detected amount in the target currency with the
// smallest absolute percentage difference from target. Amounts in other
// currencies are treated as infinitely far away.
func closestAmount(amounts []model.DetectedAmount, target float64, currency string) (amount, diffPct float64) {
	diffPct = math.Inf(1)
	if target == 0 {
		return 0, diffPct
	}
	for _, amt := range amounts {
		if amt.Currency != currency {
			continue
		}
		diff := math.Abs(amt.Value-target) / math.Abs(target) * 100
		if diff < diffPct {
			diffPct = diff
			amount = amt.Value
		}
	}
	return amount, diffPct
}

// nearestClaimDate finds the claim date (treatment date or any line-item
// date) closest to the document date, returning the minimum day distance.
func nearestClaimDate(claim model.Claim, docDate *time.Time) (*time.Time, int) {
	if docDate == nil {
		return nil, 0
	}

	var best *time.Time
	bestDistance := 0
	consider := func(candidate *time.Time) {
		if candidate == nil {
			return
		}
		d := daysBetween(*docDate, *candidate)
		if best == nil || d < bestDistance {
			best = candidate
			bestDistance = d
		}
	}

	consider(claim.TreatmentDate)
	for i := range claim.LineItems {
		consider(claim.LineItems[i].TreatmentDate)
	}
	return best, bestDistance
}

func daysBetween(a, b time.Time) int {
	return int(math.Round(math.Abs(a.Sub(b).Hours()) / 24))
}

func lineItemText(claim model.Claim) string {
	if len(claim.LineItems) == 0 {
		return ""
	}
	parts := make([]string, 0, len(claim.LineItems))
	for _, item := range claim.LineItems {
		parts = append(parts, item.Description)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// calendarTerms extracts matchable words from a calendar event's summary and
// location. Short filler words are skipped.
func calendarTerms(doc model.Document) []string {
	var terms []string
	for _, field := range []string{doc.CalendarSummary, doc.CalendarLocation} {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		terms = append(terms, field)
		for _, word := range strings.Fields(field) {
			if len(word) >= 4 {
				terms = append(terms, word)
			}
		}
	}
	return terms
}
