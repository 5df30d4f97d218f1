// Package config resolves application configuration from viper.
package config

import (
	"github.com/spf13/viper"

	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/engine"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/payment"
)

// defaultDatabasePath is used when database.path is not configured.
const defaultDatabasePath = "$HOME/.local/share/claimtrack/claimtrack.db"

// SetDefaults registers every configurable key with its default value so a
// bare invocation works without a config file.
func SetDefaults() {
	viper.SetDefault("database.path", defaultDatabasePath)

	scoring := engine.DefaultScoringConfig()
	viper.SetDefault("matching.exact_tolerance_pct", scoring.ExactAmountTolerancePct)
	viper.SetDefault("matching.approx_tolerance_pct", scoring.ApproxAmountTolerancePct)
	viper.SetDefault("matching.exact_amount_score", scoring.ExactAmountScore)
	viper.SetDefault("matching.approx_amount_score", scoring.ApproxAmountScore)
	viper.SetDefault("matching.date_bonus", scoring.DateBonus)
	viper.SetDefault("matching.date_penalty", scoring.DatePenalty)
	viper.SetDefault("matching.missing_date_penalty", scoring.MissingDatePenalty)
	viper.SetDefault("matching.keyword_bonus", scoring.KeywordBonus)
	viper.SetDefault("matching.calendar_day_zero_bonus", scoring.CalendarDayZeroBonus)
	viper.SetDefault("matching.date_window_days", scoring.DateWindowDays)
	viper.SetDefault("matching.date_penalty_threshold_days", scoring.DatePenaltyThresholdDays)
	viper.SetDefault("matching.max_date_mismatch_days", scoring.MaxDateMismatchDays)
	viper.SetDefault("matching.min_candidate_score", scoring.MinCandidateScore)
	viper.SetDefault("matching.top_matches", engine.DefaultConfig().TopMatches)

	proof := payment.DefaultProofConfig()
	viper.SetDefault("proof.max_documents", proof.MaxDocuments)
	viper.SetDefault("proof.date_window_days", proof.DateWindowDays)
}

// DatabasePath returns the resolved SQLite database path.
func DatabasePath() string {
	path := viper.GetString("database.path")
	if path == "" {
		path = defaultDatabasePath
	}
	return ExpandPath(path)
}

// EngineConfig builds the matching engine configuration from viper.
func EngineConfig() engine.Config {
	return engine.Config{
		Scoring: engine.ScoringConfig{
			ExactAmountTolerancePct:  viper.GetFloat64("matching.exact_tolerance_pct"),
			ApproxAmountTolerancePct: viper.GetFloat64("matching.approx_tolerance_pct"),
			ExactAmountScore:         viper.GetFloat64("matching.exact_amount_score"),
			ApproxAmountScore:        viper.GetFloat64("matching.approx_amount_score"),
			DateBonus:                viper.GetFloat64("matching.date_bonus"),
			DatePenalty:              viper.GetFloat64("matching.date_penalty"),
			MissingDatePenalty:       viper.GetFloat64("matching.missing_date_penalty"),
			KeywordBonus:             viper.GetFloat64("matching.keyword_bonus"),
			CalendarDayZeroBonus:     viper.GetFloat64("matching.calendar_day_zero_bonus"),
			DateWindowDays:           viper.GetInt("matching.date_window_days"),
			DatePenaltyThresholdDays: viper.GetInt("matching.date_penalty_threshold_days"),
			MaxDateMismatchDays:      viper.GetInt("matching.max_date_mismatch_days"),
			MinCandidateScore:        viper.GetFloat64("matching.min_candidate_score"),
		},
		TopMatches:      viper.GetInt("matching.top_matches"),
		ClearCandidates: true,
	}
}

// ProofConfig builds the proof resolver configuration from viper. The proof
// keyword vocabulary is fixed; only limits are tunable.
func ProofConfig() payment.ProofConfig {
	cfg := payment.DefaultProofConfig()
	cfg.MaxDocuments = viper.GetInt("proof.max_documents")
	cfg.DateWindowDays = viper.GetInt("proof.date_window_days")
	return cfg
}
