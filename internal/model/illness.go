package model

import (
	"strings"
	"time"
)

// ProviderAccount is a billing contact (provider or payer) attached to an
// illness, extracted from matched documents.
type ProviderAccount struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// Illness groups claims, documents, and provider contacts for one condition.
type Illness struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	ID        string
	Name      string
	Accounts  []ProviderAccount
}

// MergeAccounts returns existing with any new accounts from incoming
// appended, deduplicated by lower-cased email. Entries without an email are
// dropped. The existing slice order is preserved.
func MergeAccounts(existing, incoming []ProviderAccount) []ProviderAccount {
	seen := make(map[string]bool, len(existing))
	merged := make([]ProviderAccount, 0, len(existing)+len(incoming))
	for _, acc := range existing {
		key := strings.ToLower(strings.TrimSpace(acc.Email))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, acc)
	}
	for _, acc := range incoming {
		key := strings.ToLower(strings.TrimSpace(acc.Email))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, acc)
	}
	return merged
}
