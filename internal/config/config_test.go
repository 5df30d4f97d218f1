package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/engine"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Setenv("CLAIMTRACK_TEST_DIR", "/data/claimtrack")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "plain path", in: "/tmp/claims.db", want: "/tmp/claims.db"},
		{name: "tilde only", in: "~", want: home},
		{name: "tilde prefix", in: "~/claims.db", want: filepath.Join(home, "claims.db")},
		{name: "env var", in: "$CLAIMTRACK_TEST_DIR/claims.db", want: "/data/claimtrack/claims.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestEngineConfig_UsesDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	got := EngineConfig()
	want := engine.DefaultScoringConfig()
	assert.Equal(t, want, got.Scoring)
	assert.Equal(t, 5, got.TopMatches)
	assert.True(t, got.ClearCandidates)
}

func TestEngineConfig_OverridesFromViper(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	viper.Set("matching.exact_tolerance_pct", 0.5)
	viper.Set("matching.top_matches", 3)

	got := EngineConfig()
	assert.Equal(t, 0.5, got.Scoring.ExactAmountTolerancePct)
	assert.Equal(t, 3, got.TopMatches)
	assert.Equal(t, engine.DefaultScoringConfig().DateBonus, got.Scoring.DateBonus)
}

func TestProofConfig_KeepsKeywordVocabulary(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	viper.Set("proof.max_documents", 5)

	got := ProofConfig()
	assert.Equal(t, 5, got.MaxDocuments)
	assert.NotEmpty(t, got.Keywords)
}

func TestDatabasePath_Default(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	path := DatabasePath()
	assert.Contains(t, path, "claimtrack.db")
	assert.NotContains(t, path, "$HOME")
}
