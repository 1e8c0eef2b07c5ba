package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akahusync/akahusync/pkg/accounts"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		suffixes []string
		want     string
	}{
		{name: "case folds", input: "EVERYDAY", want: "everyday"},
		{name: "strips diacritics", input: "Café Fund", want: "cafe fund"},
		{name: "punctuation becomes space", input: "Savings (Joint)", want: "savings joint"},
		{name: "collapses whitespace", input: "  My   Account  ", want: "my"},
		{name: "strips default suffix", input: "Everyday Account", want: "everyday"},
		{name: "strips stacked suffixes", input: "Everyday Bank Account", want: "everyday"},
		{name: "never empties", input: "Account", want: "account"},
		{name: "extra suffix", input: "Everyday NZD", suffixes: []string{"nzd"}, want: "everyday"},
		{name: "keeps digits", input: "Visa 4321", want: "visa 4321"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input, tt.suffixes...))
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("everyday", "everyday"))
	assert.Equal(t, 0.0, similarity("", ""))
	assert.Equal(t, 0.0, similarity("everyday", ""))

	// One-character edits score close to 1.
	assert.InDelta(t, 0.875, similarity("everyday", "everydai"), 0.001)

	// Token containment keeps plausible superset names above the
	// suggestion threshold.
	assert.GreaterOrEqual(t, similarity("savings", "savings joint"), 0.8)
	assert.Less(t, similarity("savings", "holiday fund"), 0.4)
}

func TestRankDeterministicTieBreak(t *testing.T) {
	candidates := []accounts.Record{
		{ID: "id_2", Name: "savings b"},
		{ID: "id_1", Name: "savings a"},
		{ID: "id_3", Name: "savings a"},
	}

	ranked := rank("savings", candidates, nil)
	require.Len(t, ranked, 3)

	// Equal scores break on name, then id.
	assert.Equal(t, "id_1", ranked[0].Account.ID)
	assert.Equal(t, "id_3", ranked[1].Account.ID)
	assert.Equal(t, "id_2", ranked[2].Account.ID)
}
