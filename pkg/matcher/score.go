package matcher

import (
	"sort"
	"strings"

	"github.com/akahusync/akahusync/pkg/accounts"
)

// Candidate is a target-platform account scored against a source name.
type Candidate struct {
	Account accounts.Record
	Score   float64
}

// rank scores every candidate account against the normalized source name and
// returns them best-first. Ties break on account name, then id, so ranking
// is deterministic across runs.
func rank(normalizedSource string, candidates []accounts.Record, rules *Rules) []Candidate {
	ranked := make([]Candidate, 0, len(candidates))
	for _, rec := range candidates {
		target := rules.apply(Normalize(rec.Name, rules.suffixes()...))
		ranked = append(ranked, Candidate{
			Account: rec,
			Score:   similarity(normalizedSource, target),
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].Account.Name != ranked[j].Account.Name {
			return ranked[i].Account.Name < ranked[j].Account.Name
		}
		return ranked[i].Account.ID < ranked[j].Account.ID
	})
	return ranked
}

// suffixes returns the operator's extra suffix tokens, if any.
func (r *Rules) suffixes() []string {
	if r == nil {
		return nil
	}
	return r.Suffixes
}

// containmentScore is the floor for names whose tokens are a subset of the
// other's ("savings" vs "savings joint"). Edit distance alone undervalues
// these, and they are exactly the pairs that need a human or assistant.
const containmentScore = 0.8

// similarity scores two normalized names in [0,1]: 1.0 for identical
// strings, otherwise scaled Levenshtein distance with a floor when one
// name's tokens are contained in the other's.
func similarity(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	ra := []rune(a)
	rb := []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	score := 1 - float64(levenshtein(ra, rb))/float64(longest)

	if score < containmentScore && (tokenSubset(a, b) || tokenSubset(b, a)) {
		score = containmentScore
	}
	return score
}

// tokenSubset reports whether every token of inner appears in outer.
func tokenSubset(inner, outer string) bool {
	outerTokens := strings.Fields(outer)
	for _, tok := range strings.Fields(inner) {
		if !containsToken(outerTokens, tok) {
			return false
		}
	}
	return true
}

// levenshtein computes edit distance with a single rolling row.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}

	for i := 1; i <= len(a); i++ {
		prev := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			next := min3(row[j]+1, row[j-1]+1, prev+cost)
			prev = row[j]
			row[j] = next
		}
	}
	return row[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
