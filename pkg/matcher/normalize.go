package matcher

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// defaultSuffixes are trailing tokens that institutions decorate account
// names with but carry no identity ("Everyday Account" vs "Everyday").
var defaultSuffixes = []string{
	"account",
	"acct",
	"ac",
	"bank",
	"limited",
	"ltd",
}

var (
	foldCaser = cases.Fold()

	// stripMarks removes diacritics after NFD decomposition so "Café" and
	// "Cafe" normalize identically.
	stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Normalize reduces an account name to its comparable form: case-folded,
// diacritics and punctuation stripped, whitespace collapsed, and common
// institution suffix tokens removed.
func Normalize(name string, extraSuffixes ...string) string {
	s, _, err := transform.String(stripMarks, name)
	if err != nil {
		s = name
	}
	s = foldCaser.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r):
			b.WriteRune(' ')
		}
	}

	tokens := strings.Fields(b.String())
	tokens = stripSuffixTokens(tokens, defaultSuffixes)
	tokens = stripSuffixTokens(tokens, extraSuffixes)

	return strings.Join(tokens, " ")
}

// stripSuffixTokens drops trailing tokens found in the suffix list, but never
// empties the name entirely: an account literally named "Account" keeps its
// one token.
func stripSuffixTokens(tokens, suffixes []string) []string {
	for len(tokens) > 1 {
		last := tokens[len(tokens)-1]
		if !containsToken(suffixes, last) {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

func containsToken(list []string, token string) bool {
	for _, s := range list {
		if s == token {
			return true
		}
	}
	return false
}
