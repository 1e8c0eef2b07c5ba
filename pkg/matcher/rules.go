package matcher

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/akahusync/akahusync/pkg/errors"
)

// Rules are operator-maintained matching hints loaded from an optional YAML
// file. Aliases rewrite a normalized source name before scoring, for cases
// where the bank's product name and the budget's account name share nothing
// ("TotalMoney" vs "Everyday"). Suffixes extend the built-in list of
// ignorable trailing tokens.
type Rules struct {
	Aliases  map[string]string `yaml:"aliases"`
	Suffixes []string          `yaml:"suffixes"`
}

// LoadRules reads a rules file. A missing path returns empty rules; a
// present but malformed file is an error so a typo doesn't silently disable
// every alias.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return &Rules{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Rules{}, nil
		}
		return nil, errors.WrapIO("read", path, err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}

	// Alias keys and values are matched post-normalization, so normalize
	// what the operator wrote.
	if len(rules.Aliases) > 0 {
		normalized := make(map[string]string, len(rules.Aliases))
		for from, to := range rules.Aliases {
			normalized[Normalize(from)] = Normalize(to)
		}
		rules.Aliases = normalized
	}

	return &rules, nil
}

// apply rewrites a normalized name through the alias table.
func (r *Rules) apply(normalized string) string {
	if r == nil || len(r.Aliases) == 0 {
		return normalized
	}
	if alias, ok := r.Aliases[normalized]; ok {
		return alias
	}
	return normalized
}
