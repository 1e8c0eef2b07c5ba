// Package matcher proposes target-platform counterparts for Akahu accounts
// that have no mapping entry yet. Candidates are ranked by normalized name
// similarity; only an unambiguous exact normalized match is accepted
// automatically. Everything else escalates to the optional
// language-model assistant and then to the human prompter. Declining is a
// terminal outcome recorded on the entry so the same account is never asked
// about twice.
package matcher

import (
	"context"

	"github.com/akahusync/akahusync/pkg/accounts"
	"github.com/akahusync/akahusync/pkg/errors"
	"github.com/akahusync/akahusync/pkg/logging"
	"github.com/akahusync/akahusync/pkg/mapping"
)

// Scoring constants. Auto-accept requires an exact normalized match, so
// MinScore and TieTolerance only shape what the escalation paths see:
// candidates below MinScore are not suggested, and a runner-up within
// TieTolerance of the best marks the case ambiguous.
const (
	DefaultMinScore     = 0.55
	DefaultTieTolerance = 0.08

	// exactScore guards float comparison for score 1.0.
	exactScore = 0.9999

	// defaultMaxCandidates caps how many candidates are shown to the
	// assistant and the prompter.
	defaultMaxCandidates = 5
)

// Assistant is the optional language-model disambiguation capability. It
// returns the chosen candidate account id, or "" for an explicit none.
// Errors are recoverable: the matcher degrades to the prompter.
type Assistant interface {
	Disambiguate(ctx context.Context, sourceName string, candidates []accounts.Record) (string, error)
}

// Outcome classifies one matching decision.
type Outcome string

// Outcomes.
const (
	OutcomeAuto     Outcome = "auto"     // exact normalized match, no prompt
	OutcomeAI       Outcome = "ai"       // assistant chose from the candidate set
	OutcomeManual   Outcome = "manual"   // operator confirmed
	OutcomeSkipped  Outcome = "skipped"  // operator declined, recorded as do-not-map
	OutcomeUnmapped Outcome = "unmapped" // left for a future run
)

// Decision records the outcome for one source account.
type Decision struct {
	AkahuAccountID string
	AkahuName      string
	Outcome        Outcome
	TargetID       string
	TargetName     string
	Score          float64
}

// Result summarizes one matching pass over a platform.
type Result struct {
	Platform  accounts.Platform
	Decisions []Decision
}

// Count returns how many decisions had the given outcome.
func (r *Result) Count(outcome Outcome) int {
	n := 0
	for _, d := range r.Decisions {
		if d.Outcome == outcome {
			n++
		}
	}
	return n
}

// Matcher proposes and records account bindings for one target platform.
type Matcher interface {
	// Match updates doc.Mapping in place for every active Akahu account
	// lacking a binding on the platform. Only mapping fields for that
	// platform are touched.
	Match(ctx context.Context, doc *mapping.Document, platform accounts.Platform) (*Result, error)
}

// matcher is the default implementation of Matcher.
type matcher struct {
	minScore      float64
	tieTolerance  float64
	maxCandidates int
	assistant     Assistant
	prompter      Prompter
	rules         *Rules
	budgetIDs     map[accounts.Platform]string
}

// Option configures a Matcher.
type Option func(*matcher)

// WithAssistant enables language-model disambiguation for ambiguous cases.
func WithAssistant(a Assistant) Option {
	return func(m *matcher) { m.assistant = a }
}

// WithPrompter sets the human confirmation capability. Without one the
// matcher runs non-interactively and leaves ambiguous accounts unmapped.
func WithPrompter(p Prompter) Option {
	return func(m *matcher) { m.prompter = p }
}

// WithRules sets operator matching rules (aliases, extra suffixes).
func WithRules(r *Rules) Option {
	return func(m *matcher) { m.rules = r }
}

// WithMinScore overrides the minimum suggestion score.
func WithMinScore(score float64) Option {
	return func(m *matcher) { m.minScore = score }
}

// WithTieTolerance overrides the ambiguity tolerance.
func WithTieTolerance(tolerance float64) Option {
	return func(m *matcher) { m.tieTolerance = tolerance }
}

// WithBudgetID sets the budget/workspace id written alongside bindings for
// the given platform.
func WithBudgetID(platform accounts.Platform, budgetID string) Option {
	return func(m *matcher) { m.budgetIDs[platform] = budgetID }
}

// New creates a Matcher.
func New(opts ...Option) Matcher {
	m := &matcher{
		minScore:      DefaultMinScore,
		tieTolerance:  DefaultTieTolerance,
		maxCandidates: defaultMaxCandidates,
		budgetIDs:     map[accounts.Platform]string{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match implements Matcher.
func (m *matcher) Match(ctx context.Context, doc *mapping.Document, platform accounts.Platform) (*Result, error) {
	targetCatalog := doc.Catalog(platform)
	if targetCatalog == nil || platform == accounts.PlatformAkahu {
		return nil, &errors.ValidationError{
			Field:   "platform",
			Value:   platform,
			Message: "not a matchable target platform",
		}
	}

	// Target accounts still free to bind: active and not already the
	// target of another entry.
	bound := doc.BoundTargets(platform)
	available := make([]accounts.Record, 0, len(targetCatalog))
	for _, rec := range targetCatalog.Active() {
		if _, taken := bound[rec.ID]; !taken {
			available = append(available, rec)
		}
	}

	result := &Result{Platform: platform}

	for _, src := range doc.AkahuAccounts.Active() {
		entry, ok := doc.Mapping[src.ID]
		if !ok {
			// Stubs are created by the reconciler before matching.
			continue
		}
		if entry.HasTarget(platform) || entry.Skipped(platform) {
			continue
		}

		decision := m.decide(ctx, src, available)
		result.Decisions = append(result.Decisions, decision)

		switch decision.Outcome {
		case OutcomeAuto, OutcomeAI, OutcomeManual:
			method := mapping.MatchMethodAuto
			if decision.Outcome == OutcomeAI {
				method = mapping.MatchMethodAI
			} else if decision.Outcome == OutcomeManual {
				method = mapping.MatchMethodManual
			}
			if err := entry.SetTarget(platform, decision.TargetID, m.budgetIDs[platform], method); err != nil {
				return nil, err
			}
			available = removeAccount(available, decision.TargetID)

			logging.Info().
				Str("platform", string(platform)).
				Str("akahu_account", src.Name).
				Str("target_account", decision.TargetName).
				Str("outcome", string(decision.Outcome)).
				Float64("score", decision.Score).
				Msg("Account matched")

		case OutcomeSkipped:
			entry.MarkSkip(platform)
			logging.Info().
				Str("platform", string(platform)).
				Str("akahu_account", src.Name).
				Msg("Account marked do-not-map")

		case OutcomeUnmapped:
			logging.Debug().
				Str("platform", string(platform)).
				Str("akahu_account", src.Name).
				Msg("Account left unmapped")
		}
	}

	return result, nil
}

// decide scores the available candidates for one source account and applies
// the decision policy.
func (m *matcher) decide(ctx context.Context, src accounts.Record, available []accounts.Record) Decision {
	decision := Decision{
		AkahuAccountID: src.ID,
		AkahuName:      src.Name,
		Outcome:        OutcomeUnmapped,
	}

	if len(available) == 0 {
		return decision
	}

	normalized := m.rules.apply(Normalize(src.Name, m.rules.suffixes()...))
	ranked := rank(normalized, available, m.rules)

	exact := 0
	for _, c := range ranked {
		if c.Score < exactScore {
			break
		}
		exact++
	}
	// Auto-accept needs an unambiguous winner: exactly one exact match and
	// no runner-up plausible enough to suggest.
	if exact == 1 && (len(ranked) < 2 || ranked[1].Score < m.minScore) {
		decision.Outcome = OutcomeAuto
		decision.TargetID = ranked[0].Account.ID
		decision.TargetName = ranked[0].Account.Name
		decision.Score = ranked[0].Score
		return decision
	}

	// Ambiguous: several exact candidates, a tie within tolerance, or no
	// exact candidate at all. Build the shortlist shown to the assistant
	// and the prompter.
	shortlist := m.shortlist(ranked)
	if len(shortlist) == 0 {
		return decision
	}

	if m.assistant != nil {
		if chosen := m.askAssistant(ctx, src, shortlist); chosen != nil {
			decision.Outcome = OutcomeAI
			decision.TargetID = chosen.Account.ID
			decision.TargetName = chosen.Account.Name
			decision.Score = chosen.Score
			return decision
		}
	}

	if m.prompter == nil {
		return decision
	}

	sel, err := m.prompter.Propose(src, shortlist)
	if err != nil {
		logging.Warn().
			Err(err).
			Str("akahu_account", src.Name).
			Msg("Prompt failed, leaving account unmapped")
		return decision
	}
	if sel.Skip {
		decision.Outcome = OutcomeSkipped
		return decision
	}
	if sel.Index < 0 || sel.Index >= len(shortlist) {
		return decision
	}

	decision.Outcome = OutcomeManual
	decision.TargetID = shortlist[sel.Index].Account.ID
	decision.TargetName = shortlist[sel.Index].Account.Name
	decision.Score = shortlist[sel.Index].Score
	return decision
}

// shortlist takes the ranked candidates worth presenting: those at or above
// the minimum score, plus anything within the tie tolerance of the best so a
// near-tie is never hidden. Failing both, the top few are kept so the
// operator still has something to confirm against.
func (m *matcher) shortlist(ranked []Candidate) []Candidate {
	var out []Candidate
	best := ranked[0].Score
	for _, c := range ranked {
		if c.Score >= m.minScore || (best >= m.minScore && c.Score >= best-m.tieTolerance) {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		n := len(ranked)
		if n > 3 {
			n = 3
		}
		out = ranked[:n]
	}
	if len(out) > m.maxCandidates {
		out = out[:m.maxCandidates]
	}
	return out
}

// askAssistant runs one disambiguation call. Any failure or out-of-set
// answer degrades to nil; the assistant is never fatal to the run.
func (m *matcher) askAssistant(ctx context.Context, src accounts.Record, shortlist []Candidate) *Candidate {
	records := make([]accounts.Record, len(shortlist))
	for i, c := range shortlist {
		records[i] = c.Account
	}

	chosen, err := m.assistant.Disambiguate(ctx, src.Name, records)
	if err != nil {
		logging.Warn().
			Err(err).
			Str("akahu_account", src.Name).
			Msg("Disambiguation assistant unavailable, falling back")
		return nil
	}
	if chosen == "" {
		return nil
	}
	for i := range shortlist {
		if shortlist[i].Account.ID == chosen {
			return &shortlist[i]
		}
	}

	// An answer outside the candidate set is never trusted.
	logging.Warn().
		Str("akahu_account", src.Name).
		Str("chosen_id", chosen).
		Msg("Assistant answered outside the candidate set, ignoring")
	return nil
}

// removeAccount drops the account with the given id from the slice.
func removeAccount(list []accounts.Record, id string) []accounts.Record {
	for i := range list {
		if list[i].ID == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
