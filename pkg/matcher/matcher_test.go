package matcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akahusync/akahusync/pkg/accounts"
	"github.com/akahusync/akahusync/pkg/mapping"
)

func newTestDocument(t *testing.T, akahu, ynab accounts.Catalog) *mapping.Document {
	t.Helper()
	doc := mapping.NewDocument()
	doc.AkahuAccounts = akahu
	doc.YNABAccounts = ynab
	doc.EnsureStubs()
	return doc
}

func record(id, name string) accounts.Record {
	return accounts.Record{ID: id, Name: name, Type: accounts.TypeChecking}
}

// stubAssistant returns a fixed answer and records whether it was asked.
type stubAssistant struct {
	answer string
	err    error
	asked  int
}

func (s *stubAssistant) Disambiguate(_ context.Context, _ string, _ []accounts.Record) (string, error) {
	s.asked++
	return s.answer, s.err
}

func TestMatchExactNameAutoAccepts(t *testing.T) {
	doc := newTestDocument(t,
		accounts.Catalog{"acc_1": record("acc_1", "Everyday Account")},
		accounts.Catalog{"yn_1": record("yn_1", "EVERYDAY")},
	)
	prompter := &ScriptedPrompter{}

	m := New(WithPrompter(prompter), WithBudgetID(accounts.PlatformYNAB, "budget-1"))
	result, err := m.Match(context.Background(), doc, accounts.PlatformYNAB)
	require.NoError(t, err)

	require.Len(t, result.Decisions, 1)
	assert.Equal(t, OutcomeAuto, result.Decisions[0].Outcome)
	assert.Equal(t, "yn_1", doc.Mapping["acc_1"].YNABAccountID)
	assert.Equal(t, "budget-1", doc.Mapping["acc_1"].YNABBudgetID)
	assert.Equal(t, mapping.MatchMethodAuto, doc.Mapping["acc_1"].YNABMatchedBy)
	assert.Empty(t, prompter.Asked, "exact match must not prompt")
}

func TestMatchAmbiguousCandidatesEscalate(t *testing.T) {
	doc := newTestDocument(t,
		accounts.Catalog{"acc_1": record("acc_1", "Savings")},
		accounts.Catalog{
			"yn_1": record("yn_1", "Savings"),
			"yn_2": record("yn_2", "Savings (Joint)"),
		},
	)
	prompter := &ScriptedPrompter{Answers: map[string]Selection{"acc_1": {Index: 0}}}

	m := New(WithPrompter(prompter))
	result, err := m.Match(context.Background(), doc, accounts.PlatformYNAB)
	require.NoError(t, err)

	require.Len(t, prompter.Asked, 1, "near-tie must escalate to the prompter")
	require.Len(t, result.Decisions, 1)
	assert.Equal(t, OutcomeManual, result.Decisions[0].Outcome)
	assert.Equal(t, "yn_1", doc.Mapping["acc_1"].YNABAccountID)
	assert.Equal(t, mapping.MatchMethodManual, doc.Mapping["acc_1"].YNABMatchedBy)
}

func TestMatchSkipIsTerminal(t *testing.T) {
	doc := newTestDocument(t,
		accounts.Catalog{"acc_1": record("acc_1", "Business Loan")},
		accounts.Catalog{"yn_1": record("yn_1", "Holiday Fund")},
	)
	prompter := &ScriptedPrompter{Answers: map[string]Selection{"acc_1": {Skip: true}}}
	m := New(WithPrompter(prompter))

	_, err := m.Match(context.Background(), doc, accounts.PlatformYNAB)
	require.NoError(t, err)
	assert.True(t, doc.Mapping["acc_1"].YNABDoNotMap)

	// A later pass must not consult the prompter again.
	prompter.Asked = nil
	result, err := m.Match(context.Background(), doc, accounts.PlatformYNAB)
	require.NoError(t, err)
	assert.Empty(t, prompter.Asked)
	assert.Empty(t, result.Decisions)
}

func TestMatchBoundTargetNotReused(t *testing.T) {
	doc := newTestDocument(t,
		accounts.Catalog{
			"acc_1": record("acc_1", "Everyday"),
			"acc_2": record("acc_2", "Everyday"),
		},
		accounts.Catalog{"yn_1": record("yn_1", "Everyday")},
	)
	require.NoError(t, doc.Mapping["acc_1"].SetTarget(accounts.PlatformYNAB, "yn_1", "", mapping.MatchMethodManual))

	m := New() // non-interactive
	result, err := m.Match(context.Background(), doc, accounts.PlatformYNAB)
	require.NoError(t, err)

	require.Len(t, result.Decisions, 1)
	assert.Equal(t, "acc_2", result.Decisions[0].AkahuAccountID)
	assert.Equal(t, OutcomeUnmapped, result.Decisions[0].Outcome)
	assert.Empty(t, doc.Mapping["acc_2"].YNABAccountID)
}

func TestMatchConfirmedBindingUntouched(t *testing.T) {
	doc := newTestDocument(t,
		accounts.Catalog{"acc_1": record("acc_1", "Everyday")},
		accounts.Catalog{
			"yn_1": record("yn_1", "Everyday"),
			"yn_2": record("yn_2", "Spending"),
		},
	)
	require.NoError(t, doc.Mapping["acc_1"].SetTarget(accounts.PlatformYNAB, "yn_2", "", mapping.MatchMethodManual))

	m := New()
	result, err := m.Match(context.Background(), doc, accounts.PlatformYNAB)
	require.NoError(t, err)

	assert.Empty(t, result.Decisions)
	assert.Equal(t, "yn_2", doc.Mapping["acc_1"].YNABAccountID)
}

func TestMatchAssistantAnswerOutsideCandidatesIgnored(t *testing.T) {
	doc := newTestDocument(t,
		accounts.Catalog{"acc_1": record("acc_1", "Savings")},
		accounts.Catalog{
			"yn_1": record("yn_1", "Savings"),
			"yn_2": record("yn_2", "Savings (Joint)"),
		},
	)
	assistant := &stubAssistant{answer: "yn_999"}
	prompter := &ScriptedPrompter{Answers: map[string]Selection{"acc_1": {Index: 1}}}

	m := New(WithAssistant(assistant), WithPrompter(prompter))
	result, err := m.Match(context.Background(), doc, accounts.PlatformYNAB)
	require.NoError(t, err)

	assert.Equal(t, 1, assistant.asked)
	require.Len(t, prompter.Asked, 1, "out-of-set answer must fall through to the prompter")
	assert.Equal(t, OutcomeManual, result.Decisions[0].Outcome)
	assert.Equal(t, "yn_2", doc.Mapping["acc_1"].YNABAccountID)
}

func TestMatchAssistantChoiceAccepted(t *testing.T) {
	doc := newTestDocument(t,
		accounts.Catalog{"acc_1": record("acc_1", "Savings")},
		accounts.Catalog{
			"yn_1": record("yn_1", "Savings"),
			"yn_2": record("yn_2", "Savings (Joint)"),
		},
	)
	assistant := &stubAssistant{answer: "yn_2"}
	prompter := &ScriptedPrompter{}

	m := New(WithAssistant(assistant), WithPrompter(prompter))
	result, err := m.Match(context.Background(), doc, accounts.PlatformYNAB)
	require.NoError(t, err)

	assert.Empty(t, prompter.Asked)
	assert.Equal(t, OutcomeAI, result.Decisions[0].Outcome)
	assert.Equal(t, "yn_2", doc.Mapping["acc_1"].YNABAccountID)
	assert.Equal(t, mapping.MatchMethodAI, doc.Mapping["acc_1"].YNABMatchedBy)
}

func TestMatchAssistantErrorDegradesToPrompter(t *testing.T) {
	doc := newTestDocument(t,
		accounts.Catalog{"acc_1": record("acc_1", "Savings")},
		accounts.Catalog{
			"yn_1": record("yn_1", "Savings"),
			"yn_2": record("yn_2", "Savings (Joint)"),
		},
	)
	assistant := &stubAssistant{err: context.DeadlineExceeded}
	prompter := &ScriptedPrompter{Answers: map[string]Selection{"acc_1": {Index: 0}}}

	m := New(WithAssistant(assistant), WithPrompter(prompter))
	result, err := m.Match(context.Background(), doc, accounts.PlatformYNAB)
	require.NoError(t, err, "assistant failure must not fail the run")

	require.Len(t, prompter.Asked, 1)
	assert.Equal(t, OutcomeManual, result.Decisions[0].Outcome)
}

func TestMatchNoCandidatesNoPrompt(t *testing.T) {
	doc := newTestDocument(t,
		accounts.Catalog{"acc_1": record("acc_1", "Everyday")},
		accounts.Catalog{},
	)
	prompter := &ScriptedPrompter{}

	m := New(WithPrompter(prompter))
	result, err := m.Match(context.Background(), doc, accounts.PlatformYNAB)
	require.NoError(t, err)

	assert.Empty(t, prompter.Asked)
	require.Len(t, result.Decisions, 1)
	assert.Equal(t, OutcomeUnmapped, result.Decisions[0].Outcome)
}

func TestMatchRemovedAccountsExcluded(t *testing.T) {
	removed := record("yn_gone", "Everyday")
	removed.Removed = true

	doc := newTestDocument(t,
		accounts.Catalog{"acc_1": record("acc_1", "Everyday")},
		accounts.Catalog{"yn_gone": removed},
	)

	m := New()
	result, err := m.Match(context.Background(), doc, accounts.PlatformYNAB)
	require.NoError(t, err)

	require.Len(t, result.Decisions, 1)
	assert.Equal(t, OutcomeUnmapped, result.Decisions[0].Outcome)
	assert.Empty(t, doc.Mapping["acc_1"].YNABAccountID)
}

func TestMatchRejectsAkahuAsTarget(t *testing.T) {
	doc := mapping.NewDocument()
	m := New()
	_, err := m.Match(context.Background(), doc, accounts.PlatformAkahu)
	assert.Error(t, err)
}

func TestMatchAliasRuleBridgesUnrelatedNames(t *testing.T) {
	doc := newTestDocument(t,
		accounts.Catalog{"acc_1": record("acc_1", "TotalMoney")},
		accounts.Catalog{"yn_1": record("yn_1", "Everyday")},
	)
	rules := &Rules{Aliases: map[string]string{"totalmoney": "everyday"}}

	m := New(WithRules(rules))
	result, err := m.Match(context.Background(), doc, accounts.PlatformYNAB)
	require.NoError(t, err)

	require.Len(t, result.Decisions, 1)
	assert.Equal(t, OutcomeAuto, result.Decisions[0].Outcome)
	assert.Equal(t, "yn_1", doc.Mapping["acc_1"].YNABAccountID)
}
