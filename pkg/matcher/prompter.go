package matcher

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/akahusync/akahusync/pkg/accounts"
)

// Selection is the operator's answer to a match proposal.
type Selection struct {
	// Index into the proposed candidate list; valid only when Skip is false.
	Index int
	// Skip records the explicit "no match" decision for this account.
	Skip bool
}

// Prompter asks a human to confirm or override a proposed match. It is a
// pluggable capability so the matcher can run against a scripted
// implementation in tests and a no-op in non-interactive mode.
type Prompter interface {
	// Propose presents ranked candidates for a source account and returns
	// the operator's selection.
	Propose(source accounts.Record, candidates []Candidate) (Selection, error)
}

// TerminalPrompter prompts on stdin/stdout.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer
}

// NewTerminalPrompter creates a prompter bound to the process terminal.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stdout}
}

// Propose implements the Prompter interface for TerminalPrompter.
func (p *TerminalPrompter) Propose(source accounts.Record, candidates []Candidate) (Selection, error) {
	fmt.Fprintf(p.Out, "\nNo confident match for %q (balance %s)\n", source.Name, accounts.FormatBalance(source.Balance))
	for i, c := range candidates {
		fmt.Fprintf(p.Out, "  %d) %s (balance %s, score %.2f)\n",
			i+1, c.Account.Name, accounts.FormatBalance(c.Account.Balance), c.Score)
	}
	fmt.Fprintf(p.Out, "Select 1-%d, or s to skip this account permanently: ", len(candidates))

	reader := bufio.NewReader(p.In)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return Selection{}, err
		}
		answer := strings.ToLower(strings.TrimSpace(line))

		if answer == "s" || answer == "skip" {
			return Selection{Skip: true}, nil
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(candidates) {
			return Selection{Index: n - 1}, nil
		}
		fmt.Fprintf(p.Out, "Enter a number between 1 and %d, or s to skip: ", len(candidates))
	}
}

// ScriptedPrompter replays predetermined answers keyed by source account id.
// Accounts without a scripted answer are skipped. Used in tests and usable
// for one-off bulk imports.
type ScriptedPrompter struct {
	Answers map[string]Selection
	// Asked records every account the prompter was consulted about.
	Asked []string
}

// Propose implements the Prompter interface for ScriptedPrompter.
func (p *ScriptedPrompter) Propose(source accounts.Record, _ []Candidate) (Selection, error) {
	p.Asked = append(p.Asked, source.ID)
	if sel, ok := p.Answers[source.ID]; ok {
		return sel, nil
	}
	return Selection{Skip: true}, nil
}
