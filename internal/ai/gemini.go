// Package ai implements the optional Gemini-backed disambiguation assistant
// used when fuzzy scoring cannot pick a match on its own.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/akahusync/akahusync/pkg/accounts"
	"github.com/akahusync/akahusync/pkg/errors"
	"github.com/akahusync/akahusync/pkg/logging"
)

// DefaultModel is the Gemini model used for disambiguation.
const DefaultModel = "gemini-2.0-flash"

// Gemini asks a Gemini model to pick the best candidate account, or none.
// The answer is advisory: the caller only accepts ids from its own candidate
// set, and any failure here degrades to the next escalation step.
type Gemini struct {
	apiKey string
	model  string

	mu     sync.Mutex
	client *genai.Client
}

// Option configures a Gemini assistant.
type Option func(*Gemini)

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(g *Gemini) { g.model = model }
}

// NewGemini creates the assistant. The client itself is created lazily on
// the first call so construction never needs a context.
func NewGemini(apiKey string, opts ...Option) *Gemini {
	g := &Gemini{apiKey: apiKey, model: DefaultModel}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gemini) getClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	g.client = client
	return client, nil
}

type verdict struct {
	AccountID string `json:"account_id"`
}

// Disambiguate implements the matcher's Assistant interface. It returns the
// chosen candidate id, or "" when the model declines to pick one.
func (g *Gemini) Disambiguate(ctx context.Context, sourceName string, candidates []accounts.Record) (string, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return "", err
	}

	prompt := buildPrompt(sourceName, candidates)
	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return "", errors.New("empty model response")
	}

	var v verdict
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &v); err != nil {
		logging.Debug().Str("response", raw).Msg("Undecodable assistant response")
		return "", fmt.Errorf("decode model response: %w", err)
	}
	return v.AccountID, nil
}

func buildPrompt(sourceName string, candidates []accounts.Record) string {
	var b strings.Builder
	b.WriteString("You are matching a bank account to its counterpart in a budgeting app.\n")
	b.WriteString("The bank account is named: ")
	b.WriteString(quote(sourceName))
	b.WriteString("\n\nCandidate budget accounts:\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "- id=%s name=%s type=%s balance=%s\n",
			c.ID, quote(c.Name), c.Type, accounts.FormatBalance(c.Balance))
	}
	b.WriteString("\nPick the single candidate that represents the same real-world account, if any.\n")
	b.WriteString("Respond with STRICT JSON only, no Markdown, no code fences:\n")
	b.WriteString(`{"account_id": "<id of the chosen candidate>"}` + "\n")
	b.WriteString(`If no candidate is the same account, respond: {"account_id": ""}` + "\n")
	return b.String()
}

func quote(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

// cleanModelJSON strips Markdown fences and surrounding prose when the model
// ignores the plain-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return strings.TrimSpace(s)
}
