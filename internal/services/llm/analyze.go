package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// TruncationMarker is appended to note text that had to be cut to fit the
// model context.
const TruncationMarker = "\n[... note text truncated to fit the model context ...]"

// reservedCompletionTokens is headroom left for the model's JSON reply.
const reservedCompletionTokens = 512

// Analysis is the structured result the model must return for a note.
type Analysis struct {
	Title        string `json:"title"`
	Category     string `json:"category"`
	ShortSummary string `json:"short_summary"`
}

// Analyzer turns transcript text into an Analysis.
type Analyzer struct {
	client        *Client
	systemPrompt  string
	contextTokens int
}

func NewAnalyzer(client *Client, systemPrompt string, contextTokens int) *Analyzer {
	return &Analyzer{
		client:        client,
		systemPrompt:  systemPrompt,
		contextTokens: contextTokens,
	}
}

// Analyze sends the note text to the model and parses the reply. Text that
// does not fit the context window is truncated from the end with a marker;
// analysis fails outright only when not even a minimal truncated form fits.
func (a *Analyzer) Analyze(ctx context.Context, text string) (Analysis, error) {
	var empty Analysis
	text = strings.TrimSpace(text)
	if text == "" {
		return empty, fmt.Errorf("analyze: note text required")
	}

	fitted, err := a.fitToContext(ctx, text)
	if err != nil {
		return empty, err
	}

	content, err := a.client.Complete(ctx, a.systemPrompt, fitted, a.contextTokens)
	if err != nil {
		return empty, fmt.Errorf("analyze: %w", err)
	}

	var parsed Analysis
	if err := DecodeJSON(content, &parsed); err != nil {
		return empty, fmt.Errorf("analyze: parse model reply: %w", err)
	}
	parsed.Title = strings.TrimSpace(parsed.Title)
	parsed.Category = strings.TrimSpace(parsed.Category)
	parsed.ShortSummary = strings.TrimSpace(parsed.ShortSummary)

	var missing []string
	if parsed.Title == "" {
		missing = append(missing, "title")
	}
	if parsed.Category == "" {
		missing = append(missing, "category")
	}
	if parsed.ShortSummary == "" {
		missing = append(missing, "short_summary")
	}
	if len(missing) > 0 {
		return empty, fmt.Errorf("analyze: model reply missing %s", strings.Join(missing, ", "))
	}
	return parsed, nil
}

// fitToContext returns text unchanged when it fits the context window next to
// the system prompt and completion reserve, or a truncated copy ending in
// TruncationMarker.
func (a *Analyzer) fitToContext(ctx context.Context, text string) (string, error) {
	overhead := a.client.CountTokens(ctx, a.systemPrompt) + reservedCompletionTokens
	budget := a.contextTokens - overhead
	if budget <= 0 {
		return "", fmt.Errorf(
			"analyze: context window of %d tokens too small for the system prompt and completion reserve (%d tokens)",
			a.contextTokens, overhead)
	}

	textTokens := a.client.CountTokens(ctx, text)
	if textTokens <= budget {
		return text, nil
	}

	markerTokens := EstimateTokens(TruncationMarker)
	available := budget - markerTokens
	if available <= 0 {
		return "", fmt.Errorf(
			"analyze: context window of %d tokens cannot hold even the truncation marker",
			a.contextTokens)
	}

	// Scale the byte length by the measured tokens-per-byte ratio, then shrink
	// further until the truncated text plus marker actually fits.
	candidate := cutBytes(text, len(text)*available/textTokens)
	for candidate != "" {
		if a.client.CountTokens(ctx, candidate+TruncationMarker) <= budget {
			return candidate + TruncationMarker, nil
		}
		candidate = cutBytes(candidate, len(candidate)*9/10)
	}
	return "", fmt.Errorf(
		"analyze: context window of %d tokens cannot hold a minimal truncated note",
		a.contextTokens)
}

// cutBytes truncates s to at most n bytes without splitting a rune.
func cutBytes(s string, n int) string {
	if n >= len(s) {
		n = len(s) - 1
	}
	if n <= 0 {
		return ""
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return strings.TrimRight(s[:n], " \t\n")
}
