package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// analyzeServer answers /api/chat with reply and /api/tokenize with a
// one-token-per-word count, recording the last user prompt it saw.
func analyzeServer(t *testing.T, reply string) (*httptest.Server, *string) {
	t.Helper()
	var lastPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chat":
			var req chatRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatal(err)
			}
			lastPrompt = req.Messages[len(req.Messages)-1].Content
			fmt.Fprint(w, chatReply(reply))
		case "/api/tokenize":
			var req tokenizeRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatal(err)
			}
			tokens := make([]int, len(strings.Fields(req.Prompt)))
			json.NewEncoder(w).Encode(tokenizeResponse{Tokens: tokens})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server, &lastPrompt
}

func newTestAnalyzer(t *testing.T, server *httptest.Server, contextTokens int) *Analyzer {
	t.Helper()
	client := NewClient(Config{BaseURL: server.URL, Model: "test-model"},
		WithSleeper(func(time.Duration) {}))
	return NewAnalyzer(client, "label the note", contextTokens)
}

func TestAnalyzeParsesReply(t *testing.T) {
	server, _ := analyzeServer(t, `{"title":"Grocery list","category":"Personal","short_summary":"Things to buy."}`)
	analyzer := newTestAnalyzer(t, server, 4096)

	analysis, err := analyzer.Analyze(context.Background(), "buy milk and eggs")
	if err != nil {
		t.Fatal(err)
	}
	if analysis.Title != "Grocery list" || analysis.Category != "Personal" {
		t.Fatalf("analysis = %+v", analysis)
	}
}

func TestAnalyzeRejectsIncompleteReply(t *testing.T) {
	server, _ := analyzeServer(t, `{"title":"Grocery list","category":"","short_summary":""}`)
	analyzer := newTestAnalyzer(t, server, 4096)

	_, err := analyzer.Analyze(context.Background(), "buy milk")
	if err == nil {
		t.Fatal("expected error for incomplete reply")
	}
	for _, field := range []string{"category", "short_summary"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not name missing field %q", err.Error(), field)
		}
	}
}

func TestAnalyzeShortTextPassesThrough(t *testing.T) {
	server, lastPrompt := analyzeServer(t, `{"title":"t","category":"c","short_summary":"s"}`)
	analyzer := newTestAnalyzer(t, server, 4096)

	text := "a short note"
	if _, err := analyzer.Analyze(context.Background(), text); err != nil {
		t.Fatal(err)
	}
	if *lastPrompt != text {
		t.Fatalf("prompt = %q, want untouched text", *lastPrompt)
	}
}

func TestAnalyzeTruncatesLongText(t *testing.T) {
	server, lastPrompt := analyzeServer(t, `{"title":"t","category":"c","short_summary":"s"}`)
	// Budget: 600 - tokens(system) - 512 reserve, so only ~85 words fit.
	analyzer := newTestAnalyzer(t, server, 600)

	text := strings.TrimSpace(strings.Repeat("word ", 500))
	if _, err := analyzer.Analyze(context.Background(), text); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(*lastPrompt, TruncationMarker) {
		t.Fatalf("truncated prompt missing marker: %q", (*lastPrompt)[max(0, len(*lastPrompt)-80):])
	}
	if len(*lastPrompt) >= len(text) {
		t.Fatal("prompt was not shortened")
	}
	if !strings.HasPrefix(*lastPrompt, "word word") {
		t.Fatalf("truncation did not keep the head of the text: %q", (*lastPrompt)[:20])
	}
}

func TestAnalyzeContextTooSmall(t *testing.T) {
	server, _ := analyzeServer(t, `{}`)
	analyzer := newTestAnalyzer(t, server, 100)

	_, err := analyzer.Analyze(context.Background(), "any text at all")
	if err == nil {
		t.Fatal("expected error for tiny context window")
	}
	if !strings.Contains(err.Error(), "too small") {
		t.Fatalf("err = %v", err)
	}
}

func TestAnalyzeUsesEstimateWhenTokenizeMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/chat" {
			fmt.Fprint(w, chatReply(`{"title":"t","category":"c","short_summary":"s"}`))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	analyzer := newTestAnalyzer(t, server, 4096)
	if _, err := analyzer.Analyze(context.Background(), "short note"); err != nil {
		t.Fatal(err)
	}
}

func TestEstimateTokens(t *testing.T) {
	if EstimateTokens("") != 0 {
		t.Fatal("empty text must estimate to zero")
	}

	latin := strings.Repeat("hello world ", 100)
	cyrillic := strings.Repeat("список покупок ", 100)

	latinTokens := EstimateTokens(latin)
	if latinTokens <= 0 {
		t.Fatal("latin estimate must be positive")
	}
	// ~1200 bytes / 3.5 * 1.1
	if latinTokens < 300 || latinTokens > 450 {
		t.Fatalf("latin estimate = %d, outside plausible range", latinTokens)
	}

	// Cyrillic bytes are weighted at 5.0 per token instead of 3.5, so the
	// per-byte token rate must be lower.
	cyrTokens := EstimateTokens(cyrillic)
	latinRate := float64(latinTokens) / float64(len(latin))
	cyrRate := float64(cyrTokens) / float64(len(cyrillic))
	if cyrRate >= latinRate {
		t.Fatalf("cyrillic rate %v not below latin rate %v", cyrRate, latinRate)
	}
}

func TestCountTokensFallsBackOnError(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1", Model: "m"},
		WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))

	text := "some note text"
	if got := client.CountTokens(context.Background(), text); got != EstimateTokens(text) {
		t.Fatalf("CountTokens = %d, want heuristic %d", got, EstimateTokens(text))
	}
}
