package textutil

import (
	"strings"
	"testing"
)

func TestSlug(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Grocery list", "grocery-list"},
		{"punctuation dropped", "What's next? (draft)", "whats-next-draft"},
		{"separator runs collapse", "a -- b __ c", "a-b-c"},
		{"cyrillic preserved", "Список покупок", "список-покупок"},
		{"leading separators trimmed", "  --note--  ", "note"},
		{"empty falls back", "!!!", "note"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Slug(tc.input, "note"); got != tc.want {
				t.Fatalf("Slug(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestSlugNRespectsLimit(t *testing.T) {
	long := strings.Repeat("word ", 50)
	got := SlugN(long, "note", 10)
	if len([]rune(got)) > 10 {
		t.Fatalf("slug exceeds limit: %q", got)
	}
}

func TestCollapseRepeatedLines(t *testing.T) {
	input := strings.Join([]string{
		"intro",
		"thanks for watching",
		"thanks for watching",
		"thanks for watching",
		"thanks for watching",
		"thanks for watching",
		"outro",
	}, "\n")
	got := CollapseRepeatedLines(input, 3)
	if count := strings.Count(got, "thanks for watching"); count != 2 {
		t.Fatalf("expected repeats collapsed to 2, got %d in %q", count, got)
	}
	if !strings.Contains(got, "intro") || !strings.Contains(got, "outro") {
		t.Fatalf("surrounding lines lost: %q", got)
	}
}

func TestCollapseRepeatedLinesKeepsShortRuns(t *testing.T) {
	input := "a\na\nb"
	if got := CollapseRepeatedLines(input, 3); got != input {
		t.Fatalf("short runs must survive unchanged, got %q", got)
	}
}
