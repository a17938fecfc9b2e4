package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestParseRelevance(t *testing.T) {
	t.Parallel()

	cases := map[string]Relevance{
		"high":      RelevanceHigh,
		" Medium\n": RelevanceMedium,
		"\"low\".":  RelevanceLow,
		"HIGH。":     RelevanceHigh,
	}
	for raw, want := range cases {
		got, ok := ParseRelevance(raw)
		if !ok || got != want {
			t.Fatalf("ParseRelevance(%q) = %q, %v; want %q", raw, got, ok, want)
		}
	}

	for _, raw := range []string{"", "very high", "none", "高"} {
		if _, ok := ParseRelevance(raw); ok {
			t.Fatalf("ParseRelevance(%q) should fail", raw)
		}
	}
}

func TestPageSpecPages(t *testing.T) {
	t.Parallel()

	if got := PageRange(1, 9).Pages(); len(got) != 9 || got[0] != 1 || got[8] != 9 {
		t.Fatalf("unexpected range pages: %v", got)
	}
	if got := SinglePage(1).Pages(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("unexpected single page: %v", got)
	}
	if got := PageRange(3, 2).Pages(); got != nil {
		t.Fatalf("inverted range should be empty, got %v", got)
	}
	if got := SinglePage(0).Pages(); got != nil {
		t.Fatalf("page 0 should be empty, got %v", got)
	}
}

func TestNewArticleJoinsParagraphs(t *testing.T) {
	t.Parallel()

	body := ArticleBody{URL: "u", Title: "t", Time: "2024", Paragraphs: []string{"a b", "c"}}
	a := NewArticle(body, Summary{Impact: "up", Reason: "weather"})

	if a.Body != "a b c" || a.PublishedTime != "2024" || a.SummaryImpact != "up" || a.SummaryReason != "weather" {
		t.Fatalf("unexpected article: %+v", a)
	}
}

func TestErrorsUnwrap(t *testing.T) {
	t.Parallel()

	base := errors.New("boom")
	wrapped := fmt.Errorf("page 2: %w", &NetworkError{URL: "x", Err: base})

	var netErr *NetworkError
	if !errors.As(wrapped, &netErr) || !errors.Is(wrapped, base) {
		t.Fatalf("network error should unwrap: %v", wrapped)
	}

	long := &SummaryFormatError{Response: strings.Repeat("a", 500)}
	if len([]rune(long.Error())) > 200 {
		t.Fatalf("summary error should truncate the response")
	}
}

func TestRunReportCount(t *testing.T) {
	t.Parallel()

	r := RunReport{Results: []HeadlineResult{
		{Outcome: OutcomePersisted},
		{Outcome: OutcomeSkipped},
		{Outcome: OutcomePersisted},
	}}
	if r.Count(OutcomePersisted) != 2 || r.Count(OutcomeDropped) != 0 {
		t.Fatalf("unexpected counts")
	}
	if UpvoteAdded.Message() != "Article upvoted" || UpvoteRemoved.Message() != "Upvote removed" {
		t.Fatalf("unexpected upvote messages")
	}
}
