package usecase

import (
	"context"
	"errors"
	"testing"

	"PriceTracker/internal/domain"
)

func TestSearchParsesEveryResultWithoutClassifying(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		headlines: []domain.Headline{
			{Title: "old", URL: urlA},
			{Title: "broken", URL: urlB},
			{Title: "new", URL: urlC},
		},
		bodies: map[string]domain.ArticleBody{
			urlA: body(urlA, "old", "2024-05-01 08:00", "first", "second"),
			urlC: body(urlC, "new", "2024-05-02 08:00", "latest"),
		},
		failures: map[string]error{urlB: &domain.ParseError{URL: urlB, Element: "time.article-content__time"}},
	}
	model := &fakeModel{keywords: "雞蛋 價格"}

	results, err := NewSearch(model, source, 2, nil).Run(context.Background(), "我想知道雞蛋價格")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(model.classified) != 0 {
		t.Fatalf("search must not classify")
	}
	if source.terms[0] != "雞蛋 價格" || source.specs[0] != domain.SinglePage(1) {
		t.Fatalf("unexpected listing call: %v %+v", source.terms, source.specs)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Title != "new" || results[1].Title != "old" {
		t.Fatalf("results should be newest first: %+v", results)
	}
	if results[1].Body != "first second" {
		t.Fatalf("unexpected body: %q", results[1].Body)
	}

	ids := map[int64]bool{}
	for _, r := range results {
		if r.ID < SearchIDStart || ids[r.ID] {
			t.Fatalf("ids must be unique and start at %d: %+v", SearchIDStart, results)
		}
		ids[r.ID] = true
	}
}

func TestSearchIDsAreRequestScoped(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		headlines: []domain.Headline{{Title: "a", URL: urlA}},
		bodies:    map[string]domain.ArticleBody{urlA: body(urlA, "a", "t", "x")},
	}
	s := NewSearch(&fakeModel{}, source, 1, nil)

	first, err := s.Run(context.Background(), "a")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	second, err := s.Run(context.Background(), "a")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if first[0].ID != SearchIDStart || second[0].ID != SearchIDStart {
		t.Fatalf("each request should start at %d, got %d and %d", SearchIDStart, first[0].ID, second[0].ID)
	}
}

func TestSearchErrors(t *testing.T) {
	t.Parallel()

	if _, err := NewSearch(&fakeModel{}, &fakeSource{}, 1, nil).Run(context.Background(), "  "); err == nil {
		t.Fatalf("empty prompt should fail")
	}

	source := &fakeSource{listErr: &domain.NetworkError{URL: "x", Err: errors.New("down")}}
	_, err := NewSearch(&fakeModel{}, source, 1, nil).Run(context.Background(), "x")
	var netErr *domain.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}
