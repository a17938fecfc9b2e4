package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"PriceTracker/internal/domain"
	"PriceTracker/internal/logging"
	"PriceTracker/internal/ports"
)

// SearchIDStart is the first id handed out to the results of a search request.
const SearchIDStart int64 = 1000000

// Search runs the ad-hoc flow: keywords from the model, one listing page, every result parsed.
// No relevance filter applies and nothing is persisted.
type Search struct {
	model   ports.LanguageModel
	source  ports.NewsSource
	workers int
	logger  *slog.Logger
}

// NewSearch wires the search flow; workers bounds concurrent article fetches.
func NewSearch(model ports.LanguageModel, source ports.NewsSource, workers int, log *slog.Logger) *Search {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Search{model: model, source: source, workers: workers, logger: log}
}

// Run returns the parsed results sorted by time, newest first. Results that fail to parse are
// skipped.
func (s *Search) Run(ctx context.Context, prompt string) ([]domain.SearchResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("prompt is empty")
	}

	term, err := s.model.ExtractKeywords(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extract keywords: %w", err)
	}
	log := s.logger.With("term", term)

	headlines, err := s.source.Headlines(ctx, term, domain.SinglePage(1))
	if err != nil {
		if len(headlines) == 0 {
			return nil, fmt.Errorf("list headlines: %w", err)
		}
		log.Warn("listing partially failed", "error", err)
	}

	bodies := make([]*domain.ArticleBody, len(headlines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, h := range headlines {
		g.Go(func() error {
			body, err := s.source.Article(gctx, h.URL)
			if err != nil {
				log.Warn("search result skipped", "url", h.URL, "error", err)
				return nil
			}
			bodies[i] = &body
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	nextID := SearchIDStart
	results := make([]domain.SearchResult, 0, len(bodies))
	for _, body := range bodies {
		if body == nil {
			continue
		}
		results = append(results, domain.SearchResult{
			ID:    nextID,
			URL:   body.URL,
			Title: body.Title,
			Time:  body.Time,
			Body:  body.Text(),
		})
		nextID++
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Time > results[j].Time
	})

	log.Info("search finished", "headlines", len(headlines), "results", len(results))
	return results, nil
}
