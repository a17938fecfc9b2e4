package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"PriceTracker/internal/domain"
	"PriceTracker/internal/logging"
	"PriceTracker/internal/metrics"
	"PriceTracker/internal/ports"
)

// PipelineDeps wires all driven adapters into the ingestion pipeline.
type PipelineDeps struct {
	Source     ports.NewsSource
	Repository ports.ArticleRepository
	Model      ports.LanguageModel
	Cache      ports.VerdictCache
	Notifier   ports.Notifier
	Logger     *slog.Logger

	BackfillPages domain.PageSpec
	PollPages     domain.PageSpec
}

// Pipeline implements fetch, classify, parse, summarize and persist for every headline.
type Pipeline struct {
	source     ports.NewsSource
	repository ports.ArticleRepository
	model      ports.LanguageModel
	cache      ports.VerdictCache
	notifier   ports.Notifier
	logger     *slog.Logger

	backfill domain.PageSpec
	poll     domain.PageSpec
	now      func() time.Time
}

// NewPipeline constructs the orchestration component. Page specs default to 1-9 and page 1.
func NewPipeline(deps PipelineDeps) *Pipeline {
	backfill := deps.BackfillPages
	if len(backfill.Pages()) == 0 {
		backfill = domain.PageRange(1, 9)
	}
	poll := deps.PollPages
	if len(poll.Pages()) == 0 {
		poll = domain.SinglePage(1)
	}
	log := deps.Logger
	if log == nil {
		log = logging.Discard()
	}

	return &Pipeline{
		source:     deps.Source,
		repository: deps.Repository,
		model:      deps.Model,
		cache:      deps.Cache,
		notifier:   deps.Notifier,
		logger:     log,
		backfill:   backfill,
		poll:       poll,
		now:        time.Now,
	}
}

// RunBackfill crawls the backfill page range.
func (p *Pipeline) RunBackfill(ctx context.Context, term string) (domain.RunReport, error) {
	return p.Run(ctx, domain.ModeBackfill, term)
}

// RunPoll crawls the poll page.
func (p *Pipeline) RunPoll(ctx context.Context, term string) (domain.RunReport, error) {
	return p.Run(ctx, domain.ModePoll, term)
}

// Run executes one pass in the given mode. Per-headline failures are recorded in the report and
// never abort the run; an error is returned only for missing dependencies or cancellation.
func (p *Pipeline) Run(ctx context.Context, mode domain.RunMode, term string) (domain.RunReport, error) {
	if p.source == nil || p.repository == nil || p.model == nil {
		return domain.RunReport{}, errors.New("pipeline is missing a source, repository or model")
	}

	pages := p.poll
	if mode == domain.ModeBackfill {
		pages = p.backfill
	}

	report := domain.RunReport{
		RunID:     uuid.NewString(),
		Mode:      mode,
		Term:      term,
		StartedAt: p.now(),
	}
	log := p.logger.With("run_id", report.RunID, "mode", string(mode), "term", term)
	log.Info("pipeline run started", "pages_from", pages.From, "pages_to", pages.To)

	headlines, err := p.source.Headlines(ctx, term, pages)
	if err != nil {
		report.PageErrors = countJoined(err)
		log.Warn("listing pages failed", "failed_pages", report.PageErrors, "error", err)
	}

	var runErr error
	for _, h := range headlines {
		if err := ctx.Err(); err != nil {
			runErr = err
			log.Warn("pipeline run interrupted", "remaining", len(headlines)-len(report.Results))
			break
		}

		res, article := p.processHeadline(ctx, log.With("url", h.URL), h)
		report.Results = append(report.Results, res)
		if article != nil {
			report.Persisted = append(report.Persisted, *article)
		}
		metrics.RecordHeadline(string(mode), string(res.Outcome), string(res.Reason))
	}

	report.FinishedAt = p.now()
	metrics.RecordRun(string(mode), report.FinishedAt.Sub(report.StartedAt).Seconds(), report.PageErrors)

	log.Info("pipeline run finished",
		"headlines", len(headlines),
		"persisted", report.Count(domain.OutcomePersisted),
		"duplicates", report.Count(domain.OutcomeDuplicate),
		"skipped", report.Count(domain.OutcomeSkipped),
		"dropped", report.Count(domain.OutcomeDropped),
		"duration", report.FinishedAt.Sub(report.StartedAt).String(),
	)

	p.publishDigest(ctx, log, report)

	return report, runErr
}

// processHeadline drives a single headline through the state machine. The returned article is
// non-nil only when a new row was written.
func (p *Pipeline) processHeadline(ctx context.Context, log *slog.Logger, h domain.Headline) (domain.HeadlineResult, *domain.Article) {
	res := domain.HeadlineResult{Headline: h}
	log.Debug("headline state", "stage", domain.StageFetched, "title", h.Title)

	label, err := p.classify(ctx, h)
	if err != nil {
		return p.drop(log, res, domain.StageClassified, domain.DropClassifierFault, err), nil
	}
	res.Relevance = label
	log.Debug("headline state", "stage", domain.StageClassified, "label", label)

	if label != domain.RelevanceHigh {
		res.Outcome = domain.OutcomeSkipped
		return res, nil
	}

	body, err := p.source.Article(ctx, h.URL)
	if err == nil && len(body.Paragraphs) == 0 {
		err = &domain.ParseError{URL: h.URL, Element: "paragraphs"}
	}
	if err != nil {
		return p.drop(log, res, domain.StageParsing, domain.DropParseFailure, err), nil
	}
	if body.Title == "" {
		body.Title = h.Title
	}
	if body.Time == "" {
		body.Time = h.Time
	}

	summary, err := p.model.Summarize(ctx, body.Text())
	if err != nil {
		return p.drop(log, res, domain.StageSummarizing, domain.DropSummaryFailure, err), nil
	}

	article := domain.NewArticle(body, summary)
	inserted, err := p.repository.Insert(ctx, article)
	if err != nil {
		return p.drop(log, res, domain.StagePersisting, domain.DropStoreFailure, err), nil
	}

	if !inserted {
		res.Outcome = domain.OutcomeDuplicate
		log.Debug("article already stored")
		return res, nil
	}

	res.Outcome = domain.OutcomePersisted
	log.Info("article persisted", "title", article.Title)
	return res, &article
}

func (p *Pipeline) classify(ctx context.Context, h domain.Headline) (domain.Relevance, error) {
	if p.cache != nil {
		label, ok, err := p.cache.Get(ctx, h.URL)
		if err != nil {
			p.logger.Warn("verdict cache lookup failed", "url", h.URL, "error", err)
		} else if ok {
			metrics.RecordClassification(string(label), "cache")
			return label, nil
		}
	}

	label, err := p.model.Classify(ctx, h.Title)
	if err != nil {
		return "", err
	}
	metrics.RecordClassification(string(label), "model")

	if p.cache != nil {
		if err := p.cache.Put(ctx, h.URL, label); err != nil {
			p.logger.Warn("verdict cache store failed", "url", h.URL, "error", err)
		}
	}
	return label, nil
}

func (p *Pipeline) drop(log *slog.Logger, res domain.HeadlineResult, stage domain.Stage, reason domain.DropReason, err error) domain.HeadlineResult {
	res.Outcome = domain.OutcomeDropped
	res.Reason = reason
	res.Err = err
	log.Warn("headline dropped", "stage", stage, "reason", reason, "error", err)
	return res
}

func (p *Pipeline) publishDigest(ctx context.Context, log *slog.Logger, report domain.RunReport) {
	if p.notifier == nil || len(report.Persisted) == 0 {
		return
	}
	if err := p.notifier.PublishDigest(ctx, BuildDigest(report)); err != nil {
		log.Warn("publish digest failed", "error", err)
	}
}

// BuildDigest renders the articles persisted by a run as a plain-text message.
func BuildDigest(report domain.RunReport) string {
	if len(report.Persisted) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d new articles for %q (%s)\n\n", len(report.Persisted), report.Term, report.Mode)
	for _, a := range report.Persisted {
		fmt.Fprintf(&sb, "- %s\n影響: %s\n原因: %s\n%s\n\n", a.Title, a.SummaryImpact, a.SummaryReason, a.URL)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func countJoined(err error) int {
	if err == nil {
		return 0
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return len(joined.Unwrap())
	}
	return 1
}
