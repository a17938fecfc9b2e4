package usecase

import (
	"context"
	"log/slog"

	"PriceTracker/internal/domain"
	"PriceTracker/internal/logging"
	"PriceTracker/internal/metrics"
	"PriceTracker/internal/ports"
)

// News serves the stored articles and their upvotes to readers.
type News struct {
	articles ports.ArticleRepository
	upvotes  ports.UpvoteStore
	model    ports.LanguageModel
	logger   *slog.Logger
}

// NewNews wires the read and vote paths.
func NewNews(articles ports.ArticleRepository, upvotes ports.UpvoteStore, model ports.LanguageModel, log *slog.Logger) *News {
	if log == nil {
		log = logging.Discard()
	}
	return &News{articles: articles, upvotes: upvotes, model: model, logger: log}
}

// List returns every article with vote counts; userID may be nil for anonymous readers.
func (n *News) List(ctx context.Context, userID *int64) ([]domain.ArticleView, error) {
	return n.articles.ListWithUpvotes(ctx, userID)
}

// Get returns one article with its vote details.
func (n *News) Get(ctx context.Context, articleID int64, userID *int64) (domain.ArticleView, error) {
	article, err := n.articles.Get(ctx, articleID)
	if err != nil {
		return domain.ArticleView{}, err
	}
	details, err := n.upvotes.Details(ctx, articleID, userID)
	if err != nil {
		return domain.ArticleView{}, err
	}
	return domain.ArticleView{Article: *article, Upvotes: details.Count, IsUpvoted: details.VotedByUser}, nil
}

// ToggleUpvote flips the user's vote on an article.
func (n *News) ToggleUpvote(ctx context.Context, articleID, userID int64) (domain.UpvoteAction, error) {
	action, err := n.upvotes.Toggle(ctx, articleID, userID)
	if err != nil {
		return "", err
	}
	metrics.RecordUpvote(string(action))
	n.logger.Debug("upvote toggled", "article_id", articleID, "user_id", userID, "action", action)
	return action, nil
}

// Details reports the vote count of an article and whether userID voted.
func (n *News) Details(ctx context.Context, articleID int64, userID *int64) (domain.UpvoteDetails, error) {
	return n.upvotes.Details(ctx, articleID, userID)
}

// Summarize produces an impact/reason summary for arbitrary text.
func (n *News) Summarize(ctx context.Context, content string) (domain.Summary, error) {
	return n.model.Summarize(ctx, content)
}
