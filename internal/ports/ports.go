package ports

import (
	"context"
	"time"

	"PriceTracker/internal/domain"
)

// HeadlineFetcher searches a site's listing endpoint.
type HeadlineFetcher interface {
	Headlines(ctx context.Context, term string, pages domain.PageSpec) ([]domain.Headline, error)
}

// ArticleParser downloads an article page and extracts its structured fields.
type ArticleParser interface {
	Article(ctx context.Context, url string) (domain.ArticleBody, error)
}

// NewsSource is the capability pair a site implementation provides.
type NewsSource interface {
	HeadlineFetcher
	ArticleParser
}

// LanguageModel is the single contract every LLM provider implements.
type LanguageModel interface {
	Classify(ctx context.Context, title string) (domain.Relevance, error)
	Summarize(ctx context.Context, body string) (domain.Summary, error)
	ExtractKeywords(ctx context.Context, prompt string) (string, error)
}

// ArticleRepository persists articles. Insert reports false when the URL is already stored.
type ArticleRepository interface {
	Insert(ctx context.Context, article domain.Article) (bool, error)
	Count(ctx context.Context) (int, error)
	Get(ctx context.Context, id int64) (*domain.Article, error)
	ListWithUpvotes(ctx context.Context, userID *int64) ([]domain.ArticleView, error)
}

// UpvoteStore toggles and counts votes.
type UpvoteStore interface {
	Toggle(ctx context.Context, articleID, userID int64) (domain.UpvoteAction, error)
	Details(ctx context.Context, articleID int64, userID *int64) (domain.UpvoteDetails, error)
}

// UserRepository stores accounts.
type UserRepository interface {
	Create(ctx context.Context, username, hashedPassword string) (domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}

// VerdictCache remembers classifier labels per headline URL.
type VerdictCache interface {
	Get(ctx context.Context, url string) (domain.Relevance, bool, error)
	Put(ctx context.Context, url string, label domain.Relevance) error
}

// Notifier streams digests of new articles to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
