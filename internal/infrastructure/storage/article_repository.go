package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"PriceTracker/internal/domain"
	"PriceTracker/internal/ports"
)

var articleColumns = []string{
	"a.id", "a.url", "a.title", "a.published_time", "a.body", "a.summary_impact", "a.summary_reason",
}

// ArticleRepository persists summarized articles into Postgres.
type ArticleRepository struct {
	db *sql.DB
}

var _ ports.ArticleRepository = (*ArticleRepository)(nil)

// NewArticleRepository wires a sql.DB implementation.
func NewArticleRepository(db *sql.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// Insert writes the article unless its URL is already stored. It reports whether a row was created.
func (r *ArticleRepository) Insert(ctx context.Context, article domain.Article) (bool, error) {
	query, args, err := psql.Insert("news_articles").
		Columns("url", "title", "published_time", "body", "summary_impact", "summary_reason").
		Values(article.URL, article.Title, article.PublishedTime, article.Body, article.SummaryImpact, article.SummaryReason).
		Suffix("ON CONFLICT (url) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert article: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Count returns the number of stored articles.
func (r *ArticleRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM news_articles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

// Get loads one article by id.
func (r *ArticleRepository) Get(ctx context.Context, id int64) (*domain.Article, error) {
	query, args, err := psql.Select(articleColumns...).
		From("news_articles a").
		Where(squirrel.Eq{"a.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var a domain.Article
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&a.ID, &a.URL, &a.Title, &a.PublishedTime, &a.Body, &a.SummaryImpact, &a.SummaryReason,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrArticleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get article %d: %w", id, err)
	}
	return &a, nil
}

// ListWithUpvotes returns every article, newest first, with vote counts. When userID is nil
// IsUpvoted is always false.
func (r *ArticleRepository) ListWithUpvotes(ctx context.Context, userID *int64) ([]domain.ArticleView, error) {
	var voter any
	if userID != nil {
		voter = *userID
	}

	query, args, err := psql.Select(articleColumns...).
		Column("COUNT(v.user_id) AS upvotes").
		Column(squirrel.Expr("COALESCE(BOOL_OR(v.user_id = ?), FALSE) AS is_upvoted", voter)).
		From("news_articles a").
		LeftJoin("user_news_upvotes v ON v.article_id = a.id").
		GroupBy("a.id").
		OrderBy("a.published_time DESC", "a.id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var views []domain.ArticleView
	for rows.Next() {
		var v domain.ArticleView
		if err := rows.Scan(
			&v.ID, &v.URL, &v.Title, &v.PublishedTime, &v.Body, &v.SummaryImpact, &v.SummaryReason,
			&v.Upvotes, &v.IsUpvoted,
		); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return views, nil
}
