package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"PriceTracker/internal/domain"
	"PriceTracker/internal/ports"
)

// UpvoteRepository toggles and counts user upvotes.
type UpvoteRepository struct {
	db *sql.DB
}

var _ ports.UpvoteStore = (*UpvoteRepository)(nil)

// NewUpvoteRepository wires a sql.DB implementation.
func NewUpvoteRepository(db *sql.DB) *UpvoteRepository {
	return &UpvoteRepository{db: db}
}

// Toggle adds the user's vote if absent and removes it otherwise. The article row is locked
// for the duration of the transaction so concurrent toggles on it run one after another.
func (r *UpvoteRepository) Toggle(ctx context.Context, articleID, userID int64) (action domain.UpvoteAction, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin toggle: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var locked int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM news_articles WHERE id = $1 FOR UPDATE`, articleID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrArticleNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lock article %d: %w", articleID, err)
	}

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM user_news_upvotes WHERE article_id = $1 AND user_id = $2)`,
		articleID, userID,
	).Scan(&exists)
	if err != nil {
		return "", fmt.Errorf("check upvote: %w", err)
	}

	if exists {
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM user_news_upvotes WHERE article_id = $1 AND user_id = $2`,
			articleID, userID,
		); err != nil {
			return "", fmt.Errorf("remove upvote: %w", err)
		}
		action = domain.UpvoteRemoved
	} else {
		query, args, buildErr := psql.Insert("user_news_upvotes").
			Columns("user_id", "article_id").
			Values(userID, articleID).
			Suffix("ON CONFLICT DO NOTHING").
			ToSql()
		if buildErr != nil {
			err = fmt.Errorf("build upvote insert: %w", buildErr)
			return "", err
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return "", fmt.Errorf("add upvote: %w", err)
		}
		action = domain.UpvoteAdded
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("commit toggle: %w", err)
	}
	return action, nil
}

// Details reports the vote count and, when userID is set, whether that user voted.
func (r *UpvoteRepository) Details(ctx context.Context, articleID int64, userID *int64) (domain.UpvoteDetails, error) {
	var voter any
	if userID != nil {
		voter = *userID
	}

	var (
		id      int64
		details domain.UpvoteDetails
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT a.id, COUNT(v.user_id), COALESCE(BOOL_OR(v.user_id = $2), FALSE)
		FROM news_articles a
		LEFT JOIN user_news_upvotes v ON v.article_id = a.id
		WHERE a.id = $1
		GROUP BY a.id`,
		articleID, voter,
	).Scan(&id, &details.Count, &details.VotedByUser)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UpvoteDetails{}, domain.ErrArticleNotFound
	}
	if err != nil {
		return domain.UpvoteDetails{}, fmt.Errorf("upvote details %d: %w", articleID, err)
	}

	if userID == nil {
		details.VotedByUser = false
	}
	return details, nil
}
