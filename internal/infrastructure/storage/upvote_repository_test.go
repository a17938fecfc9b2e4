package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"PriceTracker/internal/domain"
)

const (
	lockArticle = "SELECT id FROM news_articles WHERE id = \\$1 FOR UPDATE"
	checkUpvote = "SELECT EXISTS\\(SELECT 1 FROM user_news_upvotes WHERE article_id = \\$1 AND user_id = \\$2\\)"
)

func TestUpvoteRepository_ToggleAdds(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(lockArticle).WithArgs(int64(5)).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectQuery(checkUpvote).WithArgs(int64(5), int64(7)).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_news_upvotes (user_id,article_id) VALUES ($1,$2) ON CONFLICT DO NOTHING")).
		WithArgs(int64(7), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	action, err := NewUpvoteRepository(db).Toggle(context.Background(), 5, 7)
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if action != domain.UpvoteAdded {
		t.Fatalf("expected added, got %s", action)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUpvoteRepository_ToggleRemoves(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(lockArticle).WithArgs(int64(5)).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectQuery(checkUpvote).WithArgs(int64(5), int64(7)).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("DELETE FROM user_news_upvotes WHERE article_id = \\$1 AND user_id = \\$2").
		WithArgs(int64(5), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	action, err := NewUpvoteRepository(db).Toggle(context.Background(), 5, 7)
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if action != domain.UpvoteRemoved {
		t.Fatalf("expected removed, got %s", action)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUpvoteRepository_ToggleMissingArticle(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(lockArticle).WithArgs(int64(99)).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err = NewUpvoteRepository(db).Toggle(context.Background(), 99, 7)
	if !errors.Is(err, domain.ErrArticleNotFound) {
		t.Fatalf("expected ErrArticleNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUpvoteRepository_ToggleRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(lockArticle).WithArgs(int64(5)).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectQuery(checkUpvote).WithArgs(int64(5), int64(7)).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	if _, err := NewUpvoteRepository(db).Toggle(context.Background(), 5, 7); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUpvoteRepository_Details(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewUpvoteRepository(db)

	mock.ExpectQuery("SELECT a.id, COUNT\\(v.user_id\\)").
		WithArgs(int64(5), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "count", "voted"}).AddRow(5, 2, true))

	uid := int64(7)
	details, err := repo.Details(context.Background(), 5, &uid)
	if err != nil {
		t.Fatalf("Details() error = %v", err)
	}
	if details.Count != 2 || !details.VotedByUser {
		t.Fatalf("unexpected details: %+v", details)
	}

	mock.ExpectQuery("SELECT a.id, COUNT\\(v.user_id\\)").
		WithArgs(int64(5), nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "count", "voted"}).AddRow(5, 2, false))

	details, err = repo.Details(context.Background(), 5, nil)
	if err != nil {
		t.Fatalf("Details() error = %v", err)
	}
	if details.Count != 2 || details.VotedByUser {
		t.Fatalf("anonymous details must not report a vote: %+v", details)
	}

	mock.ExpectQuery("SELECT a.id, COUNT\\(v.user_id\\)").
		WithArgs(int64(6), nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "count", "voted"}))

	if _, err := repo.Details(context.Background(), 6, nil); !errors.Is(err, domain.ErrArticleNotFound) {
		t.Fatalf("expected ErrArticleNotFound, got %v", err)
	}
}
