package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"PriceTracker/internal/domain"
)

func TestAccountsRegisterLoginAuthenticate(t *testing.T) {
	t.Parallel()

	users := newMemUsers()
	accounts, err := NewAccounts(users, "secret", time.Minute)
	if err != nil {
		t.Fatalf("NewAccounts: %v", err)
	}
	ctx := context.Background()

	user, err := accounts.Register(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.HashedPassword == "pw" {
		t.Fatalf("password must be hashed")
	}

	if _, err := accounts.Register(ctx, "alice", "pw"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	token, err := accounts.Login(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	got, err := accounts.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != user.ID || got.Username != "alice" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestAccountsRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	accounts, err := NewAccounts(newMemUsers(), "secret", time.Minute)
	if err != nil {
		t.Fatalf("NewAccounts: %v", err)
	}
	ctx := context.Background()

	if _, err := accounts.Register(ctx, "bob", "right"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := accounts.Login(ctx, "bob", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := accounts.Login(ctx, "nobody", "x"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
	if _, err := accounts.Register(ctx, " ", "x"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("blank username should be rejected, got %v", err)
	}
}

func TestAccountsRejectsExpiredAndForeignTokens(t *testing.T) {
	t.Parallel()

	users := newMemUsers()
	accounts, err := NewAccounts(users, "secret", time.Minute)
	if err != nil {
		t.Fatalf("NewAccounts: %v", err)
	}
	user, err := accounts.Register(context.Background(), "carol", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	issued := time.Now()
	accounts.now = func() time.Time { return issued }
	token, err := accounts.IssueToken(user.ID)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	accounts.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := accounts.Authenticate(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token should be rejected, got %v", err)
	}

	other, _ := NewAccounts(users, "other-secret", time.Minute)
	foreign, err := other.IssueToken(user.ID)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	accounts.now = time.Now
	if _, err := accounts.Authenticate(context.Background(), foreign); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token signed with another secret should be rejected, got %v", err)
	}

	if _, err := NewAccounts(users, "", time.Minute); err == nil {
		t.Fatalf("empty secret should be rejected")
	}
}
