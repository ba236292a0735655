package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSessionsStartResolveRevoke(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	store := newFakeSessionStore()
	sessions := NewSessions(store, newTestTokens(t, clock), time.Hour, clock.Now)

	started, err := sessions.Start(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if started.Token == "" || started.ID == "" {
		t.Fatalf("Start() = %+v, want id and token", started)
	}
	if want := clock.Now().Add(time.Hour); !started.ExpiresAt.Equal(want) {
		t.Fatalf("ExpiresAt = %v, want %v", started.ExpiresAt, want)
	}

	resolved, err := sessions.Resolve(context.Background(), started.Token)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolved.UserID != "user-1" || resolved.ID != started.ID {
		t.Fatalf("Resolve() = %+v, want %+v", resolved, started)
	}

	if err := sessions.Revoke(context.Background(), started.Token); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if _, err := sessions.Resolve(context.Background(), started.Token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Resolve() after revoke error = %v, want ErrNoSession", err)
	}
}

func TestSessionsExpire(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	sessions := NewSessions(newFakeSessionStore(), newTestTokens(t, clock), time.Minute, clock.Now)

	started, err := sessions.Start(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	clock.Advance(time.Minute)
	if _, err := sessions.Resolve(context.Background(), started.Token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Resolve() after ttl error = %v, want ErrNoSession", err)
	}
}

func TestSessionsRejectUnknownSession(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	tokens := newTestTokens(t, clock)
	sessions := NewSessions(newFakeSessionStore(), tokens, time.Hour, clock.Now)

	token, err := tokens.IssueSession("missing", "user-1", clock.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("IssueSession() error = %v", err)
	}
	if _, err := sessions.Resolve(context.Background(), token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Resolve() error = %v, want ErrNoSession", err)
	}
	if err := sessions.Revoke(context.Background(), token); err != nil {
		t.Fatalf("Revoke(unknown) error = %v, want nil", err)
	}
	if err := sessions.Revoke(context.Background(), "garbage"); err != nil {
		t.Fatalf("Revoke(garbage) error = %v, want nil", err)
	}
}

func TestSessionsRequireUser(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	sessions := NewSessions(newFakeSessionStore(), newTestTokens(t, clock), 0, clock.Now)
	if _, err := sessions.Start(context.Background(), " "); err == nil {
		t.Fatal("Start(empty user) error = nil, want error")
	}
	if got := sessions.TTL(); got != DefaultSessionTTL {
		t.Fatalf("TTL() = %v, want %v", got, DefaultSessionTTL)
	}

	var nilSessions *Sessions
	if _, err := nilSessions.Resolve(context.Background(), "x"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("nil Resolve() error = %v, want ErrNoSession", err)
	}
}
