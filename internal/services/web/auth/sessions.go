package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/casanorte/casanorte/internal/platform/id"
	"github.com/casanorte/casanorte/internal/services/web/storage"
)

// DefaultSessionTTL is the lifetime of a signed-in browser session.
const DefaultSessionTTL = 30 * 24 * time.Hour

// ErrNoSession reports a request without a usable session.
var ErrNoSession = errors.New("no active session")

// Session is an issued browser session and its signed cookie token.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// Sessions starts, resolves and revokes browser sessions.
type Sessions struct {
	store  storage.SessionStore
	tokens *Tokens
	ttl    time.Duration
	now    func() time.Time
	newID  func() (string, error)
}

// NewSessions builds a session manager over store.
func NewSessions(store storage.SessionStore, tokens *Tokens, ttl time.Duration, now func() time.Time) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Sessions{store: store, tokens: tokens, ttl: ttl, now: now, newID: id.NewID}
}

// TTL is the session lifetime used for the cookie Max-Age.
func (s *Sessions) TTL() time.Duration {
	if s == nil {
		return 0
	}
	return s.ttl
}

// Start persists a new session for userID and signs its cookie token.
func (s *Sessions) Start(ctx context.Context, userID string) (Session, error) {
	if s == nil || s.store == nil || s.tokens == nil {
		return Session{}, errors.New("session manager is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Session{}, errors.New("user id is required")
	}
	sessionID, err := s.newID()
	if err != nil {
		return Session{}, fmt.Errorf("generate session id: %w", err)
	}
	now := s.now().UTC()
	record := storage.WebSession{
		ID:        sessionID,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.PutWebSession(ctx, record); err != nil {
		return Session{}, fmt.Errorf("store session: %w", err)
	}
	token, err := s.tokens.IssueSession(record.ID, record.UserID, record.ExpiresAt)
	if err != nil {
		return Session{}, err
	}
	return Session{ID: record.ID, UserID: record.UserID, Token: token, ExpiresAt: record.ExpiresAt}, nil
}

// Resolve verifies token and confirms its session is still active.
func (s *Sessions) Resolve(ctx context.Context, token string) (Session, error) {
	if s == nil || s.store == nil || s.tokens == nil {
		return Session{}, ErrNoSession
	}
	claims, err := s.tokens.ParseSession(token)
	if err != nil {
		return Session{}, ErrNoSession
	}
	record, err := s.store.GetWebSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	if record.UserID != claims.UserID || !record.Active(s.now()) {
		return Session{}, ErrNoSession
	}
	return Session{ID: record.ID, UserID: record.UserID, Token: token, ExpiresAt: record.ExpiresAt}, nil
}

// Revoke ends the session behind token. Unknown or invalid tokens are ignored.
func (s *Sessions) Revoke(ctx context.Context, token string) error {
	if s == nil || s.store == nil || s.tokens == nil {
		return nil
	}
	claims, err := s.tokens.ParseSession(token)
	if err != nil {
		return nil
	}
	if err := s.store.RevokeWebSession(ctx, claims.SessionID, s.now().UTC()); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
