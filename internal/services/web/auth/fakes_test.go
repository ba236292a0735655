package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/casanorte/casanorte/internal/services/web/integration/casanorteapi"
	"github.com/casanorte/casanorte/internal/services/web/storage"
)

const testSecret = "0123456789abcdef0123456789abcdef-test"

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]storage.WebSession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]storage.WebSession)}
}

func (f *fakeSessionStore) PutWebSession(_ context.Context, session storage.WebSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeSessionStore) GetWebSession(_ context.Context, id string) (storage.WebSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return storage.WebSession{}, storage.ErrNotFound
	}
	return session, nil
}

func (f *fakeSessionStore) RevokeWebSession(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return storage.ErrNotFound
	}
	if session.RevokedAt == nil {
		session.RevokedAt = &at
	}
	f.sessions[id] = session
	return nil
}

type fakeUserStore struct {
	users map[string]storage.User
	gets  int
}

func (f *fakeUserStore) PutUser(_ context.Context, u storage.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserStore) GetUser(_ context.Context, userID string) (storage.User, error) {
	f.gets++
	user, ok := f.users[userID]
	if !ok {
		return storage.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) GetUserByPhone(_ context.Context, phone string) (storage.User, error) {
	for _, user := range f.users {
		if strings.EqualFold(user.PhoneNumber, phone) {
			return user, nil
		}
	}
	return storage.User{}, storage.ErrNotFound
}

type fakeProfiles struct {
	profile casanorteapi.Profile
	err     error
}

func (f fakeProfiles) Profile(context.Context, string) (casanorteapi.Profile, error) {
	return f.profile, f.err
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, time.April, 2, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestTokens(t *testing.T, clock *testClock) *Tokens {
	t.Helper()
	keys, err := DeriveKeys(testSecret)
	if err != nil {
		t.Fatalf("DeriveKeys() error = %v", err)
	}
	tokens, err := NewTokens(keys, "casa-norte", clock.Now)
	if err != nil {
		t.Fatalf("NewTokens() error = %v", err)
	}
	return tokens
}
