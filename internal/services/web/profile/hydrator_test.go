package profile

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/casanorte/casanorte/internal/services/web/integration/casanorteapi"
)

type fakeAPI struct {
	mu           sync.Mutex
	hydrateCalls int
	hydrateErr   error
	profile      casanorteapi.Profile
	lastToken    string
	completed    casanorteapi.CompleteHydration
}

func (f *fakeAPI) Hydrate(_ context.Context, token string) (casanorteapi.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hydrateCalls++
	f.lastToken = token
	if f.hydrateErr != nil {
		return casanorteapi.Profile{}, f.hydrateErr
	}
	return f.profile, nil
}

func (f *fakeAPI) CompleteHydration(_ context.Context, token string, payload casanorteapi.CompleteHydration) (casanorteapi.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastToken = token
	f.completed = payload
	return casanorteapi.Profile{ID: "user-1", Status: "ACTIVE"}, nil
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hydrateCalls
}

type fakeTokens struct{}

func (fakeTokens) IssueAPIToken(userID string) (string, error) {
	return "token-for-" + userID, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newHydrator(api API) (*Hydrator, *clock) {
	c := &clock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}
	return NewHydrator(api, fakeTokens{}, c.Now, log.New(io.Discard, "", 0)), c
}

func TestProfileCachesSuccess(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{profile: casanorteapi.Profile{ID: "user-1", FirstName: "Ana"}}
	hydrator, clk := newHydrator(api)

	for range 3 {
		got, err := hydrator.Profile(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("Profile() error = %v", err)
		}
		if got.FirstName != "Ana" {
			t.Fatalf("FirstName = %q, want Ana", got.FirstName)
		}
	}
	if got := api.calls(); got != 1 {
		t.Fatalf("hydrate calls = %d, want 1", got)
	}
	if api.lastToken != "token-for-user-1" {
		t.Fatalf("token = %q, want token-for-user-1", api.lastToken)
	}

	clk.Advance(CacheTTL)
	if _, err := hydrator.Profile(context.Background(), "user-1"); err != nil {
		t.Fatalf("Profile() after ttl error = %v", err)
	}
	if got := api.calls(); got != 2 {
		t.Fatalf("hydrate calls after ttl = %d, want 2", got)
	}
}

func TestProfileFailureCooldown(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{hydrateErr: errors.New("boom")}
	hydrator, clk := newHydrator(api)

	if _, err := hydrator.Profile(context.Background(), "user-1"); err == nil || errors.Is(err, ErrCoolingDown) {
		t.Fatalf("first Profile() error = %v, want upstream error", err)
	}
	clk.Advance(FailureCooldown - time.Second)
	if _, err := hydrator.Profile(context.Background(), "user-1"); !errors.Is(err, ErrCoolingDown) {
		t.Fatalf("Profile() within cooldown error = %v, want ErrCoolingDown", err)
	}
	if got := api.calls(); got != 1 {
		t.Fatalf("hydrate calls within cooldown = %d, want 1", got)
	}

	if _, err := hydrator.Profile(context.Background(), "user-2"); errors.Is(err, ErrCoolingDown) {
		t.Fatal("cooldown leaked to another user")
	}

	clk.Advance(time.Second)
	api.mu.Lock()
	api.hydrateErr = nil
	api.profile = casanorteapi.Profile{ID: "user-1"}
	api.mu.Unlock()
	if _, err := hydrator.Profile(context.Background(), "user-1"); err != nil {
		t.Fatalf("Profile() after cooldown error = %v", err)
	}
}

func TestCompleteForgetsCachedProfile(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{profile: casanorteapi.Profile{ID: "user-1", Status: "REGISTRATION_REVIEW_REQUIRED"}}
	hydrator, _ := newHydrator(api)

	if _, err := hydrator.Profile(context.Background(), "user-1"); err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	payload := casanorteapi.CompleteHydration{FirstName: "Ana", LastName: "Ruiz"}
	if _, err := hydrator.Complete(context.Background(), "user-1", payload); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if api.completed.FirstName != "Ana" {
		t.Fatalf("completed payload = %+v", api.completed)
	}
	if _, err := hydrator.Profile(context.Background(), "user-1"); err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if got := api.calls(); got != 2 {
		t.Fatalf("hydrate calls = %d, want 2", got)
	}
}

func TestNilAPIIsUnavailable(t *testing.T) {
	t.Parallel()

	hydrator := NewHydrator(nil, fakeTokens{}, nil, nil)
	if _, err := hydrator.Profile(context.Background(), "user-1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Profile() error = %v, want ErrUnavailable", err)
	}
	var nilHydrator *Hydrator
	if _, err := nilHydrator.Complete(context.Background(), "user-1", casanorteapi.CompleteHydration{}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Complete() error = %v, want ErrUnavailable", err)
	}
	nilHydrator.Forget("user-1")
}

func TestPruneDropsStaleEntries(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{profile: casanorteapi.Profile{ID: "user-1"}}
	hydrator, clk := newHydrator(api)
	if _, err := hydrator.Profile(context.Background(), "user-1"); err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	api.mu.Lock()
	api.hydrateErr = errors.New("boom")
	api.mu.Unlock()
	if _, err := hydrator.Profile(context.Background(), "user-2"); err == nil {
		t.Fatal("Profile(user-2) error = nil, want upstream error")
	}

	if removed := hydrator.Prune(); removed != 0 {
		t.Fatalf("Prune() fresh = %d, want 0", removed)
	}
	clk.Advance(FailureCooldown)
	if removed := hydrator.Prune(); removed != 1 {
		t.Fatalf("Prune() after cooldown = %d, want 1", removed)
	}
	clk.Advance(CacheTTL)
	if removed := hydrator.Prune(); removed != 1 {
		t.Fatalf("Prune() after ttl = %d, want 1", removed)
	}
	if removed := hydrator.Prune(); removed != 0 {
		t.Fatalf("Prune() on empty hydrator = %d, want 0", removed)
	}
	var nilHydrator *Hydrator
	if removed := nilHydrator.Prune(); removed != 0 {
		t.Fatalf("nil Prune() = %d, want 0", removed)
	}
}
