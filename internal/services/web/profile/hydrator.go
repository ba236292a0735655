// Package profile hydrates signed-in users from the Casa Norte profile API.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/casanorte/casanorte/internal/services/web/integration/casanorteapi"
)

const (
	// FailureCooldown is how long a user's hydration is skipped after a failure.
	FailureCooldown = 30 * time.Second
	// CacheTTL is how long a successful hydration is reused.
	CacheTTL = 5 * time.Minute
)

// ErrCoolingDown reports a skipped hydration inside the failure cooldown.
var ErrCoolingDown = errors.New("profile hydration cooling down after failure")

// ErrUnavailable reports a hydrator without an API client.
var ErrUnavailable = errors.New("profile api is not configured")

// API is the profile surface of the Casa Norte API client.
type API interface {
	Hydrate(ctx context.Context, token string) (casanorteapi.Profile, error)
	CompleteHydration(ctx context.Context, token string, payload casanorteapi.CompleteHydration) (casanorteapi.Profile, error)
}

// TokenIssuer mints bearer tokens for API calls made on a user's behalf.
type TokenIssuer interface {
	IssueAPIToken(userID string) (string, error)
}

type cachedProfile struct {
	profile   casanorteapi.Profile
	fetchedAt time.Time
}

// Hydrator loads and caches profiles per user.
type Hydrator struct {
	api    API
	tokens TokenIssuer
	now    func() time.Time
	logger *log.Logger

	mu       sync.Mutex
	cache    map[string]cachedProfile
	failedAt map[string]time.Time
}

// NewHydrator builds a hydrator. A nil api makes every lookup ErrUnavailable.
func NewHydrator(api API, tokens TokenIssuer, now func() time.Time, logger *log.Logger) *Hydrator {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Hydrator{
		api:      api,
		tokens:   tokens,
		now:      now,
		logger:   logger,
		cache:    make(map[string]cachedProfile),
		failedAt: make(map[string]time.Time),
	}
}

// Profile returns userID's hydrated profile.
func (h *Hydrator) Profile(ctx context.Context, userID string) (casanorteapi.Profile, error) {
	if h == nil || h.api == nil || h.tokens == nil {
		return casanorteapi.Profile{}, ErrUnavailable
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return casanorteapi.Profile{}, errors.New("user id is required")
	}

	now := h.now()
	h.mu.Lock()
	if cached, ok := h.cache[userID]; ok && now.Sub(cached.fetchedAt) < CacheTTL {
		h.mu.Unlock()
		return cached.profile, nil
	}
	if failed, ok := h.failedAt[userID]; ok && now.Sub(failed) < FailureCooldown {
		h.mu.Unlock()
		return casanorteapi.Profile{}, ErrCoolingDown
	}
	h.mu.Unlock()

	token, err := h.tokens.IssueAPIToken(userID)
	if err != nil {
		return casanorteapi.Profile{}, fmt.Errorf("issue api token: %w", err)
	}
	profile, err := h.api.Hydrate(ctx, token)
	if err != nil {
		h.mu.Lock()
		h.failedAt[userID] = h.now()
		h.mu.Unlock()
		h.logger.Printf("profile hydrate failed user_id=%s err=%v", userID, err)
		return casanorteapi.Profile{}, err
	}

	h.mu.Lock()
	delete(h.failedAt, userID)
	h.cache[userID] = cachedProfile{profile: profile, fetchedAt: h.now()}
	h.mu.Unlock()
	return profile, nil
}

// Complete submits onboarding details. The next Profile call re-hydrates.
func (h *Hydrator) Complete(ctx context.Context, userID string, payload casanorteapi.CompleteHydration) (casanorteapi.Profile, error) {
	if h == nil || h.api == nil || h.tokens == nil {
		return casanorteapi.Profile{}, ErrUnavailable
	}
	token, err := h.tokens.IssueAPIToken(userID)
	if err != nil {
		return casanorteapi.Profile{}, fmt.Errorf("issue api token: %w", err)
	}
	profile, err := h.api.CompleteHydration(ctx, token, payload)
	if err != nil {
		return casanorteapi.Profile{}, err
	}
	h.Forget(userID)
	return profile, nil
}

// Prune drops cached profiles older than CacheTTL and failures older than
// FailureCooldown. It returns how many entries were removed.
func (h *Hydrator) Prune() int {
	if h == nil {
		return 0
	}
	now := h.now()
	h.mu.Lock()
	defer h.mu.Unlock()
	removed := 0
	for userID, cached := range h.cache {
		if now.Sub(cached.fetchedAt) >= CacheTTL {
			delete(h.cache, userID)
			removed++
		}
	}
	for userID, failed := range h.failedAt {
		if now.Sub(failed) >= FailureCooldown {
			delete(h.failedAt, userID)
			removed++
		}
	}
	return removed
}

// Forget drops cached state for userID.
func (h *Hydrator) Forget(userID string) {
	if h == nil {
		return
	}
	h.mu.Lock()
	delete(h.cache, userID)
	delete(h.failedAt, userID)
	h.mu.Unlock()
}
