package modalhost

import (
	"context"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/casanorte/casanorte/internal/platform/id"
	"github.com/casanorte/casanorte/internal/services/web/platform/httpx"
	"github.com/casanorte/casanorte/internal/services/web/platform/requestmeta"
)

// BrowserCookieName identifies the browser session that owns a host.
const BrowserCookieName = "cn_browser"

type registryEntry struct {
	host     *Host
	lastSeen time.Time
}

// Registry keeps one Host per browser session.
type Registry struct {
	mu    sync.Mutex
	hosts map[string]*registryEntry
	now   func() time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		hosts: make(map[string]*registryEntry),
		now:   time.Now,
	}
}

// Host returns the host for key, creating it on first use.
func (r *Registry) Host(key string) *Host {
	key = strings.TrimSpace(key)
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.hosts[key]
	if !ok {
		entry = &registryEntry{host: NewHost()}
		r.hosts[key] = entry
	}
	entry.lastSeen = r.now()
	return entry.host
}

// Len returns the number of live hosts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hosts)
}

// Sweep discards hosts idle for longer than idle and returns how many were removed.
func (r *Registry) Sweep(idle time.Duration) int {
	if idle <= 0 {
		return 0
	}
	cutoff := r.now().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for key, entry := range r.hosts {
		if entry.lastSeen.Before(cutoff) {
			delete(r.hosts, key)
			removed++
		}
	}
	return removed
}

// RunSweeper sweeps idle hosts every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := r.Sweep(idle); removed > 0 {
				log.Printf("modal hosts swept removed=%d remaining=%d", removed, r.Len())
			}
		}
	}
}

// Middleware attaches the browser session's host to every request context,
// issuing the browser cookie when it is missing or malformed.
func Middleware(registry *Registry, policy requestmeta.SchemePolicy) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		if registry == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := ReadBrowserKey(r)
			if !ok {
				fresh, err := id.NewID()
				if err != nil {
					log.Printf("modal host browser id: %v", err)
					next.ServeHTTP(w, r)
					return
				}
				key = fresh
				writeBrowserCookie(w, r, key, policy)
			}
			host := registry.Host(key)
			next.ServeHTTP(w, r.WithContext(WithHost(r.Context(), host)))
		})
	}
}

// ReadBrowserKey returns the browser session key from the request cookie.
func ReadBrowserKey(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	cookie, err := r.Cookie(BrowserCookieName)
	if err != nil || cookie == nil {
		return "", false
	}
	value := strings.TrimSpace(cookie.Value)
	if !id.Valid(value) {
		return "", false
	}
	return value, true
}

func writeBrowserCookie(w http.ResponseWriter, r *http.Request, key string, policy requestmeta.SchemePolicy) {
	http.SetCookie(w, &http.Cookie{
		Name:     BrowserCookieName,
		Value:    key,
		Path:     "/",
		HttpOnly: true,
		Secure:   requestmeta.IsHTTPSWithPolicy(r, policy),
		SameSite: http.SameSiteLaxMode,
	})
}
