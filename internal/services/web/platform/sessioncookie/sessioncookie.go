// Package sessioncookie centralizes the signed web session cookie.
package sessioncookie

import (
	"net/http"
	"strings"
	"time"

	"github.com/casanorte/casanorte/internal/services/web/platform/requestmeta"
)

// Name is the canonical web session cookie name.
const Name = "cn_session"

// Read returns the trimmed session token when present.
func Read(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	cookie, err := r.Cookie(Name)
	if err != nil || cookie == nil {
		return "", false
	}
	value := strings.TrimSpace(cookie.Value)
	if value == "" {
		return "", false
	}
	return value, true
}

// Write stores token in the session cookie. A zero ttl issues a browser-session cookie.
func Write(w http.ResponseWriter, r *http.Request, token string, ttl time.Duration, policy requestmeta.SchemePolicy) {
	if w == nil {
		return
	}
	cookie := baseCookie(r, policy)
	cookie.Value = strings.TrimSpace(token)
	if ttl > 0 {
		cookie.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, cookie)
}

// Clear expires the session cookie.
func Clear(w http.ResponseWriter, r *http.Request, policy requestmeta.SchemePolicy) {
	if w == nil {
		return
	}
	cookie := baseCookie(r, policy)
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
}

func baseCookie(r *http.Request, policy requestmeta.SchemePolicy) *http.Cookie {
	return &http.Cookie{
		Name:     Name,
		Path:     "/",
		HttpOnly: true,
		Secure:   requestmeta.IsHTTPSWithPolicy(r, policy),
		SameSite: http.SameSiteLaxMode,
	}
}
