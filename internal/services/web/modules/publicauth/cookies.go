package publicauth

import (
	"net/http"
	"strings"
	"time"

	"github.com/casanorte/casanorte/internal/services/web/platform/requestmeta"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
)

// challengeCookieName carries the pending phone challenge between send and verify.
const challengeCookieName = "cn_otp"

func readChallengeCookie(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	cookie, err := r.Cookie(challengeCookieName)
	if err != nil || cookie == nil {
		return "", false
	}
	value := strings.TrimSpace(cookie.Value)
	return value, value != ""
}

func writeChallengeCookie(w http.ResponseWriter, r *http.Request, challengeID string, ttl time.Duration, policy requestmeta.SchemePolicy) {
	cookie := challengeCookie(r, policy)
	cookie.Value = challengeID
	cookie.MaxAge = int(ttl.Seconds())
	http.SetCookie(w, cookie)
}

func clearChallengeCookie(w http.ResponseWriter, r *http.Request, policy requestmeta.SchemePolicy) {
	cookie := challengeCookie(r, policy)
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
}

func challengeCookie(r *http.Request, policy requestmeta.SchemePolicy) *http.Cookie {
	return &http.Cookie{
		Name:     challengeCookieName,
		Path:     routepath.AuthPrefix,
		HttpOnly: true,
		Secure:   requestmeta.IsHTTPSWithPolicy(r, policy),
		SameSite: http.SameSiteLaxMode,
	}
}

// safeNext keeps post-login redirects inside the signed-in app.
func safeNext(raw string) string {
	next := strings.TrimSpace(raw)
	if !strings.HasPrefix(next, routepath.AppPrefix) || strings.Contains(next, "//") || strings.ContainsAny(next, "\\\r\n") {
		return routepath.AppDashboard
	}
	return next
}
