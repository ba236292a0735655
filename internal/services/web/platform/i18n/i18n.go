// Package i18n resolves the request language and prints localized copy.
package i18n

import (
	"net/http"
	"strings"
	"time"

	"github.com/casanorte/casanorte/internal/platform/i18n/catalog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the user's language preference.
	LangCookieName = "cn_lang"
)

var (
	catalogs = catalog.Default()

	english = language.MustParse("en-US")
	spanish = language.MustParse("es-MX")

	supported = []language.Tag{english, spanish}
	matcher   = language.NewMatcher(supported)
)

// Localizer prints a localized message for a key.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// HasMessage reports whether key exists in the message catalogs.
func HasMessage(key string) bool {
	_, ok := catalogs.Message(english.String(), key)
	return ok
}

// Supported returns the supported language tags, default first.
func Supported() []language.Tag {
	out := make([]language.Tag, len(supported))
	copy(out, supported)
	return out
}

// Default returns the default language tag.
func Default() language.Tag {
	return english
}

// Printer returns a message printer for the supplied tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(Match(tag))
}

// Match coerces tag to the closest supported language.
func Match(tag language.Tag) language.Tag {
	_, idx, confidence := matcher.Match(tag)
	if confidence == language.No {
		return english
	}
	return supported[idx]
}

// Parse parses raw into a supported tag.
func Parse(raw string) (language.Tag, bool) {
	tag, err := language.Parse(strings.TrimSpace(raw))
	if err != nil {
		return language.Und, false
	}
	return Match(tag), true
}

// ResolveTag determines the best language tag for the request. The bool
// reports whether the choice came from the query string and should be
// persisted as a cookie.
func ResolveTag(r *http.Request) (language.Tag, bool) {
	if r == nil {
		return english, false
	}
	if raw := strings.TrimSpace(r.URL.Query().Get(LangParam)); raw != "" {
		if tag, ok := Parse(raw); ok {
			return tag, true
		}
	}
	if cookie, err := r.Cookie(LangCookieName); err == nil {
		if tag, ok := Parse(cookie.Value); ok {
			return tag, false
		}
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			_, idx, confidence := matcher.Match(tags...)
			if confidence != language.No {
				return supported[idx], false
			}
		}
	}
	return english, false
}

// SetLanguageCookie persists the selected language on the response.
func SetLanguageCookie(w http.ResponseWriter, tag language.Tag) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    tag.String(),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

// ResolveLocalizer resolves the request language, persists an explicit
// choice, and returns the printer with its BCP 47 tag.
func ResolveLocalizer(w http.ResponseWriter, r *http.Request) (*message.Printer, string) {
	tag, persist := ResolveTag(r)
	if persist {
		SetLanguageCookie(w, tag)
	}
	return Printer(tag), tag.String()
}

// RequestLocalizer resolves the request language without touching the
// response. Handlers building fragments use it; layouts persist the choice.
func RequestLocalizer(r *http.Request) (*message.Printer, string) {
	tag, _ := ResolveTag(r)
	return Printer(tag), tag.String()
}

// T prints key, falling back to the key itself when the catalog has no entry.
func T(loc Localizer, key string, args ...any) string {
	if loc == nil {
		return key
	}
	return loc.Sprintf(key, args...)
}
