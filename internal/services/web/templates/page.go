package templates

import (
	"net/url"
	"strings"

	webi18n "github.com/casanorte/casanorte/internal/services/web/platform/i18n"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
	"golang.org/x/text/language"
)

const (
	brandKey       = "core.brand"
	htmxScriptURL  = "https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js"
	stylesheetPath = routepath.StaticPrefix + "app.css"
	appScriptPath  = routepath.StaticPrefix + "app.js"
)

// PageContext provides shared layout context for pages.
type PageContext struct {
	Title        string
	Lang         string
	Loc          Localizer
	CurrentPath  string
	CurrentQuery string
	UserName     string
	SignedIn     bool
}

// LanguageOption represents a supported language option in the UI.
type LanguageOption struct {
	Tag    string
	Label  string
	URL    string
	Active bool
}

// LanguageOptions returns supported language options with active selection.
func LanguageOptions(page PageContext) []LanguageOption {
	active := webi18n.Default()
	if tag, ok := webi18n.Parse(page.Lang); ok {
		active = tag
	}
	tags := webi18n.Supported()
	out := make([]LanguageOption, 0, len(tags))
	for _, tag := range tags {
		out = append(out, LanguageOption{
			Tag:    tag.String(),
			Label:  T(page.Loc, languageLabelKey(tag)),
			URL:    LanguageURL(page.CurrentPath, page.CurrentQuery, tag.String()),
			Active: tag == active,
		})
	}
	return out
}

// LanguageURL returns the current URL with the language param replaced.
func LanguageURL(path, rawQuery, tag string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		path = routepath.Root
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		values = url.Values{}
	}
	values.Set(webi18n.LangParam, tag)
	return path + "?" + values.Encode()
}

func languageLabelKey(tag language.Tag) string {
	return "core.language." + strings.ToLower(strings.ReplaceAll(tag.String(), "-", "_"))
}

func pageTitle(page PageContext) string {
	brand := T(page.Loc, brandKey)
	title := strings.TrimSpace(page.Title)
	if title == "" {
		return brand
	}
	return title + " · " + brand
}
