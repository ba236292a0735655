package templates

import (
	"context"
	"fmt"

	"golang.org/x/text/message"
)

// Localizer provides translated strings for web components.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// T returns a translated string or a key-derived fallback.
func T(loc Localizer, key message.Reference, args ...any) string {
	if loc != nil {
		return loc.Sprintf(key, args...)
	}
	if keyString, ok := key.(string); ok {
		if len(args) > 0 {
			return fmt.Sprintf(keyString, args...)
		}
		return keyString
	}
	return ""
}

type localizerKey struct{}

// WithLocalizer binds loc to ctx for components rendered without direct access
// to the request, such as modal dialogs.
func WithLocalizer(ctx context.Context, loc Localizer) context.Context {
	return context.WithValue(ctx, localizerKey{}, loc)
}

// LocalizerFrom returns the localizer bound by WithLocalizer, or nil.
func LocalizerFrom(ctx context.Context) Localizer {
	if ctx == nil {
		return nil
	}
	loc, _ := ctx.Value(localizerKey{}).(Localizer)
	return loc
}
