package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/casanorte/casanorte/internal/services/web/modalhost"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
)

// MainContentID is the element id HTMX navigation swaps into.
const MainContentID = "main-content"

// Toast is a one-shot notice rendered by the layout.
type Toast struct {
	Kind    string
	Message string
}

type navLink struct {
	href string
	key  string
}

var appNavLinks = []navLink{
	{href: routepath.AppDashboard, key: "core.nav.dashboard"},
	{href: routepath.AppInvitesNew, key: "core.nav.invites"},
	{href: routepath.AppSettings, key: "core.nav.settings"},
}

// AppMainContent renders the children in ctx followed by the active modal of
// the request's host. It fails when no host is bound to ctx.
func AppMainContent() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		host, err := modalhost.FromContext(ctx)
		if err != nil {
			return err
		}
		return host.Outlet().Render(ctx, w)
	})
}
