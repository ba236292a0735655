package onboarding

import (
	"net/http"
	"strings"

	"github.com/casanorte/casanorte/internal/services/web/modalhost"
	module "github.com/casanorte/casanorte/internal/services/web/module"
	"github.com/casanorte/casanorte/internal/services/web/platform/httpx"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
	"github.com/casanorte/casanorte/internal/services/web/storage"
)

// Gate shows the onboarding dialog on app page loads while the viewer still
// needs review. A dismissal holds until the modal session is reset.
func Gate(resolveViewer module.ResolveViewer) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		if resolveViewer == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if gated(r) {
				maybeShow(r, resolveViewer)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func gated(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	path := r.URL.Path
	if !strings.HasPrefix(path, routepath.AppPrefix) {
		return false
	}
	return !strings.HasPrefix(path, routepath.ModalsPrefix) &&
		!strings.HasPrefix(path, routepath.OnboardingPrefix) &&
		path != routepath.AppDashboardHealth
}

func maybeShow(r *http.Request, resolveViewer module.ResolveViewer) {
	host, err := modalhost.FromContext(r.Context())
	if err != nil {
		return
	}
	if active, ok := host.ActiveModalID(); ok && active == ModalID {
		return
	}
	if host.Dismissed(ModalID) {
		return
	}
	viewer := resolveViewer(r)
	if !viewer.SignedIn() || viewer.Status != storage.StatusReviewRequired {
		return
	}
	host.ShowModal(Descriptor(StepWelcome, FormFromViewer(viewer), nil))
}
