package public

import (
	"net/http"
	"strings"

	flashnotice "github.com/casanorte/casanorte/internal/services/web/platform/flash"
	"github.com/casanorte/casanorte/internal/services/web/platform/httpx"
	"github.com/casanorte/casanorte/internal/services/web/platform/publichandler"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
)

const maxContactFormBytes = 64 << 10

type handlers struct {
	publichandler.Base
	service           service
	underConstruction bool
}

func newHandlers(base publichandler.Base, s service, underConstruction bool) handlers {
	return handlers{Base: base, service: s, underConstruction: underConstruction}
}

func (h handlers) handleLanding(w http.ResponseWriter, r *http.Request) {
	loc := h.RequestLocalizer(r)
	if h.underConstruction {
		h.WritePublicPage(w, r, "public.construction.title", http.StatusOK, underConstructionView(loc))
		return
	}
	h.WritePublicPage(w, r, "public.landing.title", http.StatusOK, landingView(loc))
}

func (h handlers) handleContact(w http.ResponseWriter, r *http.Request) {
	h.WritePublicPage(w, r, "public.contact.title", http.StatusOK, contactView(h.RequestLocalizer(r), Inquiry{}, nil))
}

func (h handlers) handleContactSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxContactFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	inquiry, errs := h.service.submitInquiry(Inquiry{
		FullName:        r.PostFormValue("fullName"),
		Email:           r.PostFormValue("email"),
		Phone:           r.PostFormValue("phone"),
		ProjectType:     r.PostFormValue("projectType"),
		ProjectAddress:  r.PostFormValue("projectAddress"),
		InvestmentRange: r.PostFormValue("investmentRange"),
		Message:         r.PostFormValue("message"),
	}, httpx.RequestIDFrom(r))
	if errs != nil {
		h.WritePublicPage(w, r, "public.contact.title", http.StatusUnprocessableEntity, contactView(h.RequestLocalizer(r), inquiry, errs))
		return
	}
	flashnotice.Write(w, r, flashnotice.Success("public.contact.submitted"), h.SchemePolicy())
	httpx.WriteRedirect(w, r, routepath.Contact)
}

func (h handlers) handleLoginRedirect(w http.ResponseWriter, r *http.Request) {
	target := routepath.AuthLogin
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h handlers) handleInviteQuery(w http.ResponseWriter, r *http.Request) {
	inviteID := strings.TrimSpace(r.URL.Query().Get(routepath.InviteQueryKey))
	if inviteID == "" {
		h.WriteNotFound(w, r)
		return
	}
	http.Redirect(w, r, routepath.Invite(inviteID), http.StatusFound)
}

func (handlers) handleAppRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, routepath.AppDashboard, http.StatusFound)
}
