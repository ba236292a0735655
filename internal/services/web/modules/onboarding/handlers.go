package onboarding

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/casanorte/casanorte/internal/services/web/integration/casanorteapi"
	"github.com/casanorte/casanorte/internal/services/web/modalhost"
	apperrors "github.com/casanorte/casanorte/internal/services/web/platform/errors"
	flashnotice "github.com/casanorte/casanorte/internal/services/web/platform/flash"
	"github.com/casanorte/casanorte/internal/services/web/platform/httpx"
	"github.com/casanorte/casanorte/internal/services/web/platform/modulehandler"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
)

const (
	maxStepFormBytes     = 16 << 10
	maxCompleteFormBytes = MaxPhotoBytes + 64<<10
)

type handlers struct {
	modulehandler.Base
	service service
}

func newHandlers(base modulehandler.Base, s service) handlers {
	return handlers{Base: base, service: s}
}

func formFromRequest(r *http.Request) Form {
	return Form{
		FirstName:   r.PostFormValue("firstName"),
		LastName:    r.PostFormValue("lastName"),
		PhoneNumber: r.PostFormValue("phoneNumber"),
	}
}

// carriedForm keeps whatever the rejected request managed to post and falls
// back to the values the active dialog already carries.
func carriedForm(r *http.Request, host *modalhost.Host) Form {
	var form Form
	if props, ok := host.ActiveProps(ModalID); ok {
		form = formFromProps(props)
	}
	posted := formFromRequest(r)
	if posted.FirstName != "" {
		form.FirstName = posted.FirstName
	}
	if posted.LastName != "" {
		form.LastName = posted.LastName
	}
	if posted.PhoneNumber != "" {
		form.PhoneNumber = posted.PhoneNumber
	}
	return form
}

// handleStep moves the dialog to the requested step, re-showing the
// descriptor with the form carried so far.
func (h handlers) handleStep(w http.ResponseWriter, r *http.Request) {
	host, err := h.ModalHost(r)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxCompleteFormBytes)
	if err := r.ParseMultipartForm(maxStepFormBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	step := normalizeStep(r.PostFormValue("step"))
	form := formFromRequest(r)
	status := http.StatusOK
	var errs FieldErrors
	if step == StepPhoto {
		form, errs = validateContact(form)
		if errs != nil {
			step = StepContact
			status = http.StatusUnprocessableEntity
		}
	}
	host.ShowModal(Descriptor(step, form, errs))
	h.writeDialog(w, r, host, status)
}

func (h handlers) handleComplete(w http.ResponseWriter, r *http.Request) {
	host, err := h.ModalHost(r)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxCompleteFormBytes)
	if err := r.ParseMultipartForm(MaxPhotoBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.showPhotoError(w, r, host, carriedForm(r, host), "photo", "onboarding.error.photo_too_large", http.StatusRequestEntityTooLarge)
		return
	}

	form, errs := validateContact(formFromRequest(r))
	if errs != nil {
		host.ShowModal(Descriptor(StepContact, form, errs))
		h.writeDialog(w, r, host, http.StatusUnprocessableEntity)
		return
	}
	photo, photoErr := readPhoto(r)
	if photoErr != "" {
		h.showPhotoError(w, r, host, form, "photo", photoErr, http.StatusUnprocessableEntity)
		return
	}

	ctx, userID := h.RequestContextAndUserID(r)
	if err := h.service.complete(ctx, userID, form, photo); err != nil {
		key := apperrors.LocalizationKey(err)
		if key == "" {
			key = "onboarding.error.submit_failed"
		}
		h.service.logger.Printf("onboarding complete failed user_id=%s err=%v", userID, err)
		h.showPhotoError(w, r, host, form, "form", key, http.StatusBadGateway)
		return
	}

	host.CloseModal(ModalID)
	flashnotice.Write(w, r, flashnotice.Success("onboarding.completed"), h.Dependencies().SchemePolicy)
	httpx.WriteRedirect(w, r, routepath.AppDashboard)
}

func (h handlers) showPhotoError(w http.ResponseWriter, r *http.Request, host *modalhost.Host, form Form, field string, key string, status int) {
	host.ShowModal(Descriptor(StepPhoto, form, FieldErrors{field: key}))
	h.writeDialog(w, r, host, status)
}

// writeDialog returns the active dialog to HTMX callers and sends everyone
// else back to the page the dialog was opened on.
func (h handlers) writeDialog(w http.ResponseWriter, r *http.Request, host *modalhost.Host, status int) {
	if !httpx.IsHTMXRequest(r) {
		httpx.WriteRedirect(w, r, routepath.AppReturn(r.Referer(), r.Host))
		return
	}
	dialog, ok := host.Active()
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	h.WriteFragment(w, r, status, dialog)
}

// readPhoto returns the uploaded photo, or a localization key when the upload
// is not an acceptable image.
func readPhoto(r *http.Request) (*casanorteapi.Photo, string) {
	if r.MultipartForm == nil {
		return nil, ""
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		return nil, ""
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, MaxPhotoBytes+1))
	if err != nil {
		return nil, "onboarding.error.photo_invalid"
	}
	if len(data) == 0 {
		return nil, ""
	}
	if len(data) > MaxPhotoBytes {
		return nil, "onboarding.error.photo_too_large"
	}
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return nil, "onboarding.error.photo_invalid"
	}
	name := strings.TrimSpace(header.Filename)
	if name != "" {
		name = filepath.Base(name)
	}
	return &casanorteapi.Photo{Filename: name, Data: data}, ""
}
