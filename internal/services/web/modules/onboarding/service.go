package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/casanorte/casanorte/internal/platform/phone"
	"github.com/casanorte/casanorte/internal/services/web/integration/casanorteapi"
	apperrors "github.com/casanorte/casanorte/internal/services/web/platform/errors"
	"github.com/casanorte/casanorte/internal/services/web/profile"
	"github.com/casanorte/casanorte/internal/services/web/storage"
)

// MaxPhotoBytes caps the uploaded profile photo.
const MaxPhotoBytes = 5 << 20

// ProfileCompleter submits onboarding details to the profile API.
type ProfileCompleter interface {
	Complete(ctx context.Context, userID string, payload casanorteapi.CompleteHydration) (casanorteapi.Profile, error)
}

type service struct {
	profiles ProfileCompleter
	users    storage.UserStore
	now      func() time.Time
	logger   *log.Logger
}

func newService(config Config) service {
	s := service{profiles: config.Profiles, users: config.Users, now: config.Now, logger: config.Logger}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

// validateContact trims form and reports field errors for the contact step.
func validateContact(form Form) (Form, FieldErrors) {
	form.FirstName = strings.TrimSpace(form.FirstName)
	form.LastName = strings.TrimSpace(form.LastName)
	form.PhoneNumber = strings.TrimSpace(form.PhoneNumber)
	errs := FieldErrors{}
	if form.FirstName == "" {
		errs["firstName"] = "onboarding.error.first_name_required"
	}
	if form.LastName == "" {
		errs["lastName"] = "onboarding.error.last_name_required"
	}
	if form.PhoneNumber != "" {
		if _, err := phone.Normalize(form.PhoneNumber); err != nil {
			errs["phoneNumber"] = "onboarding.error.phone_invalid"
		}
	}
	if len(errs) == 0 {
		return form, nil
	}
	return form, errs
}

// complete submits the onboarding details and marks the local account active.
func (s service) complete(ctx context.Context, userID string, form Form, photo *casanorteapi.Photo) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return apperrors.E(apperrors.KindUnauthorized, "user id is required")
	}
	normalizedPhone := ""
	if form.PhoneNumber != "" {
		normalizedPhone, _ = phone.Normalize(form.PhoneNumber)
	}

	if s.profiles != nil {
		_, err := s.profiles.Complete(ctx, userID, casanorteapi.CompleteHydration{
			FirstName:   form.FirstName,
			LastName:    form.LastName,
			PhoneNumber: normalizedPhone,
			Photo:       photo,
		})
		switch {
		case errors.Is(err, profile.ErrUnavailable):
			s.logger.Printf("onboarding complete without profile api user_id=%s", userID)
		case err != nil:
			return err
		}
	}
	if s.users == nil {
		return nil
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	user.FirstName = form.FirstName
	user.LastName = form.LastName
	if normalizedPhone != "" {
		user.PhoneNumber = normalizedPhone
	}
	user.Status = storage.StatusActive
	user.UpdatedAt = s.now().UTC()
	if err := s.users.PutUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return apperrors.EK(apperrors.KindConflict, "onboarding.error.phone_taken", "phone number belongs to another account")
		}
		return fmt.Errorf("activate user: %w", err)
	}
	s.logger.Printf("onboarding completed user_id=%s", userID)
	return nil
}
