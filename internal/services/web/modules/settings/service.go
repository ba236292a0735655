package settings

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/casanorte/casanorte/internal/platform/phone"
	apperrors "github.com/casanorte/casanorte/internal/services/web/platform/errors"
	"github.com/casanorte/casanorte/internal/services/web/storage"
)

// FieldErrors maps form field names to localization keys.
type FieldErrors map[string]string

// Account is the editable slice of the local user record.
type Account struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
}

type service struct {
	users    storage.UserStore
	profiles ProfileCache
	now      func() time.Time
	logger   *log.Logger
}

func newService(config Config) service {
	s := service{users: config.Users, profiles: config.Profiles, now: config.Now, logger: config.Logger}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

// loadAccount returns the account with its phone in display format.
func (s service) loadAccount(ctx context.Context, userID string) (Account, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return Account{}, err
	}
	return Account{
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Email:       user.Email,
		PhoneNumber: phone.Display(user.PhoneNumber),
	}, nil
}

// validate trims account and reports field errors.
func validate(account Account) (Account, FieldErrors) {
	account.FirstName = strings.TrimSpace(account.FirstName)
	account.LastName = strings.TrimSpace(account.LastName)
	account.Email = strings.TrimSpace(account.Email)
	account.PhoneNumber = strings.TrimSpace(account.PhoneNumber)

	errs := FieldErrors{}
	if account.Email != "" {
		if addr, err := mail.ParseAddress(account.Email); err != nil || addr.Address != account.Email {
			errs["email"] = "settings.error.email_invalid"
		}
	}
	if account.PhoneNumber != "" {
		if _, err := phone.Normalize(account.PhoneNumber); err != nil {
			errs["phoneNumber"] = "settings.error.phone_invalid"
		}
	}
	if len(errs) == 0 {
		return account, nil
	}
	return account, errs
}

// saveAccount writes a validated account to the local user record. The phone
// is stored in E.164.
func (s service) saveAccount(ctx context.Context, userID string, account Account) error {
	user, err := s.user(ctx, userID)
	if err != nil {
		return err
	}
	user.FirstName = account.FirstName
	user.LastName = account.LastName
	user.Email = account.Email
	user.PhoneNumber = ""
	if account.PhoneNumber != "" {
		normalized, err := phone.Normalize(account.PhoneNumber)
		if err != nil {
			return apperrors.EK(apperrors.KindInvalidInput, "settings.error.phone_invalid", "phone number is invalid")
		}
		user.PhoneNumber = normalized
	}
	user.UpdatedAt = s.now().UTC()
	if err := s.users.PutUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return apperrors.EK(apperrors.KindConflict, "settings.error.phone_taken", "phone number belongs to another account")
		}
		return fmt.Errorf("save user: %w", err)
	}
	if s.profiles != nil {
		s.profiles.Forget(user.ID)
	}
	s.logger.Printf("settings saved user_id=%s", user.ID)
	return nil
}

func (s service) user(ctx context.Context, userID string) (storage.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return storage.User{}, apperrors.E(apperrors.KindUnauthorized, "user id is required")
	}
	if s.users == nil {
		return storage.User{}, apperrors.E(apperrors.KindUnavailable, "account store is not configured")
	}
	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.User{}, apperrors.Wrap(apperrors.KindNotFound, "load user", err)
	}
	if err != nil {
		return storage.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}
