package publicinvites

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/casanorte/casanorte/internal/platform/phone"
	"github.com/casanorte/casanorte/internal/services/web/integration/casanorteapi"
	apperrors "github.com/casanorte/casanorte/internal/services/web/platform/errors"
	"github.com/casanorte/casanorte/internal/services/web/storage"
)

// DefaultValidationTTL bounds how long a digits check unlocks registration.
const DefaultValidationTTL = 30 * time.Minute

const statusPending = "PENDING"

// InviteAPI reads public invites and checks invitee phone digits.
type InviteAPI interface {
	GetPublicInvite(ctx context.Context, inviteID string) (casanorteapi.PublicInvite, error)
	ValidateInvitePhone(ctx context.Context, inviteID string, last4 string) casanorteapi.Validation
}

// Outcome is the result of a digits check as shown to the invitee.
type Outcome struct {
	Valid             bool
	RemainingAttempts int
	// Reason is upstream text; ReasonKey is used when the check never reached upstream.
	Reason    string
	ReasonKey string
}

type service struct {
	api         InviteAPI
	validations storage.InviteValidationStore
	ttl         time.Duration
	now         func() time.Time
	logger      *log.Logger
}

func newService(api InviteAPI, validations storage.InviteValidationStore, config Config) service {
	s := service{api: api, validations: validations, ttl: config.ValidationTTL, now: config.Now, logger: config.Logger}
	if s.ttl <= 0 {
		s.ttl = DefaultValidationTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

func (s service) invite(ctx context.Context, inviteID string) (casanorteapi.PublicInvite, error) {
	if s.api == nil {
		return casanorteapi.PublicInvite{}, apperrors.E(apperrors.KindUnavailable, "invites service is not configured")
	}
	inviteID = strings.TrimSpace(inviteID)
	if inviteID == "" {
		return casanorteapi.PublicInvite{}, apperrors.E(apperrors.KindNotFound, "invite id is required")
	}
	invite, err := s.api.GetPublicInvite(ctx, inviteID)
	if err != nil {
		return casanorteapi.PublicInvite{}, err
	}
	if invite.InviteID == "" {
		invite.InviteID = inviteID
	}
	return invite, nil
}

// open reports whether the invite can still be accepted.
func (s service) open(invite casanorteapi.PublicInvite) bool {
	if status := strings.ToUpper(strings.TrimSpace(invite.Status)); status != "" && status != statusPending {
		return false
	}
	expiry := invite.Expiry()
	return expiry.IsZero() || expiry.After(s.now())
}

func (s service) validate(ctx context.Context, inviteID string, browserKey string, last4 string) (Outcome, error) {
	last4 = strings.TrimSpace(last4)
	if len(last4) != 4 || phone.Digits(last4) != last4 {
		return Outcome{ReasonKey: "invites.public.error.digits_invalid"}, nil
	}
	if s.api == nil {
		return Outcome{}, apperrors.E(apperrors.KindUnavailable, "invites service is not configured")
	}
	result := s.api.ValidateInvitePhone(ctx, inviteID, last4)
	outcome := Outcome{Valid: result.IsValid, RemainingAttempts: result.RemainingAttempts, Reason: strings.TrimSpace(result.Reason)}
	if !outcome.Valid {
		if outcome.Reason == "" {
			outcome.ReasonKey = "invites.public.error.digits_mismatch"
		}
		s.logger.Printf("invite validation failed invite_id=%s remaining=%d", inviteID, result.RemainingAttempts)
		return outcome, nil
	}
	if s.validations == nil {
		return Outcome{}, apperrors.E(apperrors.KindUnavailable, "invite validation store is not configured")
	}
	now := s.now().UTC()
	if err := s.validations.PutInviteValidation(ctx, storage.InviteValidation{
		InviteID:    inviteID,
		BrowserKey:  browserKey,
		ValidatedAt: now,
		ExpiresAt:   now.Add(s.ttl),
	}); err != nil {
		return Outcome{}, fmt.Errorf("record invite validation: %w", err)
	}
	return outcome, nil
}

func (s service) validated(ctx context.Context, inviteID string, browserKey string) bool {
	if s.validations == nil || strings.TrimSpace(browserKey) == "" {
		return false
	}
	validation, err := s.validations.GetInviteValidation(ctx, inviteID, browserKey)
	if err != nil {
		return false
	}
	return validation.ExpiresAt.After(s.now().UTC())
}
