package invites

import (
	"context"
	"log"
	"net/mail"
	"slices"
	"strings"

	"github.com/casanorte/casanorte/internal/platform/phone"
	"github.com/casanorte/casanorte/internal/services/web/integration/casanorteapi"
	apperrors "github.com/casanorte/casanorte/internal/services/web/platform/errors"
)

// InviteAPI is the staff-facing invites surface of the Casa Norte API.
type InviteAPI interface {
	CreateInvite(ctx context.Context, token string, in casanorteapi.CreateInviteRequest) (casanorteapi.Invite, error)
	GetInvite(ctx context.Context, token string, inviteID string) (casanorteapi.Invite, error)
}

// TokenIssuer mints bearer tokens for API calls made on a user's behalf.
type TokenIssuer interface {
	IssueAPIToken(userID string) (string, error)
}

// Roles offered on the invite form, in display order.
var Roles = []string{casanorteapi.RoleTenantAdmin, casanorteapi.RoleTeamMember}

// FieldErrors maps form field names to localization keys.
type FieldErrors map[string]string

// Draft is the invite form as submitted.
type Draft struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Roles       []string
}

type service struct {
	api    InviteAPI
	tokens TokenIssuer
	logger *log.Logger
}

func newService(config Config) service {
	s := service{api: config.API, tokens: config.Tokens, logger: config.Logger}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

// validate trims draft, keeps only known roles, and reports field errors.
func validate(draft Draft) (Draft, FieldErrors) {
	draft.FirstName = strings.TrimSpace(draft.FirstName)
	draft.LastName = strings.TrimSpace(draft.LastName)
	draft.Email = strings.TrimSpace(draft.Email)
	draft.PhoneNumber = strings.TrimSpace(draft.PhoneNumber)
	roles := make([]string, 0, len(draft.Roles))
	for _, role := range Roles {
		if slices.Contains(draft.Roles, role) {
			roles = append(roles, role)
		}
	}
	draft.Roles = roles

	errs := FieldErrors{}
	if draft.FirstName == "" {
		errs["firstName"] = "invites.error.first_name_required"
	}
	if draft.LastName == "" {
		errs["lastName"] = "invites.error.last_name_required"
	}
	if draft.Email != "" {
		if addr, err := mail.ParseAddress(draft.Email); err != nil || addr.Address != draft.Email {
			errs["email"] = "invites.error.email_invalid"
		}
	}
	if draft.PhoneNumber == "" {
		errs["phoneNumber"] = "invites.error.phone_required"
	} else if _, err := phone.Normalize(draft.PhoneNumber); err != nil {
		errs["phoneNumber"] = "invites.error.phone_invalid"
	}
	if len(draft.Roles) == 0 {
		errs["roles"] = "invites.error.roles_required"
	}
	if len(errs) == 0 {
		return draft, nil
	}
	return draft, errs
}

// create submits a validated draft with the phone in E.164.
func (s service) create(ctx context.Context, userID string, draft Draft) (casanorteapi.Invite, error) {
	token, err := s.token(userID)
	if err != nil {
		return casanorteapi.Invite{}, err
	}
	normalized, err := phone.Normalize(draft.PhoneNumber)
	if err != nil {
		return casanorteapi.Invite{}, apperrors.EK(apperrors.KindInvalidInput, "invites.error.phone_invalid", "phone number is invalid")
	}
	invite, err := s.api.CreateInvite(ctx, token, casanorteapi.CreateInviteRequest{
		Email:       draft.Email,
		Roles:       draft.Roles,
		FirstName:   draft.FirstName,
		LastName:    draft.LastName,
		PhoneNumber: normalized,
	})
	if err != nil {
		return casanorteapi.Invite{}, err
	}
	if strings.TrimSpace(invite.InviteID) == "" {
		return casanorteapi.Invite{}, apperrors.E(apperrors.KindUnknown, "invite api returned no invite id")
	}
	s.logger.Printf("invite created user_id=%s invite_id=%s roles=%s", userID, invite.InviteID, strings.Join(draft.Roles, ","))
	return invite, nil
}

func (s service) invite(ctx context.Context, userID string, inviteID string) (casanorteapi.Invite, error) {
	token, err := s.token(userID)
	if err != nil {
		return casanorteapi.Invite{}, err
	}
	return s.api.GetInvite(ctx, token, inviteID)
}

func (s service) token(userID string) (string, error) {
	if s.api == nil || s.tokens == nil {
		return "", apperrors.EK(apperrors.KindUnavailable, "invites.error.unavailable", "invites api is not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return "", apperrors.E(apperrors.KindUnauthorized, "user id is required")
	}
	token, err := s.tokens.IssueAPIToken(userID)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindUnknown, "issue api token", err)
	}
	return token, nil
}
