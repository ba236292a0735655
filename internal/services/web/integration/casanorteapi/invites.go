package casanorteapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const invitesPath = "/v1/invites"

// Invite roles accepted by the invites API.
const (
	RoleTenantAdmin = "tenant_admin"
	RoleTeamMember  = "team_member"
)

// validationUnavailable is the reason reported when the validate call fails.
const validationUnavailable = "Validation service unavailable"

// CreateInviteRequest is the body of POST /v1/invites.
type CreateInviteRequest struct {
	Email       string   `json:"email,omitempty"`
	Roles       []string `json:"roles"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	PhoneNumber string   `json:"phoneNumber"`
}

// Invite is an invite as seen by its creator.
type Invite struct {
	InviteID   string `json:"inviteId"`
	Status     string `json:"status,omitempty"`
	ExpiresAt  int64  `json:"expiresAt,omitempty"`
	InviteLink string `json:"inviteLink,omitempty"`
	ShortCode  string `json:"shortCode,omitempty"`
}

// Expiry converts the millisecond expiry into a time, zero when unset.
func (i Invite) Expiry() time.Time {
	return millis(i.ExpiresAt)
}

// PublicInvite is the masked invite shown to an invitee before validation.
type PublicInvite struct {
	InviteID          string `json:"inviteId"`
	MaskedEmail       string `json:"maskedEmail"`
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	MaskedPhoneNumber string `json:"maskedPhoneNumber"`
	TenantID          string `json:"tenantId"`
	TenantName        string `json:"tenantName"`
	Status            string `json:"status"`
	ExpiresAt         int64  `json:"expiresAt"`
}

// Expiry converts the millisecond expiry into a time, zero when unset.
func (i PublicInvite) Expiry() time.Time {
	return millis(i.ExpiresAt)
}

// Validation is the outcome of a last-four-digits check.
type Validation struct {
	IsValid           bool   `json:"isValid"`
	RemainingAttempts int    `json:"remainingAttempts"`
	Reason            string `json:"reason,omitempty"`
}

type validateRequest struct {
	Last4Digits string `json:"last4Digits"`
	InviteID    string `json:"inviteId"`
}

// CreateInvite issues a new invite.
func (c *Client) CreateInvite(ctx context.Context, token string, in CreateInviteRequest) (Invite, error) {
	req, err := jsonRequest(http.MethodPost, c.inviteURL(""), token, in)
	if err != nil {
		return Invite{}, err
	}
	var invite Invite
	if err := do(ctx, c, req, &invite); err != nil {
		return Invite{}, fmt.Errorf("create invite: %w", err)
	}
	return invite, nil
}

// GetInvite loads an invite for its creator.
func (c *Client) GetInvite(ctx context.Context, token string, inviteID string) (Invite, error) {
	if strings.TrimSpace(inviteID) == "" {
		return Invite{}, errors.New("invite id is required")
	}
	req, err := jsonRequest(http.MethodGet, c.inviteURL(inviteID), token, nil)
	if err != nil {
		return Invite{}, err
	}
	var invite Invite
	if err := do(ctx, c, req, &invite); err != nil {
		return Invite{}, fmt.Errorf("get invite: %w", err)
	}
	return invite, nil
}

// GetPublicInvite loads the masked invite for an anonymous invitee.
func (c *Client) GetPublicInvite(ctx context.Context, inviteID string) (PublicInvite, error) {
	if strings.TrimSpace(inviteID) == "" {
		return PublicInvite{}, errors.New("invite id is required")
	}
	req, err := jsonRequest(http.MethodGet, c.inviteURL(inviteID)+"/public", "", nil)
	if err != nil {
		return PublicInvite{}, err
	}
	var invite PublicInvite
	if err := do(ctx, c, req, &invite); err != nil {
		return PublicInvite{}, fmt.Errorf("get public invite: %w", err)
	}
	return invite, nil
}

// ValidateInvitePhone checks the invitee's last four phone digits. Transport
// and upstream failures come back as an invalid result with no attempts left
// rather than an error.
func (c *Client) ValidateInvitePhone(ctx context.Context, inviteID string, last4 string) Validation {
	req, err := jsonRequest(http.MethodPost, c.inviteURL(inviteID)+"/validate", "", validateRequest{
		Last4Digits: strings.TrimSpace(last4),
		InviteID:    strings.TrimSpace(inviteID),
	})
	if err != nil {
		return Validation{Reason: validationUnavailable}
	}
	var result Validation
	if err := do(ctx, c, req, &result); err != nil {
		reason := Message(err)
		if reason == "" {
			reason = validationUnavailable
		}
		return Validation{Reason: reason}
	}
	return result
}

func (c *Client) inviteURL(inviteID string) string {
	if c == nil {
		return ""
	}
	target := c.authBaseURL + invitesPath
	if inviteID = strings.TrimSpace(inviteID); inviteID != "" {
		target += "/" + url.PathEscape(inviteID)
	}
	return target
}

func millis(value int64) time.Time {
	if value <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}
