package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrConflict indicates a uniqueness constraint would be violated.
var ErrConflict = errors.New("record already exists")

// StatusReviewRequired marks an account that has not finished onboarding.
const StatusReviewRequired = "REGISTRATION_REVIEW_REQUIRED"

// StatusActive marks an account that finished onboarding.
const StatusActive = "ACTIVE"

// User is a local Casa Norte account.
type User struct {
	ID          string
	Username    string
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Status      string
	InviteID    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PasskeyCredential stores a serialized WebAuthn credential for a user.
type PasskeyCredential struct {
	CredentialID   string
	UserID         string
	CredentialJSON string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastUsedAt     *time.Time
}

// PasskeySession stores an in-flight WebAuthn registration or login ceremony.
type PasskeySession struct {
	ID          string
	Kind        string
	UserID      string
	SessionJSON string
	ExpiresAt   time.Time
}

// WebSession is a signed-in browser session. Tokens reference it by ID so it
// can be revoked before the token expires.
type WebSession struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Active reports whether the session can still authenticate requests at now.
func (s WebSession) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// OTPChallenge tracks a phone verification code sent through the identity provider.
type OTPChallenge struct {
	ID          string
	PhoneNumber string
	SessionInfo string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	VerifiedAt  *time.Time
}

// InviteValidation records that a browser proved knowledge of an invite's phone digits.
type InviteValidation struct {
	InviteID    string
	BrowserKey  string
	ValidatedAt time.Time
	ExpiresAt   time.Time
}

// UserStore persists local accounts.
type UserStore interface {
	PutUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, userID string) (User, error)
	GetUserByPhone(ctx context.Context, phoneNumber string) (User, error)
}

// PasskeyStore persists WebAuthn credentials and ceremony sessions.
type PasskeyStore interface {
	PutPasskeyCredential(ctx context.Context, credential PasskeyCredential) error
	GetPasskeyCredential(ctx context.Context, credentialID string) (PasskeyCredential, error)
	ListPasskeyCredentials(ctx context.Context, userID string) ([]PasskeyCredential, error)
	PutPasskeySession(ctx context.Context, session PasskeySession) error
	GetPasskeySession(ctx context.Context, id string) (PasskeySession, error)
	DeletePasskeySession(ctx context.Context, id string) error
}

// SessionStore persists signed-in browser sessions.
type SessionStore interface {
	PutWebSession(ctx context.Context, session WebSession) error
	GetWebSession(ctx context.Context, id string) (WebSession, error)
	RevokeWebSession(ctx context.Context, id string, at time.Time) error
}

// OTPStore persists phone verification challenges.
type OTPStore interface {
	PutOTPChallenge(ctx context.Context, challenge OTPChallenge) error
	GetOTPChallenge(ctx context.Context, id string) (OTPChallenge, error)
	MarkOTPChallengeVerified(ctx context.Context, id string, at time.Time) error
}

// InviteValidationStore persists invite phone-validation receipts.
type InviteValidationStore interface {
	PutInviteValidation(ctx context.Context, validation InviteValidation) error
	GetInviteValidation(ctx context.Context, inviteID string, browserKey string) (InviteValidation, error)
}

// Store is the full persistence surface of the web service.
type Store interface {
	UserStore
	PasskeyStore
	SessionStore
	OTPStore
	InviteValidationStore
	DeleteExpired(ctx context.Context, now time.Time) error
	Close() error
}
