package publicauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/casanorte/casanorte/internal/platform/id"
	"github.com/casanorte/casanorte/internal/platform/phone"
	"github.com/casanorte/casanorte/internal/services/web/auth"
	"github.com/casanorte/casanorte/internal/services/web/integration/identity"
	"github.com/casanorte/casanorte/internal/services/web/passkeys"
	apperrors "github.com/casanorte/casanorte/internal/services/web/platform/errors"
	"github.com/casanorte/casanorte/internal/services/web/storage"
)

// DefaultOTPTTL bounds how long a sent phone code can be confirmed.
const DefaultOTPTTL = 10 * time.Minute

const authServiceUnavailableMessage = "auth service is not configured"

// AuthGateway abstracts authentication operations behind domain types.
type AuthGateway interface {
	// BeginPasskeyRegistration starts passkey registration for a new account.
	BeginPasskeyRegistration(ctx context.Context, registrant passkeys.Registrant) (passkeys.Ceremony, error)
	// FinishPasskeyRegistration completes registration and returns the user ID.
	FinishPasskeyRegistration(ctx context.Context, ceremonyID string, credential json.RawMessage) (string, error)
	// BeginPasskeyLogin starts a discoverable passkey login.
	BeginPasskeyLogin(ctx context.Context) (passkeys.Ceremony, error)
	// FinishPasskeyLogin completes login and returns the user ID.
	FinishPasskeyLogin(ctx context.Context, ceremonyID string, credential json.RawMessage) (string, error)
	// SendPhoneCode texts a verification code and returns the challenge ID.
	SendPhoneCode(ctx context.Context, phoneNumber string, recaptchaToken string) (string, error)
	// PhoneChallenge returns a pending phone challenge.
	PhoneChallenge(ctx context.Context, challengeID string) (storage.OTPChallenge, error)
	// VerifyPhoneCode confirms the code and returns the user ID owning the phone.
	VerifyPhoneCode(ctx context.Context, challengeID string, code string) (string, error)
	// InviteValidated reports whether the browser proved knowledge of the invite.
	InviteValidated(ctx context.Context, inviteID string, browserKey string) bool
	// StartSession creates a browser session for the user.
	StartSession(ctx context.Context, userID string) (auth.Session, error)
	// EndSession revokes the session behind token and forgets cached state for userID.
	EndSession(ctx context.Context, token string, userID string) error
}

// PhoneVerifier sends and confirms phone verification codes.
type PhoneVerifier interface {
	SendVerificationCode(ctx context.Context, phoneNumber string, recaptchaToken string) (string, error)
	SignInWithPhoneNumber(ctx context.Context, sessionInfo string, code string) (identity.Verification, error)
}

// ProfileCache drops cached profile state for a user.
type ProfileCache interface {
	Forget(userID string)
}

// Store is the persistence the gateway needs.
type Store interface {
	storage.UserStore
	storage.OTPStore
	storage.InviteValidationStore
}

// GatewayConfig carries the collaborators of the local auth gateway.
type GatewayConfig struct {
	Passkeys *passkeys.Service
	Sessions *auth.Sessions
	Phones   PhoneVerifier
	Store    Store
	Profiles ProfileCache
	OTPTTL   time.Duration
	Now      func() time.Time
	Logger   *log.Logger
}

type passkeyCeremonies interface {
	BeginRegistration(ctx context.Context, in passkeys.Registrant) (passkeys.Ceremony, error)
	FinishRegistration(ctx context.Context, ceremonyID string, credentialJSON []byte) (storage.User, error)
	BeginLogin(ctx context.Context) (passkeys.Ceremony, error)
	FinishLogin(ctx context.Context, ceremonyID string, credentialJSON []byte) (storage.User, error)
}

type sessionManager interface {
	Start(ctx context.Context, userID string) (auth.Session, error)
	Revoke(ctx context.Context, token string) error
}

type localGateway struct {
	passkeys passkeyCeremonies
	sessions sessionManager
	phones   PhoneVerifier
	store    Store
	profiles ProfileCache
	otpTTL   time.Duration
	now      func() time.Time
	newID    func() (string, error)
	logger   *log.Logger
}

// NewGateway builds an AuthGateway over local storage and the identity provider.
// A nil Passkeys or Sessions yields a gateway that reports the service as unavailable.
func NewGateway(cfg GatewayConfig) AuthGateway {
	if cfg.Passkeys == nil || cfg.Sessions == nil || cfg.Store == nil {
		return unavailableGateway{}
	}
	g := localGateway{
		passkeys: cfg.Passkeys,
		sessions: cfg.Sessions,
		store:    cfg.Store,
		otpTTL:   cfg.OTPTTL,
		now:      cfg.Now,
		newID:    id.NewID,
		logger:   cfg.Logger,
	}
	if cfg.Phones != nil {
		g.phones = cfg.Phones
	}
	if cfg.Profiles != nil {
		g.profiles = cfg.Profiles
	}
	return g.withDefaults()
}

func (g localGateway) withDefaults() localGateway {
	if g.otpTTL <= 0 {
		g.otpTTL = DefaultOTPTTL
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.newID == nil {
		g.newID = id.NewID
	}
	if g.logger == nil {
		g.logger = log.Default()
	}
	return g
}

func (g localGateway) BeginPasskeyRegistration(ctx context.Context, registrant passkeys.Registrant) (passkeys.Ceremony, error) {
	return g.passkeys.BeginRegistration(ctx, registrant)
}

func (g localGateway) FinishPasskeyRegistration(ctx context.Context, ceremonyID string, credential json.RawMessage) (string, error) {
	user, err := g.passkeys.FinishRegistration(ctx, ceremonyID, credential)
	if err != nil {
		return "", err
	}
	g.logger.Printf("auth registered user_id=%s invite_id=%s", user.ID, user.InviteID)
	return user.ID, nil
}

func (g localGateway) BeginPasskeyLogin(ctx context.Context) (passkeys.Ceremony, error) {
	return g.passkeys.BeginLogin(ctx)
}

func (g localGateway) FinishPasskeyLogin(ctx context.Context, ceremonyID string, credential json.RawMessage) (string, error) {
	user, err := g.passkeys.FinishLogin(ctx, ceremonyID, credential)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

func (g localGateway) SendPhoneCode(ctx context.Context, phoneNumber string, recaptchaToken string) (string, error) {
	if g.phones == nil {
		return "", apperrors.EK(apperrors.KindUnavailable, "auth.error.phone_unavailable", "phone sign-in is not configured")
	}
	normalized, err := phone.Normalize(phoneNumber)
	if err != nil {
		return "", apperrors.EK(apperrors.KindInvalidInput, "auth.error.phone_invalid", "phone number is invalid")
	}
	sessionInfo, err := g.phones.SendVerificationCode(ctx, normalized, recaptchaToken)
	if err != nil {
		return "", phoneProviderError(err)
	}
	challengeID, err := g.newID()
	if err != nil {
		return "", fmt.Errorf("generate challenge id: %w", err)
	}
	now := g.now().UTC()
	if err := g.store.PutOTPChallenge(ctx, storage.OTPChallenge{
		ID:          challengeID,
		PhoneNumber: normalized,
		SessionInfo: sessionInfo,
		CreatedAt:   now,
		ExpiresAt:   now.Add(g.otpTTL),
	}); err != nil {
		return "", fmt.Errorf("store otp challenge: %w", err)
	}
	return challengeID, nil
}

func (g localGateway) PhoneChallenge(ctx context.Context, challengeID string) (storage.OTPChallenge, error) {
	challengeID = strings.TrimSpace(challengeID)
	if challengeID == "" {
		return storage.OTPChallenge{}, apperrors.EK(apperrors.KindNotFound, "auth.error.code_expired", "otp challenge id is required")
	}
	challenge, err := g.store.GetOTPChallenge(ctx, challengeID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.OTPChallenge{}, apperrors.EK(apperrors.KindNotFound, "auth.error.code_expired", "otp challenge not found")
		}
		return storage.OTPChallenge{}, fmt.Errorf("load otp challenge: %w", err)
	}
	if challenge.VerifiedAt != nil || !challenge.ExpiresAt.After(g.now().UTC()) {
		return storage.OTPChallenge{}, apperrors.EK(apperrors.KindUnauthorized, "auth.error.code_expired", "otp challenge expired")
	}
	return challenge, nil
}

func (g localGateway) VerifyPhoneCode(ctx context.Context, challengeID string, code string) (string, error) {
	if g.phones == nil {
		return "", apperrors.EK(apperrors.KindUnavailable, "auth.error.phone_unavailable", "phone sign-in is not configured")
	}
	challenge, err := g.PhoneChallenge(ctx, challengeID)
	if err != nil {
		return "", err
	}
	verification, err := g.phones.SignInWithPhoneNumber(ctx, challenge.SessionInfo, code)
	if err != nil {
		return "", phoneProviderError(err)
	}
	now := g.now().UTC()
	if err := g.store.MarkOTPChallengeVerified(ctx, challenge.ID, now); err != nil {
		return "", fmt.Errorf("mark otp challenge verified: %w", err)
	}

	phoneNumber := challenge.PhoneNumber
	if normalized, err := phone.Normalize(verification.PhoneNumber); err == nil {
		phoneNumber = normalized
	}
	user, err := g.store.GetUserByPhone(ctx, phoneNumber)
	switch {
	case err == nil:
		return user.ID, nil
	case !errors.Is(err, storage.ErrNotFound):
		return "", fmt.Errorf("load user by phone: %w", err)
	}

	userID, err := g.newID()
	if err != nil {
		return "", fmt.Errorf("generate user id: %w", err)
	}
	user = storage.User{
		ID:          userID,
		Username:    phoneNumber,
		PhoneNumber: phoneNumber,
		Status:      storage.StatusReviewRequired,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := g.store.PutUser(ctx, user); err != nil {
		return "", fmt.Errorf("create phone user: %w", err)
	}
	g.logger.Printf("auth registered user_id=%s method=phone", user.ID)
	return user.ID, nil
}

func (g localGateway) InviteValidated(ctx context.Context, inviteID string, browserKey string) bool {
	inviteID, browserKey = strings.TrimSpace(inviteID), strings.TrimSpace(browserKey)
	if inviteID == "" || browserKey == "" {
		return false
	}
	validation, err := g.store.GetInviteValidation(ctx, inviteID, browserKey)
	if err != nil {
		return false
	}
	return validation.ExpiresAt.After(g.now().UTC())
}

func (g localGateway) StartSession(ctx context.Context, userID string) (auth.Session, error) {
	return g.sessions.Start(ctx, userID)
}

func (g localGateway) EndSession(ctx context.Context, token string, userID string) error {
	if g.profiles != nil && strings.TrimSpace(userID) != "" {
		g.profiles.Forget(userID)
	}
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return g.sessions.Revoke(ctx, token)
}

func phoneProviderError(err error) error {
	switch identity.Code(err) {
	case identity.CodeInvalidCode:
		return apperrors.Error{Kind: apperrors.KindInvalidInput, Key: "auth.error.code_invalid", Err: err}
	case identity.CodeSessionExpired:
		return apperrors.Error{Kind: apperrors.KindUnauthorized, Key: "auth.error.code_expired", Err: err}
	case identity.CodeInvalidPhone:
		return apperrors.Error{Kind: apperrors.KindInvalidInput, Key: "auth.error.phone_invalid", Err: err}
	case identity.CodeTooManyAttempts:
		return apperrors.Error{Kind: apperrors.KindRateLimited, Key: "auth.error.too_many_attempts", Err: err}
	}
	return err
}

type unavailableGateway struct{}

func (unavailableGateway) BeginPasskeyRegistration(context.Context, passkeys.Registrant) (passkeys.Ceremony, error) {
	return passkeys.Ceremony{}, apperrors.E(apperrors.KindUnavailable, authServiceUnavailableMessage)
}

func (unavailableGateway) FinishPasskeyRegistration(context.Context, string, json.RawMessage) (string, error) {
	return "", apperrors.E(apperrors.KindUnavailable, authServiceUnavailableMessage)
}

func (unavailableGateway) BeginPasskeyLogin(context.Context) (passkeys.Ceremony, error) {
	return passkeys.Ceremony{}, apperrors.E(apperrors.KindUnavailable, authServiceUnavailableMessage)
}

func (unavailableGateway) FinishPasskeyLogin(context.Context, string, json.RawMessage) (string, error) {
	return "", apperrors.E(apperrors.KindUnavailable, authServiceUnavailableMessage)
}

func (unavailableGateway) SendPhoneCode(context.Context, string, string) (string, error) {
	return "", apperrors.E(apperrors.KindUnavailable, authServiceUnavailableMessage)
}

func (unavailableGateway) PhoneChallenge(context.Context, string) (storage.OTPChallenge, error) {
	return storage.OTPChallenge{}, apperrors.E(apperrors.KindUnavailable, authServiceUnavailableMessage)
}

func (unavailableGateway) VerifyPhoneCode(context.Context, string, string) (string, error) {
	return "", apperrors.E(apperrors.KindUnavailable, authServiceUnavailableMessage)
}

func (unavailableGateway) InviteValidated(context.Context, string, string) bool {
	return false
}

func (unavailableGateway) StartSession(context.Context, string) (auth.Session, error) {
	return auth.Session{}, apperrors.E(apperrors.KindUnavailable, authServiceUnavailableMessage)
}

func (unavailableGateway) EndSession(context.Context, string, string) error {
	return nil
}
