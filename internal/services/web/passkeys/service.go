// Package passkeys runs WebAuthn registration and discoverable login
// ceremonies for local Casa Norte accounts.
package passkeys

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/casanorte/casanorte/internal/platform/id"
	"github.com/casanorte/casanorte/internal/platform/phone"
	apperrors "github.com/casanorte/casanorte/internal/services/web/platform/errors"
	"github.com/casanorte/casanorte/internal/services/web/storage"
)

// DefaultSessionTTL bounds an unfinished ceremony.
const DefaultSessionTTL = 5 * time.Minute

// SessionKind distinguishes stored ceremony sessions.
type SessionKind string

const (
	SessionKindRegistration SessionKind = "registration"
	SessionKindLogin        SessionKind = "login"
)

// Config configures the relying party.
type Config struct {
	RPID          string
	RPDisplayName string
	RPOrigins     []string
	SessionTTL    time.Duration
}

// Registrant is the account a registration ceremony will create.
type Registrant struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	InviteID    string `json:"inviteId,omitempty"`
}

// Ceremony is a started ceremony: the id the browser echoes back and the
// options it passes to navigator.credentials.
type Ceremony struct {
	ID      string          `json:"id"`
	Options json.RawMessage `json:"options"`
}

type provider interface {
	BeginRegistration(user webauthn.User, opts ...webauthn.RegistrationOption) (*protocol.CredentialCreation, *webauthn.SessionData, error)
	CreateCredential(user webauthn.User, session webauthn.SessionData, response *protocol.ParsedCredentialCreationData) (*webauthn.Credential, error)
	BeginDiscoverableLogin(opts ...webauthn.LoginOption) (*protocol.CredentialAssertion, *webauthn.SessionData, error)
	ValidatePasskeyLogin(handler webauthn.DiscoverableUserHandler, session webauthn.SessionData, response *protocol.ParsedCredentialAssertionData) (webauthn.User, *webauthn.Credential, error)
}

type parser interface {
	ParseCredentialCreationResponseBytes(data []byte) (*protocol.ParsedCredentialCreationData, error)
	ParseCredentialRequestResponseBytes(data []byte) (*protocol.ParsedCredentialAssertionData, error)
}

type protocolParser struct{}

func (protocolParser) ParseCredentialCreationResponseBytes(data []byte) (*protocol.ParsedCredentialCreationData, error) {
	return protocol.ParseCredentialCreationResponseBytes(data)
}

func (protocolParser) ParseCredentialRequestResponseBytes(data []byte) (*protocol.ParsedCredentialAssertionData, error) {
	return protocol.ParseCredentialRequestResponseBytes(data)
}

// Store is the persistence the ceremonies need.
type Store interface {
	storage.UserStore
	storage.PasskeyStore
}

// Service runs passkey ceremonies.
type Service struct {
	store      Store
	webAuthn   provider
	parser     parser
	sessionTTL time.Duration
	now        func() time.Time
	newID      func() (string, error)
}

// New builds a Service for cfg.
func New(store Store, cfg Config, now func() time.Time) (*Service, error) {
	if store == nil {
		return nil, errors.New("passkey store is required")
	}
	rpID := strings.TrimSpace(cfg.RPID)
	if rpID == "" {
		return nil, errors.New("relying party id is required")
	}
	origins := make([]string, 0, len(cfg.RPOrigins))
	for _, origin := range cfg.RPOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return nil, errors.New("at least one relying party origin is required")
	}
	displayName := strings.TrimSpace(cfg.RPDisplayName)
	if displayName == "" {
		displayName = "Casa Norte"
	}
	webAuthn, err := webauthn.New(&webauthn.Config{
		RPID:          rpID,
		RPDisplayName: displayName,
		RPOrigins:     origins,
	})
	if err != nil {
		return nil, fmt.Errorf("configure webauthn: %w", err)
	}
	return newService(store, webAuthn, protocolParser{}, cfg.SessionTTL, now), nil
}

func newService(store Store, webAuthn provider, p parser, ttl time.Duration, now func() time.Time) *Service {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, webAuthn: webAuthn, parser: p, sessionTTL: ttl, now: now, newID: id.NewID}
}

type registrationSession struct {
	Data       webauthn.SessionData `json:"data"`
	Registrant Registrant           `json:"registrant"`
}

// BeginRegistration validates the registrant and starts a ceremony for a new account.
func (s *Service) BeginRegistration(ctx context.Context, in Registrant) (Ceremony, error) {
	registrant, err := normalizeRegistrant(in)
	if err != nil {
		return Ceremony{}, err
	}
	if _, err := s.store.GetUserByPhone(ctx, registrant.PhoneNumber); err == nil {
		return Ceremony{}, apperrors.EK(apperrors.KindConflict, "auth.error.phone_taken", "phone number is already registered")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return Ceremony{}, fmt.Errorf("check phone: %w", err)
	}

	userID, err := s.newID()
	if err != nil {
		return Ceremony{}, fmt.Errorf("generate user id: %w", err)
	}
	user := &passkeyUser{user: storage.User{ID: userID, Username: registrant.Username}}
	creation, session, err := s.webAuthn.BeginRegistration(user,
		webauthn.WithResidentKeyRequirement(protocol.ResidentKeyRequirementRequired),
	)
	if err != nil {
		return Ceremony{}, fmt.Errorf("begin passkey registration: %w", err)
	}
	if session == nil {
		return Ceremony{}, errors.New("begin passkey registration: empty session")
	}
	payload, err := json.Marshal(registrationSession{Data: *session, Registrant: registrant})
	if err != nil {
		return Ceremony{}, fmt.Errorf("encode registration session: %w", err)
	}
	return s.startCeremony(ctx, SessionKindRegistration, userID, payload, creation)
}

// FinishRegistration verifies the attestation, creates the account and
// stores its first credential.
func (s *Service) FinishRegistration(ctx context.Context, ceremonyID string, credentialJSON []byte) (storage.User, error) {
	stored, err := s.loadSession(ctx, ceremonyID, SessionKindRegistration)
	if err != nil {
		return storage.User{}, err
	}
	var session registrationSession
	if err := json.Unmarshal([]byte(stored.SessionJSON), &session); err != nil {
		return storage.User{}, fmt.Errorf("decode registration session: %w", err)
	}
	if len(credentialJSON) == 0 {
		return storage.User{}, apperrors.EK(apperrors.KindInvalidInput, "auth.error.passkey_failed", "credential response is required")
	}
	parsed, err := s.parser.ParseCredentialCreationResponseBytes(credentialJSON)
	if err != nil {
		return storage.User{}, apperrors.Error{Kind: apperrors.KindInvalidInput, Key: "auth.error.passkey_failed", Message: "parse credential response", Err: err}
	}

	now := s.now().UTC()
	user := storage.User{
		ID:          stored.UserID,
		Username:    session.Registrant.Username,
		Email:       session.Registrant.Email,
		PhoneNumber: session.Registrant.PhoneNumber,
		InviteID:    session.Registrant.InviteID,
		Status:      storage.StatusReviewRequired,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	credential, err := s.webAuthn.CreateCredential(&passkeyUser{user: user}, session.Data, parsed)
	if err != nil {
		return storage.User{}, apperrors.Error{Kind: apperrors.KindUnauthorized, Key: "auth.error.passkey_failed", Message: "validate credential response", Err: err}
	}

	if err := s.store.PutUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return storage.User{}, apperrors.EK(apperrors.KindConflict, "auth.error.phone_taken", "phone number is already registered")
		}
		return storage.User{}, fmt.Errorf("create user: %w", err)
	}
	if err := s.putCredential(ctx, user.ID, *credential, false); err != nil {
		return storage.User{}, fmt.Errorf("store passkey credential: %w", err)
	}
	_ = s.store.DeletePasskeySession(ctx, stored.ID)
	return user, nil
}

// BeginLogin starts a discoverable login ceremony.
func (s *Service) BeginLogin(ctx context.Context) (Ceremony, error) {
	assertion, session, err := s.webAuthn.BeginDiscoverableLogin()
	if err != nil {
		return Ceremony{}, fmt.Errorf("begin passkey login: %w", err)
	}
	if session == nil {
		return Ceremony{}, errors.New("begin passkey login: empty session")
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return Ceremony{}, fmt.Errorf("encode login session: %w", err)
	}
	return s.startCeremony(ctx, SessionKindLogin, "", payload, assertion)
}

// FinishLogin verifies the assertion and returns the signed-in account.
func (s *Service) FinishLogin(ctx context.Context, ceremonyID string, credentialJSON []byte) (storage.User, error) {
	stored, err := s.loadSession(ctx, ceremonyID, SessionKindLogin)
	if err != nil {
		return storage.User{}, err
	}
	var session webauthn.SessionData
	if err := json.Unmarshal([]byte(stored.SessionJSON), &session); err != nil {
		return storage.User{}, fmt.Errorf("decode login session: %w", err)
	}
	if len(credentialJSON) == 0 {
		return storage.User{}, apperrors.EK(apperrors.KindInvalidInput, "auth.error.passkey_failed", "credential response is required")
	}
	parsed, err := s.parser.ParseCredentialRequestResponseBytes(credentialJSON)
	if err != nil {
		return storage.User{}, apperrors.Error{Kind: apperrors.KindInvalidInput, Key: "auth.error.passkey_failed", Message: "parse credential response", Err: err}
	}

	validated, credential, err := s.webAuthn.ValidatePasskeyLogin(s.userHandler(ctx), session, parsed)
	if err != nil {
		return storage.User{}, apperrors.Error{Kind: apperrors.KindUnauthorized, Key: "auth.error.passkey_failed", Message: "validate passkey login", Err: err}
	}
	user, ok := validated.(*passkeyUser)
	if !ok {
		return storage.User{}, errors.New("passkey user type mismatch")
	}
	if err := s.putCredential(ctx, user.user.ID, *credential, true); err != nil {
		return storage.User{}, fmt.Errorf("store passkey credential: %w", err)
	}
	_ = s.store.DeletePasskeySession(ctx, stored.ID)
	return user.user, nil
}

func (s *Service) startCeremony(ctx context.Context, kind SessionKind, userID string, sessionJSON []byte, options any) (Ceremony, error) {
	ceremonyID, err := s.newID()
	if err != nil {
		return Ceremony{}, fmt.Errorf("generate ceremony id: %w", err)
	}
	if err := s.store.PutPasskeySession(ctx, storage.PasskeySession{
		ID:          ceremonyID,
		Kind:        string(kind),
		UserID:      userID,
		SessionJSON: string(sessionJSON),
		ExpiresAt:   s.now().UTC().Add(s.sessionTTL),
	}); err != nil {
		return Ceremony{}, fmt.Errorf("store passkey session: %w", err)
	}
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return Ceremony{}, fmt.Errorf("encode ceremony options: %w", err)
	}
	return Ceremony{ID: ceremonyID, Options: optionsJSON}, nil
}

func (s *Service) loadSession(ctx context.Context, ceremonyID string, kind SessionKind) (storage.PasskeySession, error) {
	ceremonyID = strings.TrimSpace(ceremonyID)
	if ceremonyID == "" {
		return storage.PasskeySession{}, apperrors.EK(apperrors.KindInvalidInput, "auth.error.passkey_expired", "ceremony id is required")
	}
	stored, err := s.store.GetPasskeySession(ctx, ceremonyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.PasskeySession{}, apperrors.EK(apperrors.KindNotFound, "auth.error.passkey_expired", "passkey session not found")
		}
		return storage.PasskeySession{}, fmt.Errorf("load passkey session: %w", err)
	}
	if stored.Kind != string(kind) {
		return storage.PasskeySession{}, apperrors.EK(apperrors.KindInvalidInput, "auth.error.passkey_expired", "passkey session kind mismatch")
	}
	if !stored.ExpiresAt.After(s.now().UTC()) {
		_ = s.store.DeletePasskeySession(ctx, ceremonyID)
		return storage.PasskeySession{}, apperrors.EK(apperrors.KindInvalidInput, "auth.error.passkey_expired", "passkey session expired")
	}
	return stored, nil
}

func (s *Service) putCredential(ctx context.Context, userID string, credential webauthn.Credential, used bool) error {
	credentialID := encodeCredentialID(credential.ID)
	now := s.now().UTC()
	createdAt := now
	existing, err := s.store.GetPasskeyCredential(ctx, credentialID)
	switch {
	case err == nil:
		createdAt = existing.CreatedAt
	case !errors.Is(err, storage.ErrNotFound):
		return err
	case used:
		return errors.New("passkey credential not found")
	}
	encoded, err := json.Marshal(credential)
	if err != nil {
		return err
	}
	var lastUsed *time.Time
	if used {
		lastUsed = &now
	}
	return s.store.PutPasskeyCredential(ctx, storage.PasskeyCredential{
		CredentialID:   credentialID,
		UserID:         userID,
		CredentialJSON: string(encoded),
		CreatedAt:      createdAt,
		UpdatedAt:      now,
		LastUsedAt:     lastUsed,
	})
}

func (s *Service) userHandler(ctx context.Context) webauthn.DiscoverableUserHandler {
	return func(_, userHandle []byte) (webauthn.User, error) {
		userID := strings.TrimSpace(string(userHandle))
		if userID == "" {
			return nil, errors.New("user handle is required")
		}
		user, err := s.store.GetUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		records, err := s.store.ListPasskeyCredentials(ctx, userID)
		if err != nil {
			return nil, err
		}
		credentials, err := decodeCredentials(records)
		if err != nil {
			return nil, err
		}
		return &passkeyUser{user: user, credentials: credentials}, nil
	}
}

func normalizeRegistrant(in Registrant) (Registrant, error) {
	out := Registrant{
		Username: strings.TrimSpace(in.Username),
		Email:    strings.TrimSpace(in.Email),
		InviteID: strings.TrimSpace(in.InviteID),
	}
	if out.Username == "" {
		return Registrant{}, apperrors.EK(apperrors.KindInvalidInput, "auth.error.username_required", "username is required")
	}
	if out.Email != "" {
		if _, err := mail.ParseAddress(out.Email); err != nil {
			return Registrant{}, apperrors.EK(apperrors.KindInvalidInput, "auth.error.email_invalid", "email is invalid")
		}
	}
	normalized, err := phone.Normalize(in.PhoneNumber)
	if err != nil {
		return Registrant{}, apperrors.EK(apperrors.KindInvalidInput, "auth.error.phone_invalid", "phone number is invalid")
	}
	out.PhoneNumber = normalized
	return out, nil
}

type passkeyUser struct {
	user        storage.User
	credentials []webauthn.Credential
}

func (u *passkeyUser) WebAuthnID() []byte {
	return []byte(u.user.ID)
}

func (u *passkeyUser) WebAuthnName() string {
	return u.user.Username
}

func (u *passkeyUser) WebAuthnDisplayName() string {
	if name := strings.TrimSpace(u.user.FirstName + " " + u.user.LastName); name != "" {
		return name
	}
	return u.user.Username
}

func (u *passkeyUser) WebAuthnCredentials() []webauthn.Credential {
	return u.credentials
}

func decodeCredentials(records []storage.PasskeyCredential) ([]webauthn.Credential, error) {
	if len(records) == 0 {
		return nil, nil
	}
	credentials := make([]webauthn.Credential, 0, len(records))
	for _, record := range records {
		var credential webauthn.Credential
		if err := json.Unmarshal([]byte(record.CredentialJSON), &credential); err != nil {
			return nil, fmt.Errorf("decode credential %s: %w", record.CredentialID, err)
		}
		credentials = append(credentials, credential)
	}
	return credentials, nil
}

func encodeCredentialID(raw []byte) string {
	return base64.RawURLEncoding.EncodeToString(raw)
}
