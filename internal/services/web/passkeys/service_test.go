package passkeys

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	apperrors "github.com/casanorte/casanorte/internal/services/web/platform/errors"
	"github.com/casanorte/casanorte/internal/services/web/storage"
)

type memoryStore struct {
	mu          sync.Mutex
	users       map[string]storage.User
	credentials map[string]storage.PasskeyCredential
	sessions    map[string]storage.PasskeySession
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:       map[string]storage.User{},
		credentials: map[string]storage.PasskeyCredential{},
		sessions:    map[string]storage.PasskeySession{},
	}
}

func (s *memoryStore) PutUser(_ context.Context, u storage.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.ID != u.ID && existing.PhoneNumber == u.PhoneNumber {
			return storage.ErrConflict
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *memoryStore) GetUser(_ context.Context, userID string) (storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return storage.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *memoryStore) GetUserByPhone(_ context.Context, phoneNumber string) (storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.PhoneNumber == phoneNumber {
			return u, nil
		}
	}
	return storage.User{}, storage.ErrNotFound
}

func (s *memoryStore) PutPasskeyCredential(_ context.Context, c storage.PasskeyCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[c.CredentialID] = c
	return nil
}

func (s *memoryStore) GetPasskeyCredential(_ context.Context, id string) (storage.PasskeyCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.credentials[id]
	if !ok {
		return storage.PasskeyCredential{}, storage.ErrNotFound
	}
	return c, nil
}

func (s *memoryStore) ListPasskeyCredentials(_ context.Context, userID string) ([]storage.PasskeyCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.PasskeyCredential
	for _, c := range s.credentials {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memoryStore) PutPasskeySession(_ context.Context, session storage.PasskeySession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *memoryStore) GetPasskeySession(_ context.Context, id string) (storage.PasskeySession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return storage.PasskeySession{}, storage.ErrNotFound
	}
	return session, nil
}

func (s *memoryStore) DeletePasskeySession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

type fakeProvider struct {
	createErr error
	loginErr  error
	handle    []byte
	lastUser  webauthn.User
}

func (p *fakeProvider) BeginRegistration(user webauthn.User, _ ...webauthn.RegistrationOption) (*protocol.CredentialCreation, *webauthn.SessionData, error) {
	p.lastUser = user
	return &protocol.CredentialCreation{}, &webauthn.SessionData{Challenge: "reg-challenge", UserID: user.WebAuthnID()}, nil
}

func (p *fakeProvider) CreateCredential(user webauthn.User, session webauthn.SessionData, _ *protocol.ParsedCredentialCreationData) (*webauthn.Credential, error) {
	if p.createErr != nil {
		return nil, p.createErr
	}
	if session.Challenge != "reg-challenge" {
		return nil, fmt.Errorf("challenge = %q", session.Challenge)
	}
	p.lastUser = user
	return &webauthn.Credential{ID: []byte("cred-1")}, nil
}

func (p *fakeProvider) BeginDiscoverableLogin(_ ...webauthn.LoginOption) (*protocol.CredentialAssertion, *webauthn.SessionData, error) {
	return &protocol.CredentialAssertion{}, &webauthn.SessionData{Challenge: "login-challenge"}, nil
}

func (p *fakeProvider) ValidatePasskeyLogin(handler webauthn.DiscoverableUserHandler, _ webauthn.SessionData, _ *protocol.ParsedCredentialAssertionData) (webauthn.User, *webauthn.Credential, error) {
	if p.loginErr != nil {
		return nil, nil, p.loginErr
	}
	user, err := handler([]byte("cred-1"), p.handle)
	if err != nil {
		return nil, nil, err
	}
	credential := webauthn.Credential{ID: []byte("cred-1")}
	credential.Authenticator.SignCount = 7
	return user, &credential, nil
}

type fakeParser struct{}

func (fakeParser) ParseCredentialCreationResponseBytes([]byte) (*protocol.ParsedCredentialCreationData, error) {
	return &protocol.ParsedCredentialCreationData{}, nil
}

func (fakeParser) ParseCredentialRequestResponseBytes([]byte) (*protocol.ParsedCredentialAssertionData, error) {
	return &protocol.ParsedCredentialAssertionData{}, nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*Service, *memoryStore, *fakeProvider, *testClock) {
	t.Helper()
	store := newMemoryStore()
	provider := &fakeProvider{}
	clock := &testClock{now: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)}
	svc := newService(store, provider, fakeParser{}, 0, clock.Now)
	var n int
	svc.newID = func() (string, error) {
		n++
		return fmt.Sprintf("id-%d", n), nil
	}
	return svc, store, provider, clock
}

func validRegistrant() Registrant {
	return Registrant{Username: " ana ", Email: "ana@example.com", PhoneNumber: "(555) 123-4567", InviteID: "inv-1"}
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	if _, err := New(nil, Config{RPID: "localhost", RPOrigins: []string{"http://localhost:8080"}}, nil); err == nil {
		t.Fatal("New(nil store) error = nil, want error")
	}
	if _, err := New(store, Config{RPOrigins: []string{"http://localhost:8080"}}, nil); err == nil {
		t.Fatal("New(no rp id) error = nil, want error")
	}
	if _, err := New(store, Config{RPID: "localhost", RPOrigins: []string{" "}}, nil); err == nil {
		t.Fatal("New(no origins) error = nil, want error")
	}
	svc, err := New(store, Config{RPID: "localhost", RPOrigins: []string{"http://localhost:8080"}}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if svc.sessionTTL != DefaultSessionTTL {
		t.Fatalf("sessionTTL = %v, want %v", svc.sessionTTL, DefaultSessionTTL)
	}
}

func TestRegistrationCreatesReviewRequiredUser(t *testing.T) {
	t.Parallel()

	svc, store, provider, _ := newTestService(t)
	ctx := context.Background()

	ceremony, err := svc.BeginRegistration(ctx, validRegistrant())
	if err != nil {
		t.Fatalf("BeginRegistration() error = %v", err)
	}
	if ceremony.ID == "" || len(ceremony.Options) == 0 {
		t.Fatalf("ceremony = %+v, want id and options", ceremony)
	}
	if got := string(provider.lastUser.WebAuthnID()); got != "id-1" {
		t.Fatalf("WebAuthnID = %q, want id-1", got)
	}
	stored := store.sessions[ceremony.ID]
	if stored.Kind != string(SessionKindRegistration) {
		t.Fatalf("session kind = %q, want registration", stored.Kind)
	}

	user, err := svc.FinishRegistration(ctx, ceremony.ID, []byte(`{"id":"x"}`))
	if err != nil {
		t.Fatalf("FinishRegistration() error = %v", err)
	}
	if user.ID != "id-1" || user.Username != "ana" || user.PhoneNumber != "+15551234567" {
		t.Fatalf("user = %+v", user)
	}
	if user.Status != storage.StatusReviewRequired {
		t.Fatalf("Status = %q, want %q", user.Status, storage.StatusReviewRequired)
	}
	if user.InviteID != "inv-1" {
		t.Fatalf("InviteID = %q, want inv-1", user.InviteID)
	}
	if _, ok := store.sessions[ceremony.ID]; ok {
		t.Fatal("registration session still stored after finish")
	}
	credential, err := store.GetPasskeyCredential(ctx, encodeCredentialID([]byte("cred-1")))
	if err != nil {
		t.Fatalf("GetPasskeyCredential() error = %v", err)
	}
	if credential.UserID != "id-1" || credential.LastUsedAt != nil {
		t.Fatalf("credential = %+v, want unused credential for id-1", credential)
	}
}

func TestBeginRegistrationValidatesInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Registrant
		key  string
	}{
		{name: "username", in: Registrant{PhoneNumber: "5551234567"}, key: "auth.error.username_required"},
		{name: "email", in: Registrant{Username: "ana", Email: "nope", PhoneNumber: "5551234567"}, key: "auth.error.email_invalid"},
		{name: "phone", in: Registrant{Username: "ana", PhoneNumber: "12"}, key: "auth.error.phone_invalid"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc, _, _, _ := newTestService(t)
			_, err := svc.BeginRegistration(context.Background(), tc.in)
			if got := apperrors.KindOf(err); got != apperrors.KindInvalidInput {
				t.Fatalf("KindOf = %q, want %q", got, apperrors.KindInvalidInput)
			}
			if got := apperrors.LocalizationKey(err); got != tc.key {
				t.Fatalf("LocalizationKey = %q, want %q", got, tc.key)
			}
		})
	}
}

func TestBeginRegistrationRejectsTakenPhone(t *testing.T) {
	t.Parallel()

	svc, store, _, _ := newTestService(t)
	store.users["existing"] = storage.User{ID: "existing", PhoneNumber: "+15551234567"}

	_, err := svc.BeginRegistration(context.Background(), validRegistrant())
	if got := apperrors.KindOf(err); got != apperrors.KindConflict {
		t.Fatalf("KindOf = %q, want %q", got, apperrors.KindConflict)
	}
}

func TestFinishRegistrationRejectsExpiredSession(t *testing.T) {
	t.Parallel()

	svc, store, _, clock := newTestService(t)
	ceremony, err := svc.BeginRegistration(context.Background(), validRegistrant())
	if err != nil {
		t.Fatalf("BeginRegistration() error = %v", err)
	}
	clock.Advance(DefaultSessionTTL)

	_, err = svc.FinishRegistration(context.Background(), ceremony.ID, []byte(`{}`))
	if got := apperrors.LocalizationKey(err); got != "auth.error.passkey_expired" {
		t.Fatalf("LocalizationKey = %q, want auth.error.passkey_expired", got)
	}
	if _, ok := store.sessions[ceremony.ID]; ok {
		t.Fatal("expired session still stored")
	}
}

func TestFinishRegistrationRejectsLoginSession(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(t)
	ceremony, err := svc.BeginLogin(context.Background())
	if err != nil {
		t.Fatalf("BeginLogin() error = %v", err)
	}
	if _, err := svc.FinishRegistration(context.Background(), ceremony.ID, []byte(`{}`)); err == nil {
		t.Fatal("FinishRegistration(login session) error = nil, want error")
	}
}

func TestFinishRegistrationMapsValidationFailure(t *testing.T) {
	t.Parallel()

	svc, store, provider, _ := newTestService(t)
	provider.createErr = errors.New("bad attestation")
	ceremony, err := svc.BeginRegistration(context.Background(), validRegistrant())
	if err != nil {
		t.Fatalf("BeginRegistration() error = %v", err)
	}

	_, err = svc.FinishRegistration(context.Background(), ceremony.ID, []byte(`{}`))
	if got := apperrors.KindOf(err); got != apperrors.KindUnauthorized {
		t.Fatalf("KindOf = %q, want %q", got, apperrors.KindUnauthorized)
	}
	if len(store.users) != 0 {
		t.Fatalf("users = %v, want none", store.users)
	}
}

func TestLoginResolvesUserFromHandle(t *testing.T) {
	t.Parallel()

	svc, store, provider, clock := newTestService(t)
	ctx := context.Background()
	store.users["user-1"] = storage.User{ID: "user-1", Username: "ana", PhoneNumber: "+15551234567"}
	encoded, _ := json.Marshal(webauthn.Credential{ID: []byte("cred-1")})
	created := clock.Now().Add(-time.Hour)
	store.credentials[encodeCredentialID([]byte("cred-1"))] = storage.PasskeyCredential{
		CredentialID:   encodeCredentialID([]byte("cred-1")),
		UserID:         "user-1",
		CredentialJSON: string(encoded),
		CreatedAt:      created,
	}
	provider.handle = []byte("user-1")

	ceremony, err := svc.BeginLogin(ctx)
	if err != nil {
		t.Fatalf("BeginLogin() error = %v", err)
	}
	user, err := svc.FinishLogin(ctx, ceremony.ID, []byte(`{}`))
	if err != nil {
		t.Fatalf("FinishLogin() error = %v", err)
	}
	if user.ID != "user-1" {
		t.Fatalf("user.ID = %q, want user-1", user.ID)
	}

	stored := store.credentials[encodeCredentialID([]byte("cred-1"))]
	if stored.LastUsedAt == nil || !stored.LastUsedAt.Equal(clock.Now()) {
		t.Fatalf("LastUsedAt = %v, want %v", stored.LastUsedAt, clock.Now())
	}
	if !stored.CreatedAt.Equal(created) {
		t.Fatalf("CreatedAt = %v, want %v", stored.CreatedAt, created)
	}
	var credential webauthn.Credential
	if err := json.Unmarshal([]byte(stored.CredentialJSON), &credential); err != nil {
		t.Fatalf("decode credential: %v", err)
	}
	if credential.Authenticator.SignCount != 7 {
		t.Fatalf("SignCount = %d, want 7", credential.Authenticator.SignCount)
	}
}

func TestFinishLoginRejectsUnknownUser(t *testing.T) {
	t.Parallel()

	svc, _, provider, _ := newTestService(t)
	provider.handle = []byte("ghost")
	ceremony, err := svc.BeginLogin(context.Background())
	if err != nil {
		t.Fatalf("BeginLogin() error = %v", err)
	}
	_, err = svc.FinishLogin(context.Background(), ceremony.ID, []byte(`{}`))
	if got := apperrors.KindOf(err); got != apperrors.KindUnauthorized {
		t.Fatalf("KindOf = %q, want %q", got, apperrors.KindUnauthorized)
	}
}

func TestFinishLoginRequiresCeremony(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(t)
	_, err := svc.FinishLogin(context.Background(), "missing", []byte(`{}`))
	if got := apperrors.KindOf(err); got != apperrors.KindNotFound {
		t.Fatalf("KindOf = %q, want %q", got, apperrors.KindNotFound)
	}
}
