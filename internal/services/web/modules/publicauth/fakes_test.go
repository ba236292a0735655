package publicauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/casanorte/casanorte/internal/services/web/auth"
	"github.com/casanorte/casanorte/internal/services/web/integration/identity"
	module "github.com/casanorte/casanorte/internal/services/web/module"
	"github.com/casanorte/casanorte/internal/services/web/passkeys"
	"github.com/casanorte/casanorte/internal/services/web/storage"
)

type fakeGateway struct {
	mu sync.Mutex

	registrant     passkeys.Registrant
	beginErr       error
	finishUserID   string
	finishErr      error
	sendChallenge  string
	sendErr        error
	challenge      storage.OTPChallenge
	challengeErr   error
	verifyUserID   string
	verifyErr      error
	inviteOK       bool
	sessionErr     error
	endedToken     string
	endedUserID    string
	startedUserIDs []string
}

func (f *fakeGateway) BeginPasskeyRegistration(_ context.Context, registrant passkeys.Registrant) (passkeys.Ceremony, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registrant = registrant
	if f.beginErr != nil {
		return passkeys.Ceremony{}, f.beginErr
	}
	return passkeys.Ceremony{ID: "ceremony-1", Options: json.RawMessage(`{"publicKey":{}}`)}, nil
}

func (f *fakeGateway) FinishPasskeyRegistration(context.Context, string, json.RawMessage) (string, error) {
	return f.finishUserID, f.finishErr
}

func (f *fakeGateway) BeginPasskeyLogin(context.Context) (passkeys.Ceremony, error) {
	if f.beginErr != nil {
		return passkeys.Ceremony{}, f.beginErr
	}
	return passkeys.Ceremony{ID: "ceremony-2", Options: json.RawMessage(`{"publicKey":{}}`)}, nil
}

func (f *fakeGateway) FinishPasskeyLogin(context.Context, string, json.RawMessage) (string, error) {
	return f.finishUserID, f.finishErr
}

func (f *fakeGateway) SendPhoneCode(context.Context, string, string) (string, error) {
	return f.sendChallenge, f.sendErr
}

func (f *fakeGateway) PhoneChallenge(context.Context, string) (storage.OTPChallenge, error) {
	return f.challenge, f.challengeErr
}

func (f *fakeGateway) VerifyPhoneCode(context.Context, string, string) (string, error) {
	return f.verifyUserID, f.verifyErr
}

func (f *fakeGateway) InviteValidated(context.Context, string, string) bool {
	return f.inviteOK
}

func (f *fakeGateway) StartSession(_ context.Context, userID string) (auth.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessionErr != nil {
		return auth.Session{}, f.sessionErr
	}
	f.startedUserIDs = append(f.startedUserIDs, userID)
	return auth.Session{ID: "session-1", UserID: userID, Token: "token-" + userID}, nil
}

func (f *fakeGateway) EndSession(_ context.Context, token string, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endedToken, f.endedUserID = token, userID
	return nil
}

type fakePhones struct {
	sent         []string
	sessionInfo  string
	sendErr      error
	verification identity.Verification
	verifyErr    error
}

func (f *fakePhones) SendVerificationCode(_ context.Context, phoneNumber string, _ string) (string, error) {
	f.sent = append(f.sent, phoneNumber)
	return f.sessionInfo, f.sendErr
}

func (f *fakePhones) SignInWithPhoneNumber(context.Context, string, string) (identity.Verification, error) {
	return f.verification, f.verifyErr
}

type fakeProfiles struct {
	forgotten []string
}

func (f *fakeProfiles) Forget(userID string) {
	f.forgotten = append(f.forgotten, userID)
}

type fakeSessions struct {
	revoked []string
}

func (f *fakeSessions) Start(_ context.Context, userID string) (auth.Session, error) {
	return auth.Session{ID: "s-" + userID, UserID: userID, Token: "tok-" + userID}, nil
}

func (f *fakeSessions) Revoke(_ context.Context, token string) error {
	f.revoked = append(f.revoked, token)
	return nil
}

func sequentialIDs() func() (string, error) {
	var n int
	return func() (string, error) {
		n++
		return fmt.Sprintf("id-%d", n), nil
	}
}

func signedInDeps(userID string) module.Dependencies {
	return module.Dependencies{
		ResolveSignedIn: func(*http.Request) bool { return userID != "" },
		ResolveUserID:   func(*http.Request) string { return userID },
	}
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}
