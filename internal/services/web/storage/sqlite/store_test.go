package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/casanorte/casanorte/internal/services/web/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "casanorte-web.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func seedUser(t *testing.T, store *Store, id string, phone string) storage.User {
	t.Helper()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	u := storage.User{
		ID:          id,
		Username:    "Ana Rivera",
		FirstName:   "Ana",
		LastName:    "Rivera",
		Email:       "ana@example.com",
		PhoneNumber: phone,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := store.PutUser(context.Background(), u); err != nil {
		t.Fatalf("put user: %v", err)
	}
	return u
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(" "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestUserRoundTripAndPhoneLookup(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seeded := seedUser(t, store, "user-1", "+15551234567")

	got, err := store.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.FirstName != "Ana" || got.Status != storage.StatusReviewRequired {
		t.Fatalf("user = %+v", got)
	}
	if !got.CreatedAt.Equal(seeded.CreatedAt) {
		t.Fatalf("created at = %v, want %v", got.CreatedAt, seeded.CreatedAt)
	}

	byPhone, err := store.GetUserByPhone(ctx, "+15551234567")
	if err != nil {
		t.Fatalf("get user by phone: %v", err)
	}
	if byPhone.ID != "user-1" {
		t.Fatalf("user id = %q, want %q", byPhone.ID, "user-1")
	}

	got.Status = storage.StatusActive
	got.LastName = "Rivera Soto"
	if err := store.PutUser(ctx, got); err != nil {
		t.Fatalf("update user: %v", err)
	}
	updated, err := store.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("get updated user: %v", err)
	}
	if updated.Status != storage.StatusActive || updated.LastName != "Rivera Soto" {
		t.Fatalf("updated user = %+v", updated)
	}

	if _, err := store.GetUser(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get missing user error = %v, want ErrNotFound", err)
	}
}

func TestPutUserRejectsDuplicatePhone(t *testing.T) {
	store := openTestStore(t)
	seedUser(t, store, "user-1", "+15551234567")

	dup := storage.User{ID: "user-2", Username: "Other", PhoneNumber: "+15551234567"}
	if err := store.PutUser(context.Background(), dup); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("put duplicate phone error = %v, want ErrConflict", err)
	}

	noPhone := storage.User{ID: "user-3", Username: "No Phone"}
	alsoNoPhone := storage.User{ID: "user-4", Username: "Also No Phone"}
	if err := store.PutUser(context.Background(), noPhone); err != nil {
		t.Fatalf("put user without phone: %v", err)
	}
	if err := store.PutUser(context.Background(), alsoNoPhone); err != nil {
		t.Fatalf("empty phone numbers must not collide: %v", err)
	}
}

func TestPasskeyCredentialRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedUser(t, store, "user-1", "")

	now := time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC)
	credential := storage.PasskeyCredential{
		CredentialID:   "cred-1",
		UserID:         "user-1",
		CredentialJSON: `{"id":"Y3JlZC0x"}`,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := store.PutPasskeyCredential(ctx, credential); err != nil {
		t.Fatalf("put passkey: %v", err)
	}

	used := now.Add(time.Hour)
	credential.LastUsedAt = &used
	credential.UpdatedAt = used
	if err := store.PutPasskeyCredential(ctx, credential); err != nil {
		t.Fatalf("update passkey: %v", err)
	}

	got, err := store.GetPasskeyCredential(ctx, "cred-1")
	if err != nil {
		t.Fatalf("get passkey: %v", err)
	}
	if got.LastUsedAt == nil || !got.LastUsedAt.Equal(used) {
		t.Fatalf("last used at = %v, want %v", got.LastUsedAt, used)
	}

	list, err := store.ListPasskeyCredentials(ctx, "user-1")
	if err != nil {
		t.Fatalf("list passkeys: %v", err)
	}
	if len(list) != 1 || list[0].CredentialID != "cred-1" {
		t.Fatalf("list = %+v", list)
	}
}

func TestPasskeySessionLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	session := storage.PasskeySession{
		ID:          "ceremony-1",
		Kind:        "registration",
		UserID:      "user-1",
		SessionJSON: `{"challenge":"abc"}`,
		ExpiresAt:   time.Date(2026, 1, 1, 12, 5, 0, 0, time.UTC),
	}
	if err := store.PutPasskeySession(ctx, session); err != nil {
		t.Fatalf("put passkey session: %v", err)
	}
	got, err := store.GetPasskeySession(ctx, "ceremony-1")
	if err != nil {
		t.Fatalf("get passkey session: %v", err)
	}
	if got.Kind != "registration" || !got.ExpiresAt.Equal(session.ExpiresAt) {
		t.Fatalf("session = %+v", got)
	}
	if err := store.DeletePasskeySession(ctx, "ceremony-1"); err != nil {
		t.Fatalf("delete passkey session: %v", err)
	}
	if _, err := store.GetPasskeySession(ctx, "ceremony-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get deleted session error = %v, want ErrNotFound", err)
	}
}

func TestWebSessionRevocation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedUser(t, store, "user-1", "")

	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	if err := store.PutWebSession(ctx, storage.WebSession{
		ID:        "sess-1",
		UserID:    "user-1",
		CreatedAt: created,
		ExpiresAt: created.Add(time.Hour),
	}); err != nil {
		t.Fatalf("put web session: %v", err)
	}

	session, err := store.GetWebSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get web session: %v", err)
	}
	if !session.Active(created.Add(time.Minute)) {
		t.Fatalf("expected session to be active")
	}
	if session.Active(created.Add(2 * time.Hour)) {
		t.Fatalf("expected session to expire")
	}

	revokedAt := created.Add(10 * time.Minute)
	if err := store.RevokeWebSession(ctx, "sess-1", revokedAt); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := store.RevokeWebSession(ctx, "sess-1", revokedAt.Add(time.Minute)); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	session, err = store.GetWebSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get revoked session: %v", err)
	}
	if session.RevokedAt == nil || !session.RevokedAt.Equal(revokedAt) {
		t.Fatalf("revoked at = %v, want %v", session.RevokedAt, revokedAt)
	}
	if session.Active(created.Add(time.Minute)) {
		t.Fatalf("revoked session must not be active")
	}
	if err := store.RevokeWebSession(ctx, "missing", revokedAt); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("revoke missing error = %v, want ErrNotFound", err)
	}
}

func TestOTPChallengeVerifiesOnce(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	if err := store.PutOTPChallenge(ctx, storage.OTPChallenge{
		ID:          "otp-1",
		PhoneNumber: "+15551234567",
		SessionInfo: "session-info",
		CreatedAt:   now,
		ExpiresAt:   now.Add(5 * time.Minute),
	}); err != nil {
		t.Fatalf("put otp challenge: %v", err)
	}
	if err := store.MarkOTPChallengeVerified(ctx, "otp-1", now.Add(time.Minute)); err != nil {
		t.Fatalf("mark verified: %v", err)
	}
	if err := store.MarkOTPChallengeVerified(ctx, "otp-1", now.Add(2*time.Minute)); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("second verify error = %v, want ErrNotFound", err)
	}
	challenge, err := store.GetOTPChallenge(ctx, "otp-1")
	if err != nil {
		t.Fatalf("get otp challenge: %v", err)
	}
	if challenge.VerifiedAt == nil {
		t.Fatalf("expected verified challenge")
	}
}

func TestInviteValidationAndDeleteExpired(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	if err := store.PutInviteValidation(ctx, storage.InviteValidation{
		InviteID:    "inv-1",
		BrowserKey:  "browser-1",
		ValidatedAt: now,
		ExpiresAt:   now.Add(30 * time.Minute),
	}); err != nil {
		t.Fatalf("put invite validation: %v", err)
	}
	if _, err := store.GetInviteValidation(ctx, "inv-1", "browser-1"); err != nil {
		t.Fatalf("get invite validation: %v", err)
	}
	if _, err := store.GetInviteValidation(ctx, "inv-1", "browser-2"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("other browser error = %v, want ErrNotFound", err)
	}

	if err := store.DeleteExpired(ctx, now.Add(time.Hour)); err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if _, err := store.GetInviteValidation(ctx, "inv-1", "browser-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expired validation error = %v, want ErrNotFound", err)
	}
}
