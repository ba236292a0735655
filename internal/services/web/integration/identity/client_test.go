package identity

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/casanorte/casanorte/internal/services/web/platform/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(Config{BaseURL: srv.URL, APIKey: "key-1", Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}); err == nil {
		t.Fatal("New() error = nil, want error")
	}
	client, err := New(Config{APIKey: "k"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if client.baseURL != DefaultBaseURL {
		t.Fatalf("baseURL = %q, want %q", client.baseURL, DefaultBaseURL)
	}
}

func TestSendVerificationCode(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/accounts:sendVerificationCode" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("key"); got != "key-1" {
			t.Errorf("key = %q, want key-1", got)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["phoneNumber"] != "+15551234567" {
			t.Errorf("phoneNumber = %q", body["phoneNumber"])
		}
		if _, ok := body["recaptchaToken"]; ok {
			t.Errorf("body = %v, want no recaptchaToken", body)
		}
		_, _ = io.WriteString(w, `{"sessionInfo":"session-abc"}`)
	})

	got, err := client.SendVerificationCode(context.Background(), "+15551234567", "")
	if err != nil {
		t.Fatalf("SendVerificationCode() error = %v", err)
	}
	if got != "session-abc" {
		t.Fatalf("SendVerificationCode() = %q, want session-abc", got)
	}
}

func TestSendVerificationCodeRejectsEmptySession(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})
	if _, err := client.SendVerificationCode(context.Background(), "+15551234567", ""); err == nil {
		t.Fatal("SendVerificationCode() error = nil, want error")
	}
}

func TestSignInWithPhoneNumber(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["sessionInfo"] != "session-abc" || body["code"] != "123456" {
			t.Errorf("body = %v", body)
		}
		_, _ = io.WriteString(w, `{"idToken":"id-1","localId":"uid-1","phoneNumber":"+15551234567","isNewUser":true}`)
	})

	got, err := client.SignInWithPhoneNumber(context.Background(), "session-abc", " 123456 ")
	if err != nil {
		t.Fatalf("SignInWithPhoneNumber() error = %v", err)
	}
	if got.LocalID != "uid-1" || !got.IsNewUser || got.PhoneNumber != "+15551234567" {
		t.Fatalf("verification = %+v", got)
	}
}

func TestProviderErrorsMapToKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		message string
		code    string
		kind    apperrors.Kind
	}{
		{message: "INVALID_CODE", code: CodeInvalidCode, kind: apperrors.KindInvalidInput},
		{message: "SESSION_EXPIRED", code: CodeSessionExpired, kind: apperrors.KindUnauthorized},
		{message: "TOO_MANY_ATTEMPTS_TRY_LATER : slow down", code: CodeTooManyAttempts, kind: apperrors.KindRateLimited},
		{message: "", code: "UNKNOWN", kind: apperrors.KindInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			t.Parallel()
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": 400, "message": tc.message}})
			})
			_, err := client.SignInWithPhoneNumber(context.Background(), "s", "1")
			if got := Code(err); got != tc.code {
				t.Fatalf("Code() = %q, want %q", got, tc.code)
			}
			if got := apperrors.KindOf(err); got != tc.kind {
				t.Fatalf("KindOf() = %q, want %q", got, tc.kind)
			}
		})
	}
}
