package onboarding

import (
	"bytes"
	"context"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/casanorte/casanorte/internal/services/web/integration/casanorteapi"
	"github.com/casanorte/casanorte/internal/services/web/modalhost"
	module "github.com/casanorte/casanorte/internal/services/web/module"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
	"github.com/casanorte/casanorte/internal/services/web/storage"
)

type fakeCompleter struct {
	mu       sync.Mutex
	payloads []casanorteapi.CompleteHydration
	err      error
}

func (f *fakeCompleter) Complete(_ context.Context, _ string, payload casanorteapi.CompleteHydration) (casanorteapi.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
	if f.err != nil {
		return casanorteapi.Profile{}, f.err
	}
	return casanorteapi.Profile{Status: storage.StatusActive}, nil
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]storage.User
}

func newFakeUsers(users ...storage.User) *fakeUsers {
	f := &fakeUsers{users: make(map[string]storage.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) PutUser(_ context.Context, u storage.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
	return nil
}

func (f *fakeUsers) GetUser(_ context.Context, userID string) (storage.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return storage.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetUserByPhone(context.Context, string) (storage.User, error) {
	return storage.User{}, storage.ErrNotFound
}

func userDeps(userID string) module.Dependencies {
	return module.Dependencies{
		ResolveUserID:   func(*http.Request) string { return userID },
		ResolveSignedIn: func(*http.Request) bool { return userID != "" },
	}
}

func mountOnboarding(t *testing.T, deps module.Dependencies, config Config) http.Handler {
	t.Helper()
	if config.Logger == nil {
		config.Logger = log.New(io.Discard, "", 0)
	}
	if config.Now == nil {
		config.Now = func() time.Time { return time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC) }
	}
	mount, err := New(deps, config).Mount()
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if mount.Prefix != routepath.OnboardingPrefix {
		t.Fatalf("Prefix = %q, want %q", mount.Prefix, routepath.OnboardingPrefix)
	}
	return mount.Handler
}

func formRequest(host *modalhost.Host, path string, values url.Values, htmx bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return req.WithContext(modalhost.WithHost(req.Context(), host))
}

func multipartRequest(t *testing.T, host *modalhost.Host, path string, values map[string]string, photoName string, photo []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, value := range values {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("WriteField(%q) error = %v", name, err)
		}
	}
	if photo != nil {
		part, err := writer.CreateFormFile("photo", photoName)
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		if _, err := part.Write(photo); err != nil {
			t.Fatalf("write photo: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req.WithContext(modalhost.WithHost(req.Context(), host))
}
