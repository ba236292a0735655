package casanorteapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

const hydratePath = "/casa-norte/hydrate"

// TenantSettings carries tenant presentation preferences.
type TenantSettings struct {
	ThemeColor string `json:"themeColor"`
	DateFormat string `json:"dateFormat"`
}

// Preferences carries per-user presentation preferences.
type Preferences struct {
	Locale          string `json:"locale"`
	Timezone        string `json:"timezone"`
	DashboardLayout string `json:"dashboardLayout"`
}

// Profile is the hydrated user profile returned by the spread-sync API.
type Profile struct {
	ID             string          `json:"id"`
	TenantID       string          `json:"tenantId"`
	FirstName      string          `json:"firstName"`
	LastName       string          `json:"lastName"`
	Email          string          `json:"email"`
	PhoneNumber    string          `json:"phoneNumber,omitempty"`
	Role           string          `json:"role,omitempty"`
	Status         string          `json:"status"`
	CreatedAt      string          `json:"createdAt"`
	UpdatedAt      string          `json:"updatedAt"`
	Permissions    []string        `json:"permissions"`
	FeatureFlags   map[string]bool `json:"featureFlags"`
	TenantSettings TenantSettings  `json:"tenantSettings"`
	Preferences    Preferences     `json:"preferences"`
}

// Photo is an uploaded profile picture.
type Photo struct {
	Filename string
	Data     []byte
}

// CompleteHydration is the onboarding payload sent back to the profile API.
type CompleteHydration struct {
	FirstName   string
	LastName    string
	PhoneNumber string
	Photo       *Photo
}

// Hydrate loads the signed-in user's profile.
func (c *Client) Hydrate(ctx context.Context, token string) (Profile, error) {
	var profile Profile
	req, err := jsonRequest(http.MethodGet, c.hydrateURL(), token, nil)
	if err != nil {
		return Profile{}, err
	}
	if err := do(ctx, c, req, &profile); err != nil {
		return Profile{}, fmt.Errorf("hydrate profile: %w", err)
	}
	return profile, nil
}

// CompleteHydration submits onboarding details. A photo switches the body to
// multipart/form-data.
func (c *Client) CompleteHydration(ctx context.Context, token string, payload CompleteHydration) (Profile, error) {
	var (
		req request
		err error
	)
	if payload.Photo != nil && len(payload.Photo.Data) > 0 {
		req, err = multipartHydration(c.hydrateURL(), token, payload)
	} else {
		req, err = jsonRequest(http.MethodPut, c.hydrateURL(), token, hydrationJSON{
			FirstName:   strings.TrimSpace(payload.FirstName),
			LastName:    strings.TrimSpace(payload.LastName),
			PhoneNumber: strings.TrimSpace(payload.PhoneNumber),
		})
	}
	if err != nil {
		return Profile{}, err
	}
	var profile Profile
	if err := do(ctx, c, req, &profile); err != nil {
		return Profile{}, fmt.Errorf("complete hydration: %w", err)
	}
	return profile, nil
}

type hydrationJSON struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

func multipartHydration(target, token string, payload CompleteHydration) (request, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	fields := []struct{ name, value string }{
		{"firstName", payload.FirstName},
		{"lastName", payload.LastName},
		{"phoneNumber", payload.PhoneNumber},
	}
	for _, field := range fields {
		value := strings.TrimSpace(field.value)
		if value == "" && field.name == "phoneNumber" {
			continue
		}
		if err := writer.WriteField(field.name, value); err != nil {
			return request{}, fmt.Errorf("write %s field: %w", field.name, err)
		}
	}

	filename := strings.TrimSpace(payload.Photo.Filename)
	if filename == "" {
		filename = "photo"
	}
	part, err := writer.CreateFormFile("photo", filename)
	if err != nil {
		return request{}, fmt.Errorf("create photo part: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(payload.Photo.Data)); err != nil {
		return request{}, fmt.Errorf("write photo part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return request{}, fmt.Errorf("close multipart body: %w", err)
	}
	return request{
		method:      http.MethodPut,
		url:         target,
		token:       token,
		body:        &body,
		contentType: writer.FormDataContentType(),
	}, nil
}

func (c *Client) hydrateURL() string {
	if c == nil {
		return ""
	}
	return c.baseURL + hydratePath
}
