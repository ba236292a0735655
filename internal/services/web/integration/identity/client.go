// Package identity calls an Identity Toolkit compatible REST endpoint for
// phone number verification.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/casanorte/casanorte/internal/services/web/platform/errors"
)

// DefaultBaseURL is the public Identity Toolkit endpoint.
const DefaultBaseURL = "https://identitytoolkit.googleapis.com"

const defaultTimeout = 10 * time.Second

// Provider error codes surfaced to callers.
const (
	CodeInvalidCode     = "INVALID_CODE"
	CodeSessionExpired  = "SESSION_EXPIRED"
	CodeInvalidPhone    = "INVALID_PHONE_NUMBER"
	CodeTooManyAttempts = "TOO_MANY_ATTEMPTS_TRY_LATER"
)

// Config configures a Client.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *log.Logger
}

// Client sends and confirms phone verification codes.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	logger     *log.Logger
}

// Verification is a confirmed phone sign-in.
type Verification struct {
	IDToken     string `json:"idToken"`
	LocalID     string `json:"localId"`
	PhoneNumber string `json:"phoneNumber"`
	IsNewUser   bool   `json:"isNewUser"`
}

// ProviderError is an error body returned by the identity provider.
type ProviderError struct {
	StatusCode int
	Code       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider status %d: %s", e.StatusCode, e.Code)
}

// New builds a Client. An empty BaseURL uses DefaultBaseURL.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("identity base url: %w", err)
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("identity api key is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Client{baseURL: base, apiKey: apiKey, timeout: timeout, httpClient: httpClient, logger: logger}, nil
}

// SendVerificationCode texts a code to phoneNumber and returns the session
// info needed to confirm it.
func (c *Client) SendVerificationCode(ctx context.Context, phoneNumber string, recaptchaToken string) (string, error) {
	body := map[string]string{"phoneNumber": strings.TrimSpace(phoneNumber)}
	if token := strings.TrimSpace(recaptchaToken); token != "" {
		body["recaptchaToken"] = token
	}
	var out struct {
		SessionInfo string `json:"sessionInfo"`
	}
	if err := c.post(ctx, "accounts:sendVerificationCode", body, &out); err != nil {
		return "", fmt.Errorf("send verification code: %w", err)
	}
	if strings.TrimSpace(out.SessionInfo) == "" {
		return "", errors.New("send verification code: empty session info")
	}
	return out.SessionInfo, nil
}

// SignInWithPhoneNumber confirms code against sessionInfo.
func (c *Client) SignInWithPhoneNumber(ctx context.Context, sessionInfo string, code string) (Verification, error) {
	var out Verification
	body := map[string]string{
		"sessionInfo": strings.TrimSpace(sessionInfo),
		"code":        strings.TrimSpace(code),
	}
	if err := c.post(ctx, "accounts:signInWithPhoneNumber", body, &out); err != nil {
		return Verification{}, fmt.Errorf("sign in with phone number: %w", err)
	}
	return out, nil
}

// Code returns the provider error code carried by err, if any.
func Code(err error) string {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Code
	}
	return ""
}

func (c *Client) post(ctx context.Context, method string, payload any, out any) error {
	if c == nil {
		return errors.New("identity client is not configured")
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + "/v1/" + method + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Printf("identity call method=%s status=error duration_ms=%d err=%v", method, time.Since(started).Milliseconds(), err)
		return apperrors.Wrap(apperrors.KindUnavailable, "call identity provider", err)
	}
	defer resp.Body.Close()
	c.logger.Printf("identity call method=%s status=%d duration_ms=%d", method, resp.StatusCode, time.Since(started).Milliseconds())

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperrors.Wrap(apperrors.KindUnavailable, "read identity response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		providerErr := &ProviderError{StatusCode: resp.StatusCode, Code: providerCode(raw)}
		return apperrors.Error{Kind: kindForCode(resp.StatusCode, providerErr.Code), Message: "identity provider", Err: providerErr}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.Wrap(apperrors.KindUnknown, "decode identity response", err)
	}
	return nil
}

func providerCode(raw []byte) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "UNKNOWN"
	}
	// Messages look like "INVALID_CODE" or "TOO_MANY_ATTEMPTS_TRY_LATER : detail".
	code, _, _ := strings.Cut(body.Error.Message, " ")
	if code = strings.TrimSpace(code); code == "" {
		return "UNKNOWN"
	}
	return code
}

func kindForCode(status int, code string) apperrors.Kind {
	switch code {
	case CodeInvalidCode, CodeInvalidPhone:
		return apperrors.KindInvalidInput
	case CodeSessionExpired:
		return apperrors.KindUnauthorized
	case CodeTooManyAttempts:
		return apperrors.KindRateLimited
	}
	return apperrors.KindForStatus(status)
}
