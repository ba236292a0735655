// Package casanorteapi is the HTTP client for the Casa Norte JSON APIs: the
// spread-sync profile API and the invites API.
package casanorteapi

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

// DefaultTimeout bounds each API round trip when Config.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// DefaultApplication is sent in X-Application-Name when none is configured.
const DefaultApplication = "casa-norte"

const applicationHeader = "X-Application-Name"

// maxResponseBody caps decoded API responses.
const maxResponseBody = 4 << 20

// ErrTimeout reports an API call that ran past its deadline.
var ErrTimeout = errors.New("request timed out")

// Config configures a Client.
type Config struct {
	BaseURL     string
	AuthBaseURL string
	Application string
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      *log.Logger
}

// Client calls the Casa Norte APIs.
type Client struct {
	baseURL     string
	authBaseURL string
	application string
	timeout     time.Duration
	httpClient  *http.Client
	logger      *log.Logger
}

// StatusError is a non-2xx API response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, msg)
}

// envelope is the response wrapper every endpoint uses.
type envelope[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message"`
}

// New builds a Client. BaseURL is required; AuthBaseURL falls back to it.
func New(cfg Config) (*Client, error) {
	base, err := normalizeBase(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("api base url: %w", err)
	}
	authBase := base
	if strings.TrimSpace(cfg.AuthBaseURL) != "" {
		authBase, err = normalizeBase(cfg.AuthBaseURL)
		if err != nil {
			return nil, fmt.Errorf("auth api base url: %w", err)
		}
	}
	application := strings.TrimSpace(cfg.Application)
	if application == "" {
		application = DefaultApplication
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		baseURL:     base,
		authBaseURL: authBase,
		application: application,
		timeout:     timeout,
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

func normalizeBase(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", errors.New("host is required")
	}
	return strings.TrimRight(raw, "/"), nil
}

type request struct {
	method      string
	url         string
	token       string
	body        io.Reader
	contentType string
}

func jsonRequest(method, target, token string, payload any) (request, error) {
	req := request{method: method, url: target, token: token}
	if payload == nil {
		return req, nil
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return request{}, fmt.Errorf("encode %s %s body: %w", method, target, err)
	}
	req.body = bytes.NewReader(encoded)
	req.contentType = "application/json"
	return req, nil
}

// do runs req and decodes the enveloped payload into out when out is non-nil.
func do[T any](ctx context.Context, c *Client, req request, out *T) error {
	if c == nil {
		return errors.New("casanorte api client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.url, req.body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", req.method, req.url, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(applicationHeader, c.application)
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if token := strings.TrimSpace(req.token); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	elapsed := time.Since(started).Milliseconds()
	if err != nil {
		c.logger.Printf("api call method=%s url=%s status=error duration_ms=%d err=%v", req.method, req.url, elapsed, err)
		if errors.Is(err, context.DeadlineExceeded) {
			return apperrors.Wrap(apperrors.KindUnavailable, "call casa norte api", ErrTimeout)
		}
		return apperrors.Wrap(apperrors.KindUnavailable, "call casa norte api", err)
	}
	defer resp.Body.Close()
	c.logger.Printf("api call method=%s url=%s status=%d duration_ms=%d", req.method, req.url, resp.StatusCode, elapsed)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return apperrors.Wrap(apperrors.KindUnavailable, "read casa norte api response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{
			Method:     req.method,
			URL:        req.url,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw),
		}
		return apperrors.Error{
			Kind:    apperrors.KindForStatus(resp.StatusCode),
			Message: "casa norte api",
			Err:     statusErr,
		}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var payload envelope[T]
	if err := json.Unmarshal(raw, &payload); err != nil {
		return apperrors.Wrap(apperrors.KindUnknown, "decode casa norte api response", err)
	}
	*out = payload.Data
	return nil
}

// errorMessage extracts the message field of an error envelope, falling back
// to a trimmed body excerpt.
func errorMessage(raw []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(payload.Error); msg != "" {
			return msg
		}
	}
	text := strings.TrimSpace(string(raw))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}

// StatusCode returns the upstream status of err, or 0 when err did not come
// from an API response.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// Message returns the upstream error message carried by err, if any.
func Message(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return strings.TrimSpace(statusErr.Message)
	}
	return ""
}
