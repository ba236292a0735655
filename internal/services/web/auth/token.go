package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is the iss claim on every token the web service signs.
const Issuer = "casanorte-web"

// APITokenTTL bounds bearer tokens sent to the Casa Norte APIs.
const APITokenTTL = 5 * time.Minute

// ErrInvalidToken reports a token that failed signature or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// ErrExpiredToken reports a token past its exp claim.
var ErrExpiredToken = errors.New("token expired")

// SessionClaims identifies the browser session behind a cookie token.
type SessionClaims struct {
	SessionID string
	UserID    string
	ExpiresAt time.Time
}

type sessionTokenClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// Tokens signs and verifies HS256 tokens with derived keys.
type Tokens struct {
	keys        Keys
	application string
	now         func() time.Time
}

// NewTokens builds a signer. application becomes the aud claim of API tokens.
func NewTokens(keys Keys, application string, now func() time.Time) (*Tokens, error) {
	if len(keys.Session) == 0 || len(keys.API) == 0 {
		return nil, errors.New("signing keys are required")
	}
	application = strings.TrimSpace(application)
	if application == "" {
		return nil, errors.New("application is required")
	}
	if now == nil {
		now = time.Now
	}
	return &Tokens{keys: keys, application: application, now: now}, nil
}

// IssueSession signs a session cookie token.
func (t *Tokens) IssueSession(sessionID string, userID string, expiresAt time.Time) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	userID = strings.TrimSpace(userID)
	if sessionID == "" || userID == "" {
		return "", errors.New("session id and user id are required")
	}
	claims := sessionTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(t.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		SessionID: sessionID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.keys.Session)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// ParseSession verifies a session cookie token.
func (t *Tokens) ParseSession(token string) (SessionClaims, error) {
	var parsed sessionTokenClaims
	if err := t.parse(token, t.keys.Session, &parsed); err != nil {
		return SessionClaims{}, err
	}
	if strings.TrimSpace(parsed.SessionID) == "" || strings.TrimSpace(parsed.Subject) == "" {
		return SessionClaims{}, ErrInvalidToken
	}
	return SessionClaims{
		SessionID: parsed.SessionID,
		UserID:    parsed.Subject,
		ExpiresAt: parsed.ExpiresAt.Time.UTC(),
	}, nil
}

// IssueAPIToken signs a short-lived bearer token for userID.
func (t *Tokens) IssueAPIToken(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("user id is required")
	}
	now := t.now()
	claims := jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   userID,
		Audience:  jwt.ClaimStrings{t.application},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(APITokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.keys.API)
	if err != nil {
		return "", fmt.Errorf("sign api token: %w", err)
	}
	return signed, nil
}

// ParseAPIToken verifies a bearer token and returns its subject.
func (t *Tokens) ParseAPIToken(token string) (string, error) {
	var parsed jwt.RegisteredClaims
	if err := t.parse(token, t.keys.API, &parsed); err != nil {
		return "", err
	}
	for _, aud := range parsed.Audience {
		if aud == t.application {
			return parsed.Subject, nil
		}
	}
	return "", ErrInvalidToken
}

func (t *Tokens) parse(token string, key []byte, claims jwt.Claims) error {
	if t == nil {
		return errors.New("token signer is not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidToken
	}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return ErrInvalidToken
	}

	if issuer, err := claims.GetIssuer(); err != nil || issuer != Issuer {
		return ErrInvalidToken
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return ErrInvalidToken
	}
	if !exp.Time.After(t.now()) {
		return ErrExpiredToken
	}
	return nil
}
