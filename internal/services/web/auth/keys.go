// Package auth issues and resolves signed-in web sessions and the bearer
// tokens the web service presents to the Casa Norte APIs.
package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// minSecretLen is the shortest accepted WEB_SESSION_SECRET.
const minSecretLen = 32

const (
	keyLen         = 32
	keySalt        = "casanorte-web"
	sessionKeyInfo = "casanorte web session v1"
	apiKeyInfo     = "casanorte api bearer v1"
)

// ErrWeakSecret rejects secrets too short to derive signing keys from.
var ErrWeakSecret = errors.New("session secret must be at least 32 bytes")

// Keys holds the HMAC keys derived from the configured session secret.
type Keys struct {
	Session []byte
	API     []byte
}

// DeriveKeys expands secret into independent session and API signing keys.
func DeriveKeys(secret string) (Keys, error) {
	secret = strings.TrimSpace(secret)
	if len(secret) < minSecretLen {
		return Keys{}, ErrWeakSecret
	}
	session, err := expand(secret, sessionKeyInfo)
	if err != nil {
		return Keys{}, err
	}
	api, err := expand(secret, apiKeyInfo)
	if err != nil {
		return Keys{}, err
	}
	return Keys{Session: session, API: api}, nil
}

func expand(secret string, info string) ([]byte, error) {
	reader := hkdf.New(sha256.New, []byte(secret), []byte(keySalt), []byte(info))
	key := make([]byte, keyLen)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", info, err)
	}
	return key, nil
}
