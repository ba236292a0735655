// Package requestmeta resolves request scheme and origin facts used by cookie
// and CSRF decisions.
package requestmeta

import (
	"net/http"
	"net/url"
	"strings"
)

// SchemePolicy controls how the request scheme is resolved.
//
// X-Forwarded-Proto is only honored when TrustForwardedProto is set, which
// should be the case only behind a proxy that overwrites the header.
type SchemePolicy struct {
	TrustForwardedProto bool
}

type origin struct {
	scheme string
	host   string
	port   string
}

func (o origin) matches(other origin) bool {
	return o.scheme != "" && o.host != "" && o.port != "" &&
		o.scheme == other.scheme && o.host == other.host && o.port == other.port
}

// IsHTTPSWithPolicy reports whether a request should be treated as HTTPS.
func IsHTTPSWithPolicy(r *http.Request, policy SchemePolicy) bool {
	return requestScheme(r, policy) == "https"
}

// HasSameOriginProofWithPolicy reports whether the Origin header, or failing
// that the Referer header, names the same scheme, host and port as r.
func HasSameOriginProofWithPolicy(r *http.Request, policy SchemePolicy) bool {
	if r == nil {
		return false
	}
	self := requestOrigin(r, policy)
	if self.host == "" {
		return false
	}
	claimed := strings.TrimSpace(r.Header.Get("Origin"))
	if claimed == "" {
		claimed = strings.TrimSpace(r.Header.Get("Referer"))
	}
	if claimed == "" {
		return false
	}
	parsed, err := url.Parse(claimed)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(parsed.Scheme)
	return self.matches(origin{
		scheme: scheme,
		host:   strings.ToLower(parsed.Hostname()),
		port:   portOrDefault(parsed.Port(), scheme),
	})
}

// AbsoluteURL resolves path against the scheme and host r was served on.
func AbsoluteURL(r *http.Request, policy SchemePolicy, path string) string {
	if r == nil {
		return path
	}
	host := strings.TrimSpace(r.Host)
	if host == "" && r.URL != nil {
		host = r.URL.Host
	}
	if host == "" {
		return path
	}
	return requestScheme(r, policy) + "://" + host + path
}

func requestOrigin(r *http.Request, policy SchemePolicy) origin {
	scheme := requestScheme(r, policy)
	rawHost := r.Host
	if strings.TrimSpace(rawHost) == "" && r.URL != nil {
		rawHost = r.URL.Host
	}
	parsed, err := url.Parse("//" + strings.TrimSpace(rawHost))
	if err != nil {
		return origin{scheme: scheme}
	}
	return origin{
		scheme: scheme,
		host:   strings.ToLower(parsed.Hostname()),
		port:   portOrDefault(parsed.Port(), scheme),
	}
}

func requestScheme(r *http.Request, policy SchemePolicy) string {
	if r == nil {
		return ""
	}
	if policy.TrustForwardedProto {
		switch forwarded := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto"))); forwarded {
		case "http", "https":
			return forwarded
		}
	}
	if r.URL != nil {
		switch scheme := strings.ToLower(r.URL.Scheme); scheme {
		case "http", "https":
			return scheme
		}
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func portOrDefault(port string, scheme string) string {
	if port = strings.TrimSpace(port); port != "" {
		return port
	}
	switch scheme {
	case "https":
		return "443"
	case "http":
		return "80"
	default:
		return ""
	}
}
