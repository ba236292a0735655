package modalhost

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoHost reports access to the modal host from a context that was not
// wired with one.
var ErrNoHost = errors.New("modal host is not available in this context; wrap the handler with modalhost.Middleware")

type hostContextKey struct{}

// WithHost returns a child context carrying host.
func WithHost(ctx context.Context, host *Host) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, hostContextKey{}, host)
}

// FromContext returns the host carried by ctx.
func FromContext(ctx context.Context) (*Host, error) {
	if ctx == nil {
		return nil, ErrNoHost
	}
	host, ok := ctx.Value(hostContextKey{}).(*Host)
	if !ok || host == nil {
		return nil, ErrNoHost
	}
	return host, nil
}

// MustFromContext returns the host carried by ctx and panics when absent.
func MustFromContext(ctx context.Context) *Host {
	host, err := FromContext(ctx)
	if err != nil {
		panic(fmt.Errorf("modalhost: %w", err))
	}
	return host
}
