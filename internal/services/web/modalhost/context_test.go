package modalhost

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestFromContext(t *testing.T) {
	t.Parallel()

	if _, err := FromContext(context.Background()); !errors.Is(err, ErrNoHost) {
		t.Fatalf("FromContext(empty) error = %v, want ErrNoHost", err)
	}

	host := NewHost()
	got, err := FromContext(WithHost(context.Background(), host))
	if err != nil {
		t.Fatalf("FromContext() error = %v", err)
	}
	if got != host {
		t.Fatalf("FromContext() returned a different host")
	}
}

func TestMustFromContextPanicsWithDescriptiveError(t *testing.T) {
	t.Parallel()

	defer func() {
		recovered := recover()
		err, ok := recovered.(error)
		if !ok {
			t.Fatalf("recovered = %v, want error", recovered)
		}
		if !errors.Is(err, ErrNoHost) {
			t.Fatalf("panic error = %v, want ErrNoHost", err)
		}
		if !strings.Contains(err.Error(), "modalhost.Middleware") {
			t.Fatalf("panic message %q should name the missing middleware", err.Error())
		}
	}()
	MustFromContext(context.Background())
}
