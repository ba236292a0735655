// Package modalhost owns dynamically requested dialogs for one browser session.
//
// A Host keeps at most one active modal descriptor and the set of
// once-per-session modal ids already dismissed. Pages render the host through
// Outlet, which always renders its children and then, when a modal is active,
// the active component with an injected close behavior.
package modalhost

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"github.com/casanorte/casanorte/internal/services/web/routepath"
)

const (
	// PropOnClose carries the injected func() that closes the rendered modal.
	PropOnClose = "onClose"
	// PropCloseAction carries the URL a rendered modal posts to when dismissed.
	PropCloseAction = "closeAction"
)

// Props is the property bag handed to a modal component at render time.
type Props map[string]any

// String returns the string property for key, or "" when absent.
func (p Props) String(key string) string {
	if p == nil {
		return ""
	}
	value, _ := p[key].(string)
	return value
}

// Bool returns the boolean property for key.
func (p Props) Bool(key string) bool {
	if p == nil {
		return false
	}
	value, _ := p[key].(bool)
	return value
}

// OnClose returns the injected close callback. It is never nil.
func (p Props) OnClose() func() {
	if p != nil {
		if fn, ok := p[PropOnClose].(func()); ok && fn != nil {
			return fn
		}
	}
	return func() {}
}

// CloseAction returns the injected close URL.
func (p Props) CloseAction() string {
	return p.String(PropCloseAction)
}

func (p Props) clone(extra int) Props {
	out := make(Props, len(p)+extra)
	for key, value := range p {
		out[key] = value
	}
	return out
}

// Renderable is a modal component: it turns a property bag into markup.
type Renderable interface {
	Render(props Props) templ.Component
}

// RenderFunc adapts a function to Renderable.
type RenderFunc func(props Props) templ.Component

// Render calls f(props).
func (f RenderFunc) Render(props Props) templ.Component {
	return f(props)
}

// Descriptor describes a request to show a modal.
type Descriptor struct {
	// ID identifies the modal kind; it targets close calls and keys suppression.
	ID        string
	Component Renderable
	Props     Props
	// OncePerSession suppresses later shows of ID after the first close,
	// until ResetSession.
	OncePerSession bool
}

// Host tracks the active modal slot and the session dismissal set.
type Host struct {
	mu        sync.Mutex
	active    *Descriptor
	dismissed map[string]struct{}
}

// NewHost returns an empty host.
func NewHost() *Host {
	return &Host{dismissed: make(map[string]struct{})}
}

// ShowModal activates descriptor, replacing any active modal.
//
// A once-per-session descriptor whose id was already dismissed is ignored.
// Descriptors without an id or component are ignored as well.
func (h *Host) ShowModal(descriptor Descriptor) {
	if h == nil {
		return
	}
	descriptor.ID = strings.TrimSpace(descriptor.ID)
	if descriptor.ID == "" || descriptor.Component == nil {
		return
	}
	descriptor.Props = descriptor.Props.clone(0)

	h.mu.Lock()
	defer h.mu.Unlock()
	if descriptor.OncePerSession {
		if _, seen := h.dismissed[descriptor.ID]; seen {
			return
		}
	}
	h.active = &descriptor
}

// CloseModal closes the active modal. An empty id closes whatever is active;
// a non-matching id is ignored.
func (h *Host) CloseModal(id string) {
	if h == nil {
		return
	}
	id = strings.TrimSpace(id)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active == nil {
		return
	}
	if id != "" && id != h.active.ID {
		return
	}
	if h.active.OncePerSession {
		h.dismissed[h.active.ID] = struct{}{}
	}
	h.active = nil
}

// ResetSession forgets every dismissal and force-closes the active modal
// without recording it.
func (h *Host) ResetSession() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = nil
	clear(h.dismissed)
}

// ActiveModalID returns the id of the active modal.
func (h *Host) ActiveModalID() (string, bool) {
	if h == nil {
		return "", false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active == nil {
		return "", false
	}
	return h.active.ID, true
}

// ActiveProps returns a copy of the active modal's props when id is active.
func (h *Host) ActiveProps(id string) (Props, bool) {
	if h == nil {
		return nil, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active == nil || h.active.ID != strings.TrimSpace(id) {
		return nil, false
	}
	return h.active.Props.clone(0), true
}

// Dismissed reports whether id is in the session dismissal set.
func (h *Host) Dismissed(id string) bool {
	if h == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.dismissed[strings.TrimSpace(id)]
	return ok
}

// Active returns the component for the active modal bound to its final props:
// descriptor props first, then the injected close callback and close URL.
func (h *Host) Active() (templ.Component, bool) {
	if h == nil {
		return nil, false
	}
	h.mu.Lock()
	active := h.active
	h.mu.Unlock()
	if active == nil {
		return nil, false
	}

	id := active.ID
	props := active.Props.clone(2)
	props[PropOnClose] = func() { h.CloseModal(id) }
	props[PropCloseAction] = routepath.AppModalClose(id)

	component := active.Component.Render(props)
	if component == nil {
		return nil, false
	}
	return component, true
}

// Outlet renders the children in ctx and then the active modal, if any.
func (h *Host) Outlet() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if children := templ.GetChildren(ctx); children != nil {
			if err := children.Render(templ.ClearChildren(ctx), w); err != nil {
				return err
			}
		}
		modal, ok := h.Active()
		if !ok {
			return nil
		}
		return modal.Render(ctx, w)
	})
}
