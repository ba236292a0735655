// Package httpmux mounts shared transport routes on the root mux.
package httpmux

import (
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/casanorte/casanorte/internal/services/web/routepath"
)

// StaticCacheControl is sent with every embedded asset.
const StaticCacheControl = "public, max-age=3600"

// MountStatic serves staticFS under /static/. Directory listings are not served.
func MountStatic(rootMux *http.ServeMux, staticFS fs.FS) {
	if rootMux == nil || staticFS == nil {
		return
	}
	files := http.StripPrefix(routepath.StaticPrefix, http.FileServer(http.FS(staticFS)))
	rootMux.Handle(routepath.StaticPrefix, StaticHandler(files))
}

// StaticHandler wraps an asset handler with content-type and cache headers.
func StaticHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		if contentType := staticContentType(r.URL.Path); contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.Header().Set("Cache-Control", StaticCacheControl)
		next.ServeHTTP(w, r)
	})
}

func staticContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".css":
		return "text/css; charset=utf-8"
	case ".js":
		return "text/javascript; charset=utf-8"
	case ".svg":
		return "image/svg+xml"
	default:
		return ""
	}
}
