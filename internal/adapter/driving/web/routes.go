package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers the status page routes on the provided mux.
// Static assets are served from the embedded filesystem at /static/*.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	mux.HandleFunc("GET /status", h.Status)
	mux.HandleFunc("POST /status/bases/{baseId}/unsubscribe", h.Unsubscribe)
}
