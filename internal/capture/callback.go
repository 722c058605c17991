package capture

import (
	_ "embed"
	"log/slog"
	"net/http"
)

// CallbackPath serves the page a provider redirects to after an implicit grant.
// The access token arrives in the URL fragment, which browsers never send to a
// server, so the page reads it client side and forwards it to CapturePath.
const CallbackPath = "/callback"

//go:embed callback.html
var callbackPage []byte

// callback serves the static redirect target.
func callback(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	h.Set("Referrer-Policy", "no-referrer")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(callbackPage); err != nil {
		slog.DebugContext(r.Context(), "failed to write response", "error", err)
	}
}
