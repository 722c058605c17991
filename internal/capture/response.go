package capture

import (
	"context"
	"io"
	"log/slog"
	"net/http"
)

// writeText writes a plain text response with the given status code.
// Logs write failures internally using the provided context.
func writeText(ctx context.Context, w http.ResponseWriter, body string, status int) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if _, err := io.WriteString(w, body); err != nil {
		slog.DebugContext(ctx, "failed to write response", "error", err)
	}
}
