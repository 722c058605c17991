package capture

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/florianilch/tokencatch/internal/tokenstore"
)

// CapturePath receives tokens as the TokenParam query parameter.
const CapturePath = "/capture"

// TokenParam is the query parameter carrying the captured token.
const TokenParam = "token"

// CaptureHandler persists the token of a capture request.
type CaptureHandler struct {
	Store tokenstore.TokenStore
}

// Compile-time check to ensure CaptureHandler implements http.Handler
var _ http.Handler = (*CaptureHandler)(nil)

// ServeHTTP implements http.Handler interface.
func (h *CaptureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := r.URL.Query().Get(TokenParam)
	if token == "" {
		slog.WarnContext(ctx, "capture request without token")
		writeText(ctx, w, "missing token", http.StatusBadRequest)
		return
	}

	// A client hanging up mid-write must not leave the capture half done.
	if err := h.Store.Write(context.WithoutCancel(ctx), token); err != nil {
		slog.ErrorContext(ctx, "failed to store token", "error", err)
		writeText(ctx, w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	slog.InfoContext(ctx, "token captured", "length", len(token))
	writeText(ctx, w, "ok", http.StatusOK)
}

// preflight answers CORS preflight requests; the CORS middleware adds the headers.
func preflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
