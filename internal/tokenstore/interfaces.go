package tokenstore

import "context"

// TokenStore reads and writes tokens to persistent storage.
type TokenStore interface {
	// Read returns the stored token. Returns error if token is missing or empty.
	Read(ctx context.Context) (string, error)

	// Write persists the token to storage, replacing any previous value.
	Write(ctx context.Context, token string) error
}
