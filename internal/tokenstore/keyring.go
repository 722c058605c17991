package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringStore keeps the captured token in the OS credential store instead of
// token.txt: macOS Keychain, Windows Credential Manager or the Secret Service
// on Linux. The entry is keyed by the namespace (service) and the local user,
// so each installation holds at most one token, like the file backend.
//
// Nothing watches a keyring entry; `tokencatch watch` needs the file backend.
type KeyringStore struct {
	service string
	user    string
}

var _ TokenStore = (*KeyringStore)(nil)

// NewKeyringStore returns a store for the entry service/user. No keyring access
// happens until the first Read or Write.
func NewKeyringStore(service, user string) (*KeyringStore, error) {
	switch {
	case service == "":
		return nil, errors.New("keyring service (namespace) cannot be empty")
	case user == "":
		return nil, errors.New("keyring user cannot be empty")
	}
	return &KeyringStore{service: service, user: user}, nil
}

// Read returns the captured token. A missing entry wraps keyring.ErrNotFound.
func (k *KeyringStore) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	token, err := keyring.Get(k.service, k.user)
	switch {
	case err != nil:
		return "", fmt.Errorf("no captured token in keyring entry %s: %w", k.entry(), err)
	case token == "":
		return "", fmt.Errorf("keyring entry %s holds an empty token", k.entry())
	}
	return token, nil
}

// Write replaces the captured token. Concurrent writes are serialized by the
// platform credential service; the last one wins.
func (k *KeyringStore) Write(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := keyring.Set(k.service, k.user, token); err != nil {
		return fmt.Errorf("storing captured token in keyring entry %s: %w", k.entry(), err)
	}
	return nil
}

func (k *KeyringStore) entry() string {
	return k.service + "/" + k.user
}
