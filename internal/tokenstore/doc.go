// Package tokenstore provides persistent storage for captured authentication tokens.
//
// Two writable backends are available:
//   - File: a single token file inside a namespaced per-user config directory,
//     replaced atomically on every write
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//
// The file backend resolves its directory on every write through a [Resolver],
// so a config root that changes while the process runs is picked up without restart.
// Writes are serialized; the last write to complete wins.
package tokenstore
