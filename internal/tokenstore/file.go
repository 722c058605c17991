package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// FileStore provides atomic file-based token storage with secure permissions.
// Writes use temp file + rename for crash safety and are serialized, so
// concurrent writers never interleave and the last write to complete wins.
type FileStore struct {
	resolver Resolver
	fileName string

	writeMu sync.Mutex
}

// Compile-time check to ensure FileStore implements TokenStore
var _ TokenStore = (*FileStore)(nil)

// NewFileStore creates a FileStore writing fileName inside the directory yielded by resolver.
// No I/O is performed; the directory is created on the first write.
func NewFileStore(resolver Resolver, fileName string) (*FileStore, error) {
	if resolver == nil {
		return nil, errors.New("resolver cannot be nil")
	}
	if fileName == "" {
		return nil, errors.New("file name cannot be empty")
	}
	if filepath.Base(fileName) != fileName {
		return nil, fmt.Errorf("file name %q must not contain path separators", fileName)
	}

	return &FileStore{
		resolver: resolver,
		fileName: fileName,
	}, nil
}

// Path returns the current location of the token file.
func (f *FileStore) Path() (string, error) {
	dir, err := f.resolver.Dir()
	if err != nil {
		return "", &IOError{Op: OpResolve, Err: err}
	}
	return filepath.Join(dir, f.fileName), nil
}

// EnsureDirectory creates all missing segments of the config directory with 0700
// permissions and returns its path. Calling it on an existing directory is a no-op.
func (f *FileStore) EnsureDirectory(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir, err := f.resolver.Dir()
	if err != nil {
		return "", &IOError{Op: OpResolve, Err: err}
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", &IOError{Op: OpCreateDirectory, Path: dir, Err: err}
	}

	return dir, nil
}

// Read returns the stored token exactly as written. Returns error if the file
// doesn't exist, is empty, or has insecure permissions.
func (f *FileStore) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := f.Path()
	if err != nil {
		return "", err
	}

	// Check file permissions before reading
	info, err := os.Stat(path)
	if err != nil {
		return "", &IOError{Op: OpReadToken, Path: path, Err: err}
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		return "", fmt.Errorf("insecure permissions on %s: %04o (expected 0600)", path, info.Mode().Perm())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &IOError{Op: OpReadToken, Path: path, Err: err}
	}

	if len(data) == 0 {
		return "", fmt.Errorf("empty token file %s", path)
	}
	return string(data), nil
}

// Write replaces the token file content with token, byte for byte.
// The directory is resolved and created on every call.
func (f *FileStore) Write(ctx context.Context, token string) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	dir, err := f.EnsureDirectory(ctx)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, f.fileName)

	if err := writeFileAtomic(ctx, path, []byte(token)); err != nil {
		return &IOError{Op: OpWriteToken, Path: path, Err: err}
	}

	return nil
}

// writeFileAtomic writes data to a temp file next to path and renames it into place.
func writeFileAtomic(ctx context.Context, path string, data []byte) error {
	// Create secure temp file in same directory for atomic rename
	tempFile, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()
	// Cleanup deferred for all exit paths; a no-op after a successful rename
	defer func() { _ = os.Remove(tempName) }()
	defer func() { _ = tempFile.Close() }()

	if _, err := tempFile.Write(data); err != nil {
		return err
	}
	if err := tempFile.Sync(); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tempFile.Close(); err != nil {
		return err
	}

	if err := os.Rename(tempName, path); err != nil {
		return err
	}

	// Set secure file permissions (0600 = rw-------)
	return os.Chmod(path, 0600)
}
