package tokenstore

import "fmt"

// Operations reported by IOError.
const (
	OpResolve         = "resolve directory"
	OpCreateDirectory = "create directory"
	OpWriteToken      = "write token"
	OpReadToken       = "read token"
)

// IOError reports a filesystem failure together with the path it happened on.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("tokenstore: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("tokenstore: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
