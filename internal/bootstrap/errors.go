package bootstrap

import "github.com/serum-errors/go-serum"

// Error codes raised by the preparation pipeline.
const (
	CodeUserHomeNotExists = "stencil-error-user-home-not-exists"
	CodePrivilegeDrop     = "stencil-error-privilege-drop"
)

// ErrorUserHomeNotExists is returned when the caller's home directory is
// unknown or missing on disk.
//
// Errors:
//
//   - stencil-error-user-home-not-exists --
func ErrorUserHomeNotExists(home string, cause error) error {
	opts := []serum.WithConstruction{
		serum.WithMessageTemplate("home directory {{home|q}} does not exist"),
		serum.WithDetail("home", home),
	}
	if home == "" {
		opts = []serum.WithConstruction{
			serum.WithMessageLiteral("cannot determine the current user's home directory"),
		}
	}
	if cause != nil {
		opts = append(opts, serum.WithCause(cause))
	}
	return serum.Error(CodeUserHomeNotExists, opts...)
}

// ErrorPrivilegeDrop is returned when the process runs as root and cannot
// give that identity up.
//
// Errors:
//
//   - stencil-error-privilege-drop --
func ErrorPrivilegeDrop(cause error) error {
	return serum.Error(CodePrivilegeDrop,
		serum.WithMessageLiteral("refusing to run as root: unable to drop privileges"),
		serum.WithCause(cause),
	)
}
