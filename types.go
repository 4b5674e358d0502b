package cautela

import "github.com/cockroachdb/errors"

// ErrorCode represents specific error codes for custody operations.
type ErrorCode int

const (
	// ErrCodeInvalidOption is returned when an invalid option is provided.
	ErrCodeInvalidOption ErrorCode = iota + 1000

	// ErrCodeInvalidRecord is returned when a stored record cannot be decoded.
	ErrCodeInvalidRecord

	// ErrCodeNotFound is returned when a record or key does not exist.
	ErrCodeNotFound

	// ErrCodeMissingConfig is returned when required configuration is absent.
	ErrCodeMissingConfig

	// ErrCodeBackendUnavailable is returned when the remote store is unavailable.
	ErrCodeBackendUnavailable
)

// String returns the human-readable string representation of the error code.
// This implements the fmt.Stringer interface.
func (e ErrorCode) String() string {
	switch e {
	case ErrCodeInvalidOption:
		return "invalid option"
	case ErrCodeInvalidRecord:
		return "invalid record"
	case ErrCodeNotFound:
		return "not found"
	case ErrCodeMissingConfig:
		return "missing configuration"
	case ErrCodeBackendUnavailable:
		return "backend unavailable"
	default:
		return "unknown error"
	}
}

// newErrorWithCode creates a new error with a code and message.
func newErrorWithCode(code ErrorCode, msg string) error {
	err := errors.New(msg)
	return errors.WithSecondaryError(err, errors.Newf("code: %d", int(code)))
}

// Common errors returned across the module.
var (
	// ErrInvalidOption is returned when an invalid option is provided.
	ErrInvalidOption = newErrorWithCode(ErrCodeInvalidOption, "cautela: invalid option")

	// ErrInvalidRecord is returned when a stored record cannot be decoded.
	ErrInvalidRecord = newErrorWithCode(ErrCodeInvalidRecord, "cautela: invalid record")

	// ErrNotFound is returned when a record or key does not exist.
	ErrNotFound = newErrorWithCode(ErrCodeNotFound, "cautela: not found")

	// ErrMissingConfig is returned when required configuration is absent.
	ErrMissingConfig = newErrorWithCode(ErrCodeMissingConfig, "cautela: missing configuration")

	// ErrBackendUnavailable is returned when the remote store is unavailable.
	ErrBackendUnavailable = newErrorWithCode(ErrCodeBackendUnavailable, "cautela: backend unavailable")
)
