package domain

import "errors"

var (
	// Access and payment workflow errors
	ErrNotFound       = errors.New("entity not found")
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("payment already processed")
	ErrRateLimited    = errors.New("too many requests")
	ErrTransientStore = errors.New("store temporarily unavailable")
	ErrNotProvisioned = errors.New("store not provisioned")
	ErrLockHeld       = errors.New("lock held by another worker")

	// Store plumbing errors
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid exec context")
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)

// IsTransient reports whether err is worth a retry by the caller.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientStore)
}
