package stats

import (
	"errors"
	"fmt"

	"practicestats/pkg/config"
)

var (
	// ErrConfig means the store identity or credentials are missing.
	ErrConfig = errors.New("configuration error")
	// ErrValidation means the request itself is malformed.
	ErrValidation = errors.New("validation error")
	// ErrNotFound means a sheet or row the operation needs is absent.
	ErrNotFound = errors.New("not found")
	// ErrRemoteStore wraps any failure reported by the tabular store.
	ErrRemoteStore = errors.New("remote store error")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func remoteError(err error) error {
	return fmt.Errorf("%w: %w", ErrRemoteStore, err)
}

func configError(err error) error {
	if errors.Is(err, config.ErrIncomplete) {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return fmt.Errorf("%w: %v", ErrConfig, err)
}
