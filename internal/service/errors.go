package service

import (
	"errors"
	"fmt"

	"daily-tracker/internal/repository"
)

var (
	// ErrNotFound covers both missing records and records owned by someone
	// else, so callers cannot test for existence.
	ErrNotFound = errors.New("not found")
	// ErrValidation rejects a write before anything is stored.
	ErrValidation = errors.New("validation failed")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// translate maps repository errors onto the service taxonomy.
func translate(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}
