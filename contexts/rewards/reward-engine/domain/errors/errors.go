package errors

import (
	"errors"
	"fmt"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrNotFound       = errors.New("not found")
	ErrTransientStore = errors.New("transient store error")
)

var (
	ErrInvalidInput          = fmt.Errorf("%w: invalid input", ErrValidation)
	ErrInvalidEvent          = fmt.Errorf("%w: invalid event definition", ErrValidation)
	ErrUnknownSubmissionType = fmt.Errorf("%w: unknown submission type", ErrValidation)
	ErrNegativeBase          = fmt.Errorf("%w: base payout must not be negative", ErrValidation)

	ErrEventNotFound = fmt.Errorf("%w: event not found", ErrNotFound)
)

func Transient(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTransientStore) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransientStore, err)
}
