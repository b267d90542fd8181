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
	ErrInvalidInput   = fmt.Errorf("%w: invalid input", ErrValidation)
	ErrMissingTitle   = fmt.Errorf("%w: contract title is required", ErrValidation)
	ErrViewerNotFound = fmt.Errorf("%w: viewer not found", ErrNotFound)
)
