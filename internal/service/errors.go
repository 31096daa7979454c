package service

import (
	"errors"
	"fmt"
)

// Errores base. Los handlers mapean con errors.Is: ErrValidation => 400,
// ErrNotFound => 404; cualquier otro error es interno.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
)

var (
	ErrThreadNotFound = fmt.Errorf("%w: chat not found", ErrNotFound)
	ErrInvalidLimit   = fmt.Errorf("%w: limit must be a positive integer", ErrValidation)
	ErrInvalidOffset  = fmt.Errorf("%w: offset must be a non-negative integer", ErrValidation)
	ErrEmptyText      = fmt.Errorf("%w: text is required", ErrValidation)
)
