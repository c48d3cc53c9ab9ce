package core

import (
	"errors"
)

var (
	// ErrAllocation is returned when the device fails to create or upload a resource.
	ErrAllocation = errors.New("device resource allocation failed")
	// ErrValidation is returned when arguments do not satisfy a precondition.
	ErrValidation = errors.New("invalid argument")
	// ErrUnsupportedInput is returned for pixel formats with no conversion path.
	ErrUnsupportedInput = errors.New("unsupported input")
	// ErrUnrecoverable is returned when initialization cannot complete.
	ErrUnrecoverable = errors.New("unrecoverable device error")
	ErrNotInitialized = errors.New("not initialized")
)
