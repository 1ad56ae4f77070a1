package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable wraps any persistence failure.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrGenerationFailure means the generation backend returned no usable output.
	ErrGenerationFailure = errors.New("generation failure")

	// ErrMalformedOutput is a GenerationFailure whose structured result failed validation.
	ErrMalformedOutput = fmt.Errorf("%w: malformed output", ErrGenerationFailure)
)
