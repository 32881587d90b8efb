package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrGenerationFailed  = errors.New("ai generation failed")
	ErrProviderFailure   = errors.New("provider failure")
	ErrGenerationTimeout = errors.New("generation timed out")
)
