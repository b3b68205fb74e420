package domain

import (
	"errors"
	"fmt"
)

// The embedding/generation pairs distinguish upstream capacity conditions
// (recoverable, trigger degraded mode) from other upstream failures (fatal
// for the current request). Callers branch on the kind, never on message text.
var (
	ErrEmbeddingUnavailable  = errors.New("embedding unavailable")
	ErrEmbedding             = errors.New("embedding failed")
	ErrGenerationUnavailable = errors.New("generation unavailable")
	ErrGeneration            = errors.New("generation failed")
	ErrStore                 = errors.New("store failure")
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("not found")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
