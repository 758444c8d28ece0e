package domain

import (
	"errors"
	"fmt"
	"time"
)

// PlayerRecord is the single persisted entity: one row per token, holding the
// best score ever submitted for it. An empty Name means the player never
// supplied one.
type PlayerRecord struct {
	Token     string
	Name      string
	BestScore int64
	UpdatedAt time.Time
}

// ErrValidation is the root of all client-input errors. Anything wrapping it
// was rejected before touching storage and must never be retried.
var ErrValidation = errors.New("validation failed")

var (
	ErrMissingToken = fmt.Errorf("%w: token is required", ErrValidation)
	ErrInvalidScore = fmt.Errorf("%w: score must be an integer", ErrValidation)
)
