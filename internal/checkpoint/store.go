// Package checkpoint persists conversation state between turns. The engine
// is stateless per request; everything it remembers round-trips through a
// Store keyed by thread id.
package checkpoint

import (
	"context"
	"errors"

	"proppanda/internal/model"
)

// ErrNotFound is returned when no state exists for a thread.
var ErrNotFound = errors.New("checkpoint: session not found")

// Store saves and restores session state.
type Store interface {
	Load(ctx context.Context, threadID string) (*model.SessionState, error)
	Save(ctx context.Context, state *model.SessionState) error
	Delete(ctx context.Context, threadID string) error
}
