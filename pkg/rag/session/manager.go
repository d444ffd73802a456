package session

import (
	"context"

	"ai-docsearch-be/pkg/rag/state"
)

// Store persists the latest state of each session. Implementations must be
// safe for concurrent use; writes to one key never touch another.
type Store interface {
	// Load returns the checkpoint for sessionID, or found=false when there is none.
	Load(ctx context.Context, sessionID string) (st *state.State, found bool, err error)
	Save(ctx context.Context, sessionID string, st state.State) error
	Delete(ctx context.Context, sessionID string) error
}

// NopStore never remembers anything.
type NopStore struct{}

func (NopStore) Load(context.Context, string) (*state.State, bool, error) { return nil, false, nil }
func (NopStore) Save(context.Context, string, state.State) error         { return nil }
func (NopStore) Delete(context.Context, string) error                    { return nil }
