package execution

import (
	"context"
	"sync"
)

// FillJournal persists executed fills. Persistent storage stays an
// external collaborator: the engine only depends on this interface and
// treats a nil journal as a discard.
//
// Record is called synchronously on the execution path with a
// pool-backed fill; implementations must copy what they keep and must
// not retain the pointer after returning.
type FillJournal interface {
	Record(ctx context.Context, fill *Fill) error
	Close() error
}

// MemoryJournal keeps fills in memory, useful for testing.
type MemoryJournal struct {
	mu    sync.RWMutex
	fills []Fill
}

// NewMemoryJournal creates an empty in-memory journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

// Record copies the fill into the in-memory slice.
func (j *MemoryJournal) Record(_ context.Context, fill *Fill) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fills = append(j.fills, *fill)
	return nil
}

// Close is a no-op.
func (j *MemoryJournal) Close() error { return nil }

// Count returns the number of fills recorded.
func (j *MemoryJournal) Count() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.fills)
}

// Fills returns a copy of the recorded fills.
func (j *MemoryJournal) Fills() []Fill {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]Fill, len(j.fills))
	copy(out, j.fills)
	return out
}
