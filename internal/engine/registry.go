package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/naoTimesdev/naoTimes-sub002/internal/domain"
)

// Registry is the authoritative in-memory table of active polls, with
// write-through persistence to the snapshot store. It is owned by the
// watcher actor and must only be touched from its goroutine.
type Registry struct {
	store domain.Store
	polls map[string]*domain.Poll
}

func NewRegistry(store domain.Store) *Registry {
	return &Registry{
		store: store,
		polls: make(map[string]*domain.Poll),
	}
}

// Create registers a new poll and persists it synchronously, so a crash
// right after creation cannot lose it.
func (r *Registry) Create(ctx context.Context, p *domain.Poll) error {
	if _, exists := r.polls[p.ID]; exists {
		return domain.ErrDuplicatePoll
	}
	if err := r.persist(ctx, p); err != nil {
		return fmt.Errorf("failed to persist new poll: %w", err)
	}
	r.polls[p.ID] = p
	return nil
}

// Get looks up a poll by message id.
func (r *Registry) Get(id string) (*domain.Poll, bool) {
	p, ok := r.polls[id]
	return p, ok
}

// Remove forgets a poll in memory and deletes its persisted record. Removing
// an unknown id is a no-op; the store delete is still attempted so a record
// orphaned by an earlier partial removal gets cleaned up.
func (r *Registry) Remove(ctx context.Context, id string) {
	delete(r.polls, id)
	if err := r.store.Delete(ctx, domain.PollKey(id)); err != nil {
		slog.WarnContext(ctx, "Registry: failed to delete poll record", "poll_id", id, "error", err)
	}
}

// All returns a snapshot slice of the active polls.
func (r *Registry) All() []*domain.Poll {
	out := make([]*domain.Poll, 0, len(r.polls))
	for _, p := range r.polls {
		out = append(out, p)
	}
	return out
}

// Len reports the number of active polls.
func (r *Registry) Len() int {
	return len(r.polls)
}

// LoadAll scans the store and re-registers every persisted poll. Polls whose
// deadline passed while the process was down are loaded as-is; the scheduler
// resolves them on its next tick. Undecodable records are skipped with a
// warning rather than aborting recovery.
func (r *Registry) LoadAll(ctx context.Context) (int, error) {
	entries, err := r.store.Scan(ctx, domain.KeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("failed to scan poll records: %w", err)
	}

	loaded := 0
	for _, kv := range entries {
		p, err := domain.DecodePoll(kv.Value)
		if err != nil {
			slog.WarnContext(ctx, "Registry: skipping corrupt poll record", "key", kv.Key, "error", err)
			continue
		}
		if _, exists := r.polls[p.ID]; exists {
			continue
		}
		r.polls[p.ID] = p
		loaded++
	}
	return loaded, nil
}

// Flush synchronously persists every still-active poll. Used on shutdown so
// a restart recovers the exact state. Polls that already resolved are
// skipped; their records were deleted by the resolver.
func (r *Registry) Flush(ctx context.Context) {
	for _, p := range r.polls {
		if p.Resolved() {
			continue
		}
		if err := r.persist(ctx, p); err != nil {
			slog.WarnContext(ctx, "Registry: flush failed for poll", "poll_id", p.ID, "error", err)
		}
	}
}

func (r *Registry) persist(ctx context.Context, p *domain.Poll) error {
	payload, err := domain.EncodePoll(p)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, domain.PollKey(p.ID), payload)
}
