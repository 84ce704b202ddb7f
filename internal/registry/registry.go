package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/leakwatch/internal/diff"
	"github.com/nao1215/leakwatch/internal/model"
)

// ErrApplyContended is returned when the per-entity lock could not be
// acquired within the bounded wait. Two runs mutating the same entity are
// expected to be rare; hitting this bound means a previous apply is stuck.
var ErrApplyContended = errors.New("registry apply contended: entity lock wait exceeded")

// DefaultLockWait is the bounded wait for the per-entity lock.
// Applies are quick (one read, one transaction), so a well-behaved peer
// releases the lock far sooner than this.
const DefaultLockWait = 30 * time.Second

// Store is the persistence surface the registry needs. *database.LeakDB
// satisfies it.
type Store interface {
	// GetLeakEntries returns all entries for one entity keyed by identity,
	// including deleted ones so resurrection can be detected.
	GetLeakEntries(ctx context.Context, entityType model.QueryType, entity string) (map[string]*model.LeakEntry, error)

	// UpsertLeakEntries writes entries in a single transaction.
	UpsertLeakEntries(ctx context.Context, entries []*model.LeakEntry) error

	// ListLeakEntries returns entries, optionally restricted to a status.
	ListLeakEntries(ctx context.Context, status model.LeakStatus) ([]*model.LeakEntry, error)

	// CountLeakEntriesByStatus returns entry counts per status.
	CountLeakEntriesByStatus(ctx context.Context) (map[model.LeakStatus]int, error)
}

// Update is the outcome of applying one diff to the registry.
// NotifyBatch is exactly the set of entries whose transition should reach
// the notifier; the other slices exist for reporting and tests.
type Update struct {
	// Created contains entries created in this apply (first observation).
	Created []*model.LeakEntry `json:"created,omitempty"`

	// Resurrected contains deleted entries that reappeared and were reset
	// to status new with a fresh FoundAt.
	Resurrected []*model.LeakEntry `json:"resurrected,omitempty"`

	// TransitionedToDeleted contains entries whose identity disappeared
	// from the current snapshot in this apply.
	TransitionedToDeleted []*model.LeakEntry `json:"transitioned_to_deleted,omitempty"`

	// NotifyBatch contains the notification-worthy entries: non-first-run
	// creations, resurrections, and transitions to deleted. First-run
	// seeding is suppressed so a fresh monitor never fires an alert storm.
	NotifyBatch []*model.LeakEntry `json:"notify_batch,omitempty"`
}

// Empty reports whether the apply changed nothing worth reporting.
func (u *Update) Empty() bool {
	return len(u.Created) == 0 && len(u.Resurrected) == 0 && len(u.TransitionedToDeleted) == 0
}

// Registry applies diff results to the durable leak entry set.
type Registry struct {
	store  Store
	logger *slog.Logger

	// now is the clock used for FoundAt/LastSeenAt stamps.
	now func() time.Time

	// lockWait bounds how long Apply waits for the per-entity lock.
	lockWait time.Duration

	// entityLocks serializes Apply per entity key. Each lock is a
	// one-slot semaphore so acquisition can respect context and the
	// bounded wait.
	mu          sync.Mutex
	entityLocks map[string]chan struct{}
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets a custom logger for the registry.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithClock sets the clock used for entry timestamps. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithLockWait sets the bounded wait for the per-entity lock.
func WithLockWait(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.lockWait = d
		}
	}
}

// New creates a Registry backed by the given store.
func New(store Store, opts ...Option) *Registry {
	r := &Registry{
		store:       store,
		now:         time.Now,
		lockWait:    DefaultLockWait,
		entityLocks: make(map[string]chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Apply applies a diff result to the registry for one tracked entity and
// returns the resulting update. All status transitions for the entity are
// written in a single store transaction, serialized against concurrent
// applies for the same entity by a per-entity lock with bounded wait.
//
// Applying the same diff twice yields the same terminal state as applying
// it once: already-live appeared identities become a LastSeenAt touch,
// already-deleted disappeared identities are left untouched.
func (r *Registry) Apply(ctx context.Context, query model.Query, d *diff.Result, snapshot *model.Snapshot) (*Update, error) {
	release, err := r.lockEntity(ctx, query.Key())
	if err != nil {
		return nil, err
	}
	defer release()

	entries, err := r.store.GetLeakEntries(ctx, query.NormalizedType(), query.NormalizedValue())
	if err != nil {
		return nil, fmt.Errorf("failed to load entries for %s: %w", query.Key(), err)
	}

	now := r.now()
	update := &Update{}
	var dirty []*model.LeakEntry

	for _, identity := range d.Appeared {
		entry, exists := entries[identity]
		switch {
		case !exists:
			entry = model.NewLeakEntry(query, snapshot.Results[identity], now)
			entries[identity] = entry
			update.Created = append(update.Created, entry)
			if !d.FirstRun {
				update.NotifyBatch = append(update.NotifyBatch, entry)
			}
		case entry.Status == model.LeakStatusDeleted:
			// Re-appearance is itself a notification-worthy event.
			entry.Status = model.LeakStatusNew
			entry.FoundAt = now
			entry.LastSeenAt = now
			entry.Refresh(snapshot.Results[identity])
			update.Resurrected = append(update.Resurrected, entry)
			update.NotifyBatch = append(update.NotifyBatch, entry)
		default:
			// Already live. Appeared should not produce this by
			// construction, but duplicate runs and clock skew can; treat
			// as a plain observation.
			entry.LastSeenAt = now
		}
		dirty = append(dirty, entry)
	}

	for _, identity := range d.Persisted {
		entry, exists := entries[identity]
		if !exists {
			// The previous snapshot knew this identity but the registry
			// does not, e.g. a registry restored from an older backup.
			// Seed it quietly.
			entry = model.NewLeakEntry(query, snapshot.Results[identity], now)
			entries[identity] = entry
			update.Created = append(update.Created, entry)
			dirty = append(dirty, entry)
			continue
		}
		if entry.Status != model.LeakStatusExisting {
			entry.Status = model.LeakStatusExisting
		}
		entry.LastSeenAt = now
		dirty = append(dirty, entry)
	}

	for _, identity := range d.Disappeared {
		entry, exists := entries[identity]
		if !exists || entry.Status == model.LeakStatusDeleted {
			// Unknown or already deleted: nothing to transition, and
			// LastSeenAt stays frozen at the last run it was present.
			continue
		}
		entry.Status = model.LeakStatusDeleted
		update.TransitionedToDeleted = append(update.TransitionedToDeleted, entry)
		update.NotifyBatch = append(update.NotifyBatch, entry)
		dirty = append(dirty, entry)
	}

	if err := r.store.UpsertLeakEntries(ctx, dirty); err != nil {
		return nil, fmt.Errorf("failed to commit update for %s: %w", query.Key(), err)
	}

	if !update.Empty() {
		r.logger.Info("registry updated",
			"entity", query.Key(),
			"created", len(update.Created),
			"resurrected", len(update.Resurrected),
			"deleted", len(update.TransitionedToDeleted),
			"notify", len(update.NotifyBatch),
			"first_run", d.FirstRun,
		)
	}
	return update, nil
}

// Filter restricts the read-only listing.
type Filter struct {
	// Status restricts the listing to one lifecycle state; empty matches all.
	Status model.LeakStatus

	// Term is a case-insensitive substring matched over entity type,
	// entity, status, summary, and the source/breach details.
	Term string
}

// List returns leak entries matching the filter, newest first.
func (r *Registry) List(ctx context.Context, filter Filter) ([]*model.LeakEntry, error) {
	entries, err := r.store.ListLeakEntries(ctx, filter.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to list leak entries: %w", err)
	}
	if filter.Term == "" {
		return entries, nil
	}

	matched := make([]*model.LeakEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.MatchesFilter(filter.Status, filter.Term) {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

// Counts returns entry counts per status.
func (r *Registry) Counts(ctx context.Context) (map[model.LeakStatus]int, error) {
	return r.store.CountLeakEntriesByStatus(ctx)
}

// lockEntity acquires the per-entity lock, waiting at most lockWait.
// The returned release function must be called exactly once.
func (r *Registry) lockEntity(ctx context.Context, key string) (func(), error) {
	r.mu.Lock()
	lock, ok := r.entityLocks[key]
	if !ok {
		lock = make(chan struct{}, 1)
		r.entityLocks[key] = lock
	}
	r.mu.Unlock()

	select {
	case lock <- struct{}{}:
		return func() { <-lock }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(r.lockWait):
		return nil, fmt.Errorf("%w: %s", ErrApplyContended, key)
	}
}
