package paper

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/juliaizbroke/SeniorProject1-sub000/internal/metrics"
	"github.com/juliaizbroke/SeniorProject1-sub000/internal/question"
)

// LockStore tracks which working-list entries are pinned against resampling
// and which distractors have their category frozen. The two sets are
// independent: unpinning never touches category-lock state for the same id.
//
// Every mutation persists both full sets synchronously. A failed write is
// logged and swallowed: the in-memory sets stay correct for the current
// session, it just will not survive a reload.
type LockStore struct {
	sessionID uuid.UUID
	state     SessionState
	logger    zerolog.Logger

	items      map[question.SlotID]struct{}
	categories map[question.SlotID]struct{}
}

// NewLockStore returns an empty lock store for the session. Call Hydrate to
// restore persisted state.
func NewLockStore(sessionID uuid.UUID, state SessionState, logger zerolog.Logger) *LockStore {
	return &LockStore{
		sessionID:  sessionID,
		state:      state,
		logger:     logger,
		items:      make(map[question.SlotID]struct{}),
		categories: make(map[question.SlotID]struct{}),
	}
}

// Hydrate replaces the in-memory sets with whatever is persisted. Also the
// handler for the collaborator-driven force-refresh signal.
func (l *LockStore) Hydrate(ctx context.Context) error {
	items, err := l.state.Locks(ctx, l.sessionID, FieldLockedQuestions)
	if err != nil {
		return err
	}
	categories, err := l.state.Locks(ctx, l.sessionID, FieldLockedCategories)
	if err != nil {
		return err
	}
	l.items = make(map[question.SlotID]struct{}, len(items))
	for _, id := range items {
		l.items[id] = struct{}{}
	}
	l.categories = make(map[question.SlotID]struct{}, len(categories))
	for _, id := range categories {
		l.categories[id] = struct{}{}
	}
	return nil
}

// Pin excludes an entry from resampling.
func (l *LockStore) Pin(ctx context.Context, id question.SlotID) {
	l.items[id] = struct{}{}
	l.persist(ctx)
}

// Unpin makes an entry eligible for resampling again.
func (l *LockStore) Unpin(ctx context.Context, id question.SlotID) {
	delete(l.items, id)
	l.persist(ctx)
}

// LockCategory freezes which category a distractor draws from.
func (l *LockStore) LockCategory(ctx context.Context, id question.SlotID) {
	l.categories[id] = struct{}{}
	l.persist(ctx)
}

// UnlockCategory releases a distractor's category.
func (l *LockStore) UnlockCategory(ctx context.Context, id question.SlotID) {
	delete(l.categories, id)
	l.persist(ctx)
}

// ReplaceCategoryLock moves a category lock from the id that occupied a
// distractor position before a synchronization pass to the id occupying it
// now. Category locks travel with position, not content.
func (l *LockStore) ReplaceCategoryLock(ctx context.Context, oldID, newID question.SlotID) {
	if _, ok := l.categories[oldID]; !ok {
		return
	}
	delete(l.categories, oldID)
	l.categories[newID] = struct{}{}
	l.persist(ctx)
}

// ClearAll drops every lock in both sets.
func (l *LockStore) ClearAll(ctx context.Context) {
	l.items = make(map[question.SlotID]struct{})
	l.categories = make(map[question.SlotID]struct{})
	l.persist(ctx)
}

// IsPinned reports whether the entry is item-locked.
func (l *LockStore) IsPinned(id question.SlotID) bool {
	_, ok := l.items[id]
	return ok
}

// IsCategoryLocked reports whether the distractor's category is frozen. A
// pinned distractor counts as category-locked too: the full lock is the
// stricter restriction.
func (l *LockStore) IsCategoryLocked(id question.SlotID) bool {
	if _, ok := l.items[id]; ok {
		return true
	}
	_, ok := l.categories[id]
	return ok
}

// ItemLockCount returns how many entries are pinned.
func (l *LockStore) ItemLockCount() int { return len(l.items) }

// CategoryLockCount returns how many distractors have a frozen category.
func (l *LockStore) CategoryLockCount() int { return len(l.categories) }

func (l *LockStore) persist(ctx context.Context) {
	if err := l.state.StoreLocks(ctx, l.sessionID, FieldLockedQuestions, sortedIDs(l.items)); err != nil {
		metrics.LockPersistFailures.Inc()
		l.logger.Warn().Err(err).Str("session_id", l.sessionID.String()).Msg("persist item locks failed")
	}
	if err := l.state.StoreLocks(ctx, l.sessionID, FieldLockedCategories, sortedIDs(l.categories)); err != nil {
		metrics.LockPersistFailures.Inc()
		l.logger.Warn().Err(err).Str("session_id", l.sessionID.String()).Msg("persist category locks failed")
	}
}

func sortedIDs(set map[question.SlotID]struct{}) []question.SlotID {
	ids := make([]question.SlotID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
