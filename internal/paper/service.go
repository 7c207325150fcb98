package paper

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/juliaizbroke/SeniorProject1-sub000/internal/metrics"
	"github.com/juliaizbroke/SeniorProject1-sub000/internal/question"
	"github.com/juliaizbroke/SeniorProject1-sub000/pkg/http/ws"
)

var (
	// ErrShuffleDisabled means mode selection came back disabled; the action
	// is refused before anything mutates.
	ErrShuffleDisabled = errors.New("shuffle is disabled: nothing can change")
	// ErrUnknownEntry means the identifier matches nothing in the working list.
	ErrUnknownEntry = errors.New("identifier matches no working-list entry")
	// ErrNotDistractor means a category lock was requested for a regular
	// question; category locks apply to fake answers only.
	ErrNotDistractor = errors.New("category locks apply to fake answers only")
	// ErrEntryLocked means an edit was requested on a locked entry.
	ErrEntryLocked = errors.New("entry is locked")
	// ErrEmptyPool rejects a session with nothing to sample from.
	ErrEmptyPool = errors.New("pool is empty")
)

// Snapshot is what collaborators see of a session: the ordered working list,
// the lock-set sizes and the active duplicate groups.
type Snapshot struct {
	Questions     []question.Question `json:"questions"`
	ItemLocks     int                 `json:"item_locks"`
	CategoryLocks int                 `json:"category_locks"`
	Groups        []Group             `json:"duplicate_groups,omitempty"`
}

// ServiceOptions tunes session behavior.
type ServiceOptions struct {
	// ClearLocksOnExport decides whether Finalize wipes the lock sets. The
	// engine itself only clears on explicit request; this policy lives at
	// the export boundary.
	ClearLocksOnExport bool
	// Rand overrides the per-operation random source; tests pin sequences.
	Rand func() question.Rand
}

// Service owns editing sessions end to end. Operations on one session are
// serialized: every user action runs to completion before the next begins.
type Service struct {
	state  SessionState
	hub    *ws.Hub
	logger zerolog.Logger
	opts   ServiceOptions

	mu      sync.Mutex
	perSess map[uuid.UUID]*sync.Mutex
}

// NewService wires the session store and the push hub (nil hub is fine for
// headless use).
func NewService(state SessionState, hub *ws.Hub, opts ServiceOptions, logger zerolog.Logger) *Service {
	if opts.Rand == nil {
		opts.Rand = func() question.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		}
	}
	return &Service{
		state:   state,
		hub:     hub,
		logger:  logger.With().Str("component", "paper_service").Logger(),
		opts:    opts,
		perSess: map[uuid.UUID]*sync.Mutex{},
	}
}

// lockSession serializes operations per session id.
func (s *Service) lockSession(id uuid.UUID) func() {
	s.mu.Lock()
	m, ok := s.perSess[id]
	if !ok {
		m = &sync.Mutex{}
		s.perSess[id] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// CreateSession stores the imported pool, seeds the working list through the
// category quota sampler and returns the new session id.
func (s *Service) CreateSession(ctx context.Context, pool []question.Question, settings question.QuotaSettings) (uuid.UUID, Snapshot, error) {
	if len(pool) == 0 {
		return uuid.Nil, Snapshot{}, ErrEmptyPool
	}

	id := uuid.New()
	list := question.SampleQuota(pool, settings, s.opts.Rand())

	if err := s.state.StorePool(ctx, id, pool); err != nil {
		return uuid.Nil, Snapshot{}, fmt.Errorf("store pool: %w", err)
	}
	if err := s.state.StoreQuestions(ctx, id, list); err != nil {
		return uuid.Nil, Snapshot{}, fmt.Errorf("store questions: %w", err)
	}

	metrics.SessionsCreated.Inc()
	s.detectCollisions(id, list)
	s.logger.Info().Str("session_id", id.String()).
		Int("pool", len(pool)).Int("selected", len(list)).
		Msg("session created")

	locks := NewLockStore(id, s.state, s.logger)
	return id, s.snapshot(list, locks), nil
}

// Session returns the current snapshot.
func (s *Service) Session(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	unlock := s.lockSession(id)
	defer unlock()

	d, err := s.load(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(d.list, d.locks), nil
}

// Shuffle picks a mode from the current lock state and applies it, then
// synchronizes distractors. Disabled mode refuses the action with
// ErrShuffleDisabled and mutates nothing.
func (s *Service) Shuffle(ctx context.Context, id uuid.UUID) (Mode, Snapshot, error) {
	unlock := s.lockSession(id)
	defer unlock()

	d, err := s.load(ctx, id)
	if err != nil {
		return "", Snapshot{}, err
	}

	engine := NewEngine(d.pool, s.opts.Rand(), s.logger)
	mode := engine.SelectMode(d.list, d.locks)
	metrics.ShufflesTotal.WithLabelValues(string(mode)).Inc()
	if mode == ModeDisabled {
		return ModeDisabled, s.snapshot(d.list, d.locks), ErrShuffleDisabled
	}

	next := engine.Shuffle(ctx, mode, d.list, d.locks, d.editing)
	if err := s.saveList(ctx, d, next); err != nil {
		return mode, Snapshot{}, err
	}
	s.notify(id, ws.TypeListChanged, ws.ListChangedPayload{Mode: string(mode)})
	return mode, s.snapshot(next, d.locks), nil
}

// Pin excludes an entry from resampling. A pinned entry cannot stay
// mid-edit, so any edit mark on it is cancelled.
func (s *Service) Pin(ctx context.Context, id uuid.UUID, slot question.SlotID) (Snapshot, error) {
	unlock := s.lockSession(id)
	defer unlock()

	d, err := s.load(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	if _, ok := d.index[slot]; !ok {
		return Snapshot{}, ErrUnknownEntry
	}

	d.locks.Pin(ctx, slot)
	if d.editing[slot] {
		delete(d.editing, slot)
		s.storeEditing(ctx, d)
	}
	s.notifyLocks(id, d.locks)
	return s.snapshot(d.list, d.locks), nil
}

// Unpin releases an item lock. Category-lock state for the same id is
// deliberately untouched.
func (s *Service) Unpin(ctx context.Context, id uuid.UUID, slot question.SlotID) (Snapshot, error) {
	unlock := s.lockSession(id)
	defer unlock()

	d, err := s.load(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	d.locks.Unpin(ctx, slot)
	s.notifyLocks(id, d.locks)
	return s.snapshot(d.list, d.locks), nil
}

// LockCategory freezes which category a distractor draws from.
func (s *Service) LockCategory(ctx context.Context, id uuid.UUID, slot question.SlotID) (Snapshot, error) {
	unlock := s.lockSession(id)
	defer unlock()

	d, err := s.load(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	i, ok := d.index[slot]
	if !ok {
		return Snapshot{}, ErrUnknownEntry
	}
	if !d.list[i].IsFake() {
		return Snapshot{}, ErrNotDistractor
	}
	d.locks.LockCategory(ctx, slot)
	s.notifyLocks(id, d.locks)
	return s.snapshot(d.list, d.locks), nil
}

// UnlockCategory releases a distractor's category.
func (s *Service) UnlockCategory(ctx context.Context, id uuid.UUID, slot question.SlotID) (Snapshot, error) {
	unlock := s.lockSession(id)
	defer unlock()

	d, err := s.load(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	d.locks.UnlockCategory(ctx, slot)
	s.notifyLocks(id, d.locks)
	return s.snapshot(d.list, d.locks), nil
}

// ClearLocks drops every lock in the session.
func (s *Service) ClearLocks(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	unlock := s.lockSession(id)
	defer unlock()

	d, err := s.load(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	d.locks.ClearAll(ctx)
	s.notifyLocks(id, d.locks)
	return s.snapshot(d.list, d.locks), nil
}

// Refresh re-reads persisted lock state on demand. Collaborators call this
// when the user navigates back to a view that does not observe the store.
func (s *Service) Refresh(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	unlock := s.lockSession(id)
	defer unlock()

	d, err := s.load(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	s.notifyLocks(id, d.locks)
	return s.snapshot(d.list, d.locks), nil
}

// BeginEdit marks an entry as mid-edit. Locked entries refuse: an item must
// not be simultaneously being edited and locked, and for a distractor a
// category lock alone already disables the answer edit.
func (s *Service) BeginEdit(ctx context.Context, id uuid.UUID, slot question.SlotID) error {
	unlock := s.lockSession(id)
	defer unlock()

	d, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	i, ok := d.index[slot]
	if !ok {
		return ErrUnknownEntry
	}
	if d.locks.IsPinned(slot) {
		return ErrEntryLocked
	}
	if d.list[i].IsFake() && d.locks.IsCategoryLocked(slot) {
		return ErrEntryLocked
	}
	d.editing[slot] = true
	s.storeEditing(ctx, d)
	return nil
}

// EndEdit clears a mid-edit mark.
func (s *Service) EndEdit(ctx context.Context, id uuid.UUID, slot question.SlotID) error {
	unlock := s.lockSession(id)
	defer unlock()

	d, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	delete(d.editing, slot)
	s.storeEditing(ctx, d)
	return nil
}

// KeepOne resolves a duplicate group around the surviving index.
func (s *Service) KeepOne(ctx context.Context, id uuid.UUID, groupID string, survivorIndex int) (Snapshot, error) {
	unlock := s.lockSession(id)
	defer unlock()

	d, err := s.load(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}

	engine := NewEngine(d.pool, s.opts.Rand(), s.logger)
	next, err := engine.ResolveKeepOne(ctx, d.list, d.locks, d.editing, groupID, survivorIndex)
	if err != nil {
		return Snapshot{}, err
	}
	if err := s.saveList(ctx, d, next); err != nil {
		return Snapshot{}, err
	}
	s.notify(id, ws.TypeDuplicatesChanged, ws.DuplicatesChangedPayload{ActiveGroups: len(ActiveGroups(next))})
	return s.snapshot(next, d.locks), nil
}

// IgnoreGroup dismisses a duplicate group without changing content.
func (s *Service) IgnoreGroup(ctx context.Context, id uuid.UUID, groupID string) (Snapshot, error) {
	unlock := s.lockSession(id)
	defer unlock()

	d, err := s.load(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	next := ResolveIgnore(d.list, groupID)
	if err := s.saveList(ctx, d, next); err != nil {
		return Snapshot{}, err
	}
	s.notify(id, ws.TypeDuplicatesChanged, ws.DuplicatesChangedPayload{ActiveGroups: len(ActiveGroups(next))})
	return s.snapshot(next, d.locks), nil
}

// Finalize hands the working list to the export collaborator. Whether locks
// are cleared here is the configured export-boundary policy, not engine
// behavior.
func (s *Service) Finalize(ctx context.Context, id uuid.UUID) ([]question.Question, error) {
	unlock := s.lockSession(id)
	defer unlock()

	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.opts.ClearLocksOnExport {
		d.locks.ClearAll(ctx)
		s.notifyLocks(id, d.locks)
	}
	return d.list, nil
}

type sessionData struct {
	id      uuid.UUID
	pool    []question.Question
	list    []question.Question
	index   map[question.SlotID]int
	locks   *LockStore
	editing map[question.SlotID]bool
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*sessionData, error) {
	list, err := s.state.Questions(ctx, id)
	if err != nil {
		s.forgetIfGone(id, err)
		return nil, err
	}
	pool, err := s.state.Pool(ctx, id)
	if err != nil {
		s.forgetIfGone(id, err)
		return nil, err
	}

	locks := NewLockStore(id, s.state, s.logger)
	if err := locks.Hydrate(ctx); err != nil {
		return nil, fmt.Errorf("hydrate locks: %w", err)
	}

	editingIDs, err := s.state.Editing(ctx, id)
	if err != nil {
		return nil, err
	}
	editing := make(map[question.SlotID]bool, len(editingIDs))
	for _, e := range editingIDs {
		editing[e] = true
	}

	index := make(map[question.SlotID]int, len(list))
	for i, sid := range question.SlotIDs(list) {
		index[sid] = i
	}

	return &sessionData{id: id, pool: pool, list: list, index: index, locks: locks, editing: editing}, nil
}

// forgetIfGone drops the per-session mutex once the backing state has
// expired, so dead sessions do not accrete serialization state for the
// lifetime of the process.
func (s *Service) forgetIfGone(id uuid.UUID, err error) {
	if !errors.Is(err, ErrSessionNotFound) {
		return
	}
	s.mu.Lock()
	delete(s.perSess, id)
	s.mu.Unlock()
}

// saveList persists a mutated working list, prunes edit marks whose entries
// were replaced, and re-checks identifier uniqueness.
func (s *Service) saveList(ctx context.Context, d *sessionData, next []question.Question) error {
	if err := s.state.StoreQuestions(ctx, d.id, next); err != nil {
		return fmt.Errorf("store questions: %w", err)
	}
	d.list = next

	present := make(map[question.SlotID]struct{}, len(next))
	for _, sid := range question.SlotIDs(next) {
		present[sid] = struct{}{}
	}
	pruned := false
	for sid := range d.editing {
		if _, ok := present[sid]; !ok {
			delete(d.editing, sid)
			pruned = true
		}
	}
	if pruned {
		s.storeEditing(ctx, d)
	}

	s.detectCollisions(d.id, next)
	return nil
}

func (s *Service) storeEditing(ctx context.Context, d *sessionData) {
	ids := make([]question.SlotID, 0, len(d.editing))
	for sid := range d.editing {
		ids = append(ids, sid)
	}
	// Same contract as lock persistence: a failed write is non-fatal.
	if err := s.state.StoreEditing(ctx, d.id, ids); err != nil {
		s.logger.Warn().Err(err).Str("session_id", d.id.String()).Msg("persist edit marks failed")
	}
}

// detectCollisions flags distinct entries deriving the same identifier.
// Detected, surfaced, never auto-corrected: renaming would make lock state
// unpredictable.
func (s *Service) detectCollisions(id uuid.UUID, list []question.Question) {
	seen := make(map[question.SlotID]int, len(list))
	for i, sid := range question.SlotIDs(list) {
		if j, dup := seen[sid]; dup {
			metrics.CollisionsDetected.Inc()
			s.logger.Warn().Str("session_id", id.String()).
				Int("first", j).Int("second", i).
				Msg("identifier collision in working list")
			s.notify(id, ws.TypeWarning, ws.WarningPayload{
				Code:    "identifier_collision",
				Message: fmt.Sprintf("entries %d and %d derived the same identifier", j, i),
			})
			continue
		}
		seen[sid] = i
	}
}

func (s *Service) snapshot(list []question.Question, locks *LockStore) Snapshot {
	return Snapshot{
		Questions:     list,
		ItemLocks:     locks.ItemLockCount(),
		CategoryLocks: locks.CategoryLockCount(),
		Groups:        ActiveGroups(list),
	}
}

func (s *Service) notifyLocks(id uuid.UUID, locks *LockStore) {
	s.notify(id, ws.TypeLocksChanged, ws.LocksChangedPayload{
		ItemLocks:     locks.ItemLockCount(),
		CategoryLocks: locks.CategoryLockCount(),
	})
}

func (s *Service) notify(id uuid.UUID, msgType string, payload any) {
	if s.hub == nil {
		return
	}
	msg, err := ws.NewMessage(msgType, payload)
	if err != nil {
		s.logger.Warn().Err(err).Str("type", msgType).Msg("build push message failed")
		return
	}
	s.hub.Broadcast(id, msg)
}
