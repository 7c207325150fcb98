package paper

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/juliaizbroke/SeniorProject1-sub000/internal/question"
)

func newTestService(state SessionState, opts ServiceOptions) *Service {
	if opts.Rand == nil {
		opts.Rand = func() question.Rand { return &pickRand{} }
	}
	return NewService(state, nil, opts, zerolog.Nop())
}

func TestCreateSessionSeedsWorkingListByQuota(t *testing.T) {
	ctx := context.Background()
	state := newMemoryState()
	svc := newTestService(state, ServiceOptions{})
	pool := categoryPool("Algebra", 5)

	id, snap, err := svc.CreateSession(ctx, pool, question.QuotaSettings{"Algebra": 3})
	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, pool[:3], snap.Questions)
	assert.Equal(t, 0, snap.ItemLocks)

	stored, err := state.Questions(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, pool[:3], stored)
}

func TestCreateSessionRejectsEmptyPool(t *testing.T) {
	svc := newTestService(newMemoryState(), ServiceOptions{})
	_, _, err := svc.CreateSession(context.Background(), nil, question.QuotaSettings{"Algebra": 3})
	assert.ErrorIs(t, err, ErrEmptyPool)
}

func TestSessionNotFound(t *testing.T) {
	svc := newTestService(newMemoryState(), ServiceOptions{})
	_, err := svc.Session(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestShuffleDisabledRefusesWithoutMutation(t *testing.T) {
	ctx := context.Background()
	state := newMemoryState()
	svc := newTestService(state, ServiceOptions{})
	pool := categoryPool("Algebra", 1)

	id, before, err := svc.CreateSession(ctx, pool, question.QuotaSettings{"Algebra": 1})
	assert.NoError(t, err)

	mode, snap, err := svc.Shuffle(ctx, id)
	assert.ErrorIs(t, err, ErrShuffleDisabled)
	assert.Equal(t, ModeDisabled, mode)
	assert.Equal(t, before.Questions, snap.Questions)

	stored, err := state.Questions(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, before.Questions, stored, "a refused shuffle must not touch stored state")
}

func TestShuffleKeepsPinnedAndPersists(t *testing.T) {
	ctx := context.Background()
	state := newMemoryState()
	svc := newTestService(state, ServiceOptions{})
	pool := categoryPool("Algebra", 5)

	id, snap, err := svc.CreateSession(ctx, pool, question.QuotaSettings{"Algebra": 2})
	assert.NoError(t, err)

	pinned := question.SlotIDOf(snap.Questions[0], 0)
	_, err = svc.Pin(ctx, id, pinned)
	assert.NoError(t, err)

	mode, next, err := svc.Shuffle(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, ModeReplace, mode)
	assert.Equal(t, snap.Questions[0], next.Questions[0])
	assert.NotEqual(t, snap.Questions[1], next.Questions[1])
	assert.True(t, noAnswerCollisions(next.Questions))

	stored, err := state.Questions(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, next.Questions, stored)
}

func TestPinUnknownEntry(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryState(), ServiceOptions{})
	id, _, err := svc.CreateSession(ctx, categoryPool("Algebra", 2), question.QuotaSettings{"Algebra": 1})
	assert.NoError(t, err)

	_, err = svc.Pin(ctx, id, question.SlotID("bogus"))
	assert.ErrorIs(t, err, ErrUnknownEntry)
}

func TestPinCancelsEditMark(t *testing.T) {
	ctx := context.Background()
	state := newMemoryState()
	svc := newTestService(state, ServiceOptions{})
	id, snap, err := svc.CreateSession(ctx, categoryPool("Algebra", 3), question.QuotaSettings{"Algebra": 2})
	assert.NoError(t, err)

	slot := question.SlotIDOf(snap.Questions[1], 1)
	assert.NoError(t, svc.BeginEdit(ctx, id, slot))

	_, err = svc.Pin(ctx, id, slot)
	assert.NoError(t, err)

	marks, err := state.Editing(ctx, id)
	assert.NoError(t, err)
	assert.Empty(t, marks, "pinning must cancel the edit mark")

	assert.ErrorIs(t, svc.BeginEdit(ctx, id, slot), ErrEntryLocked)
}

func TestCategoryLockOnRealQuestionRefused(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryState(), ServiceOptions{})
	id, snap, err := svc.CreateSession(ctx, categoryPool("Algebra", 2), question.QuotaSettings{"Algebra": 1})
	assert.NoError(t, err)

	_, err = svc.LockCategory(ctx, id, question.SlotIDOf(snap.Questions[0], 0))
	assert.ErrorIs(t, err, ErrNotDistractor)
}

func TestCategoryLockedFakeRefusesEdit(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryState(), ServiceOptions{})
	pool := append(categoryPool("Algebra", 2), fakeAnswer("z", "Algebra"))
	settings := question.QuotaSettings{
		"Algebra":                        1,
		question.FakeCategory("Algebra"): 1,
	}

	id, snap, err := svc.CreateSession(ctx, pool, settings)
	assert.NoError(t, err)
	assert.Len(t, snap.Questions, 2)
	assert.True(t, snap.Questions[1].IsFake())

	fakeSlot := question.SlotIDOf(snap.Questions[1], 1)
	locked, err := svc.LockCategory(ctx, id, fakeSlot)
	assert.NoError(t, err)
	assert.Equal(t, 1, locked.CategoryLocks)

	assert.ErrorIs(t, svc.BeginEdit(ctx, id, fakeSlot), ErrEntryLocked)

	// Releasing the category lock opens the answer for editing again.
	_, err = svc.UnlockCategory(ctx, id, fakeSlot)
	assert.NoError(t, err)
	assert.NoError(t, svc.BeginEdit(ctx, id, fakeSlot))
}

func TestClearLocksDropsEverything(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryState(), ServiceOptions{})
	id, snap, err := svc.CreateSession(ctx, categoryPool("Algebra", 3), question.QuotaSettings{"Algebra": 2})
	assert.NoError(t, err)

	_, err = svc.Pin(ctx, id, question.SlotIDOf(snap.Questions[0], 0))
	assert.NoError(t, err)

	cleared, err := svc.ClearLocks(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, 0, cleared.ItemLocks)
	assert.Equal(t, 0, cleared.CategoryLocks)
}

func TestRefreshRehydratesPersistedLocks(t *testing.T) {
	ctx := context.Background()
	state := newMemoryState()
	svc := newTestService(state, ServiceOptions{})
	id, snap, err := svc.CreateSession(ctx, categoryPool("Algebra", 3), question.QuotaSettings{"Algebra": 2})
	assert.NoError(t, err)

	_, err = svc.Pin(ctx, id, question.SlotIDOf(snap.Questions[0], 0))
	assert.NoError(t, err)

	// A second service instance over the same store sees the lock.
	other := newTestService(state, ServiceOptions{})
	refreshed, err := other.Refresh(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, 1, refreshed.ItemLocks)
}

func TestKeepOneThroughService(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryState(), ServiceOptions{})

	pool := categoryPool("Algebra", 6)
	pool[0] = tagged(pool[0], "g1", true, 0.9)
	pool[1] = tagged(pool[1], "g1", false, 0.9)

	id, snap, err := svc.CreateSession(ctx, pool, question.QuotaSettings{"Algebra": 3})
	assert.NoError(t, err)
	assert.Len(t, snap.Groups, 1)

	resolved, err := svc.KeepOne(ctx, id, "g1", 0)
	assert.NoError(t, err)
	assert.Empty(t, resolved.Groups, "resolution dissolves the group")
	assert.Equal(t, pool[0].Prompt, resolved.Questions[0].Prompt)
	assert.NotEqual(t, pool[1].Prompt, resolved.Questions[1].Prompt)
	assert.Len(t, resolved.Questions, 3)
}

func TestIgnoreGroupThroughService(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryState(), ServiceOptions{})

	pool := categoryPool("Algebra", 4)
	pool[0] = tagged(pool[0], "g1", true, 0.9)
	pool[1] = tagged(pool[1], "g1", false, 0.9)

	id, snap, err := svc.CreateSession(ctx, pool, question.QuotaSettings{"Algebra": 2})
	assert.NoError(t, err)
	assert.Len(t, snap.Groups, 1)

	dismissed, err := svc.IgnoreGroup(ctx, id, "g1")
	assert.NoError(t, err)
	assert.Empty(t, dismissed.Groups)
	assert.Equal(t, pool[0].Prompt, dismissed.Questions[0].Prompt)
	assert.Equal(t, pool[1].Prompt, dismissed.Questions[1].Prompt)
}

func TestFinalizeKeepsLocksByDefault(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryState(), ServiceOptions{})
	id, snap, err := svc.CreateSession(ctx, categoryPool("Algebra", 3), question.QuotaSettings{"Algebra": 2})
	assert.NoError(t, err)

	_, err = svc.Pin(ctx, id, question.SlotIDOf(snap.Questions[0], 0))
	assert.NoError(t, err)

	list, err := svc.Finalize(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, snap.Questions, list)

	after, err := svc.Session(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, 1, after.ItemLocks, "locks survive export unless configured otherwise")
}

func TestFinalizeClearsLocksWhenConfigured(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryState(), ServiceOptions{ClearLocksOnExport: true})
	id, snap, err := svc.CreateSession(ctx, categoryPool("Algebra", 3), question.QuotaSettings{"Algebra": 2})
	assert.NoError(t, err)

	_, err = svc.Pin(ctx, id, question.SlotIDOf(snap.Questions[0], 0))
	assert.NoError(t, err)

	_, err = svc.Finalize(ctx, id)
	assert.NoError(t, err)

	after, err := svc.Session(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, 0, after.ItemLocks)
}

func TestMissingSessionLeavesNoSerializationState(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryState(), ServiceOptions{})

	_, err := svc.Session(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, _, err = svc.Shuffle(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Expired or unknown sessions must not accrete one mutex each for the
	// lifetime of the process.
	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Empty(t, svc.perSess)
}

func TestEndEditClearsMark(t *testing.T) {
	ctx := context.Background()
	state := newMemoryState()
	svc := newTestService(state, ServiceOptions{})
	id, snap, err := svc.CreateSession(ctx, categoryPool("Algebra", 2), question.QuotaSettings{"Algebra": 1})
	assert.NoError(t, err)

	slot := question.SlotIDOf(snap.Questions[0], 0)
	assert.NoError(t, svc.BeginEdit(ctx, id, slot))
	assert.NoError(t, svc.EndEdit(ctx, id, slot))

	marks, err := state.Editing(ctx, id)
	assert.NoError(t, err)
	assert.Empty(t, marks)
}
