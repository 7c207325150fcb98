package paper

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/juliaizbroke/SeniorProject1-sub000/internal/question"
)

// memoryState is an in-memory SessionState for tests, mirroring what the
// Redis store persists.
type memoryState struct {
	pools     map[uuid.UUID][]question.Question
	questions map[uuid.UUID][]question.Question
	editing   map[uuid.UUID][]question.SlotID
	locks     map[string][]question.SlotID

	failLockWrites bool
}

func newMemoryState() *memoryState {
	return &memoryState{
		pools:     map[uuid.UUID][]question.Question{},
		questions: map[uuid.UUID][]question.Question{},
		editing:   map[uuid.UUID][]question.SlotID{},
		locks:     map[string][]question.SlotID{},
	}
}

func (m *memoryState) StorePool(_ context.Context, id uuid.UUID, pool []question.Question) error {
	m.pools[id] = pool
	return nil
}

func (m *memoryState) Pool(_ context.Context, id uuid.UUID) ([]question.Question, error) {
	pool, ok := m.pools[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return pool, nil
}

func (m *memoryState) StoreQuestions(_ context.Context, id uuid.UUID, list []question.Question) error {
	m.questions[id] = list
	return nil
}

func (m *memoryState) Questions(_ context.Context, id uuid.UUID) ([]question.Question, error) {
	list, ok := m.questions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return list, nil
}

func (m *memoryState) StoreEditing(_ context.Context, id uuid.UUID, ids []question.SlotID) error {
	m.editing[id] = ids
	return nil
}

func (m *memoryState) Editing(_ context.Context, id uuid.UUID) ([]question.SlotID, error) {
	return m.editing[id], nil
}

func (m *memoryState) StoreLocks(_ context.Context, id uuid.UUID, field string, ids []question.SlotID) error {
	if m.failLockWrites {
		return errors.New("store unavailable")
	}
	m.locks[lockKey(id, field)] = ids
	return nil
}

func (m *memoryState) Locks(_ context.Context, id uuid.UUID, field string) ([]question.SlotID, error) {
	return m.locks[lockKey(id, field)], nil
}

func lockKey(id uuid.UUID, field string) string {
	return id.String() + ":" + field
}

var _ SessionState = (*memoryState)(nil)

// pickRand always takes a fixed branch: Intn returns v (mod n) and Shuffle
// is the identity permutation. Keeps draws predictable in tests.
type pickRand struct {
	v int
}

func (r *pickRand) Intn(n int) int {
	return r.v % n
}

func (r *pickRand) Shuffle(int, func(i, j int)) {}

// reverseRand flips the slice, guaranteeing a visible permutation.
type reverseRand struct{}

func (reverseRand) Intn(n int) int { return 0 }

func (reverseRand) Shuffle(n int, swap func(i, j int)) {
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		swap(i, j)
	}
}

func mcq(prompt, answer, category string) question.Question {
	return question.Question{
		Kind:     question.KindMCQ,
		Prompt:   prompt,
		Answer:   answer,
		Category: category,
		Options:  []string{"opt1", "opt2", "opt3", "opt4"},
	}
}

func fakeAnswer(answer, sourceCategory string) question.Question {
	return question.Question{
		Kind:     question.KindFake,
		Answer:   answer,
		Category: question.FakeCategory(sourceCategory),
	}
}

// categoryPool builds n distinct MCQs in one category with answers "a", "b", ...
func categoryPool(category string, n int) []question.Question {
	pool := make([]question.Question, n)
	for i := range pool {
		ans := string(rune('a' + i))
		pool[i] = mcq(fmt.Sprintf("%s question %d", category, i), ans, category)
	}
	return pool
}

func testLocks(state SessionState) *LockStore {
	return NewLockStore(uuid.New(), state, zerolog.Nop())
}

func answersOf(list []question.Question) []string {
	out := make([]string, len(list))
	for i, q := range list {
		out[i] = question.NormalizeAnswer(q.Answer)
	}
	return out
}

// noAnswerCollisions checks the global property that no two records, real
// or fake, share a normalized answer.
func noAnswerCollisions(list []question.Question) bool {
	seen := map[string]bool{}
	for _, q := range list {
		ans := question.NormalizeAnswer(q.Answer)
		if ans == "" {
			continue
		}
		if seen[ans] {
			return false
		}
		seen[ans] = true
	}
	return true
}
