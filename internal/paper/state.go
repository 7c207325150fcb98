package paper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/juliaizbroke/SeniorProject1-sub000/internal/question"
)

// ErrSessionNotFound is returned when no state exists for a session id.
var ErrSessionNotFound = errors.New("session not found")

// Fixed field names for the persisted lock arrays. Restoring a session reads
// exactly these back, so they must never change.
const (
	FieldLockedQuestions  = "lockedQuestions"
	FieldLockedCategories = "lockedCategories"
)

// SessionState persists per-session editing state: the immutable pool, the
// working list, mid-edit marks, and the two lock arrays.
type SessionState interface {
	StorePool(ctx context.Context, id uuid.UUID, pool []question.Question) error
	Pool(ctx context.Context, id uuid.UUID) ([]question.Question, error)

	StoreQuestions(ctx context.Context, id uuid.UUID, list []question.Question) error
	Questions(ctx context.Context, id uuid.UUID) ([]question.Question, error)

	StoreEditing(ctx context.Context, id uuid.UUID, ids []question.SlotID) error
	Editing(ctx context.Context, id uuid.UUID) ([]question.SlotID, error)

	StoreLocks(ctx context.Context, id uuid.UUID, field string, ids []question.SlotID) error
	Locks(ctx context.Context, id uuid.UUID, field string) ([]question.SlotID, error)
}

// RedisState keeps session state in Redis as JSON blobs with a shared TTL,
// so question content never outlives the editing session.
type RedisState struct {
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

const defaultSessionTTL = 6 * time.Hour

// NewRedisState creates the Redis-backed session store.
func NewRedisState(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisState {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &RedisState{redis: client, ttl: ttl, logger: logger}
}

var _ SessionState = (*RedisState)(nil)

func sessionKey(id uuid.UUID, field string) string {
	return fmt.Sprintf("paper:session:%s:%s", id.String(), field)
}

func (s *RedisState) set(ctx context.Context, id uuid.UUID, field string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", field, err)
	}
	if err := s.redis.Set(ctx, sessionKey(id, field), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store %s: %w", field, err)
	}
	return nil
}

func (s *RedisState) get(ctx context.Context, id uuid.UUID, field string, v any) error {
	data, err := s.redis.Get(ctx, sessionKey(id, field)).Bytes()
	if err == redis.Nil {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", field, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", field, err)
	}
	return nil
}

func (s *RedisState) StorePool(ctx context.Context, id uuid.UUID, pool []question.Question) error {
	return s.set(ctx, id, "pool", pool)
}

func (s *RedisState) Pool(ctx context.Context, id uuid.UUID) ([]question.Question, error) {
	var pool []question.Question
	if err := s.get(ctx, id, "pool", &pool); err != nil {
		return nil, err
	}
	return pool, nil
}

func (s *RedisState) StoreQuestions(ctx context.Context, id uuid.UUID, list []question.Question) error {
	return s.set(ctx, id, "questions", list)
}

func (s *RedisState) Questions(ctx context.Context, id uuid.UUID) ([]question.Question, error) {
	var list []question.Question
	if err := s.get(ctx, id, "questions", &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *RedisState) StoreEditing(ctx context.Context, id uuid.UUID, ids []question.SlotID) error {
	if ids == nil {
		ids = []question.SlotID{}
	}
	return s.set(ctx, id, "editing", ids)
}

func (s *RedisState) Editing(ctx context.Context, id uuid.UUID) ([]question.SlotID, error) {
	var ids []question.SlotID
	err := s.get(ctx, id, "editing", &ids)
	if err == ErrSessionNotFound {
		// Edit marks are optional state; a session without them is valid.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// StoreLocks writes one lock array as a JSON array of identifiers under its
// fixed field name.
func (s *RedisState) StoreLocks(ctx context.Context, id uuid.UUID, field string, ids []question.SlotID) error {
	if ids == nil {
		ids = []question.SlotID{}
	}
	return s.set(ctx, id, field, ids)
}

// Locks reads one lock array back; a session that never locked anything
// yields an empty set.
func (s *RedisState) Locks(ctx context.Context, id uuid.UUID, field string) ([]question.SlotID, error) {
	var ids []question.SlotID
	err := s.get(ctx, id, field, &ids)
	if err == ErrSessionNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ids, nil
}
