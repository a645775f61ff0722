package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quizhub/internal/domain"
)

// AttemptStore keeps in-progress attempt state in Redis, one JSON value per
// (quiz, user). Entries expire after ttl of inactivity so abandoned attempts
// do not accumulate.
type AttemptStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{client: client, ttl: ttl}
}

func (s *AttemptStore) Get(ctx context.Context, key domain.AttemptKey) (domain.AttemptState, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.AttemptState{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.AttemptState{}, fmt.Errorf("get attempt state: %w", err)
	}
	var state domain.AttemptState
	if err := json.Unmarshal(raw, &state); err != nil {
		return domain.AttemptState{}, fmt.Errorf("unmarshal attempt state: %w", err)
	}
	return state, nil
}

func (s *AttemptStore) Save(ctx context.Context, state domain.AttemptState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal attempt state: %w", err)
	}
	if err := s.client.Set(ctx, s.key(state.Key()), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save attempt state: %w", err)
	}
	return nil
}

func (s *AttemptStore) Delete(ctx context.Context, key domain.AttemptKey) error {
	n, err := s.client.Del(ctx, s.key(key)).Result()
	if err != nil {
		return fmt.Errorf("delete attempt state: %w", err)
	}
	if n == 0 {
		return domain.ErrAttemptNotFound
	}
	return nil
}

func (s *AttemptStore) key(key domain.AttemptKey) string {
	return fmt.Sprintf("attempt:%d:%d", key.QuizID, key.UserID)
}
