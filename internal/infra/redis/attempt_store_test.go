package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizhub/internal/domain"
)

func TestAttemptStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewAttemptStore(newClient(mr), time.Hour)
	ctx := context.Background()

	state := domain.AttemptState{
		QuizID:     4,
		UserID:     2,
		Index:      2,
		Reached:    2,
		Score:      1,
		Selections: map[int][]int64{0: {10}, 1: {20, 21}},
		Awarded:    map[int]int{0: 1, 1: 0},
		StartedAt:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(ctx, state))
	assert.True(t, mr.Exists("attempt:4:2"))
	assert.Equal(t, time.Hour, mr.TTL("attempt:4:2"))

	got, err := store.Get(ctx, state.Key())
	require.NoError(t, err)
	assert.Equal(t, state.Selections, got.Selections)
	assert.Equal(t, state.Awarded, got.Awarded)
	assert.Equal(t, 2, got.Index)
	assert.True(t, state.StartedAt.Equal(got.StartedAt))
}

func TestAttemptStoreMissing(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewAttemptStore(newClient(mr), time.Hour)
	key := domain.AttemptKey{QuizID: 1, UserID: 1}

	_, err := store.Get(context.Background(), key)
	assert.ErrorIs(t, err, domain.ErrAttemptNotFound)
	assert.ErrorIs(t, store.Delete(context.Background(), key), domain.ErrAttemptNotFound)
}

func TestAttemptStoreExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewAttemptStore(newClient(mr), time.Minute)
	state := domain.AttemptState{QuizID: 1, UserID: 1}
	require.NoError(t, store.Save(context.Background(), state))

	mr.FastForward(time.Minute + time.Second)
	_, err := store.Get(context.Background(), state.Key())
	assert.ErrorIs(t, err, domain.ErrAttemptNotFound)
}
