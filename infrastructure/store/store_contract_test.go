package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/interview-gavel/internal/domain"
	"github.com/ahrav/interview-gavel/internal/ports"
)

func newSession(id, user string, created time.Time) domain.InterviewSession {
	return domain.InterviewSession{
		ID:             id,
		UserID:         user,
		Role:           "Software Engineer",
		Difficulty:     "junior",
		TotalQuestions: 5,
		CreatedAt:      created,
	}
}

func newRecord(score int) domain.AnswerRecord {
	return domain.AnswerRecord{
		Question:     "What is a mutex?",
		Answer:       "A lock.",
		Score:        score,
		Feedback:     "ok",
		Topic:        "Concurrency",
		Strengths:    []string{"concise"},
		Improvements: []string{},
		Weight:       1,
		CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// runStoreContract exercises the behavior every InterviewStore must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) ports.InterviewStore) {
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("create and get", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, newSession("i1", "u1", base)))

		got, err := s.Get(ctx, "i1")
		require.NoError(t, err)
		assert.Equal(t, "u1", got.UserID)
		assert.Equal(t, 5, got.TotalQuestions)
		assert.True(t, base.Equal(got.CreatedAt))
		assert.Empty(t, got.Responses)
		assert.False(t, got.Finalized())
	})

	t.Run("unknown interview", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrInterviewNotFound)
		assert.ErrorIs(t, s.AppendResponse(ctx, "missing", newRecord(50)), domain.ErrInterviewNotFound)
		assert.ErrorIs(t, s.SetFinalScore(ctx, "missing", 50, base), domain.ErrInterviewNotFound)
	})

	t.Run("append keeps order", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, newSession("i1", "u1", base)))
		for _, score := range []int{10, 20, 30} {
			require.NoError(t, s.AppendResponse(ctx, "i1", newRecord(score)))
		}

		got, err := s.Get(ctx, "i1")
		require.NoError(t, err)
		require.Len(t, got.Responses, 3)
		assert.Equal(t, []int{10, 20, 30}, []int{got.Responses[0].Score, got.Responses[1].Score, got.Responses[2].Score})
		assert.Equal(t, []string{"concise"}, got.Responses[0].Strengths)
	})

	t.Run("concurrent appends are not lost", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, newSession("i1", "u1", base)))

		const n = 20
		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, s.AppendResponse(ctx, "i1", newRecord(i)))
			}()
		}
		wg.Wait()

		got, err := s.Get(ctx, "i1")
		require.NoError(t, err)
		assert.Len(t, got.Responses, n)
	})

	t.Run("final score", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, newSession("i1", "u1", base)))
		done := base.Add(30 * time.Minute)
		require.NoError(t, s.SetFinalScore(ctx, "i1", 77, done))

		got, err := s.Get(ctx, "i1")
		require.NoError(t, err)
		require.NotNil(t, got.FinalScore)
		assert.Equal(t, 77, *got.FinalScore)
		require.NotNil(t, got.CompletedAt)
		assert.True(t, done.Equal(*got.CompletedAt))
	})

	t.Run("history newest first and scoped to user", func(t *testing.T) {
		s := newStore(t)
		for i := range 3 {
			require.NoError(t, s.Create(ctx, newSession(fmt.Sprintf("i%d", i), "u1", base.Add(time.Duration(i)*time.Hour))))
		}
		require.NoError(t, s.Create(ctx, newSession("other", "u2", base)))

		rows, err := s.ListByUser(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, []string{"i2", "i1", "i0"}, []string{rows[0].ID, rows[1].ID, rows[2].ID})

		rows, err = s.ListByUser(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

// runCacheContract exercises the behavior every CacheStore must share.
func runCacheContract(t *testing.T, c ports.CacheStore) {
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k1", []byte("v1"), time.Hour))
	require.NoError(t, c.Set(ctx, "k2", []byte("v2"), 0))

	v, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v1"), v)

	require.NoError(t, c.Delete(ctx, "k1"))
	_, ok, _ = c.Get(ctx, "k1")
	assert.False(t, ok)
	require.NoError(t, c.Delete(ctx, "k1"), "Deleting a missing key is not an error.")

	require.NoError(t, c.Clear(ctx))
	_, ok, _ = c.Get(ctx, "k2")
	assert.False(t, ok)
}
