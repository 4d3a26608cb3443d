// Package store provides ports.InterviewStore and ports.CacheStore adapters:
// an in-process store for tests and single-run CLIs, Redis, and PostgreSQL.
package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ahrav/interview-gavel/internal/domain"
	"github.com/ahrav/interview-gavel/internal/ports"
)

var (
	_ ports.InterviewStore = (*MemoryStore)(nil)
	_ ports.CacheStore     = (*MemoryCache)(nil)
)

// MemoryStore keeps interviews in a map guarded by a mutex. Values are
// copied on the way in and out so callers never share slices with the
// store.
type MemoryStore struct {
	mu         sync.RWMutex
	interviews map[string]*domain.InterviewSession
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{interviews: make(map[string]*domain.InterviewSession)}
}

func notFound(backend, op, id string) error {
	return ports.NewStoreError(backend, op, fmt.Errorf("%w: %s", domain.ErrInterviewNotFound, id))
}

// Create stores a new interview. An existing ID is overwritten.
func (m *MemoryStore) Create(_ context.Context, session domain.InterviewSession) error {
	s := cloneSession(session)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interviews[s.ID] = &s
	return nil
}

// Get returns a copy of the interview.
func (m *MemoryStore) Get(_ context.Context, id string) (domain.InterviewSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.interviews[id]
	if !ok {
		return domain.InterviewSession{}, notFound("memory", "Get", id)
	}
	return cloneSession(*s), nil
}

// AppendResponse appends record to the interview's responses.
func (m *MemoryStore) AppendResponse(_ context.Context, id string, record domain.AnswerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.interviews[id]
	if !ok {
		return notFound("memory", "AppendResponse", id)
	}
	s.Responses = append(s.Responses, cloneRecord(record))
	return nil
}

// SetFinalScore records the final score and completion time.
func (m *MemoryStore) SetFinalScore(_ context.Context, id string, score int, completedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.interviews[id]
	if !ok {
		return notFound("memory", "SetFinalScore", id)
	}
	s.FinalScore = &score
	s.CompletedAt = &completedAt
	return nil
}

// ListByUser returns the user's interviews, newest first.
func (m *MemoryStore) ListByUser(_ context.Context, userID string) ([]domain.InterviewSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.InterviewSummary, 0)
	for _, s := range m.interviews {
		if s.UserID == userID {
			out = append(out, cloneSession(*s).Summary())
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(rows []domain.InterviewSummary) {
	slices.SortStableFunc(rows, func(a, b domain.InterviewSummary) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func cloneRecord(r domain.AnswerRecord) domain.AnswerRecord {
	r.Strengths = slices.Clone(r.Strengths)
	r.Improvements = slices.Clone(r.Improvements)
	return r
}

func cloneSession(s domain.InterviewSession) domain.InterviewSession {
	if s.Responses != nil {
		rs := make([]domain.AnswerRecord, len(s.Responses))
		for i, r := range s.Responses {
			rs[i] = cloneRecord(r)
		}
		s.Responses = rs
	}
	if s.FinalScore != nil {
		v := *s.FinalScore
		s.FinalScore = &v
	}
	if s.CompletedAt != nil {
		v := *s.CompletedAt
		s.CompletedAt = &v
	}
	return s
}

type cacheEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is an in-process ports.CacheStore with lazy expiry.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]cacheEntry), now: time.Now}
}

// Get returns the value for key if present and not expired.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return slices.Clone(e.value), true, nil
}

// Set stores value under key.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, expiration time.Duration) error {
	e := cacheEntry{value: slices.Clone(value)}
	c.mu.Lock()
	defer c.mu.Unlock()
	if expiration > 0 {
		e.expires = c.now().Add(expiration)
	}
	c.entries[key] = e
	return nil
}

// Delete removes key.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Clear removes every entry.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	return nil
}
