package judge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/interview-gavel/internal/ports"
	"github.com/ahrav/interview-gavel/internal/scoring"
	"github.com/ahrav/interview-gavel/internal/testutils"
)

// mapCache is an in-test ports.CacheStore.
type mapCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	failGet bool
	failSet bool
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, false, errors.New("cache down")
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, exp time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSet {
		return errors.New("cache down")
	}
	c.data[key] = value
	c.ttls[key] = exp
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *mapCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = map[string][]byte{}
	return nil
}

var _ ports.CacheStore = (*mapCache)(nil)

// countingSampler counts calls and returns a fixed reply or error.
type countingSampler struct {
	mu    sync.Mutex
	calls int
	reply string
	err   error
}

func (s *countingSampler) SuggestAnswer(context.Context, string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.reply, s.err
}

// TestRemoteSampler tests request options and reply handling.
func TestRemoteSampler(t *testing.T) {
	client := testutils.NewMockLLMClient("sonar-pro")
	s, err := NewRemoteSampler(client, DefaultSampleConfig())
	require.NoError(t, err)

	out, err := s.SuggestAnswer(context.Background(), "What is a stack?")
	require.NoError(t, err)
	assert.Equal(t, testutils.MockSampleReply, out)

	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "Question: What is a stack?")
	assert.Equal(t, 0.5, calls[0].Options["temperature"])
	assert.Equal(t, 500, calls[0].Options["max_tokens"])
	assert.Equal(t, DefaultSampleSystemPrompt, calls[0].Options["system"])
}

// TestRemoteSampler_EmptyReply verifies a blank reply is an error.
func TestRemoteSampler_EmptyReply(t *testing.T) {
	client := testutils.NewMockLLMClient("sonar-pro")
	client.AddResponse(testutils.MockResponse{Pattern: "sample answer", Response: "  \n "})
	s, err := NewRemoteSampler(client, DefaultSampleConfig())
	require.NoError(t, err)

	_, err = s.SuggestAnswer(context.Background(), "q")
	assert.ErrorIs(t, err, ports.ErrInvalidResponse)
}

// TestCannedSampler verifies snippets come from the scoring tables.
func TestCannedSampler(t *testing.T) {
	s := NewCannedSampler(nil)
	sampler := scoring.NewSampler(nil)

	for _, q := range []string{"How does binary search work?", "Tell me about a conflict at work", "Unrelated"} {
		out, err := s.SuggestAnswer(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, sampler.SampleAnswer(q), out)
	}
}

// TestFallbackSampler tests primary success and failure.
func TestFallbackSampler(t *testing.T) {
	canned := NewCannedSampler(nil)
	q := "How does binary search work?"
	want, _ := canned.SuggestAnswer(context.Background(), q)

	ok := &countingSampler{reply: "remote"}
	out, err := NewFallbackSampler(ok, canned, nil).SuggestAnswer(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, "remote", out)

	bad := &countingSampler{err: errors.New("down")}
	out, err = NewFallbackSampler(bad, canned, nil).SuggestAnswer(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, want, out)

	out, err = NewFallbackSampler(nil, nil, nil).SuggestAnswer(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, want, out)
}

// TestCachedSampler tests hits, misses, and that errors are not cached.
func TestCachedSampler(t *testing.T) {
	cache := newMapCache()
	next := &countingSampler{reply: "model answer"}
	s := NewCachedSampler(next, cache, 0, nil)
	ctx := context.Background()

	out, err := s.SuggestAnswer(ctx, "What is a Stack?")
	require.NoError(t, err)
	assert.Equal(t, "model answer", out)

	out, err = s.SuggestAnswer(ctx, "  what is a   stack? ")
	require.NoError(t, err)
	assert.Equal(t, "model answer", out)
	assert.Equal(t, 1, next.calls, "normalized question hits the cache")
	assert.Equal(t, DefaultSampleCacheTTL, cache.ttls[SampleCacheKey("what is a stack?")])

	failing := &countingSampler{err: errors.New("down")}
	_, err = NewCachedSampler(failing, cache, time.Minute, nil).SuggestAnswer(ctx, "new question")
	require.Error(t, err)
	_, found, _ := cache.Get(ctx, SampleCacheKey("new question"))
	assert.False(t, found)
}

// TestCachedSampler_CacheFailuresAreIgnored verifies a broken cache does
// not fail the request.
func TestCachedSampler_CacheFailuresAreIgnored(t *testing.T) {
	cache := newMapCache()
	cache.failGet, cache.failSet = true, true
	next := &countingSampler{reply: "model answer"}

	out, err := NewCachedSampler(next, cache, time.Hour, nil).SuggestAnswer(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "model answer", out)
}

// TestSampleCacheKey verifies normalization and the key prefix.
func TestSampleCacheKey(t *testing.T) {
	assert.Equal(t, SampleCacheKey("Two  Sum"), SampleCacheKey("two sum"))
	assert.NotEqual(t, SampleCacheKey("two sum"), SampleCacheKey("three sum"))
	assert.Regexp(t, `^sample:[0-9a-f]{64}$`, SampleCacheKey("x"))
}
