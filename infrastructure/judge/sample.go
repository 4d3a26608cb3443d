package judge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/ahrav/interview-gavel/internal/ports"
	"github.com/ahrav/interview-gavel/internal/scoring"
)

// Default request parameters for the remote sample-answer call.
const (
	DefaultSampleTemperature = 0.5
	DefaultSampleMaxTokens   = 500
	DefaultSampleTimeout     = 20 * time.Second

	// DefaultSampleCacheTTL bounds how long a generated sample answer is
	// reused for the same question.
	DefaultSampleCacheTTL = 24 * time.Hour
)

// DefaultSampleSystemPrompt asks for a concise model answer.
const DefaultSampleSystemPrompt = "You are an expert technical interviewer. Provide a clear, well-structured sample answer " +
	"to the interview question. Focus on being concise but comprehensive."

// DefaultSampleUserPrompt is the user message template. It receives
// .Question.
const DefaultSampleUserPrompt = "Question: {{.Question}}\n\nProvide a well-structured sample answer that demonstrates " +
	"best practices for answering this type of interview question."

// SampleConfig holds the request parameters of a RemoteSampler.
type SampleConfig struct {
	SystemPrompt string        `yaml:"system_prompt" json:"system_prompt" validate:"required,min=20"`
	UserPrompt   string        `yaml:"user_prompt" json:"user_prompt" validate:"required,min=20"`
	Temperature  float64       `yaml:"temperature" json:"temperature" validate:"min=0,max=2"`
	MaxTokens    int           `yaml:"max_tokens" json:"max_tokens" validate:"min=50,max=4000"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout" validate:"gt=0"`
}

// DefaultSampleConfig returns the production sample-answer parameters.
func DefaultSampleConfig() SampleConfig {
	return SampleConfig{
		SystemPrompt: DefaultSampleSystemPrompt,
		UserPrompt:   DefaultSampleUserPrompt,
		Temperature:  DefaultSampleTemperature,
		MaxTokens:    DefaultSampleMaxTokens,
		Timeout:      DefaultSampleTimeout,
	}
}

// RemoteSampler asks the model for a sample answer. An empty reply is an
// error so that callers fall back to a canned snippet.
type RemoteSampler struct {
	client ports.LLMClient
	config SampleConfig
	prompt *template.Template
}

var _ ports.SampleAnswerer = (*RemoteSampler)(nil)

// NewRemoteSampler validates config and compiles the prompt template.
func NewRemoteSampler(client ports.LLMClient, config SampleConfig) (*RemoteSampler, error) {
	if client == nil {
		return nil, fmt.Errorf("LLM client cannot be nil")
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid sample configuration: %w", err)
	}
	tmpl, err := template.New("samplePrompt").Parse(config.UserPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sample prompt template: %w", err)
	}
	return &RemoteSampler{client: client, config: config, prompt: tmpl}, nil
}

// SuggestAnswer requests a sample answer for question.
func (s *RemoteSampler) SuggestAnswer(ctx context.Context, question string) (string, error) {
	prompt, err := renderPrompt(s.prompt, question, "")
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	out, err := s.client.Complete(ctx, prompt, map[string]any{
		"system":      s.config.SystemPrompt,
		"temperature": s.config.Temperature,
		"max_tokens":  s.config.MaxTokens,
	})
	if err != nil {
		return "", ports.NewLLMError(s.client.GetModel(), "SuggestAnswer", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ports.NewLLMError(s.client.GetModel(), "SuggestAnswer", ports.ErrInvalidResponse)
	}
	return out, nil
}

// CannedSampler returns topic-matched snippets from the scoring tables.
type CannedSampler struct {
	sampler *scoring.Sampler
}

var _ ports.SampleAnswerer = (*CannedSampler)(nil)

// NewCannedSampler builds a CannedSampler. Nil tables select the built-in
// snippets.
func NewCannedSampler(tables *scoring.Tables) *CannedSampler {
	return &CannedSampler{sampler: scoring.NewSampler(tables)}
}

// SuggestAnswer never fails.
func (s *CannedSampler) SuggestAnswer(_ context.Context, question string) (string, error) {
	return s.sampler.SampleAnswer(question), nil
}

// FallbackSampler tries Primary and answers with Secondary on any error.
type FallbackSampler struct {
	Primary   ports.SampleAnswerer
	Secondary *CannedSampler
	Logger    *slog.Logger
}

var _ ports.SampleAnswerer = (*FallbackSampler)(nil)

// NewFallbackSampler composes primary with canned snippets. A nil primary
// always uses the snippets.
func NewFallbackSampler(primary ports.SampleAnswerer, secondary *CannedSampler, logger *slog.Logger) *FallbackSampler {
	if secondary == nil {
		secondary = NewCannedSampler(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackSampler{Primary: primary, Secondary: secondary, Logger: logger}
}

// SuggestAnswer always resolves; the returned error is always nil.
func (s *FallbackSampler) SuggestAnswer(ctx context.Context, question string) (string, error) {
	if s.Primary != nil {
		out, err := s.Primary.SuggestAnswer(ctx, question)
		if err == nil {
			return out, nil
		}
		s.Logger.WarnContext(ctx, "sample answer generation failed, using canned answer", slog.Any("error", err))
	}
	return s.Secondary.SuggestAnswer(ctx, question)
}

// CachedSampler memoizes a sampler's answers per normalized question.
// Cache failures are logged and never fail the request; errors from the
// wrapped sampler are not cached.
type CachedSampler struct {
	next   ports.SampleAnswerer
	cache  ports.CacheStore
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.SampleAnswerer = (*CachedSampler)(nil)

// NewCachedSampler wraps next with cache. A non-positive ttl selects
// DefaultSampleCacheTTL.
func NewCachedSampler(next ports.SampleAnswerer, cache ports.CacheStore, ttl time.Duration, logger *slog.Logger) *CachedSampler {
	if ttl <= 0 {
		ttl = DefaultSampleCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSampler{next: next, cache: cache, ttl: ttl, logger: logger}
}

// SuggestAnswer returns the cached answer or asks the wrapped sampler.
func (s *CachedSampler) SuggestAnswer(ctx context.Context, question string) (string, error) {
	key := SampleCacheKey(question)

	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "sample cache read failed", slog.String("key", key), slog.Any("error", err))
	} else if ok {
		return string(cached), nil
	}

	out, err := s.next.SuggestAnswer(ctx, question)
	if err != nil {
		return "", err
	}

	if err := s.cache.Set(ctx, key, []byte(out), s.ttl); err != nil {
		s.logger.WarnContext(ctx, "sample cache write failed", slog.String("key", key), slog.Any("error", err))
	}
	return out, nil
}

// SampleCacheKey derives the cache key for question. Case and whitespace
// differences map to the same key.
func SampleCacheKey(question string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return "sample:" + hex.EncodeToString(sum[:])
}
