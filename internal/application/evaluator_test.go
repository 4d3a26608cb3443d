package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/interview-gavel/infrastructure/judge"
	"github.com/ahrav/interview-gavel/infrastructure/middleware"
	"github.com/ahrav/interview-gavel/infrastructure/store"
	"github.com/ahrav/interview-gavel/internal/domain"
	"github.com/ahrav/interview-gavel/internal/ports"
	"github.com/ahrav/interview-gavel/internal/scoring"
	"github.com/ahrav/interview-gavel/internal/testutils"
)

const hashMapAnswer = "A hash map stores key value pairs in buckets. First, the key is hashed to pick a bucket. " +
	"For example, Go maps use this approach, and lookups are O(1) on average because collisions are rare."

type recordingMetrics struct {
	mu         sync.Mutex
	counters   map[string]float64
	histograms map[string][]float64
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{counters: map[string]float64{}, histograms: map[string][]float64{}}
}

func (r *recordingMetrics) RecordLatency(string, time.Duration, map[string]string) {}
func (r *recordingMetrics) RecordGauge(string, float64, map[string]string)         {}

func (r *recordingMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[metric+"/"+labels["component"]+labels["unit"]] += value
}

func (r *recordingMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.histograms[metric+"/"+labels["source"]] = append(r.histograms[metric+"/"+labels["source"]], value)
}

func (r *recordingMetrics) counter(key string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[key]
}

func (r *recordingMetrics) histogram(key string) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.histograms[key]...)
}

func newTestEvaluator(t *testing.T, deps Dependencies) *Evaluator {
	t.Helper()
	if deps.Store == nil {
		deps.Store = store.NewMemoryStore()
	}
	e, err := NewEvaluator(deps, DefaultScoringConfig())
	require.NoError(t, err)
	return e
}

func remoteDeps(t *testing.T, client ports.LLMClient) Dependencies {
	t.Helper()
	tables := scoring.DefaultTables()
	remote, err := judge.NewRemoteJudge(client, tables, judge.DefaultRemoteConfig())
	require.NoError(t, err)
	sampler, err := judge.NewRemoteSampler(client, judge.DefaultSampleConfig())
	require.NoError(t, err)
	return Dependencies{
		Judge:       judge.NewFallbackJudge(remote, judge.NewLocalJudge(tables), nil),
		Sampler:     judge.NewFallbackSampler(sampler, judge.NewCannedSampler(tables), nil),
		Questions:   judge.NewQuestionGenerator(client, tables, nil),
		RemoteJudge: true,
	}
}

// TestEvaluator_EvaluateAnswer_Remote tests the full pipeline against a
// remote judge that answers with valid JSON.
func TestEvaluator_EvaluateAnswer_Remote(t *testing.T) {
	metrics := newRecordingMetrics()
	deps := remoteDeps(t, testutils.NewMockLLMClient("sonar-pro"))
	deps.Metrics = metrics
	e := newTestEvaluator(t, deps)

	ev, err := e.EvaluateAnswer(context.Background(), "What is a hash map?", hashMapAnswer)
	require.NoError(t, err)

	assert.Equal(t, "Clear explanation with a relevant example.", ev.Feedback)
	assert.Equal(t, "Data Structures", ev.Topic)
	assert.Equal(t, testutils.MockSampleReply, ev.SuggestedAnswer)
	assert.Equal(t, domain.CombineScores(82, ev.Confidence), ev.Score)
	assert.Equal(t, []string{"Discuss complexity"}, ev.Improvements)

	assert.Len(t, metrics.histogram(middleware.MetricEvaluationScore+"/remote"), 1)
	assert.Zero(t, metrics.counter(middleware.MetricFallbacks+"/judge"))
	for _, unit := range []string{UnitConfidence, UnitJudge, UnitSuggested, UnitAggregate} {
		assert.Equal(t, 1.0, metrics.counter(middleware.MetricUnitRuns+"/"+unit), unit)
	}
}

// TestEvaluator_EvaluateAnswer_RemoteFailure verifies the local fallback
// produces a complete evaluation and is counted.
func TestEvaluator_EvaluateAnswer_RemoteFailure(t *testing.T) {
	client := testutils.NewMockLLMClient("sonar-pro")
	client.SetError(ports.NewLLMError("sonar-pro", "Complete", ports.ErrServiceUnavailable))
	metrics := newRecordingMetrics()
	deps := remoteDeps(t, client)
	deps.Metrics = metrics
	e := newTestEvaluator(t, deps)

	ev, err := e.EvaluateAnswer(context.Background(), "What is a hash map?", hashMapAnswer)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, ev.Score, domain.MinScore)
	assert.LessOrEqual(t, ev.Score, domain.MaxScore)
	assert.Contains(t, ev.Feedback, judge.LocalFeedbackPrefix)
	assert.NotEmpty(t, ev.SuggestedAnswer)
	assert.NotEmpty(t, ev.ConfidenceFeedback)
	assert.NotNil(t, ev.Strengths)
	assert.NotNil(t, ev.Improvements)
	assert.Equal(t, 1.0, metrics.counter(middleware.MetricFallbacks+"/judge"))
}

// TestEvaluator_EvaluateAnswer_DegenerateInput verifies empty input yields
// a low but complete evaluation instead of an error.
func TestEvaluator_EvaluateAnswer_DegenerateInput(t *testing.T) {
	e := newTestEvaluator(t, Dependencies{})

	tests := []struct {
		name     string
		question string
		answer   string
	}{
		{name: "empty answer", question: "What is a hash map?", answer: ""},
		{name: "whitespace answer", question: "What is a hash map?", answer: "   \n\t"},
		{name: "empty question", question: "", answer: "I would use a queue."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := e.EvaluateAnswer(context.Background(), tt.question, tt.answer)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, ev.Score, domain.MinScore)
			assert.LessOrEqual(t, ev.Score, 50)
			assert.NotEmpty(t, ev.Feedback)
			assert.NotEmpty(t, ev.Topic)
		})
	}
}

// TestEvaluator_InterviewLifecycle tests start, submit, finalize, history
// and lookup together.
func TestEvaluator_InterviewLifecycle(t *testing.T) {
	ctx := context.Background()
	e := newTestEvaluator(t, Dependencies{})

	id, err := e.StartInterview(ctx, StartRequest{UserID: "u1", Role: "Software Engineer", Difficulty: "junior"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	var scores []int
	for _, q := range []string{"What is a hash map?", "Explain recursion.", "What is a hash map?"} {
		ev, err := e.SubmitAnswer(ctx, id, q, hashMapAnswer)
		require.NoError(t, err)
		scores = append(scores, ev.Score)
	}

	session, err := e.Interview(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, DefaultTotalQuestions, session.TotalQuestions)
	assert.Len(t, session.Responses, 3, "Re-submission appends a second record.")
	assert.False(t, session.Finalized())

	final, err := e.FinalizeInterview(ctx, id)
	require.NoError(t, err)
	records := make([]domain.AnswerRecord, len(scores))
	for i, s := range scores {
		records[i] = domain.AnswerRecord{Score: s}
	}
	want, err := domain.Finalize(records)
	require.NoError(t, err)
	assert.Equal(t, want, final)

	session, err = e.Interview(ctx, "u1", id)
	require.NoError(t, err)
	require.NotNil(t, session.FinalScore)
	assert.Equal(t, final, *session.FinalScore)
	assert.NotNil(t, session.CompletedAt)

	again, err := e.FinalizeInterview(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, final, again, "Finalization is idempotent.")

	history, err := e.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, id, history[0].ID)

	_, err = e.Interview(ctx, "someone-else", id)
	assert.ErrorIs(t, err, domain.ErrInterviewNotFound)
}

// TestEvaluator_StartInterview tests request validation and question counts.
func TestEvaluator_StartInterview(t *testing.T) {
	ctx := context.Background()
	e := newTestEvaluator(t, Dependencies{})

	id, err := e.StartInterview(ctx, StartRequest{
		UserID: "u1", Role: "HR", Difficulty: "medium", Questions: []string{"a", "b"},
	})
	require.NoError(t, err)
	session, err := e.Interview(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, 2, session.TotalQuestions)
	assert.Empty(t, session.Responses)

	_, err = e.StartInterview(ctx, StartRequest{UserID: " ", Role: "HR"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 2)
}

// TestEvaluator_SubmitAnswer_Errors covers malformed and unknown IDs.
func TestEvaluator_SubmitAnswer_Errors(t *testing.T) {
	ctx := context.Background()
	e := newTestEvaluator(t, Dependencies{})

	_, err := e.SubmitAnswer(ctx, "", "q", "a")
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = e.SubmitAnswer(ctx, "not-a-uuid", "q", "a")
	assert.ErrorIs(t, err, domain.ErrInterviewNotFound)

	_, err = e.SubmitAnswer(ctx, "7b0e8f9e-4a9d-4c35-9d43-4a1b0f5d2c11", "q", "a")
	assert.ErrorIs(t, err, domain.ErrInterviewNotFound)
}

// TestEvaluator_FinalizeInterview_Empty verifies an interview without
// answers cannot be finalized.
func TestEvaluator_FinalizeInterview_Empty(t *testing.T) {
	ctx := context.Background()
	e := newTestEvaluator(t, Dependencies{})

	id, err := e.StartInterview(ctx, StartRequest{UserID: "u1", Role: "HR", Difficulty: "junior"})
	require.NoError(t, err)

	_, err = e.FinalizeInterview(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNoResponses)
	var fe *domain.FinalizationError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, id, fe.InterviewID)
}

// TestEvaluator_FinalizeSession tests the stateless finalization entry
// point.
func TestEvaluator_FinalizeSession(t *testing.T) {
	ctx := context.Background()
	e := newTestEvaluator(t, Dependencies{})
	rs := []domain.AnswerRecord{{Score: 40}, {Score: 80}}

	got, err := e.FinalizeSession(ctx, rs, nil)
	require.NoError(t, err)
	assert.Equal(t, 60, got)

	got, err = e.FinalizeSession(ctx, rs, []float64{1, 3})
	require.NoError(t, err)
	assert.Equal(t, 70, got)

	_, err = e.FinalizeSession(ctx, rs, []float64{1})
	assert.ErrorIs(t, err, domain.ErrWeightMismatch)

	_, err = e.FinalizeSession(ctx, nil, nil)
	assert.ErrorIs(t, err, domain.ErrNoResponses)
}

// TestEvaluator_ConcurrentSubmissions verifies no record is lost when
// answers for one interview arrive concurrently.
func TestEvaluator_ConcurrentSubmissions(t *testing.T) {
	ctx := context.Background()
	e := newTestEvaluator(t, Dependencies{})
	id, err := e.StartInterview(ctx, StartRequest{UserID: "u1", Role: "HR", Difficulty: "junior"})
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.SubmitAnswer(ctx, id, fmt.Sprintf("Question %d?", i), hashMapAnswer)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	session, err := e.Interview(ctx, "u1", id)
	require.NoError(t, err)
	assert.Len(t, session.Responses, n)
}

// TestEvaluator_Questions tests remote generation and the static fallback.
func TestEvaluator_Questions(t *testing.T) {
	ctx := context.Background()

	e := newTestEvaluator(t, remoteDeps(t, testutils.NewMockLLMClient("sonar-pro")))
	qs, err := e.Questions(ctx, "Software Engineer", "junior")
	require.NoError(t, err)
	assert.Len(t, qs, 5)
	assert.Equal(t, "Explain recursion.", qs[1])

	local := newTestEvaluator(t, Dependencies{})
	qs, err = local.Questions(ctx, "HR", "junior")
	require.NoError(t, err)
	assert.NotEmpty(t, qs)

	_, err = local.Questions(ctx, "", "junior")
	assert.Error(t, err)
}

// blockingJudge waits for cancellation and reports it, like a remote judge
// whose request outlives the caller.
type blockingJudge struct{}

func (blockingJudge) Evaluate(ctx context.Context, _, _ string) (domain.JudgeResult, error) {
	<-ctx.Done()
	return domain.JudgeResult{}, ctx.Err()
}

// TestEvaluator_CancelledContext verifies cancellation degrades the judge
// to the local heuristic and still yields a complete evaluation.
func TestEvaluator_CancelledContext(t *testing.T) {
	t.Run("cancelled before evaluation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		e := newTestEvaluator(t, Dependencies{})
		want, err := e.EvaluateAnswer(context.Background(), "What is a hash map?", hashMapAnswer)
		require.NoError(t, err)

		got, err := e.EvaluateAnswer(ctx, "What is a hash map?", hashMapAnswer)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("cancelled while the judge is waiting", func(t *testing.T) {
		metrics := newRecordingMetrics()
		e := newTestEvaluator(t, Dependencies{
			Judge:       judge.NewFallbackJudge(blockingJudge{}, judge.NewLocalJudge(nil), nil),
			Metrics:     metrics,
			RemoteJudge: true,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		ev, err := e.EvaluateAnswer(ctx, "What is a hash map?", hashMapAnswer)
		require.NoError(t, err)
		assert.True(t, errors.Is(ctx.Err(), context.DeadlineExceeded))

		assert.GreaterOrEqual(t, ev.Score, domain.MinScore)
		assert.LessOrEqual(t, ev.Score, domain.MaxScore)
		assert.Contains(t, ev.Feedback, judge.LocalFeedbackPrefix)
		assert.NotEmpty(t, ev.ConfidenceFeedback)
		assert.NotEmpty(t, ev.SuggestedAnswer)
		assert.NotEmpty(t, ev.Topic)
		assert.Len(t, metrics.histogram(middleware.MetricEvaluationScore+"/local"), 1)
		assert.Equal(t, 1.0, metrics.counter(middleware.MetricFallbacks+"/judge"))
		assert.Equal(t, 1.0, metrics.counter(middleware.MetricUnitRuns+"/"+UnitAggregate))
	})
}

// TestNewEvaluator_InvalidConfig verifies configuration is validated.
func TestNewEvaluator_InvalidConfig(t *testing.T) {
	cfg := DefaultScoringConfig()
	cfg.Aggregation.ContentWeight = 0.9

	_, err := NewEvaluator(Dependencies{}, cfg)
	assert.Error(t, err)
}
