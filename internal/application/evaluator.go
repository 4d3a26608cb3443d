package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ahrav/interview-gavel/infrastructure/judge"
	"github.com/ahrav/interview-gavel/infrastructure/middleware"
	"github.com/ahrav/interview-gavel/infrastructure/store"
	"github.com/ahrav/interview-gavel/infrastructure/units"
	"github.com/ahrav/interview-gavel/internal/domain"
	"github.com/ahrav/interview-gavel/internal/ports"
	"github.com/ahrav/interview-gavel/internal/scoring"
)

// DefaultTotalQuestions is the question count recorded for an interview
// started without an explicit question list.
const DefaultTotalQuestions = 5

// Unit names used in the evaluation pipeline. They appear in spans, metrics
// and error messages.
const (
	UnitConfidence = "confidence"
	UnitJudge      = "judge"
	UnitSuggested  = "suggested_answer"
	UnitAggregate  = "aggregate"
	UnitFinalize   = "finalize"
)

// Dependencies are the collaborators of an Evaluator. Only Store is
// typically provided in tests; every nil field gets a local default built
// from the scoring tables.
type Dependencies struct {
	Judge      ports.Judge
	Sampler    ports.SampleAnswerer
	Questions  ports.QuestionGenerator
	Analyzer   ports.ConfidenceAnalyzer
	Classifier ports.TopicClassifier
	Store      ports.InterviewStore
	Metrics    ports.MetricsCollector

	// RemoteJudge reports whether Judge calls a remote model. When true, a
	// locally produced judge result is counted as a fallback.
	RemoteJudge bool
}

// StartRequest describes a new interview.
type StartRequest struct {
	UserID     string   `json:"userId" validate:"required"`
	Role       string   `json:"type" validate:"required"`
	Difficulty string   `json:"difficulty" validate:"required"`
	Questions  []string `json:"questions,omitempty"`
}

// Evaluator is the application service behind every entry point: it
// evaluates single answers, records them against interviews and computes
// session scores.
type Evaluator struct {
	pipeline  *Pipeline
	finalizer ports.Unit

	questions   ports.QuestionGenerator
	store       ports.InterviewStore
	metrics     ports.MetricsCollector
	remoteJudge bool

	validate *validator.Validate
	now      func() time.Time
}

// NewEvaluator assembles the evaluation pipeline: a concurrent layer of the
// confidence, judge and suggested-answer units followed by the aggregate
// unit. Every unit is wrapped in middleware.InstrumentedUnit.
func NewEvaluator(deps Dependencies, cfg ScoringConfig) (*Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tables := cfg.ScoringTables()

	if deps.Judge == nil {
		deps.Judge = judge.NewFallbackJudge(nil, judge.NewLocalJudge(tables), nil)
	}
	if deps.Sampler == nil {
		deps.Sampler = judge.NewCannedSampler(tables)
	}
	if deps.Questions == nil {
		deps.Questions = judge.NewQuestionGenerator(nil, tables, nil)
	}
	if deps.Analyzer == nil {
		deps.Analyzer = scoring.NewAnalyzer(tables)
	}
	if deps.Classifier == nil {
		deps.Classifier = scoring.NewClassifier(tables)
	}
	if deps.Store == nil {
		deps.Store = store.NewMemoryStore()
	}

	e := &Evaluator{
		questions:   deps.Questions,
		store:       deps.Store,
		metrics:     deps.Metrics,
		remoteJudge: deps.RemoteJudge,
		validate:    validator.New(),
		now:         time.Now,
	}

	if err := e.buildPipeline(deps, cfg); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Evaluator) buildPipeline(deps Dependencies, cfg ScoringConfig) error {
	confidence, err := units.NewConfidenceUnit(UnitConfidence, deps.Analyzer)
	if err != nil {
		return err
	}
	judgeUnit, err := units.NewJudgeUnit(UnitJudge, deps.Judge, deps.Classifier)
	if err != nil {
		return err
	}
	suggested, err := units.NewSuggestedAnswerUnit(UnitSuggested, deps.Sampler)
	if err != nil {
		return err
	}
	aggregate, err := units.NewResponseAggregateUnit(UnitAggregate, cfg.Aggregation)
	if err != nil {
		return err
	}
	finalize, err := units.NewWeightedMeanUnit(UnitFinalize)
	if err != nil {
		return err
	}

	signals := NewLayer("signals")
	if cfg.Concurrency > 0 {
		signals.SetConcurrencyLimit(cfg.Concurrency)
	}
	for _, u := range []ports.Unit{confidence, judgeUnit, suggested} {
		if err := signals.Add(e.adapt(u)); err != nil {
			return err
		}
	}

	pipeline := NewPipeline("evaluate-answer")
	pipeline.SetCompleteOnCancel(true)
	if err := pipeline.Add(signals); err != nil {
		return err
	}
	if err := pipeline.Add(e.adapt(aggregate)); err != nil {
		return err
	}

	e.pipeline = pipeline
	e.finalizer = middleware.NewInstrumentedUnit(finalize, e.metrics)
	return nil
}

func (e *Evaluator) adapt(u ports.Unit) ports.Executable {
	return NewUnitAdapter(middleware.NewInstrumentedUnit(u, e.metrics), u.Name())
}

// EvaluateAnswer scores one answer. It succeeds for any input: an empty or
// off-topic answer yields a low score, and a failing remote judge is
// replaced by the local heuristic.
func (e *Evaluator) EvaluateAnswer(ctx context.Context, question, answer string) (domain.Evaluation, error) {
	rec, err := e.evaluate(ctx, question, answer)
	if err != nil {
		return domain.Evaluation{}, err
	}
	return rec.Evaluation(), nil
}

func (e *Evaluator) evaluate(ctx context.Context, question, answer string) (domain.AnswerRecord, error) {
	state := domain.NewState()
	state = domain.With(state, domain.KeyQuestion, question)
	state = domain.With(state, domain.KeyAnswer, answer)

	out, err := e.pipeline.Execute(ctx, state)
	if err != nil {
		return domain.AnswerRecord{}, fmt.Errorf("evaluate answer: %w", err)
	}
	rec, err := domain.Require(out, domain.KeyAnswerRecord)
	if err != nil {
		return domain.AnswerRecord{}, fmt.Errorf("evaluate answer: %w", err)
	}

	source := domain.SourceLocal
	if jr, ok := domain.Get(out, domain.KeyJudgeResult); ok && jr.Source != "" {
		source = jr.Source
	}
	e.recordEvaluation(ctx, rec, source)
	return rec, nil
}

func (e *Evaluator) recordEvaluation(ctx context.Context, rec domain.AnswerRecord, source domain.JudgeSource) {
	logger := middleware.LoggerFromContext(ctx)
	logger.DebugContext(ctx, "answer evaluated",
		slog.Int("score", rec.Score),
		slog.Int("confidence", rec.Confidence),
		slog.String("topic", rec.Topic),
		slog.String("source", string(source)),
	)

	if e.metrics == nil {
		return
	}
	e.metrics.RecordHistogram(middleware.MetricEvaluationScore, float64(rec.Score),
		map[string]string{"source": string(source)})
	if e.remoteJudge && source == domain.SourceLocal {
		e.metrics.RecordCounter(middleware.MetricFallbacks, 1, map[string]string{"component": "judge"})
	}
}

// SubmitAnswer evaluates an answer and appends the resulting record to the
// interview. Re-submitting the same question appends a second record.
func (e *Evaluator) SubmitAnswer(ctx context.Context, interviewID, question, answer string) (domain.Evaluation, error) {
	if err := validateInterviewID(interviewID); err != nil {
		return domain.Evaluation{}, err
	}
	if _, err := e.store.Get(ctx, interviewID); err != nil {
		return domain.Evaluation{}, fmt.Errorf("submit answer: %w", err)
	}

	rec, err := e.evaluate(ctx, question, answer)
	if err != nil {
		return domain.Evaluation{}, err
	}
	if err := e.store.AppendResponse(ctx, interviewID, rec); err != nil {
		return domain.Evaluation{}, fmt.Errorf("submit answer: %w", err)
	}

	middleware.LoggerFromContext(ctx).InfoContext(ctx, "answer recorded",
		slog.String("interview_id", interviewID), slog.Int("score", rec.Score))
	return rec.Evaluation(), nil
}

// StartInterview creates an interview and returns its ID.
func (e *Evaluator) StartInterview(ctx context.Context, req StartRequest) (string, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.Role = strings.TrimSpace(req.Role)
	req.Difficulty = strings.TrimSpace(req.Difficulty)
	if err := e.validate.Struct(req); err != nil {
		ve := domain.NewValidationError("interview")
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				ve.AddError(fmt.Sprintf("%s is %s", strings.ToLower(fe.Field()), fe.Tag()))
			}
		} else {
			ve.AddError(err.Error())
		}
		return "", ve
	}

	total := len(req.Questions)
	if total == 0 {
		total = DefaultTotalQuestions
	}
	session := domain.InterviewSession{
		ID:             uuid.NewString(),
		UserID:         req.UserID,
		Role:           req.Role,
		Difficulty:     req.Difficulty,
		TotalQuestions: total,
		Responses:      []domain.AnswerRecord{},
		CreatedAt:      e.now().UTC(),
	}
	if err := e.store.Create(ctx, session); err != nil {
		return "", fmt.Errorf("start interview: %w", err)
	}

	middleware.LoggerFromContext(ctx).InfoContext(ctx, "interview started",
		slog.String("interview_id", session.ID),
		slog.String("user_id", session.UserID),
		slog.String("role", session.Role),
		slog.String("difficulty", session.Difficulty),
	)
	return session.ID, nil
}

// FinalizeInterview computes the final score over the interview's stored
// responses and records it together with the completion time. Finalizing
// again recomputes and overwrites the score.
func (e *Evaluator) FinalizeInterview(ctx context.Context, interviewID string) (int, error) {
	if err := validateInterviewID(interviewID); err != nil {
		return 0, err
	}
	session, err := e.store.Get(ctx, interviewID)
	if err != nil {
		return 0, fmt.Errorf("finalize interview: %w", err)
	}
	if len(session.Responses) == 0 {
		return 0, &domain.FinalizationError{InterviewID: interviewID, Err: domain.ErrNoResponses}
	}

	score, err := e.FinalizeSession(ctx, session.Responses, nil)
	if err != nil {
		return 0, err
	}
	if err := e.store.SetFinalScore(ctx, interviewID, score, e.now().UTC()); err != nil {
		return 0, fmt.Errorf("finalize interview: %w", err)
	}

	middleware.LoggerFromContext(ctx).InfoContext(ctx, "interview finalized",
		slog.String("interview_id", interviewID),
		slog.Int("final_score", score),
		slog.Int("responses", len(session.Responses)),
	)
	return score, nil
}

// FinalizeSession computes the weighted mean of the given responses. A
// non-nil weights slice must have one entry per response and overrides the
// per-record weights.
func (e *Evaluator) FinalizeSession(ctx context.Context, responses []domain.AnswerRecord, weights []float64) (int, error) {
	if len(responses) == 0 {
		return 0, &domain.FinalizationError{Err: domain.ErrNoResponses}
	}

	state := domain.With(domain.NewState(), domain.KeyResponses, responses)
	if weights != nil {
		state = domain.With(state, domain.KeyWeights, weights)
	}
	out, err := e.finalizer.Execute(ctx, state)
	if err != nil {
		return 0, err
	}
	return domain.Require(out, domain.KeyFinalScore)
}

// History lists the user's interviews, newest first.
func (e *Evaluator) History(ctx context.Context, userID string) ([]domain.InterviewSummary, error) {
	if strings.TrimSpace(userID) == "" {
		ve := domain.NewValidationError("history request")
		ve.AddError("user id is required")
		return nil, ve
	}
	list, err := e.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return list, nil
}

// Interview returns one interview with its responses. Interviews owned by
// another user are reported as not found.
func (e *Evaluator) Interview(ctx context.Context, userID, interviewID string) (domain.InterviewSession, error) {
	if err := validateInterviewID(interviewID); err != nil {
		return domain.InterviewSession{}, err
	}
	session, err := e.store.Get(ctx, interviewID)
	if err != nil {
		return domain.InterviewSession{}, fmt.Errorf("interview: %w", err)
	}
	if session.UserID != userID {
		return domain.InterviewSession{}, fmt.Errorf("interview %s: %w", interviewID, domain.ErrInterviewNotFound)
	}
	return session, nil
}

// Questions returns interview questions for a role and level.
func (e *Evaluator) Questions(ctx context.Context, role, level string) ([]string, error) {
	return e.questions.Questions(ctx, role, level)
}

// validateInterviewID rejects IDs that could not have been issued by
// StartInterview. Such IDs are reported as not found.
func validateInterviewID(id string) error {
	if strings.TrimSpace(id) == "" {
		ve := domain.NewValidationError("interview")
		ve.AddError("interview id is required")
		return ve
	}
	if err := uuid.Validate(id); err != nil {
		return fmt.Errorf("interview %q: %w", id, domain.ErrInterviewNotFound)
	}
	return nil
}
