package judge

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/ahrav/interview-gavel/internal/domain"
	"github.com/ahrav/interview-gavel/internal/ports"
	"github.com/ahrav/interview-gavel/internal/scoring"
)

const (
	// MinGeneratedQuestions is the fewest usable lines accepted from the
	// model before the static list is used instead.
	MinGeneratedQuestions = 3

	// DefaultQuestionTimeout bounds the question-generation call.
	DefaultQuestionTimeout = 20 * time.Second
)

var (
	numberedLine   = regexp.MustCompile(`^\d+\.\s`)
	leadingNumber  = regexp.MustCompile(`^\d+\.\s*`)
	leadingBullet  = regexp.MustCompile(`^[-•]\s*`)
	emphasisMarker = strings.NewReplacer("**", "", "*", "")
)

// QuestionGenerator asks the model for interview questions and falls back
// to the static table when the call fails or yields too few questions.
type QuestionGenerator struct {
	client  ports.LLMClient
	tables  *scoring.Tables
	timeout time.Duration
	logger  *slog.Logger
}

var _ ports.QuestionGenerator = (*QuestionGenerator)(nil)

// NewQuestionGenerator builds a generator. A nil client always uses the
// static table.
func NewQuestionGenerator(client ports.LLMClient, tables *scoring.Tables, logger *slog.Logger) *QuestionGenerator {
	if tables == nil {
		tables = scoring.DefaultTables()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionGenerator{client: client, tables: tables, timeout: DefaultQuestionTimeout, logger: logger}
}

// Questions returns questions for role and level. Both are required.
func (g *QuestionGenerator) Questions(ctx context.Context, role, level string) ([]string, error) {
	role, level = strings.TrimSpace(role), strings.TrimSpace(level)
	if role == "" || level == "" {
		verr := domain.NewValidationError("questions request")
		verr.AddError("role and level are required")
		return nil, verr
	}

	if g.client != nil {
		qs, err := g.generate(ctx, role, level)
		if err == nil {
			return qs, nil
		}
		g.logger.WarnContext(ctx, "question generation failed, using fallback questions",
			slog.String("role", role), slog.String("level", level), slog.Any("error", err))
	}
	return cleanQuestions(g.tables.FallbackQuestions(role, level)), nil
}

func (g *QuestionGenerator) generate(ctx context.Context, role, level string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt := fmt.Sprintf("Generate 5 %s-level %s interview questions in a numbered list.", level, role)
	text, err := g.client.Complete(ctx, prompt, nil)
	if err != nil {
		return nil, ports.NewLLMError(g.client.GetModel(), "Questions", err)
	}

	qs := ParseQuestionList(text)
	if len(qs) < MinGeneratedQuestions {
		return nil, fmt.Errorf("insufficient questions generated: got %d, need %d", len(qs), MinGeneratedQuestions)
	}
	return qs, nil
}

// ParseQuestionList keeps the numbered lines of text and strips numbering,
// bullets and markdown emphasis from each.
func ParseQuestionList(text string) []string {
	var out []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if !numberedLine.MatchString(line) {
			continue
		}
		if q := CleanQuestion(line); q != "" {
			out = append(out, q)
		}
	}
	return out
}

// CleanQuestion removes markdown emphasis and a leading number or bullet.
func CleanQuestion(q string) string {
	q = emphasisMarker.Replace(q)
	q = leadingNumber.ReplaceAllString(q, "")
	q = leadingBullet.ReplaceAllString(q, "")
	return strings.TrimSpace(q)
}

func cleanQuestions(qs []string) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, CleanQuestion(q))
	}
	return out
}
