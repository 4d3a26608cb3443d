package judge

import (
	"context"
	"log/slog"

	"github.com/ahrav/interview-gavel/internal/domain"
	"github.com/ahrav/interview-gavel/internal/ports"
)

// FallbackJudge tries Primary and, on any error, answers with Secondary.
// It is the only place a failed remote evaluation becomes a local one.
type FallbackJudge struct {
	Primary   ports.Judge
	Secondary *LocalJudge
	Logger    *slog.Logger
}

var _ ports.Judge = (*FallbackJudge)(nil)

// NewFallbackJudge composes primary with a local judge. A nil primary makes
// every evaluation local.
func NewFallbackJudge(primary ports.Judge, secondary *LocalJudge, logger *slog.Logger) *FallbackJudge {
	if secondary == nil {
		secondary = NewLocalJudge(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackJudge{Primary: primary, Secondary: secondary, Logger: logger}
}

// Evaluate always resolves; the returned error is always nil.
func (f *FallbackJudge) Evaluate(ctx context.Context, question, answer string) (domain.JudgeResult, error) {
	if f.Primary == nil {
		return f.Secondary.Result(question, answer), nil
	}

	res, err := f.Primary.Evaluate(ctx, question, answer)
	if err == nil {
		return res, nil
	}

	f.Logger.WarnContext(ctx, "remote judge failed, using local evaluation", slog.Any("error", err))
	return f.Secondary.Result(question, answer), nil
}
