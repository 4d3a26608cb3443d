// Package judge grades answer content. RemoteJudge asks a text-generation
// model for a JSON verdict, LocalJudge applies the deterministic heuristics
// from the scoring package, and FallbackJudge composes the two so that an
// evaluation always resolves. The package also supplies sample answers and
// interview questions with the same remote-then-local shape.
package judge

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/interview-gavel/internal/domain"
	"github.com/ahrav/interview-gavel/internal/ports"
	"github.com/ahrav/interview-gavel/internal/scoring"
)

// Default request parameters for the remote judge.
const (
	DefaultJudgeTemperature = 0.3
	DefaultJudgeMaxTokens   = 600
	DefaultJudgeTimeout     = 25 * time.Second
)

// DefaultJudgeSystemPrompt instructs the model to answer with a single JSON
// object.
const DefaultJudgeSystemPrompt = `You are an expert technical interview evaluator. Analyze the candidate's answer and provide:
1. A numerical score from 0-100 based on:
   - Technical accuracy (40%)
   - Completeness (25%)
   - Clarity and communication (20%)
   - Relevance to the question (15%)
2. Detailed feedback highlighting strengths and areas for improvement
3. A topic/category for this question

Respond in this EXACT JSON format (no markdown, no code blocks):
{
  "score": <number 0-100>,
  "feedback": "<detailed feedback>",
  "topic": "<topic name>",
  "strengths": ["<strength1>", "<strength2>"],
  "improvements": ["<improvement1>", "<improvement2>"]
}`

// DefaultJudgeUserPrompt is the user message template. It receives
// .Question and .Answer.
const DefaultJudgeUserPrompt = "Question: {{.Question}}\n\nCandidate's Answer: {{.Answer}}\n\n" +
	"Evaluate this answer and provide your analysis in the required JSON format."

var validate = validator.New()

// RemoteConfig holds the request parameters of a RemoteJudge.
type RemoteConfig struct {
	SystemPrompt string        `yaml:"system_prompt" json:"system_prompt" validate:"required,min=20"`
	UserPrompt   string        `yaml:"user_prompt" json:"user_prompt" validate:"required,min=20"`
	Temperature  float64       `yaml:"temperature" json:"temperature" validate:"min=0,max=2"`
	MaxTokens    int           `yaml:"max_tokens" json:"max_tokens" validate:"min=50,max=4000"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout" validate:"gt=0"`
}

// DefaultRemoteConfig returns the production judge parameters.
func DefaultRemoteConfig() RemoteConfig {
	return RemoteConfig{
		SystemPrompt: DefaultJudgeSystemPrompt,
		UserPrompt:   DefaultJudgeUserPrompt,
		Temperature:  DefaultJudgeTemperature,
		MaxTokens:    DefaultJudgeMaxTokens,
		Timeout:      DefaultJudgeTimeout,
	}
}

// RemoteJudge evaluates answers with a single chat-completion request. It
// returns an error on any transport failure; a reply that arrives is always
// turned into a result by ParseResponse.
type RemoteJudge struct {
	client ports.LLMClient
	config RemoteConfig
	prompt *template.Template
	local  *LocalJudge
}

var _ ports.Judge = (*RemoteJudge)(nil)

// NewRemoteJudge validates config and compiles the user prompt template.
// The tables supply the local result used for fields the reply leaves out.
func NewRemoteJudge(client ports.LLMClient, tables *scoring.Tables, config RemoteConfig) (*RemoteJudge, error) {
	if client == nil {
		return nil, fmt.Errorf("LLM client cannot be nil")
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid judge configuration: %w", err)
	}
	tmpl, err := template.New("judgePrompt").Parse(config.UserPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse judge prompt template: %w", err)
	}
	return &RemoteJudge{
		client: client,
		config: config,
		prompt: tmpl,
		local:  NewLocalJudge(tables),
	}, nil
}

// Evaluate sends the question and answer to the model and parses the reply.
func (j *RemoteJudge) Evaluate(ctx context.Context, question, answer string) (domain.JudgeResult, error) {
	prompt, err := renderPrompt(j.prompt, question, answer)
	if err != nil {
		return domain.JudgeResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	raw, err := j.client.Complete(ctx, prompt, map[string]any{
		"system":      j.config.SystemPrompt,
		"temperature": j.config.Temperature,
		"max_tokens":  j.config.MaxTokens,
	})
	if err != nil {
		return domain.JudgeResult{}, ports.NewLLMError(j.client.GetModel(), "Evaluate", err)
	}

	return ParseResponse(raw).Resolve(j.local.Result(question, answer)), nil
}

func renderPrompt(tmpl *template.Template, question, answer string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Question string
		Answer   string
	}{Question: question, Answer: answer}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}
