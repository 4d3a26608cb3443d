// Package testutils provides deterministic test doubles shared by the
// judge, unit and application tests.
package testutils

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ahrav/interview-gavel/internal/ports"
)

// Canned replies returned by NewMockLLMClient for the three prompt kinds
// the application sends.
const (
	MockJudgeReply = `{"score": 82, "feedback": "Clear explanation with a relevant example.", ` +
		`"topic": "Data Structures", "strengths": ["Correct definition", "Good example"], ` +
		`"improvements": ["Discuss complexity"]}`
	MockSampleReply    = "A strong answer defines the concept, walks through an example, and states the trade-offs."
	MockQuestionsReply = "1. What is a hash map?\n2. **Explain** recursion.\n3. How does TCP differ from UDP?\n" +
		"4. What is a deadlock?\n5. Describe the CAP theorem."
	MockDefaultReply = "This is a standard response for testing purposes."
)

// MockResponse maps prompts containing Pattern to Response.
type MockResponse struct {
	// Pattern is matched case-insensitively as a substring of the prompt.
	Pattern string
	// Response is the text returned for matching prompts.
	Response string
}

// MockCall records a single Complete invocation.
type MockCall struct {
	Prompt  string
	Options map[string]any
}

// MockLLMClient implements ports.LLMClient with deterministic replies
// chosen by prompt pattern. Patterns are checked in the order they were
// added, newest first, so tests can override the defaults.
type MockLLMClient struct {
	mu        sync.Mutex
	model     string
	responses []MockResponse
	err       error
	calls     []MockCall
}

var _ ports.LLMClient = (*MockLLMClient)(nil)

// NewMockLLMClient returns a client preloaded with judge, sample-answer and
// question-list replies.
func NewMockLLMClient(model string) *MockLLMClient {
	m := &MockLLMClient{model: model}
	m.setupDefaultResponses()
	return m
}

func (m *MockLLMClient) setupDefaultResponses() {
	m.responses = []MockResponse{
		{Pattern: "interview questions", Response: MockQuestionsReply},
		{Pattern: "sample answer", Response: MockSampleReply},
		{Pattern: "candidate's answer", Response: MockJudgeReply},
	}
}

// AddResponse registers a reply that takes precedence over earlier ones.
func (m *MockLLMClient) AddResponse(r MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append([]MockResponse{r}, m.responses...)
}

// SetError makes every subsequent call fail with err. Nil clears it.
func (m *MockLLMClient) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Complete returns the reply for the first matching pattern.
func (m *MockLLMClient) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{Prompt: prompt, Options: options})
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.err != nil {
		return "", m.err
	}
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	lowerPrompt := strings.ToLower(prompt)
	for _, r := range m.responses {
		if strings.Contains(lowerPrompt, strings.ToLower(r.Pattern)) {
			return r.Response, nil
		}
	}
	return MockDefaultReply, nil
}

// EstimateTokens approximates four characters per token.
func (m *MockLLMClient) EstimateTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	return max(1, len(text)/4), nil
}

// GetModel returns the mock model identifier.
func (m *MockLLMClient) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}

// Calls returns a copy of every recorded call.
func (m *MockLLMClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// CallCount returns the number of Complete calls.
func (m *MockLLMClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Reset restores the default replies and clears errors and calls.
func (m *MockLLMClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = nil
	m.calls = nil
	m.setupDefaultResponses()
}
