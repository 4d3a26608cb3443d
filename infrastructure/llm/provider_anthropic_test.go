package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/interview-gavel/internal/ports"
)

// newAnthropicServer starts a Messages API stub.
func newAnthropicServer(t *testing.T, status int, body any, inspect func(req map[string]any)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if inspect != nil {
			inspect(req)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)
	return server
}

// TestAnthropicProvider_DoRequest tests request construction, the system
// field, and content block concatenation.
func TestAnthropicProvider_DoRequest(t *testing.T) {
	reply := map[string]any{
		"id":   "msg_test",
		"type": "message",
		"role": "assistant",
		"content": []map[string]any{
			{"type": "text", "text": "Part one. "},
			{"type": "text", "text": "Part two."},
		},
		"model":       AnthropicDefaultModel,
		"stop_reason": "end_turn",
		"usage":       map[string]any{"input_tokens": 30, "output_tokens": 8},
	}
	server := newAnthropicServer(t, http.StatusOK, reply, func(req map[string]any) {
		assert.Equal(t, AnthropicDefaultModel, req["model"])
		assert.Equal(t, float64(500), req["max_tokens"])
		assert.Equal(t, 1.0, req["temperature"], "temperature is capped at 1")

		system := req["system"].([]any)
		require.Len(t, system, 1)
		assert.Equal(t, "You are helpful.", system[0].(map[string]any)["text"])
	})

	provider, err := newAnthropicProvider(ClientConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	resp, in, out, err := provider.DoRequest(context.Background(), "Explain recursion", map[string]any{
		"max_tokens":  500,
		"temperature": 1.5,
		"system":      "You are helpful.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Part one. Part two.", resp)
	assert.Equal(t, 30, in)
	assert.Equal(t, 8, out)
}

// TestAnthropicProvider_AuthError verifies 401 responses are classified as
// authentication failures.
func TestAnthropicProvider_AuthError(t *testing.T) {
	body := map[string]any{
		"type":  "error",
		"error": map[string]any{"type": "authentication_error", "message": "invalid x-api-key"},
	}
	server := newAnthropicServer(t, http.StatusUnauthorized, body, nil)

	provider, err := newAnthropicProvider(ClientConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, _, _, err = provider.DoRequest(context.Background(), "p", nil)
	require.Error(t, err)

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrorTypeAuthentication, pe.Type)
	assert.ErrorIs(t, err, ports.ErrAuthenticationFailed)
}

// TestAnthropicProvider_Model tests model defaults and updates.
func TestAnthropicProvider_Model(t *testing.T) {
	provider, err := newAnthropicProvider(ClientConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, AnthropicDefaultModel, provider.GetModel())

	provider.SetModel("claude-3-opus-20240229")
	assert.Equal(t, "claude-3-opus-20240229", provider.GetModel())

	_, err = newAnthropicProvider(ClientConfig{})
	assert.ErrorIs(t, err, ErrEmptyAPIKey)
}
