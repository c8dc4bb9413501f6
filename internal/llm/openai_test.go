package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFakeChatAPI serves /chat/completions and records the last request body.
func newFakeChatAPI(t *testing.T, status int, body string) (*httptest.Server, *map[string]any, *atomic.Int32) {
	t.Helper()
	var (
		last  map[string]any
		calls atomic.Int32
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&last))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &last, &calls
}

func chatResponse(contents ...string) string {
	choices := make([]map[string]any, len(contents))
	for i, c := range contents {
		choices[i] = map[string]any{
			"index":         i,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": c},
		}
	}
	data, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 0,
		"model":   DefaultModel,
		"choices": choices,
	})
	return string(data)
}

func newTestCompleter(serverURL string) *OpenAICompleter {
	client := openai.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(serverURL+"/"),
		option.WithMaxRetries(0),
	)
	return NewOpenAICompleter(&client)
}

func TestComplete_SendsParams(t *testing.T) {
	server, last, _ := newFakeChatAPI(t, http.StatusOK, chatResponse("Switch to LED bulbs."))
	completer := newTestCompleter(server.URL)

	messages := []Message{
		SystemMessage("You are helpful."),
		UserMessage("How do I save energy?"),
	}
	answer, err := completer.Complete(context.Background(), messages, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, "Switch to LED bulbs.", answer)

	req := *last
	assert.Equal(t, DefaultModel, req["model"])
	assert.Equal(t, float64(0), req["temperature"])
	assert.Equal(t, float64(1), req["top_p"])
	assert.Equal(t, float64(1024), req["max_tokens"])
	assert.Equal(t, float64(1), req["n"])
	assert.Equal(t, float64(42), req["seed"])
	assert.NotContains(t, req, "response_format")

	sent, ok := req["messages"].([]any)
	require.True(t, ok)
	require.Len(t, sent, 2)
	assert.Equal(t, "system", sent[0].(map[string]any)["role"])
	assert.Equal(t, "user", sent[1].(map[string]any)["role"])
}

func TestComplete_JSONOutput(t *testing.T) {
	server, last, _ := newFakeChatAPI(t, http.StatusOK, chatResponse(`{"ok":true}`))
	completer := newTestCompleter(server.URL)

	params := DefaultParams()
	params.JSONOutput = true
	_, err := Prompt(context.Background(), completer, "reply in JSON", params)
	require.NoError(t, err)

	format, ok := (*last)["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])
}

func TestComplete_FirstChoiceWins(t *testing.T) {
	server, _, _ := newFakeChatAPI(t, http.StatusOK, chatResponse("first", "second"))
	completer := newTestCompleter(server.URL)

	params := DefaultParams()
	params.N = 2
	answer, err := Prompt(context.Background(), completer, "hi", params)
	require.NoError(t, err)
	assert.Equal(t, "first", answer)
}

func TestComplete_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"rate_limit"}}`},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key","type":"auth"}}`},
		{"no choices", http.StatusOK, chatResponse()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _, calls := newFakeChatAPI(t, tt.status, tt.body)
			completer := newTestCompleter(server.URL)

			_, err := Prompt(context.Background(), completer, "hi", DefaultParams())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCompletionService)

			var svcErr *ServiceError
			require.True(t, errors.As(err, &svcErr))
			assert.Equal(t, DefaultModel, svcErr.Model)
			assert.Equal(t, int32(1), calls.Load(), "no retries")
		})
	}
}

func TestComplete_RejectsBadMessages(t *testing.T) {
	completer := newTestCompleter("http://127.0.0.1:0")

	_, err := completer.Complete(context.Background(), nil, DefaultParams())
	assert.Error(t, err)

	_, err = completer.Complete(context.Background(), []Message{{Role: "tool", Content: "x"}}, DefaultParams())
	assert.Error(t, err)
}

func TestParams_WithDefaults(t *testing.T) {
	p := Params{Temperature: 0.7}.withDefaults()
	assert.Equal(t, DefaultModel, p.Model)
	assert.Equal(t, 0.7, p.Temperature)
	assert.Equal(t, DefaultTopP, p.TopP)
	assert.Equal(t, DefaultMaxTokens, p.MaxTokens)
	assert.Equal(t, DefaultN, p.N)
}
