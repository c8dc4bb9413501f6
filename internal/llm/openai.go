package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
)

// OpenAICompleter generates completions with the OpenAI chat API.
// It never retries; the caller decides what a failure means.
type OpenAICompleter struct {
	client *openai.Client
}

// NewOpenAICompleter creates a completer on a shared OpenAI client.
func NewOpenAICompleter(client *openai.Client) *OpenAICompleter {
	return &OpenAICompleter{client: client}
}

// Complete sends messages and returns the first choice's content.
func (c *OpenAICompleter) Complete(ctx context.Context, messages []Message, params Params) (string, error) {
	params = params.withDefaults()

	converted, err := toOpenAIMessages(messages)
	if err != nil {
		return "", err
	}

	req := openai.ChatCompletionNewParams{
		Messages:    converted,
		Model:       openai.ChatModel(params.Model),
		Temperature: openai.Float(params.Temperature),
		TopP:        openai.Float(params.TopP),
		MaxTokens:   openai.Int(int64(params.MaxTokens)),
		N:           openai.Int(int64(params.N)),
		Seed:        openai.Int(params.Seed),
	}
	if params.JSONOutput {
		req.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: "json_object",
			},
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", &ServiceError{Model: params.Model, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ServiceError{Model: params.Model, Err: errors.New("response has no choices")}
	}

	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	if len(messages) == 0 {
		return nil, errors.New("at least one message is required")
	}

	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for i, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			return nil, fmt.Errorf("message %d: unknown role %q", i, m.Role)
		}
	}
	return out, nil
}
