// Package embedding turns text into dense vectors with a hosted embedding model.
package embedding

import (
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrMissingAPIKey is returned when no OpenAI credential is configured.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set")

// Client wraps the OpenAI client shared by the embedder and the completion client.
type Client struct {
	client *openai.Client
}

// NewClient creates an OpenAI client for the given key.
// baseURL may be empty to use the public API. The SDK's own retries are
// disabled: retry policy belongs to callers.
func NewClient(apiKey, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(opts...)
	return &Client{client: &client}, nil
}

// Client returns the underlying OpenAI client for use in other packages (e.g., completions).
func (c *Client) Client() *openai.Client {
	return c.client
}
