// Package llm sends chat prompts to a hosted language model.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Completion defaults.
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0
	DefaultTopP        = 1.0
	DefaultMaxTokens   = 1024
	DefaultN           = 1
	DefaultSeed        = 42
)

// ErrCompletionService is matched by every *ServiceError.
var ErrCompletionService = errors.New("completion service error")

// ServiceError reports a failed completion request: transport, auth,
// rate limit, or a response without choices.
type ServiceError struct {
	Model string
	Err   error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("completion with %s: %v", e.Model, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

func (e *ServiceError) Is(target error) bool { return target == ErrCompletionService }

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Text returns the message content.
func (m Message) Text() string { return m.Content }

// UserMessage builds a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// SystemMessage builds a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// Params are the sampling parameters of one completion.
type Params struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p"`
	MaxTokens   int     `yaml:"max_tokens"`
	N           int     `yaml:"n"`
	Seed        int64   `yaml:"seed"`
	JSONOutput  bool    `yaml:"json_output"`
}

// DefaultParams returns deterministic-leaning defaults.
func DefaultParams() Params {
	return Params{
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		TopP:        DefaultTopP,
		MaxTokens:   DefaultMaxTokens,
		N:           DefaultN,
		Seed:        DefaultSeed,
	}
}

// withDefaults fills fields that have no meaningful zero value.
func (p Params) withDefaults() Params {
	if p.Model == "" {
		p.Model = DefaultModel
	}
	if p.TopP <= 0 {
		p.TopP = DefaultTopP
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = DefaultMaxTokens
	}
	if p.N <= 0 {
		p.N = DefaultN
	}
	return p
}

// Completer produces the text of the first choice for a message list.
type Completer interface {
	Complete(ctx context.Context, messages []Message, params Params) (string, error)
}

// Prompt sends a single user message.
func Prompt(ctx context.Context, c Completer, prompt string, params Params) (string, error) {
	return c.Complete(ctx, []Message{UserMessage(prompt)}, params)
}
