// Package rag answers questions by retrieving context and prompting a model.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bull/wattsaver/internal/llm"
	"github.com/bull/wattsaver/internal/prompt"
	"github.com/bull/wattsaver/internal/tokenizer"
)

// DefaultTimeout bounds one Answer call, retrieval and completion together.
const DefaultTimeout = 60 * time.Second

// Pipeline is one retrieve, compose, complete sequence.
type Pipeline struct {
	Name      string
	Retriever Retriever
	Composer  prompt.Composer
	Completer llm.Completer
	Params    llm.Params
	Timeout   time.Duration

	// Tokenizer is optional; when set, prompt sizes are logged.
	Tokenizer tokenizer.Tokenizer
	Logger    *slog.Logger
}

// Answer runs the pipeline for one question. A retrieval that finds
// nothing still reaches the model, with an empty context. The question
// is passed on as given; surrounding whitespace only matters for the
// blank check.
func (p *Pipeline) Answer(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}

	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	results, err := p.Retriever.Retrieve(ctx, question)
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.Name, err)
	}
	logger.Debug("Retrieved context", "pipeline", p.Name, "chunks", len(results))

	messages := p.Composer.Compose(question, results)
	if p.Tokenizer != nil {
		logger.Debug("Composed prompt", "pipeline", p.Name,
			"messages", len(messages),
			"tokens", tokenizer.CountMessages(p.Tokenizer, messages),
		)
	}

	answer, err := p.Completer.Complete(ctx, messages, p.Params)
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.Name, err)
	}

	logger.Info("Answered question", "pipeline", p.Name,
		"chunks", len(results),
		"duration", time.Since(start),
	)
	return answer, nil
}
