package rag

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bull/wattsaver/internal/embedding"
	"github.com/bull/wattsaver/internal/llm"
	"github.com/bull/wattsaver/internal/storage"
)

// User-facing replies for failed questions.
const (
	MsgEmptyQuestion = "Please enter a question about saving energy at home."
	MsgTimeout       = "Sorry, that took too long to answer. Please try again in a moment."
	MsgUnavailable   = "Sorry, the assistant is temporarily unavailable. Please try again in a moment."
	MsgNotReady      = "Sorry, the knowledge base is not ready yet. Please try again later."
	MsgFailed        = "Sorry, something went wrong while answering your question. Please try again."
)

// Answerer is anything that answers a question or fails with a typed error.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Service is the boundary around a pipeline: it always returns text a
// user can read and logs the underlying error.
type Service struct {
	answerer Answerer
	logger   *slog.Logger
}

// NewService wraps an answerer.
func NewService(answerer Answerer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{answerer: answerer, logger: logger}
}

// AnswerQuestion returns the model's answer or a friendly failure message.
func (s *Service) AnswerQuestion(ctx context.Context, question string) string {
	answer, err := s.answerer.Answer(ctx, question)
	if err == nil {
		return answer
	}

	if !errors.Is(err, ErrEmptyQuestion) {
		s.logger.Error("Failed to answer question", "error", err)
	}
	return FriendlyMessage(err)
}

// FriendlyMessage maps a pipeline error to a user-facing reply.
func FriendlyMessage(err error) string {
	switch {
	case errors.Is(err, ErrEmptyQuestion):
		return MsgEmptyQuestion
	case errors.Is(err, context.DeadlineExceeded):
		return MsgTimeout
	case errors.Is(err, storage.ErrCollectionNotFound):
		return MsgNotReady
	case errors.Is(err, embedding.ErrEmbeddingService),
		errors.Is(err, llm.ErrCompletionService),
		errors.Is(err, storage.ErrQdrantUnreachable):
		return MsgUnavailable
	default:
		return MsgFailed
	}
}
