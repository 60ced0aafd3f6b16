package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authrelay/internal/common"
)

// Generator turns a prompt into generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// chatInstruction is prepended to every user message.
const chatInstruction = "Bạn là trợ lý AI thân thiện của ứng dụng. " +
	"Hãy trả lời ngắn gọn, rõ ràng và bằng tiếng Việt.\n\nNgười dùng: "

// ChatService relays user messages to a Generator.
type ChatService struct {
	gen     Generator
	timeout time.Duration
}

func NewChatService(gen Generator, timeout time.Duration) *ChatService {
	return &ChatService{gen: gen, timeout: timeout}
}

// BuildPrompt returns the prompt sent for message.
func BuildPrompt(message string) string {
	return chatInstruction + message
}

// Ask forwards message and returns the generated answer. The call is bounded
// by the service timeout and by ctx. It is never retried.
func (s *ChatService) Ask(ctx context.Context, message string) (string, error) {
	if message == "" {
		return "", common.ErrValidation
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	answer, err := s.gen.Generate(ctx, BuildPrompt(message))
	if err != nil {
		return "", fmt.Errorf("%w: generation: %w", common.ErrInternal, err)
	}

	return answer, nil
}
