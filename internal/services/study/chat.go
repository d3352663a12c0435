package study

import (
	"context"

	"halomind/internal/adapters/ai"
)

// StartChat opens a tutoring conversation on the current model
func (s *Service) StartChat(ctx context.Context, systemInstruction string) (*ai.ChatSession, error) {
	return s.gen.NewChat(ctx, systemInstruction, nil)
}
