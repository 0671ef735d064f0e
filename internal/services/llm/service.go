package llm

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/nivesh/internal/common"
	"github.com/ternarybob/nivesh/internal/interfaces"
)

// Service is the cloud LLM backend for chat generation and embeddings.
// Chat goes to whichever provider config selects; embeddings always use
// Gemini since Claude has no embedding endpoint.
type Service struct {
	factory *ProviderFactory
	logger  arbor.ILogger
}

// NewService creates an LLM service from config
func NewService(cfg *common.Config, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) *Service {
	factory := NewProviderFactory(&cfg.Gemini, &cfg.Claude, &cfg.LLM, kvStorage, logger)
	return &Service{
		factory: factory,
		logger:  logger,
	}
}

// Chat sends the conversation to the default provider and returns the
// generated reply text
func (s *Service) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages to send")
	}

	resp, err := s.factory.GenerateContent(ctx, &ContentRequest{
		Messages: messages,
	})
	if err != nil {
		return "", err
	}

	s.logger.Debug().
		Str("provider", string(resp.Provider)).
		Str("model", resp.Model).
		Int("response_length", len(resp.Text)).
		Msg("Chat completion generated")

	return resp.Text, nil
}

// Embed returns an embedding vector for the given text
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}
	return s.factory.EmbedContent(ctx, text)
}

// HealthCheck verifies that a provider client can be constructed. It does
// not burn tokens on a live generation call.
func (s *Service) HealthCheck(ctx context.Context) error {
	switch s.factory.DetectProvider("") {
	case ProviderClaude:
		_, err := s.factory.GetClaudeClient(ctx)
		return err
	default:
		_, err := s.factory.GetGeminiClient(ctx)
		return err
	}
}

// GetMode returns the operating mode
func (s *Service) GetMode() interfaces.LLMMode {
	return interfaces.LLMModeCloud
}

// Close releases provider clients
func (s *Service) Close() error {
	return s.factory.Close()
}
