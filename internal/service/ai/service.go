package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/maxai/internal/config"
)

// Service turns one prompt into one markdown reply. It never returns an error: failures
// become troubleshooting text.
type Service struct {
	chatModel model.BaseChatModel
	template  prompt.ChatTemplate
	cfg       config.AIConfig
	mocked    bool
	log       zerolog.Logger
}

// NewService creates a new AI service instance. The service is mocked for its whole
// lifetime when cfg carries no usable credential or chatModel is nil.
func NewService(cfg config.AIConfig, chatModel model.BaseChatModel, log zerolog.Logger) *Service {
	s := &Service{
		chatModel: chatModel,
		template:  prompt.FromMessages(schema.FString, schema.UserMessage("{query}")),
		cfg:       cfg,
		mocked:    !cfg.Configured() || chatModel == nil,
		log:       log,
	}
	if s.mocked {
		s.log.Warn().
			Str("credential", cfg.CredentialEnv()).
			Msg("model API key is missing or using a placeholder, AI replies will be mocked")
	}
	return s
}

// Mocked reports whether the service answers without contacting the model.
func (s *Service) Mocked() bool {
	return s.mocked
}

// Respond generates the reply for prompt. Each call is independent; no history is sent.
func (s *Service) Respond(ctx context.Context, prompt string) string {
	if s.mocked {
		return MockReply(s.cfg.CredentialEnv())
	}

	reply, err := s.generate(ctx, prompt)
	if err != nil {
		fault := Classify(err)
		s.log.Error().Err(err).Str("fault", fault.Kind.String()).Msg("error calling model API")
		return FaultReply(fault, s.cfg.CredentialEnv())
	}
	return reply
}

func (s *Service) generate(ctx context.Context, query string) (string, error) {
	input, err := s.template.Format(ctx, map[string]any{"query": query})
	if err != nil {
		return "", fmt.Errorf("failed to format prompt: %w", err)
	}

	response, err := s.chatModel.Generate(ctx, input)
	if err != nil {
		return "", err
	}
	if response == nil {
		return "", errors.New("model returned no message")
	}

	ev := s.log.Debug().Int("length", len(response.Content))
	if meta := response.ResponseMeta; meta != nil {
		ev = ev.Str("finish_reason", meta.FinishReason)
		if meta.Usage != nil {
			ev = ev.Int("total_tokens", meta.Usage.TotalTokens)
		}
	}
	ev.Msg("generated response")

	return response.Content, nil
}
