package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/aadu/tina-aunty/backend/internal/config"
	"github.com/aadu/tina-aunty/backend/internal/model/session"
)

// ErrEmptyCompletion is returned when the provider answers with no text.
var ErrEmptyCompletion = errors.New("completion returned empty content")

// Service wraps the configured chat model as the completion collaborator.
type Service struct {
	chatModel model.ChatModel
}

// NewService creates the completion service for the configured provider.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	var (
		chatModel model.ChatModel
		err       error
	)

	switch cfg.Provider {
	case config.ProviderGemini:
		chatModel, err = NewGeminiChatModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		chatModel, err = cfg.NewChatModel(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	return NewServiceWithModel(chatModel), nil
}

// NewServiceWithModel wraps an existing chat model.
func NewServiceWithModel(chatModel model.ChatModel) *Service {
	return &Service{chatModel: chatModel}
}

// GetChatModel 返回底层的聊天模型
func (s *Service) GetChatModel() model.ChatModel {
	return s.chatModel
}

// Complete sends the full transcript, in order, and returns the reply text.
func (s *Service) Complete(ctx context.Context, transcript []session.Turn, temperature float32, maxTokens int) (string, error) {
	if s == nil || s.chatModel == nil {
		return "", fmt.Errorf("chat model unavailable")
	}

	resp, err := s.chatModel.Generate(ctx, toSchemaMessages(transcript),
		model.WithTemperature(temperature),
		model.WithMaxTokens(maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", ErrEmptyCompletion
	}

	log.Printf("[ai] generated completion, turns=%d, length=%d", len(transcript), len(resp.Content))
	return resp.Content, nil
}

func toSchemaMessages(transcript []session.Turn) []*schema.Message {
	messages := make([]*schema.Message, 0, len(transcript))
	for _, turn := range transcript {
		switch turn.Role {
		case session.RoleSystem:
			messages = append(messages, schema.SystemMessage(turn.Content))
		case session.RoleUser:
			messages = append(messages, schema.UserMessage(turn.Content))
		case session.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		}
	}
	return messages
}
