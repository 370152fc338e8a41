package ai

import (
	"context"
	"errors"
	"fmt"

	"investchat/internal/config"
	"investchat/internal/models"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

// ErrEmptyCompletion is returned when the provider answers with no content.
var ErrEmptyCompletion = errors.New("empty completion")

// Generator is the part of an eino chat model the completer needs.
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Completer turns a transcript into the next assistant message.
type Completer struct {
	model    Generator
	provider string
	name     string
}

// NewCompleter builds the chat model for provider.
func NewCompleter(ctx context.Context, provider string, provCfg config.ProviderConfig) (*Completer, error) {
	var (
		chatModel model.ToolCallingChatModel
		err       error
	)
	modelName := provCfg.Model

	switch provider {
	case "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   modelName,
			APIKey:  provCfg.APIKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: provCfg.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  modelName,
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     modelName,
			BaseURL:   baseURLPtr,
			MaxTokens: 3000,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", provider, err)
	}
	return NewCompleterWithModel(provider, modelName, chatModel), nil
}

// NewCompleterWithModel wraps an existing generator.
func NewCompleterWithModel(provider, name string, m Generator) *Completer {
	return &Completer{model: m, provider: provider, name: name}
}

// Provider reports the provider and model names.
func (c *Completer) Provider() (string, string) {
	return c.provider, c.name
}

// Complete sends the full history, system message included, and returns the
// generated content.
func (c *Completer) Complete(ctx context.Context, history []models.Message) (string, error) {
	if len(history) == 0 {
		return "", errors.New("history cannot be empty")
	}
	resp, err := c.model.Generate(ctx, convertMessages(history))
	if err != nil {
		return "", fmt.Errorf("generate completion (%s): %w", c.provider, err)
	}
	if resp == nil || resp.Content == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Content, nil
}

func convertMessages(history []models.Message) []*schema.Message {
	messages := make([]*schema.Message, 0, len(history))
	for _, msg := range history {
		var role schema.RoleType
		switch msg.Role {
		case models.RoleUser:
			role = schema.User
		case models.RoleAssistant:
			role = schema.Assistant
		case models.RoleSystem:
			role = schema.System
		default:
			role = schema.User
		}

		messages = append(messages, &schema.Message{
			Role:    role,
			Content: msg.Content,
		})
	}
	return messages
}
