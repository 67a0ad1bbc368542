// Package llm wraps the language-understanding backend behind a single
// Generate call. The backend receives a strict-JSON instruction and returns
// raw text; callers own all parsing and must treat the output as untrusted.
package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"storagevoice/internal/config"
)

// Client is the language-understanding collaborator contract.
type Client interface {
	Generate(ctx context.Context, instruction string, input string) (string, error)
}

// ChatClient runs an eino chain (template → chat model) against the
// configured provider.
type ChatClient struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// New builds a ChatClient for the configured provider. Supported providers
// are openai, ollama, ark, and deepseek.
func New(ctx context.Context, cfg config.ModelConfig, secrets *config.Secrets) (*ChatClient, error) {
	chatModel, err := newChatModel(ctx, cfg, secrets)
	if err != nil {
		return nil, err
	}

	// Instruction and input are passed as template variables so their content
	// is never interpreted as formatting directives.
	template := prompt.FromMessages(schema.FString,
		schema.SystemMessage("{instruction}"),
		schema.UserMessage("{input}"),
	)

	chain, err := compose.NewChain[map[string]any, *schema.Message]().
		AppendChatTemplate(template).
		AppendChatModel(chatModel).
		Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("error creating model chain: %w", err)
	}

	return &ChatClient{chain: chain}, nil
}

func newChatModel(ctx context.Context, cfg config.ModelConfig, secrets *config.Secrets) (model.BaseChatModel, error) {
	switch cfg.Provider {
	case "openai", "":
		maxTokens := cfg.MaxTokens
		temperature := float32(cfg.Temperature)
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      secrets.OpenAIAPIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Name,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
		})
	case "ollama":
		return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Name,
		})
	case "ark":
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			APIKey: secrets.ArkAPIKey,
			Model:  cfg.Name,
		})
	case "deepseek":
		return deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:  secrets.DeepseekAPIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Name,
		})
	default:
		return nil, fmt.Errorf("unknown model provider: %s", cfg.Provider)
	}
}

// Generate runs one instruction/input pair through the chain and returns the
// raw model text.
func (c *ChatClient) Generate(ctx context.Context, instruction, input string) (string, error) {
	out, err := c.chain.Invoke(ctx, map[string]any{
		"instruction": instruction,
		"input":       input,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return out.Content, nil
}
