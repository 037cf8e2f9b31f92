package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/animus-labs/animus-scenarios/internal/domain"
)

const defaultSystemPrompt = "You help investors frame analysis requests. " +
	"Summarize the investor's intent in one or two sentences and note any constraints."

type AnthropicProvider struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

func NewAnthropicProvider(cfg Config) (*AnthropicProvider, error) {
	if strings.TrimSpace(cfg.AnthropicAPIKey) == "" {
		return nil, errors.New("anthropic api key is required")
	}
	model := strings.TrimSpace(cfg.AnthropicModel)
	if model == "" {
		model = DefaultAnthropicModel
	}
	maxTokens := cfg.AnthropicMaxTokens
	if maxTokens <= 0 {
		maxTokens = 512
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.AnthropicAPIKey),
		// Retries are owned by Engine.
		option.WithMaxRetries(0),
	}
	if cfg.AnthropicBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.AnthropicBaseURL))
	}
	client := anthropic.NewClient(opts...)

	return &AnthropicProvider{
		client:    &client,
		model:     model,
		maxTokens: int64(maxTokens),
	}, nil
}

// Complete sends prompt as a single user message. options["system"] overrides
// the system prompt.
func (p *AnthropicProvider) Complete(ctx context.Context, prompt string, options map[string]any) (domain.Metadata, error) {
	system := defaultSystemPrompt
	if value, ok := options["system"].(string); ok && strings.TrimSpace(value) != "" {
		system = value
	}
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic messages: %w", err)
	}

	var content strings.Builder
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			content.WriteString(b.Text)
		}
	}
	return domain.Metadata{
		"provider":      ProviderAnthropic,
		"model":         string(msg.Model),
		"content":       content.String(),
		"stop_reason":   string(msg.StopReason),
		"input_tokens":  msg.Usage.InputTokens,
		"output_tokens": msg.Usage.OutputTokens,
	}, nil
}
