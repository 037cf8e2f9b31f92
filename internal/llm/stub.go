package llm

import (
	"context"
	"strings"

	"github.com/animus-labs/animus-scenarios/internal/domain"
)

// StubProvider returns deterministic metadata without any network call.
type StubProvider struct{}

func (StubProvider) Complete(ctx context.Context, prompt string, _ map[string]any) (domain.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return domain.Metadata{
		"provider":      ProviderStub,
		"prompt_length": len(strings.Fields(prompt)),
		"notes":         "stub provider; set LLM_PROVIDER=anthropic for live completions",
	}, nil
}
