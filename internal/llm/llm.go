// Package llm guards a completion provider with a token budget and bounded
// retries.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/animus-labs/animus-scenarios/internal/domain"
	"github.com/cenkalti/backoff/v4"
)

var ErrBudgetExceeded = errors.New("token budget exceeded")

// Provider produces a completion for a prompt. Errors are treated as
// transient and retried by the Engine.
type Provider interface {
	Complete(ctx context.Context, prompt string, options map[string]any) (domain.Metadata, error)
}

// BudgetRecorder observes the remaining budget after each mutation.
type BudgetRecorder interface {
	BudgetRemaining(units int)
}

// Engine serializes budget accounting for every caller sharing it. The lock
// is never held across a provider call.
type Engine struct {
	provider       Provider
	logger         *slog.Logger
	recorder       BudgetRecorder
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration

	limit int

	mu        sync.Mutex
	ceiling   int
	remaining int
}

func NewEngine(provider Provider, cfg Config, logger *slog.Logger, recorder BudgetRecorder) (*Engine, error) {
	if provider == nil {
		return nil, errors.New("provider is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TokenBudget <= 0 {
		cfg.TokenBudget = DefaultTokenBudget
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = max(DefaultMaxBackoff, cfg.InitialBackoff)
	}
	e := &Engine{
		provider:       provider,
		logger:         logger,
		recorder:       recorder,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		limit:          cfg.TokenBudget,
		ceiling:        cfg.TokenBudget,
		remaining:      cfg.TokenBudget,
	}
	e.record(cfg.TokenBudget)
	return e, nil
}

// EstimateCost is the word count of prompt, at least 1.
func EstimateCost(prompt string) int {
	return max(1, len(strings.Fields(prompt)))
}

// Complete reserves the prompt's cost, calls the provider with exponential
// backoff, and refunds the reservation if every attempt fails.
func (e *Engine) Complete(ctx context.Context, prompt string, options map[string]any) (domain.Metadata, error) {
	cost := EstimateCost(prompt)

	e.mu.Lock()
	if cost > e.remaining {
		remaining := e.remaining
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: need %d, have %d", ErrBudgetExceeded, cost, remaining)
	}
	e.remaining -= cost
	remaining := e.remaining
	e.mu.Unlock()
	e.record(remaining)

	var (
		resp     domain.Metadata
		attempts int
	)
	operation := func() error {
		attempts++
		out, err := e.provider.Complete(ctx, prompt, options)
		if err != nil {
			e.logger.Warn("completion attempt failed", "attempt", attempts, "max_attempts", e.maxAttempts, "error", err)
			return err
		}
		resp = out
		return nil
	}
	if err := backoff.Retry(operation, e.retryPolicy(ctx)); err != nil {
		e.refund(cost)
		return nil, fmt.Errorf("completion failed after %d attempts: %w", attempts, err)
	}

	out := resp.Clone()
	if out == nil {
		out = domain.Metadata{}
	}
	out["prompt_tokens"] = cost
	out["remaining_budget"] = e.Remaining()
	return out, nil
}

func (e *Engine) retryPolicy(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.initialBackoff
	b.MaxInterval = e.maxBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(e.maxAttempts-1)), ctx)
}

func (e *Engine) refund(cost int) {
	e.mu.Lock()
	e.remaining = min(e.remaining+cost, e.ceiling)
	remaining := e.remaining
	e.mu.Unlock()
	e.record(remaining)
}

// ResetBudget sets the counter to value, or to the configured limit when
// value is not positive. The configured limit itself never changes.
func (e *Engine) ResetBudget(value int) {
	if value <= 0 {
		value = e.limit
	}
	e.mu.Lock()
	e.ceiling = value
	e.remaining = value
	e.mu.Unlock()
	e.record(value)
}

func (e *Engine) Remaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remaining
}

func (e *Engine) record(remaining int) {
	if e.recorder != nil {
		e.recorder.BudgetRemaining(remaining)
	}
}
