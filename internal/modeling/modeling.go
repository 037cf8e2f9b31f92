// Package modeling calls the external scenario modeling backend.
package modeling

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable marks failures to reach the backend, as opposed to the
// backend rejecting a request.
var ErrUnavailable = errors.New("modeling backend unavailable")

// Executor runs one scenario and returns its result payload.
type Executor interface {
	Execute(ctx context.Context, scenarioID string, parameters map[string]any) (map[string]any, error)
}

// FuncExecutor adapts a function to Executor.
type FuncExecutor func(ctx context.Context, scenarioID string, parameters map[string]any) (map[string]any, error)

func (f FuncExecutor) Execute(ctx context.Context, scenarioID string, parameters map[string]any) (map[string]any, error) {
	return f(ctx, scenarioID, parameters)
}

// RejectedError is a domain error returned by the backend for a request it
// understood but refused.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("modeling backend rejected request (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("modeling backend rejected request (status %d): %s", e.StatusCode, e.Message)
}
