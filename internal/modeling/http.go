package modeling

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"
)

const maxResponseBytes = 4 << 20

type runRequest struct {
	ScenarioID string         `json:"scenario_id"`
	Parameters map[string]any `json:"parameters"`
}

// HTTPExecutor posts runs to <endpoint>/scenarios/run behind a circuit
// breaker. Rejections (4xx) do not count toward tripping the breaker.
type HTTPExecutor struct {
	endpoint string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
}

func NewHTTPExecutor(cfg Config, client *http.Client, logger *slog.Logger) (*HTTPExecutor, error) {
	if !cfg.Enabled() {
		return nil, errors.New("modeling backend is disabled")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{}
	}
	failures := uint32(cfg.BreakerFailures)
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "modeling",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			var rejected *RejectedError
			return err == nil || errors.As(err, &rejected) ||
				errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "dependency", name, "from", from.String(), "to", to.String())
		},
	})
	return &HTTPExecutor{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		client:   client,
		breaker:  breaker,
	}, nil
}

func (e *HTTPExecutor) Execute(ctx context.Context, scenarioID string, parameters map[string]any) (map[string]any, error) {
	if parameters == nil {
		parameters = map[string]any{}
	}
	body, err := json.Marshal(runRequest{ScenarioID: scenarioID, Parameters: parameters})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	out, err := e.breaker.Execute(func() (any, error) {
		return e.post(ctx, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open: %v", ErrUnavailable, err)
		}
		return nil, err
	}
	result, _ := out.(map[string]any)
	if result == nil {
		result = map[string]any{}
	}
	return result, nil
}

// State reports the breaker state: closed, half-open or open.
func (e *HTTPExecutor) State() string {
	return e.breaker.State().String()
}

// Check fails while the breaker is open, so /readyz shows a backend that
// runs are currently failing fast against.
func (e *HTTPExecutor) Check(context.Context) error {
	if e.breaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("%w: circuit open", ErrUnavailable)
	}
	return nil
}

func (e *HTTPExecutor) post(ctx context.Context, body []byte) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+"/scenarios/run", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, &RejectedError{StatusCode: resp.StatusCode, Message: errorMessage(payload)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	result := map[string]any{}
	if len(bytes.TrimSpace(payload)) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return result, nil
}

func errorMessage(payload []byte) string {
	var body struct {
		Detail  any    `json:"detail"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		switch {
		case body.Detail != nil:
			if s, ok := body.Detail.(string); ok {
				return s
			}
			if b, err := json.Marshal(body.Detail); err == nil {
				return string(b)
			}
		case body.Message != "":
			return body.Message
		case body.Error != "":
			return body.Error
		}
	}
	text := strings.TrimSpace(string(payload))
	if len(text) > 512 {
		text = text[:512]
	}
	return text
}
