package httpserver

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

func Healthz(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]any{"service": service, "status": "ok"})
	}
}

type ReadinessCheck struct {
	Name  string
	Check func(context.Context) error
}

type checkResult struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// ReadyzWithChecks runs every check concurrently and answers 503 if any fail.
// Results keep the order the checks were given in.
func ReadyzWithChecks(service string, checks ...ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := make([]checkResult, len(checks))
		var g errgroup.Group
		for i, check := range checks {
			g.Go(func() error {
				start := time.Now()
				res := checkResult{Name: check.Name, Status: "ok"}
				if err := check.Check(r.Context()); err != nil {
					res.Status = "fail"
					res.Error = err.Error()
				}
				res.DurationMs = time.Since(start).Milliseconds()
				results[i] = res
				return nil
			})
		}
		_ = g.Wait()

		status, code := "ready", http.StatusOK
		for _, res := range results {
			if res.Status != "ok" {
				status, code = "not_ready", http.StatusServiceUnavailable
				break
			}
		}
		WriteJSON(w, code, map[string]any{
			"service": service,
			"status":  status,
			"checks":  results,
		})
	}
}
