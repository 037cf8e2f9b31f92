package domain

import (
	"errors"
	"strings"
	"time"
)

// RunStatus is the lifecycle state of a scenario run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// RunRecord is the full snapshot of a run after its latest transition.
type RunRecord struct {
	RunID      string    `json:"run_id"`
	Status     RunStatus `json:"status"`
	Message    string    `json:"message"`
	ScenarioID string    `json:"scenario_id"`
	Parameters Metadata  `json:"parameters"`
	Result     Metadata  `json:"result,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func (r RunRecord) Validate() error {
	if strings.TrimSpace(r.RunID) == "" {
		return errors.New("run id is required")
	}
	if NormalizeRunStatus(string(r.Status)) == "" {
		return errors.New("status is required")
	}
	if strings.TrimSpace(r.ScenarioID) == "" {
		return errors.New("scenario id is required")
	}
	return nil
}

// Terminal reports whether no further transition can follow.
func (r RunRecord) Terminal() bool {
	return r.Status.Terminal()
}

func (r RunRecord) Clone() RunRecord {
	out := r
	out.Parameters = r.Parameters.Clone()
	out.Result = r.Result.Clone()
	return out
}

func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// NormalizeRunStatus maps free-form status values to canonical run states.
func NormalizeRunStatus(value string) RunStatus {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(RunStatusQueued), "pending":
		return RunStatusQueued
	case string(RunStatusRunning):
		return RunStatusRunning
	case string(RunStatusSucceeded), "completed":
		return RunStatusSucceeded
	case string(RunStatusFailed):
		return RunStatusFailed
	case string(RunStatusCancelled), "canceled":
		return RunStatusCancelled
	default:
		return ""
	}
}

// CanTransitionRunStatus enforces forward-only progression. Repeating a
// non-terminal state is allowed; nothing leaves a terminal state.
func CanTransitionRunStatus(current, next RunStatus) bool {
	if current == "" || next == "" {
		return false
	}
	if current.Terminal() {
		return false
	}
	if current == next {
		return true
	}
	return runStatusOrder(current) < runStatusOrder(next)
}

func runStatusOrder(status RunStatus) int {
	switch status {
	case RunStatusQueued:
		return 1
	case RunStatusRunning:
		return 2
	case RunStatusSucceeded, RunStatusFailed, RunStatusCancelled:
		return 3
	default:
		return 0
	}
}
