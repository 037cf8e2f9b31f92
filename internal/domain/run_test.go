package domain

import (
	"reflect"
	"testing"
)

func TestCanTransitionRunStatus(t *testing.T) {
	cases := []struct {
		from, to RunStatus
		want     bool
	}{
		{RunStatusQueued, RunStatusRunning, true},
		{RunStatusQueued, RunStatusFailed, true},
		{RunStatusRunning, RunStatusRunning, true},
		{RunStatusRunning, RunStatusSucceeded, true},
		{RunStatusRunning, RunStatusQueued, false},
		{RunStatusSucceeded, RunStatusFailed, false},
		{RunStatusCancelled, RunStatusCancelled, false},
		{"", RunStatusQueued, false},
	}
	for _, tc := range cases {
		if got := CanTransitionRunStatus(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransitionRunStatus(%q, %q)=%v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestNormalizeRunStatus(t *testing.T) {
	if got := NormalizeRunStatus(" Canceled "); got != RunStatusCancelled {
		t.Fatalf("NormalizeRunStatus=%q", got)
	}
	if got := NormalizeRunStatus("bogus"); got != "" {
		t.Fatalf("expected empty for unknown status, got %q", got)
	}
}

func TestRunRecordCloneIsDeep(t *testing.T) {
	rec := RunRecord{
		RunID:      "run-1",
		Status:     RunStatusQueued,
		ScenarioID: "quant_factor",
		Parameters: Metadata{"universe": []any{"AAPL"}, "weights": map[string]any{"value": 0.5}},
	}
	clone := rec.Clone()
	clone.Parameters["universe"].([]any)[0] = "MSFT"
	clone.Parameters["weights"].(map[string]any)["value"] = 1.0

	if rec.Parameters["universe"].([]any)[0] != "AAPL" {
		t.Fatalf("clone aliased slice")
	}
	if rec.Parameters["weights"].(map[string]any)["value"] != 0.5 {
		t.Fatalf("clone aliased nested map")
	}
	if !reflect.DeepEqual(rec.Clone(), rec) {
		t.Fatalf("clone differs from source")
	}
}

func TestRunRecordValidate(t *testing.T) {
	if err := (RunRecord{RunID: "r", Status: "weird", ScenarioID: "s"}).Validate(); err == nil {
		t.Fatalf("expected status error")
	}
	if err := (RunRecord{RunID: "r", Status: RunStatusRunning, ScenarioID: "s"}).Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
}

func TestProfileValidate(t *testing.T) {
	if err := (Profile{RiskProfile: "Aggressive"}).Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
	if err := (Profile{RiskProfile: "yolo"}).Validate(); err == nil {
		t.Fatalf("expected risk profile error")
	}
}
