package postgres

import (
	"context"
	"testing"
)

func TestConfigFromEnvDisabledByDefault(t *testing.T) {
	t.Setenv("ORCHESTRATION_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "")
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() err=%v", err)
	}
	if cfg.Enabled() {
		t.Fatalf("expected durable tier disabled without url")
	}
	if _, err := Open(context.Background(), cfg); err == nil {
		t.Fatalf("expected Open to reject empty url")
	}
}

func TestConfigFromEnvPrefersOrchestrationURL(t *testing.T) {
	t.Setenv("ORCHESTRATION_DATABASE_URL", "postgres://orch@localhost/orch")
	t.Setenv("DATABASE_URL", "postgres://shared@localhost/shared")
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() err=%v", err)
	}
	if cfg.URL != "postgres://orch@localhost/orch" {
		t.Fatalf("URL=%q", cfg.URL)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{URL: "postgres://x", PingTimeout: 1, MaxOpenConns: 1, MaxIdleConns: 2}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected idle > open error")
	}
	cfg.MaxIdleConns = 1
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
}

func TestNewDoesNotDial(t *testing.T) {
	cfg := Config{URL: "postgres://orch@127.0.0.1:1/orch", PingTimeout: 1, MaxOpenConns: 2, MaxIdleConns: 1}
	db, err := New(cfg)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	_ = db.Close()
}
