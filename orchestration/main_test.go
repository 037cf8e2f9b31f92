package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/animus-labs/animus-scenarios/internal/platform/broker"
	"github.com/animus-labs/animus-scenarios/internal/platform/objectstore"
	"github.com/animus-labs/animus-scenarios/internal/platform/postgres"
	"github.com/animus-labs/animus-scenarios/internal/platform/redis"
)

func TestUnreachableBackendsDegradeReadiness(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	redisCfg := redis.Config{URL: "redis://127.0.0.1:1/0", Namespace: "orchestration:run", PingTimeout: 200 * time.Millisecond}
	dbCfg := postgres.Config{URL: "postgres://orch@127.0.0.1:1/orch", PingTimeout: 200 * time.Millisecond, MaxOpenConns: 2, MaxIdleConns: 1}
	tiers, err := openTiers(ctx, logger, redisCfg, dbCfg)
	if err != nil {
		t.Fatalf("openTiers() err=%v", err)
	}
	defer closeTiers(tiers)
	if len(tiers) != 2 || tiers[0].Name() != "redis" || tiers[1].Name() != "postgres" {
		t.Fatalf("tiers=%v", tiers)
	}
	for _, tier := range tiers {
		if err := timedCheck(tier.Ping)(ctx); err == nil {
			t.Fatalf("%s ping succeeded against a closed port", tier.Name())
		}
	}

	natsCfg := broker.Config{URL: "nats://127.0.0.1:1", Subject: "orchestration.runs", ConnectTimeout: 200 * time.Millisecond}
	sinks, checks, err := openMirrors(ctx, logger, natsCfg, objectstore.Config{})
	if err != nil {
		t.Fatalf("openMirrors() err=%v", err)
	}
	defer closeMirrors(sinks)
	if len(sinks) != 1 || len(checks) != 1 || checks[0].Name != "nats" {
		t.Fatalf("sinks=%d checks=%v", len(sinks), checks)
	}
	if err := checks[0].Check(ctx); err == nil {
		t.Fatalf("expected nats readiness to fail while disconnected")
	}
}

func TestOpenTiersRejectsBadConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	redisCfg := redis.Config{URL: "not a url", Namespace: "ns", PingTimeout: time.Second}
	if _, err := openTiers(context.Background(), logger, redisCfg, postgres.Config{}); err == nil {
		t.Fatalf("expected config error")
	}
}
