package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/animus-labs/animus-scenarios/internal/catalog"
	"github.com/animus-labs/animus-scenarios/internal/embedding"
	"github.com/animus-labs/animus-scenarios/internal/events"
	"github.com/animus-labs/animus-scenarios/internal/llm"
	"github.com/animus-labs/animus-scenarios/internal/modeling"
	"github.com/animus-labs/animus-scenarios/internal/platform/broker"
	"github.com/animus-labs/animus-scenarios/internal/platform/env"
	"github.com/animus-labs/animus-scenarios/internal/platform/httpserver"
	"github.com/animus-labs/animus-scenarios/internal/platform/metrics"
	"github.com/animus-labs/animus-scenarios/internal/platform/objectstore"
	"github.com/animus-labs/animus-scenarios/internal/platform/postgres"
	"github.com/animus-labs/animus-scenarios/internal/platform/redis"
	"github.com/animus-labs/animus-scenarios/internal/policy"
	"github.com/animus-labs/animus-scenarios/internal/ranking"
	"github.com/animus-labs/animus-scenarios/internal/runner"
	"github.com/animus-labs/animus-scenarios/internal/store"
	"github.com/nats-io/nats.go"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpCfg, err := httpserver.ConfigFromEnv("orchestration", "ORCHESTRATION", ":8100")
	if err != nil {
		logger.Error("invalid http config", "error", err)
		os.Exit(2)
	}
	dimension, err := env.Int("EMBEDDING_DIMENSION", embedding.DefaultDimension)
	if err != nil || dimension <= 0 {
		logger.Error("invalid env", "key", "EMBEDDING_DIMENSION", "error", err)
		os.Exit(2)
	}

	rankCfg, err := ranking.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid ranking config", "error", err)
		os.Exit(2)
	}
	rules, err := policy.LoadFile(rankCfg.PolicyFile)
	if err != nil {
		logger.Error("invalid ranking policy", "path", rankCfg.PolicyFile, "error", err)
		os.Exit(2)
	}
	llmCfg, err := llm.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid llm config", "error", err)
		os.Exit(2)
	}
	modelCfg, err := modeling.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid modeling config", "error", err)
		os.Exit(2)
	}
	runCfg, err := runner.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid runner config", "error", err)
		os.Exit(2)
	}
	storeCfg, err := store.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid store config", "error", err)
		os.Exit(2)
	}
	redisCfg, err := redis.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid redis config", "error", err)
		os.Exit(2)
	}
	dbCfg, err := postgres.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid database config", "error", err)
		os.Exit(2)
	}
	natsCfg, err := broker.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid nats config", "error", err)
		os.Exit(2)
	}
	archiveCfg, err := objectstore.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid archive config", "error", err)
		os.Exit(2)
	}

	reg := metrics.New()

	embedder := embedding.New(dimension)
	cat := catalog.New(embedder)
	ranker, err := ranking.New(cat, embedder, rules, rankCfg)
	if err != nil {
		logger.Error("ranking engine init failed", "error", err)
		os.Exit(2)
	}

	provider, err := llm.NewProvider(llmCfg)
	if err != nil {
		logger.Error("llm provider init failed", "error", err)
		os.Exit(2)
	}
	completions, err := llm.NewEngine(provider, llmCfg, logger, reg)
	if err != nil {
		logger.Error("llm engine init failed", "error", err)
		os.Exit(2)
	}

	var readiness []httpserver.ReadinessCheck

	tiers, err := openTiers(ctx, logger, redisCfg, dbCfg)
	if err != nil {
		logger.Error("invalid run store config", "error", err)
		os.Exit(2)
	}
	for _, tier := range tiers {
		readiness = append(readiness, httpserver.ReadinessCheck{Name: tier.Name(), Check: timedCheck(tier.Ping)})
	}
	runStore, err := store.New(storeCfg, logger, reg, tiers...)
	if err != nil {
		logger.Error("run store init failed", "error", err)
		os.Exit(2)
	}
	defer func() { _ = runStore.Close() }()

	sinks, checks, err := openMirrors(ctx, logger, natsCfg, archiveCfg)
	if err != nil {
		logger.Error("invalid event mirror config", "error", err)
		os.Exit(2)
	}
	readiness = append(readiness, checks...)
	broadcaster := events.NewBroadcaster(logger, reg, sinks...)
	defer func() { _ = broadcaster.Close() }()

	deps := runner.Deps{
		Store:   runStore,
		Events:  broadcaster,
		Catalog: cat,
		Logger:  logger,
		Metrics: reg,
	}
	if modelCfg.Enabled() {
		executor, err := modeling.NewHTTPExecutor(modelCfg, &http.Client{}, logger)
		if err != nil {
			logger.Error("modeling client init failed", "error", err)
			os.Exit(2)
		}
		deps.Executor = executor
		readiness = append(readiness, httpserver.ReadinessCheck{Name: "modeling", Check: executor.Check})
	} else {
		deps.ExecutorUnavailable = errors.New("MODELING_BACKEND=" + modelCfg.Backend)
		logger.Warn("modeling backend disabled; runs will fail", "backend", modelCfg.Backend)
	}
	orchestrator, err := runner.New(deps, runCfg)
	if err != nil {
		logger.Error("orchestrator init failed", "error", err)
		os.Exit(2)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpserver.Healthz("orchestration"))
	mux.HandleFunc("/readyz", httpserver.ReadyzWithChecks("orchestration", readiness...))
	mux.Handle("GET /metrics", reg.Handler())

	api := newOrchestrationAPI(logger, ranker, completions, orchestrator, reg)
	api.register(mux)

	logger.Info("orchestration starting",
		"scenarios", cat.Len(),
		"tiers", len(tiers),
		"mirrors", len(sinks),
		"llm_provider", llmCfg.Provider,
		"modeling_backend", modelCfg.Backend,
	)
	serveErr := httpserver.Run(ctx, logger, httpCfg, httpserver.Wrap(logger, "orchestration", mux, reg))

	drainCtx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()
	if err := orchestrator.Shutdown(drainCtx); err != nil {
		logger.Warn("orchestrator shutdown incomplete", "error", err)
	}

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		logger.Error("server failed", "error", serveErr)
		os.Exit(1)
	}
}

// openTiers builds every configured external tier, cache first. An
// unreachable backend is logged and kept: its writes fail best-effort and
// /readyz reports it until it comes back. Only configuration errors return.
func openTiers(ctx context.Context, logger *slog.Logger, redisCfg redis.Config, dbCfg postgres.Config) ([]store.Tier, error) {
	var tiers []store.Tier
	if redisCfg.Enabled() {
		client, err := redis.NewClient(redisCfg)
		if err != nil {
			return nil, err
		}
		tier, err := store.NewRedisTier(client, redisCfg.Namespace, redisCfg.TTL)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		if err := redis.Ping(ctx, client, redisCfg); err != nil {
			logger.Warn("redis tier unreachable at startup", "error", err)
		}
		tiers = append(tiers, tier)
	}
	if dbCfg.Enabled() {
		db, err := postgres.New(dbCfg)
		if err != nil {
			closeTiers(tiers)
			return nil, err
		}
		tier, err := store.NewPostgresTier(db)
		if err != nil {
			_ = db.Close()
			closeTiers(tiers)
			return nil, err
		}
		schemaCtx, cancel := context.WithTimeout(ctx, dbCfg.PingTimeout)
		err = tier.EnsureSchema(schemaCtx)
		cancel()
		if err != nil {
			logger.Warn("postgres tier unreachable at startup", "error", err)
		}
		tiers = append(tiers, tier)
	}
	if len(tiers) == 0 {
		logger.Warn("no persistence tier configured; runs are kept in memory only")
	}
	return tiers, nil
}

func closeTiers(tiers []store.Tier) {
	for _, tier := range tiers {
		_ = tier.Close()
	}
}

// openMirrors builds the configured event sinks. Like the tiers, an
// unreachable broker or archive only degrades readiness.
func openMirrors(ctx context.Context, logger *slog.Logger, natsCfg broker.Config, archiveCfg objectstore.Config) ([]events.Mirror, []httpserver.ReadinessCheck, error) {
	var (
		sinks  []events.Mirror
		checks []httpserver.ReadinessCheck
	)
	if natsCfg.Enabled() {
		conn, err := broker.Connect(natsCfg, logger)
		if err != nil {
			return nil, nil, err
		}
		mirror, err := events.NewNATSMirror(conn, natsCfg.Subject)
		if err != nil {
			conn.Close()
			return nil, nil, err
		}
		if !conn.IsConnected() {
			logger.Warn("nats unreachable at startup; retrying in background", "url", natsCfg.URL)
		}
		sinks = append(sinks, mirror)
		checks = append(checks, httpserver.ReadinessCheck{Name: "nats", Check: natsCheck(conn)})
	}
	if archiveCfg.Enabled() {
		client, err := objectstore.NewMinIOClient(archiveCfg)
		if err != nil {
			closeMirrors(sinks)
			return nil, nil, err
		}
		writer, err := objectstore.NewJSONWriter(client, archiveCfg)
		if err != nil {
			closeMirrors(sinks)
			return nil, nil, err
		}
		startupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = objectstore.EnsureBucket(startupCtx, client, archiveCfg)
		cancel()
		if err != nil {
			logger.Warn("run archive unreachable at startup", "bucket", archiveCfg.Bucket, "error", err)
		} else {
			writer.MarkBucketReady()
		}
		mirror, err := events.NewArchiveMirror(writer)
		if err != nil {
			closeMirrors(sinks)
			return nil, nil, err
		}
		sinks = append(sinks, mirror)
		checks = append(checks, httpserver.ReadinessCheck{
			Name: "minio",
			Check: timedCheck(func(ctx context.Context) error {
				return objectstore.CheckBucket(ctx, client, archiveCfg)
			}),
		})
	}
	return sinks, checks, nil
}

func natsCheck(conn *nats.Conn) func(context.Context) error {
	return func(context.Context) error {
		if status := conn.Status(); status != nats.CONNECTED {
			return errors.New("nats " + status.String())
		}
		return nil
	}
}

func closeMirrors(sinks []events.Mirror) {
	for _, sink := range sinks {
		_ = sink.Close()
	}
}

func timedCheck(check func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		checkCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
		defer cancel()
		return check(checkCtx)
	}
}
