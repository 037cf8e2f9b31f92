// Package store persists run records across an in-process cache and optional
// cache and durable tiers.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/animus-labs/animus-scenarios/internal/domain"
	"github.com/animus-labs/animus-scenarios/internal/platform/env"
)

var ErrNotFound = errors.New("not found")

const DefaultCacheSize = 1024

// Tier is one external backend holding the JSON document for each run.
type Tier interface {
	Name() string
	Put(ctx context.Context, runID string, payload []byte) error
	// Get returns ErrNotFound when the tier has no document for runID.
	Get(ctx context.Context, runID string) ([]byte, error)
	Ping(ctx context.Context) error
	Close() error
}

type TierFailureRecorder interface {
	TierFailure(tier, op string)
}

type Config struct {
	CacheSize int
}

func ConfigFromEnv() (Config, error) {
	size, err := env.Int("RUN_CACHE_SIZE", DefaultCacheSize)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{CacheSize: size}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.CacheSize <= 0 {
		return errors.New("RUN_CACHE_SIZE must be positive")
	}
	return nil
}

// Store writes every configured tier independently. A tier failure is logged
// and counted but never returned to the caller. With no tiers the in-process
// map is the only copy.
type Store struct {
	logger   *slog.Logger
	recorder TierFailureRecorder
	memory   cache
	tiers    []Tier
}

func New(cfg Config, logger *slog.Logger, recorder TierFailureRecorder, tiers ...Tier) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	active := make([]Tier, 0, len(tiers))
	for _, tier := range tiers {
		if tier != nil {
			active = append(active, tier)
		}
	}

	var memory cache
	if len(active) == 0 {
		memory = newMapCache()
	} else {
		if cfg.CacheSize <= 0 {
			cfg.CacheSize = DefaultCacheSize
		}
		lruCache, err := newLRUCache(cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		memory = lruCache
	}
	return &Store{
		logger:   logger,
		recorder: recorder,
		memory:   memory,
		tiers:    active,
	}, nil
}

func (s *Store) Put(ctx context.Context, record domain.RunRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	s.memory.put(record.Clone())

	for _, tier := range s.tiers {
		if err := tier.Put(ctx, record.RunID, payload); err != nil {
			s.tierFailed(tier, "put", record.RunID, err)
		}
	}
	return nil
}

// Get reads the memory cache, then each tier in order, caching the first hit.
func (s *Store) Get(ctx context.Context, runID string) (domain.RunRecord, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return domain.RunRecord{}, ErrNotFound
	}
	if record, ok := s.memory.get(runID); ok {
		return record.Clone(), nil
	}

	for _, tier := range s.tiers {
		payload, err := tier.Get(ctx, runID)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				s.tierFailed(tier, "get", runID, err)
			}
			continue
		}
		var record domain.RunRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			s.tierFailed(tier, "decode", runID, err)
			continue
		}
		s.memory.put(record.Clone())
		return record, nil
	}
	return domain.RunRecord{}, ErrNotFound
}

// Tiers lists the configured external tiers, in read order.
func (s *Store) Tiers() []Tier {
	return append([]Tier(nil), s.tiers...)
}

func (s *Store) Close() error {
	var errs []error
	for _, tier := range s.tiers {
		if err := tier.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", tier.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (s *Store) tierFailed(tier Tier, op, runID string, err error) {
	s.logger.Warn("store tier failed", "tier", tier.Name(), "op", op, "run_id", runID, "error", err)
	if s.recorder != nil {
		s.recorder.TierFailure(tier.Name(), op)
	}
}
