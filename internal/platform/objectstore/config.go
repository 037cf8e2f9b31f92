package objectstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/animus-labs/animus-scenarios/internal/platform/env"
)

// Config describes the run archive bucket. An empty endpoint disables it.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	Bucket    string
	Prefix    string
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != ""
}

func ConfigFromEnv() (Config, error) {
	useSSL, err := env.Bool("ARCHIVE_MINIO_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Endpoint:  strings.TrimSpace(env.String("ARCHIVE_MINIO_ENDPOINT", "")),
		AccessKey: env.String("ARCHIVE_MINIO_ACCESS_KEY", ""),
		SecretKey: env.String("ARCHIVE_MINIO_SECRET_KEY", ""),
		Region:    env.String("ARCHIVE_MINIO_REGION", "us-east-1"),
		UseSSL:    useSSL,
		Bucket:    env.String("ARCHIVE_MINIO_BUCKET", "orchestration-runs"),
		Prefix:    env.String("ARCHIVE_MINIO_PREFIX", "runs"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return errors.New("access key is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("secret key is required")
	}
	if strings.TrimSpace(c.Region) == "" {
		return errors.New("region is required")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return errors.New("bucket is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("endpoint must not include scheme: %q", c.Endpoint)
	}
	return nil
}

// ObjectKey returns the archive key for a run id.
func (c Config) ObjectKey(runID string) string {
	prefix := strings.Trim(strings.TrimSpace(c.Prefix), "/")
	if prefix == "" {
		return runID + ".json"
	}
	return prefix + "/" + runID + ".json"
}
