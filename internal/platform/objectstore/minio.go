package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func NewMinIOClient(cfg Config) (*minio.Client, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("endpoint is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	}
	return minio.New(cfg.Endpoint, opts)
}

func EnsureBucket(ctx context.Context, client *minio.Client, cfg Config) error {
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return fmt.Errorf("bucket exists: %w", err)
	}
	if exists {
		return nil
	}
	if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
		return fmt.Errorf("make bucket: %w", err)
	}
	return nil
}

func CheckBucket(ctx context.Context, client *minio.Client, cfg Config) error {
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return fmt.Errorf("bucket exists: %w", err)
	}
	if !exists {
		return fmt.Errorf("archive bucket missing: %s", cfg.Bucket)
	}
	return nil
}

// JSONWriter uploads JSON documents into the configured bucket, creating the
// bucket on the first write if startup could not.
type JSONWriter struct {
	client *minio.Client
	cfg    Config

	mu          sync.Mutex
	bucketReady bool
}

func NewJSONWriter(client *minio.Client, cfg Config) (*JSONWriter, error) {
	if client == nil {
		return nil, fmt.Errorf("minio client is required")
	}
	return &JSONWriter{client: client, cfg: cfg}, nil
}

func (w *JSONWriter) PutJSON(ctx context.Context, runID string, body []byte) error {
	if w == nil || w.client == nil {
		return fmt.Errorf("minio writer not initialized")
	}
	if err := w.ensureBucket(ctx); err != nil {
		return err
	}
	_, err := w.client.PutObject(ctx, w.cfg.Bucket, w.cfg.ObjectKey(runID), bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	return err
}

// MarkBucketReady records that startup already ensured the bucket.
func (w *JSONWriter) MarkBucketReady() {
	w.mu.Lock()
	w.bucketReady = true
	w.mu.Unlock()
}

func (w *JSONWriter) ensureBucket(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.bucketReady {
		return nil
	}
	if err := EnsureBucket(ctx, w.client, w.cfg); err != nil {
		return err
	}
	w.bucketReady = true
	return nil
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
