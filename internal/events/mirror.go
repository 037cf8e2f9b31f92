package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
)

type natsConn interface {
	Publish(subject string, data []byte) error
	Drain() error
	Close()
}

// NATSMirror publishes every event as JSON on one subject.
type NATSMirror struct {
	conn    natsConn
	subject string
}

func NewNATSMirror(conn *nats.Conn, subject string) (*NATSMirror, error) {
	if conn == nil {
		return nil, errors.New("nats connection is required")
	}
	if strings.TrimSpace(subject) == "" {
		return nil, errors.New("subject is required")
	}
	return &NATSMirror{conn: conn, subject: subject}, nil
}

func (m *NATSMirror) Name() string { return "nats" }

func (m *NATSMirror) Publish(ctx context.Context, evt Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := m.conn.Publish(m.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", m.subject, err)
	}
	return nil
}

// Close drains pending publishes before closing the connection. A
// connection that never came up cannot drain and is closed outright.
func (m *NATSMirror) Close() error {
	if err := m.conn.Drain(); err != nil {
		m.conn.Close()
		return err
	}
	return nil
}

// ObjectWriter stores one JSON document per run id.
type ObjectWriter interface {
	PutJSON(ctx context.Context, runID string, body []byte) error
}

// ArchiveMirror writes terminal run records to object storage.
type ArchiveMirror struct {
	writer ObjectWriter
}

func NewArchiveMirror(writer ObjectWriter) (*ArchiveMirror, error) {
	if writer == nil {
		return nil, errors.New("object writer is required")
	}
	return &ArchiveMirror{writer: writer}, nil
}

func (m *ArchiveMirror) Name() string { return "archive" }

func (m *ArchiveMirror) Publish(ctx context.Context, evt Event) error {
	if !evt.Record.Terminal() {
		return nil
	}
	body, err := json.Marshal(evt.Record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return m.writer.PutJSON(ctx, evt.Record.RunID, body)
}

func (m *ArchiveMirror) Close() error { return nil }
