package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/animus-labs/animus-scenarios/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func record(status domain.RunStatus) domain.RunRecord {
	return domain.RunRecord{
		RunID:      "run-1",
		Status:     status,
		ScenarioID: "quant_factor",
		Parameters: domain.Metadata{"universe": "sp500"},
		Timestamp:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func nextStatus(t *testing.T, sub *Subscription) domain.RunStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	rec, err := sub.Next(ctx)
	if err != nil {
		t.Fatalf("Next() err=%v", err)
	}
	return rec.Status
}

func TestSubscribeDeliversSnapshotThenUpdates(t *testing.T) {
	b := NewBroadcaster(testLogger(), nil)
	sub := b.Subscribe("run-1", record(domain.RunStatusQueued))
	defer sub.Close()

	b.Publish(record(domain.RunStatusRunning))
	b.Publish(record(domain.RunStatusSucceeded))

	for _, want := range []domain.RunStatus{domain.RunStatusQueued, domain.RunStatusRunning, domain.RunStatusSucceeded} {
		if got := nextStatus(t, sub); got != want {
			t.Fatalf("status=%s, want %s", got, want)
		}
	}
	if _, err := sub.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("err=%v, want io.EOF after terminal", err)
	}
	if b.Subscribers("run-1") != 0 {
		t.Fatalf("terminal publish should release subscribers")
	}
}

func TestSubscribeTerminalSnapshotEndsImmediately(t *testing.T) {
	b := NewBroadcaster(testLogger(), nil)
	sub := b.Subscribe("run-1", record(domain.RunStatusFailed))
	if got := nextStatus(t, sub); got != domain.RunStatusFailed {
		t.Fatalf("status=%s", got)
	}
	if _, err := sub.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("err=%v, want io.EOF", err)
	}
	if b.Subscribers("run-1") != 0 {
		t.Fatalf("terminal snapshot should not register")
	}
}

func TestCloseDoesNotAffectOtherSubscribers(t *testing.T) {
	b := NewBroadcaster(testLogger(), nil)
	first := b.Subscribe("run-1", record(domain.RunStatusQueued))
	second := b.Subscribe("run-1", record(domain.RunStatusQueued))
	first.Close()
	if b.Subscribers("run-1") != 1 {
		t.Fatalf("Subscribers=%d, want 1", b.Subscribers("run-1"))
	}
	if _, err := first.Next(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("err=%v, want ErrClosed", err)
	}

	b.Publish(record(domain.RunStatusRunning))
	if got := nextStatus(t, second); got != domain.RunStatusQueued {
		t.Fatalf("status=%s", got)
	}
	if got := nextStatus(t, second); got != domain.RunStatusRunning {
		t.Fatalf("status=%s", got)
	}
	second.Close()
	if b.Subscribers("run-1") != 0 {
		t.Fatalf("Subscribers=%d, want 0", b.Subscribers("run-1"))
	}
}

func TestPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	b := NewBroadcaster(testLogger(), nil)
	sub := b.Subscribe("run-1", record(domain.RunStatusQueued))
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			b.Publish(record(domain.RunStatusRunning))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("publisher blocked on unread subscriber")
	}
}

func TestPublishCopiesRecord(t *testing.T) {
	b := NewBroadcaster(testLogger(), nil)
	sub := b.Subscribe("run-1", record(domain.RunStatusQueued))
	defer sub.Close()

	rec := record(domain.RunStatusRunning)
	b.Publish(rec)
	rec.Parameters["universe"] = "mutated"

	_ = nextStatus(t, sub)
	got, err := sub.Next(context.Background())
	if err != nil {
		t.Fatalf("Next() err=%v", err)
	}
	if got.Parameters["universe"] != "sp500" {
		t.Fatalf("subscriber saw mutation: %v", got.Parameters)
	}
}

func TestNextHonoursContext(t *testing.T) {
	b := NewBroadcaster(testLogger(), nil)
	sub := b.Subscribe("run-1", record(domain.RunStatusQueued))
	defer sub.Close()
	_ = nextStatus(t, sub)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := sub.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v, want DeadlineExceeded", err)
	}
}

type fakeMirror struct {
	name string
	err  error

	mu     sync.Mutex
	events []Event
	closed bool
}

func (m *fakeMirror) Name() string { return m.name }

func (m *fakeMirror) Publish(_ context.Context, evt Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return m.err
}

func (m *fakeMirror) Close() error {
	m.closed = true
	return nil
}

type failureCounter struct {
	mu    sync.Mutex
	sinks []string
}

func (f *failureCounter) MirrorFailure(sink string) {
	f.mu.Lock()
	f.sinks = append(f.sinks, sink)
	f.mu.Unlock()
}

func TestMirrorFailureIsAbsorbed(t *testing.T) {
	broken := &fakeMirror{name: "broken", err: errors.New("broker down")}
	healthy := &fakeMirror{name: "healthy"}
	counter := &failureCounter{}
	b := NewBroadcaster(testLogger(), counter, broken, nil, healthy)

	sub := b.Subscribe("run-1", record(domain.RunStatusQueued))
	defer sub.Close()
	b.Publish(record(domain.RunStatusRunning))
	b.Mirror(context.Background(), record(domain.RunStatusRunning))

	if len(healthy.events) != 1 || healthy.events[0].Type != "run.running" {
		t.Fatalf("healthy events=%v", healthy.events)
	}
	if len(counter.sinks) != 1 || counter.sinks[0] != "broken" {
		t.Fatalf("failures=%v", counter.sinks)
	}
	_ = nextStatus(t, sub)
	if got := nextStatus(t, sub); got != domain.RunStatusRunning {
		t.Fatalf("in-process delivery affected by mirror failure: %s", got)
	}

	if err := b.Close(); err != nil {
		t.Fatalf("Close() err=%v", err)
	}
	if !broken.closed || !healthy.closed {
		t.Fatalf("sinks not closed")
	}
}

func TestEventMarshalJSON(t *testing.T) {
	evt := Event{Type: "run.succeeded", Record: record(domain.RunStatusSucceeded), Time: time.Unix(1700000000, 500000000)}
	data, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("Marshal() err=%v", err)
	}
	var decoded struct {
		Event   string           `json:"event"`
		Payload domain.RunRecord `json:"payload"`
		TS      float64          `json:"ts"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() err=%v", err)
	}
	if decoded.Event != "run.succeeded" || decoded.Payload.RunID != "run-1" || decoded.TS != 1700000000.5 {
		t.Fatalf("decoded=%+v", decoded)
	}
}

type fakeConn struct {
	subject  string
	data     []byte
	drained  bool
	drainErr error
	closed   bool
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	c.subject = subject
	c.data = data
	return nil
}

func (c *fakeConn) Drain() error {
	c.drained = true
	return c.drainErr
}

func (c *fakeConn) Close() {
	c.closed = true
}

func TestNATSMirrorPublish(t *testing.T) {
	conn := &fakeConn{}
	m := &NATSMirror{conn: conn, subject: "orchestration.runs"}
	if err := m.Publish(context.Background(), NewEvent(record(domain.RunStatusQueued))); err != nil {
		t.Fatalf("Publish() err=%v", err)
	}
	if conn.subject != "orchestration.runs" {
		t.Fatalf("subject=%q", conn.subject)
	}
	var msg map[string]any
	if err := json.Unmarshal(conn.data, &msg); err != nil {
		t.Fatalf("Unmarshal() err=%v", err)
	}
	if msg["event"] != "run.queued" {
		t.Fatalf("event=%v", msg["event"])
	}
	if payload, _ := msg["payload"].(map[string]any); payload["run_id"] != "run-1" {
		t.Fatalf("payload=%v", msg["payload"])
	}
	if err := m.Close(); err != nil || !conn.drained {
		t.Fatalf("Close() err=%v drained=%v", err, conn.drained)
	}
	if _, err := NewNATSMirror(nil, "x"); err == nil {
		t.Fatalf("expected nil connection error")
	}
}

func TestNATSMirrorCloseWithoutConnection(t *testing.T) {
	conn := &fakeConn{drainErr: errors.New("nats: connection reconnecting")}
	m := &NATSMirror{conn: conn, subject: "orchestration.runs"}
	if err := m.Close(); err == nil {
		t.Fatalf("expected drain error")
	}
	if !conn.closed {
		t.Fatalf("connection left open after failed drain")
	}
}

type fakeWriter struct {
	keys []string
}

func (w *fakeWriter) PutJSON(_ context.Context, runID string, body []byte) error {
	var rec domain.RunRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return err
	}
	w.keys = append(w.keys, runID+":"+string(rec.Status))
	return nil
}

func TestArchiveMirrorOnlyTerminal(t *testing.T) {
	w := &fakeWriter{}
	m, err := NewArchiveMirror(w)
	if err != nil {
		t.Fatalf("NewArchiveMirror() err=%v", err)
	}
	for _, status := range []domain.RunStatus{domain.RunStatusQueued, domain.RunStatusRunning, domain.RunStatusSucceeded} {
		if err := m.Publish(context.Background(), NewEvent(record(status))); err != nil {
			t.Fatalf("Publish() err=%v", err)
		}
	}
	if len(w.keys) != 1 || w.keys[0] != "run-1:succeeded" {
		t.Fatalf("keys=%v", w.keys)
	}
}

func TestSnapshotYieldsOnce(t *testing.T) {
	sub := Snapshot(record(domain.RunStatusRunning))
	if got := nextStatus(t, sub); got != domain.RunStatusRunning {
		t.Fatalf("status=%s", got)
	}
	if _, err := sub.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("err=%v, want io.EOF", err)
	}
	sub.Close()
}
