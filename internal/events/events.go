// Package events fans run transitions out to in-process subscribers and
// mirrors them to external sinks.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/animus-labs/animus-scenarios/internal/domain"
)

// ErrClosed is returned by Next after Close.
var ErrClosed = errors.New("subscription closed")

// Event is the envelope mirrored to external sinks.
type Event struct {
	Type   string
	Record domain.RunRecord
	Time   time.Time
}

func NewEvent(record domain.RunRecord) Event {
	return Event{Type: "run." + string(record.Status), Record: record, Time: time.Now().UTC()}
}

// MarshalJSON encodes {"event", "payload", "ts"} with ts in fractional Unix
// seconds.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Event   string           `json:"event"`
		Payload domain.RunRecord `json:"payload"`
		TS      float64          `json:"ts"`
	}{
		Event:   e.Type,
		Payload: e.Record,
		TS:      float64(e.Time.Unix()) + float64(e.Time.Nanosecond())/float64(time.Second),
	})
}

// Mirror forwards events to an external sink on a best-effort basis.
type Mirror interface {
	Name() string
	Publish(ctx context.Context, evt Event) error
	Close() error
}

type FailureRecorder interface {
	MirrorFailure(sink string)
}

// Broadcaster keeps per-run subscriber sets. Publish never blocks on a slow
// subscriber; each subscription queues without bound.
type Broadcaster struct {
	logger   *slog.Logger
	sinks    []Mirror
	recorder FailureRecorder
	timeout  time.Duration

	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

func NewBroadcaster(logger *slog.Logger, recorder FailureRecorder, sinks ...Mirror) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	active := make([]Mirror, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			active = append(active, sink)
		}
	}
	return &Broadcaster{
		logger:   logger,
		sinks:    active,
		recorder: recorder,
		timeout:  5 * time.Second,
		subs:     make(map[string]map[*Subscription]struct{}),
	}
}

// Subscribe registers a subscription whose queue starts with initial.
func (b *Broadcaster) Subscribe(runID string, initial domain.RunRecord) *Subscription {
	sub := newSubscription(runID, b)
	sub.push(initial.Clone())
	if initial.Terminal() {
		return sub
	}
	b.mu.Lock()
	set, ok := b.subs[runID]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.subs[runID] = set
	}
	set[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Publish enqueues a copy of record for every current subscriber of its run.
// A terminal record releases the run's subscriber set.
func (b *Broadcaster) Publish(record domain.RunRecord) {
	b.mu.Lock()
	set := b.subs[record.RunID]
	targets := make([]*Subscription, 0, len(set))
	for sub := range set {
		targets = append(targets, sub)
	}
	if record.Terminal() {
		delete(b.subs, record.RunID)
	}
	b.mu.Unlock()

	for _, sub := range targets {
		sub.push(record.Clone())
	}
}

// Mirror forwards record to every sink. Failures are logged and counted,
// never returned.
func (b *Broadcaster) Mirror(ctx context.Context, record domain.RunRecord) {
	if len(b.sinks) == 0 {
		return
	}
	evt := NewEvent(record)
	for _, sink := range b.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, b.timeout)
		err := sink.Publish(sinkCtx, evt)
		cancel()
		if err != nil {
			b.logger.Warn("event mirror failed", "sink", sink.Name(), "run_id", record.RunID, "status", record.Status, "error", err)
			if b.recorder != nil {
				b.recorder.MirrorFailure(sink.Name())
			}
		}
	}
}

// Subscribers reports the live subscriber count for a run.
func (b *Broadcaster) Subscribers(runID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[runID])
}

// Close closes every sink.
func (b *Broadcaster) Close() error {
	var errs []error
	for _, sink := range b.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Broadcaster) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.subs[sub.runID]
	if !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(b.subs, sub.runID)
	}
}

// Snapshot returns a detached subscription that yields record once and then
// ends, for runs no longer driven by this process.
func Snapshot(record domain.RunRecord) *Subscription {
	sub := newSubscription(record.RunID, nil)
	sub.push(record.Clone())
	sub.ended = true
	return sub
}

// Subscription is one observer's ordered view of a run.
type Subscription struct {
	runID  string
	owner  *Broadcaster
	notify chan struct{}

	mu     sync.Mutex
	queue  []domain.RunRecord
	ended  bool
	closed bool
}

func newSubscription(runID string, owner *Broadcaster) *Subscription {
	return &Subscription{
		runID:  runID,
		owner:  owner,
		notify: make(chan struct{}, 1),
	}
}

func (s *Subscription) RunID() string {
	return s.runID
}

func (s *Subscription) push(record domain.RunRecord) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, record)
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Next returns the next record in order. After a terminal record has been
// returned it yields io.EOF; after Close it yields ErrClosed.
func (s *Subscription) Next(ctx context.Context) (domain.RunRecord, error) {
	for {
		s.mu.Lock()
		switch {
		case s.closed:
			s.mu.Unlock()
			return domain.RunRecord{}, ErrClosed
		case len(s.queue) > 0:
			record := s.queue[0]
			s.queue[0] = domain.RunRecord{}
			s.queue = s.queue[1:]
			if record.Terminal() {
				s.ended = true
				s.queue = nil
			}
			s.mu.Unlock()
			return record, nil
		case s.ended:
			s.mu.Unlock()
			return domain.RunRecord{}, io.EOF
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return domain.RunRecord{}, ctx.Err()
		case <-s.notify:
		}
	}
}

// Close detaches the subscription. Other subscribers and the run are not
// affected.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.queue = nil
	s.mu.Unlock()
	if s.owner != nil {
		s.owner.unsubscribe(s)
	}
	select {
	case s.notify <- struct{}{}:
	default:
	}
}
