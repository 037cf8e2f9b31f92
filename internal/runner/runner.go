// Package runner drives scenario runs through queued, running and a terminal
// state, persisting and publishing every transition.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/animus-labs/animus-scenarios/internal/domain"
	"github.com/animus-labs/animus-scenarios/internal/events"
	"github.com/animus-labs/animus-scenarios/internal/modeling"
	"github.com/animus-labs/animus-scenarios/internal/store"
)

var (
	ErrRunNotFound    = errors.New("run not found")
	ErrRunFinished    = errors.New("run already finished")
	ErrInvalidRequest = errors.New("invalid run request")
	ErrShuttingDown   = errors.New("orchestrator is shutting down")
)

const (
	msgQueued     = "Queued"
	msgScheduled  = "Scenario execution queued"
	msgRunning    = "Executing scenario"
	msgCompleted  = "Completed"
	msgCancelled  = "Execution cancelled"
	msgNoModeling = "Modeling backend unavailable: "
)

type Store interface {
	Put(ctx context.Context, record domain.RunRecord) error
	Get(ctx context.Context, runID string) (domain.RunRecord, error)
}

type Catalog interface {
	Get(scenarioID string) (domain.ScenarioSpec, bool)
}

type TransitionRecorder interface {
	RunTransition(status string)
}

// Deps are the collaborators an Orchestrator needs. A nil Executor makes
// every run fail with ExecutorUnavailable as the reason.
type Deps struct {
	Store               Store
	Events              *events.Broadcaster
	Executor            modeling.Executor
	ExecutorUnavailable error
	Catalog             Catalog
	Logger              *slog.Logger
	Metrics             TransitionRecorder
}

type activeRun struct {
	record domain.RunRecord
	cancel context.CancelFunc
}

// Orchestrator owns every RunRecord it creates. The runs map and the
// subscriber sets share one lock, which is never held across I/O.
type Orchestrator struct {
	cfg      Config
	store    Store
	events   *events.Broadcaster
	executor modeling.Executor
	noExec   error
	catalog  Catalog
	logger   *slog.Logger
	metrics  TransitionRecorder
	pool     *semaphore.Weighted

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu     sync.Mutex
	runs   map[string]*activeRun
	closed bool
}

func New(deps Deps, cfg Config) (*Orchestrator, error) {
	if deps.Store == nil {
		return nil, errors.New("store is required")
	}
	if deps.Events == nil {
		return nil, errors.New("event broadcaster is required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.ExecutionTimeout <= 0 {
		cfg.ExecutionTimeout = 30 * time.Second
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 10 * time.Second
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	noExec := deps.ExecutorUnavailable
	if deps.Executor == nil && noExec == nil {
		noExec = errors.New("no modeling executor configured")
	}
	baseCtx, stop := context.WithCancel(context.Background())
	return &Orchestrator{
		cfg:      cfg,
		store:    deps.Store,
		events:   deps.Events,
		executor: deps.Executor,
		noExec:   noExec,
		catalog:  deps.Catalog,
		logger:   logger,
		metrics:  deps.Metrics,
		pool:     semaphore.NewWeighted(int64(cfg.Workers)),
		baseCtx:  baseCtx,
		stop:     stop,
		runs:     make(map[string]*activeRun),
	}, nil
}

// Schedule records a queued run and starts it in the background. The
// returned record carries the scheduling acknowledgement message.
func (o *Orchestrator) Schedule(ctx context.Context, scenarioID string, parameters map[string]any) (domain.RunRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.RunRecord{}, err
	}
	scenarioID = strings.TrimSpace(scenarioID)
	if scenarioID == "" {
		return domain.RunRecord{}, fmt.Errorf("%w: scenario_id is required", ErrInvalidRequest)
	}
	if o.catalog != nil {
		if _, ok := o.catalog.Get(scenarioID); !ok {
			return domain.RunRecord{}, fmt.Errorf("%w: unknown scenario %q", ErrInvalidRequest, scenarioID)
		}
	}
	params := domain.Metadata(parameters).Clone()
	if params == nil {
		params = domain.Metadata{}
	}
	if _, err := json.Marshal(params); err != nil {
		return domain.RunRecord{}, fmt.Errorf("%w: parameters must be JSON serializable: %v", ErrInvalidRequest, err)
	}

	record := domain.RunRecord{
		RunID:      uuid.NewString(),
		Status:     domain.RunStatusQueued,
		Message:    msgQueued,
		ScenarioID: scenarioID,
		Parameters: params,
		Timestamp:  now(),
	}
	runCtx, cancel := context.WithCancel(o.baseCtx)

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		cancel()
		return domain.RunRecord{}, ErrShuttingDown
	}
	o.wg.Add(1)
	o.mu.Unlock()

	o.persist(record)
	o.mu.Lock()
	o.runs[record.RunID] = &activeRun{record: record.Clone(), cancel: cancel}
	o.events.Publish(record)
	o.mu.Unlock()
	o.announce(record)

	go o.dispatch(runCtx, cancel, record)

	o.logger.Info("run scheduled", "run_id", record.RunID, "scenario_id", scenarioID)
	ack := record.Clone()
	ack.Message = msgScheduled
	return ack, nil
}

type outcome struct {
	result map[string]any
	err    error
}

func (o *Orchestrator) dispatch(ctx context.Context, cancel context.CancelFunc, queued domain.RunRecord) {
	defer o.wg.Done()
	defer cancel()
	runID := queued.RunID

	o.advance(runID, domain.RunStatusRunning, msgRunning, nil)

	if o.executor == nil {
		o.advance(runID, domain.RunStatusFailed, msgNoModeling+o.noExec.Error(), nil)
		return
	}

	// The watchdog covers the wait for a worker slot too, so a slot held by
	// a hung executor cannot keep later runs in running.
	execCtx, cancelExec := context.WithTimeout(ctx, o.cfg.ExecutionTimeout)
	defer cancelExec()

	if err := o.pool.Acquire(execCtx, 1); err != nil {
		if ctx.Err() != nil {
			o.advance(runID, domain.RunStatusCancelled, msgCancelled, nil)
			return
		}
		o.logger.Warn("run timed out waiting for a worker", "run_id", runID, "timeout", o.cfg.ExecutionTimeout.String())
		o.advance(runID, domain.RunStatusFailed, o.timeoutMessage(), nil)
		return
	}

	done := make(chan outcome, 1)
	go func() {
		defer o.pool.Release(1)
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{err: fmt.Errorf("modeling executor panic: %v", rec)}
			}
		}()
		result, err := o.executor.Execute(execCtx, queued.ScenarioID, queued.Parameters.Clone())
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		switch {
		case out.err == nil:
			o.advance(runID, domain.RunStatusSucceeded, msgCompleted, domain.Metadata(out.result).Clone())
		case ctx.Err() != nil:
			o.advance(runID, domain.RunStatusCancelled, msgCancelled, nil)
		case errors.Is(execCtx.Err(), context.DeadlineExceeded):
			o.advance(runID, domain.RunStatusFailed, o.timeoutMessage(), nil)
		default:
			o.logger.Warn("run failed", "run_id", runID, "error", out.err)
			o.advance(runID, domain.RunStatusFailed, out.err.Error(), nil)
		}
	case <-execCtx.Done():
		// The executor may ignore its context; stop waiting and drop any late result.
		if ctx.Err() != nil {
			o.advance(runID, domain.RunStatusCancelled, msgCancelled, nil)
			return
		}
		o.logger.Warn("run timed out", "run_id", runID, "timeout", o.cfg.ExecutionTimeout.String())
		o.advance(runID, domain.RunStatusFailed, o.timeoutMessage(), nil)
	}
}

func (o *Orchestrator) timeoutMessage() string {
	return "Execution timed out after " + o.cfg.ExecutionTimeout.String()
}

// advance applies one transition: guard, persist, then publish to in-process
// subscribers under the lock, then mirror outside it.
func (o *Orchestrator) advance(runID string, status domain.RunStatus, message string, result domain.Metadata) {
	o.mu.Lock()
	run, ok := o.runs[runID]
	if !ok {
		o.mu.Unlock()
		return
	}
	current := run.record.Status
	if !domain.CanTransitionRunStatus(current, status) {
		o.mu.Unlock()
		o.logger.Warn("run transition rejected", "run_id", runID, "from", current, "to", status)
		return
	}
	next := run.record.Clone()
	o.mu.Unlock()

	next.Status = status
	next.Message = message
	next.Result = nil
	if status == domain.RunStatusSucceeded {
		next.Result = result
		if next.Result == nil {
			next.Result = domain.Metadata{}
		}
	}
	next.Timestamp = now()

	o.persist(next)

	o.mu.Lock()
	run.record = next.Clone()
	o.events.Publish(next)
	if next.Terminal() {
		delete(o.runs, runID)
	}
	o.mu.Unlock()

	o.announce(next)
	if next.Terminal() {
		o.logger.Info("run finished", "run_id", runID, "status", next.Status, "message", next.Message)
	}
}

func (o *Orchestrator) persist(record domain.RunRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.PersistTimeout)
	defer cancel()
	if err := o.store.Put(ctx, record); err != nil {
		o.logger.Error("persist run failed", "run_id", record.RunID, "status", record.Status, "error", err)
	}
}

func (o *Orchestrator) announce(record domain.RunRecord) {
	if o.metrics != nil {
		o.metrics.RunTransition(string(record.Status))
	}
	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.PersistTimeout)
	defer cancel()
	o.events.Mirror(ctx, record)
}

// Get returns the latest persisted snapshot without waiting on execution.
func (o *Orchestrator) Get(ctx context.Context, runID string) (domain.RunRecord, error) {
	record, err := o.store.Get(ctx, runID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.RunRecord{}, ErrRunNotFound
		}
		return domain.RunRecord{}, err
	}
	return record, nil
}

// Subscribe yields the current snapshot and then every later transition,
// ending after a terminal record. Unknown run ids fail immediately.
func (o *Orchestrator) Subscribe(ctx context.Context, runID string) (*events.Subscription, error) {
	o.mu.Lock()
	if run, ok := o.runs[runID]; ok {
		sub := o.events.Subscribe(runID, run.record)
		o.mu.Unlock()
		return sub, nil
	}
	o.mu.Unlock()

	record, err := o.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	return events.Snapshot(record), nil
}

// Cancel signals an in-flight run. The run itself records the cancelled
// state; the returned snapshot may still show it running.
func (o *Orchestrator) Cancel(ctx context.Context, runID string) (domain.RunRecord, error) {
	o.mu.Lock()
	if run, ok := o.runs[runID]; ok {
		run.cancel()
		snapshot := run.record.Clone()
		o.mu.Unlock()
		o.logger.Info("run cancellation requested", "run_id", runID)
		return snapshot, nil
	}
	o.mu.Unlock()

	record, err := o.Get(ctx, runID)
	if err != nil {
		return domain.RunRecord{}, err
	}
	if record.Terminal() {
		return record, ErrRunFinished
	}
	return domain.RunRecord{}, ErrRunNotFound
}

// Active reports the number of runs not yet terminal.
func (o *Orchestrator) Active() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.runs)
}

// Shutdown stops accepting runs, cancels in-flight ones, and waits until each
// has persisted its terminal state or ctx expires.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.stop()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown: %d runs still active: %w", o.Active(), ctx.Err())
	}
}

func now() time.Time {
	return time.Now().UTC().Round(0)
}
