// Package workflow contains the orchestration engine: it plans a session,
// fans the plan out to one goroutine per required worker kind, gates
// aggregation behind a completion barrier and checkpoints state at every
// transition.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vikasvdk5/WestBay/internal/natsbus"
	"github.com/vikasvdk5/WestBay/internal/plan"
	"github.com/vikasvdk5/WestBay/internal/report"
	"github.com/vikasvdk5/WestBay/internal/session"
	"github.com/vikasvdk5/WestBay/internal/store"
	"github.com/vikasvdk5/WestBay/internal/worker"
)

var (
	// ErrNotFound means no session exists under the given ID.
	ErrNotFound = errors.New("session not found")
	// ErrNotReady means the session has not finished aggregating.
	ErrNotReady = errors.New("report not ready")
	// ErrSessionFailed means the session ended in the failed stage.
	ErrSessionFailed = errors.New("session failed")
)

// Notifier is told when a session reaches a terminal stage.
type Notifier interface {
	SessionCompleted(sessionID, topic string, wordCount int)
	SessionFailed(sessionID, topic, reason string)
}

// Engine owns the session lifecycle from submit through aggregation.
type Engine struct {
	store   *store.Store
	workers *worker.Registry
	events  *natsbus.Client
	notify  Notifier

	mu     sync.Mutex
	active map[string]*session.State
}

func NewEngine(st *store.Store, workers *worker.Registry, events *natsbus.Client, notify Notifier) *Engine {
	return &Engine{
		store:   st,
		workers: workers,
		events:  events,
		notify:  notify,
		active:  make(map[string]*session.State),
	}
}

// Submit validates and plans a new session, then launches its execution
// asynchronously. It returns the session ID as soon as planning is
// checkpointed; progress is observed through Poll and the event stream.
func (e *Engine) Submit(ctx context.Context, spec report.RequestSpec) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}

	alloc, err := plan.Allocate(spec)
	if err != nil {
		return "", fmt.Errorf("allocate workers: %w", err)
	}
	assign, err := plan.Distribute(alloc, spec)
	if err != nil {
		return "", fmt.Errorf("distribute subtasks: %w", err)
	}
	sections := plan.BuildSections(spec)

	if err := e.workers.Covers(alloc.Required); err != nil {
		return "", err
	}

	st := session.New(uuid.New().String(), spec)
	if err := st.SetPlan(sections, alloc.Required, assign); err != nil {
		return "", err
	}
	if err := e.store.SaveSession(st); err != nil {
		return "", err
	}

	e.mu.Lock()
	e.active[st.ID] = st
	e.mu.Unlock()

	slog.Info("session submitted",
		"session", st.ID,
		"topic", spec.Topic,
		"complexity", spec.Complexity,
		"workers", len(alloc.Required))
	for _, line := range alloc.Summary {
		slog.Debug("allocation", "session", st.ID, "decision", line)
	}
	e.publishEvent(st.ID, "session_started", map[string]any{
		"topic":            spec.Topic,
		"required_workers": alloc.Required,
	})

	// Execution outlives the submit request.
	go e.run(context.Background(), st)

	return st.ID, nil
}

// run drives one session from fan-out to a terminal stage.
func (e *Engine) run(ctx context.Context, st *session.State) {
	defer func() {
		e.mu.Lock()
		delete(e.active, st.ID)
		e.mu.Unlock()
	}()

	if err := st.AdvanceStage(session.StageFannedOut); err != nil {
		e.fail(st, "", err)
		return
	}
	e.checkpoint(st)
	e.publishEvent(st.ID, "stage_changed", map[string]any{"stage": session.StageFannedOut})

	snap := st.TakeSnapshot()
	tracker := NewTracker(snap.Required)

	// Aggregation runs inside the goroutine that drains the barrier, so
	// the session is terminal once every worker goroutine has returned.
	var wg sync.WaitGroup
	for _, kind := range snap.Required {
		wg.Add(1)
		go func(kind report.Kind) {
			defer wg.Done()
			e.runWorker(ctx, st, tracker, kind)
		}(kind)
	}
	wg.Wait()
}

// runWorker executes one worker kind and, when it is the last one through
// the barrier, triggers aggregation. A worker failure never blocks the
// barrier: the completion bit is set either way and the failure stays
// visible in the result status and error log.
func (e *Engine) runWorker(ctx context.Context, st *session.State, tracker *Tracker, kind report.Kind) {
	w, ok := e.workers.Get(kind)
	if !ok {
		// Covers() ran at submit; reaching here means the registry changed.
		e.fail(st, kind, fmt.Errorf("no worker registered for kind %s", kind))
		return
	}

	e.publishWorkerEvent(st.ID, kind, "worker_started", nil)
	started := time.Now()

	res, err := w.Execute(ctx, worker.Invocation{
		SessionID: st.ID,
		Spec:      st.Spec,
		Subtasks:  st.Assignment[kind],
		Sections:  st.Sections,
	})
	if err != nil {
		wrapped := &report.WorkerExecutionError{Kind: kind, Err: err}
		slog.Error("worker failed", "session", st.ID, "worker", kind, "error", wrapped)
		st.RecordError(kind, wrapped.Error())
		res = report.Result{
			Kind:   kind,
			Status: report.StatusFailed,
			Errors: []string{err.Error()},
		}
	} else {
		slog.Info("worker finished",
			"session", st.ID,
			"worker", kind,
			"status", res.Status,
			"elapsed", time.Since(started).Round(time.Millisecond))
	}

	st.MarkWorkerDone(kind, res)
	e.checkpoint(st)
	e.publishWorkerEvent(st.ID, kind, "worker_completed", map[string]any{
		"status": res.Status,
	})

	if tracker.MarkComplete(kind) {
		e.aggregate(st)
	}
}

// aggregate runs exactly once per session, after the barrier opens.
func (e *Engine) aggregate(st *session.State) {
	if err := st.AdvanceStage(session.StageAggregating); err != nil {
		e.fail(st, "", err)
		return
	}
	e.checkpoint(st)
	e.publishEvent(st.ID, "stage_changed", map[string]any{"stage": session.StageAggregating})

	artifact, err := Aggregate(st)
	if err != nil {
		e.fail(st, "", fmt.Errorf("aggregate session: %w", err))
		return
	}
	if err := st.Complete(artifact); err != nil {
		e.fail(st, "", err)
		return
	}
	e.checkpoint(st)

	slog.Info("session completed",
		"session", st.ID,
		"sections", len(artifact.Sections),
		"words", artifact.WordCount)
	e.publishEvent(st.ID, "session_completed", map[string]any{
		"sections":   len(artifact.Sections),
		"word_count": artifact.WordCount,
	})
	if e.notify != nil {
		e.notify.SessionCompleted(st.ID, st.Spec.Topic, artifact.WordCount)
	}
}

func (e *Engine) fail(st *session.State, kind report.Kind, cause error) {
	slog.Error("session failed", "session", st.ID, "error", cause)
	st.RecordError(kind, cause.Error())
	if !st.CurrentStage().Terminal() {
		if err := st.AdvanceStage(session.StageFailed); err != nil {
			slog.Error("mark session failed", "session", st.ID, "error", err)
		}
	}
	e.checkpoint(st)
	e.publishEvent(st.ID, "session_failed", map[string]any{"reason": cause.Error()})
	if e.notify != nil {
		e.notify.SessionFailed(st.ID, st.Spec.Topic, cause.Error())
	}
}

// Poll returns the current status snapshot, preferring the live in-memory
// state over the checkpoint.
func (e *Engine) Poll(id string) (session.Snapshot, error) {
	e.mu.Lock()
	st, ok := e.active[id]
	e.mu.Unlock()
	if ok {
		return st.TakeSnapshot(), nil
	}

	st, err := e.store.GetSession(id)
	if err != nil {
		return session.Snapshot{}, err
	}
	if st == nil {
		return session.Snapshot{}, ErrNotFound
	}
	return st.TakeSnapshot(), nil
}

// Result returns the final artifact once the session completes.
func (e *Engine) Result(id string) (*report.Artifact, error) {
	e.mu.Lock()
	st, ok := e.active[id]
	e.mu.Unlock()
	if !ok {
		var err error
		st, err = e.store.GetSession(id)
		if err != nil {
			return nil, err
		}
		if st == nil {
			return nil, ErrNotFound
		}
	}

	switch st.CurrentStage() {
	case session.StageCompleted:
		return st.FinalArtifact(), nil
	case session.StageFailed:
		return nil, ErrSessionFailed
	default:
		return nil, ErrNotReady
	}
}

// RecoverOrphans settles sessions left non-terminal by a crash. In-flight
// worker goroutines do not survive a restart, so orphaned sessions are
// marked failed rather than resumed; their checkpoints stay readable.
func (e *Engine) RecoverOrphans() error {
	ids, err := e.store.ListUnfinishedSessions()
	if err != nil {
		return err
	}
	for _, id := range ids {
		st, err := e.store.GetSession(id)
		if err != nil || st == nil {
			continue
		}
		st.RecordError("", "orchestrator restarted before session finished")
		if err := st.AdvanceStage(session.StageFailed); err != nil {
			slog.Error("recover orphan", "session", id, "error", err)
			continue
		}
		if err := e.store.SaveSession(st); err != nil {
			slog.Error("recover orphan", "session", id, "error", err)
			continue
		}
		slog.Warn("orphaned session marked failed", "session", id)
	}
	return nil
}

func (e *Engine) checkpoint(st *session.State) {
	if err := e.store.SaveSession(st); err != nil {
		slog.Error("checkpoint session", "session", st.ID, "error", err)
	}
}

func (e *Engine) publishEvent(sessionID, eventType string, data map[string]any) {
	e.publish(natsbus.TopicSessionEvents(sessionID), sessionID, eventType, data)
}

func (e *Engine) publishWorkerEvent(sessionID string, kind report.Kind, eventType string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["worker"] = kind
	e.publish(natsbus.TopicWorkerEvents(sessionID, string(kind)), sessionID, eventType, data)
}

func (e *Engine) publish(topic, sessionID, eventType string, data map[string]any) {
	if e.events == nil {
		return
	}
	payload := map[string]any{
		"type":       eventType,
		"session_id": sessionID,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"data":       data,
	}
	if err := e.events.PublishJSON(topic, payload); err != nil {
		slog.Warn("publish event", "session", sessionID, "type", eventType, "error", err)
	}
}
