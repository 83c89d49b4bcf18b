// Package session holds the checkpointed state of one report session and
// the merge rules for its fields. The workflow engine is the sole writer of
// stage, plan and artifact; each worker owns exactly one key of the
// completion and result maps; error and stage logs are append-only.
package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/vikasvdk5/WestBay/internal/plan"
	"github.com/vikasvdk5/WestBay/internal/report"
)

// Stage is the lifecycle stage of a session. Transitions are forward-only;
// any non-terminal stage may move to failed.
type Stage string

const (
	StagePlanning    Stage = "planning"
	StageFannedOut   Stage = "fanned_out"
	StageAggregating Stage = "aggregating"
	StageCompleted   Stage = "completed"
	StageFailed      Stage = "failed"
)

var stageRank = map[Stage]int{
	StagePlanning:    0,
	StageFannedOut:   1,
	StageAggregating: 2,
	StageCompleted:   3,
	StageFailed:      3,
}

// Terminal reports whether no further transition is allowed.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// State is the mutable, checkpointed aggregate for one session. All
// mutation goes through methods that hold the state lock and enforce each
// field's merge discipline.
type State struct {
	mu sync.Mutex

	ID        string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Spec  report.RequestSpec `json:"spec"`
	Stage Stage              `json:"stage"`

	Sections   []report.Section `json:"sections,omitempty"`
	Required   []report.Kind    `json:"required_workers,omitempty"`
	Assignment plan.Assignment  `json:"assignment,omitempty"`

	Completion map[report.Kind]bool          `json:"completion_status,omitempty"`
	Results    map[report.Kind]report.Result `json:"worker_results,omitempty"`
	Errors     []report.ErrorRecord          `json:"errors,omitempty"`
	StageLog   []string                      `json:"completed_stage_log,omitempty"`

	Artifact *report.Artifact `json:"final_artifact,omitempty"`
}

// New creates a session in the planning stage.
func New(id string, spec report.RequestSpec) *State {
	now := time.Now().UTC()
	return &State{
		ID:         id,
		CreatedAt:  now,
		UpdatedAt:  now,
		Spec:       spec,
		Stage:      StagePlanning,
		Completion: make(map[report.Kind]bool),
		Results:    make(map[report.Kind]report.Result),
	}
}

// SetPlan records the planning output: structural sections, the required
// worker set and the task assignment. Required workers are immutable once
// set; the completion map is seeded with every required kind.
func (s *State) SetPlan(sections []report.Section, required []report.Kind, assign plan.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Stage != StagePlanning {
		return fmt.Errorf("plan can only be set during planning, stage is %s", s.Stage)
	}
	if len(s.Required) > 0 {
		return fmt.Errorf("plan already set for session %s", s.ID)
	}

	s.Sections = sections
	s.Required = required
	s.Assignment = assign
	for _, k := range required {
		s.Completion[k] = false
	}
	s.touch()
	return nil
}

// AdvanceStage moves the session forward. Backward transitions are
// rejected; failed is reachable from any non-terminal stage.
func (s *State) AdvanceStage(to Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Stage.Terminal() {
		return fmt.Errorf("session %s is %s, cannot move to %s", s.ID, s.Stage, to)
	}
	if stageRank[to] <= stageRank[s.Stage] && to != StageFailed {
		return fmt.Errorf("stage cannot move backward from %s to %s", s.Stage, to)
	}

	s.StageLog = MergeLog(s.StageLog, []string{fmt.Sprintf("%s -> %s", s.Stage, to)})
	s.Stage = to
	s.touch()
	return nil
}

// MarkWorkerDone records a worker's result and sets its completion bit.
// The bit is set whether the worker succeeded or failed: failures are
// visible through Result.Status and the error log, never by a missing
// completion bit that would wedge the barrier.
func (s *State) MarkWorkerDone(kind report.Kind, res report.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Completion = MergeCompletion(s.Completion, map[report.Kind]bool{kind: true})
	s.Results = MergeResults(s.Results, map[report.Kind]report.Result{kind: res})
	s.touch()
}

// RecordError appends to the session's error log.
func (s *State) RecordError(worker report.Kind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Errors = MergeErrors(s.Errors, []report.ErrorRecord{{
		Worker:    worker,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}})
	s.touch()
}

// Complete sets the final artifact and moves the session to completed.
// The artifact is only ever set by this transition.
func (s *State) Complete(artifact *report.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Stage != StageAggregating {
		return fmt.Errorf("artifact can only be set while aggregating, stage is %s", s.Stage)
	}
	s.Artifact = artifact
	s.StageLog = MergeLog(s.StageLog, []string{fmt.Sprintf("%s -> %s", s.Stage, StageCompleted)})
	s.Stage = StageCompleted
	s.touch()
	return nil
}

// ResultFor returns the recorded result for one worker kind.
func (s *State) ResultFor(kind report.Kind) (report.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.Results[kind]
	return res, ok
}

// FinalArtifact returns the assembled artifact, nil until completed.
func (s *State) FinalArtifact() *report.Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Artifact
}

// CurrentStage returns the stage under the state lock.
func (s *State) CurrentStage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Stage
}

// touch must be called with the lock held.
func (s *State) touch() {
	s.UpdatedAt = time.Now().UTC()
}

// Snapshot is a read-only status view of a session, safe to serve across
// goroutines and process restarts.
type Snapshot struct {
	SessionID  string               `json:"session_id"`
	Stage      Stage                `json:"stage"`
	Required   []report.Kind        `json:"required_workers"`
	Completion map[report.Kind]bool `json:"completion_status"`
	Errors     []report.ErrorRecord `json:"errors,omitempty"`
	Progress   float64              `json:"progress"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// TakeSnapshot copies the observable status fields.
func (s *State) TakeSnapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID:  s.ID,
		Stage:      s.Stage,
		Required:   append([]report.Kind(nil), s.Required...),
		Completion: make(map[report.Kind]bool, len(s.Completion)),
		Errors:     append([]report.ErrorRecord(nil), s.Errors...),
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
	done := 0
	for k, v := range s.Completion {
		snap.Completion[k] = v
		if v {
			done++
		}
	}
	if len(s.Required) > 0 {
		snap.Progress = float64(done) / float64(len(s.Required))
	}
	if s.Stage == StageCompleted {
		snap.Progress = 1
	}
	return snap
}

// Encode serializes the full state for checkpointing. Round-trips exactly
// through Decode.
func Encode(s *State) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	return data, nil
}

// Decode restores a checkpointed state.
func Decode(data []byte) (*State, error) {
	st := &State{}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if st.Completion == nil {
		st.Completion = make(map[report.Kind]bool)
	}
	if st.Results == nil {
		st.Results = make(map[report.Kind]report.Result)
	}
	return st, nil
}
