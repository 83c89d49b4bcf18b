package report

import "fmt"

// ValidationError rejects a malformed RequestSpec before any session state
// is created. It is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s %s", e.Field, e.Reason)
}

// WorkerExecutionError records a worker execution unit that returned failure.
// It is absorbed into the session's error log and does not abort the session.
type WorkerExecutionError struct {
	Kind Kind
	Err  error
}

func (e *WorkerExecutionError) Error() string {
	return fmt.Sprintf("worker %s failed: %v", e.Kind, e.Err)
}

func (e *WorkerExecutionError) Unwrap() error { return e.Err }

// ExternalServiceError is a failure of a worker's call to an external
// collaborator after its bounded retry budget was exhausted. Workers
// escalate it to a WorkerExecutionError.
type ExternalServiceError struct {
	Service  string
	Attempts int
	Err      error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s unavailable after %d attempts: %v", e.Service, e.Attempts, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// AggregationError is a failure while merging worker results into the final
// artifact. It is fatal for the session.
type AggregationError struct {
	SectionID string
	Err       error
}

func (e *AggregationError) Error() string {
	if e.SectionID != "" {
		return fmt.Sprintf("aggregate section %s: %v", e.SectionID, e.Err)
	}
	return fmt.Sprintf("aggregate: %v", e.Err)
}

func (e *AggregationError) Unwrap() error { return e.Err }
