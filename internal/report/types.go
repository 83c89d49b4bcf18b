package report

import (
	"strings"
	"time"
)

// Complexity is the requested depth of a report.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// Multiplier returns the workload multiplier for a complexity level.
// The second return value is false for unrecognized levels.
func (c Complexity) Multiplier() (float64, bool) {
	switch c {
	case ComplexitySimple:
		return 1.0, true
	case ComplexityMedium:
		return 1.5, true
	case ComplexityComplex:
		return 2.0, true
	}
	return 0, false
}

// RequestSpec is the immutable input describing one report request.
// It is validated once at session creation and never mutated.
type RequestSpec struct {
	Topic                 string     `json:"topic"`
	DetailedRequirements  string     `json:"detailed_requirements"`
	PageCount             int        `json:"page_count"`
	SourceCount           int        `json:"source_count"`
	Complexity            Complexity `json:"complexity"`
	IncludeAnalysis       bool       `json:"include_analysis"`
	IncludeVisualizations bool       `json:"include_visualizations"`
}

// Validate checks the request before any session state is created.
func (s RequestSpec) Validate() error {
	if strings.TrimSpace(s.Topic) == "" {
		return &ValidationError{Field: "topic", Reason: "must not be empty"}
	}
	if s.PageCount <= 0 {
		return &ValidationError{Field: "page_count", Reason: "must be greater than zero"}
	}
	if s.SourceCount < 0 {
		return &ValidationError{Field: "source_count", Reason: "must not be negative"}
	}
	if _, ok := s.Complexity.Multiplier(); !ok {
		return &ValidationError{Field: "complexity", Reason: "must be one of simple, medium, complex"}
	}
	return nil
}

// Kind identifies one worker kind. The set is closed: dispatch goes through
// an explicit registry keyed by Kind, never through free-form strings.
type Kind string

const (
	// KindDataCollector gathers facts from web sources.
	KindDataCollector Kind = "data_collector"
	// KindAPIResearcher pulls market and financial figures from external APIs.
	KindAPIResearcher Kind = "api_researcher"
	// KindAnalyst derives insights and chart assets from collected data.
	KindAnalyst Kind = "analyst"
	// KindNarrator generates baseline narrative for every structural section
	// from generative capability alone. It is always required and its output
	// never depends on any other worker succeeding.
	KindNarrator Kind = "narrator"
)

// Kinds returns every worker kind in canonical order.
func Kinds() []Kind {
	return []Kind{KindDataCollector, KindAPIResearcher, KindAnalyst, KindNarrator}
}

// Valid reports whether k is a member of the closed kind set.
func (k Kind) Valid() bool {
	switch k {
	case KindDataCollector, KindAPIResearcher, KindAnalyst, KindNarrator:
		return true
	}
	return false
}

// Subtask is one discrete unit of work assigned to a worker kind.
type Subtask struct {
	Description string `json:"description"`
	// SourceShare is the number of sources this subtask covers (collectors).
	SourceShare int `json:"source_share,omitempty"`
	// Focus names the analysis subtopic or dataset the subtask targets.
	Focus string `json:"focus,omitempty"`
	// TargetWords is the word budget for content-producing subtasks.
	TargetWords int `json:"target_words,omitempty"`
}

// Section is one structural section of the final report, fixed at planning.
type Section struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Purpose   string `json:"purpose,omitempty"`
	Mandatory bool   `json:"mandatory,omitempty"`
}

// Status classifies a worker result.
type Status string

const (
	StatusOK      Status = "ok"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// Finding is a fact gathered by a data-collection worker, tied to the
// report section it should enrich.
type Finding struct {
	SectionID string `json:"section_id"`
	Source    string `json:"source"`
	Text      string `json:"text"`
}

// Result is the uniform record every worker invocation produces.
// The orchestration core passes it through to the aggregator without
// interpreting Artifacts beyond carrying the references.
type Result struct {
	Kind    Kind   `json:"kind"`
	Status  Status `json:"status"`
	Summary string `json:"output_summary"`

	// SectionContent maps section ID to generated narrative (narrator).
	SectionContent map[string]string `json:"section_content,omitempty"`
	// Findings carry gathered facts (collector, api researcher).
	Findings []Finding `json:"findings,omitempty"`
	// Insights carry analysis conclusions (analyst).
	Insights []string `json:"insights,omitempty"`
	// Artifacts are opaque path or blob references to produced assets.
	Artifacts []string `json:"produced_artifacts,omitempty"`

	Metrics map[string]float64 `json:"metrics,omitempty"`
	Errors  []string           `json:"errors,omitempty"`
}

// Enrichment is worker-supplied material overlaid onto a section's base
// narrative during aggregation. It never replaces the base content.
type Enrichment struct {
	Kind   Kind     `json:"kind"`
	Text   string   `json:"text"`
	Source string   `json:"source,omitempty"`
	Assets []string `json:"assets,omitempty"`
}

// SectionContent is one assembled section of the final artifact.
type SectionContent struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Body        string       `json:"body"`
	Enrichments []Enrichment `json:"enrichments,omitempty"`
}

// Artifact is the final assembled report.
type Artifact struct {
	SessionID   string           `json:"session_id"`
	Topic       string           `json:"topic"`
	GeneratedAt time.Time        `json:"generated_at"`
	Sections    []SectionContent `json:"sections"`
	WordCount   int              `json:"word_count"`
}

// ErrorRecord is one entry of a session's append-only error log.
type ErrorRecord struct {
	Worker    Kind      `json:"worker,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
