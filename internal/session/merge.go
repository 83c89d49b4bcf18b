package session

import "github.com/vikasvdk5/WestBay/internal/report"

// Reducers for concurrent updates to session fields. Each field of the
// state declares exactly one of these disciplines; commutativity of the
// completion reducer is what makes worker arrival order irrelevant.

// MergeCompletion unions two completion maps. A worker marked complete is
// never un-marked: the merged value of each key is the logical OR.
func MergeCompletion(left, right map[report.Kind]bool) map[report.Kind]bool {
	if left == nil && right == nil {
		return nil
	}
	merged := make(map[report.Kind]bool, len(left)+len(right))
	for k, v := range left {
		merged[k] = v
	}
	for k, v := range right {
		merged[k] = merged[k] || v
	}
	return merged
}

// MergeResults merges result maps per key, last writer wins. Each worker
// writes only its own key, so overlapping writes do not occur in the happy
// path; the rule exists for replayed or duplicated updates.
func MergeResults(left, right map[report.Kind]report.Result) map[report.Kind]report.Result {
	if left == nil && right == nil {
		return nil
	}
	merged := make(map[report.Kind]report.Result, len(left)+len(right))
	for k, v := range left {
		merged[k] = v
	}
	for k, v := range right {
		merged[k] = v
	}
	return merged
}

// MergeErrors appends; the error log is append-only and unordered.
func MergeErrors(left, right []report.ErrorRecord) []report.ErrorRecord {
	out := make([]report.ErrorRecord, 0, len(left)+len(right))
	out = append(out, left...)
	out = append(out, right...)
	return out
}

// MergeLog appends; the stage log is observability-only.
func MergeLog(left, right []string) []string {
	out := make([]string, 0, len(left)+len(right))
	out = append(out, left...)
	out = append(out, right...)
	return out
}

// MergeStage takes the most recent non-empty stage value.
func MergeStage(left, right Stage) Stage {
	if right != "" {
		return right
	}
	return left
}
