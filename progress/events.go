// Package progress defines the event vocabulary and error taxonomy shared
// by every engine and by the retrieval driver. It normalizes per-engine
// state reports into a single vocabulary (spec.md C7) so that callers never
// need to know which of the three API engines produced an event.
package progress

import "fmt"

// Stage names the vocabulary an Engine or retrieval pass reports through.
// The same stages are reused across REST, Bulk v1 and Bulk v2 so that a
// caller never has to special-case the engine that is running.
type Stage string

const (
	OperationStarted  Stage = "OperationStarted"
	Open              Stage = "Open"
	UploadStart       Stage = "UploadStart"
	UploadComplete    Stage = "UploadComplete"
	InProgress        Stage = "InProgress"
	JobComplete       Stage = "JobComplete"
	FailedOrAborted   Stage = "FailedOrAborted"
	OperationFinished Stage = "OperationFinished"

	// Retrieval-side stages (spec.md §4.3).
	RetrieveRows Stage = "RetrieveRows"
)

// Event is the common shape every engine and the retrieval driver emits.
// Fields not relevant to a given Stage are left zero.
type Event struct {
	Stage     Stage
	Object    string
	Operation string
	Processed int
	Failed    int
	Total     int
	Message   string
}

func (e Event) String() string {
	return fmt.Sprintf("%s[%s/%s] processed=%d failed=%d total=%d %s",
		e.Stage, e.Object, e.Operation, e.Processed, e.Failed, e.Total, e.Message)
}

// Sink receives Events as they occur. Implementations must not block for
// long: the retrieval driver and engines are single-producer per task and
// a slow sink stalls the whole pipeline (spec.md §5).
type Sink func(Event)

// NullSink discards every event; the default when no caller-supplied Sink
// is configured.
func NullSink(Event) {}

// MissingParent is emitted (not returned as an error) whenever the
// relationship resolver cannot find a target-side match for a lookup's
// external id. It is appended to a report buffer rather than aborting the
// task (spec.md §4.4, §8 scenario 4).
type MissingParent struct {
	ChildObject          string
	ChildField           string
	ExternalID           string
	ParentObject         string
	ParentExternalIDField string
}

func (m MissingParent) String() string {
	return fmt.Sprintf("%s.%s -> %s: no %s record with external id %q",
		m.ChildObject, m.ChildField, m.ParentObject, m.ParentObject, m.ExternalID)
}

// Report accumulates MissingParent rows and CSV repair issues over the
// course of a run so they can be flushed to CSVIssuesReport.csv /
// MissingParentRecordsReport.csv (spec.md §6) once, at the end.
type Report struct {
	MissingParents []MissingParent
	CSVIssues      []CSVIssue
}

// CSVIssue is one row of CSVIssuesReport.csv (spec.md §4.6, §6).
type CSVIssue struct {
	Object      string
	Row         int
	Field       string
	Description string
}

func (r *Report) AddMissingParent(m MissingParent) {
	r.MissingParents = append(r.MissingParents, m)
}

func (r *Report) AddCSVIssue(c CSVIssue) {
	r.CSVIssues = append(r.CSVIssues, c)
}

// Empty reports need no file written (spec.md §6: "written to the root
// when non-empty").
func (r *Report) Empty() bool {
	return r == nil || (len(r.MissingParents) == 0 && len(r.CSVIssues) == 0)
}
