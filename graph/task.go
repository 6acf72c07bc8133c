// Package graph implements spec.md's C2 (task graph builder): it converts
// described objects into an ordered sequence of Tasks under
// parent-before-child and master-detail-before-detail constraints.
package graph

import "github.com/jfcote87/sfmigrate/schema"

// Task binds an ObjectDescriptor to runtime state accumulated by the
// retrieval driver (package retrieve), the relationship resolver (package
// resolve) and the write path (package engine). Its lifecycle: created
// here during task-graph build, mutated by retrieval, consumed by
// resolution/write, dropped at end of run (spec.md §3).
type Task struct {
	Object *schema.ObjectDescriptor

	SourceRecords []map[string]interface{}
	TargetRecords []map[string]interface{}

	// ExternalIDToSourceID maps the external id value to the source
	// record's internal id.
	ExternalIDToSourceID map[string]string
	// SourceIDToRecord maps a source record's internal id to the record
	// itself.
	SourceIDToRecord map[string]map[string]interface{}
	// SourceToTarget maps a source record to its corresponding target
	// record, keyed by the source record's internal id (spec.md §5: "the
	// only cross-task shared write surface").
	SourceToTarget map[string]map[string]interface{}

	// FilteredValueCache records, per field, every id value already used
	// in an IN (...) clause during retrieval, guaranteeing each
	// (task, field, value) triple is queried at most once (spec.md §4.3).
	FilteredValueCache map[string]map[string]bool

	// ExternalIDToTargetID mirrors ExternalIDToSourceID for the target
	// side, populated during the target-side retrieval pass (spec.md
	// §4.3 "Algorithm — target side").
	ExternalIDToTargetID map[string]string
}

// NewTask allocates a Task with all maps initialized, ready for the
// retrieval driver to populate.
func NewTask(obj *schema.ObjectDescriptor) *Task {
	return &Task{
		Object:               obj,
		ExternalIDToSourceID: make(map[string]string),
		SourceIDToRecord:     make(map[string]map[string]interface{}),
		SourceToTarget:       make(map[string]map[string]interface{}),
		FilteredValueCache:   make(map[string]map[string]bool),
		ExternalIDToTargetID: make(map[string]string),
	}
}

// AlreadyQueried reports whether value was already included in an IN(...)
// clause issued for field, and if not, marks it as now included.
// (spec.md §4.3: "Before issuing a query, the driver subtracts this set
// from the inValues".)
func (t *Task) AlreadyQueried(field, value string) bool {
	set, ok := t.FilteredValueCache[field]
	if !ok {
		set = make(map[string]bool)
		t.FilteredValueCache[field] = set
	}
	if set[value] {
		return true
	}
	set[value] = true
	return false
}

// UnqueriedValues filters values down to those not yet queried for field,
// marking each as queried as a side effect.
func (t *Task) UnqueriedValues(field string, values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !t.AlreadyQueried(field, v) {
			out = append(out, v)
		}
	}
	return out
}

// AddSourceRecord indexes rec by its internal id and, if present, by its
// external id value, then appends it to SourceRecords (spec.md §3
// invariant: "Every record surfaced by a task carries its source-side id
// in a reserved internal slot").
func (t *Task) AddSourceRecord(rec map[string]interface{}, internalIDField string) {
	id, _ := rec[internalIDField].(string)
	if id == "" {
		t.SourceRecords = append(t.SourceRecords, rec)
		return
	}
	if _, exists := t.SourceIDToRecord[id]; exists {
		return // already present from an earlier pass; avoid duplicate rows
	}
	t.SourceIDToRecord[id] = rec
	t.SourceRecords = append(t.SourceRecords, rec)
	if ext, ok := rec[extIDSlot].(string); ok && ext != "" {
		t.ExternalIDToSourceID[ext] = id
	}
}

// extIDSlot is the reserved record key under which the resolved external
// id value for a record is stashed during retrieval, independent of
// whatever field name the object's ExternalID declaration names (so a
// complex/composite external id's joined value has a single well-known
// home on the record).
const extIDSlot = "__sfmigrate_external_id__"

// SetExternalID stashes the resolved external id value for rec and
// indexes it against id.
func (t *Task) SetExternalID(rec map[string]interface{}, id, extValue string) {
	rec[extIDSlot] = extValue
	if extValue != "" {
		t.ExternalIDToSourceID[extValue] = id
	}
}

// ExternalIDOf returns the external id value stashed on rec, if any.
func ExternalIDOf(rec map[string]interface{}) string {
	v, _ := rec[extIDSlot].(string)
	return v
}
