// Package resolve implements spec.md's C4, the relationship resolver: at
// write-preparation time it rewrites every lookup field on a record from
// its source-side id to the corresponding target-side id, using only the
// maps the retrieval driver (package retrieve) already populated.
package resolve

import (
	"github.com/jfcote87/sfmigrate/graph"
	"github.com/jfcote87/sfmigrate/progress"
	"github.com/jfcote87/sfmigrate/schema"
)

// Resolver rewrites lookup fields on a task's source records into target
// ids, reporting unresolvable parents rather than failing the task
// (spec.md §4.4).
type Resolver struct {
	// ByObject looks up the Task for a parent object name so a lookup
	// field's parentTask.SourceToTarget map can be consulted.
	ByObject map[string]*graph.Task
	Report   *progress.Report
}

// NewResolver builds a Resolver indexing tasks by object name.
func NewResolver(tasks []*graph.Task, report *progress.Report) *Resolver {
	byObject := make(map[string]*graph.Task, len(tasks))
	for _, t := range tasks {
		byObject[t.Object.Name] = t
	}
	return &Resolver{ByObject: byObject, Report: report}
}

// Prepare returns a copy of every record in t.SourceRecords with each
// lookup field on t.Object rewritten to its target-side id (spec.md §4.4
// steps 1-5). Records are copied, never mutated in place, so the
// retrieval-populated source buffers remain valid for a second pass
// (e.g. a later object set or a retry).
func (r *Resolver) Prepare(t *graph.Task) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(t.SourceRecords))
	for _, src := range t.SourceRecords {
		out = append(out, r.prepareOne(t, src))
	}
	return out
}

func (r *Resolver) prepareOne(t *graph.Task, src map[string]interface{}) map[string]interface{} {
	rec := make(map[string]interface{}, len(src))
	for k, v := range src {
		rec[k] = v
	}
	for _, f := range t.Object.Fields {
		if !f.IsLookup || f.Complex != nil {
			continue
		}
		s, _ := rec[f.IDField()].(string)
		if s == "" {
			continue
		}
		candidates := f.LookupCandidates()
		if len(candidates) == 0 {
			continue // no ReferenceTo metadata at all; nothing to resolve against
		}
		r.resolveAgainstCandidates(t, f, rec, src, s, candidates)
	}
	return rec
}

// resolveAgainstCandidates tries each candidate parent object in order
// (spec.md §9: "resolve tries each [PolymorphicTargets] in declaration
// order unless the query supplied an explicit Field$ParentObject token",
// which FieldDescriptor.LookupCandidates has already narrowed to one entry
// when pinned). The first candidate whose task is part of this run and
// whose SourceToTarget map has s wins; if none do but at least one
// candidate is part of this run, the field is nulled and reported missing
// against that candidate. If no candidate object is part of this run at
// all, the source id is left untouched, matching the non-polymorphic
// behavior for an out-of-run parent.
func (r *Resolver) resolveAgainstCandidates(t *graph.Task, f *schema.FieldDescriptor, rec, src map[string]interface{}, s string, candidates []string) {
	var firstInRun *graph.Task
	var firstInRunName string
	for _, parentObject := range candidates {
		parentTask, ok := r.ByObject[parentObject]
		if !ok {
			continue
		}
		if firstInRun == nil {
			firstInRun, firstInRunName = parentTask, parentObject
		}
		if targetID, ok := r.targetIDFor(parentTask, s); ok {
			rec[f.IDField()] = targetID
			return
		}
	}
	if firstInRun == nil {
		return // none of the candidate parent objects are part of this run; leave the source id as-is
	}
	rec[f.IDField()] = nil
	if r.Report != nil {
		parentExt := ""
		if parentRec, ok := firstInRun.SourceIDToRecord[s]; ok {
			parentExt = graph.ExternalIDOf(parentRec)
		}
		r.Report.AddMissingParent(progress.MissingParent{
			ChildObject:           t.Object.Name,
			ChildField:            f.Name,
			ExternalID:            parentExt,
			ParentObject:          firstInRunName,
			ParentExternalIDField: firstInRun.Object.ExternalID,
		})
	}
}

// targetIDFor looks up the target id for the parent record identified by
// sourceID, following spec.md §4.4 steps 3-4: source id -> source record
// -> target record -> target id.
func (r *Resolver) targetIDFor(parentTask *graph.Task, sourceID string) (string, bool) {
	target, ok := parentTask.SourceToTarget[sourceID]
	if !ok {
		return "", false
	}
	id, ok := target["Id"].(string)
	return id, ok && id != ""
}
