package retrieve

import (
	"context"
	"fmt"
	"strings"

	"github.com/jfcote87/sfmigrate/graph"
	"github.com/jfcote87/sfmigrate/progress"
	"github.com/jfcote87/sfmigrate/schema"
	"github.com/jfcote87/sfmigrate/sforce"
)

// progressEvery is the row count between RetrieveRows events while one
// query's results are indexed; each query also ends with one event
// (spec.md §4.3 "Every N records received the driver emits a ... event").
const progressEvery = 200

// Side distinguishes which org a retrieval pass queries against.
type Side string

const (
	Source Side = "source"
	Target Side = "target"
)

// Driver runs the C3 multi-pass retrieval algorithm over a task list.
type Driver struct {
	Service *sforce.Service
	Table   *schema.Table
	Cache   *Cache
	Sink    progress.Sink
	Report  *progress.Report

	byObject map[string]*graph.Task
}

// NewDriver builds a Driver. sink and report may be nil; a nil sink
// discards events, a nil report suppresses missing-parent capture.
func NewDriver(sv *sforce.Service, table *schema.Table, cache *Cache, sink progress.Sink, report *progress.Report) *Driver {
	if sink == nil {
		sink = progress.NullSink
	}
	return &Driver{Service: sv, Table: table, Cache: cache, Sink: sink, Report: report}
}

func (d *Driver) index(tasks []*graph.Task) {
	d.byObject = make(map[string]*graph.Task, len(tasks))
	for _, t := range tasks {
		d.byObject[t.Object.Name] = t
	}
}

// RetrieveSource runs passes F1, B1, B2, F2, F3 plus self-reference
// closure over tasks, which must already be in queryOrder (spec.md §4.3
// "Algorithm — source side").
func (d *Driver) RetrieveSource(ctx context.Context, tasks []*graph.Task) error {
	d.index(tasks)

	if err := d.passForwardPrimary(ctx, tasks); err != nil {
		return err
	}
	for _, t := range tasks {
		if err := d.closeSelfReferences(ctx, t); err != nil {
			return err
		}
	}
	if err := d.passBackwardParents(ctx, tasks); err != nil { // B1
		return err
	}
	if err := d.passBackwardParents(ctx, tasks); err != nil { // B2, fixed point
		return err
	}
	if err := d.passForwardReversed(ctx, tasks); err != nil { // F2
		return err
	}
	if err := d.passForwardReversed(ctx, tasks); err != nil { // F3
		return err
	}
	return nil
}

// passForwardPrimary is pass F1: process-all-source tasks run their
// unbounded query.
func (d *Driver) passForwardPrimary(ctx context.Context, tasks []*graph.Task) error {
	for _, t := range tasks {
		if !t.Object.AllRecords {
			continue
		}
		soql := fmt.Sprintf("SELECT %s FROM %s", strings.Join(selectableFields(t.Object), ", "), t.Object.Name)
		if err := d.runQuery(ctx, t, soql, Source); err != nil {
			return err
		}
	}
	return nil
}

// passBackwardParents is pass B1/B2: for each task's simple-reference
// fields whose parent is in the task list and not process-all, pull the
// referenced parent rows by Id.
func (d *Driver) passBackwardParents(ctx context.Context, tasks []*graph.Task) error {
	for _, t := range tasks {
		for _, f := range t.Object.Fields {
			if !f.IsLookup {
				continue
			}
			ids := fieldValues(t.SourceRecords, f.Name)
			// A polymorphic field's ids may belong to any one of its
			// candidates; pulling each candidate by the same id set is
			// harmless since an id that isn't that candidate's simply
			// matches nothing (spec.md §9 "Polymorphic lookups").
			for _, candidate := range f.LookupCandidates() {
				if candidate == "" || candidate == t.Object.Name {
					continue
				}
				parent, ok := d.byObject[candidate]
				if !ok || parent.Object.AllRecords {
					continue
				}
				if err := d.pullByID(ctx, parent, ids); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// passForwardReversed is pass F2/F3: for each task (acting as parent),
// pull additional rows using the id values already present on every other
// task's field that references it (spec.md §4.3 "execute child-to-parent
// closure via backward relationships").
func (d *Driver) passForwardReversed(ctx context.Context, tasks []*graph.Task) error {
	if d.Table == nil {
		return nil
	}
	for _, t := range tasks {
		for _, ref := range d.Table.ChildrenOf(t.Object.Name) {
			child, ok := d.byObject[ref.Owner.Name]
			if !ok {
				continue
			}
			ids := fieldValues(child.SourceRecords, ref.Field.Name)
			if err := d.pullByID(ctx, t, ids); err != nil {
				return err
			}
		}
	}
	return nil
}

// closeSelfReferences repeatedly pulls rows referenced by t's own
// self-reference fields (e.g. Account.ParentId) until no new ids appear
// (spec.md §4.3 "Self-references").
func (d *Driver) closeSelfReferences(ctx context.Context, t *graph.Task) error {
	var selfFields []*schema.FieldDescriptor
	for _, f := range t.Object.Fields {
		if f.IsLookup && f.ReferencedObject == t.Object.Name {
			selfFields = append(selfFields, f)
		}
	}
	if len(selfFields) == 0 {
		return nil
	}
	for {
		before := len(t.SourceRecords)
		for _, f := range selfFields {
			ids := fieldValues(t.SourceRecords, f.Name)
			if err := d.pullByID(ctx, t, ids); err != nil {
				return err
			}
		}
		if len(t.SourceRecords) == before {
			return nil
		}
	}
}

// pullByID issues chunked "WHERE Id IN (...)" queries for ids against
// parent, subtracting values already seen in FilteredValueCache (spec.md
// §8 "At-most-once queries").
func (d *Driver) pullByID(ctx context.Context, parent *graph.Task, ids []string) error {
	ids = distinctNonEmpty(ids)
	unqueried := parent.UnqueriedValues("Id", ids)
	if len(unqueried) == 0 {
		return nil
	}
	fields := strings.Join(selectableFields(parent.Object), ", ")
	for _, chunk := range chunkInValues(unqueried) {
		soql := fmt.Sprintf("SELECT %s FROM %s WHERE Id IN (%s)", fields, parent.Object.Name, chunk)
		if err := d.runQuery(ctx, parent, soql, Source); err != nil {
			return err
		}
	}
	return nil
}

// RetrieveTarget runs the target-side pass: one query per task, unbounded
// if process-all-target, else filtered by the source's known external id
// values (spec.md §4.3 "Algorithm — target side").
func (d *Driver) RetrieveTarget(ctx context.Context, tasks []*graph.Task) error {
	d.index(tasks)
	for _, t := range tasks {
		if t.Object.ExternalID == "" {
			continue
		}
		fields := strings.Join(selectableFields(t.Object), ", ")
		if t.Object.AllRecords {
			soql := fmt.Sprintf("SELECT %s FROM %s", fields, t.Object.TargetName)
			if err := d.runQueryTarget(ctx, t, soql); err != nil {
				return err
			}
			continue
		}
		extValues := make([]string, 0, len(t.ExternalIDToSourceID))
		for ext := range t.ExternalIDToSourceID {
			extValues = append(extValues, ext)
		}
		if len(extValues) == 0 {
			continue
		}
		for _, chunk := range chunkInValues(extValues) {
			soql := fmt.Sprintf("SELECT %s FROM %s WHERE %s IN (%s)", fields, t.Object.TargetName, t.Object.ExternalID, chunk)
			if err := d.runQueryTarget(ctx, t, soql); err != nil {
				return err
			}
		}
	}
	return nil
}

// runQuery executes soql against the source org, indexes the results onto
// t, and links any matching external ids.
func (d *Driver) runQuery(ctx context.Context, t *graph.Task, soql string, side Side) error {
	recs, err := d.query(ctx, t.Object.Name, soql)
	if err != nil {
		return err
	}
	for i, rec := range recs {
		m := map[string]interface{}(rec)
		t.AddSourceRecord(m, "Id")
		if t.Object.ExternalID != "" {
			if ext, ok := m[t.Object.ExternalID].(string); ok && ext != "" {
				id, _ := m["Id"].(string)
				t.SetExternalID(m, id, ext)
			}
		}
		if (i+1)%progressEvery == 0 && i+1 < len(recs) {
			d.Sink(progress.Event{Stage: progress.RetrieveRows, Object: t.Object.Name, Processed: len(t.SourceRecords), Message: string(side)})
		}
	}
	d.Sink(progress.Event{Stage: progress.RetrieveRows, Object: t.Object.Name, Processed: len(t.SourceRecords), Message: string(side)})
	return nil
}

// runQueryTarget executes soql against the target org, indexing results by
// external id and linking the source->target map when a match exists.
func (d *Driver) runQueryTarget(ctx context.Context, t *graph.Task, soql string) error {
	recs, err := d.query(ctx, t.Object.TargetName, soql)
	if err != nil {
		return err
	}
	for i, rec := range recs {
		m := map[string]interface{}(rec)
		id, _ := m["Id"].(string)
		ext, _ := m[t.Object.ExternalID].(string)
		t.TargetRecords = append(t.TargetRecords, m)
		if ext != "" {
			t.ExternalIDToTargetID[ext] = id
			if sourceID, ok := t.ExternalIDToSourceID[ext]; ok {
				t.SourceToTarget[sourceID] = m
			}
		}
		if (i+1)%progressEvery == 0 && i+1 < len(recs) {
			d.Sink(progress.Event{Stage: progress.RetrieveRows, Object: t.Object.TargetName, Processed: len(t.TargetRecords), Message: string(Target)})
		}
	}
	d.Sink(progress.Event{Stage: progress.RetrieveRows, Object: t.Object.TargetName, Processed: len(t.TargetRecords), Message: string(Target)})
	return nil
}

// query consults the cache before issuing soql against sv, then stores the
// result.
func (d *Driver) query(ctx context.Context, object, soql string) ([]sforce.RecordMap, error) {
	if recs, ok := d.Cache.Get(object, soql); ok {
		return recs, nil
	}
	var recs []sforce.RecordMap
	if err := d.Service.QueryAll(ctx, soql, &recs); err != nil {
		return nil, progress.NewApiTransportError("query "+object, err)
	}
	if err := d.Cache.Put(object, soql, recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// selectableFields returns the literal column names to SELECT for obj:
// every simple (non-phantom-complex) field, always including Id.
func selectableFields(obj *schema.ObjectDescriptor) []string {
	seen := map[string]bool{"Id": true}
	out := []string{"Id"}
	for _, f := range obj.Fields {
		if f.Complex != nil || seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		out = append(out, f.Name)
	}
	return out
}

// fieldValues extracts the string value of field from every record,
// skipping nulls and non-string values.
func fieldValues(records []map[string]interface{}, field string) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		if v, ok := rec[field].(string); ok && v != "" {
			out = append(out, v)
		}
	}
	return out
}
