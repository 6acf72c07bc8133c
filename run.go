// Package migrate wires together schema/query (C1), graph (C2), retrieve
// (C3), resolve (C4) and engine (C5) into the end-to-end run described by
// spec.md §5: describe every declared object, order the resulting tasks,
// retrieve source and target records, resolve lookups, then write through
// the selected engine — once per declared object set (spec.md §9
// "Declarative object-set partitioning").
package migrate

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/jfcote87/oauth2"

	"github.com/jfcote87/sfmigrate/csvsource"
	"github.com/jfcote87/sfmigrate/engine"
	"github.com/jfcote87/sfmigrate/graph"
	"github.com/jfcote87/sfmigrate/progress"
	"github.com/jfcote87/sfmigrate/query"
	"github.com/jfcote87/sfmigrate/resolve"
	"github.com/jfcote87/sfmigrate/retrieve"
	"github.com/jfcote87/sfmigrate/schema"
	"github.com/jfcote87/sfmigrate/script"
	"github.com/jfcote87/sfmigrate/sforce"
)

// Orgs binds the two already-connected services a run moves records
// between. Connection/auth flow is out of scope (spec.md §1); the caller
// builds these from script.Org entries however it likes (static token,
// JWT, refresh flow).
type Orgs struct {
	Source *sforce.Service
	Target *sforce.Service
}

// NewOrgsFromScript builds Orgs from a Script's orgs[] list using static
// bearer tokens, by org name: "source" and "target" (spec.md §6 orgs[]
// is silent on which entry plays which role; this run package resolves it
// by convention rather than position, so reordering the list in a script
// file doesn't silently swap source and target).
func NewOrgsFromScript(s *script.Script) (*Orgs, error) {
	var orgs Orgs
	for _, o := range s.Orgs {
		sv := sforce.New(o.InstanceURL, s.APIVersion, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: o.AccessToken}))
		switch o.Name {
		case "source":
			orgs.Source = sv
		case "target":
			orgs.Target = sv
		}
	}
	if orgs.Source == nil || orgs.Target == nil {
		return nil, fmt.Errorf("script must declare orgs named %q and %q", "source", "target")
	}
	return &orgs, nil
}

// RunOptions carries the filesystem roots and reporting hooks for one Run.
type RunOptions struct {
	// BaseDir is the root for this run's files: the record cache under
	// cache/ and, when CSV repair runs, the CSVs read from source-raw/ and
	// written repaired to source/ (spec.md §6 "CSV on-disk layout"). Run
	// does not write the two CSV reports; it returns the Report.
	BaseDir string
	Sink    progress.Sink
}

// describedObject pairs a script-declared object with its built
// descriptor and parsed query, carried through the pipeline stages.
type describedObject struct {
	script *script.ObjectScript
	desc   *schema.ObjectDescriptor
}

// Run executes one ObjectSet end to end against orgs, returning the
// accumulated missing-parent/CSV-issue report (spec.md §5).
func Run(ctx context.Context, orgs *Orgs, s *script.Script, set script.ObjectSet, opts RunOptions) (*progress.Report, error) {
	sink := opts.Sink
	if sink == nil {
		sink = progress.NullSink
	}
	report := &progress.Report{}

	described, err := describeAll(ctx, orgs, set.Objects)
	if err != nil {
		return report, err
	}

	mode := graph.Smart
	if s.KeepObjectOrderWhileExecute {
		mode = graph.Preserve
	}
	descs := make([]*schema.ObjectDescriptor, len(described))
	for i, d := range described {
		descs[i] = d.desc
	}
	result := graph.Build(descs, mode)
	table := schema.NewTable(descs)

	if s.ImportCSVFilesAsIs {
		// Repair every object's CSV export in place before the API-based
		// retrieval driver runs, per spec.md §4.6's repair steps. The
		// repaired files land under BaseDir/source for inspection/CSV
		// write-preview parity (spec.md §6 "CSV on-disk layout"); the
		// retrieval driver itself still reads through the API (see
		// DESIGN.md "CSV-as-source retrieval").
		valueMappings := make(map[string]map[string]map[string]string, len(described))
		for _, d := range described {
			if d.script.UseCSVValuesMapping && len(d.script.ValueMapping) > 0 {
				valueMappings[d.desc.Name] = d.script.ValueMapping
			}
		}
		if err := csvsource.RepairDir(table, filepath.Join(opts.BaseDir, "source-raw"), filepath.Join(opts.BaseDir, "source"), valueMappings, report); err != nil {
			return report, &progress.PipelineError{Object: "csvsource", Cause: err}
		}
	}

	cacheMode := retrieve.CacheMode(s.SourceRecordsCache)
	cacheDir := filepath.Join(opts.BaseDir, "cache")
	cache, err := retrieve.NewCache(cacheMode, cacheDir)
	if err != nil {
		return report, err
	}

	driver := retrieve.NewDriver(orgs.Source, table, cache, sink, report)
	if err := driver.RetrieveSource(ctx, result.QueryOrder); err != nil {
		return report, &progress.PipelineError{Object: "retrieve(source)", Cause: err}
	}

	targetDriver := retrieve.NewDriver(orgs.Target, table, cache, sink, report)
	if err := targetDriver.RetrieveTarget(ctx, result.QueryOrder); err != nil {
		return report, &progress.PipelineError{Object: "retrieve(target)", Cause: err}
	}

	resolver := resolve.NewResolver(result.TaskOrder, report)

	for _, t := range deleteThenWriteOrder(result) {
		byName := objectByName(described, t.Object.Name)
		if byName == nil || byName.script.Operation == schema.Readonly {
			continue
		}
		if err := writeTask(ctx, orgs.Target, s, byName.script, t, resolver, sink); err != nil {
			return report, &progress.PipelineError{Object: t.Object.Name, Cause: err}
		}
	}

	log.Printf("migrate: object set %q complete: %d objects, %d missing-parent rows, %d csv issues",
		set.Name, len(described), len(report.MissingParents), len(report.CSVIssues))
	return report, nil
}

// deleteThenWriteOrder runs DeleteOrder first (reverse dependency order,
// so children are removed before their parents) followed by TaskOrder for
// every non-delete operation (spec.md §4.2 "deleteOrder").
func deleteThenWriteOrder(result graph.Result) []*graph.Task {
	out := make([]*graph.Task, 0, len(result.DeleteOrder)+len(result.TaskOrder))
	for _, t := range result.DeleteOrder {
		if t.Object.Operation == schema.Delete {
			out = append(out, t)
		}
	}
	for _, t := range result.TaskOrder {
		if t.Object.Operation != schema.Delete {
			out = append(out, t)
		}
	}
	return out
}

func objectByName(described []describedObject, name string) *describedObject {
	for i := range described {
		if described[i].desc.Name == name {
			return &described[i]
		}
	}
	return nil
}

// describeAll parses and describes every object in objs against both
// orgs, failing fast on the first schema error (spec.md §4.1, §7
// "SchemaError ... raised before any data moves").
func describeAll(ctx context.Context, orgs *Orgs, objs []*script.ObjectScript) ([]describedObject, error) {
	out := make([]describedObject, 0, len(objs))
	metaCache := make(map[string]*schema.SObjectMeta)

	describeCached := func(sv *sforce.Service, name string) (*schema.SObjectMeta, error) {
		key := sv.Instance() + "/" + name
		if m, ok := metaCache[key]; ok {
			return m, nil
		}
		def, err := sv.Describe(ctx, name)
		if err != nil {
			return nil, nil // object absent on this side; schema.Describe reports it
		}
		m := schema.ToSObjectMeta(def)
		metaCache[key] = m
		return m, nil
	}

	for _, os := range objs {
		p, err := query.Parse(os.Query)
		if err != nil {
			return nil, err
		}
		sourceMeta, err := describeCached(orgs.Source, p.From)
		if err != nil {
			return nil, err
		}
		targetObjectName := p.From
		for _, fm := range os.FieldMapping {
			if fm.Source == "Object" {
				targetObjectName = fm.Target
			}
		}
		targetMeta, err := describeCached(orgs.Target, targetObjectName)
		if err != nil {
			return nil, err
		}

		expanded := query.Expand(query.ExpandRequest{
			Fields:         p.Fields,
			Pattern:        os.MultiselectPattern,
			ExternalID:     os.ExternalID,
			Operation:      os.Operation,
			ObjectName:     p.From,
			ExcludedFields: os.ExcludedFields,
			SourceMeta:     sourceMeta,
		})

		fields, _, err := schema.Describe(p.From, sourceMeta, targetMeta, expanded.Fields, os.ExternalID)
		if err != nil {
			return nil, err
		}
		applyPolymorphicPins(fields, expanded.Polymorphic)

		desc := &schema.ObjectDescriptor{
			Name:        p.From,
			TargetName:  targetObjectName,
			ExternalID:  os.ExternalID,
			Operation:   os.Operation,
			Fields:      fields,
			AllRecords:  os.AllRecords,
			DeleteQuery: os.DeleteQuery,
			SourceMeta:  sourceMeta,
			TargetMeta:  targetMeta,
		}
		out = append(out, describedObject{script: os, desc: desc})
	}
	return out, nil
}

// applyPolymorphicPins copies query.Expand's parsed "Field$ParentObject"
// selectors onto the matching FieldDescriptor.PinnedTarget, narrowing a
// polymorphic lookup's candidate list to exactly the pinned object (spec.md
// §9 "Polymorphic lookups").
func applyPolymorphicPins(fields []*schema.FieldDescriptor, pins map[string]string) {
	if len(pins) == 0 {
		return
	}
	for _, f := range fields {
		if parent, ok := pins[f.Name]; ok {
			f.PinnedTarget = parent
		}
	}
}

// writeTask prepares t's records through resolver and submits them via the
// engine selected for this task's record count (spec.md §4.4, §4.5).
func writeTask(ctx context.Context, target *sforce.Service, s *script.Script, os *script.ObjectScript, t *graph.Task, resolver *resolve.Resolver, sink progress.Sink) error {
	records := resolver.Prepare(t)

	if t.Object.Name == "Account" || t.Object.Name == "Contact" {
		person, business := resolve.Partition(records)
		excluded := resolve.PersonContactExcludedFields
		if t.Object.Name == "Account" {
			excluded = resolve.PersonAccountExcludedFields
		}
		records = append(resolve.StripFields(person, excluded), business...)
	}

	cfg := engine.DefaultConfig()
	cfg.Object = t.Object.Name
	cfg.TargetObject = t.Object.TargetName
	cfg.Operation = t.Object.Operation
	cfg.ExternalIDField = t.Object.ExternalID
	cfg.AllOrNone = s.AllOrNone
	cfg.BulkThreshold = s.BulkThreshold
	cfg.BulkAPIVersion = s.BulkAPIVersion
	cfg.BulkV1BatchSize = s.BulkAPIV1BatchSize
	cfg.PollingInterval = time.Duration(s.PollingIntervalMs) * time.Millisecond
	if cfg.BulkThreshold == 0 {
		cfg.BulkThreshold = engine.DefaultConfig().BulkThreshold
	}

	var eng engine.Engine
	switch engine.Select(cfg, len(records)) {
	case engine.KindBulkV2:
		eng = engine.NewBulkV2Engine(target, cfg)
	case engine.KindBulkV1:
		eng = engine.NewBulkV1Engine(target, cfg)
	default:
		eng = engine.NewRESTEngine(target.WithProgressSink(sink), cfg)
	}

	batches := eng.PrepareBatches(records)
	results, err := eng.Execute(ctx, batches, sink)
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Success {
			t.SourceToTarget[idOf(r.Record)] = map[string]interface{}{"Id": r.ID}
		}
	}
	return nil
}

func idOf(rec map[string]interface{}) string {
	id, _ := rec["Id"].(string)
	return id
}

// RunObjectSets runs every object set declared in s, each against its own
// source/target subdirectories (spec.md §9 "Declarative object-set
// partitioning": "the outer runner invokes the pipeline once per set").
// A set's failure aborts the whole run; reports from completed sets are
// merged into the returned Report so a single pair of CSVIssuesReport.csv
// / MissingParentRecordsReport.csv can be written for the entire run.
func RunObjectSets(ctx context.Context, orgs *Orgs, s *script.Script, baseDir string, sink progress.Sink) (*progress.Report, error) {
	merged := &progress.Report{}
	for i, set := range s.Sets() {
		setDir := filepath.Join(baseDir, fmt.Sprintf("object-set-%d", i))
		report, err := Run(ctx, orgs, s, set, RunOptions{BaseDir: setDir, Sink: sink})
		merged.MissingParents = append(merged.MissingParents, report.MissingParents...)
		merged.CSVIssues = append(merged.CSVIssues, report.CSVIssues...)
		if err != nil {
			return merged, fmt.Errorf("object set %q: %w", set.Name, err)
		}
	}
	return merged, nil
}
