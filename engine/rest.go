package engine

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/jfcote87/sfmigrate/progress"
	"github.com/jfcote87/sfmigrate/schema"
	"github.com/jfcote87/sfmigrate/sforce"
)

// RESTEngine drives the REST collection API: one batch per chunk, bounded
// by the service's own MaxBatchSize (spec.md §4.5 "REST engine").
type RESTEngine struct {
	Service *sforce.Service
	Cfg     Config
}

// NewRESTEngine builds a RESTEngine for cfg.
func NewRESTEngine(sv *sforce.Service, cfg Config) *RESTEngine {
	return &RESTEngine{Service: sv, Cfg: cfg}
}

// PrepareBatches splits records into chunks no larger than the service's
// configured batch size (composite collection calls already chunk
// internally, but the engine still reports progress per logical chunk).
func (e *RESTEngine) PrepareBatches(records []map[string]interface{}) [][]map[string]interface{} {
	batchSz := e.Service.MaxBatchSize()
	if batchSz <= 0 {
		batchSz = 200
	}
	var batches [][]map[string]interface{}
	for i := 0; i < len(records); i += batchSz {
		end := i + batchSz
		if end > len(records) {
			end = len(records)
		}
		batches = append(batches, records[i:end])
	}
	return batches
}

// Execute submits every batch via the collection API matching Cfg.Operation,
// up to Cfg.ParallelRESTJobs concurrently, and zips each batch's positional
// OpResponse array back onto its submitted records (spec.md §4.5 "iterate
// the result array positionally"). Batch order within the returned slice is
// not guaranteed when more than one job runs concurrently.
func (e *RESTEngine) Execute(ctx context.Context, batches [][]map[string]interface{}, sink progress.Sink) ([]Result, error) {
	if sink == nil {
		sink = progress.NullSink
	}
	sink(progress.Event{Stage: progress.OperationStarted, Object: e.Cfg.Object, Operation: string(e.Cfg.Operation)})

	parallel := e.Cfg.ParallelRESTJobs
	if parallel <= 0 {
		parallel = 1
	}
	sem := semaphore.NewWeighted(int64(parallel))
	grp, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var results []Result
	var processed int

	for _, batch := range batches {
		batch := batch
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		grp.Go(func() error {
			defer sem.Release(1)
			sink(progress.Event{Stage: progress.Open, Object: e.Cfg.Object, Operation: string(e.Cfg.Operation), Total: len(batch)})

			recs := toSObjects(batch, e.Cfg.TargetObject, e.Cfg.Operation == schema.Insert)
			opResps, err := e.call(gctx, recs)
			if err != nil {
				return progress.NewApiTransportError("rest "+string(e.Cfg.Operation)+" "+e.Cfg.Object, err)
			}
			zipped := zipResults(batch, opResps)

			mu.Lock()
			results = append(results, zipped...)
			processed += len(zipped)
			mu.Unlock()
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return results, err
	}

	sink(progress.Event{Stage: progress.OperationFinished, Object: e.Cfg.Object, Operation: string(e.Cfg.Operation), Processed: processed})
	return results, nil
}

func (e *RESTEngine) call(ctx context.Context, recs []sforce.SObject) ([]sforce.OpResponse, error) {
	switch e.Cfg.Operation {
	case schema.Insert:
		return e.Service.CreateRecords(ctx, e.Cfg.AllOrNone, recs)
	case schema.Update:
		return e.Service.UpdateRecords(ctx, e.Cfg.AllOrNone, recs)
	case schema.Upsert:
		return e.Service.UpsertRecords(ctx, e.Cfg.AllOrNone, e.Cfg.ExternalIDField, recs)
	case schema.Delete:
		ids := make([]string, 0, len(recs))
		for _, r := range recs {
			if rm, ok := r.(sforce.RecordMap); ok {
				if id, _ := rm["Id"].(string); id != "" {
					ids = append(ids, id)
				}
			}
		}
		return e.Service.DeleteRecords(ctx, e.Cfg.AllOrNone, ids)
	default:
		return nil, nil
	}
}

// toSObjects wraps plain record maps as sforce.RecordMap with the
// attributes.type populated so CompositeCall's WithAttr has a type to
// preserve. excludeID drops the "Id" column from the wire payload: an
// Insert carries the source-side id only for downstream correlation
// (engine.Result.Record echoes the untouched input), never as a field to
// write (spec.md §4.5: inserting a record with a populated Id is rejected
// by the API).
func toSObjects(records []map[string]interface{}, targetObject string, excludeID bool) []sforce.SObject {
	out := make([]sforce.SObject, 0, len(records))
	for _, rec := range records {
		rm := make(sforce.RecordMap, len(rec)+1)
		for k, v := range rec {
			if excludeID && k == "Id" {
				continue
			}
			rm[k] = v
		}
		rm["attributes"] = map[string]interface{}{"type": targetObject}
		out = append(out, rm)
	}
	return out
}

// zipResults pairs submitted records with their OpResponse by position
// (spec.md §4.5).
func zipResults(batch []map[string]interface{}, opResps []sforce.OpResponse) []Result {
	out := make([]Result, 0, len(batch))
	for i, rec := range batch {
		r := Result{Record: rec}
		if i < len(opResps) {
			resp := opResps[i]
			r.ID = resp.ID
			r.Success = resp.Success
			if !resp.Success && len(resp.Errors) > 0 {
				r.Error = resp.Errors[0].Message
			}
		}
		out = append(out, r)
	}
	return out
}
