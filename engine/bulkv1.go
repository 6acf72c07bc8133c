package engine

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/jfcote87/sfmigrate/progress"
	"github.com/jfcote87/sfmigrate/sforce"
)

// BulkV1Engine drives the Bulk API 1.0 job/batch/poll model (spec.md §4.5
// "Bulk v1 engine"). Grounded on the poll-loop idiom in go-sfdc's
// bulk/job.go Wait method: each batch is polled with an exponential backoff
// until the batch reaches a terminal state or pollTimeout elapses.
type BulkV1Engine struct {
	Service *sforce.Service
	Cfg     Config
}

// NewBulkV1Engine builds a BulkV1Engine for cfg.
func NewBulkV1Engine(sv *sforce.Service, cfg Config) *BulkV1Engine {
	return &BulkV1Engine{Service: sv, Cfg: cfg}
}

// PrepareBatches splits records into chunks no larger than
// Cfg.BulkV1BatchSize (spec.md §6 "bulkApiV1BatchSize").
func (e *BulkV1Engine) PrepareBatches(records []map[string]interface{}) [][]map[string]interface{} {
	batchSz := e.Cfg.BulkV1BatchSize
	if batchSz <= 0 {
		batchSz = 10000
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

// Execute creates one job for the whole operation, then for each batch
// creates a Bulk v1 batch, polls it to completion, and zips the
// positional batch result array back onto the submitted records (spec.md
// §4.5 "On the terminal response event the engine zips request records
// and result records by index").
func (e *BulkV1Engine) Execute(ctx context.Context, batches [][]map[string]interface{}, sink progress.Sink) ([]Result, error) {
	if sink == nil {
		sink = progress.NullSink
	}
	sink(progress.Event{Stage: progress.OperationStarted, Object: e.Cfg.Object, Operation: string(e.Cfg.Operation)})

	job, err := e.Service.CreateJobV1(ctx, &sforce.JobV1Definition{
		Object:              e.Cfg.TargetObject,
		Operation:           bulkOperationName(e.Cfg),
		ExternalIDFieldName: e.Cfg.ExternalIDField,
	})
	if err != nil {
		return nil, progress.NewApiTransportError("bulkv1 create job "+e.Cfg.Object, err)
	}

	parallel := e.Cfg.ParallelBulkJobs
	if parallel <= 0 {
		parallel = 1
	}
	sem := semaphore.NewWeighted(int64(parallel))
	grp, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var results []Result
	processed, failed := 0, 0

	for _, batch := range batches {
		batch := batch
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		grp.Go(func() error {
			defer sem.Release(1)
			sink(progress.Event{Stage: progress.UploadStart, Object: e.Cfg.Object, Total: len(batch)})

			recs := toSObjects(batch, e.Cfg.TargetObject, e.Cfg.Operation == "Insert")
			b, err := e.Service.CreateBatchV1(gctx, job.ID, recs)
			if err != nil {
				return progress.NewApiTransportError("bulkv1 create batch "+e.Cfg.Object, err)
			}
			sink(progress.Event{Stage: progress.UploadComplete, Object: e.Cfg.Object, Total: len(batch)})

			final, err := e.poll(gctx, job.ID, b.ID, sink)
			if err != nil {
				return err
			}
			if final.State != "Completed" {
				return &progress.ApiOperationFailedError{Object: e.Cfg.Object, Operation: string(e.Cfg.Operation), Cause: progress.NewApiTransportError("bulkv1 batch", errBulkBatchFailed(final.State, final.StateMessage))}
			}

			batchResults, err := e.Service.GetBatchV1Results(gctx, job.ID, b.ID)
			if err != nil {
				return progress.NewApiTransportError("bulkv1 get batch results "+e.Cfg.Object, err)
			}
			zipped := zipBulkV1Results(batch, batchResults)

			mu.Lock()
			for _, r := range zipped {
				if r.Success {
					processed++
				} else {
					failed++
				}
			}
			results = append(results, zipped...)
			sink(progress.Event{Stage: progress.InProgress, Object: e.Cfg.Object, Processed: processed, Failed: failed})
			mu.Unlock()
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		_, _ = e.Service.AbortJobV1(ctx, job.ID)
		return results, err
	}

	if _, err := e.Service.CloseJobV1(ctx, job.ID); err != nil {
		return results, progress.NewApiTransportError("bulkv1 close job "+e.Cfg.Object, err)
	}
	sink(progress.Event{Stage: progress.JobComplete, Object: e.Cfg.Object, Processed: processed, Failed: failed})
	sink(progress.Event{Stage: progress.OperationFinished, Object: e.Cfg.Object, Operation: string(e.Cfg.Operation), Processed: processed, Failed: failed})
	return results, nil
}

// poll repeats GetBatchV1 with exponential backoff until the batch reaches
// a terminal state (Completed, Failed, NotProcessed) or Cfg.PollTimeout
// elapses.
func (e *BulkV1Engine) poll(ctx context.Context, jobID, batchID string, sink progress.Sink) (*sforce.BatchV1, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.pollInterval()
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = e.pollTimeout()

	var final *sforce.BatchV1
	op := func() error {
		batch, err := e.Service.GetBatchV1(ctx, jobID, batchID)
		if err != nil {
			return backoff.Permanent(err)
		}
		switch batch.State {
		case "Completed", "Failed", "NotProcessed":
			final = batch
			return nil
		default:
			sink(progress.Event{Stage: progress.InProgress, Object: e.Cfg.Object, Message: batch.State})
			return errBulkStillRunning
		}
	}
	if err := backoff.Retry(op, b); err != nil {
		return nil, progress.NewApiTransportError("bulkv1 poll "+e.Cfg.Object, err)
	}
	return final, nil
}

func (e *BulkV1Engine) pollInterval() time.Duration {
	if e.Cfg.PollingInterval > 0 {
		return e.Cfg.PollingInterval
	}
	return 5 * time.Second
}

func (e *BulkV1Engine) pollTimeout() time.Duration {
	if e.Cfg.PollTimeout > 0 {
		return e.Cfg.PollTimeout
	}
	return 50 * time.Minute
}

func bulkOperationName(cfg Config) string {
	switch cfg.Operation {
	case "Insert":
		return "insert"
	case "Update":
		return "update"
	case "Upsert":
		return "upsert"
	case "Delete":
		return "delete"
	default:
		return "insert"
	}
}

// zipBulkV1Results pairs submitted records with BatchV1Result entries by
// position, the same positional correlation the REST engine uses, since
// Bulk v1's JSON content type preserves submission order (spec.md §4.5).
func zipBulkV1Results(batch []map[string]interface{}, results []sforce.BatchV1Result) []Result {
	out := make([]Result, 0, len(batch))
	for i, rec := range batch {
		r := Result{Record: rec}
		if i < len(results) {
			res := results[i]
			r.ID = res.ID
			r.Success = res.Success
			if !res.Success && len(res.Errors) > 0 {
				r.Error = res.Errors[0].Message
			}
		}
		out = append(out, r)
	}
	return out
}

type bulkErr string

func (e bulkErr) Error() string { return string(e) }

var errBulkStillRunning = bulkErr("batch still running")

func errBulkBatchFailed(state, message string) error {
	return bulkErr(state + ": " + message)
}
