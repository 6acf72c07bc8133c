package engine

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/csv"
	"io"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jfcote87/sfmigrate/progress"
	"github.com/jfcote87/sfmigrate/sforce"
)

// BulkV2Engine drives the Bulk API 2.0 CSV-ingest job model (spec.md §4.5
// "Bulk v2 engine").
type BulkV2Engine struct {
	Service *sforce.Service
	Cfg     Config
}

// NewBulkV2Engine builds a BulkV2Engine for cfg.
func NewBulkV2Engine(sv *sforce.Service, cfg Config) *BulkV2Engine {
	return &BulkV2Engine{Service: sv, Cfg: cfg}
}

// PrepareBatches splits records into CSV chunks sized so that the base64
// encoding of the CSV body (not the raw bytes) stays below Cfg.CSVByteLimit
// (spec.md §4.5 "CSV chunking").
func (e *BulkV2Engine) PrepareBatches(records []map[string]interface{}) [][]map[string]interface{} {
	limit := e.Cfg.CSVByteLimit
	if limit <= 0 {
		limit = 10 * 1024 * 1024
	}
	columns := csvColumns(records, e.Cfg.Operation == "Insert")

	var batches [][]map[string]interface{}
	var cur []map[string]interface{}
	curSize := base64.StdEncoding.EncodedLen(len(csvHeader(columns)))
	for _, rec := range records {
		row := csvRowBytes(columns, rec)
		rowSize := base64.StdEncoding.EncodedLen(len(row))
		if len(cur) > 0 && curSize+rowSize > limit {
			batches = append(batches, cur)
			cur = nil
			curSize = base64.StdEncoding.EncodedLen(len(csvHeader(columns)))
		}
		cur = append(cur, rec)
		curSize += rowSize
	}
	if len(cur) > 0 {
		batches = append(batches, cur)
	}
	return batches
}

// Execute runs one Bulk v2 job per chunk: create, upload CSV, close, poll,
// then reconcile results (spec.md §4.5 steps 1-5).
func (e *BulkV2Engine) Execute(ctx context.Context, batches [][]map[string]interface{}, sink progress.Sink) ([]Result, error) {
	if sink == nil {
		sink = progress.NullSink
	}
	sink(progress.Event{Stage: progress.OperationStarted, Object: e.Cfg.Object, Operation: string(e.Cfg.Operation)})

	var allResults []Result
	processed, failed := 0, 0
	for _, batch := range batches {
		results, err := e.executeChunk(ctx, batch, sink)
		if err != nil {
			return allResults, err
		}
		for _, r := range results {
			if r.Success {
				processed++
			} else {
				failed++
			}
		}
		allResults = append(allResults, results...)
	}

	sink(progress.Event{Stage: progress.OperationFinished, Object: e.Cfg.Object, Operation: string(e.Cfg.Operation), Processed: processed, Failed: failed})
	return allResults, nil
}

func (e *BulkV2Engine) executeChunk(ctx context.Context, batch []map[string]interface{}, sink progress.Sink) ([]Result, error) {
	job, err := e.Service.CreateJob(ctx, &sforce.JobDefinition{
		Object:              e.Cfg.TargetObject,
		Operation:           bulkOperationName(e.Cfg),
		ExternalIDFieldName: e.Cfg.ExternalIDField,
		ContentType:         "CSV",
		LineEnding:          "LF",
	})
	if err != nil {
		return nil, progress.NewApiTransportError("bulkv2 create job "+e.Cfg.Object, err)
	}

	excludeID := e.Cfg.Operation == "Insert"
	columns := csvColumns(batch, excludeID)
	var body bytes.Buffer
	w := csv.NewWriter(&body)
	_ = w.Write(columns)
	for _, rec := range batch {
		_ = w.Write(csvRow(columns, rec))
	}
	w.Flush()

	sink(progress.Event{Stage: progress.UploadStart, Object: e.Cfg.Object, Total: len(batch)})
	if err := e.Service.UploadJobData(ctx, job.ID, bytes.NewReader(body.Bytes())); err != nil {
		_, _ = e.Service.AbortJob(ctx, job.ID)
		return nil, progress.NewApiTransportError("bulkv2 upload "+e.Cfg.Object, err)
	}
	sink(progress.Event{Stage: progress.UploadComplete, Object: e.Cfg.Object, Total: len(batch)})

	if _, err := e.Service.CloseJob(ctx, job.ID); err != nil {
		return nil, progress.NewApiTransportError("bulkv2 close "+e.Cfg.Object, err)
	}

	final, err := e.poll(ctx, job.ID, sink)
	if err != nil {
		return nil, err
	}
	if !final.Succeeded() {
		return nil, &progress.ApiOperationFailedError{Object: e.Cfg.Object, Operation: string(e.Cfg.Operation), Cause: errBulkBatchFailed(final.State, "")}
	}
	sink(progress.Event{Stage: progress.JobComplete, Object: e.Cfg.Object})

	return e.reconcile(ctx, job.ID, batch)
}

// poll repeats GetJob with exponential backoff until the job reaches
// JobComplete or FailedOrAborted, or Cfg.PollTimeout elapses (spec.md
// §4.5 step 4).
func (e *BulkV2Engine) poll(ctx context.Context, jobID string, sink progress.Sink) (*sforce.Job, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.pollInterval()
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = e.pollTimeout()

	var final *sforce.Job
	op := func() error {
		job, err := e.Service.GetJob(ctx, jobID)
		if err != nil {
			return backoff.Permanent(err)
		}
		if job.Terminal() {
			final = job
			return nil
		}
		sink(progress.Event{Stage: progress.InProgress, Object: e.Cfg.Object, Message: job.State})
		return errBulkStillRunning
	}
	if err := backoff.Retry(op, b); err != nil {
		return nil, progress.NewApiTransportError("bulkv2 poll "+e.Cfg.Object, err)
	}
	return final, nil
}

func (e *BulkV2Engine) pollInterval() time.Duration {
	if e.Cfg.PollingInterval > 0 {
		return e.Cfg.PollingInterval
	}
	return 5 * time.Second
}

func (e *BulkV2Engine) pollTimeout() time.Duration {
	if e.Cfg.PollTimeout > 0 {
		return e.Cfg.PollTimeout
	}
	return 50 * time.Minute
}

// reconcile fetches successful/failed/unprocessed CSVs and joins them back
// to batch, by Id equality for updates/deletes or by content hash for
// inserts (spec.md §4.5 "Reconciliation").
func (e *BulkV2Engine) reconcile(ctx context.Context, jobID string, batch []map[string]interface{}) ([]Result, error) {
	successful, err := e.readResultCSV(ctx, e.Service.GetSuccessfulJobRecords, jobID)
	if err != nil {
		return nil, err
	}
	failedRows, err := e.readResultCSV(ctx, e.Service.GetFailedJobRecords, jobID)
	if err != nil {
		return nil, err
	}
	unprocessed, err := e.readResultCSV(ctx, e.Service.GetUnprocessedJobRecords, jobID)
	if err != nil {
		return nil, err
	}

	if e.Cfg.Operation != "Insert" {
		return e.reconcileByID(batch, successful, failedRows, unprocessed), nil
	}
	return e.reconcileByHash(batch, successful, failedRows, unprocessed), nil
}

func (e *BulkV2Engine) readResultCSV(ctx context.Context, get func(context.Context, string) (*sforce.HTTPBody, error), jobID string) ([]map[string]string, error) {
	body, err := get(ctx, jobID)
	if err != nil {
		return nil, progress.NewApiTransportError("bulkv2 read results "+e.Cfg.Object, err)
	}
	if body == nil || body.Rdr == nil {
		return nil, nil
	}
	defer body.Rdr.Close()
	return parseCSVRows(body.Rdr)
}

func parseCSVRows(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	header := rows[0]
	out := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		m := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				m[col] = row[i]
			}
		}
		out = append(out, m)
	}
	return out, nil
}

// reconcileByID matches result rows to batch records by Id equality
// (updates/deletes: the submitted record already carries its own Id).
func (e *BulkV2Engine) reconcileByID(batch []map[string]interface{}, successful, failedRows, unprocessed []map[string]string) []Result {
	successByID := make(map[string]map[string]string, len(successful))
	for _, row := range successful {
		successByID[row["sf__Id"]] = row
	}
	failedByID := make(map[string]map[string]string, len(failedRows))
	for _, row := range failedRows {
		failedByID[row["Id"]] = row
	}
	unprocessedByID := make(map[string]bool, len(unprocessed))
	for _, row := range unprocessed {
		unprocessedByID[row["Id"]] = true
	}

	out := make([]Result, 0, len(batch))
	for _, rec := range batch {
		id, _ := rec["Id"].(string)
		switch {
		case successByID[id] != nil:
			out = append(out, Result{Record: rec, ID: id, Success: true})
		case failedByID[id] != nil:
			out = append(out, Result{Record: rec, ID: id, Success: false, Error: failedByID[id]["sf__Error"]})
		case unprocessedByID[id]:
			out = append(out, Result{Record: rec, Success: false, Error: ErrUnprocessed})
		default:
			out = append(out, Result{Record: rec, Success: false, Error: ErrMissingSourceTargetMapping})
		}
	}
	return out
}

// reconcileByHash matches result rows to batch records by content hash
// (inserts: the API does not echo a correlation id), resolving collisions
// with the same _0,_1,... suffixing applied on both sides (spec.md §4.5
// "Reconciliation (the subtle part of insert)").
func (e *BulkV2Engine) reconcileByHash(batch []map[string]interface{}, successful, failedRows, unprocessed []map[string]string) []Result {
	batchHashes := make([]uint64, len(batch))
	for i, rec := range batch {
		batchHashes[i] = recordHash(rec)
	}
	batchKeys := dedupeHashes(batchHashes)
	byKey := make(map[string]int, len(batch))
	for i, k := range batchKeys {
		byKey[k] = i
	}

	successKeys, successRows := hashResultRows(successful)
	failedKeys, failedFailedRows := hashResultRows(failedRows)
	unprocessedKeys, _ := hashResultRows(unprocessed)

	out := make([]Result, len(batch))
	for i, rec := range batch {
		out[i] = Result{Record: rec, Error: ErrMissingSourceTargetMapping}
	}
	for _, k := range unprocessedKeys {
		if idx, ok := byKey[k]; ok {
			out[idx] = Result{Record: batch[idx], Success: false, Error: ErrUnprocessed}
		}
	}
	for i, k := range successKeys {
		if idx, ok := byKey[k]; ok {
			out[idx] = Result{Record: batch[idx], ID: successRows[i]["sf__Id"], Success: true}
		}
	}
	for i, k := range failedKeys {
		if idx, ok := byKey[k]; ok {
			out[idx] = Result{Record: batch[idx], Success: false, Error: failedFailedRows[i]["sf__Error"]}
		}
	}
	return out
}

// hashResultRows recomputes the same content hash over each result row's
// non-meta columns so it can be matched against batchKeys.
func hashResultRows(rows []map[string]string) ([]string, []map[string]string) {
	hashes := make([]uint64, len(rows))
	for i, row := range rows {
		generic := make(map[string]interface{}, len(row))
		for k, v := range row {
			if k == "sf__Id" || k == "sf__Error" {
				continue
			}
			generic[k] = v
		}
		hashes[i] = recordHash(generic)
	}
	return dedupeHashes(hashes), rows
}

// csvColumns derives a stable column order: the union of keys across
// records (excluding attributes), sorted for determinism. excludeID drops
// the "Id" column for Insert operations, matching toSObjects' REST/Bulk v1
// behavior: the API rejects an insert whose payload carries a populated
// Id, so the source id only ever travels via Result.Record for downstream
// correlation, never as a submitted column.
func csvColumns(records []map[string]interface{}, excludeID bool) []string {
	set := make(map[string]bool)
	for _, rec := range records {
		for k := range rec {
			if k == "attributes" || (excludeID && k == "Id") {
				continue
			}
			set[k] = true
		}
	}
	cols := make([]string, 0, len(set))
	for k := range set {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

func csvRow(columns []string, rec map[string]interface{}) []string {
	row := make([]string, len(columns))
	for i, c := range columns {
		row[i] = scalarToString(rec[c])
	}
	return row
}

func csvHeader(columns []string) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(columns)
	w.Flush()
	return buf.Bytes()
}

func csvRowBytes(columns []string, rec map[string]interface{}) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(csvRow(columns, rec))
	w.Flush()
	return buf.Bytes()
}
