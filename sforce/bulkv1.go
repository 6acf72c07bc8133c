// Copyright 2022 James Cote
// All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sforce

import (
	"fmt"

	"context"
)

// JobV1Definition is the initialization payload for a Bulk API 1.0 job.
// Unlike the v2 ingest job (JobDefinition), v1 jobs are batch-centric:
// the job itself only declares the object/operation/concurrency mode;
// records are submitted in separate batch calls (see CreateBatchV1).
// https://developer.salesforce.com/docs/atlas.en-us.api_asynch.meta/api_asynch/asynch_api_intro.htm
type JobV1Definition struct {
	Object              string `json:"object,omitempty"`
	Operation           string `json:"operation,omitempty"`
	ExternalIDFieldName string `json:"externalIdFieldName,omitempty"`
	ConcurrencyMode     string `json:"concurrencyMode,omitempty"` // Parallel or Serial
	ContentType         string `json:"contentType,omitempty"`     // JSON
}

// JobV1 is the current state of a Bulk v1 job, as returned by CreateJobV1,
// CloseJobV1 and GetJobV1.
type JobV1 struct {
	ID                     string `json:"id,omitempty"`
	Object                 string `json:"object,omitempty"`
	Operation              string `json:"operation,omitempty"`
	ConcurrencyMode        string `json:"concurrencyMode,omitempty"`
	ContentType            string `json:"contentType,omitempty"`
	State                  string `json:"state,omitempty"`
	NumberBatchesQueued    int    `json:"numberBatchesQueued,omitempty"`
	NumberBatchesCompleted int    `json:"numberBatchesCompleted,omitempty"`
	NumberBatchesFailed    int    `json:"numberBatchesFailed,omitempty"`
	NumberBatchesTotal     int    `json:"numberBatchesTotal,omitempty"`
	NumberRecordsProcessed int    `json:"numberRecordsProcessed,omitempty"`
	NumberRecordsFailed    int    `json:"numberRecordsFailed,omitempty"`
}

// BatchV1 is the state of a single batch within a Bulk v1 job.
type BatchV1 struct {
	ID                  string `json:"id,omitempty"`
	JobID               string `json:"jobId,omitempty"`
	State               string `json:"state,omitempty"` // Queued, InProgress, Completed, Failed, NotProcessed
	NumberRecordsFailed int    `json:"numberRecordsFailed,omitempty"`
	StateMessage        string `json:"stateMessage,omitempty"`
}

// BatchV1Result is one record's outcome within a completed batch, returned
// positionally in the same order the records were submitted.
type BatchV1Result struct {
	ID      string  `json:"id,omitempty"`
	Success bool    `json:"success,omitempty"`
	Created bool    `json:"created,omitempty"`
	Errors  []Error `json:"errors,omitempty"`
}

const bulkV1BasePath = "/services/async/"

func (sv *Service) bulkV1Path(suffix string) string {
	return bulkV1BasePath + currentAPIVersion + "/job" + suffix
}

// CreateJobV1 opens a new Bulk API 1.0 job.
// https://developer.salesforce.com/docs/atlas.en-us.api_asynch.meta/api_asynch/asynch_api_bulk_create_job.htm
func (sv *Service) CreateJobV1(ctx context.Context, jd *JobV1Definition) (*JobV1, error) {
	if jd.ConcurrencyMode == "" {
		jd.ConcurrencyMode = "Parallel"
	}
	if jd.ContentType == "" {
		jd.ContentType = "JSON"
	}
	var result *JobV1
	return result, sv.Call(ctx, sv.bulkV1Path(""), "POST", jd, &result)
}

// CreateBatchV1 submits one batch of records (as SObject maps) to an open
// job and returns its initial (Queued) state.
// https://developer.salesforce.com/docs/atlas.en-us.api_asynch.meta/api_asynch/asynch_api_bulk_add_batch.htm
func (sv *Service) CreateBatchV1(ctx context.Context, jobID string, records []SObject) (*BatchV1, error) {
	var result *BatchV1
	path := sv.bulkV1Path("/" + jobID + "/batch")
	return result, sv.Call(ctx, path, "POST", records, &result)
}

// CloseJobV1 marks a job as closed; Salesforce begins processing any
// remaining queued batches.
func (sv *Service) CloseJobV1(ctx context.Context, jobID string) (*JobV1, error) {
	var result *JobV1
	body := map[string]string{"state": "Closed"}
	return result, sv.Call(ctx, sv.bulkV1Path("/"+jobID), "PATCH", body, &result)
}

// AbortJobV1 aborts a job in-situ.
func (sv *Service) AbortJobV1(ctx context.Context, jobID string) (*JobV1, error) {
	var result *JobV1
	body := map[string]string{"state": "Aborted"}
	return result, sv.Call(ctx, sv.bulkV1Path("/"+jobID), "PATCH", body, &result)
}

// GetJobV1 returns the current job status.
func (sv *Service) GetJobV1(ctx context.Context, jobID string) (*JobV1, error) {
	var result *JobV1
	return result, sv.Call(ctx, sv.bulkV1Path("/"+jobID), "GET", nil, &result)
}

// GetBatchV1 returns the current status of a single batch.
// https://developer.salesforce.com/docs/atlas.en-us.api_asynch.meta/api_asynch/asynch_api_bulk_batch_status_using.htm
func (sv *Service) GetBatchV1(ctx context.Context, jobID, batchID string) (*BatchV1, error) {
	var result *BatchV1
	path := sv.bulkV1Path(fmt.Sprintf("/%s/batch/%s", jobID, batchID))
	return result, sv.Call(ctx, path, "GET", nil, &result)
}

// GetBatchV1Results returns per-record results for a completed batch,
// positionally ordered to match the records submitted in CreateBatchV1.
// https://developer.salesforce.com/docs/atlas.en-us.api_asynch.meta/api_asynch/asynch_api_bulk_batch_result.htm
func (sv *Service) GetBatchV1Results(ctx context.Context, jobID, batchID string) ([]BatchV1Result, error) {
	var result []BatchV1Result
	path := sv.bulkV1Path(fmt.Sprintf("/%s/batch/%s/result", jobID, batchID))
	return result, sv.Call(ctx, path, "GET", nil, &result)
}
