// Package engine implements spec.md's C5, the API engine abstraction: a
// common contract shared by the REST collection engine and the two Bulk
// engines, plus the per-batch selection logic that picks among them.
package engine

import (
	"context"
	"time"

	"github.com/jfcote87/sfmigrate/progress"
	"github.com/jfcote87/sfmigrate/schema"
)

// Result is one record's outcome from an engine run: either a new/updated
// id on success, or an error message on failure (spec.md §4.5).
type Result struct {
	Record  map[string]interface{}
	ID      string
	Success bool
	Error   string
}

// Result.Error values used by the Bulk v2 reconciler to distinguish a row
// Salesforce itself left unprocessed (job aborted or hit its record-failure
// threshold before reaching that row) from a row this side simply could not
// join back to a submitted record.
const (
	ErrMissingSourceTargetMapping = "isMissingSourceTargetMapping"
	ErrUnprocessed                = "isUnprocessed"
)

// Config parameterizes engine selection and every engine's own behavior
// (spec.md §6 global knobs, §4.5 "Engine selection").
type Config struct {
	Object              string
	TargetObject        string
	Operation           schema.Operation
	ExternalIDField     string
	AllOrNone            bool
	BulkThreshold       int // recordCount above which bulk is preferred
	BulkAPIVersion      int // 1 or 2
	BulkV1BatchSize     int
	ForceREST           bool // "not supported in bulk"
	PollingInterval     time.Duration
	PollTimeout         time.Duration
	// CSVByteLimit bounds a Bulk v2 chunk's base64-encoded size (spec.md
	// §4.5 "CSV chunking").
	CSVByteLimit int

	// ParallelRESTJobs bounds how many REST composite-collection batches
	// run concurrently.
	ParallelRESTJobs int
	// ParallelBulkJobs bounds how many Bulk v1 batches within one job run
	// concurrently (each batch is independently created and polled).
	ParallelBulkJobs int
}

// DefaultConfig fills in the knob defaults named across spec.md §5-§6.
func DefaultConfig() Config {
	return Config{
		BulkThreshold:    200,
		BulkAPIVersion:   2,
		BulkV1BatchSize:  10000,
		PollingInterval:  5 * time.Second,
		PollTimeout:      50 * time.Minute,
		CSVByteLimit:     10 * 1024 * 1024,
		AllOrNone:        false,
		ParallelRESTJobs: 4,
		ParallelBulkJobs: 4,
	}
}

// Kind identifies which concrete engine a batch was routed to.
type Kind int

const (
	KindREST Kind = iota
	KindBulkV1
	KindBulkV2
)

// Select implements spec.md §4.5 "Engine selection per batch".
func Select(cfg Config, recordCount int) Kind {
	if cfg.ForceREST {
		return KindREST
	}
	if recordCount > cfg.BulkThreshold {
		if cfg.BulkAPIVersion == 2 {
			return KindBulkV2
		}
		return KindBulkV1
	}
	return KindREST
}

// Engine is the common contract every concrete engine implements (spec.md
// §4.5 "Common contract").
type Engine interface {
	// PrepareBatches splits records by the engine's own batch-size and
	// size-in-bytes limits.
	PrepareBatches(records []map[string]interface{}) [][]map[string]interface{}
	// Execute drives every batch to completion, reporting progress
	// through sink, and returns one Result per input record (order not
	// guaranteed to match the input).
	Execute(ctx context.Context, batches [][]map[string]interface{}, sink progress.Sink) ([]Result, error)
}
