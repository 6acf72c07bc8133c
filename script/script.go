// Package script holds spec.md §6's external interface types: the
// structured document produced by the out-of-scope script-file parser, and
// the global knobs that drive the rest of the pipeline. This package does
// not parse the textual script format itself, only the shape it resolves
// to; LoadYAML is a convenience loader for the common case where the
// script is authored directly as YAML.
package script

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jfcote87/sfmigrate/progress"
	"github.com/jfcote87/sfmigrate/schema"
)

// BinaryCacheMode mirrors spec.md §6's binaryDataCache/sourceRecordsCache
// domain: InMemory, FileCache, CleanFileCache.
type BinaryCacheMode string

const (
	CacheInMemory       BinaryCacheMode = "InMemory"
	CacheFileCache      BinaryCacheMode = "FileCache"
	CacheCleanFileCache BinaryCacheMode = "CleanFileCache"
)

// Org is one org connection: {name, instanceUrl, accessToken} (spec.md §6).
type Org struct {
	Name        string `yaml:"name"`
	InstanceURL string `yaml:"instanceUrl"`
	AccessToken string `yaml:"accessToken"`
}

// FieldMapping renames a source field to a different target field, or
// routes the whole object to a different target name via the special
// "Object" source key (spec.md §4.1, §6 fieldMapping[]).
type FieldMapping struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

// MockField supplies a constant or generated value for a field that has
// no source-side counterpart (spec.md §6 mockFields[]).
type MockField struct {
	Field string `yaml:"field"`
	Value string `yaml:"value"`
}

// ObjectScript is one object's declaration within a script file (spec.md
// §6 objects[]).
type ObjectScript struct {
	Query               string            `yaml:"query"`
	DeleteQuery         string            `yaml:"deleteQuery"`
	Operation           schema.Operation  `yaml:"operation"`
	ExternalID          string            `yaml:"externalId"`
	DeleteOldData       bool              `yaml:"deleteOldData"`
	AllRecords          bool              `yaml:"allRecords"`
	MultiselectPattern  string            `yaml:"multiselectPattern"`
	ExcludedFields      []string          `yaml:"excludedFields"`
	FieldMapping        []FieldMapping    `yaml:"fieldMapping"`
	MockFields          []MockField       `yaml:"mockFields"`
	TargetRecordsFilter string            `yaml:"targetRecordsFilter"`
	UseCSVValuesMapping bool              `yaml:"useCSVValuesMapping"`
	ValueMapping        map[string]map[string]string `yaml:"valueMapping"`
}

// ObjectSet groups objects into an isolated sub-job, each run with its own
// source/target subdirectories (spec.md §9 "Declarative object-set
// partitioning").
type ObjectSet struct {
	Name    string          `yaml:"name"`
	Objects []*ObjectScript `yaml:"objects"`
}

// Script is the full structured document the out-of-scope parser hands
// off (spec.md §6).
type Script struct {
	Orgs    []Org        `yaml:"orgs"`
	Objects []*ObjectScript `yaml:"objects"`

	// ObjectSets, when non-empty, supersedes Objects: the runner executes
	// the pipeline once per set, each against its own source/target
	// subdirectories (spec.md §9).
	ObjectSets []ObjectSet `yaml:"objectSets"`

	PollingIntervalMs        int             `yaml:"pollingIntervalMs"`
	BulkThreshold            int             `yaml:"bulkThreshold"`
	BulkAPIVersion           int             `yaml:"bulkApiVersion"`
	BulkAPIV1BatchSize       int             `yaml:"bulkApiV1BatchSize"`
	AllOrNone                bool            `yaml:"allOrNone"`
	APIVersion               string          `yaml:"apiVersion"`
	ImportCSVFilesAsIs       bool            `yaml:"importCSVFilesAsIs"`
	KeepObjectOrderWhileExecute bool        `yaml:"keepObjectOrderWhileExecute"`
	CreateTargetCSVFiles     bool            `yaml:"createTargetCSVFiles"`
	BinaryDataCache          BinaryCacheMode `yaml:"binaryDataCache"`
	SourceRecordsCache       BinaryCacheMode `yaml:"sourceRecordsCache"`
}

// Load parses script YAML already in memory.
func Load(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, &progress.FilesystemError{Path: "<script>", Cause: err}
	}
	applyDefaults(&s)
	return &s, nil
}

// LoadYAML reads and parses a script file from path. It is a convenience
// entry point for the common case where the script is authored directly
// as YAML rather than produced by the out-of-scope textual parser (spec.md
// §6: "provided by the out-of-scope parser").
func LoadYAML(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &progress.FilesystemError{Path: path, Cause: err}
	}
	return Load(data)
}

func applyDefaults(s *Script) {
	if s.BulkAPIVersion == 0 {
		s.BulkAPIVersion = 2
	}
	if s.BulkAPIV1BatchSize == 0 {
		s.BulkAPIV1BatchSize = 10000
	}
	if s.APIVersion == "" {
		s.APIVersion = "v58.0"
	}
	if s.PollingIntervalMs == 0 {
		s.PollingIntervalMs = 5000
	}
}

// Sets returns the object sets to execute: ObjectSets verbatim when
// declared, or a single implicit set wrapping Objects otherwise (spec.md
// §9: "the outer runner invokes the pipeline once per set").
func (s *Script) Sets() []ObjectSet {
	if len(s.ObjectSets) > 0 {
		return s.ObjectSets
	}
	return []ObjectSet{{Name: "default", Objects: s.Objects}}
}
