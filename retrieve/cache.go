package retrieve

import (
	"encoding/json"
	"hash/fnv"
	"os"
	"path/filepath"

	"github.com/jfcote87/sfmigrate/progress"
	"github.com/jfcote87/sfmigrate/sforce"
)

// CacheMode selects how query-result caching behaves (spec.md §4.3, §6).
type CacheMode string

const (
	// NoCache issues every query against the remote.
	NoCache CacheMode = ""
	// InMemory keeps results in a process-lifetime map only.
	InMemory CacheMode = "InMemory"
	// FileCache persists results under a cache directory and reuses them
	// across runs.
	FileCache CacheMode = "FileCache"
	// CleanFileCache behaves like FileCache but purges the directory on
	// startup.
	CleanFileCache CacheMode = "CleanFileCache"
)

// Cache stores query results keyed by (object, query text) so repeat runs
// can skip the network call (spec.md §4.3 "Query-result caching").
type Cache struct {
	mode CacheMode
	dir  string
	mem  map[string][]sforce.RecordMap
}

// NewCache builds a Cache for mode, rooted at dir (relevant only for
// FileCache/CleanFileCache). CleanFileCache purges dir immediately.
func NewCache(mode CacheMode, dir string) (*Cache, error) {
	c := &Cache{mode: mode, dir: dir, mem: make(map[string][]sforce.RecordMap)}
	if mode == CleanFileCache {
		if err := os.RemoveAll(dir); err != nil {
			return nil, &progress.FilesystemError{Path: dir, Cause: err}
		}
	}
	if mode == FileCache || mode == CleanFileCache {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &progress.FilesystemError{Path: dir, Cause: err}
		}
	}
	return c, nil
}

// key computes the cache key for (object, soql): a 32-bit FNV-1a hash of
// the query text, namespaced by object (spec.md §4.3).
func key(object, soql string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(soql))
	return object + "_" + itoa(h.Sum32())
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// Get returns a cached result for (object, soql), if present.
func (c *Cache) Get(object, soql string) ([]sforce.RecordMap, bool) {
	if c == nil || c.mode == NoCache {
		return nil, false
	}
	k := key(object, soql)
	if recs, ok := c.mem[k]; ok {
		return recs, true
	}
	if c.mode != FileCache && c.mode != CleanFileCache {
		return nil, false
	}
	b, err := os.ReadFile(filepath.Join(c.dir, k+".json"))
	if err != nil {
		return nil, false
	}
	var recs []sforce.RecordMap
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, false
	}
	c.mem[k] = recs
	return recs, true
}

// Put stores a result for (object, soql).
func (c *Cache) Put(object, soql string, recs []sforce.RecordMap) error {
	if c == nil || c.mode == NoCache {
		return nil
	}
	k := key(object, soql)
	c.mem[k] = recs
	if c.mode != FileCache && c.mode != CleanFileCache {
		return nil
	}
	b, err := json.Marshal(recs)
	if err != nil {
		return &progress.FilesystemError{Path: k, Cause: err}
	}
	path := filepath.Join(c.dir, k+".json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return &progress.FilesystemError{Path: path, Cause: err}
	}
	return nil
}
