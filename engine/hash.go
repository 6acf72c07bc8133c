package engine

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
	"time"
)

// metaColumnPrefix marks Bulk API control columns that reconciliation
// hashing must ignore (spec.md §4.5 "excluding sf__* control columns").
const metaColumnPrefix = "sf__"

// recordHash computes a stable hash over rec's non-meta fields so an
// inserted record (which the Bulk v2 API does not echo a correlation id
// for) can be matched back to its result row (spec.md §4.5
// "Reconciliation").
func recordHash(rec map[string]interface{}) uint64 {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		// "Id" is excluded along with the control columns: an insert's CSV
		// submission never carries the source id (the API rejects it), so
		// the result row recordHash matches against never has one either.
		if strings.HasPrefix(k, metaColumnPrefix) || k == "attributes" || k == "Id" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := fnv.New64a()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(normalizeHashValue(scalarToString(rec[k]))))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// scalarToString renders a JSON-decoded scalar (string, float64, bool,
// nil) as text ahead of normalization.
func scalarToString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}

// normalizeHashValue applies spec.md §4.5's normalization rules so that a
// value round-tripped through CSV text still hashes identically to its
// original submitted form: case-normalized booleans, numeric text
// normalized to its numeric form, parseable dates normalized to epoch
// milliseconds, "#N/A" collapsed to empty, whitespace collapsed.
func normalizeHashValue(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "#N/A") {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")

	lower := strings.ToLower(s)
	if lower == "true" || lower == "false" {
		return lower
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z0700", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return strconv.FormatInt(t.UnixMilli(), 10)
		}
	}
	return s
}

// dedupeHashes appends _0, _1, ... suffixes to every key among a group of
// colliding hashes, leaving non-colliding keys bare, so the result is
// unique per submission (spec.md §4.5 "Collisions are resolved by
// appending _0, _1, ... suffixes").
func dedupeHashes(hashes []uint64) []string {
	total := make(map[uint64]int, len(hashes))
	for _, h := range hashes {
		total[h]++
	}
	seen := make(map[uint64]int, len(hashes))
	out := make([]string, len(hashes))
	for i, h := range hashes {
		base := strconv.FormatUint(h, 36)
		if total[h] == 1 {
			out[i] = base
			continue
		}
		n := seen[h]
		seen[h] = n + 1
		out[i] = base + "_" + strconv.Itoa(n)
	}
	return out
}
