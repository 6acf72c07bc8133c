// Package retrieve implements spec.md's C3, the retrieval driver: the
// multi-pass forward/backward closure that pulls every record a task needs
// (its own bounded slice plus every parent and self-referencing ancestor)
// while guaranteeing each (task, field, value) triple is queried at most
// once (spec.md §4.3, §8 "At-most-once queries").
package retrieve

import "strings"

// maxWhereClauseLen bounds the length of a single IN (...) clause to stay
// under the backend's where-clause length limit (spec.md §4.3: "chunked to
// respect the backend's where-clause length limit (≈ 3,900 characters)").
const maxWhereClauseLen = 3900

// chunkInValues groups values into IN (...) clause bodies, each kept under
// maxWhereClauseLen once quoted and comma-joined. Duplicate values are
// preserved as given; callers are expected to have already deduplicated
// via Task.UnqueriedValues.
func chunkInValues(values []string) []string {
	var chunks []string
	var cur strings.Builder
	count := 0
	flush := func() {
		if count > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			count = 0
		}
	}
	for _, v := range values {
		quoted := "'" + escapeSOQL(v) + "'"
		extra := len(quoted)
		if count > 0 {
			extra++ // comma
		}
		if count > 0 && cur.Len()+extra > maxWhereClauseLen {
			flush()
		}
		if count > 0 {
			cur.WriteByte(',')
		}
		cur.WriteString(quoted)
		count++
	}
	flush()
	return chunks
}

// escapeSOQL escapes a value for embedding inside a single-quoted SOQL
// string literal.
func escapeSOQL(v string) string {
	v = strings.ReplaceAll(v, "\\", "\\\\")
	v = strings.ReplaceAll(v, "'", "\\'")
	return v
}

// distinctNonEmpty returns the distinct, non-empty string values in order
// of first appearance.
func distinctNonEmpty(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
