// Package query implements the parsing and field-expansion half of
// spec.md's C1 (query builder & field describer). It parses the user's
// SOQL-like query string into structured form and expands field patterns,
// compound fields, mandatory fields and lookup id/relationship pairs
// before the described field list reaches schema.Describe.
package query

import (
	"strings"

	"github.com/jfcote87/sfmigrate/progress"
)

// Parsed is the structured form of a single SOQL-like query: SELECT
// fields FROM object [WHERE ...] [ORDER BY ...] [LIMIT n] (spec.md C1).
type Parsed struct {
	Fields  []string // raw selected tokens, "all" pseudo-field kept verbatim
	From    string
	Where   string
	OrderBy string
	Limit   int
}

// Parse parses a single SOQL-like query string. It is intentionally
// tolerant of whitespace and case in clause keywords, matching the kind
// of forgiving text processing the teacher applies to Salesforce's own
// loosely-specified wire formats.
func Parse(q string) (*Parsed, error) {
	trimmed := strings.TrimSpace(q)
	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") {
		return nil, &progress.QueryMalformedError{Query: q, Cause: errNoSelect}
	}
	fromIdx := findKeyword(upper, "FROM")
	if fromIdx < 0 {
		return nil, &progress.QueryMalformedError{Query: q, Cause: errNoFrom}
	}
	fieldsPart := trimmed[len("SELECT"):fromIdx]
	rest := trimmed[fromIdx+len("FROM"):]

	whereIdx := findKeyword(strings.ToUpper(rest), "WHERE")
	orderIdx := findKeyword(strings.ToUpper(rest), "ORDER BY")
	limitIdx := findKeyword(strings.ToUpper(rest), "LIMIT")

	cut := len(rest)
	for _, idx := range []int{whereIdx, orderIdx, limitIdx} {
		if idx >= 0 && idx < cut {
			cut = idx
		}
	}
	from := strings.TrimSpace(rest[:cut])
	if from == "" {
		return nil, &progress.QueryMalformedError{Query: q, Cause: errNoFrom}
	}

	p := &Parsed{From: from}
	p.Fields = splitFields(fieldsPart)

	if whereIdx >= 0 {
		end := clauseEnd(rest, whereIdx, []int{orderIdx, limitIdx})
		p.Where = strings.TrimSpace(rest[whereIdx+len("WHERE") : end])
	}
	if orderIdx >= 0 {
		end := clauseEnd(rest, orderIdx, []int{limitIdx})
		p.OrderBy = strings.TrimSpace(rest[orderIdx+len("ORDER BY") : end])
	}
	if limitIdx >= 0 {
		p.Limit = parseLimit(strings.TrimSpace(rest[limitIdx+len("LIMIT"):]))
	}
	return p, nil
}

func clauseEnd(s string, start int, following []int) int {
	end := len(s)
	for _, idx := range following {
		if idx >= 0 && idx > start && idx < end {
			end = idx
		}
	}
	return end
}

func splitFields(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLimit(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// findKeyword finds a whole-word occurrence of kw in upper
// (already uppercased). It does not attempt full SOQL lexing (parenthesis
// nesting, string literals containing keywords); the teacher's own query
// handling is similarly pragmatic about malformed edge cases, erring
// toward "parse what's common" rather than a complete grammar.
func findKeyword(upper, kw string) int {
	for i := 0; i+len(kw) <= len(upper); i++ {
		if upper[i:i+len(kw)] != kw {
			continue
		}
		leftOK := i == 0 || !isWordChar(upper[i-1])
		rightOK := i+len(kw) == len(upper) || !isWordChar(upper[i+len(kw)])
		if leftOK && rightOK {
			return i
		}
	}
	return -1
}

func isWordChar(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

var errNoSelect = queryErr("query must begin with SELECT")
var errNoFrom = queryErr("query missing FROM clause")

type queryErr string

func (e queryErr) Error() string { return string(e) }
