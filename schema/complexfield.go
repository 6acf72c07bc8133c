package schema

import "strings"

// ComplexField is a path A.B.C.extId denoting "resolve A, then B, then C,
// then read its external id" (spec.md §3). Path has at least one element;
// the final element is always the external-id field name of the last
// object in the chain.
type ComplexField struct {
	Path []string // e.g. ["A", "B", "C", "extId"]
}

// NewComplexField parses a dotted path such as "Account.Owner.Email" into
// a ComplexField. A single-segment path ("Name") yields a one-element Path.
func NewComplexField(dotted string) *ComplexField {
	return &ComplexField{Path: strings.Split(dotted, ".")}
}

// String renders the dotted representation, e.g. "A.B.C.extId".
func (c *ComplexField) String() string {
	return strings.Join(c.Path, ".")
}

// Encode renders the single-token form used in CSV column headers and
// stored queries: "$$A$A.B$A.B.C" for A.B.C. Each hop after the first is prefixed
// with the accumulated path so far, joined by "$", matching the grammar
// implied by spec.md §3's round-trip requirement.
func (c *ComplexField) Encode() string {
	if len(c.Path) == 0 {
		return "$$"
	}
	var b strings.Builder
	b.WriteString("$$")
	for i, seg := range c.Path {
		if i > 0 {
			b.WriteString("$")
			b.WriteString(strings.Join(c.Path[:i], "."))
			b.WriteString(".")
		}
		b.WriteString(seg)
	}
	return b.String()
}

// DecodeComplexField reverses Encode. encode(decode(x)) == x for all
// well-formed x produced by Encode (spec.md §3 round-trip requirement).
func DecodeComplexField(token string) (*ComplexField, bool) {
	if !strings.HasPrefix(token, "$$") {
		return nil, false
	}
	body := token[2:]
	if body == "" {
		return &ComplexField{}, true
	}
	parts := strings.Split(body, "$")
	path := make([]string, 0, len(parts))
	for i, p := range parts {
		if i == 0 {
			path = append(path, p)
			continue
		}
		// p is "<prefix-dotted>.<segment>"; the segment is everything
		// after the last dot that belongs to the accumulated prefix.
		prefix := strings.Join(path, ".") + "."
		if !strings.HasPrefix(p, prefix) {
			return nil, false
		}
		path = append(path, p[len(prefix):])
	}
	return &ComplexField{Path: path}, true
}

func isComplexPath(externalID string) bool {
	return strings.Contains(externalID, ";")
}

// CompositeExternalIDParts splits a complex external id declaration
// "A;B;C" into its component simple field names (spec.md §4.1: "A complex
// external id A;B becomes a query-time phantom column $$A$B").
func CompositeExternalIDParts(externalID string) []string {
	if !isComplexPath(externalID) {
		return []string{externalID}
	}
	return strings.Split(externalID, ";")
}

// CompositeColumnToken renders the phantom column name for a composite
// external id, e.g. "A;B" -> "$$A$B" (spec.md §4.1).
func CompositeColumnToken(externalID string) string {
	parts := CompositeExternalIDParts(externalID)
	return "$$" + strings.Join(parts, "$")
}

// JoinCompositeValue builds the stored value for a composite external id
// by joining component field values with ";" (spec.md §4.1).
func JoinCompositeValue(values []string) string {
	return strings.Join(values, ";")
}
