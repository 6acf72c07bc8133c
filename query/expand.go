package query

import (
	"strings"

	"github.com/jfcote87/sfmigrate/schema"
)

// PolymorphicSelector is the explicit "Field$ParentObject" syntax (spec.md
// §9 "Polymorphic lookups") that pins a polymorphic lookup to a single
// candidate type instead of letting the resolver try every ReferenceTo
// candidate in order.
type PolymorphicSelector struct {
	Field        string
	ParentObject string
}

// ParsePolymorphicSelector splits "WhatId$Account" into its field and
// parent-object parts. ok is false for plain field tokens.
func ParsePolymorphicSelector(token string) (PolymorphicSelector, bool) {
	idx := strings.Index(token, "$")
	if idx < 0 {
		return PolymorphicSelector{}, false
	}
	return PolymorphicSelector{Field: token[:idx], ParentObject: token[idx+1:]}, true
}

// ExpandRequest is the input to Expand: a parsed query plus the
// declarations that influence field selection (spec.md §4.1).
type ExpandRequest struct {
	Fields          []string
	Pattern         string // e.g. "readonly_true;custom_false;lookup_true", used when Fields contains "all"
	ExternalID      string
	Operation       schema.Operation
	ObjectName      string
	ExcludedFields  []string
	SourceMeta      *schema.SObjectMeta
}

// ExpandResult is the fully expanded field list plus any polymorphic
// selector pins discovered in the request, ready for schema.Describe.
type ExpandResult struct {
	Fields       []string
	Polymorphic  map[string]string // field name -> pinned parent object
}

// Expand applies every C1 rule in spec.md §4.1 except typo-correction
// (handled downstream by schema.Describe, which needs the described field
// set that Expand does not have for pattern-only requests):
//   - "all" pseudo-field expands via Pattern against SourceMeta
//   - compound fields expand to their simple components
//   - mandatory fields for Operation are added if missing
//   - excluded fields are removed
//   - lookup fields get both id and relationship forms added
//   - Field$ParentObject selectors are parsed and stripped to the bare field
func Expand(req ExpandRequest) ExpandResult {
	excluded := make(map[string]bool, len(req.ExcludedFields))
	for _, f := range req.ExcludedFields {
		excluded[f] = true
	}
	polymorphic := make(map[string]string)

	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if name == "" || excluded[name] || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}

	for _, raw := range req.Fields {
		field := raw
		if sel, ok := ParsePolymorphicSelector(raw); ok {
			polymorphic[sel.Field] = sel.ParentObject
			field = sel.Field
		}
		if strings.EqualFold(field, "all") {
			addAllMatching(req, add)
			continue
		}
		if compound := schema.ExpandCompoundField(field); compound != nil {
			for _, c := range compound {
				add(c)
			}
			continue
		}
		add(field)
		addLookupPair(req.SourceMeta, field, add)
	}

	for _, m := range schema.MandatoryFields(req.ObjectName, req.Operation) {
		add(m)
	}

	return ExpandResult{Fields: out, Polymorphic: polymorphic}
}

func addAllMatching(req ExpandRequest, add func(string)) {
	if req.SourceMeta == nil {
		return
	}
	fp := schema.ParseFieldPattern(req.Pattern)
	for name, fm := range req.SourceMeta.Fields {
		if fp.Matches(fm) {
			add(name)
		}
	}
}

// addLookupPair adds both the id form and the relationship form for a
// lookup field so the writer can choose (spec.md §4.1: "For every
// referenced object, both the id form ... and the relationship form ...
// are added").
func addLookupPair(meta *schema.SObjectMeta, field string, add func(string)) {
	if meta == nil {
		return
	}
	fm, ok := meta.Fields[field]
	if !ok || fm.Type != "reference" || len(fm.ReferenceTo) == 0 {
		return
	}
	rel := fm.RelationshipNm
	if rel == "" {
		rel = strings.TrimSuffix(strings.TrimSuffix(field, "__c"), "Id")
	}
	add(rel)
}
