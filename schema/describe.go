package schema

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/jfcote87/sfmigrate/progress"
	"github.com/jfcote87/sfmigrate/sforce"
)

// sfTypeIsLookup mirrors genpkgs.go's defaulttypeMap switch on Salesforce
// field types, but instead of choosing a Go type for codegen it classifies
// the field for descriptor building.
func sfTypeIsLookup(sfType string) bool {
	return sfType == "reference"
}

// ToFieldMeta converts a raw sforce.Field describe result into the
// trimmed FieldMeta schema.Describe consumes. Adapted from genpkgs.go's
// field-walking loop (it built a Go struct field per sforce.Field; here
// we build a descriptor field instead).
func ToFieldMeta(f sforce.Field) FieldMeta {
	return FieldMeta{
		Name:           f.Name,
		Type:           f.Type,
		Createable:     f.Createable,
		Updateable:     f.Updateable,
		Nillable:       f.Nillable,
		AutoNumber:     f.AutoNumber,
		Unique:         f.Unique,
		IDLookup:       f.IDLookup,
		NameField:      f.NameField,
		Custom:         f.Custom,
		ReferenceTo:    f.ReferenceTo,
		RelationshipNm: f.RelationshipName,
	}
}

// ToSObjectMeta converts a full sforce.SObjectDefinition into SObjectMeta.
func ToSObjectMeta(def *sforce.SObjectDefinition) *SObjectMeta {
	m := &SObjectMeta{
		Name:       def.Name,
		Createable: def.Createable,
		Updateable: def.Updateable,
		Deletable:  def.Deletable,
		Fields:     make(map[string]FieldMeta, len(def.Fields)),
	}
	for _, f := range def.Fields {
		m.Fields[f.Name] = ToFieldMeta(f)
	}
	return m
}

// FieldPattern is a parsed "readonly_true;custom_false;lookup_true"
// predicate conjunction (spec.md §4.1 "all" pseudo-field expansion).
type FieldPattern struct {
	ReadonlyWant *bool
	CustomWant   *bool
	LookupWant   *bool
}

// ParseFieldPattern parses the semicolon-joined "<predicate>_<bool>" list.
// Unknown predicate names are ignored rather than erroring, matching the
// teacher's general tolerance of unknown describe-response fields.
func ParseFieldPattern(pattern string) FieldPattern {
	var fp FieldPattern
	for _, clause := range strings.Split(pattern, ";") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		idx := strings.LastIndex(clause, "_")
		if idx < 0 {
			continue
		}
		name, val := clause[:idx], clause[idx+1:]
		b := val == "true"
		switch name {
		case "readonly":
			fp.ReadonlyWant = &b
		case "custom":
			fp.CustomWant = &b
		case "lookup":
			fp.LookupWant = &b
		}
	}
	return fp
}

// Matches reports whether fm satisfies every predicate set in fp.
func (fp FieldPattern) Matches(fm FieldMeta) bool {
	isReadonly := !fm.Createable && !fm.Updateable
	isLookup := sfTypeIsLookup(fm.Type)
	if fp.ReadonlyWant != nil && *fp.ReadonlyWant != isReadonly {
		return false
	}
	if fp.CustomWant != nil && *fp.CustomWant != fm.Custom {
		return false
	}
	if fp.LookupWant != nil && *fp.LookupWant != isLookup {
		return false
	}
	return true
}

// BuildFieldDescriptor turns one described field into a FieldDescriptor,
// resolving lookups (including polymorphic ones) from meta.
func BuildFieldDescriptor(fm FieldMeta) *FieldDescriptor {
	fd := &FieldDescriptor{
		Name:       fm.Name,
		IsLookup:   sfTypeIsLookup(fm.Type),
		AutoNumber: fm.AutoNumber,
		Readonly:   !fm.Createable && !fm.Updateable,
	}
	if fd.IsLookup {
		switch len(fm.ReferenceTo) {
		case 0:
		case 1:
			fd.ReferencedObject = fm.ReferenceTo[0]
		default:
			fd.PolymorphicTargets = append([]string(nil), fm.ReferenceTo...)
		}
	}
	return fd
}

// ResolveFieldName corrects a typo'd field name against the described
// field set: an exact case-insensitive match first, then the
// Levenshtein-closest candidate (spec.md §4.1). ok is false if nothing
// was within a reasonable edit distance of the input.
func ResolveFieldName(meta *SObjectMeta, name string) (resolved string, ok bool) {
	if _, exists := meta.Fields[name]; exists {
		return name, true
	}
	lower := strings.ToLower(name)
	for fname := range meta.Fields {
		if strings.ToLower(fname) == lower {
			return fname, true
		}
	}
	best, bestDist := "", -1
	for fname := range meta.Fields {
		d := levenshtein.ComputeDistance(lower, strings.ToLower(fname))
		if bestDist == -1 || d < bestDist {
			best, bestDist = fname, d
		}
	}
	// Reject corrections that aren't plausibly a typo: allow up to a third
	// of the longer name's length to differ.
	maxLen := len(name)
	if len(best) > maxLen {
		maxLen = len(best)
	}
	if best == "" || maxLen == 0 || bestDist*3 > maxLen {
		return "", false
	}
	return best, true
}

// DefaultExternalIDField returns the field substituted when a lookup
// parent's external id is otherwise empty: the first of a Name-equivalent
// field, an auto-number field, any unique field, else "Id" (spec.md §4.1).
func DefaultExternalIDField(meta *SObjectMeta) string {
	var autoNumber, unique string
	for name, fm := range meta.Fields {
		if fm.NameField {
			return name
		}
		if fm.AutoNumber && autoNumber == "" {
			autoNumber = name
		}
		if fm.Unique && unique == "" {
			unique = name
		}
	}
	if autoNumber != "" {
		return autoNumber
	}
	if unique != "" {
		return unique
	}
	return "Id"
}

// Describe builds an ObjectDescriptor's Fields from described source/target
// metadata and a requested field list (already expanded by package query).
// It returns a *progress.SchemaError if the object is missing on the source
// or a declared external-id field does not resolve, and silently drops (the caller should warn on) unknown,
// non-external-id field names.
func Describe(objectName string, sourceMeta, targetMeta *SObjectMeta, requestedFields []string, externalID string) ([]*FieldDescriptor, []string, error) {
	if sourceMeta == nil {
		return nil, nil, &progress.SchemaError{Object: objectName, Message: "object does not exist on source"}
	}
	var dropped []string
	var fields []*FieldDescriptor
	seen := make(map[string]bool)
	addField := func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		if fm, ok := sourceMeta.Fields[name]; ok {
			fields = append(fields, BuildFieldDescriptor(fm))
		}
	}
	for _, reqName := range requestedFields {
		resolved, ok := ResolveFieldName(sourceMeta, reqName)
		if !ok {
			if isExternalIDReference(externalID, reqName) {
				return nil, nil, &progress.SchemaError{Object: objectName, Field: reqName,
					Message: "declared external id does not resolve to a field"}
			}
			dropped = append(dropped, reqName)
			continue
		}
		addField(resolved)
	}
	for _, part := range CompositeExternalIDParts(externalID) {
		if part == "" {
			continue
		}
		resolved, ok := ResolveFieldName(sourceMeta, part)
		if !ok {
			return nil, nil, &progress.SchemaError{Object: objectName, Field: part,
				Message: "declared external id does not resolve to a field"}
		}
		addField(resolved)
	}
	return fields, dropped, nil
}

func isExternalIDReference(externalID, candidate string) bool {
	for _, p := range CompositeExternalIDParts(externalID) {
		if p == candidate {
			return true
		}
	}
	return false
}

// MandatoryFields returns fields that must be present for an operation on
// objectName regardless of what the user selected (spec.md §4.1, e.g.
// Body/ParentId/Name for Attachment on insert).
func MandatoryFields(objectName string, op Operation) []string {
	if op == Readonly || op == Delete {
		return nil
	}
	switch objectName {
	case "Attachment":
		return []string{"Body", "ParentId", "Name"}
	case "Task", "Event":
		return []string{"WhatId", "WhoId"}
	default:
		return nil
	}
}

// ExpandCompoundField returns the simple component fields of an address
// compound field; geolocation fields and non-compound names return nil
// (spec.md §4.1 "Compound fields ... are expanded").
func ExpandCompoundField(name string) []string {
	switch {
	case strings.HasSuffix(name, "Address"):
		prefix := strings.TrimSuffix(name, "Address")
		return []string{prefix + "Street", prefix + "City", prefix + "State", prefix + "PostalCode", prefix + "Country"}
	case strings.HasSuffix(name, "Geolocation") || strings.HasSuffix(name, "Location"):
		return nil // latitude/longitude already surface as their own simple fields in describe metadata
	default:
		return nil
	}
}

// LookupColumnNames returns both the id form and the relationship form for
// a lookup field, e.g. ("Account__c", "Account__r") for a custom lookup or
// ("OwnerId", "Owner") for a standard one (spec.md §4.1: "both the id form
// ... and the relationship form ... are added, letting the writer choose").
func LookupColumnNames(fd *FieldDescriptor) (idField, relationshipField string) {
	name := fd.Name
	switch {
	case strings.HasSuffix(name, "__c"):
		return name, strings.TrimSuffix(name, "__c") + "__r"
	case strings.HasSuffix(name, "Id"):
		return name, strings.TrimSuffix(name, "Id")
	default:
		return name, name
	}
}
