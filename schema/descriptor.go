// Package schema holds the data model of spec.md §3: ObjectDescriptor,
// FieldDescriptor and ComplexField, plus the describe/typo-correction half
// of C1 (query builder & field describer). It is adapted from the
// type-mapping logic in the teacher's genpkgs.go (which mapped Salesforce
// describe results to generated Go struct fields) repurposed to build
// runtime descriptors instead of source files.
package schema

// Operation is the action a task performs against its target.
type Operation string

const (
	Insert   Operation = "Insert"
	Update   Operation = "Update"
	Upsert   Operation = "Upsert"
	Delete   Operation = "Delete"
	Readonly Operation = "Readonly"
)

// ObjectDescriptor binds a source and target SObject name together with
// the operation to perform and the expanded field list (spec.md §3).
type ObjectDescriptor struct {
	Name        string // source object API name
	TargetName  string // target object API name; may differ via field-mapping rename
	ExternalID  string // field path uniquely identifying a record across orgs; may be complex ("A;B")
	Operation   Operation
	Fields      []*FieldDescriptor
	AllRecords  bool // "process-all-source": run an unbounded query rather than a filtered one
	DeleteQuery string

	// Source and target metadata, populated by Describe. Kept separate so
	// a field-mapping rename does not require re-describing the source.
	SourceMeta *SObjectMeta
	TargetMeta *SObjectMeta
}

// FieldByName finds a field by its source-side API name.
func (o *ObjectDescriptor) FieldByName(name string) *FieldDescriptor {
	for _, f := range o.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// IsComplexExternalID reports whether the external id is a composite key
// ("A;B": spec.md GLOSSARY "Complex external id").
func (o *ObjectDescriptor) IsComplexExternalID() bool {
	return isComplexPath(o.ExternalID)
}

// SObjectMeta is the subset of a described SObject relevant to migration:
// whether it is createable/updateable/deletable and its known fields.
type SObjectMeta struct {
	Name       string
	Createable bool
	Updateable bool
	Deletable  bool
	Fields     map[string]FieldMeta
}

// FieldMeta is the raw per-field metadata surfaced by a describe call,
// trimmed to what schema.Describe needs (spec.md §3 FieldDescriptor).
type FieldMeta struct {
	Name           string
	Type           string // salesforce field type: string, reference, boolean, ...
	Createable     bool
	Updateable     bool
	Nillable       bool
	AutoNumber     bool
	Unique         bool
	IDLookup       bool
	NameField      bool
	Custom         bool
	ReferenceTo    []string // target object(s); len>1 means polymorphic
	RelationshipNm string   // the "__r" relationship name, e.g. "Account" for "AccountId"
}

// FieldDescriptor is spec.md §3's FieldDescriptor: name, simple/complex
// flag, lookup metadata, and back references used by the task graph and
// relationship resolver.
type FieldDescriptor struct {
	Name       string
	Complex    *ComplexField // set when this is a phantom/complex column, nil for simple fields
	IsLookup   bool
	MasterDetail bool
	AutoNumber bool
	Readonly   bool // !Createable && !Updateable

	// ReferencedObject is the single resolved parent object name for a
	// non-polymorphic lookup. Empty when PolymorphicTargets is non-empty;
	// a Field$ParentObject selector sets PinnedTarget instead (spec.md §9).
	ReferencedObject string
	// PolymorphicTargets lists every candidate parent object type for a
	// polymorphic lookup (e.g. Task.WhatId); the resolver tries each in
	// declaration order (spec.md §9 "Polymorphic lookups").
	PolymorphicTargets []string
	// PinnedTarget narrows PolymorphicTargets to a single candidate when the
	// query supplied an explicit "Field$ParentObject" selector (spec.md §9).
	// The resolver tries only this object instead of walking the full
	// PolymorphicTargets list.
	PinnedTarget string

	// parentLookupObject is a back-reference into the sibling
	// ObjectDescriptor table, populated by NewTable. It is a non-owning
	// pointer to a descriptor the Table already holds; the Table's own
	// cross-references are kept in name-keyed maps (spec.md §9 "Cyclic
	// object graphs").
	parentLookupObject *ObjectDescriptor
}

// ParentLookupObject returns the descriptor of the object this lookup
// references, if wired by NewTable.
func (f *FieldDescriptor) ParentLookupObject() *ObjectDescriptor { return f.parentLookupObject }

// LookupCandidates returns every object name this lookup might resolve
// against, in the order a resolver should try them: the single resolved
// object for an ordinary lookup, the pinned object for a narrowed
// polymorphic lookup, or the full PolymorphicTargets list otherwise
// (spec.md §9 "Polymorphic lookups").
func (f *FieldDescriptor) LookupCandidates() []string {
	if f.ReferencedObject != "" {
		return []string{f.ReferencedObject}
	}
	if f.PinnedTarget != "" {
		return []string{f.PinnedTarget}
	}
	return f.PolymorphicTargets
}

// IDField returns the id-holding column name for a lookup field, which is
// the field's own Name for every field, complex phantom columns included.
func (f *FieldDescriptor) IDField() string {
	return f.Name
}

// Table is the set of ObjectDescriptors in one run, indexed by name, with
// lookup back-references resolved. Cross-references are held as a map
// lookup, never an owning pointer cycle (spec.md §9).
type Table struct {
	byName   map[string]*ObjectDescriptor
	order    []string
	children map[string][]ChildRef // objectName -> (owner, field) pairs referencing it
}

// ChildRef pairs a lookup FieldDescriptor with the ObjectDescriptor that
// owns it, so a reverse lookup from parent to child knows both which field
// to read ids from and which object's records hold that field.
type ChildRef struct {
	Owner *ObjectDescriptor
	Field *FieldDescriptor
}

// NewTable builds a Table from descriptors and wires every lookup's
// parentLookupObject back-reference. Unresolved references (the parent
// object was not included in this run) are left nil; the retrieval driver
// and resolver treat that as "not in task list".
func NewTable(descs []*ObjectDescriptor) *Table {
	t := &Table{
		byName:   make(map[string]*ObjectDescriptor, len(descs)),
		children: make(map[string][]ChildRef),
	}
	for _, d := range descs {
		t.byName[d.Name] = d
		t.order = append(t.order, d.Name)
	}
	for _, d := range descs {
		for _, f := range d.Fields {
			if !f.IsLookup {
				continue
			}
			candidates := f.LookupCandidates()
			if len(candidates) == 1 {
				// Only an unambiguous (or pinned) reference gets the
				// back-reference pointer; a field still considering several
				// polymorphic candidates has no single parent to point at.
				if parent, ok := t.byName[candidates[0]]; ok {
					f.parentLookupObject = parent
				}
			}
			for _, candidate := range candidates {
				if _, ok := t.byName[candidate]; ok {
					t.children[candidate] = append(t.children[candidate], ChildRef{Owner: d, Field: f})
				}
			}
		}
	}
	return t
}

// ChildrenOf returns every (owner, field) pair across the whole table whose
// field is a lookup referencing objectName (spec.md §3
// FieldDescriptor.childReferencingFields).
func (t *Table) ChildrenOf(objectName string) []ChildRef {
	return t.children[objectName]
}

// Get returns the descriptor for name, or nil.
func (t *Table) Get(name string) *ObjectDescriptor { return t.byName[name] }

// Names returns object names in the order they were added.
func (t *Table) Names() []string { return t.order }

// All returns every descriptor in declaration order.
func (t *Table) All() []*ObjectDescriptor {
	out := make([]*ObjectDescriptor, 0, len(t.order))
	for _, n := range t.order {
		out = append(out, t.byName[n])
	}
	return out
}
