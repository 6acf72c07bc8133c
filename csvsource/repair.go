package csvsource

import (
	"fmt"

	"github.com/jfcote87/sfmigrate/progress"
)

// ApplyValueMapping rewrites every cell of field through mapping, if a
// value-mapping configuration exists for (object, field) (spec.md §4.6
// step 2).
func ApplyValueMapping(t *Table, field string, mapping map[string]string) {
	if len(mapping) == 0 {
		return
	}
	for _, row := range t.Rows {
		if v, ok := row[field]; ok {
			if mapped, ok := mapping[v]; ok {
				row[field] = mapped
			}
		}
	}
}

// idColumnFormat matches spec.md §4.6 step 3's "ID<16-digit autonumber>".
const idColumnFormat = "ID%016d"

// SynthesizeIDColumn adds (or overwrites) an Id column with deterministic
// sequential ids when the object's CSV has none, returning the generated
// ids in row order for downstream lookup reconciliation (spec.md §4.6
// step 3).
func SynthesizeIDColumn(t *Table) []string {
	if hasColumn(t.Header, "Id") {
		ids := make([]string, len(t.Rows))
		for i, row := range t.Rows {
			ids[i] = row["Id"]
		}
		return ids
	}
	t.Header = append(t.Header, "Id")
	ids := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		id := fmt.Sprintf(idColumnFormat, i+1)
		row["Id"] = id
		ids[i] = id
	}
	return ids
}

func hasColumn(header []string, name string) bool {
	for _, h := range header {
		if h == name {
			return true
		}
	}
	return false
}

// ReconcileLookupPair fixes a single lookup field's id/__r column pair.
// RepairDir calls it once per lookup field after every table's Id column
// has been synthesized (spec.md §4.6 steps 3-4); the repair applied is
// picked by which of the id and __r columns the child already has.
func ReconcileLookupPair(child *Table, idColumn, relColumn string, parent *Table, parentExternalIDField string, report *progress.Report) {
	hasID := hasColumn(child.Header, idColumn)
	hasRel := hasColumn(child.Header, relColumn)

	switch {
	case hasRel && !hasID:
		resolveIDFromExternal(child, idColumn, relColumn, parent, parentExternalIDField, report)
	case hasID && !hasRel:
		resolveExternalFromID(child, idColumn, relColumn, parent, parentExternalIDField)
	case !hasID && !hasRel:
		synthesizePlaceholderPair(child, idColumn, relColumn)
	}
}

func resolveIDFromExternal(child *Table, idColumn, relColumn string, parent *Table, parentExternalIDField string, report *progress.Report) {
	byExtID := make(map[string]string, len(parent.Rows))
	for _, row := range parent.Rows {
		if ext := row[parentExternalIDField]; ext != "" {
			byExtID[ext] = row["Id"]
		}
	}
	child.Header = append(child.Header, idColumn)
	for _, row := range child.Rows {
		ext := row[relColumn]
		if id, ok := byExtID[ext]; ok {
			row[idColumn] = id
		} else if report != nil {
			report.AddMissingParent(progress.MissingParent{
				ChildObject:           child.Object,
				ChildField:            idColumn,
				ExternalID:            ext,
				ParentObject:          parent.Object,
				ParentExternalIDField: parentExternalIDField,
			})
		}
	}
}

func resolveExternalFromID(child *Table, idColumn, relColumn string, parent *Table, parentExternalIDField string) {
	byID := make(map[string]string, len(parent.Rows))
	for _, row := range parent.Rows {
		byID[row["Id"]] = row[parentExternalIDField]
	}
	child.Header = append(child.Header, relColumn)
	for _, row := range child.Rows {
		if ext, ok := byID[row[idColumn]]; ok {
			row[relColumn] = ext
		}
	}
}

// synthesizePlaceholderPair synthesizes parallel placeholder ids on both
// sides so downstream stages see a consistent, reportable gap rather than
// crashing (spec.md §4.6 step 4 "both are missing").
func synthesizePlaceholderPair(child *Table, idColumn, relColumn string) {
	child.Header = append(child.Header, idColumn, relColumn)
	for i, row := range child.Rows {
		placeholder := fmt.Sprintf("MISSING%016d", i+1)
		row[idColumn] = placeholder
		row[relColumn] = placeholder
	}
}
