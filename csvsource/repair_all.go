package csvsource

import (
	"path/filepath"

	"github.com/jfcote87/sfmigrate/progress"
	"github.com/jfcote87/sfmigrate/schema"
)

// RepairDir repairs every object's CSV under srcDir, writing the results to
// a mirror of the same layout under dstDir, leaving srcDir untouched
// (spec.md §4.6: "All repaired CSVs are written to a mirror of the source
// directory"). The mapping of object name to a value-mapping table is
// optional; nil or missing entries skip step 2 for that object.
func RepairDir(tbl *schema.Table, srcDir, dstDir string, valueMappings map[string]map[string]map[string]string, report *progress.Report) error {
	names := tbl.Names()
	tables := make(map[string]*Table, len(names))
	for _, name := range names {
		t, err := ReadCSV(filepath.Join(srcDir, name+".csv"), name)
		if err != nil {
			return err
		}
		TrimHeader(t)
		for field, mapping := range valueMappings[name] {
			ApplyValueMapping(t, field, mapping)
		}
		if !hasColumn(t.Header, "Id") {
			SynthesizeIDColumn(t)
		}
		tables[name] = t
	}

	for _, name := range names {
		desc := tbl.Get(name)
		t := tables[name]
		for _, fd := range desc.Fields {
			if !fd.IsLookup || fd.ReferencedObject == "" {
				continue
			}
			parent := tables[fd.ReferencedObject]
			if parent == nil {
				continue
			}
			parentDesc := tbl.Get(fd.ReferencedObject)
			idCol, relCol := schema.LookupColumnNames(fd)
			ReconcileLookupPair(t, idCol, relCol, parent, parentDesc.ExternalID, report)
		}
	}

	for _, name := range names {
		if err := WriteCSV(filepath.Join(dstDir, name+".csv"), tables[name]); err != nil {
			return err
		}
	}
	return nil
}
