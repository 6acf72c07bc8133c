package resolve

// PersonAccountExcludedFields lists the fields the writer must strip from
// a person-account record before submission; person accounts reject a
// subset of the standard Account field set (spec.md §4.4 "Person accounts
// / person contacts").
var PersonAccountExcludedFields = []string{
	"Name", "Site",
}

// PersonContactExcludedFields mirrors PersonAccountExcludedFields for the
// Contact side of a person-account pair.
var PersonContactExcludedFields = []string{
	"IsPersonAccount",
}

// Partition splits records for Account or Contact into (personRecords,
// businessRecords) by the IsPersonAccount flag, transparent to the write
// path (spec.md §4.4). Non-Account/Contact objects should not call this;
// callers decide based on t.Object.Name.
func Partition(records []map[string]interface{}) (person, business []map[string]interface{}) {
	for _, rec := range records {
		if isPerson, _ := rec["IsPersonAccount"].(bool); isPerson {
			person = append(person, rec)
		} else {
			business = append(business, rec)
		}
	}
	return person, business
}

// StripFields returns a copy of records with every field in excluded
// removed, used to enforce PersonAccountExcludedFields /
// PersonContactExcludedFields on the partitioned batch.
func StripFields(records []map[string]interface{}, excluded []string) []map[string]interface{} {
	out := make([]map[string]interface{}, len(records))
	for i, rec := range records {
		cp := make(map[string]interface{}, len(rec))
		for k, v := range rec {
			cp[k] = v
		}
		for _, f := range excluded {
			delete(cp, f)
		}
		out[i] = cp
	}
	return out
}
