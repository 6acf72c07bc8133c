package graph

import "github.com/jfcote87/sfmigrate/schema"

// Mode selects how the task list is ordered (spec.md §4.2).
type Mode int

const (
	// Smart builds dependency order from the object graph (default).
	Smart Mode = iota
	// Preserve emits tasks in declaration order with no further reasoning.
	Preserve
)

// specialObjectQueryOrder lists known right-must-precede-left pairs used
// by the second bubble pass over queryOrder (spec.md §4.2 step 5). Each
// entry means: the key object must be queried after every object in its
// value list.
var specialObjectQueryOrder = map[string][]string{
	"AccountContactRelation": {"Account", "Contact", "Case"},
}

const maxBubblePasses = 10

// Result is the three orderings spec.md §4.2 requires.
type Result struct {
	QueryOrder  []*Task
	TaskOrder   []*Task
	DeleteOrder []*Task
}

// Build converts descs into a Result according to mode (spec.md §4.2).
func Build(descs []*schema.ObjectDescriptor, mode Mode) Result {
	tasks := make([]*Task, 0, len(descs))
	for _, d := range descs {
		tasks = append(tasks, NewTask(d))
	}

	var taskOrder []*Task
	if mode == Preserve {
		taskOrder = append([]*Task(nil), tasks...)
	} else {
		taskOrder = smartTaskOrder(tasks)
	}

	queryOrder := buildQueryOrder(taskOrder)
	deleteOrder := reverseTasks(taskOrder)

	return Result{QueryOrder: queryOrder, TaskOrder: taskOrder, DeleteOrder: deleteOrder}
}

// smartTaskOrder implements spec.md §4.2 steps 1-4: RecordType first,
// then readonly objects, then the rest inserted parent-before-child, then
// a master-detail bubble pass.
func smartTaskOrder(tasks []*Task) []*Task {
	var recordType, readonly, rest []*Task
	for _, t := range tasks {
		switch {
		case t.Object.Name == "RecordType":
			recordType = append(recordType, t)
		case t.Object.Operation == schema.Readonly:
			readonly = append(readonly, t)
		default:
			rest = append(rest, t)
		}
	}

	ordered := append(append([]*Task{}, recordType...), readonly...)
	placed := make(map[string]bool)
	for _, t := range ordered {
		placed[t.Object.Name] = true
	}

	// Insert each remaining object so every parent-lookup object already
	// placed precedes it; since "rest" preserves declaration order and we
	// walk it repeatedly until nothing new was placed, objects whose
	// parent is later in declaration order still end up correctly ordered
	// (their insertion is simply deferred to a later round).
	remaining := append([]*Task{}, rest...)
	for len(remaining) > 0 {
		progressed := false
		var stillRemaining []*Task
		for _, t := range remaining {
			if parentsSatisfied(t, placed, tasks) {
				ordered = append(ordered, t)
				placed[t.Object.Name] = true
				progressed = true
			} else {
				stillRemaining = append(stillRemaining, t)
			}
		}
		remaining = stillRemaining
		if !progressed {
			// Cyclic or externally-referenced parents (not in this run):
			// place whatever is left in original order rather than loop
			// forever (spec.md §9: cycles are broken by retrieval passes,
			// not by the scheduler).
			ordered = append(ordered, remaining...)
			for _, t := range remaining {
				placed[t.Object.Name] = true
			}
			break
		}
	}

	bubbleMasterDetail(ordered)
	return ordered
}

// parentsSatisfied reports whether every object t's fields look up to
// (among objects present in the run) has already been placed.
func parentsSatisfied(t *Task, placed map[string]bool, all []*Task) bool {
	known := make(map[string]bool, len(all))
	for _, o := range all {
		known[o.Object.Name] = true
	}
	for _, f := range t.Object.Fields {
		if !f.IsLookup {
			continue
		}
		for _, candidate := range f.LookupCandidates() {
			if candidate == "" || candidate == t.Object.Name {
				continue // skip self-references; they cannot block placement
			}
			if known[candidate] && !placed[candidate] {
				return false
			}
		}
	}
	return true
}

// bubbleMasterDetail runs spec.md §4.2 step 4: for each ordered pair
// (left, right), swap if right is a master-detail parent of left. At most
// maxBubblePasses iterations, stopping early once stable.
func bubbleMasterDetail(ordered []*Task) {
	for pass := 0; pass < maxBubblePasses; pass++ {
		swapped := false
		for i := 0; i < len(ordered)-1; i++ {
			left, right := ordered[i], ordered[i+1]
			if isMasterDetailParentOf(right, left) {
				ordered[i], ordered[i+1] = ordered[i+1], ordered[i]
				swapped = true
			}
		}
		if !swapped {
			return
		}
	}
}

// isMasterDetailParentOf reports whether parent is referenced by a
// master-detail field on child.
func isMasterDetailParentOf(parent, child *Task) bool {
	for _, f := range child.Object.Fields {
		if f.MasterDetail && f.ReferencedObject == parent.Object.Name {
			return true
		}
	}
	return false
}

// buildQueryOrder implements spec.md §4.2 step 5: master-detail
// child/bounded-query/readonly objects first, then the rest in taskOrder,
// followed by a bubble pass keyed on specialObjectQueryOrder.
func buildQueryOrder(taskOrder []*Task) []*Task {
	var first, rest []*Task
	for _, t := range taskOrder {
		if hasMasterDetailParent(t) || hasBoundedQuery(t) || t.Object.Operation == schema.Readonly {
			first = append(first, t)
		} else {
			rest = append(rest, t)
		}
	}
	ordered := append(first, rest...)

	for pass := 0; pass < maxBubblePasses; pass++ {
		swapped := false
		for i := 0; i < len(ordered)-1; i++ {
			left, right := ordered[i], ordered[i+1]
			if mustPrecedeInQueryOrder(right, left) {
				ordered[i], ordered[i+1] = ordered[i+1], ordered[i]
				swapped = true
			}
		}
		if !swapped {
			break
		}
	}
	return ordered
}

func hasMasterDetailParent(t *Task) bool {
	for _, f := range t.Object.Fields {
		if f.MasterDetail {
			return true
		}
	}
	return false
}

func hasBoundedQuery(t *Task) bool {
	return !t.Object.AllRecords
}

// mustPrecedeInQueryOrder reports whether candidate must be queried
// before subject per specialObjectQueryOrder, i.e. whether candidate's
// name is listed in subject's entry.
func mustPrecedeInQueryOrder(candidate, subject *Task) bool {
	deps, ok := specialObjectQueryOrder[subject.Object.Name]
	if !ok {
		return false
	}
	for _, d := range deps {
		if d == candidate.Object.Name {
			return true
		}
	}
	return false
}

func reverseTasks(in []*Task) []*Task {
	out := make([]*Task, len(in))
	for i, t := range in {
		out[len(in)-1-i] = t
	}
	return out
}
