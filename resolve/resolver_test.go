package resolve_test

import (
	"testing"

	"github.com/jfcote87/sfmigrate/graph"
	"github.com/jfcote87/sfmigrate/progress"
	"github.com/jfcote87/sfmigrate/resolve"
	"github.com/jfcote87/sfmigrate/schema"
)

func TestPrepareRewritesLookupToTargetID(t *testing.T) {
	account := &schema.ObjectDescriptor{Name: "Account", TargetName: "Account", Operation: schema.Insert}
	contact := &schema.ObjectDescriptor{
		Name: "Contact", TargetName: "Contact", Operation: schema.Insert,
		Fields: []*schema.FieldDescriptor{{Name: "AccountId", IsLookup: true, ReferencedObject: "Account"}},
	}

	accountTask := graph.NewTask(account)
	accountTask.SourceToTarget["001A"] = map[string]interface{}{"Id": "001T"}

	contactTask := graph.NewTask(contact)
	contactTask.SourceRecords = []map[string]interface{}{
		{"Id": "003A", "LastName": "Smith", "AccountId": "001A"},
	}

	report := &progress.Report{}
	r := resolve.NewResolver([]*graph.Task{accountTask, contactTask}, report)
	out := r.Prepare(contactTask)

	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	if out[0]["AccountId"] != "001T" {
		t.Fatalf("expected AccountId rewritten to 001T, got %v", out[0]["AccountId"])
	}
	if !report.Empty() {
		t.Fatalf("expected no missing parents, got %+v", report.MissingParents)
	}
}

func TestPrepareReportsMissingParent(t *testing.T) {
	account := &schema.ObjectDescriptor{Name: "Account", TargetName: "Account", Operation: schema.Insert, ExternalID: "Name"}
	contact := &schema.ObjectDescriptor{
		Name: "Contact", TargetName: "Contact", Operation: schema.Insert,
		Fields: []*schema.FieldDescriptor{{Name: "AccountId", IsLookup: true, ReferencedObject: "Account"}},
	}
	accountTask := graph.NewTask(account) // no SourceToTarget entry: unresolved
	contactTask := graph.NewTask(contact)
	contactTask.SourceRecords = []map[string]interface{}{
		{"Id": "003A", "LastName": "Smith", "AccountId": "001A"},
	}

	report := &progress.Report{}
	r := resolve.NewResolver([]*graph.Task{accountTask, contactTask}, report)
	out := r.Prepare(contactTask)

	if out[0]["AccountId"] != nil {
		t.Fatalf("expected AccountId nulled, got %v", out[0]["AccountId"])
	}
	if len(report.MissingParents) != 1 {
		t.Fatalf("expected 1 missing parent report, got %d", len(report.MissingParents))
	}
	if report.MissingParents[0].ParentObject != "Account" {
		t.Fatalf("unexpected missing parent: %+v", report.MissingParents[0])
	}
}

func TestPrepareResolvesPolymorphicLookupByDeclarationOrder(t *testing.T) {
	account := &schema.ObjectDescriptor{Name: "Account", TargetName: "Account", Operation: schema.Insert}
	opportunity := &schema.ObjectDescriptor{Name: "Opportunity", TargetName: "Opportunity", Operation: schema.Insert}
	task := &schema.ObjectDescriptor{
		Name: "Task", TargetName: "Task", Operation: schema.Insert,
		Fields: []*schema.FieldDescriptor{{Name: "WhatId", IsLookup: true, PolymorphicTargets: []string{"Account", "Opportunity"}}},
	}

	accountTask := graph.NewTask(account)
	opportunityTask := graph.NewTask(opportunity)
	opportunityTask.SourceToTarget["006A"] = map[string]interface{}{"Id": "006T"}

	taskTask := graph.NewTask(task)
	taskTask.SourceRecords = []map[string]interface{}{
		{"Id": "00TA", "Subject": "Call", "WhatId": "006A"},
	}

	report := &progress.Report{}
	r := resolve.NewResolver([]*graph.Task{accountTask, opportunityTask, taskTask}, report)
	out := r.Prepare(taskTask)

	if out[0]["WhatId"] != "006T" {
		t.Fatalf("expected WhatId resolved against the Opportunity candidate, got %v", out[0]["WhatId"])
	}
	if !report.Empty() {
		t.Fatalf("expected no missing parents, got %+v", report.MissingParents)
	}
}

func TestPrepareHonorsPinnedPolymorphicTarget(t *testing.T) {
	account := &schema.ObjectDescriptor{Name: "Account", TargetName: "Account", Operation: schema.Insert}
	opportunity := &schema.ObjectDescriptor{Name: "Opportunity", TargetName: "Opportunity", Operation: schema.Insert}
	task := &schema.ObjectDescriptor{
		Name: "Task", TargetName: "Task", Operation: schema.Insert,
		Fields: []*schema.FieldDescriptor{{
			Name:               "WhatId",
			IsLookup:           true,
			PolymorphicTargets: []string{"Account", "Opportunity"},
			PinnedTarget:       "Account",
		}},
	}

	accountTask := graph.NewTask(account)
	opportunityTask := graph.NewTask(opportunity)
	// Same source id happens to also resolve under Opportunity; the pin
	// must keep the resolver from ever considering that candidate.
	opportunityTask.SourceToTarget["001A"] = map[string]interface{}{"Id": "WRONG"}

	taskTask := graph.NewTask(task)
	taskTask.SourceRecords = []map[string]interface{}{
		{"Id": "00TA", "Subject": "Call", "WhatId": "001A"},
	}

	report := &progress.Report{}
	r := resolve.NewResolver([]*graph.Task{accountTask, opportunityTask, taskTask}, report)
	out := r.Prepare(taskTask)

	if out[0]["WhatId"] != nil {
		t.Fatalf("expected WhatId nulled since the pinned Account candidate has no mapping, got %v", out[0]["WhatId"])
	}
	if len(report.MissingParents) != 1 || report.MissingParents[0].ParentObject != "Account" {
		t.Fatalf("expected a missing parent reported against the pinned Account candidate, got %+v", report.MissingParents)
	}
}

func TestPartitionPersonAccounts(t *testing.T) {
	records := []map[string]interface{}{
		{"Id": "1", "IsPersonAccount": true},
		{"Id": "2", "IsPersonAccount": false},
	}
	person, business := resolve.Partition(records)
	if len(person) != 1 || len(business) != 1 {
		t.Fatalf("expected 1/1 split, got %d/%d", len(person), len(business))
	}
}

func TestStripFields(t *testing.T) {
	records := []map[string]interface{}{{"Name": "Acme", "Site": "HQ", "Industry": "Tech"}}
	out := resolve.StripFields(records, resolve.PersonAccountExcludedFields)
	if _, ok := out[0]["Name"]; ok {
		t.Fatal("expected Name stripped")
	}
	if out[0]["Industry"] != "Tech" {
		t.Fatal("expected Industry preserved")
	}
	if records[0]["Name"] != "Acme" {
		t.Fatal("original record must not be mutated")
	}
}
