package query_test

import (
	"testing"

	"github.com/jfcote87/sfmigrate/query"
)

func TestParsePolymorphicSelector(t *testing.T) {
	sel, ok := query.ParsePolymorphicSelector("WhatId$Account")
	if !ok {
		t.Fatal("expected ok for a Field$ParentObject token")
	}
	if sel.Field != "WhatId" || sel.ParentObject != "Account" {
		t.Fatalf("unexpected selector: %+v", sel)
	}
	if _, ok := query.ParsePolymorphicSelector("WhatId"); ok {
		t.Fatal("expected ok=false for a plain field token")
	}
}

func TestExpandStripsPolymorphicSelectorToBareField(t *testing.T) {
	result := query.Expand(query.ExpandRequest{
		Fields:     []string{"Id", "Subject", "WhatId$Account"},
		ObjectName: "Task",
		Operation:  query.ExpandRequest{}.Operation,
	})
	found := false
	for _, f := range result.Fields {
		if f == "WhatId$Account" {
			t.Fatal("expected the selector stripped to its bare field name")
		}
		if f == "WhatId" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected WhatId present in the expanded field list")
	}
	if result.Polymorphic["WhatId"] != "Account" {
		t.Fatalf("expected the pin recorded against WhatId, got %v", result.Polymorphic)
	}
}
