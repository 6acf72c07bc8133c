package query_test

import (
	"testing"

	"github.com/jfcote87/sfmigrate/query"
)

func TestParse(t *testing.T) {
	p, err := query.Parse("SELECT Id, Name, Account.Name FROM Contact WHERE LastName = 'Smith' ORDER BY Name LIMIT 10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.From != "Contact" {
		t.Errorf("expected From=Contact, got %s", p.From)
	}
	if len(p.Fields) != 3 {
		t.Errorf("expected 3 fields, got %v", p.Fields)
	}
	if p.Where != "LastName = 'Smith'" {
		t.Errorf("unexpected where clause: %q", p.Where)
	}
	if p.OrderBy != "Name" {
		t.Errorf("unexpected order by: %q", p.OrderBy)
	}
	if p.Limit != 10 {
		t.Errorf("expected limit 10, got %d", p.Limit)
	}
}

func TestParseNoWhere(t *testing.T) {
	p, err := query.Parse("SELECT Id FROM Account")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Where != "" || p.Limit != 0 {
		t.Errorf("expected no where/limit, got %+v", p)
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := query.Parse("DELETE FROM Account"); err == nil {
		t.Fatal("expected error for non-SELECT query")
	}
	if _, err := query.Parse("SELECT Id"); err == nil {
		t.Fatal("expected error for missing FROM")
	}
}
