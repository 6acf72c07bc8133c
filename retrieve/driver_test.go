package retrieve_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jfcote87/oauth2"
	"github.com/jfcote87/sfmigrate/graph"
	"github.com/jfcote87/sfmigrate/retrieve"
	"github.com/jfcote87/sfmigrate/schema"
	"github.com/jfcote87/sfmigrate/sforce"
)

// fakeOrg serves /query/ by matching the WHERE clause against a canned
// table of rows per object, mimicking just enough of the Salesforce query
// endpoint for the retrieval driver to exercise its closure passes.
type fakeOrg struct {
	accounts []map[string]interface{}
	contacts []map[string]interface{}
}

func (f *fakeOrg) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		var rows []map[string]interface{}
		switch {
		case strings.Contains(q, "FROM Account"):
			rows = filterRows(f.accounts, q)
		case strings.Contains(q, "FROM Contact"):
			rows = filterRows(f.contacts, q)
		}
		rs, _ := sforce.NewRecordSlice(&rows)
		resp := sforce.QueryResponse{Done: true, TotalSize: len(rows), Records: rs}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

// filterRows applies a trivial "WHERE Id IN (...)" filter if present in q;
// an unfiltered query returns every row (spec.md F1 "unbounded query").
func filterRows(rows []map[string]interface{}, q string) []map[string]interface{} {
	idx := strings.Index(q, "IN (")
	if idx < 0 {
		return rows
	}
	clause := q[idx+len("IN (") : strings.LastIndex(q, ")")]
	wanted := map[string]bool{}
	for _, tok := range strings.Split(clause, ",") {
		wanted[strings.Trim(tok, "'")] = true
	}
	var out []map[string]interface{}
	for _, r := range rows {
		if id, _ := r["Id"].(string); wanted[id] {
			out = append(out, r)
		}
	}
	return out
}

func TestRetrieveSourceClosure(t *testing.T) {
	org := &fakeOrg{
		accounts: []map[string]interface{}{
			{"Id": "001A", "Name": "Acme"},
		},
		contacts: []map[string]interface{}{
			{"Id": "003A", "LastName": "Smith", "AccountId": "001A"},
		},
	}
	ts := httptest.NewServer(org.handler())
	defer ts.Close()

	sv := sforce.New("inst.my.salesforce", "", oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok"})).
		WithURL(ts.URL + "/")

	account := &schema.ObjectDescriptor{Name: "Account", TargetName: "Account", Operation: schema.Insert}
	contact := &schema.ObjectDescriptor{
		Name: "Contact", TargetName: "Contact", Operation: schema.Insert, AllRecords: true,
		Fields: []*schema.FieldDescriptor{{Name: "AccountId", IsLookup: true, ReferencedObject: "Account"}},
	}
	table := schema.NewTable([]*schema.ObjectDescriptor{contact, account})

	contactTask := graph.NewTask(contact)
	accountTask := graph.NewTask(account)

	d := retrieve.NewDriver(sv, table, nil, nil, nil)
	if err := d.RetrieveSource(context.Background(), []*graph.Task{contactTask, accountTask}); err != nil {
		t.Fatalf("RetrieveSource: %v", err)
	}

	if len(contactTask.SourceRecords) != 1 {
		t.Fatalf("expected 1 contact, got %d", len(contactTask.SourceRecords))
	}
	if len(accountTask.SourceRecords) != 1 {
		t.Fatalf("expected account pulled via backward-parent pass, got %d", len(accountTask.SourceRecords))
	}
	if accountTask.SourceRecords[0]["Id"] != "001A" {
		t.Fatalf("unexpected account record: %+v", accountTask.SourceRecords[0])
	}
}

func TestRetrieveSourceRunsBackwardPassTwiceWithoutExtraQueries(t *testing.T) {
	calls := 0
	org := &fakeOrg{
		accounts: []map[string]interface{}{{"Id": "001A", "Name": "Acme"}},
		contacts: []map[string]interface{}{{"Id": "003A", "LastName": "Smith", "AccountId": "001A"}},
	}
	counting := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("q"), "FROM Account") && strings.Contains(r.URL.Query().Get("q"), "IN (") {
			calls++
		}
		org.handler()(w, r)
	})
	ts := httptest.NewServer(counting)
	defer ts.Close()

	sv := sforce.New("inst.my.salesforce", "", oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok"})).
		WithURL(ts.URL + "/")

	account := &schema.ObjectDescriptor{Name: "Account", TargetName: "Account", Operation: schema.Insert}
	contact := &schema.ObjectDescriptor{
		Name: "Contact", TargetName: "Contact", Operation: schema.Insert, AllRecords: true,
		Fields: []*schema.FieldDescriptor{{Name: "AccountId", IsLookup: true, ReferencedObject: "Account"}},
	}
	table := schema.NewTable([]*schema.ObjectDescriptor{contact, account})

	d := retrieve.NewDriver(sv, table, nil, nil, nil)
	tasks := []*graph.Task{graph.NewTask(contact), graph.NewTask(account)}
	if err := d.RetrieveSource(context.Background(), tasks); err != nil {
		t.Fatalf("RetrieveSource: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly 1 filtered Account query across B1+B2, got %d", calls)
	}
}
