// Copyright 2022 James Cote
// All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sforce_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jfcote87/ctxclient"
	"github.com/jfcote87/oauth2"
	"github.com/jfcote87/sfmigrate/sforce"
)

const totalAccountRows = 450

func accountRow(i int) map[string]interface{} {
	return map[string]interface{}{
		"attributes": map[string]interface{}{
			"type": "Account",
			"url":  fmt.Sprintf("/services/data/v53.0/sobjects/Account/001acc%06dAAA", i),
		},
		"Id":           fmt.Sprintf("001acc%06dAAA", i),
		"Name":         fmt.Sprintf("Account %d", i),
		"Legacy_ID__c": fmt.Sprintf("LEG%06d", i),
	}
}

var allAccountRows = func() []map[string]interface{} {
	rows := make([]map[string]interface{}, totalAccountRows)
	for i := range rows {
		rows[i] = accountRow(i)
	}
	return rows
}()

type rawQueryResponse struct {
	TotalSize      int                      `json:"totalSize"`
	Done           bool                     `json:"done"`
	NextRecordsURL string                   `json:"nextRecordsUrl,omitempty"`
	Records        []map[string]interface{} `json:"records"`
}

func queryHandler(w http.ResponseWriter, r *http.Request) {
	qry := r.URL.Query().Get("q")
	if (r.URL.Path != "/query/" && r.URL.Path != "/query/nextset/") || qry == "" {
		http.Error(w, fmt.Sprintf("unexpected query path %s?%s", r.URL.Path, r.URL.Query().Encode()), http.StatusBadRequest)
		return
	}
	batch := 200
	fmt.Sscanf(r.Header.Get("Sforce-Query-Options"), "batchSize=%d", &batch)
	start, _ := strconv.Atoi(r.URL.Query().Get("s"))

	var resp rawQueryResponse
	resp.TotalSize = totalAccountRows
	switch qry {
	case "firstset":
		end := batch
		if end > totalAccountRows {
			end = totalAccountRows
		}
		resp.Records = allAccountRows[:end]
		resp.Done = end >= totalAccountRows
		if !resp.Done {
			resp.NextRecordsURL = fmt.Sprintf("query/nextset/?q=secondset&s=%d", end)
		}
	case "secondset":
		if start <= 0 {
			http.Error(w, "expected start value > 0", http.StatusBadRequest)
			return
		}
		end := start + batch
		if end > totalAccountRows {
			end = totalAccountRows
		}
		resp.Records = allAccountRows[start:end]
		resp.Done = end >= totalAccountRows
		if !resp.Done {
			resp.NextRecordsURL = fmt.Sprintf("/query/nextset/?q=secondset&s=%d", end)
		}
	default:
		http.Error(w, fmt.Sprintf("unknown query token %s", qry), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func TestQueryPagination(t *testing.T) {
	testAccessToken := "QUERYTESTTOKEN"
	ws := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testAccessToken {
			http.Error(w, "bad token", http.StatusUnauthorized)
			return
		}
		queryHandler(w, r)
	}))
	defer ws.Close()

	tk := &oauth2.Token{AccessToken: testAccessToken}
	sv := sforce.New("aninstance.my.salesforce", "", oauth2.StaticTokenSource(tk)).
		WithURL(ws.URL + "/").WithBatchSize(7)
	ctx := context.Background()

	if err := sv.Query(ctx, "firstset", nil); err == nil || err.Error() != "results parameter may not be nil" {
		t.Fatalf("expected nil results error; got %v", err)
	}
	if err := sv.Query(ctx, "firstset", []string{""}); err == nil || !strings.HasPrefix(err.Error(), "expected *[]<struct>") {
		t.Fatalf("expected non-slice-pointer error; got %v", err)
	}

	var rows []sforce.RecordMap
	if err := sv.Query(ctx, "firstset", &rows); err != nil {
		t.Fatalf("full paginated read: %v", err)
	}
	if len(rows) != totalAccountRows {
		t.Fatalf("expected %d rows; got %d", totalAccountRows, len(rows))
	}

	var capped []sforce.RecordMap
	if err := sv.WithMaxrows(10).Query(ctx, "firstset", &capped); err != nil {
		t.Fatalf("capped read: %v", err)
	}
	if len(capped) != 10 {
		t.Fatalf("expected maxrows to cap at 10; got %d", len(capped))
	}

	var missing []sforce.RecordMap
	err := sv.Query(ctx, "notatoken", &missing)
	var notSuccess *ctxclient.NotSuccess
	if !errors.As(err, &notSuccess) || notSuccess.StatusCode != 404 {
		t.Fatalf("expected 404 NotSuccess; got %v", err)
	}
}

type callTests struct {
	host                  string
	sv                    *sforce.Service
	ctxOK, ctx400, ctx401 context.Context
}

func getTokenClientFunc() ctxclient.Func {
	return func(ctx context.Context) (*http.Client, error) {
		tk, _ := ctx.Value(tokenContextKey{}).(string)
		if tk == "" {
			return nil, errors.New("empty token")
		}
		return oauth2.Client(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tk}), nil), nil
	}
}

type tokenContextKey struct{}

func withToken(token string) context.Context {
	return context.WithValue(context.Background(), tokenContextKey{}, token)
}

func checkAuth(w http.ResponseWriter, tk string) bool {
	if tk == "OK" {
		return true
	}
	status := http.StatusInternalServerError
	parts := strings.Split(tk, " ")
	if len(parts) > 1 {
		if status, _ = strconv.Atoi(parts[len(parts)-1]); status == 0 {
			status = http.StatusInternalServerError
		}
	}
	http.Error(w, tk, status)
	return false
}

func encodeJSON(w http.ResponseWriter, obj interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(obj)
}

func serviceHandlerFunc(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	if !checkAuth(w, strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		testSrvGet(w, r)
	case http.MethodPatch:
		testSrvPatch(w, r)
	case http.MethodDelete:
		testSrvDelete(w, r)
	case http.MethodPut:
		testSrvPut(w, r)
	case http.MethodPost:
		testSrvPost(w, r)
	default:
		http.Error(w, fmt.Sprintf("unsupported method %s for %s", r.Method, r.URL.Path), http.StatusMethodNotAllowed)
	}
}

func dateRangeOK(w http.ResponseWriter, r *http.Request) bool {
	if _, err := time.Parse(time.RFC3339, r.URL.Query().Get("start")); err != nil {
		http.Error(w, "bad start date", http.StatusBadRequest)
		return false
	}
	if _, err := time.Parse(time.RFC3339, r.URL.Query().Get("end")); err != nil {
		http.Error(w, "bad end date", http.StatusBadRequest)
		return false
	}
	return true
}

func testSrvGet(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/sobjects/":
		encodeJSON(w, struct {
			Encoding string                      `json:"encoding"`
			Objects  []sforce.SObjectDefinition `json:"sobjects"`
		}{
			Encoding: "UTF-8",
			Objects: []sforce.SObjectDefinition{
				{Name: "Account"}, {Name: "Contact"}, {Name: "Task"},
			},
		})
	case "/sobjects/Account/describe":
		encodeJSON(w, sforce.SObjectDefinition{
			Name: "Account",
			Fields: []sforce.Field{
				{Name: "Id", Type: "id"},
				{Name: "Name", Type: "string"},
				{Name: "Legacy_ID__c", Type: "string", ExternalID: true},
			},
		})
	case "/sobjects/Account/deleted/":
		if !dateRangeOK(w, r) {
			return
		}
		encodeJSON(w, sforce.GetDeletedResponse{
			DeletedRecords: []sforce.DeletedRecord{{ID: "001del0000001AAA", DeletedDate: "2022-01-01T00:00:00.000Z"}},
		})
	case "/sobjects/Account/updated/":
		if !dateRangeOK(w, r) {
			return
		}
		encodeJSON(w, sforce.GetUpdatedResponse{IDs: []string{"001upd0000001AAA", "001upd0000002AAA"}})
	case "/sobjects/Account/001acc000000AAA":
		encodeJSON(w, accountRow(0))
	case "/sobjects/Account/Legacy_ID__c/LEG000000":
		encodeJSON(w, accountRow(0))
	case "/sobjects/Attachment/att0000001AAA":
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(bytes.Repeat([]byte{0xFF}, 256))
	default:
		testSrvGetJob(w, r.URL.Path)
	}
}

func testSrvGetJob(w http.ResponseWriter, path string) {
	switch path {
	case "/jobs/ingest/JOB0000":
		encodeJSON(w, sforce.Job{ID: "JOB0000", Object: "Account", State: "JobComplete"})
	case "/jobs/ingest/JOB0000/successfulResults/":
		w.Header().Set("Content-Type", "text/csv")
		csv.NewWriter(w).WriteAll([][]string{{"sf__Id", "sf__Created", "Id"}, {"001new00001AAA", "true", ""}, {"001new00002AAA", "false", "001old00002AAA"}})
	case "/jobs/ingest/JOB0000/failedResults/":
		w.Header().Set("Content-Type", "text/csv")
		csv.NewWriter(w).WriteAll([][]string{{"sf__Id", "sf__Error", "Id"}, {"", "DUPLICATE_VALUE", "001bad00001AAA"}})
	case "/jobs/ingest/JOB0000/unprocessedrecords/":
		w.Header().Set("Content-Type", "text/csv")
		csv.NewWriter(w).WriteAll([][]string{{"Id"}, {"001unp00001AAA"}})
	case "/jobs/ingest/":
		encodeJSON(w, sforce.JobList{
			NextRecordsURL: "/jobs/ingest/next",
			Records:        []sforce.Job{{ID: "JOB0000", State: "JobComplete"}, {ID: "JOB0001", State: "Open"}},
		})
	case "/jobs/ingest/next":
		encodeJSON(w, sforce.JobList{Done: true, Records: []sforce.Job{{ID: "JOB0002", State: "Aborted"}}})
	default:
		http.Error(w, "not found: "+path, http.StatusNotFound)
	}
}

func testSrvPatch(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/sobjects/Account/001acc000000AAA":
		w.WriteHeader(http.StatusNoContent)
	case "/sobjects/Account/Legacy_ID__c/LEG000000":
		encodeJSON(w, accountRow(0))
	case "/sobjects/Account/Legacy_ID__c/LEG999999":
		w.WriteHeader(http.StatusCreated)
		encodeJSON(w, map[string]interface{}{"id": "001new0000099AAA", "success": true, "created": true, "errors": []interface{}{}})
	case "/jobs/ingest/JOB0000":
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		encodeJSON(w, sforce.Job{ID: "JOB0000", Object: "Account", State: body["state"]})
	default:
		http.Error(w, "not found: "+r.URL.Path, http.StatusNotFound)
	}
}

func testSrvDelete(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/sobjects/Account/001acc000000AAA", "/jobs/ingest/JOB0000":
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "not found: "+r.URL.Path, http.StatusNotFound)
	}
}

func testSrvPut(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/jobs/ingest/JOB0000/batches" {
		http.Error(w, "not found: "+r.URL.Path, http.StatusNotFound)
		return
	}
	defer r.Body.Close()
	rows, err := csv.NewReader(r.Body).ReadAll()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(rows) != 3 {
		http.Error(w, fmt.Sprintf("expected header + 2 data rows; got %d", len(rows)), http.StatusInternalServerError)
	}
}

func testSrvPost(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/sobjects/Account":
		w.WriteHeader(http.StatusCreated)
		encodeJSON(w, map[string]interface{}{"id": "001new0000001AAA", "success": true, "created": true, "errors": []interface{}{}})
	case "/jobs/ingest/":
		encodeJSON(w, sforce.Job{ID: "JOB0000", Object: "Account", State: "Open"})
	case "/jobs/query":
		encodeJSON(w, sforce.Job{ID: "JOB0006", Operation: "queryAll", Object: "Account", State: "UploadComplete"})
	default:
		http.Error(w, "not found: "+r.URL.Path, http.StatusNotFound)
	}
}

func newCallTests(ws *httptest.Server) *callTests {
	return &callTests{
		host: ws.URL,
		sv: sforce.New("aninstance.my.salesforce", "", nil).WithCtxClientFunc(getTokenClientFunc()).
			WithURL(ws.URL + "/").WithBatchSize(10),
		ctxOK:  withToken("OK"),
		ctx400: withToken("FAIL 400"),
		ctx401: withToken("FAIL 401"),
	}
}

func wantNotSuccess(t *testing.T, err error, code int) {
	t.Helper()
	var ns *ctxclient.NotSuccess
	if !errors.As(err, &ns) || ns.StatusCode != code {
		t.Fatalf("expected %d status error; got %v", code, err)
	}
}

func (ct *callTests) testObjectList(t *testing.T) {
	_, err := ct.sv.ObjectList(ct.ctx401)
	wantNotSuccess(t, err, 401)

	if _, err := ct.sv.ObjectList(context.Background()); err == nil || !strings.HasSuffix(err.Error(), "empty token") {
		t.Fatalf("expected empty token error; got %v", err)
	}
	objs, err := ct.sv.ObjectList(ct.ctxOK)
	if err != nil || len(objs) != 3 {
		t.Fatalf("expected 3 objects; got %d, %v", len(objs), err)
	}
}

func (ct *callTests) testDescribe(t *testing.T) {
	_, err := ct.sv.Describe(ct.ctx401, "Account")
	wantNotSuccess(t, err, 401)

	desc, err := ct.sv.Describe(ct.ctxOK, "Account")
	if err != nil || len(desc.Fields) != 3 {
		t.Fatalf("expected 3 fields; got %d, %v", len(desc.Fields), err)
	}
}

func (ct *callTests) testGetDeletedUpdated(t *testing.T) {
	start, end := time.Now().Add(-30*24*time.Hour), time.Now()
	_, err := ct.sv.GetDeletedRecords(ct.ctx401, "Account", start, end)
	wantNotSuccess(t, err, 401)

	dels, err := ct.sv.GetDeletedRecords(ct.ctxOK, "Account", start, end)
	if err != nil || len(dels.DeletedRecords) != 1 {
		t.Fatalf("expected 1 deleted record; got %d, %v", len(dels.DeletedRecords), err)
	}
	upd, err := ct.sv.GetUpdatedRecords(ct.ctxOK, "Account", start, end)
	if err != nil || len(upd.IDs) != 2 {
		t.Fatalf("expected 2 updated ids; got %d, %v", len(upd.IDs), err)
	}
}

func (ct *callTests) testCreateUpdateDelete(t *testing.T) {
	rec := sforce.RecordMap{"attributes": map[string]interface{}{"type": "Account"}, "Name": "New Co"}
	_, err := ct.sv.Create(ct.ctx400, rec)
	wantNotSuccess(t, err, 400)

	op, err := ct.sv.Create(ct.ctxOK, rec)
	if err != nil || !op.Created || op.ID != "001new0000001AAA" {
		t.Fatalf("create: expected success with new id; got %+v, %v", op, err)
	}
	if err := ct.sv.Update(ct.ctxOK, rec, "001acc000000AAA"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := ct.sv.Delete(ct.ctxOK, "Account", "001acc000000AAA"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func (ct *callTests) testUpsert(t *testing.T) {
	rec := sforce.RecordMap{"attributes": map[string]interface{}{"type": "Account"}, "Name": "Existing Co"}
	op, err := ct.sv.Upsert(ct.ctxOK, rec, "Legacy_ID__c", "LEG000000")
	if err != nil || op.Created {
		t.Fatalf("upsert of existing external id should update not create; got %+v, %v", op, err)
	}
	op, err = ct.sv.Upsert(ct.ctxOK, rec, "Legacy_ID__c", "LEG999999")
	if err != nil || !op.Created || op.ID != "001new0000099AAA" {
		t.Fatalf("upsert of new external id should create; got %+v, %v", op, err)
	}
}

func (ct *callTests) testGetAndGetByExternalID(t *testing.T) {
	var badTarget int
	flds := []string{"Id", "Name", "Legacy_ID__c"}
	if err := ct.sv.Get(ct.ctxOK, &badTarget, "001acc000000AAA", flds...); err == nil ||
		!strings.HasSuffix(err.Error(), "unable to convert result ptr to an SObject") {
		t.Fatalf("expected not-an-SObject error; got %v", err)
	}
	rec := sforce.RecordMap{"attributes": map[string]interface{}{"type": "Account"}}
	if err := ct.sv.Get(ct.ctxOK, &rec, "001acc000000AAA", flds...); err != nil {
		t.Fatalf("Get: %v", err)
	}
	byExt := sforce.RecordMap{"attributes": map[string]interface{}{"type": "Account"}}
	if err := ct.sv.GetByExternalID(ct.ctxOK, &byExt, "Legacy_ID__c", "LEG000000", flds...); err != nil {
		t.Fatalf("GetByExternalID: %v", err)
	}
}

func (ct *callTests) testGetAttachment(t *testing.T) {
	_, err := ct.sv.GetAttachment(ct.ctx401, "Attachment", "att0000001AAA")
	wantNotSuccess(t, err, 401)

	body, err := ct.sv.GetAttachment(ct.ctxOK, "Attachment", "att0000001AAA")
	if err != nil {
		t.Fatalf("GetAttachment: %v", err)
	}
	defer body.Rdr.Close()
	n, err := io.Copy(io.Discard, body.Rdr)
	if err != nil || n != 256 {
		t.Fatalf("expected 256 bytes; got %d, %v", n, err)
	}
}

func (ct *callTests) testBulkJobLifecycle(t *testing.T) {
	jd := &sforce.JobDefinition{Object: "Account", Operation: "upsert", ExternalIDFieldName: "Legacy_ID__c"}
	job, err := ct.sv.CreateJob(ct.ctxOK, jd)
	if err != nil || job.ID != "JOB0000" {
		t.Fatalf("CreateJob: %v, %+v", err, job)
	}

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "batch.csv")
	if err := os.WriteFile(csvPath, []byte("Name,Legacy_ID__c\nAcme,LEG1\nGlobex,LEG2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := ct.sv.UploadJobDataFile(ct.ctxOK, "JOB0000", filepath.Join(dir, "missing.csv")); err == nil ||
		!strings.HasSuffix(err.Error(), "no such file or directory") {
		t.Fatalf("expected file-not-found error; got %v", err)
	}
	if err := ct.sv.UploadJobDataFile(ct.ctxOK, "JOB0000", csvPath); err != nil {
		t.Fatalf("UploadJobDataFile: %v", err)
	}

	closed, err := ct.sv.CloseJob(ct.ctxOK, "JOB0000")
	if err != nil || closed.State != "UploadComplete" {
		t.Fatalf("CloseJob: %v, %+v", err, closed)
	}
	aborted, err := ct.sv.AbortJob(ct.ctxOK, "JOB0000")
	if err != nil || aborted.State != "Aborted" {
		t.Fatalf("AbortJob: %v, %+v", err, aborted)
	}
	got, err := ct.sv.GetJob(ct.ctxOK, "JOB0000")
	if err != nil || got.State != "JobComplete" {
		t.Fatalf("GetJob: %v, %+v", err, got)
	}

	succ, err := ct.sv.GetSuccessfulJobRecords(ct.ctxOK, "JOB0000")
	if err != nil {
		t.Fatalf("GetSuccessfulJobRecords: %v", err)
	}
	defer succ.Rdr.Close()
	rows, err := csv.NewReader(succ.Rdr).ReadAll()
	if err != nil || len(rows) != 3 {
		t.Fatalf("expected header + 2 rows; got %d, %v", len(rows), err)
	}

	failed, err := ct.sv.GetFailedJobRecords(ct.ctxOK, "JOB0000")
	if err != nil {
		t.Fatalf("GetFailedJobRecords: %v", err)
	}
	defer failed.Rdr.Close()
	if rows, err := csv.NewReader(failed.Rdr).ReadAll(); err != nil || len(rows) != 2 {
		t.Fatalf("expected header + 1 row; got %d, %v", len(rows), err)
	}

	unproc, err := ct.sv.GetUnprocessedJobRecords(ct.ctxOK, "JOB0000")
	if err != nil {
		t.Fatalf("GetUnprocessedJobRecords: %v", err)
	}
	defer unproc.Rdr.Close()
	if rows, err := csv.NewReader(unproc.Rdr).ReadAll(); err != nil || len(rows) != 2 {
		t.Fatalf("expected header + 1 row; got %d, %v", len(rows), err)
	}

	if err := ct.sv.DeleteJob(ct.ctxOK, "JOB0000"); err != nil {
		t.Fatalf("DeleteJob: %v", err)
	}
}

func (ct *callTests) testListJobs(t *testing.T) {
	list, err := ct.sv.ListJobs(ct.ctxOK, "")
	if err != nil || list.NextRecordsURL == "" || len(list.Records) != 2 {
		t.Fatalf("ListJobs first page: %v, %+v", err, list)
	}
	next, err := ct.sv.ListJobs(ct.ctxOK, ct.host+list.NextRecordsURL)
	if err != nil || !next.Done || len(next.Records) != 1 {
		t.Fatalf("ListJobs next page: %v, %+v", err, next)
	}
}

func (ct *callTests) testQueryCreateJob(t *testing.T) {
	job, err := ct.sv.QueryCreateJob(ct.ctxOK, sforce.BulkQuery{Query: "SELECT Id FROM Account"}, true)
	if err != nil || job.Operation != "queryAll" {
		t.Fatalf("QueryCreateJob: %v, %+v", err, job)
	}
}

func (ct *callTests) testCallEdgeCases(t *testing.T) {
	var nilSv *sforce.Service
	if err := nilSv.Call(ct.ctxOK, "/abc", "GET", nil, nil); err == nil || err.Error() != "nil baseURL" {
		t.Fatalf("expected nil baseURL error; got %v", err)
	}
	if err := ct.sv.Call(ct.ctxOK, "/abc", " _", nil, nil); err == nil || !strings.HasPrefix(err.Error(), "net/http: invalid method") {
		t.Fatalf("expected invalid method error; got %v", err)
	}
	if err := ct.sv.Call(ct.ctxOK, "%!2@/abc", " ", nil, nil); err == nil || !strings.HasPrefix(err.Error(), "unable to parse path") {
		t.Fatalf("expected unable to parse path error; got %v", err)
	}
	var nilBody **sforce.HTTPBody
	if err := ct.sv.Call(ct.ctxOK, "/sobjects/Attachment/att0000001AAA", "GET", nil, nilBody); err == nil ||
		err.Error() != "result may not be a nil ptr" {
		t.Fatalf("expected result-may-not-be-nil error; got %v", err)
	}
}

func TestServiceCalls(t *testing.T) {
	ws := httptest.NewServer(http.HandlerFunc(serviceHandlerFunc))
	defer ws.Close()
	ct := newCallTests(ws)

	t.Run("call_edge_cases", ct.testCallEdgeCases)
	t.Run("object_list", ct.testObjectList)
	t.Run("describe", ct.testDescribe)
	t.Run("get_deleted_updated", ct.testGetDeletedUpdated)
	t.Run("create_update_delete", ct.testCreateUpdateDelete)
	t.Run("upsert", ct.testUpsert)
	t.Run("get_and_get_by_external_id", ct.testGetAndGetByExternalID)
	t.Run("get_attachment", ct.testGetAttachment)
	t.Run("bulk_job_lifecycle", ct.testBulkJobLifecycle)
	t.Run("list_jobs", ct.testListJobs)
	t.Run("query_create_job", ct.testQueryCreateJob)
}

func TestRetrieveRecords(t *testing.T) {
	ws := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/composite/sobjects/Account" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		var body struct {
			IDS    []string `json:"ids"`
			Fields []string `json:"fields"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rows := make([]map[string]interface{}, 0, len(body.IDS))
		for _, id := range body.IDS {
			rows = append(rows, map[string]interface{}{
				"attributes": map[string]interface{}{"type": "Account"},
				"Id":         id,
			})
		}
		encodeJSON(w, rows)
	}))
	defer ws.Close()
	ct := newCallTests(ws)

	ids := []string{"001a", "001b", "001c"}
	flds := []string{"Id", "Name"}

	var notSlicePtr sforce.RecordMap
	var notSObjectSlice []int

	tests := []struct {
		name    string
		results interface{}
		ids     []string
		flds    []string
		errMsg  string
	}{
		{name: "no ids", results: &[]sforce.RecordMap{}, flds: flds, errMsg: "no ids specified"},
		{name: "no fields", results: &[]sforce.RecordMap{}, ids: ids, errMsg: "no fields specified"},
		{name: "nil results", results: nil, ids: ids, flds: flds, errMsg: "results parameter may not be nil"},
		{name: "results not ptr to slice", results: notSlicePtr, ids: ids, flds: flds, errMsg: "results must be a pointer to a slice"},
		{name: "not an SObject element", results: &notSObjectSlice, ids: ids, flds: flds, errMsg: "int is not an SObject"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ct.sv.RetrieveRecords(context.Background(), tt.results, tt.ids, tt.flds...)
			if err == nil || err.Error() != tt.errMsg {
				t.Errorf("expected %q; got %v", tt.errMsg, err)
			}
		})
	}

	var recs []sforce.RecordMap
	if err := ct.sv.RetrieveRecords(ct.ctxOK, &recs, ids, flds...); err != nil {
		t.Fatalf("RetrieveRecords: %v", err)
	}
	if len(recs) != len(ids) {
		t.Fatalf("expected %d records; got %d", len(ids), len(recs))
	}
}

func TestDeleteID(t *testing.T) {
	var id sforce.DeleteID = "001acc000000AAA"
	if id.SObjectName() != "DeleteID" {
		t.Fatalf("expected SObjectName DeleteID; got %s", id.SObjectName())
	}
	if id.WithAttr("unused") != id {
		t.Fatal("WithAttr on a DeleteID should be a no-op")
	}
}

func TestOpResponseSObjectValue(t *testing.T) {
	var accountPtr *sforce.RecordMap = &sforce.RecordMap{"Name": "Acme"}

	tests := []struct {
		name    string
		target  interface{}
		or      sforce.OpResponse
		wantErr bool
	}{
		{name: "nil SObject, nil target", wantErr: true},
		{name: "non-pointer target", target: 5, wantErr: true},
		{name: "mismatched types", or: sforce.OpResponse{SObject: sforce.DeleteID("x")}, target: accountPtr, wantErr: true},
		{name: "matching types", or: sforce.OpResponse{SObject: *accountPtr}, target: accountPtr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.or.SObjectValue(tt.target); (err != nil) != tt.wantErr {
				t.Errorf("SObjectValue() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
