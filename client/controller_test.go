package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"uhmwpe-mdm/core/store"
)

type stubView struct {
	lists       []*ListPage
	windows     [][]PageItem
	noData      int
	loadErrors  []string
	editors     []string
	editRecords []map[string]interface{}
	closed      int
	attachments [][]store.Attachment
}

func (v *stubView) RenderList(page *ListPage, window []PageItem) {
	v.lists = append(v.lists, page)
	v.windows = append(v.windows, window)
}
func (v *stubView) RenderNoData() { v.noData++ }

func (v *stubView) RenderLoadError(message string) { v.loadErrors = append(v.loadErrors, message) }
func (v *stubView) ShowEditor(title string, record map[string]interface{}) {
	v.editors = append(v.editors, title)
	v.editRecords = append(v.editRecords, record)
}
func (v *stubView) CloseEditor() { v.closed++ }
func (v *stubView) RenderAttachments(list []store.Attachment) {
	v.attachments = append(v.attachments, list)
}

type confirmAlways struct{ answer bool }

func (c confirmAlways) Confirm(string) bool { return c.answer }

// listCapture records every list request's query string and serves a
// canned page.
type listCapture struct {
	queries []url.Values
	page    string
}

func newController(t *testing.T, handler http.Handler, confirm Confirmer) (*RecordController, *stubView, *recordingNotifier, *sleepRecorder) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	notifier := &recordingNotifier{}
	sleeper := &sleepRecorder{}
	c := New(ts.URL, Deps{Notifier: notifier, Sleep: sleeper.sleep})
	view := &stubView{}
	return NewRecordController(c, ResinSpinningSchema(), view, confirm), view, notifier, sleeper
}

func TestLoadSendsOnlyTruthyFilters(t *testing.T) {
	cap := &listCapture{page: `{"records":[{"record_id":1}],"total":1,"pages":1,"current_page":1,"per_page":10,"has_prev":false,"has_next":false}`}
	rc, view, _, _ := newController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cap.queries = append(cap.queries, r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(cap.page))
	}), nil)

	err := rc.Load(context.Background(), 2, map[string]string{
		"batch_number":   "B-1",
		"material_grade": "",
		"resin_type":     "",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	q := cap.queries[0]
	if q.Get("page") != "2" || q.Get("per_page") != "10" {
		t.Fatalf("unexpected paging params: %v", q)
	}
	if q.Get("batch_number") != "B-1" {
		t.Fatalf("truthy filter missing: %v", q)
	}
	if _, present := q["material_grade"]; present {
		t.Fatalf("empty filter must be omitted, not sent blank: %v", q)
	}
	if len(view.lists) != 1 {
		t.Fatalf("rows not rendered")
	}
}

func TestLoadErrorRendersFailureRow(t *testing.T) {
	rc, view, notifier, _ := newController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"db offline"}`, http.StatusInternalServerError)
	}), nil)
	if err := rc.Load(context.Background(), 1, nil); err == nil {
		t.Fatalf("expected error")
	}
	if len(view.loadErrors) != 1 {
		t.Fatalf("load failure must render an explicit error row")
	}
	if notifier.last() != "db offline" {
		t.Fatalf("expected server message, got %q", notifier.last())
	}
}

func TestLoadZeroRowsRendersNoData(t *testing.T) {
	rc, view, _, _ := newController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"records":[],"total":0,"pages":0,"current_page":1,"per_page":10,"has_prev":false,"has_next":false}`))
	}), nil)
	if err := rc.Load(context.Background(), 1, nil); err != nil {
		t.Fatalf("load: %v", err)
	}
	if view.noData != 1 || len(view.lists) != 0 {
		t.Fatalf("empty result must render the no-data row")
	}
}

func TestSaveValidationSkipsNetwork(t *testing.T) {
	requests := 0
	rc, _, _, _ := newController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}), nil)
	err := rc.Save(context.Background(), map[string]string{
		"batch_number":   "B-1",
		"material_grade": "",
	})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if requests != 0 {
		t.Fatalf("validation failure issued %d requests", requests)
	}
}

func TestSaveReloadsCurrentPageAndFilters(t *testing.T) {
	var listQueries []url.Values
	var savedMethod string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet:
			listQueries = append(listQueries, r.URL.Query())
			_, _ = w.Write([]byte(`{"records":[{"record_id":1}],"total":1,"pages":1,"current_page":3,"per_page":10,"has_prev":true,"has_next":false}`))
		default:
			savedMethod = r.Method
			var payload map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&payload)
			if payload["supplier"] != nil {
				t.Errorf("blank supplier should arrive as null, got %v", payload["supplier"])
			}
			_, _ = w.Write([]byte(`{"success":true,"message":"Record created"}`))
		}
	})
	rc, view, _, _ := newController(t, handler, nil)

	// Establish a list position: page 3 with a filter.
	if err := rc.Load(context.Background(), 3, map[string]string{"batch_number": "B"}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := rc.Save(context.Background(), map[string]string{
		"batch_number":   "B-9",
		"material_grade": "GUR 4150",
		"supplier":       "  ",
	}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if savedMethod != http.MethodPost {
		t.Fatalf("create should POST, got %s", savedMethod)
	}
	if view.closed != 1 {
		t.Fatalf("editor not closed after save")
	}
	last := listQueries[len(listQueries)-1]
	if last.Get("page") != "3" || last.Get("batch_number") != "B" {
		t.Fatalf("save must reload the current page and filters, got %v", last)
	}
}

func TestDeleteResetsToFirstPageWithoutFilters(t *testing.T) {
	var listQueries []url.Values
	deletes := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			listQueries = append(listQueries, r.URL.Query())
			_, _ = w.Write([]byte(`{"records":[{"record_id":1}],"total":1,"pages":1,"current_page":1,"per_page":10,"has_prev":false,"has_next":false}`))
		case http.MethodDelete:
			deletes++
			if !strings.HasSuffix(r.URL.Path, "/42") {
				t.Errorf("unexpected delete path %s", r.URL.Path)
			}
			_, _ = w.Write([]byte(`{"success":true}`))
		}
	})
	rc, _, _, _ := newController(t, handler, confirmAlways{answer: true})

	if err := rc.Load(context.Background(), 4, map[string]string{"resin_type": "UHMWPE"}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := rc.Delete(context.Background(), 42); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deletes != 1 {
		t.Fatalf("expected one DELETE, got %d", deletes)
	}
	last := listQueries[len(listQueries)-1]
	if last.Get("page") != "1" {
		t.Fatalf("delete must reset to page 1, got %v", last)
	}
	if _, present := last["resin_type"]; present {
		t.Fatalf("delete must clear filters, got %v", last)
	}
	st := rc.State()
	if st.Page != 1 || len(st.Filters) != 0 {
		t.Fatalf("state not reset: %+v", st)
	}
}

func TestDeleteDeclinedDoesNothing(t *testing.T) {
	requests := 0
	rc, _, _, _ := newController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}), confirmAlways{answer: false})
	if err := rc.Delete(context.Background(), 42); err != nil {
		t.Fatalf("declined delete: %v", err)
	}
	if requests != 0 {
		t.Fatalf("declined confirmation still issued %d requests", requests)
	}
}

func TestOpenEditorBlankAndEdit(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/attachments") {
			_, _ = w.Write([]byte(`{"success":true,"attachments":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"record":{"record_id":7,"batch_number":"B-7","supplier":null}}`))
	})
	rc, view, _, _ := newController(t, handler, nil)

	if err := rc.OpenEditor(context.Background(), 0); err != nil {
		t.Fatalf("blank editor: %v", err)
	}
	if view.editors[0] != "Add New Record" || view.editRecords[0] != nil {
		t.Fatalf("blank editor wrong: %v %v", view.editors, view.editRecords)
	}

	if err := rc.OpenEditor(context.Background(), 7); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if view.editors[1] != "Edit Record" {
		t.Fatalf("edit title wrong: %v", view.editors)
	}
	if view.editRecords[1]["batch_number"] != "B-7" {
		t.Fatalf("record not passed to editor: %v", view.editRecords[1])
	}
	if len(view.attachments) != 1 {
		t.Fatalf("editing must fetch the attachment list")
	}
}

func TestOpenEditorFailureKeepsEditorClosed(t *testing.T) {
	rc, view, notifier, _ := newController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"success":false,"message":"Record not found"}`, http.StatusNotFound)
	}), nil)
	if err := rc.OpenEditor(context.Background(), 99); err == nil {
		t.Fatalf("expected error")
	}
	if len(view.editors) != 0 {
		t.Fatalf("failed load must not open the editor")
	}
	if notifier.last() != "Record not found" {
		t.Fatalf("expected server message, got %q", notifier.last())
	}
}

func TestStaleEditorLoadDropped(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"record":{"record_id":7}}`))
	})
	rc, view, _, _ := newController(t, handler, nil)

	done := make(chan error, 1)
	go func() { done <- rc.OpenEditor(context.Background(), 7) }()
	// Close the editor while the fetch is still pending, then let the
	// response arrive.
	<-started
	rc.CloseEditor()
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("open editor: %v", err)
	}
	for _, title := range view.editors {
		if title == "Edit Record" {
			t.Fatalf("stale response repopulated a closed editor")
		}
	}
}
