package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"uhmwpe-mdm/core/store"
)

const listPerPage = 10

// ErrBusy is returned when a mutating action is already in flight.
var ErrBusy = errors.New("operation already in progress")

// ListQueryState is the controller-owned list position: current page,
// fixed page size and the active filters.
type ListQueryState struct {
	Page    int
	PerPage int
	Filters map[string]string
}

type ListPage struct {
	Records     []map[string]interface{} `json:"records"`
	Total       int                      `json:"total"`
	Pages       int                      `json:"pages"`
	CurrentPage int                      `json:"current_page"`
	PerPage     int                      `json:"per_page"`
	HasPrev     bool                     `json:"has_prev"`
	HasNext     bool                     `json:"has_next"`
}

// RecordView is the rendering surface of one record module. The
// controller drives it; it holds no state of its own.
type RecordView interface {
	RenderList(page *ListPage, window []PageItem)
	RenderNoData()
	RenderLoadError(message string)
	ShowEditor(title string, record map[string]interface{})
	CloseEditor()
	RenderAttachments(list []store.Attachment)
}

// RecordController runs the CRUD + import lifecycle for one REST
// resource, parameterized by its schema.
type RecordController struct {
	client  *Client
	schema  Schema
	view    RecordView
	confirm Confirmer

	mu        sync.Mutex
	state     ListQueryState
	editorGen int
	editingID int64
	saving    bool
	deleting  bool
	importing bool
}

func NewRecordController(c *Client, schema Schema, view RecordView, confirm Confirmer) *RecordController {
	return &RecordController{
		client:  c,
		schema:  schema,
		view:    view,
		confirm: confirm,
		state:   ListQueryState{Page: 1, PerPage: listPerPage},
	}
}

func (rc *RecordController) State() ListQueryState {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	st := rc.state
	st.Filters = copyFilters(st.Filters)
	return st
}

func copyFilters(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (rc *RecordController) listURL(page int, filters map[string]string) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(listPerPage))
	for _, name := range rc.schema.FilterFields {
		if v := filters[name]; v != "" {
			q.Set(name, v)
		}
	}
	return rc.client.baseURL + rc.schema.Resource + "?" + q.Encode()
}

// Load fetches one page and replaces the visible row set. Filters carry
// over into the stored state, so pagination keeps them.
func (rc *RecordController) Load(ctx context.Context, page int, filters map[string]string) error {
	if page < 1 {
		page = 1
	}
	rc.mu.Lock()
	rc.state.Page = page
	rc.state.Filters = copyFilters(filters)
	rc.mu.Unlock()

	rc.client.loading.Show("Loading records...")
	defer rc.client.loading.Hide()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rc.listURL(page, filters), nil)
	if err != nil {
		return err
	}
	resp, err := rc.client.http.Do(req)
	if err != nil {
		rc.client.notifier.Notify(LevelError, "Could not load records: "+err.Error())
		rc.view.RenderLoadError(err.Error())
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg := messageFromBody(resp.Body, resp.StatusCode)
		rc.client.notifier.Notify(LevelError, msg)
		rc.view.RenderLoadError(msg)
		return errors.New(msg)
	}
	var lp ListPage
	if err := json.NewDecoder(resp.Body).Decode(&lp); err != nil {
		rc.client.notifier.Notify(LevelError, "Unexpected list response")
		rc.view.RenderLoadError(err.Error())
		return err
	}
	if len(lp.Records) == 0 {
		rc.view.RenderNoData()
		return nil
	}
	rc.view.RenderList(&lp, PageWindow(lp.CurrentPage, lp.Pages))
	return nil
}

// Reload re-issues the load at the stored page and filters.
func (rc *RecordController) Reload(ctx context.Context) error {
	st := rc.State()
	return rc.Load(ctx, st.Page, st.Filters)
}

// OpenEditor opens a blank form (id 0) or fetches the record and its
// attachments. A stale fetch, superseded by a newer open or a close, is
// dropped instead of repopulating the editor.
func (rc *RecordController) OpenEditor(ctx context.Context, id int64) error {
	rc.mu.Lock()
	rc.editorGen++
	gen := rc.editorGen
	rc.mu.Unlock()

	if id == 0 {
		rc.mu.Lock()
		rc.editingID = 0
		rc.mu.Unlock()
		rc.view.ShowEditor("Add New Record", nil)
		return nil
	}

	rc.client.loading.Show("Loading record...")
	defer rc.client.loading.Hide()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s%s/%d", rc.client.baseURL, rc.schema.Resource, id), nil)
	if err != nil {
		return err
	}
	resp, err := rc.client.http.Do(req)
	if err != nil {
		rc.client.notifier.Notify(LevelError, "Could not load record: "+err.Error())
		return err
	}
	defer resp.Body.Close()
	var payload struct {
		Success bool                   `json:"success"`
		Message string                 `json:"message"`
		Record  map[string]interface{} `json:"record"`
	}
	decodeErr := json.NewDecoder(resp.Body).Decode(&payload)
	if resp.StatusCode != http.StatusOK || decodeErr != nil || !payload.Success || payload.Record == nil {
		msg := payload.Message
		if msg == "" {
			msg = fmt.Sprintf("Could not load record (status %d)", resp.StatusCode)
		}
		rc.client.notifier.Notify(LevelError, msg)
		return errors.New(msg)
	}

	rc.mu.Lock()
	if gen != rc.editorGen {
		rc.mu.Unlock()
		return nil
	}
	rc.editingID = id
	rc.mu.Unlock()

	rc.view.ShowEditor("Edit Record", payload.Record)
	if list, err := rc.LoadAttachments(ctx, id); err == nil {
		rc.view.RenderAttachments(list)
	}
	return nil
}

// CloseEditor invalidates any pending editor fetch and clears transient
// editor state.
func (rc *RecordController) CloseEditor() {
	rc.mu.Lock()
	rc.editorGen++
	rc.editingID = 0
	rc.mu.Unlock()
	rc.view.CloseEditor()
}

type mutationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Save validates and normalizes the form, then POSTs a new record or
// PUTs the one being edited. On success the list reloads at the current
// page and filters.
func (rc *RecordController) Save(ctx context.Context, form map[string]string) error {
	rc.mu.Lock()
	if rc.saving {
		rc.mu.Unlock()
		return ErrBusy
	}
	rc.saving = true
	id := rc.editingID
	rc.mu.Unlock()
	defer func() {
		rc.mu.Lock()
		rc.saving = false
		rc.mu.Unlock()
	}()

	payload, err := rc.schema.Normalize(form)
	if err != nil {
		rc.client.notifier.Notify(LevelError, err.Error())
		return err
	}

	method := http.MethodPost
	target := rc.client.baseURL + rc.schema.Resource
	if id != 0 {
		method = http.MethodPut
		target = fmt.Sprintf("%s/%d", target, id)
	}
	body, _ := json.Marshal(payload)

	rc.client.loading.Show("Saving...")
	defer rc.client.loading.Hide()

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := rc.client.http.Do(req)
	if err != nil {
		rc.client.notifier.Notify(LevelError, "Save failed: "+err.Error())
		return err
	}
	defer resp.Body.Close()
	var mr mutationResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&mr)
	if (resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated) || decodeErr != nil || !mr.Success {
		msg := mr.Message
		if msg == "" {
			msg = fmt.Sprintf("Save failed (status %d)", resp.StatusCode)
		}
		rc.client.notifier.Notify(LevelError, msg)
		return errors.New(msg)
	}

	rc.client.notifier.Notify(LevelSuccess, "Record saved")
	rc.CloseEditor()
	return rc.Reload(ctx)
}

// Delete confirms, deletes and reloads at page 1 with cleared filters —
// a deletion can shift page boundaries, so the list always resets.
func (rc *RecordController) Delete(ctx context.Context, id int64) error {
	rc.mu.Lock()
	if rc.deleting {
		rc.mu.Unlock()
		return ErrBusy
	}
	rc.deleting = true
	rc.mu.Unlock()
	defer func() {
		rc.mu.Lock()
		rc.deleting = false
		rc.mu.Unlock()
	}()

	if rc.confirm != nil && !rc.confirm.Confirm("Delete this record? This cannot be undone.") {
		return nil
	}

	rc.client.loading.Show("Deleting...")
	defer rc.client.loading.Hide()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s%s/%d", rc.client.baseURL, rc.schema.Resource, id), nil)
	if err != nil {
		return err
	}
	resp, err := rc.client.http.Do(req)
	if err != nil {
		rc.client.notifier.Notify(LevelError, "Delete failed: "+err.Error())
		return err
	}
	defer resp.Body.Close()
	var mr mutationResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&mr)
	if resp.StatusCode != http.StatusOK || decodeErr != nil || !mr.Success {
		msg := mr.Message
		if msg == "" {
			msg = fmt.Sprintf("Delete failed (status %d)", resp.StatusCode)
		}
		rc.client.notifier.Notify(LevelError, msg)
		return errors.New(msg)
	}

	rc.client.notifier.Notify(LevelSuccess, "Record deleted")
	return rc.Load(ctx, 1, nil)
}

type attachmentsResponse struct {
	Success     bool               `json:"success"`
	Attachments []store.Attachment `json:"attachments"`
	Message     string             `json:"message"`
}

func (rc *RecordController) LoadAttachments(ctx context.Context, recordID int64) ([]store.Attachment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s%s/%d/attachments", rc.client.baseURL, rc.schema.Resource, recordID), nil)
	if err != nil {
		return nil, err
	}
	resp, err := rc.client.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var ar attachmentsResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&ar)
	if resp.StatusCode != http.StatusOK || decodeErr != nil || !ar.Success {
		msg := ar.Message
		if msg == "" {
			msg = fmt.Sprintf("Could not load attachments (status %d)", resp.StatusCode)
		}
		return nil, errors.New(msg)
	}
	return ar.Attachments, nil
}

// UploadAttachment sends one file for the record being edited and
// returns the refreshed attachment list.
func (rc *RecordController) UploadAttachment(ctx context.Context, recordID int64,
	filename, contentType string, content io.Reader) ([]store.Attachment, error) {

	if filename == "" || content == nil {
		rc.client.notifier.Notify(LevelError, "Select a file to upload")
		return nil, ErrValidation
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	rc.client.loading.Show("Uploading...")
	defer rc.client.loading.Hide()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s%s/%d/attachments", rc.client.baseURL, rc.schema.Resource, recordID), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := rc.client.upload.Do(req)
	if err != nil {
		rc.client.notifier.Notify(LevelError, "Upload failed: "+err.Error())
		return nil, err
	}
	defer resp.Body.Close()
	var mr mutationResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&mr)
	if (resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated) || decodeErr != nil || !mr.Success {
		msg := mr.Message
		if msg == "" {
			msg = fmt.Sprintf("Upload failed (status %d)", resp.StatusCode)
		}
		rc.client.notifier.Notify(LevelError, msg)
		return nil, errors.New(msg)
	}
	rc.client.notifier.Notify(LevelSuccess, "File uploaded")
	list, err := rc.LoadAttachments(ctx, recordID)
	if err == nil {
		rc.view.RenderAttachments(list)
	}
	return list, nil
}
