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
	"time"
)

const (
	importAutoCloseDelay = 2 * time.Second
	importRowDataMaxLen  = 100
)

var spreadsheetMIMETypes = map[string]bool{
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
}

type ImportRowError struct {
	RowNumber int               `json:"row_number"`
	Error     string            `json:"error"`
	Data      map[string]string `json:"data"`
}

// RowSummary is the truncated one-line rendering of a failed row.
func (e ImportRowError) RowSummary() string {
	raw, err := json.Marshal(e.Data)
	if err != nil {
		return ""
	}
	runes := []rune(string(raw))
	if len(runes) > importRowDataMaxLen {
		return string(runes[:importRowDataMaxLen]) + "..."
	}
	return string(raw)
}

type ImportSummary struct {
	SuccessCount int              `json:"success_count"`
	FailureCount int              `json:"failure_count"`
	Errors       []ImportRowError `json:"errors"`
}

// AllSucceeded reports a clean import, which auto-closes the dialog.
func (s *ImportSummary) AllSucceeded() bool { return s.FailureCount == 0 }

// ImportView renders the import dialog outcome.
type ImportView interface {
	RenderSummary(summary *ImportSummary)
	CloseDialog()
}

// ImportFile validates the selection, uploads it and renders the mixed
// success/failure summary. A clean import auto-closes the dialog after
// a fixed delay; any failure keeps it open for review.
func (rc *RecordController) ImportFile(ctx context.Context, view ImportView,
	filename, contentType string, content io.Reader) (*ImportSummary, error) {

	rc.mu.Lock()
	if rc.importing {
		rc.mu.Unlock()
		return nil, ErrBusy
	}
	rc.importing = true
	rc.mu.Unlock()
	defer func() {
		rc.mu.Lock()
		rc.importing = false
		rc.mu.Unlock()
	}()

	if filename == "" || content == nil {
		rc.client.notifier.Notify(LevelError, "Select a spreadsheet file first")
		return nil, ErrValidation
	}
	if !spreadsheetMIMETypes[contentType] {
		rc.client.notifier.Notify(LevelError, "Only spreadsheet files can be imported")
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

	rc.client.loading.Show("Importing...")
	defer rc.client.loading.Hide()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		rc.client.baseURL+rc.schema.Resource+"/batch-import", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := rc.client.upload.Do(req)
	if err != nil {
		rc.client.notifier.Notify(LevelError, "Import failed: "+err.Error())
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg := messageFromBody(resp.Body, resp.StatusCode)
		rc.client.notifier.Notify(LevelError, msg)
		return nil, errors.New(msg)
	}
	var payload struct {
		Success bool           `json:"success"`
		Details *ImportSummary `json:"details"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.Details == nil {
		rc.client.notifier.Notify(LevelError, "Unexpected import response")
		if err == nil {
			err = errors.New("missing import details")
		}
		return nil, err
	}
	summary := payload.Details
	view.RenderSummary(summary)

	if summary.SuccessCount > 0 {
		// New rows can land anywhere in the ordering.
		if err := rc.Load(ctx, 1, nil); err != nil {
			rc.client.notifier.Notify(LevelError, fmt.Sprintf("Imported, but reload failed: %v", err))
		}
	}
	if summary.AllSucceeded() {
		rc.client.sleep(importAutoCloseDelay)
		view.CloseDialog()
	}
	return summary, nil
}
