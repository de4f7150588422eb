package handlers

import (
	"encoding/hex"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"uhmwpe-mdm/config"
	"uhmwpe-mdm/core/bootstrap"
	"uhmwpe-mdm/core/store"
	"uhmwpe-mdm/core/utils"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"
)

type AttachmentsHandler struct {
	cfg         *config.AppConfig
	logger      *utils.Logger
	records     store.RecordsStore
	attachments store.AttachmentsStore
}

func NewAttachmentsHandler(cfg *config.AppConfig, logger *utils.Logger,
	records store.RecordsStore, attachments store.AttachmentsStore) *AttachmentsHandler {
	return &AttachmentsHandler{cfg: cfg, logger: logger, records: records, attachments: attachments}
}

func (h *AttachmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, false, "Invalid record id")
		return
	}
	list, err := h.attachments.ListForRecord(r.Context(), bootstrap.ModuleResinSpinning, id)
	if err != nil {
		h.logger.Errorf("attachment list failed record=%d: %v", id, err)
		writeMessage(w, http.StatusInternalServerError, false, "Failed to load attachments")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"attachments": list,
	})
}

// Upload stores one file under a uuid-derived name so uploads can never
// collide or traverse outside the uploads directory.
func (h *AttachmentsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, false, "Invalid record id")
		return
	}
	rec, err := h.records.Get(r.Context(), id)
	if err != nil {
		h.logger.Errorf("attachment parent load failed record=%d: %v", id, err)
		writeMessage(w, http.StatusInternalServerError, false, "Upload failed")
		return
	}
	if rec == nil {
		writeMessage(w, http.StatusNotFound, false, "Record not found")
		return
	}

	if err := r.ParseMultipartForm(h.cfg.Uploads.MaxBytes); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, false, "A file is required")
		return
	}
	defer file.Close()
	if header.Size > h.cfg.Uploads.MaxBytes {
		writeMessage(w, http.StatusRequestEntityTooLarge, false, "File is too large")
		return
	}
	originalName := filepath.Base(strings.TrimSpace(header.Filename))
	if originalName == "" || originalName == "." {
		writeMessage(w, http.StatusBadRequest, false, "File name is required")
		return
	}

	storedName, err := storedFileName(originalName)
	if err != nil {
		h.logger.Errorf("stored name generation failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, false, "Upload failed")
		return
	}
	if err := os.MkdirAll(h.cfg.Uploads.Dir, 0o755); err != nil {
		h.logger.Errorf("uploads dir create failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, false, "Upload failed")
		return
	}
	dstPath := filepath.Join(h.cfg.Uploads.Dir, storedName)
	dst, err := os.Create(dstPath)
	if err != nil {
		h.logger.Errorf("upload file create failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, false, "Upload failed")
		return
	}
	written, err := dst.ReadFrom(file)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dstPath)
		h.logger.Errorf("upload write failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, false, "Upload failed")
		return
	}

	a := &store.Attachment{
		ParentModule:   bootstrap.ModuleResinSpinning,
		ParentRecordID: id,
		OriginalName:   originalName,
		StoredName:     storedName,
		SizeBytes:      &written,
	}
	if ct := header.Header.Get("Content-Type"); ct != "" {
		a.FileType = &ct
	}
	if user := SessionUserFromContext(r.Context()); user != nil {
		a.UploadedBy = &user.ID
		a.Uploader = &user.Username
	}
	if err := h.attachments.Create(r.Context(), a); err != nil {
		_ = os.Remove(dstPath)
		h.logger.Errorf("attachment row create failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, false, "Upload failed")
		return
	}
	h.logger.Printf("attachment uploaded record=%d name=%s bytes=%d", id, originalName, written)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":    true,
		"message":    "File uploaded",
		"attachment": a,
	})
}

func storedFileName(original string) (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	name := hex.EncodeToString(id.Bytes())
	ext := strings.ToLower(filepath.Ext(original))
	if ext != "" && len(ext) <= 10 {
		name += ext
	}
	return name, nil
}

func attachmentID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "attachmentID"), 10, 64)
	return id, err == nil && id > 0
}

func (h *AttachmentsHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := attachmentID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, false, "Invalid attachment id")
		return
	}
	a, err := h.attachments.Get(r.Context(), id)
	if err != nil {
		h.logger.Errorf("attachment load failed id=%d: %v", id, err)
		writeMessage(w, http.StatusInternalServerError, false, "Download failed")
		return
	}
	if a == nil {
		writeMessage(w, http.StatusNotFound, false, "Attachment not found")
		return
	}
	path := filepath.Join(h.cfg.Uploads.Dir, filepath.Base(a.StoredName))
	f, err := os.Open(path)
	if err != nil {
		h.logger.Errorf("attachment file open failed name=%s: %v", a.StoredName, err)
		writeMessage(w, http.StatusNotFound, false, "Attachment file is missing")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, false, "Download failed")
		return
	}
	if a.FileType != nil && *a.FileType != "" {
		w.Header().Set("Content-Type", *a.FileType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+strings.ReplaceAll(a.OriginalName, `"`, "")+`"`)
	http.ServeContent(w, r, a.OriginalName, info.ModTime(), f)
}

// Delete is limited to the uploader and Admins.
func (h *AttachmentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := attachmentID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, false, "Invalid attachment id")
		return
	}
	a, err := h.attachments.Get(r.Context(), id)
	if err != nil {
		h.logger.Errorf("attachment load failed id=%d: %v", id, err)
		writeMessage(w, http.StatusInternalServerError, false, "Delete failed")
		return
	}
	if a == nil {
		writeMessage(w, http.StatusNotFound, false, "Attachment not found")
		return
	}
	user := SessionUserFromContext(r.Context())
	if user == nil {
		writeMessage(w, http.StatusUnauthorized, false, "Authentication required")
		return
	}
	isUploader := a.UploadedBy != nil && *a.UploadedBy == user.ID
	if !isUploader && user.Role.Name != "Admin" {
		writeMessage(w, http.StatusForbidden, false, "Only the uploader or an Admin can delete this file")
		return
	}
	if _, err := h.attachments.Delete(r.Context(), id); err != nil {
		h.logger.Errorf("attachment delete failed id=%d: %v", id, err)
		writeMessage(w, http.StatusInternalServerError, false, "Delete failed")
		return
	}
	path := filepath.Join(h.cfg.Uploads.Dir, filepath.Base(a.StoredName))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		h.logger.Warnf("attachment file removal failed name=%s: %v", a.StoredName, err)
	}
	writeMessage(w, http.StatusOK, true, "Attachment deleted")
}
