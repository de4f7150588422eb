package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	qrcode "github.com/skip2/go-qrcode"
)

// QRCode renders a PNG label for one record: batch number plus the
// detail route, scannable on sample containers.
func (h *RecordsHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, false, "Invalid record id")
		return
	}
	rec, err := h.records.Get(r.Context(), id)
	if err != nil {
		h.logger.Errorf("qrcode record load failed id=%d: %v", id, err)
		writeMessage(w, http.StatusInternalServerError, false, "Failed to render QR code")
		return
	}
	if rec == nil {
		writeMessage(w, http.StatusNotFound, false, "Record not found")
		return
	}
	content := fmt.Sprintf("batch=%s\nrecord=/data/resin-spinning?record_id=%d", rec.BatchNumber, rec.RecordID)
	png, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		h.logger.Errorf("qrcode encode failed id=%d: %v", id, err)
		writeMessage(w, http.StatusInternalServerError, false, "Failed to render QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	_, _ = w.Write(png)
}
