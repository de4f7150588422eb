package handlers

import (
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
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

type RecordsHandler struct {
	cfg         *config.AppConfig
	logger      *utils.Logger
	records     store.RecordsStore
	attachments store.AttachmentsStore
}

func NewRecordsHandler(cfg *config.AppConfig, logger *utils.Logger,
	records store.RecordsStore, attachments store.AttachmentsStore) *RecordsHandler {
	return &RecordsHandler{cfg: cfg, logger: logger, records: records, attachments: attachments}
}

// recordPayload is the mutable subset of a process record. Optional
// fields are pointers so absent and null are indistinguishable from the
// stored null.
type recordPayload struct {
	BatchNumber                  string   `json:"batch_number"`
	MaterialGrade                string   `json:"material_grade"`
	Supplier                     *string  `json:"supplier"`
	ResinType                    *string  `json:"resin_type"`
	ResinMolecularWeightGMol     *float64 `json:"resin_molecular_weight_g_mol"`
	PolydispersityIndexPDI       *float64 `json:"polydispersity_index_pdi"`
	IntrinsicViscosityDlG        *float64 `json:"intrinsic_viscosity_dl_g"`
	MeltingPointC                *float64 `json:"melting_point_c"`
	CrystallinityPercent         *float64 `json:"crystallinity_percent"`
	SpinningMethod               *string  `json:"spinning_method"`
	SolventSystem                *string  `json:"solvent_system"`
	SolutionConcentrationPercent *float64 `json:"solution_concentration_percent"`
	SpinningTemperatureC         *float64 `json:"spinning_temperature_c"`
	SpinneretSpecifications      *string  `json:"spinneret_specifications"`
	CoagulationBathComposition   *string  `json:"coagulation_bath_composition"`
	CoagulationBathTemperatureC  *float64 `json:"coagulation_bath_temperature_c"`
	DrawRatio                    *float64 `json:"draw_ratio"`
	HeatTreatmentTemperatureC    *float64 `json:"heat_treatment_temperature_c"`
	Remarks                      *string  `json:"remarks"`
}

func cleanOptional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func (p *recordPayload) validate() string {
	p.BatchNumber = strings.TrimSpace(p.BatchNumber)
	p.MaterialGrade = strings.TrimSpace(p.MaterialGrade)
	if p.BatchNumber == "" {
		return "batch_number is required"
	}
	if utils.ValidateBatchNumber(p.BatchNumber) != nil {
		return "batch_number contains invalid characters"
	}
	if p.MaterialGrade == "" {
		return "material_grade is required"
	}
	p.Supplier = cleanOptional(p.Supplier)
	p.ResinType = cleanOptional(p.ResinType)
	p.SpinningMethod = cleanOptional(p.SpinningMethod)
	p.SolventSystem = cleanOptional(p.SolventSystem)
	p.SpinneretSpecifications = cleanOptional(p.SpinneretSpecifications)
	p.CoagulationBathComposition = cleanOptional(p.CoagulationBathComposition)
	p.Remarks = cleanOptional(p.Remarks)
	if p.ResinType == nil {
		def := "UHMWPE"
		p.ResinType = &def
	}
	return ""
}

func (p *recordPayload) apply(rec *store.ProcessRecord) {
	rec.BatchNumber = p.BatchNumber
	rec.MaterialGrade = p.MaterialGrade
	rec.Supplier = p.Supplier
	rec.ResinType = p.ResinType
	rec.ResinMolecularWeightGMol = p.ResinMolecularWeightGMol
	rec.PolydispersityIndexPDI = p.PolydispersityIndexPDI
	rec.IntrinsicViscosityDlG = p.IntrinsicViscosityDlG
	rec.MeltingPointC = p.MeltingPointC
	rec.CrystallinityPercent = p.CrystallinityPercent
	rec.SpinningMethod = p.SpinningMethod
	rec.SolventSystem = p.SolventSystem
	rec.SolutionConcentrationPercent = p.SolutionConcentrationPercent
	rec.SpinningTemperatureC = p.SpinningTemperatureC
	rec.SpinneretSpecifications = p.SpinneretSpecifications
	rec.CoagulationBathComposition = p.CoagulationBathComposition
	rec.CoagulationBathTemperatureC = p.CoagulationBathTemperatureC
	rec.DrawRatio = p.DrawRatio
	rec.HeatTreatmentTemperatureC = p.HeatTreatmentTemperatureC
	rec.Remarks = p.Remarks
}

func filterFromQuery(r *http.Request) store.RecordFilter {
	q := r.URL.Query()
	return store.RecordFilter{
		BatchNumber:   strings.TrimSpace(q.Get("batch_number")),
		MaterialGrade: strings.TrimSpace(q.Get("material_grade")),
		ResinType:     strings.TrimSpace(q.Get("resin_type")),
	}
}

func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	result, err := h.records.List(r.Context(), filterFromQuery(r), page, perPage)
	if err != nil {
		h.logger.Errorf("record list failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, false, "Failed to load records")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func recordID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *RecordsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, false, "Invalid record id")
		return
	}
	rec, err := h.records.Get(r.Context(), id)
	if err != nil {
		h.logger.Errorf("record get failed id=%d: %v", id, err)
		writeMessage(w, http.StatusInternalServerError, false, "Failed to load record")
		return
	}
	if rec == nil {
		writeMessage(w, http.StatusNotFound, false, "Record not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"record":  rec,
	})
}

func (h *RecordsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload recordPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}
	if msg := payload.validate(); msg != "" {
		writeMessage(w, http.StatusBadRequest, false, msg)
		return
	}
	rec := &store.ProcessRecord{}
	payload.apply(rec)
	if user := SessionUserFromContext(r.Context()); user != nil {
		rec.CreatedBy = &user.ID
		rec.UpdatedBy = &user.ID
	}
	if err := h.records.Create(r.Context(), rec); err != nil {
		if err == store.ErrDuplicateBatch {
			writeMessage(w, http.StatusConflict, false, "Batch number already exists")
			return
		}
		h.logger.Errorf("record create failed batch=%s: %v", rec.BatchNumber, err)
		writeMessage(w, http.StatusInternalServerError, false, "Failed to create record")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Record created",
		"record":  rec,
	})
}

func (h *RecordsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, false, "Invalid record id")
		return
	}
	var payload recordPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}
	if msg := payload.validate(); msg != "" {
		writeMessage(w, http.StatusBadRequest, false, msg)
		return
	}
	rec, err := h.records.Get(r.Context(), id)
	if err != nil {
		h.logger.Errorf("record load failed id=%d: %v", id, err)
		writeMessage(w, http.StatusInternalServerError, false, "Failed to update record")
		return
	}
	if rec == nil {
		writeMessage(w, http.StatusNotFound, false, "Record not found")
		return
	}
	payload.apply(rec)
	if user := SessionUserFromContext(r.Context()); user != nil {
		rec.UpdatedBy = &user.ID
	}
	if err := h.records.Update(r.Context(), rec); err != nil {
		if err == store.ErrDuplicateBatch {
			writeMessage(w, http.StatusConflict, false, "Batch number already exists")
			return
		}
		h.logger.Errorf("record update failed id=%d: %v", id, err)
		writeMessage(w, http.StatusInternalServerError, false, "Failed to update record")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Record updated",
		"record":  rec,
	})
}

func (h *RecordsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, false, "Invalid record id")
		return
	}
	deleted, err := h.records.Delete(r.Context(), id)
	if err != nil {
		h.logger.Errorf("record delete failed id=%d: %v", id, err)
		writeMessage(w, http.StatusInternalServerError, false, "Failed to delete record")
		return
	}
	if !deleted {
		writeMessage(w, http.StatusNotFound, false, "Record not found")
		return
	}
	names, err := h.attachments.DeleteForRecord(r.Context(), bootstrap.ModuleResinSpinning, id)
	if err != nil {
		h.logger.Errorf("attachment cleanup failed record=%d: %v", id, err)
	}
	for _, name := range names {
		if err := os.Remove(filepath.Join(h.cfg.Uploads.Dir, name)); err != nil && !os.IsNotExist(err) {
			h.logger.Warnf("attachment file removal failed name=%s: %v", name, err)
		}
	}
	writeMessage(w, http.StatusOK, true, "Record deleted")
}
