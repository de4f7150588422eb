package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"uhmwpe-mdm/core/store"
)

// importColumns is the canonical column order shared by the template,
// the importer and the exporter.
var importColumns = []string{
	"batch_number",
	"material_grade",
	"supplier",
	"resin_type",
	"resin_molecular_weight_g_mol",
	"polydispersity_index_pdi",
	"intrinsic_viscosity_dl_g",
	"melting_point_c",
	"crystallinity_percent",
	"spinning_method",
	"solvent_system",
	"solution_concentration_percent",
	"spinning_temperature_c",
	"spinneret_specifications",
	"coagulation_bath_composition",
	"coagulation_bath_temperature_c",
	"draw_ratio",
	"heat_treatment_temperature_c",
	"remarks",
}

var importableTypes = map[string]bool{
	"text/csv":                 true,
	"application/csv":          true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/octet-stream":                                          true,
	"":                                                                  true,
}

type importError struct {
	RowNumber int               `json:"row_number"`
	Error     string            `json:"error"`
	Data      map[string]string `json:"data"`
}

type importResult struct {
	SuccessCount int           `json:"success_count"`
	FailureCount int           `json:"failure_count"`
	Errors       []importError `json:"errors"`
}

// Import ingests a CSV batch upload. Each row is validated and inserted
// independently; one bad row never aborts the rest.
func (h *RecordsHandler) Import(w http.ResponseWriter, r *http.Request) {
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
	if !importableTypes[strings.ToLower(header.Header.Get("Content-Type"))] {
		writeMessage(w, http.StatusBadRequest, false, "Unsupported file type")
		return
	}
	if header.Size > h.cfg.Uploads.MaxBytes {
		writeMessage(w, http.StatusRequestEntityTooLarge, false, "File is too large")
		return
	}

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	head, err := reader.Read()
	if err != nil {
		writeMessage(w, http.StatusBadRequest, false, "File is empty or not a valid CSV")
		return
	}
	colIndex := map[string]int{}
	for i, name := range head {
		colIndex[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	if _, ok := colIndex["batch_number"]; !ok {
		writeMessage(w, http.StatusBadRequest, false, "Missing required column batch_number")
		return
	}

	result := importResult{Errors: []importError{}}
	rowNumber := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNumber++
		if err != nil {
			result.FailureCount++
			result.Errors = append(result.Errors, importError{
				RowNumber: rowNumber,
				Error:     "unreadable row: " + err.Error(),
				Data:      map[string]string{},
			})
			continue
		}
		data := rowData(colIndex, row)
		if isEmptyRow(data) {
			continue
		}
		payload, perr := payloadFromRow(data)
		if perr == "" {
			perr = payload.validate()
		}
		if perr != "" {
			result.FailureCount++
			result.Errors = append(result.Errors, importError{RowNumber: rowNumber, Error: perr, Data: data})
			continue
		}
		rec := &store.ProcessRecord{}
		payload.apply(rec)
		if user := SessionUserFromContext(r.Context()); user != nil {
			rec.CreatedBy = &user.ID
			rec.UpdatedBy = &user.ID
		}
		if err := h.records.Create(r.Context(), rec); err != nil {
			msg := "failed to save record"
			if err == store.ErrDuplicateBatch {
				msg = "batch number already exists"
			} else {
				h.logger.Errorf("import row %d failed: %v", rowNumber, err)
			}
			result.FailureCount++
			result.Errors = append(result.Errors, importError{RowNumber: rowNumber, Error: msg, Data: data})
			continue
		}
		result.SuccessCount++
	}

	h.logger.Printf("batch import done ok=%d failed=%d", result.SuccessCount, result.FailureCount)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"details": result,
	})
}

func rowData(colIndex map[string]int, row []string) map[string]string {
	data := map[string]string{}
	for _, col := range importColumns {
		i, ok := colIndex[col]
		if !ok || i >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[i]); v != "" {
			data[col] = v
		}
	}
	return data
}

func isEmptyRow(data map[string]string) bool { return len(data) == 0 }

func payloadFromRow(data map[string]string) (*recordPayload, string) {
	p := &recordPayload{
		BatchNumber:   data["batch_number"],
		MaterialGrade: data["material_grade"],
	}
	setString := func(dst **string, key string) {
		if v, ok := data[key]; ok {
			s := v
			*dst = &s
		}
	}
	setString(&p.Supplier, "supplier")
	setString(&p.ResinType, "resin_type")
	setString(&p.SpinningMethod, "spinning_method")
	setString(&p.SolventSystem, "solvent_system")
	setString(&p.SpinneretSpecifications, "spinneret_specifications")
	setString(&p.CoagulationBathComposition, "coagulation_bath_composition")
	setString(&p.Remarks, "remarks")

	var badCol string
	setFloat := func(dst **float64, key string) {
		v, ok := data[key]
		if !ok || badCol != "" {
			return
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			badCol = key
			return
		}
		*dst = &f
	}
	setFloat(&p.ResinMolecularWeightGMol, "resin_molecular_weight_g_mol")
	setFloat(&p.PolydispersityIndexPDI, "polydispersity_index_pdi")
	setFloat(&p.IntrinsicViscosityDlG, "intrinsic_viscosity_dl_g")
	setFloat(&p.MeltingPointC, "melting_point_c")
	setFloat(&p.CrystallinityPercent, "crystallinity_percent")
	setFloat(&p.SolutionConcentrationPercent, "solution_concentration_percent")
	setFloat(&p.SpinningTemperatureC, "spinning_temperature_c")
	setFloat(&p.CoagulationBathTemperatureC, "coagulation_bath_temperature_c")
	setFloat(&p.DrawRatio, "draw_ratio")
	setFloat(&p.HeatTreatmentTemperatureC, "heat_treatment_temperature_c")
	if badCol != "" {
		return nil, fmt.Sprintf("column %s is not a number", badCol)
	}
	return p, ""
}

// TemplateColumns exposes the canonical column order for the static
// template download route.
func TemplateColumns() []string {
	out := make([]string, len(importColumns))
	copy(out, importColumns)
	return out
}

// Template serves an empty CSV with the canonical column header row.
func (h *RecordsHandler) Template(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="resin_spinning_import_template.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write(importColumns)
	cw.Flush()
}

// Export streams the filtered record set as CSV.
func (h *RecordsHandler) Export(w http.ResponseWriter, r *http.Request) {
	records, err := h.records.ListAll(r.Context(), filterFromQuery(r))
	if err != nil {
		h.logger.Errorf("record export failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, false, "Failed to export records")
		return
	}
	name := "resin_spinning_export_" + time.Now().UTC().Format("20060102_150405") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	cw := csv.NewWriter(w)
	header := append([]string{"record_id"}, importColumns...)
	header = append(header, "created_at", "updated_at")
	_ = cw.Write(header)
	for i := range records {
		_ = cw.Write(exportRow(&records[i]))
	}
	cw.Flush()
}

func exportRow(rec *store.ProcessRecord) []string {
	str := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	num := func(f *float64) string {
		if f == nil {
			return ""
		}
		return strconv.FormatFloat(*f, 'f', -1, 64)
	}
	return []string{
		strconv.FormatInt(rec.RecordID, 10),
		rec.BatchNumber,
		rec.MaterialGrade,
		str(rec.Supplier),
		str(rec.ResinType),
		num(rec.ResinMolecularWeightGMol),
		num(rec.PolydispersityIndexPDI),
		num(rec.IntrinsicViscosityDlG),
		num(rec.MeltingPointC),
		num(rec.CrystallinityPercent),
		str(rec.SpinningMethod),
		str(rec.SolventSystem),
		num(rec.SolutionConcentrationPercent),
		num(rec.SpinningTemperatureC),
		str(rec.SpinneretSpecifications),
		str(rec.CoagulationBathComposition),
		num(rec.CoagulationBathTemperatureC),
		num(rec.DrawRatio),
		num(rec.HeatTreatmentTemperatureC),
		str(rec.Remarks),
		rec.CreatedAt.UTC().Format(time.RFC3339),
		rec.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
