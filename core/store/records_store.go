package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

type RecordsStore interface {
	List(ctx context.Context, filter RecordFilter, page, perPage int) (*RecordPage, error)
	ListAll(ctx context.Context, filter RecordFilter) ([]ProcessRecord, error)
	Get(ctx context.Context, id int64) (*ProcessRecord, error)
	Create(ctx context.Context, rec *ProcessRecord) error
	Update(ctx context.Context, rec *ProcessRecord) error
	Delete(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type recordsStore struct {
	db *sql.DB
}

func NewRecordsStore(db *sql.DB) RecordsStore {
	return &recordsStore{db: db}
}

const recordColumns = `record_id, batch_number, material_grade, supplier, resin_type,
	resin_molecular_weight_g_mol, polydispersity_index_pdi, intrinsic_viscosity_dl_g,
	melting_point_c, crystallinity_percent, spinning_method, solvent_system,
	solution_concentration_percent, spinning_temperature_c, spinneret_specifications,
	coagulation_bath_composition, coagulation_bath_temperature_c, draw_ratio,
	heat_treatment_temperature_c, remarks, created_by, updated_by, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*ProcessRecord, error) {
	var r ProcessRecord
	if err := row.Scan(&r.RecordID, &r.BatchNumber, &r.MaterialGrade, &r.Supplier, &r.ResinType,
		&r.ResinMolecularWeightGMol, &r.PolydispersityIndexPDI, &r.IntrinsicViscosityDlG,
		&r.MeltingPointC, &r.CrystallinityPercent, &r.SpinningMethod, &r.SolventSystem,
		&r.SolutionConcentrationPercent, &r.SpinningTemperatureC, &r.SpinneretSpecifications,
		&r.CoagulationBathComposition, &r.CoagulationBathTemperatureC, &r.DrawRatio,
		&r.HeatTreatmentTemperatureC, &r.Remarks, &r.CreatedBy, &r.UpdatedBy,
		&r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func filterClause(filter RecordFilter) (string, []any) {
	var conds []string
	var args []any
	if strings.TrimSpace(filter.BatchNumber) != "" {
		conds = append(conds, `LOWER(batch_number) LIKE LOWER(?)`)
		args = append(args, likePattern(filter.BatchNumber))
	}
	if strings.TrimSpace(filter.MaterialGrade) != "" {
		conds = append(conds, `LOWER(material_grade) LIKE LOWER(?)`)
		args = append(args, likePattern(filter.MaterialGrade))
	}
	if strings.TrimSpace(filter.ResinType) != "" {
		conds = append(conds, `LOWER(resin_type) LIKE LOWER(?)`)
		args = append(args, likePattern(filter.ResinType))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *recordsStore) List(ctx context.Context, filter RecordFilter, page, perPage int) (*RecordPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	where, args := filterClause(filter)

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM resin_spinning_records`+where, args...).Scan(&total); err != nil {
		return nil, err
	}
	pages := (total + perPage - 1) / perPage

	listArgs := append(append([]any{}, args...), perPage, (page-1)*perPage)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM resin_spinning_records`+where+
			` ORDER BY created_at DESC, record_id DESC LIMIT ? OFFSET ?`, listArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]ProcessRecord, 0, perPage)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &RecordPage{
		Records:     records,
		Total:       total,
		Pages:       pages,
		CurrentPage: page,
		PerPage:     perPage,
		HasPrev:     page > 1,
		HasNext:     page < pages,
	}, nil
}

func (s *recordsStore) ListAll(ctx context.Context, filter RecordFilter) ([]ProcessRecord, error) {
	where, args := filterClause(filter)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM resin_spinning_records`+where+` ORDER BY record_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ProcessRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *recordsStore) Get(ctx context.Context, id int64) (*ProcessRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM resin_spinning_records WHERE record_id=?`, id)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

func (s *recordsStore) Create(ctx context.Context, rec *ProcessRecord) error {
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO resin_spinning_records(batch_number, material_grade, supplier, resin_type,
			resin_molecular_weight_g_mol, polydispersity_index_pdi, intrinsic_viscosity_dl_g,
			melting_point_c, crystallinity_percent, spinning_method, solvent_system,
			solution_concentration_percent, spinning_temperature_c, spinneret_specifications,
			coagulation_bath_composition, coagulation_bath_temperature_c, draw_ratio,
			heat_treatment_temperature_c, remarks, created_by, updated_by, created_at, updated_at)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.BatchNumber, rec.MaterialGrade, rec.Supplier, rec.ResinType,
		rec.ResinMolecularWeightGMol, rec.PolydispersityIndexPDI, rec.IntrinsicViscosityDlG,
		rec.MeltingPointC, rec.CrystallinityPercent, rec.SpinningMethod, rec.SolventSystem,
		rec.SolutionConcentrationPercent, rec.SpinningTemperatureC, rec.SpinneretSpecifications,
		rec.CoagulationBathComposition, rec.CoagulationBathTemperatureC, rec.DrawRatio,
		rec.HeatTreatmentTemperatureC, rec.Remarks, rec.CreatedBy, rec.UpdatedBy, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateBatch
		}
		return err
	}
	// Batch numbers are unique, so the fresh id can be read back portably
	// without driver LastInsertId support.
	return s.db.QueryRowContext(ctx,
		`SELECT record_id FROM resin_spinning_records WHERE batch_number=?`, rec.BatchNumber).
		Scan(&rec.RecordID)
}

func (s *recordsStore) Update(ctx context.Context, rec *ProcessRecord) error {
	now := time.Now().UTC()
	rec.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`UPDATE resin_spinning_records SET batch_number=?, material_grade=?, supplier=?, resin_type=?,
			resin_molecular_weight_g_mol=?, polydispersity_index_pdi=?, intrinsic_viscosity_dl_g=?,
			melting_point_c=?, crystallinity_percent=?, spinning_method=?, solvent_system=?,
			solution_concentration_percent=?, spinning_temperature_c=?, spinneret_specifications=?,
			coagulation_bath_composition=?, coagulation_bath_temperature_c=?, draw_ratio=?,
			heat_treatment_temperature_c=?, remarks=?, updated_by=?, updated_at=?
		 WHERE record_id=?`,
		rec.BatchNumber, rec.MaterialGrade, rec.Supplier, rec.ResinType,
		rec.ResinMolecularWeightGMol, rec.PolydispersityIndexPDI, rec.IntrinsicViscosityDlG,
		rec.MeltingPointC, rec.CrystallinityPercent, rec.SpinningMethod, rec.SolventSystem,
		rec.SolutionConcentrationPercent, rec.SpinningTemperatureC, rec.SpinneretSpecifications,
		rec.CoagulationBathComposition, rec.CoagulationBathTemperatureC, rec.DrawRatio,
		rec.HeatTreatmentTemperatureC, rec.Remarks, rec.UpdatedBy, now, rec.RecordID)
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateBatch
	}
	return err
}

func (s *recordsStore) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM resin_spinning_records WHERE record_id=?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *recordsStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM resin_spinning_records`).Scan(&n)
	return n, err
}
