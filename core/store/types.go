package store

import "time"

type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Salt         string     `json:"-"`
	RoleID       int64      `json:"role_id"`
	RoleName     string     `json:"role_name"`
	FullName     *string    `json:"full_name,omitempty"`
	Email        *string    `json:"email,omitempty"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

type Role struct {
	ID          int64  `json:"role_id"`
	Name        string `json:"role_name"`
	Description string `json:"description,omitempty"`
}

type NavModule struct {
	ID       int64  `json:"module_id"`
	Name     string `json:"module_name"`
	Route    string `json:"module_route"`
	ParentID *int64 `json:"parent_module_id,omitempty"`
}

// ModulePermission mirrors one row of the role/module permission matrix.
type ModulePermission struct {
	RoleID    int64
	RoleName  string
	ModuleID  int64
	Module    string
	CanRead   bool
	CanWrite  bool
	CanDelete bool
	CanImport bool
	CanExport bool
}

type SessionRecord struct {
	ID         string
	UserID     int64
	Username   string
	RoleName   string
	IP         string
	UserAgent  string
	CreatedAt  time.Time
	LastSeenAt time.Time
	ExpiresAt  time.Time
	Revoked    bool
}

// ProcessRecord is the resin & spinning process parameter row. Optional
// numeric and text attributes are pointers so that "not provided" is null
// on the wire, never an empty string or zero.
type ProcessRecord struct {
	RecordID                     int64     `json:"record_id"`
	BatchNumber                  string    `json:"batch_number"`
	MaterialGrade                string    `json:"material_grade"`
	Supplier                     *string   `json:"supplier"`
	ResinType                    *string   `json:"resin_type"`
	ResinMolecularWeightGMol     *float64  `json:"resin_molecular_weight_g_mol"`
	PolydispersityIndexPDI       *float64  `json:"polydispersity_index_pdi"`
	IntrinsicViscosityDlG        *float64  `json:"intrinsic_viscosity_dl_g"`
	MeltingPointC                *float64  `json:"melting_point_c"`
	CrystallinityPercent         *float64  `json:"crystallinity_percent"`
	SpinningMethod               *string   `json:"spinning_method"`
	SolventSystem                *string   `json:"solvent_system"`
	SolutionConcentrationPercent *float64  `json:"solution_concentration_percent"`
	SpinningTemperatureC         *float64  `json:"spinning_temperature_c"`
	SpinneretSpecifications      *string   `json:"spinneret_specifications"`
	CoagulationBathComposition   *string   `json:"coagulation_bath_composition"`
	CoagulationBathTemperatureC  *float64  `json:"coagulation_bath_temperature_c"`
	DrawRatio                    *float64  `json:"draw_ratio"`
	HeatTreatmentTemperatureC    *float64  `json:"heat_treatment_temperature_c"`
	Remarks                      *string   `json:"remarks"`
	CreatedBy                    *int64    `json:"created_by_user_id,omitempty"`
	UpdatedBy                    *int64    `json:"last_modified_by_user_id,omitempty"`
	CreatedAt                    time.Time `json:"created_at"`
	UpdatedAt                    time.Time `json:"updated_at"`
}

type RecordFilter struct {
	BatchNumber   string
	MaterialGrade string
	ResinType     string
}

type RecordPage struct {
	Records     []ProcessRecord `json:"records"`
	Total       int             `json:"total"`
	Pages       int             `json:"pages"`
	CurrentPage int             `json:"current_page"`
	PerPage     int             `json:"per_page"`
	HasPrev     bool            `json:"has_prev"`
	HasNext     bool            `json:"has_next"`
}

type Attachment struct {
	ID             int64     `json:"attachment_id"`
	ParentRecordID int64     `json:"parent_record_id"`
	ParentModule   string    `json:"parent_module_name"`
	OriginalName   string    `json:"original_file_name"`
	StoredName     string    `json:"stored_file_name"`
	FileType       *string   `json:"file_type"`
	SizeBytes      *int64    `json:"file_size_bytes"`
	UploadedBy     *int64    `json:"uploaded_by_user_id"`
	Uploader       *string   `json:"uploader_username,omitempty"`
	UploadedAt     time.Time `json:"upload_timestamp"`
}
