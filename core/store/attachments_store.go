package store

import (
	"context"
	"database/sql"
	"time"
)

type AttachmentsStore interface {
	Create(ctx context.Context, a *Attachment) error
	Get(ctx context.Context, id int64) (*Attachment, error)
	ListForRecord(ctx context.Context, module string, recordID int64) ([]Attachment, error)
	Delete(ctx context.Context, id int64) (bool, error)
	ListStoredNames(ctx context.Context) ([]string, error)
	DeleteForRecord(ctx context.Context, module string, recordID int64) ([]string, error)
}

type attachmentsStore struct {
	db *sql.DB
}

func NewAttachmentsStore(db *sql.DB) AttachmentsStore {
	return &attachmentsStore{db: db}
}

const attachmentColumns = `a.id, a.parent_module, a.parent_record_id, a.original_file_name,
	a.stored_file_name, a.file_type, a.file_size_bytes, a.uploaded_by, u.username, a.uploaded_at`

func scanAttachment(row rowScanner) (*Attachment, error) {
	var a Attachment
	var ftype sql.NullString
	var size, uploadedBy sql.NullInt64
	var uploader sql.NullString
	if err := row.Scan(&a.ID, &a.ParentModule, &a.ParentRecordID, &a.OriginalName,
		&a.StoredName, &ftype, &size, &uploadedBy, &uploader, &a.UploadedAt); err != nil {
		return nil, err
	}
	if ftype.Valid {
		a.FileType = &ftype.String
	}
	if size.Valid {
		a.SizeBytes = &size.Int64
	}
	if uploadedBy.Valid {
		a.UploadedBy = &uploadedBy.Int64
	}
	if uploader.Valid {
		a.Uploader = &uploader.String
	}
	return &a, nil
}

func (s *attachmentsStore) Create(ctx context.Context, a *Attachment) error {
	if a.UploadedAt.IsZero() {
		a.UploadedAt = time.Now().UTC()
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO attachments(parent_module, parent_record_id, original_file_name, stored_file_name,
			file_type, file_size_bytes, uploaded_by, uploaded_at)
		 VALUES(?,?,?,?,?,?,?,?)`,
		a.ParentModule, a.ParentRecordID, a.OriginalName, a.StoredName,
		a.FileType, a.SizeBytes, a.UploadedBy, a.UploadedAt); err != nil {
		return err
	}
	// Stored names are uuid-derived and unique.
	return s.db.QueryRowContext(ctx,
		`SELECT id FROM attachments WHERE stored_file_name=?`, a.StoredName).Scan(&a.ID)
}

func (s *attachmentsStore) Get(ctx context.Context, id int64) (*Attachment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+attachmentColumns+` FROM attachments a
		 LEFT JOIN users u ON u.id=a.uploaded_by WHERE a.id=?`, id)
	a, err := scanAttachment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (s *attachmentsStore) ListForRecord(ctx context.Context, module string, recordID int64) ([]Attachment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+attachmentColumns+` FROM attachments a
		 LEFT JOIN users u ON u.id=a.uploaded_by
		 WHERE a.parent_module=? AND a.parent_record_id=? ORDER BY a.uploaded_at DESC, a.id DESC`,
		module, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Attachment, 0, 4)
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *attachmentsStore) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM attachments WHERE id=?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListStoredNames feeds the orphaned-file sweep in the scheduler.
func (s *attachmentsStore) ListStoredNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT stored_file_name FROM attachments`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// DeleteForRecord removes all attachment rows of one record and returns
// the stored names so the caller can unlink the files.
func (s *attachmentsStore) DeleteForRecord(ctx context.Context, module string, recordID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stored_file_name FROM attachments WHERE parent_module=? AND parent_record_id=?`,
		module, recordID)
	if err != nil {
		return nil, err
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM attachments WHERE parent_module=? AND parent_record_id=?`, module, recordID); err != nil {
		return nil, err
	}
	return names, nil
}
