package store

import (
	"context"
	"database/sql"
	"time"
)

// ModulesStore owns roles, nav modules and the role/module permission
// matrix that feeds both the RBAC policy and the navigation endpoint.
type ModulesStore interface {
	EnsureRole(ctx context.Context, name, description string) (int64, error)
	FindRoleByName(ctx context.Context, name string) (*Role, error)
	EnsureModule(ctx context.Context, name, route string) (int64, error)
	UpsertPermission(ctx context.Context, p ModulePermission) error
	ListPermissions(ctx context.Context) ([]ModulePermission, error)
	ListModulesForRole(ctx context.Context, roleName string) ([]NavModule, error)
}

type modulesStore struct {
	db *sql.DB
}

func NewModulesStore(db *sql.DB) ModulesStore {
	return &modulesStore{db: db}
}

func (s *modulesStore) EnsureRole(ctx context.Context, name, description string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM roles WHERE name=?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO roles(name, description, created_at, updated_at) VALUES(?,?,?,?)`,
		name, description, now, now); err != nil {
		return 0, err
	}
	err = s.db.QueryRowContext(ctx, `SELECT id FROM roles WHERE name=?`, name).Scan(&id)
	return id, err
}

func (s *modulesStore) FindRoleByName(ctx context.Context, name string) (*Role, error) {
	var r Role
	var desc sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT id, name, description FROM roles WHERE name=?`, name).
		Scan(&r.ID, &r.Name, &desc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.Description = desc.String
	return &r, nil
}

func (s *modulesStore) EnsureModule(ctx context.Context, name, route string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM modules WHERE name=?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO modules(name, route, created_at, updated_at) VALUES(?,?,?,?)`,
		name, route, now, now); err != nil {
		return 0, err
	}
	err = s.db.QueryRowContext(ctx, `SELECT id FROM modules WHERE name=?`, name).Scan(&id)
	return id, err
}

func (s *modulesStore) UpsertPermission(ctx context.Context, p ModulePermission) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE role_permissions SET can_read=?, can_write=?, can_delete=?, can_import=?, can_export=?, updated_at=?
		 WHERE role_id=? AND module_id=?`,
		p.CanRead, p.CanWrite, p.CanDelete, p.CanImport, p.CanExport, now, p.RoleID, p.ModuleID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO role_permissions(role_id, module_id, can_read, can_write, can_delete, can_import, can_export, created_at, updated_at)
		 VALUES(?,?,?,?,?,?,?,?,?)`,
		p.RoleID, p.ModuleID, p.CanRead, p.CanWrite, p.CanDelete, p.CanImport, p.CanExport, now, now)
	return err
}

func (s *modulesStore) ListPermissions(ctx context.Context) ([]ModulePermission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.role_id, r.name, p.module_id, m.name, p.can_read, p.can_write, p.can_delete, p.can_import, p.can_export
		 FROM role_permissions p
		 JOIN roles r ON r.id=p.role_id
		 JOIN modules m ON m.id=p.module_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ModulePermission
	for rows.Next() {
		var p ModulePermission
		if err := rows.Scan(&p.RoleID, &p.RoleName, &p.ModuleID, &p.Module,
			&p.CanRead, &p.CanWrite, &p.CanDelete, &p.CanImport, &p.CanExport); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *modulesStore) ListModulesForRole(ctx context.Context, roleName string) ([]NavModule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.name, m.route, m.parent_id
		 FROM modules m
		 JOIN role_permissions p ON p.module_id=m.id
		 JOIN roles r ON r.id=p.role_id
		 WHERE r.name=? AND p.can_read=? ORDER BY m.id`, roleName, true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []NavModule
	for rows.Next() {
		var m NavModule
		var route sql.NullString
		var parent sql.NullInt64
		if err := rows.Scan(&m.ID, &m.Name, &route, &parent); err != nil {
			return nil, err
		}
		m.Route = route.String
		if parent.Valid {
			m.ParentID = &parent.Int64
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
