package store

import (
	"context"
	"database/sql"
	"time"
)

type UsersStore interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, u *User) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	Count(ctx context.Context) (int64, error)
}

type usersStore struct {
	db *sql.DB
}

func NewUsersStore(db *sql.DB) UsersStore {
	return &usersStore{db: db}
}

const userColumns = `u.id, u.username, u.password_hash, u.salt, u.role_id, r.name,
	u.full_name, u.email, u.active, u.last_login_at, u.created_at, u.updated_at`

func (s *usersStore) scanUser(row *sql.Row) (*User, error) {
	var u User
	var lastLogin sql.NullTime
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Salt, &u.RoleID, &u.RoleName,
		&u.FullName, &u.Email, &u.Active, &lastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if lastLogin.Valid {
		u.LastLoginAt = &lastLogin.Time
	}
	return &u, nil
}

func (s *usersStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users u JOIN roles r ON r.id=u.role_id WHERE u.username=?`, username)
	return s.scanUser(row)
}

func (s *usersStore) FindByID(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users u JOIN roles r ON r.id=u.role_id WHERE u.id=?`, id)
	return s.scanUser(row)
}

func (s *usersStore) Create(ctx context.Context, u *User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO users(username, password_hash, salt, role_id, full_name, email, active, created_at, updated_at)
		 VALUES(?,?,?,?,?,?,?,?,?)`,
		u.Username, u.PasswordHash, u.Salt, u.RoleID, u.FullName, u.Email, u.Active, now, now); err != nil {
		return err
	}
	row := s.db.QueryRowContext(ctx, `SELECT id FROM users WHERE username=?`, u.Username)
	return row.Scan(&u.ID)
}

func (s *usersStore) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET last_login_at=?, updated_at=? WHERE id=?`, at, at, id)
	return err
}

func (s *usersStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users`).Scan(&n)
	return n, err
}
