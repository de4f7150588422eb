package store

import (
	"context"
	"database/sql"
	"time"
)

type SessionStore interface {
	SaveSession(ctx context.Context, sess *SessionRecord) error
	GetSession(ctx context.Context, id string) (*SessionRecord, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID int64) error
	UpdateActivity(ctx context.Context, id string, now time.Time, extendBy time.Duration) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionsStore struct {
	db *sql.DB
}

func NewSessionsStore(db *sql.DB) SessionStore {
	return &sessionsStore{db: db}
}

func (s *sessionsStore) SaveSession(ctx context.Context, sess *SessionRecord) error {
	now := time.Now().UTC()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	if sess.LastSeenAt.IsZero() {
		sess.LastSeenAt = sess.CreatedAt
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions(id, user_id, username, role_name, ip, user_agent, created_at, last_seen_at, expires_at, revoked)
		 VALUES(?,?,?,?,?,?,?,?,?,?)`,
		sess.ID, sess.UserID, sess.Username, sess.RoleName, sess.IP, sess.UserAgent,
		sess.CreatedAt, sess.LastSeenAt, sess.ExpiresAt, sess.Revoked)
	return err
}

func (s *sessionsStore) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, username, role_name, ip, user_agent, created_at, last_seen_at, expires_at, revoked
		 FROM sessions WHERE id=?`, id)
	var sr SessionRecord
	var ip, ua sql.NullString
	if err := row.Scan(&sr.ID, &sr.UserID, &sr.Username, &sr.RoleName, &ip, &ua,
		&sr.CreatedAt, &sr.LastSeenAt, &sr.ExpiresAt, &sr.Revoked); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	sr.IP = ip.String
	sr.UserAgent = ua.String
	if sr.Revoked {
		return nil, nil
	}
	if time.Now().After(sr.ExpiresAt) {
		_ = s.DeleteSession(ctx, id)
		return nil, nil
	}
	return &sr, nil
}

func (s *sessionsStore) DeleteSession(ctx context.Context, id string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET revoked=?, expires_at=? WHERE id=?`, true, now, id)
	return err
}

func (s *sessionsStore) DeleteAllForUser(ctx context.Context, userID int64) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET revoked=?, expires_at=? WHERE user_id=?`, true, now, userID)
	return err
}

func (s *sessionsStore) UpdateActivity(ctx context.Context, id string, now time.Time, extendBy time.Duration) error {
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET last_seen_at=?, expires_at=? WHERE id=?`,
		now, now.Add(extendBy), id)
	return err
}

func (s *sessionsStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ? OR revoked=?`, now, true)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
