// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/greenshare/greenshare-tui/internal/auth"
)

// UpsertUser returns the user registered under email, creating it with id
// when it does not exist yet.
func (s *Store) UpsertUser(ctx context.Context, id, email string) (auth.User, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, created_at) VALUES (?, ?, ?)
		ON CONFLICT(email) DO NOTHING`, id, email, s.now().Unix())
	if err != nil {
		return auth.User{}, fmt.Errorf("%w: upsert user: %v", ErrDatabaseError, err)
	}

	var u auth.User
	if err := s.db.QueryRowContext(ctx, `SELECT id, email FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email); err != nil {
		return auth.User{}, fmt.Errorf("%w: load user: %v", ErrDatabaseError, err)
	}
	return u, nil
}

// CreateSession stores a new session.
func (s *Store) CreateSession(ctx context.Context, sess auth.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, email, created_at) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.UserID, sess.Email, sess.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("%w: create session: %v", ErrDatabaseError, err)
	}
	return nil
}

// GetSession returns a session by id, revoked or not.
func (s *Store) GetSession(ctx context.Context, id string) (auth.Session, error) {
	var sess auth.Session
	var created int64
	var revoked sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, email, created_at, revoked_at FROM sessions WHERE id = ?`, id).
		Scan(&sess.ID, &sess.UserID, &sess.Email, &created, &revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Session{}, auth.ErrNoSession
	}
	if err != nil {
		return auth.Session{}, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	sess.CreatedAt = time.Unix(created, 0).UTC()
	if revoked.Valid {
		t := time.Unix(revoked.Int64, 0).UTC()
		sess.RevokedAt = &t
	}
	return sess, nil
}

// RevokeSession marks an active session revoked. Unknown or already revoked
// sessions return auth.ErrNoSession.
func (s *Store) RevokeSession(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`, at.Unix(), id)
	if err != nil {
		return fmt.Errorf("%w: revoke session: %v", ErrDatabaseError, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return auth.ErrNoSession
	}
	return nil
}

var _ auth.SessionStore = (*Store)(nil)
