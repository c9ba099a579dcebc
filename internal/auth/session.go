// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth manages authenticated investor sessions: sign-in by email,
// sign-out, and lookup of the current session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoSession is returned for an unknown or already revoked session.
	ErrNoSession = errors.New("no active session")

	// ErrInvalidEmail is returned when sign-in is attempted with a malformed email.
	ErrInvalidEmail = errors.New("invalid email format")
)

// =============================================================================
// TYPES
// =============================================================================

// User is an authenticated account.
type User struct {
	ID    string
	Email string
}

// Session is one authenticated sign-in.
type Session struct {
	ID        string
	UserID    string
	Email     string
	CreatedAt time.Time
	RevokedAt *time.Time
}

// Active reports whether the session has not been revoked.
func (s *Session) Active() bool {
	return s != nil && s.RevokedAt == nil
}

// SessionStore persists users and sessions.
type SessionStore interface {
	// UpsertUser returns the user with email, creating it if needed.
	UpsertUser(ctx context.Context, id, email string) (User, error)
	CreateSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	// RevokeSession marks the session revoked; ErrNoSession if unknown or revoked.
	RevokeSession(ctx context.Context, id string, at time.Time) error
}

// =============================================================================
// SERVICE
// =============================================================================

// Service signs investors in and out.
type Service struct {
	store SessionStore
	now   func() time.Time
}

// NewService creates a Service over store.
func NewService(store SessionStore) *Service {
	return &Service{store: store, now: time.Now}
}

// SignIn opens a new session for email.
func (s *Service) SignIn(ctx context.Context, email string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return Session{}, fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}

	user, err := s.store.UpsertUser(ctx, uuid.NewString(), email)
	if err != nil {
		return Session{}, fmt.Errorf("sign in: %w", err)
	}

	sess := Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// SignOut revokes the session. Signing out twice returns ErrNoSession.
func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrNoSession
	}
	if err := s.store.RevokeSession(ctx, sessionID, s.now().UTC()); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// Current returns the session if it is still active.
func (s *Service) Current(ctx context.Context, sessionID string) (Session, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if !sess.Active() {
		return Session{}, ErrNoSession
	}
	return sess, nil
}
