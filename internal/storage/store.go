// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/greenshare/greenshare-tui/internal/portfolio"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrDatabaseError = errors.New("database error")
	ErrInvalidPath   = errors.New("invalid path")
)

// =============================================================================
// STORE
// =============================================================================

// Store is the SQLite backend for portfolios and sessions.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: empty database path", ErrInvalidPath)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{db: db, path: path, now: time.Now}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return err
	}
	_, err := s.db.Exec(InitMetadata)
	return err
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// PROJECTS
// =============================================================================

const projectColumns = `p.id, p.name, p.description, p.type, p.location, p.capacity_mw,
	p.price_per_share, p.total_shares, p.available_shares, p.status`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner, extra ...any) (portfolio.Project, error) {
	var p portfolio.Project
	var typ string
	dest := []any{&p.ID, &p.Name, &p.Description, &typ, &p.Location, &p.CapacityMW,
		&p.PricePerShare, &p.TotalShares, &p.AvailableShares, &p.Status}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return portfolio.Project{}, err
	}
	p.Type = portfolio.ProjectType(typ)
	return p, nil
}

// UpsertProject inserts or replaces a project.
func (s *Store) UpsertProject(ctx context.Context, p portfolio.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, type, location, capacity_mw,
			price_per_share, total_shares, available_shares, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, description = excluded.description, type = excluded.type,
			location = excluded.location, capacity_mw = excluded.capacity_mw,
			price_per_share = excluded.price_per_share, total_shares = excluded.total_shares,
			available_shares = excluded.available_shares, status = excluded.status`,
		p.ID, p.Name, p.Description, string(p.Type), p.Location, p.CapacityMW,
		p.PricePerShare, p.TotalShares, p.AvailableShares, p.Status, s.now().Unix())
	if err != nil {
		return fmt.Errorf("%w: upsert project %s: %v", ErrDatabaseError, p.ID, err)
	}
	return nil
}

// Project returns a project by id.
func (s *Store) Project(ctx context.Context, id string) (portfolio.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects p WHERE p.id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return portfolio.Project{}, fmt.Errorf("%w: %s", portfolio.ErrProjectNotFound, id)
	}
	if err != nil {
		return portfolio.Project{}, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return p, nil
}

// ActiveProjects returns active projects that still have shares available.
func (s *Store) ActiveProjects(ctx context.Context) ([]portfolio.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+projectColumns+` FROM projects p
		WHERE p.status = ? AND p.available_shares > 0
		ORDER BY p.created_at, p.rowid`, portfolio.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var out []portfolio.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// =============================================================================
// PROFILES
// =============================================================================

// Profile returns the user's profile, or nil when none exists.
func (s *Store) Profile(ctx context.Context, userID string) (*portfolio.Profile, error) {
	var p portfolio.Profile
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, last_name, first_name, email FROM profiles WHERE user_id = ?`, userID).
		Scan(&p.ID, &p.UserID, &p.LastName, &p.FirstName, &p.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return &p, nil
}

// SaveProfile inserts or updates the profile for p.UserID.
func (s *Store) SaveProfile(ctx context.Context, p portfolio.Profile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, user_id, last_name, first_name, email)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			last_name = excluded.last_name, first_name = excluded.first_name, email = excluded.email`,
		p.ID, p.UserID, p.LastName, p.FirstName, p.Email)
	if err != nil {
		return fmt.Errorf("%w: save profile: %v", ErrDatabaseError, err)
	}
	return nil
}

// =============================================================================
// INVESTMENTS
// =============================================================================

// Investments returns the user's investments, oldest first, with their projects.
func (s *Store) Investments(ctx context.Context, userID string) ([]portfolio.Investment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+projectColumns+`, i.id, i.user_id, i.shares, i.total_price, i.invested_at
		FROM investments i JOIN projects p ON p.id = i.project_id
		WHERE i.user_id = ?
		ORDER BY i.invested_at, i.rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var out []portfolio.Investment
	for rows.Next() {
		var inv portfolio.Investment
		var investedAt int64
		p, err := scanProject(rows, &inv.ID, &inv.UserID, &inv.Shares, &inv.TotalPrice, &investedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		inv.ProjectID = p.ID
		inv.Project = p
		inv.InvestedAt = time.Unix(investedAt, 0).UTC()
		out = append(out, inv)
	}
	return out, rows.Err()
}

// AddInvestments inserts investments without touching share availability.
func (s *Store) AddInvestments(ctx context.Context, investments []portfolio.Investment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	for _, inv := range investments {
		if _, err := insertInvestment(ctx, tx, inv, s.now()); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrDatabaseError, err)
	}
	return nil
}

func insertInvestment(ctx context.Context, tx *sql.Tx, inv portfolio.Investment, now time.Time) (portfolio.Investment, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.InvestedAt.IsZero() {
		inv.InvestedAt = now.UTC().Truncate(time.Second)
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO investments (id, user_id, project_id, shares, total_price, invested_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.UserID, inv.ProjectID, inv.Shares, inv.TotalPrice, inv.InvestedAt.Unix())
	if err != nil {
		return portfolio.Investment{}, fmt.Errorf("%w: insert investment: %v", ErrDatabaseError, err)
	}
	return inv, nil
}

// Purchase records qty shares of projectID for userID and decrements the
// project's available shares in the same transaction.
func (s *Store) Purchase(ctx context.Context, userID, projectID string, qty int) (portfolio.Investment, error) {
	if qty <= 0 {
		return portfolio.Investment{}, fmt.Errorf("%w: %d", portfolio.ErrInvalidQuantity, qty)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return portfolio.Investment{}, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	project, err := scanProject(tx.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects p WHERE p.id = ? AND p.status = ?`,
		projectID, portfolio.StatusActive))
	if errors.Is(err, sql.ErrNoRows) {
		return portfolio.Investment{}, fmt.Errorf("%w: %s", portfolio.ErrProjectNotFound, projectID)
	}
	if err != nil {
		return portfolio.Investment{}, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	if err := portfolio.ValidatePurchase(project, qty); err != nil {
		return portfolio.Investment{}, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE projects SET available_shares = available_shares - ?
		WHERE id = ? AND available_shares >= ?`, qty, projectID, qty)
	if err != nil {
		return portfolio.Investment{}, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return portfolio.Investment{}, portfolio.ErrInsufficientShares
	}
	project.AvailableShares -= qty

	inv, err := insertInvestment(ctx, tx, portfolio.Investment{
		UserID:     userID,
		ProjectID:  projectID,
		Shares:     qty,
		TotalPrice: portfolio.PurchaseTotal(project, qty),
	}, s.now())
	if err != nil {
		return portfolio.Investment{}, err
	}
	if err := tx.Commit(); err != nil {
		return portfolio.Investment{}, fmt.Errorf("%w: commit: %v", ErrDatabaseError, err)
	}
	inv.Project = project
	return inv, nil
}

// =============================================================================
// PRODUCTION
// =============================================================================

// AddProduction inserts or replaces the record for (ProjectID, Date).
func (s *Store) AddProduction(ctx context.Context, p portfolio.Production) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO productions (project_id, date, energy_kwh, total_revenue)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(project_id, date) DO UPDATE SET
			energy_kwh = excluded.energy_kwh, total_revenue = excluded.total_revenue`,
		p.ProjectID, dayStart(p.Date).Unix(), p.EnergyKWh, p.TotalRevenue)
	if err != nil {
		return fmt.Errorf("%w: add production: %v", ErrDatabaseError, err)
	}
	return nil
}

// RecentProductions returns up to limit records for the given projects, newest first.
func (s *Store) RecentProductions(ctx context.Context, projectIDs []string, limit int) ([]portfolio.Production, error) {
	if len(projectIDs) == 0 || limit <= 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(projectIDs)), ",")
	args := make([]any, 0, len(projectIDs)+1)
	for _, id := range projectIDs {
		args = append(args, id)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+projectColumns+`, r.date, r.energy_kwh, r.total_revenue
		FROM productions r JOIN projects p ON p.id = r.project_id
		WHERE r.project_id IN (`+placeholders+`)
		ORDER BY r.date DESC, r.id DESC
		LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var out []portfolio.Production
	for rows.Next() {
		var prod portfolio.Production
		var date int64
		p, err := scanProject(rows, &date, &prod.EnergyKWh, &prod.TotalRevenue)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		prod.ProjectID = p.ID
		prod.Project = p
		prod.Date = time.Unix(date, 0).UTC()
		out = append(out, prod)
	}
	return out, rows.Err()
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// compile-time check
var _ portfolio.Store = (*Store)(nil)
