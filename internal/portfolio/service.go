// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package portfolio

import (
	"context"
	"fmt"
	"log"
)

// DefaultProductionLimit is how many recent production records the dashboard shows.
const DefaultProductionLimit = 10

// Store is the data backend. Implementations live outside this package
// (see internal/storage).
type Store interface {
	// Profile returns the user's profile, or nil if there is none.
	Profile(ctx context.Context, userID string) (*Profile, error)
	// Investments returns the user's investments with their projects.
	Investments(ctx context.Context, userID string) ([]Investment, error)
	// ActiveProjects returns active projects that still have shares available.
	ActiveProjects(ctx context.Context) ([]Project, error)
	// RecentProductions returns the newest records for the given projects.
	RecentProductions(ctx context.Context, projectIDs []string, limit int) ([]Production, error)
	// AddInvestments inserts investments without touching share availability.
	AddInvestments(ctx context.Context, investments []Investment) error
	// Purchase records an investment and decrements available shares atomically.
	Purchase(ctx context.Context, userID, projectID string, qty int) (Investment, error)
}

// Dashboard is everything the investor dashboard renders.
type Dashboard struct {
	Profile     *Profile
	Investments []Investment
	Projects    []Project
	Productions []Production

	// Seeded is true when the starter portfolio was created during this load.
	Seeded bool
}

// Summary returns the headline figures.
func (d *Dashboard) Summary() Summary {
	return Stats(d.Investments)
}

// DailyRevenue returns the investor's revenue share over the loaded records.
func (d *Dashboard) DailyRevenue() float64 {
	return DailyRevenue(d.Productions, d.Investments)
}

// Impact returns the environmental equivalences.
func (d *Dashboard) Impact() Impact {
	return EnvironmentalImpact(d.Productions, d.Investments)
}

// Service composes Store calls into dashboard operations.
type Service struct {
	store           Store
	productionLimit int
	seedExamples    bool
	logger          *log.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithProductionLimit sets how many production records LoadDashboard fetches.
func WithProductionLimit(n int) ServiceOption {
	return func(s *Service) { s.productionLimit = n }
}

// WithoutExamples disables the starter portfolio for empty accounts.
func WithoutExamples() ServiceOption {
	return func(s *Service) { s.seedExamples = false }
}

// WithServiceLogger routes service log lines to l.
func WithServiceLogger(l *log.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service over store.
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:           store,
		productionLimit: DefaultProductionLimit,
		seedExamples:    true,
		logger:          log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadDashboard loads the profile, investments, open projects and recent
// production for userID. A missing or unreadable profile is not fatal.
// Investors without holdings get the starter portfolio.
func (s *Service) LoadDashboard(ctx context.Context, userID string) (*Dashboard, error) {
	d := &Dashboard{}

	profile, err := s.store.Profile(ctx, userID)
	if err != nil {
		s.logger.Printf("PROFILE_LOAD_FAILED | user=%s error=%v", userID, err)
	} else {
		d.Profile = profile
	}

	investments, err := s.store.Investments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load investments: %w", err)
	}

	projects, err := s.store.ActiveProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}

	if len(investments) == 0 && s.seedExamples {
		examples := ExampleInvestments(userID, projects)
		if len(examples) > 0 {
			if err := s.store.AddInvestments(ctx, examples); err != nil {
				s.logger.Printf("EXAMPLE_SEED_FAILED | user=%s error=%v", userID, err)
			} else {
				d.Seeded = true
				if investments, err = s.store.Investments(ctx, userID); err != nil {
					return nil, fmt.Errorf("reload investments: %w", err)
				}
			}
		}
	}
	d.Investments = investments
	d.Projects = projects

	if len(investments) > 0 {
		ids := projectIDs(investments)
		productions, err := s.store.RecentProductions(ctx, ids, s.productionLimit)
		if err != nil {
			return nil, fmt.Errorf("load production: %w", err)
		}
		d.Productions = productions
	}

	return d, nil
}

// Buy validates qty against the project and records the purchase.
func (s *Service) Buy(ctx context.Context, userID, projectID string, qty int) (Investment, error) {
	projects, err := s.store.ActiveProjects(ctx)
	if err != nil {
		return Investment{}, fmt.Errorf("load projects: %w", err)
	}

	var project *Project
	for i := range projects {
		if projects[i].ID == projectID {
			project = &projects[i]
			break
		}
	}
	if project == nil {
		return Investment{}, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
	}
	if err := ValidatePurchase(*project, qty); err != nil {
		return Investment{}, err
	}

	inv, err := s.store.Purchase(ctx, userID, projectID, qty)
	if err != nil {
		return Investment{}, err
	}
	s.logger.Printf("SHARES_PURCHASED | user=%s project=%s qty=%d total=%.2f", userID, projectID, qty, inv.TotalPrice)
	return inv, nil
}

func projectIDs(investments []Investment) []string {
	seen := make(map[string]bool, len(investments))
	ids := make([]string, 0, len(investments))
	for _, inv := range investments {
		if !seen[inv.ProjectID] {
			seen[inv.ProjectID] = true
			ids = append(ids, inv.ProjectID)
		}
	}
	return ids
}
