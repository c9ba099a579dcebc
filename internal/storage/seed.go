// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/greenshare/greenshare-tui/internal/portfolio"
)

// DefaultSeedDays is how many days of production Seed generates.
const DefaultSeedDays = 30

// DemoProjects returns the catalogue loaded by Seed.
func DemoProjects() []portfolio.Project {
	return []portfolio.Project{
		{
			ID: "prj-solaire-causses", Name: "Centrale Solaire des Causses", Type: portfolio.Solar,
			Description: "Ground-mounted photovoltaic plant on a former quarry.",
			Location:    "Aveyron, France", CapacityMW: 12.5,
			PricePerShare: 500, TotalShares: 2000, AvailableShares: 1400, Status: portfolio.StatusActive,
		},
		{
			ID: "prj-eolien-beauce", Name: "Parc Eolien de la Beauce", Type: portfolio.Wind,
			Description: "Eight 3 MW turbines on agricultural land.",
			Location:    "Eure-et-Loir, France", CapacityMW: 24,
			PricePerShare: 250, TotalShares: 4000, AvailableShares: 2600, Status: portfolio.StatusActive,
		},
		{
			ID: "prj-solaire-toitures", Name: "Toitures Solaires Lyon", Type: portfolio.Solar,
			Description: "Rooftop arrays on municipal buildings.",
			Location:    "Lyon, France", CapacityMW: 3.2,
			PricePerShare: 100, TotalShares: 5000, AvailableShares: 5000, Status: portfolio.StatusActive,
		},
		{
			ID: "prj-eolien-bretagne", Name: "Eolien Cote Bretonne", Type: portfolio.Wind,
			Description: "Fully funded coastal wind farm.",
			Location:    "Finistere, France", CapacityMW: 18,
			PricePerShare: 300, TotalShares: 3000, AvailableShares: 0, Status: "finance",
		},
	}
}

// SeedResult reports what Seed wrote.
type SeedResult struct {
	Projects    int
	Productions int
}

// Seed loads the demo catalogue and days of daily production ending the day
// before now. Existing rows are updated in place, so seeding twice is safe.
func (s *Store) Seed(ctx context.Context, days int, now time.Time) (SeedResult, error) {
	var res SeedResult
	projects := DemoProjects()
	for _, p := range projects {
		if err := s.UpsertProject(ctx, p); err != nil {
			return res, err
		}
		res.Projects++
	}

	today := dayStart(now)
	for _, p := range projects {
		for d := 1; d <= days; d++ {
			prod := demoProduction(p, today.AddDate(0, 0, -d), d)
			if err := s.AddProduction(ctx, prod); err != nil {
				return res, err
			}
			res.Productions++
		}
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE metadata SET value = ? WHERE key = 'seeded_at'`, now.UTC().Format(time.RFC3339)); err != nil {
		return res, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return res, nil
}

// demoProduction derives a plausible daily output from the plant capacity.
// Solar runs around a 14% capacity factor, wind around 25%, with a smooth
// day-to-day swing so the figures are stable across runs.
func demoProduction(p portfolio.Project, date time.Time, n int) portfolio.Production {
	factor := 0.14
	price := 0.09 // EUR per kWh
	if p.Type == portfolio.Wind {
		factor = 0.25
		price = 0.08
	}
	swing := 1 + 0.3*math.Sin(float64(n)*0.7)
	kwh := math.Round(p.CapacityMW * 1000 * 24 * factor * swing)
	return portfolio.Production{
		ProjectID:    p.ID,
		Date:         date,
		EnergyKWh:    kwh,
		TotalRevenue: math.Round(kwh*price*100) / 100,
	}
}

// SeededAt returns when Seed last ran, or the zero time if it never did.
func (s *Store) SeededAt(ctx context.Context) (time.Time, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = 'seeded_at'`).Scan(&v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad seeded_at %q", ErrDatabaseError, v)
	}
	return t, nil
}
