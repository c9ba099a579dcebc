// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package portfolio holds the investor-facing business types and the
// arithmetic over them: portfolio totals, ownership shares, attributable
// revenue and environmental impact.
package portfolio

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// =============================================================================
// TYPES
// =============================================================================

// ProjectType is the kind of generation plant.
type ProjectType string

const (
	Solar ProjectType = "solaire"
	Wind  ProjectType = "eolien"
)

// StatusActive marks a project open for investment.
const StatusActive = "actif"

// Project is a generation plant split into shares.
type Project struct {
	ID              string
	Name            string
	Description     string
	Type            ProjectType
	Location        string
	CapacityMW      float64
	PricePerShare   float64
	TotalShares     int
	AvailableShares int
	Status          string
}

// Investment is a block of shares an investor bought in one project.
type Investment struct {
	ID         string
	UserID     string
	ProjectID  string
	Shares     int
	TotalPrice float64
	InvestedAt time.Time
	Project    Project
}

// Production is one day of output for a project.
type Production struct {
	ProjectID    string
	Date         time.Time
	EnergyKWh    float64
	TotalRevenue float64
	Project      Project
}

// Profile is the investor's identity.
type Profile struct {
	ID        string
	UserID    string
	LastName  string
	FirstName string
	Email     string
}

// Greeting returns the name shown in the dashboard header.
func (p *Profile) Greeting(fallbackEmail string) string {
	if p == nil || p.LastName == "" {
		return fallbackEmail
	}
	return "Mr " + p.LastName
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidQuantity is returned for a purchase of zero or fewer shares.
	ErrInvalidQuantity = errors.New("invalid share quantity")

	// ErrInsufficientShares is returned when more shares are requested than available.
	ErrInsufficientShares = errors.New("requested quantity exceeds available shares")

	// ErrProjectNotFound is returned when a project id is unknown or inactive.
	ErrProjectNotFound = errors.New("project not found")
)

// =============================================================================
// PORTFOLIO MATH
// =============================================================================

// Summary holds the headline portfolio figures.
type Summary struct {
	TotalInvested float64
	TotalShares   int
	Projects      int
}

// Stats totals the investments.
func Stats(investments []Investment) Summary {
	var s Summary
	seen := make(map[string]bool)
	for _, inv := range investments {
		s.TotalInvested += inv.TotalPrice
		s.TotalShares += inv.Shares
		if !seen[inv.ProjectID] {
			seen[inv.ProjectID] = true
			s.Projects++
		}
	}
	return s
}

// Ownership is the fraction of the project the investment represents.
func Ownership(inv Investment) float64 {
	if inv.Project.TotalShares <= 0 {
		return 0
	}
	return float64(inv.Shares) / float64(inv.Project.TotalShares)
}

// OwnershipByProject sums the ownership fraction per project id.
func OwnershipByProject(investments []Investment) map[string]float64 {
	out := make(map[string]float64, len(investments))
	for _, inv := range investments {
		out[inv.ProjectID] += Ownership(inv)
	}
	return out
}

// Share is one production record seen through the investor's ownership.
type Share struct {
	Production Production
	Ownership  float64
	EnergyKWh  float64
	Revenue    float64
}

// Attribute returns the investor's share of each production record.
// Records for projects the investor does not hold are skipped.
func Attribute(productions []Production, investments []Investment) []Share {
	owned := OwnershipByProject(investments)
	out := make([]Share, 0, len(productions))
	for _, p := range productions {
		frac, ok := owned[p.ProjectID]
		if !ok {
			continue
		}
		out = append(out, Share{
			Production: p,
			Ownership:  frac,
			EnergyKWh:  p.EnergyKWh * frac,
			Revenue:    p.TotalRevenue * frac,
		})
	}
	return out
}

// DailyRevenue is the investor's share of revenue over the records.
func DailyRevenue(productions []Production, investments []Investment) float64 {
	total := 0.0
	for _, s := range Attribute(productions, investments) {
		total += s.Revenue
	}
	return total
}

// =============================================================================
// ENVIRONMENTAL IMPACT
// =============================================================================

const (
	// CO2PerKWh is the CO2 avoided per renewable kWh, in kg.
	CO2PerKWh = 0.5
	// CO2PerTreeYear is the CO2 one tree absorbs per year, in kg.
	CO2PerTreeYear = 22.0
	// CarsPerTonneCO2 converts avoided tonnes to cars off the road per year.
	CarsPerTonneCO2 = 0.5
	// MWhPerHousehold is a household's yearly consumption.
	MWhPerHousehold = 3.5
)

// Impact summarises the environmental effect of the investor's production.
type Impact struct {
	ProductionMWh   float64
	CO2AvoidedTons  float64
	TreesEquivalent int
	Cars            int
	Households      int
}

// EnvironmentalImpact converts attributable production into equivalences.
func EnvironmentalImpact(productions []Production, investments []Investment) Impact {
	kwh := 0.0
	for _, s := range Attribute(productions, investments) {
		kwh += s.EnergyKWh
	}
	co2Tons := kwh * CO2PerKWh / 1000
	mwh := kwh / 1000
	return Impact{
		ProductionMWh:   mwh,
		CO2AvoidedTons:  co2Tons,
		TreesEquivalent: int(math.Round(co2Tons * 1000 / CO2PerTreeYear)),
		Cars:            int(math.Round(co2Tons * CarsPerTonneCO2)),
		Households:      int(math.Round(mwh / MWhPerHousehold)),
	}
}

// =============================================================================
// PURCHASES
// =============================================================================

// ValidatePurchase checks qty against the project's available shares.
func ValidatePurchase(p Project, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	if qty > p.AvailableShares {
		return fmt.Errorf("%w: requested %d, available %d", ErrInsufficientShares, qty, p.AvailableShares)
	}
	return nil
}

// PurchaseTotal is the price of qty shares.
func PurchaseTotal(p Project, qty int) float64 {
	return float64(qty) * p.PricePerShare
}

// ExampleInvestments builds the starter portfolio given to investors with
// no holdings: 5 shares of the first project and 3 of the second.
func ExampleInvestments(userID string, projects []Project) []Investment {
	quantities := []int{5, 3}
	var out []Investment
	for i, p := range projects {
		if i >= len(quantities) {
			break
		}
		qty := quantities[i]
		if qty > p.AvailableShares {
			qty = p.AvailableShares
		}
		if qty <= 0 {
			continue
		}
		out = append(out, Investment{
			UserID:     userID,
			ProjectID:  p.ID,
			Shares:     qty,
			TotalPrice: PurchaseTotal(p, qty),
			Project:    p,
		})
	}
	return out
}
