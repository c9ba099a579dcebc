// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package landing renders the public landing page: the pitch, headline
// figures and the projects currently open for investment.
package landing

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/greenshare/greenshare-tui/internal/portfolio"
	"github.com/greenshare/greenshare-tui/internal/util"
)

// MaxProjects is how many open projects the landing page lists.
const MaxProjects = 4

// Style names accepted by Render.
const (
	StyleAuto  = "auto"
	StyleDark  = "dark"
	StyleLight = "light"
	StylePlain = "notty"
)

// Markdown builds the landing page source.
func Markdown(projects []portfolio.Project) string {
	var b strings.Builder

	b.WriteString("# Financing the energy future\n\n")
	b.WriteString("Invest in French solar and wind plants and take part in a sustainable energy transition.\n\n")

	b.WriteString("## In figures\n\n")
	b.WriteString("| Installed capacity | Invested to date | Investors | Plants |\n")
	b.WriteString("|---|---|---|---|\n")
	b.WriteString("| 125 MW | 45 M€ | 1 200+ | 28 |\n\n")

	b.WriteString("## Open projects\n\n")
	if len(projects) == 0 {
		b.WriteString("_No project is open for investment right now._\n\n")
	}
	for i, p := range projects {
		if i >= MaxProjects {
			break
		}
		fmt.Fprintf(&b, "### %s\n\n", p.Name)
		if p.Description != "" {
			b.WriteString(p.Description + "\n\n")
		}
		fmt.Fprintf(&b, "- **Type:** %s\n", typeLabel(p.Type))
		if p.Location != "" {
			fmt.Fprintf(&b, "- **Location:** %s\n", p.Location)
		}
		if p.CapacityMW > 0 {
			fmt.Fprintf(&b, "- **Capacity:** %s MW\n", util.FloatToStringPrec(p.CapacityMW, 1))
		}
		fmt.Fprintf(&b, "- **Share price:** %s\n", util.FormatEuro(p.PricePerShare))
		fmt.Fprintf(&b, "- **Funded:** %d%% (%s of %s shares available)\n\n",
			fundedPercent(p), util.GroupThousands(int64(p.AvailableShares)), util.GroupThousands(int64(p.TotalShares)))
	}

	b.WriteString("## Why invest\n\n")
	b.WriteString("1. **Tangible assets** backed by producing plants\n")
	b.WriteString("2. **Daily revenue** shared in proportion to your holding\n")
	b.WriteString("3. **Measured impact** in tonnes of CO2 avoided\n\n")
	b.WriteString("Run `greenshare` to open your investor space.\n")
	return b.String()
}

// Render renders md for a terminal width columns wide.
func Render(md string, width int, style string) (string, error) {
	if width <= 0 {
		width = 80
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" || style == StyleAuto {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render landing page: %w", err)
	}
	return out, nil
}

func typeLabel(t portfolio.ProjectType) string {
	switch t {
	case portfolio.Solar:
		return "Solar"
	case portfolio.Wind:
		return "Wind"
	default:
		return string(t)
	}
}

func fundedPercent(p portfolio.Project) int {
	if p.TotalShares <= 0 {
		return 0
	}
	return (p.TotalShares - p.AvailableShares) * 100 / p.TotalShares
}
