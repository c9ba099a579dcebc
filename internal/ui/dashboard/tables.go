// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"github.com/charmbracelet/bubbles/table"

	"github.com/greenshare/greenshare-tui/internal/portfolio"
	"github.com/greenshare/greenshare-tui/internal/util"
)

var investmentColumns = []table.Column{
	{Title: "Project", Width: 28},
	{Title: "Type", Width: 8},
	{Title: "Shares", Width: 8},
	{Title: "Invested", Width: 14},
	{Title: "Ownership", Width: 10},
	{Title: "Date", Width: 10},
}

var projectColumns = []table.Column{
	{Title: "Project", Width: 28},
	{Title: "Location", Width: 18},
	{Title: "MW", Width: 6},
	{Title: "Price", Width: 10},
	{Title: "Available", Width: 14},
}

var productionColumns = []table.Column{
	{Title: "Date", Width: 10},
	{Title: "Project", Width: 28},
	{Title: "Energy (kWh)", Width: 13},
	{Title: "Your share", Width: 12},
	{Title: "Your revenue", Width: 13},
}

// minTableHeight keeps a table usable on tiny terminals.
const minTableHeight = 3

func newTable(cols []table.Column) table.Model {
	return table.New(
		table.WithColumns(cols),
		table.WithHeight(10),
	)
}

func (m *Model) applyTableStyles() {
	s := table.DefaultStyles()
	s.Header = m.theme.TableHeader
	s.Selected = m.theme.TableSelected
	m.investments.SetStyles(s)
	m.projects.SetStyles(s)
	m.production.SetStyles(s)
}

// focusActiveTable focuses the active tab's table and blurs the others.
func (m *Model) focusActiveTable() {
	m.investments.Blur()
	m.projects.Blur()
	m.production.Blur()
	switch m.tab {
	case TabPortfolio:
		m.investments.Focus()
	case TabProjects:
		m.projects.Focus()
	case TabProduction:
		m.production.Focus()
	}
}

// resizeTables fits the tables between the header block and the status bar.
func (m *Model) resizeTables() {
	h := m.height - chromeHeight
	if h < minTableHeight {
		h = minTableHeight
	}
	m.investments.SetHeight(h)
	m.projects.SetHeight(h)
	m.production.SetHeight(h)
}

func (m *Model) refreshTables() {
	if m.data == nil {
		return
	}
	m.investments.SetRows(investmentRows(m.data.Investments))
	m.projects.SetRows(projectRows(m.data.Projects))
	m.production.SetRows(productionRows(m.data.Productions, m.data.Investments))

	if c := m.projects.Cursor(); c >= len(m.data.Projects) && len(m.data.Projects) > 0 {
		m.projects.SetCursor(len(m.data.Projects) - 1)
	}
}

func investmentRows(invs []portfolio.Investment) []table.Row {
	rows := make([]table.Row, 0, len(invs))
	for _, inv := range invs {
		rows = append(rows, table.Row{
			util.TruncateWidth(inv.Project.Name, 28),
			typeLabel(inv.Project.Type),
			util.IntToString(inv.Shares),
			util.FormatEuro(inv.TotalPrice),
			formatPercent(portfolio.Ownership(inv), 3),
			formatDate(inv.InvestedAt),
		})
	}
	return rows
}

func projectRows(projects []portfolio.Project) []table.Row {
	rows := make([]table.Row, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, table.Row{
			util.TruncateWidth(p.Name, 28),
			util.TruncateWidth(p.Location, 18),
			util.FloatToStringPrec(p.CapacityMW, 1),
			util.FormatEuro(p.PricePerShare),
			util.GroupThousands(int64(p.AvailableShares)) + " / " + util.GroupThousands(int64(p.TotalShares)),
		})
	}
	return rows
}

func productionRows(prods []portfolio.Production, invs []portfolio.Investment) []table.Row {
	shares := portfolio.Attribute(prods, invs)
	rows := make([]table.Row, 0, len(shares))
	for _, s := range shares {
		rows = append(rows, table.Row{
			formatDate(s.Production.Date),
			util.TruncateWidth(s.Production.Project.Name, 28),
			util.GroupThousands(int64(s.Production.EnergyKWh)),
			util.FloatToStringPrec(s.EnergyKWh, 1) + " kWh",
			util.FormatEuro(s.Revenue),
		})
	}
	return rows
}
