// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/greenshare/greenshare-tui/internal/portfolio"
	"github.com/greenshare/greenshare-tui/internal/ui/styles"
	"github.com/greenshare/greenshare-tui/internal/util"
)

// chromeHeight is the number of rows taken by header, tabs, cards and status bar.
const chromeHeight = 14

// View renders the dashboard.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	// The expiry notice and the warning both replace the whole screen.
	if m.overlay.IsVisible() {
		return m.overlay.View()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")
	b.WriteString(m.renderBody())

	if toasts := m.toasts.View(m.width); toasts != "" {
		b.WriteString("\n")
		b.WriteString(toasts)
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) renderHeader() string {
	name := m.deps.Session.Email
	if m.data != nil {
		name = m.data.Profile.Greeting(m.deps.Session.Email)
	}
	title := m.theme.HeaderTitle.Render("GreenShare")
	subtitle := m.theme.HeaderSubtitle.Render("Welcome, " + name)
	return m.theme.Header.Width(m.width).Render(title + "  " + subtitle)
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, tabCount)
	for t := Tab(0); t < tabCount; t++ {
		label := util.IntToString(int(t)+1) + " " + t.String()
		if t == m.tab {
			tabs = append(tabs, m.theme.TabActive.Render(label))
		} else {
			tabs = append(tabs, m.theme.Tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderBody() string {
	if m.loading && m.data == nil {
		return m.spinner.View() + " Loading your portfolio..."
	}
	if m.data == nil {
		return styles.RenderError("Could not load the dashboard. Press r to retry.")
	}

	switch m.tab {
	case TabPortfolio:
		return m.renderPortfolio()
	case TabProjects:
		return m.renderProjects()
	case TabProduction:
		return m.renderProduction()
	case TabImpact:
		return m.renderImpact()
	}
	return ""
}

func (m Model) renderCard(label, value string) string {
	return m.theme.Card.Render(
		m.theme.CardLabel.Render(label) + "\n" + m.theme.CardValue.Render(value),
	)
}

func (m Model) renderCards(cards ...string) string {
	if m.theme.GetLayoutMode() == styles.LayoutNarrow {
		return lipgloss.JoinVertical(lipgloss.Left, cards...)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (m Model) renderPortfolio() string {
	sum := m.data.Summary()
	cards := m.renderCards(
		m.renderCard("Total invested", util.FormatEuro(sum.TotalInvested)),
		m.renderCard("Shares held", util.GroupThousands(int64(sum.TotalShares))),
		m.renderCard("Projects", util.IntToString(sum.Projects)),
		m.renderCard("Recent revenue", util.FormatEuro(m.data.DailyRevenue())),
	)
	if len(m.data.Investments) == 0 {
		return cards + "\n\n" + m.theme.Muted.Render("No investments yet. Open the Projects tab to buy shares.")
	}
	return cards + "\n\n" + m.investments.View()
}

func (m Model) renderProjects() string {
	if len(m.data.Projects) == 0 {
		return m.theme.Muted.Render("No project is open for investment right now.")
	}

	var b strings.Builder
	b.WriteString(m.projects.View())
	b.WriteString("\n\n")

	idx := m.projects.Cursor()
	if idx >= 0 && idx < len(m.data.Projects) {
		b.WriteString(m.renderProjectDetail(m.data.Projects[idx]))
	}

	if m.buying {
		b.WriteString("\n\n")
		b.WriteString(m.renderBuyDialog())
	}
	return b.String()
}

func (m Model) renderProjectDetail(p portfolio.Project) string {
	funded := 0.0
	if p.TotalShares > 0 {
		funded = float64(p.TotalShares-p.AvailableShares) / float64(p.TotalShares)
	}
	barWidth := 30
	if m.width > 0 && m.width < 60 {
		barWidth = m.width / 2
	}
	name := lipgloss.NewStyle().Foreground(styles.ProjectColor(string(p.Type))).Bold(true).Render(p.Name)
	lines := []string{
		name + "  " + m.theme.Muted.Render(typeLabel(p.Type)+", "+p.Location),
		styles.RenderBar(barWidth, funded) + " " + formatPercent(funded, 0) + " funded",
	}
	if p.Description != "" {
		lines = append(lines, m.theme.Muted.Render(util.TruncateWidth(p.Description, m.width-2)))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderBuyDialog() string {
	p := m.buyProject
	title := m.theme.DialogTitle.Render("Buy shares: " + p.Name)
	info := util.FormatEuro(p.PricePerShare) + " per share, " +
		util.GroupThousands(int64(p.AvailableShares)) + " available"
	hint := m.theme.ShortcutKey.Render("Enter") + m.theme.ShortcutDesc.Render(" confirm  ") +
		m.theme.ShortcutKey.Render("Esc") + m.theme.ShortcutDesc.Render(" cancel")
	return m.theme.Dialog.Render(strings.Join([]string{title, info, "", m.qtyInput.View(), "", hint}, "\n"))
}

func (m Model) renderProduction() string {
	if len(m.data.Productions) == 0 {
		return m.theme.Muted.Render("No production recorded for your projects yet.")
	}
	cards := m.renderCards(
		m.renderCard("Records", util.IntToString(len(m.data.Productions))),
		m.renderCard("Your revenue", util.FormatEuro(m.data.DailyRevenue())),
	)
	return cards + "\n\n" + m.production.View()
}

func (m Model) renderImpact() string {
	imp := m.data.Impact()
	cards := m.renderCards(
		m.renderCard("Clean energy", util.FloatToStringPrec(imp.ProductionMWh, 2)+" MWh"),
		m.renderCard("CO2 avoided", util.FloatToStringPrec(imp.CO2AvoidedTons, 2)+" t"),
	)
	lines := []string{
		cards,
		"",
		"  " + styles.RenderSuccess("equivalent to "+util.GroupThousands(int64(imp.TreesEquivalent))+" trees for a year"),
		"  " + styles.RenderSuccess(util.IntToString(imp.Cars)+" cars off the road for a year"),
		"  " + styles.RenderSuccess(util.IntToString(imp.Households)+" households powered for a year"),
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderStatusBar() string {
	if m.help.ShowAll {
		return m.help.View(m.keys)
	}
	left := m.help.View(m.keys)
	if m.loading {
		left = m.spinner.View() + " " + left
	}
	return m.theme.StatusBar.Width(m.width).Render(left)
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

func formatPercent(fraction float64, prec int) string {
	return util.FloatToStringPrec(fraction*100, prec) + "%"
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}
