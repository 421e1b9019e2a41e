package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/granttrack/internal/candidate"
	"github.com/MrJamesThe3rd/granttrack/internal/compliance"
	"github.com/MrJamesThe3rd/granttrack/internal/cycle"
	"github.com/MrJamesThe3rd/granttrack/internal/grant"
	"github.com/MrJamesThe3rd/granttrack/internal/money"
)

var healthColors = map[compliance.Health]lipgloss.Color{
	compliance.HealthGreen:  lipgloss.Color("46"),
	compliance.HealthYellow: lipgloss.Color("226"),
	compliance.HealthRed:    lipgloss.Color("196"),
}

// DashboardModel shows a cycle's ledger, stage counts and per-organization
// report compliance.
type DashboardModel struct {
	cycleScope

	metrics     compliance.Metrics
	outstanding []compliance.OutstandingReport
	orgs        table.Model

	loading bool
	err     error
}

func NewDashboardModel(svc *grant.Service, c *cycle.GrantCycle) DashboardModel {
	return DashboardModel{
		cycleScope: cycleScope{svc: svc, cycle: c},
		orgs: newTable([]table.Column{
			{Title: "Organization", Width: 30},
			{Title: "Kind", Width: 5},
			{Title: "Required", Width: 9},
			{Title: "Submitted", Width: 10},
			{Title: "Rate", Width: 7},
			{Title: "Band", Width: 8},
		}),
		loading: true,
	}
}

func (m DashboardModel) Title() string     { return "Dashboard" }
func (m DashboardModel) ShortHelp() string { return "Esc: back | r: refresh" }

func (m DashboardModel) Init() tea.Cmd {
	return m.loadMetricsCmd()
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadMetricsMsg:
		m.loading = false
		m.err = msg.err

		if msg.err == nil {
			m.metrics = msg.metrics
			m.outstanding = msg.outstanding
			m.refreshTable()
		}

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadMetricsCmd()
		}
	}

	var cmd tea.Cmd
	m.orgs, cmd = m.orgs.Update(msg)

	return m, cmd
}

func (m *DashboardModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.metrics.Orgs))
	for _, o := range m.metrics.Orgs {
		rows = append(rows, table.Row{
			o.Org.Name,
			strings.ToUpper(string(o.Org.Kind)),
			fmt.Sprint(o.Required),
			fmt.Sprint(o.Submitted),
			fmt.Sprintf("%.0f%%", o.Rate),
			string(o.Band),
		})
	}

	m.orgs.SetRows(rows)
}

func (m DashboardModel) View() string {
	style := lipgloss.NewStyle().Padding(1)

	if m.loading {
		return style.Render("Loading metrics...")
	}

	if m.err != nil {
		return style.Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	l := m.metrics.Ledger
	ledgerView := fmt.Sprintf(
		"Appropriated %s | Reserved %s | Encumbered %s | Disbursed %s | Remaining %s",
		money.FormatCents(l.Appropriated),
		money.FormatCents(l.Reserved),
		money.FormatCents(l.Encumbered),
		money.FormatCents(l.Disbursed),
		activeStyle(money.FormatCents(l.Remaining)),
	)

	stages := make([]string, 0, len(candidate.Stages))
	for _, s := range candidate.Stages {
		stages = append(stages, fmt.Sprintf("%s %d", s, m.metrics.StageCounts[s]))
	}

	health := lipgloss.NewStyle().
		Bold(true).
		Foreground(healthColors[m.metrics.Health]).
		Render(fmt.Sprintf("%s %s", m.metrics.Health, m.metrics.Health.Label()))

	summary := fmt.Sprintf("Reports %d/%d (%.1f%%) %s | Outstanding %d, critical %d",
		m.metrics.Submitted, m.metrics.Required, m.metrics.Rate, health,
		m.metrics.Outstanding, m.metrics.Critical)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.orgs.View())

	return style.Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render(m.cycle.Name),
		"",
		ledgerView,
		strings.Join(stages, " | "),
		summary,
		"",
		tableView,
		m.outstandingView(),
		lipgloss.NewStyle().Faint(true).Render(m.ShortHelp()),
	))
}

const maxOutstandingRows = 10

func (m DashboardModel) outstandingView() string {
	if len(m.outstanding) == 0 {
		return okStyle("No outstanding reports.")
	}

	var b strings.Builder

	b.WriteString("Outstanding reports:\n")

	for i, o := range m.outstanding {
		if i == maxOutstandingRows {
			fmt.Fprintf(&b, "  ... and %d more\n", len(m.outstanding)-maxOutstandingRows)
			break
		}

		line := fmt.Sprintf("  %-24s %s report  %-20s %s", o.CandidateName,
			strings.ToUpper(string(o.Type)), o.Status, o.Org.Name)

		if o.DaysOverdue > 0 {
			line += fmt.Sprintf("  %d days overdue", o.DaysOverdue)
		}

		if o.Critical {
			line = errorStyle(line + "  CRITICAL")
		}

		b.WriteString(line + "\n")
	}

	return b.String()
}

type loadMetricsMsg struct {
	metrics     compliance.Metrics
	outstanding []compliance.OutstandingReport
	err         error
}

func (m DashboardModel) loadMetricsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		metrics, err := m.svc.GetComplianceMetrics(ctx, m.cycle.ID)
		if err != nil {
			return loadMetricsMsg{err: err}
		}

		outstanding, err := m.svc.GetOutstandingReports(ctx, m.cycle.ID)

		return loadMetricsMsg{metrics: metrics, outstanding: outstanding, err: err}
	}
}
