package main

import (
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/granttrack/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/granttrack/internal/app"
	"github.com/MrJamesThe3rd/granttrack/internal/config"
	"github.com/MrJamesThe3rd/granttrack/internal/cycle"
	"github.com/MrJamesThe3rd/granttrack/internal/grant"
	"github.com/MrJamesThe3rd/granttrack/internal/roster"
)

type model struct {
	svc    *grant.Service
	parser *roster.Parser
	cycle  *cycle.GrantCycle

	currentView View

	cycleView      view.CycleSelectModel
	dashboardView  view.DashboardModel
	candidatesView view.CandidatesModel
	reportsView    view.ReportReviewModel
	importView     view.ImportModel
}

type View int

const (
	ViewCycleSelect View = 0
	ViewMenu        View = 1
	ViewDashboard   View = 2
	ViewCandidates  View = 3
	ViewReports     View = 4
	ViewImport      View = 5
)

func initialModel(a *app.App) model {
	return model{
		svc:         a.Grant,
		parser:      roster.NewParser(),
		currentView: ViewCycleSelect,
		cycleView:   view.NewCycleSelectModel(a.Grant),
	}
}

func (m model) Init() tea.Cmd {
	return m.cycleView.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.currentView {
		case ViewCycleSelect:
			if msg.String() == "q" {
				return m, tea.Quit
			}
		case ViewMenu:
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "c":
				m.currentView = ViewCycleSelect
				m.cycleView = view.NewCycleSelectModel(m.svc)

				return m, m.cycleView.Init()
			case "1":
				m.currentView = ViewDashboard
				m.dashboardView = view.NewDashboardModel(m.svc, m.cycle)

				return m, m.dashboardView.Init()
			case "2":
				m.currentView = ViewCandidates
				m.candidatesView = view.NewCandidatesModel(m.svc, m.cycle)

				return m, m.candidatesView.Init()
			case "3":
				m.currentView = ViewReports
				m.reportsView = view.NewReportReviewModel(m.svc, m.cycle)

				return m, m.reportsView.Init()
			case "4":
				m.currentView = ViewImport
				m.importView = view.NewImportModel(m.svc, m.parser, m.cycle)

				return m, m.importView.Init()
			}
		}
	case view.CycleSelectedMsg:
		m.cycle = msg.Cycle
		m.currentView = ViewMenu

		return m, nil
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewCycleSelect:
		var newModel tea.Model
		newModel, cmd = m.cycleView.Update(msg)
		m.cycleView = newModel.(view.CycleSelectModel)
	case ViewDashboard:
		var newModel tea.Model
		newModel, cmd = m.dashboardView.Update(msg)
		m.dashboardView = newModel.(view.DashboardModel)
	case ViewCandidates:
		var newModel tea.Model
		newModel, cmd = m.candidatesView.Update(msg)
		m.candidatesView = newModel.(view.CandidatesModel)
	case ViewReports:
		var newModel tea.Model
		newModel, cmd = m.reportsView.Update(msg)
		m.reportsView = newModel.(view.ReportReviewModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewCycleSelect:
		return m.cycleView.View()
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"GrantTrack | " + m.cycle.Name + "\n\n" +
				"1. Dashboard\n" +
				"2. Candidates\n" +
				"3. Review Outcome Reports\n" +
				"4. Import Roster\n\n" +
				"c. Change Cycle\n" +
				"q. Quit",
		)
	case ViewDashboard:
		return m.dashboardView.View()
	case ViewCandidates:
		return m.candidatesView.View()
	case ViewReports:
		return m.reportsView.View()
	case ViewImport:
		return m.importView.View()
	}

	return "Unknown View"
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.SeedCycles(context.Background()); err != nil {
		slog.Error("failed to seed grant cycles", "error", err)
		os.Exit(1)
	}

	p := tea.NewProgram(initialModel(a))
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
