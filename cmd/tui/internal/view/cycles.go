package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/granttrack/internal/cycle"
	"github.com/MrJamesThe3rd/granttrack/internal/grant"
	"github.com/MrJamesThe3rd/granttrack/internal/money"
)

// CycleSelectedMsg is sent when the user picks the grant cycle to work in.
type CycleSelectedMsg struct {
	Cycle *cycle.GrantCycle
}

type CycleSelectModel struct {
	svc *grant.Service

	cycles []*cycle.GrantCycle
	cursor int

	loading bool
	err     error
}

func NewCycleSelectModel(svc *grant.Service) CycleSelectModel {
	return CycleSelectModel{svc: svc, loading: true}
}

func (m CycleSelectModel) Title() string     { return "Grant Cycles" }
func (m CycleSelectModel) ShortHelp() string { return "↑/↓: move | Enter: select | q: quit" }

func (m CycleSelectModel) Init() tea.Cmd {
	return m.loadCyclesCmd()
}

func (m CycleSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadCyclesMsg:
		m.loading = false
		m.cycles = msg.cycles
		m.err = msg.err

		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyUp:
			if m.cursor > 0 {
				m.cursor--
			}
		case tea.KeyDown:
			if m.cursor < len(m.cycles)-1 {
				m.cursor++
			}
		case tea.KeyEnter:
			if len(m.cycles) == 0 {
				return m, nil
			}

			selected := m.cycles[m.cursor]

			return m, func() tea.Msg { return CycleSelectedMsg{Cycle: selected} }
		}

		if msg.String() == "r" {
			m.loading = true
			return m, m.loadCyclesCmd()
		}
	}

	return m, nil
}

func (m CycleSelectModel) View() string {
	style := lipgloss.NewStyle().Padding(2)

	if m.loading {
		return style.Render("Loading grant cycles...")
	}

	if m.err != nil {
		return style.Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	if len(m.cycles) == 0 {
		return style.Render("No grant cycles. Seed one in the policy file or create one through the API.\n\nq. Quit")
	}

	var b strings.Builder

	b.WriteString("Select Grant Cycle:\n\n")

	for i, c := range m.cycles {
		cursor := " "
		if i == m.cursor {
			cursor = ">"
		}

		open := "closed"
		if c.ApplicationOpen {
			open = "open"
		}

		fmt.Fprintf(&b, "%s %s  %s  (%s, reports due %s)\n",
			cursor, c.Name, money.FormatCents(c.Appropriated), open, FormatDate(c.ReportingDeadline))
	}

	b.WriteString("\n" + m.ShortHelp())

	return style.Render(b.String())
}

type loadCyclesMsg struct {
	cycles []*cycle.GrantCycle
	err    error
}

func (m CycleSelectModel) loadCyclesCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		cycles, err := m.svc.ListCycles(ctx)

		return loadCyclesMsg{cycles: cycles, err: err}
	}
}
