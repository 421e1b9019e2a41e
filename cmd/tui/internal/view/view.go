// Package view holds the Bubble Tea screens of the granttrack console.
package view

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/MrJamesThe3rd/granttrack/internal/cycle"
	"github.com/MrJamesThe3rd/granttrack/internal/grant"
)

// Screen is a console screen. Title names it in the header and ShortHelp
// lists its key bindings.
type Screen interface {
	tea.Model
	Title() string
	ShortHelp() string
}

var (
	_ Screen = CycleSelectModel{}
	_ Screen = DashboardModel{}
	_ Screen = CandidatesModel{}
	_ Screen = ReportReviewModel{}
	_ Screen = ImportModel{}
)

// cycleScope is embedded by the screens that work inside one grant cycle.
type cycleScope struct {
	svc   *grant.Service
	cycle *cycle.GrantCycle
}

// BackMsg returns the console to the cycle menu.
type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}
