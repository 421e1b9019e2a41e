package view

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/granttrack/internal/candidate"
	"github.com/MrJamesThe3rd/granttrack/internal/cycle"
	"github.com/MrJamesThe3rd/granttrack/internal/grant"
	"github.com/MrJamesThe3rd/granttrack/internal/roster"
)

const importTimeout = 2 * time.Minute

type importState int

const (
	importStateAppSelect importState = iota
	importStateFilePick
	importStateImporting
	importStateResult
)

// ImportModel loads a roster file into an application as candidate drafts.
type ImportModel struct {
	cycleScope
	parser *roster.Parser

	state       importState
	filePicker  filepicker.Model
	apps        []*cycle.Application
	appCursor   int
	selectedApp *cycle.Application

	imported list.Model

	status string
	err    error
}

func NewImportModel(svc *grant.Service, parser *roster.Parser, c *cycle.GrantCycle) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".txt"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return ImportModel{
		cycleScope: cycleScope{svc: svc, cycle: c},
		parser:     parser,
		filePicker: fp,
	}
}

func (m ImportModel) Title() string { return "Import Roster" }

func (m ImportModel) ShortHelp() string {
	if m.state == importStateResult {
		return "↑/↓: scroll | Esc: back"
	}

	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return m.loadAppsCmd()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.handleEsc()
		}

		if m.state == importStateAppSelect {
			return m.updateAppSelect(msg)
		}

	case loadAppsMsg:
		m.apps = msg.apps
		m.err = msg.err

		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		}

		return m, nil

	case importResultMsg:
		m.state = importStateResult

		if msg.err != nil {
			m.err = msg.err
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		m.status = fmt.Sprintf("Imported %d candidates (%s roster).", len(msg.candidates), msg.profile)

		items := make([]list.Item, len(msg.candidates))
		for i, c := range msg.candidates {
			items[i] = candidateItem{c: c}
		}

		m.imported = list.New(items, list.NewDefaultDelegate(), 80, 20)
		m.imported.Title = "Imported Drafts"
		m.imported.SetShowStatusBar(false)
		m.imported.SetFilteringEnabled(false)
		m.imported.SetShowHelp(false)

		return m, nil
	}

	switch m.state {
	case importStateResult:
		if m.err != nil {
			return m, nil
		}

		var cmd tea.Cmd
		m.imported, cmd = m.imported.Update(msg)

		return m, cmd
	case importStateFilePick:
	default:
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.state = importStateImporting
		m.status = fmt.Sprintf("Importing from %s...", path)

		return m, m.importCmd(path)
	}

	return m, cmd
}

func (m ImportModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case importStateFilePick, importStateResult:
		m.state = importStateAppSelect
		m.err = nil
		m.status = ""

		return m, nil
	}

	return m, Back
}

func (m ImportModel) updateAppSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.appCursor > 0 {
			m.appCursor--
		}
	case tea.KeyDown:
		if m.appCursor < len(m.apps)-1 {
			m.appCursor++
		}
	case tea.KeyEnter:
		if len(m.apps) == 0 {
			return m, nil
		}

		m.selectedApp = m.apps[m.appCursor]
		m.state = importStateFilePick

		return m, m.filePicker.Init()
	}

	return m, nil
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateAppSelect:
		return m.viewAppSelect()
	case importStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Select roster for %s / %s:\n\n%s",
				m.selectedApp.IHE.Name, m.selectedApp.LEA.Name, m.filePicker.View()),
		)
	case importStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case importStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ImportModel) viewAppSelect() string {
	s := fmt.Sprintf("Select Application (%s):\n\n", m.cycle.Name)

	if m.status != "" {
		s += errorStyle(m.status) + "\n\n"
	}

	if len(m.apps) == 0 && m.err == nil {
		s += "No applications in this cycle.\n"
	}

	for i, app := range m.apps {
		cursor := " "
		if i == m.appCursor {
			cursor = ">"
		}

		s += fmt.Sprintf("%s %s / %s [%s]\n", cursor, app.IHE.Name, app.LEA.Name, app.Status)
	}

	return lipgloss.NewStyle().Padding(2).Render(s)
}

func (m ImportModel) viewResult() string {
	style := lipgloss.NewStyle().Padding(2)
	if m.err != nil {
		return style.Render(errorStyle(m.status) + "\n\n(Esc to go back)")
	}

	return style.Render(okStyle(m.status) + "\n\n" + m.imported.View() + "\n\n(Esc to go back)")
}

// Messages

type loadAppsMsg struct {
	apps []*cycle.Application
	err  error
}

func (m ImportModel) loadAppsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		apps, err := m.svc.ListApplications(ctx, m.cycle.ID)

		return loadAppsMsg{apps: apps, err: err}
	}
}

type importResultMsg struct {
	profile    string
	candidates []*candidate.Candidate
	err        error
}

func (m ImportModel) importCmd(path string) tea.Cmd {
	appID := m.selectedApp.ID

	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importResultMsg{err: err}
		}
		defer f.Close()

		res, err := m.parser.Parse(f)
		if err != nil {
			return importResultMsg{err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		cs, err := m.svc.AddCandidateDrafts(ctx, appID, res.Rows)
		if err != nil {
			return importResultMsg{err: err}
		}

		return importResultMsg{profile: res.Profile, candidates: cs}
	}
}

// candidateItem wraps a candidate to implement list.Item.
type candidateItem struct {
	c *candidate.Candidate
}

func (i candidateItem) Title() string {
	return i.c.Fields.FirstName + " " + i.c.Fields.LastName
}

func (i candidateItem) Description() string {
	return fmt.Sprintf("%s | %s", i.c.Fields.Email, i.c.Fields.CredentialArea)
}

func (i candidateItem) FilterValue() string { return i.Title() }
