package view

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/granttrack/internal/candidate"
	"github.com/MrJamesThe3rd/granttrack/internal/cycle"
	"github.com/MrJamesThe3rd/granttrack/internal/grant"
	"github.com/MrJamesThe3rd/granttrack/internal/money"
)

type candidatesState int

const (
	candidatesStateBrowse candidatesState = iota
	candidatesStateForm
)

const formValueKey = "value"

// formAction is the workflow action a form collects input for.
type formAction int

const (
	actionBeginReview formAction = iota
	actionApprove
	actionReject
	actionCancelAward
)

var submissionFilters = []*candidate.SubmissionStatus{
	nil,
	new(candidate.SubmissionDraft),
	new(candidate.SubmissionSubmitted),
	new(candidate.SubmissionUnderReview),
	new(candidate.SubmissionApproved),
	new(candidate.SubmissionRejected),
}

// CandidatesModel lists the cycle's candidates and drives their workflow.
type CandidatesModel struct {
	cycleScope

	state      candidatesState
	table      table.Model
	candidates []*candidate.Candidate
	form       *huh.Form
	action     formAction

	filterIdx int

	loading bool
	err     error
	status  string
}

func NewCandidatesModel(svc *grant.Service, c *cycle.GrantCycle) CandidatesModel {
	return CandidatesModel{
		cycleScope: cycleScope{svc: svc, cycle: c},
		table: newTable([]table.Column{
			{Title: "Name", Width: 24},
			{Title: "IHE", Width: 18},
			{Title: "LEA", Width: 18},
			{Title: "Stage", Width: 12},
			{Title: "Status", Width: 20},
			{Title: "Award", Width: 12},
		}),
		loading: true,
	}
}

func (m CandidatesModel) Title() string { return "Candidates" }
func (m CandidatesModel) ShortHelp() string {
	if m.state == candidatesStateForm {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | n: next step | b: begin review | a: approve | x: reject | c: cancel award | s: filter | r: refresh"
}

func (m CandidatesModel) Init() tea.Cmd {
	return m.loadCandidatesCmd()
}

func (m CandidatesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadCandidatesMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.candidates = msg.candidates
		m.refreshTable()

		return m, nil

	case actionResultMsg:
		if msg.err != nil {
			m.status = errorStyle(msg.err.Error())
		} else {
			m.status = okStyle(msg.status)
		}

		m.state = candidatesStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadCandidatesCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case candidatesStateBrowse:
		return m.updateBrowse(msg)
	case candidatesStateForm:
		return m.updateForm(msg)
	}

	return m, nil
}

func (m CandidatesModel) selected() *candidate.Candidate {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.candidates) {
		return nil
	}

	return m.candidates[idx]
}

func (m CandidatesModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCandidatesCmd()
		case "s":
			m.filterIdx = (m.filterIdx + 1) % len(submissionFilters)
			return m, m.loadCandidatesCmd()
		case "n":
			return m, m.nextStepCmd()
		case "b":
			return m.openForm(actionBeginReview)
		case "a":
			return m.openForm(actionApprove)
		case "x":
			return m.openForm(actionReject)
		case "c":
			return m.openForm(actionCancelAward)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m CandidatesModel) openForm(action formAction) (tea.Model, tea.Cmd) {
	c := m.selected()
	if c == nil {
		return m, nil
	}

	m.action = action

	input := huh.NewInput().Key(formValueKey)

	switch action {
	case actionBeginReview:
		input = input.Title("Reviewer").Validate(required("reviewer"))
	case actionApprove:
		input = input.Title("Award amount").
			Placeholder("10,000.00").
			Validate(func(s string) error {
				_, err := money.ParseDollars(s)
				return err
			})
	case actionReject:
		input = input.Title("Rejection reason")
	case actionCancelAward:
		input = input.Title("Cancellation reason")
	}

	m.form = huh.NewForm(huh.NewGroup(input)).
		WithWidth(45).
		WithShowHelp(false)

	m.state = candidatesStateForm
	m.table.Blur()

	return m, m.form.Init()
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}

		return nil
	}
}

func (m CandidatesModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = candidatesStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.submitFormCmd()
}

func (m CandidatesModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading candidates...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	filterLabel := "All"
	if f := submissionFilters[m.filterIdx]; f != nil {
		filterLabel = f.String()
	}

	header := fmt.Sprintf("%s | Filter: [s] Submission: %s", m.cycle.Name, activeStyle(filterLabel))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
		lipgloss.NewStyle().Faint(true).Render(m.ShortHelp()),
	)

	if m.state == candidatesStateForm && m.form != nil {
		name := ""
		if c := m.selected(); c != nil {
			name = c.Fields.FirstName + " " + c.Fields.LastName
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(fmt.Sprintf("%s\n\n%s", name, m.form.View()))

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = m.status + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *CandidatesModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.candidates))
	for _, c := range m.candidates {
		rows = append(rows, table.Row{
			c.Fields.FirstName + " " + c.Fields.LastName,
			c.IHE.Name,
			c.LEA.Name,
			string(c.Stage()),
			statusLabel(c),
			FormatAmount(c.AwardAmount),
		})
	}

	m.table.SetRows(rows)
}

// statusLabel shows the most advanced axis that has started.
func statusLabel(c *candidate.Candidate) string {
	switch {
	case c.Reporting != candidate.ReportingNone:
		return c.Reporting.String()
	case c.Disbursement != candidate.DisbursementNone:
		return c.Disbursement.String()
	default:
		return c.Submission.String()
	}
}

// Messages

type loadCandidatesMsg struct {
	candidates []*candidate.Candidate
	err        error
}

func (m CandidatesModel) loadCandidatesCmd() tea.Cmd {
	filter := candidate.ListFilter{
		GrantCycleID: &m.cycle.ID,
		Submission:   submissionFilters[m.filterIdx],
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		cs, err := m.svc.ListCandidates(ctx, filter)

		return loadCandidatesMsg{candidates: cs, err: err}
	}
}

type actionResultMsg struct {
	status string
	err    error
}

type step func(ctx context.Context, id uuid.UUID) (*candidate.Candidate, error)

// nextStep picks the action that needs no input for the candidate's position.
func (m CandidatesModel) nextStep(c *candidate.Candidate) (string, step) {
	switch c.Disbursement {
	case candidate.DisbursementAwardPending:
		return "agreement sent", m.svc.RecordAgreementSent
	case candidate.DisbursementAgreementSent:
		return "agreement signed", m.svc.RecordAgreementSigned
	case candidate.DisbursementAgreementSigned:
		return "invoice generated", m.svc.RecordInvoiceGenerated
	case candidate.DisbursementInvoiceGenerated:
		return "payment complete", m.svc.RecordPaymentComplete
	}

	switch c.Submission {
	case candidate.SubmissionDraft, candidate.SubmissionPendingDistrictInfo:
		return "submitted", m.svc.Submit
	}

	return "", nil
}

func (m CandidatesModel) nextStepCmd() tea.Cmd {
	c := m.selected()
	if c == nil {
		return nil
	}

	label, fn := m.nextStep(c)
	if fn == nil {
		return func() tea.Msg {
			return actionResultMsg{err: fmt.Errorf("no automatic next step from %s", statusLabel(c))}
		}
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if _, err := fn(ctx, c.ID); err != nil {
			return actionResultMsg{err: err}
		}

		return actionResultMsg{status: fmt.Sprintf("%s %s: %s", c.Fields.FirstName, c.Fields.LastName, label)}
	}
}

func (m CandidatesModel) submitFormCmd() tea.Cmd {
	c := m.selected()
	if c == nil {
		return nil
	}

	action := m.action
	value := strings.TrimSpace(m.form.GetString(formValueKey))

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		var (
			label string
			err   error
		)

		switch action {
		case actionBeginReview:
			label = "review started"
			_, err = m.svc.BeginReview(ctx, c.ID, value)
		case actionApprove:
			var cents int64
			if cents, err = money.ParseDollars(value); err == nil {
				label = "approved for " + money.FormatCents(cents)
				_, err = m.svc.Approve(ctx, c.ID, cents)
			}
		case actionReject:
			label = "rejected"
			_, err = m.svc.Reject(ctx, c.ID, value)
		case actionCancelAward:
			label = "award cancelled"
			_, err = m.svc.CancelAward(ctx, c.ID, value)
		}

		if err != nil {
			return actionResultMsg{err: err}
		}

		return actionResultMsg{status: fmt.Sprintf("%s %s: %s", c.Fields.FirstName, c.Fields.LastName, label)}
	}
}
