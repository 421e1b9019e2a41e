package view

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/granttrack/internal/cycle"
	"github.com/MrJamesThe3rd/granttrack/internal/grant"
	"github.com/MrJamesThe3rd/granttrack/internal/report"
)

type ReportReviewState int

const (
	StateEnterReviewer ReportReviewState = iota
	StateReviewingReports
	StateEnterNotes
)

// ReportReviewModel walks the submitted and under-review reports of a cycle
// one at a time.
type ReportReviewModel struct {
	cycleScope

	state ReportReviewState

	queue   []*report.Report
	current *report.Report

	reviewerInput textinput.Model
	notesInput    textinput.Model

	status     string
	loading    bool
	totalCount int
}

func NewReportReviewModel(svc *grant.Service, c *cycle.GrantCycle) ReportReviewModel {
	reviewer := textinput.New()
	reviewer.Placeholder = "Your name"
	reviewer.Width = 40
	reviewer.Prompt = "Reviewer: "
	reviewer.Focus()

	notes := textinput.New()
	notes.Placeholder = "What needs to change"
	notes.Width = 60
	notes.Prompt = "Notes: "

	return ReportReviewModel{
		cycleScope:    cycleScope{svc: svc, cycle: c},
		reviewerInput: reviewer,
		notesInput:    notes,
		state:         StateEnterReviewer,
	}
}

func (m ReportReviewModel) Title() string { return "Report Review" }
func (m ReportReviewModel) ShortHelp() string {
	switch m.state {
	case StateEnterNotes:
		return "Enter: send back | Esc: cancel"
	case StateReviewingReports:
		return "u: under review | a: approve | v: request revisions | s: skip | Esc: back"
	}

	return "Enter: start | Esc: back"
}

func (m ReportReviewModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m ReportReviewModel) reviewer() string {
	return strings.TrimSpace(m.reviewerInput.Value())
}

func (m ReportReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		switch m.state {
		case StateEnterReviewer:
			switch msg.Type {
			case tea.KeyEsc:
				return m, Back
			case tea.KeyEnter:
				if m.reviewer() == "" {
					m.status = "Reviewer is required"
					return m, nil
				}

				m.reviewerInput.Blur()
				m.state = StateReviewingReports
				m.loading = true

				return m, m.loadQueueCmd()
			}

		case StateEnterNotes:
			switch msg.Type {
			case tea.KeyEsc:
				m.state = StateReviewingReports
				m.notesInput.Blur()

				return m, nil
			case tea.KeyEnter:
				notes := m.notesInput.Value()
				m.notesInput.Blur()
				m.notesInput.SetValue("")
				m.state = StateReviewingReports

				return m, m.reviewCmd(func(ctx context.Context, id uuid.UUID) (*report.Report, error) {
					return m.svc.RequestReportRevisions(ctx, id, m.reviewer(), notes)
				})
			}

		case StateReviewingReports:
			if msg.Type == tea.KeyEsc {
				return m, Back
			}

			if m.current == nil {
				return m, nil
			}

			switch msg.String() {
			case "u":
				return m, m.reviewCmd(func(ctx context.Context, id uuid.UUID) (*report.Report, error) {
					return m.svc.SetReportUnderReview(ctx, id, m.reviewer())
				})
			case "a":
				return m, m.reviewCmd(func(ctx context.Context, id uuid.UUID) (*report.Report, error) {
					return m.svc.ApproveReport(ctx, id, m.reviewer())
				})
			case "v":
				m.state = StateEnterNotes
				m.notesInput.Focus()

				return m, textinput.Blink
			case "s":
				m.next()
				return m, nil
			}
		}

	case loadQueueMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error loading reports: %v", msg.err)
			break
		}

		m.queue = msg.reports
		m.totalCount = len(m.queue)
		m.next()

	case reviewResultMsg:
		if msg.err != nil {
			m.status = errorStyle(msg.err.Error())
			break
		}

		// A report moved to under review stays current for the decision.
		if msg.report.Status == report.StatusUnderReview {
			m.current = msg.report
			m.status = okStyle("Marked under review")

			break
		}

		m.next()
	}

	switch m.state {
	case StateEnterReviewer:
		m.reviewerInput, cmd = m.reviewerInput.Update(msg)
	case StateEnterNotes:
		m.notesInput, cmd = m.notesInput.Update(msg)
	}

	return m, cmd
}

func (m *ReportReviewModel) next() {
	if len(m.queue) == 0 {
		m.current = nil
		m.status = "All done! No reports awaiting review."

		return
	}

	m.current = m.queue[0]
	m.queue = m.queue[1:]

	currentIdx := m.totalCount - len(m.queue)
	m.status = fmt.Sprintf("Reviewing %d/%d", currentIdx, m.totalCount)
}

func (m ReportReviewModel) View() string {
	style := lipgloss.NewStyle().Padding(2)

	if m.state == StateEnterReviewer {
		return style.Render(fmt.Sprintf("Review outcome reports for %s\n\n%s\n\n%s\n\n%s",
			m.cycle.Name, m.reviewerInput.View(), m.status, m.ShortHelp()))
	}

	if m.loading {
		return style.Render("Loading reports...")
	}

	if m.current == nil {
		return style.Render(m.status + "\n\n(Esc to back)")
	}

	r := m.current

	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", m.status)
	fmt.Fprintf(&b, "Type:      %s report\n", strings.ToUpper(string(r.Type)))
	fmt.Fprintf(&b, "Status:    %s\n", r.Status)
	fmt.Fprintf(&b, "Revisions: %d\n", r.RevisionCount)

	if r.ReviewNotes != "" {
		fmt.Fprintf(&b, "Last notes: %s\n", r.ReviewNotes)
	}

	b.WriteString("\n")

	keys := make([]string, 0, len(r.Payload))
	for k := range r.Payload {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	for _, k := range keys {
		fmt.Fprintf(&b, "  %-24s %s\n", k, r.Payload[k])
	}

	if m.state == StateEnterNotes {
		fmt.Fprintf(&b, "\n%s\n", m.notesInput.View())
	}

	fmt.Fprintf(&b, "\n%s", m.ShortHelp())

	return style.Render(b.String())
}

type loadQueueMsg struct {
	reports []*report.Report
	err     error
}

func (m ReportReviewModel) loadQueueCmd() tea.Cmd {
	cycleID := m.cycle.ID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		var queue []*report.Report

		for _, status := range []report.Status{report.StatusSubmitted, report.StatusUnderReview} {
			rs, err := m.svc.ListReports(ctx, report.ListFilter{GrantCycleID: &cycleID, Status: new(status)})
			if err != nil {
				return loadQueueMsg{err: err}
			}

			queue = append(queue, rs...)
		}

		return loadQueueMsg{reports: queue}
	}
}

type reviewResultMsg struct {
	report *report.Report
	err    error
}

func (m ReportReviewModel) reviewCmd(fn func(ctx context.Context, id uuid.UUID) (*report.Report, error)) tea.Cmd {
	id := m.current.ID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		r, err := fn(ctx, id)

		return reviewResultMsg{report: r, err: err}
	}
}
