// Package reminder builds the overdue-report notices sent to institutions
// and districts.
package reminder

//go:generate mockgen -source=reminder.go -destination=source_mock.go -package=reminder

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/granttrack/internal/compliance"
	"github.com/MrJamesThe3rd/granttrack/internal/cycle"
	"github.com/MrJamesThe3rd/granttrack/internal/org"
)

// Source supplies the cycle and its outstanding reports.
type Source interface {
	GetCycle(ctx context.Context, id uuid.UUID) (*cycle.GrantCycle, error)
	GetOutstandingReports(ctx context.Context, cycleID uuid.UUID) ([]compliance.OutstandingReport, error)
}

// Notice is one message to one organization.
type Notice struct {
	GrantCycleID uuid.UUID
	Org          org.Ref
	Contacts     []org.Contact
	Reports      []compliance.OutstandingReport
	Critical     int
	Subject      string
	Body         string
}

type Service struct {
	source    Source
	directory *org.Directory
}

func NewService(source Source, directory *org.Directory) *Service {
	return &Service{source: source, directory: directory}
}

// Build returns one notice per organization that owes at least one report.
// IHE reports are owed by the institution and LEA reports by the district.
func (s *Service) Build(ctx context.Context, cycleID uuid.UUID) ([]Notice, error) {
	c, err := s.source.GetCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}

	outstanding, err := s.source.GetOutstandingReports(ctx, cycleID)
	if err != nil {
		return nil, fmt.Errorf("listing outstanding reports: %w", err)
	}

	var notices []Notice

	index := make(map[uuid.UUID]int)

	for _, r := range outstanding {
		i, ok := index[r.Org.ID]
		if !ok {
			i = len(notices)
			index[r.Org.ID] = i

			notices = append(notices, Notice{GrantCycleID: cycleID, Org: r.Org})
		}

		notices[i].Reports = append(notices[i].Reports, r)

		if r.Critical {
			notices[i].Critical++
		}
	}

	for i := range notices {
		n := &notices[i]

		contacts, err := s.directory.Contacts(ctx, n.Org)
		if err != nil {
			return nil, fmt.Errorf("looking up contacts for %s: %w", n.Org.Name, err)
		}

		n.Contacts = contacts
		n.Subject = subject(c, n)
		n.Body = body(c, n)
	}

	return notices, nil
}

func subject(c *cycle.GrantCycle, n *Notice) string {
	s := fmt.Sprintf("[%s] %d outstanding outcome report", c.Name, len(n.Reports))
	if len(n.Reports) != 1 {
		s += "s"
	}

	if n.Critical > 0 {
		s = "CRITICAL " + s
	}

	return s
}

func body(c *cycle.GrantCycle, n *Notice) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Outstanding outcome reports for %s\n", c.Name)
	fmt.Fprintf(&sb, "Organization: %s (%s)\n", n.Org.Name, strings.ToUpper(string(n.Org.Kind)))
	fmt.Fprintf(&sb, "Reporting deadline: %s\n\n", c.ReportingDeadline.Format("2006-01-02"))

	for _, r := range n.Reports {
		line := fmt.Sprintf("* %s | %s report | %s", r.CandidateName, strings.ToUpper(string(r.Type)), r.Status)

		if r.RevisionCount > 0 {
			line += fmt.Sprintf(" (revision %d)", r.RevisionCount)
		}

		if r.DaysOverdue > 0 {
			line += fmt.Sprintf(" | %d days overdue", r.DaysOverdue)
		}

		if r.Critical {
			line += " | CRITICAL"
		}

		sb.WriteString(line + "\n")
	}

	sb.WriteString("\nPlease complete and submit these reports in the grant portal.\n")

	return sb.String()
}
