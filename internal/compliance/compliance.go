// Package compliance derives read-only program metrics for a grant cycle:
// stage counts, per-organization report compliance, overall health and the
// outstanding report list. Everything here is a pure function of its input.
package compliance

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/granttrack/internal/candidate"
	"github.com/MrJamesThe3rd/granttrack/internal/ledger"
	"github.com/MrJamesThe3rd/granttrack/internal/org"
	"github.com/MrJamesThe3rd/granttrack/internal/report"
)

// Band classifies a single organization's compliance rate.
type Band string

const (
	BandFull    Band = "FULL"
	BandPartial Band = "PARTIAL"
	BandNone    Band = "NONE"
)

// Health classifies the cycle-wide compliance rate.
type Health string

const (
	HealthGreen  Health = "GREEN"
	HealthYellow Health = "YELLOW"
	HealthRed    Health = "RED"
)

// Health thresholds, in percent.
const (
	greenThreshold  = 80.0
	yellowThreshold = 50.0
)

// Label is the compliance wording shown next to the colour.
func (h Health) Label() string {
	switch h {
	case HealthGreen:
		return "COMPLIANT"
	case HealthYellow:
		return "WARNING"
	default:
		return "NON_COMPLIANT"
	}
}

// DefaultCriticalAfter is how long past the deadline a missing report turns
// critical.
const DefaultCriticalAfter = 30 * 24 * time.Hour

type Input struct {
	GrantCycleID  uuid.UUID
	Deadline      time.Time
	Candidates    []*candidate.Candidate
	Reports       []*report.Report
	Balance       ledger.Snapshot
	Now           time.Time
	CriticalAfter time.Duration
}

// OrgCompliance is one organization's report standing. Rate is a percentage.
type OrgCompliance struct {
	Org       org.Ref
	Required  int
	Submitted int
	Rate      float64
	Band      Band
}

type Metrics struct {
	GrantCycleID uuid.UUID
	StageCounts  map[candidate.Stage]int
	Orgs         []OrgCompliance
	Required     int
	Submitted    int
	Rate         float64
	Health       Health
	Ledger       ledger.Snapshot
	Outstanding  int
	Critical     int
}

// OutstandingReport is a required report the owning organization has not yet
// handed in.
type OutstandingReport struct {
	ReportID      uuid.UUID
	CandidateID   uuid.UUID
	CandidateName string
	Type          report.Type
	Org           org.Ref
	Status        report.Status
	RevisionCount int
	Deadline      time.Time
	DaysOverdue   int
	Critical      bool
}

// Compute reduces the cycle's candidates and reports into Metrics.
func Compute(in Input) Metrics {
	m := Metrics{
		GrantCycleID: in.GrantCycleID,
		StageCounts:  make(map[candidate.Stage]int, len(candidate.Stages)),
		Ledger:       in.Balance,
	}

	for _, s := range candidate.Stages {
		m.StageCounts[s] = 0
	}

	for _, c := range in.Candidates {
		m.StageCounts[c.Stage()]++
	}

	m.Orgs = orgCompliance(in.Candidates, in.Reports)
	for _, o := range m.Orgs {
		m.Required += o.Required
		m.Submitted += o.Submitted
	}

	m.Rate = rate(m.Submitted, m.Required)
	m.Health = healthFor(m.Rate)

	for _, o := range Outstanding(in) {
		m.Outstanding++
		if o.Critical {
			m.Critical++
		}
	}

	return m
}

// Outstanding lists the DRAFT or REVISIONS_REQUESTED reports of paid
// candidates, grouped by responsible organization and then by candidate.
// Every report in a cycle shares one deadline, so all rows carry the same
// days overdue.
func Outstanding(in Input) []OutstandingReport {
	critical := in.CriticalAfter
	if critical <= 0 {
		critical = DefaultCriticalAfter
	}

	byID := indexCandidates(in.Candidates)
	overdue := in.Now.Sub(in.Deadline)

	var out []OutstandingReport

	for _, r := range in.Reports {
		c, ok := byID[r.CandidateID]
		if !ok || c.Disbursement != candidate.DisbursementPaymentComplete || !r.Status.Outstanding() {
			continue
		}

		o := OutstandingReport{
			ReportID:      r.ID,
			CandidateID:   c.ID,
			CandidateName: c.Fields.FirstName + " " + c.Fields.LastName,
			Type:          r.Type,
			Org:           responsibleOrg(c, r.Type),
			Status:        r.Status,
			RevisionCount: r.RevisionCount,
			Deadline:      in.Deadline,
			Critical:      overdue > critical,
		}
		if overdue > 0 {
			o.DaysOverdue = int(overdue / (24 * time.Hour))
		}

		out = append(out, o)
	}

	slices.SortStableFunc(out, func(a, b OutstandingReport) int {
		return cmp.Or(
			cmp.Compare(a.Org.Name, b.Org.Name),
			cmp.Compare(a.CandidateName, b.CandidateName),
			cmp.Compare(a.Type, b.Type),
		)
	})

	return out
}

type orgKey struct {
	kind org.Kind
	id   uuid.UUID
}

func orgCompliance(candidates []*candidate.Candidate, reports []*report.Report) []OrgCompliance {
	submitted := make(map[uuid.UUID]map[report.Type]bool)

	for _, r := range reports {
		if !r.Status.SubmittedOrLater() {
			continue
		}

		if submitted[r.CandidateID] == nil {
			submitted[r.CandidateID] = make(map[report.Type]bool, len(report.Types))
		}

		submitted[r.CandidateID][r.Type] = true
	}

	rows := make(map[orgKey]*OrgCompliance)

	for _, c := range candidates {
		if c.Disbursement != candidate.DisbursementPaymentComplete {
			continue
		}

		for _, t := range report.Types {
			ref := responsibleOrg(c, t)
			key := orgKey{kind: ref.Kind, id: ref.ID}

			row, ok := rows[key]
			if !ok {
				row = &OrgCompliance{Org: ref}
				rows[key] = row
			}

			row.Required++
			if submitted[c.ID][t] {
				row.Submitted++
			}
		}
	}

	out := make([]OrgCompliance, 0, len(rows))
	for _, row := range rows {
		row.Rate = rate(row.Submitted, row.Required)
		row.Band = bandFor(row.Rate)
		out = append(out, *row)
	}

	slices.SortFunc(out, func(a, b OrgCompliance) int {
		return cmp.Or(
			cmp.Compare(a.Org.Kind, b.Org.Kind),
			cmp.Compare(a.Org.Name, b.Org.Name),
		)
	})

	return out
}

func responsibleOrg(c *candidate.Candidate, t report.Type) org.Ref {
	ref := c.LEA
	ref.Kind = org.KindLEA

	if t == report.TypeIHE {
		ref = c.IHE
		ref.Kind = org.KindIHE
	}

	return ref
}

func indexCandidates(candidates []*candidate.Candidate) map[uuid.UUID]*candidate.Candidate {
	byID := make(map[uuid.UUID]*candidate.Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}

	return byID
}

// rate is submitted/required as a percentage; nothing required counts as
// fully compliant.
func rate(submitted, required int) float64 {
	if required == 0 {
		return 100
	}

	return float64(submitted) * 100 / float64(required)
}

func bandFor(rate float64) Band {
	switch {
	case rate >= 100:
		return BandFull
	case rate > 0:
		return BandPartial
	default:
		return BandNone
	}
}

func healthFor(rate float64) Health {
	switch {
	case rate >= greenThreshold:
		return HealthGreen
	case rate >= yellowThreshold:
		return HealthYellow
	default:
		return HealthRed
	}
}
