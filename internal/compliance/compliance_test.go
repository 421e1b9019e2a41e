package compliance_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/granttrack/internal/candidate"
	"github.com/MrJamesThe3rd/granttrack/internal/compliance"
	"github.com/MrJamesThe3rd/granttrack/internal/cycle"
	"github.com/MrJamesThe3rd/granttrack/internal/ledger"
	"github.com/MrJamesThe3rd/granttrack/internal/org"
	"github.com/MrJamesThe3rd/granttrack/internal/report"
)

var (
	deadline = time.Date(2027, 8, 31, 0, 0, 0, 0, time.UTC)
	fresno   = org.Ref{ID: uuid.New(), Name: "Fresno Unified", Kind: org.KindLEA}
	oakland  = org.Ref{ID: uuid.New(), Name: "Oakland Unified", Kind: org.KindLEA}
	csu      = org.Ref{ID: uuid.New(), Name: "CSU Fresno", Kind: org.KindIHE}
)

type fixture struct {
	candidates []*candidate.Candidate
	reports    []*report.Report
}

func (f *fixture) add(name string, lea org.Ref, c candidate.Candidate, ihe, leaStatus report.Status) *candidate.Candidate {
	c.ID = uuid.New()
	c.Fields.FirstName = name
	c.Fields.LastName = "Teacher"
	c.IHE = csu
	c.LEA = lea

	f.candidates = append(f.candidates, &c)

	if c.Disbursement == candidate.DisbursementPaymentComplete {
		pair := report.NewPair(&c)
		pair[0].ID, pair[0].Status = uuid.New(), ihe
		pair[1].ID, pair[1].Status = uuid.New(), leaStatus
		f.reports = append(f.reports, pair...)
	}

	return &c
}

func paid() candidate.Candidate {
	return candidate.Candidate{
		Submission:   candidate.SubmissionApproved,
		Disbursement: candidate.DisbursementPaymentComplete,
		Reporting:    candidate.ReportingNotStarted,
	}
}

func (f *fixture) input(now time.Time) compliance.Input {
	return compliance.Input{
		Deadline:   deadline,
		Candidates: f.candidates,
		Reports:    f.reports,
		Now:        now,
	}
}

func findOrg(t *testing.T, m compliance.Metrics, ref org.Ref) compliance.OrgCompliance {
	t.Helper()

	for _, o := range m.Orgs {
		if o.Org.ID == ref.ID && o.Org.Kind == ref.Kind {
			return o
		}
	}

	t.Fatalf("no compliance row for %s", ref.Name)

	return compliance.OrgCompliance{}
}

func TestCompute_SinglePaidCandidate(t *testing.T) {
	var f fixture
	f.add("Ada", fresno, paid(), report.StatusDraft, report.StatusDraft)

	m := compliance.Compute(f.input(deadline))

	lea := findOrg(t, m, fresno)
	assert.Equal(t, 1, lea.Required)
	assert.Equal(t, 0, lea.Submitted)
	assert.InDelta(t, 0.0, lea.Rate, 0.001)
	assert.Equal(t, compliance.BandNone, lea.Band)

	assert.Equal(t, 2, m.Required)
	assert.Equal(t, compliance.HealthRed, m.Health)
	assert.Equal(t, "NON_COMPLIANT", m.Health.Label())
	assert.Equal(t, 1, m.StageCounts[candidate.StageReporting])
}

func TestCompute_Bands(t *testing.T) {
	var f fixture
	f.add("Ada", fresno, paid(), report.StatusApproved, report.StatusSubmitted)
	f.add("Grace", fresno, paid(), report.StatusUnderReview, report.StatusDraft)
	f.add("Linus", oakland, paid(), report.StatusSubmitted, report.StatusRevisionsRequested)

	m := compliance.Compute(f.input(deadline))

	fr := findOrg(t, m, fresno)
	assert.Equal(t, 2, fr.Required)
	assert.Equal(t, 1, fr.Submitted)
	assert.InDelta(t, 50.0, fr.Rate, 0.001)
	assert.Equal(t, compliance.BandPartial, fr.Band)

	oak := findOrg(t, m, oakland)
	assert.Equal(t, compliance.BandNone, oak.Band)

	ihe := findOrg(t, m, csu)
	assert.Equal(t, 3, ihe.Required)
	assert.Equal(t, compliance.BandFull, ihe.Band)

	// 4 of 6 reports in.
	assert.InDelta(t, 66.666, m.Rate, 0.01)
	assert.Equal(t, compliance.HealthYellow, m.Health)
}

func TestCompute_HealthThresholds(t *testing.T) {
	tests := []struct {
		name      string
		submitted int
		want      compliance.Health
	}{
		{"Green", 4, compliance.HealthGreen},
		{"Yellow", 3, compliance.HealthYellow},
		{"Red", 2, compliance.HealthRed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f fixture
			for i := range 5 {
				status := report.StatusDraft
				if i < tt.submitted {
					status = report.StatusSubmitted
				}

				f.add("Candidate", fresno, paid(), status, status)
			}

			m := compliance.Compute(f.input(deadline))
			assert.Equal(t, tt.want, m.Health)
		})
	}
}

func TestCompute_NothingRequired(t *testing.T) {
	var f fixture
	f.add("Ada", fresno, candidate.Candidate{Submission: candidate.SubmissionDraft}, "", "")
	f.add("Grace", fresno, candidate.Candidate{Submission: candidate.SubmissionRejected}, "", "")
	f.add("Linus", oakland, candidate.Candidate{
		Submission:   candidate.SubmissionApproved,
		Disbursement: candidate.DisbursementAwardCancelled,
	}, "", "")

	m := compliance.Compute(f.input(deadline))

	assert.Empty(t, m.Orgs)
	assert.InDelta(t, 100.0, m.Rate, 0.001)
	assert.Equal(t, compliance.HealthGreen, m.Health)
	assert.Equal(t, 1, m.StageCounts[candidate.StageSubmission])
	assert.Equal(t, 1, m.StageCounts[candidate.StageRejected])
	assert.Equal(t, 1, m.StageCounts[candidate.StageCancelled])
	assert.Equal(t, 0, m.StageCounts[candidate.StageComplete])
}

func TestOutstanding(t *testing.T) {
	var f fixture
	f.add("Ada", fresno, paid(), report.StatusDraft, report.StatusApproved)
	f.add("Grace", oakland, paid(), report.StatusSubmitted, report.StatusRevisionsRequested)

	tests := []struct {
		name         string
		now          time.Time
		wantDays     int
		wantCritical bool
	}{
		{"BeforeDeadline", deadline.Add(-48 * time.Hour), 0, false},
		{"Overdue", deadline.Add(10*24*time.Hour + time.Hour), 10, false},
		{"ExactlyThirtyDays", deadline.Add(30 * 24 * time.Hour), 30, false},
		{"Critical", deadline.Add(31 * 24 * time.Hour), 31, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compliance.Outstanding(f.input(tt.now))
			require.Len(t, got, 2)

			// Sorted by responsible organization name.
			assert.Equal(t, csu.ID, got[0].Org.ID)
			assert.Equal(t, report.TypeIHE, got[0].Type)
			assert.Equal(t, oakland.ID, got[1].Org.ID)
			assert.Equal(t, report.StatusRevisionsRequested, got[1].Status)

			for _, o := range got {
				assert.Equal(t, tt.wantDays, o.DaysOverdue)
				assert.Equal(t, tt.wantCritical, o.Critical)
			}
		})
	}
}

func TestService_Metrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := compliance.NewMockRepository(ctrl)
	cycleID := uuid.New()

	var f fixture
	f.add("Ada", fresno, paid(), report.StatusDraft, report.StatusDraft)

	repo.EXPECT().GetCycle(gomock.Any(), cycleID).Return(&cycle.GrantCycle{ID: cycleID, ReportingDeadline: deadline}, nil)
	repo.EXPECT().ListCandidates(gomock.Any(), candidate.ListFilter{GrantCycleID: &cycleID}).Return(f.candidates, nil)
	repo.EXPECT().ListReports(gomock.Any(), report.ListFilter{GrantCycleID: &cycleID}).Return(f.reports, nil)
	repo.EXPECT().GetBalance(gomock.Any(), cycleID).Return(&ledger.Balance{
		CycleID: cycleID, Appropriated: 20_000, Disbursed: 10_000,
	}, nil)

	now := deadline.Add(40 * 24 * time.Hour)
	svc := compliance.NewService(repo, compliance.DefaultCriticalAfter, func() time.Time { return now })

	m, err := svc.Metrics(context.Background(), cycleID)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000), m.Ledger.Remaining)
	assert.Equal(t, 2, m.Outstanding)
	assert.Equal(t, 2, m.Critical)
	assert.Equal(t, compliance.BandNone, findOrg(t, m, fresno).Band)
}
