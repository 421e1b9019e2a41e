package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/granttrack/internal/compliance"
	"github.com/MrJamesThe3rd/granttrack/internal/cycle"
	"github.com/MrJamesThe3rd/granttrack/internal/org"
	"github.com/MrJamesThe3rd/granttrack/internal/report"
	"github.com/MrJamesThe3rd/granttrack/internal/store/memory"
)

func TestService_Build(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	cycleID := uuid.New()
	ihe := org.Ref{ID: uuid.New(), Name: "CSU Sacramento", Kind: org.KindIHE}
	lea := org.Ref{ID: uuid.New(), Name: "Elk Grove USD", Kind: org.KindLEA}

	store := memory.New()
	dir := org.NewDirectory(store)
	require.NoError(t, dir.Register(ctx, &org.Contact{OrgID: ihe.ID, Name: "Dana Ruiz", Email: "dana@csus.edu"}))

	source := NewMockSource(ctrl)
	source.EXPECT().GetCycle(gomock.Any(), cycleID).Return(&cycle.GrantCycle{
		ID:                cycleID,
		Name:              "2026-27 Residency",
		ReportingDeadline: time.Date(2027, 8, 31, 0, 0, 0, 0, time.UTC),
	}, nil)
	source.EXPECT().GetOutstandingReports(gomock.Any(), cycleID).Return([]compliance.OutstandingReport{
		{CandidateName: "Ana Lopez", Type: report.TypeIHE, Org: ihe, Status: report.StatusDraft, DaysOverdue: 45, Critical: true},
		{CandidateName: "Ben Okafor", Type: report.TypeIHE, Org: ihe, Status: report.StatusRevisionsRequested, RevisionCount: 1},
		{CandidateName: "Ana Lopez", Type: report.TypeLEA, Org: lea, Status: report.StatusDraft, DaysOverdue: 45, Critical: true},
	}, nil)

	notices, err := NewService(source, dir).Build(ctx, cycleID)
	require.NoError(t, err)
	require.Len(t, notices, 2)

	first := notices[0]
	assert.Equal(t, ihe, first.Org)
	assert.Len(t, first.Reports, 2)
	assert.Equal(t, 1, first.Critical)
	require.Len(t, first.Contacts, 1)
	assert.Equal(t, "dana@csus.edu", first.Contacts[0].Email)
	assert.Equal(t, "CRITICAL [2026-27 Residency] 2 outstanding outcome reports", first.Subject)
	assert.Contains(t, first.Body, "Organization: CSU Sacramento (IHE)")
	assert.Contains(t, first.Body, "Reporting deadline: 2027-08-31")
	assert.Contains(t, first.Body, "* Ana Lopez | IHE report | draft | 45 days overdue | CRITICAL\n")
	assert.Contains(t, first.Body, "* Ben Okafor | IHE report | revisions_requested (revision 1)\n")

	second := notices[1]
	assert.Equal(t, lea, second.Org)
	assert.Empty(t, second.Contacts)
	assert.Equal(t, "CRITICAL [2026-27 Residency] 1 outstanding outcome report", second.Subject)
}

func TestService_Build_NothingOutstanding(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cycleID := uuid.New()

	source := NewMockSource(ctrl)
	source.EXPECT().GetCycle(gomock.Any(), cycleID).Return(&cycle.GrantCycle{ID: cycleID}, nil)
	source.EXPECT().GetOutstandingReports(gomock.Any(), cycleID).Return(nil, nil)

	notices, err := NewService(source, org.NewDirectory(memory.New())).Build(context.Background(), cycleID)
	require.NoError(t, err)
	assert.Empty(t, notices)
}
