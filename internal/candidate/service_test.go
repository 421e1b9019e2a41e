package candidate_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/granttrack/internal/apperr"
	"github.com/MrJamesThe3rd/granttrack/internal/candidate"
	"github.com/MrJamesThe3rd/granttrack/internal/ledger"
)

var fixedNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func completeFields() candidate.Fields {
	return candidate.Fields{
		FirstName:          "Ada",
		LastName:           "Lovelace",
		Email:              "ada@example.edu",
		SEID:               "1234567",
		CredentialArea:     "Mathematics",
		SchoolSite:         "Lincoln High",
		DistrictEmployeeID: "E-100",
	}
}

func TestService_CreateDraft(t *testing.T) {
	type testCase struct {
		name      string
		fields    candidate.Fields
		setupMock func(m *candidate.MockRepository)
		wantErr   bool
	}

	tests := []testCase{
		{
			name:   "Success",
			fields: candidate.Fields{FirstName: " Ada ", LastName: "Lovelace", Email: "ADA@Example.edu"},
			setupMock: func(m *candidate.MockRepository) {
				m.EXPECT().
					CreateCandidate(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, c *candidate.Candidate) error {
						c.ID = uuid.New()
						return nil
					})
			},
		},
		{
			name:    "MissingName",
			fields:  candidate.Fields{FirstName: "Ada"},
			wantErr: true,
		},
		{
			name:    "MalformedSEID",
			fields:  candidate.Fields{FirstName: "Ada", LastName: "Lovelace", SEID: "12ab"},
			wantErr: true,
		},
		{
			name:   "RepoError",
			fields: candidate.Fields{FirstName: "Ada", LastName: "Lovelace"},
			setupMock: func(m *candidate.MockRepository) {
				m.EXPECT().
					CreateCandidate(gomock.Any(), gomock.Any()).
					Return(errors.New("db error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := candidate.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := candidate.NewService(repo)
			got, err := svc.CreateDraft(context.Background(), candidate.DraftParams{Fields: tt.fields})

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, candidate.SubmissionDraft, got.Submission)
			assert.Equal(t, "Ada", got.Fields.FirstName)
			assert.Equal(t, "ada@example.edu", got.Fields.Email)
		})
	}
}

func TestService_CreateDrafts(t *testing.T) {
	type testCase struct {
		name      string
		batch     []candidate.Fields
		setupMock func(repo *candidate.MockRepository, tx *candidate.MockTx)
		wantErr   bool
	}

	assign := func(_ context.Context, c *candidate.Candidate) error {
		c.ID = uuid.New()
		return nil
	}

	tests := []testCase{
		{
			name: "Success",
			batch: []candidate.Fields{
				{FirstName: "Ada", LastName: "Lovelace"},
				{FirstName: "Grace", LastName: "Hopper"},
			},
			setupMock: func(repo *candidate.MockRepository, tx *candidate.MockTx) {
				repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
				tx.EXPECT().CreateCandidate(gomock.Any(), gomock.Any()).DoAndReturn(assign).Times(2)
				tx.EXPECT().Commit().Return(nil)
				tx.EXPECT().Rollback().Return(nil)
			},
		},
		{
			name: "InvalidEntryCreatesNothing",
			batch: []candidate.Fields{
				{FirstName: "Ada", LastName: "Lovelace"},
				{FirstName: "Grace"},
			},
			wantErr: true,
		},
		{
			name: "InsertFailureRollsBack",
			batch: []candidate.Fields{
				{FirstName: "Ada", LastName: "Lovelace"},
				{FirstName: "Grace", LastName: "Hopper"},
			},
			setupMock: func(repo *candidate.MockRepository, tx *candidate.MockTx) {
				repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
				gomock.InOrder(
					tx.EXPECT().CreateCandidate(gomock.Any(), gomock.Any()).DoAndReturn(assign),
					tx.EXPECT().CreateCandidate(gomock.Any(), gomock.Any()).Return(errors.New("db error")),
				)
				tx.EXPECT().Rollback().Return(nil)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := candidate.NewMockRepository(ctrl)
			tx := candidate.NewMockTx(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo, tx)
			}

			batch := make([]candidate.DraftParams, len(tt.batch))
			for i, f := range tt.batch {
				batch[i] = candidate.DraftParams{Fields: f}
			}

			svc := candidate.NewService(repo)
			got, err := svc.CreateDrafts(context.Background(), batch)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, candidate.SubmissionDraft, got[1].Submission)
			assert.Equal(t, "Hopper", got[1].Fields.LastName)
		})
	}
}

func TestService_Approve(t *testing.T) {
	cycleID := uuid.New()

	type testCase struct {
		name        string
		submission  candidate.SubmissionStatus
		amount      int64
		skipReview  bool
		balance     ledger.Balance
		expectSave  bool
		wantErr     func(t *testing.T, err error)
		wantReserve int64
	}

	tests := []testCase{
		{
			name:        "FromUnderReview",
			submission:  candidate.SubmissionUnderReview,
			amount:      10_000,
			balance:     ledger.Balance{CycleID: cycleID, Appropriated: 100_000},
			expectSave:  true,
			wantReserve: 10_000,
		},
		{
			name:        "FromSubmittedWithReviewSkip",
			submission:  candidate.SubmissionSubmitted,
			amount:      10_000,
			skipReview:  true,
			balance:     ledger.Balance{CycleID: cycleID, Appropriated: 100_000},
			expectSave:  true,
			wantReserve: 10_000,
		},
		{
			name:       "InsufficientFunds",
			submission: candidate.SubmissionUnderReview,
			amount:     60_000,
			balance:    ledger.Balance{CycleID: cycleID, Appropriated: 100_000, Reserved: 50_000},
			wantErr: func(t *testing.T, err error) {
				var insufficient *apperr.InsufficientFundsError
				require.ErrorAs(t, err, &insufficient)
				assert.Equal(t, int64(50_000), insufficient.Remaining)
				assert.Equal(t, int64(60_000), insufficient.Requested)
			},
		},
		{
			name:       "FromSubmittedWithoutReviewSkip",
			submission: candidate.SubmissionSubmitted,
			amount:     10_000,
			wantErr: func(t *testing.T, err error) {
				var invalid *apperr.InvalidStateTransitionError
				require.ErrorAs(t, err, &invalid)
			},
		},
		{
			name:       "FromDraft",
			submission: candidate.SubmissionDraft,
			amount:     10_000,
			wantErr: func(t *testing.T, err error) {
				var invalid *apperr.InvalidStateTransitionError
				require.ErrorAs(t, err, &invalid)
				assert.Equal(t, "draft", invalid.From)
			},
		},
		{
			name:       "NonPositiveAmount",
			submission: candidate.SubmissionUnderReview,
			amount:     0,
			wantErr: func(t *testing.T, err error) {
				var validation *apperr.ValidationError
				require.ErrorAs(t, err, &validation)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := candidate.NewMockRepository(ctrl)
			tx := candidate.NewMockTx(ctrl)

			c := &candidate.Candidate{
				ID:           uuid.New(),
				GrantCycleID: cycleID,
				Submission:   tt.submission,
				Version:      3,
			}
			bal := tt.balance

			repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
			tx.EXPECT().GetCandidateForUpdate(gomock.Any(), c.ID).Return(c, nil)
			tx.EXPECT().Rollback().Return(nil)

			if tt.balance.CycleID != uuid.Nil {
				tx.EXPECT().LockBalance(gomock.Any(), cycleID).Return(&bal, nil)
			}

			if tt.expectSave {
				tx.EXPECT().SaveBalance(gomock.Any(), &bal).Return(nil)
				tx.EXPECT().UpdateCandidate(gomock.Any(), c).Return(nil)
				tx.EXPECT().Commit().Return(nil)
			}

			svc := candidate.NewService(repo, candidate.WithReviewSkip(tt.skipReview), candidate.WithClock(clock))
			got, err := svc.Approve(context.Background(), c.ID, tt.amount)

			if tt.wantErr != nil {
				tt.wantErr(t, err)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, candidate.SubmissionApproved, got.Submission)
			assert.Equal(t, candidate.DisbursementAwardPending, got.Disbursement)
			require.NotNil(t, got.AwardAmount)
			assert.Equal(t, tt.amount, *got.AwardAmount)
			assert.Equal(t, tt.wantReserve, bal.Reserved)
			assert.Equal(t, fixedNow, *got.DecidedAt)
		})
	}
}

func TestService_RecordAgreementSigned_PromotesReservation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := candidate.NewMockRepository(ctrl)
	tx := candidate.NewMockTx(ctrl)
	svc := candidate.NewService(repo, candidate.WithClock(clock))

	award := int64(10_000)
	c := &candidate.Candidate{
		ID:           uuid.New(),
		GrantCycleID: uuid.New(),
		Submission:   candidate.SubmissionApproved,
		Disbursement: candidate.DisbursementAgreementSent,
		AwardAmount:  &award,
	}
	bal := &ledger.Balance{CycleID: c.GrantCycleID, Appropriated: 20_000, Reserved: 10_000}

	repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	tx.EXPECT().GetCandidateForUpdate(gomock.Any(), c.ID).Return(c, nil)
	tx.EXPECT().LockBalance(gomock.Any(), c.GrantCycleID).Return(bal, nil)
	tx.EXPECT().SaveBalance(gomock.Any(), bal).Return(nil)
	tx.EXPECT().UpdateCandidate(gomock.Any(), c).Return(nil)
	tx.EXPECT().Commit().Return(nil)
	tx.EXPECT().Rollback().Return(nil)

	got, err := svc.RecordAgreementSigned(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, candidate.DisbursementAgreementSigned, got.Disbursement)
	assert.Equal(t, int64(0), bal.Reserved)
	assert.Equal(t, int64(10_000), bal.Encumbered)
}

func TestService_RecordAgreementSigned_LedgerDriftRollsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := candidate.NewMockRepository(ctrl)
	tx := candidate.NewMockTx(ctrl)
	svc := candidate.NewService(repo)

	award := int64(10_000)
	c := &candidate.Candidate{
		ID:           uuid.New(),
		GrantCycleID: uuid.New(),
		Submission:   candidate.SubmissionApproved,
		Disbursement: candidate.DisbursementAgreementSent,
		AwardAmount:  &award,
	}
	bal := &ledger.Balance{CycleID: c.GrantCycleID, Appropriated: 20_000}

	repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	tx.EXPECT().GetCandidateForUpdate(gomock.Any(), c.ID).Return(c, nil)
	tx.EXPECT().LockBalance(gomock.Any(), c.GrantCycleID).Return(bal, nil)
	tx.EXPECT().Rollback().Return(nil)

	_, err := svc.RecordAgreementSigned(context.Background(), c.ID)
	require.ErrorIs(t, err, ledger.ErrInvariant)
}

func TestService_RecordPaymentComplete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := candidate.NewMockRepository(ctrl)
	tx := candidate.NewMockTx(ctrl)
	svc := candidate.NewService(repo, candidate.WithClock(clock))

	award := int64(10_000)
	c := &candidate.Candidate{
		ID:           uuid.New(),
		GrantCycleID: uuid.New(),
		Submission:   candidate.SubmissionApproved,
		Disbursement: candidate.DisbursementInvoiceGenerated,
		AwardAmount:  &award,
	}
	bal := &ledger.Balance{CycleID: c.GrantCycleID, Appropriated: 20_000, Encumbered: 10_000}

	repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	tx.EXPECT().GetCandidateForUpdate(gomock.Any(), c.ID).Return(c, nil)
	tx.EXPECT().LockBalance(gomock.Any(), c.GrantCycleID).Return(bal, nil)
	tx.EXPECT().SaveBalance(gomock.Any(), bal).Return(nil)
	tx.EXPECT().OpenReports(gomock.Any(), c).Return(nil)
	tx.EXPECT().UpdateCandidate(gomock.Any(), c).Return(nil)
	tx.EXPECT().Commit().Return(nil)
	tx.EXPECT().Rollback().Return(nil)

	got, recorded, err := svc.RecordPaymentComplete(context.Background(), c.ID)
	require.NoError(t, err)
	assert.True(t, recorded)
	assert.Equal(t, candidate.DisbursementPaymentComplete, got.Disbursement)
	assert.Equal(t, candidate.ReportingNotStarted, got.Reporting)
	assert.Equal(t, int64(10_000), bal.Disbursed)
	assert.Equal(t, int64(0), bal.Encumbered)
}

func TestService_RecordPaymentComplete_ReplayIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := candidate.NewMockRepository(ctrl)
	tx := candidate.NewMockTx(ctrl)
	svc := candidate.NewService(repo)

	award := int64(10_000)
	c := &candidate.Candidate{
		ID:           uuid.New(),
		GrantCycleID: uuid.New(),
		Submission:   candidate.SubmissionApproved,
		Disbursement: candidate.DisbursementPaymentComplete,
		Reporting:    candidate.ReportingInProgress,
		AwardAmount:  &award,
	}

	// No ledger access, no update, no commit.
	repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	tx.EXPECT().GetCandidateForUpdate(gomock.Any(), c.ID).Return(c, nil)
	tx.EXPECT().Rollback().Return(nil)

	got, recorded, err := svc.RecordPaymentComplete(context.Background(), c.ID)
	require.NoError(t, err)
	assert.False(t, recorded)
	assert.Equal(t, candidate.DisbursementPaymentComplete, got.Disbursement)
	assert.Equal(t, candidate.ReportingInProgress, got.Reporting)
}

func TestService_RequestDistrictInfo(t *testing.T) {
	type testCase struct {
		name       string
		fields     candidate.Fields
		wantErr    bool
		wantFields string
	}

	tests := []testCase{
		{
			name:   "Success",
			fields: candidate.Fields{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.edu", CredentialArea: "Mathematics"},
		},
		{
			name:       "MissingIdentity",
			fields:     candidate.Fields{FirstName: "Ada", LastName: "Lovelace"},
			wantErr:    true,
			wantFields: "email,credential_area",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := candidate.NewMockRepository(ctrl)
			tx := candidate.NewMockTx(ctrl)
			svc := candidate.NewService(repo)

			c := &candidate.Candidate{ID: uuid.New(), Submission: candidate.SubmissionDraft, Fields: tt.fields}

			repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
			tx.EXPECT().GetCandidateForUpdate(gomock.Any(), c.ID).Return(c, nil)
			tx.EXPECT().Rollback().Return(nil)

			if !tt.wantErr {
				tx.EXPECT().UpdateCandidate(gomock.Any(), c).Return(nil)
				tx.EXPECT().Commit().Return(nil)
			}

			got, err := svc.RequestDistrictInfo(context.Background(), c.ID)
			if tt.wantErr {
				var validation *apperr.ValidationError
				require.ErrorAs(t, err, &validation)
				assert.Equal(t, tt.wantFields, validation.Field)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, candidate.SubmissionPendingDistrictInfo, got.Submission)
		})
	}
}

func TestService_Submit_RequiresFields(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := candidate.NewMockRepository(ctrl)
	tx := candidate.NewMockTx(ctrl)
	svc := candidate.NewService(repo)

	fields := completeFields()
	fields.SchoolSite = ""
	c := &candidate.Candidate{ID: uuid.New(), Submission: candidate.SubmissionPendingDistrictInfo, Fields: fields}

	repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	tx.EXPECT().GetCandidateForUpdate(gomock.Any(), c.ID).Return(c, nil)
	tx.EXPECT().Rollback().Return(nil)

	_, err := svc.Submit(context.Background(), c.ID)

	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "school_site", validation.Field)
}

func TestService_UpdateDraft_StaleVersion(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := candidate.NewMockRepository(ctrl)
	tx := candidate.NewMockTx(ctrl)
	svc := candidate.NewService(repo)

	c := &candidate.Candidate{ID: uuid.New(), Submission: candidate.SubmissionDraft, Version: 4}

	repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	tx.EXPECT().GetCandidateForUpdate(gomock.Any(), c.ID).Return(c, nil)
	tx.EXPECT().Rollback().Return(nil)

	_, err := svc.UpdateDraft(context.Background(), c.ID, 3, completeFields())

	var conflict *apperr.ConcurrencyConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestService_InvalidTransitions(t *testing.T) {
	award := int64(500)

	type testCase struct {
		name      string
		candidate candidate.Candidate
		call      func(svc *candidate.Service, id uuid.UUID) error
	}

	tests := []testCase{
		{
			name:      "SubmitRejected",
			candidate: candidate.Candidate{Submission: candidate.SubmissionRejected, Fields: completeFields()},
			call: func(svc *candidate.Service, id uuid.UUID) error {
				_, err := svc.Submit(context.Background(), id)
				return err
			},
		},
		{
			name:      "RejectDraft",
			candidate: candidate.Candidate{Submission: candidate.SubmissionDraft},
			call: func(svc *candidate.Service, id uuid.UUID) error {
				_, err := svc.Reject(context.Background(), id, "incomplete")
				return err
			},
		},
		{
			name:      "RejectApproved",
			candidate: candidate.Candidate{Submission: candidate.SubmissionApproved, Disbursement: candidate.DisbursementAwardPending},
			call: func(svc *candidate.Service, id uuid.UUID) error {
				_, err := svc.Reject(context.Background(), id, "changed mind")
				return err
			},
		},
		{
			name:      "AgreementSentBeforeApproval",
			candidate: candidate.Candidate{Submission: candidate.SubmissionUnderReview},
			call: func(svc *candidate.Service, id uuid.UUID) error {
				_, err := svc.RecordAgreementSent(context.Background(), id)
				return err
			},
		},
		{
			name: "SignBeforeSent",
			candidate: candidate.Candidate{
				Submission: candidate.SubmissionApproved, Disbursement: candidate.DisbursementAwardPending, AwardAmount: &award,
			},
			call: func(svc *candidate.Service, id uuid.UUID) error {
				_, err := svc.RecordAgreementSigned(context.Background(), id)
				return err
			},
		},
		{
			name: "PaymentBeforeInvoice",
			candidate: candidate.Candidate{
				Submission: candidate.SubmissionApproved, Disbursement: candidate.DisbursementAgreementSigned, AwardAmount: &award,
			},
			call: func(svc *candidate.Service, id uuid.UUID) error {
				_, _, err := svc.RecordPaymentComplete(context.Background(), id)
				return err
			},
		},
		{
			name: "CancelAfterSigning",
			candidate: candidate.Candidate{
				Submission: candidate.SubmissionApproved, Disbursement: candidate.DisbursementAgreementSigned, AwardAmount: &award,
			},
			call: func(svc *candidate.Service, id uuid.UUID) error {
				_, err := svc.CancelAward(context.Background(), id, "withdrew")
				return err
			},
		},
		{
			name:      "BeginReviewTwice",
			candidate: candidate.Candidate{Submission: candidate.SubmissionUnderReview},
			call: func(svc *candidate.Service, id uuid.UUID) error {
				_, err := svc.BeginReview(context.Background(), id, "reviewer")
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := candidate.NewMockRepository(ctrl)
			tx := candidate.NewMockTx(ctrl)
			svc := candidate.NewService(repo)

			c := tt.candidate
			c.ID = uuid.New()
			before := c

			repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
			tx.EXPECT().GetCandidateForUpdate(gomock.Any(), c.ID).Return(&c, nil)
			tx.EXPECT().Rollback().Return(nil)

			err := tt.call(svc, c.ID)

			var invalid *apperr.InvalidStateTransitionError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, before.Submission, c.Submission)
			assert.Equal(t, before.Disbursement, c.Disbursement)
		})
	}
}

func TestCandidate_Stage(t *testing.T) {
	tests := []struct {
		name string
		c    candidate.Candidate
		want candidate.Stage
	}{
		{"Draft", candidate.Candidate{Submission: candidate.SubmissionDraft}, candidate.StageSubmission},
		{"PendingDistrict", candidate.Candidate{Submission: candidate.SubmissionPendingDistrictInfo}, candidate.StageSubmission},
		{"UnderReview", candidate.Candidate{Submission: candidate.SubmissionUnderReview}, candidate.StageReview},
		{"Rejected", candidate.Candidate{Submission: candidate.SubmissionRejected}, candidate.StageRejected},
		{
			"AwardPending",
			candidate.Candidate{Submission: candidate.SubmissionApproved, Disbursement: candidate.DisbursementAwardPending},
			candidate.StageDisbursement,
		},
		{
			"Cancelled",
			candidate.Candidate{Submission: candidate.SubmissionApproved, Disbursement: candidate.DisbursementAwardCancelled},
			candidate.StageCancelled,
		},
		{
			"Reporting",
			candidate.Candidate{
				Submission: candidate.SubmissionApproved, Disbursement: candidate.DisbursementPaymentComplete,
				Reporting: candidate.ReportingInProgress,
			},
			candidate.StageReporting,
		},
		{
			"Complete",
			candidate.Candidate{
				Submission: candidate.SubmissionApproved, Disbursement: candidate.DisbursementPaymentComplete,
				Reporting: candidate.ReportingApproved,
			},
			candidate.StageComplete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.Stage())
		})
	}
}

func TestCandidate_AdvanceReporting(t *testing.T) {
	c := candidate.Candidate{
		ID:           uuid.New(),
		Submission:   candidate.SubmissionApproved,
		Disbursement: candidate.DisbursementPaymentComplete,
		Reporting:    candidate.ReportingNotStarted,
	}

	require.NoError(t, c.AdvanceReporting(candidate.ReportingSubmitted, fixedNow))
	assert.Equal(t, candidate.ReportingSubmitted, c.Reporting)

	// Moving backwards is ignored.
	require.NoError(t, c.AdvanceReporting(candidate.ReportingInProgress, fixedNow))
	assert.Equal(t, candidate.ReportingSubmitted, c.Reporting)
	assert.Nil(t, c.CompletedAt)

	require.NoError(t, c.AdvanceReporting(candidate.ReportingApproved, fixedNow))
	assert.True(t, c.Complete())
	assert.Equal(t, fixedNow, *c.CompletedAt)

	unpaid := candidate.Candidate{Submission: candidate.SubmissionApproved, Disbursement: candidate.DisbursementAwardPending}

	var invalid *apperr.InvalidStateTransitionError
	require.ErrorAs(t, unpaid.AdvanceReporting(candidate.ReportingInProgress, fixedNow), &invalid)
}
