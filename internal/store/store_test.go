package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/granttrack/internal/apperr"
	"github.com/MrJamesThe3rd/granttrack/internal/candidate"
	"github.com/MrJamesThe3rd/granttrack/internal/cycle"
	"github.com/MrJamesThe3rd/granttrack/internal/ledger"
	"github.com/MrJamesThe3rd/granttrack/internal/report"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	return New(db), mock
}

var reportColumns = []string{
	"id", "candidate_id", "application_id", "grant_cycle_id", "type", "status", "revision_count", "is_locked",
	"reviewer", "review_notes", "payload", "submitted_at", "reviewed_at", "created_at", "updated_at", "version",
}

func TestStore_GetCycle_NotFound(t *testing.T) {
	s, mock := newMock(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM grant_cycles WHERE id = $1`)).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetCycle(context.Background(), id)

	var nf *apperr.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "grant cycle", nf.Entity)
}

func TestStore_CreateCycle_DuplicateName(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO grant_cycles`)).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := s.CreateCycle(context.Background(), &cycle.GrantCycle{Name: "2027-28", Appropriated: 100})

	var v *apperr.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "name", v.Field)
}

func TestStore_LedgerRoundTripInsideTx(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()
	cycleID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM grant_cycles WHERE id = $1 FOR UPDATE`)).
		WithArgs(cycleID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "appropriated", "reserved", "encumbered", "disbursed"}).
			AddRow(cycleID.String(), 10000, 2000, 0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE grant_cycles`)).
		WithArgs(int64(5000), int64(0), int64(0), cycleID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := s.Candidates().Begin(ctx)
	require.NoError(t, err)

	defer tx.Rollback()

	b, err := tx.LockBalance(ctx, cycleID)
	require.NoError(t, err)
	assert.Equal(t, int64(8000), b.Remaining())

	require.True(t, b.TryReserve(3000))
	require.NoError(t, tx.SaveBalance(ctx, b))
	require.NoError(t, tx.Commit())
}

func TestStore_SaveBalance_RequiresLock(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectRollback()

	tx, err := s.Candidates().Begin(ctx)
	require.NoError(t, err)

	err = tx.SaveBalance(ctx, &ledger.Balance{CycleID: uuid.New(), Appropriated: 100})
	require.Error(t, err)

	require.NoError(t, tx.Rollback())
}

func TestStore_SaveBalance_RejectsOvercommit(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()
	cycleID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "appropriated", "reserved", "encumbered", "disbursed"}).
			AddRow(cycleID.String(), 100, 0, 0, 0))
	mock.ExpectRollback()

	tx, err := s.Candidates().Begin(ctx)
	require.NoError(t, err)

	b, err := tx.LockBalance(ctx, cycleID)
	require.NoError(t, err)

	b.Reserved = 500

	err = tx.SaveBalance(ctx, b)
	assert.True(t, errors.Is(err, ledger.ErrInvariant))

	require.NoError(t, tx.Rollback())
}

func TestStore_UpdateCandidate_StaleVersion(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE candidates SET`)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	tx, err := s.Candidates().Begin(ctx)
	require.NoError(t, err)

	c := &candidate.Candidate{ID: uuid.New(), Submission: candidate.SubmissionDraft, Version: 3}
	err = tx.UpdateCandidate(ctx, c)

	var conflict *apperr.ConcurrencyConflictError
	require.ErrorAs(t, err, &conflict)

	require.NoError(t, tx.Rollback())
}

func TestStore_GetReport_DecodesPayload(t *testing.T) {
	s, mock := newMock(t)
	id := uuid.New()
	now := time.Date(2027, 9, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM reports WHERE id = $1`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(reportColumns).AddRow(
			id.String(), uuid.NewString(), uuid.NewString(), uuid.NewString(), "lea", "revisions_requested", 1, false,
			"reviewer@ctc.ca.gov", "hire date missing", []byte(`{"school_site":"Lincoln Elementary"}`),
			now, now, now, now, 4,
		))

	r, err := s.GetReport(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, report.TypeLEA, r.Type)
	assert.Equal(t, report.StatusRevisionsRequested, r.Status)
	assert.Equal(t, 1, r.RevisionCount)
	assert.Equal(t, "Lincoln Elementary", r.Payload["school_site"])
	assert.Equal(t, int64(4), r.Version)
}

func TestStore_OpenReports_InsertsPair(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()
	now := time.Now()

	c := &candidate.Candidate{ID: uuid.New(), ApplicationID: uuid.New(), GrantCycleID: uuid.New()}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM reports WHERE TRUE AND candidate_id = $1`)).
		WithArgs(c.ID).
		WillReturnRows(sqlmock.NewRows(reportColumns))

	for _, typ := range []string{"ihe", "lea"} {
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO reports`)).
			WithArgs(c.ID, c.ApplicationID, c.GrantCycleID, typ, "draft", []byte(`{}`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at", "version"}).
				AddRow(uuid.NewString(), now, now, 1))
	}

	mock.ExpectCommit()

	tx, err := s.Candidates().Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, tx.OpenReports(ctx, c))
	require.NoError(t, tx.Commit())
}

func TestStore_CreateCandidateInsideTx_RollsBackOnFailure(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()
	now := time.Now()

	first := &candidate.Candidate{
		ApplicationID: uuid.New(),
		GrantCycleID:  uuid.New(),
		Fields:        candidate.Fields{FirstName: "Ada", LastName: "Lovelace"},
		Submission:    candidate.SubmissionDraft,
	}
	second := *first
	second.Fields.FirstName = "Grace"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO candidates`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at", "version"}).
			AddRow(uuid.NewString(), now, now, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO candidates`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	tx, err := s.Candidates().Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, tx.CreateCandidate(ctx, first))
	assert.Equal(t, int64(1), first.Version)

	require.Error(t, tx.CreateCandidate(ctx, &second))
	require.NoError(t, tx.Rollback())
}

func TestStore_ListCandidates_Filters(t *testing.T) {
	s, mock := newMock(t)
	cycleID := uuid.New()
	status := candidate.SubmissionSubmitted

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE TRUE AND grant_cycle_id = $1 AND submission_status = $2`)).
		WithArgs(cycleID, "submitted").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	got, err := s.ListCandidates(context.Background(), candidate.ListFilter{
		GrantCycleID: &cycleID,
		Submission:   &status,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}
