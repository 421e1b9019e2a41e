package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/granttrack/internal/apperr"
	"github.com/MrJamesThe3rd/granttrack/internal/candidate"
	"github.com/MrJamesThe3rd/granttrack/internal/org"
)

const selectCandidateColumns = `
	id, application_id, grant_cycle_id, ihe_id, ihe_name, lea_id, lea_name,
	first_name, last_name, email, seid, credential_area, school_site, district_employee_id,
	submission_status, disbursement_status, reporting_status, award_amount,
	reviewer, rejection_reason, cancellation_reason,
	submitted_at, decided_at, agreement_signed_at, paid_at, completed_at,
	created_at, updated_at, version
`

func scanCandidate(s scanner) (*candidate.Candidate, error) {
	var (
		c     candidate.Candidate
		award sql.NullInt64
	)

	var submission, disbursement, reporting string

	if err := s.Scan(
		&c.ID, &c.ApplicationID, &c.GrantCycleID, &c.IHE.ID, &c.IHE.Name, &c.LEA.ID, &c.LEA.Name,
		&c.Fields.FirstName, &c.Fields.LastName, &c.Fields.Email, &c.Fields.SEID,
		&c.Fields.CredentialArea, &c.Fields.SchoolSite, &c.Fields.DistrictEmployeeID,
		&submission, &disbursement, &reporting, &award,
		&c.Reviewer, &c.RejectionReason, &c.CancellationReason,
		&c.SubmittedAt, &c.DecidedAt, &c.AgreementSignedAt, &c.PaidAt, &c.CompletedAt,
		&c.CreatedAt, &c.UpdatedAt, &c.Version,
	); err != nil {
		return nil, err
	}

	c.Submission = candidate.SubmissionStatus(submission)
	c.Disbursement = candidate.DisbursementStatus(disbursement)
	c.Reporting = candidate.ReportingStatus(reporting)
	c.IHE.Kind = org.KindIHE
	c.LEA.Kind = org.KindLEA

	if award.Valid {
		c.AwardAmount = &award.Int64
	}

	return &c, nil
}

func (s *Store) CreateCandidate(ctx context.Context, c *candidate.Candidate) error {
	return insertCandidate(ctx, s.db, c)
}

func insertCandidate(ctx context.Context, q queryer, c *candidate.Candidate) error {
	query := `
		INSERT INTO candidates (
			application_id, grant_cycle_id, ihe_id, ihe_name, lea_id, lea_name,
			first_name, last_name, email, seid, credential_area, school_site, district_employee_id,
			submission_status, created_at, updated_at, version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW(), 1)
		RETURNING id, created_at, updated_at, version
	`

	err := q.QueryRowContext(ctx, query,
		c.ApplicationID,
		c.GrantCycleID,
		c.IHE.ID,
		c.IHE.Name,
		c.LEA.ID,
		c.LEA.Name,
		c.Fields.FirstName,
		c.Fields.LastName,
		c.Fields.Email,
		c.Fields.SEID,
		c.Fields.CredentialArea,
		c.Fields.SchoolSite,
		c.Fields.DistrictEmployeeID,
		string(c.Submission),
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt, &c.Version)
	if err != nil {
		return fmt.Errorf("creating candidate: %w", err)
	}

	return nil
}

func getCandidate(ctx context.Context, q queryer, query string, id uuid.UUID) (*candidate.Candidate, error) {
	c, err := scanCandidate(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("candidate", id)
		}

		return nil, fmt.Errorf("getting candidate: %w", err)
	}

	return c, nil
}

func (s *Store) GetCandidate(ctx context.Context, id uuid.UUID) (*candidate.Candidate, error) {
	return getCandidate(ctx, s.db, `SELECT `+selectCandidateColumns+` FROM candidates WHERE id = $1`, id)
}

func (s *Store) ListCandidates(ctx context.Context, filter candidate.ListFilter) ([]*candidate.Candidate, error) {
	query := `SELECT ` + selectCandidateColumns + ` FROM candidates WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.GrantCycleID != nil {
		query += fmt.Sprintf(" AND grant_cycle_id = $%d", argIdx)

		args = append(args, *filter.GrantCycleID)
		argIdx++
	}

	if filter.ApplicationID != nil {
		query += fmt.Sprintf(" AND application_id = $%d", argIdx)

		args = append(args, *filter.ApplicationID)
		argIdx++
	}

	if filter.Submission != nil {
		query += fmt.Sprintf(" AND submission_status = $%d", argIdx)

		args = append(args, string(*filter.Submission))
	}

	query += " ORDER BY created_at ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing candidates: %w", err)
	}
	defer rows.Close()

	var out []*candidate.Candidate

	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}

		out = append(out, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating candidates: %w", err)
	}

	return out, nil
}

const updateCandidate = `
	UPDATE candidates SET
		first_name = $1, last_name = $2, email = $3, seid = $4, credential_area = $5,
		school_site = $6, district_employee_id = $7,
		submission_status = $8, disbursement_status = $9, reporting_status = $10, award_amount = $11,
		reviewer = $12, rejection_reason = $13, cancellation_reason = $14,
		submitted_at = $15, decided_at = $16, agreement_signed_at = $17, paid_at = $18, completed_at = $19,
		updated_at = NOW(), version = version + 1
	WHERE id = $20 AND version = $21
	RETURNING updated_at, version
`

func saveCandidate(ctx context.Context, q queryer, c *candidate.Candidate) error {
	var award sql.NullInt64
	if c.AwardAmount != nil {
		award = sql.NullInt64{Int64: *c.AwardAmount, Valid: true}
	}

	err := q.QueryRowContext(ctx, updateCandidate,
		c.Fields.FirstName,
		c.Fields.LastName,
		c.Fields.Email,
		c.Fields.SEID,
		c.Fields.CredentialArea,
		c.Fields.SchoolSite,
		c.Fields.DistrictEmployeeID,
		string(c.Submission),
		string(c.Disbursement),
		string(c.Reporting),
		award,
		c.Reviewer,
		c.RejectionReason,
		c.CancellationReason,
		c.SubmittedAt,
		c.DecidedAt,
		c.AgreementSignedAt,
		c.PaidAt,
		c.CompletedAt,
		c.ID,
		c.Version,
	).Scan(&c.UpdatedAt, &c.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The row exists (it was locked), so a miss means a stale version.
			return apperr.Conflict("candidate", c.ID)
		}

		return fmt.Errorf("updating candidate: %w", err)
	}

	return nil
}
