package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/granttrack/internal/apperr"
	"github.com/MrJamesThe3rd/granttrack/internal/report"
)

const selectReportColumns = `
	id, candidate_id, application_id, grant_cycle_id, type, status, revision_count, is_locked,
	reviewer, review_notes, payload, submitted_at, reviewed_at, created_at, updated_at, version
`

func scanReport(s scanner) (*report.Report, error) {
	var (
		r           report.Report
		typ, status string
		payload     []byte
	)

	if err := s.Scan(
		&r.ID, &r.CandidateID, &r.ApplicationID, &r.GrantCycleID, &typ, &status,
		&r.RevisionCount, &r.IsLocked, &r.Reviewer, &r.ReviewNotes, &payload,
		&r.SubmittedAt, &r.ReviewedAt, &r.CreatedAt, &r.UpdatedAt, &r.Version,
	); err != nil {
		return nil, err
	}

	r.Type = report.Type(typ)
	r.Status = report.Status(status)
	r.Payload = map[string]string{}

	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &r.Payload); err != nil {
			return nil, fmt.Errorf("decoding payload of report %s: %w", r.ID, err)
		}
	}

	return &r, nil
}

func encodePayload(p map[string]string) ([]byte, error) {
	if p == nil {
		p = map[string]string{}
	}

	return json.Marshal(p)
}

func getReport(ctx context.Context, q queryer, query string, id uuid.UUID) (*report.Report, error) {
	r, err := scanReport(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("report", id)
		}

		return nil, fmt.Errorf("getting report: %w", err)
	}

	return r, nil
}

func (s *Store) GetReport(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	return getReport(ctx, s.db, `SELECT `+selectReportColumns+` FROM reports WHERE id = $1`, id)
}

func (s *Store) ListReports(ctx context.Context, filter report.ListFilter) ([]*report.Report, error) {
	return listReports(ctx, s.db, filter)
}

func listReports(ctx context.Context, q queryer, filter report.ListFilter) ([]*report.Report, error) {
	query := `SELECT ` + selectReportColumns + ` FROM reports WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.GrantCycleID != nil {
		query += fmt.Sprintf(" AND grant_cycle_id = $%d", argIdx)

		args = append(args, *filter.GrantCycleID)
		argIdx++
	}

	if filter.CandidateID != nil {
		query += fmt.Sprintf(" AND candidate_id = $%d", argIdx)

		args = append(args, *filter.CandidateID)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)

		args = append(args, string(*filter.Status))
	}

	query += " ORDER BY created_at ASC, type ASC"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	var out []*report.Report

	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}

		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reports: %w", err)
	}

	return out, nil
}

const insertReport = `
	INSERT INTO reports (candidate_id, application_id, grant_cycle_id, type, status, payload, created_at, updated_at, version)
	VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW(), 1)
	RETURNING id, created_at, updated_at, version
`

func createReport(ctx context.Context, q queryer, r *report.Report) error {
	payload, err := encodePayload(r.Payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	err = q.QueryRowContext(ctx, insertReport,
		r.CandidateID,
		r.ApplicationID,
		r.GrantCycleID,
		string(r.Type),
		string(r.Status),
		payload,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt, &r.Version)
	if err != nil {
		return fmt.Errorf("creating %s report: %w", r.Type, err)
	}

	return nil
}

const updateReport = `
	UPDATE reports SET
		status = $1, revision_count = $2, is_locked = $3, reviewer = $4, review_notes = $5,
		payload = $6, submitted_at = $7, reviewed_at = $8,
		updated_at = NOW(), version = version + 1
	WHERE id = $9 AND version = $10
	RETURNING updated_at, version
`

func saveReport(ctx context.Context, q queryer, r *report.Report) error {
	payload, err := encodePayload(r.Payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	err = q.QueryRowContext(ctx, updateReport,
		string(r.Status),
		r.RevisionCount,
		r.IsLocked,
		r.Reviewer,
		r.ReviewNotes,
		payload,
		r.SubmittedAt,
		r.ReviewedAt,
		r.ID,
		r.Version,
	).Scan(&r.UpdatedAt, &r.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.Conflict("report", r.ID)
		}

		return fmt.Errorf("updating report: %w", err)
	}

	return nil
}
