// Package store is the PostgreSQL implementation of the workflow
// repositories. Ledger buckets live on the grant_cycles row, and every
// workflow transaction locks rows with SELECT ... FOR UPDATE: candidate
// first, then the cycle or report rows.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrJamesThe3rd/granttrack/internal/apperr"
	"github.com/MrJamesThe3rd/granttrack/internal/candidate"
	"github.com/MrJamesThe3rd/granttrack/internal/cycle"
	"github.com/MrJamesThe3rd/granttrack/internal/ledger"
	"github.com/MrJamesThe3rd/granttrack/internal/org"
	"github.com/MrJamesThe3rd/granttrack/internal/report"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Candidates returns the candidate workflow view of the store.
func (s *Store) Candidates() candidate.Repository { return candidateRepo{s} }

// Reports returns the report workflow view of the store.
func (s *Store) Reports() report.Repository { return reportRepo{s} }

type candidateRepo struct{ *Store }

func (r candidateRepo) Begin(ctx context.Context) (candidate.Tx, error) { return r.begin(ctx) }

type reportRepo struct{ *Store }

func (r reportRepo) Begin(ctx context.Context) (report.Tx, error) { return r.begin(ctx) }

const uniqueViolation = "23505"

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const selectCycleColumns = `
	id, name, appropriated, start_date, end_date, reporting_deadline, application_open, created_at
`

func scanCycle(s scanner) (*cycle.GrantCycle, error) {
	var c cycle.GrantCycle

	if err := s.Scan(
		&c.ID, &c.Name, &c.Appropriated, &c.StartDate, &c.EndDate,
		&c.ReportingDeadline, &c.ApplicationOpen, &c.CreatedAt,
	); err != nil {
		return nil, err
	}

	return &c, nil
}

func (s *Store) CreateCycle(ctx context.Context, c *cycle.GrantCycle) error {
	query := `
		INSERT INTO grant_cycles (name, appropriated, start_date, end_date, reporting_deadline, application_open, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		c.Name,
		c.Appropriated,
		c.StartDate,
		c.EndDate,
		c.ReportingDeadline,
		c.ApplicationOpen,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperr.Validation("name", "grant cycle %q already exists", c.Name)
		}

		return fmt.Errorf("creating grant cycle: %w", err)
	}

	return nil
}

func (s *Store) GetCycle(ctx context.Context, id uuid.UUID) (*cycle.GrantCycle, error) {
	query := `SELECT ` + selectCycleColumns + ` FROM grant_cycles WHERE id = $1`

	c, err := scanCycle(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("grant cycle", id)
		}

		return nil, fmt.Errorf("getting grant cycle: %w", err)
	}

	return c, nil
}

func (s *Store) FindCycleByName(ctx context.Context, name string) (*cycle.GrantCycle, error) {
	query := `SELECT ` + selectCycleColumns + ` FROM grant_cycles WHERE LOWER(name) = LOWER($1)`

	c, err := scanCycle(s.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("grant cycle", uuid.Nil)
		}

		return nil, fmt.Errorf("finding grant cycle: %w", err)
	}

	return c, nil
}

func (s *Store) ListCycles(ctx context.Context) ([]*cycle.GrantCycle, error) {
	query := `SELECT ` + selectCycleColumns + ` FROM grant_cycles ORDER BY start_date DESC, name ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing grant cycles: %w", err)
	}
	defer rows.Close()

	var cycles []*cycle.GrantCycle

	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning grant cycle: %w", err)
		}

		cycles = append(cycles, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating grant cycles: %w", err)
	}

	return cycles, nil
}

const selectBalance = `SELECT id, appropriated, reserved, encumbered, disbursed FROM grant_cycles WHERE id = $1`

func getBalance(ctx context.Context, q queryer, query string, cycleID uuid.UUID) (*ledger.Balance, error) {
	var b ledger.Balance

	err := q.QueryRowContext(ctx, query, cycleID).Scan(
		&b.CycleID, &b.Appropriated, &b.Reserved, &b.Encumbered, &b.Disbursed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("grant cycle", cycleID)
		}

		return nil, fmt.Errorf("reading ledger: %w", err)
	}

	return &b, nil
}

func (s *Store) GetBalance(ctx context.Context, cycleID uuid.UUID) (*ledger.Balance, error) {
	return getBalance(ctx, s.db, selectBalance, cycleID)
}

const selectApplicationColumns = `
	id, grant_cycle_id, ihe_id, ihe_name, lea_id, lea_name, status, created_at, updated_at
`

func scanApplication(s scanner) (*cycle.Application, error) {
	var a cycle.Application

	var status string

	if err := s.Scan(
		&a.ID, &a.GrantCycleID, &a.IHE.ID, &a.IHE.Name, &a.LEA.ID, &a.LEA.Name,
		&status, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}

	a.Status = cycle.ApplicationStatus(status)
	a.IHE.Kind = org.KindIHE
	a.LEA.Kind = org.KindLEA

	return &a, nil
}

func (s *Store) CreateApplication(ctx context.Context, a *cycle.Application) error {
	query := `
		INSERT INTO applications (grant_cycle_id, ihe_id, ihe_name, lea_id, lea_name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		a.GrantCycleID,
		a.IHE.ID,
		a.IHE.Name,
		a.LEA.ID,
		a.LEA.Name,
		a.Status,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating application: %w", err)
	}

	return nil
}

func (s *Store) GetApplication(ctx context.Context, id uuid.UUID) (*cycle.Application, error) {
	query := `SELECT ` + selectApplicationColumns + ` FROM applications WHERE id = $1`

	a, err := scanApplication(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("application", id)
		}

		return nil, fmt.Errorf("getting application: %w", err)
	}

	return a, nil
}

func (s *Store) ListApplications(ctx context.Context, cycleID uuid.UUID) ([]*cycle.Application, error) {
	query := `SELECT ` + selectApplicationColumns + `
		FROM applications
		WHERE grant_cycle_id = $1
		ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, cycleID)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	defer rows.Close()

	var apps []*cycle.Application

	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning application: %w", err)
		}

		apps = append(apps, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating applications: %w", err)
	}

	return apps, nil
}

func (s *Store) ListContacts(ctx context.Context, orgID uuid.UUID) ([]org.Contact, error) {
	query := `
		SELECT id, org_id, name, email, role
		FROM org_contacts
		WHERE org_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	defer rows.Close()

	contacts := []org.Contact{}

	for rows.Next() {
		var c org.Contact
		if err := rows.Scan(&c.ID, &c.OrgID, &c.Name, &c.Email, &c.Role); err != nil {
			return nil, fmt.Errorf("scanning contact: %w", err)
		}

		contacts = append(contacts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating contacts: %w", err)
	}

	return contacts, nil
}

func (s *Store) CreateContact(ctx context.Context, c *org.Contact) error {
	query := `
		INSERT INTO org_contacts (org_id, name, email, role, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id
	`

	if err := s.db.QueryRowContext(ctx, query, c.OrgID, c.Name, c.Email, c.Role).Scan(&c.ID); err != nil {
		return fmt.Errorf("creating contact: %w", err)
	}

	return nil
}
