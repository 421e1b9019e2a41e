package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/granttrack/internal/candidate"
	"github.com/MrJamesThe3rd/granttrack/internal/ledger"
	"github.com/MrJamesThe3rd/granttrack/internal/report"
)

// pgTx implements candidate.Tx and report.Tx over one database transaction.
// Row locks are taken with FOR UPDATE and held until Commit or Rollback.
type pgTx struct {
	tx     *sql.Tx
	locked map[uuid.UUID]bool
}

func (s *Store) begin(ctx context.Context) (*pgTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	return &pgTx{tx: tx, locked: make(map[uuid.UUID]bool)}, nil
}

func (t *pgTx) CreateCandidate(ctx context.Context, c *candidate.Candidate) error {
	return insertCandidate(ctx, t.tx, c)
}

func (t *pgTx) GetCandidateForUpdate(ctx context.Context, id uuid.UUID) (*candidate.Candidate, error) {
	query := `SELECT ` + selectCandidateColumns + ` FROM candidates WHERE id = $1 FOR UPDATE`

	return getCandidate(ctx, t.tx, query, id)
}

func (t *pgTx) UpdateCandidate(ctx context.Context, c *candidate.Candidate) error {
	return saveCandidate(ctx, t.tx, c)
}

func (t *pgTx) LockBalance(ctx context.Context, cycleID uuid.UUID) (*ledger.Balance, error) {
	b, err := getBalance(ctx, t.tx, selectBalance+` FOR UPDATE`, cycleID)
	if err != nil {
		return nil, err
	}

	t.locked[cycleID] = true

	return b, nil
}

func (t *pgTx) SaveBalance(ctx context.Context, b *ledger.Balance) error {
	if !t.locked[b.CycleID] {
		return fmt.Errorf("saving balance for cycle %s without holding its lock", b.CycleID)
	}

	if !b.Valid() {
		return fmt.Errorf("cycle %s: %w", b.CycleID, ledger.ErrInvariant)
	}

	query := `
		UPDATE grant_cycles
		SET reserved = $1, encumbered = $2, disbursed = $3
		WHERE id = $4
	`

	if _, err := t.tx.ExecContext(ctx, query, b.Reserved, b.Encumbered, b.Disbursed, b.CycleID); err != nil {
		return fmt.Errorf("saving ledger: %w", err)
	}

	return nil
}

func (t *pgTx) OpenReports(ctx context.Context, c *candidate.Candidate) error {
	existing, err := t.ListReportsForCandidate(ctx, c.ID)
	if err != nil {
		return err
	}

	if len(existing) > 0 {
		return fmt.Errorf("candidate %s already has outcome reports", c.ID)
	}

	for _, r := range report.NewPair(c) {
		if err := createReport(ctx, t.tx, r); err != nil {
			return err
		}
	}

	return nil
}

func (t *pgTx) GetReportForUpdate(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	query := `SELECT ` + selectReportColumns + ` FROM reports WHERE id = $1 FOR UPDATE`

	return getReport(ctx, t.tx, query, id)
}

func (t *pgTx) ListReportsForCandidate(ctx context.Context, candidateID uuid.UUID) ([]*report.Report, error) {
	return listReports(ctx, t.tx, report.ListFilter{CandidateID: &candidateID})
}

func (t *pgTx) UpdateReport(ctx context.Context, r *report.Report) error {
	return saveReport(ctx, t.tx, r)
}

func (t *pgTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// Rollback is safe to defer after Commit.
func (t *pgTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rolling back transaction: %w", err)
	}

	return nil
}
