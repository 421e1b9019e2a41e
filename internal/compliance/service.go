package compliance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/granttrack/internal/candidate"
	"github.com/MrJamesThe3rd/granttrack/internal/cycle"
	"github.com/MrJamesThe3rd/granttrack/internal/ledger"
	"github.com/MrJamesThe3rd/granttrack/internal/report"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=compliance
type Repository interface {
	GetCycle(ctx context.Context, id uuid.UUID) (*cycle.GrantCycle, error)
	ListCandidates(ctx context.Context, filter candidate.ListFilter) ([]*candidate.Candidate, error)
	ListReports(ctx context.Context, filter report.ListFilter) ([]*report.Report, error)
	GetBalance(ctx context.Context, cycleID uuid.UUID) (*ledger.Balance, error)
}

// Service loads a cycle's state and hands it to Compute.
type Service struct {
	repo          Repository
	criticalAfter time.Duration
	now           func() time.Time
}

func NewService(repo Repository, criticalAfter time.Duration, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}

	return &Service{repo: repo, criticalAfter: criticalAfter, now: now}
}

func (s *Service) Metrics(ctx context.Context, cycleID uuid.UUID) (Metrics, error) {
	in, err := s.load(ctx, cycleID)
	if err != nil {
		return Metrics{}, err
	}

	return Compute(in), nil
}

func (s *Service) Outstanding(ctx context.Context, cycleID uuid.UUID) ([]OutstandingReport, error) {
	in, err := s.load(ctx, cycleID)
	if err != nil {
		return nil, err
	}

	return Outstanding(in), nil
}

func (s *Service) load(ctx context.Context, cycleID uuid.UUID) (Input, error) {
	c, err := s.repo.GetCycle(ctx, cycleID)
	if err != nil {
		return Input{}, err
	}

	candidates, err := s.repo.ListCandidates(ctx, candidate.ListFilter{GrantCycleID: &cycleID})
	if err != nil {
		return Input{}, fmt.Errorf("listing candidates: %w", err)
	}

	reports, err := s.repo.ListReports(ctx, report.ListFilter{GrantCycleID: &cycleID})
	if err != nil {
		return Input{}, fmt.Errorf("listing reports: %w", err)
	}

	bal, err := s.repo.GetBalance(ctx, cycleID)
	if err != nil {
		return Input{}, fmt.Errorf("reading ledger: %w", err)
	}

	return Input{
		GrantCycleID:  cycleID,
		Deadline:      c.ReportingDeadline,
		Candidates:    candidates,
		Reports:       reports,
		Balance:       bal.Snapshot(),
		Now:           s.now(),
		CriticalAfter: s.criticalAfter,
	}, nil
}
