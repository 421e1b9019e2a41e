package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/granttrack/internal/apperr"
	"github.com/MrJamesThe3rd/granttrack/internal/candidate"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=report
type Repository interface {
	GetReport(ctx context.Context, id uuid.UUID) (*Report, error)
	ListReports(ctx context.Context, filter ListFilter) ([]*Report, error)

	Begin(ctx context.Context) (Tx, error)
}

// Tx spans a report, its sibling and the owning candidate. Implementations
// lock the candidate before any report.
type Tx interface {
	GetCandidateForUpdate(ctx context.Context, id uuid.UUID) (*candidate.Candidate, error)
	UpdateCandidate(ctx context.Context, c *candidate.Candidate) error
	GetReportForUpdate(ctx context.Context, id uuid.UUID) (*Report, error)
	ListReportsForCandidate(ctx context.Context, candidateID uuid.UUID) ([]*Report, error)
	// UpdateReport persists r if r.Version still matches, then bumps it.
	UpdateReport(ctx context.Context, r *Report) error
	Commit() error
	Rollback() error
}

type ListFilter struct {
	GrantCycleID *uuid.UUID
	CandidateID  *uuid.UUID
	Status       *Status
}

type Service struct {
	repo Repository
	now  func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Report, error) {
	return s.repo.GetReport(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Report, error) {
	return s.repo.ListReports(ctx, filter)
}

// SaveDraft overwrites the payload of an unlocked report. A report sent back
// for revisions returns to DRAFT.
func (s *Service) SaveDraft(ctx context.Context, id uuid.UUID, payload map[string]string) (*Report, error) {
	clean := make(map[string]string, len(payload))
	for k, v := range payload {
		if k = strings.TrimSpace(k); k != "" {
			clean[k] = strings.TrimSpace(v)
		}
	}

	return s.mutate(ctx, id, func(r *Report) error {
		if r.IsLocked {
			return apperr.InvalidTransition("report", r.ID, "save draft", r.Status)
		}

		if r.Status == StatusRevisionsRequested {
			if err := r.move("save draft", StatusDraft); err != nil {
				return err
			}
		}

		r.Payload = clean

		return nil
	})
}

// Submit locks the report and hands it to program staff.
func (s *Service) Submit(ctx context.Context, id uuid.UUID) (*Report, error) {
	return s.mutate(ctx, id, func(r *Report) error {
		if err := r.move("submit", StatusSubmitted); err != nil {
			return err
		}

		if missing := r.MissingFields(); len(missing) > 0 {
			return apperr.Validation(strings.Join(missing, ","), "is required")
		}

		now := s.now()
		r.IsLocked = true
		r.SubmittedAt = &now

		return nil
	})
}

func (s *Service) SetUnderReview(ctx context.Context, id uuid.UUID, reviewer string) (*Report, error) {
	reviewer = strings.TrimSpace(reviewer)

	return s.mutate(ctx, id, func(r *Report) error {
		if err := r.move("set under review", StatusUnderReview); err != nil {
			return err
		}

		if reviewer == "" {
			return apperr.Validation("reviewer", "is required")
		}

		r.Reviewer = reviewer

		return nil
	})
}

// Approve is terminal for the report. The candidate completes once its
// sibling report is approved as well.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, reviewer string) (*Report, error) {
	reviewer = strings.TrimSpace(reviewer)

	r, err := s.mutate(ctx, id, func(r *Report) error {
		if err := r.move("approve", StatusApproved); err != nil {
			return err
		}

		if reviewer == "" {
			return apperr.Validation("reviewer", "is required")
		}

		now := s.now()
		r.Reviewer = reviewer
		r.ReviewedAt = &now

		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("report approved", "report_id", r.ID, "candidate_id", r.CandidateID, "type", r.Type)

	return r, nil
}

// RequestRevisions unlocks the report for the submitter and counts the round.
func (s *Service) RequestRevisions(ctx context.Context, id uuid.UUID, reviewer, notes string) (*Report, error) {
	reviewer = strings.TrimSpace(reviewer)
	notes = strings.TrimSpace(notes)

	return s.mutate(ctx, id, func(r *Report) error {
		if err := r.move("request revisions", StatusRevisionsRequested); err != nil {
			return err
		}

		if reviewer == "" {
			return apperr.Validation("reviewer", "is required")
		}

		if notes == "" {
			return apperr.Validation("notes", "is required")
		}

		now := s.now()
		r.IsLocked = false
		r.RevisionCount++
		r.Reviewer = reviewer
		r.ReviewNotes = notes
		r.ReviewedAt = &now

		return nil
	})
}

// mutate applies fn to the locked report, then moves the owning candidate's
// reporting axis forward to what the report pair now implies.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(r *Report) error) (*Report, error) {
	// Unlocked read to find the owning candidate so locks are taken in order.
	peek, err := s.repo.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	c, err := tx.GetCandidateForUpdate(ctx, peek.CandidateID)
	if err != nil {
		return nil, err
	}

	r, err := tx.GetReportForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(r); err != nil {
		return nil, err
	}

	if err := tx.UpdateReport(ctx, r); err != nil {
		return nil, err
	}

	siblings, err := tx.ListReportsForCandidate(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}

	if err := s.advanceCandidate(ctx, tx, c, r, siblings); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return r, nil
}

func (s *Service) advanceCandidate(ctx context.Context, tx Tx, c *candidate.Candidate, r *Report, siblings []*Report) error {
	set := make([]*Report, 0, len(siblings))
	for _, sib := range siblings {
		if sib.ID == r.ID {
			sib = r
		}

		set = append(set, sib)
	}

	before := c.Reporting
	if err := c.AdvanceReporting(DeriveReporting(set), s.now()); err != nil {
		return err
	}

	if c.Reporting == before {
		return nil
	}

	if err := tx.UpdateCandidate(ctx, c); err != nil {
		return err
	}

	if c.Complete() {
		slog.Info("candidate complete", "candidate_id", c.ID, "grant_cycle_id", c.GrantCycleID)
	}

	return nil
}
