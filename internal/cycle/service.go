package cycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/granttrack/internal/apperr"
	"github.com/MrJamesThe3rd/granttrack/internal/org"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=cycle
type Repository interface {
	CreateCycle(ctx context.Context, c *GrantCycle) error
	GetCycle(ctx context.Context, id uuid.UUID) (*GrantCycle, error)
	FindCycleByName(ctx context.Context, name string) (*GrantCycle, error)
	ListCycles(ctx context.Context) ([]*GrantCycle, error)

	CreateApplication(ctx context.Context, a *Application) error
	GetApplication(ctx context.Context, id uuid.UUID) (*Application, error)
	ListApplications(ctx context.Context, cycleID uuid.UUID) ([]*Application, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateCycleParams struct {
	Name              string
	Appropriated      int64
	StartDate         time.Time
	EndDate           time.Time
	ReportingDeadline time.Time
	ApplicationOpen   bool
}

func (p CreateCycleParams) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return apperr.Validation("name", "is required")
	}

	if p.Appropriated <= 0 {
		return apperr.Validation("appropriated", "must be positive")
	}

	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return apperr.Validation("start_date", "start and end dates are required")
	}

	if !p.EndDate.After(p.StartDate) {
		return apperr.Validation("end_date", "must be after start_date")
	}

	if p.ReportingDeadline.IsZero() {
		return apperr.Validation("reporting_deadline", "is required")
	}

	return nil
}

func (s *Service) CreateCycle(ctx context.Context, params CreateCycleParams) (*GrantCycle, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	c := &GrantCycle{
		Name:              strings.TrimSpace(params.Name),
		Appropriated:      params.Appropriated,
		StartDate:         params.StartDate,
		EndDate:           params.EndDate,
		ReportingDeadline: params.ReportingDeadline,
		ApplicationOpen:   params.ApplicationOpen,
	}
	if err := s.repo.CreateCycle(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// EnsureCycle creates the cycle unless one with the same name already exists.
func (s *Service) EnsureCycle(ctx context.Context, params CreateCycleParams) (*GrantCycle, bool, error) {
	existing, err := s.repo.FindCycleByName(ctx, strings.TrimSpace(params.Name))
	if err == nil {
		return existing, false, nil
	}

	if !isNotFound(err) {
		return nil, false, err
	}

	c, err := s.CreateCycle(ctx, params)
	if err != nil {
		return nil, false, err
	}

	return c, true, nil
}

func (s *Service) GetCycle(ctx context.Context, id uuid.UUID) (*GrantCycle, error) {
	return s.repo.GetCycle(ctx, id)
}

func (s *Service) ListCycles(ctx context.Context) ([]*GrantCycle, error) {
	return s.repo.ListCycles(ctx)
}

// CreateApplication registers an IHE/LEA pairing under a cycle that is open
// for applications.
func (s *Service) CreateApplication(ctx context.Context, cycleID uuid.UUID, ihe, lea org.Ref) (*Application, error) {
	if ihe.ID == uuid.Nil || strings.TrimSpace(ihe.Name) == "" {
		return nil, apperr.Validation("ihe", "organization id and name are required")
	}

	if lea.ID == uuid.Nil || strings.TrimSpace(lea.Name) == "" {
		return nil, apperr.Validation("lea", "organization id and name are required")
	}

	c, err := s.repo.GetCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}

	if !c.ApplicationOpen {
		return nil, apperr.Validation("grant_cycle_id", "grant cycle %q is not accepting applications", c.Name)
	}

	ihe.Kind = org.KindIHE
	lea.Kind = org.KindLEA

	a := &Application{
		GrantCycleID: cycleID,
		IHE:          ihe,
		LEA:          lea,
		Status:       ApplicationActive,
	}
	if err := s.repo.CreateApplication(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}

func (s *Service) GetApplication(ctx context.Context, id uuid.UUID) (*Application, error) {
	return s.repo.GetApplication(ctx, id)
}

func (s *Service) ListApplications(ctx context.Context, cycleID uuid.UUID) ([]*Application, error) {
	return s.repo.ListApplications(ctx, cycleID)
}

func isNotFound(err error) bool {
	var nf *apperr.NotFoundError
	return errors.As(err, &nf)
}
