// Package grant is the entry point the HTTP API, the TUI and the scheduler
// use. It composes the cycle, candidate, report, ledger and compliance
// services and records workflow metrics for every accepted transition.
package grant

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/granttrack/internal/apperr"
	"github.com/MrJamesThe3rd/granttrack/internal/candidate"
	"github.com/MrJamesThe3rd/granttrack/internal/compliance"
	"github.com/MrJamesThe3rd/granttrack/internal/cycle"
	"github.com/MrJamesThe3rd/granttrack/internal/ledger"
	"github.com/MrJamesThe3rd/granttrack/internal/metrics"
	"github.com/MrJamesThe3rd/granttrack/internal/org"
	"github.com/MrJamesThe3rd/granttrack/internal/report"
)

type Service struct {
	cycles     *cycle.Service
	candidates *candidate.Service
	reports    *report.Service
	ledger     *ledger.Service
	compliance *compliance.Service
}

func NewService(
	cycles *cycle.Service,
	candidates *candidate.Service,
	reports *report.Service,
	ledgerSvc *ledger.Service,
	complianceSvc *compliance.Service,
) *Service {
	return &Service{
		cycles:     cycles,
		candidates: candidates,
		reports:    reports,
		ledger:     ledgerSvc,
		compliance: complianceSvc,
	}
}

// Cycles and applications

func (s *Service) CreateCycle(ctx context.Context, params cycle.CreateCycleParams) (*cycle.GrantCycle, error) {
	return s.cycles.CreateCycle(ctx, params)
}

func (s *Service) EnsureCycle(ctx context.Context, params cycle.CreateCycleParams) (*cycle.GrantCycle, bool, error) {
	return s.cycles.EnsureCycle(ctx, params)
}

func (s *Service) GetCycle(ctx context.Context, id uuid.UUID) (*cycle.GrantCycle, error) {
	return s.cycles.GetCycle(ctx, id)
}

func (s *Service) ListCycles(ctx context.Context) ([]*cycle.GrantCycle, error) {
	return s.cycles.ListCycles(ctx)
}

func (s *Service) CreateApplication(ctx context.Context, cycleID uuid.UUID, ihe, lea org.Ref) (*cycle.Application, error) {
	return s.cycles.CreateApplication(ctx, cycleID, ihe, lea)
}

func (s *Service) GetApplication(ctx context.Context, id uuid.UUID) (*cycle.Application, error) {
	return s.cycles.GetApplication(ctx, id)
}

func (s *Service) ListApplications(ctx context.Context, cycleID uuid.UUID) ([]*cycle.Application, error) {
	return s.cycles.ListApplications(ctx, cycleID)
}

// Candidates

// AddCandidateDraft creates a DRAFT candidate under an active application
// whose cycle still accepts candidates.
func (s *Service) AddCandidateDraft(ctx context.Context, applicationID uuid.UUID, fields candidate.Fields) (*candidate.Candidate, error) {
	app, err := s.openApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	return s.createDraft(ctx, app, fields)
}

// AddCandidateDrafts creates one draft per entry in a single transaction.
// Every entry is validated before any is created, and a failed insert leaves
// none of them behind.
func (s *Service) AddCandidateDrafts(ctx context.Context, applicationID uuid.UUID, batch []candidate.Fields) ([]*candidate.Candidate, error) {
	app, err := s.openApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	params := make([]candidate.DraftParams, len(batch))

	for i, f := range batch {
		if err := candidate.ValidateDraft(f); err != nil {
			var v *apperr.ValidationError
			if errors.As(err, &v) {
				return nil, apperr.Validation(fmt.Sprintf("rows[%d].%s", i, v.Field), "%s", v.Message)
			}

			return nil, err
		}

		params[i] = draftParams(app, f)
	}

	out, err := s.candidates.CreateDrafts(ctx, params)
	if err != nil {
		return nil, err
	}

	for range out {
		metrics.RecordTransition("candidate", "create draft")
	}

	return out, nil
}

func (s *Service) openApplication(ctx context.Context, applicationID uuid.UUID) (*cycle.Application, error) {
	app, err := s.cycles.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	if app.Status != cycle.ApplicationActive {
		return nil, apperr.Validation("application_id", "application is %s", app.Status)
	}

	c, err := s.cycles.GetCycle(ctx, app.GrantCycleID)
	if err != nil {
		return nil, err
	}

	if !c.ApplicationOpen {
		return nil, apperr.Validation("application_id", "grant cycle %q is closed to new candidates", c.Name)
	}

	return app, nil
}

func (s *Service) createDraft(ctx context.Context, app *cycle.Application, fields candidate.Fields) (*candidate.Candidate, error) {
	return candidateStep("create draft")(s.candidates.CreateDraft(ctx, draftParams(app, fields)))
}

func draftParams(app *cycle.Application, fields candidate.Fields) candidate.DraftParams {
	return candidate.DraftParams{
		ApplicationID: app.ID,
		GrantCycleID:  app.GrantCycleID,
		IHE:           app.IHE,
		LEA:           app.LEA,
		Fields:        fields,
	}
}

func (s *Service) GetCandidate(ctx context.Context, id uuid.UUID) (*candidate.Candidate, error) {
	return s.candidates.Get(ctx, id)
}

func (s *Service) ListCandidates(ctx context.Context, filter candidate.ListFilter) ([]*candidate.Candidate, error) {
	return s.candidates.List(ctx, filter)
}

func (s *Service) UpdateDraft(ctx context.Context, id uuid.UUID, version int64, fields candidate.Fields) (*candidate.Candidate, error) {
	return candidateStep("update draft")(s.candidates.UpdateDraft(ctx, id, version, fields))
}

func (s *Service) RequestDistrictInfo(ctx context.Context, id uuid.UUID) (*candidate.Candidate, error) {
	return candidateStep("request district info")(s.candidates.RequestDistrictInfo(ctx, id))
}

func (s *Service) Submit(ctx context.Context, id uuid.UUID) (*candidate.Candidate, error) {
	return candidateStep("submit")(s.candidates.Submit(ctx, id))
}

func (s *Service) BeginReview(ctx context.Context, id uuid.UUID, reviewer string) (*candidate.Candidate, error) {
	return candidateStep("begin review")(s.candidates.BeginReview(ctx, id, reviewer))
}

// Approve fixes the award and reserves it against the cycle's appropriation.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, amount int64) (*candidate.Candidate, error) {
	c, err := s.candidates.Approve(ctx, id, amount)

	var insufficient *apperr.InsufficientFundsError

	switch {
	case err == nil:
		metrics.RecordAdmission(metrics.Admitted)
		metrics.RecordTransition("candidate", "approve")
	case errors.As(err, &insufficient):
		metrics.RecordAdmission(metrics.Refused)
	}

	return c, err
}

func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason string) (*candidate.Candidate, error) {
	return candidateStep("reject")(s.candidates.Reject(ctx, id, reason))
}

func (s *Service) RecordAgreementSent(ctx context.Context, id uuid.UUID) (*candidate.Candidate, error) {
	return candidateStep("agreement sent")(s.candidates.RecordAgreementSent(ctx, id))
}

func (s *Service) RecordAgreementSigned(ctx context.Context, id uuid.UUID) (*candidate.Candidate, error) {
	return candidateStep("agreement signed")(s.candidates.RecordAgreementSigned(ctx, id))
}

func (s *Service) RecordInvoiceGenerated(ctx context.Context, id uuid.UUID) (*candidate.Candidate, error) {
	return candidateStep("invoice generated")(s.candidates.RecordInvoiceGenerated(ctx, id))
}

// RecordPaymentComplete is idempotent. A replayed notice returns the candidate
// as it stands and is not counted as a transition.
func (s *Service) RecordPaymentComplete(ctx context.Context, id uuid.UUID) (*candidate.Candidate, error) {
	c, recorded, err := s.candidates.RecordPaymentComplete(ctx, id)
	if err != nil || !recorded {
		return c, err
	}

	return candidateStep("payment complete")(c, nil)
}

func (s *Service) CancelAward(ctx context.Context, id uuid.UUID, reason string) (*candidate.Candidate, error) {
	return candidateStep("cancel award")(s.candidates.CancelAward(ctx, id, reason))
}

// Reports

func (s *Service) GetReport(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	return s.reports.Get(ctx, id)
}

func (s *Service) ListReports(ctx context.Context, filter report.ListFilter) ([]*report.Report, error) {
	return s.reports.List(ctx, filter)
}

// CandidateReports returns the candidate's report pair, empty before payment.
func (s *Service) CandidateReports(ctx context.Context, candidateID uuid.UUID) ([]*report.Report, error) {
	if _, err := s.candidates.Get(ctx, candidateID); err != nil {
		return nil, err
	}

	return s.reports.List(ctx, report.ListFilter{CandidateID: &candidateID})
}

func (s *Service) SaveReportDraft(ctx context.Context, id uuid.UUID, payload map[string]string) (*report.Report, error) {
	return reportStep("save draft")(s.reports.SaveDraft(ctx, id, payload))
}

func (s *Service) SubmitReport(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	return reportStep("submit")(s.reports.Submit(ctx, id))
}

func (s *Service) SetReportUnderReview(ctx context.Context, id uuid.UUID, reviewer string) (*report.Report, error) {
	return reportStep("set under review")(s.reports.SetUnderReview(ctx, id, reviewer))
}

func (s *Service) ApproveReport(ctx context.Context, id uuid.UUID, reviewer string) (*report.Report, error) {
	return reportStep("approve")(s.reports.Approve(ctx, id, reviewer))
}

func (s *Service) RequestReportRevisions(ctx context.Context, id uuid.UUID, reviewer, notes string) (*report.Report, error) {
	return reportStep("request revisions")(s.reports.RequestRevisions(ctx, id, reviewer, notes))
}

// Read side

func (s *Service) GetLedgerSnapshot(ctx context.Context, cycleID uuid.UUID) (ledger.Snapshot, error) {
	return s.ledger.Snapshot(ctx, cycleID)
}

func (s *Service) GetComplianceMetrics(ctx context.Context, cycleID uuid.UUID) (compliance.Metrics, error) {
	return s.compliance.Metrics(ctx, cycleID)
}

func (s *Service) GetOutstandingReports(ctx context.Context, cycleID uuid.UUID) ([]compliance.OutstandingReport, error) {
	return s.compliance.Outstanding(ctx, cycleID)
}

func candidateStep(action string) func(*candidate.Candidate, error) (*candidate.Candidate, error) {
	return func(c *candidate.Candidate, err error) (*candidate.Candidate, error) {
		if err == nil {
			metrics.RecordTransition("candidate", action)
		}

		return c, err
	}
}

func reportStep(action string) func(*report.Report, error) (*report.Report, error) {
	return func(r *report.Report, err error) (*report.Report, error) {
		if err == nil {
			metrics.RecordTransition("report", action)
		}

		return r, err
	}
}
