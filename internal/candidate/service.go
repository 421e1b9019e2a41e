package candidate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/granttrack/internal/apperr"
	"github.com/MrJamesThe3rd/granttrack/internal/ledger"
	"github.com/MrJamesThe3rd/granttrack/internal/org"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=candidate
type Repository interface {
	CreateCandidate(ctx context.Context, c *Candidate) error
	GetCandidate(ctx context.Context, id uuid.UUID) (*Candidate, error)
	ListCandidates(ctx context.Context, filter ListFilter) ([]*Candidate, error)

	Begin(ctx context.Context) (Tx, error)
}

// Tx is a unit of work spanning a candidate row and its cycle's ledger.
// Implementations lock the candidate before the ledger.
type Tx interface {
	// CreateCandidate inserts a new candidate as part of the transaction.
	CreateCandidate(ctx context.Context, c *Candidate) error
	GetCandidateForUpdate(ctx context.Context, id uuid.UUID) (*Candidate, error)
	// UpdateCandidate persists c if c.Version still matches the stored
	// version, then bumps c.Version.
	UpdateCandidate(ctx context.Context, c *Candidate) error
	LockBalance(ctx context.Context, cycleID uuid.UUID) (*ledger.Balance, error)
	SaveBalance(ctx context.Context, b *ledger.Balance) error
	// OpenReports creates the candidate's IHE and LEA outcome reports.
	OpenReports(ctx context.Context, c *Candidate) error
	Commit() error
	Rollback() error
}

type ListFilter struct {
	GrantCycleID  *uuid.UUID
	ApplicationID *uuid.UUID
	Submission    *SubmissionStatus
}

type Service struct {
	repo            Repository
	allowReviewSkip bool
	now             func() time.Time
}

type Option func(*Service)

// WithReviewSkip lets Approve act directly on SUBMITTED candidates.
func WithReviewSkip(allow bool) Option {
	return func(s *Service) { s.allowReviewSkip = allow }
}

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

type DraftParams struct {
	ApplicationID uuid.UUID
	GrantCycleID  uuid.UUID
	IHE           org.Ref
	LEA           org.Ref
	Fields        Fields
}

// ValidateDraft checks the fields a new draft needs without persisting
// anything.
func ValidateDraft(f Fields) error {
	f = f.normalize()

	if f.FirstName == "" || f.LastName == "" {
		return apperr.Validation("name", "first and last name are required")
	}

	return f.validateFormat()
}

func (s *Service) CreateDraft(ctx context.Context, params DraftParams) (*Candidate, error) {
	if err := ValidateDraft(params.Fields); err != nil {
		return nil, err
	}

	c := newDraft(params)
	if err := s.repo.CreateCandidate(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// CreateDrafts creates every draft in one transaction. Validation runs over
// the whole batch first; a failure on any entry creates none of them.
func (s *Service) CreateDrafts(ctx context.Context, batch []DraftParams) ([]*Candidate, error) {
	for i, params := range batch {
		if err := ValidateDraft(params.Fields); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	out := make([]*Candidate, 0, len(batch))

	for _, params := range batch {
		c := newDraft(params)
		if err := tx.CreateCandidate(ctx, c); err != nil {
			return nil, err
		}

		out = append(out, c)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return out, nil
}

func newDraft(params DraftParams) *Candidate {
	return &Candidate{
		ApplicationID: params.ApplicationID,
		GrantCycleID:  params.GrantCycleID,
		IHE:           params.IHE,
		LEA:           params.LEA,
		Fields:        params.Fields.normalize(),
		Submission:    SubmissionDraft,
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Candidate, error) {
	return s.repo.GetCandidate(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Candidate, error) {
	return s.repo.ListCandidates(ctx, filter)
}

// UpdateDraft replaces the candidate's fields. version must match the
// caller's last read.
func (s *Service) UpdateDraft(ctx context.Context, id uuid.UUID, version int64, fields Fields) (*Candidate, error) {
	fields = fields.normalize()

	return s.mutate(ctx, id, func(_ Tx, c *Candidate) error {
		if c.Version != version {
			return apperr.Conflict("candidate", c.ID)
		}

		if c.Submission != SubmissionDraft && c.Submission != SubmissionPendingDistrictInfo {
			return apperr.InvalidTransition("candidate", c.ID, "update draft", c.Submission)
		}

		if err := ValidateDraft(fields); err != nil {
			return err
		}

		c.Fields = fields

		return nil
	})
}

// RequestDistrictInfo hands a draft to the district to complete placement
// details.
func (s *Service) RequestDistrictInfo(ctx context.Context, id uuid.UUID) (*Candidate, error) {
	return s.mutate(ctx, id, func(_ Tx, c *Candidate) error {
		if err := c.moveSubmission("request district info", SubmissionPendingDistrictInfo); err != nil {
			return err
		}

		return c.Fields.requireIdentity()
	})
}

func (s *Service) Submit(ctx context.Context, id uuid.UUID) (*Candidate, error) {
	return s.mutate(ctx, id, func(_ Tx, c *Candidate) error {
		if err := c.moveSubmission("submit", SubmissionSubmitted); err != nil {
			return err
		}

		if err := c.Fields.requireIdentity(); err != nil {
			return err
		}

		if err := c.Fields.requireDistrict(); err != nil {
			return err
		}

		now := s.now()
		c.SubmittedAt = &now

		return nil
	})
}

func (s *Service) BeginReview(ctx context.Context, id uuid.UUID, reviewer string) (*Candidate, error) {
	reviewer = strings.TrimSpace(reviewer)

	return s.mutate(ctx, id, func(_ Tx, c *Candidate) error {
		if err := c.moveSubmission("begin review", SubmissionUnderReview); err != nil {
			return err
		}

		if reviewer == "" {
			return apperr.Validation("reviewer", "is required")
		}

		c.Reviewer = reviewer

		return nil
	})
}

// Approve reserves amount against the candidate's grant cycle and fixes the
// award. The reservation and the status change commit together or not at all.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, amount int64) (*Candidate, error) {
	c, err := s.mutate(ctx, id, func(tx Tx, c *Candidate) error {
		if c.Submission == SubmissionSubmitted && !s.allowReviewSkip {
			return apperr.InvalidTransition("candidate", c.ID, "approve", c.Submission)
		}

		if err := c.moveSubmission("approve", SubmissionApproved); err != nil {
			return err
		}

		if amount <= 0 {
			return apperr.Validation("award_amount", "must be positive")
		}

		bal, err := tx.LockBalance(ctx, c.GrantCycleID)
		if err != nil {
			return fmt.Errorf("locking ledger: %w", err)
		}

		if !bal.TryReserve(amount) {
			return &apperr.InsufficientFundsError{
				CycleID:   c.GrantCycleID,
				Requested: amount,
				Remaining: bal.Remaining(),
			}
		}

		if err := tx.SaveBalance(ctx, bal); err != nil {
			return fmt.Errorf("saving ledger: %w", err)
		}

		if err := c.moveDisbursement("approve", DisbursementAwardPending); err != nil {
			return err
		}

		now := s.now()
		c.AwardAmount = &amount
		c.DecidedAt = &now

		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("candidate approved", "candidate_id", c.ID, "grant_cycle_id", c.GrantCycleID, "award_amount", amount)

	return c, nil
}

func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason string) (*Candidate, error) {
	reason = strings.TrimSpace(reason)

	return s.mutate(ctx, id, func(_ Tx, c *Candidate) error {
		if err := c.moveSubmission("reject", SubmissionRejected); err != nil {
			return err
		}

		if reason == "" {
			return apperr.Validation("reason", "is required")
		}

		now := s.now()
		c.RejectionReason = reason
		c.DecidedAt = &now

		return nil
	})
}

func (s *Service) RecordAgreementSent(ctx context.Context, id uuid.UUID) (*Candidate, error) {
	return s.mutate(ctx, id, func(_ Tx, c *Candidate) error {
		return c.moveDisbursement("record agreement sent", DisbursementAgreementSent)
	})
}

// RecordAgreementSigned encumbers the reserved award.
func (s *Service) RecordAgreementSigned(ctx context.Context, id uuid.UUID) (*Candidate, error) {
	c, err := s.mutate(ctx, id, func(tx Tx, c *Candidate) error {
		if err := c.moveDisbursement("record agreement signed", DisbursementAgreementSigned); err != nil {
			return err
		}

		if err := s.adjustLedger(ctx, tx, c, (*ledger.Balance).PromoteReservedToEncumbered); err != nil {
			return err
		}

		now := s.now()
		c.AgreementSignedAt = &now

		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("award encumbered", "candidate_id", c.ID, "grant_cycle_id", c.GrantCycleID, "amount", *c.AwardAmount)

	return c, nil
}

func (s *Service) RecordInvoiceGenerated(ctx context.Context, id uuid.UUID) (*Candidate, error) {
	return s.mutate(ctx, id, func(_ Tx, c *Candidate) error {
		return c.moveDisbursement("record invoice generated", DisbursementInvoiceGenerated)
	})
}

// RecordPaymentComplete disburses the encumbered award and opens the outcome
// reports. Payment notices can arrive more than once, so a candidate already
// in PAYMENT_COMPLETE is returned unchanged with recorded set to false.
func (s *Service) RecordPaymentComplete(ctx context.Context, id uuid.UUID) (c *Candidate, recorded bool, err error) {
	c, recorded, err = s.apply(ctx, id, func(tx Tx, c *Candidate) error {
		if c.Disbursement == DisbursementPaymentComplete {
			return errNoChange
		}

		if err := c.moveDisbursement("record payment complete", DisbursementPaymentComplete); err != nil {
			return err
		}

		if err := s.adjustLedger(ctx, tx, c, (*ledger.Balance).PromoteEncumberedToDisbursed); err != nil {
			return err
		}

		now := s.now()
		c.PaidAt = &now
		c.Reporting = ReportingNotStarted

		if err := tx.OpenReports(ctx, c); err != nil {
			return fmt.Errorf("opening reports: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if recorded {
		slog.Info("payment recorded", "candidate_id", c.ID, "grant_cycle_id", c.GrantCycleID)
	}

	return c, recorded, nil
}

// CancelAward voids an approved award before the agreement is signed and
// releases its reservation.
func (s *Service) CancelAward(ctx context.Context, id uuid.UUID, reason string) (*Candidate, error) {
	reason = strings.TrimSpace(reason)

	c, err := s.mutate(ctx, id, func(tx Tx, c *Candidate) error {
		if err := c.moveDisbursement("cancel award", DisbursementAwardCancelled); err != nil {
			return err
		}

		if reason == "" {
			return apperr.Validation("reason", "is required")
		}

		if err := s.adjustLedger(ctx, tx, c, (*ledger.Balance).Release); err != nil {
			return err
		}

		c.CancellationReason = reason

		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("award cancelled", "candidate_id", c.ID, "grant_cycle_id", c.GrantCycleID)

	return c, nil
}

var errNoChange = errors.New("no change")

// mutate runs fn against a locked candidate and persists the result. Any
// error from fn rolls back every write made in the transaction.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(tx Tx, c *Candidate) error) (*Candidate, error) {
	c, _, err := s.apply(ctx, id, fn)
	return c, err
}

// apply is mutate that also reports whether anything was written. fn returns
// errNoChange to leave the candidate as it is.
func (s *Service) apply(ctx context.Context, id uuid.UUID, fn func(tx Tx, c *Candidate) error) (*Candidate, bool, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	c, err := tx.GetCandidateForUpdate(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if err := fn(tx, c); err != nil {
		if errors.Is(err, errNoChange) {
			return c, false, nil
		}

		return nil, false, err
	}

	if err := tx.UpdateCandidate(ctx, c); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}

	return c, true, nil
}

func (s *Service) adjustLedger(ctx context.Context, tx Tx, c *Candidate, op func(*ledger.Balance, int64) error) error {
	bal, err := tx.LockBalance(ctx, c.GrantCycleID)
	if err != nil {
		return fmt.Errorf("locking ledger: %w", err)
	}

	if err := op(bal, c.award()); err != nil {
		return fmt.Errorf("candidate %s: %w", c.ID, err)
	}

	if err := tx.SaveBalance(ctx, bal); err != nil {
		return fmt.Errorf("saving ledger: %w", err)
	}

	return nil
}

var seidPattern = regexp.MustCompile(`^\d{7}$`)

func (f Fields) normalize() Fields {
	return Fields{
		FirstName:          strings.TrimSpace(f.FirstName),
		LastName:           strings.TrimSpace(f.LastName),
		Email:              strings.ToLower(strings.TrimSpace(f.Email)),
		SEID:               strings.TrimSpace(f.SEID),
		CredentialArea:     strings.TrimSpace(f.CredentialArea),
		SchoolSite:         strings.TrimSpace(f.SchoolSite),
		DistrictEmployeeID: strings.TrimSpace(f.DistrictEmployeeID),
	}
}

func (f Fields) validateFormat() error {
	if f.SEID != "" && !seidPattern.MatchString(f.SEID) {
		return apperr.Validation("seid", "must be 7 digits")
	}

	if f.Email != "" && !strings.Contains(f.Email, "@") {
		return apperr.Validation("email", "is not a valid address")
	}

	return nil
}

func (f Fields) requireIdentity() error {
	return requireAll([]requiredField{
		{"first_name", f.FirstName},
		{"last_name", f.LastName},
		{"email", f.Email},
		{"credential_area", f.CredentialArea},
	})
}

func (f Fields) requireDistrict() error {
	return requireAll([]requiredField{
		{"school_site", f.SchoolSite},
		{"district_employee_id", f.DistrictEmployeeID},
	})
}

type requiredField struct {
	name  string
	value string
}

func requireAll(fields []requiredField) error {
	var missing []string

	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}

	if len(missing) > 0 {
		return apperr.Validation(strings.Join(missing, ","), "is required")
	}

	return nil
}
