package candidate

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/granttrack/internal/apperr"
	"github.com/MrJamesThe3rd/granttrack/internal/org"
)

// SubmissionStatus tracks a candidate from data entry to the award decision.
type SubmissionStatus string

const (
	SubmissionDraft               SubmissionStatus = "draft"
	SubmissionPendingDistrictInfo SubmissionStatus = "pending_district_info"
	SubmissionSubmitted           SubmissionStatus = "submitted"
	SubmissionUnderReview         SubmissionStatus = "under_review"
	SubmissionApproved            SubmissionStatus = "approved"
	SubmissionRejected            SubmissionStatus = "rejected"
)

func (s SubmissionStatus) String() string { return string(s) }

// DisbursementStatus tracks an approved award through agreement and payment.
// It is empty until the candidate is approved.
type DisbursementStatus string

const (
	DisbursementNone             DisbursementStatus = ""
	DisbursementAwardPending     DisbursementStatus = "award_pending"
	DisbursementAgreementSent    DisbursementStatus = "agreement_sent"
	DisbursementAgreementSigned  DisbursementStatus = "agreement_signed"
	DisbursementInvoiceGenerated DisbursementStatus = "invoice_generated"
	DisbursementPaymentComplete  DisbursementStatus = "payment_complete"
	DisbursementAwardCancelled   DisbursementStatus = "award_cancelled"
)

func (s DisbursementStatus) String() string {
	if s == DisbursementNone {
		return "none"
	}

	return string(s)
}

// ReportingStatus tracks the outcome-report pair after payment. It is empty
// until payment completes.
type ReportingStatus string

const (
	ReportingNone       ReportingStatus = ""
	ReportingNotStarted ReportingStatus = "not_started"
	ReportingInProgress ReportingStatus = "in_progress"
	ReportingSubmitted  ReportingStatus = "submitted"
	ReportingApproved   ReportingStatus = "approved"
)

func (s ReportingStatus) String() string {
	if s == ReportingNone {
		return "none"
	}

	return string(s)
}

// flow is a transition table: each state maps to the states it may move to.
type flow[S ~string] map[S][]S

func (f flow[S]) allows(from, to S) bool {
	return slices.Contains(f[from], to)
}

var submissionFlow = flow[SubmissionStatus]{
	SubmissionDraft:               {SubmissionPendingDistrictInfo, SubmissionSubmitted},
	SubmissionPendingDistrictInfo: {SubmissionSubmitted},
	SubmissionSubmitted:           {SubmissionUnderReview, SubmissionApproved, SubmissionRejected},
	SubmissionUnderReview:         {SubmissionApproved, SubmissionRejected},
}

var disbursementFlow = flow[DisbursementStatus]{
	DisbursementNone:             {DisbursementAwardPending},
	DisbursementAwardPending:     {DisbursementAgreementSent, DisbursementAwardCancelled},
	DisbursementAgreementSent:    {DisbursementAgreementSigned, DisbursementAwardCancelled},
	DisbursementAgreementSigned:  {DisbursementInvoiceGenerated},
	DisbursementInvoiceGenerated: {DisbursementPaymentComplete},
}

var reportingFlow = flow[ReportingStatus]{
	ReportingNone:       {ReportingNotStarted},
	ReportingNotStarted: {ReportingInProgress},
	ReportingInProgress: {ReportingSubmitted},
	ReportingSubmitted:  {ReportingApproved},
}

// Fields are the identity and placement details collected for a candidate.
// The IHE supplies identity fields; the district supplies placement fields.
type Fields struct {
	FirstName          string
	LastName           string
	Email              string
	SEID               string
	CredentialArea     string
	SchoolSite         string
	DistrictEmployeeID string
}

// Stage is the coarse lifecycle bucket used for dashboards.
type Stage string

const (
	StageSubmission   Stage = "submission"
	StageReview       Stage = "review"
	StageDisbursement Stage = "disbursement"
	StageReporting    Stage = "reporting"
	StageRejected     Stage = "rejected"
	StageCancelled    Stage = "cancelled"
	StageComplete     Stage = "complete"
)

// Stages lists every bucket in display order.
var Stages = []Stage{
	StageSubmission, StageReview, StageDisbursement, StageReporting,
	StageRejected, StageCancelled, StageComplete,
}

// Candidate is one teacher candidate's placement within an application.
type Candidate struct {
	ID            uuid.UUID
	ApplicationID uuid.UUID
	GrantCycleID  uuid.UUID
	IHE           org.Ref
	LEA           org.Ref
	Fields        Fields

	Submission   SubmissionStatus
	Disbursement DisbursementStatus
	Reporting    ReportingStatus

	AwardAmount        *int64 // Amount in cents, fixed at approval
	Reviewer           string
	RejectionReason    string
	CancellationReason string

	SubmittedAt       *time.Time
	DecidedAt         *time.Time
	AgreementSignedAt *time.Time
	PaidAt            *time.Time
	CompletedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// Version is bumped on every persisted change and checked on update.
	Version int64
}

// Stage derives the dashboard bucket from the three status axes.
func (c *Candidate) Stage() Stage {
	switch {
	case c.Submission == SubmissionRejected:
		return StageRejected
	case c.Disbursement == DisbursementAwardCancelled:
		return StageCancelled
	case c.Reporting == ReportingApproved:
		return StageComplete
	case c.Disbursement == DisbursementPaymentComplete:
		return StageReporting
	case c.Submission == SubmissionApproved:
		return StageDisbursement
	case c.Submission == SubmissionSubmitted, c.Submission == SubmissionUnderReview:
		return StageReview
	default:
		return StageSubmission
	}
}

// Complete reports whether both outcome reports have been approved.
func (c *Candidate) Complete() bool {
	return c.Reporting == ReportingApproved
}

func (c *Candidate) award() int64 {
	if c.AwardAmount == nil {
		return 0
	}

	return *c.AwardAmount
}

func (c *Candidate) moveSubmission(action string, to SubmissionStatus) error {
	if !submissionFlow.allows(c.Submission, to) {
		return apperr.InvalidTransition("candidate", c.ID, action, c.Submission)
	}

	c.Submission = to

	return nil
}

func (c *Candidate) moveDisbursement(action string, to DisbursementStatus) error {
	if c.Submission != SubmissionApproved || !disbursementFlow.allows(c.Disbursement, to) {
		return apperr.InvalidTransition("candidate", c.ID, action, c.Disbursement)
	}

	c.Disbursement = to

	return nil
}

// AdvanceReporting moves the reporting axis forward to target, stepping
// through each intermediate state. Targets at or behind the current state are
// a no-op, so callers may re-derive the axis after every report change.
func (c *Candidate) AdvanceReporting(target ReportingStatus, now time.Time) error {
	if c.Disbursement != DisbursementPaymentComplete {
		return apperr.InvalidTransition("candidate", c.ID, "advance reporting", c.Disbursement)
	}

	if reportingRank(target) <= reportingRank(c.Reporting) {
		return nil
	}

	// The reporting flow is linear, so the first successor is the only one.
	for c.Reporting != target {
		c.Reporting = reportingFlow[c.Reporting][0]
	}

	if c.Reporting == ReportingApproved && c.CompletedAt == nil {
		c.CompletedAt = &now
	}

	return nil
}

func reportingRank(s ReportingStatus) int {
	switch s {
	case ReportingNotStarted:
		return 1
	case ReportingInProgress:
		return 2
	case ReportingSubmitted:
		return 3
	case ReportingApproved:
		return 4
	default:
		return 0
	}
}
