package report

import (
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/granttrack/internal/apperr"
	"github.com/MrJamesThe3rd/granttrack/internal/candidate"
)

// Type says which organization owes the report.
type Type string

const (
	TypeIHE Type = "ihe"
	TypeLEA Type = "lea"
)

// Types lists both halves of a report-pair.
var Types = []Type{TypeIHE, TypeLEA}

func (t Type) Valid() bool {
	return t == TypeIHE || t == TypeLEA
}

type Status string

const (
	StatusDraft              Status = "draft"
	StatusSubmitted          Status = "submitted"
	StatusUnderReview        Status = "under_review"
	StatusApproved           Status = "approved"
	StatusRevisionsRequested Status = "revisions_requested"
)

func (s Status) String() string { return string(s) }

// SubmittedOrLater reports whether the report has reached the reviewer.
func (s Status) SubmittedOrLater() bool {
	return s == StatusSubmitted || s == StatusUnderReview || s == StatusApproved
}

// Outstanding reports whether the owning organization still has to act.
func (s Status) Outstanding() bool {
	return s == StatusDraft || s == StatusRevisionsRequested
}

var statusFlow = map[Status][]Status{
	StatusDraft:              {StatusSubmitted},
	StatusSubmitted:          {StatusUnderReview},
	StatusUnderReview:        {StatusApproved, StatusRevisionsRequested},
	StatusRevisionsRequested: {StatusDraft, StatusSubmitted},
}

// requiredFields are the payload keys that must be non-blank on submit.
var requiredFields = map[Type][]string{
	TypeIHE: {"program_completion_date", "credential_status"},
	TypeLEA: {"employment_status", "school_site", "hire_date"},
}

// Report is an outcome report owed by the IHE or LEA for a paid candidate.
type Report struct {
	ID            uuid.UUID
	CandidateID   uuid.UUID
	ApplicationID uuid.UUID
	GrantCycleID  uuid.UUID
	Type          Type
	Status        Status
	RevisionCount int
	IsLocked      bool
	Reviewer      string
	ReviewNotes   string
	Payload       map[string]string
	SubmittedAt   *time.Time
	ReviewedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64
}

// NewPair builds the DRAFT IHE and LEA reports for a candidate whose payment
// has just completed.
func NewPair(c *candidate.Candidate) []*Report {
	pair := make([]*Report, 0, len(Types))
	for _, t := range Types {
		pair = append(pair, &Report{
			CandidateID:   c.ID,
			ApplicationID: c.ApplicationID,
			GrantCycleID:  c.GrantCycleID,
			Type:          t,
			Status:        StatusDraft,
			Payload:       map[string]string{},
		})
	}

	return pair
}

// Clone returns a deep copy.
func (r *Report) Clone() *Report {
	cp := *r
	cp.Payload = make(map[string]string, len(r.Payload))

	for k, v := range r.Payload {
		cp.Payload[k] = v
	}

	return &cp
}

// MissingFields lists required payload keys that are absent or blank, sorted.
func (r *Report) MissingFields() []string {
	var missing []string

	for _, f := range requiredFields[r.Type] {
		if strings.TrimSpace(r.Payload[f]) == "" {
			missing = append(missing, f)
		}
	}

	sort.Strings(missing)

	return missing
}

func (r *Report) move(action string, to Status) error {
	if !slices.Contains(statusFlow[r.Status], to) {
		return apperr.InvalidTransition("report", r.ID, action, r.Status)
	}

	r.Status = to

	return nil
}

func (r *Report) touched() bool {
	return r.Status != StatusDraft || r.RevisionCount > 0 || len(r.Payload) > 0
}

// DeriveReporting computes the reporting status the candidate's report set
// implies. The candidate only ever moves forward to it.
func DeriveReporting(reports []*Report) candidate.ReportingStatus {
	byType := make(map[Type]*Report, len(reports))
	for _, r := range reports {
		byType[r.Type] = r
	}

	ihe, lea := byType[TypeIHE], byType[TypeLEA]

	switch {
	case ihe != nil && lea != nil && ihe.Status == StatusApproved && lea.Status == StatusApproved:
		return candidate.ReportingApproved
	case ihe != nil && lea != nil && ihe.Status.SubmittedOrLater() && lea.Status.SubmittedOrLater():
		return candidate.ReportingSubmitted
	}

	for _, r := range reports {
		if r.touched() {
			return candidate.ReportingInProgress
		}
	}

	return candidate.ReportingNotStarted
}
