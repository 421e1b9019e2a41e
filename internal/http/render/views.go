package render

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/granttrack/internal/candidate"
	"github.com/MrJamesThe3rd/granttrack/internal/compliance"
	"github.com/MrJamesThe3rd/granttrack/internal/cycle"
	"github.com/MrJamesThe3rd/granttrack/internal/ledger"
	"github.com/MrJamesThe3rd/granttrack/internal/org"
	"github.com/MrJamesThe3rd/granttrack/internal/reminder"
	"github.com/MrJamesThe3rd/granttrack/internal/report"
)

type OrgResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Kind org.Kind  `json:"kind"`
}

func Org(ref org.Ref) OrgResponse {
	return OrgResponse{ID: ref.ID, Name: ref.Name, Kind: ref.Kind}
}

type CycleResponse struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Appropriated      int64     `json:"appropriated"`
	StartDate         string    `json:"start_date"`
	EndDate           string    `json:"end_date"`
	ReportingDeadline string    `json:"reporting_deadline"`
	ApplicationOpen   bool      `json:"application_open"`
	CreatedAt         time.Time `json:"created_at"`
}

func Cycle(c *cycle.GrantCycle) CycleResponse {
	return CycleResponse{
		ID:                c.ID,
		Name:              c.Name,
		Appropriated:      c.Appropriated,
		StartDate:         c.StartDate.Format(time.DateOnly),
		EndDate:           c.EndDate.Format(time.DateOnly),
		ReportingDeadline: c.ReportingDeadline.Format(time.DateOnly),
		ApplicationOpen:   c.ApplicationOpen,
		CreatedAt:         c.CreatedAt,
	}
}

type ApplicationResponse struct {
	ID           uuid.UUID               `json:"id"`
	GrantCycleID uuid.UUID               `json:"grant_cycle_id"`
	IHE          OrgResponse             `json:"ihe"`
	LEA          OrgResponse             `json:"lea"`
	Status       cycle.ApplicationStatus `json:"status"`
	CreatedAt    time.Time               `json:"created_at"`
}

func Application(a *cycle.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:           a.ID,
		GrantCycleID: a.GrantCycleID,
		IHE:          Org(a.IHE),
		LEA:          Org(a.LEA),
		Status:       a.Status,
		CreatedAt:    a.CreatedAt,
	}
}

type CandidateResponse struct {
	ID                 uuid.UUID                    `json:"id"`
	ApplicationID      uuid.UUID                    `json:"application_id"`
	GrantCycleID       uuid.UUID                    `json:"grant_cycle_id"`
	IHE                OrgResponse                  `json:"ihe"`
	LEA                OrgResponse                  `json:"lea"`
	FirstName          string                       `json:"first_name"`
	LastName           string                       `json:"last_name"`
	Email              string                       `json:"email,omitempty"`
	SEID               string                       `json:"seid,omitempty"`
	CredentialArea     string                       `json:"credential_area,omitempty"`
	SchoolSite         string                       `json:"school_site,omitempty"`
	DistrictEmployeeID string                       `json:"district_employee_id,omitempty"`
	Stage              candidate.Stage              `json:"stage"`
	SubmissionStatus   candidate.SubmissionStatus   `json:"submission_status"`
	DisbursementStatus candidate.DisbursementStatus `json:"disbursement_status,omitempty"`
	ReportingStatus    candidate.ReportingStatus    `json:"reporting_status,omitempty"`
	AwardAmount        *int64                       `json:"award_amount,omitempty"`
	Reviewer           string                       `json:"reviewer,omitempty"`
	RejectionReason    string                       `json:"rejection_reason,omitempty"`
	CancellationReason string                       `json:"cancellation_reason,omitempty"`
	SubmittedAt        *time.Time                   `json:"submitted_at,omitempty"`
	DecidedAt          *time.Time                   `json:"decided_at,omitempty"`
	PaidAt             *time.Time                   `json:"paid_at,omitempty"`
	CompletedAt        *time.Time                   `json:"completed_at,omitempty"`
	CreatedAt          time.Time                    `json:"created_at"`
	UpdatedAt          time.Time                    `json:"updated_at"`
	Version            int64                        `json:"version"`
}

func Candidate(c *candidate.Candidate) CandidateResponse {
	return CandidateResponse{
		ID:                 c.ID,
		ApplicationID:      c.ApplicationID,
		GrantCycleID:       c.GrantCycleID,
		IHE:                Org(c.IHE),
		LEA:                Org(c.LEA),
		FirstName:          c.Fields.FirstName,
		LastName:           c.Fields.LastName,
		Email:              c.Fields.Email,
		SEID:               c.Fields.SEID,
		CredentialArea:     c.Fields.CredentialArea,
		SchoolSite:         c.Fields.SchoolSite,
		DistrictEmployeeID: c.Fields.DistrictEmployeeID,
		Stage:              c.Stage(),
		SubmissionStatus:   c.Submission,
		DisbursementStatus: c.Disbursement,
		ReportingStatus:    c.Reporting,
		AwardAmount:        c.AwardAmount,
		Reviewer:           c.Reviewer,
		RejectionReason:    c.RejectionReason,
		CancellationReason: c.CancellationReason,
		SubmittedAt:        c.SubmittedAt,
		DecidedAt:          c.DecidedAt,
		PaidAt:             c.PaidAt,
		CompletedAt:        c.CompletedAt,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
		Version:            c.Version,
	}
}

func Candidates(cs []*candidate.Candidate) []CandidateResponse {
	resp := make([]CandidateResponse, len(cs))
	for i, c := range cs {
		resp[i] = Candidate(c)
	}

	return resp
}

type ReportResponse struct {
	ID            uuid.UUID         `json:"id"`
	CandidateID   uuid.UUID         `json:"candidate_id"`
	GrantCycleID  uuid.UUID         `json:"grant_cycle_id"`
	Type          report.Type       `json:"type"`
	Status        report.Status     `json:"status"`
	RevisionCount int               `json:"revision_count"`
	IsLocked      bool              `json:"is_locked"`
	Reviewer      string            `json:"reviewer,omitempty"`
	ReviewNotes   string            `json:"review_notes,omitempty"`
	Payload       map[string]string `json:"payload"`
	MissingFields []string          `json:"missing_fields,omitempty"`
	SubmittedAt   *time.Time        `json:"submitted_at,omitempty"`
	ReviewedAt    *time.Time        `json:"reviewed_at,omitempty"`
	UpdatedAt     time.Time         `json:"updated_at"`
	Version       int64             `json:"version"`
}

func Report(r *report.Report) ReportResponse {
	return ReportResponse{
		ID:            r.ID,
		CandidateID:   r.CandidateID,
		GrantCycleID:  r.GrantCycleID,
		Type:          r.Type,
		Status:        r.Status,
		RevisionCount: r.RevisionCount,
		IsLocked:      r.IsLocked,
		Reviewer:      r.Reviewer,
		ReviewNotes:   r.ReviewNotes,
		Payload:       r.Payload,
		MissingFields: r.MissingFields(),
		SubmittedAt:   r.SubmittedAt,
		ReviewedAt:    r.ReviewedAt,
		UpdatedAt:     r.UpdatedAt,
		Version:       r.Version,
	}
}

func Reports(rs []*report.Report) []ReportResponse {
	resp := make([]ReportResponse, len(rs))
	for i, r := range rs {
		resp[i] = Report(r)
	}

	return resp
}

type LedgerResponse struct {
	GrantCycleID uuid.UUID `json:"grant_cycle_id"`
	Appropriated int64     `json:"appropriated"`
	Reserved     int64     `json:"reserved"`
	Encumbered   int64     `json:"encumbered"`
	Disbursed    int64     `json:"disbursed"`
	Remaining    int64     `json:"remaining"`
}

func Ledger(s ledger.Snapshot) LedgerResponse {
	return LedgerResponse{
		GrantCycleID: s.CycleID,
		Appropriated: s.Appropriated,
		Reserved:     s.Reserved,
		Encumbered:   s.Encumbered,
		Disbursed:    s.Disbursed,
		Remaining:    s.Remaining,
	}
}

type OrgComplianceResponse struct {
	Org       OrgResponse     `json:"org"`
	Required  int             `json:"required"`
	Submitted int             `json:"submitted"`
	Rate      float64         `json:"rate"`
	Band      compliance.Band `json:"band"`
}

type ComplianceResponse struct {
	GrantCycleID uuid.UUID               `json:"grant_cycle_id"`
	StageCounts  map[candidate.Stage]int `json:"stage_counts"`
	Orgs         []OrgComplianceResponse `json:"organizations"`
	Required     int                     `json:"required"`
	Submitted    int                     `json:"submitted"`
	Rate         float64                 `json:"rate"`
	Health       compliance.Health       `json:"health"`
	HealthLabel  string                  `json:"health_label"`
	Ledger       LedgerResponse          `json:"ledger"`
	Outstanding  int                     `json:"outstanding"`
	Critical     int                     `json:"critical"`
}

func Compliance(m compliance.Metrics) ComplianceResponse {
	orgs := make([]OrgComplianceResponse, len(m.Orgs))
	for i, o := range m.Orgs {
		orgs[i] = OrgComplianceResponse{
			Org:       Org(o.Org),
			Required:  o.Required,
			Submitted: o.Submitted,
			Rate:      o.Rate,
			Band:      o.Band,
		}
	}

	return ComplianceResponse{
		GrantCycleID: m.GrantCycleID,
		StageCounts:  m.StageCounts,
		Orgs:         orgs,
		Required:     m.Required,
		Submitted:    m.Submitted,
		Rate:         m.Rate,
		Health:       m.Health,
		HealthLabel:  m.Health.Label(),
		Ledger:       Ledger(m.Ledger),
		Outstanding:  m.Outstanding,
		Critical:     m.Critical,
	}
}

type OutstandingResponse struct {
	ReportID      uuid.UUID     `json:"report_id"`
	CandidateID   uuid.UUID     `json:"candidate_id"`
	CandidateName string        `json:"candidate_name"`
	Type          report.Type   `json:"type"`
	Org           OrgResponse   `json:"org"`
	Status        report.Status `json:"status"`
	RevisionCount int           `json:"revision_count"`
	Deadline      string        `json:"deadline"`
	DaysOverdue   int           `json:"days_overdue"`
	Critical      bool          `json:"critical"`
}

func Outstanding(rs []compliance.OutstandingReport) []OutstandingResponse {
	resp := make([]OutstandingResponse, len(rs))
	for i, r := range rs {
		resp[i] = OutstandingResponse{
			ReportID:      r.ReportID,
			CandidateID:   r.CandidateID,
			CandidateName: r.CandidateName,
			Type:          r.Type,
			Org:           Org(r.Org),
			Status:        r.Status,
			RevisionCount: r.RevisionCount,
			Deadline:      r.Deadline.Format(time.DateOnly),
			DaysOverdue:   r.DaysOverdue,
			Critical:      r.Critical,
		}
	}

	return resp
}

type NoticeResponse struct {
	Org        OrgResponse `json:"org"`
	Recipients []string    `json:"recipients"`
	Reports    int         `json:"reports"`
	Critical   int         `json:"critical"`
	Subject    string      `json:"subject"`
	Body       string      `json:"body"`
}

func Notices(ns []reminder.Notice) []NoticeResponse {
	resp := make([]NoticeResponse, len(ns))
	for i, n := range ns {
		recipients := make([]string, 0, len(n.Contacts))
		for _, c := range n.Contacts {
			recipients = append(recipients, c.Email)
		}

		resp[i] = NoticeResponse{
			Org:        Org(n.Org),
			Recipients: recipients,
			Reports:    len(n.Reports),
			Critical:   n.Critical,
			Subject:    n.Subject,
			Body:       n.Body,
		}
	}

	return resp
}
