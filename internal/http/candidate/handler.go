package candidate

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/granttrack/internal/apperr"
	"github.com/MrJamesThe3rd/granttrack/internal/candidate"
	"github.com/MrJamesThe3rd/granttrack/internal/grant"
	"github.com/MrJamesThe3rd/granttrack/internal/http/render"
	"github.com/MrJamesThe3rd/granttrack/internal/money"
)

type Handler struct {
	svc *grant.Service
}

func NewHandler(svc *grant.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.updateDraft)
	r.Get("/{id}/reports", h.reports)

	r.Post("/{id}/request-district-info", h.step(h.svc.RequestDistrictInfo))
	r.Post("/{id}/submit", h.step(h.svc.Submit))
	r.Post("/{id}/agreement-sent", h.step(h.svc.RecordAgreementSent))
	r.Post("/{id}/agreement-signed", h.step(h.svc.RecordAgreementSigned))
	r.Post("/{id}/invoice-generated", h.step(h.svc.RecordInvoiceGenerated))
	r.Post("/{id}/payment-complete", h.step(h.svc.RecordPaymentComplete))

	r.Post("/{id}/begin-review", h.beginReview)
	r.Post("/{id}/approve", h.approve)
	r.Post("/{id}/reject", h.withReason(h.svc.Reject))
	r.Post("/{id}/cancel-award", h.withReason(h.svc.CancelAward))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var (
		filter candidate.ListFilter
		err    error
	)

	if filter.GrantCycleID, err = render.QueryID(r, "grant_cycle_id"); err != nil {
		render.Error(w, r, err)
		return
	}

	if filter.ApplicationID, err = render.QueryID(r, "application_id"); err != nil {
		render.Error(w, r, err)
		return
	}

	if s := r.URL.Query().Get("submission_status"); s != "" {
		filter.Submission = new(candidate.SubmissionStatus(s))
	}

	cs, err := h.svc.ListCandidates(r.Context(), filter)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, render.Candidates(cs))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := render.ID(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	c, err := h.svc.GetCandidate(r.Context(), id)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, render.Candidate(c))
}

// updateDraftRequest carries only the fields being changed. An omitted field
// keeps its current value; an empty string clears it.
type updateDraftRequest struct {
	Version            *int64  `json:"version"`
	FirstName          *string `json:"first_name"`
	LastName           *string `json:"last_name"`
	Email              *string `json:"email"`
	SEID               *string `json:"seid"`
	CredentialArea     *string `json:"credential_area"`
	SchoolSite         *string `json:"school_site"`
	DistrictEmployeeID *string `json:"district_employee_id"`
}

func (req updateDraftRequest) apply(f candidate.Fields) candidate.Fields {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}

	set(&f.FirstName, req.FirstName)
	set(&f.LastName, req.LastName)
	set(&f.Email, req.Email)
	set(&f.SEID, req.SEID)
	set(&f.CredentialArea, req.CredentialArea)
	set(&f.SchoolSite, req.SchoolSite)
	set(&f.DistrictEmployeeID, req.DistrictEmployeeID)

	return f
}

// updateDraft merges the given fields onto the draft. The body must carry the
// version the caller last read; a write in between fails with a conflict.
func (h *Handler) updateDraft(w http.ResponseWriter, r *http.Request) {
	id, err := render.ID(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	var req updateDraftRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, r, err)
		return
	}

	if req.Version == nil {
		render.Error(w, r, apperr.Validation("version", "is required"))
		return
	}

	current, err := h.svc.GetCandidate(r.Context(), id)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	c, err := h.svc.UpdateDraft(r.Context(), id, *req.Version, req.apply(current.Fields))
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, render.Candidate(c))
}

func (h *Handler) reports(w http.ResponseWriter, r *http.Request) {
	id, err := render.ID(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	rs, err := h.svc.CandidateReports(r.Context(), id)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, render.Reports(rs))
}

type transition func(ctx context.Context, id uuid.UUID) (*candidate.Candidate, error)

// step adapts a body-less workflow action to a handler.
func (h *Handler) step(fn transition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := render.ID(r, "id")
		if err != nil {
			render.Error(w, r, err)
			return
		}

		c, err := fn(r.Context(), id)
		if err != nil {
			render.Error(w, r, err)
			return
		}

		render.JSON(w, http.StatusOK, render.Candidate(c))
	}
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) withReason(fn func(ctx context.Context, id uuid.UUID, reason string) (*candidate.Candidate, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := render.ID(r, "id")
		if err != nil {
			render.Error(w, r, err)
			return
		}

		var req reasonRequest
		if err := render.Decode(r, &req); err != nil {
			render.Error(w, r, err)
			return
		}

		c, err := fn(r.Context(), id, req.Reason)
		if err != nil {
			render.Error(w, r, err)
			return
		}

		render.JSON(w, http.StatusOK, render.Candidate(c))
	}
}

type beginReviewRequest struct {
	Reviewer string `json:"reviewer"`
}

func (h *Handler) beginReview(w http.ResponseWriter, r *http.Request) {
	id, err := render.ID(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	var req beginReviewRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, r, err)
		return
	}

	c, err := h.svc.BeginReview(r.Context(), id, req.Reviewer)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, render.Candidate(c))
}

// approveRequest takes the award either as a dollar string ("10,000.00") or
// in cents.
type approveRequest struct {
	AwardAmount      string `json:"award_amount"`
	AwardAmountCents *int64 `json:"award_amount_cents"`
}

func (req approveRequest) cents() (int64, error) {
	if req.AwardAmountCents != nil {
		return *req.AwardAmountCents, nil
	}

	cents, err := money.ParseDollars(req.AwardAmount)
	if err != nil {
		return 0, apperr.Validation("award_amount", "%v", err)
	}

	return cents, nil
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	id, err := render.ID(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	var req approveRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, r, err)
		return
	}

	amount, err := req.cents()
	if err != nil {
		render.Error(w, r, err)
		return
	}

	c, err := h.svc.Approve(r.Context(), id, amount)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, render.Candidate(c))
}
