package report

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/granttrack/internal/grant"
	"github.com/MrJamesThe3rd/granttrack/internal/http/render"
	"github.com/MrJamesThe3rd/granttrack/internal/report"
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
	r.Put("/{id}/draft", h.saveDraft)
	r.Post("/{id}/submit", h.submit)
	r.Post("/{id}/under-review", h.review(h.svc.SetReportUnderReview))
	r.Post("/{id}/approve", h.review(h.svc.ApproveReport))
	r.Post("/{id}/request-revisions", h.requestRevisions)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var (
		filter report.ListFilter
		err    error
	)

	if filter.GrantCycleID, err = render.QueryID(r, "grant_cycle_id"); err != nil {
		render.Error(w, r, err)
		return
	}

	if filter.CandidateID, err = render.QueryID(r, "candidate_id"); err != nil {
		render.Error(w, r, err)
		return
	}

	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = new(report.Status(s))
	}

	rs, err := h.svc.ListReports(r.Context(), filter)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, render.Reports(rs))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := render.ID(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	rep, err := h.svc.GetReport(r.Context(), id)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, render.Report(rep))
}

type draftRequest struct {
	Payload map[string]string `json:"payload"`
}

func (h *Handler) saveDraft(w http.ResponseWriter, r *http.Request) {
	id, err := render.ID(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	var req draftRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, r, err)
		return
	}

	rep, err := h.svc.SaveReportDraft(r.Context(), id, req.Payload)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, render.Report(rep))
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	id, err := render.ID(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	rep, err := h.svc.SubmitReport(r.Context(), id)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, render.Report(rep))
}

type reviewRequest struct {
	Reviewer string `json:"reviewer"`
	Notes    string `json:"notes"`
}

// review adapts a reviewer-only action to a handler.
func (h *Handler) review(fn func(ctx context.Context, id uuid.UUID, reviewer string) (*report.Report, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := render.ID(r, "id")
		if err != nil {
			render.Error(w, r, err)
			return
		}

		var req reviewRequest
		if err := render.Decode(r, &req); err != nil {
			render.Error(w, r, err)
			return
		}

		rep, err := fn(r.Context(), id, req.Reviewer)
		if err != nil {
			render.Error(w, r, err)
			return
		}

		render.JSON(w, http.StatusOK, render.Report(rep))
	}
}

func (h *Handler) requestRevisions(w http.ResponseWriter, r *http.Request) {
	id, err := render.ID(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	var req reviewRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, r, err)
		return
	}

	rep, err := h.svc.RequestReportRevisions(r.Context(), id, req.Reviewer, req.Notes)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, render.Report(rep))
}
