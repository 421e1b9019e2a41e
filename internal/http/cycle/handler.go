package cycle

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/granttrack/internal/apperr"
	"github.com/MrJamesThe3rd/granttrack/internal/cycle"
	"github.com/MrJamesThe3rd/granttrack/internal/grant"
	"github.com/MrJamesThe3rd/granttrack/internal/http/render"
	"github.com/MrJamesThe3rd/granttrack/internal/money"
	"github.com/MrJamesThe3rd/granttrack/internal/reminder"
)

type Handler struct {
	svc       *grant.Service
	reminders *reminder.Service
}

func NewHandler(svc *grant.Service, reminders *reminder.Service) *Handler {
	return &Handler{svc: svc, reminders: reminders}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/applications", h.applications)
	r.Get("/{id}/ledger", h.ledger)
	r.Get("/{id}/compliance", h.compliance)
	r.Get("/{id}/outstanding-reports", h.outstanding)
	r.Get("/{id}/reminders", h.reminderPreview)
}

type createCycleRequest struct {
	Name              string `json:"name"`
	Appropriated      string `json:"appropriated"`
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
	ReportingDeadline string `json:"reporting_deadline"`
	ApplicationOpen   *bool  `json:"application_open,omitempty"`
}

func (req createCycleRequest) params() (cycle.CreateCycleParams, error) {
	p := cycle.CreateCycleParams{Name: req.Name, ApplicationOpen: true}

	cents, err := money.ParseDollars(req.Appropriated)
	if err != nil {
		return p, apperr.Validation("appropriated", "%v", err)
	}

	p.Appropriated = cents

	if p.StartDate, err = parseDate("start_date", req.StartDate); err != nil {
		return p, err
	}

	if p.EndDate, err = parseDate("end_date", req.EndDate); err != nil {
		return p, err
	}

	if p.ReportingDeadline, err = parseDate("reporting_deadline", req.ReportingDeadline); err != nil {
		return p, err
	}

	if req.ApplicationOpen != nil {
		p.ApplicationOpen = *req.ApplicationOpen
	}

	return p, nil
}

func parseDate(field, raw string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, apperr.Validation(field, "expected YYYY-MM-DD, got %q", raw)
	}

	return t, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createCycleRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, r, err)
		return
	}

	params, err := req.params()
	if err != nil {
		render.Error(w, r, err)
		return
	}

	c, err := h.svc.CreateCycle(r.Context(), params)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, render.Cycle(c))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	cycles, err := h.svc.ListCycles(r.Context())
	if err != nil {
		render.Error(w, r, err)
		return
	}

	resp := make([]render.CycleResponse, len(cycles))
	for i, c := range cycles {
		resp[i] = render.Cycle(c)
	}

	render.JSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := render.ID(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	c, err := h.svc.GetCycle(r.Context(), id)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, render.Cycle(c))
}

func (h *Handler) applications(w http.ResponseWriter, r *http.Request) {
	id, err := render.ID(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	apps, err := h.svc.ListApplications(r.Context(), id)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	resp := make([]render.ApplicationResponse, len(apps))
	for i, a := range apps {
		resp[i] = render.Application(a)
	}

	render.JSON(w, http.StatusOK, resp)
}

func (h *Handler) ledger(w http.ResponseWriter, r *http.Request) {
	id, err := render.ID(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	snap, err := h.svc.GetLedgerSnapshot(r.Context(), id)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, render.Ledger(snap))
}

func (h *Handler) compliance(w http.ResponseWriter, r *http.Request) {
	id, err := render.ID(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	m, err := h.svc.GetComplianceMetrics(r.Context(), id)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, render.Compliance(m))
}

func (h *Handler) outstanding(w http.ResponseWriter, r *http.Request) {
	id, err := render.ID(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	reports, err := h.svc.GetOutstandingReports(r.Context(), id)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, render.Outstanding(reports))
}

// reminderPreview renders the notices the next sweep would send for the cycle.
func (h *Handler) reminderPreview(w http.ResponseWriter, r *http.Request) {
	id, err := render.ID(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	notices, err := h.reminders.Build(r.Context(), id)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, render.Notices(notices))
}
