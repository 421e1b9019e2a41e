package application

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/granttrack/internal/apperr"
	"github.com/MrJamesThe3rd/granttrack/internal/candidate"
	"github.com/MrJamesThe3rd/granttrack/internal/grant"
	"github.com/MrJamesThe3rd/granttrack/internal/http/render"
	"github.com/MrJamesThe3rd/granttrack/internal/org"
	"github.com/MrJamesThe3rd/granttrack/internal/roster"
)

// maxRosterSize bounds multipart roster uploads.
const maxRosterSize = 10 << 20

type Handler struct {
	svc    *grant.Service
	roster *roster.Parser
}

func NewHandler(svc *grant.Service, parser *roster.Parser) *Handler {
	return &Handler{svc: svc, roster: parser}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Get("/{id}/candidates", h.candidates)
	r.Post("/{id}/candidates", h.addCandidate)
	r.Post("/{id}/candidates/import", h.importRoster)
}

type orgRequest struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type createApplicationRequest struct {
	GrantCycleID uuid.UUID  `json:"grant_cycle_id"`
	IHE          orgRequest `json:"ihe"`
	LEA          orgRequest `json:"lea"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createApplicationRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, r, err)
		return
	}

	app, err := h.svc.CreateApplication(r.Context(), req.GrantCycleID,
		org.Ref{ID: req.IHE.ID, Name: req.IHE.Name, Kind: org.KindIHE},
		org.Ref{ID: req.LEA.ID, Name: req.LEA.Name, Kind: org.KindLEA},
	)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, render.Application(app))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := render.ID(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	app, err := h.svc.GetApplication(r.Context(), id)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, render.Application(app))
}

func (h *Handler) candidates(w http.ResponseWriter, r *http.Request) {
	id, err := render.ID(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	if _, err := h.svc.GetApplication(r.Context(), id); err != nil {
		render.Error(w, r, err)
		return
	}

	filter := candidate.ListFilter{ApplicationID: &id}

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

// fieldsRequest carries the identity and placement fields of a candidate.
type fieldsRequest struct {
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	Email              string `json:"email"`
	SEID               string `json:"seid"`
	CredentialArea     string `json:"credential_area"`
	SchoolSite         string `json:"school_site"`
	DistrictEmployeeID string `json:"district_employee_id"`
}

func (f fieldsRequest) fields() candidate.Fields {
	return candidate.Fields{
		FirstName:          f.FirstName,
		LastName:           f.LastName,
		Email:              f.Email,
		SEID:               f.SEID,
		CredentialArea:     f.CredentialArea,
		SchoolSite:         f.SchoolSite,
		DistrictEmployeeID: f.DistrictEmployeeID,
	}
}

func (h *Handler) addCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := render.ID(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	var req fieldsRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, r, err)
		return
	}

	c, err := h.svc.AddCandidateDraft(r.Context(), id, req.fields())
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, render.Candidate(c))
}

type importResponse struct {
	Profile    string                     `json:"profile"`
	Imported   int                        `json:"imported"`
	Candidates []render.CandidateResponse `json:"candidates"`
}

func (h *Handler) importRoster(w http.ResponseWriter, r *http.Request) {
	id, err := render.ID(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(maxRosterSize); err != nil {
		render.Error(w, r, apperr.Validation("file", "failed to parse form: %v", err))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		render.Error(w, r, apperr.Validation("file", "file field is required"))
		return
	}
	defer file.Close()

	res, err := h.roster.Parse(file)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	cs, err := h.svc.AddCandidateDrafts(r.Context(), id, res.Rows)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	slog.Info("roster imported", "application_id", id, "profile", res.Profile, "candidates", len(cs))

	render.JSON(w, http.StatusCreated, importResponse{
		Profile:    res.Profile,
		Imported:   len(cs),
		Candidates: render.Candidates(cs),
	})
}
