package org

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/granttrack/internal/apperr"
	"github.com/MrJamesThe3rd/granttrack/internal/http/render"
	"github.com/MrJamesThe3rd/granttrack/internal/org"
)

type Handler struct {
	directory *org.Directory
}

func NewHandler(directory *org.Directory) *Handler {
	return &Handler{directory: directory}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/{id}/contacts", h.listContacts)
	r.Post("/{id}/contacts", h.registerContact)
}

type contactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type contactResponse struct {
	ID    uuid.UUID `json:"id"`
	OrgID uuid.UUID `json:"organization_id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  string    `json:"role,omitempty"`
}

func toResponse(c org.Contact) contactResponse {
	return contactResponse{ID: c.ID, OrgID: c.OrgID, Name: c.Name, Email: c.Email, Role: c.Role}
}

func (h *Handler) listContacts(w http.ResponseWriter, r *http.Request) {
	id, err := render.ID(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	contacts, err := h.directory.Contacts(r.Context(), org.Ref{ID: id})
	if err != nil {
		render.Error(w, r, err)
		return
	}

	resp := make([]contactResponse, len(contacts))
	for i, c := range contacts {
		resp[i] = toResponse(c)
	}

	render.JSON(w, http.StatusOK, resp)
}

func (h *Handler) registerContact(w http.ResponseWriter, r *http.Request) {
	id, err := render.ID(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	var req contactRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, r, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !strings.Contains(email, "@") {
		render.Error(w, r, apperr.Validation("email", "is not a valid address"))
		return
	}

	c := &org.Contact{
		OrgID: id,
		Name:  strings.TrimSpace(req.Name),
		Email: email,
		Role:  strings.TrimSpace(req.Role),
	}

	if err := h.directory.Register(r.Context(), c); err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, toResponse(*c))
}
