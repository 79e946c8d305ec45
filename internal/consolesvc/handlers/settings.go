package handlers

import (
	"net/http"

	"github.com/avvvet/console-services/internal/consolesvc/models"
	"github.com/avvvet/console-services/internal/consolesvc/rules"
	"github.com/avvvet/console-services/internal/consolesvc/service"
)

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Team.Profile(r.Context(), sessionFrom(r))
	h.respond(w, r, "profile", view, err)
}

func (h *Handler) Team(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Team.Team(r.Context(), sessionFrom(r))
	h.respond(w, r, "team", view, err)
}

func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req models.NewAdmin
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	err := h.svc.Team.Create(r.Context(), sessionFrom(r), req)
	h.respond(w, r, "admin created", nil, err)
}

func (h *Handler) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	var req models.AdminUpdate
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	err := h.svc.Team.Update(r.Context(), sessionFrom(r), req)
	h.respond(w, r, "admin updated", nil, err)
}

func (h *Handler) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID int64 `json:"id"`
	}
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.ID <= 0 {
		h.fail(w, r, invalidParam("id", ""))
		return
	}
	err := h.svc.Team.Delete(r.Context(), sessionFrom(r), req.ID)
	h.respond(w, r, "admin deleted", nil, err)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req service.PasswordChange
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	err := h.svc.Team.ChangePassword(r.Context(), sessionFrom(r), req)
	h.respond(w, r, "password changed", nil, err)
}

func (h *Handler) AuditLog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Team.Audit(r.Context(), sessionFrom(r))
	h.respond(w, r, "audit log", entries, err)
}

// Catalogue lists the roles and sections the team form offers.
func (h *Handler) Catalogue(w http.ResponseWriter, r *http.Request) {
	h.ok(w, "catalogue", map[string]interface{}{
		"roles":    rules.Roles,
		"sections": rules.Sections,
		"defaults": rules.DefaultNewAdmin(),
	})
}
