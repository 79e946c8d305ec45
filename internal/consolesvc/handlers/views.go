package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/avvvet/console-services/internal/consolesvc/rules"
	"github.com/avvvet/console-services/internal/consolesvc/service"
)

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Reports.Dashboard(r.Context(), sessionFrom(r))
	h.respond(w, r, "dashboard", view, err)
}

func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Reports.Live(r.Context(), sessionFrom(r))
	h.respond(w, r, "live monitor", view, err)
}

func (h *Handler) Players(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := service.PlayersQuery{
		Segment: q.Get("segment"),
		Search:  q.Get("search"),
		Sort:    q.Get("sort"),
	}
	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			h.fail(w, r, invalidParam("page", v))
			return
		}
		query.Page = page
	}
	view, err := h.svc.Players.List(r.Context(), sessionFrom(r), query)
	h.respond(w, r, "players", view, err)
}

func (h *Handler) PlayerDetail(w http.ResponseWriter, r *http.Request) {
	uid, err := uidParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	view, err := h.svc.Players.Detail(r.Context(), sessionFrom(r), uid)
	h.respond(w, r, "player detail", view, err)
}

func (h *Handler) SavePlayer(w http.ResponseWriter, r *http.Request) {
	uid, err := uidParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var edit service.PlayerEdit
	if err := h.decode(r, &edit); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.svc.Players.Save(r.Context(), sessionFrom(r), uid, edit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !res.OK() {
		h.CreateResponse(w, Response{Message: "player partially saved", Code: http.StatusMultiStatus, Data: res})
		return
	}
	h.ok(w, "player saved", res)
}

func (h *Handler) Games(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Reports.Games(r.Context(), sessionFrom(r))
	h.respond(w, r, "games", view, err)
}

func (h *Handler) Financial(w http.ResponseWriter, r *http.Request) {
	var days int
	if v := r.URL.Query().Get("days"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			h.fail(w, r, invalidParam("days", v))
			return
		}
		days = d
	}
	view, err := h.svc.Reports.Financial(r.Context(), sessionFrom(r), days)
	h.respond(w, r, "financial", view, err)
}

func (h *Handler) Cohorts(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Reports.Cohorts(r.Context(), sessionFrom(r))
	h.respond(w, r, "cohorts", view, err)
}

func (h *Handler) Affiliates(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Reports.Affiliates(r.Context(), sessionFrom(r))
	h.respond(w, r, "affiliates", view, err)
}

func (h *Handler) BonusAnalytics(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Reports.BonusAnalytics(r.Context(), sessionFrom(r))
	h.respond(w, r, "bonus analytics", view, err)
}

func (h *Handler) Bonus(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Bonus.Overview(r.Context(), sessionFrom(r))
	h.respond(w, r, "bonus management", view, err)
}

func (h *Handler) IssueBonus(w http.ResponseWriter, r *http.Request) {
	var form rules.BonusForm
	if err := h.decode(r, &form); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.svc.Bonus.Issue(r.Context(), sessionFrom(r), form)
	h.respond(w, r, "bonus issued", res, err)
}

func (h *Handler) AssignBonus(w http.ResponseWriter, r *http.Request) {
	var form rules.AssignForm
	if err := h.decode(r, &form); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.svc.Bonus.Assign(r.Context(), sessionFrom(r), form)
	h.respond(w, r, "bonus assigned", res, err)
}

type previewRequest struct {
	Message string `json:"message"`
	Name    string `json:"name"`
	Amount  string `json:"amount"`
}

// PreviewBonusMessage renders a notification message the way players will see it.
func (h *Handler) PreviewBonusMessage(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "preview", map[string]string{
		"message": rules.RenderMessage(req.Message, req.Name, rules.ParseAmount(req.Amount)),
	})
}

func (h *Handler) Risk(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Risk.Risk(r.Context(), sessionFrom(r))
	h.respond(w, r, "risk", view, err)
}

func (h *Handler) Compliance(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Risk.Compliance(r.Context(), sessionFrom(r))
	h.respond(w, r, "compliance", view, err)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, message string, data interface{}, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, message, data)
}

func invalidParam(name, value string) error {
	return fmt.Errorf("%w: invalid %s %q", rules.ErrValidation, name, value)
}
