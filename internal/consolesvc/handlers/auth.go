package handlers

import (
	"net/http"
	"time"

	"github.com/avvvet/console-services/internal/consolesvc/models"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	Admin     models.Admin `json:"admin"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Login opens a console session and returns a console token for it. The
// platform token never leaves the service.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	sess, err := h.svc.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	claims := map[string]interface{}{"sid": sess.ID()}
	jwtauth.SetExpiry(claims, sess.ExpiresAt())
	_, token, err := h.tokenAuth.Encode(claims)
	if err != nil {
		log.Errorf("Error signing console token: %s", err)
		sess.Invalidate(r.Context())
		h.fail(w, r, err)
		return
	}

	admin, _ := sess.Admin()
	h.ok(w, "logged in", loginResponse{Token: token, Admin: admin, ExpiresAt: sess.ExpiresAt()})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.svc.Auth.Logout(r.Context(), sessionFrom(r))
	h.ok(w, "logged out", nil)
}

// Me refreshes the profile. When the platform is unreachable the cached
// profile is still returned, with the error alongside.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Team.Profile(r.Context(), sessionFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "profile", view)
}
