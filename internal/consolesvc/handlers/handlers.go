package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/avvvet/console-services/internal/consolesvc/api"
	"github.com/avvvet/console-services/internal/consolesvc/rules"
	"github.com/avvvet/console-services/internal/consolesvc/service"
	"github.com/avvvet/console-services/internal/consolesvc/session"
	"github.com/avvvet/console-services/internal/consolesvc/ws"
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Services are the console operations the handlers expose.
type Services struct {
	Auth    *service.AuthService
	Reports *service.ReportService
	Players *service.PlayerService
	Risk    *service.RiskService
	Bonus   *service.BonusService
	Team    *service.TeamService
	Hub     *ws.Ws
}

type Handler struct {
	tokenAuth  *jwtauth.JWTAuth
	svc        Services
	upgrader   websocket.Upgrader
	loginLimit int // login attempts per minute per ip
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

// ErrorDetail accompanies every failed response so the dashboard can tell
// a missing permission from a retryable outage.
type ErrorDetail struct {
	Kind      string `json:"kind"`
	Section   string `json:"section,omitempty"`
	Retryable bool   `json:"retryable"`
}

func NewHandler(svc Services, jwtSecret string, allowedOrigin func(r *http.Request) bool) *Handler {
	if allowedOrigin == nil {
		allowedOrigin = func(r *http.Request) bool { return true }
	}
	return &Handler{
		tokenAuth: jwtauth.New("HS256", []byte(jwtSecret), nil),
		svc:       svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     allowedOrigin,
		},
		loginLimit: 10,
	}
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)
	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) ok(w http.ResponseWriter, message string, data interface{}) {
	h.CreateResponse(w, Response{Message: message, Code: http.StatusOK, Data: data})
}

// fail maps err onto the console's error taxonomy.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code, detail := classify(err)
	if code >= http.StatusInternalServerError {
		log.WithField("path", r.URL.Path).Errorf("Error handling request: %s", err)
	} else {
		log.WithField("path", r.URL.Path).Debugf("request rejected: %s", err)
	}
	h.CreateResponse(w, Response{
		Message: err.Error(),
		Code:    code,
		Data:    detail,
		Error:   detail.Kind,
	})
}

func classify(err error) (int, ErrorDetail) {
	var fe *rules.ForbiddenError
	var ae *api.APIError
	switch {
	case errors.Is(err, rules.ErrValidation):
		return http.StatusBadRequest, ErrorDetail{Kind: "validation"}
	case errors.Is(err, service.ErrSubmitInFlight):
		return http.StatusConflict, ErrorDetail{Kind: "in_flight"}
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrNotAuthenticated):
		return http.StatusUnauthorized, ErrorDetail{Kind: string(api.KindUnauthenticated)}
	case errors.As(err, &fe):
		return http.StatusForbidden, ErrorDetail{Kind: string(api.KindForbidden), Section: string(fe.Section)}
	case errors.As(err, &ae):
		d := ErrorDetail{Kind: string(ae.Kind), Section: ae.Section, Retryable: ae.Retryable()}
		switch ae.Kind {
		case api.KindUnauthenticated:
			return http.StatusUnauthorized, d
		case api.KindForbidden:
			return http.StatusForbidden, d
		case api.KindTimeout:
			return http.StatusGatewayTimeout, d
		case api.KindRejected:
			return http.StatusUnprocessableEntity, d
		case api.KindCanceled:
			return http.StatusServiceUnavailable, d
		}
		return http.StatusBadGateway, d
	}
	return http.StatusInternalServerError, ErrorDetail{Kind: "internal"}
}

func (h *Handler) decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body: %s", rules.ErrValidation, err)
	}
	return nil
}

type ctxKey struct{}

// SessionCtx resolves the console session named by the token's sid claim.
func (h *Handler) SessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			h.fail(w, r, session.ErrNotFound)
			return
		}
		sid, _ := claims["sid"].(string)
		if sid == "" {
			h.fail(w, r, session.ErrNotFound)
			return
		}
		sess, err := h.svc.Auth.Resolve(r.Context(), sid)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) *session.Session {
	sess, _ := r.Context().Value(ctxKey{}).(*session.Session)
	return sess
}

func uidParam(r *http.Request) (int64, error) {
	uid, err := strconv.ParseInt(chi.URLParam(r, "uid"), 10, 64)
	if err != nil || uid <= 0 {
		return 0, fmt.Errorf("%w: invalid player id %q", rules.ErrValidation, chi.URLParam(r, "uid"))
	}
	return uid, nil
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.ok(w, "console service is running at port "+os.Getenv("CONSOLE_PORT"), map[string]interface{}{
		"time": time.Now().UTC(),
	})
}
