package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avvvet/console-services/internal/consolesvc/api"
	"github.com/avvvet/console-services/internal/consolesvc/models"
	"github.com/avvvet/console-services/internal/consolesvc/rules"
	"github.com/avvvet/console-services/internal/consolesvc/session"
	log "github.com/sirupsen/logrus"
)

type AuthService struct {
	connect  Connector
	sessions *session.Manager
}

func NewAuthService(connect Connector, sessions *session.Manager) *AuthService {
	return &AuthService{connect: connect, sessions: sessions}
}

// Login authenticates against the platform and opens a console session.
func (s *AuthService) Login(ctx context.Context, username, password string) (*session.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", rules.ErrValidation)
	}

	res, err := s.connect(nil).Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, &api.APIError{Kind: api.KindRejected, Path: "/admin/auth/login", Code: "missing token"}
	}

	sess, err := s.sessions.Create(ctx, res.Token, res.Admin)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	log.WithFields(log.Fields{"session": sess.ID(), "admin": res.Admin.Username, "role": res.Admin.Role}).Info("admin logged in")
	return sess, nil
}

func (s *AuthService) Logout(ctx context.Context, sess *session.Session) {
	sess.Invalidate(ctx)
}

// Resolve finds a live session by id.
func (s *AuthService) Resolve(ctx context.Context, id string) (*session.Session, error) {
	return s.sessions.Get(ctx, id)
}

// Me refreshes the cached profile from the platform. When the platform is
// unreachable the cached profile is returned with the error.
func (s *AuthService) Me(ctx context.Context, sess *session.Session) (models.Admin, error) {
	admin, err := s.connect(sess).Me(ctx)
	if err != nil {
		if api.IsKind(err, api.KindUnauthenticated) {
			return models.Admin{}, err
		}
		cached, cerr := sess.Admin()
		if cerr != nil {
			return models.Admin{}, cerr
		}
		return cached, err
	}
	if err := sess.SetAdmin(ctx, admin); err != nil && !errors.Is(err, session.ErrNotAuthenticated) {
		log.WithField("session", sess.ID()).Errorf("Error saving refreshed profile: %s", err)
	}
	return admin, nil
}
