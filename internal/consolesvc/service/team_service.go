package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/avvvet/console-services/internal/consolesvc/models"
	"github.com/avvvet/console-services/internal/consolesvc/rules"
	"github.com/avvvet/console-services/internal/consolesvc/session"
	log "github.com/sirupsen/logrus"
)

const auditListLimit = 100

type TeamView struct {
	Admins   []models.Admin   `json:"admins"`
	Roles    []rules.RoleInfo `json:"roles"`
	Sections []rules.Section  `json:"sections"`
	Defaults models.NewAdmin  `json:"defaults"`
}

type ProfileView struct {
	Admin        models.Admin  `json:"admin"`
	CanManage    bool          `json:"can_manage_team"`
	Sections     []string      `json:"sections"` // sections this admin can open
	ProfileError *SectionError `json:"profile_error,omitempty"`
}

type PasswordChange struct {
	New     string `json:"new"`
	Confirm string `json:"confirm"`
}

type TeamService struct {
	connect Connector
	auth    *AuthService
	guard   *SubmitGuard
	audit   *Auditor
}

func NewTeamService(connect Connector, auth *AuthService, guard *SubmitGuard, audit *Auditor) *TeamService {
	return &TeamService{connect: connect, auth: auth, guard: guard, audit: audit}
}

// Profile is open to every authenticated admin.
func (s *TeamService) Profile(ctx context.Context, sess *session.Session) (ProfileView, error) {
	admin, err := s.auth.Me(ctx, sess)
	if errors.Is(err, session.ErrNotAuthenticated) {
		return ProfileView{}, err
	}
	var view ProfileView
	if view.ProfileError, err = sectionFailure("profile", err); err != nil {
		return ProfileView{}, err
	}
	view.Admin = admin
	view.CanManage = rules.CanManageTeam(admin)
	for _, sec := range rules.Sections {
		if rules.CanAccess(admin, sec) {
			view.Sections = append(view.Sections, string(sec))
		}
	}
	return view, nil
}

func (s *TeamService) requireOwner(sess *session.Session) (models.Admin, error) {
	admin, err := sess.Admin()
	if err != nil {
		return models.Admin{}, err
	}
	if !rules.CanManageTeam(admin) {
		return models.Admin{}, &rules.ForbiddenError{Section: rules.SectionSettings}
	}
	return admin, nil
}

func (s *TeamService) Team(ctx context.Context, sess *session.Session) (TeamView, error) {
	if _, err := s.requireOwner(sess); err != nil {
		return TeamView{}, err
	}
	admins, err := s.connect(sess).ListAdmins(ctx)
	if err != nil {
		return TeamView{}, err
	}
	if admins == nil {
		admins = []models.Admin{}
	}
	return TeamView{
		Admins:   admins,
		Roles:    rules.Roles,
		Sections: rules.Sections,
		Defaults: rules.DefaultNewAdmin(),
	}, nil
}

func (s *TeamService) Create(ctx context.Context, sess *session.Session, a models.NewAdmin) error {
	actor, err := s.requireOwner(sess)
	if err != nil {
		return err
	}
	a.Username = strings.TrimSpace(a.Username)
	if a.Role == "" {
		a.Role = rules.DefaultNewAdmin().Role
	}
	if a.Permissions == nil {
		a.Permissions = rules.DefaultNewAdmin().Permissions
	}
	if err := rules.ValidateNewAdmin(a); err != nil {
		return err
	}

	release, err := s.guard.Acquire(sess.ID() + ":team")
	if err != nil {
		return err
	}
	defer release()

	if err := s.connect(sess).CreateAdmin(ctx, a); err != nil {
		return err
	}
	s.audit.Log(ctx, actor, string(rules.SectionSettings), "admin_created", a.Username,
		fmt.Sprintf("role=%s permissions=%s", a.Role, strings.Join(a.Permissions, ",")))
	return nil
}

func (s *TeamService) Update(ctx context.Context, sess *session.Session, upd models.AdminUpdate) error {
	actor, err := sess.Admin()
	if err != nil {
		return err
	}
	if err := rules.AuthorizeAdminUpdate(actor, upd); err != nil {
		return err
	}
	if upd.Role != nil && !rules.ValidRole(*upd.Role) {
		return fmt.Errorf("%w: unknown role %q", rules.ErrValidation, *upd.Role)
	}
	for _, p := range upd.Permissions {
		if p != models.Wildcard && !rules.ValidSection(p) {
			return fmt.Errorf("%w: unknown section %q", rules.ErrValidation, p)
		}
	}

	release, err := s.guard.Acquire(sess.ID() + ":team")
	if err != nil {
		return err
	}
	defer release()

	if err := s.connect(sess).UpdateAdmin(ctx, upd); err != nil {
		return err
	}

	if upd.ID == actor.ID && upd.DisplayName != nil {
		actor.DisplayName = *upd.DisplayName
		if err := sess.SetAdmin(ctx, actor); err != nil {
			log.WithField("session", sess.ID()).Errorf("Error saving profile: %s", err)
		}
	}
	s.audit.Log(ctx, actor, string(rules.SectionSettings), "admin_updated", strconv.FormatInt(upd.ID, 10), describeUpdate(upd))
	return nil
}

func (s *TeamService) Delete(ctx context.Context, sess *session.Session, id int64) error {
	actor, err := s.requireOwner(sess)
	if err != nil {
		return err
	}
	if id == actor.ID {
		return fmt.Errorf("%w: you cannot delete your own account", rules.ErrValidation)
	}

	release, err := s.guard.Acquire(sess.ID() + ":team")
	if err != nil {
		return err
	}
	defer release()

	if err := s.connect(sess).DeleteAdmin(ctx, id); err != nil {
		return err
	}
	s.audit.Log(ctx, actor, string(rules.SectionSettings), "admin_deleted", strconv.FormatInt(id, 10), "")
	return nil
}

// ChangePassword updates the caller's own password. A mismatched
// confirmation never reaches the platform.
func (s *TeamService) ChangePassword(ctx context.Context, sess *session.Session, pc PasswordChange) error {
	actor, err := sess.Admin()
	if err != nil {
		return err
	}
	if err := rules.ValidatePasswordChange(pc.New, pc.Confirm); err != nil {
		return err
	}
	return s.Update(ctx, sess, models.AdminUpdate{ID: actor.ID, Password: pc.New})
}

// Audit lists recent console mutations for the owner.
func (s *TeamService) Audit(ctx context.Context, sess *session.Session) ([]models.AuditEntry, error) {
	if _, err := s.requireOwner(sess); err != nil {
		return nil, err
	}
	entries, err := s.audit.Recent(ctx, auditListLimit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	return entries, nil
}

func describeUpdate(upd models.AdminUpdate) string {
	var parts []string
	if upd.Role != nil {
		parts = append(parts, "role="+string(*upd.Role))
	}
	if upd.Permissions != nil {
		parts = append(parts, "permissions="+strings.Join(upd.Permissions, ","))
	}
	if upd.DisplayName != nil {
		parts = append(parts, "display_name")
	}
	if upd.IsActive != nil {
		parts = append(parts, fmt.Sprintf("active=%t", *upd.IsActive))
	}
	if upd.Password != "" {
		parts = append(parts, "password")
	}
	return strings.Join(parts, " ")
}
