package rules

import (
	"github.com/avvvet/console-services/internal/consolesvc/models"
)

type Section string

const (
	SectionDashboard       Section = "dashboard"
	SectionLiveMonitor     Section = "live_monitor"
	SectionPlayers         Section = "players"
	SectionCohorts         Section = "cohorts"
	SectionGames           Section = "games"
	SectionFinancial       Section = "financial"
	SectionRiskFraud       Section = "risk_fraud"
	SectionCompliance      Section = "compliance"
	SectionAffiliates      Section = "affiliates"
	SectionBonusAnalytics  Section = "bonus_analytics"
	SectionBonusManagement Section = "bonus_management"
	SectionMarketing       Section = "marketing"
	SectionSettings        Section = "settings"
)

var Sections = []Section{
	SectionDashboard, SectionLiveMonitor, SectionPlayers, SectionCohorts, SectionGames,
	SectionFinancial, SectionRiskFraud, SectionCompliance, SectionAffiliates,
	SectionBonusAnalytics, SectionBonusManagement, SectionMarketing, SectionSettings,
}

func ValidSection(s string) bool {
	for _, sec := range Sections {
		if string(sec) == s {
			return true
		}
	}
	return false
}

type RoleInfo struct {
	ID          models.Role `json:"id"`
	Label       string      `json:"label"`
	Description string      `json:"desc"`
}

var Roles = []RoleInfo{
	{ID: models.RoleOwner, Label: "Owner", Description: "Full access to everything"},
	{ID: models.RoleAdmin, Label: "Admin", Description: "Full access except managing admins"},
	{ID: models.RoleManager, Label: "Manager", Description: "Custom access to specific sections"},
	{ID: models.RoleViewer, Label: "Viewer", Description: "Read-only access to specific sections"},
}

func ValidRole(r models.Role) bool {
	for _, ri := range Roles {
		if ri.ID == r {
			return true
		}
	}
	return false
}

// FullAccess reports roles that bypass the permission list.
func FullAccess(r models.Role) bool {
	return r == models.RoleOwner || r == models.RoleAdmin
}

func CanAccess(a models.Admin, s Section) bool {
	if FullAccess(a.Role) {
		return true
	}
	switch a.Role {
	case models.RoleManager, models.RoleViewer:
		return a.Permissions.IsWildcard() || a.Permissions.Contains(string(s))
	}
	return false
}

// Authorize is CanAccess returning a *ForbiddenError.
func Authorize(a models.Admin, s Section) error {
	if CanAccess(a, s) {
		return nil
	}
	return &ForbiddenError{Section: s}
}

// CanManageTeam reports whether a may list, create, edit or delete other admins.
func CanManageTeam(a models.Admin) bool {
	return a.Role == models.RoleOwner
}

// AuthorizeAdminUpdate lets the owner change anything and everyone else
// change only their own display name and password.
func AuthorizeAdminUpdate(actor models.Admin, upd models.AdminUpdate) error {
	if CanManageTeam(actor) {
		return nil
	}
	if upd.ID != actor.ID {
		return &ForbiddenError{Section: SectionSettings}
	}
	if upd.Role != nil || upd.Permissions != nil || upd.IsActive != nil {
		return &ForbiddenError{Section: SectionSettings}
	}
	return nil
}

// DefaultNewAdmin is the starting point of the create form.
func DefaultNewAdmin() models.NewAdmin {
	return models.NewAdmin{
		Role:        models.RoleViewer,
		Permissions: []string{string(SectionDashboard)},
	}
}

func ValidateNewAdmin(a models.NewAdmin) error {
	if a.Username == "" {
		return validationf("username is required")
	}
	if a.Password == "" {
		return validationf("password is required")
	}
	if !ValidRole(a.Role) {
		return validationf("unknown role %q", a.Role)
	}
	for _, p := range a.Permissions {
		if p != models.Wildcard && !ValidSection(p) {
			return validationf("unknown section %q", p)
		}
	}
	return nil
}

// ValidatePasswordChange requires the confirmation to match.
func ValidatePasswordChange(newPassword, confirm string) error {
	if newPassword == "" {
		return validationf("password is required")
	}
	if newPassword != confirm {
		return validationf("passwords do not match")
	}
	return nil
}
