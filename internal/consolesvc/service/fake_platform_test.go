package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/avvvet/console-services/internal/consolesvc/api"
	"github.com/avvvet/console-services/internal/consolesvc/models"
	"github.com/avvvet/console-services/internal/consolesvc/session"
	"github.com/stretchr/testify/require"
)

// fakePlatform answers every call with its zero value unless a hook is set.
// A hook returning errUnauthorized behaves like the real client on a 401.
type fakePlatform struct {
	mu    sync.Mutex
	creds api.Credentials
	calls []string

	login          func(username, password string) (api.LoginResult, error)
	me             func() (models.Admin, error)
	listAdmins     func() ([]models.Admin, error)
	createAdmin    func(models.NewAdmin) error
	updateAdmin    func(models.AdminUpdate) error
	deleteAdmin    func(int64) error
	stats          func() (models.Stats, error)
	players        func(api.PlayerQuery) (api.PlayerPage, error)
	playerDetail   func(int64) (models.PlayerDetail, error)
	updatePlayer   func(int64, models.PlayerUpdate) error
	savePlayerNote func(int64, string) error
	playerBets     func(int64, int) ([]models.Bet, error)
	playerPayments func(int64, int) ([]models.Payment, error)
	games          func() ([]models.GameAggregate, error)
	financial      func(int) (models.Financial, error)
	cohorts        func() ([]models.Cohort, error)
	live           func(int) (models.LiveFeed, error)
	affiliates     func() (models.Affiliates, error)
	bonusStats     func() (models.BonusStats, error)
	bonusTemplates func() ([]models.BonusTemplate, error)
	bonusCampaigns func() ([]models.BonusCampaign, error)
	issueBonus     func(models.BonusIssue) (models.IssueResult, error)
	createCampaign func(models.BonusIssue) (models.IssueResult, error)
	assignBonus    func(models.BonusAssign) (models.IssueResult, error)
}

var errUnauthorized = &api.APIError{Kind: api.KindUnauthenticated, Status: 401}

func (f *fakePlatform) connector() Connector {
	return func(creds api.Credentials) Platform {
		f.mu.Lock()
		f.creds = creds
		f.mu.Unlock()
		return f
	}
}

func (f *fakePlatform) record(ctx context.Context, name string, err error) error {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	creds := f.creds
	f.mu.Unlock()
	if api.IsKind(err, api.KindUnauthenticated) && creds != nil {
		creds.Invalidate(ctx)
	}
	return err
}

func (f *fakePlatform) called(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakePlatform) Login(ctx context.Context, username, password string) (api.LoginResult, error) {
	var res api.LoginResult
	var err error
	if f.login != nil {
		res, err = f.login(username, password)
	}
	return res, f.record(ctx, "Login", err)
}

func (f *fakePlatform) Me(ctx context.Context) (models.Admin, error) {
	var res models.Admin
	var err error
	if f.me != nil {
		res, err = f.me()
	}
	return res, f.record(ctx, "Me", err)
}

func (f *fakePlatform) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	var res []models.Admin
	var err error
	if f.listAdmins != nil {
		res, err = f.listAdmins()
	}
	return res, f.record(ctx, "ListAdmins", err)
}

func (f *fakePlatform) CreateAdmin(ctx context.Context, a models.NewAdmin) error {
	var err error
	if f.createAdmin != nil {
		err = f.createAdmin(a)
	}
	return f.record(ctx, "CreateAdmin", err)
}

func (f *fakePlatform) UpdateAdmin(ctx context.Context, upd models.AdminUpdate) error {
	var err error
	if f.updateAdmin != nil {
		err = f.updateAdmin(upd)
	}
	return f.record(ctx, "UpdateAdmin", err)
}

func (f *fakePlatform) DeleteAdmin(ctx context.Context, id int64) error {
	var err error
	if f.deleteAdmin != nil {
		err = f.deleteAdmin(id)
	}
	return f.record(ctx, "DeleteAdmin", err)
}

func (f *fakePlatform) Stats(ctx context.Context) (models.Stats, error) {
	var res models.Stats
	var err error
	if f.stats != nil {
		res, err = f.stats()
	}
	return res, f.record(ctx, "Stats", err)
}

func (f *fakePlatform) Players(ctx context.Context, q api.PlayerQuery) (api.PlayerPage, error) {
	var res api.PlayerPage
	var err error
	if f.players != nil {
		res, err = f.players(q)
	}
	return res, f.record(ctx, "Players", err)
}

func (f *fakePlatform) PlayerDetail(ctx context.Context, uid int64) (models.PlayerDetail, error) {
	var res models.PlayerDetail
	var err error
	if f.playerDetail != nil {
		res, err = f.playerDetail(uid)
	}
	return res, f.record(ctx, "PlayerDetail", err)
}

func (f *fakePlatform) UpdatePlayer(ctx context.Context, uid int64, upd models.PlayerUpdate) error {
	var err error
	if f.updatePlayer != nil {
		err = f.updatePlayer(uid, upd)
	}
	return f.record(ctx, "UpdatePlayer", err)
}

func (f *fakePlatform) SavePlayerNote(ctx context.Context, uid int64, note string) error {
	var err error
	if f.savePlayerNote != nil {
		err = f.savePlayerNote(uid, note)
	}
	return f.record(ctx, "SavePlayerNote", err)
}

func (f *fakePlatform) PlayerBets(ctx context.Context, uid int64, limit int) ([]models.Bet, error) {
	var res []models.Bet
	var err error
	if f.playerBets != nil {
		res, err = f.playerBets(uid, limit)
	}
	return res, f.record(ctx, "PlayerBets", err)
}

func (f *fakePlatform) PlayerPayments(ctx context.Context, uid int64, limit int) ([]models.Payment, error) {
	var res []models.Payment
	var err error
	if f.playerPayments != nil {
		res, err = f.playerPayments(uid, limit)
	}
	return res, f.record(ctx, "PlayerPayments", err)
}

func (f *fakePlatform) Games(ctx context.Context) ([]models.GameAggregate, error) {
	var res []models.GameAggregate
	var err error
	if f.games != nil {
		res, err = f.games()
	}
	return res, f.record(ctx, "Games", err)
}

func (f *fakePlatform) Financial(ctx context.Context, days int) (models.Financial, error) {
	var res models.Financial
	var err error
	if f.financial != nil {
		res, err = f.financial(days)
	}
	return res, f.record(ctx, "Financial", err)
}

func (f *fakePlatform) Cohorts(ctx context.Context) ([]models.Cohort, error) {
	var res []models.Cohort
	var err error
	if f.cohorts != nil {
		res, err = f.cohorts()
	}
	return res, f.record(ctx, "Cohorts", err)
}

func (f *fakePlatform) Live(ctx context.Context, limit int) (models.LiveFeed, error) {
	var res models.LiveFeed
	var err error
	if f.live != nil {
		res, err = f.live(limit)
	}
	return res, f.record(ctx, "Live", err)
}

func (f *fakePlatform) Affiliates(ctx context.Context) (models.Affiliates, error) {
	var res models.Affiliates
	var err error
	if f.affiliates != nil {
		res, err = f.affiliates()
	}
	return res, f.record(ctx, "Affiliates", err)
}

func (f *fakePlatform) BonusStats(ctx context.Context) (models.BonusStats, error) {
	var res models.BonusStats
	var err error
	if f.bonusStats != nil {
		res, err = f.bonusStats()
	}
	return res, f.record(ctx, "BonusStats", err)
}

func (f *fakePlatform) BonusTemplates(ctx context.Context) ([]models.BonusTemplate, error) {
	var res []models.BonusTemplate
	var err error
	if f.bonusTemplates != nil {
		res, err = f.bonusTemplates()
	}
	return res, f.record(ctx, "BonusTemplates", err)
}

func (f *fakePlatform) BonusCampaigns(ctx context.Context) ([]models.BonusCampaign, error) {
	var res []models.BonusCampaign
	var err error
	if f.bonusCampaigns != nil {
		res, err = f.bonusCampaigns()
	}
	return res, f.record(ctx, "BonusCampaigns", err)
}

func (f *fakePlatform) IssueBonus(ctx context.Context, req models.BonusIssue) (models.IssueResult, error) {
	var res models.IssueResult
	var err error
	if f.issueBonus != nil {
		res, err = f.issueBonus(req)
	}
	return res, f.record(ctx, "IssueBonus", err)
}

func (f *fakePlatform) CreateCampaign(ctx context.Context, req models.BonusIssue) (models.IssueResult, error) {
	var res models.IssueResult
	var err error
	if f.createCampaign != nil {
		res, err = f.createCampaign(req)
	}
	return res, f.record(ctx, "CreateCampaign", err)
}

func (f *fakePlatform) AssignBonus(ctx context.Context, req models.BonusAssign) (models.IssueResult, error) {
	var res models.IssueResult
	var err error
	if f.assignBonus != nil {
		res, err = f.assignBonus(req)
	}
	return res, f.record(ctx, "AssignBonus", err)
}

func ownerAdmin() models.Admin {
	return models.Admin{ID: 1, Username: "boss", Role: models.RoleOwner, IsActive: true}
}

func managerAdmin(sections ...string) models.Admin {
	return models.Admin{ID: 5, Username: "mgr", Role: models.RoleManager, Permissions: models.Permissions(sections), IsActive: true}
}

// newSession opens an authenticated session backed by a memory store.
func newSession(t *testing.T, admin models.Admin) (*session.Manager, *session.Session) {
	t.Helper()
	m := session.NewManager(session.NewMemoryStore(), time.Hour)
	s, err := m.Create(context.Background(), "platform-token", admin)
	require.NoError(t, err)
	return m, s
}

type memAudit struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

func (m *memAudit) Record(ctx context.Context, e models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memAudit) Recent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.AuditEntry, 0, len(m.entries))
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

func (m *memAudit) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}
