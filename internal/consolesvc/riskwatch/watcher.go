package riskwatch

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/avvvet/console-services/internal/comm"
	"github.com/avvvet/console-services/internal/consolesvc/api"
	"github.com/avvvet/console-services/internal/consolesvc/rules"
	"github.com/avvvet/console-services/internal/consolesvc/service"
	"github.com/avvvet/console-services/internal/consolesvc/session"
	"github.com/avvvet/console-services/internal/consolesvc/store"
	log "github.com/sirupsen/logrus"
)

const EventRiskFlagged = "risk_flagged"

// FlagRecorder stores findings and reports which ones are new.
type FlagRecorder interface {
	Record(ctx context.Context, flagged []rules.FlaggedPlayer) ([]store.FlagRecord, error)
}

// Watcher runs the risk rules against the platform with its own service
// account and announces flags not seen before.
type Watcher struct {
	name     string
	username string
	password string
	risk     rules.RiskRules

	connect service.Connector
	auth    *service.AuthService

	mu   sync.Mutex
	sess *session.Session

	flags  FlagRecorder           // nil keeps findings in memory
	events service.EventPublisher // nil only logs
	notify Notifier
	seen   map[string]bool
	now    func() time.Time
}

func NewWatcher(name, username, password string, risk rules.RiskRules, connect service.Connector, sessions *session.Manager, flags FlagRecorder, events service.EventPublisher) *Watcher {
	return &Watcher{
		name:     name,
		username: username,
		password: password,
		risk:     risk,
		connect:  connect,
		auth:     service.NewAuthService(connect, sessions),
		flags:    flags,
		events:   events,
		seen:     make(map[string]bool),
		now:      time.Now,
	}
}

// SetNotifier adds an out-of-band alert channel for new flags.
func (w *Watcher) SetNotifier(n Notifier) {
	w.notify = n
}

// Run scans immediately and then every interval until ctx is done.
func (w *Watcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := w.Scan(ctx); err != nil {
			log.Errorf("risk scan error: %v", err)
		}

		select {
		case <-ctx.Done():
			w.Close(context.Background())
			return
		case <-ticker.C:
		}
	}
}

// Scan runs the rules once and returns the flags seen for the first time.
// The service session is reopened whenever the platform drops it.
func (w *Watcher) Scan(ctx context.Context) ([]store.FlagRecord, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.sess == nil || w.sess.State() != session.Authenticated {
		sess, err := w.auth.Login(ctx, w.username, w.password)
		if err != nil {
			return nil, fmt.Errorf("login: %w", err)
		}
		w.sess = sess
	}

	flagged, err := service.Scan(ctx, w.connect(w.sess), w.risk)
	if err != nil {
		if api.IsKind(err, api.KindUnauthenticated) {
			w.sess = nil
		}
		return nil, fmt.Errorf("scan players: %w", err)
	}

	fresh, err := w.record(ctx, flagged)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"flagged": len(flagged), "new": len(fresh)}).Info("risk scan finished")
	for _, rec := range fresh {
		w.announce(rec)
	}
	return fresh, nil
}

// Close ends the service session.
func (w *Watcher) Close(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sess != nil {
		w.auth.Logout(ctx, w.sess)
		w.sess = nil
	}
}

func (w *Watcher) record(ctx context.Context, flagged []rules.FlaggedPlayer) ([]store.FlagRecord, error) {
	if w.flags != nil {
		fresh, err := w.flags.Record(ctx, flagged)
		if err != nil {
			return nil, fmt.Errorf("record flags: %w", err)
		}
		return fresh, nil
	}

	var fresh []store.FlagRecord
	now := w.now()
	for _, fp := range flagged {
		for _, f := range fp.Flags {
			key := strconv.FormatInt(fp.Player.UserID, 10) + ":" + string(f)
			if w.seen[key] {
				continue
			}
			w.seen[key] = true
			fresh = append(fresh, store.FlagRecord{
				UserID:    fp.Player.UserID,
				Flag:      f,
				Severity:  rules.FlagSeverity(f),
				Username:  fp.Player.DisplayName(),
				Wagered:   fp.Player.TotalWagered,
				Won:       fp.Player.TotalWon,
				Deposited: fp.Player.TotalDepositedUSD,
				WinRate:   fp.WinRate,
				FirstSeen: now,
				LastSeen:  now,
			})
		}
	}
	return fresh, nil
}

func (w *Watcher) announce(rec store.FlagRecord) {
	fields := log.Fields{"user_id": rec.UserID, "flag": rec.Flag, "severity": rec.Severity}
	log.WithFields(fields).Warn("new risk flag")
	if w.notify != nil {
		w.notify.Notify(rec)
	}
	if w.events == nil {
		return
	}

	ev := comm.ConsoleEvent{
		Type:      EventRiskFlagged,
		Section:   string(rules.SectionRiskFraud),
		AdminName: w.name,
		Target:    strconv.FormatInt(rec.UserID, 10),
		Detail:    fmt.Sprintf("%s flag=%s severity=%s win_rate=%.2f", rec.Username, rec.Flag, rec.Severity, rec.WinRate),
		Timestamp: rec.FirstSeen,
	}
	if err := w.events.PublishEvent(ev); err != nil {
		log.WithFields(fields).Errorf("error publishing risk flag: %v", err)
	}
}
