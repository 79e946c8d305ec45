package service

import (
	"context"
	"time"

	"github.com/avvvet/console-services/internal/comm"
	"github.com/avvvet/console-services/internal/consolesvc/models"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type AuditRecorder interface {
	Record(ctx context.Context, e models.AuditEntry) error
	Recent(ctx context.Context, limit int) ([]models.AuditEntry, error)
}

type EventPublisher interface {
	PublishEvent(ev comm.ConsoleEvent) error
}

// Auditor records console mutations and announces them. Either sink may
// be nil when its backend is not configured.
type Auditor struct {
	store  AuditRecorder
	events EventPublisher
	now    func() time.Time
}

func NewAuditor(store AuditRecorder, events EventPublisher) *Auditor {
	return &Auditor{store: store, events: events, now: time.Now}
}

// Log never fails the mutation it describes; sink errors are logged.
func (a *Auditor) Log(ctx context.Context, admin models.Admin, section, action, target, detail string) {
	if a == nil {
		return
	}
	now := a.now()
	fields := log.Fields{"admin": admin.Username, "action": action, "target": target}

	if a.store != nil {
		entry := models.AuditEntry{
			ID:        uuid.NewString(),
			AdminID:   admin.ID,
			AdminName: admin.Username,
			Action:    action,
			Target:    target,
			Detail:    detail,
			CreatedAt: now,
		}
		if err := a.store.Record(context.WithoutCancel(ctx), entry); err != nil {
			log.WithFields(fields).Errorf("Error recording audit entry: %s", err)
		}
	}

	if a.events != nil {
		ev := comm.ConsoleEvent{
			Type:      action,
			Section:   section,
			AdminID:   admin.ID,
			AdminName: admin.Username,
			Target:    target,
			Detail:    detail,
			Timestamp: now,
		}
		if err := a.events.PublishEvent(ev); err != nil {
			log.WithFields(fields).Errorf("Error publishing console event: %s", err)
		}
	}

	log.WithFields(fields).Info("console mutation")
}

func (a *Auditor) Recent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	if a == nil || a.store == nil {
		return nil, nil
	}
	return a.store.Recent(ctx, limit)
}
