package store

import (
	"context"
	"fmt"

	"github.com/avvvet/console-services/internal/consolesvc/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditStore struct {
	db *pgxpool.Pool
}

func NewAuditStore(db *pgxpool.Pool) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Record(ctx context.Context, e models.AuditEntry) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO console_audit (id, admin_id, admin_name, action, target, detail, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, e.ID, e.AdminID, e.AdminName, e.Action, e.Target, e.Detail, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("could not record audit entry: %w", err)
	}
	return nil
}

func (s *AuditStore) Recent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id::text, admin_id, admin_name, action, target, detail, created_at
        FROM console_audit
        ORDER BY created_at DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var out []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.AdminID, &e.AdminName, &e.Action, &e.Target, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
