package store

import (
	"context"
	"fmt"
	"time"

	"github.com/avvvet/console-services/internal/consolesvc/rules"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type FlagRecord struct {
	UserID    int64           `json:"user_id"`
	Flag      rules.Flag      `json:"flag"`
	Severity  rules.Severity  `json:"severity"`
	Username  string          `json:"username"`
	Wagered   float64         `json:"wagered"`
	Won       float64         `json:"won"`
	Deposited decimal.Decimal `json:"deposited"`
	WinRate   float64         `json:"win_rate"`
	FirstSeen time.Time       `json:"first_seen"`
	LastSeen  time.Time       `json:"last_seen"`
}

type RiskFlagStore struct {
	db *pgxpool.Pool
}

func NewRiskFlagStore(db *pgxpool.Pool) *RiskFlagStore {
	return &RiskFlagStore{db: db}
}

// Record upserts one row per (player, flag) and returns the flags seen for
// the first time.
func (s *RiskFlagStore) Record(ctx context.Context, flagged []rules.FlaggedPlayer) ([]FlagRecord, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var fresh []FlagRecord
	for _, fp := range flagged {
		p := fp.Player
		for _, f := range fp.Flags {
			rec := FlagRecord{
				UserID:    p.UserID,
				Flag:      f,
				Severity:  rules.FlagSeverity(f),
				Username:  p.DisplayName(),
				Wagered:   p.TotalWagered,
				Won:       p.TotalWon,
				Deposited: p.TotalDepositedUSD,
				WinRate:   fp.WinRate,
			}

			var inserted bool
			err := tx.QueryRow(ctx, `
                INSERT INTO risk_flags (user_id, flag, severity, username, wagered, won, deposited, win_rate)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
                ON CONFLICT (user_id, flag) DO UPDATE
                SET severity = EXCLUDED.severity, username = EXCLUDED.username,
                    wagered = EXCLUDED.wagered, won = EXCLUDED.won,
                    deposited = EXCLUDED.deposited, win_rate = EXCLUDED.win_rate,
                    last_seen = now()
                RETURNING first_seen, last_seen, (xmax = 0) AS inserted
            `, rec.UserID, string(rec.Flag), string(rec.Severity), rec.Username,
				rec.Wagered, rec.Won, rec.Deposited, rec.WinRate).Scan(&rec.FirstSeen, &rec.LastSeen, &inserted)
			if err != nil {
				return nil, fmt.Errorf("upsert flag %s for %d: %w", f, p.UserID, err)
			}
			if inserted {
				fresh = append(fresh, rec)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit flags: %w", err)
	}
	return fresh, nil
}

func (s *RiskFlagStore) Recent(ctx context.Context, limit int) ([]FlagRecord, error) {
	rows, err := s.db.Query(ctx, `
        SELECT user_id, flag, severity, username, wagered, won, deposited, win_rate, first_seen, last_seen
        FROM risk_flags
        ORDER BY last_seen DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("query risk flags: %w", err)
	}
	defer rows.Close()

	var out []FlagRecord
	for rows.Next() {
		var r FlagRecord
		var flag, severity string
		if err := rows.Scan(&r.UserID, &flag, &severity, &r.Username, &r.Wagered, &r.Won,
			&r.Deposited, &r.WinRate, &r.FirstSeen, &r.LastSeen); err != nil {
			return nil, fmt.Errorf("scan risk flag row: %w", err)
		}
		r.Flag = rules.Flag(flag)
		r.Severity = rules.Severity(severity)
		out = append(out, r)
	}
	return out, rows.Err()
}
