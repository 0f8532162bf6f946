package alerts

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dharmasatrya/flightwatch/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS price_alerts (
	id            TEXT PRIMARY KEY,
	monitor_id    TEXT NOT NULL,
	user_id       TEXT NOT NULL,
	criteria      TEXT NOT NULL,
	target_price  REAL NOT NULL,
	current_price REAL NOT NULL,
	price_change  REAL NOT NULL,
	alert_type    TEXT NOT NULL,
	created_at    INTEGER NOT NULL,
	expires_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_price_alerts_user ON price_alerts(user_id, created_at);
`

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open alert database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create alert schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Deliver(ctx context.Context, alert models.PriceAlert) error {
	criteria, err := json.Marshal(alert.Criteria)
	if err != nil {
		return fmt.Errorf("encode criteria: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO price_alerts
			(id, monitor_id, user_id, criteria, target_price, current_price, price_change, alert_type, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		alert.ID, alert.MonitorID, alert.UserID, string(criteria),
		alert.TargetPrice, alert.CurrentPrice, alert.PriceChange, string(alert.AlertType),
		alert.CreatedAt.UnixMilli(), alert.ExpiresAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListByUser(ctx context.Context, userID string, now time.Time) ([]models.PriceAlert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, monitor_id, user_id, criteria, target_price, current_price, price_change, alert_type, created_at, expires_at
		FROM price_alerts
		WHERE user_id = ? AND expires_at > ?
		ORDER BY created_at DESC`,
		userID, now.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []models.PriceAlert
	for rows.Next() {
		var (
			a                  models.PriceAlert
			criteria, kind     string
			created, expiresAt int64
		)
		if err := rows.Scan(&a.ID, &a.MonitorID, &a.UserID, &criteria, &a.TargetPrice, &a.CurrentPrice,
			&a.PriceChange, &kind, &created, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		if err := json.Unmarshal([]byte(criteria), &a.Criteria); err != nil {
			return nil, fmt.Errorf("decode criteria: %w", err)
		}
		a.AlertType = models.AlertType(kind)
		a.CreatedAt = time.UnixMilli(created).UTC()
		a.ExpiresAt = time.UnixMilli(expiresAt).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

// Purge deletes alerts that expired before now.
func (s *SQLiteStore) Purge(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM price_alerts WHERE expires_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
