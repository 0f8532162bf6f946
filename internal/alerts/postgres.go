package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dharmasatrya/flightwatch/internal/models"
)

// PriceAlerts is the GORM mapping of a delivered alert.
type PriceAlerts struct {
	ID           string    `gorm:"column:id;primaryKey"`
	MonitorID    string    `gorm:"column:monitor_id;index"`
	UserID       string    `gorm:"column:user_id;index"`
	Criteria     string    `gorm:"column:criteria;type:jsonb"`
	TargetPrice  float64   `gorm:"column:target_price"`
	CurrentPrice float64   `gorm:"column:current_price"`
	PriceChange  float64   `gorm:"column:price_change"`
	AlertType    string    `gorm:"column:alert_type"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	ExpiresAt    time.Time `gorm:"column:expires_at;index"`
}

func (PriceAlerts) TableName() string {
	return "price_alerts"
}

type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&PriceAlerts{}); err != nil {
		return nil, fmt.Errorf("migrate price_alerts: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func toRecord(a models.PriceAlert) (PriceAlerts, error) {
	criteria, err := json.Marshal(a.Criteria)
	if err != nil {
		return PriceAlerts{}, err
	}
	return PriceAlerts{
		ID:           a.ID,
		MonitorID:    a.MonitorID,
		UserID:       a.UserID,
		Criteria:     string(criteria),
		TargetPrice:  a.TargetPrice,
		CurrentPrice: a.CurrentPrice,
		PriceChange:  a.PriceChange,
		AlertType:    string(a.AlertType),
		CreatedAt:    a.CreatedAt,
		ExpiresAt:    a.ExpiresAt,
	}, nil
}

func fromRecord(r PriceAlerts) (models.PriceAlert, error) {
	a := models.PriceAlert{
		ID:           r.ID,
		MonitorID:    r.MonitorID,
		UserID:       r.UserID,
		TargetPrice:  r.TargetPrice,
		CurrentPrice: r.CurrentPrice,
		PriceChange:  r.PriceChange,
		AlertType:    models.AlertType(r.AlertType),
		CreatedAt:    r.CreatedAt,
		ExpiresAt:    r.ExpiresAt,
	}
	if err := json.Unmarshal([]byte(r.Criteria), &a.Criteria); err != nil {
		return models.PriceAlert{}, err
	}
	return a, nil
}

func (s *PostgresStore) Deliver(ctx context.Context, alert models.PriceAlert) error {
	rec, err := toRecord(alert)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	return s.db.WithContext(ctx).Save(&rec).Error
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string, now time.Time) ([]models.PriceAlert, error) {
	var recs []PriceAlerts
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, now).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.PriceAlert, 0, len(recs))
	for _, r := range recs {
		a, err := fromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("decode alert %s: %w", r.ID, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
