package monitor

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/dharmasatrya/flightwatch/internal/models"
)

// alertType decides whether an observation warrants an alert. The target
// price wins over a drop, and a drop over a rise.
func alertType(current, change, target float64, cfg Config) (models.AlertType, bool) {
	switch {
	case current <= target:
		return models.AlertThreshold, true
	case change < 0 && math.Abs(change) > cfg.DropThreshold:
		return models.AlertDrop, true
	case change > 0 && math.Abs(change) > cfg.RiseThreshold:
		return models.AlertTrendChange, true
	default:
		return "", false
	}
}

func newAlert(s *session, kind models.AlertType, current, change float64, now time.Time, ttl time.Duration) models.PriceAlert {
	return models.PriceAlert{
		ID:           "alert_" + uuid.NewString(),
		MonitorID:    s.id,
		UserID:       s.userID,
		Criteria:     models.CriteriaFromParams(s.params),
		TargetPrice:  s.target,
		CurrentPrice: current,
		PriceChange:  math.Round(change*100) / 100,
		AlertType:    kind,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
}
