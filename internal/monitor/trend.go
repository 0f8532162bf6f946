package monitor

import "math"

const (
	TrendRising  = "rising"
	TrendFalling = "falling"
	TrendStable  = "stable"

	PredictBuyNow  = "buy_now"
	PredictWait    = "wait"
	PredictMonitor = "monitor"
)

type Trend struct {
	Trend            string  `json:"trend"`
	ChangePercentage float64 `json:"change_percentage"`
	Prediction       string  `json:"prediction"`
}

func defaultTrend() Trend {
	return Trend{Trend: TrendStable, ChangePercentage: 0, Prediction: PredictMonitor}
}

// computeTrend classifies a price window ordered oldest first.
func computeTrend(prices []float64, cfg Config) Trend {
	if len(prices) < 2 || prices[0] == 0 {
		return defaultTrend()
	}

	oldest, newest := prices[0], prices[len(prices)-1]
	change := (newest - oldest) / oldest * 100

	t := Trend{
		Trend:            TrendStable,
		ChangePercentage: math.Round(change*100) / 100,
		Prediction:       PredictMonitor,
	}
	switch {
	case change > cfg.TrendThresholdPct:
		t.Trend = TrendRising
		if change > cfg.BuyNowThresholdPct {
			t.Prediction = PredictBuyNow
		}
	case change < -cfg.TrendThresholdPct:
		t.Trend = TrendFalling
		t.Prediction = PredictWait
	}
	return t
}
