package monitor

import "testing"

func TestComputeTrend(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name   string
		prices []float64
		want   Trend
	}{
		{"empty", nil, defaultTrend()},
		{"single sample", []float64{400}, defaultTrend()},
		{"rising buy now", []float64{400, 420, 440, 450, 460}, Trend{TrendRising, 15, PredictBuyNow}},
		{"rising monitor", []float64{400, 430}, Trend{TrendRising, 7.5, PredictMonitor}},
		{"exactly minus five is stable", []float64{400, 380}, Trend{TrendStable, -5, PredictMonitor}},
		{"falling", []float64{400, 370}, Trend{TrendFalling, -7.5, PredictWait}},
		{"rounded", []float64{300, 301}, Trend{TrendStable, 0.33, PredictMonitor}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computeTrend(tt.prices, cfg); got != tt.want {
				t.Errorf("computeTrend(%v) = %+v, want %+v", tt.prices, got, tt.want)
			}
		})
	}
}

func TestPriceHistoryRing(t *testing.T) {
	h := newPriceHistory(48)
	if h.Previous() != 0 {
		t.Error("empty Previous() should be 0")
	}
	h.Push(10)
	if h.Previous() != 10 {
		t.Errorf("Previous() with one sample = %v, want the sample itself", h.Previous())
	}

	for i := 1; i < 50; i++ {
		h.Push(float64(i))
	}
	if h.Len() != 48 {
		t.Fatalf("Len() = %d, want 48", h.Len())
	}
	all := h.Last(48)
	if all[0] != 2 || all[47] != 49 {
		t.Errorf("oldest/newest = %v/%v, want 2/49", all[0], all[47])
	}
	if last := h.Last(2); last[0] != 48 || last[1] != 49 {
		t.Errorf("Last(2) = %v", last)
	}
	if h.Previous() != 48 {
		t.Errorf("Previous() = %v, want 48", h.Previous())
	}
}
