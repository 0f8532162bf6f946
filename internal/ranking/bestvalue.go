// Package ranking scores flights for the best_value sort. Lower is better.
package ranking

import (
	"math"

	"github.com/dharmasatrya/flightwatch/internal/models"
)

type Weights struct {
	Price    float64
	Duration float64
	Stops    float64
}

var DefaultWeights = Weights{Price: 0.5, Duration: 0.3, Stops: 0.2}

// stopPenalty is the score, before weighting, that each connection costs.
const stopPenalty = 15

// Bounds are the largest price and duration in the set being ranked;
// both components are expressed as a percentage of them.
type Bounds struct {
	Price    float64
	Duration float64
}

func BoundsOf(flights []models.Flight) Bounds {
	var b Bounds
	for _, f := range flights {
		b.Price = math.Max(b.Price, f.Price.Total)
		b.Duration = math.Max(b.Duration, float64(f.TotalDuration))
	}
	return b
}

func (w Weights) Score(f models.Flight, b Bounds) float64 {
	var price, duration float64
	if b.Price > 0 {
		price = f.Price.Total / b.Price * 100
	}
	if b.Duration > 0 {
		duration = float64(f.TotalDuration) / b.Duration * 100
	}
	stops := float64(f.Stops() * stopPenalty)

	return round2(w.Price*price + w.Duration*duration + w.Stops*stops)
}

// Rank returns copies of flights with BestValueScore filled in.
func (w Weights) Rank(flights []models.Flight) []models.Flight {
	if len(flights) == 0 {
		return flights
	}

	b := BoundsOf(flights)
	out := make([]models.Flight, len(flights))
	for i, f := range flights {
		f.BestValueScore = w.Score(f, b)
		out[i] = f
	}
	return out
}

func Rank(flights []models.Flight) []models.Flight {
	return DefaultWeights.Rank(flights)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
