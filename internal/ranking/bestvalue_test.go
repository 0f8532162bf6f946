package ranking

import (
	"testing"

	"github.com/dharmasatrya/flightwatch/internal/models"
)

func flight(total float64, minutes, segments int) models.Flight {
	return models.Flight{
		Price:         models.Price{Total: total},
		TotalDuration: minutes,
		Segments:      make([]models.Segment, segments),
	}
}

func TestScore(t *testing.T) {
	// 0.5*50 + 0.3*100 + 0.2*15
	got := DefaultWeights.Score(flight(200, 600, 2), Bounds{Price: 400, Duration: 600})
	if got != 58 {
		t.Errorf("Score() = %v, want 58", got)
	}
}

func TestScoreZeroBounds(t *testing.T) {
	if got := DefaultWeights.Score(flight(0, 0, 1), Bounds{}); got != 0 {
		t.Errorf("Score() = %v, want 0", got)
	}
}

func TestRankPrefersCheapDirect(t *testing.T) {
	ranked := Rank([]models.Flight{
		flight(500, 300, 1),
		flight(300, 280, 1),
		flight(280, 540, 3),
	})
	if ranked[1].BestValueScore >= ranked[0].BestValueScore {
		t.Errorf("cheaper direct flight scored %v vs %v", ranked[1].BestValueScore, ranked[0].BestValueScore)
	}
	if ranked[1].BestValueScore >= ranked[2].BestValueScore {
		t.Errorf("two-stop flight scored better: %v vs %v", ranked[2].BestValueScore, ranked[1].BestValueScore)
	}
}

func TestCustomWeights(t *testing.T) {
	priceOnly := Weights{Price: 1}
	ranked := priceOnly.Rank([]models.Flight{flight(400, 60, 1), flight(200, 900, 3)})
	if ranked[1].BestValueScore >= ranked[0].BestValueScore {
		t.Errorf("price-only weights did not favour the cheaper flight: %v", ranked)
	}
}

func TestRankLeavesInputUntouched(t *testing.T) {
	in := []models.Flight{flight(100, 60, 1)}
	Rank(in)
	if in[0].BestValueScore != 0 {
		t.Error("Rank() mutated its input")
	}
}
