package aggregator

import "github.com/dharmasatrya/flightwatch/internal/models"

const lowCarbonPerPassengerKg = 200

const (
	BadgeLowCarbon    = "Low Carbon"
	BadgeDirectFlight = "Direct Flight"
	BadgeEcoCertified = "Eco-Certified"
)

// Enrich derives badges and a recommendation for every flight. It returns
// new values and leaves the input untouched.
func Enrich(flights []models.Flight) []models.Flight {
	out := make([]models.Flight, len(flights))
	for i, f := range flights {
		f.SustainabilityBadges = badges(f)
		f.Recommendation = recommendation(f)
		out[i] = f
	}
	return out
}

func badges(f models.Flight) []string {
	var b []string
	if f.CarbonFootprint.PerPassenger < lowCarbonPerPassengerKg {
		b = append(b, BadgeLowCarbon)
	}
	if len(f.Segments) == 1 {
		b = append(b, BadgeDirectFlight)
	}
	if f.SustainabilityBadge != "" {
		b = append(b, BadgeEcoCertified)
	}
	return b
}

func recommendation(f models.Flight) string {
	switch {
	case f.SustainabilityBadge == "eco_champion":
		return "Highly recommended for eco-conscious travelers"
	case len(f.Segments) == 1:
		return "Direct flight - saves time and reduces emissions"
	default:
		return "Good value flight option"
	}
}
