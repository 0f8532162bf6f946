package refdata

import (
	"errors"
	"math"
	"strings"

	"github.com/dharmasatrya/flightwatch/internal/models"
)

const (
	// kg CO2 per km flown when the aircraft family is unknown
	defaultAircraftFactor = 0.230
	// kg CO2 per passenger per 1000 km across the industry
	industryAveragePer1000Km = 285.0
	offsetUSDPerTonne        = 22.0
)

var ErrInvalidCarbonInput = errors.New("distance_km, aircraft_type and passengers are required")

type aircraftFamily struct {
	prefix string
	factor float64
}

// Matched by prefix against the normalized aircraft name.
var aircraftFamilies = []aircraftFamily{
	{"boeing_737", 0.255},
	{"boeing_787", 0.180},
	{"airbus_a320", 0.250},
	{"airbus_a350", 0.175},
}

var familyByCode = map[string]string{
	"738": "boeing_737",
	"739": "boeing_737",
	"7M8": "boeing_737",
	"788": "boeing_787",
	"789": "boeing_787",
	"319": "airbus_a320",
	"320": "airbus_a320",
	"321": "airbus_a320",
	"32N": "airbus_a320",
	"359": "airbus_a350",
}

var carbonCabinMultiplier = map[string]float64{
	models.CabinEconomy:        1.0,
	models.CabinPremiumEconomy: 1.3,
	models.CabinBusiness:       2.0,
	models.CabinFirst:          3.0,
}

type CarbonInput struct {
	DistanceKm   float64 `json:"distance_km"`
	AircraftType string  `json:"aircraft_type"`
	Passengers   int     `json:"passengers"`
	CabinClass   string  `json:"cabin_class"`
}

type CarbonEstimate struct {
	TotalEmissionsKg     float64  `json:"total_emissions_kg"`
	PerPassengerKg       float64  `json:"per_passenger_kg"`
	OffsetCostUSD        float64  `json:"offset_cost_usd"`
	ComparisonToAverage  float64  `json:"comparison_to_average"`
	SustainabilityRating string   `json:"sustainability_rating"`
	Recommendations      []string `json:"recommendations"`
}

// AircraftFactor returns kg CO2 per km for an IATA equipment code or a
// free-form aircraft name such as "Boeing 787-9".
func AircraftFactor(aircraft string) float64 {
	if fam, ok := familyByCode[strings.ToUpper(strings.TrimSpace(aircraft))]; ok {
		aircraft = fam
	}
	key := strings.ToLower(strings.TrimSpace(aircraft))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	for _, f := range aircraftFamilies {
		if strings.HasPrefix(key, f.prefix) {
			return f.factor
		}
	}
	return defaultAircraftFactor
}

// EstimateCarbon rates a single flight against the industry average. An
// empty cabin class is treated as economy.
func EstimateCarbon(in CarbonInput) (CarbonEstimate, error) {
	if in.DistanceKm <= 0 || strings.TrimSpace(in.AircraftType) == "" || in.Passengers <= 0 {
		return CarbonEstimate{}, ErrInvalidCarbonInput
	}
	cabin := in.CabinClass
	if cabin == "" {
		cabin = models.CabinEconomy
	}
	mult, ok := carbonCabinMultiplier[cabin]
	if !ok {
		mult = 1
	}

	total := in.DistanceKm * AircraftFactor(in.AircraftType) * mult
	perPax := total / float64(in.Passengers)
	ratio := perPax / (in.DistanceKm / 1000 * industryAveragePer1000Km)
	rating := Rating(ratio)

	return CarbonEstimate{
		TotalEmissionsKg:     round2(total),
		PerPassengerKg:       round2(perPax),
		OffsetCostUSD:        round2(perPax / 1000 * offsetUSDPerTonne),
		ComparisonToAverage:  round2(ratio),
		SustainabilityRating: rating,
		Recommendations:      recommendations(rating, cabin, ratio),
	}, nil
}

// Rating grades the ratio of per-passenger emissions to the industry average.
func Rating(ratio float64) string {
	switch {
	case ratio <= 0.7:
		return "A"
	case ratio <= 0.85:
		return "B"
	case ratio <= 1.0:
		return "C"
	case ratio <= 1.2:
		return "D"
	default:
		return "F"
	}
}

func recommendations(rating, cabin string, ratio float64) []string {
	var out []string
	if rating == "D" || rating == "F" {
		out = append(out,
			"Consider choosing a more fuel-efficient aircraft",
			"Look for flights with higher passenger load factors",
		)
	}
	if cabin == models.CabinBusiness || cabin == models.CabinFirst {
		out = append(out, "Economy class reduces your carbon footprint by up to 50%")
	}
	if ratio > 1.2 {
		out = append(out, "This flight has higher emissions than average, consider alternatives")
	}
	return append(out,
		"Purchase carbon offsets to neutralize your flight emissions",
		"Choose airlines with strong sustainability commitments",
	)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
