package providers

import (
	"math"
	"regexp"
	"strconv"

	"github.com/dharmasatrya/flightwatch/internal/models"
	"github.com/dharmasatrya/flightwatch/internal/refdata"
	"github.com/dharmasatrya/flightwatch/pkg/currency"
)

const (
	// kg CO2 per passenger-km in economy
	emissionFactor = 0.09
	offsetPerKg    = 0.02
	cruiseKmPerMin = 800.0 / 60
)

var cabinMultiplier = map[string]float64{
	models.CabinEconomy:        1.0,
	models.CabinPremiumEconomy: 1.5,
	models.CabinBusiness:       2.9,
	models.CabinFirst:          4.0,
}

var isoDuration = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?`)

// parseISODuration turns PT2H30M into 150. Malformed values are 0.
func parseISODuration(s string) int {
	m := isoDuration.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	hours, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	return hours*60 + mins
}

type offer struct {
	id          string
	provider    string
	segments    []models.Segment
	duration    int
	price       models.Price
	seats       int
	checkedBags int
}

// build fills every derived field of the canonical Flight. All of it is a
// function of the offer, so the same payload always normalizes identically.
func (o offer) build(params models.FlightSearchParams) models.Flight {
	var distance, perPax float64
	for i := range o.segments {
		seg := &o.segments[i]
		if d, ok := refdata.DistanceKm(seg.Departure.Airport.Code, seg.Arrival.Airport.Code); ok {
			seg.DistanceKm = math.Round(d)
		} else {
			seg.DistanceKm = math.Round(float64(seg.Duration) * cruiseKmPerMin)
		}
		distance += seg.DistanceKm

		mult, ok := cabinMultiplier[seg.CabinClass]
		if !ok {
			mult = 1
		}
		perPax += seg.DistanceKm * emissionFactor * mult
	}
	perPax = math.Round(perPax)

	passengers := params.Passengers()
	if passengers <= 0 {
		passengers = 1
	}
	totalKg := perPax * float64(passengers)

	duration := o.duration
	if duration == 0 {
		for _, seg := range o.segments {
			duration += seg.Duration
		}
	}

	price := o.price
	price.Formatted = currency.Format(price.Total, price.Currency)
	price.TrendPrediction = trendHint(o.seats)

	f := models.Flight{
		ID:            o.id,
		Provider:      o.provider,
		Segments:      o.segments,
		TotalDuration: duration,
		TotalDistance: math.Round(distance),
		Price:         price,
		CarbonFootprint: models.CarbonFootprint{
			TotalKg:             totalKg,
			PerPassenger:        perPax,
			OffsetCost:          round2(totalKg * offsetPerKg),
			ComparisonToAverage: comparisonToDirect(o.segments, perPax),
		},
		Baggage: models.Baggage{
			CarryOnIncluded: true,
			CheckedIncluded: o.checkedBags,
			AdditionalFees: map[string]float64{
				"extra_bag":  50,
				"overweight": 100,
			},
		},
		AvailableSeats:    o.seats,
		BookingConfidence: bookingConfidence(o.seats),
		DelayPrediction:   delayPrediction(o.segments, duration),
	}

	if len(o.segments) == 1 && refdata.HasOffsetProgramme(o.segments[0].Airline.Code) {
		f.SustainabilityBadge = "eco_champion"
	}
	return f
}

// comparisonToDirect is the fractional excess over a direct economy flight
// on the same city pair.
func comparisonToDirect(segs []models.Segment, perPax float64) float64 {
	if len(segs) == 0 {
		return 0
	}
	from := segs[0].Departure.Airport.Code
	to := segs[len(segs)-1].Arrival.Airport.Code
	direct, ok := refdata.DistanceKm(from, to)
	if !ok {
		for _, s := range segs {
			direct += s.DistanceKm
		}
	}
	baseline := direct * emissionFactor
	if baseline <= 0 {
		return 0
	}
	return round2((perPax - baseline) / baseline)
}

func bookingConfidence(seats int) float64 {
	if seats <= 0 {
		return 0.8
	}
	return round2(math.Min(0.99, 0.6+0.05*float64(seats)))
}

func delayPrediction(segs []models.Segment, duration int) models.DelayPrediction {
	stops := len(segs) - 1
	if stops < 0 {
		stops = 0
	}
	factors := []string{"Air Traffic"}
	if stops > 0 {
		factors = append(factors, "Connection")
	}
	if duration > 6*60 {
		factors = append(factors, "Long Haul")
	}
	return models.DelayPrediction{
		Probability:          round2(math.Min(0.5, 0.1+0.08*float64(stops))),
		ExpectedDelayMinutes: 10 + 12*stops,
		Factors:              factors,
	}
}

func trendHint(seats int) models.PricePrediction {
	switch {
	case seats > 0 && seats <= 3:
		return models.PricePrediction{Trend: "rising", Confidence: 0.8}
	case seats > 0 && seats <= 6:
		return models.PricePrediction{Trend: "stable", Confidence: 0.65}
	default:
		return models.PricePrediction{Trend: "stable", Confidence: 0.6}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
