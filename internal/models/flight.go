package models

import "time"

const (
	CabinEconomy        = "economy"
	CabinPremiumEconomy = "premium_economy"
	CabinBusiness       = "business"
	CabinFirst          = "first"
)

type Airline struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type Airport struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	City     string `json:"city"`
	Country  string `json:"country"`
	Timezone string `json:"timezone,omitempty"`
}

type Endpoint struct {
	Airport  Airport   `json:"airport"`
	Time     time.Time `json:"time"`
	Terminal *string   `json:"terminal,omitempty"`
}

type Aircraft struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type Segment struct {
	ID           string   `json:"id"`
	Airline      Airline  `json:"airline"`
	FlightNumber string   `json:"flight_number"`
	Departure    Endpoint `json:"departure"`
	Arrival      Endpoint `json:"arrival"`
	Duration     int      `json:"duration_minutes"`
	DistanceKm   float64  `json:"distance_km"`
	Aircraft     Aircraft `json:"aircraft"`
	CabinClass   string   `json:"cabin_class"`
	Amenities    []string `json:"amenities,omitempty"`
}

type PricePrediction struct {
	Trend      string  `json:"trend"`
	Confidence float64 `json:"confidence"`
}

type Price struct {
	Base            float64         `json:"base"`
	Taxes           float64         `json:"taxes"`
	Fees            float64         `json:"fees"`
	Total           float64         `json:"total"`
	Currency        string          `json:"currency"`
	Formatted       string          `json:"formatted"`
	TrendPrediction PricePrediction `json:"trend_prediction"`
}

type CarbonFootprint struct {
	TotalKg             float64 `json:"total_kg"`
	PerPassenger        float64 `json:"per_passenger"`
	OffsetCost          float64 `json:"offset_cost"`
	ComparisonToAverage float64 `json:"comparison_to_average"`
}

type Baggage struct {
	CarryOnIncluded bool               `json:"carry_on_included"`
	CheckedIncluded int                `json:"checked_included"`
	AdditionalFees  map[string]float64 `json:"additional_fees,omitempty"`
}

type DelayPrediction struct {
	Probability          float64  `json:"probability"`
	ExpectedDelayMinutes int      `json:"expected_delay_minutes"`
	Factors              []string `json:"factors,omitempty"`
}

// Flight is the canonical offer shape every provider normalizes into.
type Flight struct {
	ID                   string          `json:"id"`
	Provider             string          `json:"provider"`
	Segments             []Segment       `json:"segments"`
	TotalDuration        int             `json:"total_duration_minutes"`
	TotalDistance        float64         `json:"total_distance_km"`
	Price                Price           `json:"price"`
	CarbonFootprint      CarbonFootprint `json:"carbon_footprint"`
	Baggage              Baggage         `json:"baggage"`
	AvailableSeats       int             `json:"available_seats,omitempty"`
	BookingConfidence    float64         `json:"booking_confidence"`
	DelayPrediction      DelayPrediction `json:"delay_prediction"`
	SustainabilityBadge  string          `json:"sustainability_badge,omitempty"`
	SustainabilityBadges []string        `json:"sustainability_badges,omitempty"`
	Recommendation       string          `json:"recommendation,omitempty"`
	BestValueScore       float64         `json:"best_value_score,omitempty"`
}

// Stops is the number of intermediate landings.
func (f Flight) Stops() int {
	if len(f.Segments) == 0 {
		return 0
	}
	return len(f.Segments) - 1
}

func (f Flight) DepartureTime() time.Time {
	if len(f.Segments) == 0 {
		return time.Time{}
	}
	return f.Segments[0].Departure.Time
}

func (f Flight) ArrivalTime() time.Time {
	if len(f.Segments) == 0 {
		return time.Time{}
	}
	return f.Segments[len(f.Segments)-1].Arrival.Time
}

// MarketingCarrier is the airline of the first segment.
func (f Flight) MarketingCarrier() string {
	if len(f.Segments) == 0 {
		return ""
	}
	return f.Segments[0].Airline.Code
}
