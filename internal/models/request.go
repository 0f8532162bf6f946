package models

import (
	"regexp"
	"strings"
	"time"
)

const (
	DefaultCurrency   = "USD"
	DefaultMaxResults = 50
)

var iataPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// FlightSearchParams is the immutable input to every provider call.
type FlightSearchParams struct {
	Origin        string   `json:"origin"`
	Destination   string   `json:"destination"`
	DepartureDate string   `json:"departure_date"`
	ReturnDate    *string  `json:"return_date,omitempty"`
	Adults        int      `json:"adults"`
	Children      int      `json:"children,omitempty"`
	Infants       int      `json:"infants,omitempty"`
	CabinClass    string   `json:"cabin_class"`
	MaxPrice      *float64 `json:"max_price,omitempty"`
	Currency      string   `json:"currency"`
	MaxResults    int      `json:"max_results"`
	SortBy        string   `json:"sort_by,omitempty"`
	SortOrder     string   `json:"sort_order,omitempty"`

	Filters *SearchFilters `json:"filters,omitempty"`
}

// SearchFilters narrow a result set after the provider has answered.
// Times of day are HH:MM in the airport's local zone.
type SearchFilters struct {
	PriceMin         *float64 `json:"price_min,omitempty"`
	MaxStops         *int     `json:"max_stops,omitempty"`
	Airlines         []string `json:"airlines,omitempty"`
	DepartureTimeMin *string  `json:"departure_time_min,omitempty"`
	DepartureTimeMax *string  `json:"departure_time_max,omitempty"`
	ArrivalTimeMin   *string  `json:"arrival_time_min,omitempty"`
	ArrivalTimeMax   *string  `json:"arrival_time_max,omitempty"`
	MaxDuration      *int     `json:"max_duration,omitempty"`
}

// Validate checks required fields and fills defaults in place.
func (p *FlightSearchParams) Validate() error {
	p.Origin = strings.ToUpper(strings.TrimSpace(p.Origin))
	p.Destination = strings.ToUpper(strings.TrimSpace(p.Destination))

	if p.Origin == "" {
		return ErrMissingOrigin
	}
	if p.Destination == "" {
		return ErrMissingDestination
	}
	if !iataPattern.MatchString(p.Origin) || !iataPattern.MatchString(p.Destination) {
		return ErrInvalidAirportCode
	}
	if p.Origin == p.Destination {
		return ErrSameOriginDestination
	}
	if p.DepartureDate == "" {
		return ErrMissingDepartureDate
	}
	dep, err := time.Parse("2006-01-02", p.DepartureDate)
	if err != nil {
		return ErrInvalidDate
	}
	if p.ReturnDate != nil && *p.ReturnDate != "" {
		ret, err := time.Parse("2006-01-02", *p.ReturnDate)
		if err != nil {
			return ErrInvalidDate
		}
		if ret.Before(dep) {
			return ErrReturnBeforeDeparture
		}
	}
	if p.ReturnDate != nil && *p.ReturnDate == "" {
		p.ReturnDate = nil
	}

	if p.Adults <= 0 {
		p.Adults = 1
	}
	if p.Children < 0 {
		p.Children = 0
	}
	if p.Infants < 0 {
		p.Infants = 0
	}
	if p.Infants > p.Adults {
		return ErrTooManyInfants
	}
	p.CabinClass = NormalizeCabin(p.CabinClass)
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	p.Currency = strings.ToUpper(p.Currency)
	if p.MaxResults <= 0 {
		p.MaxResults = DefaultMaxResults
	}
	if p.SortBy == "" {
		p.SortBy = "best_value"
	}
	if p.SortOrder == "" {
		p.SortOrder = "asc"
	}
	return nil
}

// Passengers counts every traveller on the booking.
func (p FlightSearchParams) Passengers() int {
	return p.Adults + p.Children + p.Infants
}

// NormalizeCabin maps loose cabin spellings onto the canonical set,
// defaulting to economy.
func NormalizeCabin(s string) string {
	switch strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "-", "_"))) {
	case "premium_economy", "premium", "premiumeconomy":
		return CabinPremiumEconomy
	case "business":
		return CabinBusiness
	case "first":
		return CabinFirst
	default:
		return CabinEconomy
	}
}

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrMissingOrigin         ValidationError = "origin is required"
	ErrMissingDestination    ValidationError = "destination is required"
	ErrMissingDepartureDate  ValidationError = "departure_date is required"
	ErrInvalidAirportCode    ValidationError = "origin and destination must be 3-letter IATA codes"
	ErrSameOriginDestination ValidationError = "origin and destination must differ"
	ErrInvalidDate           ValidationError = "dates must use YYYY-MM-DD"
	ErrReturnBeforeDeparture ValidationError = "return_date must not precede departure_date"
	ErrTooManyInfants        ValidationError = "each infant needs an accompanying adult"
)
