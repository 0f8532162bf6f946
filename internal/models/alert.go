package models

import "time"

type AlertType string

const (
	AlertThreshold   AlertType = "threshold"
	AlertDrop        AlertType = "drop"
	AlertTrendChange AlertType = "trend_change"
)

type Passengers struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

type AlertCriteria struct {
	Origin                 string     `json:"origin"`
	Destination            string     `json:"destination"`
	DepartureDate          string     `json:"departure_date"`
	ReturnDate             *string    `json:"return_date,omitempty"`
	Passengers             Passengers `json:"passengers"`
	CabinClass             []string   `json:"cabin_class"`
	SustainabilityPriority string     `json:"sustainability_priority"`
}

// PriceAlert is raised by a monitor tick and handed to the caller's callback.
type PriceAlert struct {
	ID           string        `json:"id"`
	MonitorID    string        `json:"monitor_id"`
	UserID       string        `json:"user_id"`
	Criteria     AlertCriteria `json:"criteria"`
	TargetPrice  float64       `json:"target_price"`
	CurrentPrice float64       `json:"current_price"`
	PriceChange  float64       `json:"price_change"`
	AlertType    AlertType     `json:"alert_type"`
	CreatedAt    time.Time     `json:"created_at"`
	ExpiresAt    time.Time     `json:"expires_at"`
}

// CriteriaFromParams captures the search that produced an alert.
func CriteriaFromParams(p FlightSearchParams) AlertCriteria {
	cabin := p.CabinClass
	if cabin == "" {
		cabin = CabinEconomy
	}
	return AlertCriteria{
		Origin:        p.Origin,
		Destination:   p.Destination,
		DepartureDate: p.DepartureDate,
		ReturnDate:    p.ReturnDate,
		Passengers: Passengers{
			Adults:   p.Adults,
			Children: p.Children,
			Infants:  p.Infants,
		},
		CabinClass:             []string{cabin},
		SustainabilityPriority: "moderate",
	}
}
