package models

import "time"

type Preferences struct {
	PreferredAirlines        []string `json:"preferred_airlines" bson:"preferredAirlines"`
	PreferredAirports        []string `json:"preferred_airports" bson:"preferredAirports"`
	CabinClassPreference     string   `json:"cabin_class_preference" bson:"cabinClassPreference"`
	MealPreferences          []string `json:"meal_preferences" bson:"mealPreferences"`
	SeatPreferences          []string `json:"seat_preferences" bson:"seatPreferences"`
	SustainabilityCommitment string   `json:"sustainability_commitment" bson:"sustainabilityCommitment"`
	BudgetFlexibility        int      `json:"budget_flexibility" bson:"budgetFlexibility"`
	TimeFlexibility          int      `json:"time_flexibility" bson:"timeFlexibility"`
}

type TravelRecord struct {
	FlightID string `json:"flight_id" bson:"flightId"`
	Date     string `json:"date" bson:"date"`
	Rating   int    `json:"rating" bson:"rating"`
	Review   string `json:"review,omitempty" bson:"review,omitempty"`
}

type UserProfile struct {
	ID            string         `json:"id" bson:"_id"`
	Preferences   Preferences    `json:"preferences" bson:"preferences"`
	TravelHistory []TravelRecord `json:"travel_history" bson:"travelHistory"`
	UpdatedAt     time.Time      `json:"updated_at" bson:"updatedAt"`
}

// DefaultProfile is what a user without a stored profile starts from.
func DefaultProfile(id string) UserProfile {
	return UserProfile{
		ID: id,
		Preferences: Preferences{
			PreferredAirlines:        []string{},
			PreferredAirports:        []string{},
			CabinClassPreference:     CabinEconomy,
			MealPreferences:          []string{},
			SeatPreferences:          []string{},
			SustainabilityCommitment: "high",
			BudgetFlexibility:        5,
			TimeFlexibility:          3,
		},
		TravelHistory: []TravelRecord{},
	}
}
