// Package store is the optional durable side of the system: a last-known
// answer per search and user profile documents. Every backend is
// best-effort; callers treat errors as a miss.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/dharmasatrya/flightwatch/internal/models"
)

var ErrNotFound = errors.New("not found")

type FlightStore interface {
	SaveFlights(ctx context.Context, key string, flights []models.Flight) error
	GetFlights(ctx context.Context, key string) ([]models.Flight, bool, error)
}

type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*models.UserProfile, error)
	UpsertProfile(ctx context.Context, profile *models.UserProfile) error
	DeleteProfile(ctx context.Context, id string) error
}

// Store is what a full backend offers.
type Store interface {
	FlightStore
	ProfileStore
	Close() error
}

// SearchKey identifies a search by the fields that change what providers
// return. Sorting and filters are applied afterwards, so they are left out.
func SearchKey(p models.FlightSearchParams) string {
	keyData := struct {
		Origin        string
		Destination   string
		DepartureDate string
		ReturnDate    string
		Adults        int
		Children      int
		Infants       int
		CabinClass    string
		Currency      string
	}{
		Origin:        p.Origin,
		Destination:   p.Destination,
		DepartureDate: p.DepartureDate,
		Adults:        p.Adults,
		Children:      p.Children,
		Infants:       p.Infants,
		CabinClass:    p.CabinClass,
		Currency:      p.Currency,
	}

	if p.ReturnDate != nil {
		keyData.ReturnDate = *p.ReturnDate
	}

	data, _ := json.Marshal(keyData)
	hash := sha256.Sum256(data)
	return "flights:" + hex.EncodeToString(hash[:])
}
