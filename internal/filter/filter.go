package filter

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/dharmasatrya/flightwatch/internal/models"
	"github.com/dharmasatrya/flightwatch/internal/ranking"
)

// Apply drops flights above MaxPrice or outside the optional filters,
// scores and sorts what remains, and trims to MaxResults.
func Apply(flights []models.Flight, params models.FlightSearchParams) []models.Flight {
	filtered := make([]models.Flight, 0, len(flights))
	for _, f := range flights {
		if params.MaxPrice != nil && f.Price.Total > *params.MaxPrice {
			continue
		}
		if params.Filters != nil && !matchesFilters(f, params.Filters) {
			continue
		}
		filtered = append(filtered, f)
	}

	filtered = ranking.Rank(filtered)
	sorted := applySort(filtered, params.SortBy, params.SortOrder)

	if params.MaxResults > 0 && len(sorted) > params.MaxResults {
		sorted = sorted[:params.MaxResults]
	}
	return sorted
}

func matchesFilters(f models.Flight, filters *models.SearchFilters) bool {
	if filters.PriceMin != nil && f.Price.Total < *filters.PriceMin {
		return false
	}

	if filters.MaxStops != nil && f.Stops() > *filters.MaxStops {
		return false
	}

	if len(filters.Airlines) > 0 {
		found := false
		for _, airline := range filters.Airlines {
			if strings.EqualFold(f.MarketingCarrier(), airline) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if !withinTimeOfDay(f.DepartureTime(), filters.DepartureTimeMin, filters.DepartureTimeMax) {
		return false
	}
	if !withinTimeOfDay(f.ArrivalTime(), filters.ArrivalTimeMin, filters.ArrivalTimeMax) {
		return false
	}

	if filters.MaxDuration != nil && f.TotalDuration > *filters.MaxDuration {
		return false
	}

	return true
}

func withinTimeOfDay(t time.Time, min, max *string) bool {
	minutes := t.Hour()*60 + t.Minute()
	if min != nil {
		if bound, err := parseTimeOfDay(*min); err == nil && minutes < bound {
			return false
		}
	}
	if max != nil {
		if bound, err := parseTimeOfDay(*max); err == nil && minutes > bound {
			return false
		}
	}
	return true
}

func parseTimeOfDay(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// sortKeys compare two flights for ascending order. Unknown keys fall
// back to best_value.
var sortKeys = map[string]func(a, b models.Flight) int{
	"price": func(a, b models.Flight) int {
		return cmp.Compare(a.Price.Total, b.Price.Total)
	},
	"duration": func(a, b models.Flight) int {
		return cmp.Compare(a.TotalDuration, b.TotalDuration)
	},
	"departure": func(a, b models.Flight) int {
		return a.DepartureTime().Compare(b.DepartureTime())
	},
	"arrival": func(a, b models.Flight) int {
		return a.ArrivalTime().Compare(b.ArrivalTime())
	},
	"stops": func(a, b models.Flight) int {
		return cmp.Compare(a.Stops(), b.Stops())
	},
	"best_value": func(a, b models.Flight) int {
		return cmp.Compare(a.BestValueScore, b.BestValueScore)
	},
}

func applySort(flights []models.Flight, sortBy, sortOrder string) []models.Flight {
	compare, ok := sortKeys[strings.ToLower(sortBy)]
	if !ok {
		compare = sortKeys["best_value"]
	}
	if strings.EqualFold(sortOrder, "desc") {
		asc := compare
		compare = func(a, b models.Flight) int { return asc(b, a) }
	}

	slices.SortStableFunc(flights, compare)
	return flights
}
