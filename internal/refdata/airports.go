// Package refdata is the built-in reference table of airports, carriers
// and aircraft used to fill names, timezones and distances that provider
// payloads leave out.
package refdata

import (
	"math"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/dharmasatrya/flightwatch/internal/models"
)

type airport struct {
	name     string
	city     string
	country  string
	timezone string
	offset   int // fallback UTC offset in hours when the zone database is missing
	lat      float64
	lng      float64
}

var airports = map[string]airport{
	"JFK": {"John F. Kennedy International Airport", "New York", "United States", "America/New_York", -5, 40.6413, -73.7781},
	"LAX": {"Los Angeles International Airport", "Los Angeles", "United States", "America/Los_Angeles", -8, 33.9425, -118.4081},
	"SFO": {"San Francisco International Airport", "San Francisco", "United States", "America/Los_Angeles", -8, 37.6213, -122.3790},
	"ORD": {"O'Hare International Airport", "Chicago", "United States", "America/Chicago", -6, 41.9742, -87.9073},
	"LHR": {"London Heathrow Airport", "London", "United Kingdom", "Europe/London", 0, 51.4700, -0.4543},
	"CDG": {"Charles de Gaulle Airport", "Paris", "France", "Europe/Paris", 1, 49.0097, 2.5479},
	"AMS": {"Amsterdam Airport Schiphol", "Amsterdam", "Netherlands", "Europe/Amsterdam", 1, 52.3105, 4.7683},
	"FRA": {"Frankfurt Airport", "Frankfurt", "Germany", "Europe/Berlin", 1, 50.0379, 8.5622},
	"DXB": {"Dubai International Airport", "Dubai", "United Arab Emirates", "Asia/Dubai", 4, 25.2532, 55.3657},
	"SIN": {"Singapore Changi Airport", "Singapore", "Singapore", "Asia/Singapore", 8, 1.3644, 103.9915},
	"NRT": {"Narita International Airport", "Tokyo", "Japan", "Asia/Tokyo", 9, 35.7720, 140.3928},
	"HND": {"Tokyo Haneda Airport", "Tokyo", "Japan", "Asia/Tokyo", 9, 35.5494, 139.7798},

	// Indonesia spans three zones: WIB (UTC+7), WITA (UTC+8), WIT (UTC+9).
	"CGK": {"Soekarno-Hatta International Airport", "Jakarta", "Indonesia", "Asia/Jakarta", 7, -6.1256, 106.6559},
	"SUB": {"Juanda International Airport", "Surabaya", "Indonesia", "Asia/Jakarta", 7, -7.3798, 112.7868},
	"JOG": {"Adisucipto International Airport", "Yogyakarta", "Indonesia", "Asia/Jakarta", 7, -7.7882, 110.4318},
	"KNO": {"Kualanamu International Airport", "Medan", "Indonesia", "Asia/Jakarta", 7, 3.6422, 98.8853},
	"DPS": {"Ngurah Rai International Airport", "Denpasar", "Indonesia", "Asia/Makassar", 8, -8.7482, 115.1672},
	"UPG": {"Sultan Hasanuddin International Airport", "Makassar", "Indonesia", "Asia/Makassar", 8, -5.0617, 119.5540},
	"BPN": {"Sultan Aji Muhammad Sulaiman Airport", "Balikpapan", "Indonesia", "Asia/Makassar", 8, -1.2683, 116.8944},
	"DJJ": {"Sentani International Airport", "Jayapura", "Indonesia", "Asia/Jayapura", 9, -2.5769, 140.5164},
}

// Airport returns the canonical record for code. Unknown codes come back
// with the code standing in for name and city, and known is false.
func Airport(code string) (a models.Airport, known bool) {
	code = strings.ToUpper(code)
	ref, ok := airports[code]
	if !ok {
		return models.Airport{Code: code, Name: code, City: code}, false
	}
	return models.Airport{
		Code:     code,
		Name:     ref.name,
		City:     ref.city,
		Country:  ref.country,
		Timezone: ref.timezone,
	}, true
}

// Location is the airport's local zone, or UTC for unknown airports.
func Location(code string) *time.Location {
	ref, ok := airports[strings.ToUpper(code)]
	if !ok {
		return time.UTC
	}
	if loc, err := time.LoadLocation(ref.timezone); err == nil {
		return loc
	}
	return time.FixedZone(ref.timezone, ref.offset*60*60)
}

// SearchAirports matches query against code, name and city, case-insensitively.
func SearchAirports(query string) []models.Airport {
	q := strings.ToLower(strings.TrimSpace(query))

	var out []models.Airport
	for code, ref := range airports {
		if strings.Contains(strings.ToLower(code), q) ||
			strings.Contains(strings.ToLower(ref.name), q) ||
			strings.Contains(strings.ToLower(ref.city), q) {
			a, _ := Airport(code)
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

const earthRadiusKm = 6371.0

// DistanceKm is the great-circle distance between two known airports.
func DistanceKm(from, to string) (float64, bool) {
	a, okA := airports[strings.ToUpper(from)]
	b, okB := airports[strings.ToUpper(to)]
	if !okA || !okB {
		return 0, false
	}

	lat1, lat2 := radians(a.lat), radians(b.lat)
	dLat := radians(b.lat - a.lat)
	dLng := radians(b.lng - a.lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h)), true
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ParseLocalTime reads a provider timestamp. Values that carry an offset
// are taken as is; bare local times are placed in the airport's zone.
func ParseLocalTime(value, airportCode string) (time.Time, error) {
	offsetFormats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05-0700",
		"2006-01-02T15:04:05Z",
	}
	for _, format := range offsetFormats {
		if t, err := time.Parse(format, value); err == nil {
			return t, nil
		}
	}

	loc := Location(airportCode)
	localFormats := []string{
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
	}
	for _, format := range localFormats {
		if t, err := time.ParseInLocation(format, value, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, &time.ParseError{
		Value:   value,
		Message: "unable to parse time string",
	}
}
