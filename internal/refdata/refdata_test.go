package refdata

import (
	"errors"
	"math"
	"slices"
	"testing"
)

func TestDistanceKm(t *testing.T) {
	d, ok := DistanceKm("JFK", "LAX")
	if !ok {
		t.Fatal("JFK-LAX not resolved")
	}
	if math.Abs(d-3983) > 25 {
		t.Errorf("JFK-LAX = %.0f km, want about 3983", d)
	}

	if _, ok := DistanceKm("JFK", "XXX"); ok {
		t.Error("unknown airport resolved")
	}
}

func TestUnknownCodesDegrade(t *testing.T) {
	if got := Airline("ZZ", "").Name; got != "Airline ZZ" {
		t.Errorf("Airline(ZZ) = %q", got)
	}
	if got := Aircraft("XYZ", "").Name; got != "Unknown Aircraft" {
		t.Errorf("Aircraft(XYZ) = %q", got)
	}
	if got := Aircraft("", "").Code; got != "Unknown" {
		t.Errorf("empty aircraft code = %q", got)
	}
	if got := Airline("KL", "").Name; got != "KLM" {
		t.Errorf("Airline(KL) = %q", got)
	}
}

func TestParseLocalTime(t *testing.T) {
	ts, err := ParseLocalTime("2025-07-15T08:00:00", "CGK")
	if err != nil {
		t.Fatalf("ParseLocalTime() error = %v", err)
	}
	if _, offset := ts.Zone(); offset != 7*3600 {
		t.Errorf("CGK offset = %d, want UTC+7", offset)
	}

	ts, err = ParseLocalTime("2025-07-15T08:00:00+09:00", "CGK")
	if err != nil {
		t.Fatalf("ParseLocalTime() error = %v", err)
	}
	if _, offset := ts.Zone(); offset != 9*3600 {
		t.Errorf("explicit offset ignored, got %d", offset)
	}

	if _, err := ParseLocalTime("tomorrow", "CGK"); err == nil {
		t.Error("expected parse error")
	}
}

func TestSearchAirports(t *testing.T) {
	got := SearchAirports("tokyo")
	if len(got) != 2 || got[0].Code != "HND" || got[1].Code != "NRT" {
		t.Errorf("SearchAirports(tokyo) = %+v", got)
	}
	if len(SearchAirports("nowhere-at-all")) != 0 {
		t.Error("expected no match")
	}
}

func TestAircraftFactor(t *testing.T) {
	tests := []struct {
		aircraft string
		want     float64
	}{
		{"788", 0.180},
		{"Boeing 737-800", 0.255},
		{"airbus-a350", 0.175},
		{"32N", 0.250},
		{"Embraer 190", 0.230},
		{"", 0.230},
	}
	for _, tt := range tests {
		if got := AircraftFactor(tt.aircraft); got != tt.want {
			t.Errorf("AircraftFactor(%q) = %v, want %v", tt.aircraft, got, tt.want)
		}
	}
}

func TestEstimateCarbon(t *testing.T) {
	est, err := EstimateCarbon(CarbonInput{DistanceKm: 1000, AircraftType: "Boeing 737-800", Passengers: 1})
	if err != nil {
		t.Fatalf("EstimateCarbon() error = %v", err)
	}
	if est.TotalEmissionsKg != 255 || est.PerPassengerKg != 255 {
		t.Errorf("emissions = %v total, %v per passenger; want 255, 255", est.TotalEmissionsKg, est.PerPassengerKg)
	}
	if est.OffsetCostUSD != 5.61 {
		t.Errorf("OffsetCostUSD = %v, want 5.61", est.OffsetCostUSD)
	}
	if est.ComparisonToAverage != 0.89 || est.SustainabilityRating != "C" {
		t.Errorf("comparison = %v rating %s; want 0.89, C", est.ComparisonToAverage, est.SustainabilityRating)
	}
	if len(est.Recommendations) != 2 {
		t.Errorf("Recommendations = %v, want the two standing ones", est.Recommendations)
	}
}

func TestEstimateCarbonCabinAndRating(t *testing.T) {
	biz, err := EstimateCarbon(CarbonInput{DistanceKm: 1000, AircraftType: "359", Passengers: 2, CabinClass: "business"})
	if err != nil {
		t.Fatal(err)
	}
	if biz.TotalEmissionsKg != 350 || biz.SustainabilityRating != "A" {
		t.Errorf("business A350 = %v kg rating %s; want 350, A", biz.TotalEmissionsKg, biz.SustainabilityRating)
	}
	if !slices.Contains(biz.Recommendations, "Economy class reduces your carbon footprint by up to 50%") {
		t.Errorf("business cabin missing economy advice: %v", biz.Recommendations)
	}

	first, err := EstimateCarbon(CarbonInput{DistanceKm: 1000, AircraftType: "Embraer 190", Passengers: 1, CabinClass: "first"})
	if err != nil {
		t.Fatal(err)
	}
	if first.SustainabilityRating != "F" {
		t.Errorf("rating = %s, want F", first.SustainabilityRating)
	}
	if first.Recommendations[0] != "Consider choosing a more fuel-efficient aircraft" {
		t.Errorf("first recommendation = %q", first.Recommendations[0])
	}
	if !slices.Contains(first.Recommendations, "This flight has higher emissions than average, consider alternatives") {
		t.Errorf("missing above-average warning: %v", first.Recommendations)
	}
}

func TestEstimateCarbonRejectsMissingFields(t *testing.T) {
	for _, in := range []CarbonInput{
		{AircraftType: "320", Passengers: 1},
		{DistanceKm: 500, Passengers: 1},
		{DistanceKm: 500, AircraftType: "320"},
	} {
		if _, err := EstimateCarbon(in); !errors.Is(err, ErrInvalidCarbonInput) {
			t.Errorf("EstimateCarbon(%+v) error = %v, want ErrInvalidCarbonInput", in, err)
		}
	}
}

func TestRatingBoundaries(t *testing.T) {
	for ratio, want := range map[float64]string{0.7: "A", 0.85: "B", 1.0: "C", 1.2: "D", 1.21: "F"} {
		if got := Rating(ratio); got != want {
			t.Errorf("Rating(%v) = %s, want %s", ratio, got, want)
		}
	}
}
