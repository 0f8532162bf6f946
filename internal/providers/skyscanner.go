package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dharmasatrya/flightwatch/internal/models"
	"github.com/dharmasatrya/flightwatch/internal/refdata"
)

const (
	SkyscannerName           = "skyscanner"
	DefaultSkyscannerBaseURL = "https://partners.api.skyscanner.net/apiservices"
)

type SkyscannerConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Market  string `yaml:"market"`
	Locale  string `yaml:"locale"`
}

// Skyscanner is the secondary offer source. Its static API key doubles as
// the access token.
type Skyscanner struct {
	client
	cfg SkyscannerConfig
}

func NewSkyscanner(cfg SkyscannerConfig, opts Options) *Skyscanner {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultSkyscannerBaseURL
	}
	if cfg.Market == "" {
		cfg.Market = "US"
	}
	if cfg.Locale == "" {
		cfg.Locale = "en-US"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Skyscanner{
		client: client{name: SkyscannerName, baseURL: cfg.BaseURL, opts: opts.withDefaults()},
		cfg:    cfg,
	}
}

func (s *Skyscanner) Name() string {
	return SkyscannerName
}

func (s *Skyscanner) EnsureAccessToken(ctx context.Context) (string, error) {
	if s.cfg.APIKey == "" {
		return "", NewProviderError(s.name, ErrAuthentication, errors.New("api key not configured"))
	}
	return s.cfg.APIKey, nil
}

func (s *Skyscanner) apiKey(ctx context.Context, req *http.Request) error {
	key, err := s.EnsureAccessToken(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("x-api-key", key)
	return nil
}

var skyscannerCabins = map[string]string{
	models.CabinEconomy:        "CABIN_CLASS_ECONOMY",
	models.CabinPremiumEconomy: "CABIN_CLASS_PREMIUM_ECONOMY",
	models.CabinBusiness:       "CABIN_CLASS_BUSINESS",
	models.CabinFirst:          "CABIN_CLASS_FIRST",
}

type skyDate struct {
	Year   int `json:"year"`
	Month  int `json:"month"`
	Day    int `json:"day"`
	Hour   int `json:"hour,omitempty"`
	Minute int `json:"minute,omitempty"`
}

type skyPlaceRef struct {
	IATA string `json:"iata"`
}

type skyQueryLeg struct {
	OriginPlaceID      skyPlaceRef `json:"originPlaceId"`
	DestinationPlaceID skyPlaceRef `json:"destinationPlaceId"`
	Date               skyDate     `json:"date"`
}

type skyQuery struct {
	Market       string        `json:"market"`
	Locale       string        `json:"locale"`
	Currency     string        `json:"currency"`
	QueryLegs    []skyQueryLeg `json:"queryLegs"`
	Adults       int           `json:"adults"`
	ChildrenAges []int         `json:"childrenAges,omitempty"`
	CabinClass   string        `json:"cabinClass"`
}

type skySearchRequest struct {
	Query skyQuery `json:"query"`
}

func dateOf(s string) (skyDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return skyDate{}, err
	}
	return skyDate{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
}

func (s *Skyscanner) searchBody(p models.FlightSearchParams) (skySearchRequest, error) {
	out, err := dateOf(p.DepartureDate)
	if err != nil {
		return skySearchRequest{}, fmt.Errorf("departure date: %w", err)
	}
	legs := []skyQueryLeg{{
		OriginPlaceID:      skyPlaceRef{IATA: p.Origin},
		DestinationPlaceID: skyPlaceRef{IATA: p.Destination},
		Date:               out,
	}}
	if p.ReturnDate != nil {
		in, err := dateOf(*p.ReturnDate)
		if err != nil {
			return skySearchRequest{}, fmt.Errorf("return date: %w", err)
		}
		legs = append(legs, skyQueryLeg{
			OriginPlaceID:      skyPlaceRef{IATA: p.Destination},
			DestinationPlaceID: skyPlaceRef{IATA: p.Origin},
			Date:               in,
		})
	}

	// Children are sent as 8 and infants as 1 year olds.
	var ages []int
	for i := 0; i < p.Children; i++ {
		ages = append(ages, 8)
	}
	for i := 0; i < p.Infants; i++ {
		ages = append(ages, 1)
	}

	currencyCode := p.Currency
	if currencyCode == "" {
		currencyCode = models.DefaultCurrency
	}
	return skySearchRequest{Query: skyQuery{
		Market:       s.cfg.Market,
		Locale:       s.cfg.Locale,
		Currency:     currencyCode,
		QueryLegs:    legs,
		Adults:       max(p.Adults, 1),
		ChildrenAges: ages,
		CabinClass:   skyscannerCabins[models.NormalizeCabin(p.CabinClass)],
	}}, nil
}

type skySearchResponse struct {
	Content struct {
		Results struct {
			Itineraries map[string]skyItinerary `json:"itineraries"`
			Legs        map[string]skyLeg       `json:"legs"`
			Segments    map[string]skySegment   `json:"segments"`
			Places      map[string]skyPlace     `json:"places"`
			Carriers    map[string]skyCarrier   `json:"carriers"`
		} `json:"results"`
	} `json:"content"`
}

type skyItinerary struct {
	PricingOptions []struct {
		Price struct {
			Amount string `json:"amount"`
			Unit   string `json:"unit"`
		} `json:"price"`
	} `json:"pricingOptions"`
	LegIDs []string `json:"legIds"`
}

type skyLeg struct {
	DurationInMinutes int      `json:"durationInMinutes"`
	SegmentIDs        []string `json:"segmentIds"`
}

type skySegment struct {
	OriginPlaceID         string  `json:"originPlaceId"`
	DestinationPlaceID    string  `json:"destinationPlaceId"`
	DepartureDateTime     skyDate `json:"departureDateTime"`
	ArrivalDateTime       skyDate `json:"arrivalDateTime"`
	DurationInMinutes     int     `json:"durationInMinutes"`
	MarketingFlightNumber string  `json:"marketingFlightNumber"`
	MarketingCarrierID    string  `json:"marketingCarrierId"`
}

type skyPlace struct {
	IATA string `json:"iata"`
	Name string `json:"name"`
}

type skyCarrier struct {
	Name string `json:"name"`
	IATA string `json:"iata"`
}

func (s *Skyscanner) SearchFlights(ctx context.Context, params models.FlightSearchParams) ([]models.Flight, error) {
	body, err := s.searchBody(params)
	if err != nil {
		return nil, err
	}

	data, err := s.do(ctx, request{
		method:    http.MethodPost,
		path:      "/v3/flights/live/search/create",
		body:      body,
		authorize: s.apiKey,
	})
	if err != nil {
		return nil, err
	}

	var resp skySearchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, NewProviderError(s.name, ErrUpstream, fmt.Errorf("decode results: %w", err))
	}

	ids := make([]string, 0, len(resp.Content.Results.Itineraries))
	for id := range resp.Content.Results.Itineraries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	currencyCode := body.Query.Currency
	flights := make([]models.Flight, 0, len(ids))
	for _, id := range ids {
		f, err := s.normalize(id, resp, currencyCode, params)
		if err != nil {
			s.opts.Logger.Warn("skipping malformed itinerary", "provider", s.name, "itinerary_id", id, "error", err)
			continue
		}
		flights = append(flights, f)
	}
	return flights, nil
}

func (s *Skyscanner) normalize(id string, resp skySearchResponse, currencyCode string, params models.FlightSearchParams) (models.Flight, error) {
	results := resp.Content.Results
	it := results.Itineraries[id]
	if len(it.LegIDs) == 0 || len(it.PricingOptions) == 0 {
		return models.Flight{}, errors.New("itinerary has no legs or prices")
	}
	leg, ok := results.Legs[it.LegIDs[0]]
	if !ok || len(leg.SegmentIDs) == 0 {
		return models.Flight{}, fmt.Errorf("leg %s missing", it.LegIDs[0])
	}

	cabin := models.NormalizeCabin(params.CabinClass)
	segments := make([]models.Segment, 0, len(leg.SegmentIDs))
	for _, segID := range leg.SegmentIDs {
		seg, ok := results.Segments[segID]
		if !ok {
			return models.Flight{}, fmt.Errorf("segment %s missing", segID)
		}
		from := results.Places[seg.OriginPlaceID].IATA
		to := results.Places[seg.DestinationPlaceID].IATA
		depAirport, known := refdata.Airport(from)
		if !known && results.Places[seg.OriginPlaceID].Name != "" {
			depAirport.Name = results.Places[seg.OriginPlaceID].Name
		}
		arrAirport, known := refdata.Airport(to)
		if !known && results.Places[seg.DestinationPlaceID].Name != "" {
			arrAirport.Name = results.Places[seg.DestinationPlaceID].Name
		}

		carrier := results.Carriers[seg.MarketingCarrierID]
		segments = append(segments, models.Segment{
			ID:           segID,
			Airline:      refdata.Airline(carrier.IATA, carrier.Name),
			FlightNumber: carrier.IATA + seg.MarketingFlightNumber,
			Departure: models.Endpoint{
				Airport: depAirport,
				Time:    skyTime(seg.DepartureDateTime, from),
			},
			Arrival: models.Endpoint{
				Airport: arrAirport,
				Time:    skyTime(seg.ArrivalDateTime, to),
			},
			Duration:   seg.DurationInMinutes,
			Aircraft:   refdata.Aircraft("", ""),
			CabinClass: cabin,
		})
	}

	price := it.PricingOptions[0].Price
	amount, err := decimal.NewFromString(price.Amount)
	if err != nil {
		return models.Flight{}, fmt.Errorf("price amount %q: %w", price.Amount, err)
	}
	switch price.Unit {
	case "", "PRICE_UNIT_MILLI":
		amount = amount.Shift(-3)
	case "PRICE_UNIT_CENTI":
		amount = amount.Shift(-2)
	}
	total := amount.Round(2).InexactFloat64()

	checked := 0
	if cabin != models.CabinEconomy {
		checked = 1
	}

	return offer{
		id:       id,
		provider: s.name,
		segments: segments,
		duration: leg.DurationInMinutes,
		price: models.Price{
			Base:     total,
			Total:    total,
			Currency: currencyCode,
		},
		checkedBags: checked,
	}.build(params), nil
}

func skyTime(d skyDate, airport string) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, 0, 0, refdata.Location(airport))
}
