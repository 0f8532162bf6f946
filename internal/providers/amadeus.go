package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/dharmasatrya/flightwatch/internal/models"
	"github.com/dharmasatrya/flightwatch/internal/refdata"
)

const (
	AmadeusName           = "amadeus"
	DefaultAmadeusBaseURL = "https://api.amadeus.com"

	tokenSafetyMargin = 60 * time.Second
)

type AmadeusConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	BaseURL      string `yaml:"base_url"`
}

// Amadeus is the primary offer source. It authenticates with the OAuth2
// client-credentials grant and caches the bearer token until shortly
// before it expires.
type Amadeus struct {
	client
	cfg AmadeusConfig

	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewAmadeus(cfg AmadeusConfig, opts Options) *Amadeus {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultAmadeusBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Amadeus{
		client: client{name: AmadeusName, baseURL: cfg.BaseURL, opts: opts.withDefaults()},
		cfg:    cfg,
	}
}

func (a *Amadeus) Name() string {
	return AmadeusName
}

func (a *Amadeus) EnsureAccessToken(ctx context.Context) (string, error) {
	a.tokenMu.Lock()
	defer a.tokenMu.Unlock()

	now := a.opts.Clock.Now()
	if a.token != "" && now.Before(a.tokenExpiry.Add(-tokenSafetyMargin)) {
		return a.token, nil
	}

	if a.cfg.ClientID == "" || a.cfg.ClientSecret == "" {
		return "", NewProviderError(a.name, ErrAuthentication, errors.New("credentials not configured"))
	}

	cc := &clientcredentials.Config{
		ClientID:     a.cfg.ClientID,
		ClientSecret: a.cfg.ClientSecret,
		TokenURL:     a.baseURL + "/v1/security/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	tctx, cancel := context.WithTimeout(context.WithValue(ctx, oauth2.HTTPClient, a.opts.HTTPClient), a.opts.Timeout)
	defer cancel()

	tok, err := cc.Token(tctx)
	if err != nil {
		if isTimeout(tctx, err) {
			return "", NewProviderError(a.name, ErrTimeout, err)
		}
		pe := NewProviderError(a.name, ErrAuthentication, err)
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			pe.StatusCode = re.Response.StatusCode
		}
		return "", pe
	}
	if tok.AccessToken == "" {
		return "", NewProviderError(a.name, ErrAuthentication, errors.New("no access token in response"))
	}

	a.token = tok.AccessToken
	a.tokenExpiry = now.Add(expiresIn(tok, now))

	a.opts.Logger.Debug("amadeus token refreshed", "expires_at", a.tokenExpiry)
	return a.token, nil
}

// expiresIn prefers the server's expires_in; the absolute Expiry is
// measured against now so it follows the injected clock.
func expiresIn(tok *oauth2.Token, now time.Time) time.Duration {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return time.Duration(v) * time.Second
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return time.Duration(n) * time.Second
		}
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	if !tok.Expiry.IsZero() {
		return tok.Expiry.Sub(now)
	}
	return 30 * time.Minute
}

func (a *Amadeus) bearer(ctx context.Context, req *http.Request) error {
	token, err := a.EnsureAccessToken(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

var amadeusCabins = map[string]string{
	models.CabinEconomy:        "ECONOMY",
	models.CabinPremiumEconomy: "PREMIUM_ECONOMY",
	models.CabinBusiness:       "BUSINESS",
	models.CabinFirst:          "FIRST",
}

func amadeusCabin(travelClass string) string {
	for canonical, upstream := range amadeusCabins {
		if upstream == travelClass {
			return canonical
		}
	}
	return models.CabinEconomy
}

func (a *Amadeus) searchQuery(p models.FlightSearchParams) url.Values {
	q := url.Values{}
	q.Set("originLocationCode", p.Origin)
	q.Set("destinationLocationCode", p.Destination)
	q.Set("departureDate", p.DepartureDate)
	if p.ReturnDate != nil {
		q.Set("returnDate", *p.ReturnDate)
	}
	q.Set("adults", strconv.Itoa(max(p.Adults, 1)))
	if p.Children > 0 {
		q.Set("children", strconv.Itoa(p.Children))
	}
	if p.Infants > 0 {
		q.Set("infants", strconv.Itoa(p.Infants))
	}
	cabin, ok := amadeusCabins[models.NormalizeCabin(p.CabinClass)]
	if !ok {
		cabin = "ECONOMY"
	}
	q.Set("travelClass", cabin)
	if p.MaxPrice != nil {
		q.Set("maxPrice", strconv.Itoa(int(*p.MaxPrice)))
	}
	currencyCode := p.Currency
	if currencyCode == "" {
		currencyCode = models.DefaultCurrency
	}
	q.Set("currencyCode", currencyCode)
	maxResults := p.MaxResults
	if maxResults <= 0 {
		maxResults = models.DefaultMaxResults
	}
	q.Set("max", strconv.Itoa(maxResults))
	return q
}

type amadeusSearchResponse struct {
	Data         []amadeusOffer `json:"data"`
	Dictionaries struct {
		Carriers map[string]string `json:"carriers"`
		Aircraft map[string]string `json:"aircraft"`
	} `json:"dictionaries"`
}

type amadeusOffer struct {
	ID                    string `json:"id"`
	NumberOfBookableSeats int    `json:"numberOfBookableSeats"`
	Itineraries           []struct {
		Duration string           `json:"duration"`
		Segments []amadeusSegment `json:"segments"`
	} `json:"itineraries"`
	Price struct {
		Currency string `json:"currency"`
		Total    string `json:"total"`
		Base     string `json:"base"`
		Fees     []struct {
			Amount string `json:"amount"`
			Type   string `json:"type"`
		} `json:"fees"`
	} `json:"price"`
	TravelerPricings []struct {
		FareDetailsBySegment []struct {
			SegmentID           string `json:"segmentId"`
			Cabin               string `json:"cabin"`
			IncludedCheckedBags struct {
				Quantity int `json:"quantity"`
			} `json:"includedCheckedBags"`
		} `json:"fareDetailsBySegment"`
	} `json:"travelerPricings"`
}

type amadeusSegment struct {
	ID          string          `json:"id"`
	CarrierCode string          `json:"carrierCode"`
	Number      string          `json:"number"`
	Aircraft    amadeusAircraft `json:"aircraft"`
	Departure   amadeusEndpoint `json:"departure"`
	Arrival     amadeusEndpoint `json:"arrival"`
	Duration    string          `json:"duration"`
}

type amadeusAircraft struct {
	Code string `json:"code"`
}

type amadeusEndpoint struct {
	IataCode string `json:"iataCode"`
	Terminal string `json:"terminal"`
	At       string `json:"at"`
}

func (a *Amadeus) SearchFlights(ctx context.Context, params models.FlightSearchParams) ([]models.Flight, error) {
	data, err := a.do(ctx, request{
		method:    http.MethodGet,
		path:      "/v2/shopping/flight-offers",
		query:     a.searchQuery(params),
		authorize: a.bearer,
	})
	if err != nil {
		return nil, err
	}

	var resp amadeusSearchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, NewProviderError(a.name, ErrUpstream, fmt.Errorf("decode offers: %w", err))
	}

	flights := make([]models.Flight, 0, len(resp.Data))
	for _, o := range resp.Data {
		f, err := a.normalize(o, resp, params)
		if err != nil {
			a.opts.Logger.Warn("skipping malformed offer", "provider", a.name, "offer_id", o.ID, "error", err)
			continue
		}
		flights = append(flights, f)
	}
	return flights, nil
}

func (a *Amadeus) normalize(o amadeusOffer, resp amadeusSearchResponse, params models.FlightSearchParams) (models.Flight, error) {
	if len(o.Itineraries) == 0 || len(o.Itineraries[0].Segments) == 0 {
		return models.Flight{}, errors.New("offer has no segments")
	}
	itinerary := o.Itineraries[0]

	cabins := map[string]string{}
	checkedBags := -1
	if len(o.TravelerPricings) > 0 {
		for _, fd := range o.TravelerPricings[0].FareDetailsBySegment {
			cabins[fd.SegmentID] = amadeusCabin(fd.Cabin)
			if checkedBags < 0 || fd.IncludedCheckedBags.Quantity < checkedBags {
				checkedBags = fd.IncludedCheckedBags.Quantity
			}
		}
	}

	segments := make([]models.Segment, 0, len(itinerary.Segments))
	for _, s := range itinerary.Segments {
		dep, err := refdata.ParseLocalTime(s.Departure.At, s.Departure.IataCode)
		if err != nil {
			return models.Flight{}, err
		}
		arr, err := refdata.ParseLocalTime(s.Arrival.At, s.Arrival.IataCode)
		if err != nil {
			return models.Flight{}, err
		}
		depAirport, _ := refdata.Airport(s.Departure.IataCode)
		arrAirport, _ := refdata.Airport(s.Arrival.IataCode)

		cabin, ok := cabins[s.ID]
		if !ok {
			cabin = models.NormalizeCabin(params.CabinClass)
		}

		segments = append(segments, models.Segment{
			ID:           s.ID,
			Airline:      refdata.Airline(s.CarrierCode, resp.Dictionaries.Carriers[s.CarrierCode]),
			FlightNumber: s.CarrierCode + s.Number,
			Departure: models.Endpoint{
				Airport:  depAirport,
				Time:     dep,
				Terminal: strPtr(s.Departure.Terminal),
			},
			Arrival: models.Endpoint{
				Airport:  arrAirport,
				Time:     arr,
				Terminal: strPtr(s.Arrival.Terminal),
			},
			Duration:   parseISODuration(s.Duration),
			Aircraft:   refdata.Aircraft(s.Aircraft.Code, resp.Dictionaries.Aircraft[s.Aircraft.Code]),
			CabinClass: cabin,
		})
	}

	total, err := decimal.NewFromString(o.Price.Total)
	if err != nil {
		return models.Flight{}, fmt.Errorf("price total %q: %w", o.Price.Total, err)
	}
	base, err := decimal.NewFromString(o.Price.Base)
	if err != nil {
		base = total
	}
	fees := decimal.Zero
	for _, fee := range o.Price.Fees {
		if amt, err := decimal.NewFromString(fee.Amount); err == nil {
			fees = fees.Add(amt)
		}
	}
	taxes := total.Sub(base).Sub(fees)
	if taxes.IsNegative() {
		taxes = decimal.Zero
	}

	if checkedBags < 0 {
		checkedBags = 0
		if segments[0].CabinClass != models.CabinEconomy {
			checkedBags = 1
		}
	}

	return offer{
		id:       o.ID,
		provider: a.name,
		segments: segments,
		duration: parseISODuration(itinerary.Duration),
		price: models.Price{
			Base:     base.Round(2).InexactFloat64(),
			Taxes:    taxes.Round(2).InexactFloat64(),
			Fees:     fees.Round(2).InexactFloat64(),
			Total:    total.Round(2).InexactFloat64(),
			Currency: o.Price.Currency,
		},
		seats:       o.NumberOfBookableSeats,
		checkedBags: checkedBags,
	}.build(params), nil
}

type amadeusLocationsResponse struct {
	Data []struct {
		IataCode string `json:"iataCode"`
		Name     string `json:"name"`
		Address  struct {
			CityName    string `json:"cityName"`
			CountryName string `json:"countryName"`
		} `json:"address"`
		TimeZoneOffset string `json:"timeZoneOffset"`
	} `json:"data"`
}

func (a *Amadeus) SearchAirports(ctx context.Context, query string) ([]models.Airport, error) {
	q := url.Values{}
	q.Set("subType", "AIRPORT")
	q.Set("keyword", query)
	q.Set("page[limit]", "10")

	data, err := a.do(ctx, request{
		method:    http.MethodGet,
		path:      "/v1/reference-data/locations",
		query:     q,
		authorize: a.bearer,
	})
	if err != nil {
		return nil, err
	}

	var resp amadeusLocationsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, NewProviderError(a.name, ErrUpstream, fmt.Errorf("decode locations: %w", err))
	}

	airports := make([]models.Airport, 0, len(resp.Data))
	for _, loc := range resp.Data {
		ap := models.Airport{
			Code:     loc.IataCode,
			Name:     loc.Name,
			City:     loc.Address.CityName,
			Country:  loc.Address.CountryName,
			Timezone: loc.TimeZoneOffset,
		}
		if ref, known := refdata.Airport(loc.IataCode); known {
			ap.Timezone = ref.Timezone
		}
		airports = append(airports, ap)
	}
	return airports, nil
}
