package models

type SearchMetadata struct {
	TotalResults     int      `json:"total_results"`
	Provider         string   `json:"provider"`
	ProvidersQueried int      `json:"providers_queried"`
	ProvidersFailed  int      `json:"providers_failed"`
	FailedProviders  []string `json:"failed_providers,omitempty"`
	SearchTimeMs     int64    `json:"search_time_ms"`
}

type SearchResponse struct {
	SearchCriteria FlightSearchParams `json:"search_criteria"`
	Metadata       SearchMetadata     `json:"metadata"`
	Flights        []Flight           `json:"flights"`
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Code    int      `json:"code"`
	Causes  []string `json:"causes,omitempty"`
}
