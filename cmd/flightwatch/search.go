package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dharmasatrya/flightwatch/internal/models"
)

// searchFlags binds the common route flags onto cmd.
func searchFlags(cmd *cobra.Command, p *models.FlightSearchParams, returnDate *string, maxPrice *float64) {
	f := cmd.Flags()
	f.StringVar(&p.Origin, "from", "", "origin IATA code")
	f.StringVar(&p.Destination, "to", "", "destination IATA code")
	f.StringVar(&p.DepartureDate, "date", "", "departure date (YYYY-MM-DD)")
	f.StringVar(returnDate, "return", "", "return date (YYYY-MM-DD)")
	f.IntVar(&p.Adults, "adults", 1, "number of adults")
	f.IntVar(&p.Children, "children", 0, "number of children")
	f.IntVar(&p.Infants, "infants", 0, "number of infants")
	f.StringVar(&p.CabinClass, "cabin", "economy", "economy, premium_economy, business or first")
	f.StringVar(&p.Currency, "currency", "USD", "price currency")
	f.Float64Var(maxPrice, "max-price", 0, "drop offers above this total")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("date")
}

func finishParams(p *models.FlightSearchParams, returnDate string, maxPrice float64) error {
	if returnDate != "" {
		p.ReturnDate = &returnDate
	}
	if maxPrice > 0 {
		p.MaxPrice = &maxPrice
	}
	return p.Validate()
}

func newSearchCmd(configPath *string) *cobra.Command {
	var (
		params     models.FlightSearchParams
		returnDate string
		maxPrice   float64
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search flights once and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := finishParams(&params, returnDate, maxPrice); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.orchestrator.Search(ctx, params)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(models.SearchResponse{
				SearchCriteria: params,
				Metadata: models.SearchMetadata{
					TotalResults:     len(result.Flights),
					Provider:         result.Provider,
					ProvidersQueried: result.ProvidersQueried,
					ProvidersFailed:  len(result.Failures),
				},
				Flights: result.Flights,
			})
		},
	}

	searchFlags(cmd, &params, &returnDate, &maxPrice)
	cmd.Flags().StringVar(&params.SortBy, "sort", "best_value", "price, duration, departure, arrival, stops or best_value")
	cmd.Flags().IntVar(&params.MaxResults, "max", 10, "maximum number of offers")
	return cmd
}
