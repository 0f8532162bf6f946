package aggregator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dharmasatrya/flightwatch/internal/providers"
)

var ErrEmptyResult = errors.New("no flights returned")

var errNoneMatched = fmt.Errorf("%w: no flights matched filters", ErrEmptyResult)

type ProviderFailure struct {
	Provider string
	Err      error
}

// AggregateProviderFailure is returned when every provider failed or came
// back empty.
type AggregateProviderFailure struct {
	Failures []ProviderFailure
}

func (e *AggregateProviderFailure) Error() string {
	if len(e.Failures) == 0 {
		return "all flight data providers failed: no providers configured"
	}
	return "all flight data providers failed: " + strings.Join(e.Messages(), "; ")
}

func (e *AggregateProviderFailure) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

func (e *AggregateProviderFailure) Messages() []string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Err.Error())
	}
	return msgs
}

// Misconfigured reports whether any provider was rejected for credentials,
// as opposed to being temporarily degraded.
func (e *AggregateProviderFailure) Misconfigured() bool {
	if len(e.Failures) == 0 {
		return true
	}
	for _, f := range e.Failures {
		if errors.Is(f.Err, providers.ErrAuthentication) {
			return true
		}
	}
	return false
}
