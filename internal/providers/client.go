package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/dharmasatrya/flightwatch/internal/cache"
	"github.com/dharmasatrya/flightwatch/internal/clock"
	"github.com/dharmasatrya/flightwatch/internal/ratelimit"
	"github.com/dharmasatrya/flightwatch/pkg/logger"
	"github.com/dharmasatrya/flightwatch/pkg/metrics"
)

const DefaultTimeout = 30 * time.Second

const userAgent = "flightwatch/1.0"

// Options carries the collaborators a provider is composed with. Zero
// values get a private cache, a default limiter and the real clock.
type Options struct {
	HTTPClient *http.Client
	Cache      *cache.Cache[[]byte]
	Limiter    *ratelimit.Limiter
	Clock      clock.Clock
	Logger     logger.Logger
	Metrics    *metrics.Metrics
	Timeout    time.Duration
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = clock.NewRealClock()
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{}
	}
	if o.Cache == nil {
		o.Cache = cache.New[[]byte](cache.DefaultTTL, cache.DefaultMaxSize, o.Clock)
	}
	if o.Limiter == nil {
		o.Limiter = ratelimit.New(ratelimit.DefaultConfig(), o.Clock)
	}
	if o.Logger == nil {
		o.Logger = logger.NewNop()
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// client is the request pipeline shared by every provider variant:
// cache lookup, admission, authorised call under a deadline, cache fill.
type client struct {
	name    string
	baseURL string
	opts    Options
}

type request struct {
	method string
	path   string
	query  url.Values
	body   interface{}
	// authorize runs after admission, so a denied request never reaches the
	// token endpoint either.
	authorize func(ctx context.Context, req *http.Request) error
}

func (c *client) do(ctx context.Context, r request) ([]byte, error) {
	endpoint := c.baseURL + r.path
	key := cache.Key(r.method, endpoint, r.query, r.body)

	if data, ok := c.opts.Cache.Get(key); ok {
		c.opts.Metrics.ObserveCache(c.name, true)
		return data, nil
	}
	c.opts.Metrics.ObserveCache(c.name, false)

	if !c.opts.Limiter.TryAcquire() {
		c.opts.Metrics.RateLimited(c.name)
		return nil, NewProviderError(c.name, ErrRateLimitExceeded, nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	var payload io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", c.name, err)
		}
		payload = bytes.NewReader(raw)
	}

	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.authorize != nil {
		if err := r.authorize(ctx, req); err != nil {
			return nil, err
		}
	}

	start := c.opts.Clock.Now()
	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			c.opts.Metrics.ObserveProvider(c.name, "timeout", c.opts.Clock.Since(start))
			return nil, NewProviderError(c.name, ErrTimeout, err)
		}
		c.opts.Metrics.ObserveProvider(c.name, "error", c.opts.Clock.Since(start))
		return nil, NewProviderError(c.name, ErrUpstream, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(ctx, err) {
			c.opts.Metrics.ObserveProvider(c.name, "timeout", c.opts.Clock.Since(start))
			return nil, NewProviderError(c.name, ErrTimeout, err)
		}
		c.opts.Metrics.ObserveProvider(c.name, "error", c.opts.Clock.Since(start))
		return nil, NewProviderError(c.name, ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.opts.Metrics.ObserveProvider(c.name, "status", c.opts.Clock.Since(start))
		kind := ErrUpstream
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			kind = ErrAuthentication
		}
		return nil, &ProviderError{
			Provider:   c.name,
			Kind:       kind,
			StatusCode: resp.StatusCode,
			Err:        errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	c.opts.Metrics.ObserveProvider(c.name, "ok", c.opts.Clock.Since(start))
	c.opts.Cache.Set(key, data)
	return data, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
