package providers

import (
	"context"
	"fmt"

	"github.com/i474232898/gigaset-weather/internal/weather"
	"golang.org/x/time/rate"
)

// RateLimitedProvider wraps a ForecastProvider with rate limiting so that
// on-demand refreshes cannot exhaust the upstream quota.
type RateLimitedProvider struct {
	provider weather.ForecastProvider
	limiter  *rate.Limiter
	label    string
}

// NewRateLimitedProvider creates a new rate limited forecast provider.
// rps is the maximum requests per second allowed (can be fractional);
// burst is the maximum burst size allowed.
func NewRateLimitedProvider(provider weather.ForecastProvider, rps float64, burst int) *RateLimitedProvider {
	return &RateLimitedProvider{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		label:    fmt.Sprintf("%s [rate limited]", provider.Name()),
	}
}

// FetchForecast waits for the limiter, then forwards to the wrapped provider.
func (r *RateLimitedProvider) FetchForecast(ctx context.Context, loc weather.Location) ([]weather.ForecastSample, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait canceled: %v", weather.ErrRetrieval, err)
	}
	return r.provider.FetchForecast(ctx, loc)
}

// Name reports the wrapped provider, so reports carry the real source.
func (r *RateLimitedProvider) Name() string {
	return r.provider.Name()
}

// String is the name with the limiter noted, for logs.
func (r *RateLimitedProvider) String() string {
	return r.label
}

var (
	_ weather.ForecastProvider = (*RateLimitedProvider)(nil)
	_ weather.ForecastProvider = (*OpenWeatherProvider)(nil)
	_ weather.ForecastProvider = (*OpenMeteoProvider)(nil)
)
