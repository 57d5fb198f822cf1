package weather

import (
	"context"
)

// ForecastProvider abstracts the source of the raw 3-hourly forecast feed
// (e.g. OpenWeatherMap). Implementations wrap every failure in ErrRetrieval
// or ErrMalformedSample.
type ForecastProvider interface {
	Name() string
	FetchForecast(ctx context.Context, loc Location) ([]ForecastSample, error)
}

// Store is the contract the in-memory report store must satisfy.
type Store interface {
	SaveReport(report Report)
	GetLatest() (Report, error)
}
