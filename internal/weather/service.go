package weather

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Service orchestrates fetching the raw feed, aggregating it per day and
// persisting the resulting report.
type Service struct {
	store    Store
	provider ForecastProvider
	location Location
	tz       *time.Location
	logger   *slog.Logger

	// fetchMu guards the fetch-aggregate-save sequence. On-demand callers
	// re-check the store while holding it.
	fetchMu sync.Mutex
	now     func() time.Time
}

// NewService creates a new Service for a single location. Day boundaries are
// computed in tz; a nil tz makes every fetch fail with ErrContractViolation.
func NewService(store Store, provider ForecastProvider, location Location, tz *time.Location, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		provider: provider,
		location: location,
		tz:       tz,
		logger:   logger,
		now:      time.Now,
	}
}

// Location returns the location this service forecasts for.
func (s *Service) Location() Location {
	return s.location
}

// FetchAndStore fetches the feed, aggregates it and stores the report.
// Nothing is stored when any step fails, so the last good report stays.
func (s *Service) FetchAndStore(ctx context.Context) (Report, error) {
	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	return s.fetchLocked(ctx)
}

func (s *Service) fetchLocked(ctx context.Context) (Report, error) {
	if s.provider == nil {
		s.logger.Error("no forecast provider configured", slog.String("location", s.location.Key()))
		return Report{}, fmt.Errorf("%w: no forecast provider configured", ErrRetrieval)
	}
	if s.tz == nil {
		return Report{}, fmt.Errorf("%w: no timezone configured", ErrContractViolation)
	}

	s.logger.Debug("fetching forecast",
		slog.String("provider", s.provider.Name()),
		slog.String("location", s.location.Key()))

	samples, err := s.provider.FetchForecast(ctx, s.location)
	if err != nil {
		return Report{}, fmt.Errorf("provider %s: %w", s.provider.Name(), err)
	}

	days, err := AggregateDaily(samples, s.tz)
	if err != nil {
		return Report{}, fmt.Errorf("aggregating forecast from %s: %w", s.provider.Name(), err)
	}

	report := Report{
		Location:    s.location,
		Timezone:    s.tz.String(),
		Provider:    s.provider.Name(),
		GeneratedAt: s.now().UTC(),
		Days:        days,
	}
	s.store.SaveReport(report)

	s.logger.Info("forecast updated",
		slog.String("location", s.location.Key()),
		slog.Int("samples", len(samples)),
		slog.Int("days", len(days)))
	return report, nil
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest() (Report, error) {
	return s.store.GetLatest()
}

// GetOrFetch returns the stored report, fetching a fresh one when the store
// has nothing to serve.
func (s *Service) GetOrFetch(ctx context.Context) (Report, error) {
	if report, err := s.store.GetLatest(); err == nil {
		return report, nil
	}
	return s.fetchIfMissing(ctx)
}

// fetchIfMissing fetches only if no report was stored while waiting for
// fetchMu, so concurrent cold callers share one upstream request.
func (s *Service) fetchIfMissing(ctx context.Context) (Report, error) {
	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	if report, err := s.store.GetLatest(); err == nil {
		return report, nil
	}
	s.logger.Info("no stored forecast, fetching on demand", slog.String("location", s.location.Key()))
	return s.fetchLocked(ctx)
}
