package weather

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMalformedSample is returned when a forecast sample lacks a field the
	// aggregation needs. The whole aggregation is aborted.
	ErrMalformedSample = errors.New("malformed forecast sample")

	// ErrRetrieval is returned by providers when the feed cannot be obtained
	// or reports a non-success status.
	ErrRetrieval = errors.New("forecast retrieval failed")

	// ErrContractViolation is returned for out-of-range weekday indexes and
	// timestamps that cannot be placed on a calendar day.
	ErrContractViolation = errors.New("contract violation")
)

// PartOfDay is the day/night flag of a sample, encoded the way the upstream
// feed encodes it.
type PartOfDay string

const (
	PartOfDayDay   PartOfDay = "d"
	PartOfDayNight PartOfDay = "n"
)

// Valid reports whether p is one of the known flags.
func (p PartOfDay) Valid() bool {
	return p == PartOfDayDay || p == PartOfDayNight
}

// ForecastSample is one forecast observation for a 3-hour window.
// Precipitation is nil when the feed did not report it.
type ForecastSample struct {
	Timestamp     int64     `json:"timestamp"` // unix seconds
	PartOfDay     PartOfDay `json:"partOfDay"`
	TempMin       float64   `json:"tempMinC"`
	TempMax       float64   `json:"tempMaxC"`
	Precipitation *float64  `json:"precipitationMm,omitempty"`
	Conditions    []string  `json:"conditions"`
}

// Location is the single place the service forecasts for.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Key returns a canonical string for logs.
func (l Location) Key() string {
	return fmt.Sprintf("%.4f,%.4f", l.Lat, l.Lon)
}

// DaySummary is the aggregate of all daytime samples of one calendar day.
type DaySummary struct {
	Key        DayKey   `json:"-"`
	Day        string   `json:"day"`
	MinTemp    float64  `json:"minTempC"`
	MaxTemp    float64  `json:"maxTempC"`
	TotalRain  float64  `json:"totalRainMm"`
	Conditions []string `json:"conditions"`
}

// DailyForecast holds day summaries in order of first occurrence in the feed.
type DailyForecast []DaySummary

// Get returns the summary for a formatted day key such as "Mo, 02.01.2006".
func (f DailyForecast) Get(day string) (DaySummary, bool) {
	for _, d := range f {
		if d.Day == day {
			return d, true
		}
	}
	return DaySummary{}, false
}

// Report is a DailyForecast together with where and when it was produced.
type Report struct {
	Location    Location      `json:"location"`
	Timezone    string        `json:"timezone"`
	Provider    string        `json:"provider"`
	GeneratedAt time.Time     `json:"generatedAt"` // always UTC
	Days        DailyForecast `json:"days"`
}
