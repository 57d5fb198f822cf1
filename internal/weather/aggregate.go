package weather

import (
	"fmt"
	"time"
)

// dayBucket is the in-progress aggregate for one calendar day.
type dayBucket struct {
	key        DayKey
	minTemp    float64
	maxTemp    float64
	totalRain  float64
	conditions []string
}

// AggregateDaily folds daytime samples into one summary per calendar day,
// computed in loc. Days appear in order of their first sample. Any malformed
// sample aborts the aggregation and no partial forecast is returned.
func AggregateDaily(samples []ForecastSample, loc *time.Location) (DailyForecast, error) {
	var (
		buckets []*dayBucket
		byKey   = make(map[DayKey]*dayBucket)
	)

	for i, s := range samples {
		if !s.PartOfDay.Valid() {
			return nil, fmt.Errorf("%w: sample %d: unknown part of day %q", ErrMalformedSample, i, s.PartOfDay)
		}
		if s.PartOfDay == PartOfDayNight {
			continue
		}
		if s.Precipitation == nil {
			return nil, fmt.Errorf("%w: sample %d: missing precipitation", ErrMalformedSample, i)
		}
		if len(s.Conditions) == 0 {
			return nil, fmt.Errorf("%w: sample %d: missing conditions", ErrMalformedSample, i)
		}

		key, err := NewDayKey(s.Timestamp, loc)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}

		b, ok := byKey[key]
		if !ok {
			b = &dayBucket{
				key:       key,
				minTemp:   s.TempMin,
				maxTemp:   s.TempMax,
				totalRain: *s.Precipitation,
			}
			b.conditions = append(b.conditions, s.Conditions...)
			byKey[key] = b
			buckets = append(buckets, b)
			continue
		}

		b.minTemp = min(b.minTemp, s.TempMin)
		b.maxTemp = max(b.maxTemp, s.TempMax)
		b.totalRain += *s.Precipitation
		b.conditions = append(b.conditions, s.Conditions...)
	}

	forecast := make(DailyForecast, 0, len(buckets))
	for _, b := range buckets {
		forecast = append(forecast, DaySummary{
			Key:        b.key,
			Day:        b.key.String(),
			MinTemp:    b.minTemp,
			MaxTemp:    b.maxTemp,
			TotalRain:  b.totalRain,
			Conditions: AbbreviateConditions(SummarizeConditions(b.conditions)),
		})
	}
	return forecast, nil
}
