package providers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/i474232898/gigaset-weather/internal/weather"
)

const forecastJSON = `{
  "cod": "200",
  "message": 0,
  "cnt": 3,
  "list": [
    {
      "dt": 1709553600,
      "main": {"temp": 5.1, "temp_min": 2.0, "temp_max": 10.0},
      "weather": [{"id": 500, "main": "Rain", "description": "leichter Regen", "icon": "10d"}],
      "rain": {"3h": 0.0},
      "sys": {"pod": "d"},
      "dt_txt": "2024-03-04 12:00:00"
    },
    {
      "dt": 1709564400,
      "main": {"temp": 8.3, "temp_min": -1.0, "temp_max": 12.5},
      "weather": [
        {"id": 802, "main": "Clouds", "description": "bewölkt", "icon": "03d"},
        {"id": 500, "main": "Rain", "description": "leichter Regen", "icon": "10d"}
      ],
      "rain": {"3h": 1.2},
      "sys": {"pod": "d"},
      "dt_txt": "2024-03-04 15:00:00"
    },
    {
      "dt": 1709575200,
      "main": {"temp": 1.0, "temp_min": 0.5, "temp_max": 1.5},
      "weather": [{"id": 800, "main": "Clear", "description": "Klarer Himmel", "icon": "01n"}],
      "sys": {"pod": "n"},
      "dt_txt": "2024-03-04 18:00:00"
    }
  ],
  "city": {"name": "Berlin", "country": "DE", "timezone": 3600}
}`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOpenWeather(serverURL string, opts OpenWeatherOptions) *OpenWeatherProvider {
	p := NewOpenWeatherProvider(&http.Client{Timeout: 2 * time.Second}, "test-key", opts, quietLogger())
	p.baseURL = serverURL
	p.httpCfg.Backoff = BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
	return p
}

func TestDecodeForecast(t *testing.T) {
	samples, err := decodeForecast([]byte(forecastJSON), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}

	s := samples[1]
	if s.Timestamp != 1709564400 || s.PartOfDay != weather.PartOfDayDay {
		t.Errorf("unexpected sample header %+v", s)
	}
	if s.TempMin != -1.0 || s.TempMax != 12.5 {
		t.Errorf("unexpected temperatures %v..%v", s.TempMin, s.TempMax)
	}
	if s.Precipitation == nil || *s.Precipitation != 1.2 {
		t.Errorf("unexpected precipitation %v", s.Precipitation)
	}
	if len(s.Conditions) != 2 || s.Conditions[0] != "bewölkt" || s.Conditions[1] != "leichter Regen" {
		t.Errorf("unexpected conditions %q", s.Conditions)
	}

	night := samples[2]
	if night.PartOfDay != weather.PartOfDayNight || night.Precipitation != nil {
		t.Errorf("night sample without rain should decode with nil precipitation, got %+v", night)
	}
}

func TestDecodeForecastEndToEnd(t *testing.T) {
	samples, err := decodeForecast([]byte(forecastJSON), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	days, err := weather.AggregateDaily(samples, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(days))
	}
	d := days[0]
	if d.Day != "Mo, 04.03.2024" || d.MinTemp != -1.0 || d.MaxTemp != 12.5 || d.TotalRain != 1.2 {
		t.Errorf("unexpected summary %+v", d)
	}
	if len(d.Conditions) != 2 || d.Conditions[0] != "leichter Regen" || d.Conditions[1] != "bew." {
		t.Errorf("unexpected conditions %q", d.Conditions)
	}
}

func TestDecodeForecastRejectsMalformedEntries(t *testing.T) {
	tests := []struct {
		name string
		item string
	}{
		{"missing dt", `{"main":{"temp_min":1,"temp_max":2},"weather":[{"description":"x"}],"rain":{"3h":0},"sys":{"pod":"d"}}`},
		{"missing pod", `{"dt":1,"main":{"temp_min":1,"temp_max":2},"weather":[{"description":"x"}],"rain":{"3h":0},"sys":{}}`},
		{"unknown pod", `{"dt":1,"main":{"temp_min":1,"temp_max":2},"weather":[{"description":"x"}],"rain":{"3h":0},"sys":{"pod":"m"}}`},
		{"missing temps", `{"dt":1,"main":{"temp":1},"weather":[{"description":"x"}],"rain":{"3h":0},"sys":{"pod":"d"}}`},
		{"missing weather", `{"dt":1,"main":{"temp_min":1,"temp_max":2},"rain":{"3h":0},"sys":{"pod":"d"}}`},
		{"missing rain", `{"dt":1,"main":{"temp_min":1,"temp_max":2},"weather":[{"description":"x"}],"sys":{"pod":"d"}}`},
		{"rain without 3h", `{"dt":1,"main":{"temp_min":1,"temp_max":2},"weather":[{"description":"x"}],"rain":{"1h":0.3},"sys":{"pod":"d"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"cod":"200","message":0,"list":[` + tt.item + `]}`
			_, err := decodeForecast([]byte(body), false)
			if !errors.Is(err, weather.ErrMalformedSample) {
				t.Fatalf("expected ErrMalformedSample, got %v", err)
			}
			if !strings.Contains(err.Error(), "list[0]") {
				t.Errorf("expected error to name the entry, got %v", err)
			}
		})
	}
}

func TestDecodeForecastMissingRainAsZero(t *testing.T) {
	body := `{"cod":"200","list":[{"dt":1709553600,"main":{"temp_min":1,"temp_max":2},"weather":[{"description":"Klarer Himmel"}],"sys":{"pod":"d"}}]}`

	samples, err := decodeForecast([]byte(body), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if samples[0].Precipitation == nil || *samples[0].Precipitation != 0 {
		t.Errorf("expected 0 mm precipitation, got %v", samples[0].Precipitation)
	}
}

func TestDecodeForecastUpstreamError(t *testing.T) {
	tests := []string{
		`{"cod":"401","message":"Invalid API key."}`,
		`{"cod":404,"message":"city not found"}`,
		`{"message":"no cod"}`,
		`not json`,
	}
	for _, body := range tests {
		if _, err := decodeForecast([]byte(body), false); !errors.Is(err, weather.ErrRetrieval) {
			t.Errorf("%s: expected ErrRetrieval, got %v", body, err)
		}
	}
}

func TestOpenWeatherFetchForecast(t *testing.T) {
	var gotQuery atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, forecastJSON)
	}))
	defer server.Close()

	p := newTestOpenWeather(server.URL, OpenWeatherOptions{})
	samples, err := p.FetchForecast(context.Background(), weather.Location{Lat: 52.52, Lon: 13.405})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}

	q := gotQuery.Load().(url.Values)
	expect := map[string]string{"lat": "52.52", "lon": "13.405", "appid": "test-key", "units": "metric", "lang": "de"}
	for k, v := range expect {
		if got := q[k]; len(got) != 1 || got[0] != v {
			t.Errorf("query %s: expected %q, got %q", k, v, got)
		}
	}
}

func TestOpenWeatherUnauthorizedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"cod":401,"message":"Invalid API key."}`)
	}))
	defer server.Close()

	p := newTestOpenWeather(server.URL, OpenWeatherOptions{})
	_, err := p.FetchForecast(context.Background(), weather.Location{})
	if !errors.Is(err, weather.ErrRetrieval) {
		t.Fatalf("expected ErrRetrieval, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid API key.") {
		t.Errorf("expected upstream message in error, got %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 call, got %d", n)
	}
}

func TestOpenWeatherRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, forecastJSON)
	}))
	defer server.Close()

	p := newTestOpenWeather(server.URL, OpenWeatherOptions{})
	if _, err := p.FetchForecast(context.Background(), weather.Location{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("expected 3 calls, got %d", n)
	}
}

func TestOpenWeatherRequiresAPIKey(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, "", OpenWeatherOptions{}, quietLogger())
	if _, err := p.FetchForecast(context.Background(), weather.Location{}); !errors.Is(err, weather.ErrRetrieval) {
		t.Fatalf("expected ErrRetrieval, got %v", err)
	}
}
