package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/i474232898/gigaset-weather/internal/weather"
	"github.com/sony/gobreaker"
)

// OpenWeatherOptions tune how the OpenWeatherMap feed is requested and decoded.
type OpenWeatherOptions struct {
	// Lang selects the language of the condition descriptions ("de").
	Lang string
	// MissingRainAsZero decodes daytime entries without rain.3h as 0 mm
	// instead of rejecting them.
	MissingRainAsZero bool
}

// OpenWeatherProvider implements weather.ForecastProvider for the
// OpenWeatherMap 5 day / 3 hour forecast.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	opts    OpenWeatherOptions
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, opts OpenWeatherOptions, logger *slog.Logger) *OpenWeatherProvider {
	if opts.Lang == "" {
		opts.Lang = "de"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/forecast",
		opts:    opts,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff,
		},
		circuit: newCircuitBreaker("openweather"),
		logger:  logger,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) FetchForecast(ctx context.Context, loc weather.Location) ([]weather.ForecastSample, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: openweather api key is not configured", weather.ErrRetrieval)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")
		values.Set("lang", p.opts.Lang)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrRetrieval, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", weather.ErrRetrieval, err)
	}

	samples, err := decodeForecast(body, p.opts.MissingRainAsZero)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("decoded forecast", slog.String("location", loc.Key()), slog.Int("samples", len(samples)))
	return samples, nil
}

// forecastPayload mirrors the /data/2.5/forecast response. Pointer fields
// distinguish absent values from zero values.
type forecastPayload struct {
	Cod     json.Number     `json:"cod"`
	Message json.RawMessage `json:"message"`
	List    []forecastItem  `json:"list"`
}

type forecastItem struct {
	Dt   *int64 `json:"dt"`
	Main *struct {
		TempMin *float64 `json:"temp_min"`
		TempMax *float64 `json:"temp_max"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Rain *struct {
		ThreeH *float64 `json:"3h"`
	} `json:"rain"`
	Sys *struct {
		Pod *string `json:"pod"`
	} `json:"sys"`
}

// decodeForecast turns the raw payload into samples, rejecting any entry
// that lacks a field the daily aggregation depends on.
func decodeForecast(body []byte, missingRainAsZero bool) ([]weather.ForecastSample, error) {
	var payload forecastPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: parsing response: %v", weather.ErrRetrieval, err)
	}

	if payload.Cod != "200" {
		var msg string
		_ = json.Unmarshal(payload.Message, &msg)
		return nil, fmt.Errorf("%w: upstream status %q: %s", weather.ErrRetrieval, payload.Cod, msg)
	}
	if payload.List == nil {
		return nil, fmt.Errorf("%w: response has no list", weather.ErrMalformedSample)
	}

	samples := make([]weather.ForecastSample, 0, len(payload.List))
	for i, item := range payload.List {
		s, err := item.toSample(missingRainAsZero)
		if err != nil {
			return nil, fmt.Errorf("%w: list[%d]: %s", weather.ErrMalformedSample, i, err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func (item forecastItem) toSample(missingRainAsZero bool) (weather.ForecastSample, error) {
	if item.Dt == nil {
		return weather.ForecastSample{}, fmt.Errorf("missing dt")
	}
	if item.Sys == nil || item.Sys.Pod == nil {
		return weather.ForecastSample{}, fmt.Errorf("missing sys.pod")
	}

	s := weather.ForecastSample{
		Timestamp: *item.Dt,
		PartOfDay: weather.PartOfDay(*item.Sys.Pod),
	}
	if !s.PartOfDay.Valid() {
		return weather.ForecastSample{}, fmt.Errorf("unknown sys.pod %q", *item.Sys.Pod)
	}

	if item.Main != nil && item.Main.TempMin != nil && item.Main.TempMax != nil {
		s.TempMin = *item.Main.TempMin
		s.TempMax = *item.Main.TempMax
	} else if s.PartOfDay == weather.PartOfDayDay {
		return weather.ForecastSample{}, fmt.Errorf("missing main.temp_min/temp_max")
	}

	if len(item.Weather) > 0 {
		s.Conditions = make([]string, 0, len(item.Weather))
		for _, w := range item.Weather {
			s.Conditions = append(s.Conditions, w.Description)
		}
	} else if s.PartOfDay == weather.PartOfDayDay {
		return weather.ForecastSample{}, fmt.Errorf("missing weather")
	}

	switch {
	case item.Rain != nil && item.Rain.ThreeH != nil:
		rain := *item.Rain.ThreeH
		s.Precipitation = &rain
	case missingRainAsZero:
		rain := 0.0
		s.Precipitation = &rain
	case s.PartOfDay == weather.PartOfDayDay:
		return weather.ForecastSample{}, fmt.Errorf("missing rain.3h")
	}

	return s, nil
}
