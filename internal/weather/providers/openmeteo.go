package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/i474232898/gigaset-weather/internal/weather"
	"github.com/sony/gobreaker"
)

// OpenMeteoProvider implements weather.ForecastProvider for Open-Meteo. It
// needs no API key; hourly values are reported as one sample per hour and
// WMO weather codes are translated to German labels.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	days    int
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		days:    5,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff,
		},
		circuit: newCircuitBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) FetchForecast(ctx context.Context, loc weather.Location) ([]weather.ForecastSample, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
		values.Set("hourly", "temperature_2m,precipitation,weather_code,is_day")
		values.Set("timeformat", "unixtime")
		values.Set("forecast_days", strconv.Itoa(p.days))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrRetrieval, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Hourly *struct {
			Time          []*int64   `json:"time"`
			Temperature2m []*float64 `json:"temperature_2m"`
			Precipitation []*float64 `json:"precipitation"`
			WeatherCode   []*int     `json:"weather_code"`
			IsDay         []*int     `json:"is_day"`
		} `json:"hourly"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: parsing response: %v", weather.ErrRetrieval, err)
	}

	h := payload.Hourly
	if h == nil {
		return nil, fmt.Errorf("%w: response has no hourly block", weather.ErrMalformedSample)
	}
	n := len(h.Time)
	if len(h.Temperature2m) != n || len(h.Precipitation) != n || len(h.WeatherCode) != n || len(h.IsDay) != n {
		return nil, fmt.Errorf("%w: hourly series have different lengths", weather.ErrMalformedSample)
	}

	samples := make([]weather.ForecastSample, 0, n)
	for i := 0; i < n; i++ {
		if h.Time[i] == nil || h.IsDay[i] == nil {
			return nil, fmt.Errorf("%w: hourly[%d]: missing time or is_day", weather.ErrMalformedSample, i)
		}

		s := weather.ForecastSample{
			Timestamp: *h.Time[i],
			PartOfDay: weather.PartOfDayNight,
		}
		if *h.IsDay[i] == 1 {
			s.PartOfDay = weather.PartOfDayDay
		}

		if h.Temperature2m[i] == nil || h.WeatherCode[i] == nil || h.Precipitation[i] == nil {
			if s.PartOfDay == weather.PartOfDayNight {
				samples = append(samples, s)
				continue
			}
			return nil, fmt.Errorf("%w: hourly[%d]: missing temperature, precipitation or weather code", weather.ErrMalformedSample, i)
		}

		rain := *h.Precipitation[i]
		s.TempMin = *h.Temperature2m[i]
		s.TempMax = *h.Temperature2m[i]
		s.Precipitation = &rain
		s.Conditions = []string{wmoConditionLabel(*h.WeatherCode[i])}
		samples = append(samples, s)
	}

	return samples, nil
}

// wmoConditionLabel maps WMO weather interpretation codes to the German
// labels OpenWeatherMap uses for comparable conditions.
func wmoConditionLabel(code int) string {
	switch code {
	case 0:
		return "klarer Himmel"
	case 1:
		return "überwiegend klar"
	case 2:
		return "mäßig bewölkt"
	case 3:
		return "bedeckt"
	case 45, 48:
		return "Nebel"
	case 51, 53, 55:
		return "Nieselregen"
	case 56, 57:
		return "gefrierender Nieselregen"
	case 61:
		return "leichter Regen"
	case 63:
		return "mäßiger Regen"
	case 65:
		return "starker Regen"
	case 66, 67:
		return "gefrierender Regen"
	case 71:
		return "leichter Schneefall"
	case 73:
		return "mäßiger Schneefall"
	case 75:
		return "starker Schneefall"
	case 77:
		return "Schneegriesel"
	case 80:
		return "leichte Regenschauer"
	case 81:
		return "Regenschauer"
	case 82:
		return "heftige Regenschauer"
	case 85, 86:
		return "Schneeschauer"
	case 95:
		return "Gewitter"
	case 96, 99:
		return "Gewitter mit Hagel"
	default:
		return "unbekannt"
	}
}
