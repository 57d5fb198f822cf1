package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/i474232898/gigaset-weather/internal/logging"
	"github.com/i474232898/gigaset-weather/internal/weather"
)

const (
	ProviderOpenWeather = "openweathermap"
	ProviderOpenMeteo   = "openmeteo"
)

type AppConfig struct {
	Provider          string `validate:"oneof=openweathermap openmeteo"`
	OpenWeatherAPIKey string `validate:"required_if=Provider openweathermap"`
	// Lang is an OpenWeatherMap language code, regional variants included.
	Lang string `validate:"required,oneof=af al ar az bg ca cz da de el en es eu fa fi fr gl he hi hr hu id it ja kr la lt mk nl no pl pt pt_br ro ru se sk sl sp sr sv th tr ua uk vi zh_cn zh_tw zu"`
	// MissingRainAsZero decodes forecast entries without a rain amount as 0 mm
	// instead of rejecting the whole feed.
	MissingRainAsZero bool

	Location weather.Location
	// Timezone in which forecast timestamps are placed on calendar days.
	Timezone *time.Location

	FetchInterval time.Duration `validate:"gte=1m"`
	HTTPTimeout   time.Duration `validate:"gt=0"`

	// StoreMaxAge is how long a report is served after it was generated (0 = unlimited).
	StoreMaxAge time.Duration `validate:"gte=0"`

	RateLimitRPS   float64 `validate:"gt=0"`
	RateLimitBurst int     `validate:"gte=1"`

	LogLevel slog.Level
	Port     string `validate:"required,numeric"`
}

// rawLocation is validated before it is parsed into floats.
type rawLocation struct {
	Lat string `validate:"required,latitude"`
	Lon string `validate:"required,longitude"`
}

var validate = validator.New()

// Load reads configuration from .env and the environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found or error loading it", slog.Any("error", err))
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("WEATHER_PROVIDER", ProviderOpenWeather)
	v.SetDefault("WEATHER_LANG", "de")
	v.SetDefault("WEATHER_TIMEZONE", "Europe/Berlin")
	v.SetDefault("WEATHER_MISSING_RAIN_AS_ZERO", false)
	v.SetDefault("FETCH_INTERVAL", "30m")
	v.SetDefault("HTTP_TIMEOUT", "10s")
	v.SetDefault("STORE_MAX_AGE", "3h")
	v.SetDefault("RATE_LIMIT_RPS", 1.0)
	v.SetDefault("RATE_LIMIT_BURST", 3)
	v.SetDefault("LOG_LEVEL", "INFO")
	v.SetDefault("PORT", "8080")
	return v
}

// FromViper builds and validates the configuration from v.
func FromViper(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{
		Provider:          v.GetString("WEATHER_PROVIDER"),
		OpenWeatherAPIKey: v.GetString("OPENWEATHER_API_KEY"),
		Lang:              v.GetString("WEATHER_LANG"),
		MissingRainAsZero: v.GetBool("WEATHER_MISSING_RAIN_AS_ZERO"),
		RateLimitRPS:      v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:    v.GetInt("RATE_LIMIT_BURST"),
		LogLevel:          logging.LevelFromString(v.GetString("LOG_LEVEL")),
		Port:              v.GetString("PORT"),
	}

	var err error
	if cfg.FetchInterval, err = parseDuration(v, "FETCH_INTERVAL"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = parseDuration(v, "HTTP_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.StoreMaxAge, err = parseDuration(v, "STORE_MAX_AGE"); err != nil {
		return nil, err
	}

	tzName := v.GetString("WEATHER_TIMEZONE")
	cfg.Timezone, err = time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid WEATHER_TIMEZONE %q: %w", tzName, err)
	}

	loc, err := loadLocation(v)
	if err != nil {
		return nil, err
	}
	cfg.Location = loc

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadLocation(v *viper.Viper) (weather.Location, error) {
	raw := rawLocation{
		Lat: v.GetString("WEATHER_LAT"),
		Lon: v.GetString("WEATHER_LON"),
	}
	if err := validate.Struct(raw); err != nil {
		return weather.Location{}, fmt.Errorf("invalid WEATHER_LAT/WEATHER_LON: %w", err)
	}

	lat, err := strconv.ParseFloat(raw.Lat, 64)
	if err != nil {
		return weather.Location{}, fmt.Errorf("invalid WEATHER_LAT: %w", err)
	}
	lon, err := strconv.ParseFloat(raw.Lon, 64)
	if err != nil {
		return weather.Location{}, fmt.Errorf("invalid WEATHER_LON: %w", err)
	}
	return weather.Location{Lat: lat, Lon: lon}, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
