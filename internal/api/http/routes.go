package httpapi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/gigaset-weather/internal/store"
	"github.com/i474232898/gigaset-weather/internal/weather"
)

var validate = validator.New()

// ForecastService is what the HTTP layer needs from the weather service.
type ForecastService interface {
	GetOrFetch(ctx context.Context) (weather.Report, error)
	FetchAndStore(ctx context.Context) (weather.Report, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service ForecastService) {
	v1 := app.Group("/api/v1")

	v1.Get("/forecast/daily", func(c *fiber.Ctx) error {
		q, err := parseDailyQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := service.GetOrFetch(c.UserContext())
		if err != nil {
			return toFiberError(err)
		}

		report.Days = q.limit(report.Days)
		return c.JSON(report)
	})

	v1.Get("/forecast/daily/text", func(c *fiber.Ctx) error {
		q, err := parseDailyQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := service.GetOrFetch(c.UserContext())
		if err != nil {
			return toFiberError(err)
		}

		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(renderText(q.limit(report.Days)))
	})

	v1.Post("/forecast/refresh", func(c *fiber.Ctx) error {
		report, err := service.FetchAndStore(c.UserContext())
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(report)
	})
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

func toFiberError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "no forecast available")
	case errors.Is(err, weather.ErrMalformedSample):
		return fiber.NewError(fiber.StatusBadGateway, "upstream forecast is malformed")
	case errors.Is(err, weather.ErrRetrieval):
		return fiber.NewError(fiber.StatusBadGateway, "failed to retrieve forecast")
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusGatewayTimeout, "forecast retrieval timed out")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to build forecast")
	}
}

// dailyQuery holds query parameters of the daily forecast endpoints.
type dailyQuery struct {
	// Days limits the number of days returned; 0 means all.
	Days int `validate:"omitempty,min=1,max=6"`
}

func parseDailyQuery(c *fiber.Ctx) (dailyQuery, error) {
	var q dailyQuery

	if s := c.Query("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return q, fmt.Errorf("days must be an integer")
		}
		if n == 0 {
			return q, fmt.Errorf("days must be between 1 and 6")
		}
		q.Days = n
	}

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

func (q dailyQuery) limit(days weather.DailyForecast) weather.DailyForecast {
	if q.Days > 0 && len(days) > q.Days {
		return days[:q.Days]
	}
	return days
}

// renderText formats one line per day for small displays, e.g.
// "Mo, 02.01.2006: -1..13°C 1.2mm leichter Regen, bew.".
func renderText(days weather.DailyForecast) string {
	var b strings.Builder
	for _, d := range days {
		fmt.Fprintf(&b, "%s: %d..%d°C %.1fmm %s\n",
			d.Day,
			int(math.Round(d.MinTemp)),
			int(math.Round(d.MaxTemp)),
			d.TotalRain,
			strings.Join(d.Conditions, ", "))
	}
	return b.String()
}
