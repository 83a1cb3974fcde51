package httpapi

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/fish-activity/internal/activity"
	"github.com/i474232898/fish-activity/internal/geocode"
	"github.com/i474232898/fish-activity/internal/report"
	"github.com/i474232898/fish-activity/internal/weather"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var validate = validator.New()

// ForecastService provides hourly forecasts; *weather.Service implements it.
type ForecastService interface {
	GetForecast(ctx context.Context, loc weather.Location, days int) (weather.Forecast, error)
}

// LocationResolver turns a city into coordinates; *geocode.Resolver implements it.
type LocationResolver interface {
	Resolve(ctx context.Context, city, country string) (weather.Location, error)
}

// Options carries the request defaults and optional collaborators of the API.
type Options struct {
	Resolver        LocationResolver
	DefaultLocation weather.Location
	DefaultDays     int
	ScoreWorkers    int
	Log             logrus.FieldLogger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service ForecastService, opts Options) {
	if opts.DefaultDays == 0 {
		opts.DefaultDays = 7
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	log := opts.Log.WithField("component", "http_api")

	v1 := app.Group("/api/v1")

	v1.Get("/species", func(c *fiber.Ctx) error {
		profiles := make([]activity.Profile, 0, len(activity.AllSpecies()))
		for _, s := range activity.AllSpecies() {
			p, err := activity.ProfileOf(s)
			if err != nil {
				return err
			}
			profiles = append(profiles, p)
		}
		return c.JSON(profiles)
	})

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		var q forecastQuery
		if err := q.bind(c, opts.DefaultDays); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		forecast, err := fetchForecast(c, service, opts, q)
		if err != nil {
			return err
		}
		return c.JSON(forecast)
	})

	scoreRequest := func(c *fiber.Ctx) (weather.Forecast, activity.Series, activityQuery, error) {
		var q activityQuery
		if err := q.bind(c, opts.DefaultDays); err != nil {
			return weather.Forecast{}, activity.Series{}, q, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		forecast, err := fetchForecast(c, service, opts, q.forecastQuery)
		if err != nil {
			return weather.Forecast{}, activity.Series{}, q, err
		}

		series := activity.ScoreSeriesParallel(forecast.Observations, q.species, opts.ScoreWorkers)
		if len(series.Failures) > 0 {
			log.WithError(series.Err()).WithFields(logrus.Fields{
				"location": forecast.Location.Key(),
				"failed":   len(series.Failures),
			}).Warn("some forecast hours could not be scored")
		}
		return forecast, series.Between(q.FromHour, q.ToHour), q, nil
	}

	v1.Get("/activity", func(c *fiber.Ctx) error {
		forecast, series, q, err := scoreRequest(c)
		if err != nil {
			return err
		}

		return c.JSON(activityResponse{
			Location:  forecast.Location,
			Species:   series.Species,
			Days:      forecast.Days,
			Providers: forecast.Providers,
			FromHour:  q.FromHour,
			ToHour:    q.ToHour,
			Points:    series.Points,
			Failures:  toFailureViews(series.Failures),
			Chart:     series.ByDate(),
		})
	})

	v1.Get("/activity/export", func(c *fiber.Ctx) error {
		forecast, series, _, err := scoreRequest(c)
		if err != nil {
			return err
		}

		data, err := report.GenerateActivityWorkbook(forecast.Location, series)
		if err != nil {
			log.WithError(err).Error("failed to generate activity workbook")
			return fiber.NewError(fiber.StatusInternalServerError, "failed to generate report")
		}

		c.Attachment(fmt.Sprintf("fish-activity-%s-%s.xlsx", series.Species, forecast.GeneratedAt.Format("20060102")))
		c.Set(fiber.HeaderContentType, xlsxContentType)
		return c.Send(data)
	})

	v1.Post("/activity/score", func(c *fiber.Ctx) error {
		var req scoreBody
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Observation.Timestamp.IsZero() {
			return fiber.NewError(fiber.StatusBadRequest, "observation timestamp is required")
		}

		species, err := activity.ParseSpecies(req.Species)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		b, err := activity.Explain(req.Observation, species)
		if err != nil {
			if errors.Is(err, activity.ErrInvalidObservation) || errors.Is(err, activity.ErrInvalidSpecies) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return err
		}

		return c.JSON(activity.Point{Observation: req.Observation, Breakdown: b})
	})
}

func fetchForecast(c *fiber.Ctx, service ForecastService, opts Options, q forecastQuery) (weather.Forecast, error) {
	loc, err := q.location(c.UserContext(), opts)
	if err != nil {
		return weather.Forecast{}, err
	}

	forecast, err := service.GetForecast(c.UserContext(), loc, q.Days)
	if err != nil {
		switch {
		case errors.Is(err, weather.ErrInvalidDays):
			return weather.Forecast{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
		case errors.Is(err, weather.ErrNoProviders), errors.Is(err, weather.ErrNoForecastData):
			return weather.Forecast{}, fiber.NewError(fiber.StatusBadGateway, "forecast providers unavailable")
		default:
			return weather.Forecast{}, fiber.NewError(fiber.StatusInternalServerError, "failed to fetch forecast")
		}
	}
	if loc.Name != "" {
		forecast.Location.Name = loc.Name
	}
	return forecast, nil
}

// forecastQuery holds query parameters identifying a location and a horizon.
// A location is either lat+lon, or a city (geocoded), or the configured default.
type forecastQuery struct {
	Lat     *float64 `validate:"omitempty,latitude"`
	Lon     *float64 `validate:"omitempty,longitude"`
	City    string   `validate:"max=100"`
	Country string   `validate:"max=100"`
	Days    int      `validate:"min=1,max=16"`
}

func (q *forecastQuery) bind(c *fiber.Ctx, defaultDays int) error {
	var err error
	if q.Lat, err = queryFloat(c, "lat"); err != nil {
		return err
	}
	if q.Lon, err = queryFloat(c, "lon"); err != nil {
		return err
	}
	if (q.Lat == nil) != (q.Lon == nil) {
		return errors.New("lat and lon must be given together")
	}
	q.City = strings.TrimSpace(c.Query("city"))
	q.Country = strings.TrimSpace(c.Query("country"))

	if q.Days, err = queryInt(c, "days", defaultDays); err != nil {
		return err
	}

	return validate.Struct(q)
}

func (q forecastQuery) location(ctx context.Context, opts Options) (weather.Location, error) {
	switch {
	case q.Lat != nil:
		return weather.Location{Latitude: *q.Lat, Longitude: *q.Lon}, nil
	case q.City != "":
		if opts.Resolver == nil {
			return weather.Location{}, fiber.NewError(fiber.StatusBadRequest, geocode.ErrDisabled.Error())
		}
		loc, err := opts.Resolver.Resolve(ctx, q.City, q.Country)
		if err != nil {
			if errors.Is(err, geocode.ErrDisabled) || errors.Is(err, geocode.ErrEmptyQuery) {
				return weather.Location{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return weather.Location{}, fiber.NewError(fiber.StatusNotFound, "location not found")
		}
		return loc, nil
	default:
		return opts.DefaultLocation, nil
	}
}

// activityQuery adds the species and the hour window to forecastQuery.
type activityQuery struct {
	forecastQuery
	Species  string `validate:"required"`
	FromHour int    `validate:"min=0,max=24"`
	ToHour   int    `validate:"min=0,max=24,gtefield=FromHour"`

	species activity.Species
}

func (q *activityQuery) bind(c *fiber.Ctx, defaultDays int) error {
	if err := q.forecastQuery.bind(c, defaultDays); err != nil {
		return err
	}

	var err error
	q.Species = c.Query("species")
	if q.FromHour, err = queryInt(c, "from_hour", 12); err != nil {
		return err
	}
	if q.ToHour, err = queryInt(c, "to_hour", 15); err != nil {
		return err
	}
	if err := validate.Struct(q); err != nil {
		return err
	}

	q.species, err = activity.ParseSpecies(q.Species)
	return err
}

type scoreBody struct {
	Species     string              `json:"species" validate:"required"`
	Observation weather.Observation `json:"observation"`
}

type failureView struct {
	Index     int    `json:"index"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error"`
}

func toFailureViews(failures []activity.Failure) []failureView {
	out := make([]failureView, len(failures))
	for i, f := range failures {
		out[i] = failureView{
			Index:     f.Index,
			Timestamp: f.Observation.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			Error:     f.Err.Error(),
		}
	}
	return out
}

type activityResponse struct {
	Location  weather.Location       `json:"location"`
	Species   activity.Species       `json:"species"`
	Days      int                    `json:"days"`
	Providers []string               `json:"providers"`
	FromHour  int                    `json:"fromHour"`
	ToHour    int                    `json:"toHour"`
	Points    []activity.Point       `json:"points"`
	Failures  []failureView          `json:"failures"`
	Chart     []activity.DailySeries `json:"chart"`
}

func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

func queryFloat(c *fiber.Ctx, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &f, nil
}
