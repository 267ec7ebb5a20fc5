package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/uemoa-meteo/weather-warehouse/internal/etl"
	"github.com/uemoa-meteo/weather-warehouse/internal/staging"
	"github.com/uemoa-meteo/weather-warehouse/internal/warehouse"
)

var validate = validator.New()

// WarehouseReader is the read side of the warehouse.
type WarehouseReader interface {
	Latest(ctx context.Context, city, country string) (warehouse.ObservationRecord, error)
	History(ctx context.Context, city, country string, from, to time.Time) ([]warehouse.ObservationRecord, error)
}

// Runner triggers and observes ETL runs.
type Runner interface {
	Run(ctx context.Context) (*etl.RunReport, error)
	Status() etl.Status
}

// RunLogReader serves the persisted run-log records.
type RunLogReader interface {
	ListRunRecords(ctx context.Context, limit int) ([]staging.RunRecord, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, reader WarehouseReader, runner Runner, runlog RunLogReader, log *zap.Logger) {
	v1 := app.Group("/api/v1")

	v1.Get("/observations/latest", func(c *fiber.Ctx) error {
		q, err := parseLocationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rec, err := reader.Latest(c.Context(), q.City, q.Country)
		if err != nil {
			if errors.Is(err, warehouse.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no observations for requested location")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch observation")
		}

		return c.JSON(rec)
	})

	v1.Get("/observations/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := reader.History(c.Context(), req.Location.City, req.Location.Country, req.From, req.To)
		if err != nil {
			if errors.Is(err, warehouse.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no observation history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch observation history")
		}

		return c.JSON(fiber.Map{
			"city":         req.Location.City,
			"country":      req.Location.Country,
			"from":         req.From,
			"to":           req.To,
			"observations": records,
		})
	})

	v1.Post("/etl/trigger", func(c *fiber.Ctx) error {
		if runner.Status().Running {
			return fiber.NewError(fiber.StatusConflict, "etl run is already active")
		}

		// Run in the background; the trigger returns immediately.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
			defer cancel()
			if _, err := runner.Run(ctx); err != nil && !errors.Is(err, etl.ErrRunActive) {
				log.Error("triggered etl run failed", zap.Error(err))
			}
		}()

		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"message": "etl run started",
		})
	})

	v1.Get("/etl/status", func(c *fiber.Ctx) error {
		return c.JSON(runner.Status())
	})

	v1.Get("/etl/runs", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 50)
		records, err := runlog.ListRunRecords(c.Context(), limit)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch run records")
		}
		return c.JSON(fiber.Map{"runs": records})
	})
}

// locationQuery holds query parameters for identifying a location. Country
// is optional; city names are unique enough within the tracked list.
type locationQuery struct {
	City    string `validate:"required"`
	Country string
}

func parseLocationQuery(c *fiber.Ctx) (locationQuery, error) {
	var q locationQuery

	q.City = c.Query("city")
	q.Country = c.Query("country")

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Location locationQuery
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	loc, err := parseLocationQuery(c)
	if err != nil {
		return err
	}
	h.Location = loc

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
