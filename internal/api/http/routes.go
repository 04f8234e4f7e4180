package httpapi

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/vineyardhq/vineyard-api/internal/assistant"
	"github.com/vineyardhq/vineyard-api/internal/common"
	"github.com/vineyardhq/vineyard-api/internal/sites"
	"github.com/vineyardhq/vineyard-api/internal/store"
	"github.com/vineyardhq/vineyard-api/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app. Handlers
// resolve sites through the directory and hand the weather service plain
// coordinates; the core never touches the registry.
func RegisterRoutes(app *fiber.App, svc *weather.Service, dir sites.Directory, asst assistant.Assistant) {
	v1 := app.Group("/api/v1")

	v1.Post("/sites", func(c *fiber.Ctx) error {
		var req createSiteReq
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid json body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		site, err := dir.Create(c.Context(), sites.NewSite{
			Name:      req.Name,
			Address:   req.Address,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
		})
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(site)
	})

	v1.Get("/sites", func(c *fiber.Ctx) error {
		out, err := dir.List(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to list sites")
		}
		return c.JSON(out)
	})

	v1.Get("/sites/:id", func(c *fiber.Ctx) error {
		site, err := dir.Get(c.Context(), c.Params("id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "site not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load site")
		}
		return c.JSON(site)
	})

	v1.Post("/sites/:id/weather/ingest", func(c *fiber.Ctx) error {
		site, err := dir.Get(c.Context(), c.Params("id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "site not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load site")
		}

		start, end, err := parseDateRange(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		points, err := svc.IngestWeather(c.Context(), site.ID, site.Latitude, site.Longitude, start, end)
		if err != nil {
			// Upstream and persistence failures both abort the pipeline; the
			// message carries the upstream status detail when there is one.
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return c.JSON(points)
	})

	v1.Get("/sites/:id/gdd", func(c *fiber.Ctx) error {
		points, err := cumulativeForSite(c, svc, dir)
		if err != nil {
			return err
		}
		return c.JSON(points)
	})

	v1.Get("/sites/:id/gdd/chart", func(c *fiber.Ctx) error {
		points, err := cumulativeForSite(c, svc, dir)
		if err != nil {
			return err
		}
		return c.JSON(weather.ToChartSeries(points))
	})

	v1.Post("/assistant/ask", func(c *fiber.Ctx) error {
		var req askReq
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid json body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		answer, err := asst.Answer(c.Context(), req.Question)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "assistant unavailable")
		}
		return c.JSON(fiber.Map{"answer": answer})
	})
}

// cumulativeForSite resolves the site and reads its cumulative GDD series
// from start_date. Shared by the series and chart endpoints.
func cumulativeForSite(c *fiber.Ctx, svc *weather.Service, dir sites.Directory) ([]weather.CumulativePoint, error) {
	site, err := dir.Get(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "site not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to load site")
	}

	startStr := c.Query("start_date")
	if startStr == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "start_date query parameter is required")
	}
	start, err := common.ParseDate(startStr)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "start_date must be YYYY-MM-DD")
	}

	points, err := svc.CumulativeGDD(c.Context(), site.ID, start)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to read gdd series")
	}
	return points, nil
}

// parseDateRange reads start_date (required) and end_date (optional) query
// parameters. A zero end means "default to today" downstream.
func parseDateRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	startStr := c.Query("start_date")
	if startStr == "" {
		return time.Time{}, time.Time{}, errors.New("start_date query parameter is required")
	}
	start, err := common.ParseDate(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("start_date must be YYYY-MM-DD")
	}

	var end time.Time
	if endStr := c.Query("end_date"); endStr != "" {
		end, err = common.ParseDate(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("end_date must be YYYY-MM-DD")
		}
		if end.Before(start) {
			return time.Time{}, time.Time{}, errors.New("end_date must not be before start_date")
		}
	}
	return start, end, nil
}

// createSiteReq is the site creation payload. Coordinates may be omitted
// when an address is provided; the registry geocodes it. They are pointers
// so an explicit zero coordinate survives to the registry unchanged.
type createSiteReq struct {
	Name      string   `json:"name" validate:"required"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
}

type askReq struct {
	Question string `json:"question" validate:"required"`
}
