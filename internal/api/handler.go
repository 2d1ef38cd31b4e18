package api

import (
	"errors"
	"time"

	"github.com/bobby-s-dev/weather-viewer/internal/models"
	"github.com/bobby-s-dev/weather-viewer/internal/services"
	"github.com/bobby-s-dev/weather-viewer/internal/view"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const sessionCookie = "weather_session"

var validate = validator.New()

// BreakerStater reports the upstream circuit breaker state.
type BreakerStater interface {
	BreakerState() string
}

type Handler struct {
	sessions *services.SessionStore
	mode     models.Mode
	timezone *time.Location
	breaker  BreakerStater
	logger   *zap.Logger
}

func NewHandler(sessions *services.SessionStore, mode models.Mode, timezone *time.Location, breaker BreakerStater, logger *zap.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		mode:     mode,
		timezone: timezone,
		breaker:  breaker,
		logger:   logger,
	}
}

// geolocationRequest is the browser's one-shot position report. A non-empty
// Error means the position could not be obtained.
type geolocationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	Error     string   `json:"error"`
}

// GetPage handles GET /
func (h *Handler) GetPage(c *fiber.Ctx) error {
	screen := h.screenFor(c)

	c.Type("html", "utf-8")
	return view.Render(c, view.Page{
		Mode:               h.mode,
		State:              screen.State(),
		Timezone:           h.timezone,
		RequestGeolocation: !screen.Geolocated(),
	})
}

// PostSearch handles POST /search
func (h *Handler) PostSearch(c *fiber.Ctx) error {
	screen := h.screenFor(c)
	city := c.FormValue("city")

	h.logger.Info("Weather search submitted", zap.String("city", city))
	screen.Submit(city)

	return c.Redirect("/", fiber.StatusSeeOther)
}

// PostGeolocation handles POST /api/v1/geolocation
func (h *Handler) PostGeolocation(c *fiber.Ctx) error {
	var req geolocationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid geolocation payload")
	}

	var coords *models.Coordinates
	var geoErr error
	if req.Error != "" {
		geoErr = &models.GeolocationError{Reason: req.Error}
	} else {
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		coords = &models.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}

	screen := h.screenFor(c)
	if _, err := screen.Geolocate(coords, geoErr); err != nil {
		if errors.Is(err, services.ErrGeolocationResolved) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return err
	}

	if geoErr != nil {
		h.logger.Info("Geolocation unavailable", zap.Error(geoErr))
	}

	return c.Status(fiber.StatusAccepted).JSON(models.NewStateResponse(screen.State()))
}

// GetState handles GET /api/v1/state
func (h *Handler) GetState(c *fiber.Ctx) error {
	screen := h.screenFor(c)
	return c.JSON(models.NewStateResponse(screen.State()))
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now(),
		"uptime":    time.Since(startTime).String(),
		"mode":      h.mode,
		"breaker":   h.breaker.BreakerState(),
		"sessions":  h.sessions.GetStats(),
	})
}

// screenFor returns the caller's screen, starting a session when the cookie
// is missing or expired.
func (h *Handler) screenFor(c *fiber.Ctx) *services.Screen {
	if screen, ok := h.sessions.Get(c.Cookies(sessionCookie)); ok {
		return screen
	}

	id, screen := h.sessions.Create()
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return screen
}

var startTime = time.Now()
