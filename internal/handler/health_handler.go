package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Pinger is an interface for health check ping operations.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	db    Pinger
	redis Pinger
}

// NewHealthHandler creates a new HealthHandler with the given database pool.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// WithRedis adds the idempotency store to the health check.
func (h *HealthHandler) WithRedis(redis Pinger) *HealthHandler {
	h.redis = redis
	return h
}

// Check pings the database and, when configured, Redis.
// Returns 200 OK with {"status": "healthy"} when every dependency is reachable.
// Returns 503 Service Unavailable with {"status": "unhealthy", "error": "..."} otherwise.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx := c.UserContext()
	checks := fiber.Map{}

	if err := h.db.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("health check failed: database unreachable")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  "database connection failed",
		})
	}
	checks["database"] = "up"

	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			log.Error().Err(err).Msg("health check failed: redis unreachable")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unhealthy",
				"error":  "redis connection failed",
			})
		}
		checks["redis"] = "up"
	}

	return c.JSON(fiber.Map{
		"status": "healthy",
		"checks": checks,
	})
}
