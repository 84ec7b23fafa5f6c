package server

import (
	"context"
	"strings"
	"time"

	"photoshare/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Root handles GET /
func (s *Server) Root(c *fiber.Ctx) error {
	return c.SendString("photoshare API serving photos from the " + s.store.Backend + " store")
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: without
// it sessions and notifications stay in process.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.store.Ping != nil {
		if err := s.store.Ping(ctx); err != nil {
			dbStatus = "unhealthy"
		}
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"backend":  s.store.Backend,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// TestInfo handles GET /test/info
func (s *Server) TestInfo(c *fiber.Ctx) error {
	info, err := s.users.SchemaInfo(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(info)
}

// TestCounts handles GET /test/counts
func (s *Server) TestCounts(c *fiber.Ctx) error {
	counts, err := s.users.Counts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(counts)
}

// TestUnknown rejects every other /test/:other probe.
func (s *Server) TestUnknown(c *fiber.Ctx) error {
	return respondError(c, models.NewValidationError("Bad param "+strings.TrimSpace(c.Params("other"))))
}
