// Package handlers exposes the admin console API over fiber: sign-in,
// moderation queues, the decide operation, submission intake, and the
// balance/leaderboard projections.
package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/greencampus/ecopoints/internal/engine"
)

const requestTimeout = 10 * time.Second

type Handler struct {
	Engine *engine.Engine
	Store  engine.Store
}

func New(eng *engine.Engine, store engine.Store) *Handler {
	return &Handler{Engine: eng, Store: store}
}

// respondError maps the engine taxonomy onto HTTP statuses. Validation
// failures are recoverable at the caller boundary; only Busy and
// StorageFault are retryable.
func respondError(c *fiber.Ctx, err error) error {
	var already *engine.AlreadyDecidedError
	switch {
	case errors.As(err, &already):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"code":   "already_decided",
			"status": already.Status,
		})
	case errors.Is(err, engine.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"code":  "not_found",
			"error": "Not found",
		})
	case errors.Is(err, engine.ErrInvalidVerdict):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"code":  "invalid_verdict",
			"error": "Verdict not applicable to this submission kind",
		})
	case errors.Is(err, engine.ErrTooEarly):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"code":  "too_early",
			"error": "Event has not ended yet",
		})
	case errors.Is(err, engine.ErrLimitReached):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"code":  "limit_reached",
			"error": "Redemption limit reached",
		})
	case errors.Is(err, engine.ErrInsufficientBalance):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"code":  "insufficient_balance",
			"error": "Insufficient balance",
		})
	case errors.Is(err, engine.ErrInvalidSubmission):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":  "invalid_submission",
			"error": "Invalid submission payload",
		})
	case errors.Is(err, engine.ErrBusy):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"code":  "busy",
			"error": "Storage busy, retry with backoff",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code":  "storage_fault",
			"error": "Internal server error",
		})
	}
}
