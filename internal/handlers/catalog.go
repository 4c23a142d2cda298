package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greencampus/ecopoints/internal/logger"
	"github.com/greencampus/ecopoints/internal/models"
)

// Reward configuration intake: challenges, events, and redeem codes the
// decision engine later reads at decision time.

type CreateChallengeRequest struct {
	Title        string `json:"title" validate:"required"`
	PointsReward int64  `json:"points_reward" validate:"required"`
	IsActive     bool   `json:"is_active"`
}

func (h *Handler) CreateChallenge(c *fiber.Ctx) error {
	var request CreateChallengeRequest
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if request.Title == "" || request.PointsReward < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Title and a non-negative reward are required",
		})
	}

	ch := models.Challenge{
		ID:           uuid.New(),
		Title:        request.Title,
		PointsReward: request.PointsReward,
		IsActive:     request.IsActive,
	}
	if err := h.Store.CreateChallenge(ctx, ch); err != nil {
		logger.Log.Error("Error creating challenge", zap.Error(err))
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": ch.ID})
}

type CreateEventRequest struct {
	Title        string    `json:"title" validate:"required"`
	PointsReward int64     `json:"points_reward" validate:"required"`
	StartAt      time.Time `json:"start_at" validate:"required"`
	EndAt        time.Time `json:"end_at" validate:"required"`
}

func (h *Handler) CreateEvent(c *fiber.Ctx) error {
	var request CreateEventRequest
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if request.Title == "" || request.EndAt.Before(request.StartAt) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Title and a valid time range are required",
		})
	}

	ev := models.Event{
		ID:           uuid.New(),
		Title:        request.Title,
		PointsReward: request.PointsReward,
		StartAt:      request.StartAt,
		EndAt:        request.EndAt,
	}
	if err := h.Store.CreateEvent(ctx, ev); err != nil {
		logger.Log.Error("Error creating event", zap.Error(err))
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": ev.ID})
}

type CreateCouponRequest struct {
	Code           string `json:"code" validate:"required"`
	Description    string `json:"description,omitempty"`
	PointsFixed    *int64 `json:"points_fixed,omitempty"`
	PointsMin      *int64 `json:"points_min,omitempty"`
	PointsMax      *int64 `json:"points_max,omitempty"`
	MaxRedemptions int64  `json:"max_redemptions" validate:"required"`
}

func (h *Handler) CreateCoupon(c *fiber.Ctx) error {
	var request CreateCouponRequest
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if request.Code == "" || request.MaxRedemptions <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Code and a positive max_redemptions are required",
		})
	}
	if request.PointsFixed == nil && (request.PointsMin == nil || request.PointsMax == nil) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Either points_fixed or a points_min/points_max range is required",
		})
	}

	cp := models.Coupon{
		Code:           request.Code,
		Description:    request.Description,
		PointsFixed:    request.PointsFixed,
		PointsMin:      request.PointsMin,
		PointsMax:      request.PointsMax,
		MaxRedemptions: request.MaxRedemptions,
		IsActive:       true,
	}
	if err := h.Store.CreateCoupon(ctx, cp); err != nil {
		logger.Log.Error("Error creating coupon", zap.Error(err))
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"code": cp.Code})
}
