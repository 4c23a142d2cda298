package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greencampus/ecopoints/internal/logger"
	"github.com/greencampus/ecopoints/internal/models"
)

type CreateSubmissionRequest struct {
	Kind        string  `json:"kind" validate:"required"`
	UserID      string  `json:"user_id" validate:"required"`
	ChallengeID string  `json:"challenge_id,omitempty"`
	WeightKg    float64 `json:"weight_kg,omitempty"`
	PlasticType string  `json:"plastic_type,omitempty"`
	EventID     string  `json:"event_id,omitempty"`
	CouponCode  string  `json:"coupon_code,omitempty"`
	TotalPoints int64   `json:"total_points,omitempty"`
	ProofURL    string  `json:"proof_url,omitempty"`
}

// CreateSubmission is the student-facing intake contract: every new
// submission starts pending with no decision fields set. Orders debit
// the buyer's balance here, at creation.
func (h *Handler) CreateSubmission(c *fiber.Ctx) error {
	var request CreateSubmissionRequest
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	userID, err := uuid.Parse(request.UserID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user id",
		})
	}

	sub := models.Submission{
		Kind:             models.SubmissionKind(request.Kind),
		UserID:           userID,
		WeightKg:         request.WeightKg,
		PlasticType:      request.PlasticType,
		CouponCode:       request.CouponCode,
		OrderTotalPoints: request.TotalPoints,
		ProofURL:         request.ProofURL,
	}

	if request.ChallengeID != "" {
		id, err := uuid.Parse(request.ChallengeID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid challenge id",
			})
		}
		sub.ChallengeID = &id
	}
	if request.EventID != "" {
		id, err := uuid.Parse(request.EventID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid event id",
			})
		}
		sub.EventID = &id
	}

	created, err := h.Engine.CreateSubmission(ctx, sub)
	if err != nil {
		logger.Log.Warn("Error creating submission", zap.Error(err),
			zap.String("kind", request.Kind), zap.String("user_id", request.UserID))
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}
