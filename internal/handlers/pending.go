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

type PendingResponse struct {
	ID              uuid.UUID  `json:"id"`
	Kind            string     `json:"kind"`
	UserID          uuid.UUID  `json:"user_id"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	ChallengeID     *uuid.UUID `json:"challenge_id,omitempty"`
	WeightKg        float64    `json:"weight_kg,omitempty"`
	PlasticType     string     `json:"plastic_type,omitempty"`
	PotentialPoints int64      `json:"potential_points,omitempty"`
	CO2SavedKg      float64    `json:"co2_saved_kg,omitempty"`
	EventID         *uuid.UUID `json:"event_id,omitempty"`
	CouponCode      string     `json:"coupon_code,omitempty"`
	TotalPoints     int64      `json:"total_points,omitempty"`
	ProofURL        string     `json:"proof_url,omitempty"`
}

// ListPending returns the moderation queue for one submission kind.
// Plastic rows carry the potential points and CO₂ figure the console
// shows next to each log.
func (h *Handler) ListPending(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	kind := models.SubmissionKind(c.Params("kind"))
	if !kind.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown submission kind",
		})
	}

	subs, err := h.Store.ListPending(ctx, kind)
	if err != nil {
		logger.Log.Error("Error listing pending submissions", zap.Error(err))
		return respondError(c, err)
	}

	if len(subs) == 0 {
		return c.SendStatus(fiber.StatusNoContent)
	}

	response := make([]PendingResponse, 0, len(subs))
	for _, sub := range subs {
		row := PendingResponse{
			ID:          sub.ID,
			Kind:        string(sub.Kind),
			UserID:      sub.UserID,
			Status:      models.StatusLabel(sub.Kind, sub.Status),
			CreatedAt:   sub.CreatedAt,
			ChallengeID: sub.ChallengeID,
			WeightKg:    sub.WeightKg,
			PlasticType: sub.PlasticType,
			EventID:     sub.EventID,
			CouponCode:  sub.CouponCode,
			TotalPoints: sub.OrderTotalPoints,
			ProofURL:    sub.ProofURL,
		}
		if sub.Kind == models.KindPlasticLog {
			row.PotentialPoints = models.PlasticPoints(sub.WeightKg)
			row.CO2SavedKg = models.CO2SavedKg(sub.WeightKg, sub.PlasticType)
		}
		response = append(response, row)
	}

	return c.Status(fiber.StatusOK).JSON(response)
}
