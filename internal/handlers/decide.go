package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greencampus/ecopoints/internal/auth"
	"github.com/greencampus/ecopoints/internal/engine"
	"github.com/greencampus/ecopoints/internal/logger"
	"github.com/greencampus/ecopoints/internal/models"
)

type DecideRequest struct {
	Kind         string `json:"kind" validate:"required"`
	SubmissionID string `json:"id" validate:"required"`
	Verdict      string `json:"verdict" validate:"required"`
}

type DecideResponse struct {
	Status        string  `json:"status"`
	LedgerEntryID int64   `json:"ledger_entry_id,omitempty"`
	Reward        int64   `json:"reward,omitempty"`
	CO2SavedKg    float64 `json:"co2_saved_kg,omitempty"`
}

// Decide applies an admin verdict to a pending submission. The actor is
// taken from the authenticated session, never from ambient state.
func (h *Handler) Decide(c *fiber.Ctx) error {
	var request DecideRequest
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	kind := models.SubmissionKind(request.Kind)
	if !kind.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown submission kind",
		})
	}

	submissionID, err := uuid.Parse(request.SubmissionID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid submission id",
		})
	}

	actor := c.Locals("actor").(auth.Actor)

	result, err := h.Engine.Decide(ctx, kind, submissionID, request.Verdict, actor.ID)
	if err != nil {
		if engine.IsRetryable(err) {
			logger.Log.Error("Decision commit failed", zap.Error(err),
				zap.String("submission_id", submissionID.String()))
		}
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(DecideResponse{
		Status:        models.StatusLabel(kind, result.Submission.Status),
		LedgerEntryID: result.LedgerEntryID,
		Reward:        result.Reward,
		CO2SavedKg:    result.CO2SavedKg,
	})
}
