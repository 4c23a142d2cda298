package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greencampus/ecopoints/internal/logger"
)

// GetBalance returns the materialized balance and lifetime totals for a
// user; both are kept equal to the ledger sums by the commit path.
func (h *Handler) GetBalance(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user id",
		})
	}

	balance, err := h.Store.GetBalance(ctx, userID)
	if err != nil {
		logger.Log.Error("Error getting user balance", zap.Error(err))
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(balance)
}
