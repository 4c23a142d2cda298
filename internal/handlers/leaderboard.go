package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/greencampus/ecopoints/internal/logger"
)

const defaultLeaderboardSize = 10

// Leaderboard ranks users by lifetime points, recomputed from the
// current totals on every call.
func (h *Handler) Leaderboard(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	n := defaultLeaderboardSize
	if limit := c.Query("limit"); limit != "" {
		parsed, err := strconv.Atoi(limit)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid limit",
			})
		}
		n = parsed
	}

	board, err := h.Store.TopN(ctx, n)
	if err != nil {
		logger.Log.Error("Error building leaderboard", zap.Error(err))
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(board)
}
