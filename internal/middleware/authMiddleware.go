package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/greencampus/ecopoints/cmd/config"
	"github.com/greencampus/ecopoints/internal/auth"
	"github.com/greencampus/ecopoints/internal/models"
)

// AuthRequired parses the jwt cookie and stores the actor in locals.
func AuthRequired(c *fiber.Ctx) error {
	tokenString := c.Cookies("jwt")
	if tokenString == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	actor, err := auth.ParseToken([]byte(config.JWTSecret), tokenString)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}

	c.Locals("actor", actor)
	return c.Next()
}

// AdminOnly must run after AuthRequired.
func AdminOnly(c *fiber.Ctx) error {
	actor, ok := c.Locals("actor").(auth.Actor)
	if !ok || actor.Role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Admin role required",
		})
	}

	return c.Next()
}
