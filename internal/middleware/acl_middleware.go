package middleware

import (
	"errors"

	"estatelink_backend/internal/model"
	"estatelink_backend/pkg/database"
	"estatelink_backend/pkg/response"
	"estatelink_backend/pkg/utils/jwt"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CheckPropertyOwnership loads the property named by :id and stores it under
// "property". Admins may act on any property.
func CheckPropertyOwnership() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := c.Locals("user").(*jwt.Claims)
		propertyID, err := c.ParamsInt("id")
		if err != nil || propertyID <= 0 {
			return response.Fail(c, fiber.StatusBadRequest, "Invalid property ID")
		}

		var property model.Property
		if err := database.GetDB().WithContext(c.UserContext()).First(&property, propertyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.Fail(c, fiber.StatusNotFound, "Property not found")
			}
			return response.NewError(fiber.StatusInternalServerError, "Could not load property", err)
		}

		if property.UserID != claims.UserID && !claims.IsAdmin() {
			return response.Fail(c, fiber.StatusForbidden, "You don't have permission to access this property")
		}

		c.Locals("property", &property)
		return c.Next()
	}
}
