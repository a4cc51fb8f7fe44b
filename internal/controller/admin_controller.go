package controller

import (
	"estatelink_backend/internal/model"
	"estatelink_backend/pkg/database"
	"estatelink_backend/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UserActiveInput struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// ListUsers lists accounts, optionally filtered by ?role.
func ListUsers(c *fiber.Ctx) error {
	p := pageParams(c)
	q := database.GetDB().WithContext(c.UserContext()).Model(&model.User{})
	if role := c.Query("role"); role != "" {
		q = q.Where("role = ?", role)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not count users", err)
	}
	var users []model.User
	if err := q.Order("created_at DESC").Offset(p.offset()).Limit(p.Limit).Find(&users).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not fetch users", err)
	}

	profiles := make([]map[string]interface{}, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].GetPublicProfile())
	}
	return response.OK(c, newPage(p, total, profiles), "Users fetched successfully")
}

// SetUserActive enables or disables an account's ability to list properties.
// Existing listings are left as they are.
func SetUserActive(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "user ID")
	if err != nil {
		return err
	}
	input := new(UserActiveInput)
	if err := bindJSON(c, input); err != nil {
		return err
	}

	db := database.GetDB().WithContext(c.UserContext())
	var user model.User
	if err := db.First(&user, id).Error; err != nil {
		return dbError(err, "User not found")
	}
	if err := db.Model(&user).Update("is_active", *input.IsActive).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not update user", err)
	}
	return response.OK(c, user.GetPublicProfile(), "User updated successfully")
}
