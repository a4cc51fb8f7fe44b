package controller

import (
	"context"

	"estatelink_backend/internal/model"
	"estatelink_backend/pkg/database"
	"estatelink_backend/pkg/email"
	"estatelink_backend/pkg/response"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type ProfileUpdateInput struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Mobile      string `json:"mobile" validate:"omitempty,len=10,numeric"`
	CountryCode string `json:"country_code"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,nefield=CurrentPassword"`
}

func GetProfile(c *fiber.Ctx) error {
	var user model.User
	if err := database.GetDB().WithContext(c.UserContext()).First(&user, currentUser(c).UserID).Error; err != nil {
		return dbError(err, "User not found")
	}
	return response.OK(c, user.GetPublicProfile(), "")
}

func UpdateProfile(c *fiber.Ctx) error {
	input := new(ProfileUpdateInput)
	if err := bindJSON(c, input); err != nil {
		return err
	}

	db := database.GetDB().WithContext(c.UserContext())
	var user model.User
	if err := db.First(&user, currentUser(c).UserID).Error; err != nil {
		return dbError(err, "User not found")
	}

	updates := map[string]interface{}{
		"name":         input.Name,
		"mobile":       input.Mobile,
		"country_code": input.CountryCode,
	}
	if err := db.Model(&user).Updates(updates).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not update profile", err)
	}

	return response.OK(c, user.GetPublicProfile(), "Profile updated successfully")
}

func ChangePassword(c *fiber.Ctx) error {
	input := new(ChangePasswordInput)
	if err := bindJSON(c, input); err != nil {
		return err
	}

	db := database.GetDB().WithContext(c.UserContext())
	var user model.User
	if err := db.First(&user, currentUser(c).UserID).Error; err != nil {
		return dbError(err, "User not found")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.CurrentPassword)); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "Current password is incorrect")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not hash password", err)
	}
	if err := db.Model(&user).Update("password", string(hashed)).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not update password", err)
	}

	email.Go("password-changed", func(ctx context.Context) error {
		return email.GlobalEmailService.SendPasswordChangedEmail(ctx, user.Email)
	})

	return response.OK(c, nil, "Password changed successfully")
}

// UploadAvatar replaces the caller's avatar. The previous object is removed on a best-effort basis.
func UploadAvatar(c *fiber.Ctx) error {
	ctx := c.UserContext()
	db := database.GetDB().WithContext(ctx)

	var user model.User
	if err := db.First(&user, currentUser(c).UserID).Error; err != nil {
		return dbError(err, "User not found")
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "No avatar image provided")
	}
	url, err := storeImage(ctx, file, user.Email, "avatar")
	if err != nil {
		return err
	}

	old := user.Avatar
	if err := db.Model(&user).Update("avatar", url).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not update avatar", err)
	}

	if old != url {
		discardImage(ctx, old)
	}

	return response.OK(c, fiber.Map{"avatar": url}, "Avatar uploaded successfully")
}
