package controller

import (
	"context"
	"errors"
	"strings"
	"time"

	"estatelink_backend/internal/middleware"
	"estatelink_backend/internal/model"
	"estatelink_backend/pkg/database"
	"estatelink_backend/pkg/email"
	"estatelink_backend/pkg/logger"
	"estatelink_backend/pkg/response"
	"estatelink_backend/pkg/utils/jwt"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	Mobile      string `json:"mobile" validate:"omitempty,len=10,numeric"`
	CountryCode string `json:"country_code"`
	Role        string `json:"role" validate:"required,oneof=dealer agent builder owner"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates an account. Dealers are put on the free plan, pending activation.
func Register(c *fiber.Ctx) error {
	input := new(RegisterInput)
	if err := bindJSON(c, input); err != nil {
		return err
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	db := database.GetDB().WithContext(c.UserContext())
	var count int64
	if err := db.Model(&model.User{}).Where("email = ?", input.Email).Count(&count).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not check email", err)
	}
	if count > 0 {
		return response.Rejected(c, "User already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not hash password", err)
	}

	user := model.User{
		Name:        input.Name,
		Email:       input.Email,
		Password:    string(hashedPassword),
		Mobile:      input.Mobile,
		CountryCode: input.CountryCode,
		Role:        model.Role(input.Role),
		IsActive:    true,
	}
	if err := db.Create(&user).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not create user", err)
	}

	data := fiber.Map{"user": user.GetPublicProfile()}
	if user.Role == model.RoleDealer {
		res, err := deps.Engine.GrantFreePlan(c.UserContext(), user.ID)
		if err != nil {
			logger.ForUser(c.UserContext(), user.ID).Error("could not grant free plan", "error", err)
		} else if res.OK() {
			data["subscribed_plan"] = res.Subscription
		}
	}

	token, err := issueToken(c, &user)
	if err != nil {
		return err
	}
	data["token"] = token

	email.Go("welcome", func(ctx context.Context) error {
		return email.GlobalEmailService.SendWelcomeEmail(ctx, user.Email, user.Name, string(user.Role))
	})

	return response.Created(c, data, "User registered successfully")
}

func Login(c *fiber.Ctx) error {
	input := new(LoginInput)
	if err := bindJSON(c, input); err != nil {
		return err
	}

	var user model.User
	err := database.GetDB().WithContext(c.UserContext()).
		Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.Fail(c, fiber.StatusUnauthorized, "Invalid credentials")
		}
		return response.NewError(fiber.StatusInternalServerError, "Could not fetch user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return response.Fail(c, fiber.StatusUnauthorized, "Invalid credentials")
	}

	token, err := issueToken(c, &user)
	if err != nil {
		return err
	}

	return response.OK(c, fiber.Map{
		"token": token,
		"user":  user.GetPublicProfile(),
	}, "Login successful")
}

func Logout(c *fiber.Ctx) error {
	c.ClearCookie(middleware.TokenCookie)
	return response.OK(c, nil, "Logged out")
}

// GetMe returns the caller's profile and current subscription, if any.
func GetMe(c *fiber.Ctx) error {
	claims := currentUser(c)

	var user model.User
	if err := database.GetDB().WithContext(c.UserContext()).First(&user, claims.UserID).Error; err != nil {
		return dbError(err, "User not found")
	}

	current, err := deps.Engine.CurrentSubscription(c.UserContext(), user.ID)
	if err != nil {
		return engineError(err)
	}

	return response.OK(c, fiber.Map{
		"user":         user.GetPublicProfile(),
		"subscription": current,
	}, "")
}

func issueToken(c *fiber.Ctx, user *model.User) (string, error) {
	token, err := jwt.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return "", response.NewError(fiber.StatusInternalServerError, "Could not generate token", err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		HTTPOnly: true,
		Secure:   deps.SecureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(jwt.TTL()),
	})
	return token, nil
}
