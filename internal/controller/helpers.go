package controller

import (
	"errors"
	"strconv"

	"estatelink_backend/pkg/cron"
	"estatelink_backend/pkg/response"
	"estatelink_backend/pkg/subscription"
	"estatelink_backend/pkg/utils/jwt"
	"estatelink_backend/pkg/utils/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func currentUser(c *fiber.Ctx) *jwt.Claims {
	return c.Locals("user").(*jwt.Claims)
}

func paramID(c *fiber.Ctx, name, label string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, response.NewError(fiber.StatusBadRequest, "Invalid "+label, nil)
	}
	return uint(id), nil
}

// bindJSON parses the body into out and runs its validate tags.
func bindJSON(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return response.NewError(fiber.StatusBadRequest, "Invalid input", err)
	}
	return validation.Struct(out)
}

// engineError maps subscription engine errors onto HTTP errors.
func engineError(err error) error {
	switch {
	case errors.Is(err, subscription.ErrPlanNotFound):
		return response.NewError(fiber.StatusNotFound, "Subscription plan not found", err)
	case errors.Is(err, subscription.ErrSubscriptionNotFound):
		return response.NewError(fiber.StatusNotFound, "Subscribed plan not found", err)
	case errors.Is(err, subscription.ErrUserNotFound):
		return response.NewError(fiber.StatusNotFound, "User not found", err)
	}
	return response.NewError(fiber.StatusInternalServerError, "Could not process subscription", err)
}

func dbError(err error, notFound string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NewError(fiber.StatusNotFound, notFound, err)
	}
	return response.NewError(fiber.StatusInternalServerError, "Database error", err)
}

type pagination struct {
	Page  int
	Limit int
}

func (p pagination) offset() int {
	return (p.Page - 1) * p.Limit
}

func pageParams(c *fiber.Ctx) pagination {
	p := pagination{Page: c.QueryInt("page", 1), Limit: c.QueryInt("limit", 10)}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > 100 {
		p.Limit = 10
	}
	return p
}

type Page struct {
	Items      interface{} `json:"items"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalCount int64       `json:"total_count"`
	TotalPages int64       `json:"total_pages"`
}

func newPage(p pagination, total int64, items interface{}) Page {
	pages := total / int64(p.Limit)
	if total%int64(p.Limit) != 0 {
		pages++
	}
	return Page{Items: items, Page: p.Page, Limit: p.Limit, TotalCount: total, TotalPages: pages}
}

// runJob triggers a scheduled job by name and waits for it.
func runJob(c *fiber.Ctx, name, done string) error {
	err := deps.Scheduler.RunNow(c.UserContext(), name)
	if errors.Is(err, cron.ErrUnknownJob) {
		return response.Fail(c, fiber.StatusNotFound, "Job is not scheduled")
	}
	if err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Job failed", err)
	}
	return response.OK(c, nil, done)
}
