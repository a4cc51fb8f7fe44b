package controller

import (
	"strings"

	"estatelink_backend/internal/model"
	"estatelink_backend/pkg/database"
	"estatelink_backend/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type PlanPriceInput struct {
	Monthly   float64 `json:"Monthly" validate:"gte=0"`
	Quarterly float64 `json:"Quarterly" validate:"gte=0"`
	Yearly    float64 `json:"Yearly" validate:"gte=0"`
}

type PlanInput struct {
	Name          string         `json:"name" validate:"required,max=100"`
	Title         string         `json:"title" validate:"required,max=100"`
	Description   string         `json:"description" validate:"required"`
	Price         PlanPriceInput `json:"price"`
	MaxProperties int            `json:"max_properties" validate:"required,min=1"`
	IsActive      *bool          `json:"is_active"`
}

func (in *PlanInput) apply(plan *model.SubscriptionPlan) {
	plan.Name = in.Name
	plan.Title = in.Title
	plan.Description = in.Description
	plan.Price = model.PlanPrice{
		Monthly:   in.Price.Monthly,
		Quarterly: in.Price.Quarterly,
		Yearly:    in.Price.Yearly,
	}
	plan.MaxProperties = in.MaxProperties
	if in.IsActive != nil {
		plan.IsActive = *in.IsActive
	}
}

// ListPlans lists the catalog. ?is_active=true|false filters it.
func ListPlans(c *fiber.Ctx) error {
	p := pageParams(c)
	q := database.GetDB().WithContext(c.UserContext()).Model(&model.SubscriptionPlan{})
	switch c.Query("is_active") {
	case "true":
		q = q.Where("is_active = ?", true)
	case "false":
		q = q.Where("is_active = ?", false)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not count plans", err)
	}
	var plans []model.SubscriptionPlan
	if err := q.Order("id ASC").Offset(p.offset()).Limit(p.Limit).Find(&plans).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not fetch plans", err)
	}

	return response.OK(c, newPage(p, total, plans), "Subscription plans fetched successfully")
}

func GetPlan(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "plan ID")
	if err != nil {
		return err
	}
	var plan model.SubscriptionPlan
	if err := database.GetDB().WithContext(c.UserContext()).First(&plan, id).Error; err != nil {
		return dbError(err, "Subscription plan not found")
	}
	return response.OK(c, plan, "Subscription plan fetched successfully")
}

func CreatePlan(c *fiber.Ctx) error {
	input := new(PlanInput)
	if err := bindJSON(c, input); err != nil {
		return err
	}

	db := database.GetDB().WithContext(c.UserContext())
	var count int64
	if err := db.Model(&model.SubscriptionPlan{}).
		Where("title = ?", strings.ToLower(strings.TrimSpace(input.Title))).
		Count(&count).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not check plan", err)
	}
	if count > 0 {
		return response.Rejected(c, "A plan with this title already exists")
	}

	plan := model.SubscriptionPlan{IsActive: true}
	input.apply(&plan)
	if err := db.Create(&plan).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not create plan", err)
	}
	return response.Created(c, plan, "Subscription plan created successfully")
}

// UpdatePlan edits a catalog entry. Instances already subscribed keep the allowance they were granted.
func UpdatePlan(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "plan ID")
	if err != nil {
		return err
	}
	input := new(PlanInput)
	if err := bindJSON(c, input); err != nil {
		return err
	}

	db := database.GetDB().WithContext(c.UserContext())
	var plan model.SubscriptionPlan
	if err := db.First(&plan, id).Error; err != nil {
		return dbError(err, "Subscription plan not found")
	}

	var count int64
	if err := db.Model(&model.SubscriptionPlan{}).
		Where("title = ? AND id <> ?", strings.ToLower(strings.TrimSpace(input.Title)), id).
		Count(&count).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not check plan", err)
	}
	if count > 0 {
		return response.Rejected(c, "A plan with this title already exists")
	}

	input.apply(&plan)
	if err := db.Save(&plan).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not update plan", err)
	}
	return response.OK(c, plan, "Subscription plan updated successfully")
}

func DeletePlan(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "plan ID")
	if err != nil {
		return err
	}
	res := database.GetDB().WithContext(c.UserContext()).Delete(&model.SubscriptionPlan{}, id)
	if res.Error != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not delete plan", res.Error)
	}
	if res.RowsAffected == 0 {
		return response.Fail(c, fiber.StatusNotFound, "Subscription plan not found")
	}
	return response.OK(c, nil, "Subscription plan deleted successfully")
}
