package controller

import (
	"context"

	"estatelink_backend/internal/model"
	"estatelink_backend/pkg/database"
	"estatelink_backend/pkg/email"
	"estatelink_backend/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type QueryInput struct {
	Name   string `json:"name" validate:"required,max=100"`
	Email  string `json:"email" validate:"required,email"`
	Mobile string `json:"mobile" validate:"required,len=10,numeric"`
	Query  string `json:"query" validate:"required,max=2000"`
}

type QueryStatusInput struct {
	Status model.QueryStatus `json:"status" validate:"required,oneof=pending resolved rejected"`
}

// CreateQuery records a visitor's inquiry about a live listing and notifies its owner.
func CreateQuery(c *fiber.Ctx) error {
	propertyID, err := paramID(c, "property_id", "property ID")
	if err != nil {
		return err
	}
	input := new(QueryInput)
	if err := bindJSON(c, input); err != nil {
		return err
	}

	db := database.GetDB().WithContext(c.UserContext())
	var property model.Property
	if err := db.Preload("User").Where("is_active = ?", true).First(&property, propertyID).Error; err != nil {
		return dbError(err, "Property not found")
	}

	query := model.PropertyQuery{
		PropertyID:   property.ID,
		OwnerID:      property.UserID,
		SenderName:   input.Name,
		SenderEmail:  input.Email,
		SenderMobile: input.Mobile,
		Query:        input.Query,
		Status:       model.QueryStatusPending,
	}
	if err := db.Omit("Property").Create(&query).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not create query", err)
	}

	owner := property.User
	data := email.QueryNotificationData{
		OwnerName:     owner.Name,
		PropertyTitle: property.Title,
		SenderName:    input.Name,
		SenderEmail:   input.Email,
		SenderMobile:  input.Mobile,
		Query:         input.Query,
	}
	email.Go("query-notification", func(ctx context.Context) error {
		return email.GlobalEmailService.SendQueryNotificationEmail(ctx, owner.Email, data)
	})

	return response.Created(c, nil, "Your inquiry has been sent successfully. The owner will contact you soon.")
}

// ListQueries lists inquiries on the caller's properties. Admins see all of them.
func ListQueries(c *fiber.Ctx) error {
	claims := currentUser(c)
	p := pageParams(c)

	q := database.GetDB().WithContext(c.UserContext()).Model(&model.PropertyQuery{})
	if !claims.IsAdmin() {
		q = q.Where("owner_id = ?", claims.UserID)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if propertyID := c.QueryInt("property_id"); propertyID > 0 {
		q = q.Where("property_id = ?", propertyID)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not count queries", err)
	}
	var queries []model.PropertyQuery
	if err := q.Preload("Property").Order("created_at DESC").
		Offset(p.offset()).Limit(p.Limit).Find(&queries).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not fetch queries", err)
	}
	return response.OK(c, newPage(p, total, queries), "Queries fetched successfully")
}

func UpdateQueryStatus(c *fiber.Ctx) error {
	claims := currentUser(c)
	id, err := paramID(c, "id", "query ID")
	if err != nil {
		return err
	}
	input := new(QueryStatusInput)
	if err := bindJSON(c, input); err != nil {
		return err
	}

	db := database.GetDB().WithContext(c.UserContext())
	var query model.PropertyQuery
	if err := db.First(&query, id).Error; err != nil {
		return dbError(err, "Query not found")
	}
	if query.OwnerID != claims.UserID && !claims.IsAdmin() {
		return response.Fail(c, fiber.StatusForbidden, "Not authorized to update this query")
	}

	if err := db.Model(&query).Update("status", input.Status).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not update query status", err)
	}
	return response.OK(c, query, "Query status updated successfully")
}
