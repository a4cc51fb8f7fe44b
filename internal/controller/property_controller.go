package controller

import (
	"context"
	"encoding/json"

	"estatelink_backend/internal/model"
	"estatelink_backend/pkg/database"
	"estatelink_backend/pkg/logger"
	"estatelink_backend/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PropertyInput struct {
	Title        string               `json:"title" validate:"required,max=200"`
	Description  string               `json:"description"`
	Price        float64              `json:"price" validate:"required,gt=0"`
	PropertyType model.PropertyType   `json:"property_type" validate:"required,oneof=House Apartment Condo Villa Land"`
	Status       model.PropertyStatus `json:"status" validate:"omitempty,oneof='For Sale' 'For Rent' Sold Rented"`
	Features     json.RawMessage      `json:"features"`

	FullAddress string   `json:"full_address"`
	City        string   `json:"city" validate:"required"`
	State       string   `json:"state" validate:"required"`
	PinCode     string   `json:"pin_code" validate:"required,len=6,numeric"`
	Country     string   `json:"country"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,longitude"`

	Bedrooms int     `json:"bedrooms" validate:"gte=0"`
	Area     float64 `json:"area" validate:"required,gt=0"`
	LandArea float64 `json:"land_area" validate:"gte=0"`
}

type PropertyStatusInput struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func (in *PropertyInput) apply(p *model.Property) {
	p.Title = in.Title
	p.Description = in.Description
	p.Price = in.Price
	p.PropertyType = in.PropertyType
	if in.Status != "" {
		p.Status = in.Status
	} else if p.Status == "" {
		p.Status = model.PropertyStatusForSale
	}
	if len(in.Features) > 0 {
		p.Features = datatypes.JSON(in.Features)
	}
	p.FullAddress = in.FullAddress
	p.City = in.City
	p.State = in.State
	p.PinCode = in.PinCode
	if in.Country != "" {
		p.Country = in.Country
	} else if p.Country == "" {
		p.Country = "India"
	}
	p.Latitude = in.Latitude
	p.Longitude = in.Longitude
	p.Bedrooms = in.Bedrooms
	p.Area = in.Area
	p.LandArea = in.LandArea
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("property_images.\"order\" ASC")
}

// CreateProperty lists a new property. A listing slot is taken before the
// insert and handed back if the insert fails.
func CreateProperty(c *fiber.Ctx) error {
	ctx := c.UserContext()
	claims := currentUser(c)
	input := new(PropertyInput)
	if err := bindJSON(c, input); err != nil {
		return err
	}

	res, err := deps.Engine.ConsumeListingSlot(ctx, claims.UserID)
	if err != nil {
		return engineError(err)
	}
	if !res.OK() {
		return response.Rejected(c, res.Reason)
	}

	property := model.Property{UserID: claims.UserID, IsActive: true}
	input.apply(&property)
	if err := database.GetDB().WithContext(ctx).Omit(clause.Associations).Create(&property).Error; err != nil {
		releaseSlot(ctx, claims.UserID, "create failed")
		return response.NewError(fiber.StatusInternalServerError, "Could not create property", err)
	}

	return response.Created(c, property, "Property created successfully")
}

// UpdateProperty edits listing details. Listing state changes go through UpdatePropertyStatus.
func UpdateProperty(c *fiber.Ctx) error {
	property := c.Locals("property").(*model.Property)
	input := new(PropertyInput)
	if err := bindJSON(c, input); err != nil {
		return err
	}

	input.apply(property)
	db := database.GetDB().WithContext(c.UserContext())
	if err := db.Omit(clause.Associations, "is_active", "slug", "user_id").Save(property).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not update property", err)
	}

	if err := db.Preload("Images", orderedImages).First(property, property.ID).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not reload property", err)
	}
	return response.OK(c, property, "Property updated successfully")
}

// UpdatePropertyStatus lists or delists a property. Relisting takes a slot
// from the owner's quota and delisting gives it back.
func UpdatePropertyStatus(c *fiber.Ctx) error {
	ctx := c.UserContext()
	property := c.Locals("property").(*model.Property)
	input := new(PropertyStatusInput)
	if err := bindJSON(c, input); err != nil {
		return err
	}
	want := *input.IsActive
	if property.IsActive == want {
		return response.OK(c, property, "Property status unchanged")
	}

	if want {
		res, err := deps.Engine.ConsumeListingSlot(ctx, property.UserID)
		if err != nil {
			return engineError(err)
		}
		if !res.OK() {
			return response.Rejected(c, res.Reason)
		}
	}

	flip := database.GetDB().WithContext(ctx).Model(&model.Property{}).
		Where("id = ? AND is_active = ?", property.ID, !want).
		Update("is_active", want)
	switch {
	case flip.Error != nil:
		if want {
			releaseSlot(ctx, property.UserID, "relist failed")
		}
		return response.NewError(fiber.StatusInternalServerError, "Could not update property status", flip.Error)
	case flip.RowsAffected == 0:
		// someone else changed it first
		if want {
			releaseSlot(ctx, property.UserID, "relist lost race")
		}
	case !want:
		releaseSlot(ctx, property.UserID, "delisted")
	}

	property.IsActive = want
	message := "Property delisted"
	if want {
		message = "Property listed"
	}
	return response.OK(c, property, message)
}

// DeleteProperty removes a property and its images. A live listing gives its slot back.
func DeleteProperty(c *fiber.Ctx) error {
	ctx := c.UserContext()
	property := c.Locals("property").(*model.Property)

	var images []model.PropertyImage
	var deleted int64
	err := database.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("property_id = ?", property.ID).Find(&images).Error; err != nil {
			return err
		}
		if err := tx.Where("property_id = ?", property.ID).Delete(&model.PropertyImage{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Property{}, property.ID)
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not delete property", err)
	}
	if deleted == 0 {
		return response.Fail(c, fiber.StatusNotFound, "Property not found")
	}

	if property.IsActive {
		releaseSlot(ctx, property.UserID, "deleted")
	}
	for _, img := range images {
		if err := deps.Storage.DeleteImage(ctx, img.URL); err != nil {
			logger.FromContext(ctx).Warn("could not delete property image", "error", err, "url", img.URL)
		}
	}

	return response.OK(c, nil, "Property deleted successfully")
}

func ListMyProperties(c *fiber.Ctx) error {
	p := pageParams(c)
	q := database.GetDB().WithContext(c.UserContext()).
		Model(&model.Property{}).
		Where("user_id = ?", currentUser(c).UserID)
	switch c.Query("is_active") {
	case "true":
		q = q.Where("is_active = ?", true)
	case "false":
		q = q.Where("is_active = ?", false)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not count properties", err)
	}
	var properties []model.Property
	if err := q.Preload("Images", orderedImages).
		Order("created_at DESC").Offset(p.offset()).Limit(p.Limit).
		Find(&properties).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not fetch properties", err)
	}
	return response.OK(c, newPage(p, total, properties), "Properties fetched successfully")
}

func publicOwner(c *fiber.Ctx) (*model.User, error) {
	userID, err := paramID(c, "userId", "user ID")
	if err != nil {
		return nil, err
	}
	var user model.User
	if err := database.GetDB().WithContext(c.UserContext()).First(&user, userID).Error; err != nil {
		return nil, dbError(err, "User not found")
	}
	return &user, nil
}

// ListUserProperties lists an owner's live listings.
func ListUserProperties(c *fiber.Ctx) error {
	user, err := publicOwner(c)
	if err != nil {
		return err
	}

	var properties []model.Property
	if err := database.GetDB().WithContext(c.UserContext()).
		Where("user_id = ? AND is_active = ?", user.ID, true).
		Preload("Images", orderedImages).
		Order("created_at DESC").
		Find(&properties).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not fetch properties", err)
	}

	return response.OK(c, fiber.Map{
		"user": fiber.Map{
			"id":     user.ID,
			"name":   user.Name,
			"avatar": user.Avatar,
			"role":   user.Role,
		},
		"properties": properties,
	}, "")
}

func GetPropertyBySlug(c *fiber.Ctx) error {
	user, err := publicOwner(c)
	if err != nil {
		return err
	}

	var property model.Property
	if err := database.GetDB().WithContext(c.UserContext()).
		Where("user_id = ? AND slug = ? AND is_active = ?", user.ID, c.Params("slug"), true).
		Preload("Images", orderedImages).
		First(&property).Error; err != nil {
		return dbError(err, "Property not found")
	}

	return response.OK(c, fiber.Map{
		"user": fiber.Map{
			"id":     user.ID,
			"name":   user.Name,
			"avatar": user.Avatar,
			"mobile": user.Mobile,
		},
		"property": property,
	}, "")
}

// releaseSlot gives a listing slot back. Failures are logged; the count is off by one until fixed by hand.
func releaseSlot(ctx context.Context, userID uint, why string) {
	if _, err := deps.Engine.ReleaseListingSlot(ctx, userID); err != nil {
		logger.ForUser(ctx, userID).Error("could not release listing slot", "error", err, "cause", why)
	}
}
