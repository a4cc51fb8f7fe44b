package controller

import (
	"strconv"

	"estatelink_backend/internal/model"
	"estatelink_backend/pkg/database"
	"estatelink_backend/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Banners are created from multipart forms; the "image" file is mandatory.
type BannerInput struct {
	Type        model.BannerType `json:"type" form:"type" validate:"omitempty,oneof=property listing home city"`
	CityName    string           `json:"city_name" form:"city_name" validate:"required_if=Type city,max=100"`
	Title       string           `json:"title" form:"title" validate:"required,max=150"`
	Description string           `json:"description" form:"description" validate:"max=1000"`
	Link        string           `json:"link" form:"link" validate:"omitempty,url"`
	IsActive    bool             `json:"is_active" form:"is_active"`
}

type BannerUpdateInput struct {
	Type        *model.BannerType `json:"type" form:"type" validate:"omitempty,oneof=property listing home city"`
	CityName    *string           `json:"city_name" form:"city_name" validate:"omitempty,max=100"`
	Title       *string           `json:"title" form:"title" validate:"omitempty,min=1,max=150"`
	Description *string           `json:"description" form:"description" validate:"omitempty,max=1000"`
	Link        *string           `json:"link" form:"link" validate:"omitempty,url"`
	IsActive    *bool             `json:"is_active" form:"is_active"`
}

type BannerIDsInput struct {
	IDs []uint `json:"ids" validate:"required,min=1,dive,gt=0"`
}

// CreateBanner stores a new banner. Banners start hidden unless is_active is set.
func CreateBanner(c *fiber.Ctx) error {
	ctx := c.UserContext()
	input := new(BannerInput)
	if err := bindJSON(c, input); err != nil {
		return err
	}
	file, err := c.FormFile("image")
	if err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "Banner image is required")
	}

	banner := model.Banner{
		Type:        input.Type,
		CityName:    input.CityName,
		Title:       input.Title,
		Description: input.Description,
		Link:        input.Link,
		IsActive:    input.IsActive,
	}
	if banner.Type == "" {
		banner.Type = model.BannerTypeHome
	}
	if banner.Image, err = storeImage(ctx, file, currentUser(c).Email, "banners"); err != nil {
		return err
	}

	if err := database.GetDB().WithContext(ctx).Create(&banner).Error; err != nil {
		discardImage(ctx, banner.Image)
		return response.NewError(fiber.StatusInternalServerError, "Could not create banner", err)
	}
	return response.Created(c, banner, "Banner created successfully")
}

func UpdateBanner(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := paramID(c, "id", "banner ID")
	if err != nil {
		return err
	}
	input := new(BannerUpdateInput)
	if err := bindJSON(c, input); err != nil {
		return err
	}

	db := database.GetDB().WithContext(ctx)
	var banner model.Banner
	if err := db.First(&banner, id).Error; err != nil {
		return dbError(err, "Banner not found")
	}

	if input.Type != nil {
		banner.Type = *input.Type
	}
	if input.CityName != nil {
		banner.CityName = *input.CityName
	}
	if input.Title != nil {
		banner.Title = *input.Title
	}
	if input.Description != nil {
		banner.Description = *input.Description
	}
	if input.Link != nil {
		banner.Link = *input.Link
	}
	if input.IsActive != nil {
		banner.IsActive = *input.IsActive
	}
	if banner.Type == model.BannerTypeCity && banner.CityName == "" {
		return response.Fail(c, fiber.StatusBadRequest, "City banners need a city name")
	}

	old := banner.Image
	if file, err := c.FormFile("image"); err == nil {
		if banner.Image, err = storeImage(ctx, file, currentUser(c).Email, "banners"); err != nil {
			return err
		}
	}

	if err := db.Save(&banner).Error; err != nil {
		if banner.Image != old {
			discardImage(ctx, banner.Image)
		}
		return response.NewError(fiber.StatusInternalServerError, "Could not update banner", err)
	}
	if banner.Image != old {
		discardImage(ctx, old)
	}
	return response.OK(c, banner, "Banner updated successfully")
}

func GetBanner(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "banner ID")
	if err != nil {
		return err
	}
	var banner model.Banner
	if err := database.GetDB().WithContext(c.UserContext()).First(&banner, id).Error; err != nil {
		return dbError(err, "Banner not found")
	}
	return response.OK(c, banner, "Banner fetched successfully")
}

// GetActiveBanners serves the public carousel, newest first.
func GetActiveBanners(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 5)
	if limit < 1 || limit > 20 {
		limit = 5
	}

	q := database.GetDB().WithContext(c.UserContext()).Where("is_active = ?", true)
	if bannerType := c.Query("type"); bannerType != "" {
		q = q.Where("type = ?", bannerType)
	}
	if city := c.Query("city"); city != "" {
		q = q.Where("city_name ILIKE ?", city)
	}

	var banners []model.Banner
	if err := q.Order("created_at DESC").Limit(limit).Find(&banners).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not fetch banners", err)
	}
	return response.OK(c, banners, "Banners fetched successfully")
}

func ListBanners(c *fiber.Ctx) error {
	p := pageParams(c)
	q := database.GetDB().WithContext(c.UserContext()).Model(&model.Banner{})
	if raw := c.Query("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return response.Fail(c, fiber.StatusBadRequest, "Invalid is_active filter")
		}
		q = q.Where("is_active = ?", active)
	}
	if bannerType := c.Query("type"); bannerType != "" {
		q = q.Where("type = ?", bannerType)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not count banners", err)
	}
	var banners []model.Banner
	if err := q.Order("created_at DESC").Offset(p.offset()).Limit(p.Limit).Find(&banners).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not fetch banners", err)
	}
	return response.OK(c, newPage(p, total, banners), "Banners fetched successfully")
}

func ToggleBannerStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "banner ID")
	if err != nil {
		return err
	}

	db := database.GetDB().WithContext(c.UserContext())
	var banner model.Banner
	if err := db.First(&banner, id).Error; err != nil {
		return dbError(err, "Banner not found")
	}
	banner.IsActive = !banner.IsActive
	if err := db.Model(&banner).Update("is_active", banner.IsActive).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not update banner", err)
	}

	msg := "Banner deactivated successfully"
	if banner.IsActive {
		msg = "Banner activated successfully"
	}
	return response.OK(c, banner, msg)
}

func DeleteBanner(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := paramID(c, "id", "banner ID")
	if err != nil {
		return err
	}

	db := database.GetDB().WithContext(ctx)
	var banner model.Banner
	if err := db.First(&banner, id).Error; err != nil {
		return dbError(err, "Banner not found")
	}
	if err := db.Delete(&banner).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not delete banner", err)
	}
	discardImage(ctx, banner.Image)
	return response.OK(c, nil, "Banner deleted successfully")
}

// DeleteBanners removes every listed banner that exists. Unknown ids are ignored.
func DeleteBanners(c *fiber.Ctx) error {
	ctx := c.UserContext()
	input := new(BannerIDsInput)
	if err := bindJSON(c, input); err != nil {
		return err
	}

	db := database.GetDB().WithContext(ctx)
	var banners []model.Banner
	if err := db.Where("id IN ?", input.IDs).Find(&banners).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not fetch banners", err)
	}
	if len(banners) == 0 {
		return response.Fail(c, fiber.StatusNotFound, "No banners found")
	}
	if err := db.Delete(&banners).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not delete banners", err)
	}
	for _, b := range banners {
		discardImage(ctx, b.Image)
	}
	return response.OK(c, fiber.Map{"deleted": len(banners)}, "Banners deleted successfully")
}
