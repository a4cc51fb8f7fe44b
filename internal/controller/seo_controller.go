package controller

import (
	"estatelink_backend/internal/model"
	"estatelink_backend/pkg/database"
	"estatelink_backend/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SeoInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Slug        string `json:"slug" validate:"omitempty,max=200"`
	Keywords    string `json:"keywords" validate:"required,max=1000"`
	Description string `json:"description" validate:"required,max=1000"`
	NoIndex     bool   `json:"no_index"`
}

type SeoUpdateInput struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Slug        *string `json:"slug" validate:"omitempty,min=1,max=200"`
	Keywords    *string `json:"keywords" validate:"omitempty,min=1,max=1000"`
	Description *string `json:"description" validate:"omitempty,min=1,max=1000"`
	NoIndex     *bool   `json:"no_index"`
}

// seoTitleTaken reports whether another entry already uses title.
func seoTitleTaken(db *gorm.DB, title string, exceptID uint) (bool, error) {
	var count int64
	q := db.Model(&model.SeoMeta{}).Where("LOWER(title) = LOWER(?)", title)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func CreateSeo(c *fiber.Ctx) error {
	input := new(SeoInput)
	if err := bindJSON(c, input); err != nil {
		return err
	}

	db := database.GetDB().WithContext(c.UserContext())
	taken, err := seoTitleTaken(db, input.Title, 0)
	if err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Database error", err)
	}
	if taken {
		return response.Rejected(c, "SEO metadata with this title already exists")
	}

	meta := model.SeoMeta{
		Title:       input.Title,
		Slug:        input.Slug,
		Keywords:    input.Keywords,
		Description: input.Description,
		NoIndex:     input.NoIndex,
	}
	if err := db.Create(&meta).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not create SEO metadata", err)
	}
	return response.Created(c, meta, "SEO metadata created successfully")
}

func UpdateSeo(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "SEO ID")
	if err != nil {
		return err
	}
	input := new(SeoUpdateInput)
	if err := bindJSON(c, input); err != nil {
		return err
	}

	db := database.GetDB().WithContext(c.UserContext())
	var meta model.SeoMeta
	if err := db.First(&meta, id).Error; err != nil {
		return dbError(err, "SEO metadata not found")
	}

	if input.Title != nil && *input.Title != meta.Title {
		taken, err := seoTitleTaken(db, *input.Title, meta.ID)
		if err != nil {
			return response.NewError(fiber.StatusInternalServerError, "Database error", err)
		}
		if taken {
			return response.Rejected(c, "SEO metadata with this title already exists")
		}
		meta.Title = *input.Title
	}
	if input.Slug != nil {
		meta.Slug = *input.Slug
	}
	if input.Keywords != nil {
		meta.Keywords = *input.Keywords
	}
	if input.Description != nil {
		meta.Description = *input.Description
	}
	if input.NoIndex != nil {
		meta.NoIndex = *input.NoIndex
	}

	if err := db.Save(&meta).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not update SEO metadata", err)
	}
	return response.OK(c, meta, "SEO metadata updated successfully")
}

func DeleteSeo(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "SEO ID")
	if err != nil {
		return err
	}
	result := database.GetDB().WithContext(c.UserContext()).Delete(&model.SeoMeta{}, id)
	if result.Error != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not delete SEO metadata", result.Error)
	}
	if result.RowsAffected == 0 {
		return response.Fail(c, fiber.StatusNotFound, "SEO metadata not found")
	}
	return response.OK(c, nil, "SEO metadata deleted successfully")
}

// ListSeo pages through entries, optionally filtered by title or keyword fragments.
func ListSeo(c *fiber.Ctx) error {
	p := pageParams(c)
	q := database.GetDB().WithContext(c.UserContext()).Model(&model.SeoMeta{})
	if title := c.Query("title"); title != "" {
		q = q.Where("title ILIKE ?", "%"+title+"%")
	}
	if keyword := c.Query("keyword"); keyword != "" {
		q = q.Where("keywords ILIKE ?", "%"+keyword+"%")
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not count SEO metadata", err)
	}
	var entries []model.SeoMeta
	if err := q.Order("created_at DESC").Offset(p.offset()).Limit(p.Limit).Find(&entries).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not fetch SEO metadata", err)
	}
	return response.OK(c, newPage(p, total, entries), "SEO metadata fetched successfully")
}

func GetSeo(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "SEO ID")
	if err != nil {
		return err
	}
	var meta model.SeoMeta
	if err := database.GetDB().WithContext(c.UserContext()).First(&meta, id).Error; err != nil {
		return dbError(err, "SEO metadata not found")
	}
	return response.OK(c, meta, "SEO metadata fetched successfully")
}

// GetSeoBySlug is what the frontend calls while rendering a page.
func GetSeoBySlug(c *fiber.Ctx) error {
	var meta model.SeoMeta
	err := database.GetDB().WithContext(c.UserContext()).
		Where("slug = ?", c.Params("slug")).First(&meta).Error
	if err != nil {
		return dbError(err, "SEO metadata not found")
	}
	return response.OK(c, meta, "SEO metadata fetched successfully")
}
