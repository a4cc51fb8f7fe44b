package controller

import (
	"math"

	"estatelink_backend/internal/model"
	"estatelink_backend/pkg/database"
	"estatelink_backend/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Review bodies arrive as JSON or as multipart forms carrying an "image" file.
type ReviewInput struct {
	Name    string `json:"name" form:"name" validate:"required,max=100"`
	Email   string `json:"email" form:"email" validate:"required,email"`
	Stars   int    `json:"stars" form:"stars" validate:"required,min=1,max=5"`
	Comment string `json:"comment" form:"comment" validate:"max=2000"`
}

type ReviewUpdateInput struct {
	Stars   *int    `json:"stars" form:"stars" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment" form:"comment" validate:"omitempty,max=2000"`
}

type ReviewPage struct {
	Page
	AverageStars float64 `json:"average_stars"`
}

// CreateReview rates a live listing. The photo is optional.
func CreateReview(c *fiber.Ctx) error {
	ctx := c.UserContext()
	propertyID, err := paramID(c, "property_id", "property ID")
	if err != nil {
		return err
	}
	input := new(ReviewInput)
	if err := bindJSON(c, input); err != nil {
		return err
	}

	db := database.GetDB().WithContext(ctx)
	var property model.Property
	if err := db.Select("id").Where("is_active = ?", true).First(&property, propertyID).Error; err != nil {
		return dbError(err, "Property not found")
	}

	review := model.Review{
		PropertyID: property.ID,
		Name:       input.Name,
		Email:      input.Email,
		Stars:      input.Stars,
		Comment:    input.Comment,
	}
	if file, err := c.FormFile("image"); err == nil {
		if review.ImageURL, err = storeImage(ctx, file, input.Email, "reviews"); err != nil {
			return err
		}
	}

	if err := db.Create(&review).Error; err != nil {
		discardImage(ctx, review.ImageURL)
		return response.NewError(fiber.StatusInternalServerError, "Could not save review", err)
	}
	return response.Created(c, review, "Review submitted successfully")
}

// ListPropertyReviews pages through a listing's reviews with their average rating.
func ListPropertyReviews(c *fiber.Ctx) error {
	propertyID, err := paramID(c, "property_id", "property ID")
	if err != nil {
		return err
	}
	p := pageParams(c)

	q := database.GetDB().WithContext(c.UserContext()).
		Model(&model.Review{}).Where("property_id = ?", propertyID).
		Session(&gorm.Session{})

	var summary struct {
		Total   int64
		Average float64
	}
	if err := q.Select("COUNT(*) AS total, COALESCE(AVG(stars), 0) AS average").Scan(&summary).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not summarize reviews", err)
	}
	var reviews []model.Review
	if err := q.Order("created_at DESC").Offset(p.offset()).Limit(p.Limit).Find(&reviews).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not fetch reviews", err)
	}

	return response.OK(c, ReviewPage{
		Page:         newPage(p, summary.Total, reviews),
		AverageStars: math.Round(summary.Average*100) / 100,
	}, "Reviews fetched successfully")
}

func GetReview(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "review ID")
	if err != nil {
		return err
	}
	var review model.Review
	if err := database.GetDB().WithContext(c.UserContext()).First(&review, id).Error; err != nil {
		return dbError(err, "Review not found")
	}
	return response.OK(c, review, "Review fetched successfully")
}

// ListReviews is the moderation view across all listings.
func ListReviews(c *fiber.Ctx) error {
	p := pageParams(c)
	q := database.GetDB().WithContext(c.UserContext()).Model(&model.Review{})
	if propertyID := c.QueryInt("property_id"); propertyID > 0 {
		q = q.Where("property_id = ?", propertyID)
	}
	if stars := c.QueryInt("stars"); stars > 0 {
		q = q.Where("stars = ?", stars)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not count reviews", err)
	}
	var reviews []model.Review
	if err := q.Order("created_at DESC").Offset(p.offset()).Limit(p.Limit).Find(&reviews).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not fetch reviews", err)
	}
	return response.OK(c, newPage(p, total, reviews), "Reviews fetched successfully")
}

// UpdateReview edits the rating or comment. A new photo replaces the old one.
func UpdateReview(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := paramID(c, "id", "review ID")
	if err != nil {
		return err
	}
	input := new(ReviewUpdateInput)
	if err := bindJSON(c, input); err != nil {
		return err
	}

	db := database.GetDB().WithContext(ctx)
	var review model.Review
	if err := db.First(&review, id).Error; err != nil {
		return dbError(err, "Review not found")
	}

	if input.Stars != nil {
		review.Stars = *input.Stars
	}
	if input.Comment != nil {
		review.Comment = *input.Comment
	}
	old := review.ImageURL
	if file, err := c.FormFile("image"); err == nil {
		if review.ImageURL, err = storeImage(ctx, file, review.Email, "reviews"); err != nil {
			return err
		}
	}

	if err := db.Save(&review).Error; err != nil {
		if review.ImageURL != old {
			discardImage(ctx, review.ImageURL)
		}
		return response.NewError(fiber.StatusInternalServerError, "Could not update review", err)
	}
	if review.ImageURL != old {
		discardImage(ctx, old)
	}
	return response.OK(c, review, "Review updated successfully")
}

func DeleteReview(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := paramID(c, "id", "review ID")
	if err != nil {
		return err
	}

	db := database.GetDB().WithContext(ctx)
	var review model.Review
	if err := db.First(&review, id).Error; err != nil {
		return dbError(err, "Review not found")
	}
	if err := db.Delete(&review).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not delete review", err)
	}
	discardImage(ctx, review.ImageURL)
	return response.OK(c, nil, "Review deleted successfully")
}
