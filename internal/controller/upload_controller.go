package controller

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"

	"estatelink_backend/internal/model"
	"estatelink_backend/pkg/database"
	"estatelink_backend/pkg/logger"
	"estatelink_backend/pkg/response"
	"estatelink_backend/pkg/utils/cloudflare"
	"estatelink_backend/pkg/utils/image"
	"estatelink_backend/pkg/utils/validation"

	"github.com/gofiber/fiber/v2"
)

// UploadPropertyImage re-encodes an uploaded image, stores it and attaches it
// to the property. The number of images is capped by the owner's plan.
func UploadPropertyImage(c *fiber.Ctx) error {
	ctx := c.UserContext()
	claims := currentUser(c)

	propertyID, err := paramID(c, "property_id", "property ID")
	if err != nil {
		return err
	}

	db := database.GetDB().WithContext(ctx)
	var property model.Property
	if err := db.First(&property, propertyID).Error; err != nil {
		return dbError(err, "Property not found")
	}
	if property.UserID != claims.UserID && !claims.IsAdmin() {
		return response.Fail(c, fiber.StatusForbidden, "Not authorized to upload images for this property")
	}

	limits, err := deps.Engine.LimitsForUser(ctx, property.UserID)
	if err != nil {
		return engineError(err)
	}
	var imageCount int64
	if err := db.Model(&model.PropertyImage{}).Where("property_id = ?", propertyID).Count(&imageCount).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not count images", err)
	}
	if imageCount >= int64(limits.MaxImagesPerListing) {
		return response.Rejected(c, fmt.Sprintf("Maximum image limit reached (%d)", limits.MaxImagesPerListing))
	}

	file, err := c.FormFile("image")
	if err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "No file uploaded")
	}

	var owner model.User
	if err := db.Select("id", "email").First(&owner, property.UserID).Error; err != nil {
		return dbError(err, "User not found")
	}

	url, err := storeImage(ctx, file, owner.Email, property.Slug)
	if err != nil {
		return err
	}

	img := model.PropertyImage{
		PropertyID: property.ID,
		URL:        url,
		Order:      int(imageCount),
		IsCover:    imageCount == 0,
	}
	if err := db.Create(&img).Error; err != nil {
		discardImage(ctx, url)
		return response.NewError(fiber.StatusInternalServerError, "Could not save image record", err)
	}

	return response.Created(c, img, "Image uploaded successfully")
}

func DeletePropertyImage(c *fiber.Ctx) error {
	ctx := c.UserContext()
	claims := currentUser(c)

	imageID, err := paramID(c, "image_id", "image ID")
	if err != nil {
		return err
	}

	db := database.GetDB().WithContext(ctx)
	var img model.PropertyImage
	if err := db.Preload("Property").First(&img, imageID).Error; err != nil {
		return dbError(err, "Image not found")
	}
	if img.Property.UserID != claims.UserID && !claims.IsAdmin() {
		return response.Fail(c, fiber.StatusForbidden, "Not authorized to delete this image")
	}

	if err := db.Delete(&img).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not delete image", err)
	}
	discardImage(ctx, img.URL)

	return response.OK(c, nil, "Image deleted successfully")
}

// storeImage validates an uploaded file, re-encodes it and puts it in object
// storage under owner/folder. Errors are already HTTP errors.
func storeImage(ctx context.Context, file *multipart.FileHeader, owner, folder string) (string, error) {
	if err := validation.ValidateImage(file); err != nil {
		return "", response.NewError(fiber.StatusBadRequest, err.Error(), err)
	}

	src, err := file.Open()
	if err != nil {
		return "", response.NewError(fiber.StatusInternalServerError, "Could not read upload", err)
	}
	defer src.Close()

	processed, err := image.ProcessImage(src)
	if err != nil {
		return "", response.NewError(fiber.StatusBadRequest, err.Error(), err)
	}

	uploaded, err := deps.Storage.UploadImage(ctx, cloudflare.UploadImageConfig{
		Body:        bytes.NewReader(processed.Body.Bytes()),
		ContentType: processed.ContentType,
		Ext:         processed.Ext,
		Owner:       owner,
		Folder:      folder,
	})
	if err != nil {
		return "", response.NewError(fiber.StatusInternalServerError, "Could not upload image", err)
	}
	return uploaded.URL, nil
}

// discardImage removes a stored object. Failures only leave an orphan behind.
func discardImage(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := deps.Storage.DeleteImage(ctx, url); err != nil {
		logger.FromContext(ctx).Warn("could not delete image object", "error", err, "url", url)
	}
}
