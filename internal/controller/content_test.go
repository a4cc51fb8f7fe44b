package controller

import (
	"bytes"
	"image"
	"image/png"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"estatelink_backend/internal/model"
	"estatelink_backend/pkg/response"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// doForm sends a multipart form. A non-empty fileField attaches a small PNG.
func (e *testEnv) doForm(t *testing.T, method, path string, as *model.User, fields map[string]string, fileField string) (int, response.Envelope) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, "photo.png")
		require.NoError(t, err)
		require.NoError(t, png.Encode(part, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return e.send(t, req, as)
}

var (
	reviewColumns = []string{"id", "property_id", "name", "email", "stars", "comment", "image_url"}
	bannerColumns = []string{"id", "type", "city_name", "title", "image", "is_active"}
	seoColumns    = []string{"id", "title", "slug", "keywords", "description", "no_index"}
)

func TestCreateReviewWithPhoto(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery(`SELECT .* FROM "properties"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	env.mock.ExpectQuery(`INSERT INTO "reviews"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	status, body := env.doForm(t, "POST", "/api/properties/5/reviews", nil, map[string]string{
		"name":    "Meera",
		"email":   "Meera@Example.com",
		"stars":   "4",
		"comment": "Bright rooms",
	}, "image")
	require.Equal(t, fiber.StatusCreated, status, body.Message)

	review := body.Data.(map[string]interface{})
	assert.Equal(t, "meera@example.com", review["email"])
	assert.Equal(t, float64(4), review["stars"])
	assert.Equal(t, "https://cdn.example.com/reviews.webp", review["image_url"])
	require.Len(t, env.storage.uploads, 1)
	assert.Equal(t, "reviews", env.storage.uploads[0].Folder)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreateReviewDiscardsPhotoWhenInsertFails(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery(`SELECT .* FROM "properties"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	env.mock.ExpectQuery(`INSERT INTO "reviews"`).
		WillReturnError(assert.AnError)

	status, _ := env.doForm(t, "POST", "/api/properties/5/reviews", nil, map[string]string{
		"name": "Meera", "email": "meera@example.com", "stars": "5",
	}, "image")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, []string{"https://cdn.example.com/reviews.webp"}, env.storage.deleted)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreateReviewValidation(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, "POST", "/api/properties/5/reviews", nil,
		fiber.Map{"name": "Meera", "email": "meera@example.com", "stars": 6})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body.Errors, "stars")

	// inactive or missing listing
	env.mock.ExpectQuery(`SELECT .* FROM "properties"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	status, _ = env.do(t, "POST", "/api/properties/5/reviews", nil,
		fiber.Map{"name": "Meera", "email": "meera@example.com", "stars": 3})
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Empty(t, env.storage.uploads)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestListPropertyReviewsAveragesStars(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery(`SELECT COUNT\(\*\) AS total, COALESCE\(AVG\(stars\), 0\) AS average FROM "reviews"`).
		WillReturnRows(sqlmock.NewRows([]string{"total", "average"}).AddRow(3, 4.3333))
	env.mock.ExpectQuery(`SELECT \* FROM "reviews"`).
		WillReturnRows(sqlmock.NewRows(reviewColumns).
			AddRow(3, 5, "A", "a@example.com", 5, "", "").
			AddRow(2, 5, "B", "b@example.com", 4, "", "").
			AddRow(1, 5, "C", "c@example.com", 4, "", ""))

	status, body := env.do(t, "GET", "/api/properties/5/reviews?limit=2", nil, nil)
	require.Equal(t, fiber.StatusOK, status, body.Message)
	page := body.Data.(map[string]interface{})
	assert.Equal(t, 4.33, page["average_stars"])
	assert.Equal(t, float64(3), page["total_count"])
	assert.Equal(t, float64(2), page["total_pages"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestUpdateReviewReplacesPhoto(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery(`SELECT \* FROM "reviews"`).
		WillReturnRows(sqlmock.NewRows(reviewColumns).
			AddRow(7, 5, "Meera", "meera@example.com", 2, "Noisy", "https://cdn.example.com/old.webp"))
	env.mock.ExpectExec(`UPDATE "reviews" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	status, body := env.doForm(t, "PUT", "/api/reviews/7", &env.admin, map[string]string{"stars": "3"}, "image")
	require.Equal(t, fiber.StatusOK, status, body.Message)
	review := body.Data.(map[string]interface{})
	assert.Equal(t, float64(3), review["stars"])
	assert.Equal(t, "Noisy", review["comment"])
	assert.Equal(t, "https://cdn.example.com/reviews.webp", review["image_url"])
	assert.Equal(t, []string{"https://cdn.example.com/old.webp"}, env.storage.deleted)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestDeleteReviewIsAdminOnly(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, "DELETE", "/api/reviews/7", &env.dealer, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	env.mock.ExpectQuery(`SELECT \* FROM "reviews"`).
		WillReturnRows(sqlmock.NewRows(reviewColumns).
			AddRow(7, 5, "Meera", "meera@example.com", 2, "", "https://cdn.example.com/r.webp"))
	env.mock.ExpectExec(`UPDATE "reviews" SET "deleted_at"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	status, body := env.do(t, "DELETE", "/api/reviews/7", &env.admin, nil)
	require.Equal(t, fiber.StatusOK, status, body.Message)
	assert.Equal(t, []string{"https://cdn.example.com/r.webp"}, env.storage.deleted)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreateBanner(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.doForm(t, "POST", "/api/banners", &env.admin, map[string]string{"title": "Monsoon offers"}, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Banner image is required", body.Message)

	status, body = env.doForm(t, "POST", "/api/banners", &env.admin, map[string]string{"title": "Pune", "type": "city"}, "image")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body.Errors, "city_name")

	env.mock.ExpectQuery(`INSERT INTO "banners"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	status, body = env.doForm(t, "POST", "/api/banners", &env.admin, map[string]string{"title": "Monsoon offers"}, "image")
	require.Equal(t, fiber.StatusCreated, status, body.Message)

	banner := body.Data.(map[string]interface{})
	assert.Equal(t, "home", banner["type"])
	assert.Equal(t, false, banner["is_active"])
	assert.Equal(t, "https://cdn.example.com/banners.webp", banner["image"])
	require.Len(t, env.storage.uploads, 1)
	assert.Equal(t, env.admin.Email, env.storage.uploads[0].Owner)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestToggleBannerStatus(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery(`SELECT \* FROM "banners"`).
		WillReturnRows(sqlmock.NewRows(bannerColumns).AddRow(3, "home", "", "Sale", "https://cdn.example.com/b.webp", true))
	env.mock.ExpectExec(`UPDATE "banners" SET "is_active"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	status, body := env.do(t, "PATCH", "/api/banners/3/toggle", &env.admin, nil)
	require.Equal(t, fiber.StatusOK, status, body.Message)
	assert.Equal(t, "Banner deactivated successfully", body.Message)
	assert.Equal(t, false, body.Data.(map[string]interface{})["is_active"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestGetActiveBannersIsPublic(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery(`SELECT \* FROM "banners" WHERE is_active = \$1 AND type = \$2`).
		WillReturnRows(sqlmock.NewRows(bannerColumns).AddRow(4, "city", "Goa", "Beach homes", "https://cdn.example.com/g.webp", true))

	status, body := env.do(t, "GET", "/api/banners/active?type=city&limit=500", nil, nil)
	require.Equal(t, fiber.StatusOK, status, body.Message)
	assert.Len(t, body.Data, 1)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestDeleteBannersRemovesImages(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, "DELETE", "/api/banners", &env.admin, fiber.Map{"ids": []uint{}})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body.Errors, "ids")

	env.mock.ExpectQuery(`SELECT \* FROM "banners"`).
		WillReturnRows(sqlmock.NewRows(bannerColumns).
			AddRow(1, "home", "", "One", "https://cdn.example.com/1.webp", true).
			AddRow(2, "home", "", "Two", "https://cdn.example.com/2.webp", false))
	env.mock.ExpectExec(`UPDATE "banners" SET "deleted_at"`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	status, body = env.do(t, "DELETE", "/api/banners", &env.admin, fiber.Map{"ids": []uint{1, 2, 99}})
	require.Equal(t, fiber.StatusOK, status, body.Message)
	assert.Equal(t, float64(2), body.Data.(map[string]interface{})["deleted"])
	assert.ElementsMatch(t, []string{"https://cdn.example.com/1.webp", "https://cdn.example.com/2.webp"}, env.storage.deleted)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreateSeoRejectsDuplicateTitle(t *testing.T) {
	env := newTestEnv(t)
	input := fiber.Map{"title": "Luxury Villas in Goa", "keywords": "villa, goa", "description": "Sea-facing villas"}

	env.mock.ExpectQuery(`SELECT count\(\*\) FROM "seo_metadata"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	status, body := env.do(t, "POST", "/api/seo", &env.admin, input)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, response.OutcomeRejected, body.Outcome)
	assert.Nil(t, body.Data)

	env.mock.ExpectQuery(`SELECT count\(\*\) FROM "seo_metadata"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	env.mock.ExpectQuery(`INSERT INTO "seo_metadata"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	status, body = env.do(t, "POST", "/api/seo", &env.admin, input)
	require.Equal(t, fiber.StatusCreated, status, body.Message)
	assert.Equal(t, "luxury-villas-in-goa", body.Data.(map[string]interface{})["slug"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestGetSeoBySlug(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery(`SELECT \* FROM "seo_metadata" WHERE slug = \$1`).
		WillReturnRows(sqlmock.NewRows(seoColumns).AddRow(1, "Luxury Villas in Goa", "luxury-villas-in-goa", "villa", "Sea-facing villas", false))
	status, body := env.do(t, "GET", "/api/seo/slug/luxury-villas-in-goa", nil, nil)
	require.Equal(t, fiber.StatusOK, status, body.Message)
	assert.Equal(t, "Luxury Villas in Goa", body.Data.(map[string]interface{})["title"])

	env.mock.ExpectQuery(`SELECT \* FROM "seo_metadata" WHERE slug = \$1`).
		WillReturnRows(sqlmock.NewRows(seoColumns))
	status, _ = env.do(t, "GET", "/api/seo/slug/missing", nil, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = env.do(t, "GET", "/api/seo", &env.dealer, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}
