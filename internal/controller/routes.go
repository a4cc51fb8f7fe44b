package controller

import (
	"estatelink_backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupRoutes(app *fiber.App) {
	api := app.Group("/api")
	auth := middleware.AuthMiddleware()
	admin := middleware.AdminOnly()

	// Auth
	api.Post("/auth/register", Register)
	api.Post("/auth/login", Login)
	api.Post("/auth/logout", Logout)
	api.Get("/me", auth, GetMe)

	// Public listings
	api.Get("/p/:userId", ListUserProperties)
	api.Get("/p/:userId/:slug", GetPropertyBySlug)
	api.Post("/properties/:property_id/queries", CreateQuery)
	api.Get("/properties/:property_id/reviews", ListPropertyReviews)
	api.Post("/properties/:property_id/reviews", CreateReview)
	api.Get("/reviews/:id", GetReview)
	api.Get("/banners/active", GetActiveBanners)
	api.Get("/seo/slug/:slug", GetSeoBySlug)

	// Subscription plan catalog
	plans := api.Group("/subscription-plans")
	plans.Get("/", ListPlans)
	plans.Get("/:id", GetPlan)
	plans.Post("/", auth, admin, CreatePlan)
	plans.Put("/:id", auth, admin, UpdatePlan)
	plans.Delete("/:id", auth, admin, DeletePlan)

	// Subscribed plans
	subs := api.Group("/subscription", auth)
	subs.Post("/subscribe/:planId", Subscribe)
	subs.Get("/get-active/:userId?", GetActiveSubscription)
	subs.Get("/status-update/:id", admin, ActivateSubscription)
	subs.Post("/sweep", admin, RunExpirySweep)
	subs.Get("/user/:userId", admin, GetUserSubscriptions)
	subs.Get("/", admin, ListSubscriptions)
	subs.Get("/:id", admin, GetSubscription)
	subs.Delete("/:id", admin, DeleteSubscription)

	// Payments
	pay := api.Group("/payment", auth)
	pay.Post("/create-order", CreateOrder)
	pay.Post("/verify", VerifyPayment)
	api.Get("/transactions", auth, admin, ListTransactions)
	api.Post("/webhook", HandleStripeWebhook)

	// Properties
	props := api.Group("/properties", auth)
	props.Get("/my", ListMyProperties)
	props.Post("/", CreateProperty)
	props.Delete("/images/:image_id", DeletePropertyImage)
	props.Post("/:property_id/images", UploadPropertyImage)
	props.Put("/:id", middleware.CheckPropertyOwnership(), UpdateProperty)
	props.Patch("/:id/status", middleware.CheckPropertyOwnership(), UpdatePropertyStatus)
	props.Delete("/:id", middleware.CheckPropertyOwnership(), DeleteProperty)

	// Property queries
	queries := api.Group("/queries", auth)
	queries.Get("/", ListQueries)
	queries.Put("/:id/status", UpdateQueryStatus)

	// Reviews
	reviews := api.Group("/reviews", auth, admin)
	reviews.Get("/", ListReviews)
	reviews.Put("/:id", UpdateReview)
	reviews.Delete("/:id", DeleteReview)

	// Banners
	banners := api.Group("/banners", auth, admin)
	banners.Get("/", ListBanners)
	banners.Post("/", CreateBanner)
	banners.Delete("/", DeleteBanners)
	banners.Get("/:id", GetBanner)
	banners.Put("/:id", UpdateBanner)
	banners.Patch("/:id/toggle", ToggleBannerStatus)
	banners.Delete("/:id", DeleteBanner)

	// SEO metadata
	seo := api.Group("/seo", auth, admin)
	seo.Get("/", ListSeo)
	seo.Post("/", CreateSeo)
	seo.Get("/:id", GetSeo)
	seo.Put("/:id", UpdateSeo)
	seo.Delete("/:id", DeleteSeo)

	// Settings
	settings := api.Group("/settings", auth)
	settings.Get("/profile", GetProfile)
	settings.Put("/profile", UpdateProfile)
	settings.Put("/password", ChangePassword)
	settings.Post("/avatar", UploadAvatar)

	// Dashboard
	api.Get("/dashboard/stats", auth, GetDashboardStats)

	// Admin
	adm := api.Group("/admin", auth, admin)
	adm.Get("/users", ListUsers)
	adm.Patch("/users/:id/active", SetUserActive)
	adm.Get("/overview", GetAdminOverview)
	adm.Post("/digest", SendListingDigestNow)
}
