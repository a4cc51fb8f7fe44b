package controller

import (
	"time"

	"estatelink_backend/internal/model"
	"estatelink_backend/pkg/cron"
	"estatelink_backend/pkg/database"
	"estatelink_backend/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type DashboardStats struct {
	TotalListings     int64              `json:"total_listings"`
	ActiveListings    int64              `json:"active_listings"`
	TotalQueries      int64              `json:"total_queries"`
	PendingQueries    int64              `json:"pending_queries"`
	Subscription      *SubscriptionUsage `json:"subscription"`
	DailyStats        []DailyStat        `json:"daily_stats"`
	PropertyTypeStats []PropertyTypeStat `json:"property_type_stats"`
}

type SubscriptionUsage struct {
	ID             uint      `json:"id"`
	PlanID         uint      `json:"plan_id"`
	ListingOffered int       `json:"listing_offered"`
	Listed         int       `json:"listed"`
	Remaining      int       `json:"remaining"`
	EndDate        time.Time `json:"end_date"`
	IsActive       bool      `json:"is_active"`
}

type DailyStat struct {
	Date        string `json:"date"`
	NewListings int64  `json:"new_listings"`
	NewQueries  int64  `json:"new_queries"`
}

type PropertyTypeStat struct {
	Type   string `json:"type"`
	Count  int64  `json:"count"`
	Active int64  `json:"active"`
}

// GetDashboardStats summarises the caller's listings, inquiries and quota.
func GetDashboardStats(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUser(c).UserID
	db := database.GetDB().WithContext(ctx)

	var stats DashboardStats
	if err := db.Model(&model.Property{}).Where("user_id = ?", userID).Count(&stats.TotalListings).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not load stats", err)
	}
	if err := db.Model(&model.Property{}).Where("user_id = ? AND is_active = ?", userID, true).
		Count(&stats.ActiveListings).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not load stats", err)
	}
	if err := db.Model(&model.PropertyQuery{}).Where("owner_id = ?", userID).Count(&stats.TotalQueries).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not load stats", err)
	}
	if err := db.Model(&model.PropertyQuery{}).Where("owner_id = ? AND status = ?", userID, model.QueryStatusPending).
		Count(&stats.PendingQueries).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not load stats", err)
	}

	current, err := deps.Engine.CurrentSubscription(ctx, userID)
	if err != nil {
		return engineError(err)
	}
	if current != nil {
		stats.Subscription = &SubscriptionUsage{
			ID:             current.ID,
			PlanID:         current.PlanID,
			ListingOffered: current.ListingOffered,
			Listed:         current.Listed,
			Remaining:      current.Remaining(),
			EndDate:        current.EndDate,
			IsActive:       current.IsActive,
		}
	}

	// last 7 days, oldest first
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for i := 6; i >= 0; i-- {
		from := today.AddDate(0, 0, -i)
		to := from.AddDate(0, 0, 1)
		stat := DailyStat{Date: from.Format("2006-01-02")}
		if err := db.Model(&model.Property{}).
			Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, from, to).
			Count(&stat.NewListings).Error; err != nil {
			return response.NewError(fiber.StatusInternalServerError, "Could not load stats", err)
		}
		if err := db.Model(&model.PropertyQuery{}).
			Where("owner_id = ? AND created_at >= ? AND created_at < ?", userID, from, to).
			Count(&stat.NewQueries).Error; err != nil {
			return response.NewError(fiber.StatusInternalServerError, "Could not load stats", err)
		}
		stats.DailyStats = append(stats.DailyStats, stat)
	}

	if err := db.Model(&model.Property{}).
		Select("property_type AS type, COUNT(*) AS count, COUNT(*) FILTER (WHERE is_active) AS active").
		Where("user_id = ?", userID).
		Group("property_type").
		Order("count DESC").
		Scan(&stats.PropertyTypeStats).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not load stats", err)
	}

	return response.OK(c, stats, "")
}

type RecentTransaction struct {
	ID        uint      `json:"id"`
	OrderID   string    `json:"order_id"`
	Amount    float64   `json:"amount"`
	UserName  string    `json:"user_name"`
	CreatedAt time.Time `json:"created_at"`
}

type MonthlyRevenue struct {
	Month   int     `json:"month"`
	Revenue float64 `json:"revenue"`
}

// GetAdminOverview lists recent dealers and payments and this year's revenue by month.
func GetAdminOverview(c *fiber.Ctx) error {
	db := database.GetDB().WithContext(c.UserContext())
	limit := c.QueryInt("limit", 5)
	if limit < 1 || limit > 50 {
		limit = 5
	}
	status := c.Query("status", string(model.TransactionCaptured))

	var dealers []model.User
	if err := db.Where("role = ?", model.RoleDealer).
		Order("created_at DESC").Limit(limit).Find(&dealers).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not load dealers", err)
	}
	profiles := make([]map[string]interface{}, 0, len(dealers))
	for i := range dealers {
		profiles = append(profiles, dealers[i].GetPublicProfile())
	}

	var recent []RecentTransaction
	if err := db.Table("transactions").
		Select("transactions.id, transactions.order_id, transactions.amount, users.name AS user_name, transactions.created_at").
		Joins("LEFT JOIN users ON users.id = transactions.user_id").
		Where("transactions.status = ? AND transactions.deleted_at IS NULL", status).
		Order("transactions.created_at DESC").
		Limit(limit).
		Scan(&recent).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not load transactions", err)
	}

	now := time.Now().UTC()
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	var revenue []MonthlyRevenue
	if err := db.Model(&model.Transaction{}).
		Select("CAST(EXTRACT(MONTH FROM created_at) AS INTEGER) AS month, SUM(amount) AS revenue").
		Where("status = ? AND created_at >= ?", model.TransactionCaptured, yearStart).
		Group("month").
		Order("month").
		Scan(&revenue).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not load revenue", err)
	}

	return response.OK(c, fiber.Map{
		"users":           profiles,
		"transactions":    recent,
		"monthly_revenue": revenue,
	}, "Data fetched successfully")
}

// SendListingDigestNow runs the weekly digest job immediately.
func SendListingDigestNow(c *fiber.Ctx) error {
	return runJob(c, cron.JobListingDigest, "Listing digest sent")
}
