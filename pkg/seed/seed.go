package seed

import (
	"fmt"

	"estatelink_backend/internal/model"
	"estatelink_backend/pkg/logger"

	"gorm.io/gorm"
)

// DefaultPlans is the starting catalog. The free plan is what new dealers receive on registration.
var DefaultPlans = []model.SubscriptionPlan{
	{
		Name:          "Free Plan",
		Title:         "free",
		Description:   "Try the marketplace with a handful of listings",
		MaxProperties: 3,
		IsActive:      true,
	},
	{
		Name:          "Basic Plan",
		Title:         "basic",
		Description:   "For individual agents and small agencies",
		Price:         model.PlanPrice{Monthly: 999, Quarterly: 2699, Yearly: 9999},
		MaxProperties: 10,
		IsActive:      true,
	},
	{
		Name:          "Professional Plan",
		Title:         "professional",
		Description:   "For growing agencies and builders",
		Price:         model.PlanPrice{Monthly: 2499, Quarterly: 6999, Yearly: 24999},
		MaxProperties: 50,
		IsActive:      true,
	},
}

// SeedSubscriptionPlans inserts the missing catalog entries, matched by title.
func SeedSubscriptionPlans(db *gorm.DB, plans []model.SubscriptionPlan) error {
	for _, plan := range plans {
		plan := plan
		result := db.Where(model.SubscriptionPlan{Title: plan.Title}).FirstOrCreate(&plan)
		if result.Error != nil {
			return fmt.Errorf("seed plan %s: %w", plan.Title, result.Error)
		}
		if result.RowsAffected > 0 {
			logger.Info("seeded subscription plan", "title", plan.Title, "id", plan.ID)
		}
	}
	return nil
}
