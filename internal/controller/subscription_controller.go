package controller

import (
	"context"

	"estatelink_backend/internal/model"
	"estatelink_backend/pkg/cron"
	"estatelink_backend/pkg/database"
	"estatelink_backend/pkg/email"
	"estatelink_backend/pkg/logger"
	"estatelink_backend/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SubscribeInput struct {
	Duration model.Duration `json:"duration" validate:"required,oneof=Monthly Quarterly Yearly Free"`
}

// Subscribe records a pending subscription to :planId for the caller.
func Subscribe(c *fiber.Ctx) error {
	planID, err := paramID(c, "planId", "plan ID")
	if err != nil {
		return err
	}
	input := new(SubscribeInput)
	if err := bindJSON(c, input); err != nil {
		return err
	}

	res, err := deps.Engine.RequestSubscription(c.UserContext(), currentUser(c).UserID, planID, input.Duration)
	if err != nil {
		return engineError(err)
	}
	if !res.OK() {
		return response.Rejected(c, res.Reason)
	}

	notifySubscription(c.UserContext(), "subscription-requested", res.Subscription)
	return response.Created(c, res.Subscription, "Plan subscribed successfully")
}

// ActivateSubscription makes a pending instance the user's active one.
func ActivateSubscription(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "subscription ID")
	if err != nil {
		return err
	}

	res, err := deps.Engine.ActivatePendingSubscription(c.UserContext(), id)
	if err != nil {
		return engineError(err)
	}

	notifySubscription(c.UserContext(), "subscription-activated", res.Subscription)
	return response.OK(c, res.Subscription, res.Reason)
}

// GetActiveSubscription returns the current instance of :userId, or of the
// caller when omitted. Only admins may look at other users.
func GetActiveSubscription(c *fiber.Ctx) error {
	claims := currentUser(c)
	userID := claims.UserID
	if c.Params("userId") != "" {
		id, err := paramID(c, "userId", "user ID")
		if err != nil {
			return err
		}
		if id != claims.UserID && !claims.IsAdmin() {
			return response.Fail(c, fiber.StatusForbidden, "Not authorized to view this subscription")
		}
		userID = id
	}

	sub, err := deps.Engine.CurrentSubscription(c.UserContext(), userID)
	if err != nil {
		return engineError(err)
	}
	if sub == nil {
		return response.OK(c, nil, "No active subscription found")
	}
	return response.OK(c, sub, "Active subscription fetched successfully")
}

func subscriptionQuery(c *fiber.Ctx) *gorm.DB {
	return database.GetDB().WithContext(c.UserContext()).Model(&model.SubscribedPlan{})
}

func withOwnerAndPlan(q *gorm.DB) *gorm.DB {
	return q.Preload("User").Preload("Plan")
}

// ListSubscriptions lists every subscribed plan, optionally filtered by ?status.
func ListSubscriptions(c *fiber.Ctx) error {
	p := pageParams(c)
	q := subscriptionQuery(c)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not count subscriptions", err)
	}
	var subs []model.SubscribedPlan
	if err := withOwnerAndPlan(q).Order("created_at DESC").Offset(p.offset()).Limit(p.Limit).Find(&subs).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not fetch subscriptions", err)
	}
	return response.OK(c, newPage(p, total, subs), "Subscribed plans fetched successfully")
}

func GetSubscription(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "subscription ID")
	if err != nil {
		return err
	}
	var sub model.SubscribedPlan
	if err := withOwnerAndPlan(subscriptionQuery(c)).First(&sub, id).Error; err != nil {
		return dbError(err, "Subscribed plan not found")
	}
	return response.OK(c, sub, "Subscribed plan fetched successfully")
}

func GetUserSubscriptions(c *fiber.Ctx) error {
	userID, err := paramID(c, "userId", "user ID")
	if err != nil {
		return err
	}
	var subs []model.SubscribedPlan
	if err := withOwnerAndPlan(subscriptionQuery(c)).Where("user_id = ?", userID).
		Order("created_at DESC").Find(&subs).Error; err != nil {
		return response.NewError(fiber.StatusInternalServerError, "Could not fetch subscriptions", err)
	}
	return response.OK(c, subs, "Subscribed plans fetched successfully")
}

func DeleteSubscription(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "subscription ID")
	if err != nil {
		return err
	}
	if err := deps.Engine.DeleteSubscription(c.UserContext(), id); err != nil {
		return engineError(err)
	}
	return response.OK(c, nil, "Subscribed plan deleted successfully")
}

// RunExpirySweep runs the expiry job now. It joins a run already in progress.
func RunExpirySweep(c *fiber.Ctx) error {
	return runJob(c, cron.JobSubscriptionExpiry, "Expiry sweep completed")
}

// notifySubscription mails the owner about a requested or activated instance.
func notifySubscription(ctx context.Context, kind string, sub *model.SubscribedPlan) {
	if sub == nil || email.GlobalEmailService == nil {
		return
	}
	store := deps.Engine.Store()
	user, err := store.FindUser(ctx, sub.UserID)
	if err != nil {
		logger.ForUser(ctx, sub.UserID).Warn("could not load subscriber for email", "error", err)
		return
	}
	planName := ""
	if sub.Plan != nil {
		planName = sub.Plan.Name
	} else if plan, err := store.FindPlan(ctx, sub.PlanID); err == nil {
		planName = plan.Name
	}

	data := email.SubscriptionEmailData{
		Name:           user.Name,
		PlanName:       planName,
		Duration:       string(sub.Duration),
		Amount:         sub.Amount,
		Currency:       deps.Currency,
		ListingOffered: sub.ListingOffered,
		StartDate:      sub.StartDate,
		EndDate:        sub.EndDate,
	}
	to := user.Email
	email.Go(kind, func(ctx context.Context) error {
		if kind == "subscription-activated" {
			return email.GlobalEmailService.SendSubscriptionActivatedEmail(ctx, to, data)
		}
		return email.GlobalEmailService.SendSubscriptionRequestedEmail(ctx, to, data)
	})
}
