package subscription

import (
	"context"
	"errors"

	"estatelink_backend/internal/model"
)

type Tier string

const (
	TierNone Tier = "none"
	TierFree Tier = "free"
	TierPaid Tier = "paid"
)

type TierLimits struct {
	MaxImagesPerListing int
}

var TierFeatures = map[Tier]TierLimits{
	TierNone: {MaxImagesPerListing: 5},
	TierFree: {MaxImagesPerListing: 5},
	TierPaid: {MaxImagesPerListing: 16},
}

// TierOf classifies the plan behind a subscribed plan. A nil plan has no tier.
func TierOf(plan *model.SubscriptionPlan) Tier {
	switch {
	case plan == nil:
		return TierNone
	case plan.IsFree():
		return TierFree
	default:
		return TierPaid
	}
}

func LimitsFor(plan *model.SubscriptionPlan) TierLimits {
	return TierFeatures[TierOf(plan)]
}

// LimitsForUser returns the limits of the plan behind the user's current subscription.
func (e *Engine) LimitsForUser(ctx context.Context, userID uint) (TierLimits, error) {
	sub, err := e.CurrentSubscription(ctx, userID)
	if err != nil || sub == nil {
		return LimitsFor(nil), err
	}
	plan, err := e.store.FindPlan(ctx, sub.PlanID)
	if errors.Is(err, ErrPlanNotFound) {
		return LimitsFor(nil), nil
	}
	if err != nil {
		return TierLimits{}, err
	}
	return LimitsFor(plan), nil
}
