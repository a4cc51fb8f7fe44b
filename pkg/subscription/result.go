package subscription

import (
	"errors"

	"estatelink_backend/internal/model"
)

var (
	ErrPlanNotFound         = errors.New("subscription plan not found")
	ErrSubscriptionNotFound = errors.New("subscribed plan not found")
	ErrUserNotFound         = errors.New("user not found")
)

// Outcome separates a completed operation from a business-rule refusal.
// Hard failures are reported through the error return instead.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeRejected Outcome = "rejected"
)

// Refusal messages returned to clients. Clients should not retry these automatically.
const (
	ReasonPendingExists     = "You already have a pending subscription awaiting activation"
	ReasonActivePaidExists  = "You already have an active paid subscription"
	ReasonPlanUnavailable   = "This subscription plan is not currently offered"
	ReasonNoSubscription    = "No active subscription found. Subscribe to a plan to list properties"
	ReasonQuotaExhausted    = "You have used all listings offered by your subscription"
	ReasonAccountInactive   = "Your account is not enabled to list properties"
	ReasonNothingToRelease  = "No current subscription to release a listing slot to"
	ReasonAlreadyActivated  = "Subscribed plan is already active"
	ReasonSubscriptionReady = "Subscribed plan made active successfully"
)

type Result struct {
	Outcome      Outcome
	Reason       string
	Subscription *model.SubscribedPlan
}

func (r Result) OK() bool {
	return r.Outcome == OutcomeOK
}

func granted(sub *model.SubscribedPlan, reason string) Result {
	return Result{Outcome: OutcomeOK, Reason: reason, Subscription: sub}
}

func rejected(reason string) Result {
	return Result{Outcome: OutcomeRejected, Reason: reason}
}
