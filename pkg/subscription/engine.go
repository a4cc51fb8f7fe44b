package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"estatelink_backend/internal/model"
	"estatelink_backend/pkg/logger"
)

// Engine owns every state change of subscribed plans and the listing
// quota they grant. Writes for one user are serialised twice: by an
// in-process mutex and by Store.LockUser inside the transaction.
type Engine struct {
	store Store
	now   func() time.Time
	locks *userLocks
}

type Option func(*Engine)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		now:   time.Now,
		locks: newUserLocks(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Store() Store {
	return e.store
}

// inUserTx runs fn in a transaction holding both locks for userID.
func (e *Engine) inUserTx(ctx context.Context, userID uint, fn func(tx Store) error) error {
	unlock := e.locks.lock(userID)
	defer unlock()

	return e.store.Transaction(ctx, func(tx Store) error {
		if err := tx.LockUser(ctx, userID); err != nil {
			return fmt.Errorf("lock user %d: %w", userID, err)
		}
		return fn(tx)
	})
}

// RequestSubscription records a pending subscription of planID for the user.
// It is refused while the user has a pending instance, or an active one
// on a paid plan. A free plan in use may be upgraded.
func (e *Engine) RequestSubscription(ctx context.Context, userID, planID uint, d model.Duration) (Result, error) {
	var res Result
	err := e.inUserTx(ctx, userID, func(tx Store) error {
		plan, refusal, err := checkRequest(ctx, tx, userID, planID)
		if err != nil {
			return err
		}
		if refusal != "" {
			res = rejected(refusal)
			return nil
		}

		now := e.now()
		sub := &model.SubscribedPlan{
			UserID:         userID,
			PlanID:         plan.ID,
			StartDate:      now,
			EndDate:        EndDate(now, d),
			ListingOffered: plan.MaxProperties,
			Listed:         0,
			IsActive:       false,
			Status:         model.SubscriptionPending,
			Duration:       d,
			Amount:         plan.PriceFor(d),
		}
		if err := tx.CreateSubscription(ctx, sub); err != nil {
			return fmt.Errorf("create subscribed plan: %w", err)
		}
		sub.Plan = plan
		res = granted(sub, "Subscription request recorded")
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	logger.ForUser(ctx, userID).Info("subscription requested",
		"plan_id", planID, "duration", d, "outcome", res.Outcome)
	return res, nil
}

// CheckRequest reports whether RequestSubscription would currently accept
// the request, without writing anything. The granted Result carries no subscription.
func (e *Engine) CheckRequest(ctx context.Context, userID, planID uint) (Result, error) {
	_, refusal, err := checkRequest(ctx, e.store, userID, planID)
	if err != nil {
		return Result{}, err
	}
	if refusal != "" {
		return rejected(refusal), nil
	}
	return granted(nil, "Subscription can be requested"), nil
}

func checkRequest(ctx context.Context, st Store, userID, planID uint) (*model.SubscriptionPlan, string, error) {
	if _, err := st.FindUser(ctx, userID); err != nil {
		return nil, "", err
	}
	plan, err := st.FindPlan(ctx, planID)
	if err != nil {
		return nil, "", err
	}
	if !plan.IsActive {
		return plan, ReasonPlanUnavailable, nil
	}

	open, err := st.ListOpenSubscriptions(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	for _, sub := range open {
		if sub.Status == model.SubscriptionPending {
			return plan, ReasonPendingExists, nil
		}
	}
	for _, sub := range open {
		// a plan that no longer exists is treated as paid
		if sub.Status == model.SubscriptionActive && (sub.Plan == nil || !sub.Plan.IsFree()) {
			return plan, ReasonActivePaidExists, nil
		}
	}
	return plan, "", nil
}

// GrantFreePlan requests the catalog's free plan for a newly registered user.
func (e *Engine) GrantFreePlan(ctx context.Context, userID uint) (Result, error) {
	plan, err := e.store.FindFreePlan(ctx)
	if err != nil {
		return Result{}, err
	}
	return e.RequestSubscription(ctx, userID, plan.ID, model.DurationFree)
}

// ActivatePendingSubscription turns a pending instance into the user's only
// active one. Unused quota of the instance it replaces is carried over, and
// the owner becomes verified. Activating an already active instance repairs
// the surrounding state without touching its counters.
func (e *Engine) ActivatePendingSubscription(ctx context.Context, id uint) (Result, error) {
	target, err := e.store.FindSubscription(ctx, id)
	if err != nil {
		return Result{}, err
	}
	userID := target.UserID

	var res Result
	var carried int
	err = e.inUserTx(ctx, userID, func(tx Store) error {
		// re-read under the lock
		target, err := tx.FindSubscription(ctx, id)
		if err != nil {
			return err
		}
		if target.Status != model.SubscriptionPending && target.Status != model.SubscriptionActive {
			return ErrSubscriptionNotFound
		}
		if _, err := tx.FindUser(ctx, userID); err != nil {
			return err
		}

		reason := ReasonAlreadyActivated
		if target.Status == model.SubscriptionPending {
			current, err := tx.FindQuotaSource(ctx, userID, e.now())
			if err != nil {
				return err
			}
			if current != nil && current.ID != target.ID {
				carried = current.Remaining()
				target.ListingOffered += carried
			}
			target.IsActive = true
			target.Status = model.SubscriptionActive
			reason = ReasonSubscriptionReady
		}

		// others first so the one-active index never sees two rows
		if _, err := tx.SupersedeSubscriptions(ctx, userID, target.ID); err != nil {
			return fmt.Errorf("supersede subscriptions: %w", err)
		}
		if err := tx.SaveSubscription(ctx, target); err != nil {
			return fmt.Errorf("save subscribed plan: %w", err)
		}
		if err := tx.SetUsersVerified(ctx, []uint{userID}, true); err != nil {
			return fmt.Errorf("verify user: %w", err)
		}
		res = granted(target, reason)
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	logger.ForUser(ctx, userID).Info("subscription activated",
		"subscription_id", id, "carried_over", carried)
	return res, nil
}

// ConsumeListingSlot takes one slot from the user's quota-granting instance.
// The instance stops granting quota once its allowance is used up.
func (e *Engine) ConsumeListingSlot(ctx context.Context, userID uint) (Result, error) {
	var res Result
	err := e.inUserTx(ctx, userID, func(tx Store) error {
		user, err := tx.FindUser(ctx, userID)
		if err != nil {
			return err
		}
		if !user.IsActive {
			res = rejected(ReasonAccountInactive)
			return nil
		}

		now := e.now()
		sub, err := tx.FindQuotaSource(ctx, userID, now)
		if err != nil {
			return err
		}
		if sub == nil {
			current, err := tx.FindCurrentSubscription(ctx, userID, now)
			if err != nil {
				return err
			}
			if current != nil && current.Exhausted() {
				res = rejected(ReasonQuotaExhausted)
			} else {
				res = rejected(ReasonNoSubscription)
			}
			return nil
		}

		if sub.Exhausted() {
			sub.IsActive = false
			if err := tx.SaveSubscription(ctx, sub); err != nil {
				return err
			}
			res = rejected(ReasonQuotaExhausted)
			return nil
		}

		sub.Listed++
		if sub.Listed >= sub.ListingOffered {
			sub.IsActive = false
		}
		if err := tx.SaveSubscription(ctx, sub); err != nil {
			return fmt.Errorf("save subscribed plan: %w", err)
		}
		res = granted(sub, "Listing slot reserved")
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	log := logger.ForUser(ctx, userID)
	if res.OK() {
		log.Debug("listing slot consumed",
			"subscription_id", res.Subscription.ID, "listed", res.Subscription.Listed)
	} else {
		log.Info("listing slot denied", "reason", res.Reason)
	}
	return res, nil
}

// ReleaseListingSlot gives one slot back to the user's current instance,
// reopening it if it had been exhausted. Having nothing to release is not an error.
func (e *Engine) ReleaseListingSlot(ctx context.Context, userID uint) (Result, error) {
	var res Result
	err := e.inUserTx(ctx, userID, func(tx Store) error {
		now := e.now()
		sub, err := tx.FindCurrentSubscription(ctx, userID, now)
		if err != nil {
			return err
		}
		if sub == nil {
			res = granted(nil, ReasonNothingToRelease)
			return nil
		}

		if sub.Listed > 0 {
			sub.Listed--
		}
		if sub.Listed < sub.ListingOffered && sub.CoversDate(now) {
			sub.IsActive = true
		}
		if err := tx.SaveSubscription(ctx, sub); err != nil {
			return fmt.Errorf("save subscribed plan: %w", err)
		}
		res = granted(sub, "Listing slot released")
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if res.Subscription != nil {
		logger.ForUser(ctx, userID).Debug("listing slot released",
			"subscription_id", res.Subscription.ID, "listed", res.Subscription.Listed)
	}
	return res, nil
}

// CurrentSubscription returns the user's active instance for today, or nil.
func (e *Engine) CurrentSubscription(ctx context.Context, userID uint) (*model.SubscribedPlan, error) {
	return e.store.FindCurrentSubscription(ctx, userID, e.now())
}

func (e *Engine) DeleteSubscription(ctx context.Context, id uint) error {
	sub, err := e.store.FindSubscription(ctx, id)
	if err != nil {
		return err
	}
	return e.inUserTx(ctx, sub.UserID, func(tx Store) error {
		return tx.DeleteSubscription(ctx, id)
	})
}

// ExpireStale retires every active instance whose end date has passed and
// clears the verified flag of its owner. Running it again is a no-op.
func (e *Engine) ExpireStale(ctx context.Context) (int64, error) {
	now := e.now()
	var expired int64
	err := e.store.Transaction(ctx, func(tx Store) error {
		lapsed, err := tx.ListLapsed(ctx, now)
		if err != nil {
			return fmt.Errorf("list lapsed subscriptions: %w", err)
		}
		if len(lapsed) == 0 {
			return nil
		}

		ids := make([]uint, 0, len(lapsed))
		seen := make(map[uint]bool)
		var users []uint
		for _, sub := range lapsed {
			ids = append(ids, sub.ID)
			if !seen[sub.UserID] {
				seen[sub.UserID] = true
				users = append(users, sub.UserID)
			}
		}

		if err := tx.SetUsersVerified(ctx, users, false); err != nil {
			return fmt.Errorf("unverify users: %w", err)
		}
		expired, err = tx.MarkExpired(ctx, ids)
		if err != nil {
			return fmt.Errorf("mark expired: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return expired, nil
}

// IsNotFound reports whether err is one of the engine's not-found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrSubscriptionNotFound) ||
		errors.Is(err, ErrUserNotFound)
}
