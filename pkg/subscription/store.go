package subscription

import (
	"context"
	"time"

	"estatelink_backend/internal/model"
)

// Store is the persistence the engine needs. Lookups that may legitimately
// find nothing return (nil, nil); lookups by id return the package's
// not-found errors.
type Store interface {
	// Transaction runs fn against a store bound to a single transaction.
	Transaction(ctx context.Context, fn func(tx Store) error) error
	// LockUser serialises subscription writes for one user until the transaction ends.
	LockUser(ctx context.Context, userID uint) error

	FindUser(ctx context.Context, id uint) (*model.User, error)
	SetUsersVerified(ctx context.Context, userIDs []uint, verified bool) error

	FindPlan(ctx context.Context, id uint) (*model.SubscriptionPlan, error)
	FindFreePlan(ctx context.Context) (*model.SubscriptionPlan, error)

	FindSubscription(ctx context.Context, id uint) (*model.SubscribedPlan, error)
	// ListOpenSubscriptions returns pending and active instances with Plan loaded.
	ListOpenSubscriptions(ctx context.Context, userID uint) ([]model.SubscribedPlan, error)
	// FindQuotaSource returns the instance that currently grants quota:
	// is_active, status active and now inside its window.
	FindQuotaSource(ctx context.Context, userID uint, now time.Time) (*model.SubscribedPlan, error)
	// FindCurrentSubscription returns the status-active instance whose window
	// covers now, whether or not it is exhausted.
	FindCurrentSubscription(ctx context.Context, userID uint, now time.Time) (*model.SubscribedPlan, error)
	CreateSubscription(ctx context.Context, sub *model.SubscribedPlan) error
	SaveSubscription(ctx context.Context, sub *model.SubscribedPlan) error
	// SupersedeSubscriptions deactivates every active instance of the user except keepID.
	SupersedeSubscriptions(ctx context.Context, userID, keepID uint) (int64, error)
	DeleteSubscription(ctx context.Context, id uint) error

	// ListLapsed returns status-active instances whose end date is before now.
	ListLapsed(ctx context.Context, now time.Time) ([]model.SubscribedPlan, error)
	MarkExpired(ctx context.Context, ids []uint) (int64, error)
	// ListEndingBetween returns quota-granting instances ending in [from, to) with User and Plan loaded.
	ListEndingBetween(ctx context.Context, from, to time.Time) ([]model.SubscribedPlan, error)
}
