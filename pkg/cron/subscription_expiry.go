package cron

import (
	"context"
	"fmt"
	"time"

	"estatelink_backend/pkg/email"
	"estatelink_backend/pkg/logger"
	"estatelink_backend/pkg/subscription"
)

const (
	JobSubscriptionExpiry  = "subscription-expiry"
	JobSubscriptionWarning = "subscription-expiry-warning"
)

// ExpireSubscriptions retires subscribed plans whose window has closed.
func ExpireSubscriptions(engine *subscription.Engine) Job {
	return func(ctx context.Context) error {
		n, err := engine.ExpireStale(ctx)
		if err != nil {
			return err
		}
		logger.Info("expired subscriptions", "count", n)
		return nil
	}
}

// WarningMailer is the part of the email service the warning job uses.
type WarningMailer interface {
	SendSubscriptionExpiryWarning(ctx context.Context, to string, data email.SubscriptionExpiryWarningData) error
}

// WarnExpiringSubscriptions mails owners whose subscription ends exactly
// daysBefore[i] calendar days from now. A failed delivery is logged and
// does not stop the rest of the batch.
func WarnExpiringSubscriptions(store subscription.Store, mailer WarningMailer, daysBefore []int, now func() time.Time) Job {
	return func(ctx context.Context) error {
		if mailer == nil {
			return nil
		}
		today := now()
		for _, days := range daysBefore {
			y, m, d := today.AddDate(0, 0, days).Date()
			from := time.Date(y, m, d, 0, 0, 0, 0, today.Location())
			to := from.AddDate(0, 0, 1)

			subs, err := store.ListEndingBetween(ctx, from, to)
			if err != nil {
				return fmt.Errorf("list subscriptions ending in %d days: %w", days, err)
			}
			logger.Info("found expiring subscriptions", "days", days, "count", len(subs))

			for _, sub := range subs {
				if sub.User == nil || sub.User.Email == "" {
					continue
				}
				planName := ""
				if sub.Plan != nil {
					planName = sub.Plan.Name
				}
				err := mailer.SendSubscriptionExpiryWarning(ctx, sub.User.Email, email.SubscriptionExpiryWarningData{
					Name:       sub.User.Name,
					PlanName:   planName,
					DaysLeft:   days,
					ExpiryDate: sub.EndDate,
					Remaining:  sub.Remaining(),
				})
				if err != nil {
					logger.Error("expiry warning not sent", err, "subscription_id", sub.ID, "email", sub.User.Email)
				}
			}
		}
		return nil
	}
}
