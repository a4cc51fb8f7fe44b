package cron

import (
	"context"
	"fmt"
	"time"

	"estatelink_backend/pkg/email"
	"estatelink_backend/pkg/logger"

	"gorm.io/gorm"
)

const JobListingDigest = "listing-digest"

type ListingStats struct {
	UserID          uint
	UserEmail       string
	UserName        string
	LiveListings    int64
	NewQueries      int64
	PendingQueries  int64
	ListingsOffered int64
	ListingsUsed    int64
}

const listingStatsQuery = `
SELECT
    u.id AS user_id,
    u.email AS user_email,
    u.name AS user_name,
    (SELECT COUNT(*) FROM properties p
        WHERE p.user_id = u.id AND p.is_active AND p.deleted_at IS NULL) AS live_listings,
    (SELECT COUNT(*) FROM property_queries q
        WHERE q.owner_id = u.id AND q.created_at >= ? AND q.deleted_at IS NULL) AS new_queries,
    (SELECT COUNT(*) FROM property_queries q
        WHERE q.owner_id = u.id AND q.status = 'pending' AND q.deleted_at IS NULL) AS pending_queries,
    COALESCE(s.listing_offered, 0) AS listings_offered,
    COALESCE(s.listed, 0) AS listings_used
FROM users u
LEFT JOIN subscribed_plans s
    ON s.user_id = u.id AND s.status = 'active' AND s.deleted_at IS NULL
WHERE u.deleted_at IS NULL
  AND EXISTS (SELECT 1 FROM property_queries q
        WHERE q.owner_id = u.id AND q.created_at >= ? AND q.deleted_at IS NULL)
`

type DigestMailer interface {
	SendListingDigest(ctx context.Context, to string, data email.ListingDigestData) error
}

// SendListingDigest mails every owner who received enquiries during the
// past week a summary of listings, enquiries and remaining quota.
func SendListingDigest(db *gorm.DB, mailer DigestMailer, now func() time.Time) Job {
	return func(ctx context.Context) error {
		if mailer == nil {
			return nil
		}
		since := now().AddDate(0, 0, -7)

		var stats []ListingStats
		if err := db.WithContext(ctx).Raw(listingStatsQuery, since, since).Scan(&stats).Error; err != nil {
			return fmt.Errorf("fetch listing stats: %w", err)
		}
		logger.Info("sending listing digests", "owners", len(stats))

		for _, st := range stats {
			remaining := st.ListingsOffered - st.ListingsUsed
			if remaining < 0 {
				remaining = 0
			}
			err := mailer.SendListingDigest(ctx, st.UserEmail, email.ListingDigestData{
				Name:           st.UserName,
				Since:          since,
				LiveListings:   st.LiveListings,
				NewQueries:     st.NewQueries,
				PendingQueries: st.PendingQueries,
				SlotsRemaining: remaining,
			})
			if err != nil {
				logger.Error("listing digest not sent", err, "user_id", st.UserID)
			}
		}
		return nil
	}
}
