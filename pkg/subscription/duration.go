package subscription

import (
	"time"

	"estatelink_backend/internal/model"
)

const (
	monthlyDays   = 28
	quarterlyDays = 84
	yearlyDays    = 365
	freeDays      = 3650
)

// EndDate computes the end of the validity window for a duration.
// An unrecognised duration yields start itself, i.e. an instance that is
// already due for expiry.
func EndDate(start time.Time, d model.Duration) time.Time {
	switch d {
	case model.DurationMonthly:
		return start.AddDate(0, 0, monthlyDays)
	case model.DurationQuarterly:
		return start.AddDate(0, 0, quarterlyDays)
	case model.DurationYearly:
		return start.AddDate(0, 0, yearlyDays)
	case model.DurationFree:
		return start.AddDate(0, 0, freeDays)
	default:
		return start
	}
}

func ValidDuration(d model.Duration) bool {
	switch d {
	case model.DurationMonthly, model.DurationQuarterly, model.DurationYearly, model.DurationFree:
		return true
	}
	return false
}
