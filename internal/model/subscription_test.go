package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlanPricing(t *testing.T) {
	free := SubscriptionPlan{}
	assert.True(t, free.IsFree())
	assert.Equal(t, 0.0, free.PriceFor(DurationMonthly))

	paid := SubscriptionPlan{Price: PlanPrice{Monthly: 500, Quarterly: 1400, Yearly: 5000}}
	assert.False(t, paid.IsFree())
	assert.Equal(t, 500.0, paid.PriceFor(DurationMonthly))
	assert.Equal(t, 1400.0, paid.PriceFor(DurationQuarterly))
	assert.Equal(t, 5000.0, paid.PriceFor(DurationYearly))
	assert.Equal(t, 0.0, paid.PriceFor(DurationFree))
	assert.Equal(t, 0.0, paid.PriceFor("Weekly"))

	yearlyOnly := SubscriptionPlan{Price: PlanPrice{Yearly: 1}}
	assert.False(t, yearlyOnly.IsFree())
}

func TestPlanTitleIsNormalized(t *testing.T) {
	p := SubscriptionPlan{Title: "  Premium Plus "}
	assert.NoError(t, p.BeforeSave(nil))
	assert.Equal(t, "premium plus", p.Title)
}

func TestSubscribedPlanWindow(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	sub := SubscribedPlan{StartDate: start, EndDate: start.AddDate(0, 0, 28)}

	assert.True(t, sub.CoversDate(start))
	assert.True(t, sub.CoversDate(sub.EndDate))
	assert.False(t, sub.CoversDate(start.Add(-time.Second)))
	assert.False(t, sub.CoversDate(sub.EndDate.Add(time.Second)))
}

func TestSubscribedPlanQuota(t *testing.T) {
	sub := SubscribedPlan{ListingOffered: 3, Listed: 1}
	assert.Equal(t, 2, sub.Remaining())
	assert.False(t, sub.Exhausted())

	sub.Listed = 3
	assert.Equal(t, 0, sub.Remaining())
	assert.True(t, sub.Exhausted())

	// a shrunk allowance never reports negative room
	sub.ListingOffered = 2
	assert.Equal(t, 0, sub.Remaining())
	assert.True(t, sub.Exhausted())
}

func TestPublicProfileHidesPassword(t *testing.T) {
	u := User{Name: "Asha", Email: "asha@example.com", Password: "hash", Role: RoleDealer}
	profile := u.GetPublicProfile()
	assert.NotContains(t, profile, "password")
	assert.Equal(t, RoleDealer, profile["role"])
	assert.False(t, u.IsAdmin())
}
