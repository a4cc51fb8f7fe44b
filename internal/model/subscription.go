package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Billing durations accepted when subscribing.
type Duration string

const (
	DurationMonthly   Duration = "Monthly"
	DurationQuarterly Duration = "Quarterly"
	DurationYearly    Duration = "Yearly"
	DurationFree      Duration = "Free"
)

type SubscriptionStatus string

const (
	SubscriptionPending  SubscriptionStatus = "pending"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
	SubscriptionExpired  SubscriptionStatus = "expired"
)

type PlanPrice struct {
	Monthly   float64 `json:"Monthly" gorm:"column:price_monthly;not null;default:0"`
	Quarterly float64 `json:"Quarterly" gorm:"column:price_quarterly;not null;default:0"`
	Yearly    float64 `json:"Yearly" gorm:"column:price_yearly;not null;default:0"`
}

// SubscriptionPlan is a catalog entry: price tiers plus the listing allowance it grants.
type SubscriptionPlan struct {
	gorm.Model
	Name          string    `json:"name" gorm:"not null"`
	Title         string    `json:"title" gorm:"uniqueIndex;not null"`
	Description   string    `json:"description" gorm:"type:text;not null"`
	Price         PlanPrice `json:"price" gorm:"embedded"`
	MaxProperties int       `json:"max_properties" gorm:"not null"`
	IsActive      bool      `json:"is_active" gorm:"not null"`
}

// IsFree reports whether every billing tier costs nothing.
func (p *SubscriptionPlan) IsFree() bool {
	return p.Price.Monthly == 0 && p.Price.Quarterly == 0 && p.Price.Yearly == 0
}

// PriceFor returns the amount charged for the given duration. Free and unknown durations cost 0.
func (p *SubscriptionPlan) PriceFor(d Duration) float64 {
	switch d {
	case DurationMonthly:
		return p.Price.Monthly
	case DurationQuarterly:
		return p.Price.Quarterly
	case DurationYearly:
		return p.Price.Yearly
	default:
		return 0
	}
}

func (p *SubscriptionPlan) BeforeSave(tx *gorm.DB) error {
	p.Title = strings.ToLower(strings.TrimSpace(p.Title))
	return nil
}

// SubscribedPlan is one user's time-boxed grant of listing quota.
//
// Status is the lifecycle stage and IsActive says whether the instance
// currently grants quota. An exhausted instance (Listed == ListingOffered)
// stays "active" with IsActive false.
type SubscribedPlan struct {
	gorm.Model
	UserID         uint               `json:"user_id" gorm:"not null;index;uniqueIndex:idx_subscribed_plans_one_active,where:is_active = true"`
	PlanID         uint               `json:"plan_id" gorm:"not null;index"`
	StartDate      time.Time          `json:"start_date" gorm:"not null"`
	EndDate        time.Time          `json:"end_date" gorm:"not null;index"`
	ListingOffered int                `json:"listing_offered" gorm:"not null;default:0"`
	Listed         int                `json:"listed" gorm:"not null;default:0"`
	IsActive       bool               `json:"is_active" gorm:"not null;default:false"`
	Status         SubscriptionStatus `json:"status" gorm:"type:varchar(16);not null;default:'pending';index"`
	Duration       Duration           `json:"duration" gorm:"type:varchar(16)"`
	Amount         float64            `json:"amount"`

	User *User             `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Plan *SubscriptionPlan `json:"plan,omitempty" gorm:"foreignKey:PlanID"`
}

// CoversDate reports whether t falls inside [StartDate, EndDate].
func (s *SubscribedPlan) CoversDate(t time.Time) bool {
	return !t.Before(s.StartDate) && !t.After(s.EndDate)
}

// Remaining is the unused part of the allowance, never negative.
func (s *SubscribedPlan) Remaining() int {
	if r := s.ListingOffered - s.Listed; r > 0 {
		return r
	}
	return 0
}

func (s *SubscribedPlan) Exhausted() bool {
	return s.Listed >= s.ListingOffered
}
