package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TransactionStatus string

const (
	TransactionInitiated TransactionStatus = "initiated"
	TransactionCaptured  TransactionStatus = "captured"
	TransactionFailed    TransactionStatus = "failed"
)

// Transaction records one payment order against a plan and duration.
type Transaction struct {
	gorm.Model
	UserID           uint              `json:"user_id" gorm:"not null;index"`
	PlanID           uint              `json:"plan_id" gorm:"not null"`
	OrderID          string            `json:"order_id" gorm:"uniqueIndex;not null"`
	PaymentID        string            `json:"payment_id" gorm:"index"`
	Receipt          string            `json:"receipt"`
	Duration         Duration          `json:"duration" gorm:"type:varchar(16)"`
	Currency         string            `json:"currency"`
	Amount           float64           `json:"amount" gorm:"not null"`
	PaymentMethod    string            `json:"payment_method"`
	Status           TransactionStatus `json:"status" gorm:"type:varchar(16);default:'initiated'"`
	Details          datatypes.JSON    `json:"details"`
	SubscribedPlanID *uint             `json:"subscribed_plan_id"`

	User User             `json:"-" gorm:"foreignKey:UserID"`
	Plan SubscriptionPlan `json:"-" gorm:"foreignKey:PlanID"`
}
