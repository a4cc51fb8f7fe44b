package model

import (
	"gorm.io/gorm"
)

type QueryStatus string

const (
	QueryStatusPending  QueryStatus = "pending"
	QueryStatusResolved QueryStatus = "resolved"
	QueryStatusRejected QueryStatus = "rejected"
)

// PropertyQuery is an inquiry a visitor sends about a listing.
type PropertyQuery struct {
	gorm.Model
	PropertyID   uint        `json:"property_id" gorm:"index;not null"`
	OwnerID      uint        `json:"owner_id" gorm:"index;not null"`
	SenderName   string      `json:"sender_name" gorm:"not null"`
	SenderEmail  string      `json:"sender_email" gorm:"not null"`
	SenderMobile string      `json:"sender_mobile" gorm:"not null"`
	Query        string      `json:"query" gorm:"type:text;not null"`
	Status       QueryStatus `json:"status" gorm:"type:varchar(16);default:'pending'"`

	Property Property `json:"property" gorm:"foreignKey:PropertyID"`
}
