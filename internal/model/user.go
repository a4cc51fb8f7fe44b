package model

import (
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDealer  Role = "dealer"
	RoleAgent   Role = "agent"
	RoleBuilder Role = "builder"
	RoleOwner   Role = "owner"
)

type User struct {
	gorm.Model
	Name        string `json:"name" gorm:"not null"`
	Email       string `json:"email" gorm:"uniqueIndex;not null"`
	Password    string `json:"-" gorm:"not null"`
	Mobile      string `json:"mobile"`
	CountryCode string `json:"country_code"`
	Role        Role   `json:"role" gorm:"type:varchar(16);not null"`
	Avatar      string `json:"avatar"`

	// IsActive gates whether the account may list properties at all.
	IsActive bool `json:"is_active" gorm:"default:false"`
	// IsVerified is derived: set on subscription activation, cleared on expiry.
	IsVerified bool `json:"is_verified" gorm:"default:false"`

	Properties []Property `json:"-" gorm:"foreignKey:UserID"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) GetPublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"id":          u.ID,
		"name":        u.Name,
		"email":       u.Email,
		"mobile":      u.Mobile,
		"role":        u.Role,
		"avatar":      u.Avatar,
		"is_active":   u.IsActive,
		"is_verified": u.IsVerified,
	}
}
