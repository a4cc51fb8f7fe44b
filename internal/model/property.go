package model

import (
	"fmt"

	"github.com/gosimple/slug"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Property Types
type PropertyType string

const (
	PropertyTypeHouse     PropertyType = "House"
	PropertyTypeApartment PropertyType = "Apartment"
	PropertyTypeCondo     PropertyType = "Condo"
	PropertyTypeVilla     PropertyType = "Villa"
	PropertyTypeLand      PropertyType = "Land"
)

// Property Status
type PropertyStatus string

const (
	PropertyStatusForSale PropertyStatus = "For Sale"
	PropertyStatusForRent PropertyStatus = "For Rent"
	PropertyStatusSold    PropertyStatus = "Sold"
	PropertyStatusRented  PropertyStatus = "Rented"
)

type Property struct {
	gorm.Model
	Title        string         `json:"title" gorm:"not null"`
	Slug         string         `json:"slug" gorm:"uniqueIndex:idx_user_property_slug;not null"`
	Description  string         `json:"description" gorm:"type:text"`
	Price        float64        `json:"price" gorm:"not null"`
	PropertyType PropertyType   `json:"property_type" gorm:"not null"`
	Status       PropertyStatus `json:"status" gorm:"not null;default:'For Sale'"`
	Features     datatypes.JSON `json:"features"`

	UserID uint `json:"user_id" gorm:"index;uniqueIndex:idx_user_property_slug"`

	// Address
	FullAddress string   `json:"full_address" gorm:"type:text"`
	City        string   `json:"city" gorm:"not null"`
	State       string   `json:"state" gorm:"not null"`
	PinCode     string   `json:"pin_code" gorm:"not null"`
	Country     string   `json:"country" gorm:"not null;default:'India'"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`

	// Specifications
	Bedrooms int     `json:"bedrooms"`
	Area     float64 `json:"area" gorm:"not null"`
	LandArea float64 `json:"land_area"`

	// IsActive is whether the listing is live. Each live listing holds one quota slot.
	IsActive bool `json:"is_active" gorm:"not null;index"`

	User   User            `json:"-" gorm:"foreignKey:UserID"`
	Images []PropertyImage `json:"images" gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
}

type PropertyImage struct {
	gorm.Model
	PropertyID uint   `json:"property_id" gorm:"index"`
	URL        string `json:"url" gorm:"not null"`
	IsCover    bool   `json:"is_cover" gorm:"default:false"`
	Order      int    `json:"order" gorm:"default:0"`

	Property Property `json:"-" gorm:"foreignKey:PropertyID"`
}

// BeforeCreate derives a per-owner unique slug from the title.
func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.Slug != "" {
		return nil
	}
	base := slug.Make(p.Title)
	candidate := base

	for i := 2; ; i++ {
		var count int64
		if err := tx.Model(&Property{}).
			Where("user_id = ? AND slug = ?", p.UserID, candidate).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			break
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}

	p.Slug = candidate
	return nil
}
