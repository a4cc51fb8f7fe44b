package model

import "gorm.io/gorm"

// Banner placements
type BannerType string

const (
	BannerTypeProperty BannerType = "property"
	BannerTypeListing  BannerType = "listing"
	BannerTypeHome     BannerType = "home"
	BannerTypeCity     BannerType = "city"
)

type Banner struct {
	gorm.Model
	Type        BannerType `json:"type" gorm:"type:varchar(16);not null;default:'home';index"`
	CityName    string     `json:"city_name"`
	Title       string     `json:"title" gorm:"not null"`
	Description string     `json:"description" gorm:"type:text"`
	Image       string     `json:"image" gorm:"not null"`
	Link        string     `json:"link"`
	IsActive    bool       `json:"is_active" gorm:"not null;index"`
}
