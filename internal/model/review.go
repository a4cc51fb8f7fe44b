package model

import (
	"strings"

	"gorm.io/gorm"
)

// Review is a visitor's star rating of a listing, optionally with a photo.
type Review struct {
	gorm.Model
	PropertyID uint   `json:"property_id" gorm:"index;not null"`
	Name       string `json:"name" gorm:"not null"`
	Email      string `json:"email" gorm:"not null"`
	Stars      int    `json:"stars" gorm:"not null;check:stars BETWEEN 1 AND 5"`
	Comment    string `json:"comment" gorm:"type:text"`
	ImageURL   string `json:"image_url"`
}

func (r *Review) BeforeSave(tx *gorm.DB) error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	return nil
}
