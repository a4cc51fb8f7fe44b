package model

import (
	"strings"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// SeoMeta holds the search metadata a frontend page renders for its slug.
type SeoMeta struct {
	gorm.Model
	Title       string `json:"title" gorm:"uniqueIndex;not null"`
	Slug        string `json:"slug" gorm:"uniqueIndex;not null"`
	Keywords    string `json:"keywords" gorm:"type:text;not null"`
	Description string `json:"description" gorm:"type:text;not null"`
	NoIndex     bool   `json:"no_index" gorm:"not null;default:false"`
}

func (SeoMeta) TableName() string {
	return "seo_metadata"
}

// BeforeSave derives the slug from the title unless one was given.
func (s *SeoMeta) BeforeSave(tx *gorm.DB) error {
	s.Title = strings.TrimSpace(s.Title)
	if s.Slug == "" {
		s.Slug = slug.Make(s.Title)
	} else {
		s.Slug = slug.Make(s.Slug)
	}
	return nil
}
