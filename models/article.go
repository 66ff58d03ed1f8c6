package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Article struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string     `gorm:"size:500;not null" json:"title"`
	Source      string     `gorm:"size:200" json:"source"`
	URL         string     `gorm:"size:1000" json:"url"`
	PublishDate *time.Time `gorm:"type:date" json:"publish_date,omitempty"`
	FullText    string     `gorm:"type:text;not null" json:"full_text"`
	AddedAt     time.Time  `gorm:"autoCreateTime" json:"added_at"`
}

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// ArticleWithCount is an article row joined with how many annotations it has.
type ArticleWithCount struct {
	Article
	AnnotationCount int64 `json:"annotation_count"`
}
