package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DifficultPassage is a highlighted span of the article text, offsets in
// characters of Article.FullText.
type DifficultPassage struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AnnotationID uuid.UUID `gorm:"type:uuid;not null;index" json:"annotation_id"`
	TextContent  string    `gorm:"type:text;not null" json:"text_content"`
	StartOffset  int       `gorm:"not null" json:"start_offset"`
	EndOffset    int       `gorm:"not null" json:"end_offset"`
}

func (p *DifficultPassage) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
