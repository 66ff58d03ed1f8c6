package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Annotation is one user's rating of one article. The composite unique index
// is the authoritative guard against duplicate submissions.
type Annotation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ArticleID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_annotation_article_user" json:"article_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_annotation_article_user;index" json:"user_id"`

	// Ratings, 1-10
	MentalEffortScore        int `gorm:"not null" json:"mental_effort_score"`
	BackgroundKnowledgeScore int `gorm:"not null" json:"background_knowledge_score"`
	EmotionalDrainScore      int `gorm:"not null" json:"emotional_drain_score"`
	ClarityScore             int `gorm:"not null" json:"clarity_score"`

	OptionalComments string `gorm:"type:text" json:"optional_comments"`

	// Reading telemetry
	TimeSpentSeconds   float64 `gorm:"default:0" json:"time_spent_seconds"`
	ActiveTimeSeconds  float64 `gorm:"default:0" json:"active_time_seconds"`
	ScrollDepthPercent float64 `gorm:"default:0" json:"scroll_depth_percent"`
	ScrollBackCount    int     `gorm:"default:0" json:"scroll_back_count"`
	PauseCount         int     `gorm:"default:0" json:"pause_count"`
	MouseActivityScore float64 `gorm:"default:0" json:"mouse_activity_score"`

	SubmittedAt time.Time `gorm:"not null;index" json:"timestamp_submitted"`

	Article           *Article           `gorm:"constraint:OnDelete:CASCADE;" json:"article,omitempty"`
	User              *User              `json:"user,omitempty"`
	DifficultPassages []DifficultPassage `gorm:"constraint:OnDelete:CASCADE;" json:"difficult_passages"`
}

func (a *Annotation) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.SubmittedAt.IsZero() {
		a.SubmittedAt = time.Now().UTC()
	}
	return nil
}
