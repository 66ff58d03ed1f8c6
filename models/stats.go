package models

import "github.com/google/uuid"

// ScoreAverages holds the mean of each rating over a set of annotations.
// A nil *ScoreAverages means the set was empty.
type ScoreAverages struct {
	Count               int64   `json:"count"`
	MentalEffort        float64 `json:"mental_effort"`
	BackgroundKnowledge float64 `json:"background_knowledge"`
	EmotionalDrain      float64 `json:"emotional_drain"`
	Clarity             float64 `json:"clarity"`
}

type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD, UTC
	Count int64  `json:"count"`
}

type ArticleCount struct {
	ArticleID       uuid.UUID
	AnnotationCount int64
}
