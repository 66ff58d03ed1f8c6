package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/cogload-backend/apperr"
	"github.com/vnkhanh/cogload-backend/models"
	"github.com/vnkhanh/cogload-backend/testutil"
)

func TestSubmitStoresAnnotationWithPassages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	article := testutil.SeedArticle(t, f.db, "A")
	user := testutil.SeedUser(t, f.db, "reader")

	ann, err := f.annotate.Submit(ctx, user, article.ID, validInput())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, ann.ID)
	assert.Equal(t, 7, ann.MentalEffortScore)
	assert.Equal(t, 120.5, ann.TimeSpentSeconds)
	assert.Equal(t, 0.0, ann.ActiveTimeSeconds)
	assert.Equal(t, 3, ann.PauseCount)
	require.Len(t, ann.DifficultPassages, 1)
	assert.Equal(t, ann.ID, ann.DifficultPassages[0].AnnotationID)

	assert.Equal(t, int64(1), testutil.Count(t, f.db, &models.Annotation{}))
	assert.Equal(t, int64(1), testutil.Count(t, f.db, &models.DifficultPassage{}))
}

func TestSubmitTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	article := testutil.SeedArticle(t, f.db, "A")
	user := testutil.SeedUser(t, f.db, "reader")

	_, err := f.annotate.Submit(ctx, user, article.ID, validInput())
	require.NoError(t, err)

	_, err = f.annotate.Submit(ctx, user, article.ID, validInput())
	assert.True(t, apperr.Is(err, apperr.CodeConflict))
	assert.Equal(t, int64(1), testutil.Count(t, f.db, &models.Annotation{}))
}

func TestSubmitUnknownArticle(t *testing.T) {
	f := newFixture(t)
	user := testutil.SeedUser(t, f.db, "reader")

	_, err := f.annotate.Submit(context.Background(), user, uuid.New(), validInput())
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	article := testutil.SeedArticle(t, f.db, "A")
	user := testutil.SeedUser(t, f.db, "reader")

	cases := map[string]func(in *AnnotationInput){
		"missing score":      func(in *AnnotationInput) { in.ClarityScore = nil },
		"score too low":      func(in *AnnotationInput) { in.MentalEffortScore = ptrInt(0) },
		"score too high":     func(in *AnnotationInput) { in.EmotionalDrainScore = ptrInt(11) },
		"empty passage text": func(in *AnnotationInput) { in.DifficultPassages[0].TextContent = "  " },
		"reversed offsets": func(in *AnnotationInput) {
			in.DifficultPassages[0].StartOffset = ptrInt(9)
			in.DifficultPassages[0].EndOffset = ptrInt(2)
		},
		"negative offset": func(in *AnnotationInput) { in.DifficultPassages[0].StartOffset = ptrInt(-1) },
		"missing offset":  func(in *AnnotationInput) { in.DifficultPassages[0].EndOffset = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			_, err := f.annotate.Submit(ctx, user, article.ID, in)
			assert.True(t, apperr.Is(err, apperr.CodeValidation), "got %v", err)
		})
	}
	assert.Equal(t, int64(0), testutil.Count(t, f.db, &models.Annotation{}))
}

func TestSubmitRequiresUser(t *testing.T) {
	f := newFixture(t)
	article := testutil.SeedArticle(t, f.db, "A")

	_, err := f.annotate.Submit(context.Background(), nil, article.ID, validInput())
	assert.True(t, apperr.Is(err, apperr.CodeUnauthorized))
}

func TestAnnotationInputCoercesStrings(t *testing.T) {
	body := `{
		"mental_effort_score": "8",
		"background_knowledge_score": 3.9,
		"emotional_drain_score": 1,
		"clarity_score": "10",
		"time_spent_seconds": "42.5",
		"scroll_back_count": "2",
		"difficult_passages": [{"text_content": "x", "start_offset": "1", "end_offset": 4}]
	}`
	var in AnnotationInput
	require.NoError(t, json.Unmarshal([]byte(body), &in))

	ann, err := BuildAnnotation(uuid.New(), uuid.New(), in)
	require.NoError(t, err)
	assert.Equal(t, 8, ann.MentalEffortScore)
	assert.Equal(t, 3, ann.BackgroundKnowledgeScore)
	assert.Equal(t, 10, ann.ClarityScore)
	assert.Equal(t, 42.5, ann.TimeSpentSeconds)
	assert.Equal(t, 2, ann.ScrollBackCount)
	assert.Equal(t, 0.0, ann.MouseActivityScore)
	assert.Equal(t, 1, ann.DifficultPassages[0].StartOffset)
}

func TestAnnotationInputRejectsGarbage(t *testing.T) {
	for _, body := range []string{
		`{"mental_effort_score": "eight"}`,
		`{"time_spent_seconds": "fast"}`,
		`{"mental_effort_score": true}`,
	} {
		var in AnnotationInput
		assert.Error(t, json.Unmarshal([]byte(body), &in), body)
	}
}
