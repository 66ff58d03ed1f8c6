package repos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vnkhanh/cogload-backend/models"
	"github.com/vnkhanh/cogload-backend/testutil"
)

func newAnnotation(articleID, userID uuid.UUID, score int) *models.Annotation {
	return &models.Annotation{
		ArticleID:                articleID,
		UserID:                   userID,
		MentalEffortScore:        score,
		BackgroundKnowledgeScore: score,
		EmotionalDrainScore:      score,
		ClarityScore:             score,
		DifficultPassages: []models.DifficultPassage{
			{TextContent: "second", StartOffset: 10, EndOffset: 16},
			{TextContent: "first", StartOffset: 0, EndOffset: 5},
		},
	}
}

func TestAnnotationRepoCreateWithPassages(t *testing.T) {
	db := testutil.DB(t)
	repo := NewAnnotationRepo(db, testutil.Logger(t))
	ctx := context.Background()

	user := testutil.SeedUser(t, db, "u")
	article := testutil.SeedArticle(t, db, "a")

	ann := newAnnotation(article.ID, user.ID, 7)
	require.NoError(t, repo.CreateWithPassages(ctx, nil, ann))
	require.Len(t, ann.DifficultPassages, 2)
	for _, p := range ann.DifficultPassages {
		assert.Equal(t, ann.ID, p.AnnotationID)
	}

	exists, err := repo.Exists(ctx, nil, article.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	listed, err := repo.ListForArticle(ctx, nil, article.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Len(t, listed[0].DifficultPassages, 2)
	assert.Equal(t, "first", listed[0].DifficultPassages[0].TextContent)
	require.NotNil(t, listed[0].User)
	assert.Equal(t, "u", listed[0].User.Username)
}

func TestAnnotationRepoUniquePerArticleAndUser(t *testing.T) {
	db := testutil.DB(t)
	repo := NewAnnotationRepo(db, testutil.Logger(t))
	ctx := context.Background()

	user := testutil.SeedUser(t, db, "u")
	article := testutil.SeedArticle(t, db, "a")

	require.NoError(t, repo.CreateWithPassages(ctx, nil, newAnnotation(article.ID, user.ID, 3)))
	err := repo.CreateWithPassages(ctx, nil, newAnnotation(article.ID, user.ID, 4))
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)

	assert.Equal(t, int64(1), testutil.Count(t, db, &models.Annotation{}))
	assert.Equal(t, int64(2), testutil.Count(t, db, &models.DifficultPassage{}))
}

func TestAnnotationRepoRollsBackWhenPassagesFail(t *testing.T) {
	db := testutil.DB(t)
	repo := NewAnnotationRepo(db, testutil.Logger(t))
	ctx := context.Background()

	user := testutil.SeedUser(t, db, "u")
	article := testutil.SeedArticle(t, db, "a")

	boom := errors.New("storage failure")
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_passages", func(tx *gorm.DB) {
		if tx.Statement.Table == "difficult_passages" {
			_ = tx.AddError(boom)
		}
	}))

	err := repo.CreateWithPassages(ctx, nil, newAnnotation(article.ID, user.ID, 5))
	require.ErrorIs(t, err, boom)

	assert.Equal(t, int64(0), testutil.Count(t, db, &models.Annotation{}))
	assert.Equal(t, int64(0), testutil.Count(t, db, &models.DifficultPassage{}))
}

func TestAnnotationRepoDeleteCascadesToPassages(t *testing.T) {
	db := testutil.DB(t)
	repo := NewAnnotationRepo(db, testutil.Logger(t))
	ctx := context.Background()

	user := testutil.SeedUser(t, db, "u")
	article := testutil.SeedArticle(t, db, "a")
	ann := newAnnotation(article.ID, user.ID, 5)
	require.NoError(t, repo.CreateWithPassages(ctx, nil, ann))

	require.NoError(t, db.Delete(&models.Annotation{}, "id = ?", ann.ID).Error)
	assert.Equal(t, int64(0), testutil.Count(t, db, &models.DifficultPassage{}))
}

func TestAnnotationRepoAverages(t *testing.T) {
	db := testutil.DB(t)
	repo := NewAnnotationRepo(db, testutil.Logger(t))
	ctx := context.Background()

	article := testutil.SeedArticle(t, db, "a")
	empty := testutil.SeedArticle(t, db, "empty")
	var raters []*models.User
	for i, score := range []int{4, 6, 8} {
		u := testutil.SeedUser(t, db, []string{"x", "y", "z"}[i])
		raters = append(raters, u)
		testutil.SeedAnnotation(t, db, article.ID, u.ID, score, time.Now())
	}

	avg, err := repo.Averages(ctx, nil, AverageFilter{ArticleID: article.ID})
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.Equal(t, int64(3), avg.Count)
	assert.InDelta(t, 6.0, avg.MentalEffort, 1e-9)
	assert.InDelta(t, 6.0, avg.Clarity, 1e-9)

	avg, err = repo.Averages(ctx, nil, AverageFilter{UserID: raters[2].ID})
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.InDelta(t, 8.0, avg.EmotionalDrain, 1e-9)

	avg, err = repo.Averages(ctx, nil, AverageFilter{ArticleID: empty.ID})
	require.NoError(t, err)
	assert.Nil(t, avg)
}

func TestAnnotationRepoDailyCounts(t *testing.T) {
	db := testutil.DB(t)
	repo := NewAnnotationRepo(db, testutil.Logger(t))
	ctx := context.Background()

	days := []time.Time{
		time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC),
		time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 27, 8, 0, 0, 0, time.UTC),
	}
	for i, at := range days {
		u := testutil.SeedUser(t, db, []string{"a", "b", "c", "d"}[i])
		art := testutil.SeedArticle(t, db, u.Username)
		testutil.SeedAnnotation(t, db, art.ID, u.ID, 5, at)
	}

	got, err := repo.DailyCounts(ctx, nil, 30)
	require.NoError(t, err)
	assert.Equal(t, []models.DailyCount{
		{Date: "2026-03-03", Count: 1},
		{Date: "2026-03-01", Count: 2},
		{Date: "2026-02-27", Count: 1},
	}, got)

	got, err = repo.DailyCounts(ctx, nil, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "2026-03-03", got[0].Date)
}
