package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/cogload-backend/apperr"
	"github.com/vnkhanh/cogload-backend/models"
	"github.com/vnkhanh/cogload-backend/testutil"
)

func TestPerArticleAverages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	article := testutil.SeedArticle(t, f.db, "A")
	empty := testutil.SeedArticle(t, f.db, "B")

	for i, score := range []int{4, 6, 8} {
		u := testutil.SeedUser(t, f.db, "u"+string(rune('a'+i)))
		testutil.SeedAnnotation(t, f.db, article.ID, u.ID, score, time.Now())
	}

	avg, err := f.stats.PerArticleAverages(ctx, article.ID)
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.Equal(t, int64(3), avg.Count)
	assert.InDelta(t, 6.0, avg.MentalEffort, 1e-9)
	assert.InDelta(t, 6.0, avg.Clarity, 1e-9)

	avg, err = f.stats.PerArticleAverages(ctx, empty.ID)
	require.NoError(t, err)
	assert.Nil(t, avg)

	_, err = f.stats.PerArticleAverages(ctx, uuid.New())
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestPerUserAverages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.SeedArticle(t, f.db, "A")
	b := testutil.SeedArticle(t, f.db, "B")
	user := testutil.SeedUser(t, f.db, "reader")
	idle := testutil.SeedUser(t, f.db, "idle")
	testutil.SeedAnnotation(t, f.db, a.ID, user.ID, 3, time.Now())
	testutil.SeedAnnotation(t, f.db, b.ID, user.ID, 6, time.Now())

	avg, err := f.stats.PerUserAverages(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.InDelta(t, 4.5, avg.EmotionalDrain, 1e-9)

	avg, err = f.stats.PerUserAverages(ctx, idle.ID)
	require.NoError(t, err)
	assert.Nil(t, avg)

	_, err = f.stats.PerUserAverages(ctx, uuid.New())
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestCorpusCoverage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.SeedAdmin(t, f.db, "admin")
	full := testutil.SeedArticle(t, f.db, "full")
	testutil.SeedArticle(t, f.db, "empty")
	partial := testutil.SeedArticle(t, f.db, "partial")
	testutil.SeedRatings(t, f.db, full.ID, 5)
	testutil.SeedRatings(t, f.db, partial.ID, 4)

	cov, err := f.stats.CorpusCoverage(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cov.TotalArticles)
	assert.Equal(t, int64(9), cov.TotalAnnotations)
	assert.Equal(t, int64(9), cov.TotalUsers)
	assert.Equal(t, int64(2), cov.UnderAnnotatedCount)
	assert.Equal(t, DefaultUnderAnnotatedThreshold, cov.Threshold)

	strict := NewStatsService(f.users, f.articles, f.annotations, 6, 0, testutil.Logger(t))
	cov, err = strict.CorpusCoverage(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cov.UnderAnnotatedCount)
}

func TestDailySubmissionHistogram(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2026, 3, d, 12, 0, 0, 0, time.UTC) }
	for i, d := range []int{1, 1, 2, 4} {
		a := testutil.SeedArticle(t, f.db, "article")
		u := testutil.SeedUser(t, f.db, "user"+string(rune('a'+i)))
		testutil.SeedAnnotation(t, f.db, a.ID, u.ID, 5, day(d))
	}

	got, err := f.stats.DailySubmissionHistogram(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []models.DailyCount{
		{Date: "2026-03-04", Count: 1},
		{Date: "2026-03-02", Count: 1},
		{Date: "2026-03-01", Count: 2},
	}, got)

	got, err = f.stats.DailySubmissionHistogram(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []models.DailyCount{{Date: "2026-03-04", Count: 1}}, got)
}

func TestCorpusWideAveragesEmpty(t *testing.T) {
	f := newFixture(t)
	avg, err := f.stats.CorpusWideAverages(context.Background())
	require.NoError(t, err)
	assert.Nil(t, avg)
}

func TestUserDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, f.db, "reader")
	var articles []*models.Article
	for i := 0; i < 7; i++ {
		articles = append(articles, testutil.SeedArticle(t, f.db, "article"))
	}
	for i := 0; i < 6; i++ {
		testutil.SeedAnnotation(t, f.db, articles[i].ID, user.ID, 5, time.Now().Add(time.Duration(i)*time.Minute))
	}

	dash, err := f.stats.UserDashboard(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(6), dash.TotalAnnotations)
	assert.Equal(t, int64(7), dash.TotalArticles)
	assert.Equal(t, int64(1), dash.RemainingArticles)
	require.NotNil(t, dash.Averages)
	require.Len(t, dash.RecentAnnotations, 5)
	assert.Equal(t, articles[5].ID, dash.RecentAnnotations[0].ArticleID)
}
