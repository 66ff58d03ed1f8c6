package services

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/cogload-backend/apperr"
	"github.com/vnkhanh/cogload-backend/models"
	"github.com/vnkhanh/cogload-backend/testutil"
)

func TestNextArticlePrefersLeastAnnotated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := testutil.SeedArticle(t, f.db, "A")
	b := testutil.SeedArticle(t, f.db, "B")
	c := testutil.SeedArticle(t, f.db, "C")
	d := testutil.SeedArticle(t, f.db, "D")
	testutil.SeedRatings(t, f.db, c.ID, 3)
	testutil.SeedRatings(t, f.db, d.ID, 5)

	user := testutil.SeedUser(t, f.db, "reader")
	for i := 0; i < 20; i++ {
		got, err := f.assignment.NextArticle(ctx, user)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Contains(t, []uuid.UUID{a.ID, b.ID}, got.ID)
	}
}

func TestNextArticleExcludesRatedAndExhausts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := testutil.SeedArticle(t, f.db, "A")
	b := testutil.SeedArticle(t, f.db, "B")
	user := testutil.SeedUser(t, f.db, "reader")
	testutil.SeedAnnotation(t, f.db, a.ID, user.ID, 5, time.Now())

	// B has more ratings than A but A is already rated by this user.
	testutil.SeedRatings(t, f.db, b.ID, 2)
	got, err := f.assignment.NextArticle(ctx, user)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, b.ID, got.ID)

	testutil.SeedAnnotation(t, f.db, b.ID, user.ID, 5, time.Now())
	got, err = f.assignment.NextArticle(ctx, user)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNextArticleEmptyCorpus(t *testing.T) {
	f := newFixture(t)
	user := testutil.SeedUser(t, f.db, "reader")

	got, err := f.assignment.NextArticle(context.Background(), user)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNextArticleRequiresUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.assignment.NextArticle(context.Background(), nil)
	assert.True(t, apperr.Is(err, apperr.CodeUnauthorized))
}

func TestPickLeastAnnotatedIsSeedStable(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	candidates := []models.ArticleCount{
		{ArticleID: ids[0], AnnotationCount: 2},
		{ArticleID: ids[1], AnnotationCount: 1},
		{ArticleID: ids[2], AnnotationCount: 1},
		{ArticleID: ids[3], AnnotationCount: 1},
	}
	reversed := []models.ArticleCount{candidates[3], candidates[2], candidates[1], candidates[0]}

	first, ok := pickLeastAnnotated(candidates, rand.New(rand.NewPCG(7, 7)))
	require.True(t, ok)
	second, ok := pickLeastAnnotated(reversed, rand.New(rand.NewPCG(7, 7)))
	require.True(t, ok)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), first.AnnotationCount)

	_, ok = pickLeastAnnotated(nil, rand.New(rand.NewPCG(1, 1)))
	assert.False(t, ok)
}

func TestPickLeastAnnotatedCoversAllTies(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	candidates := []models.ArticleCount{
		{ArticleID: ids[0]}, {ArticleID: ids[1]}, {ArticleID: ids[2]},
	}
	rng := rand.New(rand.NewPCG(3, 4))
	seen := map[uuid.UUID]bool{}
	for i := 0; i < 200; i++ {
		got, _ := pickLeastAnnotated(candidates, rng)
		seen[got.ArticleID] = true
	}
	assert.Len(t, seen, 3)
}
