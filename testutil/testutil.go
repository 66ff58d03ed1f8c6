// Package testutil opens throwaway SQLite stores and seeds fixtures for
// repository, service and controller tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/vnkhanh/cogload-backend/logger"
	"github.com/vnkhanh/cogload-backend/models"
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	return logger.Nop()
}

// DB returns a migrated in-memory database private to the calling test.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := models.AutoMigrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

func SeedUser(tb testing.TB, db *gorm.DB, username string) *models.User {
	tb.Helper()
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	}
	if err := db.WithContext(context.Background()).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedAdmin(tb testing.TB, db *gorm.DB, username string) *models.User {
	tb.Helper()
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		IsAdmin:      true,
	}
	if err := db.WithContext(context.Background()).Create(u).Error; err != nil {
		tb.Fatalf("seed admin: %v", err)
	}
	return u
}

func SeedArticle(tb testing.TB, db *gorm.DB, title string) *models.Article {
	tb.Helper()
	a := &models.Article{
		Title:    title,
		Source:   "test",
		FullText: "full text of " + title,
	}
	if err := db.WithContext(context.Background()).Create(a).Error; err != nil {
		tb.Fatalf("seed article: %v", err)
	}
	return a
}

// SeedAnnotation rates every score with the same value.
func SeedAnnotation(tb testing.TB, db *gorm.DB, articleID, userID uuid.UUID, score int, at time.Time) *models.Annotation {
	tb.Helper()
	a := &models.Annotation{
		ArticleID:                articleID,
		UserID:                   userID,
		MentalEffortScore:        score,
		BackgroundKnowledgeScore: score,
		EmotionalDrainScore:      score,
		ClarityScore:             score,
		SubmittedAt:              at.UTC(),
	}
	if err := db.WithContext(context.Background()).Omit("Article", "User").Create(a).Error; err != nil {
		tb.Fatalf("seed annotation: %v", err)
	}
	return a
}

// SeedRatings gives articleID n annotations from fresh users.
func SeedRatings(tb testing.TB, db *gorm.DB, articleID uuid.UUID, n int) {
	tb.Helper()
	for i := 0; i < n; i++ {
		u := SeedUser(tb, db, "rater-"+uuid.NewString()[:8])
		SeedAnnotation(tb, db, articleID, u.ID, 5, time.Now())
	}
}

func Count(tb testing.TB, db *gorm.DB, model interface{}) int64 {
	tb.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		tb.Fatalf("count: %v", err)
	}
	return n
}
