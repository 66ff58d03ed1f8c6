package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vnkhanh/cogload-backend/logger"
	"github.com/vnkhanh/cogload-backend/models"
)

// AverageFilter scopes Averages. Zero fields are ignored.
type AverageFilter struct {
	ArticleID uuid.UUID
	UserID    uuid.UUID
}

type AnnotationRepo interface {
	CreateWithPassages(ctx context.Context, tx *gorm.DB, annotation *models.Annotation) error
	Exists(ctx context.Context, tx *gorm.DB, articleID, userID uuid.UUID) (bool, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
	CountForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	ListForArticle(ctx context.Context, tx *gorm.DB, articleID uuid.UUID) ([]*models.Annotation, error)
	ListForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*models.Annotation, error)
	ListAllWithPassages(ctx context.Context, tx *gorm.DB) ([]*models.Annotation, error)
	Averages(ctx context.Context, tx *gorm.DB, filter AverageFilter) (*models.ScoreAverages, error)
	DailyCounts(ctx context.Context, tx *gorm.DB, limit int) ([]models.DailyCount, error)
}

type annotationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnnotationRepo(db *gorm.DB, baseLog *logger.Logger) AnnotationRepo {
	return &annotationRepo{db: db, log: baseLog.With("repo", "AnnotationRepo")}
}

func (ar *annotationRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ar.db
}

// CreateWithPassages writes the annotation row and then its passages inside
// one transaction. A failure at any point leaves neither behind.
func (ar *annotationRepo) CreateWithPassages(ctx context.Context, tx *gorm.DB, annotation *models.Annotation) error {
	return ar.conn(tx).WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		passages := annotation.DifficultPassages
		if err := inner.Omit(clause.Associations).Create(annotation).Error; err != nil {
			return err
		}
		if len(passages) == 0 {
			return nil
		}
		for i := range passages {
			passages[i].AnnotationID = annotation.ID
		}
		if err := inner.Create(&passages).Error; err != nil {
			return err
		}
		annotation.DifficultPassages = passages
		return nil
	})
}

func (ar *annotationRepo) Exists(ctx context.Context, tx *gorm.DB, articleID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := ar.conn(tx).WithContext(ctx).
		Model(&models.Annotation{}).
		Where("article_id = ? AND user_id = ?", articleID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (ar *annotationRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	if err := ar.conn(tx).WithContext(ctx).Model(&models.Annotation{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (ar *annotationRepo) CountForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	var count int64
	if err := ar.conn(tx).WithContext(ctx).
		Model(&models.Annotation{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func preloadPassages(db *gorm.DB) *gorm.DB {
	return db.Order("start_offset ASC")
}

func (ar *annotationRepo) ListForArticle(ctx context.Context, tx *gorm.DB, articleID uuid.UUID) ([]*models.Annotation, error) {
	var results []*models.Annotation
	if err := ar.conn(tx).WithContext(ctx).
		Preload("User").
		Preload("DifficultPassages", preloadPassages).
		Where("article_id = ?", articleID).
		Order("submitted_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ListForUser returns the most recent annotations first; limit <= 0 means all.
func (ar *annotationRepo) ListForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*models.Annotation, error) {
	q := ar.conn(tx).WithContext(ctx).
		Preload("Article").
		Where("user_id = ?", userID).
		Order("submitted_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var results []*models.Annotation
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *annotationRepo) ListAllWithPassages(ctx context.Context, tx *gorm.DB) ([]*models.Annotation, error) {
	var results []*models.Annotation
	if err := ar.conn(tx).WithContext(ctx).
		Preload("Article").
		Preload("User").
		Preload("DifficultPassages", preloadPassages).
		Order("submitted_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

type averageRow struct {
	N                   int64
	MentalEffort        *float64
	BackgroundKnowledge *float64
	EmotionalDrain      *float64
	Clarity             *float64
}

// Averages returns nil when no annotation matches the filter.
func (ar *annotationRepo) Averages(ctx context.Context, tx *gorm.DB, filter AverageFilter) (*models.ScoreAverages, error) {
	q := ar.conn(tx).WithContext(ctx).
		Model(&models.Annotation{}).
		Select(`COUNT(*) AS n,
			AVG(CAST(mental_effort_score AS DOUBLE PRECISION)) AS mental_effort,
			AVG(CAST(background_knowledge_score AS DOUBLE PRECISION)) AS background_knowledge,
			AVG(CAST(emotional_drain_score AS DOUBLE PRECISION)) AS emotional_drain,
			AVG(CAST(clarity_score AS DOUBLE PRECISION)) AS clarity`)
	if filter.ArticleID != uuid.Nil {
		q = q.Where("article_id = ?", filter.ArticleID)
	}
	if filter.UserID != uuid.Nil {
		q = q.Where("user_id = ?", filter.UserID)
	}

	var row averageRow
	if err := q.Scan(&row).Error; err != nil {
		return nil, err
	}
	if row.N == 0 {
		return nil, nil
	}
	return &models.ScoreAverages{
		Count:               row.N,
		MentalEffort:        deref(row.MentalEffort),
		BackgroundKnowledge: deref(row.BackgroundKnowledge),
		EmotionalDrain:      deref(row.EmotionalDrain),
		Clarity:             deref(row.Clarity),
	}, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

type dayRow struct {
	Day   string
	Count int64
}

// DailyCounts groups annotations by UTC submission date, newest first,
// returning at most limit dates.
func (ar *annotationRepo) DailyCounts(ctx context.Context, tx *gorm.DB, limit int) ([]models.DailyCount, error) {
	db := ar.conn(tx).WithContext(ctx)
	day := dayExpr(db)

	var rows []dayRow
	if err := db.
		Model(&models.Annotation{}).
		Select(day + " AS day, COUNT(*) AS count").
		Group(day).
		Order("day DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	results := make([]models.DailyCount, 0, len(rows))
	for _, r := range rows {
		results = append(results, models.DailyCount{Date: r.Day, Count: r.Count})
	}
	return results, nil
}

func dayExpr(db *gorm.DB) string {
	if db.Dialector.Name() == "postgres" {
		return "TO_CHAR(submitted_at AT TIME ZONE 'UTC', 'YYYY-MM-DD')"
	}
	return "strftime('%Y-%m-%d', submitted_at)"
}
