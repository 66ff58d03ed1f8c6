package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/cogload-backend/logger"
	"github.com/vnkhanh/cogload-backend/models"
)

type ArticleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, article *models.Article) error
	CreateBatch(ctx context.Context, tx *gorm.DB, articles []*models.Article) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Article, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*models.Article, error)
	ListWithCounts(ctx context.Context, tx *gorm.DB) ([]*models.ArticleWithCount, error)
	CandidateCounts(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]models.ArticleCount, error)
	CountUnderAnnotated(ctx context.Context, tx *gorm.DB, threshold int) (int64, error)
}

type articleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewArticleRepo(db *gorm.DB, baseLog *logger.Logger) ArticleRepo {
	return &articleRepo{db: db, log: baseLog.With("repo", "ArticleRepo")}
}

func (ar *articleRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ar.db
}

func (ar *articleRepo) Create(ctx context.Context, tx *gorm.DB, article *models.Article) error {
	return ar.conn(tx).WithContext(ctx).Create(article).Error
}

// CreateBatch inserts all articles or none.
func (ar *articleRepo) CreateBatch(ctx context.Context, tx *gorm.DB, articles []*models.Article) error {
	if len(articles) == 0 {
		return nil
	}
	return ar.conn(tx).WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		return inner.Create(&articles).Error
	})
}

func (ar *articleRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Article, error) {
	var article models.Article
	if err := ar.conn(tx).WithContext(ctx).First(&article, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

func (ar *articleRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	if err := ar.conn(tx).WithContext(ctx).Model(&models.Article{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (ar *articleRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*models.Article, error) {
	var results []*models.Article
	if err := ar.conn(tx).WithContext(ctx).Order("added_at ASC, id ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ListWithCounts returns every article with its annotation count, least
// annotated first.
func (ar *articleRepo) ListWithCounts(ctx context.Context, tx *gorm.DB) ([]*models.ArticleWithCount, error) {
	var results []*models.ArticleWithCount
	if err := ar.conn(tx).WithContext(ctx).
		Model(&models.Article{}).
		Select("articles.*, COUNT(annotations.id) AS annotation_count").
		Joins("LEFT JOIN annotations ON annotations.article_id = articles.id").
		Group("articles.id").
		Order("annotation_count ASC, articles.added_at ASC").
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// CandidateCounts returns the annotation count of every article userID has
// not annotated yet. Articles without annotations are included with 0.
func (ar *articleRepo) CandidateCounts(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]models.ArticleCount, error) {
	db := ar.conn(tx).WithContext(ctx)

	rated := db.Model(&models.Annotation{}).Select("article_id").Where("user_id = ?", userID)

	var results []models.ArticleCount
	if err := db.
		Model(&models.Article{}).
		Select("articles.id AS article_id, COUNT(annotations.id) AS annotation_count").
		Joins("LEFT JOIN annotations ON annotations.article_id = articles.id").
		Where("articles.id NOT IN (?)", rated).
		Group("articles.id").
		Order("annotation_count ASC").
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *articleRepo) CountUnderAnnotated(ctx context.Context, tx *gorm.DB, threshold int) (int64, error) {
	db := ar.conn(tx).WithContext(ctx)

	under := db.
		Model(&models.Article{}).
		Select("articles.id").
		Joins("LEFT JOIN annotations ON annotations.article_id = articles.id").
		Group("articles.id").
		Having("COUNT(annotations.id) < ?", threshold)

	var count int64
	if err := db.Table("(?) AS under_annotated", under).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
