package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vnkhanh/cogload-backend/apperr"
	"github.com/vnkhanh/cogload-backend/logger"
	"github.com/vnkhanh/cogload-backend/metrics"
	"github.com/vnkhanh/cogload-backend/models"
	"github.com/vnkhanh/cogload-backend/repos"
)

// ArticleInput is one article record as it arrives from an upload, a form
// or the seed file. PublishDate is parsed leniently with ParseDate.
type ArticleInput struct {
	Title       string `json:"title"`
	Source      string `json:"source"`
	URL         string `json:"url"`
	PublishDate string `json:"publish_date"`
	FullText    string `json:"full_text"`
}

// ArticleAnnotations is an article with every annotation on it and their
// averages.
type ArticleAnnotations struct {
	Article     *models.Article       `json:"article"`
	Annotations []*models.Annotation  `json:"annotations"`
	Averages    *models.ScoreAverages `json:"averages"`
}

type ArticleService struct {
	articles    repos.ArticleRepo
	annotations repos.AnnotationRepo
	log         *logger.Logger
}

func NewArticleService(articles repos.ArticleRepo, annotations repos.AnnotationRepo, log *logger.Logger) *ArticleService {
	return &ArticleService{
		articles:    articles,
		annotations: annotations,
		log:         log.With("service", "ArticleService"),
	}
}

func (s *ArticleService) Create(ctx context.Context, in ArticleInput) (*models.Article, error) {
	built, err := buildArticles([]ArticleInput{in})
	if err != nil {
		return nil, err
	}
	article := built[0]
	if err := s.articles.Create(ctx, nil, article); err != nil {
		return nil, apperr.Internal(fmt.Errorf("create article: %w", err))
	}
	metrics.ArticlesIngested.WithLabelValues("form").Inc()
	s.log.Info("article created", "article_id", article.ID)
	return article, nil
}

// ViewForUser loads an article for reading. A user who already rated it gets
// a Conflict.
func (s *ArticleService) ViewForUser(ctx context.Context, user *models.User, articleID uuid.UUID) (*models.Article, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	article, err := s.articles.GetByID(ctx, nil, articleID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("article not found")
		}
		return nil, apperr.Internal(fmt.Errorf("load article: %w", err))
	}
	rated, err := s.annotations.Exists(ctx, nil, articleID, user.ID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("check existing annotation: %w", err))
	}
	if rated {
		return nil, apperr.Conflict("you have already rated this article")
	}
	return article, nil
}

func (s *ArticleService) ListWithCounts(ctx context.Context) ([]*models.ArticleWithCount, error) {
	list, err := s.articles.ListWithCounts(ctx, nil)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list articles: %w", err))
	}
	return list, nil
}

func (s *ArticleService) Annotations(ctx context.Context, articleID uuid.UUID) (*ArticleAnnotations, error) {
	article, err := s.articles.GetByID(ctx, nil, articleID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("article not found")
		}
		return nil, apperr.Internal(fmt.Errorf("load article: %w", err))
	}
	list, err := s.annotations.ListForArticle(ctx, nil, articleID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list annotations: %w", err))
	}
	avg, err := s.annotations.Averages(ctx, nil, repos.AverageFilter{ArticleID: articleID})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("article averages: %w", err))
	}
	return &ArticleAnnotations{Article: article, Annotations: list, Averages: avg}, nil
}

// buildArticles converts raw records. One bad record fails the batch.
func buildArticles(records []ArticleInput) ([]*models.Article, error) {
	out := make([]*models.Article, 0, len(records))
	for i, r := range records {
		title := strings.TrimSpace(r.Title)
		if title == "" {
			return nil, apperr.Validation("article %d: title is required", i+1)
		}
		if strings.TrimSpace(r.FullText) == "" {
			return nil, apperr.Validation("article %d: full_text is required", i+1)
		}
		out = append(out, &models.Article{
			Title:       title,
			Source:      strings.TrimSpace(r.Source),
			URL:         strings.TrimSpace(r.URL),
			PublishDate: ParseDate(r.PublishDate),
			FullText:    r.FullText,
		})
	}
	return out, nil
}
