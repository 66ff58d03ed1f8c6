package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vnkhanh/cogload-backend/apperr"
	"github.com/vnkhanh/cogload-backend/logger"
	"github.com/vnkhanh/cogload-backend/models"
	"github.com/vnkhanh/cogload-backend/repos"
)

const (
	DefaultUnderAnnotatedThreshold = 5
	DefaultHistogramDays           = 30
	recentAnnotationsLimit         = 5
)

// Coverage summarises how far the corpus has been annotated.
type Coverage struct {
	TotalArticles       int64 `json:"total_articles"`
	TotalAnnotations    int64 `json:"total_annotations"`
	TotalUsers          int64 `json:"total_users"`
	UnderAnnotatedCount int64 `json:"under_annotated_count"`
	Threshold           int   `json:"threshold"`
}

type UserDashboard struct {
	TotalAnnotations  int64                 `json:"total_annotations"`
	Averages          *models.ScoreAverages `json:"averages"`
	TotalArticles     int64                 `json:"total_articles"`
	RemainingArticles int64                 `json:"remaining_articles"`
	RecentAnnotations []*models.Annotation  `json:"recent_annotations"`
}

type AdminDashboard struct {
	Coverage      *Coverage             `json:"coverage"`
	Averages      *models.ScoreAverages `json:"averages"`
	DailyActivity []models.DailyCount   `json:"daily_activity"`
}

// StatsService recomputes every figure from the store on each call.
type StatsService struct {
	users         repos.UserRepo
	articles      repos.ArticleRepo
	annotations   repos.AnnotationRepo
	threshold     int
	histogramDays int
	log           *logger.Logger
}

func NewStatsService(users repos.UserRepo, articles repos.ArticleRepo, annotations repos.AnnotationRepo, threshold, histogramDays int, log *logger.Logger) *StatsService {
	if threshold <= 0 {
		threshold = DefaultUnderAnnotatedThreshold
	}
	if histogramDays <= 0 {
		histogramDays = DefaultHistogramDays
	}
	return &StatsService{
		users:         users,
		articles:      articles,
		annotations:   annotations,
		threshold:     threshold,
		histogramDays: histogramDays,
		log:           log.With("service", "StatsService"),
	}
}

// PerArticleAverages returns nil when the article has no annotations.
func (s *StatsService) PerArticleAverages(ctx context.Context, articleID uuid.UUID) (*models.ScoreAverages, error) {
	if _, err := s.articles.GetByID(ctx, nil, articleID); err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("article not found")
		}
		return nil, apperr.Internal(fmt.Errorf("load article: %w", err))
	}
	avg, err := s.annotations.Averages(ctx, nil, repos.AverageFilter{ArticleID: articleID})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("article averages: %w", err))
	}
	return avg, nil
}

// PerUserAverages returns nil when the user has no annotations.
func (s *StatsService) PerUserAverages(ctx context.Context, userID uuid.UUID) (*models.ScoreAverages, error) {
	if _, err := s.users.GetByID(ctx, nil, userID); err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(fmt.Errorf("load user: %w", err))
	}
	avg, err := s.annotations.Averages(ctx, nil, repos.AverageFilter{UserID: userID})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("user averages: %w", err))
	}
	return avg, nil
}

func (s *StatsService) CorpusWideAverages(ctx context.Context) (*models.ScoreAverages, error) {
	avg, err := s.annotations.Averages(ctx, nil, repos.AverageFilter{})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("corpus averages: %w", err))
	}
	return avg, nil
}

func (s *StatsService) CorpusCoverage(ctx context.Context) (*Coverage, error) {
	articles, err := s.articles.Count(ctx, nil)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("count articles: %w", err))
	}
	annotations, err := s.annotations.Count(ctx, nil)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("count annotations: %w", err))
	}
	users, err := s.users.CountNonAdmin(ctx, nil)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("count users: %w", err))
	}
	under, err := s.articles.CountUnderAnnotated(ctx, nil, s.threshold)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("count under-annotated: %w", err))
	}
	return &Coverage{
		TotalArticles:       articles,
		TotalAnnotations:    annotations,
		TotalUsers:          users,
		UnderAnnotatedCount: under,
		Threshold:           s.threshold,
	}, nil
}

// DailySubmissionHistogram returns at most windowDays dates that have
// submissions, newest first. windowDays <= 0 uses the configured default.
func (s *StatsService) DailySubmissionHistogram(ctx context.Context, windowDays int) ([]models.DailyCount, error) {
	if windowDays <= 0 {
		windowDays = s.histogramDays
	}
	days, err := s.annotations.DailyCounts(ctx, nil, windowDays)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("daily counts: %w", err))
	}
	return days, nil
}

func (s *StatsService) UserDashboard(ctx context.Context, user *models.User) (*UserDashboard, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	total, err := s.annotations.CountForUser(ctx, nil, user.ID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("count user annotations: %w", err))
	}
	avg, err := s.annotations.Averages(ctx, nil, repos.AverageFilter{UserID: user.ID})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("user averages: %w", err))
	}
	articles, err := s.articles.Count(ctx, nil)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("count articles: %w", err))
	}
	recent, err := s.annotations.ListForUser(ctx, nil, user.ID, recentAnnotationsLimit)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("recent annotations: %w", err))
	}
	remaining := articles - total
	if remaining < 0 {
		remaining = 0
	}
	return &UserDashboard{
		TotalAnnotations:  total,
		Averages:          avg,
		TotalArticles:     articles,
		RemainingArticles: remaining,
		RecentAnnotations: recent,
	}, nil
}

func (s *StatsService) AdminDashboard(ctx context.Context) (*AdminDashboard, error) {
	coverage, err := s.CorpusCoverage(ctx)
	if err != nil {
		return nil, err
	}
	avg, err := s.CorpusWideAverages(ctx)
	if err != nil {
		return nil, err
	}
	days, err := s.DailySubmissionHistogram(ctx, 0)
	if err != nil {
		return nil, err
	}
	return &AdminDashboard{Coverage: coverage, Averages: avg, DailyActivity: days}, nil
}
