package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/cogload-backend/apperr"
	"github.com/vnkhanh/cogload-backend/logger"
	"github.com/vnkhanh/cogload-backend/metrics"
	"github.com/vnkhanh/cogload-backend/models"
	"github.com/vnkhanh/cogload-backend/repos"
)

const (
	MinScore = 1
	MaxScore = 10
)

type AnnotationService struct {
	articles    repos.ArticleRepo
	annotations repos.AnnotationRepo
	log         *logger.Logger
}

func NewAnnotationService(articles repos.ArticleRepo, annotations repos.AnnotationRepo, log *logger.Logger) *AnnotationService {
	return &AnnotationService{
		articles:    articles,
		annotations: annotations,
		log:         log.With("service", "AnnotationService"),
	}
}

// Submit stores the user's one annotation for the article together with its
// difficult passages.
func (s *AnnotationService) Submit(ctx context.Context, user *models.User, articleID uuid.UUID, in AnnotationInput) (*models.Annotation, error) {
	ann, err := s.submit(ctx, user, articleID, in)
	if err != nil {
		metrics.AnnotationRejections.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}
	metrics.AnnotationsSubmitted.Inc()
	s.log.Info("annotation submitted", "annotation_id", ann.ID, "article_id", articleID, "passages", len(ann.DifficultPassages))
	return ann, nil
}

func (s *AnnotationService) submit(ctx context.Context, user *models.User, articleID uuid.UUID, in AnnotationInput) (*models.Annotation, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	if _, err := s.articles.GetByID(ctx, nil, articleID); err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("article not found")
		}
		return nil, apperr.Internal(fmt.Errorf("load article: %w", err))
	}

	// The unique index is authoritative; this only gives the common case a
	// clean answer before validation.
	exists, err := s.annotations.Exists(ctx, nil, articleID, user.ID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("check existing annotation: %w", err))
	}
	if exists {
		return nil, apperr.Conflict("you have already rated this article")
	}

	ann, err := BuildAnnotation(articleID, user.ID, in)
	if err != nil {
		return nil, err
	}

	if err := s.annotations.CreateWithPassages(ctx, nil, ann); err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, apperr.Conflict("you have already rated this article")
		case errors.Is(err, gorm.ErrForeignKeyViolated):
			return nil, apperr.NotFound("article not found")
		}
		return nil, apperr.Internal(fmt.Errorf("save annotation: %w", err))
	}
	return ann, nil
}

// BuildAnnotation validates the input and converts it to a model.
func BuildAnnotation(articleID, userID uuid.UUID, in AnnotationInput) (*models.Annotation, error) {
	scores := []struct {
		name  string
		value *FlexInt
	}{
		{"mental_effort_score", in.MentalEffortScore},
		{"background_knowledge_score", in.BackgroundKnowledgeScore},
		{"emotional_drain_score", in.EmotionalDrainScore},
		{"clarity_score", in.ClarityScore},
	}
	for _, sc := range scores {
		if sc.value == nil {
			return nil, apperr.Validation("invalid data: %s is required", sc.name)
		}
		if v := int(*sc.value); v < MinScore || v > MaxScore {
			return nil, apperr.Validation("invalid data: %s must be between %d and %d, got %d", sc.name, MinScore, MaxScore, v)
		}
	}

	passages := make([]models.DifficultPassage, 0, len(in.DifficultPassages))
	for i, p := range in.DifficultPassages {
		if strings.TrimSpace(p.TextContent) == "" {
			return nil, apperr.Validation("invalid data: difficult_passages[%d].text_content is required", i)
		}
		if p.StartOffset == nil || p.EndOffset == nil {
			return nil, apperr.Validation("invalid data: difficult_passages[%d] needs start_offset and end_offset", i)
		}
		start, end := int(*p.StartOffset), int(*p.EndOffset)
		if start < 0 || start > end {
			return nil, apperr.Validation("invalid data: difficult_passages[%d] offsets must satisfy 0 <= start <= end, got %d..%d", i, start, end)
		}
		passages = append(passages, models.DifficultPassage{
			TextContent: p.TextContent,
			StartOffset: start,
			EndOffset:   end,
		})
	}

	return &models.Annotation{
		ArticleID:                articleID,
		UserID:                   userID,
		MentalEffortScore:        int(*in.MentalEffortScore),
		BackgroundKnowledgeScore: int(*in.BackgroundKnowledgeScore),
		EmotionalDrainScore:      int(*in.EmotionalDrainScore),
		ClarityScore:             int(*in.ClarityScore),
		OptionalComments:         in.OptionalComments,
		TimeSpentSeconds:         floatOr(in.TimeSpentSeconds, 0),
		ActiveTimeSeconds:        floatOr(in.ActiveTimeSeconds, 0),
		ScrollDepthPercent:       floatOr(in.ScrollDepthPercent, 0),
		ScrollBackCount:          intOr(in.ScrollBackCount, 0),
		PauseCount:               intOr(in.PauseCount, 0),
		MouseActivityScore:       floatOr(in.MouseActivityScore, 0),
		DifficultPassages:        passages,
	}, nil
}

func rejectionReason(err error) string {
	if e, ok := apperr.As(err); ok {
		return e.Code
	}
	return apperr.CodeInternal
}
