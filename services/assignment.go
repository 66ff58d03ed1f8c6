package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/vnkhanh/cogload-backend/apperr"
	"github.com/vnkhanh/cogload-backend/logger"
	"github.com/vnkhanh/cogload-backend/metrics"
	"github.com/vnkhanh/cogload-backend/models"
	"github.com/vnkhanh/cogload-backend/repos"
)

type AssignmentService struct {
	articles repos.ArticleRepo
	log      *logger.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

type AssignmentOption func(*AssignmentService)

// WithRand fixes the tie-break source, mainly for tests.
func WithRand(rng *rand.Rand) AssignmentOption {
	return func(s *AssignmentService) {
		if rng != nil {
			s.rng = rng
		}
	}
}

func NewAssignmentService(articles repos.ArticleRepo, log *logger.Logger, opts ...AssignmentOption) *AssignmentService {
	seed := uint64(time.Now().UnixNano())
	s := &AssignmentService{
		articles: articles,
		log:      log.With("service", "AssignmentService"),
		rng:      rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NextArticle returns one of the least-annotated articles the user has not
// rated yet, or nil when nothing is left. Nothing is reserved: two users
// asking at the same time may get the same article.
func (s *AssignmentService) NextArticle(ctx context.Context, user *models.User) (*models.Article, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}

	candidates, err := s.articles.CandidateCounts(ctx, nil, user.ID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("candidate counts: %w", err))
	}

	s.mu.Lock()
	picked, ok := pickLeastAnnotated(candidates, s.rng)
	s.mu.Unlock()
	if !ok {
		metrics.Assignments.WithLabelValues("exhausted").Inc()
		s.log.Debug("no articles left", "user_id", user.ID)
		return nil, nil
	}

	article, err := s.articles.GetByID(ctx, nil, picked.ArticleID)
	if err != nil {
		if isNotFound(err) {
			// Deleted between the two reads.
			metrics.Assignments.WithLabelValues("exhausted").Inc()
			return nil, nil
		}
		return nil, apperr.Internal(fmt.Errorf("load article: %w", err))
	}
	metrics.Assignments.WithLabelValues("assigned").Inc()
	s.log.Debug("article assigned", "user_id", user.ID, "article_id", article.ID, "annotation_count", picked.AnnotationCount)
	return article, nil
}

// pickLeastAnnotated draws uniformly among the candidates sharing the lowest
// count. Ties are ordered by ID first so a seeded rng is reproducible.
func pickLeastAnnotated(candidates []models.ArticleCount, rng *rand.Rand) (models.ArticleCount, bool) {
	if len(candidates) == 0 {
		return models.ArticleCount{}, false
	}
	lowest := candidates[0].AnnotationCount
	for _, c := range candidates[1:] {
		if c.AnnotationCount < lowest {
			lowest = c.AnnotationCount
		}
	}
	tied := make([]models.ArticleCount, 0, len(candidates))
	for _, c := range candidates {
		if c.AnnotationCount == lowest {
			tied = append(tied, c)
		}
	}
	sort.Slice(tied, func(i, j int) bool {
		return tied[i].ArticleID.String() < tied[j].ArticleID.String()
	})
	return tied[rng.IntN(len(tied))], true
}
