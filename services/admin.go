package services

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/vnkhanh/cogload-backend/models"
)

// AdminService is the only entry point to administrator operations. Every
// method checks the actor before doing anything else.
type AdminService struct {
	articles *ArticleService
	stats    *StatsService
	ingest   *IngestService
	export   *ExportService
	archive  *ArchiveService
}

func NewAdminService(articles *ArticleService, stats *StatsService, ingest *IngestService, export *ExportService, archive *ArchiveService) *AdminService {
	return &AdminService{
		articles: articles,
		stats:    stats,
		ingest:   ingest,
		export:   export,
		archive:  archive,
	}
}

func (s *AdminService) Dashboard(ctx context.Context, actor *models.User) (*AdminDashboard, error) {
	if err := AuthorizeAdmin(actor); err != nil {
		return nil, err
	}
	return s.stats.AdminDashboard(ctx)
}

func (s *AdminService) Coverage(ctx context.Context, actor *models.User) (*Coverage, error) {
	if err := AuthorizeAdmin(actor); err != nil {
		return nil, err
	}
	return s.stats.CorpusCoverage(ctx)
}

func (s *AdminService) DailyHistogram(ctx context.Context, actor *models.User, days int) ([]models.DailyCount, error) {
	if err := AuthorizeAdmin(actor); err != nil {
		return nil, err
	}
	return s.stats.DailySubmissionHistogram(ctx, days)
}

func (s *AdminService) UserAverages(ctx context.Context, actor *models.User, userID uuid.UUID) (*models.ScoreAverages, error) {
	if err := AuthorizeAdmin(actor); err != nil {
		return nil, err
	}
	return s.stats.PerUserAverages(ctx, userID)
}

func (s *AdminService) ListArticles(ctx context.Context, actor *models.User) ([]*models.ArticleWithCount, error) {
	if err := AuthorizeAdmin(actor); err != nil {
		return nil, err
	}
	return s.articles.ListWithCounts(ctx)
}

func (s *AdminService) CreateArticle(ctx context.Context, actor *models.User, in ArticleInput) (*models.Article, error) {
	if err := AuthorizeAdmin(actor); err != nil {
		return nil, err
	}
	return s.articles.Create(ctx, in)
}

func (s *AdminService) ArticleAnnotations(ctx context.Context, actor *models.User, articleID uuid.UUID) (*ArticleAnnotations, error) {
	if err := AuthorizeAdmin(actor); err != nil {
		return nil, err
	}
	return s.articles.Annotations(ctx, articleID)
}

func (s *AdminService) ImportFile(ctx context.Context, actor *models.User, filename string, content []byte) ([]*models.Article, error) {
	if err := AuthorizeAdmin(actor); err != nil {
		return nil, err
	}
	return s.ingest.Import(ctx, filename, content)
}

func (s *AdminService) ImportURL(ctx context.Context, actor *models.User, rawURL string) (*models.Article, error) {
	if err := AuthorizeAdmin(actor); err != nil {
		return nil, err
	}
	return s.ingest.ImportFromURL(ctx, rawURL)
}

func (s *AdminService) ExportAnnotationsCSV(ctx context.Context, actor *models.User, w io.Writer) error {
	if err := AuthorizeAdmin(actor); err != nil {
		return err
	}
	return s.export.AnnotationsCSV(ctx, w)
}

func (s *AdminService) ExportAnnotationsXLSX(ctx context.Context, actor *models.User, w io.Writer) error {
	if err := AuthorizeAdmin(actor); err != nil {
		return err
	}
	return s.export.AnnotationsXLSX(ctx, w)
}

func (s *AdminService) ExportArticleAnnotationsCSV(ctx context.Context, actor *models.User, articleID uuid.UUID, w io.Writer) (string, error) {
	if err := AuthorizeAdmin(actor); err != nil {
		return "", err
	}
	return s.export.ArticleAnnotationsCSV(ctx, articleID, w)
}

func (s *AdminService) ExportArticlesCSV(ctx context.Context, actor *models.User, w io.Writer) error {
	if err := AuthorizeAdmin(actor); err != nil {
		return err
	}
	return s.export.ArticlesCSV(ctx, w)
}

func (s *AdminService) ArchiveAnnotations(ctx context.Context, actor *models.User) (string, error) {
	if err := AuthorizeAdmin(actor); err != nil {
		return "", err
	}
	return s.archive.ArchiveAnnotations(ctx)
}
