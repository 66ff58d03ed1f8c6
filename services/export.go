package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/xuri/excelize/v2"

	"github.com/vnkhanh/cogload-backend/apperr"
	"github.com/vnkhanh/cogload-backend/logger"
	"github.com/vnkhanh/cogload-backend/models"
	"github.com/vnkhanh/cogload-backend/repos"
)

var AnnotationColumns = []string{
	"annotation_id", "article_id", "article_title", "user_id", "username",
	"mental_effort_score", "background_knowledge_score", "emotional_drain_score",
	"clarity_score", "optional_comments", "time_spent_seconds", "active_time_seconds",
	"scroll_depth_percent", "scroll_back_count", "pause_count", "mouse_activity_score",
	"timestamp_submitted", "difficult_passages",
}

var ArticleColumns = []string{"title", "source", "url", "publish_date", "full_text"}

const annotationSheet = "Annotations"

type exportedPassage struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

type ExportService struct {
	articles    repos.ArticleRepo
	annotations repos.AnnotationRepo
	log         *logger.Logger
}

func NewExportService(articles repos.ArticleRepo, annotations repos.AnnotationRepo, log *logger.Logger) *ExportService {
	return &ExportService{
		articles:    articles,
		annotations: annotations,
		log:         log.With("service", "ExportService"),
	}
}

// AnnotationsCSV writes one row per annotation with its passages flattened
// into a JSON array cell.
func (s *ExportService) AnnotationsCSV(ctx context.Context, w io.Writer) error {
	list, err := s.annotations.ListAllWithPassages(ctx, nil)
	if err != nil {
		return apperr.Internal(fmt.Errorf("list annotations: %w", err))
	}
	return writeAnnotationsCSV(w, list)
}

func (s *ExportService) AnnotationsXLSX(ctx context.Context, w io.Writer) error {
	list, err := s.annotations.ListAllWithPassages(ctx, nil)
	if err != nil {
		return apperr.Internal(fmt.Errorf("list annotations: %w", err))
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), annotationSheet); err != nil {
		return apperr.Internal(err)
	}
	if err := setRow(f, 1, toCells(AnnotationColumns)); err != nil {
		return apperr.Internal(err)
	}
	for i, a := range list {
		row, err := annotationRecord(a)
		if err != nil {
			return apperr.Internal(err)
		}
		if err := setRow(f, i+2, toCells(row)); err != nil {
			return apperr.Internal(err)
		}
	}
	if err := f.Write(w); err != nil {
		return apperr.Internal(fmt.Errorf("write xlsx: %w", err))
	}
	return nil
}

// ArticleAnnotationsCSV exports a single article's annotations and returns
// the suggested file name.
func (s *ExportService) ArticleAnnotationsCSV(ctx context.Context, articleID uuid.UUID, w io.Writer) (string, error) {
	article, err := s.articles.GetByID(ctx, nil, articleID)
	if err != nil {
		if isNotFound(err) {
			return "", apperr.NotFound("article not found")
		}
		return "", apperr.Internal(fmt.Errorf("load article: %w", err))
	}
	list, err := s.annotations.ListForArticle(ctx, nil, articleID)
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("list annotations: %w", err))
	}
	for _, a := range list {
		a.Article = article
	}
	return ArticleExportFilename(article), writeAnnotationsCSV(w, list)
}

// ArticlesCSV writes the corpus in the column layout ParseCSVArticles reads.
func (s *ExportService) ArticlesCSV(ctx context.Context, w io.Writer) error {
	list, err := s.articles.ListAll(ctx, nil)
	if err != nil {
		return apperr.Internal(fmt.Errorf("list articles: %w", err))
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(ArticleColumns); err != nil {
		return err
	}
	for _, a := range list {
		date := ""
		if a.PublishDate != nil {
			date = a.PublishDate.Format("2006-01-02")
		}
		if err := cw.Write([]string{a.Title, a.Source, a.URL, date, a.FullText}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ArticleExportFilename(article *models.Article) string {
	name := slug.Make(article.Title)
	if name == "" {
		name = article.ID.String()
	}
	return "annotations-" + name + ".csv"
}

func writeAnnotationsCSV(w io.Writer, list []*models.Annotation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(AnnotationColumns); err != nil {
		return err
	}
	for _, a := range list {
		row, err := annotationRecord(a)
		if err != nil {
			return apperr.Internal(err)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func annotationRecord(a *models.Annotation) ([]string, error) {
	passages, err := passagesJSON(a.DifficultPassages)
	if err != nil {
		return nil, fmt.Errorf("annotation %s passages: %w", a.ID, err)
	}
	var title, username string
	if a.Article != nil {
		title = a.Article.Title
	}
	if a.User != nil {
		username = a.User.Username
	}
	submitted := ""
	if !a.SubmittedAt.IsZero() {
		submitted = a.SubmittedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		a.ID.String(),
		a.ArticleID.String(),
		title,
		a.UserID.String(),
		username,
		strconv.Itoa(a.MentalEffortScore),
		strconv.Itoa(a.BackgroundKnowledgeScore),
		strconv.Itoa(a.EmotionalDrainScore),
		strconv.Itoa(a.ClarityScore),
		a.OptionalComments,
		formatFloat(a.TimeSpentSeconds),
		formatFloat(a.ActiveTimeSeconds),
		formatFloat(a.ScrollDepthPercent),
		strconv.Itoa(a.ScrollBackCount),
		strconv.Itoa(a.PauseCount),
		formatFloat(a.MouseActivityScore),
		submitted,
		passages,
	}, nil
}

// passagesJSON is empty, not "[]", for an annotation without passages.
func passagesJSON(passages []models.DifficultPassage) (string, error) {
	if len(passages) == 0 {
		return "", nil
	}
	out := make([]exportedPassage, 0, len(passages))
	for _, p := range passages {
		out = append(out, exportedPassage{Text: p.TextContent, Start: p.StartOffset, End: p.EndOffset})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

func setRow(f *excelize.File, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(annotationSheet, cell, &cells)
}
