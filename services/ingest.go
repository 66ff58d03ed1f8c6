package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/vnkhanh/cogload-backend/apperr"
	"github.com/vnkhanh/cogload-backend/logger"
	"github.com/vnkhanh/cogload-backend/metrics"
	"github.com/vnkhanh/cogload-backend/models"
	"github.com/vnkhanh/cogload-backend/repos"
)

const maxPageSize = 10 * 1024 * 1024

var dateLayouts = []string{
	"2006-1-2",
	"1/2/2006",
	"2/1/2006",
	"January 2, 2006",
}

// ParseDate tries each accepted layout in order and returns nil when none
// matches.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// ParseJSONArticles accepts a bare array or an object with an "articles" key.
func ParseJSONArticles(data []byte) ([]ArticleInput, error) {
	data = bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))

	var list []ArticleInput
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, apperr.Validation("error parsing file: %v", err)
		}
		return list, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, apperr.Validation(`JSON must be an array or object with "articles" key`)
	}
	raw, ok := wrapped["articles"]
	if !ok {
		return nil, apperr.Validation(`JSON must be an array or object with "articles" key`)
	}
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, apperr.Validation("error parsing file: %v", err)
	}
	return list, nil
}

// ParseCSVArticles maps columns by header name. Missing columns read as
// empty strings.
func ParseCSVArticles(r io.Reader) ([]ArticleInput, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Validation("error parsing file: %v", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var out []ArticleInput
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperr.Validation("error parsing file: %v", err)
		}
		out = append(out, ArticleInput{
			Title:       field(row, "title"),
			Source:      field(row, "source"),
			URL:         field(row, "url"),
			PublishDate: field(row, "publish_date"),
			FullText:    field(row, "full_text"),
		})
	}
	return out, nil
}

type IngestService struct {
	articles repos.ArticleRepo
	client   *http.Client
	log      *logger.Logger
}

func NewIngestService(articles repos.ArticleRepo, client *http.Client, log *logger.Logger) *IngestService {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &IngestService{
		articles: articles,
		client:   client,
		log:      log.With("service", "IngestService"),
	}
}

// Import parses an uploaded file and stores every article it holds in one
// transaction. Any invalid record rejects the whole file.
func (s *IngestService) Import(ctx context.Context, filename string, content []byte) ([]*models.Article, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var records []ArticleInput
	switch ext {
	case ".json":
		list, err := ParseJSONArticles(content)
		if err != nil {
			return nil, err
		}
		records = list
	case ".csv":
		list, err := ParseCSVArticles(bytes.NewReader(content))
		if err != nil {
			return nil, err
		}
		records = list
	case ".pdf", ".docx", ".txt":
		text, err := extractDocument(ext, content)
		if err != nil {
			return nil, err
		}
		records = []ArticleInput{{
			Title:    titleFromFilename(filename),
			Source:   "upload",
			FullText: text,
		}}
	default:
		return nil, apperr.Validation("unsupported file format %q, upload JSON, CSV, PDF, DOCX or TXT", ext)
	}

	return s.store(ctx, strings.TrimPrefix(ext, "."), records)
}

// ImportFromURL fetches a web page and stores its readable text as one
// article.
func (s *IngestService) ImportFromURL(ctx context.Context, rawURL string) (*models.Article, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, apperr.Validation("invalid url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, apperr.Validation("invalid url %q", rawURL)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperr.Validation("fetch %s: %v", parsed.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Validation("fetch %s: status %d", parsed.Host, resp.StatusCode)
	}
	if resp.ContentLength > maxPageSize {
		return nil, apperr.Validation("page exceeds %d bytes", maxPageSize)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize+1))
	if err != nil {
		return nil, apperr.Validation("read page: %v", err)
	}
	if len(body) > maxPageSize {
		return nil, apperr.Validation("page exceeds %d bytes", maxPageSize)
	}

	page, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return nil, apperr.Validation("extract article: %v", err)
	}

	source := page.SiteName
	if source == "" {
		source = parsed.Host
	}
	title := page.Title
	if strings.TrimSpace(title) == "" {
		title = parsed.String()
	}
	stored, err := s.store(ctx, "url", []ArticleInput{{
		Title:    title,
		Source:   source,
		URL:      parsed.String(),
		FullText: strings.TrimSpace(page.TextContent),
	}})
	if err != nil {
		return nil, err
	}
	return stored[0], nil
}

func (s *IngestService) store(ctx context.Context, format string, records []ArticleInput) ([]*models.Article, error) {
	articles, err := buildArticles(records)
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return articles, nil
	}
	if err := s.articles.CreateBatch(ctx, nil, articles); err != nil {
		return nil, apperr.Internal(fmt.Errorf("store %d articles: %w", len(articles), err))
	}
	metrics.ArticlesIngested.WithLabelValues(format).Add(float64(len(articles)))
	s.log.Info("articles imported", "format", format, "count", len(articles))
	return articles, nil
}

func extractDocument(ext string, content []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch ext {
	case ".pdf":
		text, err = ExtractTextFromPDF(content)
	case ".docx":
		text, err = ExtractTextFromDOCX(content)
	default:
		text = ExtractTextFromTXT(content)
	}
	if err != nil {
		return "", apperr.Validation("error parsing file: %v", err)
	}
	return text, nil
}

func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	title = strings.NewReplacer("_", " ", "-", " ").Replace(title)
	return strings.TrimSpace(title)
}
