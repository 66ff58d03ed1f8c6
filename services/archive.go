package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/vnkhanh/cogload-backend/apperr"
	"github.com/vnkhanh/cogload-backend/logger"
)

// Uploader stores an object and returns a URL it can be fetched from.
type Uploader interface {
	Upload(objectPath string, data []byte, contentType string) (string, error)
}

type ArchiveService struct {
	export   *ExportService
	uploader Uploader
	now      func() time.Time
	log      *logger.Logger
}

// NewArchiveService accepts a nil uploader; archiving then reports that
// storage is not configured.
func NewArchiveService(export *ExportService, uploader Uploader, log *logger.Logger) *ArchiveService {
	return &ArchiveService{
		export:   export,
		uploader: uploader,
		now:      time.Now,
		log:      log.With("service", "ArchiveService"),
	}
}

// ArchiveAnnotations uploads a snapshot of the annotations CSV export.
func (s *ArchiveService) ArchiveAnnotations(ctx context.Context) (string, error) {
	if s.uploader == nil {
		return "", apperr.Validation("archive storage is not configured")
	}
	var buf bytes.Buffer
	if err := s.export.AnnotationsCSV(ctx, &buf); err != nil {
		return "", err
	}
	objectPath := fmt.Sprintf("exports/annotations-%s.csv", s.now().UTC().Format("20060102T150405Z"))
	url, err := s.uploader.Upload(objectPath, buf.Bytes(), "text/csv")
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("archive annotations: %w", err))
	}
	s.log.Info("annotations archived", "object", objectPath, "bytes", buf.Len())
	return url, nil
}
