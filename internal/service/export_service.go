package service

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/study-planner-api/internal/models"
	"github.com/noah-isme/study-planner-api/pkg/export"
	"github.com/noah-isme/study-planner-api/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
}

var blockExportHeaders = []string{"Date", "Day", "Start", "End", "Title", "Type", "Location", "Generated", "Locked", "Completed"}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders schedule blocks and persists the output files.
type ExportService struct {
	blocks  blockLister
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(blocks blockLister, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		blocks:  blocks,
		storage: storage,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate renders the job's blocks and stores the file behind a signed URL.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job.Params)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          s.downloadURL(token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ContentType returns the MIME type for a format.
func (s *ExportService) ContentType(format models.ExportFormat) string {
	if format == models.ExportFormatPDF {
		return s.pdf.ContentType()
	}
	return s.csv.ContentType()
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) downloadURL(token string) string {
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return fmt.Sprintf("%s/exports/download?token=%s", prefix, url.QueryEscape(token))
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	rangePart := "all"
	if job.Params.From != nil || job.Params.To != nil {
		rangePart = sanitizeFilename(derefOr(job.Params.From, "start")) + "_" + sanitizeFilename(derefOr(job.Params.To, "end"))
	}
	shortID := job.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	return fmt.Sprintf("schedule_%s_%s_%s.%s", rangePart, timestamp, shortID, job.Params.Format)
}

func (s *ExportService) buildDataset(ctx context.Context, params models.ExportJobParams) (export.Dataset, string, error) {
	var filter models.ScheduleBlockFilter
	if params.From != nil {
		from, err := time.Parse(dateLayout, *params.From)
		if err != nil {
			return export.Dataset{}, "", fmt.Errorf("invalid from date: %w", err)
		}
		filter.From = &from
	}
	if params.To != nil {
		to, err := time.Parse(dateLayout, *params.To)
		if err != nil {
			return export.Dataset{}, "", fmt.Errorf("invalid to date: %w", err)
		}
		filter.To = &to
	}
	blocks, err := s.blocks.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}

	rows := make([]map[string]string, 0, len(blocks))
	for _, b := range blocks {
		rows = append(rows, map[string]string{
			"Date":      b.Date.Format(dateLayout),
			"Day":       b.Date.Weekday().String(),
			"Start":     b.StartTime,
			"End":       b.EndTime,
			"Title":     b.Title,
			"Type":      b.Type,
			"Location":  derefOr(b.Location, ""),
			"Generated": yesNo(b.IsGenerated),
			"Locked":    yesNo(b.IsLocked),
			"Completed": yesNo(b.IsCompleted),
		})
	}
	dataset := export.Dataset{
		Headers:  blockExportHeaders,
		Rows:     rows,
		Subtitle: fmt.Sprintf("%s to %s, %d blocks", derefOr(params.From, "start"), derefOr(params.To, "end"), len(rows)),
	}
	return dataset, "Study Schedule", nil
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func derefOr(ptr *string, fallback string) string {
	if ptr == nil || *ptr == "" {
		return fallback
	}
	return *ptr
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
