package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/cve-dashboard/internal/dto"
	"github.com/noah-isme/cve-dashboard/internal/gateway"
	"github.com/noah-isme/cve-dashboard/internal/models"
	appErrors "github.com/noah-isme/cve-dashboard/pkg/errors"
	"github.com/noah-isme/cve-dashboard/pkg/export"
	"github.com/noah-isme/cve-dashboard/pkg/jobs"
)

const persistExportJob = "persist_export"

const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var viewExportHeaders = []string{"ID", "CVE ID", "Event", "Change ID", "Source", "Created", "Details"}

type spreadsheetGateway interface {
	Export(ctx context.Context, criteria models.FilterCriteria) (*gateway.Spreadsheet, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type datasetRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Persist   bool
	Retention time.Duration
}

// ExportFile is a rendered or downloaded file ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
	StoredAs    string
}

// ExportService downloads gateway spreadsheets and renders session views locally.
type ExportService struct {
	gateway spreadsheetGateway
	storage fileStorage
	csv     datasetRenderer
	pdf     datasetRenderer
	queue   jobEnqueuer
	logger  *zap.Logger
	cfg     ExportConfig
	now     func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers use the defaults.
func NewExportService(gw spreadsheetGateway, storage fileStorage, cfg ExportConfig, logger *zap.Logger, csv, pdf datasetRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{gateway: gw, storage: storage, csv: csv, pdf: pdf, logger: logger, cfg: cfg, now: time.Now}
}

// GatewaySpreadsheet fetches the gateway spreadsheet for criteria and optionally keeps a copy.
func (s *ExportService) GatewaySpreadsheet(ctx context.Context, criteria models.FilterCriteria) (*ExportFile, error) {
	normalized, fields := criteria.Normalize(s.now())
	if fields != nil {
		return nil, appErrors.WithFields(appErrors.Clone(appErrors.ErrValidation, "invalid filter criteria"), fields)
	}
	sheet, err := s.gateway.Export(ctx, normalized)
	if err != nil {
		s.logger.Warn("gateway export failed", zap.Error(err))
		return nil, err
	}
	file := &ExportFile{Filename: sheet.Filename, ContentType: sheet.ContentType, Payload: sheet.Payload}
	s.persist(file)
	return file, nil
}

// RenderView renders the rows of view as CSV or PDF.
func (s *ExportService) RenderView(view dto.ResultView, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	var renderer datasetRenderer
	switch format {
	case ExportFormatCSV:
		renderer = s.csv
	case ExportFormatPDF:
		renderer = s.pdf
	default:
		return nil, appErrors.WithFields(appErrors.Clone(appErrors.ErrValidation, "unsupported export format"),
			map[string]string{"format": "Format must be csv or pdf."})
	}

	payload, err := renderer.Render(viewDataset(view), viewTitle(view))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render export")
	}
	file := &ExportFile{
		Filename:    fmt.Sprintf("cve_changes_%s_p%d_%s.%s", view.Mode, view.PageIndex+1, s.now().UTC().Format("20060102T150405"), format),
		ContentType: renderer.ContentType(),
		Payload:     payload,
	}
	s.persist(file)
	return file, nil
}

// Cleanup removes stored exports older than the retention window.
func (s *ExportService) Cleanup() int {
	if s.storage == nil || !s.cfg.Persist {
		return 0
	}
	removed, err := s.storage.CleanupOlderThan(s.cfg.Retention)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
	}
	if len(removed) > 0 {
		s.logger.Info("removed expired exports", zap.Int("count", len(removed)))
	}
	return len(removed)
}

// UsePersistQueue moves export persistence onto q. Files are then written by
// HandlePersistJob and StoredAs stays empty on the returned ExportFile.
func (s *ExportService) UsePersistQueue(q jobEnqueuer) {
	s.queue = q
}

// HandlePersistJob writes a queued export to storage.
func (s *ExportService) HandlePersistJob(_ context.Context, job jobs.Job) error {
	file, ok := job.Payload.(ExportFile)
	if !ok {
		s.logger.Error("dropping malformed persist job", zap.String("job_id", job.ID))
		return nil
	}
	if s.storage == nil {
		return nil
	}
	if _, err := s.storage.Save(file.Filename, file.Payload); err != nil {
		return fmt.Errorf("persist export %s: %w", file.Filename, err)
	}
	return nil
}

func (s *ExportService) persist(file *ExportFile) {
	if s.storage == nil || !s.cfg.Persist {
		return
	}
	if s.queue != nil {
		job := jobs.Job{ID: file.Filename, Type: persistExportJob, Payload: *file}
		err := s.queue.Enqueue(job)
		if err == nil {
			return
		}
		s.logger.Warn("persist queue unavailable, writing inline", zap.String("filename", file.Filename), zap.Error(err))
	}
	path, err := s.storage.Save(file.Filename, file.Payload)
	if err != nil {
		s.logger.Warn("persist export failed", zap.String("filename", file.Filename), zap.Error(err))
		return
	}
	file.StoredAs = path
}

func viewDataset(view dto.ResultView) export.Dataset {
	rows := make([]map[string]string, 0, len(view.Rows))
	for _, r := range view.Rows {
		rows = append(rows, map[string]string{
			"ID":        strconv.FormatInt(r.ID, 10),
			"CVE ID":    r.CveID,
			"Event":     r.EventName,
			"Change ID": r.CveChangeID,
			"Source":    r.SourceIdentifier,
			"Created":   r.Created,
			"Details":   detailsSummary(r.Details),
		})
	}
	return export.Dataset{Headers: viewExportHeaders, Rows: rows}
}

func detailsSummary(details []models.ChangeDetail) string {
	parts := make([]string, 0, len(details))
	for _, d := range details {
		oldValue, newValue := d.Text("oldValue"), d.Text("newValue")
		part := strings.TrimSpace(d.Text("action") + " " + d.Text("type"))
		switch {
		case oldValue != "" && newValue != "":
			part += ": " + oldValue + " -> " + newValue
		case newValue != "":
			part += ": " + newValue
		case oldValue != "":
			part += ": " + oldValue
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "; ")
}

func viewTitle(view dto.ResultView) string {
	switch view.Mode {
	case models.ModeSearch:
		return fmt.Sprintf("CVE changes matching %q", view.Query)
	case models.ModeFilter:
		return fmt.Sprintf("CVE changes (%d filters applied)", view.AppliedFilterCount)
	default:
		return "CVE changes"
	}
}
