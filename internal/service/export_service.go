package service

import (
	"context"
	"fmt"
	"time"

	"github.com/campuspulse/engagement-api/internal/models"
	appErrors "github.com/campuspulse/engagement-api/pkg/errors"
	"github.com/campuspulse/engagement-api/pkg/export"
)

// Export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// ExportResult carries a rendered document plus its transport metadata.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders the frequency index as downloadable documents.
type ExportService struct {
	frequency FrequencyReader
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
}

func NewExportService(frequency FrequencyReader) *ExportService {
	return &ExportService{
		frequency: frequency,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
	}
}

// ExportFrequency renders the site-scope frequency rows matching the filter.
func (s *ExportService) ExportFrequency(ctx context.Context, filter models.FrequencyFilter, format string) (*ExportResult, error) {
	events, err := s.frequency.Events(ctx, filter)
	if err != nil {
		return nil, err
	}

	report := export.FrequencyReport{
		Title: fmt.Sprintf("Activity Frequency %d", filter.Year),
		Rows:  make([]export.FrequencyRow, 0, len(events)),
	}
	for _, ev := range events {
		report.Rows = append(report.Rows, export.FrequencyRow{
			Module:       ev.Module,
			InstanceID:   ev.InstanceID,
			Name:         ev.Name,
			Opens:        time.Unix(ev.TimeOpen, 0).UTC().Format("2006-01-02 15:04"),
			Participants: ev.Participants,
			URL:          ev.URL,
		})
	}

	stamp := time.Now().UTC().Format("20060102")
	switch format {
	case FormatCSV:
		content, err := s.csv.Render(report)
		if err != nil {
			return nil, appErrors.Wrap(err, "EXPORT_FAILED", 500, "render csv")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("frequency_%d_%s.csv", filter.Year, stamp),
		}, nil
	case FormatPDF:
		content, err := s.pdf.Render(report)
		if err != nil {
			return nil, appErrors.Wrap(err, "EXPORT_FAILED", 500, "render pdf")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("frequency_%d_%s.pdf", filter.Year, stamp),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}
