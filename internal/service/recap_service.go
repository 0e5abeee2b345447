package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hshinosa/kompetensia-api/internal/models"
	"github.com/hshinosa/kompetensia-api/pkg/export"
)

// Recap formats.
const (
	RecapFormatCSV = "csv"
	RecapFormatPDF = "pdf"
)

var recapHeaders = []string{"No", "Kategori", "Judul", "Jenis", "Dikirim", "Status", "Umpan Balik"}

type snapshotSource interface {
	Snapshot(ctx context.Context, actor models.Actor, enrollmentID string) (*ProgressSnapshot, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// RecapFile is a rendered recap document.
type RecapFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// RecapService renders the submission table and projected phase of an
// enrollment as CSV or PDF.
type RecapService struct {
	progress snapshotSource
	csv      datasetRenderer
	pdf      datasetRenderer
	logger   *zap.Logger
}

// NewRecapService constructs the service; nil renderers fall back to the defaults.
func NewRecapService(progress snapshotSource, csv, pdf datasetRenderer, logger *zap.Logger) *RecapService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecapService{progress: progress, csv: csv, pdf: pdf, logger: logger}
}

// Recap renders the enrollment recap in the requested format.
func (s *RecapService) Recap(ctx context.Context, actor models.Actor, enrollmentID, format string) (*RecapFile, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = RecapFormatCSV
	}
	var (
		renderer    datasetRenderer
		contentType string
	)
	switch format {
	case RecapFormatCSV:
		renderer, contentType = s.csv, "text/csv"
	case RecapFormatPDF:
		renderer, contentType = s.pdf, "application/pdf"
	default:
		return nil, fieldError("unsupported recap format", map[string]string{"format": "oneof=csv pdf"})
	}

	snapshot, err := s.progress.Snapshot(ctx, actor, enrollmentID)
	if err != nil {
		return nil, err
	}
	data, err := renderer.Render(recapDataset(snapshot))
	if err != nil {
		s.logger.Error("failed to render recap", zap.String("enrollment_id", enrollmentID), zap.String("format", format), zap.Error(err))
		return nil, fmt.Errorf("render recap: %w", err)
	}
	return &RecapFile{
		Filename:    fmt.Sprintf("recap_%s.%s", snapshot.Enrollment.ID, format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func recapDataset(snapshot *ProgressSnapshot) export.Dataset {
	enrollment := snapshot.Enrollment
	projection := snapshot.Projection
	summary := []export.Field{
		{Label: "Peserta", Value: enrollment.FullName},
		{Label: "Jalur", Value: string(enrollment.Track)},
		{Label: "Status Pendaftaran", Value: string(enrollment.Status)},
		{Label: "Fase", Value: projection.PhaseLabel},
		{Label: "Lulus", Value: yesNo(projection.PassEligible)},
	}
	if enrollment.Scheduled() {
		summary = append(summary, export.Field{Label: "Periode", Value: formatWindow(enrollment.Window())})
	}
	if snapshot.Assessment != nil {
		summary = append(summary, export.Field{Label: "Penilaian", Value: string(snapshot.Assessment.Verdict())})
	}

	rows := make([]map[string]string, 0, len(snapshot.Submissions))
	for _, submission := range snapshot.Submissions {
		rows = append(rows, map[string]string{
			"No":          strconv.Itoa(submission.Sequence),
			"Kategori":    models.CategoryLabel(submission.Category),
			"Judul":       deref(submission.Title),
			"Jenis":       string(submission.ContentKind),
			"Dikirim":     submission.SubmittedAt.Format("2006-01-02 15:04"),
			"Status":      verdictLabel(submission.Verdict),
			"Umpan Balik": deref(submission.Feedback),
		})
	}
	return export.Dataset{
		Title:   "Rekap Kegiatan",
		Summary: summary,
		Headers: recapHeaders,
		Rows:    rows,
	}
}

func formatWindow(window models.DateWindow) string {
	start, end := "-", "-"
	if window.Start != nil {
		start = window.Start.Format(dateLayout)
	}
	if window.End != nil {
		end = window.End.Format(dateLayout)
	}
	return start + " s/d " + end
}

func yesNo(v bool) string {
	if v {
		return "Ya"
	}
	return "Tidak"
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
