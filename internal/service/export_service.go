package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/reservation-api/internal/dto"
	"github.com/noah-isme/reservation-api/internal/models"
	appErrors "github.com/noah-isme/reservation-api/pkg/errors"
	"github.com/noah-isme/reservation-api/pkg/export"
)

// kst renders timestamps in the academy's local time.
var kst = time.FixedZone("KST", 9*60*60)

var exportHeaders = []string{
	"접수일시", "신청 유형", "학생 이름", "학년", "학교", "보호자 연락처", "보호자 이름",
	"희망 날짜", "희망 시간", "수학 수준", "최근 성적", "학습 목표", "상태", "상담 메모",
}

var pdfColumnWeights = []float64{1.6, 1.4, 1, 0.6, 1.4, 1.5, 1, 1.1, 0.8, 0.7, 0.8, 1, 0.8, 2.2}

type reservationLister interface {
	List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, bool, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string, widths ...float64) ([]byte, error)
	Available() bool
}

// ExportService renders the filtered admin list as a downloadable file.
type ExportService struct {
	reservations reservationLister
	csv          csvRenderer
	pdf          pdfRenderer
	logger       *zap.Logger
	now          func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(reservations reservationLister, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter("")
	}
	return &ExportService{reservations: reservations, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// Export renders reservations matching filter in the requested format.
func (s *ExportService) Export(ctx context.Context, filter models.ReservationFilter, format dto.ExportFormat) (*dto.ExportFile, error) {
	format = dto.ExportFormat(strings.ToLower(strings.TrimSpace(string(format))))
	if format == "" {
		format = dto.ExportFormatCSV
	}
	if format != dto.ExportFormatCSV && format != dto.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported export format %q", format))
	}
	if format == dto.ExportFormatPDF && !s.pdf.Available() {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFormat, "pdf export is not configured")
	}

	rows, _, err := s.reservations.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	dataset := buildReservationDataset(rows)

	var (
		payload     []byte
		contentType string
	)
	switch format {
	case dto.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, exportTitle(filter), pdfColumnWeights...)
		contentType = "application/pdf"
	default:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv; charset=utf-8"
	}
	if err != nil {
		if errors.Is(err, export.ErrFontNotConfigured) {
			return nil, appErrors.Wrap(err, appErrors.ErrUnsupportedFormat.Code, appErrors.ErrUnsupportedFormat.Status, "pdf export is not configured")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("reservations-%s.%s", s.now().In(kst).Format("20060102-150405"), format)
	s.logger.Info("reservations exported", zap.String("format", string(format)), zap.Int("rows", len(rows)))
	return &dto.ExportFile{Filename: filename, ContentType: contentType, Payload: payload}, nil
}

func buildReservationDataset(rows []models.Reservation) export.Dataset {
	records := make([]map[string]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, map[string]string{
			"접수일시":   r.CreatedAt.In(kst).Format("2006-01-02 15:04"),
			"신청 유형":  r.ReservationType,
			"학생 이름":  r.StudentName,
			"학년":     r.Grade,
			"학교":     models.StringValue(r.School),
			"보호자 연락처": r.ParentPhone,
			"보호자 이름":  models.StringValue(r.ParentName),
			"희망 날짜":  r.DesiredDate,
			"희망 시간":  r.DesiredTimeSlot,
			"수학 수준":  models.StringValue(r.CurrentMathLevel),
			"최근 성적":  models.StringValue(r.RecentExamScore),
			"학습 목표":  models.StringValue(r.ExamTarget),
			"상태":     string(r.Status),
			"상담 메모":  strings.ReplaceAll(models.StringValue(r.AdminMemo), "\n", " "),
		})
	}
	return export.Dataset{Headers: exportHeaders, Rows: records}
}

func exportTitle(filter models.ReservationFilter) string {
	parts := []string{}
	if filter.Grade != "" {
		parts = append(parts, "학년 "+filter.Grade)
	}
	if filter.Status != "" {
		parts = append(parts, "상태 "+string(filter.Status))
	}
	if filter.DesiredDate != "" {
		parts = append(parts, "희망 날짜 "+filter.DesiredDate)
	}
	if len(parts) == 0 {
		return "예약 목록"
	}
	return "예약 목록 (" + strings.Join(parts, ", ") + ")"
}
