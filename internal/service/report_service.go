package service

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"sort"
	"time"
	"unicode"

	"github.com/devrev/bizdir/internal/model"
	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"
)

// DejaVu covers Latin, Cyrillic, Greek, Arabic and Hebrew, so listing names
// outside cp1252 render as written.
const reportFont = "DejaVu"

var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	reportFontRegular []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	reportFontBold []byte
)

var reportColumns = []model.ClickType{
	model.ClickView,
	model.ClickWebsite,
	model.ClickPhone,
	model.ClickEmail,
	model.ClickDirections,
}

// ReportRow is one day of the click report
type ReportRow struct {
	Day    time.Time
	Counts map[model.ClickType]int64
	Total  int64
}

// ReportService renders click summaries as PDF
type ReportService struct {
	analytics *AnalyticsService
	logger    *zap.Logger
}

// NewReportService creates a new report service
func NewReportService(analytics *AnalyticsService, logger *zap.Logger) *ReportService {
	return &ReportService{analytics: analytics, logger: logger}
}

// WriteClickReport writes a one-page PDF of the listing's clicks between from and to
func (s *ReportService) WriteClickReport(ctx context.Context, w io.Writer, business *model.Business, from, to time.Time) error {
	from, to, err := s.analytics.summaryRange(from, to)
	if err != nil {
		return err
	}
	counts, err := s.analytics.Summary(ctx, business.ID, from, to)
	if err != nil {
		return err
	}

	rows := PivotClicks(counts)
	if err := renderClickReport(w, business, rows, from, to); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	s.logger.Info("Rendered click report",
		zap.String("business_id", business.ID),
		zap.Int("days", len(rows)))
	return nil
}

// PivotClicks groups per-type counts into one row per day, oldest first
func PivotClicks(counts []model.ClickCount) []ReportRow {
	byDay := make(map[time.Time]*ReportRow)
	for _, c := range counts {
		day := c.Day.UTC().Truncate(24 * time.Hour)
		row, ok := byDay[day]
		if !ok {
			row = &ReportRow{Day: day, Counts: make(map[model.ClickType]int64)}
			byDay[day] = row
		}
		row.Counts[c.ClickType] += c.Count
		row.Total += c.Count
	}

	rows := make([]ReportRow, 0, len(byDay))
	for _, row := range byDay {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Day.Before(rows[j].Day) })
	return rows
}

func renderClickReport(w io.Writer, business *model.Business, rows []ReportRow, from, to time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddUTF8FontFromBytes(reportFont, "", reportFontRegular)
	pdf.AddUTF8FontFromBytes(reportFont, "B", reportFontBold)
	pdf.SetTitle("Click report: "+business.Name, true)
	pdf.AddPage()

	pdf.SetFont(reportFont, "B", 16)
	if rightToLeft(business.Name) {
		pdf.RTL()
	}
	pdf.CellFormat(0, 10, business.Name, "", 1, "C", false, 0, "")
	pdf.LTR()
	pdf.Ln(3)

	pdf.SetFont(reportFont, "", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Date Range: %s to %s", from.Format("2006-01-02"), to.Format("2006-01-02")), "", 1, "L", false, 0, "")

	totals := make(map[model.ClickType]int64)
	var grand int64
	for _, row := range rows {
		for t, n := range row.Counts {
			totals[t] += n
		}
		grand += row.Total
	}
	pdf.CellFormat(0, 8, fmt.Sprintf("Total Clicks: %d", grand), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(reportFont, "B", 11)
	pdf.CellFormat(34, 9, "Day", "1", 0, "C", false, 0, "")
	for _, col := range reportColumns {
		pdf.CellFormat(26, 9, string(col), "1", 0, "C", false, 0, "")
	}
	pdf.CellFormat(26, 9, "total", "1", 1, "C", false, 0, "")

	pdf.SetFont(reportFont, "", 11)
	for _, row := range rows {
		pdf.CellFormat(34, 8, row.Day.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		for _, col := range reportColumns {
			pdf.CellFormat(26, 8, fmt.Sprintf("%d", row.Counts[col]), "1", 0, "R", false, 0, "")
		}
		pdf.CellFormat(26, 8, fmt.Sprintf("%d", row.Total), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont(reportFont, "B", 11)
	pdf.CellFormat(34, 9, "Total", "1", 0, "C", false, 0, "")
	for _, col := range reportColumns {
		pdf.CellFormat(26, 9, fmt.Sprintf("%d", totals[col]), "1", 0, "R", false, 0, "")
	}
	pdf.CellFormat(26, 9, fmt.Sprintf("%d", grand), "1", 1, "R", false, 0, "")

	return pdf.Output(w)
}

func rightToLeft(text string) bool {
	for _, r := range text {
		if unicode.In(r, unicode.Arabic, unicode.Hebrew) {
			return true
		}
	}
	return false
}
