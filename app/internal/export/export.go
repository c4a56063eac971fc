// Package export renders store reports as downloadable files.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"storemonitor/app/internal/models"
)

// Format is a report output encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts a case-insensitive format name. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV, FormatXLSX, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

// ContentType returns the MIME type for a file format
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/json"
}

// Filename for a report download
func (f Format) Filename(reportID string) string {
	return fmt.Sprintf("report_%s.%s", reportID, f)
}

// Columns is the report header row, in output order.
var Columns = []string{
	"store_id",
	"uptime_last_hour",
	"uptime_last_day",
	"uptime_last_week",
	"downtime_last_hour",
	"downtime_last_day",
	"downtime_last_week",
}

// Round2 rounds a minute figure to two decimals for file output
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func values(r models.Report) []float64 {
	return []float64{
		r.UptimeLastHour, r.UptimeLastDay, r.UptimeLastWeek,
		r.DowntimeLastHour, r.DowntimeLastDay, r.DowntimeLastWeek,
	}
}

// BuildCSV renders one row per report under the Columns header.
func BuildCSV(reports []models.Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Columns); err != nil {
		return nil, err
	}
	for _, r := range reports {
		row := []string{r.StoreID}
		for _, v := range values(r) {
			row = append(row, strconv.FormatFloat(Round2(v), 'f', 2, 64))
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildXLSX renders a summary sheet and a reports sheet.
func BuildXLSX(run models.ReportRun, reports []models.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "summary"
	reportSheet := "reports"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(reportSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Store Uptime Report")
	_ = f.SetCellValue(summarySheet, "A3", "Report ID")
	_ = f.SetCellValue(summarySheet, "B3", run.ID)
	_ = f.SetCellValue(summarySheet, "A4", "Scope")
	_ = f.SetCellValue(summarySheet, "B4", scope(run))
	_ = f.SetCellValue(summarySheet, "A5", "Created")
	_ = f.SetCellValue(summarySheet, "B5", run.CreatedAt.UTC().Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A6", "Stores")
	_ = f.SetCellValue(summarySheet, "B6", len(reports))
	_ = f.SetCellValue(summarySheet, "A7", "Units")
	_ = f.SetCellValue(summarySheet, "B7", "minutes")

	for i, col := range Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(reportSheet, cell, col)
	}
	for i, r := range reports {
		row := i + 2
		_ = f.SetCellValue(reportSheet, fmt.Sprintf("A%d", row), r.StoreID)
		for j, v := range values(r) {
			cell, err := excelize.CoordinatesToCellName(j+2, row)
			if err != nil {
				return nil, err
			}
			_ = f.SetCellValue(reportSheet, cell, Round2(v))
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildPDF renders a landscape table of the reports.
func BuildPDF(run models.ReportRun, reports []models.Report) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Store Uptime Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Report ID: %s", run.ID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Scope: %s", scope(run)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Created: %s", run.CreatedAt.UTC().Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, "All figures in minutes within business hours")
	pdf.Ln(8)

	widths := []float64{85, 30, 30, 30, 32, 32, 32}
	headers := []string{"Store", "Up 1h", "Up 1d", "Up 1w", "Down 1h", "Down 1d", "Down 1w"}
	pdf.SetFont("Arial", "B", 9)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, r := range reports {
		pdf.CellFormat(widths[0], 6, r.StoreID, "1", 0, "L", false, 0, "")
		for i, v := range values(r) {
			pdf.CellFormat(widths[i+1], 6, fmt.Sprintf("%.2f", Round2(v)), "1", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Build dispatches to the file renderer for f. JSON is handled by the caller.
func Build(f Format, run models.ReportRun, reports []models.Report) ([]byte, error) {
	switch f {
	case FormatCSV:
		return BuildCSV(reports)
	case FormatXLSX:
		return BuildXLSX(run, reports)
	case FormatPDF:
		return BuildPDF(run, reports)
	}
	return nil, fmt.Errorf("no file renderer for format %q", f)
}

func scope(run models.ReportRun) string {
	if run.StoreID == "" {
		return "all stores"
	}
	return "store " + run.StoreID
}
