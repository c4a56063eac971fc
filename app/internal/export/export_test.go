package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"storemonitor/app/internal/models"
)

func sampleRun() models.ReportRun {
	return models.ReportRun{
		ID:        "0b6d0c2e-7f4e-4a0e-9a34-4f7f4a3d2c11",
		StoreID:   "",
		CreatedAt: time.Date(2023, 1, 25, 18, 0, 0, 0, time.UTC),
	}
}

func sampleReports() []models.Report {
	return []models.Report{
		{StoreID: "8419537941919820732", UptimeLastHour: 30, UptimeLastDay: 90, UptimeLastWeek: 810,
			DowntimeLastHour: 30, DowntimeLastDay: 30, DowntimeLastWeek: 30},
		{StoreID: "54515546588432327", UptimeLastHour: 12.3456, DowntimeLastHour: 47.6544},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"json", FormatJSON, false},
		{"CSV", FormatCSV, false},
		{" xlsx ", FormatXLSX, false},
		{"pdf", FormatPDF, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormat_ContentTypeAndFilename(t *testing.T) {
	if FormatCSV.ContentType() != "text/csv; charset=utf-8" {
		t.Errorf("csv content type = %q", FormatCSV.ContentType())
	}
	if FormatJSON.ContentType() != "application/json" {
		t.Errorf("json content type = %q", FormatJSON.ContentType())
	}
	if got := FormatPDF.Filename("abc"); got != "report_abc.pdf" {
		t.Errorf("Filename = %q, want report_abc.pdf", got)
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(12.3456); got != 12.35 {
		t.Errorf("Round2(12.3456) = %v, want 12.35", got)
	}
	if got := Round2(810); got != 810 {
		t.Errorf("Round2(810) = %v, want 810", got)
	}
}

func TestBuildCSV(t *testing.T) {
	data, err := BuildCSV(sampleReports())
	if err != nil {
		t.Fatalf("BuildCSV: %v", err)
	}
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	for i, col := range Columns {
		if rows[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], col)
		}
	}
	want := []string{"8419537941919820732", "30.00", "90.00", "810.00", "30.00", "30.00", "30.00"}
	for i, v := range want {
		if rows[1][i] != v {
			t.Errorf("row1[%d] = %q, want %q", i, rows[1][i], v)
		}
	}
	if rows[2][1] != "12.35" || rows[2][4] != "47.65" {
		t.Errorf("row2 not rounded: %v", rows[2])
	}
}

func TestBuildCSV_Empty(t *testing.T) {
	data, err := BuildCSV(nil)
	if err != nil {
		t.Fatalf("BuildCSV: %v", err)
	}
	rows, _ := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if len(rows) != 1 {
		t.Errorf("expected header only, got %d rows", len(rows))
	}
}

func TestBuildXLSX(t *testing.T) {
	data, err := BuildXLSX(sampleRun(), sampleReports())
	if err != nil {
		t.Fatalf("BuildXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	if v, _ := f.GetCellValue("summary", "B3"); v != sampleRun().ID {
		t.Errorf("summary B3 = %q, want run id", v)
	}
	if v, _ := f.GetCellValue("summary", "B4"); v != "all stores" {
		t.Errorf("summary B4 = %q, want all stores", v)
	}
	if v, _ := f.GetCellValue("reports", "A1"); v != "store_id" {
		t.Errorf("reports A1 = %q, want store_id", v)
	}
	if v, _ := f.GetCellValue("reports", "A2"); v != "8419537941919820732" {
		t.Errorf("reports A2 = %q", v)
	}
	if v, _ := f.GetCellValue("reports", "D2"); v != "810" {
		t.Errorf("reports D2 = %q, want 810", v)
	}
}

func TestBuildPDF(t *testing.T) {
	run := sampleRun()
	run.StoreID = "8419537941919820732"
	data, err := BuildPDF(run, sampleReports()[:1])
	if err != nil {
		t.Fatalf("BuildPDF: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("output does not look like a PDF")
	}
}

func TestBuild_Dispatch(t *testing.T) {
	for _, f := range []Format{FormatCSV, FormatXLSX, FormatPDF} {
		data, err := Build(f, sampleRun(), sampleReports())
		if err != nil || len(data) == 0 {
			t.Errorf("Build(%s) = %d bytes, err %v", f, len(data), err)
		}
	}
	if _, err := Build(FormatJSON, sampleRun(), nil); err == nil {
		t.Error("expected error for json in Build")
	}
}
