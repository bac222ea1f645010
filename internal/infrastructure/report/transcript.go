// Package report renders student transcripts as xlsx workbooks.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/unison-academica/records-lookup/internal/application/query"
	"github.com/unison-academica/records-lookup/internal/domain/transcript"
)

// SheetName is the single sheet in every transcript workbook.
const SheetName = "Transcript"

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Filename suggests a download name for a student's transcript.
func Filename(identifier string, selector transcript.Selector) string {
	name := "transcript_" + sanitize(identifier)
	if !selector.IsAll() {
		name += "_" + sanitize(string(selector))
	}
	return name + ".xlsx"
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

// WriteTranscript writes the header block, one row per record in summary,
// and the totals to w.
func WriteTranscript(w io.Writer, dto *query.StudentRecordDTO, summary transcript.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("report: create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("report: drop default sheet: %w", err)
	}

	f.SetColWidth(SheetName, "A", "A", 18)
	f.SetColWidth(SheetName, "B", "B", 32)
	f.SetColWidth(SheetName, "C", "D", 14)

	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("report: style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("report: style: %w", err)
	}
	gradeStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return fmt.Errorf("report: style: %w", err)
	}

	// Profile block
	profile := [][2]any{
		{"Name", dto.Name},
		{"Identifier", dto.CanonicalIdentifier},
		{"Group", dto.CurrentGroup},
		{"Email", dto.Email},
		{"Semester", string(summary.Selected)},
	}
	row := 1
	for _, kv := range profile {
		setRow(f, row, kv[0], kv[1])
		row++
	}
	f.SetCellStyle(SheetName, "A1", cell("A", row-1), labelStyle)

	// Records table
	row++
	headerRow := row
	setRow(f, row, "Semester", "Subject", "Grade", "Status")
	f.SetCellStyle(SheetName, cell("A", row), cell("D", row), headerStyle)
	row++

	firstRecord := row
	for _, r := range summary.Records {
		setRow(f, row, r.Semester, r.Subject, r.Grade, string(r.Status))
		row++
	}
	if row > firstRecord {
		f.SetCellStyle(SheetName, cell("C", firstRecord), cell("C", row-1), gradeStyle)
	}
	if err := f.AutoFilter(SheetName, cell("A", headerRow)+":"+cell("D", max(row-1, headerRow)), nil); err != nil {
		return fmt.Errorf("report: autofilter: %w", err)
	}

	// Totals
	row++
	totalsStart := row
	setRow(f, row, "Average", summary.Average)
	f.SetCellStyle(SheetName, cell("B", row), cell("B", row), gradeStyle)
	row++
	setRow(f, row, "Approved", summary.ApprovedCount)
	row++
	setRow(f, row, "Failed", summary.FailedCount)
	row++
	setRow(f, row, "Approval rate %", summary.ApprovalRate)
	f.SetCellStyle(SheetName, cell("A", totalsStart), cell("A", row), labelStyle)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("report: write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values ...any) {
	for i, v := range values {
		f.SetCellValue(SheetName, cell(colName(i), row), v)
	}
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
