package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/unison-academica/records-lookup/internal/application/query"
	"github.com/unison-academica/records-lookup/internal/domain/transcript"
)

func sampleDTO() *query.StudentRecordDTO {
	return &query.StudentRecordDTO{
		Name:                "Ana López",
		CanonicalIdentifier: "EXP123",
		CurrentGroup:        "N/A",
		Email:               "ana@example.edu",
		Records: []query.RecordDTO{
			{Semester: "2024-1", Subject: "Math", Grade: 8.5, Status: "Aprobada"},
			{Semester: "2024-1", Subject: "Bio", Grade: 5, Status: "Reprobada"},
			{Semester: "2024-2", Subject: "Math", Grade: 9, Status: "Aprobada"},
		},
	}
}

func TestWriteTranscript(t *testing.T) {
	dto := sampleDTO()
	summary := query.Summarize(dto, "2024-1")

	var buf bytes.Buffer
	require.NoError(t, WriteTranscript(&buf, dto, summary))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	raw := excelize.Options{RawCellValue: true}
	get := func(ref string) string {
		v, err := f.GetCellValue(SheetName, ref, raw)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Ana López", get("B1"))
	assert.Equal(t, "EXP123", get("B2"))
	assert.Equal(t, "N/A", get("B3"))
	assert.Equal(t, "2024-1", get("B5"))

	assert.Equal(t, "Semester", get("A7"))
	assert.Equal(t, "Math", get("B8"))
	assert.Equal(t, "8.5", get("C8"))
	assert.Equal(t, "Reprobada", get("D9"))
	assert.Equal(t, "", get("A10"), "only filtered records are written")

	assert.Equal(t, "Average", get("A11"))
	assert.Equal(t, "6.75", get("B11"))
	assert.Equal(t, "1", get("B12"))
	assert.Equal(t, "1", get("B13"))
	assert.Equal(t, "50", get("B14"))
}

func TestWriteTranscript_NoRecords(t *testing.T) {
	dto := sampleDTO()
	summary := query.Summarize(dto, "2099-9")

	var buf bytes.Buffer
	require.NoError(t, WriteTranscript(&buf, dto, summary))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(SheetName, "B9", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "0", v, "average of an empty selection")
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "transcript_EXP123.xlsx", Filename("EXP123", transcript.AllSemesters))
	assert.Equal(t, "transcript_EXP123_2024-1.xlsx", Filename("EXP123", "2024-1"))
	assert.Equal(t, "transcript_a_b.xlsx", Filename("a/b", ""))
}
