package history

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestImport(t *testing.T) {
	buf := workbook(t, [][]any{
		{"date", "lift_to_weight_ratio"},
		{"2024-01-01", 1.2},
		{"15.02.2024", "1.35"},
		{"not a date", 1.1},
		{"2024-03-01", "n/a"},
		{"2024-04-01", -1},
		{44927, 1.05},
		{"2024-05-01"},
	})

	res, err := Import(buf)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Count)
	assert.Equal(t, 4, res.Skipped)
	require.Len(t, res.Records, 3)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), res.Records[0].Date)
	assert.Equal(t, 1.2, res.Records[0].LiftToWeightRatio)
	assert.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), res.Records[1].Date)
	assert.Equal(t, 1.35, res.Records[1].LiftToWeightRatio)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), res.Records[2].Date.UTC())
}

func TestImportRejectsEmptySheets(t *testing.T) {
	_, err := Import(workbook(t, [][]any{{"date", "ratio"}}))
	assert.Error(t, err)

	_, err = Import(bytes.NewBufferString("definitely not a zip"))
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2024-06-30", "2024-06-30T00:00:00Z", "30.06.2024", "06/30/2024"} {
		got, err := parseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), got, s)
	}
	_, err := parseDate("yesterday")
	assert.Error(t, err)
}
