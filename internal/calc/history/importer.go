package history

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"Aerostat/internal/calc/airship"
	"github.com/xuri/excelize/v2"
)

type ImportResult struct {
	Count   int                        `json:"count"`
	Skipped int                        `json:"skipped"`
	Records []airship.HistoricalRecord `json:"records"`
}

// Import reads date/ratio pairs from the first sheet of an XLSX workbook.
// The first row is a header. Rows that do not parse are counted as skipped.
func Import(r io.Reader) (ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return ImportResult{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return ImportResult{}, fmt.Errorf("sheet %q has no data rows", sheet)
	}

	res := ImportResult{Records: make([]airship.HistoricalRecord, 0, len(rows)-1)}
	for i := 1; i < len(rows); i++ {
		rec, err := parseRow(rows[i])
		if err != nil {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, rec)
	}
	res.Count = len(res.Records)
	return res, nil
}

func parseRow(row []string) (airship.HistoricalRecord, error) {
	// expected: date, lift_to_weight_ratio
	if len(row) < 2 {
		return airship.HistoricalRecord{}, fmt.Errorf("bad row")
	}
	date, err := parseDate(row[0])
	if err != nil {
		return airship.HistoricalRecord{}, err
	}
	ratio, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
	if err != nil {
		return airship.HistoricalRecord{}, err
	}
	if ratio < 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return airship.HistoricalRecord{}, fmt.Errorf("ratio %v out of range", ratio)
	}
	return airship.HistoricalRecord{Date: date, LiftToWeightRatio: ratio}, nil
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"02.01.2006",
	"01-02-06",
	"1/2/06",
	"01/02/2006",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	// unformatted cells come through as the Excel serial number
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		return excelize.ExcelDateToTime(serial, false)
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
