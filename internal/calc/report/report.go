package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"Aerostat/internal/calc/pipeline"
	"github.com/phpdave11/gofpdf"
	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatPDF, FormatXLSX, FormatCSV:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

type Meta struct {
	Project string    `json:"project"`
	Author  string    `json:"author"`
	Title   string    `json:"title"`
	Date    time.Time `json:"-"`
}

type field struct {
	Label string
	Value string
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return num(*v)
}

// summary lists the input and every scalar result field, in report order.
func summary(res pipeline.Result) []field {
	return []field{
		{"weight_kg", num(res.Config.WeightKg)},
		{"target_altitude_km", num(res.Config.TargetAltitudeKm)},
		{"temp_min_c", optional(res.Config.TempMinC)},
		{"temp_max_c", optional(res.Config.TempMaxC)},
		{"gas", res.Gas.Name},
		{"gas_density_kg_m3", num(res.Gas.DensityKgM3)},
		{"volume_sea_level_m3", num(res.VolumeSeaLevelM3)},
		{"volume_target_altitude_m3", num(res.VolumeTargetAltitudeM3)},
		{"excess_lift_sea_level_kg", num(res.ExcessLiftSeaLevelKg)},
		{"excess_lift_target_altitude_kg", num(res.ExcessLiftTargetAltitudeKg)},
		{"lift_to_weight_ratio", num(res.LiftToWeightRatio)},
		{"envelope_volume_m3", num(res.EnvelopeVolumeM3)},
		{"reserve_fraction", num(res.ReserveFraction)},
		{"ceiling_km", num(res.CeilingKm)},
		{"trend", string(res.Trend.Kind)},
		{"trend_slope", num(res.Trend.Slope)},
	}
}

var sampleHeader = []string{"altitude_km", "density_kg_m3", "temperature_c", "pressure_kpa"}

func sampleRows(res pipeline.Result) [][]string {
	rows := make([][]string, 0, len(res.AtmosphereSamples))
	for _, s := range res.AtmosphereSamples {
		rows = append(rows, []string{num(s.AltitudeKm), num(s.DensityKgM3), num(s.TemperatureC), num(s.PressureKPa)})
	}
	return rows
}

var profileHeader = []string{"altitude_km", "feasible", "required_volume_m3", "lift_capacity_kg", "lift_reserve_kg"}

func profileRows(res pipeline.Result) [][]string {
	rows := make([][]string, 0, len(res.LiftProfile))
	for _, p := range res.LiftProfile {
		rows = append(rows, []string{num(p.AltitudeKm), strconv.FormatBool(p.Feasible),
			num(p.RequiredVolumeM3), num(p.LiftCapacityKg), num(p.LiftReserveKg)})
	}
	return rows
}

func Write(w io.Writer, f Format, res pipeline.Result, meta Meta) error {
	switch f {
	case FormatPDF:
		return WritePDF(w, res, meta)
	case FormatXLSX:
		return WriteXLSX(w, res, meta)
	case FormatCSV:
		return WriteCSV(w, res)
	}
	return fmt.Errorf("unknown report format %q", f)
}

func WritePDF(w io.Writer, res pipeline.Result, meta Meta) error {
	if meta.Title == "" {
		meta.Title = "Airship Lift Report"
	}
	if meta.Date.IsZero() {
		meta.Date = time.Now()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, meta.Title)
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Project: %s", meta.Project))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Author: %s", meta.Author))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", meta.Date.Format("2006-01-02")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 10)
	for _, f := range summary(res) {
		pdf.CellFormat(70, 6, f.Label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(70, 6, f.Value, "1", 1, "R", false, 0, "")
	}
	pdf.Ln(6)

	pdfTable(pdf, "Atmosphere", sampleHeader, sampleRows(res), 40)
	pdfTable(pdf, "Lift profile", profileHeader, profileRows(res), 36)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}

func pdfTable(pdf *gofpdf.Fpdf, title string, header []string, rows [][]string, colW float64) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "B", 9)
	for _, h := range header {
		pdf.CellFormat(colW, 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for _, row := range rows {
		for _, v := range row {
			pdf.CellFormat(colW, 6, v, "1", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(6)
}

const (
	SheetSummary    = "Summary"
	SheetAtmosphere = "Atmosphere"
	SheetProfile    = "Lift profile"
)

func WriteXLSX(w io.Writer, res pipeline.Result, meta Meta) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return err
	}
	rows := [][]string{{"project", meta.Project}, {"author", meta.Author}, {"title", meta.Title}}
	for _, fl := range summary(res) {
		rows = append(rows, []string{fl.Label, fl.Value})
	}
	if err := xlsxRows(f, SheetSummary, nil, rows); err != nil {
		return err
	}

	for _, t := range []struct {
		sheet  string
		header []string
		rows   [][]string
	}{
		{SheetAtmosphere, sampleHeader, sampleRows(res)},
		{SheetProfile, profileHeader, profileRows(res)},
	} {
		if _, err := f.NewSheet(t.sheet); err != nil {
			return err
		}
		if err := xlsxRows(f, t.sheet, t.header, t.rows); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func xlsxRows(f *excelize.File, sheet string, header []string, rows [][]string) error {
	r := 1
	if header != nil {
		if err := xlsxRow(f, sheet, r, header, false); err != nil {
			return err
		}
		r++
	}
	for _, row := range rows {
		if err := xlsxRow(f, sheet, r, row, true); err != nil {
			return err
		}
		r++
	}
	return nil
}

// xlsxRow stores numeric strings as numbers so the sheet stays usable.
func xlsxRow(f *excelize.File, sheet string, r int, values []string, numeric bool) error {
	for c, v := range values {
		cell, err := excelize.CoordinatesToCellName(c+1, r)
		if err != nil {
			return err
		}
		var val interface{} = v
		if numeric {
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				val = n
			}
		}
		if err := f.SetCellValue(sheet, cell, val); err != nil {
			return err
		}
	}
	return nil
}

func WriteCSV(w io.Writer, res pipeline.Result) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"field", "value"})
	for _, f := range summary(res) {
		cw.Write([]string{f.Label, f.Value})
	}
	cw.Write(nil)
	cw.Write(sampleHeader)
	for _, row := range sampleRows(res) {
		cw.Write(row)
	}
	cw.Write(nil)
	cw.Write(profileHeader)
	for _, row := range profileRows(res) {
		cw.Write(row)
	}
	cw.Flush()
	return cw.Error()
}
