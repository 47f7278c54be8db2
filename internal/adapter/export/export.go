// Package export renders hydrology records as XLSX workbooks and PDF sheets.
package export

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/storm-hydrology-service/internal/domain"
)

// Content types served for each export format.
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

const (
	summarySheet = "summary"
	depthSheet   = "depths"
	dataSheet    = "data"
)

// IDFTableXLSX writes the table metadata to a summary sheet and the depth grid
// (one row per duration, one column per populated frequency) to a second sheet.
func IDFTableXLSX(t *domain.IDFTable) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(depthSheet); err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}

	rows := idfSummary(t)
	for i, r := range rows {
		if err := f.SetSheetRow(summarySheet, cell(1, i+1), &[]any{r[0], r[1]}); err != nil {
			return nil, fmt.Errorf("write summary: %w", err)
		}
	}

	keys := t.PopulatedFrequencies()
	header := []any{"Duration (min)"}
	for _, key := range keys {
		freq, _ := domain.LookupFrequency(key)
		header = append(header, freq.Label)
	}
	if err := f.SetSheetRow(depthSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, d := range t.DurationsInMins {
		row := []any{d}
		for _, key := range keys {
			row = append(row, t.Depths[key][i])
		}
		if err := f.SetSheetRow(depthSheet, cell(1, i+2), &row); err != nil {
			return nil, fmt.Errorf("write depths: %w", err)
		}
	}

	return write(f)
}

// TimeSeriesXLSX writes the series metadata and its points resolved in the
// series timezone.
func TimeSeriesXLSX(ts *domain.TimeSeries) ([]byte, error) {
	points, err := ts.DataWithDatetimes()
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(dataSheet); err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}

	summary := [][2]string{
		{"Name", ts.Name},
		{"Location", ts.LocationName},
		{"Source", ts.Source},
		{"Timezone", ts.Timezone},
		{"Points", strconv.Itoa(len(points))},
	}
	for i, r := range summary {
		if err := f.SetSheetRow(summarySheet, cell(1, i+1), &[]any{r[0], r[1]}); err != nil {
			return nil, fmt.Errorf("write summary: %w", err)
		}
	}

	if err := f.SetSheetRow(dataSheet, "A1", &[]any{"Timestamp", "Value"}); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, p := range points {
		row := []any{p.TS.Format(time.RFC3339), p.Value}
		if err := f.SetSheetRow(dataSheet, cell(1, i+2), &row); err != nil {
			return nil, fmt.Errorf("write data: %w", err)
		}
	}

	return write(f)
}

// IDFTablePDF renders the table as a one-page landscape sheet.
func IDFTablePDF(t *domain.IDFTable) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(t.LocationName, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, "IDF Table: "+t.LocationName)
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	for _, r := range idfSummary(t)[1:] {
		if r[1] == "" {
			continue
		}
		pdf.Cell(0, 6, r[0]+": "+r[1])
		pdf.Ln(5)
	}
	pdf.Ln(4)

	keys := t.PopulatedFrequencies()
	width := 24.0
	if n := len(keys) + 1; n > 11 {
		width = 267.0 / float64(n)
	}

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(width, 6, "Duration (min)", "1", 0, "C", false, 0, "")
	for _, key := range keys {
		freq, _ := domain.LookupFrequency(key)
		pdf.CellFormat(width, 6, freq.Label, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for i, d := range t.DurationsInMins {
		pdf.CellFormat(width, 6, strconv.FormatFloat(d, 'f', -1, 64), "1", 0, "C", false, 0, "")
		for _, key := range keys {
			pdf.CellFormat(width, 6, fmt.Sprintf("%.2f", t.Depths[key][i]), "1", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename builds a download name such as "idf-table-4.xlsx".
func Filename(kind domain.RecordKind, id int64, ext string) string {
	base := map[domain.RecordKind]string{
		domain.KindIDFTable:        "idf-table",
		domain.KindTemporalPattern: "temporal-pattern",
		domain.KindTimeSeries:      "time-series",
	}[kind]
	return fmt.Sprintf("%s-%d.%s", base, id, ext)
}

func idfSummary(t *domain.IDFTable) [][2]string {
	rows := [][2]string{
		{"IDF Table", t.LocationName},
		{"Address", t.FormattedAddress},
		{"Source", t.Source},
		{"Units", string(t.SavedUnits)},
		{"Entered in", string(t.OriginalUnits)},
		{"Notes", t.Notes},
	}
	if t.Location != nil {
		rows = append(rows, [2]string{"Location", fmt.Sprintf("%.5f, %.5f", t.Location.Lat(), t.Location.Lon())})
	}
	return rows
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func write(f *excelize.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
