// Package export renders lookup results for delivery: an xlsx workbook for
// spreadsheet handoff and a plain-text report for the terminal.
package export

import (
	"bytes"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/brynleigh/reflow-cli/internal/assemble"
	"github.com/brynleigh/reflow-cli/internal/model"
)

// SheetName is the single worksheet written into every workbook.
const SheetName = "Reflow Profiles"

// Columns defines the ordered spreadsheet output columns.
var Columns = []string{
	"part_number",
	"preheat",
	"soak",
	"reflow_tal",
	"peak",
	"cooling",
	"status",
	"source_url",
}

// WriteXLSX writes lookup results as an xlsx workbook, one row per part in
// input order.
func WriteXLSX(results []model.LookupResult, outputPath string) error {
	f, err := buildWorkbook(results)
	if err != nil {
		return err
	}
	if err := f.Save(outputPath); err != nil {
		return eris.Wrap(err, "export: save workbook")
	}
	return nil
}

// XLSXBytes renders the workbook in memory for HTTP delivery.
func XLSXBytes(results []model.LookupResult) ([]byte, error) {
	f, err := buildWorkbook(results)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, eris.Wrap(err, "export: write workbook")
	}
	return buf.Bytes(), nil
}

func buildWorkbook(results []model.LookupResult) (*xlsx.File, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return nil, eris.Wrap(err, "export: add sheet")
	}

	writeRow(sheet, Columns)
	for _, r := range results {
		writeRow(sheet, buildRow(r))
	}

	return f, nil
}

func writeRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

// buildRow maps a LookupResult to a spreadsheet row. A part without a
// profile still gets a row so the input order survives; its fields render
// the not-found marker and the status column says why.
func buildRow(r model.LookupResult) []string {
	rec := model.ProfileRecord{PartNumber: r.MPN}
	if r.Profile != nil {
		rec = *r.Profile
	}
	// A blank BOM cell has no part number to print.
	if rec.PartNumber == "" {
		rec.PartNumber = assemble.NotFoundMarker
	}

	return []string{
		rec.PartNumber,
		assemble.Render(rec.Value(model.FieldPreheat)),
		assemble.Render(rec.Value(model.FieldSoak)),
		assemble.Render(rec.Value(model.FieldReflow)),
		assemble.Render(rec.Value(model.FieldPeak)),
		assemble.Render(rec.Value(model.FieldCooling)),
		string(r.Status),
		assemble.SourceColumn(rec),
	}
}
