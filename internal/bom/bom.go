// Package bom ingests bill-of-materials spreadsheets. Real BOM exports
// are messy: title rows above the header, duplicate or blank column
// names, ragged row widths. Ingestion normalizes all of that up front so
// the rest of the system sees a clean column-keyed table.
package bom

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/brynleigh/reflow-cli/internal/model"
)

// Accepted reports whether the file name carries a workbook extension.
func Accepted(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

// Read parses the first sheet of the workbook at path.
func Read(path string) (model.BOM, error) {
	if !Accepted(path) {
		return model.BOM{}, eris.Errorf("bom: unsupported file type %q (want .xlsx or .xlsm)", filepath.Ext(path))
	}
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return model.BOM{}, eris.Wrap(err, "bom: open workbook")
	}
	return fromWorkbook(filepath.Base(path), f)
}

// ReadBytes parses an uploaded workbook. label is the client-side file
// name and is kept for error messages and state display.
func ReadBytes(label string, data []byte) (model.BOM, error) {
	if !Accepted(label) {
		return model.BOM{}, eris.Errorf("bom: unsupported file type %q (want .xlsx or .xlsm)", filepath.Ext(label))
	}
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return model.BOM{}, eris.Wrap(err, "bom: open workbook")
	}
	return fromWorkbook(label, f)
}

func fromWorkbook(label string, f *xlsx.File) (model.BOM, error) {
	if len(f.Sheets) == 0 {
		return model.BOM{}, eris.New("bom: workbook has no sheets")
	}
	sheet := f.Sheets[0]

	rows := make([][]string, 0, len(sheet.Rows))
	for _, r := range sheet.Rows {
		cells := make([]string, len(r.Cells))
		for j, c := range r.Cells {
			cells[j] = strings.TrimSpace(c.String())
		}
		rows = append(rows, cells)
	}

	// Header is the first row with any non-blank cell.
	headerIdx := -1
	for i, r := range rows {
		if !blankRow(r) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return model.BOM{}, eris.New("bom: no header row found")
	}
	columns := headerColumns(rows[headerIdx])

	var out []map[string]string
	for _, r := range rows[headerIdx+1:] {
		if blankRow(r) {
			continue
		}
		m := make(map[string]string, len(columns))
		for j, name := range columns {
			v := ""
			if j < len(r) {
				v = r[j]
			}
			m[name] = v
		}
		out = append(out, m)
	}

	return model.BOM{Label: label, Columns: columns, Rows: out}, nil
}

// headerColumns trims trailing blank header cells, names interior blanks
// "Column", and dedupes repeats as "Name", "Name_2", "Name_3".
func headerColumns(cells []string) []string {
	end := len(cells)
	for end > 0 && cells[end-1] == "" {
		end--
	}

	counts := make(map[string]int, end)
	out := make([]string, 0, end)
	for _, c := range cells[:end] {
		name := c
		if name == "" {
			name = "Column"
		}
		counts[name]++
		if n := counts[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		out = append(out, name)
	}
	return out
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

// Preview returns a copy of the BOM capped at n rows for display.
func Preview(b model.BOM, n int) model.BOM {
	if n <= 0 || len(b.Rows) <= n {
		return b
	}
	out := b
	out.Rows = b.Rows[:n]
	return out
}

// MPNColumn locates the part number column by case-insensitive exact
// header match.
func MPNColumn(b model.BOM, name string) (string, error) {
	for _, c := range b.Columns {
		if strings.EqualFold(c, name) {
			return c, nil
		}
	}
	return "", eris.Errorf("bom: no %q column among %v", name, b.Columns)
}

// UniqueMPNs returns the distinct part numbers under the given column,
// sorted case-insensitively. Blank cells collapse to one empty entry so
// the pipeline can report the BOM's NA parts instead of dropping them.
func UniqueMPNs(b model.BOM, column string) ([]string, error) {
	col, err := MPNColumn(b, column)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var out []string
	for _, r := range b.Rows {
		mpn := model.NormalizeMPN(r[col])
		if _, ok := seen[mpn]; ok {
			continue
		}
		seen[mpn] = struct{}{}
		out = append(out, mpn)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i]), strings.ToLower(out[j])
		if a != b {
			return a < b
		}
		return out[i] < out[j]
	})
	return out, nil
}
