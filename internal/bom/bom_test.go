package bom

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/brynleigh/reflow-cli/internal/model"
)

func writeWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, r := range rows {
		row := sheet.AddRow()
		for _, c := range r {
			row.AddCell().SetString(c)
		}
	}
	path := filepath.Join(t.TempDir(), "bom.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestRead_Basic(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, [][]string{
		{"MPN", "Qty", "Description"},
		{"ATMEGA328P-AU", "2", "MCU"},
		{"GRM188R71C104KA01D", "10", "Cap 100nF"},
	})

	b, err := Read(path)
	require.NoError(t, err)

	assert.Equal(t, "bom.xlsx", b.Label)
	assert.Equal(t, []string{"MPN", "Qty", "Description"}, b.Columns)
	require.Len(t, b.Rows, 2)
	assert.Equal(t, "ATMEGA328P-AU", b.Rows[0]["MPN"])
	assert.Equal(t, "10", b.Rows[1]["Qty"])
	assert.Equal(t, "Cap 100nF", b.Rows[1]["Description"])
}

func TestRead_HeaderAfterBlankRows(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, [][]string{
		{"", "", ""},
		{},
		{"MPN", "Qty"},
		{"LM358", "1"},
	})

	b, err := Read(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"MPN", "Qty"}, b.Columns)
	require.Len(t, b.Rows, 1)
	assert.Equal(t, "LM358", b.Rows[0]["MPN"])
}

func TestRead_HeaderNormalization(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, [][]string{
		{"MPN", "Qty", "Qty", "", "Notes", "", ""},
		{"X1", "1", "2", "spare", "check", "y", "z"},
	})

	b, err := Read(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"MPN", "Qty", "Qty_2", "Column", "Notes"}, b.Columns)
	require.Len(t, b.Rows, 1)
	assert.Equal(t, "1", b.Rows[0]["Qty"])
	assert.Equal(t, "2", b.Rows[0]["Qty_2"])
	assert.Equal(t, "spare", b.Rows[0]["Column"])
	// Cells past the trimmed header are dropped.
	assert.Len(t, b.Rows[0], 5)
}

func TestRead_RaggedRows(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, [][]string{
		{"MPN", "Qty", "Notes"},
		{"SHORT-1"},
		{"LONG-1", "4", "ok", "overflow", "more"},
	})

	b, err := Read(path)
	require.NoError(t, err)
	require.Len(t, b.Rows, 2)

	assert.Equal(t, "SHORT-1", b.Rows[0]["MPN"])
	assert.Equal(t, "", b.Rows[0]["Qty"])
	assert.Equal(t, "", b.Rows[0]["Notes"])

	assert.Equal(t, "ok", b.Rows[1]["Notes"])
	assert.Len(t, b.Rows[1], 3)
}

func TestRead_SkipsBlankDataRows(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, [][]string{
		{"MPN"},
		{"A-1"},
		{""},
		{},
		{"B-2"},
	})

	b, err := Read(path)
	require.NoError(t, err)
	require.Len(t, b.Rows, 2)
	assert.Equal(t, "A-1", b.Rows[0]["MPN"])
	assert.Equal(t, "B-2", b.Rows[1]["MPN"])
}

func TestRead_TrimsCellWhitespace(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, [][]string{
		{"  MPN  ", "Qty"},
		{"  ABC-1  ", " 3 "},
	})

	b, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"MPN", "Qty"}, b.Columns)
	assert.Equal(t, "ABC-1", b.Rows[0]["MPN"])
	assert.Equal(t, "3", b.Rows[0]["Qty"])
}

func TestRead_RejectsUnsupportedExtension(t *testing.T) {
	t.Parallel()

	_, err := Read(filepath.Join(t.TempDir(), "bom.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestRead_NoHeader(t *testing.T) {
	t.Parallel()

	f := xlsx.NewFile()
	_, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, f.Save(path))

	_, err = Read(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header row")
}

func TestReadBytes(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, [][]string{
		{"MPN"},
		{"UPLOAD-1"},
	})
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	b, err := ReadBytes("upload.xlsx", data)
	require.NoError(t, err)
	assert.Equal(t, "upload.xlsx", b.Label)
	require.Len(t, b.Rows, 1)
	assert.Equal(t, "UPLOAD-1", b.Rows[0]["MPN"])

	_, err = ReadBytes("upload.csv", data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")

	_, err = ReadBytes("junk.xlsx", []byte("not a workbook"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open workbook")
}

func TestPreview(t *testing.T) {
	t.Parallel()

	b := model.BOM{
		Label:   "big.xlsx",
		Columns: []string{"MPN"},
		Rows: []map[string]string{
			{"MPN": "A"}, {"MPN": "B"}, {"MPN": "C"},
		},
	}

	capped := Preview(b, 2)
	assert.Len(t, capped.Rows, 2)
	assert.Equal(t, "big.xlsx", capped.Label)

	assert.Len(t, Preview(b, 0).Rows, 3)
	assert.Len(t, Preview(b, 10).Rows, 3)
}

func TestMPNColumn(t *testing.T) {
	t.Parallel()

	b := model.BOM{Columns: []string{"Qty", "MPN", "Notes"}}

	col, err := MPNColumn(b, "mpn")
	require.NoError(t, err)
	assert.Equal(t, "MPN", col)

	_, err = MPNColumn(b, "part_number")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no "part_number" column`)
}

func TestUniqueMPNs(t *testing.T) {
	t.Parallel()

	b := model.BOM{
		Columns: []string{"MPN", "Qty"},
		Rows: []map[string]string{
			{"MPN": "beta", "Qty": "1"},
			{"MPN": "ALPHA", "Qty": "2"},
			{"MPN": "beta", "Qty": "3"},
			{"MPN": "", "Qty": "4"},
			{"MPN": "Gamma", "Qty": "5"},
			{"MPN": "  ", "Qty": "6"},
		},
	}

	mpns, err := UniqueMPNs(b, "mpn")
	require.NoError(t, err)
	assert.Equal(t, []string{"", "ALPHA", "beta", "Gamma"}, mpns)

	_, err = UniqueMPNs(b, "missing")
	require.Error(t, err)
}
