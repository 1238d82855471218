package dataprocessing

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"deltamerge/internal/frame"
)

// topmRow is one TopM record before KPI derivation.
type topmRow struct {
	category  string
	branch    string
	revenue   frame.Num
	margin    frame.Num
	surcharge frame.Num
}

func row(category, branch string, revenue, margin, surcharge float64) topmRow {
	return topmRow{category, branch, frame.Of(revenue), frame.Of(margin), frame.Of(surcharge)}
}

// topmFrame builds a loaded TopM frame from rows.
func topmFrame(rows ...topmRow) *frame.Frame {
	n := len(rows)
	cats := make([]string, n)
	branches := make([]string, n)
	kst := make([]string, n)
	rev := make([]frame.Num, n)
	margin := make([]frame.Num, n)
	surcharge := make([]frame.Num, n)
	for i, r := range rows {
		cats[i] = r.category
		branches[i] = r.branch
		kst[i] = CostCenterOf(r.branch)
		rev[i] = r.revenue
		margin[i] = r.margin
		surcharge[i] = r.surcharge
	}
	return frame.New(n).
		WithStrings(ColCategory, cats).
		WithStrings(ColBranch, branches).
		WithNumbers(ColRevenue, rev).
		WithNumbers(ColMargin, margin).
		WithNumbers(ColMarginWithSurcharge, surcharge).
		WithStrings(ColCostCenter, kst)
}

// addisonRow is one record of the Addison export.
type addisonRow struct {
	kst   string
	art   string
	wert4 frame.Num
	wert6 frame.Num
}

func addisonFrame(rows ...addisonRow) *frame.Frame {
	n := len(rows)
	kst := make([]string, n)
	arts := make([]string, n)
	w4 := make([]frame.Num, n)
	w6 := make([]frame.Num, n)
	for i, r := range rows {
		kst[i] = r.kst
		arts[i] = r.art
		w4[i] = r.wert4
		w6[i] = r.wert6
	}
	return frame.New(n).
		WithStrings(ColCostCenter, kst).
		WithStrings(ColArt, arts).
		WithNumbers(ColWert4, w4).
		WithNumbers(ColWert6, w6)
}

// writeWorkbook saves a workbook whose last sheet holds rows, preceded by an
// unrelated sheet. Row 1 of the sheet is rows[0].
func writeWorkbook(t *testing.T, name string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName(f.GetSheetName(0), "Info"))
	require.NoError(t, f.SetCellValue("Info", "A1", "not the data sheet"))

	sheet := "Daten"
	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, f.SaveAs(path))
	return path
}

// metaRows returns n preamble rows like the ones above the export headers.
func metaRows(n int) [][]interface{} {
	rows := make([][]interface{}, n)
	for i := range rows {
		rows[i] = []interface{}{"DeltaMaster Export"}
	}
	return rows
}

// topmWorkbook writes a TopM export with the header in row 7.
func topmWorkbook(t *testing.T) string {
	t.Helper()
	rows := metaRows(TopMHeaderRow)
	rows = append(rows,
		[]interface{}{"", "", ColOrders, ColRevenue, ColMargin, ColMarginWithSurcharge},
		[]interface{}{"Alle Hilfsmittel", "10101 Nord", 9, 9000, 900, 950},
		[]interface{}{"10 - Gehhilfen", "10101 Nord", 2, 1000, 100, 150},
		[]interface{}{"09 - Elektrostimulationsgeräte", "10101 Nord", 1, 500, 50, 60},
		[]interface{}{"04 - Bandagen", "20202 Süd", 3, 0, 0, 0},
		[]interface{}{"32 - Therapeutische Bewegungsgeräte", "20202 Süd", 1, 800, 200, 240},
		[]interface{}{"04 - Bandagen", 30303, 4, 2000, 500, 500},
	)
	return writeWorkbook(t, "topm.xlsx", rows)
}

// addisonWorkbook writes an Addison export with the header in row 9.
func addisonWorkbook(t *testing.T) string {
	t.Helper()
	rows := metaRows(AddisonHeaderRow)
	rows = append(rows,
		[]interface{}{"Filiale", ColCostCenter, ColArt, ColWert4, ColWert6},
		[]interface{}{"Nord", 10101, ArtRevenue, 1200, 5000},
		[]interface{}{"Nord", 10101, ArtCost, 300, 1400},
		[]interface{}{"Nord", 10101, ArtGrossProfit, 900, 3600},
		[]interface{}{"Nord", 10101, "Personalkosten", 700, 2800},
		[]interface{}{"Ost", 30303, " " + ArtRevenue + " ", 400, 1600},
	)
	return writeWorkbook(t, "addison.xlsx", rows)
}
