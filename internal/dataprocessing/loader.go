package dataprocessing

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "deltamerge/internal/errors"
	"deltamerge/internal/frame"
)

// costCenterLength is the number of leading branch characters forming the cost center.
const costCenterLength = 5

// ReadLastSheet reads the last sheet of the workbook at path. The row at
// headerRow (0-based) names the columns; all rows below it are data.
func ReadLastSheet(path string, headerRow int, opts frame.ParseOptions) (*frame.Frame, error) {
	rawOpts := excelize.Options{RawCellValue: true}

	f, err := excelize.OpenFile(path, rawOpts)
	if err != nil {
		return nil, apperrors.NewLoadError(path, "cannot open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewLoadError(path, "workbook has no sheets", nil)
	}
	sheet := sheets[len(sheets)-1]

	rows, err := f.GetRows(sheet, rawOpts)
	if err != nil {
		return nil, apperrors.NewLoadError(path, fmt.Sprintf("cannot read sheet %q", sheet), err)
	}
	if len(rows) <= headerRow {
		return nil, apperrors.NewLoadError(path,
			fmt.Sprintf("sheet %q has %d rows, header expected in row %d", sheet, len(rows), headerRow+1), nil).
			WithContext("sheet", sheet)
	}

	return frame.FromRecords(rows[headerRow], rows[headerRow+1:], opts), nil
}

// LoadTopM reads the TopM cost-center export. The first two columns become
// Hilfsmittel and Filiale, and KSt is derived from the branch label.
func LoadTopM(path string) (*frame.Frame, error) {
	f, err := ReadLastSheet(path, TopMHeaderRow, frame.ParseOptions{TextColumns: []int{0, 1}})
	if err != nil {
		return nil, err
	}

	cols := f.Columns()
	if len(cols) < 2 {
		return nil, apperrors.NewLoadError(path, "TopM report looks empty or has unexpected structure", nil).
			WithContext("columns", cols)
	}

	f, err = f.Rename(map[string]string{cols[0]: ColCategory, cols[1]: ColBranch})
	if err != nil {
		return nil, apperrors.NewLoadError(path, "TopM report has conflicting column names", err)
	}

	branches := f.Strings(ColBranch)
	costCenters := make([]string, len(branches))
	for i, b := range branches {
		costCenters[i] = CostCenterOf(b)
	}
	return f.WithStrings(ColCostCenter, costCenters), nil
}

// LoadAddison reads the Addison financial export.
func LoadAddison(path string) (*frame.Frame, error) {
	f, err := ReadLastSheet(path, AddisonHeaderRow, frame.ParseOptions{TextNames: []string{ColCostCenter, ColArt}})
	if err != nil {
		return nil, err
	}
	for _, col := range []string{ColCostCenter, ColArt} {
		if f.Has(col) {
			f = f.WithStrings(col, trimAll(f.Strings(col)))
		}
	}
	return f, nil
}

// CostCenterOf returns the cost center key of a branch label: its first
// five characters after trimming surrounding space.
func CostCenterOf(branch string) string {
	r := []rune(strings.TrimSpace(branch))
	if len(r) > costCenterLength {
		r = r[:costCenterLength]
	}
	return strings.TrimSpace(string(r))
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
