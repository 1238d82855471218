package dataprocessing

import (
	"fmt"

	apperrors "deltamerge/internal/errors"
	"deltamerge/internal/frame"
)

const (
	datasetTopM    = "TopM report"
	datasetAddison = "Addison report"
)

// requiredKPIColumns are the TopM columns every KPI is derived from.
var requiredKPIColumns = []string{ColRevenue, ColMargin, ColMarginWithSurcharge}

// DeriveKPIs drops the sentinel category rows and adds the ratio and
// Modifikationen columns to every remaining row.
func DeriveKPIs(f *frame.Frame) (*frame.Frame, error) {
	if missing := f.Missing(append([]string{ColCategory}, requiredKPIColumns...)...); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(datasetTopM, missing, f.Columns())
	}

	sentinels := setOf(SentinelCategories)
	clean := f.Filter(func(i int) bool {
		return !sentinels[f.Str(ColCategory, i)]
	})

	clean, err := requireNumeric(clean, datasetTopM, requiredKPIColumns...)
	if err != nil {
		return nil, err
	}

	clean = withRatio(clean, ColMarginRatio, ColMargin)
	clean = withRatio(clean, ColSurchargeRatio, ColMarginWithSurcharge)

	clean = ApplyRules(clean, ModificationRules)

	clean = withRatio(clean, ColModifiedRatio, ColModified)
	clean = withRatio(clean, ColModifiedSecondaryRatio, ColModifiedSecondary)
	return clean, nil
}

// withRatio sets column to numerator / revenue, null where revenue is zero or null.
func withRatio(f *frame.Frame, column, numerator string) *frame.Frame {
	num := f.Numbers(numerator)
	rev := f.Numbers(ColRevenue)
	out := make([]frame.Num, f.Len())
	for i := range out {
		out[i] = frame.Div(num[i], rev[i])
	}
	return f.WithNumbers(column, out)
}

// requireNumeric converts text columns whose cells all parse as numbers and
// fails with a schema error naming the first column that does not.
func requireNumeric(f *frame.Frame, dataset string, columns ...string) (*frame.Frame, error) {
	for _, col := range columns {
		kind, ok := f.Kind(col)
		if !ok || kind == frame.KindNumber {
			continue
		}
		vals := make([]frame.Num, f.Len())
		for i, s := range f.Strings(col) {
			n, ok := frame.ParseNum(s)
			if !ok {
				return nil, apperrors.NewAppError(apperrors.ErrTypeSchema,
					fmt.Sprintf("%s column %q is not numeric: data row %d holds %q", dataset, col, i+1, s), nil).
					WithContext("dataset", dataset).
					WithContext("column", col)
			}
			vals[i] = n
		}
		f = f.WithNumbers(col, vals)
	}
	return f, nil
}
