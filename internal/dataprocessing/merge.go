package dataprocessing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "deltamerge/internal/errors"
	"deltamerge/internal/frame"
)

// zeroFilledColumns are the Addison figures that count as 0 when missing.
var zeroFilledColumns = []string{ArtRevenue, ArtCost}

// Merge left-joins the reshaped Addison figures onto the aggregated TopM
// frame by KSt and computes Aufwendungen final.
//
// Every TopM row is kept in its order; cost centers without Addison figures
// get null Addison columns. An Addison column whose name is already a TopM
// column is added with a "_y" suffix. Umsatzerlöse and the cost column are
// created when absent and their nulls become 0. Rohergebnis keeps its nulls.
// Aufwendungen final stays null for cost centers without TopM revenue.
func Merge(topm, addison *frame.Frame) (*frame.Frame, error) {
	if missing := topm.Missing(ColCostCenter, ColRevenue, ColModifiedRatio); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(datasetTopM, missing, topm.Columns())
	}
	if missing := addison.Missing(ColCostCenter); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(datasetAddison, missing, addison.Columns())
	}

	out := joinLeft(topm, addison)

	for _, c := range zeroFilledColumns {
		vals := out.Numbers(c)
		if vals == nil {
			vals = make([]frame.Num, out.Len())
		}
		for i, v := range vals {
			if !v.Valid {
				vals[i] = frame.Of(0)
			}
		}
		out = out.WithNumbers(c, vals)
	}

	final, err := finalCost(out)
	if err != nil {
		return nil, err
	}
	return out.WithNumbers(ColFinalCost, final), nil
}

// joinLeft appends the columns of right to left, matching rows on KSt.
// The first right row of a key is used.
func joinLeft(left, right *frame.Frame) *frame.Frame {
	rightRow := make(map[string]int, right.Len())
	for i, k := range right.Strings(ColCostCenter) {
		if _, ok := rightRow[k]; !ok {
			rightRow[k] = i
		}
	}

	keys := left.Strings(ColCostCenter)
	matched := make([]int, len(keys))
	for i, k := range keys {
		if r, ok := rightRow[k]; ok {
			matched[i] = r
		} else {
			matched[i] = -1
		}
	}

	out := left
	for _, c := range right.Columns() {
		if c == ColCostCenter {
			continue
		}
		name := c
		if left.Has(name) {
			name = c + "_y"
		}
		kind, _ := right.Kind(c)
		if kind == frame.KindNumber {
			src := right.Numbers(c)
			vals := make([]frame.Num, len(keys))
			for i, r := range matched {
				if r >= 0 {
					vals[i] = src[r]
				}
			}
			out = out.WithNumbers(name, vals)
		} else {
			src := right.Strings(c)
			vals := make([]string, len(keys))
			for i, r := range matched {
				if r >= 0 {
					vals[i] = src[r]
				}
			}
			out = out.WithStrings(name, vals)
		}
	}
	return out
}

// Unmatched returns the TopM cost centers that have no Addison row.
func Unmatched(topm, addison *frame.Frame) []string {
	known := setOf(addison.Strings(ColCostCenter))
	var out []string
	for _, k := range topm.Strings(ColCostCenter) {
		if !known[k] {
			out = append(out, k)
		}
	}
	return out
}

// finalCost computes Umsatzerlöse × (1 − DBI_pct_Modifikationen) + cost for
// every row in decimal arithmetic, rounded to whole units with halves away
// from zero. A cost center with zero TopM revenue has no ratio and gets a
// null value; any other null ratio is a computation error.
func finalCost(f *frame.Frame) ([]frame.Num, error) {
	topmRevenue := f.Numbers(ColRevenue)
	revenue := f.Numbers(ArtRevenue)
	cost := f.Numbers(ArtCost)
	ratios := f.Numbers(ColModifiedRatio)
	keys := f.Strings(ColCostCenter)

	one := decimal.NewFromInt(1)
	out := make([]frame.Num, f.Len())
	var broken []string
	for i := range out {
		if !ratios[i].Valid && topmRevenue[i].OrZero() == 0 {
			continue
		}
		if !ratios[i].Valid || !revenue[i].Valid || !cost[i].Valid {
			broken = append(broken, keys[i])
			continue
		}
		v := decimal.NewFromFloat(revenue[i].V).
			Mul(one.Sub(decimal.NewFromFloat(ratios[i].V))).
			Add(decimal.NewFromFloat(cost[i].V)).
			Round(0)
		out[i] = frame.Of(v.InexactFloat64())
	}

	if len(broken) > 0 {
		return nil, apperrors.NewComputationError(fmt.Sprintf(
			"%s is null for cost centers %s; %s cannot be computed",
			ColModifiedRatio, strings.Join(broken, ", "), ColFinalCost)).
			WithContext("cost_centers", broken)
	}
	return out, nil
}
