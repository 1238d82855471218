package dataprocessing

import (
	"sort"

	apperrors "deltamerge/internal/errors"
	"deltamerge/internal/frame"
)

// ReshapeAddison turns the long Addison export into one row per cost center.
//
// Rows are limited to the relevant Art values. Each Art present gets a column
// of summed Wert4 values, ordered by Art name. Revenue and cost also get a
// cumulative column of summed Wert6 values; those two columns always exist.
// Cost center and Art combinations without rows stay null.
func ReshapeAddison(f *frame.Frame) (*frame.Frame, error) {
	if missing := f.Missing(ColCostCenter, ColArt, ColWert4, ColWert6); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(datasetAddison, missing, f.Columns())
	}

	relevant := setOf(RelevantArts)
	sub := f.Filter(func(i int) bool {
		return relevant[f.Str(ColArt, i)] && f.Str(ColCostCenter, i) != ""
	})

	sub, err := requireNumeric(sub, datasetAddison, ColWert4, ColWert6)
	if err != nil {
		return nil, err
	}

	keys := sub.Strings(ColCostCenter)
	arts := sub.Strings(ColArt)
	order, _ := groupRows(keys)
	index := make(map[string]int, len(order))
	for i, k := range order {
		index[k] = i
	}

	var present []string
	for art := range setOf(arts) {
		present = append(present, art)
	}
	sort.Strings(present)

	out := frame.New(len(order)).WithStrings(ColCostCenter, order)
	for _, art := range present {
		out = out.WithNumbers(art, pivotSum(keys, arts, sub.Numbers(ColWert4), art, index))
	}
	for _, c := range CumulativeArts {
		out = out.WithNumbers(c.Column, pivotSum(keys, arts, sub.Numbers(ColWert6), c.Art, index))
	}
	return out, nil
}

// pivotSum sums values of rows with the given art per cost center. Cost
// centers without such rows are null.
func pivotSum(keys, arts []string, values []frame.Num, art string, index map[string]int) []frame.Num {
	out := make([]frame.Num, len(index))
	for i, a := range arts {
		if a != art {
			continue
		}
		g := index[keys[i]]
		if !out[g].Valid {
			out[g] = frame.Of(0)
		}
		if values[i].Valid {
			out[g] = frame.Add(out[g], values[i])
		}
	}
	return out
}
