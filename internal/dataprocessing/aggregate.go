package dataprocessing

import (
	"sort"

	apperrors "deltamerge/internal/errors"
	"deltamerge/internal/frame"
)

// groupRows partitions row indexes by the values of keys. Groups are returned
// in ascending key order; rows inside a group keep their original order.
func groupRows(keys []string) ([]string, map[string][]int) {
	groups := make(map[string][]int)
	for i, k := range keys {
		groups[k] = append(groups[k], i)
	}
	order := make([]string, 0, len(groups))
	for k := range groups {
		order = append(order, k)
	}
	sort.Strings(order)
	return order, groups
}

// Aggregate collapses the row-level KPI frame to one row per cost center.
//
// Every numeric column except the ratios is summed with nulls skipped. The
// ratios are then recomputed from the summed numerators and revenue, never
// from the row-level ratios. Filiale holds the most frequent branch label of
// the group; ties go to the label seen first.
func Aggregate(f *frame.Frame) (*frame.Frame, error) {
	required := []string{ColCostCenter, ColBranch, ColRevenue}
	for _, r := range Ratios {
		required = append(required, r.Numerator)
	}
	if missing := f.Missing(required...); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(datasetTopM, missing, f.Columns())
	}

	ratioCols := setOf(RatioColumns())
	var sumCols []string
	for _, c := range f.NumericColumns() {
		if !ratioCols[c] && c != ColCostCenter {
			sumCols = append(sumCols, c)
		}
	}

	order, groups := groupRows(f.Strings(ColCostCenter))
	branches := f.Strings(ColBranch)

	out := frame.New(len(order)).WithStrings(ColCostCenter, order)
	for _, c := range sumCols {
		vals := f.Numbers(c)
		sums := make([]frame.Num, len(order))
		for g, key := range order {
			members := make([]frame.Num, len(groups[key]))
			for j, row := range groups[key] {
				members[j] = vals[row]
			}
			sums[g] = frame.Sum(members)
		}
		out = out.WithNumbers(c, sums)
	}

	for _, r := range Ratios {
		out = withRatio(out, r.Column, r.Numerator)
	}

	reps := make([]string, len(order))
	for g, key := range order {
		labels := make([]string, len(groups[key]))
		for j, row := range groups[key] {
			labels[j] = branches[row]
		}
		reps[g] = Mode(labels)
	}
	return out.WithStrings(ColBranch, reps), nil
}

// Mode returns the most frequent non-empty value. Ties resolve to the value
// that occurs first; an input without non-empty values yields "".
func Mode(values []string) string {
	counts := make(map[string]int)
	var firstSeen []string
	for _, v := range values {
		if v == "" {
			continue
		}
		if counts[v] == 0 {
			firstSeen = append(firstSeen, v)
		}
		counts[v]++
	}

	best := ""
	for _, v := range firstSeen {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best
}
