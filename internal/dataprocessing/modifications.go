package dataprocessing

import "deltamerge/internal/frame"

// RowView gives a rule read access to the numeric cells of one row,
// including the outputs of earlier rules.
type RowView struct {
	cols map[string][]frame.Num
	row  int
}

// Num returns the cell of the named column, null when the column is absent.
func (r RowView) Num(column string) frame.Num {
	vals, ok := r.cols[column]
	if !ok {
		return frame.Null()
	}
	return vals[r.row]
}

// Rule sets Target to Value for every row whose category matches.
// A nil Match matches every row.
type Rule struct {
	Name   string
	Target string
	Match  func(category string) bool
	Value  func(RowView) frame.Num
}

func inCategories(categories []string) func(string) bool {
	set := setOf(categories)
	return func(c string) bool { return set[c] }
}

func copyOf(column string) func(RowView) frame.Num {
	return func(r RowView) frame.Num { return r.Num(column) }
}

// ModificationRules derive Modifikationen and Modifikationen_09_32. Rules
// run in order and a later rule overwrites an earlier one on the same target,
// so a category listed in both override sets keeps set A's Modifikationen and
// gets set B's revenue share in Modifikationen_09_32.
var ModificationRules = []Rule{
	{
		Name:   "seed modified margin",
		Target: ColModified,
		Value:  copyOf(ColMargin),
	},
	{
		Name:   "override set A",
		Target: ColModified,
		Match:  inCategories(OverrideSetA),
		Value:  copyOf(ColMarginWithSurcharge),
	},
	{
		Name:   "seed secondary modified margin",
		Target: ColModifiedSecondary,
		Value:  copyOf(ColModified),
	},
	{
		Name:   "override set B",
		Target: ColModifiedSecondary,
		Match:  inCategories(OverrideSetB),
		Value: func(r RowView) frame.Num {
			return frame.Mul(r.Num(ColRevenue), frame.Of(SecondaryRevenueShare))
		},
	},
}

// ApplyRules evaluates rules row by row and returns f with every rule target
// set. Targets that are not yet columns start out null and are appended in
// the order they first appear in rules.
func ApplyRules(f *frame.Frame, rules []Rule) *frame.Frame {
	n := f.Len()
	categories := f.Strings(ColCategory)
	if categories == nil {
		categories = make([]string, n)
	}

	cols := make(map[string][]frame.Num)
	for _, name := range f.NumericColumns() {
		cols[name] = f.Numbers(name)
	}

	var targets []string
	seen := make(map[string]bool)
	for _, r := range rules {
		if seen[r.Target] {
			continue
		}
		seen[r.Target] = true
		targets = append(targets, r.Target)
		if _, ok := cols[r.Target]; !ok {
			cols[r.Target] = make([]frame.Num, n)
		}
	}

	for i := 0; i < n; i++ {
		view := RowView{cols: cols, row: i}
		for _, r := range rules {
			if r.Match == nil || r.Match(categories[i]) {
				cols[r.Target][i] = r.Value(view)
			}
		}
	}

	out := f
	for _, t := range targets {
		out = out.WithNumbers(t, cols[t])
	}
	return out
}
