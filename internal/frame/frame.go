// Package frame provides the immutable, column-oriented table value that the
// report pipeline passes between stages.
//
// Every operation returns a new *Frame and leaves the receiver untouched.
// Unchanged columns are shared between frames; their backing slices are never
// written after construction, and accessors hand out copies.
package frame

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies how a column stores its cells.
type Kind int

const (
	// KindString columns hold text cells.
	KindString Kind = iota
	// KindNumber columns hold nullable numbers.
	KindNumber
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	default:
		return "unknown"
	}
}

type column struct {
	name string
	kind Kind
	strs []string
	nums []Num
}

// Frame is an ordered set of equally long named columns.
type Frame struct {
	cols  []column
	index map[string]int
	rows  int
}

// New returns a frame with no columns and n rows.
func New(n int) *Frame {
	return &Frame{index: map[string]int{}, rows: n}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return f.rows
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.name
	}
	return names
}

// Has reports whether the named column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Kind returns the kind of the named column.
func (f *Frame) Kind(name string) (Kind, bool) {
	i, ok := f.index[name]
	if !ok {
		return 0, false
	}
	return f.cols[i].kind, true
}

// Missing returns the names that are not columns of f, in the given order.
func (f *Frame) Missing(names ...string) []string {
	var missing []string
	for _, n := range names {
		if !f.Has(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// NumericColumns returns the names of all number columns in order.
func (f *Frame) NumericColumns() []string {
	var names []string
	for _, c := range f.cols {
		if c.kind == KindNumber {
			names = append(names, c.name)
		}
	}
	return names
}

// Str returns row i of the named column as text. Number cells are formatted,
// null cells and absent columns yield "".
func (f *Frame) Str(name string, i int) string {
	ci, ok := f.index[name]
	if !ok {
		return ""
	}
	c := f.cols[ci]
	if c.kind == KindNumber {
		return c.nums[i].String()
	}
	return c.strs[i]
}

// Num returns row i of the named column as a number. Text cells are parsed,
// unparsable text and absent columns yield null.
func (f *Frame) Num(name string, i int) Num {
	ci, ok := f.index[name]
	if !ok {
		return Null()
	}
	c := f.cols[ci]
	if c.kind == KindNumber {
		return c.nums[i]
	}
	n, _ := ParseNum(c.strs[i])
	return n
}

// Strings returns a copy of the named column as text.
func (f *Frame) Strings(name string) []string {
	if !f.Has(name) {
		return nil
	}
	out := make([]string, f.rows)
	for i := range out {
		out[i] = f.Str(name, i)
	}
	return out
}

// Numbers returns a copy of the named column as numbers.
func (f *Frame) Numbers(name string) []Num {
	if !f.Has(name) {
		return nil
	}
	out := make([]Num, f.rows)
	for i := range out {
		out[i] = f.Num(name, i)
	}
	return out
}

// WithStrings returns a frame where the named column holds a copy of vals.
// An existing column keeps its position; a new one is appended.
func (f *Frame) WithStrings(name string, vals []string) *Frame {
	f.mustMatch(name, len(vals))
	cp := make([]string, len(vals))
	copy(cp, vals)
	return f.with(column{name: name, kind: KindString, strs: cp})
}

// WithNumbers returns a frame where the named column holds a copy of vals.
// An existing column keeps its position; a new one is appended.
func (f *Frame) WithNumbers(name string, vals []Num) *Frame {
	f.mustMatch(name, len(vals))
	cp := make([]Num, len(vals))
	copy(cp, vals)
	return f.with(column{name: name, kind: KindNumber, nums: cp})
}

func (f *Frame) mustMatch(name string, n int) {
	if len(f.cols) > 0 && n != f.rows {
		panic(fmt.Sprintf("frame: column %q has %d rows, frame has %d", name, n, f.rows))
	}
}

func (f *Frame) with(c column) *Frame {
	out := f.clone()
	if len(out.cols) == 0 {
		out.rows = c.len()
	}
	if i, ok := out.index[c.name]; ok {
		out.cols[i] = c
		return out
	}
	out.index[c.name] = len(out.cols)
	out.cols = append(out.cols, c)
	return out
}

func (c column) len() int {
	if c.kind == KindNumber {
		return len(c.nums)
	}
	return len(c.strs)
}

func (f *Frame) clone() *Frame {
	out := &Frame{
		cols:  make([]column, len(f.cols), len(f.cols)+1),
		index: make(map[string]int, len(f.index)+1),
		rows:  f.rows,
	}
	copy(out.cols, f.cols)
	for k, v := range f.index {
		out.index[k] = v
	}
	return out
}

// Rename returns a frame with columns renamed according to names (old -> new).
// It fails when a new name collides with a column that is not itself renamed.
func (f *Frame) Rename(names map[string]string) (*Frame, error) {
	out := &Frame{index: make(map[string]int, len(f.cols)), rows: f.rows}
	for _, c := range f.cols {
		if n, ok := names[c.name]; ok {
			c.name = n
		}
		if _, dup := out.index[c.name]; dup {
			return nil, fmt.Errorf("rename: duplicate column %q", c.name)
		}
		out.index[c.name] = len(out.cols)
		out.cols = append(out.cols, c)
	}
	return out, nil
}

// Select returns a frame with the named columns in the given order.
// Names that are not columns of f are skipped.
func (f *Frame) Select(names ...string) *Frame {
	out := New(f.rows)
	for _, n := range names {
		if i, ok := f.index[n]; ok {
			if _, dup := out.index[n]; dup {
				continue
			}
			out.index[n] = len(out.cols)
			out.cols = append(out.cols, f.cols[i])
		}
	}
	return out
}

// Filter returns a frame holding the rows for which keep returns true,
// in their original order.
func (f *Frame) Filter(keep func(i int) bool) *Frame {
	var rows []int
	for i := 0; i < f.rows; i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	return f.Take(rows)
}

// Take returns a frame holding the given rows in the given order.
func (f *Frame) Take(rows []int) *Frame {
	out := New(len(rows))
	for _, c := range f.cols {
		nc := column{name: c.name, kind: c.kind}
		if c.kind == KindNumber {
			nc.nums = make([]Num, len(rows))
			for j, r := range rows {
				nc.nums[j] = c.nums[r]
			}
		} else {
			nc.strs = make([]string, len(rows))
			for j, r := range rows {
				nc.strs[j] = c.strs[r]
			}
		}
		out.index[nc.name] = len(out.cols)
		out.cols = append(out.cols, nc)
	}
	return out
}

// ParseOptions controls how FromRecords types its columns.
type ParseOptions struct {
	// TextColumns lists column positions that are never converted to numbers.
	TextColumns []int
	// TextNames lists column names that are never converted to numbers.
	TextNames []string
}

// FromRecords builds a frame from a header row and string records.
//
// Empty headers become "Unnamed: <pos>" and repeated headers get a ".<n>"
// suffix. Fully empty records are skipped. A column becomes a number column
// when it is not listed in opts and every non-empty cell parses as a number.
func FromRecords(header []string, records [][]string, opts ParseOptions) *Frame {
	width := len(header)
	var data [][]string
	for _, rec := range records {
		if isBlank(rec) {
			continue
		}
		if len(rec) > width {
			width = len(rec)
		}
		data = append(data, rec)
	}

	text := make(map[int]bool)
	for _, p := range opts.TextColumns {
		text[p] = true
	}
	textNames := make(map[string]bool)
	for _, n := range opts.TextNames {
		textNames[n] = true
	}

	names := normalizeHeader(header, width)
	out := New(len(data))
	for j, name := range names {
		cells := make([]string, len(data))
		for i, rec := range data {
			if j < len(rec) {
				cells[i] = rec[j]
			}
		}
		var c column
		if nums, ok := parseColumn(cells); ok && !text[j] && !textNames[name] {
			c = column{name: name, kind: KindNumber, nums: nums}
		} else {
			c = column{name: name, kind: KindString, strs: cells}
		}
		out.index[name] = len(out.cols)
		out.cols = append(out.cols, c)
	}
	return out
}

func isBlank(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func normalizeHeader(header []string, width int) []string {
	names := make([]string, width)
	seen := make(map[string]int, width)
	for j := 0; j < width; j++ {
		name := ""
		if j < len(header) {
			name = strings.ReplaceAll(header[j], "\r\n", "\n")
		}
		if strings.TrimSpace(name) == "" {
			name = "Unnamed: " + strconv.Itoa(j)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = name + "." + strconv.Itoa(n+1)
		} else {
			seen[name] = 0
		}
		names[j] = name
	}
	return names
}

func parseColumn(cells []string) ([]Num, bool) {
	nums := make([]Num, len(cells))
	for i, cell := range cells {
		n, ok := ParseNum(cell)
		if !ok {
			return nil, false
		}
		nums[i] = n
	}
	return nums, true
}
