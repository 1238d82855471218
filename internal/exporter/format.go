package exporter

import (
	"fmt"

	"deltamerge/internal/frame"
)

// percentNumFmt is the built-in excel number format "0.00%".
const percentNumFmt = 10

// formatAmount formats a number with exactly 2 decimal places; null is empty.
func formatAmount(n frame.Num) string {
	if !n.Valid {
		return ""
	}
	return fmt.Sprintf("%.2f", n.V)
}

// formatPercent formats a fraction as a percentage with 2 decimal places.
func formatPercent(n frame.Num) string {
	if !n.Valid {
		return ""
	}
	return fmt.Sprintf("%.2f%%", n.V*100)
}

// cellValue returns the value to write for row i of column col, or nil for
// an empty cell.
func cellValue(f *frame.Frame, col string, i int) interface{} {
	kind, _ := f.Kind(col)
	if kind == frame.KindNumber {
		n := f.Num(col, i)
		if !n.Valid {
			return nil
		}
		return n.V
	}
	s := f.Str(col, i)
	if s == "" {
		return nil
	}
	return s
}
