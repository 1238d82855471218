package exporter

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"deltamerge/internal/frame"
)

// Summary renders selected report columns as a console table.
type Summary struct {
	// Columns are printed in order; absent columns are skipped.
	Columns []string
	// Percent columns are printed as percentages.
	Percent []string
}

// Render writes the table for f to w.
func (s Summary) Render(w io.Writer, f *frame.Frame) error {
	if f.Len() == 0 {
		_, _ = fmt.Fprintln(w, "(0 cost centers)")
		return nil
	}

	var cols []string
	for _, c := range s.Columns {
		if f.Has(c) {
			cols = append(cols, c)
		}
	}
	percent := make(map[string]bool, len(s.Percent))
	for _, c := range s.Percent {
		percent[c] = true
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, 0, len(cols))
	for i, c := range cols {
		header[i] = c
		if kind, _ := f.Kind(c); kind == frame.KindNumber {
			configs = append(configs, table.ColumnConfig{Number: i + 1, Align: text.AlignRight})
		}
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	for i := 0; i < f.Len(); i++ {
		row := make(table.Row, len(cols))
		for j, c := range cols {
			row[j] = summaryCell(f, c, i, percent[c])
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d cost centers)\n", f.Len())
	return nil
}

func summaryCell(f *frame.Frame, col string, i int, percent bool) string {
	if kind, _ := f.Kind(col); kind != frame.KindNumber {
		return f.Str(col, i)
	}
	if percent {
		return formatPercent(f.Num(col, i))
	}
	return formatAmount(f.Num(col, i))
}
