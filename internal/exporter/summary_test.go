package exporter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deltamerge/internal/frame"
)

func TestSummary_Render(t *testing.T) {
	var buf bytes.Buffer
	s := Summary{Columns: []string{"KSt", "Quote", "Final", "Absent"}, Percent: []string{"Quote"}}

	require.NoError(t, s.Render(&buf, testReport()))

	out := buf.String()
	assert.Contains(t, out, "KSt")
	assert.NotContains(t, out, "Absent")
	assert.NotContains(t, out, "Filiale")
	assert.Contains(t, out, "10101")
	assert.Contains(t, out, "25.00%")
	assert.Contains(t, out, "950.00")
	assert.Contains(t, out, "-3.00")
	assert.Contains(t, out, "(2 cost centers)")
}

func TestSummary_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Summary{Columns: []string{"KSt"}}.Render(&buf, frame.New(0)))
	assert.Equal(t, "(0 cost centers)\n", buf.String())
}

func TestFormatHelpers(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"amount", formatAmount(frame.Of(1234.5)), "1234.50"},
		{"negative amount", formatAmount(frame.Of(-0.004)), "-0.00"},
		{"null amount", formatAmount(frame.Null()), ""},
		{"percent", formatPercent(frame.Of(0.1234)), "12.34%"},
		{"null percent", formatPercent(frame.Null()), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestCellValue(t *testing.T) {
	f := testReport()
	assert.Equal(t, 950.0, cellValue(f, "Final", 0))
	assert.Nil(t, cellValue(f, "Quote", 1))
	assert.Equal(t, "10101 Nord", cellValue(f, "Filiale", 0))
	assert.Nil(t, cellValue(f, "Filiale", 1))
}
