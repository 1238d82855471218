package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"deltamerge/internal/config"
	dp "deltamerge/internal/dataprocessing"
	apperrors "deltamerge/internal/errors"
	"deltamerge/internal/infrastructure"
)

// setupRun isolates the global logger and quiets it for the test.
func setupRun(t *testing.T) {
	t.Helper()
	infrastructure.ResetLoggerForTesting()
	t.Cleanup(infrastructure.ResetLoggerForTesting)
	t.Setenv("DELTAMERGE_LOGGING_LEVEL", "error")
	t.Setenv("DELTAMERGE_LOGGING_OUTPUT", "console")
	t.Setenv("DELTAMERGE_TELEMETRY_TRACE_EXPORTER", "none")
	t.Setenv("DELTAMERGE_TELEMETRY_METRICS_FILE", "")
}

func saveSheet(t *testing.T, dir, name string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func preamble(n int) [][]interface{} {
	rows := make([][]interface{}, n)
	for i := range rows {
		rows[i] = []interface{}{"Export"}
	}
	return rows
}

func writeInputs(t *testing.T, topmHeader []interface{}) (string, string) {
	t.Helper()
	dir := t.TempDir()

	topm := append(preamble(dp.TopMHeaderRow),
		topmHeader,
		[]interface{}{"Alle Hilfsmittel", "10101 Nord", 9, 9000, 900, 950},
		[]interface{}{"10 - Gehhilfen", "10101 Nord", 2, 1000, 100, 150},
		[]interface{}{"04 - Bandagen", "30303 Ost", 4, 2000, 500, 500},
	)
	addison := append(preamble(dp.AddisonHeaderRow),
		[]interface{}{"Filiale", dp.ColCostCenter, dp.ColArt, dp.ColWert4, dp.ColWert6},
		[]interface{}{"Nord", 10101, dp.ArtRevenue, 1200, 5000},
		[]interface{}{"Nord", 10101, dp.ArtCost, 300, 1400},
	)

	return saveSheet(t, dir, "topm.xlsx", topm), saveSheet(t, dir, "addison.xlsx", addison)
}

func validTopMHeader() []interface{} {
	return []interface{}{"", "", dp.ColOrders, dp.ColRevenue, dp.ColMargin, dp.ColMarginWithSurcharge}
}

func TestRun_WritesReport(t *testing.T) {
	setupRun(t)
	topm, addison := writeInputs(t, validTopMHeader())
	out := filepath.Join(t.TempDir(), "outputs", "Ergebnis.xlsx")

	var stdout bytes.Buffer
	err := Run(context.Background(), Options{TopM: topm, Addison: addison, Out: out, Stdout: &stdout})
	require.NoError(t, err)

	assert.Equal(t, "Done. Output written to: "+out+"\n", stdout.String())

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Auswertung"}, f.GetSheetList())
	rows, err := f.GetRows("Auswertung")
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus two cost centers")
	assert.Equal(t, dp.ColCostCenter, rows[0][0])
	assert.Equal(t, "10101", rows[1][0])
	assert.Equal(t, "30303", rows[2][0])
}

func TestRun_Summary(t *testing.T) {
	setupRun(t)
	topm, addison := writeInputs(t, validTopMHeader())
	out := filepath.Join(t.TempDir(), "report.xlsx")

	var stdout bytes.Buffer
	err := Run(context.Background(), Options{TopM: topm, Addison: addison, Out: out, Summary: true, Stdout: &stdout})
	require.NoError(t, err)

	text := stdout.String()
	assert.Contains(t, text, "10101 Nord")
	assert.Contains(t, text, "(2 cost centers)")
	assert.Contains(t, text, "Done. Output written to: "+out)
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name     string
		inputs   func(t *testing.T) (string, string)
		wantType apperrors.ErrorType
		contains string
	}{
		{
			name: "missing TopM file",
			inputs: func(t *testing.T) (string, string) {
				_, addison := writeInputs(t, validTopMHeader())
				return filepath.Join(t.TempDir(), "absent.xlsx"), addison
			},
			wantType: apperrors.ErrTypeLoad,
			contains: "TopM report is not usable",
		},
		{
			name: "TopM without revenue column",
			inputs: func(t *testing.T) (string, string) {
				return writeInputs(t, []interface{}{"", "", dp.ColOrders, "Umsatz", dp.ColMargin, dp.ColMarginWithSurcharge})
			},
			wantType: apperrors.ErrTypeSchema,
			contains: "is missing required columns",
		},
		{
			name: "Addison given as csv",
			inputs: func(t *testing.T) (string, string) {
				topm, _ := writeInputs(t, validTopMHeader())
				csv := filepath.Join(t.TempDir(), "addison.csv")
				require.NoError(t, os.WriteFile(csv, []byte("KSt;Art\n"), 0644))
				return topm, csv
			},
			wantType: apperrors.ErrTypeLoad,
			contains: "is not an Excel workbook",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupRun(t)
			topm, addison := tt.inputs(t)
			out := filepath.Join(t.TempDir(), "outputs", "report.xlsx")

			var stdout bytes.Buffer
			err := Run(context.Background(), Options{TopM: topm, Addison: addison, Out: out, Stdout: &stdout})
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.wantType), err.Error())
			assert.Contains(t, err.Error(), tt.contains)

			assert.Empty(t, stdout.String())
			_, statErr := os.Stat(filepath.Dir(out))
			assert.True(t, os.IsNotExist(statErr), "no output directory on failure")
		})
	}
}

func TestRun_ConfigErrors(t *testing.T) {
	setupRun(t)
	topm, addison := writeInputs(t, validTopMHeader())

	t.Run("invalid log level flag", func(t *testing.T) {
		err := Run(context.Background(), Options{TopM: topm, Addison: addison, LogLevel: "chatty"})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	})

	t.Run("missing config file", func(t *testing.T) {
		err := Run(context.Background(), Options{
			TopM: topm, Addison: addison,
			ConfigPath: filepath.Join(t.TempDir(), "absent.yaml"),
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	})

	t.Run("missing input path", func(t *testing.T) {
		err := Run(context.Background(), Options{Addison: addison})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "topm path is required")
	})
}

func TestRun_ConfigFileSheetName(t *testing.T) {
	setupRun(t)
	topm, addison := writeInputs(t, validTopMHeader())
	out := filepath.Join(t.TempDir(), "report.xlsx")

	cfgPath := filepath.Join(t.TempDir(), "deltamerge.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("report:\n  sheet_name: KSt-Auswertung\n"), 0644))

	err := Run(context.Background(), Options{TopM: topm, Addison: addison, Out: out, ConfigPath: cfgPath, Stdout: &bytes.Buffer{}})
	require.NoError(t, err)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"KSt-Auswertung"}, f.GetSheetList())
}

func TestRun_MetricsFile(t *testing.T) {
	setupRun(t)
	metricsPath := filepath.Join(t.TempDir(), "metrics", "deltamerge.prom")
	t.Setenv("DELTAMERGE_TELEMETRY_METRICS_FILE", metricsPath)

	topm, addison := writeInputs(t, []interface{}{"", "", dp.ColOrders, "Umsatz", dp.ColMargin, dp.ColMarginWithSurcharge})
	err := Run(context.Background(), Options{TopM: topm, Addison: addison, Out: filepath.Join(t.TempDir(), "r.xlsx"), Stdout: &bytes.Buffer{}})
	require.Error(t, err)

	data, readErr := os.ReadFile(metricsPath)
	require.NoError(t, readErr)
	text := string(data)
	assert.Contains(t, text, "deltamerge_run_duration")
	assert.Contains(t, text, `error_type="SCHEMA"`)
	assert.Contains(t, text, "deltamerge_rows_loaded")
}

func TestRun_KeepsCallerTraceID(t *testing.T) {
	setupRun(t)
	logPath := filepath.Join(t.TempDir(), "logs", "deltamerge.log")
	t.Setenv("DELTAMERGE_LOGGING_LEVEL", "info")
	t.Setenv("DELTAMERGE_LOGGING_OUTPUT", "file")
	t.Setenv("DELTAMERGE_LOGGING_FILE_PATH", logPath)

	topm, addison := writeInputs(t, validTopMHeader())
	ctx := infrastructure.WithTraceID(context.Background(), "run-20261016")

	err := Run(ctx, Options{TopM: topm, Addison: addison, Out: filepath.Join(t.TempDir(), "r.xlsx"), Stdout: &bytes.Buffer{}})
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	logs := string(data)
	assert.Contains(t, logs, `"msg":"Run started"`)
	assert.Contains(t, logs, `"trace_id":"run-20261016"`)
	assert.Contains(t, logs, `"span_trace_id":"`)
	assert.NotContains(t, logs, `"span_trace_id":""`, "runs are always sampled")
}

func TestNewApplication_TelemetryFailureClosesLogFile(t *testing.T) {
	setupRun(t)
	t.Setenv("DELTAMERGE_LOGGING_OUTPUT", "file")
	t.Setenv("DELTAMERGE_LOGGING_FILE_PATH", filepath.Join(t.TempDir(), "deltamerge.log"))

	origInit, origClose := initializeOTel, closeLogFile
	t.Cleanup(func() { initializeOTel, closeLogFile = origInit, origClose })

	initializeOTel = func(config.TelemetryConfig, *slog.Logger) (*infrastructure.OTelProviders, error) {
		return nil, assert.AnError
	}
	closed := 0
	closeLogFile = func() error {
		closed++
		return origClose()
	}

	topm, addison := writeInputs(t, validTopMHeader())
	_, err := NewApplication(Options{TopM: topm, Addison: addison})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, closed, "the log file is released")
}

func TestErrorType(t *testing.T) {
	assert.Equal(t, "", errorType(nil))
	assert.Equal(t, "EXPORT", errorType(apperrors.NewExportError("x.xlsx", "cannot save report", nil)))
	assert.Equal(t, "UNKNOWN", errorType(assert.AnError))
}
