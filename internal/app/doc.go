// Package app wires one deltamerge run together.
//
// NewApplication loads the configuration (defaults, optional YAML file,
// DELTAMERGE_* environment variables), initializes the structured logger and
// OpenTelemetry, and builds the pipeline and report writer. Run validates the
// input workbooks and the output path, processes both exports and writes the
// report. Close writes the metrics textfile when one is configured and
// flushes telemetry.
//
// # Usage
//
//	err := app.Run(ctx, app.Options{
//	    TopM:    "Bericht_TopM.xlsx",
//	    Addison: "Addison_Export.xlsx",
//	})
//
// # Error Handling
//
// All errors are returned to the caller as *errors.AppError values. The app
// does not call os.Exit() directly, allowing the main function to control
// the exit process.
package app
