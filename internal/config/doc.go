// Package config loads the runtime configuration of the report merge tool.
//
// # Configuration Sources
//
// Values are resolved in the following order, later sources winning:
//
//	1. Built-in defaults (see Default)
//	2. A YAML file, either passed explicitly or found in the working directory
//	3. Environment variables with the DELTAMERGE_ prefix
//
// # Environment Variables
//
//	DELTAMERGE_LOGGING_LEVEL=debug
//	DELTAMERGE_LOGGING_OUTPUT=both
//	DELTAMERGE_REPORT_OUTPUT_PATH=out/report.xlsx
//	DELTAMERGE_TELEMETRY_TRACE_EXPORTER=stdout
//	DELTAMERGE_TELEMETRY_METRICS_FILE=/var/lib/node_exporter/deltamerge.prom
//
// The KPI rules themselves (sentinel categories, override sets, column
// names) are fixed report constants and are deliberately not configurable.
package config
