package config

// Application constants
const (
	// Application Info
	AppName    = "deltamerge"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable, e.g. DELTAMERGE_LOGGING_LEVEL.
	EnvPrefix = "DELTAMERGE"

	// Report defaults
	DefaultOutputPath = "outputs/Ergebnis_final_strukturiert.xlsx"
	DefaultSheetName  = "Auswertung"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogOutput = "console"
	DefaultLogFile   = "logs/deltamerge.log"

	// Telemetry
	DefaultTraceExporter = "none"
)

// configFileLocations are searched in order when no config file is given.
var configFileLocations = []string{
	"deltamerge.yaml",
	"configs/deltamerge.yaml",
}
