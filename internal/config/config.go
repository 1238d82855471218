package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// ReportConfig contains output report settings
type ReportConfig struct {
	OutputPath string `yaml:"output_path" envconfig:"OUTPUT_PATH" validate:"required"`
	SheetName  string `yaml:"sheet_name" envconfig:"SHEET_NAME" validate:"required,max=31"`
}

// TelemetryConfig controls tracing and run metrics
type TelemetryConfig struct {
	// TraceExporter is "none" or "stdout" (spans written to stderr).
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout"`
	// MetricsFile, when set, receives the run metrics in Prometheus text format.
	MetricsFile string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

var validate = validator.New()

// Load loads configuration from defaults, an optional YAML file and
// environment variables. An empty path searches the default locations.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Unset variables leave the field untouched, so env only overrides.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// OverrideLogLevel replaces the configured log level, e.g. from a command
// line flag. An empty level keeps the configured one.
func (c *Config) OverrideLogLevel(level string) error {
	if strings.TrimSpace(level) == "" {
		return nil
	}
	c.Logging.Level = level
	return c.validate()
}

// loadFromFile overlays the YAML file at filePath onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)
	c.Logging.Output = strings.ToLower(c.Logging.Output)
	c.Telemetry.TraceExporter = strings.ToLower(c.Telemetry.TraceExporter)

	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, formatValidationError(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := err.Namespace()
	param := err.Param()

	switch err.Tag() {
	case "required", "required_unless":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	for _, location := range configFileLocations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   DefaultLogOutput,
			FilePath: DefaultLogFile,
		},
		Report: ReportConfig{
			OutputPath: DefaultOutputPath,
			SheetName:  DefaultSheetName,
		},
		Telemetry: TelemetryConfig{
			TraceExporter: DefaultTraceExporter,
		},
	}
}
