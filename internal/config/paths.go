package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// Paths contains the resolved file locations of one run
type Paths struct {
	TopMFile    string
	AddisonFile string
	OutputFile  string
	OutputDir   string
	LogFile     string
}

// ResolvePaths turns the CLI arguments into absolute paths. An empty output
// falls back to the configured report path.
func ResolvePaths(cfg *Config, topm, addison, output string) (*Paths, error) {
	if strings.TrimSpace(output) == "" {
		output = cfg.Report.OutputPath
	}

	p := &Paths{}
	for _, r := range []struct {
		name string
		in   string
		out  *string
	}{
		{"topm", topm, &p.TopMFile},
		{"addison", addison, &p.AddisonFile},
		{"out", output, &p.OutputFile},
	} {
		if strings.TrimSpace(r.in) == "" {
			return nil, fmt.Errorf("%s path is required", r.name)
		}
		abs, err := filepath.Abs(r.in)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s path %q: %w", r.name, r.in, err)
		}
		*r.out = abs
	}
	p.OutputDir = filepath.Dir(p.OutputFile)

	if cfg.Logging.Output != "console" && cfg.Logging.FilePath != "" {
		abs, err := filepath.Abs(cfg.Logging.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve log file path: %w", err)
		}
		p.LogFile = abs
	}

	return p, nil
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Debug("Path resolution summary",
		slog.Group("inputs",
			slog.String("topm", p.TopMFile),
			slog.String("addison", p.AddisonFile),
		),
		slog.Group("outputs",
			slog.String("report", p.OutputFile),
			slog.String("log_file", p.LogFile),
		))
}
