package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "deltamerge/internal/errors"
)

// workbookExtensions are the spreadsheet formats the loader can open.
var workbookExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
}

// FileValidator checks input and output paths before a run starts
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateWorkbook checks that path is a readable xlsx workbook. Failures
// are LOAD errors naming the dataset.
func (v *FileValidator) ValidateWorkbook(dataset, path string) error {
	if err := v.ValidateFile(path); err != nil {
		return apperrors.NewLoadError(path, fmt.Sprintf("%s is not usable", dataset), err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !workbookExtensions[ext] {
		v.logger.Error("File is not an Excel workbook",
			slog.String("file", path),
			slog.String("extension", ext))
		return apperrors.NewLoadError(path,
			fmt.Sprintf("%s %s is not an Excel workbook (extension: %q)", dataset, path, ext), nil)
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Temporary Excel lock file given as input",
			slog.String("file", path))
		return apperrors.NewLoadError(path,
			fmt.Sprintf("%s %s is a temporary Excel lock file", dataset, path), nil)
	}

	return nil
}

// ValidateOutputPath checks that path names an xlsx file whose directory
// exists or could be created and is writable. Nothing is created; the
// report writer makes the directory when it saves.
func (v *FileValidator) ValidateOutputPath(path string) error {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".xlsx" {
		return apperrors.NewAppValidationError(fmt.Sprintf("output %s must have the .xlsx extension", path)).
			WithContext("path", path)
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return apperrors.NewAppValidationError(fmt.Sprintf("output %s is a directory", path)).
			WithContext("path", path)
	}

	return v.ValidateOutputDirectory(filepath.Dir(path))
}

// ValidateOutputDirectory checks that dir, or its nearest existing ancestor
// when dir does not exist yet, is a writable directory
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	existing, err := nearestExisting(dir)
	if err != nil {
		v.logger.Error("Output directory cannot be created",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewExportError(dir, "output directory cannot be created", err)
	}

	// Verify it's writable by creating a test file
	file, err := os.CreateTemp(existing, ".write_test")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", existing),
			slog.String("error", err.Error()))
		return apperrors.NewExportError(dir, "output directory is not writable", err)
	}
	file.Close()
	os.Remove(file.Name())

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir),
		slog.String("existing", existing))
	return nil
}

// nearestExisting walks up from dir to the first path that exists. That
// path must be a directory.
func nearestExisting(dir string) (string, error) {
	for current := filepath.Clean(dir); ; {
		info, err := os.Stat(current)
		switch {
		case err == nil && info.IsDir():
			return current, nil
		case err == nil:
			return "", fmt.Errorf("%s is not a directory", current)
		case !os.IsNotExist(err):
			return "", err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("no existing ancestor of %s", dir)
		}
		current = parent
	}
}
