package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// TableConfig locates the rate table file the server serves from.
type TableConfig struct {
	// Path to the rate table. The format is picked by extension:
	// .xlsx, .csv, .yaml or .yml.
	Path string `json:"path" yaml:"path"`
	// Sheet selects the worksheet for .xlsx files. Empty means the first
	// sheet in the workbook.
	Sheet string `json:"sheet" yaml:"sheet"`
}

// DefaultTableConfig returns the default table configuration
func DefaultTableConfig() TableConfig {
	return TableConfig{
		Path:  "",
		Sheet: "",
	}
}

// Validate validates the table configuration. An empty path is allowed here;
// the server decides whether it can run without a table.
func (t *TableConfig) Validate() error {
	if t.Path == "" {
		return nil
	}

	ext := strings.ToLower(filepath.Ext(t.Path))
	switch ext {
	case ".xlsx", ".csv", ".yaml", ".yml":
		return nil
	default:
		return fmt.Errorf("table.path has unsupported format %q, must be .xlsx, .csv, .yaml or .yml", ext)
	}
}
