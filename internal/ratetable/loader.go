package ratetable

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// Load reads the rate table at path. The format is picked by extension:
// .xlsx (sheet selects the worksheet, empty means the first one), .csv, or
// .yaml/.yml. The first header row names the columns.
func Load(path, sheet string) (*Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx":
		return loadXLSX(path, sheet)
	case ".csv":
		return loadCSV(path)
	case ".yaml", ".yml":
		return loadYAML(path)
	default:
		return nil, fmt.Errorf("unsupported rate table format: %s", ext)
	}
}

func loadXLSX(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	return build(records)
}

func loadCSV(path string) (*Table, error) {
	f, err := os.Open(path) // #nosec G304 - path comes from validated config
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // ragged rows are padded in build

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return build(records)
}

// loadYAML reads a list of row objects. Column order follows the key order
// of the first entry, which a plain map unmarshal would lose, so the
// document is walked as yaml.Node trees.
func loadYAML(path string) (*Table, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from validated config
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if len(doc.Content) == 0 {
		return build(nil)
	}

	root := doc.Content[0]
	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("rate table %s must be a list of row objects", path)
	}

	var headers []string
	index := make(map[string]int)
	var records [][]string

	for _, entry := range root.Content {
		if entry.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("rate table %s entries must be objects", path)
		}
		record := make([]string, len(headers))
		for i := 0; i+1 < len(entry.Content); i += 2 {
			key := entry.Content[i].Value
			val := entry.Content[i+1].Value
			col, seen := index[key]
			if !seen {
				col = len(headers)
				index[key] = col
				headers = append(headers, key)
				record = append(record, "")
			}
			record[col] = val
		}
		records = append(records, record)
	}

	if headers == nil {
		return build(nil)
	}
	return build(append([][]string{headers}, records...))
}

// build assembles a Table from raw records, applying the cleaning rules of
// the source loader: headers trimmed, key cells trimmed, slab cells coerced
// to numbers with non-numeric values treated as missing, and rows whose
// cells are all empty dropped.
func build(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return &Table{}, nil
	}

	columns := make([]string, len(records[0]))
	for i, h := range records[0] {
		columns[i] = strings.TrimSpace(h)
	}

	table := &Table{Columns: columns}

	for _, record := range records[1:] {
		row := make(Row, len(columns))
		empty := true

		for i, col := range columns {
			var raw string
			if i < len(record) {
				raw = strings.TrimSpace(record[i])
			}
			if raw != "" {
				empty = false
			}

			cell := Value{Raw: raw}
			if num, err := strconv.ParseFloat(raw, 64); err == nil {
				cell.Num = num
				cell.IsNum = true
			}

			// Slab cells carry only their numeric reading
			if col == ColLowerSlab || col == ColHigherSlab {
				if !cell.IsNum {
					cell = Value{}
				}
			}

			row[col] = cell
		}

		if empty {
			continue
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}
