// Package importer reads design inputs: connector current tables from CSV
// and Excel, pad footprints from DXF, preplace files and the YAML design
// document that ties them together. Tabular and DXF imports collect row
// errors and warnings instead of failing on the first bad line.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/softpdn/internal/model"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Currents map[model.Signal]float64
	Pads     []model.Pad
	Errors   []string
	Warnings []string
}

// OK reports whether the import produced no errors.
func (r ImportResult) OK() bool {
	return len(r.Errors) == 0
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	Signal  int
	Current int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"signal":  {"signal", "net", "rail", "supply", "name", "power net"},
	"current": {"current", "i", "amps", "ampere", "a", "current (a)", "load"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Matching is case-insensitive. Without a recognisable header the mapping
// is positional: signal first, current second.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Signal: -1, Current: -1}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				switch role {
				case "signal":
					if mapping.Signal == -1 {
						mapping.Signal = i
					}
				case "current":
					if mapping.Current == -1 {
						mapping.Current = i
					}
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{Signal: 0, Current: 1}, false
	}
	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseRow extracts one current requirement. It returns the signal, the
// current and an error message when the row is unusable.
func parseRow(row []string, mapping ColumnMapping, rowLabel string) (model.Signal, float64, string) {
	name := getCell(row, mapping.Signal)
	if name == "" {
		return 0, 0, fmt.Sprintf("%s: Missing signal name", rowLabel)
	}
	sig, err := model.ParseSignal(name)
	if err != nil {
		return 0, 0, fmt.Sprintf("%s: Unknown signal '%s'", rowLabel, name)
	}
	if !sig.IsPower() {
		return 0, 0, fmt.Sprintf("%s: Signal %s is not a power net", rowLabel, sig)
	}

	curStr := getCell(row, mapping.Current)
	if curStr == "" {
		return 0, 0, fmt.Sprintf("%s: Missing current value", rowLabel)
	}
	cur, err := strconv.ParseFloat(curStr, 64)
	if err != nil {
		return 0, 0, fmt.Sprintf("%s: Invalid current '%s'", rowLabel, curStr)
	}
	if cur < 0 {
		return 0, 0, fmt.Sprintf("%s: Current must not be negative", rowLabel)
	}
	return sig, cur, ""
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCurrentsCSV imports per-net current requirements from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
func ImportCurrentsCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	var warnings []string
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		warnings = append(warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	result = ImportCurrentsFromReader(bytes.NewReader(data), delimiter)
	result.Warnings = append(warnings, result.Warnings...)
	return result
}

// ImportCurrentsFromReader imports current requirements from a CSV reader
// with a known delimiter.
func ImportCurrentsFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1
	csvReader.Comment = '#'

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line")
}

// ImportCurrentsExcel imports current requirements from the first sheet of
// an Excel workbook.
func ImportCurrentsExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row")
}

// ImportCurrents dispatches on the file extension.
func ImportCurrents(path string) ImportResult {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xlsm") {
		return ImportCurrentsExcel(path)
	}
	return ImportCurrentsCSV(path)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// A signal listed twice keeps its last value with a warning.
func importFromRows(rows [][]string, rowPrefix string) ImportResult {
	result := ImportResult{Currents: make(map[model.Signal]float64)}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		missing := []string{}
		if mapping.Signal == -1 {
			missing = append(missing, "Signal")
		}
		if mapping.Current == -1 {
			missing = append(missing, "Current")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) >= 2 {
		if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][1]), 64); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		sig, cur, errMsg := parseRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if _, dup := result.Currents[sig]; dup {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s listed again, using %g", rowLabel, sig, cur))
		}
		result.Currents[sig] = cur
	}

	if len(result.Currents) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
	}
	return result
}
