package mapping

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Default column names of a rule workbook.
const (
	DefaultIDColumn    = "编号"
	DefaultValueColumn = "值"
)

// WorkbookLayout names the distinguished columns of a rule workbook.
type WorkbookLayout struct {
	IDColumn    string
	ValueColumn string
}

func (l WorkbookLayout) withDefaults() WorkbookLayout {
	if l.IDColumn == "" {
		l.IDColumn = DefaultIDColumn
	}
	if l.ValueColumn == "" {
		l.ValueColumn = DefaultValueColumn
	}
	return l
}

// LoadWorkbook reads one Table per category from the sheets of an .xlsx
// rule workbook (sheet "Expenses" for expenses, "Assets" for assets). Row
// order in the sheet is kept as match priority.
func LoadWorkbook(path string, layout WorkbookLayout, categories ...Category) (map[Category]*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rule workbook: %w", err)
	}
	defer f.Close()

	layout = layout.withDefaults()
	tables := make(map[Category]*Table, len(categories))
	for _, cat := range categories {
		table, err := readSheet(f, cat.SheetName(), layout)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s rules from %s: %w", cat, path, err)
		}
		tables[cat] = table
	}
	return tables, nil
}

func readSheet(f *excelize.File, sheet string, layout WorkbookLayout) (*Table, error) {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q has no header row", sheet)
	}

	header := rows[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if !contains(header, layout.IDColumn) || !contains(header, layout.ValueColumn) {
		return nil, fmt.Errorf("sheet %q must have %q and %q columns", sheet, layout.IDColumn, layout.ValueColumn)
	}

	table := &Table{}
	for _, row := range rows[1:] {
		cells := make(map[string]string, len(header))
		blank := true
		for i, value := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			value = strings.TrimSpace(value)
			if value != "" {
				blank = false
			}
			cells[header[i]] = value
		}
		if blank {
			continue
		}
		table.Rows = append(table.Rows, Row{
			ID:    cells[layout.IDColumn],
			Value: cells[layout.ValueColumn],
			Cells: cells,
		})
	}
	return table, nil
}

// InitWorkbook writes an empty rule workbook at path with one sheet per
// category, each holding only its header row.
func InitWorkbook(path string, headers map[Category][]string, categories ...Category) error {
	f := excelize.NewFile()
	defer f.Close()

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, cat := range categories {
		sheet := cat.SheetName()
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}

		for col, name := range headers[cat] {
			cell, err := excelize.CoordinatesToCellName(col+1, 1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, name); err != nil {
				return fmt.Errorf("failed to write header %s: %w", name, err)
			}
			if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
				return fmt.Errorf("failed to style header %s: %w", name, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save rule workbook: %w", err)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
