// Package mapping assigns ledger accounts to normalized bill records using
// ordered rule tables.
//
// A rule table is a priority-ordered decision list: the first row whose
// predicate holds wins, so rule authors put specific overrides above broader
// rows.
package mapping

import (
	"fmt"
	"strings"
)

// Category is a classification axis resolved against its own table.
type Category string

const (
	CategoryExpenses Category = "expenses"
	CategoryAssets   Category = "assets"
)

// SheetName returns the workbook sheet holding the category's table.
func (c Category) SheetName() string {
	switch c {
	case CategoryExpenses:
		return "Expenses"
	case CategoryAssets:
		return "Assets"
	}
	s := string(c)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Mode selects how a table row is matched against a record.
type Mode string

const (
	// ModeEqual matches on a single column by plain equality.
	ModeEqual Mode = "equal"
	// ModeAll requires every constrained column to be equal.
	ModeAll Mode = "all"
)

// Wildcard is the explicit "any value" cell marker. Empty cells are wildcards too.
const Wildcard = "*"

// MatchSpec is the rule for one category.
type MatchSpec struct {
	Columns []string
	Default string
	Mode    Mode
}

// EffectiveMode resolves an unset mode from the number of columns.
func (s MatchSpec) EffectiveMode() Mode {
	if s.Mode != "" {
		return s.Mode
	}
	if len(s.Columns) == 1 {
		return ModeEqual
	}
	return ModeAll
}

// Validate checks that the spec can be used by a Classifier.
func (s MatchSpec) Validate() error {
	switch s.EffectiveMode() {
	case ModeEqual:
		if len(s.Columns) != 1 {
			return fmt.Errorf("mode %q needs exactly one column, got %d", ModeEqual, len(s.Columns))
		}
	case ModeAll:
	default:
		return fmt.Errorf("unknown match mode %q", s.Mode)
	}
	return nil
}

// Row is one rule: match cells plus the identifier and account it yields.
type Row struct {
	ID    string
	Value string
	Cells map[string]string
}

// Cell returns the trimmed cell value for column.
func (r Row) Cell(column string) string {
	return strings.TrimSpace(r.Cells[column])
}

// Table is an ordered list of rows; earlier rows take priority.
type Table struct {
	Rows []Row
}

// NewTable creates a Table from rows in priority order.
func NewTable(rows ...Row) *Table {
	return &Table{Rows: rows}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func isWildcard(cell string) bool {
	return cell == "" || cell == Wildcard
}
