package mapping

import (
	"fmt"
	"strings"

	"github.com/shunichi-ikebuchi/beancount-helper/pkg/pipeline"
)

// Result is the outcome of classifying a record for one category.
type Result struct {
	ID      string // identifier of the matching row, empty for the default
	Account string // account path, empty when the category is unconfigured
	Matched bool   // true when a table row matched
}

// Found reports whether an account was assigned.
func (r Result) Found() bool {
	return r.Account != ""
}

// Classifier resolves accounts for records. It is read-only after
// construction and safe to share.
type Classifier struct {
	specs  map[Category]MatchSpec
	tables map[Category]*Table
}

// NewClassifier creates a Classifier. Every spec is validated; a category
// without a table classifies everything to its default.
func NewClassifier(specs map[Category]MatchSpec, tables map[Category]*Table) (*Classifier, error) {
	c := &Classifier{
		specs:  make(map[Category]MatchSpec, len(specs)),
		tables: make(map[Category]*Table, len(tables)),
	}
	for cat, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("invalid match spec for %s: %w", cat, err)
		}
		c.specs[cat] = spec
	}
	for cat, table := range tables {
		c.tables[cat] = table
	}
	return c, nil
}

// Classify returns the first table row for cat that matches rec, or the
// category default when none does. An unconfigured category, or one without
// match columns, yields the zero Result.
func (c *Classifier) Classify(cat Category, rec pipeline.Record) Result {
	spec, ok := c.specs[cat]
	if !ok || len(spec.Columns) == 0 {
		return Result{}
	}

	table := c.tables[cat]
	if table != nil {
		var match func(Row) bool
		switch spec.EffectiveMode() {
		case ModeEqual:
			column := spec.Columns[0]
			want := strings.TrimSpace(rec[column])
			match = func(row Row) bool {
				cell := row.Cell(column)
				return cell != "" && cell == want
			}
		default:
			match = func(row Row) bool {
				return matchAll(row, rec, spec.Columns)
			}
		}

		for _, row := range table.Rows {
			if match(row) {
				return Result{ID: row.ID, Account: row.Value, Matched: true}
			}
		}
	}

	return Result{Account: spec.Default}
}

// matchAll reports whether every constrained column of row equals the
// record. A row that constrains no column never matches.
func matchAll(row Row, rec pipeline.Record, columns []string) bool {
	constrained := 0
	for _, column := range columns {
		cell := row.Cell(column)
		if isWildcard(cell) {
			continue
		}
		constrained++
		if cell != strings.TrimSpace(rec[column]) {
			return false
		}
	}
	return constrained > 0
}
