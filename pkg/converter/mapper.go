// Package converter turns decoded bill records into ledger transactions:
// the Mapper assigns debit and credit accounts, the Materializer normalizes
// the mapped rows and builds beancount.Transaction values from them.
package converter

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shunichi-ikebuchi/beancount-helper/pkg/mapping"
	"github.com/shunichi-ikebuchi/beancount-helper/pkg/pipeline"
)

// MapperConfig configures a Mapper.
type MapperConfig struct {
	Classifier *mapping.Classifier
	// IncomeColumn and IncomeValue mark income rows. For those rows the asset
	// account is debited and the expense account credited.
	IncomeColumn string
	IncomeValue  string
	Logger       *slog.Logger
}

// Mapper assigns accounts to bill records.
type Mapper struct {
	classifier   *mapping.Classifier
	incomeColumn string
	incomeValue  string
	logger       *slog.Logger
}

// NewMapper creates a new Mapper.
func NewMapper(cfg MapperConfig) (*Mapper, error) {
	if cfg.Classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{
		classifier:   cfg.Classifier,
		incomeColumn: cfg.IncomeColumn,
		incomeValue:  cfg.IncomeValue,
		logger:       logger,
	}, nil
}

// IsIncome reports whether rec is marked as income.
func (m *Mapper) IsIncome(rec pipeline.Record) bool {
	if m.incomeColumn == "" {
		return false
	}
	return strings.TrimSpace(rec[m.incomeColumn]) == m.incomeValue
}

// MapRecord returns a copy of rec with the debit_id, debit, credit_id and
// credit keys written.
func (m *Mapper) MapRecord(rec pipeline.Record) pipeline.Record {
	expense := m.classifier.Classify(mapping.CategoryExpenses, rec)
	asset := m.classifier.Classify(mapping.CategoryAssets, rec)

	debit, credit := expense, asset
	if m.IsIncome(rec) {
		debit, credit = asset, expense
	}

	if !debit.Found() || !credit.Found() {
		m.logger.Debug("record has an unassigned side",
			"debit", debit.Account,
			"credit", credit.Account)
	}

	out := rec.Clone()
	out[pipeline.KeyDebitID] = debit.ID
	out[pipeline.KeyDebit] = debit.Account
	out[pipeline.KeyCreditID] = credit.ID
	out[pipeline.KeyCredit] = credit.Account
	return out
}

// MapStats summarizes a MapRecords run.
type MapStats struct {
	Records   int
	Income    int
	Defaulted  int // records where at least one side fell back to the default
	Unassigned int // records where a side got no account at all
}

// MapRecords maps every record in order.
func (m *Mapper) MapRecords(records []pipeline.Record) ([]pipeline.Record, MapStats) {
	out := make([]pipeline.Record, 0, len(records))
	var stats MapStats
	for i, rec := range records {
		mapped := m.MapRecord(rec)
		out = append(out, mapped)

		stats.Records++
		if m.IsIncome(rec) {
			stats.Income++
		}
		if mapped[pipeline.KeyDebit] == "" || mapped[pipeline.KeyCredit] == "" {
			stats.Unassigned++
		}
		if mapped[pipeline.KeyDebitID] == "" || mapped[pipeline.KeyCreditID] == "" {
			stats.Defaulted++
			m.logger.Debug("record fell back to a default account",
				"row", i+1,
				"debit", mapped[pipeline.KeyDebit],
				"credit", mapped[pipeline.KeyCredit])
		}
	}

	m.logger.Info("Mapped bill records",
		"records", stats.Records,
		"income", stats.Income,
		"defaulted", stats.Defaulted,
		"unassigned", stats.Unassigned)
	return out, stats
}

// MappedColumns are the columns MapRecord adds to a bill.
var MappedColumns = []string{
	pipeline.KeyDebitID,
	pipeline.KeyDebit,
	pipeline.KeyCreditID,
	pipeline.KeyCredit,
}
