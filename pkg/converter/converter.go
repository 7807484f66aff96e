package converter

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/beancount-helper/pkg/beancount"
	"github.com/shunichi-ikebuchi/beancount-helper/pkg/pipeline"
)

// candidate holds the canonical fields of a normalized, mapped record.
type candidate struct {
	Date        string  `validate:"required"`
	Status      string  `validate:"required"`
	Description string  `validate:"required"`
	Amount      string  `validate:"required"`
	Currency    string  `validate:"required"`
	Remark      *string `validate:"required"`
	Debit       string  `validate:"required"`
	Credit      string  `validate:"required"`
	Index       string
}

func candidateFrom(rec pipeline.Record) candidate {
	c := candidate{
		Date:        rec[pipeline.KeyDate],
		Status:      rec[pipeline.KeyStatus],
		Description: rec[pipeline.KeyDescription],
		Amount:      rec[pipeline.KeyAmount],
		Currency:    rec[pipeline.KeyCurrency],
		Debit:       rec[pipeline.KeyDebit],
		Credit:      rec[pipeline.KeyCredit],
		Index:       rec[pipeline.KeyIndex],
	}
	if remark, ok := rec.Lookup(pipeline.KeyRemark); ok {
		c.Remark = &remark
	}
	return c
}

// Batch is the outcome of materializing a set of records.
type Batch struct {
	Transactions []beancount.Transaction
	// Dropped counts records missing a required field after normalization.
	Dropped int
	// Failed counts records a normalizer stage could not parse.
	Failed int
	// Errors holds the parse error of every failed record, in input order.
	Errors []error
}

// Total returns the number of records the batch was built from.
func (b Batch) Total() int {
	return len(b.Transactions) + b.Dropped + b.Failed
}

// Materializer turns mapped records into transactions.
type Materializer struct {
	pipeline *pipeline.Pipeline
	validate *validator.Validate
	logger   *slog.Logger
}

// NewMaterializer creates a new Materializer.
func NewMaterializer(p *pipeline.Pipeline, logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{
		pipeline: p,
		validate: validator.New(),
		logger:   logger,
	}
}

// Materialize normalizes every record and builds a Transaction for each
// complete one, preserving input order. Incomplete records are skipped and
// counted.
func (m *Materializer) Materialize(records []pipeline.Record) Batch {
	var batch Batch
	for i, rec := range records {
		row := i + 1

		normalized, err := m.pipeline.Run(rec)
		if err != nil {
			batch.Failed++
			batch.Errors = append(batch.Errors, fmt.Errorf("row %d: %w", row, err))
			m.logger.Warn("Failed to normalize record", "row", row, "error", err)
			continue
		}

		txn, err := m.build(normalized)
		if err != nil {
			batch.Dropped++
			m.logger.Debug("Dropped incomplete record", "row", row, "reason", err)
			continue
		}
		batch.Transactions = append(batch.Transactions, txn)
	}

	m.logger.Info("Materialized transactions",
		"records", len(records),
		"transactions", len(batch.Transactions),
		"dropped", batch.Dropped,
		"failed", batch.Failed)
	return batch
}

func (m *Materializer) build(rec pipeline.Record) (beancount.Transaction, error) {
	c := candidateFrom(rec)
	if err := m.validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return beancount.Transaction{}, fmt.Errorf("missing %s", verrs[0].Field())
		}
		return beancount.Transaction{}, err
	}

	date, err := time.Parse(pipeline.DateLayout, c.Date)
	if err != nil {
		return beancount.Transaction{}, fmt.Errorf("failed to parse date: %w", err)
	}
	amount, err := decimal.NewFromString(c.Amount)
	if err != nil {
		return beancount.Transaction{}, fmt.Errorf("failed to parse amount: %w", err)
	}

	return beancount.NewTransaction(beancount.Transaction{
		Date:        date,
		Status:      c.Status,
		Description: c.Description,
		Remark:      *c.Remark,
		Debit:       c.Debit,
		Credit:      c.Credit,
		Amount:      amount,
		Currency:    c.Currency,
		Index:       c.Index,
	})
}
