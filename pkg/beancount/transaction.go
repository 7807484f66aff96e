// Package beancount provides the posting entity, its text format and the
// staged commit of new postings into a Beancount ledger.
package beancount

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the date format of a posting header.
const DateLayout = "2006-01-02"

// Transaction is a two-leg posting. The debit leg carries Amount and the
// credit leg its negation, so every Transaction balances.
type Transaction struct {
	Date        time.Time
	Status      string
	Description string
	Remark      string
	Debit       string // account receiving +Amount
	Credit      string // account receiving -Amount
	Amount      decimal.Decimal
	Currency    string
	Index       string // optional external reference
}

// NewTransaction validates the posting invariants and returns the Transaction.
func NewTransaction(txn Transaction) (Transaction, error) {
	var problems []string
	if txn.Date.IsZero() {
		problems = append(problems, "date is required")
	}
	if strings.TrimSpace(txn.Debit) == "" {
		problems = append(problems, "debit account is required")
	}
	if strings.TrimSpace(txn.Credit) == "" {
		problems = append(problems, "credit account is required")
	}
	if txn.Amount.IsNegative() {
		problems = append(problems, "amount must not be negative")
	}
	if strings.TrimSpace(txn.Currency) == "" {
		problems = append(problems, "currency is required")
	}
	if len(problems) > 0 {
		return Transaction{}, errors.New("invalid transaction: " + strings.Join(problems, ", "))
	}
	return txn, nil
}

// Posting is one leg of a Transaction.
type Posting struct {
	Account  string
	Amount   decimal.Decimal
	Currency string
}

// Postings returns the debit and credit legs.
func (t Transaction) Postings() [2]Posting {
	return [2]Posting{
		{Account: t.Debit, Amount: t.Amount, Currency: t.Currency},
		{Account: t.Credit, Amount: t.Amount.Neg(), Currency: t.Currency},
	}
}

// String formats the transaction as a posting block, preceded by a blank line:
//
//	<date> <status> "<description>" "<remark>"
//		<debit>			<amount> <currency>
//		<credit>			-<amount> <currency>
func (t Transaction) String() string {
	amount := FormatAmount(t.Amount)

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%s %s %s %s\n", t.Date.Format(DateLayout), t.Status, quote(t.Description), quote(t.Remark)))
	sb.WriteString(fmt.Sprintf("\t%s\t\t\t%s %s\n", t.Debit, amount, t.Currency))
	sb.WriteString(fmt.Sprintf("\t%s\t\t\t-%s %s\n", t.Credit, amount, t.Currency))
	return sb.String()
}

// FormatAmount renders d with a period separator, keeping the scale it was
// parsed with ("128.50" stays "128.50").
func FormatAmount(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", " ", "\r", " ")

func quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}

// FormatTransactions concatenates the posting blocks of txns in order.
func FormatTransactions(txns []Transaction) string {
	var sb strings.Builder
	for _, txn := range txns {
		sb.WriteString(txn.String())
	}
	return sb.String()
}
