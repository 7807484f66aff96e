// Package pipeline normalizes raw bill rows into canonical posting candidates.
//
// A Pipeline is an explicitly ordered list of typed stages. Each stage reads
// one or more keys of a Record and returns a new Record with its output keys
// written; the input Record is never modified.
package pipeline

// Canonical keys written by the normalizer stages and the account mapper.
const (
	KeyDate        = "date"
	KeyAmount      = "amount"
	KeyRemark      = "remark"
	KeyStatus      = "status"
	KeyDescription = "description"
	KeyCurrency    = "currency"
	KeyDebitID     = "debit_id"
	KeyDebit       = "debit"
	KeyCreditID    = "credit_id"
	KeyCredit      = "credit"
	KeyIndex       = "index"
)

// NoValue is the sentinel bill exports use for an empty cell.
const NoValue = "/"

// Record maps a column name to its cell value.
type Record map[string]string

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r)+4)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Lookup returns the value for key and whether it is present.
func (r Record) Lookup(key string) (string, bool) {
	v, ok := r[key]
	return v, ok
}

// with returns a copy of r with key set to value.
func (r Record) with(key, value string) Record {
	out := r.Clone()
	out[key] = value
	return out
}
