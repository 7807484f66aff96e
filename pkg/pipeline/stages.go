package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the layout of the canonical date key.
const DateLayout = "2006-01-02"

// DefaultRemarkSeparator joins remark parts when a RemarkStage has no separator.
const DefaultRemarkSeparator = " | "

var (
	errMissingField  = errors.New("field not present")
	errEmptyAmount   = errors.New("no digits left after cleanup")
	errNegativeValue = errors.New("amount is negative")
)

// Stage is one normalization step.
type Stage interface {
	// Name identifies the stage in errors and logs.
	Name() string
	// Apply returns a new record with the stage's output keys written.
	Apply(Record) (Record, error)
}

// DateStage parses Source with Layout and writes the date key as YYYY-MM-DD.
type DateStage struct {
	Source string
	Layout string
}

func (s DateStage) Name() string { return "date" }

func (s DateStage) Apply(r Record) (Record, error) {
	raw, ok := r[s.Source]
	if !ok {
		return nil, &FieldParseError{Stage: s.Name(), Field: s.Source, Err: errMissingField}
	}
	t, err := time.Parse(s.Layout, strings.TrimSpace(raw))
	if err != nil {
		return nil, &FieldParseError{Stage: s.Name(), Field: s.Source, Value: raw, Err: err}
	}
	return r.with(KeyDate, t.Format(DateLayout)), nil
}

// AmountStage strips everything but ASCII digits and '.' from Source and
// writes the remaining non-negative decimal to the amount key.
type AmountStage struct {
	Source string
}

func (s AmountStage) Name() string { return "amount" }

func (s AmountStage) Apply(r Record) (Record, error) {
	raw, ok := r[s.Source]
	if !ok {
		return nil, &FieldParseError{Stage: s.Name(), Field: s.Source, Err: errMissingField}
	}
	cleaned := CleanAmount(raw)
	if cleaned == "" {
		return nil, &FieldParseError{Stage: s.Name(), Field: s.Source, Value: raw, Err: errEmptyAmount}
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil, &FieldParseError{Stage: s.Name(), Field: s.Source, Value: raw, Err: err}
	}
	if d.IsNegative() {
		return nil, &FieldParseError{Stage: s.Name(), Field: s.Source, Value: raw, Err: errNegativeValue}
	}
	return r.with(KeyAmount, cleaned), nil
}

// CleanAmount keeps only ASCII digits and the decimal point.
func CleanAmount(s string) string {
	var sb strings.Builder
	for _, c := range s {
		if (c >= '0' && c <= '9') || c == '.' {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// RemarkStage joins Sources into the remark key. Missing fields, blank
// fields and the "/" sentinel are skipped. With KeepPrior an existing remark
// value goes first; a non-empty Tag goes last.
type RemarkStage struct {
	Sources   []string
	KeepPrior bool
	Tag       string
	Separator string
}

func (s RemarkStage) Name() string { return "remark" }

func (s RemarkStage) Apply(r Record) (Record, error) {
	var parts []string
	if s.KeepPrior {
		if prior, ok := usable(r, KeyRemark); ok {
			parts = append(parts, prior)
		}
	}
	for _, key := range s.Sources {
		if v, ok := usable(r, key); ok {
			parts = append(parts, v)
		}
	}
	if s.Tag != "" {
		parts = append(parts, s.Tag)
	}

	sep := s.Separator
	if sep == "" {
		sep = DefaultRemarkSeparator
	}
	return r.with(KeyRemark, strings.Join(parts, sep)), nil
}

func usable(r Record, key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == NoValue {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// StatusStage writes a fixed clearing status such as "*".
type StatusStage struct {
	Value string
}

func (s StatusStage) Name() string { return "status" }

func (s StatusStage) Apply(r Record) (Record, error) {
	return r.with(KeyStatus, s.Value), nil
}

// DescriptionStage copies Source verbatim into the description key.
type DescriptionStage struct {
	Source string
}

func (s DescriptionStage) Name() string { return "description" }

func (s DescriptionStage) Apply(r Record) (Record, error) {
	v, ok := r[s.Source]
	if !ok {
		// leave description absent; completeness validation drops the row
		return r.Clone(), nil
	}
	return r.with(KeyDescription, v), nil
}

// CurrencyStage writes a fixed currency code such as "CNY".
type CurrencyStage struct {
	Value string
}

func (s CurrencyStage) Name() string { return "currency" }

func (s CurrencyStage) Apply(r Record) (Record, error) {
	return r.with(KeyCurrency, s.Value), nil
}

// strftimeDirectives maps directives to Go layout elements. Numeric fields
// use the unpadded elements, which accept "1" and "01" alike, as strptime does.
var strftimeDirectives = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "1",
	'd': "2",
	'H': "15",
	'I': "3",
	'M': "4",
	'S': "5",
	'p': "PM",
	'b': "Jan",
	'B': "January",
	'%': "%",
}

// ParseLayout converts a strftime style format ("%Y-%m-%d %H:%M:%S") into a
// Go time layout. Formats without a '%' are returned unchanged so Go layouts
// can be configured directly.
func ParseLayout(format string) (string, error) {
	if !strings.Contains(format, "%") {
		return format, nil
	}
	var sb strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			sb.WriteByte(c)
			continue
		}
		if i+1 >= len(format) {
			return "", fmt.Errorf("dangling %% in date format %q", format)
		}
		i++
		layout, ok := strftimeDirectives[format[i]]
		if !ok {
			return "", fmt.Errorf("unsupported directive %%%c in date format %q", format[i], format)
		}
		sb.WriteString(layout)
	}
	return sb.String(), nil
}
