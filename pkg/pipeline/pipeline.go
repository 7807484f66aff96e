package pipeline

import "fmt"

// Pipeline runs its stages strictly in order over one record.
type Pipeline struct {
	stages []Stage
}

// New creates a Pipeline from stages, applied in the given order.
func New(stages ...Stage) *Pipeline {
	return &Pipeline{stages: append([]Stage(nil), stages...)}
}

// Stages returns the configured stages in execution order.
func (p *Pipeline) Stages() []Stage {
	return append([]Stage(nil), p.stages...)
}

// Run applies every stage to a copy of r. The first failing stage aborts the
// run and its error is returned; r itself is never modified.
func (p *Pipeline) Run(r Record) (Record, error) {
	cur := r.Clone()
	for _, s := range p.stages {
		next, err := s.Apply(cur)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", s.Name(), err)
		}
		cur = next
	}
	return cur, nil
}

// BillSpec configures the standard normalizer for one bill export.
type BillSpec struct {
	DateColumn        string
	DateFormat        string
	AmountColumn      string
	RemarkColumns     []string
	DescriptionColumn string
	Status            string
	Currency          string
	Tag               string
}

// NewBillPipeline builds the standard stage order: date, amount, remark,
// status, description, currency.
func NewBillPipeline(spec BillSpec) (*Pipeline, error) {
	layout, err := ParseLayout(spec.DateFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to parse date format: %w", err)
	}

	status := spec.Status
	if status == "" {
		status = "*"
	}
	currency := spec.Currency
	if currency == "" {
		currency = "CNY"
	}

	return New(
		DateStage{Source: spec.DateColumn, Layout: layout},
		AmountStage{Source: spec.AmountColumn},
		RemarkStage{Sources: spec.RemarkColumns, KeepPrior: true, Tag: spec.Tag},
		StatusStage{Value: status},
		DescriptionStage{Source: spec.DescriptionColumn},
		CurrencyStage{Value: currency},
	), nil
}
