package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/shunichi-ikebuchi/beancount-helper/pkg/billcsv"
	"github.com/shunichi-ikebuchi/beancount-helper/pkg/mapping"
	"github.com/shunichi-ikebuchi/beancount-helper/pkg/pipeline"
)

// Rules maps an account type ("wechat", "alipay") to its rule.
type Rules map[string]AccountRule

// AccountRule describes how one payment platform's bill is mapped and
// normalized.
type AccountRule struct {
	MappingFile     string                 `yaml:"mapping_file"`
	MatchColumns    map[string]MatchColumn `yaml:"match_columns"`
	WorkbookHeaders map[string][]string    `yaml:"workbook_headers,omitempty"`
	Bill            BillRule               `yaml:"bill"`
}

// MatchColumn is the match rule for one category.
type MatchColumn struct {
	Columns []string `yaml:"columns"`
	Default string   `yaml:"default"`
	Mode    string   `yaml:"mode,omitempty"`
}

// BillRule describes the bill export layout.
type BillRule struct {
	SkipRows          int      `yaml:"skip_rows"`
	Encoding          string   `yaml:"encoding"`
	DateColumn        string   `yaml:"date_column"`
	DateFormat        string   `yaml:"date_format"`
	AmountColumn      string   `yaml:"amount_column"`
	RemarkColumns     []string `yaml:"remark_columns"`
	DescriptionColumn string   `yaml:"description_column"`
	IncomeColumn      string   `yaml:"income_column"`
	IncomeValue       string   `yaml:"income_value"`
	Status            string   `yaml:"status"`
	Currency          string   `yaml:"currency"`
	Tag               string   `yaml:"tag,omitempty"`
	// MappedEncoding is the encoding of the intermediate mapped CSV.
	MappedEncoding string `yaml:"mapped_encoding"`
}

// LoadRules reads a rules file.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	for name, rule := range rules {
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("invalid rule %q: %w", name, err)
		}
	}
	return rules, nil
}

// Save writes the rules as YAML, creating the parent directory.
func (r Rules) Save(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create rules directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write rules file: %w", err)
	}
	return nil
}

// Types returns the configured account types, sorted.
func (r Rules) Types() []string {
	types := make([]string, 0, len(r))
	for name := range r {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

// Get returns the rule for accountType.
func (r Rules) Get(accountType string) (AccountRule, error) {
	rule, ok := r[accountType]
	if !ok {
		return AccountRule{}, fmt.Errorf("unknown account type %q (configured: %v)", accountType, r.Types())
	}
	return rule, nil
}

// Validate checks the fields needed to map and normalize a bill.
func (a AccountRule) Validate() error {
	if a.MappingFile == "" {
		return fmt.Errorf("mapping_file is required")
	}
	if a.Bill.DateColumn == "" || a.Bill.DateFormat == "" {
		return fmt.Errorf("bill.date_column and bill.date_format are required")
	}
	if a.Bill.AmountColumn == "" {
		return fmt.Errorf("bill.amount_column is required")
	}
	if a.Bill.SkipRows < 0 {
		return fmt.Errorf("bill.skip_rows must not be negative")
	}
	for cat, spec := range a.MatchSpecs() {
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("match_columns.%s: %w", cat, err)
		}
	}
	return nil
}

// MatchSpecs converts the match columns to classifier specs.
func (a AccountRule) MatchSpecs() map[mapping.Category]mapping.MatchSpec {
	specs := make(map[mapping.Category]mapping.MatchSpec, len(a.MatchColumns))
	for name, mc := range a.MatchColumns {
		specs[mapping.Category(name)] = mapping.MatchSpec{
			Columns: mc.Columns,
			Default: mc.Default,
			Mode:    mapping.Mode(mc.Mode),
		}
	}
	return specs
}

// Categories returns the configured categories in sheet order.
func (a AccountRule) Categories() []mapping.Category {
	var cats []mapping.Category
	for _, cat := range []mapping.Category{mapping.CategoryExpenses, mapping.CategoryAssets} {
		if _, ok := a.MatchColumns[string(cat)]; ok {
			cats = append(cats, cat)
		}
	}
	return cats
}

// Headers returns the workbook headers per category.
func (a AccountRule) Headers() map[mapping.Category][]string {
	headers := make(map[mapping.Category][]string, len(a.WorkbookHeaders))
	for name, cols := range a.WorkbookHeaders {
		headers[mapping.Category(name)] = cols
	}
	return headers
}

// BillSpec returns the normalizer configuration.
func (a AccountRule) BillSpec() pipeline.BillSpec {
	return pipeline.BillSpec{
		DateColumn:        a.Bill.DateColumn,
		DateFormat:        a.Bill.DateFormat,
		AmountColumn:      a.Bill.AmountColumn,
		RemarkColumns:     a.Bill.RemarkColumns,
		DescriptionColumn: a.Bill.DescriptionColumn,
		Status:            a.Bill.Status,
		Currency:          a.Bill.Currency,
		Tag:               a.Bill.Tag,
	}
}

// CSVOptions returns the decoding options of the raw bill.
func (a AccountRule) CSVOptions() billcsv.Options {
	return billcsv.Options{SkipRows: a.Bill.SkipRows, Encoding: a.Bill.Encoding}
}

// MappedCSVOptions returns the decoding options of the mapped CSV.
func (a AccountRule) MappedCSVOptions() billcsv.Options {
	return billcsv.Options{Encoding: a.Bill.MappedEncoding}
}

// DefaultRules returns the WeChat Pay and Alipay rules.
func DefaultRules() Rules {
	return Rules{
		"wechat": {
			MappingFile: filepath.Join("rule", "wechat_rule.xlsx"),
			MatchColumns: map[string]MatchColumn{
				"expenses": {Columns: []string{"交易类型", "交易对方", "商品"}, Default: "Expenses:Node"},
				"assets":   {Columns: []string{"支付方式"}, Default: "Assets:Node"},
			},
			WorkbookHeaders: map[string][]string{
				"expenses": {"编号", "交易类型", "交易对方", "商品", "值", "备注"},
				"assets":   {"编号", "交易类型", "支付方式", "当前状态", "值", "备注"},
			},
			Bill: BillRule{
				SkipRows:          16,
				Encoding:          "utf-8",
				DateColumn:        "交易时间",
				DateFormat:        "%Y/%m/%d %H:%M",
				AmountColumn:      "金额(元)",
				RemarkColumns:     []string{"交易对方", "备注"},
				DescriptionColumn: "交易对方",
				IncomeColumn:      "收/支",
				IncomeValue:       "收入",
				Status:            "*",
				Currency:          "CNY",
				Tag:               "wechat",
				MappedEncoding:    "gb18030",
			},
		},
		"alipay": {
			MappingFile: filepath.Join("rule", "alipay_rule.xlsx"),
			MatchColumns: map[string]MatchColumn{
				"expenses": {Columns: []string{"交易分类", "交易对方", "商品说明"}, Default: "Expenses:Node"},
				"assets":   {Columns: []string{"收/付款方式"}, Default: "Assets:Node"},
			},
			WorkbookHeaders: map[string][]string{
				"expenses": {"编号", "交易分类", "交易对方", "商品说明", "值", "备注"},
				"assets":   {"编号", "收/付款方式", "值", "备注"},
			},
			Bill: BillRule{
				SkipRows:          24,
				Encoding:          "gbk",
				DateColumn:        "交易时间",
				DateFormat:        "%Y-%m-%d %H:%M:%S",
				AmountColumn:      "金额",
				RemarkColumns:     []string{"交易对方", "备注"},
				DescriptionColumn: "交易对方",
				IncomeColumn:      "收/支",
				IncomeValue:       "收入",
				Status:            "*",
				Currency:          "CNY",
				Tag:               "alipay",
				MappedEncoding:    "gb18030",
			},
		},
	}
}
