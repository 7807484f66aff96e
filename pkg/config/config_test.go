package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/beancount-helper/pkg/mapping"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BEANCOUNT_HELPER_HOME",
		"BEANCOUNT_LEDGER",
		"BEANCOUNT_RULES",
		"BEAN_CHECK_BIN",
		"BEANCOUNT_VERIFY_AFTER_COMMIT",
		"DEBUG",
	} {
		// godotenv never overrides a variable that is set, even to ""
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("BEANCOUNT_HELPER_HOME", home)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Nil(t, cfg)

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("BEAN_CHECK_BIN=/opt/bin/bean-check\n"), 0644))

	cfg, err = Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, home, cfg.Home)
	assert.Equal(t, filepath.Join(home, "bean", "moneybook.bean"), cfg.LedgerPath())
	assert.Equal(t, filepath.Join(home, "rule", "rules.yaml"), cfg.RulesPath())
	assert.Equal(t, "/opt/bin/bean-check", cfg.Beancount.BeanCheckBin)
	assert.False(t, cfg.Beancount.VerifyAfterCommit)
	assert.False(t, cfg.Debug)
}

func TestLoadFlags(t *testing.T) {
	clearEnv(t)
	t.Setenv("BEANCOUNT_HELPER_HOME", t.TempDir())
	t.Setenv("BEANCOUNT_VERIFY_AFTER_COMMIT", "true")
	t.Setenv("DEBUG", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Beancount.VerifyAfterCommit)
	assert.True(t, cfg.Debug)

	t.Setenv("DEBUG", "sometimes")
	_, err = Load()
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	cfg := &Config{Home: filepath.FromSlash("/data")}
	abs, err := filepath.Abs(filepath.FromSlash("/elsewhere/main.bean"))
	require.NoError(t, err)

	assert.Equal(t, abs, cfg.Resolve(abs))
	assert.Equal(t, filepath.Join(cfg.Home, "bean", "x.bean"), cfg.Resolve(filepath.Join("bean", "x.bean")))
	assert.Equal(t, "", cfg.Resolve(""))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		required [][]string
		wantErr  bool
	}{
		{
			name:     "all set",
			cfg:      Config{Home: "/data", Beancount: BeancountConfig{Ledger: "a", Rules: "b", BeanCheckBin: "c"}},
			required: [][]string{{"home"}, {"beancount", "ledger"}, {"beancount", "rules"}, {"beancount", "beanCheckBin"}},
		},
		{
			name:     "missing ledger",
			cfg:      Config{Home: "/data"},
			required: [][]string{{"beancount", "ledger"}},
			wantErr:  true,
		},
		{
			name:     "nothing required",
			cfg:      Config{},
			required: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(tt.required...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRulesSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rule", "rules.yaml")
	require.NoError(t, DefaultRules().Save(path))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"alipay", "wechat"}, rules.Types())
	assert.Equal(t, DefaultRules(), rules)

	wechat, err := rules.Get("wechat")
	require.NoError(t, err)
	assert.Equal(t, []mapping.Category{mapping.CategoryExpenses, mapping.CategoryAssets}, wechat.Categories())

	specs := wechat.MatchSpecs()
	assert.Equal(t, mapping.ModeAll, specs[mapping.CategoryExpenses].EffectiveMode())
	assert.Equal(t, mapping.ModeEqual, specs[mapping.CategoryAssets].EffectiveMode())
	assert.Equal(t, "Assets:Node", specs[mapping.CategoryAssets].Default)

	bill := wechat.BillSpec()
	assert.Equal(t, "金额(元)", bill.AmountColumn)
	assert.Equal(t, "wechat", bill.Tag)
	assert.Equal(t, 16, wechat.CSVOptions().SkipRows)
	assert.Equal(t, "gb18030", wechat.MappedCSVOptions().Encoding)

	_, err = rules.Get("paypal")
	assert.Error(t, err)
}

func TestLoadRulesRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no mapping file", "bank:\n  bill:\n    date_column: d\n    date_format: \"%Y\"\n    amount_column: a\n"},
		{"no amount column", "bank:\n  mapping_file: m.xlsx\n  bill:\n    date_column: d\n    date_format: \"%Y\"\n"},
		{"equal mode with two columns", "bank:\n  mapping_file: m.xlsx\n  match_columns:\n    assets:\n      columns: [a, b]\n      mode: equal\n  bill:\n    date_column: d\n    date_format: \"%Y\"\n    amount_column: a\n"},
		{"not yaml", "bank: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "rules.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))
			_, err := LoadRules(path)
			assert.Error(t, err)
		})
	}
}
