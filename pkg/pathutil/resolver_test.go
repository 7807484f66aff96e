package pathutil

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	home := filepath.FromSlash("/data")
	p := New(Config{Home: home})

	assert.Equal(t, filepath.Join(home, "bean", "moneybook.bean"), p.GetLedgerPath())
	assert.Equal(t, filepath.Join(home, "rule", "rules.yaml"), p.GetRulesPath())
	assert.Equal(t, filepath.Join(home, ".sync", "history.db"), p.GetDatabasePath())
	assert.Equal(t, filepath.Join(home, "rule", "wechat_rule.xlsx"), p.Resolve(filepath.Join("rule", "wechat_rule.xlsx")))
}

func TestRunPaths(t *testing.T) {
	home := t.TempDir()
	ledger := filepath.Join(home, "books", "main.bean")
	p := New(Config{Home: home, LedgerPath: ledger})

	now := time.Date(2025, 2, 26, 13, 24, 0, 0, time.UTC)
	stem := NewRunStem(now)
	assert.Regexp(t, regexp.MustCompile(`^2025-02-26_13-24-00_[1-9]\d{3}$`), stem)

	assert.Equal(t, filepath.Join(home, "books", stem+".bean"), p.GetOutputBeanPath(stem))
	assert.Equal(t, filepath.Join(home, "temp", stem+".csv"), p.GetTempCSVPath(stem))
	assert.Equal(t, filepath.Join(home, "logs", "log_2025-02-26.log"), p.GetLogFilePath(now))
}

func TestEnsureLayout(t *testing.T) {
	home := filepath.Join(t.TempDir(), "data")
	p := New(Config{Home: home})

	require.NoError(t, p.EnsureLayout(false))
	for _, sub := range Subdirectories {
		assert.True(t, p.IsDir(filepath.Join(home, sub)), sub)
	}

	marker := filepath.Join(home, "bean", "keep.bean")
	require.NoError(t, os.WriteFile(marker, nil, 0644))

	require.NoError(t, p.EnsureLayout(false))
	assert.True(t, p.FileExists(marker))

	require.NoError(t, p.EnsureLayout(true))
	assert.False(t, p.FileExists(marker))
	assert.True(t, p.IsDir(filepath.Join(home, "temp")))
}

func TestEnsureLayoutNeedsHome(t *testing.T) {
	assert.Error(t, New(Config{}).EnsureLayout(false))
}
