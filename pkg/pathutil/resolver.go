// Package pathutil provides centralized path management for the data directory.
package pathutil

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

// Data directory sub-directories.
const (
	BeanDir = "bean"
	RuleDir = "rule"
	LogDir  = "logs"
	TempDir = "temp"
)

// Subdirectories are created by EnsureLayout, in order.
var Subdirectories = []string{BeanDir, RuleDir, LogDir, TempDir}

// RunStemLayout is the time prefix of per-run output names.
const RunStemLayout = "2006-01-02_15-04-05"

// PathResolver manages paths for the ledger, rules, logs and run outputs.
type PathResolver struct {
	home         string
	ledgerPath   string
	rulesPath    string
	databasePath string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// Home is the data directory (e.g., ~/.local/share/beancount_helper/data)
	Home string
	// LedgerPath is the main ledger file
	LedgerPath string
	// RulesPath is the rules.yaml file
	RulesPath string
	// DatabasePath is the path to the SQLite database file for import history
	DatabasePath string
}

// New creates a new PathResolver with the given configuration.
// Empty paths default to {Home}/bean/moneybook.bean, {Home}/rule/rules.yaml
// and {Home}/.sync/history.db.
func New(config Config) *PathResolver {
	p := &PathResolver{
		home:         config.Home,
		ledgerPath:   config.LedgerPath,
		rulesPath:    config.RulesPath,
		databasePath: config.DatabasePath,
	}
	if p.ledgerPath == "" {
		p.ledgerPath = filepath.Join(p.home, BeanDir, "moneybook.bean")
	}
	if p.rulesPath == "" {
		p.rulesPath = filepath.Join(p.home, RuleDir, "rules.yaml")
	}
	if p.databasePath == "" {
		p.databasePath = filepath.Join(p.home, ".sync", "history.db")
	}
	return p
}

// GetHome returns the data directory.
func (p *PathResolver) GetHome() string {
	return p.home
}

// GetLedgerPath returns the main ledger path.
func (p *PathResolver) GetLedgerPath() string {
	return p.ledgerPath
}

// GetRulesPath returns the rules file path.
func (p *PathResolver) GetRulesPath() string {
	return p.rulesPath
}

// GetDatabasePath returns the database file path.
func (p *PathResolver) GetDatabasePath() string {
	return p.databasePath
}

// GetSubdir returns the path of a data sub-directory.
func (p *PathResolver) GetSubdir(name string) string {
	return filepath.Join(p.home, name)
}

// Resolve returns path unchanged when absolute, joined to the data
// directory otherwise.
func (p *PathResolver) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.home, path)
}

// GetLogFilePath returns the dated log file for t.
// Example: logs/log_2025-02-26.log
func (p *PathResolver) GetLogFilePath(t time.Time) string {
	return filepath.Join(p.GetSubdir(LogDir), fmt.Sprintf("log_%s.log", t.Format("2006-01-02")))
}

// NewRunStem returns a per-run file stem: the time followed by a random
// four digit number.
// Example: 2025-02-26_13-24-00_4821
func NewRunStem(t time.Time) string {
	return fmt.Sprintf("%s_%04d", t.Format(RunStemLayout), 1000+rand.Intn(9000))
}

// GetOutputBeanPath returns the ledger fragment path for a run stem.
func (p *PathResolver) GetOutputBeanPath(stem string) string {
	return filepath.Join(filepath.Dir(p.ledgerPath), stem+".bean")
}

// GetTempCSVPath returns the mapped CSV path for a run stem.
func (p *PathResolver) GetTempCSVPath(stem string) string {
	return filepath.Join(p.GetSubdir(TempDir), stem+".csv")
}

// EnsureLayout creates the data directory and its sub-directories. With
// force an existing data directory is removed first.
func (p *PathResolver) EnsureLayout(force bool) error {
	if p.home == "" {
		return fmt.Errorf("data directory is not set")
	}
	if force {
		if err := os.RemoveAll(p.home); err != nil {
			return fmt.Errorf("failed to remove data directory %s: %w", p.home, err)
		}
	}
	for _, sub := range Subdirectories {
		if err := p.EnsureDir(p.GetSubdir(sub)); err != nil {
			return err
		}
	}
	return nil
}

// EnsureDir creates a directory if it doesn't exist.
// It creates all parent directories as needed (like mkdir -p).
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// EnsureParentDir ensures the parent directory of a file exists.
func (p *PathResolver) EnsureParentDir(filePath string) error {
	dir := filepath.Dir(filePath)
	return p.EnsureDir(dir)
}

// FileExists checks if a file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}

// IsDir checks if a path is a directory.
func (p *PathResolver) IsDir(dirPath string) bool {
	info, err := os.Stat(dirPath)
	if err != nil {
		return false
	}
	return info.IsDir()
}
