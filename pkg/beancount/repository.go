package beancount

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// StagingSuffix marks files written by a commit that has not been grafted yet.
const StagingSuffix = ".bean.staging"

// IncludeComment is written above every include directive added by a commit.
const IncludeComment = ";【新增交易记录】"

// LedgerFile wraps the main ledger file on disk.
type LedgerFile struct {
	path string
}

// NewLedgerFile creates a LedgerFile for path.
func NewLedgerFile(path string) *LedgerFile {
	return &LedgerFile{path: path}
}

// Path returns the ledger file path.
func (l *LedgerFile) Path() string {
	return l.path
}

// Dir returns the directory that holds the ledger and its includes.
func (l *LedgerFile) Dir() string {
	abs, err := filepath.Abs(l.path)
	if err != nil {
		return filepath.Dir(l.path)
	}
	return filepath.Dir(abs)
}

// Exists reports whether the ledger file exists.
func (l *LedgerFile) Exists() bool {
	_, err := os.Stat(l.path)
	return err == nil
}

// Ensure creates the ledger with a header if it does not exist yet.
// If the file already exists, this is a no-op.
func (l *LedgerFile) Ensure(currency string) error {
	if l.Exists() {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}
	if err := os.WriteFile(l.path, []byte(l.generateHeader(currency)), 0644); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	return nil
}

func (l *LedgerFile) generateHeader(currency string) string {
	now := time.Now().Format(time.RFC3339)
	header := fmt.Sprintf("; Beancount ledger\n; Generated at %s\n\n", now)
	if currency != "" {
		header += fmt.Sprintf("option \"operating_currency\" \"%s\"\n", currency)
	}
	return header
}

// Read returns the full ledger content.
func (l *LedgerFile) Read() ([]byte, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	return data, nil
}

// Restore overwrites the ledger with data.
func (l *LedgerFile) Restore(data []byte) error {
	if err := os.WriteFile(l.path, data, 0644); err != nil {
		return fmt.Errorf("failed to restore ledger: %w", err)
	}
	return nil
}

// IncludeLine returns the include directive for target, relative to the
// ledger's directory.
func (l *LedgerFile) IncludeLine(target string) (string, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("failed to resolve include target: %w", err)
	}
	rel, err := filepath.Rel(l.Dir(), abs)
	if err != nil {
		return "", fmt.Errorf("failed to relativize include target: %w", err)
	}
	return fmt.Sprintf("include \"%s\"\n", filepath.ToSlash(rel)), nil
}

// AppendInclude appends the commit comment and an include directive for
// target to the ledger.
func (l *LedgerFile) AppendInclude(target string) error {
	line, err := l.IncludeLine(target)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open ledger for appending: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString("\n" + IncludeComment + "\n" + line); err != nil {
		return fmt.Errorf("failed to append include: %w", err)
	}
	return nil
}

// RemoveIncludes drops every line that includes a file named name. The
// ledger is only rewritten when such a line exists.
func (l *LedgerFile) RemoveIncludes(name string) (int, error) {
	data, err := l.Read()
	if err != nil {
		return 0, err
	}

	prefix := fmt.Sprintf("include \"%s\"", name)
	lines := strings.SplitAfter(string(data), "\n")
	kept := make([]string, 0, len(lines))
	removed := 0
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), prefix) {
			removed++
			continue
		}
		kept = append(kept, line)
	}
	if removed == 0 {
		return 0, nil
	}

	if err := l.Restore([]byte(strings.Join(kept, ""))); err != nil {
		return 0, err
	}
	return removed, nil
}

// StagingFiles lists leftover staged files in the ledger directory.
func (l *LedgerFile) StagingFiles() ([]string, error) {
	entries, err := os.ReadDir(l.Dir())
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), StagingSuffix) {
			files = append(files, filepath.Join(l.Dir(), entry.Name()))
		}
	}
	return files, nil
}
