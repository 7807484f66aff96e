package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ImportRecord represents an import history record.
type ImportRecord struct {
	ID           int64
	ImportID     string
	AccountType  string
	SourceFile   string
	SourceSHA256 string
	OutputFile   string
	Transactions int
	Dropped      int
	Failed       int
	State        string
	Diagnostic   string
	ImportedAt   time.Time
}

// StateCommitted is the state of a successful import.
const StateCommitted = "committed"

// Metadata keys maintained by RecordImport.
const (
	MetaLastImportID  = "last_import_id"
	MetaLastCommitted = "last_committed_output"
)

// ImportHistory manages import history operations.
type ImportHistory struct {
	conn *Connection
}

// NewImportHistory creates a new ImportHistory instance.
func NewImportHistory(conn *Connection) *ImportHistory {
	return &ImportHistory{conn: conn}
}

// RecordImport stores record, assigning an ImportID when it has none, and
// updates the import metadata in the same transaction.
func (h *ImportHistory) RecordImport(record ImportRecord) (string, error) {
	if record.ImportID == "" {
		record.ImportID = uuid.NewString()
	}

	err := h.conn.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO import_history (
				import_id, account_type, source_file, source_sha256, output_file,
				transactions, dropped, failed, state, diagnostic
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			record.ImportID,
			record.AccountType,
			record.SourceFile,
			record.SourceSHA256,
			record.OutputFile,
			record.Transactions,
			record.Dropped,
			record.Failed,
			record.State,
			record.Diagnostic,
		)
		if err != nil {
			return fmt.Errorf("failed to insert import record: %w", err)
		}

		if err := setMetadata(tx, MetaLastImportID, record.ImportID); err != nil {
			return err
		}
		if record.State == StateCommitted {
			return setMetadata(tx, MetaLastCommitted, record.OutputFile)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to record import: %w", err)
	}

	return record.ImportID, nil
}

// FindCommitted returns the most recent committed import of a source file
// with the given digest, or nil when there is none.
func (h *ImportHistory) FindCommitted(sourceSHA256 string) (*ImportRecord, error) {
	query := selectColumns + `
		WHERE source_sha256 = ? AND state = ?
		ORDER BY id DESC
		LIMIT 1
	`

	record, err := scanRecord(h.conn.QueryRow(query, sourceSHA256, StateCommitted))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find import: %w", err)
	}
	return record, nil
}

// GetImport retrieves an import record by its import ID.
func (h *ImportHistory) GetImport(importID string) (*ImportRecord, error) {
	record, err := scanRecord(h.conn.QueryRow(selectColumns+` WHERE import_id = ?`, importID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import record: %w", err)
	}
	return record, nil
}

// ListImports returns the most recent imports, newest first. A limit of
// zero or less returns every record.
func (h *ImportHistory) ListImports(limit int) ([]ImportRecord, error) {
	query := selectColumns + ` ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := h.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list imports: %w", err)
	}
	defer rows.Close()

	var records []ImportRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import record: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list imports: %w", err)
	}

	return records, nil
}

const selectColumns = `
	SELECT id, import_id, account_type, source_file, source_sha256, output_file,
		transactions, dropped, failed, state, diagnostic, imported_at
	FROM import_history
`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*ImportRecord, error) {
	var record ImportRecord
	if err := s.Scan(
		&record.ID,
		&record.ImportID,
		&record.AccountType,
		&record.SourceFile,
		&record.SourceSHA256,
		&record.OutputFile,
		&record.Transactions,
		&record.Dropped,
		&record.Failed,
		&record.State,
		&record.Diagnostic,
		&record.ImportedAt,
	); err != nil {
		return nil, err
	}
	return &record, nil
}

// Stats represents import statistics.
type Stats struct {
	TotalImports      int
	Committed         int
	Rejected          int
	Failed            int
	TotalTransactions int
	TotalDropped      int
	ByAccountType     map[string]int
}

// GetStats retrieves import statistics.
func (h *ImportHistory) GetStats() (*Stats, error) {
	stats := Stats{ByAccountType: make(map[string]int)}

	rows, err := h.conn.Query(`SELECT state, COUNT(*) FROM import_history GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("failed to get state counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var state string
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("failed to scan state count: %w", err)
		}
		stats.TotalImports += count
		switch state {
		case StateCommitted:
			stats.Committed = count
		case "rejected":
			stats.Rejected = count
		case "failed":
			stats.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get state counts: %w", err)
	}

	err = h.conn.QueryRow(`
		SELECT COALESCE(SUM(transactions), 0), COALESCE(SUM(dropped), 0)
		FROM import_history WHERE state = ?
	`, StateCommitted).Scan(&stats.TotalTransactions, &stats.TotalDropped)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction totals: %w", err)
	}

	typeRows, err := h.conn.Query(`
		SELECT account_type, COUNT(*) FROM import_history
		WHERE state = ? GROUP BY account_type
	`, StateCommitted)
	if err != nil {
		return nil, fmt.Errorf("failed to get account type counts: %w", err)
	}
	defer typeRows.Close()

	for typeRows.Next() {
		var accountType string
		var count int
		if err := typeRows.Scan(&accountType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan account type count: %w", err)
		}
		stats.ByAccountType[accountType] = count
	}

	if err := typeRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get account type counts: %w", err)
	}

	return &stats, nil
}

// GetMetadata retrieves a metadata value.
func (h *ImportHistory) GetMetadata(key string) (string, error) {
	var value string
	err := h.conn.QueryRow(`SELECT value FROM import_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata: %w", err)
	}

	return value, nil
}

func setMetadata(tx *sql.Tx, key, value string) error {
	_, err := tx.Exec(`
		INSERT INTO import_metadata (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata: %w", err)
	}
	return nil
}
