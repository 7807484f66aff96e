// Package db provides SQLite storage for the import history.
package db

// Schema defines the SQL statements to create database tables.
const Schema = `
-- One row per commit attempt
CREATE TABLE IF NOT EXISTS import_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    import_id TEXT NOT NULL UNIQUE,    -- UUID of the run
    account_type TEXT NOT NULL,        -- 'wechat', 'alipay', ...
    source_file TEXT NOT NULL,
    source_sha256 TEXT NOT NULL DEFAULT '',
    output_file TEXT NOT NULL DEFAULT '',
    transactions INTEGER NOT NULL DEFAULT 0,
    dropped INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0,
    state TEXT NOT NULL,               -- committed, rejected, failed
    diagnostic TEXT NOT NULL DEFAULT '',
    imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_import_history_sha
    ON import_history(source_sha256, state);

CREATE INDEX IF NOT EXISTS idx_import_history_type
    ON import_history(account_type);

-- Key-value metadata about imports
CREATE TABLE IF NOT EXISTS import_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InitializeSchema initializes the database schema.
// It creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}
