package sqlite

// Migrations returns the schema migration statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id                        TEXT PRIMARY KEY,
			processor                 TEXT NOT NULL,
			status                    TEXT NOT NULL,
			country                   TEXT NOT NULL DEFAULT '',
			currency                  TEXT NOT NULL DEFAULT '',
			processor_fees_applicable INTEGER NOT NULL DEFAULT 1,
			free_payout               INTEGER NOT NULL DEFAULT 0,
			processor_id              TEXT NOT NULL DEFAULT '',
			created_at                TIMESTAMP NOT NULL,
			updated_at                TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_processor_status
			ON accounts (processor, status)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id                        TEXT PRIMARY KEY,
			type                      TEXT NOT NULL,
			processor                 TEXT NOT NULL DEFAULT '',
			amount                    INTEGER NOT NULL,
			currency                  TEXT NOT NULL,
			account_amount            INTEGER NOT NULL,
			account_currency          TEXT NOT NULL,
			tax_amount                INTEGER NOT NULL DEFAULT 0,
			tax_currency              TEXT NOT NULL DEFAULT '',
			origin_kind               TEXT NOT NULL DEFAULT '',
			origin_id                 TEXT,
			account_id                TEXT,
			incurred_by_id            TEXT,
			payment_id                TEXT,
			correlation_key           TEXT,
			fee_type                  TEXT NOT NULL DEFAULT '',
			created_at                TIMESTAMP NOT NULL,
			updated_at                TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_account
			ON transactions (account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_incurred_by
			ON transactions (incurred_by_id, type)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_payout
			ON transactions (type, account_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_correlation
			ON transactions (correlation_key)`,
	}
}
