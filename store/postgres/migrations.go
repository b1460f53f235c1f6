package postgres

// Migrations returns the schema migration statements, applied in order.
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id                        TEXT PRIMARY KEY,
			processor                 TEXT NOT NULL,
			status                    TEXT NOT NULL,
			country                   TEXT NOT NULL DEFAULT '',
			currency                  TEXT NOT NULL DEFAULT '',
			processor_fees_applicable BOOLEAN NOT NULL DEFAULT TRUE,
			free_payout               BOOLEAN NOT NULL DEFAULT FALSE,
			processor_id              TEXT NOT NULL DEFAULT '',
			created_at                TIMESTAMPTZ NOT NULL,
			updated_at                TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_processor_status
			ON accounts (processor, status)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id                        TEXT PRIMARY KEY,
			type                      TEXT NOT NULL,
			processor                 TEXT NOT NULL DEFAULT '',
			amount                    BIGINT NOT NULL,
			currency                  TEXT NOT NULL,
			account_amount            BIGINT NOT NULL,
			account_currency          TEXT NOT NULL,
			tax_amount                BIGINT NOT NULL DEFAULT 0,
			tax_currency              TEXT NOT NULL DEFAULT '',
			origin_kind               TEXT NOT NULL DEFAULT '',
			origin_id                 TEXT,
			account_id                TEXT,
			incurred_by_id            TEXT,
			payment_id                TEXT,
			correlation_key           TEXT,
			fee_type                  TEXT NOT NULL DEFAULT '',
			created_at                TIMESTAMPTZ NOT NULL,
			updated_at                TIMESTAMPTZ NOT NULL
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
