package sqlite

// schema is the baseline DDL for the ledger data file. It mirrors
// migrations/0001_init.sql; InitSchema applies it directly for fresh files
// and in-memory test databases.
//
// transaction_lines carries the storage-level guard that a line cannot be
// all-null/zero. Mutual exclusivity of debit and credit is an application
// responsibility, modeled in Go by domain.Amount.
const schema = `
CREATE TABLE IF NOT EXISTS cat (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS currency (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL UNIQUE,
	exchange_rate REAL NOT NULL DEFAULT 1.0
);

CREATE TABLE IF NOT EXISTS accounts (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	cat_id      INTEGER NOT NULL REFERENCES cat(id),
	currency_id INTEGER REFERENCES currency(id),
	nature      TEXT NOT NULL DEFAULT 'both'
	            CHECK (nature IN ('debit', 'credit', 'both')),
	term        TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS ccards (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	account_id INTEGER NOT NULL REFERENCES accounts(id)
);

CREATE TABLE IF NOT EXISTS classifications (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS account_classifications (
	account_id        INTEGER NOT NULL REFERENCES accounts(id),
	classification_id INTEGER NOT NULL REFERENCES classifications(id),
	PRIMARY KEY (account_id, classification_id)
);

CREATE TABLE IF NOT EXISTS transactions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	description TEXT NOT NULL,
	currency_id INTEGER NOT NULL REFERENCES currency(id)
);

CREATE TABLE IF NOT EXISTS transaction_lines (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	transaction_id    INTEGER NOT NULL REFERENCES transactions(id),
	account_id        INTEGER NOT NULL REFERENCES accounts(id),
	debit             REAL,
	credit            REAL,
	date              TEXT NOT NULL,
	classification_id INTEGER REFERENCES classifications(id),
	CHECK (COALESCE(debit, 0) + COALESCE(credit, 0) > 0)
);

CREATE INDEX IF NOT EXISTS idx_transaction_lines_tx
	ON transaction_lines(transaction_id);
CREATE INDEX IF NOT EXISTS idx_transaction_lines_account
	ON transaction_lines(account_id);
CREATE INDEX IF NOT EXISTS idx_transaction_lines_date
	ON transaction_lines(date);

CREATE TABLE IF NOT EXISTS orphan_transactions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	reference   TEXT NOT NULL,
	imported_at TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'new'
	            CHECK (status IN ('new', 'processed', 'ignored'))
);

CREATE TABLE IF NOT EXISTS orphan_transaction_lines (
	id                    INTEGER PRIMARY KEY AUTOINCREMENT,
	orphan_transaction_id INTEGER NOT NULL REFERENCES orphan_transactions(id),
	description           TEXT NOT NULL,
	account_id            INTEGER REFERENCES accounts(id),
	debit                 REAL,
	credit                REAL,
	date                  TEXT NOT NULL,
	currency_id           INTEGER NOT NULL REFERENCES currency(id),
	status                TEXT NOT NULL DEFAULT 'new'
	                      CHECK (status IN ('new', 'consumed', 'ignored')),
	transaction_id        INTEGER REFERENCES transactions(id),
	valid                 INTEGER NOT NULL DEFAULT 1,
	note                  TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_orphan_lines_batch
	ON orphan_transaction_lines(orphan_transaction_id);
CREATE INDEX IF NOT EXISTS idx_orphan_lines_status
	ON orphan_transaction_lines(status);

CREATE TABLE IF NOT EXISTS filter_profiles (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS filter_criteria (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	profile_id INTEGER NOT NULL REFERENCES filter_profiles(id),
	field      TEXT NOT NULL,
	op         TEXT NOT NULL,
	value      TEXT NOT NULL
);
`
