package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the book ledger store.
var Migrations = migrate.NewGroup("bookledger")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_bookledger_sequences",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bookledger_sequences (
    name  TEXT PRIMARY KEY,
    value BIGINT NOT NULL DEFAULT 0 CHECK (value >= 0)
);

INSERT INTO bookledger_sequences (name, value) VALUES ('book_entry_seq', 0)
    ON CONFLICT (name) DO NOTHING;
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bookledger_sequences`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_bookledger_entries",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bookledger_entries (
    id     BIGINT PRIMARY KEY CHECK (id > 0),
    owner  TEXT NOT NULL,
    asset  TEXT NOT NULL,
    amount TEXT NOT NULL,
    price  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bookledger_entries_owner ON bookledger_entries (owner);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bookledger_entries`)
				return err
			},
		},
	)
}
