package db

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS presence_records (
            user_id TEXT PRIMARY KEY,
            display_name TEXT NOT NULL DEFAULT '',
            skills TEXT[] NOT NULL DEFAULT '{}',
            lab_id TEXT,
            visibility TEXT NOT NULL DEFAULT 'open',
            checked_in_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            last_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_presence_lab ON presence_records (lab_id);`,
		`CREATE INDEX IF NOT EXISTS idx_presence_last_seen ON presence_records (last_seen_at);`,
		`CREATE TABLE IF NOT EXISTS connections (
            id SERIAL PRIMARY KEY,
            user_id TEXT NOT NULL,
            partner_id TEXT NOT NULL,
            lab_id TEXT,
            shared_skills TEXT[] NOT NULL DEFAULT '{}',
            note TEXT NOT NULL DEFAULT '',
            contact_shared BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_connections_user ON connections (user_id, created_at DESC);`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}
