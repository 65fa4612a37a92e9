package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// New opens a SQLite database connection at the given path.
// It enables foreign keys and sets connection pool settings.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys (disabled by default in SQLite)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			duration TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			order_col INTEGER NOT NULL DEFAULT 0,
			tuning TEXT NOT NULL DEFAULT '',
			songbook TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_item_title_order ON items(title, order_col);`,
		`CREATE TABLE IF NOT EXISTS routines (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			order_col INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS routine_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			routine_id INTEGER NOT NULL,
			item_id INTEGER NOT NULL,
			order_col INTEGER NOT NULL DEFAULT 0,
			completed INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (routine_id) REFERENCES routines(id) ON DELETE CASCADE,
			FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_routine_item_order ON routine_items(routine_id, order_col);`,
		`CREATE TABLE IF NOT EXISTS chord_charts (
			chord_id INTEGER PRIMARY KEY AUTOINCREMENT,
			item_id TEXT NOT NULL,
			title TEXT NOT NULL,
			chord_data TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			order_col INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chord_chart_item_order ON chord_charts(item_id, order_col);`,
		`CREATE TABLE IF NOT EXISTS common_chords (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			chord_data TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			order_col INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_common_chord_name ON common_chords(name);`,
		`CREATE TABLE IF NOT EXISTS active_routine (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			routine_id INTEGER,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (routine_id) REFERENCES routines(id) ON DELETE SET NULL
		);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
