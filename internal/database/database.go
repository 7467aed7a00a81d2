package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tahcohcat/fitchallenge-web/internal/logger"
)

type DB struct {
	*sqlx.DB
}

type Options struct {
	BusyTimeoutMS int
}

// NewDB creates a new database connection
func NewDB(databaseURL string, opts Options) (*DB, error) {
	if databaseURL == "" {
		databaseURL = "fitchallenge.db" // Default SQLite file
	}
	if opts.BusyTimeoutMS <= 0 {
		opts.BusyTimeoutMS = 5000
	}

	dsn := fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=%d", databaseURL, opts.BusyTimeoutMS)
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer; a single connection serialises writes
	// instead of surfacing "database is locked".
	db.SetMaxOpenConns(1)

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	dbWrapper := &DB{DB: db}

	// Initialize database schema
	if err := dbWrapper.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.New().Info("database connection established and tables initialized", "path", databaseURL)
	return dbWrapper, nil
}

// createTables creates the necessary database tables
func (db *DB) createTables() error {
	usersTable := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		language TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_login_at DATETIME
	);`

	// Allow-list populated by the purchase webhook
	authorizedEmailsTable := `
	CREATE TABLE IF NOT EXISTS authorized_emails (
		email TEXT PRIMARY KEY,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	passwordResetsTable := `
	CREATE TABLE IF NOT EXISTS password_resets (
		token_hash TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		expires_at DATETIME NOT NULL,
		used_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);`

	classesTable := `
	CREATE TABLE IF NOT EXISTS classes (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		day INTEGER NOT NULL,
		challenge_type TEXT NOT NULL CHECK (challenge_type IN ('7days', '28days')),
		video_url TEXT NOT NULL,
		description TEXT,
		language TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (challenge_type, day, language)
	);`

	// One row per (user, class); duplicates are rejected by the primary key
	completionsTable := `
	CREATE TABLE IF NOT EXISTS user_class_progress (
		user_id TEXT NOT NULL,
		class_id TEXT NOT NULL,
		completed_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, class_id),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (class_id) REFERENCES classes(id) ON DELETE CASCADE
	);`

	progressTable := `
	CREATE TABLE IF NOT EXISTS user_progress (
		user_id TEXT PRIMARY KEY,
		challenge_7days_progress REAL NOT NULL DEFAULT 0 CHECK (challenge_7days_progress BETWEEN 0 AND 1),
		challenge_28days_progress REAL NOT NULL DEFAULT 0 CHECK (challenge_28days_progress BETWEEN 0 AND 1),
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);`

	achievementsTable := `
	CREATE TABLE IF NOT EXISTS achievements (
		id TEXT NOT NULL,
		language TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id, language)
	);`

	userAchievementsTable := `
	CREATE TABLE IF NOT EXISTS user_achievements (
		user_id TEXT NOT NULL,
		achievement_id TEXT NOT NULL,
		unlocked_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, achievement_id),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);`

	materialsTable := `
	CREATE TABLE IF NOT EXISTS materials (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		pdf_url TEXT NOT NULL,
		category TEXT NOT NULL,
		language TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	// Create indexes for better performance
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);`,
		`CREATE INDEX IF NOT EXISTS idx_classes_language ON classes(language, challenge_type, day);`,
		`CREATE INDEX IF NOT EXISTS idx_materials_language ON materials(language, category, title);`,
		`CREATE INDEX IF NOT EXISTS idx_user_achievements_user_id ON user_achievements(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_password_resets_user_id ON password_resets(user_id);`,
	}

	// Execute table creation
	tables := []string{
		usersTable, authorizedEmailsTable, passwordResetsTable, classesTable,
		completionsTable, progressTable, achievementsTable, userAchievementsTable, materialsTable,
	}
	for _, query := range tables {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	// Create indexes
	for _, index := range indexes {
		if _, err := db.Exec(index); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
