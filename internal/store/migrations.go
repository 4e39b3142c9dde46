package store

import "fmt"

// migrations are applied in order. The index of the last applied step is
// kept in PRAGMA user_version, so steps must only ever be appended.
var migrations = []string{
	// one row per run of the display loop
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		camera TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME,
		frames INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS frames (
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		fps REAL NOT NULL DEFAULT 0,
		hands INTEGER NOT NULL DEFAULT 0,
		captured_at DATETIME NOT NULL,
		PRIMARY KEY (session_id, seq)
	)`,

	// pixel positions of every landmark of every hand
	`CREATE TABLE IF NOT EXISTS frame_landmarks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		hand_index INTEGER NOT NULL,
		handedness TEXT NOT NULL DEFAULT '',
		landmark_id INTEGER NOT NULL CHECK(landmark_id BETWEEN 0 AND 20),
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		FOREIGN KEY (session_id, seq) REFERENCES frames(session_id, seq) ON DELETE CASCADE
	)`,

	`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
	`CREATE INDEX IF NOT EXISTS idx_frame_landmarks_frame ON frame_landmarks(session_id, seq)`,
}

// migrate applies the migrations newer than the database's user_version in
// a single transaction.
func (s *Store) migrate() error {
	applied, err := s.SchemaVersion()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if applied > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than this build (%d)", applied, len(migrations))
	}
	if applied == len(migrations) {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, m := range migrations[applied:] {
		if _, err := tx.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", applied+i+1, err)
		}
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", len(migrations))); err != nil {
		return err
	}

	return tx.Commit()
}
