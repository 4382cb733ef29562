package mediaindex

import "database/sql"

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS media_files (
			id INTEGER PRIMARY KEY,
			path TEXT UNIQUE NOT NULL,
			display_name TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			artist TEXT NOT NULL DEFAULT '<unknown>',
			album TEXT NOT NULL DEFAULT '<unknown>',
			duration_ms INTEGER NOT NULL DEFAULT 0,
			mtime INTEGER NOT NULL,
			added_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_media_files_title ON media_files(title)`)
	return err
}
