package journal

import "database/sql"

const schema = `
CREATE TABLE IF NOT EXISTS scans (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    ref TEXT NOT NULL,
    day TEXT NOT NULL,
    at INTEGER NOT NULL,
    station TEXT NOT NULL,
    payload TEXT NOT NULL,
    member_id TEXT NOT NULL,
    name TEXT NOT NULL,
    outcome TEXT NOT NULL,
    recorded INTEGER NOT NULL,
    error TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scans_day ON scans(day);
CREATE INDEX IF NOT EXISTS idx_scans_day_member ON scans(day, member_id);
`

func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
