package storage

const schema = `
-- The 'learners' table stores one progress document per learner, as JSON.
CREATE TABLE IF NOT EXISTS learners (
    id INTEGER PRIMARY KEY,
    document TEXT NOT NULL,
    updated_at DATETIME NOT NULL
);

-- The 'sources' table tracks where the corpus was loaded from and what it contained.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    fingerprint TEXT NOT NULL DEFAULT '',
    record_count INTEGER NOT NULL DEFAULT 0,
    last_synced DATETIME
);
`
