package cache

const schema = `
CREATE TABLE IF NOT EXISTS playlists (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL DEFAULT '',
    owner        TEXT NOT NULL DEFAULT '',
    description  TEXT NOT NULL DEFAULT '',
    url          TEXT NOT NULL DEFAULT '',
    track_count  INTEGER NOT NULL DEFAULT 0,
    tracks       TEXT NOT NULL DEFAULT '[]',
    fetched_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_playlists_fetched_at ON playlists(fetched_at);

CREATE TABLE IF NOT EXISTS runs (
    id               TEXT PRIMARY KEY,
    started_at       DATETIME NOT NULL,
    finished_at      DATETIME NOT NULL,
    playlist_ids     TEXT NOT NULL DEFAULT '[]',
    tracks           INTEGER NOT NULL DEFAULT 0,
    eligible         INTEGER NOT NULL DEFAULT 0,
    skipped          INTEGER NOT NULL DEFAULT 0,
    top_ids          TEXT NOT NULL DEFAULT '[]',
    created_playlist TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`
