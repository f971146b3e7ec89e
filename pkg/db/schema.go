package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Runs: one row per extraction attempt against a target page
CREATE TABLE IF NOT EXISTS runs (
    run_id INTEGER PRIMARY KEY AUTOINCREMENT,
    target_url TEXT NOT NULL,
    page_title TEXT,
    source TEXT NOT NULL DEFAULT 'browser',  -- browser or snapshot
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP,

    -- running, success, partial, no_data, failed
    status TEXT NOT NULL DEFAULT 'running',
    error_kind TEXT,
    error_message TEXT,

    section_count INTEGER DEFAULT 0,
    version_count INTEGER DEFAULT 0,
    success_count INTEGER DEFAULT 0,
    fail_count INTEGER DEFAULT 0,
    latest_version TEXT,
    output_dir TEXT,
    content_hash TEXT             -- SHA-256 of the page HTML when saved
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_target ON runs(target_url);

-- Run entries: resolved downloads, in page order
CREATE TABLE IF NOT EXISTS run_entries (
    entry_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    version TEXT NOT NULL,
    platform TEXT NOT NULL,
    description TEXT NOT NULL,
    url TEXT NOT NULL,
    filename TEXT NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_entries_run ON run_entries(run_id);
CREATE INDEX IF NOT EXISTS idx_entries_platform ON run_entries(platform);

-- Run failures: links whose retries were exhausted
CREATE TABLE IF NOT EXISTS run_failures (
    failure_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL,
    version TEXT NOT NULL,
    section_index INTEGER NOT NULL,
    link_index INTEGER NOT NULL,
    platform TEXT,
    description TEXT,
    category TEXT NOT NULL,
    attempts INTEGER NOT NULL,
    marker TEXT NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_failures_run ON run_failures(run_id);
`
