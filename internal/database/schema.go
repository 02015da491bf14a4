package database

// Schema is the full database schema at the latest migration version.
// It mirrors the files in migrations/files and exists so tests can apply
// the schema to an in-memory database in one step instead of running the
// migration machinery.
const Schema = `
CREATE TABLE wikis (
    id TEXT PRIMARY KEY,
    secure INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE threads (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    wiki_id TEXT NOT NULL
);

CREATE TABLE posts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    username TEXT NOT NULL,
    user_id TEXT NOT NULL,
    posted_timestamp TIMESTAMP NOT NULL,
    snippet TEXT NOT NULL,
    thread_id TEXT NOT NULL,
    parent_post_id TEXT NOT NULL DEFAULT ''
);

CREATE INDEX idx_posts_thread ON posts(thread_id);
CREATE INDEX idx_posts_posted ON posts(posted_timestamp);

CREATE TABLE user_configs (
    user_id TEXT PRIMARY KEY,
    username TEXT NOT NULL,
    frequency TEXT NOT NULL,
    notified_timestamp TIMESTAMP NOT NULL,
    tags TEXT NOT NULL DEFAULT ''
);

CREATE INDEX idx_user_configs_frequency ON user_configs(frequency);

CREATE TABLE manual_subs (
    user_id TEXT NOT NULL,
    thread_id TEXT NOT NULL,
    post_id TEXT NOT NULL DEFAULT '',
    sub INTEGER NOT NULL CHECK (sub IN (1, -1)),
    PRIMARY KEY (user_id, thread_id, post_id)
);

CREATE TABLE run_metrics (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    start_timestamp TIMESTAMP NOT NULL,
    config_start_timestamp TIMESTAMP NOT NULL,
    config_end_timestamp TIMESTAMP NOT NULL,
    getpost_start_timestamp TIMESTAMP NOT NULL,
    getpost_end_timestamp TIMESTAMP NOT NULL,
    notify_start_timestamp TIMESTAMP NOT NULL,
    notify_end_timestamp TIMESTAMP NOT NULL,
    end_timestamp TIMESTAMP NOT NULL,
    sites_count INTEGER NOT NULL,
    user_count INTEGER NOT NULL,
    downloaded_post_count INTEGER NOT NULL,
    downloaded_thread_count INTEGER NOT NULL
);
`
