package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"notifier-go/internal/database/migrations"
	"notifier-go/internal/model"
	"notifier-go/internal/notify"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements the notify.Database interface using SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase opens a SQLite database at path, which can be a file
// path or ":memory:" for an in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteDatabase{db: db, path: path}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection. The caller
// is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: db}
}

// OpenConnection opens and configures a SQLite connection with appropriate
// PRAGMAs. Exported for tools and tests that need a raw connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Wiki operations

func (s *SQLiteDatabase) GetWikis() ([]model.Wiki, error) {
	rows, err := s.db.Query("SELECT id, secure FROM wikis ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying wikis: %w", err)
	}
	defer rows.Close()

	var wikis []model.Wiki
	for rows.Next() {
		var w model.Wiki
		if err := rows.Scan(&w.ID, &w.Secure); err != nil {
			return nil, fmt.Errorf("scanning wiki: %w", err)
		}
		wikis = append(wikis, w)
	}
	return wikis, rows.Err()
}

func (s *SQLiteDatabase) UpsertWiki(wiki model.Wiki) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO wikis (id, secure) VALUES (?, ?)",
		wiki.ID, wiki.Secure,
	)
	if err != nil {
		return fmt.Errorf("upserting wiki %s: %w", wiki.ID, err)
	}
	return nil
}

// Content operations

func (s *SQLiteDatabase) GetThreads() ([]model.Thread, error) {
	rows, err := s.db.Query("SELECT id, title, wiki_id FROM threads ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying threads: %w", err)
	}
	defer rows.Close()

	var threads []model.Thread
	for rows.Next() {
		var t model.Thread
		if err := rows.Scan(&t.ID, &t.Title, &t.WikiID); err != nil {
			return nil, fmt.Errorf("scanning thread: %w", err)
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

func (s *SQLiteDatabase) GetPosts() ([]model.Post, error) {
	rows, err := s.db.Query(`
		SELECT id, title, username, user_id, posted_timestamp, snippet, thread_id, parent_post_id
		FROM posts
		ORDER BY posted_timestamp, id`)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Username, &p.UserID, &p.PostedTimestamp, &p.Snippet, &p.ThreadID, &p.ParentPostID); err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *SQLiteDatabase) UpsertThread(thread model.Thread) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO threads (id, title, wiki_id) VALUES (?, ?, ?)",
		thread.ID, thread.Title, thread.WikiID,
	)
	if err != nil {
		return fmt.Errorf("upserting thread %s: %w", thread.ID, err)
	}
	return nil
}

func (s *SQLiteDatabase) UpsertPost(post model.Post) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO posts (id, title, username, user_id, posted_timestamp, snippet, thread_id, parent_post_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID, post.Title, post.Username, post.UserID, post.PostedTimestamp, post.Snippet, post.ThreadID, post.ParentPostID,
	)
	if err != nil {
		return fmt.Errorf("upserting post %s: %w", post.ID, err)
	}
	return nil
}

func (s *SQLiteDatabase) FindNewPosts(postIDs []string) ([]string, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(postIDs)-1) + "?"
	args := make([]any, len(postIDs))
	for i, id := range postIDs {
		args[i] = id
	}
	rows, err := s.db.Query("SELECT id FROM posts WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("querying known posts: %w", err)
	}
	defer rows.Close()

	known := make(map[string]bool, len(postIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning post ID: %w", err)
		}
		known[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var unknown []string
	for _, id := range postIDs {
		if !known[id] {
			unknown = append(unknown, id)
		}
	}
	return unknown, nil
}

// User config operations

func (s *SQLiteDatabase) GetUserConfigs(channel string) ([]model.User, error) {
	rows, err := s.db.Query(`
		SELECT user_id, username, frequency, notified_timestamp, tags
		FROM user_configs
		WHERE frequency = ?
		ORDER BY user_id`, channel)
	if err != nil {
		return nil, fmt.Errorf("querying user configs: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Frequency, &u.NotifiedTimestamp, &u.Tags); err != nil {
			return nil, fmt.Errorf("scanning user config: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpsertUserConfig inserts or updates a user's configuration. For an
// existing user the stored notified timestamp is kept: only
// StoreUserLastNotified advances it, so a frequency or username change
// cannot re-open already-notified history.
func (s *SQLiteDatabase) UpsertUserConfig(user model.User) error {
	_, err := s.db.Exec(`
		INSERT INTO user_configs (user_id, username, frequency, notified_timestamp, tags)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			frequency = excluded.frequency,
			tags = excluded.tags`,
		user.ID, user.Username, user.Frequency, user.NotifiedTimestamp, user.Tags,
	)
	if err != nil {
		return fmt.Errorf("upserting user config %s: %w", user.ID, err)
	}
	return nil
}

func (s *SQLiteDatabase) StoreUserLastNotified(userID string, ts time.Time) error {
	res, err := s.db.Exec(
		"UPDATE user_configs SET notified_timestamp = ? WHERE user_id = ?",
		ts, userID,
	)
	if err != nil {
		return fmt.Errorf("recording last notified for %s: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking last notified update for %s: %w", userID, err)
	}
	if n == 0 {
		return fmt.Errorf("no such user: %s", userID)
	}
	return nil
}

func (s *SQLiteDatabase) CountUsers() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM user_configs").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// Manual subscription operations

func (s *SQLiteDatabase) GetManualSubs() ([]model.ManualSub, error) {
	rows, err := s.db.Query("SELECT user_id, thread_id, post_id, sub FROM manual_subs ORDER BY user_id, thread_id, post_id")
	if err != nil {
		return nil, fmt.Errorf("querying manual subs: %w", err)
	}
	defer rows.Close()

	var subs []model.ManualSub
	for rows.Next() {
		var m model.ManualSub
		if err := rows.Scan(&m.UserID, &m.ThreadID, &m.PostID, &m.Sub); err != nil {
			return nil, fmt.Errorf("scanning manual sub: %w", err)
		}
		subs = append(subs, m)
	}
	return subs, rows.Err()
}

// PutManualSub replaces any existing row with the same (user, thread, post)
// scope, so the steady state holds at most one override per scope.
func (s *SQLiteDatabase) PutManualSub(sub model.ManualSub) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO manual_subs (user_id, thread_id, post_id, sub) VALUES (?, ?, ?, ?)",
		sub.UserID, sub.ThreadID, sub.PostID, sub.Sub,
	)
	if err != nil {
		return fmt.Errorf("storing manual sub for %s: %w", sub.UserID, err)
	}
	return nil
}

func (s *SQLiteDatabase) DeleteManualSub(userID, threadID, postID string) error {
	_, err := s.db.Exec(
		"DELETE FROM manual_subs WHERE user_id = ? AND thread_id = ? AND post_id = ?",
		userID, threadID, postID,
	)
	if err != nil {
		return fmt.Errorf("deleting manual sub for %s: %w", userID, err)
	}
	return nil
}

// Run metrics operations

func (s *SQLiteDatabase) StoreRunMetrics(m model.RunMetrics) (model.RunMetrics, error) {
	res, err := s.db.Exec(`
		INSERT INTO run_metrics (
			start_timestamp, config_start_timestamp, config_end_timestamp,
			getpost_start_timestamp, getpost_end_timestamp,
			notify_start_timestamp, notify_end_timestamp, end_timestamp,
			sites_count, user_count, downloaded_post_count, downloaded_thread_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.StartTimestamp, m.ConfigStartTimestamp, m.ConfigEndTimestamp,
		m.GetPostStartTimestamp, m.GetPostEndTimestamp,
		m.NotifyStartTimestamp, m.NotifyEndTimestamp, m.EndTimestamp,
		m.SitesCount, m.UserCount, m.DownloadedPostCount, m.DownloadedThreadCount,
	)
	if err != nil {
		return model.RunMetrics{}, fmt.Errorf("storing run metrics: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.RunMetrics{}, fmt.Errorf("getting run metrics ID: %w", err)
	}
	m.ID = id
	return m, nil
}

func (s *SQLiteDatabase) GetRunMetrics(limit int) ([]model.RunMetrics, error) {
	rows, err := s.db.Query(`
		SELECT id, start_timestamp, config_start_timestamp, config_end_timestamp,
			getpost_start_timestamp, getpost_end_timestamp,
			notify_start_timestamp, notify_end_timestamp, end_timestamp,
			sites_count, user_count, downloaded_post_count, downloaded_thread_count
		FROM run_metrics
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying run metrics: %w", err)
	}
	defer rows.Close()

	var records []model.RunMetrics
	for rows.Next() {
		var m model.RunMetrics
		if err := rows.Scan(
			&m.ID, &m.StartTimestamp, &m.ConfigStartTimestamp, &m.ConfigEndTimestamp,
			&m.GetPostStartTimestamp, &m.GetPostEndTimestamp,
			&m.NotifyStartTimestamp, &m.NotifyEndTimestamp, &m.EndTimestamp,
			&m.SitesCount, &m.UserCount, &m.DownloadedPostCount, &m.DownloadedThreadCount,
		); err != nil {
			return nil, fmt.Errorf("scanning run metrics: %w", err)
		}
		records = append(records, m)
	}
	return records, rows.Err()
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteDatabase) Path() string { return s.path }

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// MigrateUp brings the database schema to the latest version.
func (s *SQLiteDatabase) MigrateUp() error {
	return migrations.MigrateUp(s.db)
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements notify.Database
var _ notify.Database = (*SQLiteDatabase)(nil)
