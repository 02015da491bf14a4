package notify

import (
	"time"

	"notifier-go/internal/model"
)

// Database provides an interface for the content, subscription and
// run-metrics stores. All methods should be implemented with appropriate
// transaction handling.
type Database interface {
	// Wiki operations

	// GetWikis returns all watched wikis.
	GetWikis() ([]model.Wiki, error)

	// UpsertWiki inserts or replaces a wiki.
	UpsertWiki(wiki model.Wiki) error

	// Content operations (read-only to the resolver)

	// GetThreads returns all stored threads.
	GetThreads() ([]model.Thread, error)

	// GetPosts returns all stored posts.
	GetPosts() ([]model.Post, error)

	// UpsertThread inserts or replaces a thread.
	UpsertThread(thread model.Thread) error

	// UpsertPost inserts or replaces a post.
	UpsertPost(post model.Post) error

	// FindNewPosts returns the subset of the given post IDs that are not
	// yet stored, preserving input order.
	FindNewPosts(postIDs []string) ([]string, error)

	// User config operations

	// GetUserConfigs returns the users on the given frequency channel.
	GetUserConfigs(channel string) ([]model.User, error)

	// UpsertUserConfig inserts or replaces a user's configuration.
	UpsertUserConfig(user model.User) error

	// StoreUserLastNotified advances a user's notified timestamp. This is
	// the only mutation the notification pipeline performs on user state.
	StoreUserLastNotified(userID string, ts time.Time) error

	// CountUsers returns the total number of configured users.
	CountUsers() (int, error)

	// Manual subscription operations (mutated by user action, read by runs)

	// GetManualSubs returns all subscription overrides.
	GetManualSubs() ([]model.ManualSub, error)

	// PutManualSub inserts an override, replacing any existing row with
	// the same (user, thread, post) scope.
	PutManualSub(sub model.ManualSub) error

	// DeleteManualSub removes the override with the given scope.
	DeleteManualSub(userID, threadID, postID string) error

	// Run metrics operations

	// StoreRunMetrics appends one audit record for a completed run and
	// returns it with its assigned ID.
	StoreRunMetrics(m model.RunMetrics) (model.RunMetrics, error)

	// GetRunMetrics returns the most recent run records, newest first.
	GetRunMetrics(limit int) ([]model.RunMetrics, error)

	// CheckMigrations verifies the database schema is up-to-date.
	CheckMigrations() error

	// Close closes the database connection.
	Close() error
}
