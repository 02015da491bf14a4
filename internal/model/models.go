package model

import "time"

// User is the per-user notification configuration.
// NotifiedTimestamp records the moment of the user's last successful
// notification and is the sole anti-duplication mechanism across runs.
type User struct {
	ID                string
	Username          string
	Frequency         string    // frequency channel name, e.g. "daily"
	NotifiedTimestamp time.Time // last successful notification
	Tags              string    // opaque metadata, unused by matching
}

// Wiki is a forum site whose posts feed is watched.
type Wiki struct {
	ID     string
	Secure bool // informational only
}

// Thread is a forum thread within a wiki.
type Thread struct {
	ID     string
	Title  string
	WikiID string // foreign key to Wiki
}

// Post is a single forum post. A post with an empty ParentPostID is the
// first post of its thread.
type Post struct {
	ID              string
	Title           string
	Username        string
	UserID          string // author
	PostedTimestamp time.Time
	Snippet         string
	ThreadID        string // foreign key to Thread
	ParentPostID    string // "" for a thread's first post
}

// IsFirstPost reports whether this post starts its thread.
func (p Post) IsFirstPost() bool { return p.ParentPostID == "" }

// Subscription directions.
const (
	Subscribe   = 1
	Unsubscribe = -1
)

// ManualSub is an explicit per-user subscription override. A PostID of ""
// scopes the override to the whole thread; a non-empty PostID scopes it to
// direct replies to that post. Sub is Subscribe or Unsubscribe; any
// matching Unsubscribe row is an absolute veto.
type ManualSub struct {
	UserID   string
	ThreadID string
	PostID   string // "" for thread scope
	Sub      int
}

// RunMetrics is the append-only audit record for one orchestrator run:
// stage-boundary timestamps plus volume counters.
type RunMetrics struct {
	ID                    int64
	StartTimestamp        time.Time
	ConfigStartTimestamp  time.Time
	ConfigEndTimestamp    time.Time
	GetPostStartTimestamp time.Time
	GetPostEndTimestamp   time.Time
	NotifyStartTimestamp  time.Time
	NotifyEndTimestamp    time.Time
	EndTimestamp          time.Time
	SitesCount            int
	UserCount             int
	DownloadedPostCount   int
	DownloadedThreadCount int
}
