package notify

import (
	"fmt"

	"notifier-go/internal/model"
)

// ScopeKind distinguishes the two subscription scopes.
type ScopeKind int

const (
	// ThreadScope applies to every post in a thread.
	ThreadScope ScopeKind = iota
	// PostScope applies only to direct replies to one specific post.
	PostScope
)

// Scope identifies what a manual subscription override applies to.
// This is a tagged variant: ParentPostID is meaningful only for PostScope.
type Scope struct {
	Kind         ScopeKind
	ThreadID     string
	ParentPostID string
}

// SubScope derives the scope of a manual subscription row. An empty PostID
// means the row covers the whole thread; otherwise it covers direct replies
// to that post.
func SubScope(sub model.ManualSub) Scope {
	if sub.PostID == "" {
		return Scope{Kind: ThreadScope, ThreadID: sub.ThreadID}
	}
	return Scope{Kind: PostScope, ThreadID: sub.ThreadID, ParentPostID: sub.PostID}
}

// Matches reports whether a post falls under this scope. A thread scope
// matches any post in its thread; a post scope matches only direct replies
// to the scoped parent post. Subscribe and veto rows use the same matching
// so that a thread-level unsubscribe cannot be re-enabled by an unrelated
// post-level subscribe, and vice versa.
func (s Scope) Matches(p model.Post) bool {
	if s.ThreadID != p.ThreadID {
		return false
	}
	switch s.Kind {
	case ThreadScope:
		return true
	case PostScope:
		return p.ParentPostID != "" && p.ParentPostID == s.ParentPostID
	}
	return false
}

func (s Scope) String() string {
	if s.Kind == ThreadScope {
		return fmt.Sprintf("thread(%s)", s.ThreadID)
	}
	return fmt.Sprintf("post(%s/%s)", s.ThreadID, s.ParentPostID)
}
