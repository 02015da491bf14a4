package notify

import (
	"time"

	"notifier-go/internal/model"
)

// Window bounds one run to the posts made within [Lower, Upper], inclusive
// at both ends. It prevents a post from being claimed by more than one
// channel's run.
type Window struct {
	Lower time.Time
	Upper time.Time
}

// Contains reports whether t falls within the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Lower) && !t.After(w.Upper)
}

// Resolver decides which posts each user should be notified about. It is a
// pure computation over an immutable snapshot: the eligibility rules form
// an ordered pipeline of filters (positive match, then override veto, then
// the reply self-response dedup) so each rule stays independently testable.
// The veto always wins, no matter which positive rule fired.
type Resolver struct {
	snap *Snapshot
}

// NewResolver creates a resolver over the given snapshot.
func NewResolver(snap *Snapshot) *Resolver {
	return &Resolver{snap: snap}
}

// Resolve computes the notification sets for all users whose frequency
// matches the given channel. Users with nothing to be notified about are
// absent from the result.
func (r *Resolver) Resolve(users []model.User, channel Frequency, w Window) map[string][]model.Post {
	result := make(map[string][]model.Post)
	for _, u := range users {
		if u.Frequency != string(channel) {
			continue
		}
		if posts := r.ResolveUser(u, w); len(posts) > 0 {
			result[u.ID] = posts
		}
	}
	return result
}

// ResolveUser returns the ordered sequence of posts the user should be
// notified about, oldest first (ties broken by post ID ascending). Snapshot
// posts are already in that order, so the filter preserves it.
func (r *Resolver) ResolveUser(u model.User, w Window) []model.Post {
	var matched []model.Post
	for _, p := range r.snap.Posts() {
		if r.eligible(u, p, w) {
			matched = append(matched, p)
		}
	}
	return matched
}

// HasEligible reports whether at least one post satisfies the user's full
// eligibility predicate. It short-circuits on the first match, so candidacy
// can be decided without materializing the full set.
func (r *Resolver) HasEligible(u model.User, w Window) bool {
	for _, p := range r.snap.Posts() {
		if r.eligible(u, p, w) {
			return true
		}
	}
	return false
}

// eligible is the top-level post eligibility predicate.
func (r *Resolver) eligible(u model.User, p model.Post, w Window) bool {
	// Never notify authors about their own content.
	if p.UserID == u.ID {
		return false
	}
	// Strictly newer than the last notification; this is the only
	// cross-run anti-duplication mechanism.
	if !p.PostedTimestamp.After(u.NotifiedTimestamp) {
		return false
	}
	if !w.Contains(p.PostedTimestamp) {
		return false
	}

	threadMatch := r.threadMatch(u, p)
	replyMatch := r.replyMatch(u, p)
	if !threadMatch && !replyMatch {
		return false
	}

	// The veto is checked independently of which positive rule fired and
	// always wins, including over a conflicting subscribe in the same
	// exact scope.
	if r.vetoed(u, p) {
		return false
	}

	// Self-response dedup applies only when the reply path is the sole
	// reason for the match: once the user has answered the parent post,
	// that sub-conversation counts as seen.
	if !threadMatch && r.snap.HasReplied(u.ID, p.ParentPostID) {
		return false
	}

	return true
}

// threadMatch covers the thread-view positive rules: the user started the
// post's thread, or holds a thread-level subscription to it.
func (r *Resolver) threadMatch(u model.User, p model.Post) bool {
	if starter, ok := r.snap.FirstPoster(p.ThreadID); ok && starter == u.ID {
		return true
	}
	for _, sub := range r.snap.SubsFor(u.ID) {
		if sub.Sub != model.Subscribe {
			continue
		}
		sc := SubScope(sub)
		if sc.Kind == ThreadScope && sc.Matches(p) {
			return true
		}
	}
	return false
}

// replyMatch covers the reply-specific positive rules: the post is a direct
// reply to a post the user authored, or to a post the user individually
// subscribed to.
func (r *Resolver) replyMatch(u model.User, p model.Post) bool {
	if p.ParentPostID == "" {
		return false
	}
	if parent, ok := r.snap.Post(p.ParentPostID); ok && parent.UserID == u.ID {
		return true
	}
	for _, sub := range r.snap.SubsFor(u.ID) {
		if sub.Sub != model.Subscribe {
			continue
		}
		sc := SubScope(sub)
		if sc.Kind == PostScope && sc.Matches(p) {
			return true
		}
	}
	return false
}

// vetoed reports whether any unsubscribe override matches the post's scope.
func (r *Resolver) vetoed(u model.User, p model.Post) bool {
	for _, sub := range r.snap.SubsFor(u.ID) {
		if sub.Sub != model.Unsubscribe {
			continue
		}
		if SubScope(sub).Matches(p) {
			return true
		}
	}
	return false
}
