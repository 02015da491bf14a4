package notify

import (
	"sort"

	"notifier-go/internal/model"
)

// IntegrityWarning describes a post that was excluded from a snapshot
// because it references content that does not exist. A malformed post must
// not block notifications for unrelated users, so these are surfaced to the
// caller instead of aborting the run.
type IntegrityWarning struct {
	PostID string
	Reason string
}

// Snapshot is an immutable view of the content and subscription stores for
// one resolver pass. It precomputes the relations the eligibility rules
// need so they are built once per run rather than once per candidate:
// the first poster of each thread, post lookup by ID, and the set of users
// who have replied to each post.
type Snapshot struct {
	threads map[string]model.Thread
	posts   []model.Post // ordered by PostedTimestamp asc, ID asc

	firstPoster map[string]string          // thread ID -> first post's author
	postByID    map[string]model.Post      // post ID -> post
	repliers    map[string]map[string]bool // parent post ID -> author IDs of replies
	subsByUser  map[string][]model.ManualSub
}

// NewSnapshot builds a snapshot from store reads. Posts referencing an
// unknown thread or an unknown parent post are excluded and reported as
// integrity warnings.
func NewSnapshot(threads []model.Thread, posts []model.Post, subs []model.ManualSub) (*Snapshot, []IntegrityWarning) {
	s := &Snapshot{
		threads:     make(map[string]model.Thread, len(threads)),
		firstPoster: make(map[string]string),
		postByID:    make(map[string]model.Post, len(posts)),
		repliers:    make(map[string]map[string]bool),
		subsByUser:  make(map[string][]model.ManualSub),
	}
	for _, t := range threads {
		s.threads[t.ID] = t
	}

	// Index all posts first so parent references can be validated
	// regardless of input order.
	for _, p := range posts {
		s.postByID[p.ID] = p
	}

	var warnings []IntegrityWarning
	excluded := make(map[string]bool)
	for _, p := range posts {
		if _, ok := s.threads[p.ThreadID]; !ok {
			warnings = append(warnings, IntegrityWarning{PostID: p.ID, Reason: "references unknown thread " + p.ThreadID})
			excluded[p.ID] = true
			delete(s.postByID, p.ID)
		}
	}

	// Excluding a post invalidates its replies in turn, so rescan until
	// the kept set is stable. Input order must not matter.
	for changed := true; changed; {
		changed = false
		for _, p := range posts {
			if excluded[p.ID] || p.ParentPostID == "" {
				continue
			}
			if _, ok := s.postByID[p.ParentPostID]; !ok {
				warnings = append(warnings, IntegrityWarning{PostID: p.ID, Reason: "references unknown parent post " + p.ParentPostID})
				excluded[p.ID] = true
				delete(s.postByID, p.ID)
				changed = true
			}
		}
	}

	kept := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		if !excluded[p.ID] {
			kept = append(kept, p)
		}
	}

	sort.Slice(kept, func(i, j int) bool {
		if !kept[i].PostedTimestamp.Equal(kept[j].PostedTimestamp) {
			return kept[i].PostedTimestamp.Before(kept[j].PostedTimestamp)
		}
		return kept[i].ID < kept[j].ID
	})
	s.posts = kept

	for _, p := range kept {
		if p.IsFirstPost() {
			s.firstPoster[p.ThreadID] = p.UserID
			continue
		}
		set, ok := s.repliers[p.ParentPostID]
		if !ok {
			set = make(map[string]bool)
			s.repliers[p.ParentPostID] = set
		}
		set[p.UserID] = true
	}

	for _, sub := range subs {
		s.subsByUser[sub.UserID] = append(s.subsByUser[sub.UserID], sub)
	}

	return s, warnings
}

// Posts returns the snapshot's posts ordered by posted timestamp ascending,
// ties broken by post ID ascending.
func (s *Snapshot) Posts() []model.Post { return s.posts }

// Thread returns the thread with the given ID, if present.
func (s *Snapshot) Thread(id string) (model.Thread, bool) {
	t, ok := s.threads[id]
	return t, ok
}

// Post returns the post with the given ID, if present.
func (s *Snapshot) Post(id string) (model.Post, bool) {
	p, ok := s.postByID[id]
	return p, ok
}

// FirstPoster returns the author of a thread's first post.
func (s *Snapshot) FirstPoster(threadID string) (string, bool) {
	uid, ok := s.firstPoster[threadID]
	return uid, ok
}

// HasReplied reports whether the user has authored a reply to the given post.
func (s *Snapshot) HasReplied(userID, parentPostID string) bool {
	return s.repliers[parentPostID][userID]
}

// SubsFor returns the manual subscription overrides for a user.
func (s *Snapshot) SubsFor(userID string) []model.ManualSub {
	return s.subsByUser[userID]
}
