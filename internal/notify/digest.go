package notify

import (
	"fmt"

	"notifier-go/internal/model"
)

// Digest is the compiled notification for one user: the matched posts in
// delivery order plus summary figures. Rendering the full notification body
// is the delivery mechanism's concern.
type Digest struct {
	Subject string
	Posts   []model.Post
}

// NewDigest compiles a digest from a user's resolved posts. The posts must
// already be in result order (oldest first).
func NewDigest(user model.User, posts []model.Post) Digest {
	return Digest{
		Subject: fmt.Sprintf("%d new post(s) in %d thread(s)", len(posts), countThreads(posts)),
		Posts:   posts,
	}
}

// ThreadCount returns the number of distinct threads in the digest.
func (d Digest) ThreadCount() int { return countThreads(d.Posts) }

// countThreads counts the unique threads in a list of posts.
func countThreads(posts []model.Post) int {
	seen := make(map[string]bool, len(posts))
	for _, p := range posts {
		seen[p.ThreadID] = true
	}
	return len(seen)
}
