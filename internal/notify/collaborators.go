package notify

import (
	"context"

	"notifier-go/internal/model"
)

// PostRef identifies a post discovered on a wiki's new-posts feed.
type PostRef struct {
	WikiID   string
	ThreadID string
	PostID   string
}

// PostSource discovers references to newly made posts. Implementations may
// skip wikis whose feed cannot be fetched; a partial result is acceptable
// because undiscovered posts are picked up on the next cycle.
type PostSource interface {
	DiscoverPosts(ctx context.Context, wikis []model.Wiki) ([]PostRef, error)
}

// ThreadFetcher downloads a thread and its posts from the source platform.
// Fetching raw content is an external collaborator's concern; the service
// only defines the interface it consumes.
type ThreadFetcher interface {
	FetchThread(ctx context.Context, wikiID, threadID string) (model.Thread, []model.Post, error)
}

// Deliverer hands a compiled digest to the delivery mechanism (email, PM,
// ...). A non-nil error means the user was not notified and their notified
// timestamp must not advance.
type Deliverer interface {
	Deliver(ctx context.Context, user model.User, digest Digest) error
}

// DumpStore receives the audit record of a completed run for off-site
// retention.
type DumpStore interface {
	PutRunMetrics(ctx context.Context, m model.RunMetrics) error
}
