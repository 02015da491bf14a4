// Package feed discovers new forum posts from each wiki's posts RSS feed.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"notifier-go/internal/model"
	"notifier-go/internal/notify"
)

// DefaultFeedPattern is the posts feed location for a wiki. HTTPS doesn't
// work for insecure wikis, but HTTP does work for secure ones.
const DefaultFeedPattern = "http://%s.wikidot.com/feed/forum/posts.xml"

// Fetcher discovers new post references from wiki RSS feeds. It implements
// notify.PostSource.
type Fetcher struct {
	pattern string
	parser  *gofeed.Parser
	logger  notify.Logger
}

// NewFetcher constructs a Fetcher. pattern is a printf pattern taking the
// wiki ID; empty means DefaultFeedPattern. timeoutSec bounds each feed
// request; zero or negative uses 30 seconds.
func NewFetcher(pattern string, timeoutSec int, logger notify.Logger) *Fetcher {
	if pattern == "" {
		pattern = DefaultFeedPattern
	}
	if timeoutSec <= 0 {
		timeoutSec = 30
	}
	p := gofeed.NewParser()
	p.Client = &http.Client{Timeout: time.Duration(timeoutSec) * time.Second}
	return &Fetcher{pattern: pattern, parser: p, logger: logger}
}

// DiscoverPosts fetches each wiki's posts feed and returns the post
// references found. A feed that cannot be fetched or parsed is logged and
// skipped; its posts will be discovered on a later cycle.
func (f *Fetcher) DiscoverPosts(ctx context.Context, wikis []model.Wiki) ([]notify.PostRef, error) {
	var refs []notify.PostRef
	for _, wiki := range wikis {
		feedURL := fmt.Sprintf(f.pattern, wiki.ID)
		parsed, err := f.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.logger.Warn("failed to fetch posts feed", "wiki", wiki.ID, "url", feedURL, "error", err)
			continue
		}
		count := 0
		for _, item := range parsed.Items {
			if item == nil {
				continue
			}
			threadID, postID, err := ParseThreadURL(firstNonEmpty(item.GUID, item.Link))
			if err != nil {
				f.logger.Debug("skipping feed entry", "wiki", wiki.ID, "error", err)
				continue
			}
			refs = append(refs, notify.PostRef{WikiID: wiki.ID, ThreadID: threadID, PostID: postID})
			count++
		}
		f.logger.Debug("parsed posts feed", "wiki", wiki.ID, "entries", len(parsed.Items), "refs", count)
	}
	return refs, nil
}

// ParseThreadURL extracts the thread and post IDs from a feed entry URL of
// the form http://<wiki>.wikidot.com/forum/t-<n>/<slug>#post-<n>.
func ParseThreadURL(raw string) (threadID, postID string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parsing entry URL %q: %w", raw, err)
	}
	for _, segment := range strings.Split(u.Path, "/") {
		if strings.HasPrefix(segment, "t-") {
			threadID = segment
			break
		}
	}
	if threadID == "" {
		return "", "", fmt.Errorf("no thread ID in entry URL %q", raw)
	}
	if !strings.HasPrefix(u.Fragment, "post-") {
		return "", "", fmt.Errorf("no post ID in entry URL %q", raw)
	}
	return threadID, u.Fragment, nil
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// Compile-time check that Fetcher implements notify.PostSource
var _ notify.PostSource = (*Fetcher)(nil)
