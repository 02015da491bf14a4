package testutil

import (
	"context"
	"fmt"

	"notifier-go/internal/model"
	"notifier-go/internal/notify"
)

// StubPostSource returns a fixed set of post references.
type StubPostSource struct {
	Refs []notify.PostRef
	Err  error
}

func (s *StubPostSource) DiscoverPosts(context.Context, []model.Wiki) ([]notify.PostRef, error) {
	return s.Refs, s.Err
}

// StubThreadFetcher serves threads and their posts from memory, keyed by
// thread ID.
type StubThreadFetcher struct {
	Threads map[string]model.Thread
	Posts   map[string][]model.Post
	Err     error
}

func NewStubThreadFetcher() *StubThreadFetcher {
	return &StubThreadFetcher{
		Threads: make(map[string]model.Thread),
		Posts:   make(map[string][]model.Post),
	}
}

// AddThread registers a thread and its posts.
func (f *StubThreadFetcher) AddThread(thread model.Thread, posts ...model.Post) {
	f.Threads[thread.ID] = thread
	f.Posts[thread.ID] = posts
}

func (f *StubThreadFetcher) FetchThread(_ context.Context, _, threadID string) (model.Thread, []model.Post, error) {
	if f.Err != nil {
		return model.Thread{}, nil, f.Err
	}
	thread, ok := f.Threads[threadID]
	if !ok {
		return model.Thread{}, nil, fmt.Errorf("no such thread: %s", threadID)
	}
	return thread, f.Posts[threadID], nil
}
