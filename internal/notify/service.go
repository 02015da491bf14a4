package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"notifier-go/internal/model"
)

// defaultWorkers bounds concurrent per-user delivery so the delivery
// mechanism and the store are not overwhelmed.
const defaultWorkers = 4

// Service is the run orchestrator. It drives one resolver pass per
// frequency channel, hands each user's digest to the delivery collaborator,
// advances notified timestamps for successfully delivered users, and
// records one audit record per run.
type Service struct {
	db        Database
	source    PostSource    // nil when new-post discovery is not configured
	fetcher   ThreadFetcher // nil when thread hydration is not configured
	deliverer Deliverer
	dump      DumpStore // nil when off-site retention is not configured
	logger    Logger
	clock     Clock
	workers   int
}

// NewService creates a Service with the provided collaborators. source,
// fetcher and dump may be nil; the corresponding pipeline stages are then
// skipped.
func NewService(db Database, source PostSource, fetcher ThreadFetcher, deliverer Deliverer, dump DumpStore, logger Logger, clock Clock, workers int) *Service {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Service{
		db:        db,
		source:    source,
		fetcher:   fetcher,
		deliverer: deliverer,
		dump:      dump,
		logger:    logger,
		clock:     clock,
		workers:   workers,
	}
}

// Run executes the full pipeline for the given channels: refresh config
// counts, download new posts, then notify each channel over the window
// [lower, now]. A zero lower means no forced lower bound (each user's
// notified timestamp governs). One RunMetrics record is appended on
// success. A content-fetch failure aborts the run before any user's
// notified timestamp is advanced.
func (s *Service) Run(ctx context.Context, channels []Frequency, lower time.Time) (*model.RunMetrics, error) {
	if len(channels) == 0 {
		s.logger.Warn("no active channels; nothing to do")
		return nil, nil
	}

	var m model.RunMetrics
	m.StartTimestamp = s.clock.Now()

	m.ConfigStartTimestamp = s.clock.Now()
	wikis, err := s.db.GetWikis()
	if err != nil {
		return nil, fmt.Errorf("loading wikis: %w", err)
	}
	m.SitesCount = len(wikis)
	userCount, err := s.db.CountUsers()
	if err != nil {
		return nil, fmt.Errorf("counting users: %w", err)
	}
	m.UserCount = userCount
	m.ConfigEndTimestamp = s.clock.Now()

	m.GetPostStartTimestamp = s.clock.Now()
	postCount, threadCount, err := s.fetchNewPosts(ctx, wikis)
	if err != nil {
		return nil, fmt.Errorf("fetching new posts: %w", err)
	}
	m.DownloadedPostCount = postCount
	m.DownloadedThreadCount = threadCount
	m.GetPostEndTimestamp = s.clock.Now()

	// The window's upper bound is recorded immediately after downloading
	// posts: anything later belongs to the next run.
	upper := s.clock.Now()
	window := Window{Lower: lower, Upper: upper}

	m.NotifyStartTimestamp = s.clock.Now()
	for _, channel := range channels {
		if _, err := s.RunChannel(ctx, channel, window); err != nil {
			return nil, fmt.Errorf("notifying channel %s: %w", channel, err)
		}
	}
	m.NotifyEndTimestamp = s.clock.Now()
	m.EndTimestamp = s.clock.Now()

	stored, err := s.db.StoreRunMetrics(m)
	if err != nil {
		return nil, fmt.Errorf("storing run metrics: %w", err)
	}

	if s.dump != nil {
		// Retention is best-effort: notifications are already out and
		// timestamps advanced, so a dump failure must not fail the run.
		if err := s.dump.PutRunMetrics(ctx, stored); err != nil {
			s.logger.Error("uploading run metrics dump", "error", err)
		}
	}

	return &stored, nil
}

// fetchNewPosts discovers new posts on the wikis' feeds and downloads the
// threads containing posts the store does not yet have. Returns the number
// of new posts and threads downloaded.
func (s *Service) fetchNewPosts(ctx context.Context, wikis []model.Wiki) (int, int, error) {
	if s.source == nil {
		s.logger.Debug("no post source configured; skipping new post fetch")
		return 0, 0, nil
	}

	refs, err := s.source.DiscoverPosts(ctx, wikis)
	if err != nil {
		return 0, 0, fmt.Errorf("discovering posts: %w", err)
	}
	if len(refs) == 0 {
		return 0, 0, nil
	}

	postIDs := make([]string, len(refs))
	for i, ref := range refs {
		postIDs[i] = ref.PostID
	}
	newIDs, err := s.db.FindNewPosts(postIDs)
	if err != nil {
		return 0, 0, fmt.Errorf("checking for new posts: %w", err)
	}
	if len(newIDs) == 0 {
		return 0, 0, nil
	}

	if s.fetcher == nil {
		// Thread hydration is an external collaborator; without one the
		// discovered posts are picked up once it is configured.
		s.logger.Info("discovered new posts but no thread fetcher configured", "count", len(newIDs))
		return 0, 0, nil
	}

	// Download each thread that contains at least one unknown post. The
	// whole thread is refetched so parent relations stay complete.
	isNew := make(map[string]bool, len(newIDs))
	for _, id := range newIDs {
		isNew[id] = true
	}
	fetched := make(map[string]bool)
	postCount := 0
	threadCount := 0
	for _, ref := range refs {
		if !isNew[ref.PostID] || fetched[ref.ThreadID] {
			continue
		}
		thread, posts, err := s.fetcher.FetchThread(ctx, ref.WikiID, ref.ThreadID)
		if err != nil {
			return 0, 0, fmt.Errorf("fetching thread %s: %w", ref.ThreadID, err)
		}
		if err := s.db.UpsertThread(thread); err != nil {
			return 0, 0, fmt.Errorf("storing thread %s: %w", thread.ID, err)
		}
		for _, p := range posts {
			if err := s.db.UpsertPost(p); err != nil {
				return 0, 0, fmt.Errorf("storing post %s: %w", p.ID, err)
			}
			if isNew[p.ID] {
				postCount++
			}
		}
		fetched[ref.ThreadID] = true
		threadCount++
	}

	s.logger.Info("downloaded new posts", "posts", postCount, "threads", threadCount)
	return postCount, threadCount, nil
}

// RunChannel resolves and delivers notifications for every user on the
// given frequency channel. It returns the resolver's full mapping from user
// ID to matched posts; users with no matches are absent. A single user's
// delivery failure is logged and skipped without affecting other users. A
// snapshot-fetch failure is fatal to the whole run and advances nothing.
func (s *Service) RunChannel(ctx context.Context, channel Frequency, window Window) (map[string][]model.Post, error) {
	s.logger.Info("activating channel", "channel", channel)

	users, err := s.db.GetUserConfigs(string(channel))
	if err != nil {
		return nil, fmt.Errorf("loading user configs: %w", err)
	}

	snap, warnings, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		s.logger.Warn("skipping malformed post", "post", w.PostID, "reason", w.Reason)
	}

	results := NewResolver(snap).Resolve(users, channel, window)
	s.logger.Debug("resolved channel", "channel", channel, "users", len(users), "notifiable", len(results))
	if len(results) == 0 {
		return results, nil
	}

	userByID := make(map[string]model.User, len(users))
	for _, u := range users {
		userByID[u.ID] = u
	}

	// Deliver with bounded concurrency. Each user's notified timestamp
	// advances only after that user's delivery succeeds, so a failure
	// leaves the user eligible for the next run.
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		notified int
	)
	jobs := make(chan string)
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for userID := range jobs {
				if s.notifyUser(ctx, channel, userByID[userID], results[userID]) {
					mu.Lock()
					notified++
					mu.Unlock()
				}
			}
		}()
	}
	for userID := range results {
		jobs <- userID
	}
	close(jobs)
	wg.Wait()

	s.logger.Info("finished notifying channel", "channel", channel, "users_notified", notified)
	return results, nil
}

// notifyUser compiles and delivers one user's digest, then records the
// user's last notification time. Returns whether the user was notified.
func (s *Service) notifyUser(ctx context.Context, channel Frequency, user model.User, posts []model.Post) bool {
	digest := NewDigest(user, posts)
	if err := s.deliverer.Deliver(ctx, user, digest); err != nil {
		s.logger.Error("failed to notify user", "user", user.Username, "channel", channel, "error", err)
		return false
	}

	// The recorded time is the timestamp of the most recent post the user
	// is being notified about; posts are ordered oldest first.
	last := posts[len(posts)-1].PostedTimestamp
	if err := s.db.StoreUserLastNotified(user.ID, last); err != nil {
		// The notification went out but the timestamp did not advance;
		// the user may be re-notified next run. Surface loudly.
		s.logger.Error("failed to record notification", "user", user.Username, "channel", channel, "error", err)
		return false
	}

	s.logger.Debug("notified user", "user", user.Username, "channel", channel, "posts", len(posts), "recorded", last)
	return true
}

// loadSnapshot reads an immutable view of the content and subscription
// stores for one resolver pass.
func (s *Service) loadSnapshot() (*Snapshot, []IntegrityWarning, error) {
	threads, err := s.db.GetThreads()
	if err != nil {
		return nil, nil, fmt.Errorf("loading threads: %w", err)
	}
	posts, err := s.db.GetPosts()
	if err != nil {
		return nil, nil, fmt.Errorf("loading posts: %w", err)
	}
	subs, err := s.db.GetManualSubs()
	if err != nil {
		return nil, nil, fmt.Errorf("loading manual subs: %w", err)
	}
	snap, warnings := NewSnapshot(threads, posts, subs)
	return snap, warnings, nil
}
