package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"notifier-go/internal/config"
	"notifier-go/internal/database"
	"notifier-go/internal/delivery"
	"notifier-go/internal/dump"
	"notifier-go/internal/feed"
	"notifier-go/internal/model"
	"notifier-go/internal/notify"
)

// NotifierApp is the application layer between the CLI and the notify
// Service. It constructs all collaborators from config, exposes high-level
// operations that accept raw strings, and manages the DB lifecycle on Close.
type NotifierApp struct {
	cfg     *config.Config
	db      notify.Database
	service *notify.Service
	logger  notify.Logger
	logFile *os.File
}

// NewNotifierApp creates a fully wired NotifierApp from the given config.
// The caller must call Close when done.
func NewNotifierApp(ctx context.Context, cfg *config.Config) (*NotifierApp, error) {
	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.HostID)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date (run migrate): %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, runID)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	var source notify.PostSource
	switch cfg.Source.Type {
	case "rss":
		source = feed.NewFetcher(cfg.Source.FeedPattern, cfg.Source.TimeoutSec, logger)
	case "", "none":
	default:
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("unknown source type: %s", cfg.Source.Type)
	}

	deliverer, err := delivery.NewDelivererFromConfig(cfg.Delivery)
	if err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating deliverer: %w", err)
	}

	dumpStore, err := dump.NewDumpStoreFromConfig(ctx, cfg.Dump, cfg.HostID, notify.UUIDGenerator{})
	if err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating dump store: %w", err)
	}

	svc := notify.NewService(db, source, nil, deliverer, dumpStore, logger, notify.RealClock{}, cfg.Notify.Workers)

	return &NotifierApp{
		cfg:     cfg,
		db:      db,
		service: svc,
		logger:  logger,
		logFile: logFile,
	}, nil
}

// Notify runs the notification pipeline. channelNames selects the frequency
// channels to activate; when empty, the channels whose crontab matches the
// current time are used. since forces a lower bound on the notification
// window; a zero value leaves each user's notified timestamp in charge.
func (a *NotifierApp) Notify(ctx context.Context, channelNames []string, since time.Time) (*model.RunMetrics, error) {
	channels, err := resolveChannels(channelNames)
	if err != nil {
		return nil, err
	}

	if err := a.syncWikis(); err != nil {
		return nil, err
	}

	return a.service.Run(ctx, channels, since)
}

// resolveChannels parses the requested channel names, or picks the channels
// due at the current time when none are given.
func resolveChannels(names []string) ([]notify.Frequency, error) {
	if len(names) == 0 {
		return notify.DueChannels(time.Now().UTC()), nil
	}
	channels := make([]notify.Frequency, 0, len(names))
	for _, name := range names {
		f, err := notify.ParseFrequency(name)
		if err != nil {
			return nil, err
		}
		channels = append(channels, f)
	}
	return channels, nil
}

// syncWikis pushes the configured wiki list into the store so the pipeline
// and the resolver see the same set of watched sites.
func (a *NotifierApp) syncWikis() error {
	for _, w := range a.cfg.Wikis {
		if err := a.db.UpsertWiki(model.Wiki{ID: w.ID, Secure: w.Secure}); err != nil {
			return fmt.Errorf("storing wiki %s: %w", w.ID, err)
		}
	}
	return nil
}

// History returns the most recent run records, newest first.
func (a *NotifierApp) History(limit int) ([]model.RunMetrics, error) {
	return a.db.GetRunMetrics(limit)
}

// SetUser registers or updates a user's notification configuration.
// The frequency must name a known channel.
func (a *NotifierApp) SetUser(user model.User) error {
	if _, err := notify.ParseFrequency(user.Frequency); err != nil {
		return err
	}
	if user.ID == "" {
		return fmt.Errorf("user id required")
	}
	return a.db.UpsertUserConfig(user)
}

// Subscribe records a manual subscription override. An empty postID scopes
// the override to the whole thread; otherwise it scopes to direct replies to
// that post. unsubscribe inverts the override into a veto.
func (a *NotifierApp) Subscribe(userID, threadID, postID string, unsubscribe bool) error {
	if userID == "" || threadID == "" {
		return fmt.Errorf("user id and thread id required")
	}
	sub := model.Subscribe
	if unsubscribe {
		sub = model.Unsubscribe
	}
	return a.db.PutManualSub(model.ManualSub{
		UserID:   userID,
		ThreadID: threadID,
		PostID:   postID,
		Sub:      sub,
	})
}

// Unsubscribe removes the manual override with the given scope, restoring
// the default notification rules for it.
func (a *NotifierApp) Unsubscribe(userID, threadID, postID string) error {
	if userID == "" || threadID == "" {
		return fmt.Errorf("user id and thread id required")
	}
	return a.db.DeleteManualSub(userID, threadID, postID)
}

// Close closes the database and the log file.
func (a *NotifierApp) Close() error {
	var firstErr error

	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
