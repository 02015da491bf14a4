package app_test

import (
	"context"
	"testing"
	"time"

	"notifier-go/internal/app"
	"notifier-go/internal/config"
	"notifier-go/internal/model"
)

// newTestApp wires a NotifierApp against an in-memory database with no
// post source and no real delivery.
func newTestApp(t *testing.T) *app.NotifierApp {
	t.Helper()

	cfg := config.NewConfig("test-host", t.TempDir())
	cfg.Database = config.DatabaseConfig{Type: "memory"}
	cfg.Source = config.SourceConfig{Type: "none"}
	cfg.Delivery = config.DeliveryConfig{Type: "none"}
	cfg.Dump = config.DumpConfig{Type: "memory"}
	cfg.Wikis = []config.WikiConfig{{ID: "sandbox"}}

	a, err := app.NewNotifierApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewNotifierApp() error = %v", err)
	}
	t.Cleanup(func() {
		a.Close()
	})
	return a
}

func TestNotifierApp_Notify(t *testing.T) {
	a := newTestApp(t)

	if err := a.SetUser(model.User{ID: "u1", Username: "alice", Frequency: "daily"}); err != nil {
		t.Fatalf("SetUser() error = %v", err)
	}

	m, err := a.Notify(context.Background(), []string{"daily"}, time.Time{})
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if m == nil {
		t.Fatal("Notify() returned nil metrics")
	}
	if m.UserCount != 1 {
		t.Errorf("UserCount = %d, want 1", m.UserCount)
	}
	if m.SitesCount != 1 {
		t.Errorf("SitesCount = %d, want 1", m.SitesCount)
	}

	runs, err := a.History(10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("History() returned %d runs, want 1", len(runs))
	}
	if runs[0].ID != m.ID {
		t.Errorf("History()[0].ID = %d, want %d", runs[0].ID, m.ID)
	}
}

func TestNotifierApp_Notify_UnknownChannel(t *testing.T) {
	a := newTestApp(t)

	if _, err := a.Notify(context.Background(), []string{"fortnightly"}, time.Time{}); err == nil {
		t.Error("Notify() expected error for unknown channel")
	}
}

func TestNotifierApp_SetUser(t *testing.T) {
	a := newTestApp(t)

	if err := a.SetUser(model.User{ID: "u1", Username: "alice", Frequency: "fortnightly"}); err == nil {
		t.Error("SetUser() expected error for unknown frequency")
	}
	if err := a.SetUser(model.User{Username: "alice", Frequency: "daily"}); err == nil {
		t.Error("SetUser() expected error for missing user id")
	}
}

func TestNotifierApp_Subscribe(t *testing.T) {
	a := newTestApp(t)

	if err := a.Subscribe("u1", "t1", "", false); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := a.Subscribe("u1", "t1", "p1", true); err != nil {
		t.Fatalf("Subscribe() veto error = %v", err)
	}
	if err := a.Subscribe("", "t1", "", false); err == nil {
		t.Error("Subscribe() expected error for missing user id")
	}

	if err := a.Unsubscribe("u1", "t1", ""); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	if err := a.Unsubscribe("u1", "", ""); err == nil {
		t.Error("Unsubscribe() expected error for missing thread id")
	}
}
