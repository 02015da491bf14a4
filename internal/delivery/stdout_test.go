package delivery_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"notifier-go/internal/config"
	"notifier-go/internal/delivery"
	"notifier-go/internal/model"
	"notifier-go/internal/notify"
)

func TestWriterDeliverer(t *testing.T) {
	user := model.User{ID: "u1", Username: "alice"}
	posts := []model.Post{
		{ID: "p1", Title: "re: hello", Username: "bob", ThreadID: "t1",
			PostedTimestamp: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)},
	}

	t.Run("prints the digest summary", func(t *testing.T) {
		var buf bytes.Buffer
		d := delivery.NewWriterDeliverer(&buf, "")

		if err := d.Deliver(context.Background(), user, notify.NewDigest(user, posts)); err != nil {
			t.Fatalf("Deliver() error = %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "alice <u1>") {
			t.Errorf("output missing user header: %q", out)
		}
		if !strings.Contains(out, "re: hello") || !strings.Contains(out, "by bob") {
			t.Errorf("output missing post line: %q", out)
		}
	})

	t.Run("names the sending account when configured", func(t *testing.T) {
		var buf bytes.Buffer
		d := delivery.NewWriterDeliverer(&buf, "notifier-bot")

		if err := d.Deliver(context.Background(), user, notify.NewDigest(user, posts)); err != nil {
			t.Fatalf("Deliver() error = %v", err)
		}

		if out := buf.String(); !strings.Contains(out, "notifier-bot -> alice <u1>") {
			t.Errorf("output missing account header: %q", out)
		}
	})
}

func TestNewDelivererFromConfig(t *testing.T) {
	t.Run("none yields a nop deliverer", func(t *testing.T) {
		d, err := delivery.NewDelivererFromConfig(config.DeliveryConfig{Type: "none"})
		if err != nil {
			t.Fatalf("NewDelivererFromConfig() error = %v", err)
		}
		u := model.User{ID: "u1"}
		if err := d.Deliver(context.Background(), u, notify.NewDigest(u, nil)); err != nil {
			t.Errorf("Deliver() error = %v", err)
		}
	})

	t.Run("unknown type errors", func(t *testing.T) {
		if _, err := delivery.NewDelivererFromConfig(config.DeliveryConfig{Type: "carrier-pigeon"}); err == nil {
			t.Error("NewDelivererFromConfig() expected error for unknown type")
		}
	})
}
