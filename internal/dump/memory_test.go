package dump_test

import (
	"context"
	"testing"
	"time"

	"notifier-go/internal/config"
	"notifier-go/internal/dump"
	"notifier-go/internal/model"
)

func TestMemoryStore(t *testing.T) {
	s := dump.NewMemoryStore()

	m := model.RunMetrics{ID: 7, StartTimestamp: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)}
	if err := s.PutRunMetrics(context.Background(), m); err != nil {
		t.Fatalf("PutRunMetrics() error = %v", err)
	}

	records := s.Records()
	if len(records) != 1 {
		t.Fatalf("Records() returned %d records, want 1", len(records))
	}
	if records[0].ID != 7 {
		t.Errorf("records[0].ID = %d, want 7", records[0].ID)
	}
}

func TestNewDumpStoreFromConfig(t *testing.T) {
	t.Run("none yields no store", func(t *testing.T) {
		s, err := dump.NewDumpStoreFromConfig(context.Background(), config.DumpConfig{Type: "none"}, "host-1", nil)
		if err != nil {
			t.Fatalf("NewDumpStoreFromConfig() error = %v", err)
		}
		if s != nil {
			t.Errorf("store = %v, want nil", s)
		}
	})

	t.Run("memory yields a memory store", func(t *testing.T) {
		s, err := dump.NewDumpStoreFromConfig(context.Background(), config.DumpConfig{Type: "memory"}, "host-1", nil)
		if err != nil {
			t.Fatalf("NewDumpStoreFromConfig() error = %v", err)
		}
		if _, ok := s.(*dump.MemoryStore); !ok {
			t.Errorf("store = %T, want *dump.MemoryStore", s)
		}
	})

	t.Run("unknown type errors", func(t *testing.T) {
		if _, err := dump.NewDumpStoreFromConfig(context.Background(), config.DumpConfig{Type: "tape"}, "host-1", nil); err == nil {
			t.Error("NewDumpStoreFromConfig() expected error for unknown type")
		}
	})
}
