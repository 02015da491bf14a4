package dump

import (
	"context"
	"fmt"

	"notifier-go/internal/config"
	"notifier-go/internal/notify"
)

// NewDumpStoreFromConfig creates a DumpStore based on the dump config type.
// Type "none" returns nil: the service skips retention entirely.
func NewDumpStoreFromConfig(ctx context.Context, cfg config.DumpConfig, hostID string, idgen notify.IDGenerator) (notify.DumpStore, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryStore(), nil
	case "s3":
		return NewS3Store(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region, hostID, idgen)
	default:
		return nil, fmt.Errorf("unknown dump store type: %s", cfg.Type)
	}
}
