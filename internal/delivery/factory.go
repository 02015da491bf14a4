package delivery

import (
	"context"
	"fmt"
	"os"

	"notifier-go/internal/config"
	"notifier-go/internal/model"
	"notifier-go/internal/notify"
)

// NewDelivererFromConfig creates a Deliverer based on the delivery config type.
func NewDelivererFromConfig(cfg config.DeliveryConfig) (notify.Deliverer, error) {
	switch cfg.Type {
	case "stdout":
		return NewWriterDeliverer(os.Stdout, cfg.Username), nil
	case "none":
		return NopDeliverer{}, nil
	default:
		return nil, fmt.Errorf("unknown delivery type: %s", cfg.Type)
	}
}

// NopDeliverer accepts every digest without delivering anything.
type NopDeliverer struct{}

func (NopDeliverer) Deliver(context.Context, model.User, notify.Digest) error { return nil }
