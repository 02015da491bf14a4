package testutil

import (
	"context"
	"fmt"
	"sync"

	"notifier-go/internal/model"
	"notifier-go/internal/notify"
)

// Delivered records one digest handed to the CapturingDeliverer.
type Delivered struct {
	User   model.User
	Digest notify.Digest
}

// CapturingDeliverer records every delivered digest. Users listed in
// FailFor get an error instead; their digests are not recorded.
type CapturingDeliverer struct {
	mu        sync.Mutex
	delivered []Delivered
	failFor   map[string]bool
}

func NewCapturingDeliverer() *CapturingDeliverer {
	return &CapturingDeliverer{failFor: make(map[string]bool)}
}

// FailFor makes delivery fail for the given user ID.
func (d *CapturingDeliverer) FailFor(userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failFor[userID] = true
}

func (d *CapturingDeliverer) Deliver(_ context.Context, user model.User, digest notify.Digest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failFor[user.ID] {
		return fmt.Errorf("delivery refused for %s", user.ID)
	}
	d.delivered = append(d.delivered, Delivered{User: user, Digest: digest})
	return nil
}

// Delivered returns a copy of all recorded deliveries.
func (d *CapturingDeliverer) Delivered() []Delivered {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Delivered, len(d.delivered))
	copy(out, d.delivered)
	return out
}

// DeliveredTo returns the digest delivered to a user, if any.
func (d *CapturingDeliverer) DeliveredTo(userID string) (notify.Digest, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, rec := range d.delivered {
		if rec.User.ID == userID {
			return rec.Digest, true
		}
	}
	return notify.Digest{}, false
}
