// Package delivery provides delivery-mechanism implementations. Real
// email/PM transport lives outside this system; these implementations
// cover dry runs and tests.
package delivery

import (
	"context"
	"fmt"
	"io"

	"notifier-go/internal/model"
	"notifier-go/internal/notify"
)

// WriterDeliverer prints each digest's summary to a writer. It is the
// dry-run delivery mechanism. account names the delivery account the
// digest would be sent from; empty means anonymous.
type WriterDeliverer struct {
	w       io.Writer
	account string
}

func NewWriterDeliverer(w io.Writer, account string) *WriterDeliverer {
	return &WriterDeliverer{w: w, account: account}
}

func (d *WriterDeliverer) Deliver(_ context.Context, user model.User, digest notify.Digest) error {
	header := fmt.Sprintf("%s <%s>: %s\n", user.Username, user.ID, digest.Subject)
	if d.account != "" {
		header = fmt.Sprintf("%s -> %s <%s>: %s\n", d.account, user.Username, user.ID, digest.Subject)
	}
	if _, err := io.WriteString(d.w, header); err != nil {
		return fmt.Errorf("writing digest for %s: %w", user.Username, err)
	}
	for _, p := range digest.Posts {
		if _, err := fmt.Fprintf(d.w, "  %s  %s  by %s\n", p.PostedTimestamp.Format("2006-01-02 15:04:05"), p.Title, p.Username); err != nil {
			return fmt.Errorf("writing digest for %s: %w", user.Username, err)
		}
	}
	return nil
}

// Compile-time check that WriterDeliverer implements notify.Deliverer
var _ notify.Deliverer = (*WriterDeliverer)(nil)
