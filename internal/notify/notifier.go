package notify

import (
	"context"
	"time"

	"github.com/denisok6893-rgb/crm-lead-matching/internal/domain"
	"github.com/denisok6893-rgb/crm-lead-matching/internal/logging"
)

// Notifier turns ranking results into events. Publish failures are logged and
// swallowed so they never fail the caller.
type Notifier struct {
	pub Publisher
	th  Thresholds
	now func() time.Time
}

func NewNotifier(pub Publisher, th Thresholds) *Notifier {
	if pub == nil {
		pub = NoopPublisher{}
	}
	return &Notifier{pub: pub, th: th, now: time.Now}
}

// ListingCreated publishes listing.matched when the new listing fits any lead.
func (n *Notifier) ListingCreated(ctx context.Context, listing domain.Listing, ranked []domain.LeadMatch) {
	ev, ok := NewListingMatchedEvent(listing, ranked, n.th, n.now())
	if !ok {
		return
	}
	n.publish(ctx, ev)
}

// LeadCreated publishes lead.matched when the new lead fits any listing.
func (n *Notifier) LeadCreated(ctx context.Context, lead domain.Lead, ranked []domain.MatchResult) {
	ev, ok := NewLeadMatchedEvent(lead, ranked, n.th, n.now())
	if !ok {
		return
	}
	n.publish(ctx, ev)
}

func (n *Notifier) publish(ctx context.Context, ev Event) {
	ev.TraceID = logging.TraceIDFromContext(ctx)
	logger := logging.FromContext(ctx).With("event", ev.Type, "subject_id", ev.SubjectID, "matches", len(ev.Matches))
	if err := n.pub.Publish(ctx, ev); err != nil {
		logger.Error("publish match event failed", "err", err)
		return
	}
	logger.Debug("match event published")
}
