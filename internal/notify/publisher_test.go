package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/denisok6893-rgb/crm-lead-matching/internal/domain"
	"github.com/denisok6893-rgb/crm-lead-matching/internal/logging"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPPublisher_Publish(t *testing.T) {
	t.Parallel()

	ch := &fakeChannel{}
	p := &AMQPPublisher{ch: ch, exchange: "crm.matches"}
	ev := Event{Type: EventLeadMatched, SubjectID: "c-1", Matches: []Match{{ID: "p-1", Score: 90}}, OccurredAt: fixedNow.UTC(), TraceID: "trace-1"}

	if err := p.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if ch.exchange != "crm.matches" || ch.key != EventLeadMatched {
		t.Fatalf("exchange=%q key=%q", ch.exchange, ch.key)
	}
	if ch.msg.ContentType != "application/json" || ch.msg.DeliveryMode != amqp.Persistent {
		t.Fatalf("message properties=%+v", ch.msg)
	}
	if ch.msg.MessageId == "" || !ch.msg.Timestamp.Equal(fixedNow) {
		t.Fatalf("message id=%q timestamp=%v", ch.msg.MessageId, ch.msg.Timestamp)
	}
	if ch.msg.CorrelationId != "trace-1" {
		t.Fatalf("correlation id=%q want=trace-1", ch.msg.CorrelationId)
	}

	var decoded Event
	if err := json.Unmarshal(ch.msg.Body, &decoded); err != nil {
		t.Fatalf("body is not json: %v", err)
	}
	if decoded.SubjectID != "c-1" || len(decoded.Matches) != 1 || decoded.Matches[0].Score != 90 {
		t.Fatalf("decoded=%+v", decoded)
	}
}

func TestAMQPPublisher_Closed(t *testing.T) {
	t.Parallel()

	ch := &fakeChannel{}
	p := &AMQPPublisher{ch: ch, exchange: "crm.matches"}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !ch.closed {
		t.Fatal("channel not closed")
	}
	if err := p.Publish(context.Background(), Event{Type: EventLeadMatched}); err == nil {
		t.Fatal("expected error publishing on a closed publisher")
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

func TestNotifier(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pub := &recordingPublisher{}
	n := NewNotifier(pub, Thresholds{MinScore: 80, MaxMatches: 5})

	n.LeadCreated(ctx, domain.Lead{ID: "c-1"}, []domain.MatchResult{{Listing: domain.Listing{ID: "p-1"}, MatchScore: 50}})
	if len(pub.events) != 0 {
		t.Fatalf("no event expected below threshold, got %+v", pub.events)
	}

	n.ListingCreated(ctx, domain.Listing{ID: "p-1"}, []domain.LeadMatch{{Lead: domain.Lead{ID: "c-1"}, Score: 85}})
	if len(pub.events) != 1 || pub.events[0].Type != EventListingMatched {
		t.Fatalf("events=%+v", pub.events)
	}
}

func TestNotifier_CarriesTraceID(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{}
	n := NewNotifier(pub, Thresholds{MinScore: 0})

	ctx := logging.ContextWithTraceID(context.Background(), "3f1c2a9e-0000-4000-8000-000000000001")
	n.LeadCreated(ctx, domain.Lead{ID: "c-1"}, []domain.MatchResult{{Listing: domain.Listing{ID: "p-1"}, MatchScore: 70}})
	n.LeadCreated(context.Background(), domain.Lead{ID: "c-2"}, []domain.MatchResult{{Listing: domain.Listing{ID: "p-1"}, MatchScore: 70}})

	if len(pub.events) != 2 {
		t.Fatalf("events=%d want=2", len(pub.events))
	}
	if got := pub.events[0].TraceID; got != "3f1c2a9e-0000-4000-8000-000000000001" {
		t.Fatalf("trace id=%q", got)
	}
	if got := pub.events[1].TraceID; got != "" {
		t.Fatalf("trace id without request=%q want empty", got)
	}
}

func TestNotifier_SwallowsPublishErrors(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{err: errors.New("broker down")}
	n := NewNotifier(pub, Thresholds{MinScore: 0})

	// Must not panic or propagate.
	n.LeadCreated(context.Background(), domain.Lead{ID: "c-1"}, []domain.MatchResult{{Listing: domain.Listing{ID: "p-1"}, MatchScore: 10}})
	if len(pub.events) != 1 {
		t.Fatalf("publish attempts=%d want=1", len(pub.events))
	}
}

func TestNewNotifier_NilPublisher(t *testing.T) {
	t.Parallel()

	n := NewNotifier(nil, Thresholds{})
	n.LeadCreated(context.Background(), domain.Lead{ID: "c-1"}, []domain.MatchResult{{MatchScore: 100}})
}
