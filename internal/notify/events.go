package notify

import (
	"time"

	"github.com/denisok6893-rgb/crm-lead-matching/internal/domain"
	"github.com/denisok6893-rgb/crm-lead-matching/internal/matching"
)

const (
	EventListingMatched = "listing.matched"
	EventLeadMatched    = "lead.matched"
)

// Match is one counterpart in an event: a lead for listing.matched, a listing
// for lead.matched.
type Match struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	Label string `json:"label"`
}

type Event struct {
	Type       string    `json:"type"`
	SubjectID  string    `json:"subject_id"`
	Subject    string    `json:"subject"`
	Matches    []Match   `json:"matches"`
	OccurredAt time.Time `json:"occurred_at"`
	TraceID    string    `json:"trace_id,omitempty"`
}

// Thresholds decides which matches are worth an event.
// MaxMatches <= 0 keeps every match above MinScore.
type Thresholds struct {
	MinScore   int
	MaxMatches int
}

func (t Thresholds) keep(score, kept int) (ok, done bool) {
	if t.MaxMatches > 0 && kept >= t.MaxMatches {
		return false, true
	}
	return score >= t.MinScore, false
}

// NewListingMatchedEvent reports the leads a new listing fits. ranked must be
// sorted by descending score. It returns false when no lead clears MinScore.
func NewListingMatchedEvent(listing domain.Listing, ranked []domain.LeadMatch, th Thresholds, now time.Time) (Event, bool) {
	var matches []Match
	for _, m := range ranked {
		ok, done := th.keep(m.Score, len(matches))
		if done {
			break
		}
		if ok {
			matches = append(matches, Match{ID: m.Lead.ID, Name: m.Lead.Name, Score: m.Score, Label: matching.Label(m.Score)})
		}
	}
	if len(matches) == 0 {
		return Event{}, false
	}
	return Event{
		Type:       EventListingMatched,
		SubjectID:  listing.ID,
		Subject:    listing.Title,
		Matches:    matches,
		OccurredAt: now.UTC(),
	}, true
}

// NewLeadMatchedEvent reports the listings a new lead fits.
func NewLeadMatchedEvent(lead domain.Lead, ranked []domain.MatchResult, th Thresholds, now time.Time) (Event, bool) {
	var matches []Match
	for _, r := range ranked {
		ok, done := th.keep(r.MatchScore, len(matches))
		if done {
			break
		}
		if ok {
			matches = append(matches, Match{ID: r.Listing.ID, Name: r.Listing.Title, Score: r.MatchScore, Label: matching.Label(r.MatchScore)})
		}
	}
	if len(matches) == 0 {
		return Event{}, false
	}
	return Event{
		Type:       EventLeadMatched,
		SubjectID:  lead.ID,
		Subject:    lead.Name,
		Matches:    matches,
		OccurredAt: now.UTC(),
	}, true
}
