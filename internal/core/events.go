package core

import "time"

// Domain event names delivered to webhooks and the event bus.
const (
	EventLeadCreated      = "lead.created"
	EventLeadUpdated      = "lead.updated"
	EventLeadConverted    = "lead.converted"
	EventContentGenerated = "content.generated"
	EventContentPublished = "content.published"
	EventContentApproved  = "content.approved"
	EventRankingChanged   = "ranking.changed"
	EventRankingImproved  = "ranking.improved"
	EventRankingDropped   = "ranking.dropped"
	EventReviewReceived   = "review.received"
	EventCompetitorAlert  = "competitor.alert"
	EventClientCreated    = "client.created"
)

// AllEvents lists every event name a webhook may subscribe to.
var AllEvents = []string{
	EventLeadCreated,
	EventLeadUpdated,
	EventLeadConverted,
	EventContentGenerated,
	EventContentPublished,
	EventContentApproved,
	EventRankingChanged,
	EventRankingImproved,
	EventRankingDropped,
	EventReviewReceived,
	EventCompetitorAlert,
	EventClientCreated,
}

// ValidEvent reports whether name is a known event type.
func ValidEvent(name string) bool {
	for _, e := range AllEvents {
		if e == name {
			return true
		}
	}
	return false
}

// Event is one domain occurrence routed to webhooks and Pub/Sub.
type Event struct {
	Name      string         `json:"event"`
	ClientID  string         `json:"client_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}
