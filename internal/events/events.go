package events

import "context"

// Event types
const (
	TypeCampaignStatus   = "campaign_status"
	TypeCampaignFinished = "campaign_finished"
)

// StreamStatus is the pubsub channel carrying mirrored status events
// for companion processes.
const StreamStatus = "events:status"

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
