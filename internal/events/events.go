// Package events carries the console's local mutation feed. Events describe
// snapshot changes that have already been confirmed by the remote API; they
// are informational and are never applied back to a snapshot.
package events

import (
	"context"
	"time"

	"github.com/alfredjeanlab/leadconsole/internal/model"
)

// Event topic constants
const (
	TopicLeadCreated    = "leads.lead.created"
	TopicLeadUpdated    = "leads.lead.updated"
	TopicLeadDeleted    = "leads.lead.deleted"
	TopicSnapshotLoaded = "leads.snapshot.loaded"

	// TopicAll matches every console topic.
	TopicAll = "leads.>"
)

// Event is the payload published for each confirmed change.
type Event struct {
	Topic  string      `json:"topic"`
	At     time.Time   `json:"at"`
	Lead   *model.Lead `json:"lead,omitempty"`
	LeadID string      `json:"lead_id,omitempty"`
	Count  int         `json:"count,omitempty"` // snapshot size after a load
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Subscriber receives events from the bus.
type Subscriber interface {
	// Subscribe delivers decoded events on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan Event, func(), error)
	Close() error
}
