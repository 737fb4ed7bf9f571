package notifier

import (
	"sync"
	"time"

	"auction-core/internal/metrics"
	"auction-core/utils"
)

// EventType identifies the kind of auction state change being broadcast
type EventType string

const (
	EventBidAccepted   EventType = "bid-accepted"
	EventBidOutbid     EventType = "bid-outbid"
	EventAIInsights    EventType = "ai-insights"
	EventFraudAlert    EventType = "fraud-alert"
	EventAuctionClosed EventType = "auction-closed"
)

// AdminChannel is the pseudo auction ID fraud alerts are broadcast on
const AdminChannel = "admin"

// Event is one state-change notification fanned out to auction watchers
type Event struct {
	Type        EventType `json:"type"`
	AuctionID   string    `json:"auction_id"`
	Payload     any       `json:"payload"`
	PublishedAt time.Time `json:"published_at"`
}

// Notifier fans out state-change events to currently-connected subscribers of
// an auction's channel. Delivery is at-least-once for connected subscribers
// and best-effort only: there is no backlog, so a reconnecting client must
// re-fetch current state through the read path.
type Notifier interface {
	Publish(auctionID string, event Event)
}

// Subscription is one watcher's ordered event stream for a single auction
type Subscription struct {
	C <-chan Event

	hub       *Hub
	auctionID string
	ch        chan Event
	once      sync.Once
}

// Close detaches the subscription from the hub and closes its channel
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s.auctionID, s)
		close(s.ch)
	})
}

// Hub is the in-process implementation of Notifier. Publish holds the hub
// lock while enqueueing, so events for one auction reach every subscriber in
// publish order. A subscriber whose buffer is full loses the event rather
// than stalling the publisher.
type Hub struct {
	mu      sync.Mutex
	subs    map[string]map[*Subscription]struct{}
	buffer  int
	metrics *metrics.Metrics
}

// NewHub creates a hub with the given per-subscriber buffer size.
func NewHub(buffer int, m *metrics.Metrics) *Hub {
	if buffer <= 0 {
		buffer = 32
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &Hub{
		subs:    make(map[string]map[*Subscription]struct{}),
		buffer:  buffer,
		metrics: m,
	}
}

// Subscribe attaches a new watcher to an auction's channel.
func (h *Hub) Subscribe(auctionID string) *Subscription {
	sub := &Subscription{
		hub:       h,
		auctionID: auctionID,
		ch:        make(chan Event, h.buffer),
	}
	sub.C = sub.ch

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[auctionID] == nil {
		h.subs[auctionID] = make(map[*Subscription]struct{})
	}
	h.subs[auctionID][sub] = struct{}{}
	return sub
}

// Publish delivers the event to every current subscriber of the auction.
func (h *Hub) Publish(auctionID string, event Event) {
	event.AuctionID = auctionID
	if event.PublishedAt.IsZero() {
		event.PublishedAt = time.Now().UTC()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[auctionID] {
		select {
		case sub.ch <- event:
		default:
			h.metrics.NotifierDropsTotal.Inc()
			utils.Warn("notifier: dropped event on slow subscriber", map[string]any{
				"auction_id": auctionID,
				"type":       string(event.Type),
			})
		}
	}
}

// SubscriberCount reports the number of watchers on an auction's channel.
func (h *Hub) SubscriberCount(auctionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[auctionID])
}

func (h *Hub) remove(auctionID string, sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[auctionID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, auctionID)
		}
	}
}
