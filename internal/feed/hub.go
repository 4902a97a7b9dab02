// Package feed fans complaint events out to connected admin clients. With
// Redis configured, events travel through a Redis channel so that clients of
// every server instance receive them.
package feed

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

const broadcastBuffer = 256

// Hub owns the set of connected clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client
	broadcastCh  chan models.ComplaintEvent
	done         chan struct{}
	stopOnce     sync.Once

	Redis   *redis.Client
	Channel string
}

// NewHub creates a hub. rdb may be nil, in which case events stay in-process.
func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		broadcastCh:  make(chan models.ComplaintEvent, broadcastBuffer),
		done:         make(chan struct{}),
		Redis:        rdb,
		Channel:      config.EventsChannel,
	}
}

// Publish hands an event to the feed. It never blocks on slow clients.
func (h *Hub) Publish(ctx context.Context, ev models.ComplaintEvent) {
	if h.Redis != nil {
		payload, err := json.Marshal(ev)
		if err != nil {
			log.Printf("ERROR: Failed to encode event %s for %s: %v", ev.Type, ev.TrackingID, err)
			return
		}
		// Events outlive the request that caused them.
		if err := h.Redis.Publish(context.WithoutCancel(ctx), h.Channel, payload).Err(); err != nil {
			log.Printf("ERROR: Failed to publish event %s for %s: %v", ev.Type, ev.TrackingID, err)
		}
		return
	}
	h.enqueue(ev)
}

// Register adds a client. It returns false when the hub has stopped.
func (h *Hub) Register(c Client) bool {
	select {
	case h.RegisterCh <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client; it is a no-op once the hub has stopped.
func (h *Hub) Unregister(c Client) {
	select {
	case h.UnregisterCh <- c:
	case <-h.done:
	}
}

func (h *Hub) enqueue(ev models.ComplaintEvent) {
	select {
	case h.broadcastCh <- ev:
	default:
		log.Printf("WARNING: feed buffer full, dropping event %s for %s", ev.Type, ev.TrackingID)
	}
}

// Run processes registrations and broadcasts until ctx is cancelled.
// With Redis configured it subscribes before returning control to the loop.
func (h *Hub) Run(ctx context.Context) error {
	defer h.stopOnce.Do(func() { close(h.done) })

	if h.Redis != nil {
		pubsub, err := h.subscribe(ctx)
		if err != nil {
			return err
		}
		defer pubsub.Close()
		go h.listen(pubsub)
	}

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return nil

		case client := <-h.RegisterCh:
			h.mu.Lock()
			h.clients[client.GetID()] = client
			h.mu.Unlock()
			log.Printf("INFO: feed client %s connected", client.GetID())

		case client := <-h.UnregisterCh:
			h.drop(client.GetID())

		case ev := <-h.broadcastCh:
			h.broadcast(ev)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcast(ev models.ComplaintEvent) {
	h.mu.RLock()
	var slow []string
	for id, client := range h.clients {
		select {
		case client.GetSendChannel() <- ev:
		default:
			slow = append(slow, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range slow {
		log.Printf("WARNING: feed client %s is too slow, disconnecting", id)
		h.drop(id)
	}
}

func (h *Hub) drop(id string) {
	h.mu.Lock()
	client, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()

	if ok {
		client.Close()
		log.Printf("INFO: feed client %s disconnected", id)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]Client)
	h.mu.Unlock()

	for _, client := range clients {
		client.Close()
	}
}
