package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"complaintdesk/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// subscribe waits for Redis to confirm the subscription so that no event
// published after Run starts is missed.
func (h *Hub) subscribe(ctx context.Context) (*redis.PubSub, error) {
	pubsub := h.Redis.Subscribe(ctx, h.Channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", h.Channel, err)
	}
	log.Printf("INFO: listening for complaint events on %s", h.Channel)
	return pubsub, nil
}

// listen forwards events from Redis into the hub until the subscription closes.
func (h *Hub) listen(pubsub *redis.PubSub) {
	for msg := range pubsub.Channel() {
		var ev models.ComplaintEvent
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			log.Printf("Error unmarshalling Redis event: %v", err)
			continue
		}
		h.enqueue(ev)
	}
}
