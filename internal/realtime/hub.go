// Package realtime broadcasts change events to devices over business-scoped
// websocket rooms. One hub goroutine owns all room state; handlers and
// services reach it only through channels.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
	portssvc "github.com/tradekeeper/trade_keeper_app/internal/core/ports/services"
)

const broadcastBuffer = 256

type joinRequest struct {
	client     *Client
	businessID string
}

// Hub fans change events out to every client joined to the event's business
// room. It implements the service layer's EventPublisher port.
type Hub struct {
	logger *slog.Logger

	rooms map[string]map[*Client]bool

	join       chan joinRequest
	unregister chan *Client
	broadcast  chan domain.ChangeEvent
}

var _ portssvc.EventPublisher = (*Hub)(nil)

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:     logger,
		rooms:      make(map[string]map[*Client]bool),
		join:       make(chan joinRequest),
		unregister: make(chan *Client),
		broadcast:  make(chan domain.ChangeEvent, broadcastBuffer),
	}
}

// Publish queues an event for broadcast. It never blocks the caller; if the
// hub is saturated the event is dropped, and devices repair the gap on their
// next sync.
func (h *Hub) Publish(event domain.ChangeEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("Realtime broadcast buffer full, dropping event",
			slog.String("event_type", string(event.Type)),
			slog.String("business_id", event.BusinessID))
	}
}

// Run owns the room state until ctx is cancelled. Must run in its own
// goroutine before any client connects.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for businessID, room := range h.rooms {
				for client := range room {
					close(client.send)
				}
				delete(h.rooms, businessID)
			}
			return

		case req := <-h.join:
			room := h.rooms[req.businessID]
			if room == nil {
				room = make(map[*Client]bool)
				h.rooms[req.businessID] = room
			}
			room[req.client] = true
			req.client.businessID = req.businessID
			h.logger.Debug("Client joined business room",
				slog.String("business_id", req.businessID),
				slog.String("user_id", req.client.userID))

		case client := <-h.unregister:
			h.dropClient(client)

		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func (h *Hub) dropClient(client *Client) {
	room, ok := h.rooms[client.businessID]
	if !ok {
		return
	}
	if _, joined := room[client]; !joined {
		return
	}
	delete(room, client)
	close(client.send)
	if len(room) == 0 {
		delete(h.rooms, client.businessID)
	}
}

func (h *Hub) deliver(event domain.ChangeEvent) {
	room := h.rooms[event.BusinessID]
	if len(room) == 0 {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to encode change event",
			slog.String("event_type", string(event.Type)), slog.Any("error", err))
		return
	}
	for client := range room {
		select {
		case client.send <- payload:
		default:
			// Slow consumer; drop it rather than stall the room.
			h.dropClient(client)
		}
	}
	// A deleted business will never produce another event; tear the room
	// down after the final notification.
	if event.Type == domain.EventBusinessDeleted {
		for client := range room {
			delete(room, client)
			close(client.send)
		}
		delete(h.rooms, event.BusinessID)
	}
}
