package ws

import (
	"encoding/json"
	"sync"

	"crazy-bakery/backend/internal/features/wizard/domain"
	"crazy-bakery/backend/internal/logger"
)

// StateEvent is the type of the message carrying a wizard snapshot.
const StateEvent = "wizard.state"

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// roomEvent routes an event to the subscribers of one wizard. A non-zero
// Revision orders snapshots of the same wizard.
type roomEvent struct {
	Room     string
	Event    Event
	Revision uint64
}

// Hub maintains the set of active clients and broadcasts messages to them.
// Rooms are keyed by wizard id.
type Hub struct {
	rooms map[string]map[*Client]bool
	// last snapshot revision delivered per room
	revisions map[string]uint64

	register   chan *Client
	unregister chan *Client
	broadcast  chan *roomEvent

	mu  sync.RWMutex
	log *logger.Logger
}

// NewHub creates a new Hub instance
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		revisions:  make(map[string]uint64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomEvent, 256),
		log:        log,
	}
}

// Run starts the hub's main loop
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.room] == nil {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event.Event)
			if err != nil {
				h.log.Error("ws: encode %s event: %v", event.Event.Type, err)
				continue
			}
			h.mu.Lock()
			if event.Revision != 0 {
				if event.Revision <= h.revisions[event.Room] {
					// A newer snapshot already went out.
					h.mu.Unlock()
					continue
				}
				if len(h.rooms[event.Room]) > 0 {
					h.revisions[event.Room] = event.Revision
				}
			}
			for client := range h.rooms[event.Room] {
				select {
				case client.send <- message:
				default:
					// slow consumer
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.rooms[client.room]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.room)
		delete(h.revisions, client.room)
	}
}

// Publish sends a wizard snapshot to the wizard's subscribers. Snapshots
// older than one already sent to the room are dropped.
func (h *Hub) Publish(wizardID string, state domain.State) {
	event, err := NewStateEvent(state)
	if err != nil {
		h.log.Error("ws: encode state of %s: %v", wizardID, err)
		return
	}
	h.broadcast <- &roomEvent{Room: wizardID, Event: event, Revision: state.Revision}
}

// Subscribers returns the number of clients in room.
func (h *Hub) Subscribers(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// NewStateEvent wraps a snapshot into an event.
func NewStateEvent(state domain.State) (Event, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: StateEvent, Payload: payload}, nil
}
