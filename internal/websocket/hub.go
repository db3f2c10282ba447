// Package websocket implements the Hub that pushes live match events to viewers.
// Players following a match subscribe to it and receive every score, confirmation
// and settlement as it is committed, without polling the API. The Hub is
// transport-agnostic: the HTTP layer streams each Client's Send channel to the
// browser as server-sent events.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/arcieron/clubstakes-social-swing-sub000/internal/matches"
)

// clientBuffer is how many undelivered messages a Client may hold before the
// Hub drops it as too slow.
const clientBuffer = 16

// Client is one subscriber watching one match.
type Client struct {
	MatchID uuid.UUID
	Send    chan []byte // closed by the Hub when the client is removed
}

// NewClient creates a subscriber for matchID.
func NewClient(matchID uuid.UUID) *Client {
	return &Client{MatchID: matchID, Send: make(chan []byte, clientBuffer)}
}

// Message is an encoded event addressed to everyone watching a match.
type Message struct {
	MatchID uuid.UUID
	Data    []byte
}

// Hub manages all subscribers, grouped by match. A single goroutine (Run) owns
// registration, removal and fan-out; mu guards the map so Subscribers can be
// read from other goroutines.
type Hub struct {
	clients map[uuid.UUID]map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu     sync.RWMutex
	logger *slog.Logger
}

var _ matches.Notifier = (*Hub)(nil)

// NewHub creates an idle Hub. Call Run in its own goroutine to start it.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes hub events until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for matchID, clients := range h.clients {
				for client := range clients {
					close(client.Send)
				}
				delete(h.clients, matchID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.MatchID] == nil {
				h.clients[client.MatchID] = make(map[*Client]bool)
			}
			h.clients[client.MatchID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var slow []*Client
			for client := range h.clients[msg.MatchID] {
				select {
				case client.Send <- msg.Data:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range slow {
				h.logger.Warn("dropping slow match subscriber", slog.String("match_id", msg.MatchID.String()))
				h.remove(client)
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.clients[client.MatchID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.clients, client.MatchID)
	}
}

// Publish encodes e as JSON and queues it for the match's subscribers. It never
// blocks: when the queue is full the event is dropped and logged.
func (h *Hub) Publish(e matches.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("encode match event", slog.String("type", string(e.Type)), slog.Any("error", err))
		return
	}
	select {
	case h.broadcast <- &Message{MatchID: e.MatchID, Data: data}:
	default:
		h.logger.Warn("match event queue full, dropping event",
			slog.String("type", string(e.Type)),
			slog.String("match_id", e.MatchID.String()))
	}
}

// Register starts delivering the client's match events to it. On a stopped
// Hub the client's Send channel is closed straight away.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister stops delivery and closes client.Send.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribers reports how many clients are watching matchID.
func (h *Hub) Subscribers(matchID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[matchID])
}
