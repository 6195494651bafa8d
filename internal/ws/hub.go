package ws

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type envelope struct {
	recruiterID uuid.UUID
	payload     []byte
}

// Hub fans notification events out to the websocket connections of the
// recruiter they belong to. A recruiter may hold several connections.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]struct{}
	send       chan envelope
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		send:       make(chan envelope, 1024),
		register:   make(chan *Client, 128),
		unregister: make(chan *Client, 128),
		logger:     logger.Named("ws"),
	}
}

// Run owns the client set until ctx is done, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			if client == nil {
				continue
			}
			h.mutex.Lock()
			set, ok := h.clients[client.recruiterID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.recruiterID] = set
			}
			set[client] = struct{}{}
			total := h.countLocked()
			h.mutex.Unlock()
			h.logger.Debug("WS connected", zap.String("recruiter_id", client.recruiterID.String()), zap.Int("total_clients", total))

		case client := <-h.unregister:
			if client == nil {
				continue
			}
			h.mutex.Lock()
			h.removeLocked(client)
			total := h.countLocked()
			h.mutex.Unlock()
			h.logger.Debug("WS disconnected", zap.String("recruiter_id", client.recruiterID.String()), zap.Int("total_clients", total))

		case msg := <-h.send:
			h.mutex.RLock()
			targets := make([]*Client, 0, len(h.clients[msg.recruiterID]))
			for c := range h.clients[msg.recruiterID] {
				targets = append(targets, c)
			}
			h.mutex.RUnlock()

			for _, client := range targets {
				select {
				case client.send <- msg.payload:
				default:
					// slow consumer
					h.mutex.Lock()
					h.removeLocked(client)
					h.mutex.Unlock()
				}
			}
			h.logger.Debug("WS delivered", zap.String("recruiter_id", msg.recruiterID.String()), zap.Int("clients", len(targets)))
		}
	}
}

func (h *Hub) removeLocked(client *Client) {
	set, ok := h.clients[client.recruiterID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.recruiterID)
	}
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for _, set := range h.clients {
		for c := range set {
			h.removeLocked(c)
		}
	}
}

func (h *Hub) countLocked() int {
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

func (h *Hub) Register(client *Client) {
	if h == nil {
		return
	}
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	if h == nil {
		return
	}
	h.unregister <- client
}

// SendToRecruiter queues payload for every connection of the recruiter. It
// never blocks; when the queue is full the message is dropped.
func (h *Hub) SendToRecruiter(recruiterID uuid.UUID, payload []byte) {
	if h == nil {
		return
	}
	select {
	case h.send <- envelope{recruiterID: recruiterID, payload: payload}:
	default:
		h.logger.Warn("WS message dropped", zap.String("reason", "buffer_full"))
	}
}

func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.countLocked()
}
