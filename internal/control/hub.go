package control

import (
	"context"
	"log/slog"
	"sync"
)

// Hub tracks sessions and the clients attached to them. Sessions are
// created on first join and closed when their last client leaves.
type Hub struct {
	cfg SessionConfig

	mu         sync.RWMutex
	sessions   map[string]*Session // sessionID -> session
	register   chan *Client
	unregister chan *Client
	stopped    chan struct{}
}

func NewHub(cfg SessionConfig) *Hub {
	return &Hub{
		cfg:        cfg,
		sessions:   make(map[string]*Session),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopped:    make(chan struct{}),
	}
}

// Run serves registrations until ctx is canceled, then closes every session.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// Register attaches client to its session. It reports false once the hub
// has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.stopped:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stopped:
	}
}

// Session returns the live session for id.
func (h *Hub) Session(id string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	return s, ok
}

// Len returns the number of live sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	session, ok := h.sessions[client.SessionID]
	if !ok {
		session = newSession(client.SessionID, h.cfg)
		h.sessions[client.SessionID] = session
		slog.Info("session opened", "session", client.SessionID)
	}
	h.mu.Unlock()

	session.add(client)

	slog.Info("client joined", "client", client.ClientID, "session", client.SessionID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	session, ok := h.sessions[client.SessionID]
	if !ok {
		h.mu.Unlock()
		return
	}

	empty := session.remove(client)
	if empty {
		delete(h.sessions, client.SessionID)
	}
	h.mu.Unlock()

	slog.Info("client left", "client", client.ClientID, "session", client.SessionID)

	if empty {
		session.Close()
		slog.Info("session closed", "session", client.SessionID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*Session)
	h.mu.Unlock()

	for id, s := range sessions {
		s.mu.Lock()
		for cid, c := range s.clients {
			delete(s.clients, cid)
			close(c.send)
		}
		s.mu.Unlock()
		s.Close()
		slog.Info("session closed", "session", id)
	}
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	session, ok := h.Session(sender.SessionID)
	if !ok {
		return
	}
	session.handle(sender, msg)
}
