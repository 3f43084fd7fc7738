package control

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	// Configuration documents are the largest inbound messages.
	maxMsgSize = 1 << 20
	sendBuffer = 256
)

// Client is one websocket viewer of a session. Control messages are
// queued in order on send; preview frames go through a single slot where a
// newer frame replaces one the connection has not written yet.
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	frame chan []byte

	SessionID   string
	ClientID    string
	DisplayName string
}

func NewClient(hub *Hub, conn *websocket.Conn, sessionID, clientID, displayName string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		frame:       make(chan []byte, 1),
		SessionID:   sessionID,
		ClientID:    clientID,
		DisplayName: displayName,
	}
}

// ReadPump decodes control messages and hands them to the hub until the
// connection ends. Binary messages from viewers are ignored.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				slog.Debug("read error", "error", err, "client", c.ClientID)
			}
			return
		}
		if typ != websocket.MessageText {
			slog.Debug("ignoring binary message", "client", c.ClientID, "size", len(data))
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid message", "error", err, "client", c.ClientID)
			continue
		}

		// Identity comes from the connection, never the payload
		msg.ClientID = c.ClientID
		msg.SessionID = c.SessionID

		c.hub.handleMessage(c, &msg)
	}
}

// WritePump writes queued control messages as text and preview frames as
// binary. Control messages already queued are written before a pending
// frame.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			if !c.write(ctx, websocket.MessageText, message) {
				return
			}

		case frame := <-c.frame:
			if !c.write(ctx, websocket.MessageBinary, frame) {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, typ websocket.MessageType, data []byte) bool {
	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	if err := c.conn.Write(writeCtx, typ, data); err != nil {
		slog.Debug("write error", "error", err, "client", c.ClientID, "binary", typ == websocket.MessageBinary)
		return false
	}
	return true
}

// Send queues a control message. Callers hold the session lock so send is
// never closed underneath them.
func (c *Client) Send(msg *Message) {
	if msg == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}

	select {
	case c.send <- data:
	default:
		slog.Warn("client send buffer full, dropping message", "client", c.ClientID, "type", msg.Type)
	}
}

// SendFrame offers an encoded frame, replacing any frame still waiting.
// Only the session's frame encoder calls it.
func (c *Client) SendFrame(data []byte) {
	select {
	case <-c.frame:
	default:
	}
	select {
	case c.frame <- data:
	default:
	}
}
