package control

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inamate/orbitcam/internal/typeid"
)

// Authorizer checks that a token may join a session.
type Authorizer interface {
	Authorize(token, sessionID string) (string, error)
}

// ServeWS handles /ws/session/{sessionId}?token=...
func (h *Hub) ServeWS(authz Authorizer, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := mux.Vars(r)["sessionId"]
		if err := typeid.Validate(sessionID, typeid.PrefixSession); err != nil {
			http.Error(w, "invalid session id", http.StatusBadRequest)
			return
		}

		if _, err := authz.Authorize(r.URL.Query().Get("token"), sessionID); err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			slog.Error("websocket accept", "error", err)
			return
		}

		displayName := "viewer-" + uuid.New().String()[:8]
		client := NewClient(h, conn, sessionID, typeid.NewClientID(), displayName)

		if !h.Register(client) {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}

		ctx := r.Context()
		go client.WritePump(ctx)
		client.ReadPump(ctx)
	}
}
