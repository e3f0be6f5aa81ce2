package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type chatMessage struct {
	Message     string `json:"message"`
	Personality string `json:"personality,omitempty"`
}

// handleChatWS runs a text chat session over one websocket connection. Each
// inbound {message} produces one result envelope; the conversation identity
// is fixed for the connection's lifetime.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	identity := strings.TrimSpace(r.URL.Query().Get("identity"))
	if identity == "" {
		identity = uuid.NewString()
	}
	personality := strings.TrimSpace(r.URL.Query().Get("personality"))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		var msg chatMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))

		persona := msg.Personality
		if persona == "" {
			persona = personality
		}

		env := s.orch.GetResponse(r.Context(), msg.Message, identity, persona)

		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(responseReply{Envelope: env, Identity: identity}); err != nil {
			return
		}
	}
}
