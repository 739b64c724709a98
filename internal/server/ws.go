package server

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Token auth scopes the socket to one session; the origin itself
	// carries no additional trust.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsEvent frames every message sent down the live channel.
type wsEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

// handleWebSocket runs the live turn channel: each text frame from the
// client is one candidate utterance, each reply frame carries the engine's
// TurnOutput. The socket closes after the terminal turn.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	e, err := s.authorizedSession(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed for session %s: %v", e.ID(), err)
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(wsEvent{Type: "greeting", Payload: e.KickoffQuestion()}); err != nil {
		return
	}

	for {
		var req TurnRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("WebSocket read failed for session %s: %v", e.ID(), err)
			}
			return
		}
		if req.Text == "" {
			if err := conn.WriteJSON(wsEvent{Type: "error", Error: "text is required"}); err != nil {
				return
			}
			continue
		}

		out, err := e.HandleCandidateTurn(r.Context(), req.Text, req.Speaker)
		if err != nil {
			_ = conn.WriteJSON(wsEvent{Type: "error", Error: err.Error()})
			return
		}
		if err := conn.WriteJSON(wsEvent{Type: "turn", Payload: out}); err != nil {
			return
		}
		if out.Done {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "interview complete"))
			return
		}
	}
}
