package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"coach-quiz-service/internal/app"
	"github.com/gorilla/websocket"
)

// WSHandler drives a quiz session over a single websocket connection.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type selectedPayload struct {
	QuestionIndex int    `json:"questionIndex"`
	Option        string `json:"option"`
}

// ServeWS upgrades the request, starts a session for quizId and then accepts
// "select", "submit" and "save" messages until the client disconnects.
// Only this goroutine writes to the connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}
	player := identityFrom(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	send := func(typ string, payload any) bool {
		if err := conn.WriteJSON(outboundMessage[any]{Type: typ, Payload: payload}); err != nil {
			slog.Warn("ws write error", "error", err)
			return false
		}
		return true
	}
	sendErr := func(err error) bool {
		return send("error", errorPayload{Message: err.Error()})
	}

	session, err := h.service.Start(r.Context(), quizID, player)
	if err != nil {
		sendErr(err)
		return
	}
	sessionID := session.ID()
	defer func() {
		if err := h.service.Abandon(r.Context(), sessionID, player); err != nil {
			slog.Warn("ws abandon session", "session", sessionID, "error", err)
		}
	}()

	if !send("session", newSessionView(session)) {
		return
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		ok := true
		switch inbound.Type {
		case "select":
			var payload selectRequest
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				ok = send("error", errorPayload{Message: "invalid select payload"})
				break
			}
			index, err := payload.index()
			if err != nil {
				ok = sendErr(err)
				break
			}
			if _, err := h.service.Select(r.Context(), sessionID, player, index, payload.Option); err != nil {
				ok = sendErr(err)
				break
			}
			ok = send("selected", selectedPayload{QuestionIndex: index, Option: payload.Option})
		case "submit":
			record, err := h.service.Submit(r.Context(), sessionID, player)
			if err != nil {
				ok = sendErr(err)
				break
			}
			ok = send("result", record)
		case "save":
			record, err := h.service.SaveResult(r.Context(), sessionID, player)
			if err != nil {
				ok = sendErr(err)
				break
			}
			ok = send("result", record)
		default:
			ok = send("error", errorPayload{Message: "unsupported message type"})
		}
		if !ok {
			return
		}
	}
}
