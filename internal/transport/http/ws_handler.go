package http

import (
	"encoding/json"
	"log"
	"net/http"

	"quizroom-service/internal/app"
	"quizroom-service/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WSHandler speaks the room protocol over websockets. Each connection gets
// an opaque id minted at upgrade; that id is the player's identity for the
// lifetime of the socket.
type WSHandler struct {
	service  *app.RoomService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.RoomService) *WSHandler {
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

type joinRoomPayload struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
	UserID     string `json:"userId"`
}

type startQuizPayload struct {
	RoomID string `json:"roomId"`
	QuizID string `json:"quizId"`
}

type submitAnswerPayload struct {
	RoomID        string  `json:"roomId"`
	AnswerIndex   int     `json:"answerIndex"`
	TimeRemaining float64 `json:"timeRemaining"`
}

// ServeWS upgrades the request and runs the connection's read loop. Session
// events arrive on the channel returned by Join and are pumped into the
// single writer goroutine, so the socket never sees concurrent writes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	connectionID := uuid.NewString()
	send := make(chan domain.Event, 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for ev := range send {
			if err := conn.WriteJSON(ev); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	var (
		joinedRoomID string
		pumpDone     chan struct{}
	)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}

		switch inbound.Type {
		case "joinRoom":
			var payload joinRoomPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				sendError(send, writerDone, "invalid joinRoom payload")
				continue
			}
			if payload.RoomID == "" || payload.PlayerName == "" {
				sendError(send, writerDone, "room id and player name are required")
				continue
			}
			if joinedRoomID != "" {
				sendError(send, writerDone, "already in a room")
				continue
			}
			events, err := h.service.Join(r.Context(), payload.RoomID, connectionID, payload.PlayerName, payload.UserID)
			if err != nil {
				sendError(send, writerDone, err.Error())
				continue
			}
			joinedRoomID = payload.RoomID
			pumpDone = make(chan struct{})
			go func() {
				defer close(pumpDone)
				for ev := range events {
					select {
					case send <- ev:
					case <-writerDone:
						return
					}
				}
			}()

		case "startQuiz":
			var payload startQuizPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				sendError(send, writerDone, "invalid startQuiz payload")
				continue
			}
			if err := h.service.StartQuiz(r.Context(), payload.RoomID, connectionID, payload.QuizID); err != nil {
				sendError(send, writerDone, err.Error())
			}

		case "submitAnswer":
			var payload submitAnswerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				sendError(send, writerDone, "invalid submitAnswer payload")
				continue
			}
			if err := h.service.SubmitAnswer(r.Context(), payload.RoomID, connectionID, payload.AnswerIndex, payload.TimeRemaining); err != nil {
				sendError(send, writerDone, err.Error())
			}

		default:
			sendError(send, writerDone, "unsupported message type")
		}
	}

	if joinedRoomID != "" {
		// Leave closes the session event channel, which ends the pump.
		h.service.Leave(joinedRoomID, connectionID)
		<-pumpDone
	}
	close(send)
	<-writerDone
}

func sendError(send chan domain.Event, writerDone chan struct{}, message string) {
	ev := domain.Event{Type: domain.EventError, Payload: domain.ErrorPayload{Message: message}}
	select {
	case send <- ev:
	case <-writerDone:
	}
}
