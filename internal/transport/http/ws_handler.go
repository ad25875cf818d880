package http

import (
	"encoding/json"
	"net/http"
	"time"

	"codequest-quiz-service/internal/app"
	"codequest-quiz-service/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

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

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeWS streams snapshots of one attempt (timer ticks included) and accepts
// answer, advance, pause and resume commands. Command results arrive as the
// next snapshot; rejected commands produce an error message.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logging.FromContext(ctx)
	attemptID := chi.URLParam(r, "id")

	updates, cancel, err := h.service.Subscribe(ctx, attemptID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer: gorilla connections allow one concurrent writer.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.WithError(err).Debug("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					// Attempt discarded: tell the client and unblock the reader.
					select {
					case send <- outboundMessage[any]{Type: "closed", Payload: map[string]string{"attemptId": attemptID}}:
					case <-closeSignals:
					}
					_ = conn.UnderlyingConn().SetReadDeadline(time.Now())
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "snapshot", Payload: snap}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(r, attemptID, inbound); err != nil {
			apiErr := classify(err)
			select {
			case send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Code: apiErr.Code, Message: apiErr.Message}}:
			case <-writerDone:
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, attemptID string, msg inboundMessage) error {
	ctx := r.Context()
	var err error
	switch msg.Type {
	case "answer":
		var payload answerRequest
		if jsonErr := json.Unmarshal(msg.Payload, &payload); jsonErr != nil {
			return badRequest("invalid answer payload", jsonErr)
		}
		_, err = h.service.SelectAnswer(ctx, attemptID, payload.Option)
	case "advance":
		_, err = h.service.Advance(ctx, attemptID)
	case "pause":
		_, err = h.service.Pause(ctx, attemptID)
	case "resume":
		_, err = h.service.Resume(ctx, attemptID)
	case "start":
		_, err = h.service.Start(ctx, attemptID)
	case "restart":
		_, err = h.service.Restart(ctx, attemptID)
	default:
		return badRequest("unsupported message type", nil)
	}
	return err
}
