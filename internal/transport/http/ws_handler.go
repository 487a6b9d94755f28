package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler runs one assessment controller per websocket connection.
type WSHandler struct {
	service  *app.AssessmentService
	contact  string
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AssessmentService, contact string, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		service: service,
		contact: contact,
		logger:  logger,
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

type startPayload struct {
	Email string `json:"email"`
}

type answerPayload struct {
	Choice int `json:"choice"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type questionPayload struct {
	Index     int                    `json:"index"`
	Total     int                    `json:"total"`
	Question  *domain.PublicQuestion `json:"question"`
	Remaining int                    `json:"remaining"`
	Severity  app.Severity           `json:"severity"`
}

type tickPayload struct {
	Index     int          `json:"index"`
	Remaining int          `json:"remaining"`
	Severity  app.Severity `json:"severity"`
}

type resultPayload struct {
	Result  *domain.AssessmentResult `json:"result"`
	Pending bool                     `json:"pending"`
	Mailto  string                   `json:"mailto,omitempty"`
}

type syncPayload struct {
	Status app.SyncState `json:"status"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and drives a session controller.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctrl, err := h.service.Open(r.Context())
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	// Disconnect retires the timer and unregisters the session.
	defer h.service.Release(ctrl.ID())

	events, cancel := ctrl.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	// Single writer: gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", "session", ctrl.ID(), "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- h.translate(ev):
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "session", Payload: ctrl.Snapshot()}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(r, ctrl, inbound); err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, ctrl *app.Controller, inbound inboundMessage) error {
	switch inbound.Type {
	case "begin":
		ctrl.Begin()
	case "start":
		var payload startPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return domain.ErrInvalidEmail
		}
		return ctrl.Start(payload.Email)
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return domain.ErrInvalidInput
		}
		return ctrl.SubmitAnswer(payload.Choice)
	case "reset":
		ctrl.Reset()
	case "retrySync":
		// The status reaches the client through sync events; a transport
		// failure is not an error of the request itself.
		if err := ctrl.RetrySync(r.Context()); err != nil && !isTransportFailure(err) {
			return err
		}
	default:
		return errUnsupported
	}
	return nil
}

func (h *WSHandler) translate(ev app.Event) outboundMessage[any] {
	snap := ev.Snapshot
	switch ev.Type {
	case app.EventQuestion:
		return outboundMessage[any]{Type: "question", Payload: questionPayload{
			Index:     snap.QuestionIndex,
			Total:     snap.TotalQuestions,
			Question:  snap.Question,
			Remaining: snap.Remaining,
			Severity:  snap.Severity,
		}}
	case app.EventTick:
		return outboundMessage[any]{Type: "tick", Payload: tickPayload{
			Index:     snap.QuestionIndex,
			Remaining: snap.Remaining,
			Severity:  snap.Severity,
		}}
	case app.EventFinished:
		return outboundMessage[any]{Type: "finished", Payload: resultPayload{Result: snap.Result, Pending: snap.FeedbackPending}}
	case app.EventFeedback:
		payload := resultPayload{Result: snap.Result}
		if snap.Result != nil && h.contact != "" {
			payload.Mailto = app.MailtoReport(*snap.Result, h.contact)
		}
		return outboundMessage[any]{Type: "feedback", Payload: payload}
	case app.EventSync:
		return outboundMessage[any]{Type: "sync", Payload: syncPayload{Status: snap.Sync}}
	default:
		return outboundMessage[any]{Type: "state", Payload: snap}
	}
}
