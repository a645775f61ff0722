package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"quizhub/internal/app"
	"quizhub/internal/domain"
	"quizhub/internal/logger"
)

// WSHandler runs a quiz attempt over one websocket connection. It drives the
// same TakingService as the REST endpoints, so a user can switch between them.
type WSHandler struct {
	taking   *app.TakingService
	tokens   TokenParser
	log      *logger.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(taking *app.TakingService, tokens TokenParser, log *logger.Logger) *WSHandler {
	return &WSHandler{
		taking: taking,
		tokens: tokens,
		log:    log,
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

type answerPayload struct {
	QuestionID int64   `json:"questionId"`
	OptionIDs  []int64 `json:"optionIds"`
}

type gotoPayload struct {
	Index int `json:"index"`
}

type outboundMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// ServeWS authenticates via the token query parameter (browsers cannot set
// headers on the handshake), then exchanges answer/goto/finish messages for
// answerResult/progress/finished events.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || quizID <= 0 {
		http.Error(w, "invalid quiz id", http.StatusBadRequest)
		return
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	userID, err := h.tokens.ParseToken(token)
	if err != nil {
		http.Error(w, domain.ErrUnauthenticated.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	entry := h.log.WithUserID(userID).WithField("quiz_id", quizID)
	ctx := r.Context()

	out := newOutbox(conn.WriteJSON, func(err error) {
		entry.WithError(err).Debug("ws write error")
	})
	defer out.close()

	sendError := func(err error) bool {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			entry.WithError(err).Error("ws request failed")
		}
		return out.push(outboundMessage{Type: "error", Payload: errorPayload{Message: toResponse(err, status).Error, Status: status}})
	}
	// sendProgress reports whether the attempt is still running and the
	// connection still writable.
	sendProgress := func(p domain.Progress) bool {
		if p.Result != nil {
			out.push(outboundMessage{Type: "finished", Payload: p.Result})
			return false
		}
		return out.push(outboundMessage{Type: "progress", Payload: p})
	}

	progress, err := h.taking.Current(ctx, userID, quizID)
	if err != nil {
		sendError(err)
		return
	}
	if !sendProgress(progress) {
		return
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				if !sendError(domain.NewValidationError("payload", "invalid answer payload")) {
					return
				}
				continue
			}
			outcome, err := h.taking.Answer(ctx, userID, quizID, payload.QuestionID, payload.OptionIDs)
			if err != nil {
				if !sendError(err) {
					return
				}
				continue
			}
			if !out.push(outboundMessage{Type: "answerResult", Payload: outcome}) {
				return
			}
			if outcome.Result != nil {
				out.push(outboundMessage{Type: "finished", Payload: outcome.Result})
				return
			}
			progress, err := h.taking.Current(ctx, userID, quizID)
			if err != nil {
				if !sendError(err) {
					return
				}
				continue
			}
			if !sendProgress(progress) {
				return
			}
		case "goto":
			var payload gotoPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				if !sendError(domain.NewValidationError("payload", "invalid goto payload")) {
					return
				}
				continue
			}
			progress, err := h.taking.Resume(ctx, userID, quizID, payload.Index)
			if err != nil {
				if !sendError(err) {
					return
				}
				continue
			}
			if !sendProgress(progress) {
				return
			}
		case "finish":
			result, err := h.taking.Finish(ctx, userID, quizID)
			if err != nil {
				if !sendError(err) {
					return
				}
				continue
			}
			out.push(outboundMessage{Type: "finished", Payload: result})
			return
		default:
			if !sendError(domain.NewValidationError("type", "unsupported message type")) {
				return
			}
		}
	}
}

// outbox serialises writes to a connection on one goroutine. Once a write
// fails the writer stops and push reports false instead of blocking.
type outbox struct {
	send chan outboundMessage
	done chan struct{}
}

func newOutbox(write func(v interface{}) error, onError func(error)) *outbox {
	o := &outbox{
		send: make(chan outboundMessage, 16),
		done: make(chan struct{}),
	}
	go func() {
		defer close(o.done)
		for msg := range o.send {
			if err := write(msg); err != nil {
				onError(err)
				return
			}
		}
	}()
	return o
}

func (o *outbox) push(msg outboundMessage) bool {
	select {
	case <-o.done:
		return false
	default:
	}
	select {
	case o.send <- msg:
		return true
	case <-o.done:
		return false
	}
}

// close flushes queued messages and waits for the writer to exit.
func (o *outbox) close() {
	close(o.send)
	<-o.done
}
